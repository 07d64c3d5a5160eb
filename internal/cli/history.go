package cli

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/watzon/hookline/internal/history"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history [dispatch-id]",
	Short: "Show recorded dispatches",
	Long: `History lists recent dispatches from the audit store, newest first.
With a dispatch ID it shows the per-hook results of that dispatch.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if !cfg.History.Enabled {
			return fmt.Errorf("history is disabled; set history.enabled in config")
		}

		store, err := history.Open(cfg.History.Path)
		if err != nil {
			return err
		}
		defer store.Close()

		if len(args) == 1 {
			return showRuns(cmd, store, args[0])
		}
		return showRecent(cmd, store)
	},
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "number of dispatches to show")
	rootCmd.AddCommand(historyCmd)
}

func showRecent(cmd *cobra.Command, store *history.Store) error {
	records, err := store.Recent(cmd.Context(), historyLimit)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tWHEN\tEVENT\tTOOL\tVERDICT\tDURATION")
	for _, rec := range records {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			rec.ID,
			rec.StartedAt.Local().Format(time.RFC3339),
			rec.Event,
			rec.Tool,
			rec.Verdict,
			rec.Duration.Round(time.Millisecond),
		)
	}
	return w.Flush()
}

func showRuns(cmd *cobra.Command, store *history.Store, dispatchID string) error {
	rec, err := store.Get(cmd.Context(), dispatchID)
	if err != nil {
		return err
	}
	runs, err := store.Runs(cmd.Context(), dispatchID)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "dispatch %s: event=%s tool=%s verdict=%s\n",
		rec.ID, rec.Event, rec.Tool, rec.Verdict)

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "HOOK\tOUTCOME\tEXIT\tDURATION\tERROR")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n",
			run.HookName,
			run.Outcome,
			run.ExitCode,
			run.Duration.Round(time.Millisecond),
			run.Error,
		)
	}
	return w.Flush()
}
