package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/watzon/hookline/internal/dispatch"
	"github.com/watzon/hookline/internal/executor"
	"github.com/watzon/hookline/internal/history"
	"github.com/watzon/hookline/internal/hook"
)

var fireFlags struct {
	tool     string
	filePath string
	command  string
	session  string
	dir      string
	env      []string
}

var fireCmd = &cobra.Command{
	Use:   "fire <event>",
	Short: "Fire an event and run the matching hooks",
	Long: fmt.Sprintf(`Fire dispatches one event through the configured hooks and prints
each hook's outcome. The exit status is 0 when the verdict is proceed
and 1 when a blocking hook vetoed the action.

Accepted events: %s`, strings.Join(eventNames(), ", ")),
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		event := hook.EventKind(args[0])
		if !event.IsValid() {
			return fmt.Errorf("unknown event %q (accepted: %s)",
				args[0], strings.Join(eventNames(), ", "))
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		reg, err := loadRegistry(cfg)
		if err != nil {
			return err
		}

		runner := executor.NewRunner()
		runner.Shell = cfg.Executor.Shell
		runner.TailLimit = cfg.Executor.TailLimit

		extra, err := parseEnvFlags(fireFlags.env)
		if err != nil {
			return err
		}

		ectx := &hook.ExecutionContext{
			Event:      event,
			Tool:       fireFlags.tool,
			FilePath:   fireFlags.filePath,
			Command:    fireFlags.command,
			SessionID:  fireFlags.session,
			WorkingDir: fireFlags.dir,
			Env:        extra,
		}

		d := dispatch.New(reg, runner)
		started := time.Now()
		out, derr := d.Dispatch(cmd.Context(), ectx)
		elapsed := time.Since(started)

		if cfg.History.Enabled {
			recordHistory(cfg.History.Path, cfg.History.Retention, ectx, out, started, elapsed)
		}

		printOutcome(cmd, out)
		if derr != nil {
			return derr
		}
		if out.Verdict == hook.Block {
			os.Exit(1)
		}
		return nil
	},
}

func init() {
	fireCmd.Flags().StringVar(&fireFlags.tool, "tool", "", "tool name for tool-scoped events")
	fireCmd.Flags().StringVar(&fireFlags.filePath, "file", "", "file path the action touches")
	fireCmd.Flags().StringVar(&fireFlags.command, "command", "", "command text the action would run")
	fireCmd.Flags().StringVar(&fireFlags.session, "session", "", "session identifier")
	fireCmd.Flags().StringVar(&fireFlags.dir, "dir", "", "working directory for hook commands")
	fireCmd.Flags().StringArrayVar(&fireFlags.env, "env", nil, "extra KEY=VALUE pairs for hook environments")
	rootCmd.AddCommand(fireCmd)
}

func parseEnvFlags(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	env := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid --env value %q (want KEY=VALUE)", pair)
		}
		env[key] = value
	}
	return env, nil
}

func printOutcome(cmd *cobra.Command, out *dispatch.Outcome) {
	w := cmd.OutOrStdout()
	for _, r := range out.Results {
		fmt.Fprintf(w, "%-10s %s (%s)\n", r.Outcome, r.HookName, r.Duration.Round(time.Millisecond))
		if r.Error != "" {
			fmt.Fprintf(w, "           %s\n", r.Error)
		}
	}
	if blocked := out.BlockedBy(); blocked != "" {
		fmt.Fprintf(w, "blocked by %s\n", blocked)
	} else {
		fmt.Fprintln(w, "proceed")
	}
}

// recordHistory persists the dispatch outcome. History failures never
// change the verdict; they are logged and ignored.
func recordHistory(path string, retention time.Duration, ectx *hook.ExecutionContext, out *dispatch.Outcome, started time.Time, elapsed time.Duration) {
	store, err := history.Open(path)
	if err != nil {
		log.Warn().Err(err).Msg("opening history store")
		return
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.Record(ctx, ectx, out, started, elapsed); err != nil {
		log.Warn().Err(err).Msg("recording dispatch history")
	}
	if retention > 0 {
		if _, err := store.Prune(ctx, started.Add(-retention)); err != nil {
			log.Warn().Err(err).Msg("pruning dispatch history")
		}
	}
}
