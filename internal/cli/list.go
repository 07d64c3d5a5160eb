package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/watzon/hookline/internal/hook"
)

var listEvent string

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List configured hooks",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		reg, err := loadRegistry(cfg)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tEVENT\tTOOLS\tTIMEOUT\tENABLED\tDEPENDS ON")
		for _, e := range reg.All() {
			if listEvent != "" && string(e.Def.Event) != listEvent {
				continue
			}
			tools := strings.Join(e.Def.Tools, ",")
			if tools == "" && e.Def.Event.ToolScoped() {
				tools = "*"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%t\t%s\n",
				e.Def.Name,
				e.Def.Event,
				tools,
				e.Def.Timeout,
				e.Def.Enabled,
				e.Def.DependsOn,
			)
		}
		return w.Flush()
	},
}

func init() {
	listCmd.Flags().StringVar(&listEvent, "event", "", "only show hooks for this event")
	rootCmd.AddCommand(listCmd)
}

// eventNames lists the accepted event kinds for help text.
func eventNames() []string {
	kinds := []hook.EventKind{
		hook.ToolBefore, hook.ToolAfter,
		hook.SessionStart, hook.SessionEnd,
		hook.AgentCreated, hook.AgentDestroyed,
		hook.SlashCommand,
	}
	names := make([]string, len(kinds))
	for i, k := range kinds {
		names[i] = string(k)
	}
	return names
}
