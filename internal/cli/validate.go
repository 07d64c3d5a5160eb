package cli

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/watzon/hookline/internal/hookfile"
	"github.com/watzon/hookline/internal/registry"
)

// longTimeoutWarn is the threshold above which validate flags a hook's
// timeout as suspicious.
const longTimeoutWarn = 300 * time.Second

var validateCmd = &cobra.Command{
	Use:   "validate [hookfile]",
	Short: "Validate a hookfile without running anything",
	Long: `Validate parses the hookfile, checks every hook definition, and
verifies the dependency graph is acyclic. With no argument the file
named by the config is checked.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := ""
		if len(args) == 1 {
			path = args[0]
		} else {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			path = cfg.Hooks.File
		}

		defs, err := hookfile.Load(path)
		if err != nil {
			return err
		}

		reg, err := registry.Load(defs)
		if err != nil {
			return err
		}

		for _, def := range defs {
			if def.Timeout > longTimeoutWarn {
				log.Warn().Str("hook", def.Name).Dur("timeout", def.Timeout).
					Msg("timeout is unusually long; a stuck hook will stall its event")
			}
		}

		fmt.Fprintf(cmd.OutOrStdout(), "%s: %d hooks OK\n", path, reg.Len())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
