// Package cli implements the hookline command line interface.
package cli

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/watzon/hookline/internal/config"
	"github.com/watzon/hookline/internal/hookfile"
	"github.com/watzon/hookline/internal/registry"
)

var (
	cfgFile string
	verbose bool
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "hookline",
	Short: "Lifecycle hook execution engine",
	Long: `Hookline runs user-defined shell hooks in response to lifecycle
events. Hooks are declared in a YAML hookfile with trigger conditions,
dependencies, and timeouts; before-event hooks can veto the guarded
action by exiting nonzero.

Validate a hookfile:
  hookline validate

Fire an event:
  hookline fire before --tool Bash --command "git push --force"`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		setupLogging()
	},
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./hookline.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
}

// setupLogging configures zerolog from the flags. Commands that load
// the full config refine the level afterward.
func setupLogging() {
	output := zerolog.ConsoleWriter{Out: os.Stderr}

	if verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	log.Logger = zerolog.New(output).With().Timestamp().Logger()
}

// loadConfig reads the hookline config, honoring the --config flag.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(config.LoadOptions{ConfigFile: cfgFile})
	if err != nil {
		return nil, err
	}
	applyLogging(&cfg.Logging)
	return cfg, nil
}

// applyLogging reconfigures the global logger from config. The
// --verbose flag wins over the configured level.
func applyLogging(cfg *config.LoggingConfig) {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	if verbose {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)

	var logger zerolog.Logger
	if cfg.Format == "json" {
		logger = zerolog.New(os.Stderr)
	} else {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	ctx := logger.With()
	if cfg.Timestamp {
		ctx = ctx.Timestamp()
	}
	if cfg.Caller {
		ctx = ctx.Caller()
	}
	log.Logger = ctx.Logger()
}

// loadRegistry parses the hookfile named by the config and builds a
// validated registry from it.
func loadRegistry(cfg *config.Config) (*registry.Registry, error) {
	defs, err := hookfile.Load(cfg.Hooks.File)
	if err != nil {
		return nil, err
	}
	reg, err := registry.LoadWithOptions(defs, registry.Options{
		DefaultTimeout: cfg.Executor.DefaultTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("loading hooks from %s: %w", cfg.Hooks.File, err)
	}
	return reg, nil
}

// Version returns the version string.
func Version() string {
	return fmt.Sprintf("hookline version %s", "0.1.0-dev")
}
