package cli

import (
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/roach88/homestead/internal/config"
)

// RootOptions holds global flags and the resolved configuration for all
// commands.
type RootOptions struct {
	ConfigFile string

	// Config is resolved before any subcommand runs.
	Config config.Config

	viper *viper.Viper
}

// ValidFormats defines the allowed output formats.
var ValidFormats = config.Formats

// NewRootCommand creates the root command for the homestead CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{viper: config.New()}

	cmd := &cobra.Command{
		Use:   "homestead",
		Short: "homestead - farm interaction engine",
		Long: `A headless engine for a tile-based farming game: a plant catalog,
per-tile growth state machines and a three-tier action matcher.

Settings resolve from flags, HOMESTEAD_* environment variables and an
optional homestead.yaml (or .toml / .json) config file, in that order.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.resolve(cmd)
		},
	}

	cmd.PersistentFlags().BoolP(config.KeyVerbose, "v", false, "verbose output")
	cmd.PersistentFlags().String(config.KeyFormat, config.DefaultFormat, "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.ConfigFile, "config", "", "config file (default ./homestead.yaml if present)")

	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewSimulateCommand(opts))
	cmd.AddCommand(NewRunCommand(opts))
	cmd.AddCommand(NewInspectCommand(opts))
	cmd.AddCommand(NewTraceCommand(opts))

	return cmd
}

// resolve binds the executing command's flags and loads the configuration.
// It also installs the slog handler: debug under --verbose, info otherwise.
func (o *RootOptions) resolve(cmd *cobra.Command) error {
	err := config.BindFlags(o.viper, cmd.Flags(),
		config.KeyCatalog, config.KeyDB, config.KeyStep, config.KeyFrames,
		config.KeyVerbose, config.KeyFormat, config.KeySession,
	)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid flags", err)
	}

	cfg, err := config.Load(o.viper, o.ConfigFile)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid configuration", err)
	}
	o.Config = cfg

	level := slog.LevelInfo
	if cfg.Verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
		Level: level,
	})))
	return nil
}

// Verbose reports whether verbose output is on.
func (o *RootOptions) Verbose() bool { return o.Config.Verbose }

func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Config.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   o.Config.Verbose,
	}
}
