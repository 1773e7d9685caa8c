// Package cli provides the command-line interface for accent.
package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"

	"github.com/jmylchreest/accent/internal/config"
	"github.com/jmylchreest/accent/internal/store"
	"github.com/jmylchreest/accent/internal/version"
)

// app holds state shared by all subcommands once flags are parsed.
type app struct {
	configPath string
	verbose    bool
	quiet      bool

	cfg    *config.Config
	logger hclog.Logger
}

// NewRootCmd builds the accent command tree.
func NewRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "accent",
		Short: "Adaptive accent colours from a profile image",
		Long: `Accent derives a primary and secondary accent colour from a profile image
and publishes them as CSS custom properties.

The palette is cached so the next start can apply it before the image has
loaded, then refreshed once the image is available.`,
		Version:      version.Short(),
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "config file (default: $XDG_CONFIG_HOME/accent/config.toml)")
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "enable verbose output")
	flags.BoolVarP(&a.quiet, "quiet", "q", false, "suppress non-error output")
	config.AddFlags(flags)

	rootCmd.SetVersionTemplate(version.String() + "\n")

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newExtractCmd(a))
	rootCmd.AddCommand(newApplyCmd(a))
	rootCmd.AddCommand(newRunCmd(a))
	rootCmd.AddCommand(newCacheCmd(a))

	return rootCmd
}

func (a *app) setup(cmd *cobra.Command) error {
	if a.verbose && a.quiet {
		return fmt.Errorf("--verbose and --quiet are mutually exclusive")
	}

	a.logger = newLogger(cmd.ErrOrStderr(), a.verbose, a.quiet)

	cfg, err := config.Load(a.configPath)
	switch {
	case errors.Is(err, config.ErrNotFound) && a.configPath == "":
		a.logger.Debug("no config file, using defaults")
	case err != nil:
		return err
	default:
		a.logger.Debug("loaded config", "path", cfg.Path())
	}

	if err := cfg.ApplyFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("invalid flags: %w", err)
	}
	a.cfg = cfg
	return nil
}

// newLogger returns the process logger: Debug when verbose, silent when
// quiet, Info otherwise.
func newLogger(w io.Writer, verbose, quiet bool) hclog.Logger {
	level := hclog.Info
	switch {
	case quiet:
		level = hclog.Off
	case verbose:
		level = hclog.Debug
	}
	return hclog.New(&hclog.LoggerOptions{
		Name:   "accent",
		Output: w,
		Level:  level,
	})
}

// openCache opens the configured palette cache. The caller closes the store.
func (a *app) openCache() (*store.PaletteCache, error) {
	s, err := store.Open(a.cfg.Store.Backend, a.cfg.Store.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open palette cache: %w", err)
	}
	a.logger.Debug("opened palette cache", "backend", a.cfg.Store.Backend)
	return &store.PaletteCache{Store: s, Key: a.cfg.Store.Key}, nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long:  `Print detailed version information including build date, commit hash, and Go version.`,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.String())
		},
	}
}
