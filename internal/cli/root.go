// Package cli implements the imagepress command line.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"imagepress/internal/config"
	"imagepress/internal/container"
	"imagepress/internal/database"
)

type options struct {
	cfgFile string
	verbose bool
	noDB    bool
	cfg     *config.Config
}

// NewRootCommand builds the command tree
func NewRootCommand() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:   "imagepress",
		Short: "Convert images into a single compressed PDF",
		Long: `imagepress turns one or more images (JPEG, PNG, BMP, WebP, and optionally
GIF and TIFF) into a single PDF, one page per image, at a selectable quality level.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.cfgFile)
			if err != nil {
				return err
			}
			if opts.verbose {
				cfg.LogLevel = "debug"
				cfg.Logger = config.NewLogger(cmd.ErrOrStderr(), cfg.LogLevel, cfg.LogFormat)
			}
			opts.cfg = cfg
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVarP(&opts.cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVar(&opts.noDB, "no-db", false, "do not persist preferences or history")

	rootCmd.AddCommand(
		newConvertCommand(opts),
		newBatchCommand(opts),
		newFormatsCommand(opts),
		newServeCommand(opts),
	)

	return rootCmd
}

// Execute runs the root command.
func Execute() error {
	return NewRootCommand().Execute()
}

// openContainer wires the application. Without a usable database the
// pipeline still works, only preferences and history are lost.
func openContainer(opts *options) (*container.Container, func(), error) {
	cfg := opts.cfg
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, nil, err
	}

	if opts.noDB {
		return container.New(cfg, nil), func() {}, nil
	}

	db, err := database.NewDatabase(cfg.DatabasePath, cfg.Logger)
	if err != nil {
		cfg.Logger.Warn("Database unavailable, continuing without persistence", "path", cfg.DatabasePath, "error", err)
		return container.New(cfg, nil), func() {}, nil
	}

	cleanup := func() {
		if err := db.Close(); err != nil {
			cfg.Logger.Warn("Failed to close database", "error", err)
		}
	}
	return container.New(cfg, db.DB()), cleanup, nil
}

func readImage(path string) ([]byte, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return raw, nil
}
