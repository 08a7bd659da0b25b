package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"imagepress/internal/common"
	"imagepress/internal/domain/compression"
	"imagepress/internal/transport"
)

func newConvertCommand(opts *options) *cobra.Command {
	var (
		output string
		level  string
	)

	cmd := &cobra.Command{
		Use:   "convert IMAGE...",
		Short: "Combine images into one PDF, in the order given",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lvl, err := compression.ParseLevel(level)
			if err != nil {
				return err
			}

			c, cleanup, err := openContainer(opts)
			if err != nil {
				return err
			}
			defer cleanup()

			store := c.GetSessionStore()
			userKey := common.CLIUserKey
			// Start from a clean session even if a previous run left state behind
			store.Clear(userKey)

			if cmd.Flags().Changed("level") {
				if err := store.SetLevel(userKey, lvl); err != nil {
					return err
				}
			}

			for _, path := range args {
				raw, err := readImage(path)
				if err != nil {
					return err
				}
				if _, err := store.Add(userKey, raw); err != nil {
					return fmt.Errorf("%s: %s", path, transport.Message(common.KindOf(err)))
				}
			}

			result, err := store.Convert(cmd.Context(), userKey)
			if err != nil {
				return fmt.Errorf("%s", transport.Message(common.KindOf(err)))
			}

			if err := os.WriteFile(output, result.PDF, common.DebugFilePermissions); err != nil {
				return fmt.Errorf("write %s: %w", output, err)
			}

			cfg := c.GetConfig()
			if cfg.DebugMode {
				if _, err := transport.NewDebugWriter(cfg.DebugDir, c.GetLogger()).Write(userKey, result.Report.ImageCount, result.PDF); err != nil {
					c.GetLogger().Warn("Failed to write debug PDF", "error", err)
				}
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%s)\n%s\n", output, result.Level.Title(), result.Report.Summary())
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "output.pdf", "output PDF path")
	cmd.Flags().StringVarP(&level, "level", "l", compression.DefaultLevel.String(), "compression level: high, medium or low")
	return cmd
}
