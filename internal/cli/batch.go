package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"imagepress/internal/common"
	"imagepress/internal/domain/compression"
)

func newBatchCommand(opts *options) *cobra.Command {
	var (
		outDir string
		level  string
	)

	cmd := &cobra.Command{
		Use:   "batch DIR",
		Short: "Convert every image in a directory to its own PDF",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lvl, err := compression.ParseLevel(level)
			if err != nil {
				return err
			}

			dir := args[0]
			if outDir == "" {
				outDir = dir
			}
			if err := os.MkdirAll(outDir, common.DefaultFilePermissions); err != nil {
				return fmt.Errorf("create %s: %w", outDir, err)
			}

			entries, err := os.ReadDir(dir)
			if err != nil {
				return fmt.Errorf("read %s: %w", dir, err)
			}
			sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

			c, cleanup, err := openContainer(opts)
			if err != nil {
				return err
			}
			defer cleanup()

			logger := c.GetLogger()
			store := c.GetSessionStore()
			converted, skipped := 0, 0

			for _, entry := range entries {
				if entry.IsDir() || strings.EqualFold(filepath.Ext(entry.Name()), ".pdf") {
					continue
				}

				path := filepath.Join(dir, entry.Name())
				userKey := common.CLIUserKey + ":" + entry.Name()

				raw, err := readImage(path)
				if err != nil {
					logger.Warn("Skipping file", "file", path, "error", err)
					skipped++
					continue
				}

				if _, err := store.Add(userKey, raw); err != nil {
					logger.Warn("Skipping file", "file", path, "error", common.KindOf(err))
					skipped++
					continue
				}
				if err := store.SetSessionLevel(userKey, lvl); err != nil {
					return err
				}

				result, err := store.Convert(cmd.Context(), userKey)
				if err != nil {
					store.Clear(userKey)
					logger.Error("Conversion failed", "file", path, "error", err)
					skipped++
					continue
				}

				out := filepath.Join(outDir, strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name()))+".pdf")
				if err := os.WriteFile(out, result.PDF, common.DebugFilePermissions); err != nil {
					return fmt.Errorf("write %s: %w", out, err)
				}

				converted++
				fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s (%s, %s)\n",
					entry.Name(), filepath.Base(out), common.FormatBytes(result.Report.FinalBytes), result.Report.Ratio)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Converted %d file(s), skipped %d\n", converted, skipped)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outDir, "output", "o", "", "output directory (defaults to DIR)")
	cmd.Flags().StringVarP(&level, "level", "l", compression.DefaultLevel.String(), "compression level: high, medium or low")
	return cmd
}
