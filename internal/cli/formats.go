package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"imagepress/internal/normalize"
)

func newFormatsCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "formats",
		Short: "List the accepted image formats",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var normalizeOpts []normalize.Option
			if opts.cfg.ExtendedFormats {
				normalizeOpts = append(normalizeOpts, normalize.WithExtendedFormats())
			}

			for _, format := range normalize.NewNormalizer(opts.cfg.Logger, normalizeOpts...).SupportedFormats() {
				fmt.Fprintln(cmd.OutOrStdout(), format)
			}
			return nil
		},
	}
}
