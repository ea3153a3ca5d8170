package cmd

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/adamancini/hoist/internal/download"
	"github.com/adamancini/hoist/internal/types"
)

func newFetchCmd(a *app) *cobra.Command {
	var (
		verify  string
		timeout time.Duration
		headers []string
		limit   int64
	)

	cmd := &cobra.Command{
		Use:   "fetch <url> <dest>",
		Short: "Download a file and check its length",
		Long: `Download a file to dest. By default the number of bytes written must match
the Content-Length the server announced, or the file is removed and the
command fails.

Examples:
  hoist fetch https://example.com/pack.zip ./pack.zip
  hoist fetch --verify none https://example.com/stream ./stream.bin
  hoist fetch -H "Authorization: Bearer $TOKEN" https://example.com/f ./f`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit < 0 {
				return fmt.Errorf("--limit-rate must not be negative")
			}
			mode, err := types.ParseVerifyMode(verify)
			if err != nil {
				return err
			}
			hdrs, err := parseHeaders(headers)
			if err != nil {
				return err
			}
			if hdrs["Accept"] == "" {
				hdrs["Accept"] = "application/octet-stream"
			}

			res, err := a.downloader.Fetch(cmd.Context(), download.Request{
				URL:       args[0],
				Dest:      args[1],
				Headers:   hdrs,
				Timeout:   timeout,
				Verify:    download.VerifierFor(mode),
				RateLimit: limit,
			})
			if err != nil {
				return err
			}

			return a.out.Render(res, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "Saved %s (%s)\n", res.Path, formatSize(res.Written))
				return err
			})
		},
	}

	cmd.Flags().StringVar(&verify, "verify", string(types.VerifyLength), "Integrity check: none, length")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "Bound the whole transfer (0 means no limit)")
	cmd.Flags().Int64Var(&limit, "limit-rate", 0, "Cap the transfer in bytes per second (default: config rate_limit)")
	cmd.Flags().StringArrayVarP(&headers, "header", "H", nil, "Extra request header, \"Name: value\" (repeatable)")

	_ = cmd.RegisterFlagCompletionFunc("verify", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		modes := make([]string, 0, len(types.AllVerifyModes()))
		for _, m := range types.AllVerifyModes() {
			modes = append(modes, m.String())
		}
		return modes, cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}
