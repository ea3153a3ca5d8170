package cmd

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/adamancini/hoist/internal/download"
	"github.com/adamancini/hoist/internal/interactive"
)

func newAddonCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "addon",
		Short: "Download addon archives",
		Long: `Download addon archives into the addon directory.

Each archive is saved as <dir>/<id>. A failed download is reported and does
not stop the others.`,
	}

	cmd.AddCommand(newAddonGetCmd(a))
	cmd.AddCommand(newAddonUpdateCmd(a))
	cmd.AddCommand(newAddonListCmd(a))

	return cmd
}

func newAddonGetCmd(a *app) *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "get <id> <url>",
		Short: "Download one addon archive",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			addon := download.Addon{ID: args[0], DownloadURL: args[1]}
			return a.runAddonDownload(cmd.Context(), []download.Addon{addon}, dir)
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "", "Target directory (default: configured addon_dir)")

	return cmd
}

func newAddonUpdateCmd(a *app) *cobra.Command {
	var interactiveMode bool

	cmd := &cobra.Command{
		Use:   "update",
		Short: "Download every configured addon",
		Long: `Download every addon listed in the config file.

Use --interactive to pick which addons to download.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			addons := a.cfg.Addons
			if interactiveMode {
				if !interactive.IsTerminal() {
					return fmt.Errorf("interactive mode requires a terminal")
				}
				selected, ok := interactive.NewPrompterWithIO(cmd.InOrStdin(), cmd.OutOrStdout()).SelectAddons(addons)
				if !ok {
					return nil
				}
				addons = selected
			}
			return a.runAddonDownload(cmd.Context(), addons, "")
		},
	}

	cmd.Flags().BoolVarP(&interactiveMode, "interactive", "i", false, "Choose addons one by one")

	return cmd
}

func newAddonListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List configured addons",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.out.Render(a.cfg.Addons, func(w io.Writer) error {
				if len(a.cfg.Addons) == 0 {
					_, err := fmt.Fprintln(w, "No addons configured.")
					return err
				}
				tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
				_, _ = fmt.Fprintln(tw, "ID\tVersion\tURL")
				for _, addon := range a.cfg.Addons {
					_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\n", addon.ID, dash(addon.Version), dash(addon.DownloadURL))
				}
				return tw.Flush()
			})
		},
	}
}

// runAddonDownload downloads addons into dir, or the configured addon
// directory when dir is empty. It fails if any addon failed.
func (a *app) runAddonDownload(ctx context.Context, addons []download.Addon, dir string) error {
	if dir == "" {
		dir = a.cfg.AddonDir
	}
	if len(addons) == 0 {
		_, err := fmt.Fprintln(a.out.Out(), "No addons to download.")
		return err
	}

	results := a.downloader.DownloadAddons(ctx, addons, dir)

	if err := a.out.Render(results, func(io.Writer) error {
		for _, r := range results {
			if r.Err != nil {
				a.out.Failure("%s: %v", r.Addon.ID, r.Err)
				continue
			}
			a.out.Success("%s (%s) -> %s", r.Addon.ID, formatSize(r.Bytes), r.Path)
		}
		return nil
	}); err != nil {
		return err
	}

	if failed := download.Failed(results); len(failed) > 0 {
		return fmt.Errorf("%d of %d addon downloads failed", len(failed), len(results))
	}
	return nil
}
