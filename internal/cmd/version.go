package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/adamancini/hoist/internal/interactive"
	"github.com/adamancini/hoist/internal/update"
)

type versionOptions struct {
	check   bool
	update  bool
	yes     bool
	restart bool
}

// updateResult is what `version --check/--update` reports.
type updateResult struct {
	update.UpdateInfo `yaml:",inline"`

	Staged *update.Staged `json:"staged,omitempty" yaml:"staged,omitempty"`
	State  string         `json:"state" yaml:"state"`
}

func newVersionCmd(a *app) *cobra.Command {
	var opts versionOptions

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information and check for updates",
		Long: `Display the current hoist version and optionally check for or install updates.

An update is downloaded next to the running binary and applied the next time
hoist starts. Use --restart to start the new binary right away.

Examples:
  hoist version                      # Show current version
  hoist version --check              # Check if update is available
  hoist version --update             # Download the latest version
  hoist version --update --restart   # Download and switch to it now`,
		RunE: func(cmd *cobra.Command, args []string) error {
			prompt := func(question string) bool {
				if opts.yes || !interactive.IsTerminal() {
					return true
				}
				return interactive.NewPrompterWithIO(cmd.InOrStdin(), cmd.OutOrStdout()).Confirm("%s", question)
			}
			return a.runVersion(cmd.Context(), opts, prompt)
		},
	}

	cmd.Flags().BoolVar(&opts.check, "check", false, "Check for updates without installing")
	cmd.Flags().BoolVar(&opts.update, "update", false, "Download the latest version")
	cmd.Flags().BoolVarP(&opts.yes, "yes", "y", false, "Do not ask for confirmation")
	cmd.Flags().BoolVar(&opts.restart, "restart", false, "Start the new version after downloading it")

	return cmd
}

func (a *app) runVersion(ctx context.Context, opts versionOptions, confirm func(string) bool) error {
	if ctx == nil {
		ctx = context.Background()
	}

	if !opts.check && !opts.update {
		return a.out.Render(a.build, func(w io.Writer) error {
			_, err := fmt.Fprintf(w, "hoist version %s (commit %s, built %s)\n", a.build.Version, a.build.Commit, a.build.Date)
			return err
		})
	}

	if a.cfg.BinaryName == "" {
		if p := update.Detect(); !p.IsSupported() {
			return fmt.Errorf("unsupported platform: %s/%s", p.OS, p.Arch)
		}
	}

	loc := a.locator()
	info, err := loc.Check(ctx, a.build.Version, a.binaryName())
	if err != nil {
		return fmt.Errorf("failed to check for updates: %w", err)
	}

	exe, err := a.executable()
	if err != nil {
		return err
	}
	seq := update.NewSequencer(loc, a.downloader, exe, a.binaryName(), a.log)

	result := &updateResult{UpdateInfo: *info, State: seq.State().String()}

	if !opts.update || !info.Available {
		return a.out.Render(result, func(w io.Writer) error {
			return printCheck(w, info, opts.update)
		})
	}

	if !confirm(fmt.Sprintf("Update hoist %s to %s?", info.CurrentVersion, info.LatestVersion)) {
		_, err := fmt.Fprintln(a.out.Out(), "Update cancelled.")
		return err
	}

	staged, err := seq.StageRelease(ctx, info.Release)
	if err != nil {
		return fmt.Errorf("update failed: %w", err)
	}
	result.Staged = staged
	result.State = seq.State().String()

	if err := a.out.Render(result, func(w io.Writer) error {
		_, _ = fmt.Fprintf(w, "Downloaded %s (%s)\n", info.AssetName, formatSize(staged.Bytes))
		_, err := fmt.Fprintf(w, "Staged %s at %s\n", info.LatestVersion, staged.Path)
		if !opts.restart {
			_, err = fmt.Fprintln(w, "Restart hoist to finish the update.")
		}
		return err
	}); err != nil {
		return err
	}

	if opts.restart {
		proc, err := update.Relaunch(staged.Path, a.relaunchArgs())
		if err != nil {
			return err
		}
		a.log.Info("relaunched", "pid", proc.Pid)
	}
	return nil
}

func printCheck(w io.Writer, info *update.UpdateInfo, updating bool) error {
	_, _ = fmt.Fprintf(w, "Current version: %s\n", info.CurrentVersion)

	switch {
	case info.LatestVersion == "":
		_, err := fmt.Fprintln(w, "No release information available")
		return err
	case !info.Available:
		_, err := fmt.Fprintln(w, "Already running latest version")
		return err
	}

	_, _ = fmt.Fprintf(w, "Latest version: %s available\n", info.LatestVersion)
	if info.ReleaseNotes != "" {
		_, _ = fmt.Fprintf(w, "\nRelease notes:\n%s\n", info.ReleaseNotes)
	}
	if !updating {
		_, _ = fmt.Fprintln(w, "\nRun 'hoist version --update' to install")
	}
	return nil
}

// relaunchArgs carries the config location over to the relaunched binary.
func (a *app) relaunchArgs() []string {
	args := []string{"version"}
	if a.flags.configPath != "" {
		args = append(args, "--config", a.flags.configPath)
	}
	if a.flags.dataDir != "" {
		args = append(args, "--data-directory", a.flags.dataDir)
	}
	return args
}
