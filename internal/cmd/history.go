package cmd

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/adamancini/hoist/internal/history"
)

func newHistoryCmd(a *app) *cobra.Command {
	var prune int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List applied self-updates",
		Long: `List the self-updates applied to this installation, newest first.

Examples:
  hoist history               # Show every recorded update
  hoist history --prune 5     # Keep only the 5 most recent entries`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("prune") {
				return a.runHistoryPrune(prune)
			}
			return a.runHistoryList()
		},
	}

	cmd.Flags().IntVar(&prune, "prune", 0, "Delete all but the N most recent entries")

	return cmd
}

func (a *app) runHistoryList() error {
	entries, err := a.journal.List()
	if err != nil {
		return fmt.Errorf("failed to read update history: %w", err)
	}
	if entries == nil {
		entries = []history.Entry{}
	}

	return a.out.Render(entries, func(w io.Writer) error {
		if len(entries) == 0 {
			_, err := fmt.Fprintln(w, "No updates recorded.")
			return err
		}
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		_, _ = fmt.Fprintln(tw, "Applied\tVersion\tPath")
		for _, e := range entries {
			_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\n", e.AppliedAt.Local().Format("2006-01-02 15:04:05"), dash(e.Tag), e.Target)
		}
		return tw.Flush()
	})
}

func (a *app) runHistoryPrune(keep int) error {
	res, err := a.journal.Prune(keep)
	if err != nil {
		return err
	}
	return a.out.Render(res, func(w io.Writer) error {
		_, err := fmt.Fprintf(w, "Deleted %d entries, kept %d.\n", len(res.Deleted), res.Kept)
		return err
	})
}
