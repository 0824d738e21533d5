package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"

	"github.com/zjrosen/dvars/internal/snapshot"
)

var (
	snapListLabel   string
	snapListLimit   int
	snapListDeleted bool
	snapRestoreSrc  string
	snapDiffAll     bool
	snapPurgeAge    time.Duration
)

var snapshotCmd = &cobra.Command{
	Use:     "snapshot",
	Aliases: []string{"snap"},
	Short:   "Save, list, restore and diff registry snapshots",
	Long: `Snapshots record every variable's type, flags and displayable value in the
sqlite store at store.path.

Examples:
  dvars snapshot save before-tuning
  dvars snapshot list --label before-tuning
  dvars snapshot diff <guid>
  dvars snapshot restore <guid>
  dvars snapshot delete <guid>
  dvars snapshot purge --older-than 720h`,
}

var snapshotSaveCmd = &cobra.Command{
	Use:   "save [label]",
	Short: "Capture the registry",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		label := ""
		if len(args) == 1 {
			label = args[0]
		}
		return withApp(cmd, appOptions{store: true}, func(a *app) error {
			snap, err := a.svc.Snapshot(cmd.Context(), label)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s %d variables\n", snap.GUID(), snap.Len())
			return err
		})
	},
}

var snapshotListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved snapshots, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, appOptions{store: true}, func(a *app) error {
			snaps, err := a.svc.Snapshots(snapshot.ListFilter{
				Label:          snapListLabel,
				Limit:          snapListLimit,
				IncludeDeleted: snapListDeleted,
			})
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			for _, s := range snaps {
				label := s.Label()
				if label == "" {
					label = "-"
				}
				line := fmt.Sprintf("%s  %s  %s  %5d",
					s.GUID(),
					s.CreatedAt().Local().Format(time.DateTime),
					runewidth.FillRight(runewidth.Truncate(label, 24, "..."), 24),
					s.Len(),
				)
				if s.DeletedAt() != nil {
					line += "  deleted"
				}
				if _, err := fmt.Fprintln(w, line); err != nil {
					return err
				}
			}
			return nil
		})
	},
}

var snapshotRestoreCmd = &cobra.Command{
	Use:   "restore <guid>",
	Short: "Apply a snapshot to the registry",
	Long: `Apply a snapshot to the registry on behalf of --source. Archived variables
that change are written to the archive when persist-on-exit is set.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		source, err := parseSource(snapRestoreSrc)
		if err != nil {
			return err
		}
		return withApp(cmd, appOptions{store: true}, func(a *app) error {
			n, err := a.svc.Restore(cmd.Context(), args[0], source)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "restored %d variables\n", n)
			return err
		})
	},
}

var snapshotDiffCmd = &cobra.Command{
	Use:   "diff <guid>",
	Short: "Show what changed since a snapshot",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, appOptions{store: true}, func(a *app) error {
			diff, err := a.svc.Diff(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if diff == "" {
				_, err = fmt.Fprintln(cmd.OutOrStdout(), "no changes")
				return err
			}
			if !snapDiffAll {
				diff = changedLines(diff)
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), diff)
			return err
		})
	},
}

// changedLines keeps only the "- " and "+ " lines of a line diff.
func changedLines(diff string) string {
	var b strings.Builder
	for _, line := range strings.SplitAfter(diff, "\n") {
		if strings.HasPrefix(line, "- ") || strings.HasPrefix(line, "+ ") {
			b.WriteString(line)
		}
	}
	return b.String()
}

var snapshotDeleteCmd = &cobra.Command{
	Use:   "delete <guid>",
	Short: "Mark a snapshot deleted",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, appOptions{store: true}, func(a *app) error {
			if err := a.svc.DeleteSnapshot(args[0]); err != nil {
				return err
			}
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
			return err
		})
	},
}

var snapshotPurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Permanently remove deleted snapshots",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, appOptions{store: true}, func(a *app) error {
			n, err := a.svc.PurgeSnapshots(snapPurgeAge)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "purged %d snapshots\n", n)
			return err
		})
	},
}

func init() {
	snapshotListCmd.Flags().StringVarP(&snapListLabel, "label", "l", "", "only snapshots with this label")
	snapshotListCmd.Flags().IntVarP(&snapListLimit, "limit", "n", 0, "maximum number of snapshots (0 for all)")
	snapshotListCmd.Flags().BoolVar(&snapListDeleted, "deleted", false, "include deleted snapshots")
	snapshotRestoreCmd.Flags().StringVarP(&snapRestoreSrc, "source", "s", "external", "source of the change: internal, external or script")
	snapshotDiffCmd.Flags().BoolVarP(&snapDiffAll, "all", "a", false, "include unchanged lines")
	snapshotPurgeCmd.Flags().DurationVar(&snapPurgeAge, "older-than", 0, "only snapshots deleted at least this long ago")

	snapshotCmd.AddCommand(snapshotSaveCmd, snapshotListCmd, snapshotRestoreCmd,
		snapshotDiffCmd, snapshotDeleteCmd, snapshotPurgeCmd)
	rootCmd.AddCommand(snapshotCmd)
}
