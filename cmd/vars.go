package cmd

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/muesli/reflow/wordwrap"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"

	"github.com/zjrosen/dvars/internal/archive"
	"github.com/zjrosen/dvars/internal/dvar"
	"github.com/zjrosen/dvars/internal/service"
	"github.com/zjrosen/dvars/internal/ui/markdown"
)

const (
	listNameWidth  = 28
	listValueWidth = 32
)

var (
	listPrefix   string
	listModified bool
	listArchived bool
	getLatched   bool
	setSource    string
	resetSource  string
	describeMD   bool
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List variables with their type, value and flags",
	Long: `List every registered variable in name order.

Examples:
  dvars list
  dvars list --prefix r_
  dvars list --modified
  dvars list --archived`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, appOptions{}, func(a *app) error {
			prefix := strings.ToLower(listPrefix)
			w := cmd.OutOrStdout()
			a.svc.Registry().ForEach(func(v *dvar.Variable) {
				if !strings.HasPrefix(strings.ToLower(v.Name()), prefix) {
					return
				}
				if listModified && !v.Modified() {
					return
				}
				if listArchived && !v.Flags().Has(dvar.FlagArchive) {
					return
				}
				writeListRow(w, v)
			})
			return nil
		})
	},
}

func writeListRow(w io.Writer, v *dvar.Variable) {
	value := v.DisplayableValue()
	if v.HasLatchedValue() {
		value += " -> " + v.DisplayableLatchedValue()
	}
	_, _ = fmt.Fprintf(w, "%s %s %s %s\n",
		runewidth.FillRight(runewidth.Truncate(v.Name(), listNameWidth, "..."), listNameWidth),
		runewidth.FillRight(v.Type().String(), 12),
		runewidth.FillRight(runewidth.Truncate(value, listValueWidth, "..."), listValueWidth),
		v.Flags(),
	)
}

var getCmd = &cobra.Command{
	Use:   "get <name>",
	Short: "Print the value of a variable",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, appOptions{}, func(a *app) error {
			v, err := a.svc.Get(args[0])
			if err != nil {
				return err
			}
			value := v.DisplayableValue()
			if getLatched {
				value = v.DisplayableLatchedValue()
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), value)
			return err
		})
	},
}

var setCmd = &cobra.Command{
	Use:   "set <name> <value...>",
	Short: "Set a variable from text",
	Long: `Set a variable from text, creating an external string variable when the
name is unknown. Remaining arguments are joined with spaces, so vectors and
colors can be given unquoted.

Examples:
  dvars set cg_fov 95
  dvars set r_sunDirection 0 0.7 0.7
  dvars set r_mode fullscreen      # latched, applies after restart
  dvars set --source internal sv_cheats 1
  dvars set -- r_sunDirection 0 -1 0  # -- before negative components`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		source, err := parseSource(setSource)
		if err != nil {
			return err
		}
		return withApp(cmd, appOptions{}, func(a *app) error {
			v, err := a.svc.Set(cmd.Context(), args[0], strings.Join(args[1:], " "), source)
			if err != nil {
				return err
			}
			return writeAssignment(cmd.OutOrStdout(), v)
		})
	},
}

var resetCmd = &cobra.Command{
	Use:   "reset <name>",
	Short: "Restore a variable to its reset value",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		source, err := parseSource(resetSource)
		if err != nil {
			return err
		}
		return withApp(cmd, appOptions{}, func(a *app) error {
			v, err := a.svc.Reset(args[0], source)
			if err != nil {
				return err
			}
			return writeAssignment(cmd.OutOrStdout(), v)
		})
	},
}

func writeAssignment(w io.Writer, v *dvar.Variable) error {
	if v.HasLatchedValue() {
		_, err := fmt.Fprintf(w, "%s %q (latched %q)\n", v.Name(), v.DisplayableValue(), v.DisplayableLatchedValue())
		return err
	}
	_, err := fmt.Fprintf(w, "%s %q\n", v.Name(), v.DisplayableValue())
	return err
}

var describeCmd = &cobra.Command{
	Use:   "describe <name>",
	Short: "Describe a variable and its domain",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, appOptions{}, func(a *app) error {
			d, err := a.svc.Describe(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if describeMD {
				r, err := markdown.New(cfg.UI.WrapWidth, markdownStyle(cmd.OutOrStdout()))
				if err != nil {
					return err
				}
				out, err := r.Render(d.Markdown())
				if err != nil {
					return err
				}
				_, err = fmt.Fprint(cmd.OutOrStdout(), out)
				return err
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), plainDescription(d, cfg.UI.WrapWidth))
			return err
		})
	},
}

// markdownStyle falls back to "notty" when w cannot show colors.
func markdownStyle(w io.Writer) string {
	if termenv.NewOutput(w).Profile == termenv.Ascii {
		return "notty"
	}
	return cfg.UI.MarkdownStyle
}

func plainDescription(d service.Description, wrap int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s (%s) %s\n", d.Name, d.Type, d.Flags)
	if d.Help != "" {
		help := d.Help
		if wrap > 0 {
			help = wordwrap.String(help, wrap)
		}
		for _, line := range strings.Split(help, "\n") {
			fmt.Fprintf(&b, "  %s\n", line)
		}
	}
	fmt.Fprintf(&b, "value:   %q\n", d.Value)
	if d.Pending {
		fmt.Fprintf(&b, "latched: %q\n", d.Latched)
	}
	fmt.Fprintf(&b, "reset:   %q\n", d.Reset)
	if d.Domain != "" {
		b.WriteString(d.Domain)
		b.WriteString("\n")
	}
	return b.String()
}

var dumpCmd = &cobra.Command{
	Use:   "dump [name...]",
	Short: "Print variables as name \"value\" records",
	Long: `Print variables in the archive format. With no names every variable is
printed; unknown names are reported and skipped.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, appOptions{}, func(a *app) error {
			names := args
			if len(names) == 0 {
				names = slices.Collect(a.svc.Registry().Names())
			}
			return a.svc.Registry().SaveDvarsToBuffer(names, cmd.OutOrStdout())
		})
	},
}

var persistCmd = &cobra.Command{
	Use:   "persist",
	Short: "Write archived variables to the archive file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, appOptions{}, func(a *app) error {
			if err := a.svc.Persist(cmd.Context()); err != nil {
				return err
			}
			n := len(archive.ArchivedNames(a.svc.Registry()))
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "wrote %d variables to %s\n", n, cfg.ArchiveFile)
			return err
		})
	},
}

func init() {
	listCmd.Flags().StringVarP(&listPrefix, "prefix", "p", "", "only names starting with prefix (case-insensitive)")
	listCmd.Flags().BoolVarP(&listModified, "modified", "m", false, "only variables changed since registration")
	listCmd.Flags().BoolVarP(&listArchived, "archived", "a", false, "only variables saved to the archive")
	getCmd.Flags().BoolVarP(&getLatched, "latched", "l", false, "print the pending latched value")
	setCmd.Flags().StringVarP(&setSource, "source", "s", "external", "source of the change: internal, external or script")
	resetCmd.Flags().StringVarP(&resetSource, "source", "s", "external", "source of the change: internal, external or script")
	describeCmd.Flags().BoolVar(&describeMD, "markdown", false, "render the description as markdown")

	rootCmd.AddCommand(listCmd, getCmd, setCmd, resetCmd, describeCmd, dumpCmd, persistCmd)
}
