package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	zone "github.com/lrstanley/bubblezone"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/zjrosen/dvars/internal/log"
	"github.com/zjrosen/dvars/internal/ui/inspector"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Browse and edit variables interactively",
	Long: `Open an interactive console over the registry.

Type to filter by name prefix, tab to complete, and enter "name value" to set
a variable. Enter on a bare name, or a click on a row, shows its description
and domain. When
watch.enabled or the watch-config flag is set, edits to the archive and HCL
files are applied while the console is open.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !term.IsTerminal(int(os.Stdout.Fd())) || !term.IsTerminal(int(os.Stdin.Fd())) {
			return errors.New("inspect needs an interactive terminal")
		}

		return withApp(cmd, appOptions{teaLog: true}, func(a *app) error {
			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			a.svc.WatchDescriptions(ctx)
			if a.svc.WatchEnabled() {
				if err := a.svc.Watch(ctx); err != nil {
					log.Warn(log.CatWatcher, "Hot reload disabled", "error", err)
				}
			}

			zone.NewGlobal()
			model := inspector.New(ctx, a.svc, cfg.UI.WrapWidth)
			p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseCellMotion())
			if _, err := p.Run(); err != nil {
				return fmt.Errorf("running inspector: %w", err)
			}
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}
