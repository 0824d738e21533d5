package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/zjrosen/dvars/internal/service"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Reload the archive and HCL files as they change",
	Long: `Keep the registry loaded and re-apply the archive and HCL files whenever
they are written, printing what was applied. Stops on interrupt.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		w := cmd.OutOrStdout()
		hook := service.WithReloadHook(func(paths []string, applied int, err error) {
			if err != nil {
				_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "reload failed: %v\n", err)
				return
			}
			_, _ = fmt.Fprintf(w, "applied %d assignments from %v\n", applied, paths)
		})

		return withApp(cmd, appOptions{service: []service.Option{hook}}, func(a *app) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if err := a.svc.Watch(ctx); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(w, "watching %v\n", cfg.WatchedFiles())
			<-ctx.Done()
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
