package cli

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/WorldObservationLog/NeuroTools/db"
	"github.com/WorldObservationLog/NeuroTools/export"
	"github.com/WorldObservationLog/NeuroTools/server"
)

func (a *App) newServeCommand() *cobra.Command {
	var addr, outDir string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the export retention job",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if addr == "" {
				addr = a.Config.HTTPAddr
			}
			sess, err := a.newSession(cmd.Context(), outDir)
			if err != nil {
				return err
			}
			defer sess.Close()

			deps := server.Deps{Scanner: sess.scanner}
			if sess.db != nil {
				deps.DB = sess.db
				deps.Exports = &db.ExportStore{DB: sess.db}
			} else {
				slog.Warn("DB_DSN not set, export listing disabled", slog.String("component", "http"))
			}

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()
			g, ctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				// A server that stops for any reason takes the retention job with it.
				defer cancel()
				return server.Start(ctx, deps, addr)
			})
			g.Go(func() error {
				export.StartRetentionJob(ctx, a.retentionPolicy(), sess.catalogs...)
				return nil
			})
			return g.Wait()
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default HTTP_ADDR)")
	cmd.Flags().StringVar(&outDir, "out", "", "export directory (default EXPORT_DIR)")
	return cmd
}
