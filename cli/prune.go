package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/WorldObservationLog/NeuroTools/export"
)

var errRetentionDisabled = errors.New("no retention policy configured: set RETENTION_KEEP_DAYS or RETENTION_KEEP_COUNT")

func (a *App) newPruneCommand() *cobra.Command {
	var (
		outDir string
		dryRun bool
	)
	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete exports outside the retention policy once",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			policy := a.retentionPolicy()
			if !policy.Enabled() {
				return errRetentionDisabled
			}
			if cmd.Flags().Changed("dry-run") {
				policy.DryRun = dryRun
			}
			sess, err := a.newSession(cmd.Context(), outDir)
			if err != nil {
				return err
			}
			defer sess.Close()

			for _, cat := range sess.catalogs {
				report, err := export.RunRetention(cmd.Context(), cat, policy, time.Now())
				if err != nil {
					return err
				}
				for _, id := range report.Deleted {
					if _, err := fmt.Fprintln(cmd.OutOrStdout(), id); err != nil {
						return err
					}
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&outDir, "out", "", "export directory (default EXPORT_DIR)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "only report what would be deleted")
	return cmd
}
