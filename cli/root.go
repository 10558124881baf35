// Package cli wires configuration, clients and stores into the chatscan
// commands.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/WorldObservationLog/NeuroTools/config"
	"github.com/WorldObservationLog/NeuroTools/export"
	"github.com/WorldObservationLog/NeuroTools/vod"
)

// App carries what every command needs. Source and Lister replace the
// clients built from Config when set.
type App struct {
	Config  *config.Config
	Version string
	Source  vod.Source
	Lister  vod.VideoLister
	NewID   export.IDGenerator
	// ProgressInterval throttles progress log lines. 0 means 5s.
	ProgressInterval time.Duration
}

// NewRootCommand builds the chatscan command tree.
func NewRootCommand(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:           "chatscan",
		Short:         "Search and export Twitch VOD chat replays",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		app.newSearchCommand(),
		app.newDumpCommand(),
		app.newVideosCommand(),
		app.newServeCommand(),
		app.newPruneCommand(),
		app.newMigrateCommand(),
		app.newVersionCommand(),
	)
	root.SetGlobalNormalizationFunc(normalizeFlag)
	return root
}

// Execute runs the command tree with args.
func Execute(ctx context.Context, app *App, args []string) error {
	root := NewRootCommand(app)
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

// normalizeFlag accepts underscore spellings (video_id, start_time, end_time).
func normalizeFlag(_ *pflag.FlagSet, name string) pflag.NormalizedName {
	switch name {
	case "video_id":
		name = "video-id"
	case "start_time":
		name = "start"
	case "end_time":
		name = "end"
	}
	return pflag.NormalizedName(name)
}

func (a *App) newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "chatscan %s\n", a.Version)
			return err
		},
	}
}

func (a *App) progress(videoID string) vod.ProgressFunc {
	interval := a.ProgressInterval
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return vod.LogProgress(slog.Default(), videoID, interval)
}

func printResult(w io.Writer, res *vod.ScanResult) error {
	if res.Artifact == nil {
		_, err := fmt.Fprintf(w, "%s\tno matches\n", res.VideoID)
		return err
	}
	loc := res.Artifact.Location
	if loc == "" {
		loc = res.Artifact.ID
	}
	_, err := fmt.Fprintf(w, "%s\t%s\t%d\n", res.VideoID, loc, len(res.Artifact.Records))
	return err
}
