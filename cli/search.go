package cli

import (
	"errors"
	"strings"

	"github.com/spf13/cobra"

	"github.com/WorldObservationLog/NeuroTools/chat"
	"github.com/WorldObservationLog/NeuroTools/vod"
)

func (a *App) newSearchCommand() *cobra.Command {
	var (
		videoIDs   []string
		start, end string
		keywords   string
		outDir     string
	)
	cmd := &cobra.Command{
		Use:   "search",
		Short: "Export chat messages in a time window that contain any keyword",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			window, err := chat.ParseWindow(start, end)
			if err != nil {
				return err
			}
			kws := chat.ParseKeywords(keywords)
			if len(kws) == 0 {
				return errors.New("no keywords given")
			}
			reqs := make([]vod.ScanRequest, 0, len(videoIDs))
			for _, id := range videoIDs {
				if id = strings.TrimSpace(id); id != "" {
					reqs = append(reqs, vod.ScanRequest{VideoID: id, Window: window, Keywords: kws})
				}
			}
			if len(reqs) == 0 {
				return errors.New("no video id given")
			}

			sess, err := a.newSession(cmd.Context(), outDir)
			if err != nil {
				return err
			}
			defer sess.Close()

			results, err := sess.scanner.ScanMany(cmd.Context(), reqs)
			if err != nil {
				return err
			}
			for _, res := range results {
				if err := printResult(cmd.OutOrStdout(), res); err != nil {
					return err
				}
			}
			return nil
		},
	}
	f := cmd.Flags()
	f.StringSliceVar(&videoIDs, "video-id", nil, "VOD id (repeatable or comma-separated)")
	f.StringVar(&start, "start", "", "window start as HH:MM:SS")
	f.StringVar(&end, "end", "", "window end as HH:MM:SS")
	f.StringVar(&keywords, "keywords", "", "comma-separated keywords, matched case-sensitively")
	f.StringVar(&outDir, "out", "", "export directory (default EXPORT_DIR)")
	for _, name := range []string{"video-id", "start", "end", "keywords"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

func (a *App) newDumpCommand() *cobra.Command {
	var videoID, outDir string
	cmd := &cobra.Command{
		Use:   "dump",
		Short: "Export the whole chat replay of a video",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sess, err := a.newSession(cmd.Context(), outDir)
			if err != nil {
				return err
			}
			defer sess.Close()

			res, err := sess.scanner.Dump(cmd.Context(), videoID)
			if err != nil {
				return err
			}
			return printResult(cmd.OutOrStdout(), res)
		},
	}
	cmd.Flags().StringVar(&videoID, "video-id", "", "VOD id")
	cmd.Flags().StringVar(&outDir, "out", "", "export directory (default EXPORT_DIR)")
	_ = cmd.MarkFlagRequired("video-id")
	return cmd
}
