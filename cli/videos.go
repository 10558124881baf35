package cli

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/WorldObservationLog/NeuroTools/chat"
	"github.com/WorldObservationLog/NeuroTools/vod"
)

func (a *App) newVideosCommand() *cobra.Command {
	var (
		channel  string
		maxCount int
		maxAge   time.Duration
	)
	cmd := &cobra.Command{
		Use:   "videos",
		Short: "List a channel's archived VODs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			lister, err := a.lister()
			if err != nil {
				return err
			}
			vods, err := vod.ListChannelVideos(cmd.Context(), lister, channel, maxCount, maxAge)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, v := range vods {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", v.ID, v.Date.Format(time.DateOnly), chat.FormatClock(float64(v.Duration)), v.Title)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&channel, "channel", "", "channel login")
	cmd.Flags().IntVar(&maxCount, "max", 20, "maximum number of videos (0 = all)")
	cmd.Flags().DurationVar(&maxAge, "max-age", 0, "skip videos older than this (0 = any age)")
	_ = cmd.MarkFlagRequired("channel")
	return cmd
}
