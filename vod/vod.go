// Package vod scans the chat history of recorded Twitch videos: it resolves
// the video anchor, retrieves the comment feed inside a time window, matches
// keywords and hands the result to an exporter.
package vod

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/WorldObservationLog/NeuroTools/chat"
	"github.com/WorldObservationLog/NeuroTools/export"
	"github.com/WorldObservationLog/NeuroTools/telemetry"
	"github.com/WorldObservationLog/NeuroTools/twitchgql"
)

const tracerName = "vod"

// VOD is an archived broadcast as listed by the channel catalog.
type VOD struct {
	ID       string
	Title    string
	Date     time.Time
	Duration int
}

// Source is everything a scan needs from the video backend.
type Source interface {
	PageFetcher
	ResolveAnchor(ctx context.Context, videoID string) (time.Time, error)
	VideoMetadata(ctx context.Context, videoID string) (twitchgql.VideoMeta, error)
}

// ScanRequest describes one windowed keyword scan.
type ScanRequest struct {
	VideoID  string
	Window   chat.Window
	Keywords []string
}

// ScanResult is the outcome of a scan or dump. Artifact is nil when nothing
// was exported.
type ScanResult struct {
	VideoID  string
	Anchor   time.Time
	Retained int
	Matches  []chat.CommentRecord
	Artifact *export.Artifact
}

// ArtifactID returns the exported artifact id or "".
func (r *ScanResult) ArtifactID() string {
	if r == nil || r.Artifact == nil {
		return ""
	}
	return r.Artifact.ID
}

// Scanner runs the resolve, retrieve, match and export pipeline.
type Scanner struct {
	Source   Source
	Exporter *export.Exporter
	// MaxPages is passed to each Retriever. 0 means unlimited.
	MaxPages int
	// Concurrency bounds ScanMany. Values below 1 mean 1.
	Concurrency int
	// NewProgress builds the progress observer for one video. Optional.
	NewProgress func(videoID string) ProgressFunc
}

func (s *Scanner) retriever(videoID string) *Retriever {
	r := &Retriever{Fetcher: s.Source, MaxPages: s.MaxPages}
	if s.NewProgress != nil {
		r.Progress = s.NewProgress(videoID)
	}
	return r
}

// Scan retrieves the window, matches keywords and exports the deduplicated
// matches. No artifact is written when nothing matched or on any error.
func (s *Scanner) Scan(ctx context.Context, req ScanRequest) (res *ScanResult, err error) {
	ctx, span := telemetry.StartSpan(ctx, tracerName, "vod.scan",
		attribute.String("video_id", req.VideoID),
		attribute.Float64("window_start", req.Window.StartSeconds),
		attribute.Float64("window_end", req.Window.EndSeconds),
		attribute.Int("keywords", len(req.Keywords)))
	defer func() { telemetry.EndSpan(span, err) }()
	defer telemetry.TrackActiveScan()()
	defer s.finish(time.Now(), &res, &err)

	if err := req.Window.Validate(); err != nil {
		return nil, err
	}
	log := telemetry.LoggerWithCorr(ctx).With(slog.String("component", "scanner"), slog.String("video_id", req.VideoID))

	anchor, err := s.Source.ResolveAnchor(ctx, req.VideoID)
	if err != nil {
		return nil, fmt.Errorf("resolve anchor of %s: %w", req.VideoID, err)
	}
	log.Info("fetching chats",
		slog.Time("anchor", anchor),
		slog.String("start", chat.FormatClock(req.Window.StartSeconds)),
		slog.String("end", chat.FormatClock(req.Window.EndSeconds)))

	records, err := s.retriever(req.VideoID).RetrieveWindow(ctx, req.VideoID, anchor, req.Window)
	if err != nil {
		return nil, fmt.Errorf("retrieve %s: %w", req.VideoID, err)
	}
	matches := chat.Match(records, req.Keywords)
	telemetry.Add(telemetry.KeywordMatches, len(matches))
	chat.LogMatches(log, matches, req.Window.StartSeconds)

	res = &ScanResult{VideoID: req.VideoID, Anchor: anchor, Retained: len(records), Matches: matches}
	if s.Exporter != nil {
		a, err := s.Exporter.Write(ctx, export.Meta{VideoID: req.VideoID, Window: req.Window, Keywords: req.Keywords}, matches)
		if err != nil {
			return nil, err
		}
		res.Artifact = a
	}
	log.Info("scan finished",
		slog.Int("retained", res.Retained),
		slog.Int("matches", len(matches)),
		slog.String("export_id", res.ArtifactID()))
	return res, nil
}

// Dump retrieves the whole feed of a video and exports every record, offsets
// relative to the start of the video.
func (s *Scanner) Dump(ctx context.Context, videoID string) (res *ScanResult, err error) {
	ctx, span := telemetry.StartSpan(ctx, tracerName, "vod.dump", attribute.String("video_id", videoID))
	defer func() { telemetry.EndSpan(span, err) }()
	defer telemetry.TrackActiveScan()()
	defer s.finish(time.Now(), &res, &err)

	meta, err := s.Source.VideoMetadata(ctx, videoID)
	if err != nil {
		return nil, fmt.Errorf("resolve metadata of %s: %w", videoID, err)
	}
	telemetry.LoggerWithCorr(ctx).Info("dumping chat",
		slog.String("component", "scanner"),
		slog.String("video_id", videoID),
		slog.String("length", chat.FormatClock(float64(meta.LengthSeconds))))

	records, err := s.retriever(videoID).RetrieveAll(ctx, videoID, meta.CreatedAt, float64(meta.LengthSeconds))
	if err != nil {
		return nil, fmt.Errorf("retrieve %s: %w", videoID, err)
	}
	res = &ScanResult{VideoID: videoID, Anchor: meta.CreatedAt, Retained: len(records), Matches: records}
	if s.Exporter != nil {
		window := chat.Window{StartSeconds: 0, EndSeconds: float64(meta.LengthSeconds)}
		a, err := s.Exporter.Write(ctx, export.Meta{VideoID: videoID, Window: window}, records)
		if err != nil {
			return nil, err
		}
		res.Artifact = a
	}
	return res, nil
}

func (s *Scanner) finish(start time.Time, res **ScanResult, err *error) {
	telemetry.Observe(telemetry.ScanDuration, time.Since(start))
	switch {
	case *err != nil:
		telemetry.ScanResult("error")
	case *res == nil || (*res).Artifact == nil:
		telemetry.ScanResult("empty")
	default:
		telemetry.ScanResult("ok")
	}
}
