package export

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/WorldObservationLog/NeuroTools/telemetry"
)

// RetentionPolicy decides which artifacts a cleanup cycle removes. An
// artifact survives when either rule keeps it.
type RetentionPolicy struct {
	// KeepDays keeps artifacts newer than this many days (0 = rule off).
	KeepDays int
	// KeepCount keeps the N most recent artifacts (0 = rule off).
	KeepCount int
	// DryRun logs what would be deleted without deleting.
	DryRun bool
	// Interval between cycles of StartRetentionJob.
	Interval time.Duration
}

// Enabled reports whether any rule is configured.
func (p RetentionPolicy) Enabled() bool { return p.KeepDays > 0 || p.KeepCount > 0 }

// Entry is the retention view of one stored artifact.
type Entry struct {
	ID        string
	CreatedAt time.Time
	Location  string
	Size      int64
}

// Catalog is a store that can enumerate and delete its artifacts.
type Catalog interface {
	Deleter
	Entries(ctx context.Context) ([]Entry, error)
}

// RetentionReport summarizes one cleanup cycle.
type RetentionReport struct {
	Deleted    []string
	Kept       int
	Errors     int
	BytesFreed int64
}

// Expired returns the entries the policy does not keep, oldest first.
func (p RetentionPolicy) Expired(entries []Entry, now time.Time) []Entry {
	if !p.Enabled() {
		return nil
	}
	sorted := append([]Entry(nil), entries...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].CreatedAt.After(sorted[j].CreatedAt) })

	var cutoff time.Time
	if p.KeepDays > 0 {
		cutoff = now.Add(-time.Duration(p.KeepDays) * 24 * time.Hour)
	}
	var out []Entry
	for i := len(sorted) - 1; i >= 0; i-- {
		e := sorted[i]
		if p.KeepCount > 0 && i < p.KeepCount {
			continue
		}
		if !cutoff.IsZero() && !e.CreatedAt.Before(cutoff) {
			continue
		}
		out = append(out, e)
	}
	return out
}

// RunRetention performs a single cleanup cycle against cat.
func RunRetention(ctx context.Context, cat Catalog, policy RetentionPolicy, now time.Time) (RetentionReport, error) {
	logger := slog.Default().With(
		slog.String("component", "retention_cleanup"),
		slog.Bool("dry_run", policy.DryRun),
	)
	var report RetentionReport
	entries, err := cat.Entries(ctx)
	if err != nil {
		return report, fmt.Errorf("list exports: %w", err)
	}
	expired := policy.Expired(entries, now)
	report.Kept = len(entries) - len(expired)

	for _, e := range expired {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if policy.DryRun {
			logger.Info("dry-run: would delete export",
				slog.String("export_id", e.ID),
				slog.String("location", e.Location),
				slog.Time("created_at", e.CreatedAt))
			report.Deleted = append(report.Deleted, e.ID)
			continue
		}
		if err := cat.Delete(ctx, e.ID); err != nil {
			logger.Warn("failed to delete export", slog.String("export_id", e.ID), slog.Any("err", err))
			report.Errors++
			continue
		}
		report.Deleted = append(report.Deleted, e.ID)
		report.BytesFreed += e.Size
		telemetry.Inc(telemetry.ExportsPruned)
		logger.Debug("deleted old export", slog.String("export_id", e.ID), slog.Time("created_at", e.CreatedAt))
	}

	mode := "cleanup"
	if policy.DryRun {
		mode = "dry-run"
	}
	logger.Info("retention cleanup completed",
		slog.String("mode", mode),
		slog.Int("deleted", len(report.Deleted)),
		slog.Int("kept", report.Kept),
		slog.Int("errors", report.Errors),
		slog.Int64("bytes_freed", report.BytesFreed))
	return report, nil
}

// StartRetentionJob runs a cleanup cycle over every catalog now and then on
// each policy interval until ctx ends. It returns at once when the policy
// has no rules.
func StartRetentionJob(ctx context.Context, policy RetentionPolicy, cats ...Catalog) {
	if !policy.Enabled() {
		slog.Info("retention job disabled (no policy configured)", slog.String("component", "retention_cleanup"))
		return
	}
	interval := policy.Interval
	if interval <= 0 {
		interval = 6 * time.Hour
	}
	slog.Info("retention job starting",
		slog.String("component", "retention_cleanup"),
		slog.Int("keep_days", policy.KeepDays),
		slog.Int("keep_count", policy.KeepCount),
		slog.Bool("dry_run", policy.DryRun),
		slog.Duration("interval", interval))

	cycle := func() {
		for _, cat := range cats {
			if _, err := RunRetention(ctx, cat, policy, time.Now()); err != nil {
				slog.Warn("retention cleanup failed", slog.String("component", "retention_cleanup"), slog.Any("err", err))
			}
		}
	}
	cycle()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			slog.Info("retention job stopped", slog.String("component", "retention_cleanup"))
			return
		case <-ticker.C:
			cycle()
		}
	}
}
