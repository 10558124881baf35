package vod

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"
)

func (s *Scanner) concurrency() int {
	if s.Concurrency < 1 {
		return 1
	}
	return s.Concurrency
}

// ScanMany scans independent videos with at most Concurrency scans in
// flight. Each scan is still one sequential retrieval. Results keep the
// order of reqs. The first failure cancels the remaining scans and is
// returned.
func (s *Scanner) ScanMany(ctx context.Context, reqs []ScanRequest) ([]*ScanResult, error) {
	results := make([]*ScanResult, len(reqs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency())
	slog.Debug("scan batch starting", slog.String("component", "scanner"), slog.Int("videos", len(reqs)), slog.Int("concurrency", s.concurrency()))
	for i, req := range reqs {
		g.Go(func() error {
			res, err := s.Scan(gctx, req)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
