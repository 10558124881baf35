package telemetry

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsInitialized(t *testing.T) {
	Init()
	Init() // idempotent

	for name, c := range map[string]prometheus.Counter{
		"pages": PagesFetched, "retries": PageFetchRetries, "skipped": CommentsSkipped, "exports": ExportsWritten,
	} {
		require.NotNil(t, c, "counter %s not initialized", name)
	}
	require.NotNil(t, PageFetchDuration)
	require.NotNil(t, ScanDuration)
	require.NotNil(t, ActiveScans)
	require.NotNil(t, Scans)
}

func TestCounterHelpers(t *testing.T) {
	Init()

	before := testutil.ToFloat64(PagesFetched)
	Inc(PagesFetched)
	Add(PagesFetched, 2)
	Add(PagesFetched, 0)
	assert.Equal(t, 3.0, testutil.ToFloat64(PagesFetched)-before)

	beforeOK := testutil.ToFloat64(Scans.WithLabelValues("ok"))
	ScanResult("ok")
	assert.Equal(t, 1.0, testutil.ToFloat64(Scans.WithLabelValues("ok"))-beforeOK)
}

func TestNilHelpersAreSafe(t *testing.T) {
	var c prometheus.Counter
	Inc(c)
	Add(c, 5)
	Observe(nil, time.Second)
}

func TestTrackActiveScan(t *testing.T) {
	Init()
	before := testutil.ToFloat64(ActiveScans)
	done := TrackActiveScan()
	assert.Equal(t, before+1, testutil.ToFloat64(ActiveScans), "active during scan")
	done()
	assert.Equal(t, before, testutil.ToFloat64(ActiveScans), "active after scan")
}

func TestTimeFuncRecordsObservation(t *testing.T) {
	h := prometheus.NewHistogram(prometheus.HistogramOpts{Name: "test_duration_seconds", Help: "Test duration"})
	executed := false
	d := TimeFunc(h, func() {
		time.Sleep(5 * time.Millisecond)
		executed = true
	})
	assert.True(t, executed, "TimeFunc did not execute provided function")
	assert.GreaterOrEqual(t, d, 5*time.Millisecond)
	assert.Equal(t, 1, testutil.CollectAndCount(h))
}

func TestCorrelation(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, GetCorrelation(ctx))
	ctx = WithCorrelation(ctx, "abc")
	assert.Equal(t, "abc", GetCorrelation(ctx))
	assert.NotNil(t, LoggerWithCorr(ctx))
}

func TestTracingDisabledWithoutEndpoint(t *testing.T) {
	shutdown, err := InitTracing(TracingConfig{ServiceName: "chatscan", ServiceVersion: "test"})
	require.NoError(t, err)
	shutdown()
	assert.False(t, IsTracingEnabled(), "tracing should be disabled without endpoint")
	_, span := StartSpan(context.Background(), "test", "op")
	EndSpan(span, errors.New("boom"))
}

func TestTracingSampler(t *testing.T) {
	cases := []struct {
		ratio float64
		want  string
	}{
		{0, "AlwaysOnSampler"},
		{1, "AlwaysOnSampler"},
		{0.25, "ParentBased"},
	}
	for _, tc := range cases {
		got := TracingConfig{SampleRatio: tc.ratio}.sampler().Description()
		assert.True(t, strings.HasPrefix(got, tc.want), "ratio %v: sampler = %q, want prefix %q", tc.ratio, got, tc.want)
	}
}
