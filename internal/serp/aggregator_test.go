package serp

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/rivalscan/internal/probe"
)

type stubProvider struct {
	name    string
	results map[string][]RankedItem
	err     error
	calls   atomic.Int64
}

func (s *stubProvider) RankedResults(_ context.Context, query string, _ probe.Locale, _ int) ([]RankedItem, error) {
	s.calls.Add(1)
	if s.err != nil {
		return nil, s.err
	}
	return s.results[query], nil
}

func (s *stubProvider) Name() string { return s.name }

func probesFor(queries ...string) []probe.Probe {
	ps := make([]probe.Probe, 0, len(queries))
	for _, q := range queries {
		ps = append(ps, probe.Probe{Query: q, Locale: probe.DefaultLocale})
	}
	return ps
}

func TestCollectAggregatesRows(t *testing.T) {
	primary := &stubProvider{
		name: "primary",
		results: map[string][]RankedItem{
			"probe a": {
				{URL: "https://rival1.com/page", Position: 1},
				{URL: "https://www.rival2.com", Position: 2},
			},
			"probe b": {
				{URL: "https://rival2.com/x", Position: 1},
			},
		},
	}

	agg := NewAggregator(primary, nil, 100)
	rows := agg.Collect(context.Background(), probesFor("probe a", "probe b"), "acme.io")

	require.Len(t, rows, 3)
	assert.Equal(t, Row{Domain: "rival1.com", Probe: "probe a", Position: 1}, rows[0])
	assert.Equal(t, Row{Domain: "rival2.com", Probe: "probe a", Position: 2}, rows[1])
	assert.Equal(t, Row{Domain: "rival2.com", Probe: "probe b", Position: 1}, rows[2])
}

func TestCollectSkipsSelfDomains(t *testing.T) {
	primary := &stubProvider{
		name: "primary",
		results: map[string][]RankedItem{
			"q": {
				{URL: "https://acme.io", Position: 1},
				{URL: "https://shop.acme.io/deals", Position: 2},
				{URL: "https://rival.com", Position: 3},
			},
		},
	}

	agg := NewAggregator(primary, nil, 100)
	rows := agg.Collect(context.Background(), probesFor("q"), "acme.io")

	require.Len(t, rows, 1)
	assert.Equal(t, "rival.com", rows[0].Domain)
	assert.Equal(t, 3, rows[0].Position)
}

func TestCollectCapsPositions(t *testing.T) {
	items := make([]RankedItem, 20)
	for i := range items {
		items[i] = RankedItem{URL: "https://rival.com/p", Position: i + 1}
	}
	primary := &stubProvider{name: "primary", results: map[string][]RankedItem{"q": items}}

	agg := NewAggregator(primary, nil, 100)
	rows := agg.Collect(context.Background(), probesFor("q"), "acme.io")

	assert.Len(t, rows, 12)
}

func TestCollectFallsBackOnPrimaryFailure(t *testing.T) {
	primary := &stubProvider{name: "primary", err: eris.New("quota exceeded")}
	fallback := &stubProvider{
		name: "fallback",
		results: map[string][]RankedItem{
			"q": {{URL: "https://rival.com", Position: 1}},
		},
	}

	agg := NewAggregator(primary, fallback, 100)
	rows := agg.Collect(context.Background(), probesFor("q"), "acme.io")

	require.Len(t, rows, 1)
	assert.Equal(t, "rival.com", rows[0].Domain)
	assert.Equal(t, int64(1), fallback.calls.Load())
}

func TestCollectUsesFallbackWhenPrimaryMissing(t *testing.T) {
	fallback := &stubProvider{
		name: "fallback",
		results: map[string][]RankedItem{
			"q": {{URL: "https://rival.com", Position: 1}},
		},
	}

	agg := NewAggregator(nil, fallback, 100)
	rows := agg.Collect(context.Background(), probesFor("q"), "acme.io")

	require.Len(t, rows, 1)
}

func TestCollectBothProvidersFailingYieldsNoRows(t *testing.T) {
	primary := &stubProvider{name: "primary", err: eris.New("down")}
	fallback := &stubProvider{name: "fallback", err: eris.New("also down")}

	agg := NewAggregator(primary, fallback, 100)
	rows := agg.Collect(context.Background(), probesFor("q1", "q2"), "acme.io")

	assert.Empty(t, rows)
}

func TestCollectZeroPositionBecomesIndexRank(t *testing.T) {
	primary := &stubProvider{
		name: "primary",
		results: map[string][]RankedItem{
			"q": {
				{URL: "https://rival1.com"},
				{URL: "https://rival2.com"},
			},
		},
	}

	agg := NewAggregator(primary, nil, 100)
	rows := agg.Collect(context.Background(), probesFor("q"), "acme.io")

	require.Len(t, rows, 2)
	assert.Equal(t, 1, rows[0].Position)
	assert.Equal(t, 2, rows[1].Position)
}

type depthRecorder struct {
	depth atomic.Int64
}

func (d *depthRecorder) RankedResults(_ context.Context, _ string, _ probe.Locale, depth int) ([]RankedItem, error) {
	d.depth.Store(int64(depth))
	return nil, nil
}

func (d *depthRecorder) Name() string { return "recorder" }

func TestWithDepthPassedToProvider(t *testing.T) {
	rec := &depthRecorder{}

	agg := NewAggregator(rec, nil, 100, WithDepth(25))
	agg.Collect(context.Background(), probesFor("q"), "acme.io")

	assert.Equal(t, int64(25), rec.depth.Load())
}

func TestWithDepthZeroKeepsDefault(t *testing.T) {
	rec := &depthRecorder{}

	agg := NewAggregator(rec, nil, 100, WithDepth(0))
	agg.Collect(context.Background(), probesFor("q"), "acme.io")

	assert.Equal(t, int64(defaultDepth), rec.depth.Load())
}
