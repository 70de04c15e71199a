// Package serp issues probes against ranked-result providers and aggregates
// the returned rows for scoring.
package serp

import (
	"context"
	"sort"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/sells-group/rivalscan/internal/domainutil"
	"github.com/sells-group/rivalscan/internal/probe"
)

const (
	// defaultDepth is the result depth requested per probe.
	defaultDepth = 10
	// maxPositions caps how many positions per probe contribute rows.
	maxPositions = 12
	// maxConcurrentProbes bounds per-request fan-out.
	maxConcurrentProbes = 4
)

// RankedItem is one ranked result returned by a provider.
type RankedItem struct {
	URL      string
	Position int
}

// Provider returns ranked results for a locale-scoped query. Implementations
// wrap external search APIs.
type Provider interface {
	RankedResults(ctx context.Context, query string, loc probe.Locale, depth int) ([]RankedItem, error)
	Name() string
}

// Row is one ranked appearance of a root domain under a probe. Rows are kept
// per appearance, not deduplicated, until scoring.
type Row struct {
	Domain   string
	Probe    string
	Position int
}

// Aggregator fans probes out to the primary provider with a fallback on
// failure or missing credentials.
type Aggregator struct {
	primary  Provider // nil when credentials are absent
	fallback Provider
	limiter  *rate.Limiter
	depth    int
	breaker  *breaker
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithDepth sets the result depth requested per probe. Zero or negative
// keeps the default.
func WithDepth(n int) Option {
	return func(a *Aggregator) {
		if n > 0 {
			a.depth = n
		}
	}
}

// NewAggregator creates an Aggregator. primary may be nil, in which case
// every probe goes straight to the fallback. ratePerSec bounds provider
// calls per request; zero or negative means 8/s.
func NewAggregator(primary, fallback Provider, ratePerSec float64, opts ...Option) *Aggregator {
	if ratePerSec <= 0 {
		ratePerSec = 8
	}
	a := &Aggregator{
		primary:  primary,
		fallback: fallback,
		limiter:  rate.NewLimiter(rate.Limit(ratePerSec), 1),
		depth:    defaultDepth,
		breaker:  newBreaker(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Collect runs every probe and returns the aggregated rows, skipping
// self-domains of the target at insertion time. Probe failures contribute
// zero rows and are never surfaced as errors. Row order is deterministic
// given identical provider responses.
func (a *Aggregator) Collect(ctx context.Context, probes []probe.Probe, target string) []Row {
	log := zap.L().With(zap.String("target", target))

	var (
		mu   sync.Mutex
		rows []Row
	)

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentProbes)

	for _, p := range probes {
		g.Go(func() error {
			if err := a.limiter.Wait(gCtx); err != nil {
				return nil //nolint:nilerr // cancellation just ends the pass
			}

			items := a.search(gCtx, p)
			probeRows := make([]Row, 0, len(items))
			for i, item := range items {
				if i >= maxPositions {
					break
				}
				root := domainutil.Root(item.URL)
				if root == "" || domainutil.IsSelf(root, target) {
					continue
				}
				pos := item.Position
				if pos < 1 {
					pos = i + 1
				}
				probeRows = append(probeRows, Row{Domain: root, Probe: p.Query, Position: pos})
			}

			mu.Lock()
			rows = append(rows, probeRows...)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	// Aggregation is order-independent for scoring, but a stable order keeps
	// debug output and snapshots reproducible.
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Probe != rows[j].Probe {
			return rows[i].Probe < rows[j].Probe
		}
		if rows[i].Position != rows[j].Position {
			return rows[i].Position < rows[j].Position
		}
		return rows[i].Domain < rows[j].Domain
	})

	log.Debug("serp: probes collected",
		zap.Int("probes", len(probes)),
		zap.Int("rows", len(rows)),
	)
	return rows
}

// search tries the primary provider, then the fallback. Both failing yields
// zero results for the probe. Repeated primary failures open the breaker and
// route probes straight to the fallback for a cooldown period.
func (a *Aggregator) search(ctx context.Context, p probe.Probe) []RankedItem {
	if a.primary != nil && a.breaker.allow() {
		items, err := a.primary.RankedResults(ctx, p.Query, p.Locale, a.depth)
		a.breaker.record(err)
		if err == nil {
			return items
		}
		zap.L().Warn("serp: primary provider failed, trying fallback",
			zap.String("provider", a.primary.Name()),
			zap.String("query", p.Query),
			zap.Error(err),
		)
	}

	if a.fallback == nil {
		return nil
	}
	items, err := a.fallback.RankedResults(ctx, p.Query, p.Locale, a.depth)
	if err != nil {
		zap.L().Warn("serp: fallback provider failed",
			zap.String("provider", a.fallback.Name()),
			zap.String("query", p.Query),
			zap.Error(err),
		)
		return nil
	}
	return items
}
