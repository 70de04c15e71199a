package engine

import (
	"context"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/rivalscan/internal/cache"
	"github.com/sells-group/rivalscan/internal/domainutil"
	"github.com/sells-group/rivalscan/internal/intent"
	"github.com/sells-group/rivalscan/internal/probe"
	"github.com/sells-group/rivalscan/internal/profile"
	"github.com/sells-group/rivalscan/internal/rank"
	"github.com/sells-group/rivalscan/internal/serp"
	"github.com/sells-group/rivalscan/internal/textmine"
)

const (
	// classifyLimit bounds homepage fetches per bucket.
	classifyLimit = 10
	// classifyWorkers bounds concurrent homepage fetches.
	classifyWorkers = 4
	// metricsBatch is how many mined phrases are sent for metrics lookup.
	metricsBatch = 20
)

// ErrInvalidDomain is returned when the input cannot be reduced to a
// registrable domain. It is the only hard failure Competitors and Keywords
// produce; every collaborator outage degrades the result instead.
var ErrInvalidDomain = eris.New("engine: input is not a resolvable domain")

// Params collects the engine's collaborators and knobs.
type Params struct {
	Profiles   ProfileSource
	SERP       *serp.Aggregator
	Metrics    MetricsProvider // optional
	Classifier *intent.Classifier
	Locale     probe.Locale
	CacheTTL   time.Duration
	Blocked    []string
}

// Engine runs the discovery pipeline. Safe for concurrent use.
type Engine struct {
	profiles   ProfileSource
	agg        *serp.Aggregator
	metrics    MetricsProvider
	classifier *intent.Classifier
	locale     probe.Locale
	blocked    map[string]bool

	competitors *cache.Cache[*CompetitorReport]
	keywords    *cache.Cache[*KeywordReport]
}

// New wires an Engine from Params. Zero Locale and CacheTTL fall back to
// DefaultLocale and cache.DefaultTTL.
func New(p Params) *Engine {
	loc := p.Locale
	if loc.Location == "" {
		loc = probe.DefaultLocale
	}
	ttl := p.CacheTTL
	if ttl <= 0 {
		ttl = cache.DefaultTTL
	}
	blocked := make(map[string]bool, len(p.Blocked))
	for _, b := range p.Blocked {
		blocked[strings.ToLower(strings.TrimSpace(b))] = true
	}
	return &Engine{
		profiles:    p.Profiles,
		agg:         p.SERP,
		metrics:     p.Metrics,
		classifier:  p.Classifier,
		locale:      loc,
		blocked:     blocked,
		competitors: cache.New[*CompetitorReport](ttl),
		keywords:    cache.New[*KeywordReport](ttl),
	}
}

// Competitors returns the business and search competitor buckets for the
// given domain, serving repeated requests from the TTL cache. Concurrent
// requests for the same domain share a single computation.
func (e *Engine) Competitors(ctx context.Context, raw string) (*CompetitorReport, error) {
	root := domainutil.Root(raw)
	if !validRoot(root) {
		return nil, eris.Wrapf(ErrInvalidDomain, "engine: competitors for %q", raw)
	}
	return e.competitors.Resolve(ctx, cache.Key(root, "competitors"), func(ctx context.Context) (*CompetitorReport, error) {
		return e.discoverCompetitors(ctx, root)
	})
}

// Keywords returns up to KeywordTarget ranked keywords for the given domain,
// cached and single-flighted the same way as Competitors.
func (e *Engine) Keywords(ctx context.Context, raw string) (*KeywordReport, error) {
	root := domainutil.Root(raw)
	if !validRoot(root) {
		return nil, eris.Wrapf(ErrInvalidDomain, "engine: keywords for %q", raw)
	}
	return e.keywords.Resolve(ctx, cache.Key(root, "keywords"), func(ctx context.Context) (*KeywordReport, error) {
		return e.discoverKeywords(ctx, root)
	})
}

func validRoot(root string) bool {
	return root != "" && strings.Contains(root, ".")
}

func (e *Engine) discoverCompetitors(ctx context.Context, root string) (*CompetitorReport, error) {
	start := time.Now()
	log := zap.L().With(zap.String("phase", "competitors"), zap.String("root", root))

	prof := e.profileFor(ctx, root)
	phrases := textmine.Mine(textmine.Input{
		Seeds:            prof.Seeds,
		SlugPhrases:      prof.SlugPhrases,
		StructuredValues: prof.StructuredEntities,
		BodySamples:      prof.BodySamples,
		BrandToken:       prof.Brand,
	})

	pp := probe.Profile{
		SiteType:      prof.SiteType,
		Brand:         prof.Brand,
		Seeds:         prof.Seeds,
		PrimaryIntent: prof.PrimaryIntent,
		KeywordChips:  prof.KeywordChips,
	}
	platformProbes := probe.Platform(pp, phrases, e.locale)
	searchProbes := probe.Search(pp, e.locale)

	platformRows := e.agg.Collect(ctx, platformProbes, root)
	searchRows := e.agg.Collect(ctx, searchProbes, root)
	log.Debug("engine: probes collected",
		zap.Int("platform_rows", len(platformRows)),
		zap.Int("search_rows", len(searchRows)))

	platformRanked := rank.Domains(rank.Competitors(platformRows))
	searchRanked := rank.Domains(rank.Competitors(searchRows))

	business := e.admitByIntent(ctx, platformRanked, prof.PrimaryIntent)
	search := e.admitByIntent(ctx, searchRanked, prof.PrimaryIntent)

	// Each bucket pads first from the other bucket's admitted domains, then
	// from its own unfiltered ranking.
	report := &CompetitorReport{
		Target:              root,
		BusinessCompetitors: rank.Pad(business, CompetitorsPerBucket, root, e.blocked, search, platformRanked, searchRanked),
		SearchCompetitors:   rank.Pad(search, CompetitorsPerBucket, root, e.blocked, business, searchRanked, platformRanked),
		Debug: Debug{
			Root:           root,
			SiteType:       prof.SiteType,
			PrimaryIntent:  prof.PrimaryIntent,
			MinedPhrases:   len(phrases),
			PlatformProbes: queries(platformProbes),
			SearchProbes:   queries(searchProbes),
			ResultRows:     len(platformRows) + len(searchRows),
			Candidates:     len(platformRanked) + len(searchRanked),
			Admitted:       len(business) + len(search),
			ElapsedMS:      time.Since(start).Milliseconds(),
		},
	}
	log.Info("engine: competitors ready",
		zap.Int("business", len(report.BusinessCompetitors)),
		zap.Int("search", len(report.SearchCompetitors)),
		zap.Int64("elapsed_ms", report.Debug.ElapsedMS))
	return report, nil
}

func (e *Engine) discoverKeywords(ctx context.Context, root string) (*KeywordReport, error) {
	start := time.Now()
	log := zap.L().With(zap.String("phase", "keywords"), zap.String("root", root))

	prof := e.profileFor(ctx, root)
	phrases := textmine.Mine(textmine.Input{
		Seeds:            prof.Seeds,
		SlugPhrases:      prof.SlugPhrases,
		StructuredValues: prof.StructuredEntities,
		BodySamples:      prof.BodySamples,
		BrandToken:       prof.Brand,
	})
	vocab := rank.NewVocabulary(prof.Seeds)

	cands := e.candidates(ctx, phrases, prof.KeywordChips, log)
	ranked := rank.Keywords(cands, vocab, prof.SiteType)
	selected := rank.SelectKeywords(ranked, vocab, KeywordTarget)

	out := make([]string, 0, len(selected))
	for _, k := range selected {
		out = append(out, k.Phrase)
	}
	report := &KeywordReport{
		Target:   root,
		Keywords: out,
		Debug: Debug{
			Root:          root,
			SiteType:      prof.SiteType,
			PrimaryIntent: prof.PrimaryIntent,
			MinedPhrases:  len(phrases),
			Candidates:    len(cands),
			Admitted:      len(selected),
			ElapsedMS:     time.Since(start).Milliseconds(),
		},
	}
	log.Info("engine: keywords ready",
		zap.Int("selected", len(out)),
		zap.Int64("elapsed_ms", report.Debug.ElapsedMS))
	return report, nil
}

// candidates merges mined phrases, metrics-backed phrases, provider ideas
// and profile keyword chips into one deduplicated candidate slate.
func (e *Engine) candidates(ctx context.Context, phrases, chips []string, log *zap.Logger) []rank.Keyword {
	seen := make(map[string]bool, len(phrases))
	cands := make([]rank.Keyword, 0, len(phrases))

	metrics := e.metricsFor(ctx, phrases, log)
	for _, p := range phrases {
		if seen[p] {
			continue
		}
		seen[p] = true
		k := rank.Keyword{Phrase: p, Source: rank.SourceMined}
		if m, ok := metrics[p]; ok {
			k.Source = rank.SourceMinedMetrics
			k.Volume = m.Volume
			k.CPC = m.CPC
			k.Competition = m.Competition
		}
		cands = append(cands, k)
	}

	for _, idea := range e.ideasFor(ctx, phrases, log) {
		p := strings.ToLower(strings.TrimSpace(idea.Phrase))
		if p == "" || seen[p] {
			continue
		}
		seen[p] = true
		cands = append(cands, rank.Keyword{
			Phrase: p,
			Source: rank.SourceIdea,
			Volume: idea.Volume,
			CPC:    idea.CPC,
		})
	}

	for _, chip := range chips {
		p := strings.ToLower(strings.TrimSpace(chip))
		if p == "" || seen[p] {
			continue
		}
		seen[p] = true
		cands = append(cands, rank.Keyword{Phrase: p, Source: rank.SourceRank})
	}
	return cands
}

// metricsFor queries the metrics provider for the top mined phrases. Any
// failure is logged and yields an empty map; candidates then carry the
// plain mined source.
func (e *Engine) metricsFor(ctx context.Context, phrases []string, log *zap.Logger) map[string]KeywordMetrics {
	if e.metrics == nil || len(phrases) == 0 {
		return nil
	}
	batch := phrases
	if len(batch) > metricsBatch {
		batch = batch[:metricsBatch]
	}
	m, err := e.metrics.Metrics(ctx, batch, e.locale)
	if err != nil {
		log.Warn("engine: metrics lookup failed", zap.Error(err))
		return nil
	}
	return m
}

// ideasFor asks the metrics provider for related keywords seeded by the
// strongest mined phrase.
func (e *Engine) ideasFor(ctx context.Context, phrases []string, log *zap.Logger) []KeywordIdea {
	if e.metrics == nil || len(phrases) == 0 {
		return nil
	}
	ideas, err := e.metrics.Ideas(ctx, phrases[0], e.locale)
	if err != nil {
		log.Warn("engine: idea lookup failed", zap.Error(err))
		return nil
	}
	return ideas
}

// profileFor never fails: a profile source error degrades to a minimal
// profile carrying only the brand token.
func (e *Engine) profileFor(ctx context.Context, root string) *profile.SiteProfile {
	prof, err := e.profiles.Profile(ctx, root)
	if err != nil || prof == nil {
		zap.L().Warn("engine: profile unavailable",
			zap.String("root", root), zap.Error(err))
		brand := root
		if i := strings.IndexByte(root, '.'); i > 0 {
			brand = root[:i]
		}
		return &profile.SiteProfile{
			Root:     root,
			Brand:    brand,
			SiteType: "services",
			Seeds:    []string{brand + " services"},
		}
	}
	return prof
}

// admitByIntent classifies the leading candidates concurrently and keeps
// those whose homepage role fits the target's vertical. Order is preserved.
// A candidate whose homepage cannot be read is dropped; the padding pools
// restore cardinality from the unfiltered rankings.
func (e *Engine) admitByIntent(ctx context.Context, domains []string, primaryIntent string) []string {
	if len(domains) == 0 {
		return nil
	}
	head := domains
	if len(head) > classifyLimit {
		head = head[:classifyLimit]
	}
	admitted := make([]bool, len(head))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(classifyWorkers)
	for i, d := range head {
		g.Go(func() error {
			role, ok := e.classifier.RoleOf(gctx, d)
			admitted[i] = ok && intent.Admit(role, primaryIntent)
			return nil
		})
	}
	_ = g.Wait()

	out := make([]string, 0, len(head))
	for i, d := range head {
		if admitted[i] {
			out = append(out, d)
		}
	}
	return out
}

func queries(probes []probe.Probe) []string {
	out := make([]string, 0, len(probes))
	for _, p := range probes {
		out = append(out, p.Query)
	}
	return out
}
