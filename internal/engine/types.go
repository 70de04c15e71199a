// Package engine orchestrates competitor and keyword discovery: profile,
// probes, aggregation, ranking, intent filtering, padding and caching.
package engine

import (
	"context"

	"github.com/sells-group/rivalscan/internal/probe"
	"github.com/sells-group/rivalscan/internal/profile"
)

// Output cardinality contracts. The padder upholds these whenever any
// non-blocked candidate exists.
const (
	CompetitorsPerBucket = 4
	KeywordTarget        = 8
)

// ProfileSource supplies the read-only site profile for a root domain.
type ProfileSource interface {
	Profile(ctx context.Context, root string) (*profile.SiteProfile, error)
}

// KeywordMetrics carries volume/cpc/competition for one phrase.
type KeywordMetrics struct {
	Volume      int     `json:"volume"`
	CPC         float64 `json:"cpc"`
	Competition float64 `json:"competition"`
}

// KeywordIdea is one related-keyword suggestion.
type KeywordIdea struct {
	Phrase string  `json:"phrase"`
	Volume int     `json:"volume"`
	CPC    float64 `json:"cpc"`
}

// MetricsProvider supplies keyword metrics and ideas. An empty mapping is a
// valid response, not an error.
type MetricsProvider interface {
	Metrics(ctx context.Context, keywords []string, loc probe.Locale) (map[string]KeywordMetrics, error)
	Ideas(ctx context.Context, seed string, loc probe.Locale) ([]KeywordIdea, error)
}

// Debug carries per-request diagnostics attached to every report.
type Debug struct {
	Root           string   `json:"root"`
	SiteType       string   `json:"site_type"`
	PrimaryIntent  string   `json:"primary_intent,omitempty"`
	MinedPhrases   int      `json:"mined_phrases"`
	PlatformProbes []string `json:"platform_probes,omitempty"`
	SearchProbes   []string `json:"search_probes,omitempty"`
	ResultRows     int      `json:"result_rows"`
	Candidates     int      `json:"candidates"`
	Admitted       int      `json:"admitted"`
	ElapsedMS      int64    `json:"elapsed_ms"`
}

// CompetitorReport is the competitor-discovery response.
type CompetitorReport struct {
	Target              string   `json:"target"`
	BusinessCompetitors []string `json:"business_competitors"`
	SearchCompetitors   []string `json:"search_competitors"`
	Debug               Debug    `json:"debug"`
}

// KeywordReport is the keyword-discovery response.
type KeywordReport struct {
	Target   string   `json:"target"`
	Keywords []string `json:"keywords"`
	Debug    Debug    `json:"debug"`
}
