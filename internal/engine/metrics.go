package engine

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/rivalscan/internal/probe"
	"github.com/sells-group/rivalscan/pkg/dataforseo"
)

// dataForSEOMetrics adapts the DataForSEO client to MetricsProvider.
type dataForSEOMetrics struct {
	client dataforseo.Client
}

// NewDataForSEOMetrics wraps a DataForSEO client as a MetricsProvider.
func NewDataForSEOMetrics(client dataforseo.Client) MetricsProvider {
	return &dataForSEOMetrics{client: client}
}

func (m *dataForSEOMetrics) Metrics(ctx context.Context, keywords []string, loc probe.Locale) (map[string]KeywordMetrics, error) {
	items, err := m.client.SearchVolume(ctx, keywords, loc.Location, loc.Language)
	if err != nil {
		return nil, eris.Wrap(err, "engine: search volume lookup")
	}
	out := make(map[string]KeywordMetrics, len(items))
	for _, it := range items {
		k := strings.ToLower(strings.TrimSpace(it.Keyword))
		if k == "" {
			continue
		}
		out[k] = KeywordMetrics{
			Volume:      it.SearchVolume,
			CPC:         it.CPC,
			Competition: it.Competition,
		}
	}
	return out, nil
}

func (m *dataForSEOMetrics) Ideas(ctx context.Context, seed string, loc probe.Locale) ([]KeywordIdea, error) {
	items, err := m.client.KeywordIdeas(ctx, seed, loc.Location, loc.Language)
	if err != nil {
		return nil, eris.Wrap(err, "engine: keyword ideas lookup")
	}
	out := make([]KeywordIdea, 0, len(items))
	for _, it := range items {
		out = append(out, KeywordIdea{
			Phrase: it.Keyword,
			Volume: it.SearchVolume,
			CPC:    it.CPC,
		})
	}
	return out, nil
}
