package serp

import (
	"context"

	"github.com/sells-group/rivalscan/internal/probe"
	"github.com/sells-group/rivalscan/pkg/dataforseo"
	"github.com/sells-group/rivalscan/pkg/jina"
)

// dataForSEOProvider adapts the DataForSEO client to the Provider interface.
type dataForSEOProvider struct {
	client dataforseo.Client
}

// NewDataForSEOProvider wraps a DataForSEO client as the primary provider.
func NewDataForSEOProvider(client dataforseo.Client) Provider {
	return &dataForSEOProvider{client: client}
}

func (p *dataForSEOProvider) Name() string { return "dataforseo" }

func (p *dataForSEOProvider) RankedResults(ctx context.Context, query string, loc probe.Locale, depth int) ([]RankedItem, error) {
	items, err := p.client.SERP(ctx, query, loc.Location, loc.Language, depth)
	if err != nil {
		return nil, err
	}

	out := make([]RankedItem, 0, len(items))
	for _, item := range items {
		u := item.URL
		if u == "" {
			u = item.Domain
		}
		out = append(out, RankedItem{URL: u, Position: item.RankAbsolute})
	}
	return out, nil
}

// jinaProvider adapts the Jina search client as the fallback provider.
// Jina search is locale-agnostic; the probe locale is ignored.
type jinaProvider struct {
	client jina.Client
}

// NewJinaProvider wraps a Jina client as the fallback provider.
func NewJinaProvider(client jina.Client) Provider {
	return &jinaProvider{client: client}
}

func (p *jinaProvider) Name() string { return "jina" }

func (p *jinaProvider) RankedResults(ctx context.Context, query string, _ probe.Locale, depth int) ([]RankedItem, error) {
	results, err := p.client.Search(ctx, query)
	if err != nil {
		return nil, err
	}

	out := make([]RankedItem, 0, len(results))
	for _, r := range results {
		if r.URL == "" {
			continue
		}
		out = append(out, RankedItem{URL: r.URL, Position: r.Position})
		if depth > 0 && len(out) >= depth {
			break
		}
	}
	return out, nil
}
