package serp

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/rivalscan/internal/probe"
	"github.com/sells-group/rivalscan/pkg/dataforseo"
	"github.com/sells-group/rivalscan/pkg/jina"
)

type stubDataForSEO struct {
	items []dataforseo.OrganicItem
	err   error
}

func (s *stubDataForSEO) SERP(context.Context, string, string, string, int) ([]dataforseo.OrganicItem, error) {
	return s.items, s.err
}

func (s *stubDataForSEO) SearchVolume(context.Context, []string, string, string) ([]dataforseo.VolumeItem, error) {
	return nil, nil
}

func (s *stubDataForSEO) KeywordIdeas(context.Context, string, string, string) ([]dataforseo.IdeaItem, error) {
	return nil, nil
}

type stubJina struct {
	results []jina.SearchResult
	err     error
}

func (s *stubJina) Search(context.Context, string) ([]jina.SearchResult, error) {
	return s.results, s.err
}

func (s *stubJina) Read(context.Context, string) (*jina.ReadResult, error) {
	return nil, nil
}

func TestDataForSEOProviderMapsItems(t *testing.T) {
	p := NewDataForSEOProvider(&stubDataForSEO{
		items: []dataforseo.OrganicItem{
			{URL: "https://rival1.com/page", RankAbsolute: 1},
			{Domain: "rival2.com", RankAbsolute: 4},
		},
	})

	items, err := p.RankedResults(context.Background(), "q", probe.DefaultLocale, 10)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "https://rival1.com/page", items[0].URL)
	assert.Equal(t, RankedItem{URL: "rival2.com", Position: 4}, items[1])
	assert.Equal(t, "dataforseo", p.Name())
}

func TestJinaProviderHonorsDepth(t *testing.T) {
	results := make([]jina.SearchResult, 5)
	for i := range results {
		results[i] = jina.SearchResult{URL: "https://r.com", Position: i + 1}
	}
	p := NewJinaProvider(&stubJina{results: results})

	items, err := p.RankedResults(context.Background(), "q", probe.DefaultLocale, 3)
	require.NoError(t, err)
	assert.Len(t, items, 3)
	assert.Equal(t, "jina", p.Name())
}

func TestJinaProviderSkipsEmptyURLs(t *testing.T) {
	p := NewJinaProvider(&stubJina{results: []jina.SearchResult{
		{URL: "", Position: 1},
		{URL: "https://r.com", Position: 2},
	}})

	items, err := p.RankedResults(context.Background(), "q", probe.DefaultLocale, 10)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 2, items[0].Position)
}
