package dataforseo

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient("login", "password", WithBaseURL(srv.URL), WithHTTPClient(srv.Client()))
}

func TestSERP(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v3/serp/google/organic/live/advanced", r.URL.Path)

		auth := r.Header.Get("Authorization")
		want := "Basic " + base64.StdEncoding.EncodeToString([]byte("login:password"))
		assert.Equal(t, want, auth)

		var tasks []map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&tasks))
		require.Len(t, tasks, 1)
		assert.Equal(t, "crm software", tasks[0]["keyword"])
		assert.Equal(t, float64(10), tasks[0]["depth"])

		resp := `{
			"status_code": 20000,
			"tasks": [{
				"status_code": 20000,
				"result": [{
					"items": [
						{"type": "organic", "rank_absolute": 1, "url": "https://rival1.com", "domain": "rival1.com"},
						{"type": "paid", "rank_absolute": 2, "url": "https://ad.example.com"},
						{"type": "organic", "rank_absolute": 3, "url": "https://rival2.com"}
					]
				}]
			}]
		}`
		w.Write([]byte(resp)) //nolint:errcheck
	})

	items, err := c.SERP(context.Background(), "crm software", "United States", "en", 10)
	require.NoError(t, err)
	require.Len(t, items, 2, "non-organic entries must be skipped")
	assert.Equal(t, "rival1.com", items[0].Domain)
	assert.Equal(t, 3, items[1].RankAbsolute)
}

func TestSERPAPIErrorStatus(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status_code": 40101, "status_message": "auth failed"}`)) //nolint:errcheck
	})

	_, err := c.SERP(context.Background(), "q", "United States", "en", 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "40101")
}

func TestSERPSkipsFailedTasks(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		resp := `{
			"status_code": 20000,
			"tasks": [
				{"status_code": 40501, "status_message": "invalid field"},
				{"status_code": 20000, "result": [{"items": [{"type": "organic", "url": "https://ok.com"}]}]}
			]
		}`
		w.Write([]byte(resp)) //nolint:errcheck
	})

	items, err := c.SERP(context.Background(), "q", "United States", "en", 10)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "https://ok.com", items[0].URL)
}

func TestSearchVolume(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v3/keywords_data/google_ads/search_volume/live", r.URL.Path)
		resp := `{
			"status_code": 20000,
			"tasks": [{
				"status_code": 20000,
				"result": [
					{"keyword": "crm software", "search_volume": 74000, "cpc": 12.5, "competition": 0.88},
					{"keyword": "crm tools", "search_volume": 9900, "cpc": 8.1, "competition": 0.71},
					{"search_volume": 5}
				]
			}]
		}`
		w.Write([]byte(resp)) //nolint:errcheck
	})

	items, err := c.SearchVolume(context.Background(), []string{"crm software", "crm tools"}, "United States", "en")
	require.NoError(t, err)
	require.Len(t, items, 2, "entries without a keyword must be dropped")
	assert.Equal(t, 74000, items[0].SearchVolume)
	assert.InDelta(t, 8.1, items[1].CPC, 0.001)
}

func TestSearchVolumeEmptyKeywords(t *testing.T) {
	c := NewClient("l", "p")
	items, err := c.SearchVolume(context.Background(), nil, "United States", "en")
	require.NoError(t, err)
	assert.Nil(t, items)
}

func TestKeywordIdeas(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v3/keywords_data/google_ads/keywords_for_keywords/live", r.URL.Path)
		resp := `{
			"status_code": 20000,
			"tasks": [{
				"status_code": 20000,
				"result": [
					{"keyword": "crm for startups", "search_volume": 1900, "cpc": 9.4}
				]
			}]
		}`
		w.Write([]byte(resp)) //nolint:errcheck
	})

	items, err := c.KeywordIdeas(context.Background(), "crm", "United States", "en")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "crm for startups", items[0].Keyword)
}

func TestRetryOnTransientStatus(t *testing.T) {
	var calls atomic.Int64
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"status_code": 20000, "tasks": []}`)) //nolint:errcheck
	})

	_, err := c.SERP(context.Background(), "q", "United States", "en", 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), calls.Load())
}

func TestNonRetryableStatusFailsFast(t *testing.T) {
	var calls atomic.Int64
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	})

	_, err := c.SERP(context.Background(), "q", "United States", "en", 10)
	require.Error(t, err)
	assert.Equal(t, int64(1), calls.Load())
}
