// Package dataforseo provides a client for the DataForSEO v3 endpoints used
// for ranked results and keyword metrics.
package dataforseo

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
)

const defaultBaseURL = "https://api.dataforseo.com"

// taskOK is the DataForSEO per-task success status code.
const taskOK = 20000

// Client defines the DataForSEO operations consumed by the engine.
type Client interface {
	// SERP returns organic ranked results for a query.
	SERP(ctx context.Context, query, locationName, languageCode string, depth int) ([]OrganicItem, error)
	// SearchVolume returns volume/cpc/competition per keyword. Missing
	// keywords are simply absent from the result.
	SearchVolume(ctx context.Context, keywords []string, locationName, languageCode string) ([]VolumeItem, error)
	// KeywordIdeas returns related keyword suggestions for a seed phrase.
	KeywordIdeas(ctx context.Context, seed, locationName, languageCode string) ([]IdeaItem, error)
}

// OrganicItem is one organic SERP entry.
type OrganicItem struct {
	Type         string `json:"type"`
	RankAbsolute int    `json:"rank_absolute"`
	URL          string `json:"url"`
	Domain       string `json:"domain"`
	Title        string `json:"title"`
}

// VolumeItem carries keyword metrics.
type VolumeItem struct {
	Keyword      string  `json:"keyword"`
	SearchVolume int     `json:"search_volume"`
	CPC          float64 `json:"cpc"`
	Competition  float64 `json:"competition"`
}

// IdeaItem is one related-keyword suggestion.
type IdeaItem struct {
	Keyword      string  `json:"keyword"`
	SearchVolume int     `json:"search_volume"`
	CPC          float64 `json:"cpc"`
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the API base URL (for testing).
func WithBaseURL(u string) Option {
	return func(c *httpClient) { c.baseURL = u }
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) { c.http = hc }
}

type httpClient struct {
	login    string
	password string
	baseURL  string
	http     *http.Client
}

// NewClient creates a DataForSEO client with basic-auth credentials.
func NewClient(login, password string, opts ...Option) Client {
	c := &httpClient{
		login:    login,
		password: password,
		baseURL:  defaultBaseURL,
		http: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 20,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// envelope is the outer DataForSEO response. Provider payloads are treated
// as untrusted: every nested field is optional and checked before use.
type envelope struct {
	StatusCode int    `json:"status_code"`
	StatusMsg  string `json:"status_message"`
	Tasks      []task `json:"tasks"`
}

type task struct {
	StatusCode int               `json:"status_code"`
	StatusMsg  string            `json:"status_message"`
	Result     []json.RawMessage `json:"result"`
}

func (c *httpClient) SERP(ctx context.Context, query, locationName, languageCode string, depth int) ([]OrganicItem, error) {
	if depth <= 0 {
		depth = 10
	}
	payload := []map[string]any{{
		"keyword":       query,
		"location_name": locationName,
		"language_code": languageCode,
		"depth":         depth,
	}}

	results, err := c.post(ctx, "/v3/serp/google/organic/live/advanced", payload)
	if err != nil {
		return nil, err
	}

	// result[0].items[], keeping organic entries only.
	var out []OrganicItem
	for _, raw := range results {
		var r struct {
			Items []OrganicItem `json:"items"`
		}
		if err := json.Unmarshal(raw, &r); err != nil {
			continue
		}
		for _, item := range r.Items {
			if item.Type != "" && item.Type != "organic" {
				continue
			}
			if item.URL == "" && item.Domain == "" {
				continue
			}
			out = append(out, item)
		}
	}
	return out, nil
}

func (c *httpClient) SearchVolume(ctx context.Context, keywords []string, locationName, languageCode string) ([]VolumeItem, error) {
	if len(keywords) == 0 {
		return nil, nil
	}
	payload := []map[string]any{{
		"keywords":      keywords,
		"location_name": locationName,
		"language_code": languageCode,
	}}

	results, err := c.post(ctx, "/v3/keywords_data/google_ads/search_volume/live", payload)
	if err != nil {
		return nil, err
	}

	var out []VolumeItem
	for _, raw := range results {
		var item VolumeItem
		if err := json.Unmarshal(raw, &item); err != nil || item.Keyword == "" {
			continue
		}
		out = append(out, item)
	}
	return out, nil
}

func (c *httpClient) KeywordIdeas(ctx context.Context, seed, locationName, languageCode string) ([]IdeaItem, error) {
	payload := []map[string]any{{
		"keywords":      []string{seed},
		"location_name": locationName,
		"language_code": languageCode,
	}}

	results, err := c.post(ctx, "/v3/keywords_data/google_ads/keywords_for_keywords/live", payload)
	if err != nil {
		return nil, err
	}

	var out []IdeaItem
	for _, raw := range results {
		var item IdeaItem
		if err := json.Unmarshal(raw, &item); err != nil || item.Keyword == "" {
			continue
		}
		out = append(out, item)
	}
	return out, nil
}

// post sends one task batch and flattens the per-task results. Transient
// statuses (429, 5xx) are retried with exponential backoff.
func (c *httpClient) post(ctx context.Context, path string, payload any) ([]json.RawMessage, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, eris.Wrap(err, "dataforseo: marshal request")
	}

	respBody, statusCode, err := c.retryDo(ctx, path, body)
	if err != nil {
		return nil, eris.Wrap(err, "dataforseo: request failed")
	}
	if statusCode != http.StatusOK {
		return nil, eris.Errorf("dataforseo: unexpected status %d: %s", statusCode, string(respBody))
	}

	var env envelope
	if err := json.Unmarshal(respBody, &env); err != nil {
		return nil, eris.Wrap(err, "dataforseo: unmarshal response")
	}
	if env.StatusCode != taskOK {
		return nil, eris.Errorf("dataforseo: api status %d: %s", env.StatusCode, env.StatusMsg)
	}

	var results []json.RawMessage
	for _, t := range env.Tasks {
		if t.StatusCode != taskOK {
			continue
		}
		results = append(results, t.Result...)
	}
	return results, nil
}

func retryableStatusCode(code int) bool {
	return code == http.StatusTooManyRequests ||
		code == http.StatusInternalServerError ||
		code == http.StatusBadGateway ||
		code == http.StatusServiceUnavailable
}

func (c *httpClient) retryDo(ctx context.Context, path string, body []byte) ([]byte, int, error) {
	const maxAttempts = 3
	backoff := 1 * time.Second

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
		if err != nil {
			return nil, 0, eris.Wrap(err, "dataforseo: create request")
		}
		req.SetBasicAuth(c.login, c.password)
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			lastErr = err
			if attempt < maxAttempts {
				select {
				case <-ctx.Done():
					return nil, 0, ctx.Err()
				case <-time.After(backoff):
				}
				backoff *= 2
				continue
			}
			return nil, 0, lastErr
		}

		respBody, readErr := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if readErr != nil {
			return nil, resp.StatusCode, eris.Wrap(readErr, "dataforseo: read response body")
		}

		if retryableStatusCode(resp.StatusCode) && attempt < maxAttempts {
			lastErr = eris.Errorf("dataforseo: status %d: %s", resp.StatusCode, string(respBody))
			select {
			case <-ctx.Done():
				return nil, 0, ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
			continue
		}

		return respBody, resp.StatusCode, nil
	}

	return nil, 0, lastErr
}
