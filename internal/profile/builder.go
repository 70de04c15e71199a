// Package profile builds a site profile for a scan target by fetching its
// homepage and extracting seed text, keyword chips and type signals.
package profile

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/rivalscan/internal/domainutil"
	"github.com/sells-group/rivalscan/internal/intent"
)

const (
	fetchTimeout     = 10 * time.Second
	maxHomepageBytes = 1024 * 1024

	maxSeeds       = 12
	maxBodySamples = 20
	maxSlugPhrases = 15
	maxStructured  = 10
	maxSampleChars = 400
)

// SiteProfile is the read-only input the discovery engine works from.
type SiteProfile struct {
	Root               string   `json:"root"`
	Brand              string   `json:"brand"`
	SiteType           string   `json:"site_type"`
	PrimaryIntent      string   `json:"primary_intent,omitempty"`
	Seeds              []string `json:"seeds,omitempty"`
	KeywordChips       []string `json:"keyword_chips,omitempty"`
	SlugPhrases        []string `json:"slug_phrases,omitempty"`
	StructuredEntities []string `json:"structured_entities,omitempty"`
	BodySamples        []string `json:"body_samples,omitempty"`
}

// Builder constructs SiteProfiles from homepage content.
type Builder struct {
	http *http.Client
}

// NewBuilder creates a Builder with a bounded-timeout HTTP client.
func NewBuilder() *Builder {
	return &Builder{
		http: &http.Client{Timeout: fetchTimeout},
	}
}

// Profile fetches the root domain's homepage and extracts the profile.
// Fetch or parse failure yields a minimal profile (brand only), not an
// error: discovery proceeds best-effort.
func (b *Builder) Profile(ctx context.Context, root string) (*SiteProfile, error) {
	p := &SiteProfile{
		Root:  root,
		Brand: brandToken(root),
	}

	html, err := b.fetch(ctx, "https://"+root)
	if err != nil {
		zap.L().Warn("profile: homepage fetch failed, using minimal profile",
			zap.String("root", root),
			zap.Error(err),
		)
		p.SiteType = "services"
		return p, nil
	}

	b.extract(p, html)
	return p, nil
}

// brandToken is the first label of the root domain.
func brandToken(root string) string {
	brand, _, _ := strings.Cut(root, ".")
	return brand
}

func (b *Builder) fetch(ctx context.Context, pageURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "profile: create request")
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; rivalscan/1.0)")

	resp, err := b.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "profile: fetch homepage")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode >= 400 {
		return nil, eris.Errorf("profile: homepage returned %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxHomepageBytes))
	if err != nil {
		return nil, eris.Wrap(err, "profile: read homepage")
	}
	return body, nil
}

func (b *Builder) extract(p *SiteProfile, html []byte) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		p.SiteType = "services"
		return
	}

	title := strings.TrimSpace(doc.Find("title").First().Text())
	metaDesc, _ := doc.Find(`meta[name="description"]`).First().Attr("content")
	firstH1 := strings.TrimSpace(doc.Find("h1").First().Text())

	// Seeds: title, description, headings.
	addCapped(&p.Seeds, maxSeeds, title, metaDesc)
	doc.Find("h1, h2").Each(func(_ int, s *goquery.Selection) {
		addCapped(&p.Seeds, maxSeeds, strings.TrimSpace(s.Text()))
	})

	// Keyword chips from meta keywords, comma-separated.
	if kw, ok := doc.Find(`meta[name="keywords"]`).First().Attr("content"); ok {
		for _, chip := range strings.Split(kw, ",") {
			addCapped(&p.KeywordChips, maxSeeds, strings.TrimSpace(chip))
		}
	}

	// Slug phrases from internal link paths.
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		addCapped(&p.SlugPhrases, maxSlugPhrases, slugPhrase(href, p.Root))
	})

	// Structured-data names out of JSON-LD blocks. The payload shape is
	// untrusted: every field lookup is optional.
	doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, s *goquery.Selection) {
		for _, name := range jsonLDNames(s.Text()) {
			addCapped(&p.StructuredEntities, maxStructured, name)
		}
	})

	// Body samples from paragraphs and list items.
	doc.Find("p, li").Each(func(_ int, s *goquery.Selection) {
		text := strings.TrimSpace(s.Text())
		if len(text) > maxSampleChars {
			text = text[:maxSampleChars]
		}
		if len(text) >= 20 {
			addCapped(&p.BodySamples, maxBodySamples, text)
		}
	})

	blob := title + " " + metaDesc + " " + firstH1
	p.PrimaryIntent = intent.DetectPrimary(blob)
	p.SiteType = detectSiteType(doc, blob)
}

// addCapped appends non-empty values up to a cap, deduplicating
// case-insensitively.
func addCapped(dst *[]string, limit int, values ...string) {
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" || len(*dst) >= limit {
			continue
		}
		dup := false
		for _, existing := range *dst {
			if strings.EqualFold(existing, v) {
				dup = true
				break
			}
		}
		if !dup {
			*dst = append(*dst, v)
		}
	}
}

// slugPhrase converts an internal link path into a phrase, or "" when the
// link is external or carries no usable slug.
func slugPhrase(href, root string) string {
	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if u.Host != "" && domainutil.Root(u.Host) != root {
		return ""
	}

	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(segments) == 0 {
		return ""
	}
	slug := segments[len(segments)-1]
	slug = strings.TrimSuffix(slug, ".html")
	phrase := strings.ReplaceAll(strings.ReplaceAll(slug, "-", " "), "_", " ")
	phrase = strings.TrimSpace(phrase)
	if !strings.Contains(phrase, " ") {
		// Single-word slugs are navigation, not topical phrases.
		return ""
	}
	return strings.ToLower(phrase)
}

// jsonLDNames pulls name-like values out of a JSON-LD document. Objects and
// arrays of objects are both accepted; anything else is ignored.
func jsonLDNames(raw string) []string {
	var names []string

	collect := func(m map[string]any) {
		for _, key := range []string{"name", "alternateName", "headline"} {
			if v, ok := m[key].(string); ok && strings.TrimSpace(v) != "" {
				names = append(names, strings.TrimSpace(v))
			}
		}
	}

	var doc any
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return nil
	}
	switch v := doc.(type) {
	case map[string]any:
		collect(v)
	case []any:
		for _, item := range v {
			if m, ok := item.(map[string]any); ok {
				collect(m)
			}
		}
	}
	return names
}

// detectSiteType applies coarse text heuristics to decide the head-noun
// category used for probe building.
func detectSiteType(doc *goquery.Document, blob string) string {
	lower := strings.ToLower(blob)

	if doc.Find(`form[action*="cart"], button[class*="cart"]`).Length() > 0 ||
		containsAny(lower, "add to cart", "free shipping", "shop now") {
		return "ecommerce"
	}
	if containsAny(lower, "free trial", "pricing", "api", "dashboard", "integrations") {
		return "saas"
	}
	if containsAny(lower, "blog", "news", "magazine", "articles", "stories") {
		return "publisher"
	}
	return "services"
}

func containsAny(s string, terms ...string) bool {
	for _, t := range terms {
		if strings.Contains(s, t) {
			return true
		}
	}
	return false
}
