// Package intent assigns a coarse role label to candidate domains by
// fetching their landing content, and filters candidates whose role cannot
// belong in the competitor set.
package intent

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Role is the coarse vertical assigned to a site.
type Role string

const (
	RoleSearchEngine  Role = "search_engine"
	RoleAIAnswer      Role = "ai_answer_engine"
	RoleEcommerce     Role = "ecommerce"
	RolePayments      Role = "payments"
	RoleDictionary    Role = "dictionary"
	RoleMusic         Role = "music"
	RoleMaps          Role = "maps"
	RoleSupportPortal Role = "support_portal"
	RoleSocial        Role = "social"
	RoleOther         Role = "other"
)

const (
	// fetchTimeout bounds a single homepage fetch so classification never
	// dominates request latency.
	fetchTimeout = 6500 * time.Millisecond

	maxHomepageBytes = 512 * 1024
)

// rule pairs a role with the substrings that indicate it. Rules are
// evaluated in order; the first match wins.
type rule struct {
	role  Role
	terms []string
}

var rules = []rule{
	{RoleSearchEngine, []string{"search engine", "web search", "search the web", "private search", "search privately"}},
	{RoleAIAnswer, []string{"answer engine", "ai answers", "ai search", "ask anything", "ai-powered answers"}},
	{RoleEcommerce, []string{"add to cart", "free shipping", "shop now", "our store", "checkout"}},
	{RolePayments, []string{"payments platform", "accept payments", "send money", "payment processing", "point of sale"}},
	{RoleDictionary, []string{"dictionary", "thesaurus", "definitions", "word of the day"}},
	{RoleMusic, []string{"listen to music", "playlists", "stream music", "podcasts and music"}},
	{RoleMaps, []string{"driving directions", "satellite imagery", "street map", "navigation app"}},
	{RoleSupportPortal, []string{"help center", "support center", "knowledge base", "submit a ticket"}},
	{RoleSocial, []string{"social network", "connect with friends", "share photos", "join the conversation"}},
}

// wrongVerticals are rejected for every non-search-engine target; the rest
// of the labels pass through.
var wrongVerticals = map[Role]struct{}{
	RoleDictionary:    {},
	RoleMusic:         {},
	RolePayments:      {},
	RoleSupportPortal: {},
}

// Classify maps landing-content text to a role. Pure function over the
// fixed rule list, first match wins, RoleOther when nothing matches.
func Classify(text string) Role {
	text = strings.ToLower(text)
	for _, r := range rules {
		for _, term := range r.terms {
			if strings.Contains(text, term) {
				return r.role
			}
		}
	}
	return RoleOther
}

// DetectPrimary inspects the target's own profile text and reports
// "search_engine" when it reads like one, otherwise "".
func DetectPrimary(text string) string {
	switch Classify(text) {
	case RoleSearchEngine, RoleAIAnswer:
		return "search_engine"
	}
	return ""
}

// Admit reports whether a candidate role survives filtering for a target
// with the given primary intent. Search-engine targets admit only engines;
// everyone else rejects just the clearly wrong verticals.
func Admit(role Role, primaryIntent string) bool {
	if primaryIntent == "search_engine" {
		return role == RoleSearchEngine || role == RoleAIAnswer
	}
	_, wrong := wrongVerticals[role]
	return !wrong
}

// FetchFunc retrieves raw HTML for a URL. Implementations return an error
// on any failure; callers treat that as exclusion, not as a fault.
type FetchFunc func(ctx context.Context, url string) ([]byte, error)

// Classifier fetches candidate landing pages and labels them.
type Classifier struct {
	fetch FetchFunc
}

// NewClassifier creates a Classifier. A nil fetch uses the default
// HTTP fetcher with the bounded timeout.
func NewClassifier(fetch FetchFunc) *Classifier {
	if fetch == nil {
		fetch = fetchHomepage
	}
	return &Classifier{fetch: fetch}
}

// RoleOf fetches the domain's homepage and classifies it. The second
// return is false when the page is unreachable or empty: the candidate is
// dropped silently, never surfaced as an error.
func (c *Classifier) RoleOf(ctx context.Context, domain string) (Role, bool) {
	body, err := c.fetch(ctx, "https://"+domain)
	if err != nil || len(body) == 0 {
		zap.L().Debug("intent: homepage unavailable, dropping candidate",
			zap.String("domain", domain),
			zap.Error(err),
		)
		return RoleOther, false
	}

	text := landingText(body)
	if text == "" {
		return RoleOther, false
	}
	return Classify(text), true
}

// landingText extracts title, meta description and the first h1 into one
// blob for classification.
func landingText(html []byte) string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return ""
	}

	var b strings.Builder
	b.WriteString(doc.Find("title").First().Text())
	b.WriteString(" ")
	if desc, ok := doc.Find(`meta[name="description"]`).First().Attr("content"); ok {
		b.WriteString(desc)
		b.WriteString(" ")
	}
	b.WriteString(doc.Find("h1").First().Text())
	return strings.TrimSpace(b.String())
}

// fetchHomepage is the default FetchFunc: bounded-timeout GET with a
// browser-ish user agent.
func fetchHomepage(ctx context.Context, url string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	client := &http.Client{Timeout: fetchTimeout}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, eris.Wrap(err, "intent: create request")
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; rivalscan/1.0)")

	resp, err := client.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "intent: fetch homepage")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode >= 400 {
		return nil, eris.Errorf("intent: homepage returned %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxHomepageBytes))
	if err != nil {
		return nil, eris.Wrap(err, "intent: read homepage")
	}
	return body, nil
}
