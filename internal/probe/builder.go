// Package probe turns a site profile into the bounded set of search queries
// issued against ranked-result providers.
package probe

import (
	"fmt"
	"strings"

	"github.com/sells-group/rivalscan/internal/textmine"
)

const (
	// maxPlatformProbes bounds business/platform competitor probes.
	maxPlatformProbes = 8
	// maxSearchProbes bounds organic-overlap probes.
	maxSearchProbes = 8
	// maxPhraseProbes is how many mined phrases get a head-noun probe.
	maxPhraseProbes = 6

	// IntentSearchEngine marks infrastructure-type sites whose competitors
	// are other engines, not topical sites.
	IntentSearchEngine = "search_engine"
)

// Locale scopes a probe to a provider location and language.
type Locale struct {
	Location string `json:"location"`
	Language string `json:"language"`
}

// DefaultLocale is used when the caller supplies none.
var DefaultLocale = Locale{Location: "United States", Language: "en"}

// Probe is one query issued against a ranked-result provider. Immutable;
// consumed exactly once per aggregation pass.
type Probe struct {
	Query  string `json:"query"`
	Locale Locale `json:"locale"`
}

// Profile is the read-only site profile the builder works from.
type Profile struct {
	SiteType      string
	Brand         string
	Seeds         []string
	PrimaryIntent string
	KeywordChips  []string
}

// searchEngineTemplates are the fixed probes for search-engine-type targets.
// Generic topical probes surface irrelevant results for infrastructure
// sites, so the brand is probed directly against the engine market.
var searchEngineTemplates = []string{
	"%s alternatives",
	"%s vs google",
	"%s vs bing",
	"%s vs duckduckgo",
	"%s competitors",
	"%s review",
	"search engine alternative",
	"private search engine",
	"best search engine",
	"ai search engine",
}

// headNoun maps a site type to the noun appended to mined phrases when
// probing for platform competitors.
func headNoun(siteType string) string {
	switch strings.ToLower(siteType) {
	case "saas":
		return "software"
	case "ecommerce":
		return "store"
	case "publisher":
		return "blog"
	default:
		return "services"
	}
}

// Platform builds the probes that surface business/platform competitors:
// the fixed template set for search-engine targets, otherwise mined phrases
// with a type-dependent head noun plus alternatives/tools variants.
func Platform(p Profile, phrases []string, loc Locale) []Probe {
	if loc == (Locale{}) {
		loc = DefaultLocale
	}

	if p.PrimaryIntent == IntentSearchEngine {
		return fromTemplates(p.Brand, loc)
	}

	noun := headNoun(p.SiteType)
	var queries []string
	for _, phrase := range phrases {
		if len(queries) >= maxPhraseProbes {
			break
		}
		queries = append(queries, phrase+" "+noun)
	}
	// Alternatives/tools variants of the top phrases.
	if len(phrases) > 0 {
		queries = append(queries, phrases[0]+" alternatives")
	}
	if len(phrases) > 1 {
		queries = append(queries, phrases[1]+" tools")
	}

	return build(queries, loc, maxPlatformProbes)
}

// Search builds the organic-overlap probes: keyword chips of at least two
// tokens, falling back to windowed seed phrases, deduplicated and capped.
// Search-engine targets reuse the template set.
func Search(p Profile, loc Locale) []Probe {
	if loc == (Locale{}) {
		loc = DefaultLocale
	}

	if p.PrimaryIntent == IntentSearchEngine {
		probes := fromTemplates(p.Brand, loc)
		if len(probes) > maxSearchProbes {
			probes = probes[:maxSearchProbes]
		}
		return probes
	}

	var queries []string
	for _, chip := range p.KeywordChips {
		if len(textmine.Tokenize(chip)) >= 2 {
			queries = append(queries, strings.ToLower(strings.TrimSpace(chip)))
		}
	}
	if len(queries) == 0 {
		for _, seed := range p.Seeds {
			toks := textmine.Tokenize(seed)
			if len(toks) >= 2 {
				queries = append(queries, strings.Join(toks, " "))
			}
		}
	}

	return build(queries, loc, maxSearchProbes)
}

func fromTemplates(brand string, loc Locale) []Probe {
	brand = strings.ToLower(strings.TrimSpace(brand))
	var queries []string
	for _, tpl := range searchEngineTemplates {
		if strings.Contains(tpl, "%s") {
			if brand == "" {
				continue
			}
			queries = append(queries, fmt.Sprintf(tpl, brand))
			continue
		}
		queries = append(queries, tpl)
	}
	return build(queries, loc, len(queries))
}

// build dedupes queries preserving order and caps the probe count.
func build(queries []string, loc Locale, limit int) []Probe {
	seen := make(map[string]struct{}, len(queries))
	var probes []Probe
	for _, q := range queries {
		q = strings.TrimSpace(q)
		if q == "" {
			continue
		}
		if _, dup := seen[q]; dup {
			continue
		}
		seen[q] = struct{}{}
		probes = append(probes, Probe{Query: q, Locale: loc})
		if len(probes) >= limit {
			break
		}
	}
	return probes
}
