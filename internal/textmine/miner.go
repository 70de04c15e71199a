// Package textmine extracts candidate keyword phrases from free text mined
// off a website: seed phrases, URL slugs, structured-data values and body
// samples.
package textmine

import (
	"regexp"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

const (
	// topNGrams caps how many body-text n-grams survive frequency scoring.
	topNGrams = 180

	minPhraseChars = 3
	maxPhraseChars = 80
)

// ngramWeights skews frequency scoring toward shorter windows: a bigram that
// repeats is a stronger topical signal than an incidental 4-gram.
var ngramWeights = map[int]float64{2: 1.2, 3: 0.9, 4: 0.6}

var yearPattern = regexp.MustCompile(`\b(19|20)\d{2}\b`)

// Input bundles the text fields mined for a single site.
type Input struct {
	Seeds            []string
	SlugPhrases      []string
	StructuredValues []string
	BodySamples      []string

	// BrandToken is excluded from mined output so the site's own name never
	// becomes a keyword candidate.
	BrandToken string
}

// Tokenize splits text into lowercase alphanumeric words. Input is
// NFKC-normalized first so full-width and composed forms tokenize the same.
func Tokenize(text string) []string {
	text = strings.ToLower(norm.NFKC.String(text))
	return strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// Mine produces the ordered, deduplicated, quality-filtered phrase list for
// the input. Seed, slug and structured-data phrases come first in order of
// appearance, followed by frequency-ranked body n-grams.
func Mine(in Input) []string {
	raw := make([]string, 0, len(in.Seeds)+len(in.SlugPhrases)+len(in.StructuredValues)+topNGrams)
	raw = append(raw, in.Seeds...)
	raw = append(raw, in.SlugPhrases...)
	raw = append(raw, in.StructuredValues...)
	raw = append(raw, mineNGrams(in.BodySamples)...)

	brand := strings.ToLower(strings.TrimSpace(in.BrandToken))

	var out []string
	seen := make(map[string]struct{})
	for _, r := range raw {
		phrase := bestWindow(r)
		if phrase == "" {
			continue
		}
		if rejected(phrase, brand) {
			continue
		}
		if _, dup := seen[phrase]; dup {
			continue
		}
		seen[phrase] = struct{}{}
		out = append(out, phrase)
	}
	return out
}

// mineNGrams slides 2-, 3- and 4-token windows over the body samples,
// accumulating a frequency-weighted score per n-gram, and returns the top
// phrases by weight.
func mineNGrams(samples []string) []string {
	weights := make(map[string]float64)
	for _, sample := range samples {
		toks := Tokenize(sample)
		for n := 2; n <= 4; n++ {
			w := ngramWeights[n]
			for i := 0; i+n <= len(toks); i++ {
				weights[strings.Join(toks[i:i+n], " ")] += w
			}
		}
	}

	phrases := make([]string, 0, len(weights))
	for p := range weights {
		phrases = append(phrases, p)
	}
	sort.Slice(phrases, func(i, j int) bool {
		if weights[phrases[i]] != weights[phrases[j]] {
			return weights[phrases[i]] > weights[phrases[j]]
		}
		return phrases[i] < phrases[j]
	})

	if len(phrases) > topNGrams {
		phrases = phrases[:topNGrams]
	}
	return phrases
}

// bestWindow picks the best-scoring contiguous 2-4 token window of the raw
// phrase. Single-token phrases pass through unchanged so downstream fallback
// selection still sees them.
func bestWindow(raw string) string {
	toks := Tokenize(raw)
	if len(toks) == 0 {
		return ""
	}
	if len(toks) == 1 {
		return toks[0]
	}

	best := ""
	bestScore := 0.0
	for n := 2; n <= 4; n++ {
		for i := 0; i+n <= len(toks); i++ {
			window := toks[i : i+n]
			s := windowScore(window)
			if best == "" || s > bestScore {
				best = strings.Join(window, " ")
				bestScore = s
			}
		}
	}
	return best
}

// windowScore rewards informative tokens and penalizes generic filler,
// especially on window boundaries.
func windowScore(window []string) float64 {
	score := 0.5 * float64(len(window)) // slight preference for longer windows
	for _, t := range window {
		if IsGeneric(t) {
			score -= 2
		} else {
			score += 8
		}
	}
	if IsGeneric(window[0]) {
		score -= 4
	}
	if IsGeneric(window[len(window)-1]) {
		score -= 4
	}
	return score
}

// rejected applies the hard phrase filters: length bounds, year patterns,
// the brand token itself, and navigation boilerplate boundaries.
func rejected(phrase, brand string) bool {
	if len(phrase) < minPhraseChars || len(phrase) > maxPhraseChars {
		return true
	}
	if yearPattern.MatchString(phrase) {
		return true
	}
	if brand != "" && phrase == brand {
		return true
	}
	return badBoundary(phrase)
}

// badBoundary reports whether the phrase starts or ends on a known
// navigation/boilerplate term.
func badBoundary(phrase string) bool {
	if _, ok := badPhrases[phrase]; ok {
		return true
	}
	toks := strings.Fields(phrase)
	boundary := []string{toks[0], toks[len(toks)-1]}
	if len(toks) >= 2 {
		boundary = append(boundary,
			toks[0]+" "+toks[1],
			toks[len(toks)-2]+" "+toks[len(toks)-1],
		)
	}
	for _, b := range boundary {
		if _, ok := badPhrases[b]; ok {
			return true
		}
	}
	return false
}
