package rank

import (
	"strings"

	"github.com/sells-group/rivalscan/internal/textmine"
)

const (
	// jaccardDuplicate is the similarity at which two phrases count as
	// near-duplicates during the strict pass.
	jaccardDuplicate = 0.62
	// jaccardRelaxed is the looser bound used when filling remaining slots.
	jaccardRelaxed = 0.7
	// strictPicks is how many leading picks must overlap the specific
	// (non-generic) vocabulary before the requirement softens.
	strictPicks = 3
)

// SelectKeywords walks the ranked candidates and picks up to target phrases,
// enforcing diversity and seed-vocabulary overlap. Candidates too similar to
// an earlier pick are skipped; if the strict pass leaves slots open the
// thresholds relax, and as a last resort single-token non-generic candidates
// fill the list.
func SelectKeywords(ranked []Keyword, vocab Vocabulary, target int) []Keyword {
	if target <= 0 {
		return nil
	}

	var chosen []Keyword
	chosenToks := make([][]string, 0, target)

	pick := func(k Keyword, maxSim float64, requireOverlap bool) bool {
		toks := textmine.Tokenize(k.Phrase)
		if len(toks) < 2 {
			return false
		}
		for _, prev := range chosenToks {
			if jaccard(toks, prev) >= maxSim {
				return false
			}
		}
		if requireOverlap && !vocab.Empty() {
			strict := len(chosen) < strictPicks
			if !overlaps(toks, vocab, strict) {
				return false
			}
		}
		for _, prev := range chosen {
			if strings.EqualFold(prev.Phrase, k.Phrase) {
				return false
			}
		}
		chosen = append(chosen, k)
		chosenToks = append(chosenToks, toks)
		return true
	}

	for _, k := range ranked {
		if len(chosen) >= target {
			return chosen
		}
		pick(k, jaccardDuplicate, true)
	}

	// Relaxed pass: looser similarity, no overlap requirement.
	for _, k := range ranked {
		if len(chosen) >= target {
			return chosen
		}
		pick(k, jaccardRelaxed, false)
	}

	// Last resort: single-token, non-generic candidates.
	for _, k := range ranked {
		if len(chosen) >= target {
			break
		}
		toks := textmine.Tokenize(k.Phrase)
		if len(toks) != 1 || textmine.IsGeneric(toks[0]) {
			continue
		}
		dup := false
		for _, prev := range chosen {
			if strings.EqualFold(prev.Phrase, k.Phrase) {
				dup = true
				break
			}
		}
		if !dup {
			chosen = append(chosen, k)
			chosenToks = append(chosenToks, toks)
		}
	}
	return chosen
}

// overlaps reports whether the phrase shares a token with the vocabulary.
// Strict mode demands overlap with the specific (non-generic) subset.
func overlaps(toks []string, vocab Vocabulary, strict bool) bool {
	set := vocab.All
	if strict {
		set = vocab.Specific
	}
	for _, t := range toks {
		if _, ok := set[t]; ok {
			return true
		}
	}
	return false
}

// jaccard computes token-set Jaccard similarity between two phrases.
func jaccard(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	setA := make(map[string]struct{}, len(a))
	for _, t := range a {
		setA[t] = struct{}{}
	}
	setB := make(map[string]struct{}, len(b))
	for _, t := range b {
		setB[t] = struct{}{}
	}
	inter := 0
	for t := range setA {
		if _, ok := setB[t]; ok {
			inter++
		}
	}
	union := len(setA) + len(setB) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}
