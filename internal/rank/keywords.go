package rank

import (
	"math"
	"sort"
	"strings"

	"github.com/sells-group/rivalscan/internal/textmine"
)

// Keyword source origins, ordered by trust.
const (
	SourceMinedMetrics = "mined+metrics"
	SourceMined        = "mined"
	SourceIdea         = "idea"
	SourceRank         = "rank"
)

var sourceBoosts = map[string]float64{
	SourceMinedMetrics: 42,
	SourceMined:        32,
	SourceIdea:         22,
	SourceRank:         10,
}

const (
	volumeWeight     = 13
	cpcWeight        = 2.1
	maxLengthBonus   = 10
	specificWeight   = 22
	allOverlapWeight = 7
	genericPenalty   = 25
	offTypePenalty   = 8
)

// offTypeTerms penalizes phrases that point at the wrong vertical for the
// site type.
var offTypeTerms = map[string][]string{
	"saas":      {"store", "shop", "coupon"},
	"ecommerce": {"software", "api", "sdk"},
	"publisher": {"pricing", "checkout"},
}

// Keyword is a scored keyword candidate.
type Keyword struct {
	Phrase      string  `json:"phrase"`
	Source      string  `json:"source"`
	Volume      int     `json:"volume"`
	CPC         float64 `json:"cpc"`
	Competition float64 `json:"competition"`
	Score       float64 `json:"score"`
}

// Vocabulary holds the site's seed-token sets used for overlap scoring.
// Specific excludes generic marketing tokens.
type Vocabulary struct {
	All      map[string]struct{}
	Specific map[string]struct{}
}

// NewVocabulary builds the token vocabulary from seed phrases.
func NewVocabulary(seeds []string) Vocabulary {
	v := Vocabulary{
		All:      make(map[string]struct{}),
		Specific: make(map[string]struct{}),
	}
	for _, seed := range seeds {
		for _, tok := range textmine.Tokenize(seed) {
			v.All[tok] = struct{}{}
			if !textmine.IsGeneric(tok) {
				v.Specific[tok] = struct{}{}
			}
		}
	}
	return v
}

// Empty reports whether no seed tokens were collected.
func (v Vocabulary) Empty() bool { return len(v.All) == 0 }

// Keywords scores each candidate and returns them ordered by score with a
// deterministic phrase tie-break.
func Keywords(cands []Keyword, vocab Vocabulary, siteType string) []Keyword {
	out := make([]Keyword, len(cands))
	copy(out, cands)
	for i := range out {
		out[i].Score = scoreKeyword(out[i], vocab, siteType)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Phrase < out[j].Phrase
	})
	return out
}

func scoreKeyword(k Keyword, vocab Vocabulary, siteType string) float64 {
	toks := textmine.Tokenize(k.Phrase)

	score := sourceBoosts[k.Source]
	score += math.Log10(float64(k.Volume)+1) * volumeWeight
	score += k.CPC * cpcWeight
	score += math.Min(maxLengthBonus, float64(len(k.Phrase))/10)

	var specific, all int
	for _, t := range toks {
		if _, ok := vocab.Specific[t]; ok {
			specific++
		}
		if _, ok := vocab.All[t]; ok {
			all++
		}
	}
	score += float64(specific)*specificWeight + float64(all)*allOverlapWeight

	if textmine.AllGeneric(toks) {
		score -= genericPenalty
	}
	score -= typePenalty(toks, siteType)

	return score
}

func typePenalty(toks []string, siteType string) float64 {
	off := offTypeTerms[strings.ToLower(siteType)]
	if len(off) == 0 {
		return 0
	}
	for _, t := range toks {
		for _, bad := range off {
			if t == bad {
				return offTypePenalty
			}
		}
	}
	return 0
}
