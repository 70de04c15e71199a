package textmine

import (
	_ "embed"

	"gopkg.in/yaml.v3"
)

//go:embed wordlists.yaml
var wordlistsYAML []byte

type wordlists struct {
	Generic    []string `yaml:"generic"`
	BadPhrases []string `yaml:"bad_phrases"`
}

var (
	genericTerms map[string]struct{}
	badPhrases   map[string]struct{}
)

func init() {
	var w wordlists
	if err := yaml.Unmarshal(wordlistsYAML, &w); err != nil {
		panic("textmine: parse embedded wordlists: " + err.Error())
	}
	genericTerms = make(map[string]struct{}, len(w.Generic))
	for _, t := range w.Generic {
		genericTerms[t] = struct{}{}
	}
	badPhrases = make(map[string]struct{}, len(w.BadPhrases))
	for _, p := range w.BadPhrases {
		badPhrases[p] = struct{}{}
	}
}

// IsGeneric reports whether a single token is in the generic marketing set.
func IsGeneric(token string) bool {
	_, ok := genericTerms[token]
	return ok
}

// AllGeneric reports whether every token of the phrase is generic. Empty
// phrases count as generic.
func AllGeneric(tokens []string) bool {
	for _, t := range tokens {
		if !IsGeneric(t) {
			return false
		}
	}
	return true
}
