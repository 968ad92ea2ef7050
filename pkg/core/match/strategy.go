package match

import (
	"strings"
	"unicode/utf8"
)

// Strategy is one matching tier. Tiers are tried in order; the first one that
// yields a row wins.
type Strategy int

const (
	// ExactMatch: normalized row label equals a normalized synonym.
	ExactMatch Strategy = iota
	// ContainsMatch: a normalized synonym is a substring of the row label. Among
	// several rows the one closest in length to the synonym wins.
	ContainsMatch
	// BidirectionalMatch: synonym inside the label or label inside the synonym.
	// Catches provider-specific suffix variants; income statements only.
	BidirectionalMatch
)

var (
	// DefaultStrategies are used for balance sheets and cash flows.
	DefaultStrategies = []Strategy{ExactMatch, ContainsMatch}
	// LenientStrategies add the bidirectional last resort.
	LenientStrategies = []Strategy{ExactMatch, ContainsMatch, BidirectionalMatch}
)

func (s Strategy) String() string {
	switch s {
	case ExactMatch:
		return "exact"
	case ContainsMatch:
		return "contains"
	case BidirectionalMatch:
		return "bidirectional"
	}
	return "unknown"
}

// find returns the index of the matching row in labels (already normalized).
// synonyms must be normalized and non-empty.
func (s Strategy) find(labels, synonyms []string) (int, bool) {
	switch s {
	case ExactMatch:
		set := make(map[string]struct{}, len(synonyms))
		for _, syn := range synonyms {
			set[syn] = struct{}{}
		}
		for i, l := range labels {
			if _, ok := set[l]; ok {
				return i, true
			}
		}

	case ContainsMatch:
		for _, syn := range synonyms {
			best, bestDiff := -1, 0
			synLen := utf8.RuneCountInString(syn)
			for i, l := range labels {
				if !strings.Contains(l, syn) {
					continue
				}
				diff := utf8.RuneCountInString(l) - synLen
				if best < 0 || diff < bestDiff {
					best, bestDiff = i, diff
				}
			}
			if best >= 0 {
				return best, true
			}
		}

	case BidirectionalMatch:
		for _, syn := range synonyms {
			for i, l := range labels {
				if l == "" {
					continue
				}
				if strings.Contains(l, syn) || strings.Contains(syn, l) {
					return i, true
				}
			}
		}
	}
	return -1, false
}
