// Package matcher decides how a raw retailer listing relates to the existing
// catalog: exact match, confident fuzzy match, or a suggestion held for
// manual review.
package matcher

import (
	"regexp"
	"strings"
)

var nonAlnumRe = regexp.MustCompile(`[^a-z0-9]+`)

// Similarity computes trigram-style similarity between two product names,
// in [0,1]. Equal normalized strings score 1; disjoint trigram sets score 0.
func Similarity(a, b string) float64 {
	na := normalizeName(a)
	nb := normalizeName(b)
	if na == "" || nb == "" {
		return 0
	}
	if na == nb {
		return 1
	}

	ta := trigrams(na)
	tb := trigrams(nb)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}

	intersection := 0
	for g := range ta {
		if tb[g] {
			intersection++
		}
	}
	union := len(ta) + len(tb) - intersection
	return float64(intersection) / float64(union)
}

func normalizeName(s string) string {
	s = nonAlnumRe.ReplaceAllString(strings.ToLower(s), " ")
	return strings.TrimSpace(s)
}

// trigrams builds the padded trigram set of a normalized string, word by
// word, in the manner of pg_trgm.
func trigrams(s string) map[string]bool {
	set := make(map[string]bool)
	for _, word := range strings.Fields(s) {
		padded := []rune("  " + word + " ")
		for i := 0; i+3 <= len(padded); i++ {
			set[string(padded[i:i+3])] = true
		}
	}
	return set
}
