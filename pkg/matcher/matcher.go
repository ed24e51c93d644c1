// Package matcher decides whether two search queries are close enough for
// the results of one to answer the other.
//
// The rules are lexical only: no stemming and no synonyms, so "curd" and
// "yogurt" are unrelated while "appl" and "apple" are related.
package matcher

import (
	"strings"

	"github.com/pmezard/go-difflib/difflib"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// SimilarityThreshold is the token ratio above which two tokens match.
const SimilarityThreshold = 0.75

// Related reports whether queries a and b are related. The check is
// symmetric and case-insensitive. Two queries are related when they share a
// token, a token of one contains a token of the other, one whole query
// contains the other, or a token pair is more than SimilarityThreshold alike.
//
// An empty query is a substring of everything, so callers validate queries
// before matching.
func Related(a, b string) bool {
	la, lb := lower(a), lower(b)
	ta, tb := tokens(la), tokens(lb)

	for _, wa := range ta {
		for _, wb := range tb {
			if wa == wb || strings.Contains(wa, wb) || strings.Contains(wb, wa) {
				return true
			}
		}
	}

	if strings.Contains(la, lb) || strings.Contains(lb, la) {
		return true
	}

	for _, wa := range ta {
		for _, wb := range tb {
			if Ratio(wa, wb) > SimilarityThreshold {
				return true
			}
		}
	}
	return false
}

// Ratio returns the similarity of a and b in [0, 1] as 2*M/T, where M is the
// number of runes in matching blocks and T the total rune count.
func Ratio(a, b string) float64 {
	if a == "" && b == "" {
		return 1
	}
	m := difflib.NewMatcher(runes(a), runes(b))
	return m.Ratio()
}

// Tokens returns the distinct lower-cased whitespace-separated words of s.
func Tokens(s string) []string {
	return tokens(lower(s))
}

func tokens(s string) []string {
	fields := strings.Fields(s)
	seen := make(map[string]bool, len(fields))
	out := fields[:0]
	for _, f := range fields {
		if !seen[f] {
			seen[f] = true
			out = append(out, f)
		}
	}
	return out
}

func lower(s string) string {
	return cases.Lower(language.Und).String(s)
}

func runes(s string) []string {
	out := make([]string, 0, len(s))
	for _, r := range s {
		out = append(out, string(r))
	}
	return out
}
