package license

import (
	"strings"
	"unicode"
)

// normalizeForMatch strips whitespace, hyphens and both ASCII and
// full-width brackets, then lower-cases. Comparison is always done on the
// normalized form so formatting noise from OCR does not count as a diff.
func normalizeForMatch(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsSpace(r) {
			continue
		}
		switch r {
		case '-', '(', ')', '（', '）':
			continue
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}

// Similarity scores two strings in [0,1] using Levenshtein distance over
// normalized runes. Both empty scores 1, exactly one empty scores 0.
// Symmetric in its arguments.
func Similarity(a, b string) float64 {
	if a == "" && b == "" {
		return 1
	}
	if a == "" || b == "" {
		return 0
	}
	na, nb := normalizeForMatch(a), normalizeForMatch(b)
	if na == nb {
		return 1
	}
	ra, rb := []rune(na), []rune(nb)
	maxLen := len(ra)
	if len(rb) > maxLen {
		maxLen = len(rb)
	}
	if maxLen == 0 {
		return 1
	}
	d := levenshtein(ra, rb)
	return 1 - float64(d)/float64(maxLen)
}

// levenshtein computes edit distance with unit insert/delete/substitute
// costs using the classic two-row recurrence. Operates on runes so CJK
// text is measured in characters, not bytes.
func levenshtein(a, b []rune) int {
	prev := make([]int, len(a)+1)
	cur := make([]int, len(a)+1)
	for i := range prev {
		prev[i] = i
	}
	for j := 1; j <= len(b); j++ {
		cur[0] = j
		for i := 1; i <= len(a); i++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			best := cur[i-1] + 1 // deletion
			if v := prev[i] + 1; v < best { // insertion
				best = v
			}
			if v := prev[i-1] + cost; v < best { // substitution
				best = v
			}
			cur[i] = best
		}
		prev, cur = cur, prev
	}
	return prev[len(a)]
}

// QuickSimilarity is a cheap lower-fidelity alternative to Similarity:
// containment scores 0.9, otherwise the length ratio of the shorter to
// the longer normalized string. Suitable as a pre-filter (e.g. candidate
// task lookup); the comparison engine itself always uses Similarity.
func QuickSimilarity(a, b string) float64 {
	if a == "" && b == "" {
		return 1
	}
	if a == "" || b == "" {
		return 0
	}
	na, nb := normalizeForMatch(a), normalizeForMatch(b)
	if na == nb {
		return 1
	}
	if strings.Contains(na, nb) || strings.Contains(nb, na) {
		return 0.9
	}
	la, lb := len([]rune(na)), len([]rune(nb))
	max, min := la, lb
	if lb > la {
		max, min = lb, la
	}
	if max == 0 {
		return 1
	}
	return float64(min) / float64(max)
}
