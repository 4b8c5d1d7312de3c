// Package fuzzy scores string similarity on a 0-100 scale. The scoring is
// a partial ratio: the query is aligned against every window of the same
// length inside the candidate and the best window's edit-distance ratio
// wins. Comparison is case-insensitive.
package fuzzy

import "strings"

// Ratio returns the edit-distance similarity of two strings scaled 0-100.
// Identical strings score 100, completely unrelated strings approach 0.
func Ratio(a, b string) int {
	ra := []rune(strings.ToLower(a))
	rb := []rune(strings.ToLower(b))
	return ratio(ra, rb)
}

// PartialRatio returns the best Ratio of the shorter string against any
// same-length window of the longer one. A query that is a prefix, suffix,
// or inner substring of the candidate scores 100; small edits inside the
// matched window lower the score proportionally.
func PartialRatio(query, candidate string) int {
	shorter := []rune(strings.ToLower(query))
	longer := []rune(strings.ToLower(candidate))
	if len(shorter) > len(longer) {
		shorter, longer = longer, shorter
	}
	if len(shorter) == 0 {
		return 0
	}

	best := 0
	for start := 0; start+len(shorter) <= len(longer); start++ {
		window := longer[start : start+len(shorter)]
		if score := ratio(shorter, window); score > best {
			best = score
			if best == 100 {
				break
			}
		}
	}
	return best
}

func ratio(a, b []rune) int {
	if len(a) == 0 && len(b) == 0 {
		return 100
	}
	longest := len(a)
	if len(b) > longest {
		longest = len(b)
	}
	if longest == 0 {
		return 100
	}
	distance := levenshtein(a, b)
	return (longest - distance) * 100 / longest
}

// levenshtein computes the Levenshtein edit distance between two rune
// slices. This is the minimum number of single-character edits
// (insertions, deletions, or substitutions) required to change one string
// into the other.
func levenshtein(a, b []rune) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	// Single row of the distance matrix, updated in place:
	// O(min(m,n)) space instead of O(m*n).
	if len(a) > len(b) {
		a, b = b, a
	}

	previous := make([]int, len(a)+1)
	for i := range previous {
		previous[i] = i
	}

	for j := 1; j <= len(b); j++ {
		current := make([]int, len(a)+1)
		current[0] = j

		for i := 1; i <= len(a); i++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}

			deletion := previous[i] + 1
			insertion := current[i-1] + 1
			substitution := previous[i-1] + cost

			current[i] = min(deletion, min(insertion, substitution))
		}

		previous = current
	}

	return previous[len(a)]
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
