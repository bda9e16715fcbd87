// Package similarity scores how close a free-text guess is to a target
// answer. Both measures work on runes so multi-byte characters count as
// single units, and both return a ratio in [0, 1].
package similarity

import "strings"

// Thresholds are the minimum ratios at which a guess counts as correct.
type Thresholds struct {
	Edit    float64
	Gestalt float64
}

// Scale tightens the thresholds by the given factor, capped below 1.
func (t Thresholds) Scale(factor float64) Thresholds {
	return Thresholds{
		Edit:    min(t.Edit*factor, 0.99),
		Gestalt: min(t.Gestalt*factor, 0.99),
	}
}

// Match reports whether guess is close enough to answer. Both strings are
// trimmed and case-folded first; either measure clearing its threshold is
// enough, so typos and partial/reordered answers are both tolerated.
func Match(guess, answer string, t Thresholds) bool {
	g := strings.ToLower(strings.TrimSpace(guess))
	a := strings.ToLower(strings.TrimSpace(answer))

	return Levenshtein(g, a) >= t.Edit || Gestalt(g, a) >= t.Gestalt
}

// Levenshtein returns (maxLen - distance) / maxLen where distance is the
// classic insert/delete/substitute edit distance. Two empty strings are a
// perfect match.
func Levenshtein(a, b string) float64 {
	ra := []rune(a)
	rb := []rune(b)

	// Iterate the shorter word as the outer dimension so the cost row
	// stays as small as possible.
	if len(ra) > len(rb) {
		ra, rb = rb, ra
	}

	n := len(rb)
	if n == 0 {
		return 1
	}

	costs := make([]int, n+1)
	for j := range costs {
		costs[j] = j
	}

	for i := 1; i <= len(ra); i++ {
		last := i
		for j := 1; j <= n; j++ {
			cur := costs[j-1]
			if ra[i-1] != rb[j-1] {
				cur = min(costs[j-1], last, costs[j]) + 1
			}
			costs[j-1] = last
			last = cur
		}
		costs[n] = last
	}

	return float64(n-costs[n]) / float64(n)
}

// Gestalt returns 2 * matched / (len(a) + len(b)) where matched counts the
// characters of the longest common substring plus, recursively, those of the
// prefix pair and suffix pair around it. Two empty strings are a perfect
// match.
func Gestalt(a, b string) float64 {
	ra := []rune(a)
	rb := []rune(b)

	total := len(ra) + len(rb)
	if total == 0 {
		return 1
	}

	// One scratch buffer serves every recursion level; each call resets
	// the prefix it used.
	buf := make([]int, max(len(ra), len(rb))+1)

	return 2 * float64(matchingChars(ra, rb, buf)) / float64(total)
}

func matchingChars(a, b []rune, buf []int) int {
	startA, startB, length := longestCommonSubstring(a, b, buf)
	if length == 0 {
		return 0
	}

	matches := length

	if startA > 0 && startB > 0 {
		matches += matchingChars(a[:startA], b[:startB], buf)
	}

	suffixA := a[startA+length:]
	suffixB := b[startB+length:]

	if len(suffixA) > 0 && len(suffixB) > 0 {
		matches += matchingChars(suffixA, suffixB, buf)
	}

	return matches
}

// longestCommonSubstring runs a suffix-table sweep over buf, which must hold
// at least max(len(a), len(b))+1 entries. The used prefix of buf is zeroed
// again before returning.
func longestCommonSubstring(a, b []rune, buf []int) (startA, startB, length int) {
	if len(a) == 0 || len(b) == 0 {
		return 0, 0, 0
	}

	swapped := false
	if len(a) > len(b) {
		a, b = b, a
		swapped = true
	}

	m := len(a)
	n := len(b)

	var endA int

	for j := 0; j < m; j++ {
		ca := a[m-1-j]
		for i := 0; i < n; i++ {
			if ca != b[i] {
				buf[i] = 0
				continue
			}

			val := buf[i+1] + 1
			buf[i] = val

			if val > length {
				length = val
				startB = i
				endA = j
			}
		}
	}

	for i := 0; i < n; i++ {
		buf[i] = 0
	}

	startA = m - endA - 1
	if swapped {
		return startB, startA, length
	}

	return startA, startB, length
}
