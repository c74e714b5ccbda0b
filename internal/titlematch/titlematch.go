// Package titlematch provides title normalization and fuzzy matching used
// wherever the same content must be located across systems that disagree on
// punctuation, casing or articles ("The Office (US)" vs "the office us").
package titlematch

// DefaultThreshold is the minimum similarity score at which two titles are
// considered the same content when no external identifier is available.
const DefaultThreshold = 0.70

// Normalize lowercases a title and strips every character outside [a-z0-9].
func Normalize(title string) string {
	out := make([]byte, 0, len(title))
	for i := 0; i < len(title); i++ {
		c := title[i]
		switch {
		case c >= 'a' && c <= 'z', c >= '0' && c <= '9':
			out = append(out, c)
		case c >= 'A' && c <= 'Z':
			out = append(out, c+('a'-'A'))
		}
	}
	return string(out)
}

// Similarity returns the Dice coefficient over character bigrams of the
// normalized titles. Identical normalized strings score 1.0. Strings whose
// normalized form is shorter than two characters score 0.0, as they have no
// bigrams to compare.
func Similarity(a, b string) float64 {
	na, nb := Normalize(a), Normalize(b)
	if na == nb {
		if len(na) == 0 {
			return 0
		}
		return 1
	}
	if len(na) < 2 || len(nb) < 2 {
		return 0
	}

	counts := make(map[string]int, len(na)-1)
	for i := 0; i+2 <= len(na); i++ {
		counts[na[i:i+2]]++
	}

	intersection := 0
	for i := 0; i+2 <= len(nb); i++ {
		bg := nb[i : i+2]
		if counts[bg] > 0 {
			counts[bg]--
			intersection++
		}
	}

	return 2 * float64(intersection) / float64(len(na)-1+len(nb)-1)
}

// BestMatch returns the index of the candidate most similar to target, along
// with its score. It returns -1 when no candidate reaches the threshold.
// Ties resolve to the earliest candidate, keeping the result deterministic
// for identical inputs.
func BestMatch(target string, candidates []string, threshold float64) (int, float64) {
	best := -1
	bestScore := 0.0
	for i, c := range candidates {
		score := Similarity(target, c)
		if score >= threshold && score > bestScore {
			best = i
			bestScore = score
		}
	}
	return best, bestScore
}
