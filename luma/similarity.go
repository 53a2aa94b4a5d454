package luma

import "strings"

// Similarity scores how alike two strings are using Dice's coefficient over
// bigrams, case-insensitive. The result is in [0, 1]: 1 for identical
// strings, 0 when either input is shorter than a bigram.
func Similarity(a, b string) float64 {
	return SimilarityN(a, b, 2, false)
}

// SimilarityN is Similarity with an explicit substring length and case
// sensitivity. Repeated substrings are consumed: each occurrence in a can
// match at most one occurrence in b, so scores on strings with repeated
// substrings stay exact rather than inflating.
func SimilarityN(a, b string, n int, caseSensitive bool) float64 {
	if !caseSensitive {
		a = strings.ToLower(a)
		b = strings.ToLower(b)
	}

	ra := []rune(a)
	rb := []rune(b)
	if len(ra) < n || len(rb) < n {
		return 0
	}

	grams := make(map[string]int, len(ra))
	for i := 0; i+n <= len(ra); i++ {
		grams[string(ra[i:i+n])]++
	}

	matches := 0
	for i := 0; i+n <= len(rb); i++ {
		g := string(rb[i : i+n])
		if grams[g] > 0 {
			grams[g]--
			matches++
		}
	}

	return float64(2*matches) / float64(len(ra)+len(rb)-2*(n-1))
}
