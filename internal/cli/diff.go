package cli

import "unicode/utf8"

// diffRange returns the single edit turning old into updated: replace the
// byte range [start, end) of old with with. The range is the span between
// the longest common prefix and suffix, widened to rune boundaries.
func diffRange(old, updated string) (start, end int, with string) {
	n := min(len(old), len(updated))

	prefix := 0
	for prefix < n && old[prefix] == updated[prefix] {
		prefix++
	}
	for prefix > 0 && !(runeBoundary(old, prefix) && runeBoundary(updated, prefix)) {
		prefix--
	}

	suffix := 0
	for suffix < n-prefix && old[len(old)-1-suffix] == updated[len(updated)-1-suffix] {
		suffix++
	}
	for suffix > 0 && !(runeBoundary(old, len(old)-suffix) && runeBoundary(updated, len(updated)-suffix)) {
		suffix--
	}

	return prefix, len(old) - suffix, updated[prefix : len(updated)-suffix]
}

func runeBoundary(s string, i int) bool {
	return i == len(s) || utf8.RuneStart(s[i])
}
