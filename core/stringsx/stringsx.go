// Package stringsx holds small string helpers used for method-name conventions.
package stringsx

import "strings"

// HasPrefix checks if the given string s has any prefix from the provided list of prefixes.
func HasPrefix(s string, prefixes ...string) bool {
	_, _, ok := CutPrefix(s, prefixes...)
	return ok
}

// CutPrefix removes the first non-empty prefix from prefixes that s starts
// with. It returns the remainder, the prefix that matched and true, or s
// unchanged and false when nothing matched.
func CutPrefix(s string, prefixes ...string) (rest, prefix string, ok bool) {
	for _, p := range prefixes {
		if p == "" {
			continue
		}
		if after, found := strings.CutPrefix(s, p); found {
			return after, p, true
		}
	}
	return s, "", false
}
