package cache

import (
	"strconv"
	"strings"
)

// parseCacheControl extracts max-age (or -1 when absent) and whether the
// response forbids storing it. no-cache and private are ignored: Laravel
// sends "no-cache, private" by default and this cache is private to the site.
func parseCacheControl(value string) (maxAge int, noStore bool) {
	maxAge = -1
	for _, directive := range strings.Split(value, ",") {
		directive = strings.ToLower(strings.TrimSpace(directive))
		switch {
		case directive == "no-store":
			noStore = true
		case strings.HasPrefix(directive, "max-age="):
			if n, err := strconv.Atoi(strings.TrimPrefix(directive, "max-age=")); err == nil && n >= 0 {
				maxAge = n
			}
		}
	}
	return maxAge, noStore
}
