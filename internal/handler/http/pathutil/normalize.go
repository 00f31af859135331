// Package pathutil maps request paths to low-cardinality metric labels.
package pathutil

import (
	"regexp"
	"strings"
)

// Unmatched is the label for any path that is not a known route.
const Unmatched = "/:unmatched"

// PathPattern maps paths matching Pattern to Template.
type PathPattern struct {
	Pattern  *regexp.Regexp
	Template string
}

var staticPaths = map[string]bool{
	"/":          true,
	"/health":    true,
	"/metrics":   true,
	"/api/feeds": true,
}

var pathPatterns = []*PathPattern{
	{Pattern: regexp.MustCompile(`^/api/feeds/[^/]+$`), Template: "/api/feeds/:name"},
}

// NormalizePath returns the route template for path. Query strings and a
// trailing slash are ignored. Paths that match no route collapse into
// Unmatched, so scanners probing random URLs cannot inflate label sets.
//
//	NormalizePath("/api/feeds/news")     // "/api/feeds/:name"
//	NormalizePath("/api/feeds/?x=1")     // "/api/feeds"
//	NormalizePath("/wp-admin/login.php") // "/:unmatched"
func NormalizePath(path string) string {
	if idx := strings.IndexByte(path, '?'); idx != -1 {
		path = path[:idx]
	}
	if len(path) > 1 && path[len(path)-1] == '/' {
		path = path[:len(path)-1]
	}

	if staticPaths[path] {
		return path
	}
	for _, p := range pathPatterns {
		if p.Pattern.MatchString(path) {
			return p.Template
		}
	}
	return Unmatched
}

// GetExpectedCardinality returns the number of distinct labels NormalizePath
// can produce.
func GetExpectedCardinality() int {
	return len(staticPaths) + len(pathPatterns) + 1
}
