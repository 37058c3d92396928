// Package placeholder fills {{key}} tokens in email and badge templates.
package placeholder

import (
	"regexp"
	"strings"
)

var token = regexp.MustCompile(`\{\{\s*([A-Za-z0-9_.\-]+)\s*\}\}`)

// Replace substitutes every {{key}} whose key is in values. Unknown tokens
// are left as they are.
func Replace(s string, values map[string]string) string {
	if !strings.Contains(s, "{{") {
		return s
	}
	return token.ReplaceAllStringFunc(s, func(m string) string {
		key := token.FindStringSubmatch(m)[1]
		if v, ok := values[key]; ok {
			return v
		}
		return m
	})
}

// Keys lists the distinct keys referenced by s, in order of appearance.
func Keys(s string) []string {
	var keys []string
	seen := map[string]bool{}
	for _, m := range token.FindAllStringSubmatch(s, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			keys = append(keys, m[1])
		}
	}
	return keys
}
