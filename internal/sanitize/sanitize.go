// Package sanitize cleans user-submitted text before it is persisted.
// Diary content, event memos, and keywords are plain text in sheepdiary --
// there is no rich-text editor -- so the policy strips all HTML rather
// than allowlisting safe tags. Uses bluemonday so encoded and malformed
// markup is handled correctly instead of with fragile regexps.
package sanitize

import (
	"html"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

// policy is the singleton bluemonday policy for stripping HTML.
// Initialized once via sync.Once for thread-safe lazy initialization.
var (
	policy     *bluemonday.Policy
	policyOnce sync.Once
)

// getPolicy returns the shared strip policy, initializing it on first call.
func getPolicy() *bluemonday.Policy {
	policyOnce.Do(func() {
		policy = bluemonday.StrictPolicy()
	})
	return policy
}

// Text strips all HTML from user-submitted text and trims surrounding
// whitespace. bluemonday entity-escapes characters like & and < on output;
// unescape them so stored text stays plain ("fish & chips", not
// "fish &amp; chips").
func Text(s string) string {
	cleaned := getPolicy().Sanitize(s)
	return strings.TrimSpace(html.UnescapeString(cleaned))
}

// Keywords sanitizes each keyword in a list and drops entries that become
// empty after cleaning. The relative order of surviving entries is preserved.
func Keywords(in []string) []string {
	out := make([]string, 0, len(in))
	for _, kw := range in {
		if cleaned := Text(kw); cleaned != "" {
			out = append(out, cleaned)
		}
	}
	return out
}
