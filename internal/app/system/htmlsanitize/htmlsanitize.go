// Package htmlsanitize strips markup from user-supplied text such as group
// names and goal descriptions. It uses bluemonday's strict policy, which
// removes every tag and keeps only the text content.
package htmlsanitize

import (
	"html"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	// policy is the shared bluemonday policy for stripping markup.
	policy     *bluemonday.Policy
	policyOnce sync.Once
)

// getPolicy returns the shared policy, creating it on first use.
func getPolicy() *bluemonday.Policy {
	policyOnce.Do(func() {
		policy = bluemonday.StrictPolicy()
	})
	return policy
}

// PlainText removes all HTML from s and trims surrounding whitespace.
// Entities escaped by the policy are decoded again, since the result is
// returned as JSON rather than rendered as HTML.
func PlainText(s string) string {
	if s == "" {
		return ""
	}
	return strings.TrimSpace(html.UnescapeString(getPolicy().Sanitize(s)))
}

// IsPlainText reports whether s contains no markup.
func IsPlainText(s string) bool {
	if s == "" {
		return true
	}
	// Valid tags need both characters.
	return !strings.Contains(s, "<") || !strings.Contains(s, ">")
}
