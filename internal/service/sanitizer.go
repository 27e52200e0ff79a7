package service

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// TextSanitizer strips markup from user-supplied recipe names and bodies.
type TextSanitizer interface {
	Sanitize(raw string) string
}

type plainTextSanitizer struct {
	policy *bluemonday.Policy
}

// NewTextSanitizer removes every HTML element and keeps the text content.
func NewTextSanitizer() TextSanitizer {
	return &plainTextSanitizer{policy: bluemonday.StrictPolicy()}
}

// Sanitize strips tags, then undoes the entity escaping bluemonday applies,
// since the result is stored as plain text rather than HTML.
func (s *plainTextSanitizer) Sanitize(raw string) string {
	return strings.TrimSpace(html.UnescapeString(s.policy.Sanitize(raw)))
}
