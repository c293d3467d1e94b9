package utils

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	bodyPolicy = bluemonday.UGCPolicy()
	textPolicy = bluemonday.StrictPolicy()
)

// Sanitize cleans user-authored HTML bodies, keeping a safe formatting subset.
func Sanitize(input string) string {
	return strings.TrimSpace(bodyPolicy.Sanitize(input))
}

// SanitizeText strips all markup, for single-line fields such as titles and subjects.
func SanitizeText(input string) string {
	return strings.TrimSpace(textPolicy.Sanitize(input))
}
