// Package prompt prepares user prompts for the video generation API.
package prompt

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const maxPromptLen = 2000

// Normalize trims and collapses whitespace and caps the prompt length so a
// pasted wall of text cannot blow up the request payload.
func Normalize(raw string) string {
	fields := strings.Fields(raw)
	normalized := strings.Join(fields, " ")
	if len(normalized) > maxPromptLen {
		normalized = normalized[:maxPromptLen]
	}
	return normalized
}

// WithStyleHints appends title-cased style descriptors to the prompt.
// Empty hints are dropped.
func WithStyleHints(prompt string, hints []string) string {
	titler := cases.Title(language.English)
	var parts []string
	for _, hint := range hints {
		if trimmed := strings.TrimSpace(hint); trimmed != "" {
			parts = append(parts, titler.String(trimmed))
		}
	}
	if len(parts) == 0 {
		return prompt
	}
	if prompt == "" {
		return strings.Join(parts, ", ")
	}
	return prompt + ". Style: " + strings.Join(parts, ", ")
}
