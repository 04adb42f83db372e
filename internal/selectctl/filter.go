// Package selectctl implements a searchable single-select control: a
// caller-provided option list with live substring filtering, required-field
// validation and touch tracking.
package selectctl

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// lower is not safe for concurrent use, so each call builds its own caser.
func lower(s string) string {
	return cases.Lower(language.Und).String(s)
}

// Filter returns the options whose lowercased text contains the lowercased
// term, preserving order. An empty term matches every option.
func Filter(options []string, term string) []string {
	out := make([]string, 0, len(options))
	if term == "" {
		return append(out, options...)
	}
	needle := lower(term)
	for _, opt := range options {
		if strings.Contains(lower(opt), needle) {
			out = append(out, opt)
		}
	}
	return out
}
