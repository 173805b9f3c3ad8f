// Package utils provides query sanitization shared by the search entry
// points. Sanitization handles encoding-level attack vectors; query syntax
// policing belongs to the compiler, which knows which characters each mode
// accepts.
package utils

import (
	"context"
	"net/url"
	"strings"
)

// SecurityConfig holds the sanitization policy.
type SecurityConfig struct {
	// MaxQueryLength bounds the raw query before any processing.
	MaxQueryLength int

	// StripHTMLTags enables removal of HTML tags from queries.
	StripHTMLTags bool

	// NormalizeWhitespace collapses tabs, newlines, and runs of spaces.
	NormalizeWhitespace bool
}

const DefaultMaxQueryLength = 1000

func DefaultSecurityConfig() *SecurityConfig {
	return &SecurityConfig{
		MaxQueryLength:      DefaultMaxQueryLength,
		StripHTMLTags:       true,
		NormalizeWhitespace: true,
	}
}

// QuerySanitizer normalizes raw user queries before compilation. It removes
// encoded and invisible content that could smuggle markup or confuse term
// splitting, without touching the query operators the advanced mode needs.
type QuerySanitizer struct {
	config *SecurityConfig
}

func NewQuerySanitizer(config *SecurityConfig) *QuerySanitizer {
	if config == nil {
		config = DefaultSecurityConfig()
	}
	return &QuerySanitizer{config: config}
}

// ValidateQuery rejects queries that must not reach sanitization at all:
// over-long input and strings carrying null bytes or control characters.
func (s *QuerySanitizer) ValidateQuery(ctx context.Context, query string) error {
	if len(query) > s.config.MaxQueryLength {
		return &SecurityError{
			Type:    "query_too_long",
			Message: "query exceeds maximum length",
		}
	}

	for _, r := range query {
		if r == 0 || (r < 32 && r != '\t' && r != '\n' && r != '\r') {
			return &SecurityError{
				Type:    "dangerous_character",
				Message: "query contains null byte or control character",
			}
		}
	}

	return nil
}

// SanitizeQuery URL-decodes the query, strips zero-width characters, HTML
// tags, and script protocols, then normalizes whitespace. The result may be
// empty; callers treat that as a match-all query.
func (s *QuerySanitizer) SanitizeQuery(ctx context.Context, query string) (string, error) {
	if query == "" {
		return "", nil
	}

	if decoded, err := url.QueryUnescape(query); err == nil {
		query = decoded
	}

	query = removeZeroWidthChars(query)

	if s.config.StripHTMLTags {
		query = stripHTMLTags(query)
	}

	query = removeScriptContent(query)

	if s.config.NormalizeWhitespace {
		query = normalizeWhitespace(query)
	}

	return query, nil
}

func stripHTMLTags(input string) string {
	// Script tags go first, content included.
	for {
		start := strings.Index(strings.ToLower(input), "<script")
		if start == -1 {
			break
		}
		end := strings.Index(strings.ToLower(input[start:]), "</script>")
		if end == -1 {
			input = input[:start]
			break
		}
		end += start + len("</script>")
		input = input[:start] + input[end:]
	}

	for {
		start := strings.Index(input, "<")
		if start == -1 {
			break
		}
		end := strings.Index(input[start:], ">")
		if end == -1 {
			input = input[:start]
			break
		}
		end += start + 1
		input = input[:start] + input[end:]
	}

	return input
}

// removeScriptContent strips script protocols and inline event handlers
// case-insensitively. The rest of the query keeps its case: the advanced
// mode's boolean operators are uppercase-sensitive.
func removeScriptContent(input string) string {
	patterns := []string{
		"javascript:",
		"data:",
		"vbscript:",
		"onload=",
		"onerror=",
		"onclick=",
		"onmouseover=",
	}

	for _, pattern := range patterns {
		input = removeInsensitive(input, pattern)
	}
	return input
}

// removeInsensitive deletes every case-insensitive occurrence of pattern
// (itself lowercase) from input without changing the case of what remains.
func removeInsensitive(input, pattern string) string {
	for {
		idx := strings.Index(strings.ToLower(input), pattern)
		if idx == -1 {
			return input
		}
		input = input[:idx] + input[idx+len(pattern):]
	}
}

func normalizeWhitespace(input string) string {
	return strings.Join(strings.Fields(input), " ")
}

func removeZeroWidthChars(input string) string {
	zeroWidthChars := []rune{
		'\u200B', // zero width space
		'\u200C', // zero width non-joiner
		'\u200D', // zero width joiner
		'\uFEFF', // BOM
		'\u200E', // left-to-right mark
		'\u200F', // right-to-left mark
	}

	for _, char := range zeroWidthChars {
		input = strings.ReplaceAll(input, string(char), "")
	}

	return input
}

// SecurityError reports a rejected query.
type SecurityError struct {
	Type    string
	Message string
}

func (e *SecurityError) Error() string {
	return e.Message
}
