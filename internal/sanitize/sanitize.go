// Package sanitize validates and normalizes untrusted identifiers before
// they reach any query layer.
package sanitize

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

var (
	ErrInvalidType       = errors.New("identifier is not a string")
	ErrEmpty             = errors.New("identifier is empty")
	ErrTooLong           = errors.New("identifier exceeds maximum length")
	ErrSecurityViolation = errors.New("identifier contains a forbidden pattern")
)

// Identifier length caps. Query identifiers travel to the storage layer,
// QR payload identifiers are embedded in scannable codes.
const (
	MaxQueryIDLen     = 255
	MaxQRPayloadIDLen = 100
)

// Patterns is the injection-signature configuration for a Sanitizer.
// Instances are treated as immutable once constructed.
type Patterns struct {
	SQL    []*regexp.Regexp
	Markup []*regexp.Regexp
}

// DefaultPatterns returns the stock signature set. Matching requires
// syntactic context (keyword pairs, statement punctuation); bare keyword
// substrings such as "drop-zone-event" must not match.
func DefaultPatterns() Patterns {
	return defaultPatterns
}

var defaultPatterns = Patterns{
	SQL: []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b(drop|truncate|alter)\s+(table|database|index)\b`),
		regexp.MustCompile(`(?i)\bdelete\s+from\b`),
		regexp.MustCompile(`(?i)\binsert\s+into\b`),
		regexp.MustCompile(`(?i)\bunion\s+(all\s+)?select\b`),
		regexp.MustCompile(`(?i)\bor\s+1\s*=\s*1\b`),
		regexp.MustCompile(`(?i)'\s*or\s*'`),
		regexp.MustCompile(`(?i)(;|')\s*(--|#)`),
		regexp.MustCompile(`;\s*--`),
		regexp.MustCompile(`/\*.*\*/`),
		regexp.MustCompile(`(?i)\bexec(ute)?\s*\(`),
	},
	Markup: []*regexp.Regexp{
		regexp.MustCompile(`(?i)<\s*script`),
		regexp.MustCompile(`(?i)<\s*(iframe|embed|object)`),
		regexp.MustCompile(`(?i)javascript\s*:`),
		regexp.MustCompile(`(?i)\bon(click|load|error|mouseover|focus)\s*=`),
		regexp.MustCompile(`(?i)\beval\s*\(`),
	},
}

// Sanitizer screens identifiers against an injected pattern set and
// neutralizes a fixed disallowed-character set on accepted values. All
// methods are pure and safe for concurrent use.
type Sanitizer struct {
	patterns Patterns
}

// New builds a Sanitizer around the given pattern set.
func New(patterns Patterns) *Sanitizer {
	return &Sanitizer{patterns: patterns}
}

// EventID sanitizes an identifier destined for storage queries.
func (s *Sanitizer) EventID(raw string) (string, error) {
	return s.sanitize(raw, MaxQueryIDLen)
}

// ViewerID sanitizes a viewer identifier.
func (s *Sanitizer) ViewerID(raw string) (string, error) {
	return s.sanitize(raw, MaxQueryIDLen)
}

// QRPayloadID sanitizes an identifier embedded in a QR payload, which
// carries a tighter length cap.
func (s *Sanitizer) QRPayloadID(raw string) (string, error) {
	return s.sanitize(raw, MaxQRPayloadIDLen)
}

// Value sanitizes a decoded JSON value that is expected to hold an
// identifier string. Non-string values are rejected rather than coerced.
func (s *Sanitizer) Value(v any) (string, error) {
	if v == nil {
		return "", fmt.Errorf("%w: got null", ErrInvalidType)
	}
	raw, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%w: got %T", ErrInvalidType, v)
	}
	return s.sanitize(raw, MaxQueryIDLen)
}

func (s *Sanitizer) sanitize(raw string, maxLen int) (string, error) {
	if strings.TrimSpace(raw) == "" {
		return "", ErrEmpty
	}

	// Length is enforced before any pattern matching so oversized input is
	// rejected in bounded time regardless of content. The byte-length
	// pre-check keeps the rune count itself cheap.
	if len(raw) > maxLen*utf8.UTFMax || utf8.RuneCountInString(raw) > maxLen {
		return "", fmt.Errorf("%w: limit %d", ErrTooLong, maxLen)
	}

	// Canonicalize composed/decomposed forms so visually identical
	// identifiers compare equal downstream.
	id := norm.NFC.String(raw)

	for _, re := range s.patterns.SQL {
		if re.MatchString(id) {
			return "", fmt.Errorf("%w: sql signature", ErrSecurityViolation)
		}
	}
	for _, re := range s.patterns.Markup {
		if re.MatchString(id) {
			return "", fmt.Errorf("%w: markup signature", ErrSecurityViolation)
		}
	}

	// Screening rejects, cleaning neutralizes. Both run even though the
	// screen passed.
	return clean(id), nil
}

// clean strips the fixed disallowed-character set and SQL comment markers,
// then trims surrounding whitespace. Non-Latin scripts and emoji pass
// through untouched.
func clean(id string) string {
	for _, marker := range []string{"--", "/*", "*/"} {
		id = strings.ReplaceAll(id, marker, "")
	}
	id = strings.Map(func(r rune) rune {
		switch r {
		case '<', '>', '\'', '"', '&', ';':
			return -1
		}
		return r
	}, id)
	return strings.TrimSpace(id)
}
