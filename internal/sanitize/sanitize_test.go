package sanitize

import (
	"errors"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDefault() *Sanitizer {
	return New(DefaultPatterns())
}

func TestEventIDRejectsInjectionPayloads(t *testing.T) {
	payloads := []string{
		"DROP TABLE posts;",
		"drop table events",
		"'; DROP TABLE events; --",
		"' OR 1=1 --",
		"' OR '1'='1",
		"1 UNION SELECT * FROM users",
		"UNION SELECT password FROM accounts",
		"DELETE FROM events",
		"INSERT INTO events VALUES ('x')",
		"<script>alert(1)</script>",
		"<SCRIPT SRC=http://evil.example/x.js>",
		"javascript:alert(document.cookie)",
		"<img src=x onerror=alert(1)>",
		"<iframe src='http://evil.example'>",
		"<object data='x'>",
		"eval(atob('payload'))",
		"abc/*comment*/def'--",
	}

	s := newDefault()
	for _, payload := range payloads {
		_, err := s.EventID(payload)
		assert.ErrorIs(t, err, ErrSecurityViolation, "payload %q should be rejected", payload)
	}
}

func TestEventIDAcceptsBenignLookalikes(t *testing.T) {
	ids := []string{
		"drop-zone-event",
		"union-conference",
		"delete-me-later",
		"selection-day",
		"insert-coin-arcade-night",
		"tablescape-workshop",
		"executive-offsite",
	}

	s := newDefault()
	for _, id := range ids {
		got, err := s.EventID(id)
		require.NoError(t, err, "id %q should pass", id)
		assert.Equal(t, id, got)
	}
}

func TestEventIDAcceptsUnicode(t *testing.T) {
	ids := []string{
		"summer-party-🎉📸",
		"حفلة-الصيف",
		"מסיבת-קיץ",
		"夏のパーティー",
		"夏日派对2025",
		"летняя-вечеринка",
	}

	s := newDefault()
	for _, id := range ids {
		got, err := s.EventID(id)
		require.NoError(t, err, "id %q should pass", id)
		assert.Equal(t, id, got)
	}
}

func TestEventIDNormalizesUnicodeForms(t *testing.T) {
	s := newDefault()

	// "é" composed vs. e + combining acute: both must sanitize to the
	// same canonical identifier.
	composed, err := s.EventID("café-night")
	require.NoError(t, err)
	decomposed, err := s.EventID("café-night")
	require.NoError(t, err)
	assert.Equal(t, composed, decomposed)
}

func TestEventIDLengthBoundary(t *testing.T) {
	s := newDefault()

	exact, err := s.EventID(strings.Repeat("a", 255))
	require.NoError(t, err)
	assert.Len(t, exact, 255)

	_, err = s.EventID(strings.Repeat("a", 256))
	assert.ErrorIs(t, err, ErrTooLong)
}

func TestEventIDLengthCountsRunes(t *testing.T) {
	s := newDefault()

	// 255 multi-byte runes are within the character cap even though the
	// byte length exceeds it.
	id, err := s.EventID(strings.Repeat("日", 255))
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat("日", 255), id)

	_, err = s.EventID(strings.Repeat("日", 256))
	assert.ErrorIs(t, err, ErrTooLong)
}

func TestQRPayloadIDTighterLimit(t *testing.T) {
	s := newDefault()

	_, err := s.QRPayloadID(strings.Repeat("a", 100))
	require.NoError(t, err)

	_, err = s.QRPayloadID(strings.Repeat("a", 101))
	assert.ErrorIs(t, err, ErrTooLong)
}

func TestEventIDRejectsEmpty(t *testing.T) {
	s := newDefault()
	for _, raw := range []string{"", "   ", "\t\n"} {
		_, err := s.EventID(raw)
		assert.ErrorIs(t, err, ErrEmpty)
	}
}

func TestValueRejectsNonStrings(t *testing.T) {
	s := newDefault()

	_, err := s.Value(nil)
	assert.ErrorIs(t, err, ErrInvalidType)

	_, err = s.Value(42.0)
	assert.ErrorIs(t, err, ErrInvalidType)

	_, err = s.Value([]any{"x"})
	assert.ErrorIs(t, err, ErrInvalidType)

	got, err := s.Value("viewer-7")
	require.NoError(t, err)
	assert.Equal(t, "viewer-7", got)
}

func TestCleaningStripsDisallowedCharacters(t *testing.T) {
	s := newDefault()

	got, err := s.EventID(`  ev"ent&42  `)
	require.NoError(t, err)
	assert.Equal(t, "event42", got)
}

func TestAlternatePatternSetIsHonored(t *testing.T) {
	// The pattern lists are injected configuration, so a sanitizer built
	// with an alternate set enforces that set and nothing else.
	s := New(Patterns{
		SQL: []*regexp.Regexp{regexp.MustCompile(`(?i)\bforbidden\b`)},
	})

	_, err := s.EventID("a-forbidden-word")
	assert.ErrorIs(t, err, ErrSecurityViolation)

	got, err := s.EventID("DROP TABLE posts")
	require.NoError(t, err)
	assert.Equal(t, "DROP TABLE posts", got)
}

func TestSanitizerRejectionsAreErrorsIsMatchable(t *testing.T) {
	s := newDefault()
	_, err := s.EventID(strings.Repeat("x", 300))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTooLong))
	assert.Contains(t, err.Error(), "255")
}
