package template

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScanner_Scan(t *testing.T) {
	s := NewScanner("hello world")
	word := regexp.MustCompile(`[a-z]+`)
	space := regexp.MustCompile(`\s+`)

	assert.True(t, s.Scan(word))
	assert.Equal(t, "hello", s.Match())
	assert.Equal(t, 0, s.MatchStart())
	assert.Equal(t, 5, s.MatchEnd())

	// Pattern not anchored at the cursor fails and leaves it unchanged.
	assert.False(t, s.Scan(word))
	assert.Equal(t, 5, s.Pos())

	assert.True(t, s.Scan(space))
	assert.True(t, s.Scan(word))
	assert.Equal(t, "world", s.Match())
	assert.True(t, s.IsEmpty())
}

func TestScanner_ScanMidInputOnlyMatchesAtCursor(t *testing.T) {
	s := NewScanner("abc123")
	digits := regexp.MustCompile(`[0-9]+`)

	// Digits exist later in the input but not at the cursor.
	assert.False(t, s.Scan(digits))
	assert.Equal(t, 0, s.Pos())
}

func TestScanner_ScanUntil(t *testing.T) {
	s := NewScanner("some text {{ name }}")
	open := regexp.MustCompile(`\{\{`)

	assert.True(t, s.ScanUntil(open))
	assert.Equal(t, "some text ", s.Match())
	assert.Equal(t, 10, s.Pos())

	// Delimiter at the cursor: the run would be empty, so it fails.
	assert.False(t, s.ScanUntil(open))
	assert.Equal(t, 10, s.Pos())
}

func TestScanner_ScanUntilConsumesRemainderWhenPatternAbsent(t *testing.T) {
	s := NewScanner("plain text only")
	open := regexp.MustCompile(`\{\{`)

	assert.True(t, s.ScanUntil(open))
	assert.Equal(t, "plain text only", s.Match())
	assert.True(t, s.IsEmpty())
}

func TestScanner_ScanUntilOnEmptyInput(t *testing.T) {
	s := NewScanner("")
	assert.True(t, s.IsEmpty())
	assert.False(t, s.ScanUntil(regexp.MustCompile(`x`)))
}

func TestScanner_Peek(t *testing.T) {
	s := NewScanner(")")
	closeParen := regexp.MustCompile(`\s*\)`)

	assert.True(t, s.Peek(closeParen))
	// Peek never consumes.
	assert.Equal(t, 0, s.Pos())
	assert.True(t, s.Peek(closeParen))
}
