package template

import "regexp"

// Scanner is a cursor over an immutable input string exposing regex-anchored
// scan primitives. It has no knowledge of template semantics; the lexer
// drives it with the patterns of whichever state is active.
//
// All patterns are matched against the remaining input only. Scan and Peek
// require the match to begin exactly at the cursor; ScanUntil consumes up to
// (not through) the next occurrence of the pattern.
type Scanner struct {
	input string
	pos   int

	// Latest successful match.
	matchStart int
	matchEnd   int
	matchText  string
}

// NewScanner creates a scanner positioned at the start of input.
func NewScanner(input string) *Scanner {
	return &Scanner{input: input}
}

// IsEmpty reports whether the cursor has reached the end of input.
func (s *Scanner) IsEmpty() bool {
	return s.pos >= len(s.input)
}

// Pos returns the current cursor position as a byte offset.
func (s *Scanner) Pos() int {
	return s.pos
}

// Match returns the text of the latest successful match.
func (s *Scanner) Match() string {
	return s.matchText
}

// MatchStart returns the byte offset where the latest match began.
func (s *Scanner) MatchStart() int {
	return s.matchStart
}

// MatchEnd returns the byte offset just past the latest match.
func (s *Scanner) MatchEnd() int {
	return s.matchEnd
}

// Scan attempts to match pattern anchored at the cursor. On success the
// cursor advances past the match, the match is recorded, and true is
// returned. On failure the cursor is unchanged.
func (s *Scanner) Scan(pattern *regexp.Regexp) bool {
	loc := pattern.FindStringIndex(s.input[s.pos:])
	if loc == nil || loc[0] != 0 {
		return false
	}

	s.record(s.pos, s.pos+loc[1])
	return true
}

// Peek reports whether pattern matches anchored at the cursor without
// consuming anything. The latest match is not updated.
func (s *Scanner) Peek(pattern *regexp.Regexp) bool {
	loc := pattern.FindStringIndex(s.input[s.pos:])
	return loc != nil && loc[0] == 0
}

// ScanUntil consumes the run of text from the cursor up to the next
// occurrence of pattern, or the remainder of the input when the pattern
// never occurs again. It fails (cursor unchanged) when the run would be
// empty: either the pattern matches at the cursor itself, or no input
// remains.
func (s *Scanner) ScanUntil(pattern *regexp.Regexp) bool {
	if s.IsEmpty() {
		return false
	}

	loc := pattern.FindStringIndex(s.input[s.pos:])
	if loc == nil {
		s.record(s.pos, len(s.input))
		return true
	}
	if loc[0] == 0 {
		return false
	}

	s.record(s.pos, s.pos+loc[0])
	return true
}

func (s *Scanner) record(start, end int) {
	s.matchStart = start
	s.matchEnd = end
	s.matchText = s.input[start:end]
	s.pos = end
}
