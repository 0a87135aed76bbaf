package errors

import (
	"errors"
	"fmt"
	"strings"
)

// LexError reports malformed token syntax: an unterminated block,
// interpolation, or expression, or no recognizable token at the current
// position. Position is a byte offset into the template string.
type LexError struct {
	Message  string
	Position int

	// StateStack describes the lexer state stack (bottom first) at the time
	// of the error, for diagnostics.
	StateStack []string
}

func (e *LexError) Error() string {
	if len(e.StateStack) > 0 {
		return fmt.Sprintf("lex error at offset %d: %s (state stack: %s)",
			e.Position, e.Message, strings.Join(e.StateStack, " > "))
	}
	return fmt.Sprintf("lex error at offset %d: %s", e.Position, e.Message)
}

// NewLexError creates a lex error at the given byte offset.
func NewLexError(message string, position int) *LexError {
	return &LexError{Message: message, Position: position}
}

// ParseError reports a token sequence that does not match the template
// grammar. TokenIndex is the index of the offending token, or the token
// count when input ended while a construct was still open.
type ParseError struct {
	Message    string
	TokenIndex int
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at token %d: %s", e.TokenIndex, e.Message)
}

// NewParseError creates a parse error at the given token index.
func NewParseError(message string, tokenIndex int) *ParseError {
	return &ParseError{Message: message, TokenIndex: tokenIndex}
}

// EvalError reports an expression that failed to evaluate against the
// supplied bindings: an unknown identifier, a type mismatch in an operator,
// or an unsupported construct.
type EvalError struct {
	Message    string
	Expression string
}

func (e *EvalError) Error() string {
	return fmt.Sprintf("eval error in %q: %s", e.Expression, e.Message)
}

// NewEvalError creates an eval error for the given expression text.
func NewEvalError(message, expression string) *EvalError {
	return &EvalError{Message: message, Expression: expression}
}

// IsLexError reports whether err is or wraps a LexError.
func IsLexError(err error) bool {
	var target *LexError
	return errors.As(err, &target)
}

// IsParseError reports whether err is or wraps a ParseError.
func IsParseError(err error) bool {
	var target *ParseError
	return errors.As(err, &target)
}

// IsEvalError reports whether err is or wraps an EvalError.
func IsEvalError(err error) bool {
	var target *EvalError
	return errors.As(err, &target)
}
