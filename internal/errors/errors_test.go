package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLexError_Format(t *testing.T) {
	err := NewLexError("no token matched", 17)
	assert.Equal(t, "lex error at offset 17: no token matched", err.Error())

	err.StateStack = []string{"default", "in-statement-block"}
	assert.Equal(t,
		"lex error at offset 17: no token matched (state stack: default > in-statement-block)",
		err.Error())
}

func TestParseError_Format(t *testing.T) {
	err := NewParseError("@else must directly follow a conditional", 4)
	assert.Equal(t, "parse error at token 4: @else must directly follow a conditional", err.Error())
}

func TestEvalError_Format(t *testing.T) {
	err := NewEvalError("unknown identifier \"cpu\"", "cpu.usage > 90")
	assert.Equal(t, `eval error in "cpu.usage > 90": unknown identifier "cpu"`, err.Error())
}

func TestErrorPredicates(t *testing.T) {
	lex := NewLexError("bad", 0)
	parse := NewParseError("bad", 0)
	eval := NewEvalError("bad", "x")

	assert.True(t, IsLexError(lex))
	assert.False(t, IsLexError(parse))
	assert.True(t, IsParseError(parse))
	assert.False(t, IsParseError(eval))
	assert.True(t, IsEvalError(eval))
	assert.False(t, IsEvalError(lex))

	wrapped := fmt.Errorf("compiling widget: %w", lex)
	assert.True(t, IsLexError(wrapped))
}

func TestLumenError_FormatAndUnwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewProviderError("weather", "refresh failed", cause)

	assert.Equal(t, "[weather] refresh failed: connection refused", err.Error())
	require.ErrorIs(t, err, cause)

	err.WithWidget("statusbar")
	assert.Equal(t, "[weather] widget:statusbar refresh failed: connection refused", err.Error())
}

func TestLumenError_Is(t *testing.T) {
	a := NewProviderError("cpu", "refresh failed", nil)
	b := NewProviderError("cpu", "something else", nil)
	c := NewProviderError("memory", "refresh failed", nil)

	assert.True(t, errors.Is(a, b))
	assert.False(t, errors.Is(a, c))
}

func TestLumenError_WithContext(t *testing.T) {
	err := NewConfigError("server.port", "port out of range").WithContext("port", 99999)
	assert.Equal(t, 99999, err.Context["port"])
}
