//go:build property
// +build property

package template

import (
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// TestLexerProperties tests invariant properties of the template lexer
func TestLexerProperties(t *testing.T) {
	properties := gopter.NewProperties(nil)

	// Property 1: Tokenizing the same input twice yields identical tokens
	properties.Property("lexer determinism", prop.ForAll(
		func(input string) bool {
			first, err1 := Tokenize(input)
			second, err2 := Tokenize(input)

			if (err1 == nil) != (err2 == nil) {
				return false
			}
			if err1 != nil {
				return err1.Error() == err2.Error()
			}

			if len(first) != len(second) {
				return false
			}
			for i := range first {
				if first[i] != second[i] {
					return false
				}
			}
			return true
		},
		gen.AnyString(),
	))

	// Property 2: Every token's substring matches the input span it claims
	properties.Property("token spans match input", prop.ForAll(
		func(input string) bool {
			tokens, err := Tokenize(input)
			if err != nil {
				return true // Malformed input is covered by the error tests
			}

			for _, tok := range tokens {
				if tok.StartIndex < 0 || tok.EndIndex > len(input) || tok.StartIndex > tok.EndIndex {
					return false
				}
				if input[tok.StartIndex:tok.EndIndex] != tok.Substring {
					return false
				}
			}
			return true
		},
		gen.AnyString(),
	))

	// Property 3: Token spans never go backwards
	properties.Property("token order is monotonic", prop.ForAll(
		func(input string) bool {
			tokens, err := Tokenize(input)
			if err != nil {
				return true
			}

			last := 0
			for _, tok := range tokens {
				if tok.StartIndex < last {
					return false
				}
				last = tok.StartIndex
			}
			return true
		},
		gen.AnyString(),
	))

	// Property 4: Delimiter-free text round-trips as a single TEXT token
	properties.Property("plain text is lossless", prop.ForAll(
		func(input string) bool {
			if input == "" || strings.ContainsAny(input, "@{}") {
				return true // Only delimiter-free text round-trips unchanged
			}

			tokens, err := Tokenize(input)
			if err != nil {
				return false
			}
			return len(tokens) == 1 &&
				tokens[0].Type == TokenText &&
				tokens[0].Substring == input
		},
		gen.AnyString(),
	))

	// Property 5: Tokenize never panics, whatever the input
	properties.Property("lexer totality", prop.ForAll(
		func(input string) bool {
			defer func() {
				if r := recover(); r != nil {
					t.Errorf("Tokenize panicked on %q: %v", input, r)
				}
			}()
			_, _ = Tokenize(input)
			return true
		},
		gen.AnyString(),
	))

	properties.TestingRun(t)
}

// TestCompileProperties tests invariant properties of the full compile pipeline
func TestCompileProperties(t *testing.T) {
	properties := gopter.NewProperties(nil)

	// Compiling is deterministic and total: any input either compiles or
	// fails with an error, never panics, and does so consistently.
	properties.Property("compile totality and determinism", prop.ForAll(
		func(input string) bool {
			defer func() {
				if r := recover(); r != nil {
					t.Errorf("Compile panicked on %q: %v", input, r)
				}
			}()

			_, err1 := Compile(input)
			_, err2 := Compile(input)
			return (err1 == nil) == (err2 == nil)
		},
		gen.AnyString(),
	))

	// A compiled delimiter-free template renders back to itself.
	properties.Property("plain text renders unchanged", prop.ForAll(
		func(input string) bool {
			if input == "" || strings.ContainsAny(input, "@{}") {
				return true
			}

			got, err := RenderString(input, NewBindings())
			return err == nil && got == input
		},
		gen.AnyString(),
	))

	properties.TestingRun(t)
}
