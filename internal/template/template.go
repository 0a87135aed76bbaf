// Package template implements the widget template engine: a stateful lexer
// driven by an explicit state stack, a recursive statement/expression
// grammar, and a renderer that re-evaluates a parsed tree against live
// bindings.
//
// Templates mix literal markup with `{{ expression }}` interpolations and a
// fixed statement set: `@if`/`@else if`/`@else`, `@for (item of iterable)`,
// and `@switch`/`@case`/`@default`. Compiling a template (lex + parse) is
// the expensive, cacheable step; rendering the immutable tree against a
// fresh bindings snapshot is cheap and re-runs on every dependency change.
package template

// Template is a compiled template: the source string plus its parsed node
// tree. A Template is immutable and safe for concurrent renders.
type Template struct {
	source string
	nodes  []Node
}

// Compile lexes and parses a template string. The returned Template may be
// cached and reused across many renders with different bindings.
func Compile(source string) (*Template, error) {
	tokens, err := Tokenize(source)
	if err != nil {
		return nil, err
	}

	nodes, err := Parse(tokens)
	if err != nil {
		return nil, err
	}

	return &Template{source: source, nodes: nodes}, nil
}

// Source returns the original template string.
func (t *Template) Source() string {
	return t.source
}

// Nodes returns the parsed node tree.
func (t *Template) Nodes() []Node {
	return t.nodes
}

// Render evaluates the template against bindings.
func (t *Template) Render(bindings *Bindings) (*Output, error) {
	return Render(t.nodes, bindings)
}

// RenderString compiles source and renders it against bindings in one call,
// returning the phase-1 markup. Callers that render repeatedly should
// Compile once and cache the result instead.
func RenderString(source string, bindings *Bindings) (string, error) {
	tmpl, err := Compile(source)
	if err != nil {
		return "", err
	}

	out, err := tmpl.Render(bindings)
	if err != nil {
		return "", err
	}

	return out.Markup(), nil
}
