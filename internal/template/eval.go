package template

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"unicode"

	"github.com/lumenbar/lumen/internal/errors"
)

// Placeholder is the evaluation result of a name listed in the bindings'
// opaque set. It carries the name through rendering as a typed value rather
// than a stringified one, so the live reference can be spliced back in
// afterwards without string-sentinel collisions.
type Placeholder struct {
	Name string
}

// Marker returns the textual form a placeholder takes inside phase-1 markup.
func (p Placeholder) Marker() string {
	return "{{ " + p.Name + " }}"
}

// Evaluate evaluates a raw expression string against bindings. The supported
// grammar is deliberately small: identifier lookup, literals (numbers,
// quoted strings, booleans, null, array literals), member access,
// equality/relational/logical operators, and ternary conditionals.
func Evaluate(expression string, bindings *Bindings) (interface{}, error) {
	p := &exprParser{expr: expression, bindings: bindings}
	p.next()

	value, err := p.parseTernary()
	if err != nil {
		return nil, err
	}
	if p.tok.kind != exprTokenEOF {
		return nil, p.errorf("unexpected %q", p.tok.text)
	}

	return value, nil
}

// SplitLoopExpression splits a loop expression of the form
// `<name> of <iterable>` into its variable name and iterable expression.
func SplitLoopExpression(expression string) (string, string, error) {
	p := &exprParser{expr: expression}
	p.next()

	if p.tok.kind != exprTokenIdent {
		return "", "", errors.NewEvalError(
			"loop expression must have the form '<name> of <iterable>'", expression)
	}
	name := p.tok.text

	p.next()
	if p.tok.kind != exprTokenIdent || p.tok.text != "of" {
		return "", "", errors.NewEvalError(
			"loop expression must have the form '<name> of <iterable>'", expression)
	}

	iterable := strings.TrimSpace(expression[p.tok.end:])
	if iterable == "" {
		return "", "", errors.NewEvalError("loop expression has no iterable", expression)
	}

	return name, iterable, nil
}

// Truthy reports the truthiness of an evaluated value: nil, false, zero, and
// the empty string are falsy; everything else (including empty sequences and
// placeholders) is truthy.
func Truthy(value interface{}) bool {
	switch v := value.(type) {
	case nil:
		return false
	case bool:
		return v
	case string:
		return v != ""
	default:
		if n, ok := toFloat(value); ok {
			return n != 0
		}
		return true
	}
}

// StrictEquals compares two evaluated values with same-kind semantics:
// numbers compare numerically across widths, strings and booleans compare
// directly, nil equals only nil, and placeholders compare by name. Values of
// differing kinds are never equal.
func StrictEquals(a, b interface{}) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	if an, ok := toFloat(a); ok {
		bn, ok := toFloat(b)
		return ok && an == bn
	}

	switch av := a.(type) {
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	case Placeholder:
		bv, ok := b.(Placeholder)
		return ok && av.Name == bv.Name
	default:
		return false
	}
}

// Expression token scanning.

type exprTokenKind int

const (
	exprTokenEOF exprTokenKind = iota
	exprTokenIdent
	exprTokenNumber
	exprTokenString
	exprTokenPunct
)

type exprToken struct {
	kind  exprTokenKind
	text  string
	value interface{}
	start int
	end   int
}

type exprParser struct {
	expr     string
	pos      int
	tok      exprToken
	bindings *Bindings
}

var exprPuncts = []string{
	"===", "!==", "==", "!=", "<=", ">=", "&&", "||",
	"<", ">", "!", "?", ":", ".", ",", "(", ")", "[", "]",
}

func (p *exprParser) next() {
	for p.pos < len(p.expr) && unicode.IsSpace(rune(p.expr[p.pos])) {
		p.pos++
	}

	start := p.pos
	if p.pos >= len(p.expr) {
		p.tok = exprToken{kind: exprTokenEOF, start: start, end: start}
		return
	}

	ch := p.expr[p.pos]

	switch {
	case ch == '\'' || ch == '"' || ch == '`':
		p.tok = p.scanString(ch)
	case ch >= '0' && ch <= '9':
		p.tok = p.scanNumber()
	case isIdentStart(ch):
		for p.pos < len(p.expr) && isIdentPart(p.expr[p.pos]) {
			p.pos++
		}
		p.tok = exprToken{kind: exprTokenIdent, text: p.expr[start:p.pos], start: start, end: p.pos}
	default:
		for _, punct := range exprPuncts {
			if strings.HasPrefix(p.expr[p.pos:], punct) {
				p.pos += len(punct)
				p.tok = exprToken{kind: exprTokenPunct, text: punct, start: start, end: p.pos}
				return
			}
		}
		p.tok = exprToken{kind: exprTokenPunct, text: string(ch), start: start, end: start + 1}
		p.pos++
	}
}

func (p *exprParser) scanString(quote byte) exprToken {
	start := p.pos
	p.pos++

	var sb strings.Builder
	for p.pos < len(p.expr) {
		ch := p.expr[p.pos]
		if ch == '\\' && p.pos+1 < len(p.expr) {
			switch p.expr[p.pos+1] {
			case 'n':
				sb.WriteByte('\n')
			case 't':
				sb.WriteByte('\t')
			default:
				sb.WriteByte(p.expr[p.pos+1])
			}
			p.pos += 2
			continue
		}
		if ch == quote {
			p.pos++
			return exprToken{
				kind: exprTokenString, text: p.expr[start:p.pos],
				value: sb.String(), start: start, end: p.pos,
			}
		}
		sb.WriteByte(ch)
		p.pos++
	}

	// Unterminated string literal: surfaced as a parse failure below.
	return exprToken{kind: exprTokenPunct, text: string(quote), start: start, end: start + 1}
}

func (p *exprParser) scanNumber() exprToken {
	start := p.pos
	for p.pos < len(p.expr) && (p.expr[p.pos] >= '0' && p.expr[p.pos] <= '9' || p.expr[p.pos] == '.') {
		p.pos++
	}

	text := p.expr[start:p.pos]
	n, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return exprToken{kind: exprTokenPunct, text: text, start: start, end: p.pos}
	}

	return exprToken{kind: exprTokenNumber, text: text, value: n, start: start, end: p.pos}
}

func isIdentStart(ch byte) bool {
	return ch == '_' || ch == '$' || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

func isIdentPart(ch byte) bool {
	return isIdentStart(ch) || (ch >= '0' && ch <= '9')
}

// Expression evaluation (precedence climbing with short-circuiting).

func (p *exprParser) parseTernary() (interface{}, error) {
	cond, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if !p.isPunct("?") {
		return cond, nil
	}
	p.next()

	// Both arms are parsed, only the taken arm's value is used. Evaluation
	// errors in the untaken arm still surface: the evaluator has no
	// dead-branch analysis.
	whenTrue, err := p.parseTernary()
	if err != nil {
		return nil, err
	}
	if !p.isPunct(":") {
		return nil, p.errorf("expected ':' in conditional expression")
	}
	p.next()
	whenFalse, err := p.parseTernary()
	if err != nil {
		return nil, err
	}

	if Truthy(cond) {
		return whenTrue, nil
	}
	return whenFalse, nil
}

func (p *exprParser) parseOr() (interface{}, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.isPunct("||") {
		p.next()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		if !Truthy(left) {
			left = right
		}
	}
	return left, nil
}

func (p *exprParser) parseAnd() (interface{}, error) {
	left, err := p.parseEquality()
	if err != nil {
		return nil, err
	}
	for p.isPunct("&&") {
		p.next()
		right, err := p.parseEquality()
		if err != nil {
			return nil, err
		}
		if Truthy(left) {
			left = right
		}
	}
	return left, nil
}

func (p *exprParser) parseEquality() (interface{}, error) {
	left, err := p.parseRelational()
	if err != nil {
		return nil, err
	}

	for p.isPunct("===") || p.isPunct("==") || p.isPunct("!==") || p.isPunct("!=") {
		op := p.tok.text
		p.next()
		right, err := p.parseRelational()
		if err != nil {
			return nil, err
		}

		equal := StrictEquals(left, right)
		if op == "!=" || op == "!==" {
			left = !equal
		} else {
			left = equal
		}
	}

	return left, nil
}

func (p *exprParser) parseRelational() (interface{}, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}

	for p.isPunct("<") || p.isPunct("<=") || p.isPunct(">") || p.isPunct(">=") {
		op := p.tok.text
		p.next()
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}

		result, err := p.compare(left, right, op)
		if err != nil {
			return nil, err
		}
		left = result
	}

	return left, nil
}

func (p *exprParser) compare(left, right interface{}, op string) (bool, error) {
	if ln, ok := toFloat(left); ok {
		rn, ok := toFloat(right)
		if !ok {
			return false, p.errorf("cannot compare number with %T", right)
		}
		switch op {
		case "<":
			return ln < rn, nil
		case "<=":
			return ln <= rn, nil
		case ">":
			return ln > rn, nil
		default:
			return ln >= rn, nil
		}
	}

	ls, lok := left.(string)
	rs, rok := right.(string)
	if lok && rok {
		switch op {
		case "<":
			return ls < rs, nil
		case "<=":
			return ls <= rs, nil
		case ">":
			return ls > rs, nil
		default:
			return ls >= rs, nil
		}
	}

	return false, p.errorf("operator %q needs two numbers or two strings", op)
}

func (p *exprParser) parseUnary() (interface{}, error) {
	if p.isPunct("!") {
		p.next()
		value, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return !Truthy(value), nil
	}
	return p.parsePostfix()
}

func (p *exprParser) parsePostfix() (interface{}, error) {
	value, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}

	for {
		switch {
		case p.isPunct("."):
			p.next()
			if p.tok.kind != exprTokenIdent {
				return nil, p.errorf("expected member name after '.'")
			}
			name := p.tok.text
			p.next()

			value, err = p.member(value, name)
			if err != nil {
				return nil, err
			}
		case p.isPunct("("):
			return nil, p.errorf("function calls are not supported")
		default:
			return value, nil
		}
	}
}

func (p *exprParser) member(value interface{}, name string) (interface{}, error) {
	rv := reflect.ValueOf(value)

	switch rv.Kind() {
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil, p.errorf("cannot access member %q of %T", name, value)
		}
		entry := rv.MapIndex(reflect.ValueOf(name))
		if !entry.IsValid() {
			return nil, p.errorf("unknown member %q", name)
		}
		return entry.Interface(), nil
	case reflect.Struct:
		field := rv.FieldByName(name)
		if !field.IsValid() || !field.CanInterface() {
			return nil, p.errorf("unknown member %q", name)
		}
		return field.Interface(), nil
	case reflect.Ptr:
		if rv.IsNil() {
			return nil, p.errorf("cannot access member %q of null", name)
		}
		return p.member(rv.Elem().Interface(), name)
	default:
		return nil, p.errorf("cannot access member %q of %T", name, value)
	}
}

func (p *exprParser) parsePrimary() (interface{}, error) {
	switch {
	case p.tok.kind == exprTokenNumber || p.tok.kind == exprTokenString:
		value := p.tok.value
		p.next()
		return value, nil

	case p.tok.kind == exprTokenIdent:
		name := p.tok.text
		p.next()

		switch name {
		case "true":
			return true, nil
		case "false":
			return false, nil
		case "null":
			return nil, nil
		}
		return p.lookup(name)

	case p.isPunct("("):
		p.next()
		value, err := p.parseTernary()
		if err != nil {
			return nil, err
		}
		if !p.isPunct(")") {
			return nil, p.errorf("missing ')'")
		}
		p.next()
		return value, nil

	case p.isPunct("["):
		p.next()
		var elements []interface{}
		for !p.isPunct("]") {
			if p.tok.kind == exprTokenEOF {
				return nil, p.errorf("missing ']'")
			}
			element, err := p.parseTernary()
			if err != nil {
				return nil, err
			}
			elements = append(elements, element)
			if p.isPunct(",") {
				p.next()
			}
		}
		p.next()
		return elements, nil

	case p.tok.kind == exprTokenEOF:
		return nil, p.errorf("unexpected end of expression")

	default:
		return nil, p.errorf("unexpected %q", p.tok.text)
	}
}

func (p *exprParser) lookup(name string) (interface{}, error) {
	if p.bindings == nil {
		return nil, p.errorf("unknown identifier %q", name)
	}

	// Opaque names never resolve: they pass through evaluation as typed
	// placeholders so the live reference survives string assembly.
	if p.bindings.IsOpaque(name) {
		return Placeholder{Name: name}, nil
	}

	if value, ok := p.bindings.Variables[name]; ok {
		return value, nil
	}
	if value, ok := p.bindings.StringSubstitutions[name]; ok {
		return value, nil
	}

	return nil, p.errorf("unknown identifier %q", name)
}

func (p *exprParser) isPunct(text string) bool {
	return p.tok.kind == exprTokenPunct && p.tok.text == text
}

func (p *exprParser) errorf(format string, args ...interface{}) error {
	return errors.NewEvalError(fmt.Sprintf(format, args...), p.expr)
}

// toFloat normalizes any numeric value to float64.
func toFloat(value interface{}) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int8:
		return float64(v), true
	case int16:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint8:
		return float64(v), true
	case uint16:
		return float64(v), true
	case uint32:
		return float64(v), true
	case uint64:
		return float64(v), true
	default:
		return 0, false
	}
}
