package template

import (
	"regexp"
	"strings"

	"github.com/lumenbar/lumen/internal/errors"
)

// stateKind identifies which lexer state is active.
type stateKind int

const (
	stateDefault stateKind = iota
	stateInStatementArgs
	stateInStatementBlock
	stateInInterpolation
	stateInExpression
)

// String returns the state name used in diagnostics.
func (k stateKind) String() string {
	switch k {
	case stateDefault:
		return "Default"
	case stateInStatementArgs:
		return "InStatementArgs"
	case stateInStatementBlock:
		return "InStatementBlock"
	case stateInInterpolation:
		return "InInterpolation"
	case stateInExpression:
		return "InExpression"
	default:
		return "Unknown"
	}
}

// lexerState is one entry on the lexer's state stack. Only the top entry is
// active. Expression states carry the pattern that terminates them, the
// quote character currently suspending termination, and the partial token
// accumulated so far; keeping the accumulator on the state (rather than in a
// closure) keeps the stack fully inspectable.
type lexerState struct {
	kind stateKind

	// Byte offset of the construct that opened this state, used for error
	// positions when input ends before the state is closed.
	openedAt int

	// stateInExpression only.
	closePattern *regexp.Regexp
	ignoreSymbol byte
	partial      *Token
}

var (
	reOpenInterpolation  = regexp.MustCompile(`\{\{`)
	reCloseInterpolation = regexp.MustCompile(`\}\}`)
	reTextDelimiter      = regexp.MustCompile(`\{\{|@|\}`)
	reWhitespace         = regexp.MustCompile(`\s+`)
	reOpenParen          = regexp.MustCompile(`\(`)
	reCloseParen         = regexp.MustCompile(`\)`)
	reOpenBlock          = regexp.MustCompile(`\{`)
	reCloseBlock         = regexp.MustCompile(`\}`)

	// Close patterns for expression states. These are only ever peeked; the
	// enclosing state consumes the delimiter itself. The original engine used
	// regex lookaheads for the same effect.
	reStatementArgsClose = regexp.MustCompile(`\s*\)`)
	reInterpolationClose = regexp.MustCompile(`\s*\}\}`)

	// Expression content. Runs stop at quotes, parens, and braces so that
	// close detection and quote tracking always happen at the cursor.
	reExprQuote = regexp.MustCompile("['\"`]")
	reExprRun   = regexp.MustCompile("[^'\"`(){}]+")
	reExprParen = regexp.MustCompile(`[()]`)

	// Runs consumed while a quote suspends close detection: everything up to
	// and including the matching quote character.
	exprStringRun = map[byte]*regexp.Regexp{
		'\'': regexp.MustCompile(`[^']*'`),
		'"':  regexp.MustCompile(`[^"]*"`),
		'`':  regexp.MustCompile("[^`]*`"),
	}
)

// statementKeyword pairs a statement opener pattern with the token it emits.
// Tried in strict priority order: `@else if` must precede `@else`.
type statementKeyword struct {
	pattern   *regexp.Regexp
	tokenType TokenType
}

var statementKeywords = []statementKeyword{
	{regexp.MustCompile(`@if`), TokenIfStatement},
	{regexp.MustCompile(`@else\s+if`), TokenElseIfStatement},
	{regexp.MustCompile(`@else`), TokenElseStatement},
	{regexp.MustCompile(`@for`), TokenForStatement},
	{regexp.MustCompile(`@switch`), TokenSwitchStatement},
	{regexp.MustCompile(`@case`), TokenSwitchCaseStatement},
	{regexp.MustCompile(`@default`), TokenSwitchDefaultStatement},
}

// Trace is an injected diagnostic hook invoked once per lexer step with the
// active state, the state stack depth, and the cursor position. A nil Trace
// disables tracing; the lexer holds no ambient logger.
type Trace func(state string, depth int, pos int)

type lexer struct {
	scanner *Scanner
	states  []*lexerState
	tokens  []Token
	trace   Trace
}

// Tokenize lexes a template string into its token sequence.
func Tokenize(input string) ([]Token, error) {
	return TokenizeWithTrace(input, nil)
}

// TokenizeWithTrace lexes a template string, invoking trace at each step.
func TokenizeWithTrace(input string, trace Trace) ([]Token, error) {
	l := &lexer{
		scanner: NewScanner(input),
		states:  []*lexerState{{kind: stateDefault}},
		trace:   trace,
	}

	for !l.scanner.IsEmpty() {
		if err := l.step(); err != nil {
			return nil, err
		}
	}

	if err := l.checkTerminated(); err != nil {
		return nil, err
	}

	return l.tokens, nil
}

func (l *lexer) step() error {
	state := l.top()

	if l.trace != nil {
		l.trace(state.kind.String(), len(l.states), l.scanner.Pos())
	}

	switch state.kind {
	case stateDefault:
		return l.lexDefault()
	case stateInStatementArgs:
		return l.lexStatementArgs()
	case stateInStatementBlock:
		return l.lexStatementBlock()
	case stateInInterpolation:
		return l.lexInterpolation()
	case stateInExpression:
		return l.lexExpression(state)
	default:
		return errors.NewInternalError("lexer_state", "unknown lexer state", nil)
	}
}

// lexDefault handles arbitrary template content: statement openers first,
// then interpolation, then a run of literal text up to the next marker.
func (l *lexer) lexDefault() error {
	for _, kw := range statementKeywords {
		if l.scanner.Scan(kw.pattern) {
			if err := l.emit(kw.tokenType); err != nil {
				return err
			}
			l.push(&lexerState{kind: stateInStatementArgs, openedAt: l.scanner.MatchStart()})
			return nil
		}
	}

	if l.scanner.Scan(reOpenInterpolation) {
		if err := l.emit(TokenOpenInterpolation); err != nil {
			return err
		}
		l.push(&lexerState{kind: stateInInterpolation, openedAt: l.scanner.MatchStart()})
		return nil
	}

	if l.scanner.ScanUntil(reTextDelimiter) {
		return l.emit(TokenText)
	}

	return l.lexError("No valid tokens found", l.scanner.Pos())
}

// lexStatementArgs sits between a statement keyword and its block. The
// expression close pattern does not consume the terminating paren, so a
// stray `)` is skipped here after the expression state pops.
func (l *lexer) lexStatementArgs() error {
	l.scanner.Scan(reWhitespace)
	if l.scanner.Scan(reCloseParen) {
		l.scanner.Scan(reWhitespace)
	}

	if l.scanner.Scan(reOpenParen) {
		l.push(&lexerState{
			kind:         stateInExpression,
			openedAt:     l.scanner.MatchStart(),
			closePattern: reStatementArgsClose,
		})
		return nil
	}

	if l.scanner.Scan(reOpenBlock) {
		if err := l.emit(TokenOpenStatementBlock); err != nil {
			return err
		}
		l.pop()
		l.push(&lexerState{kind: stateInStatementBlock, openedAt: l.scanner.MatchStart()})
		return nil
	}

	return l.lexError("Missing closing {", l.scanner.Pos())
}

// lexStatementBlock ends the block on `}` and otherwise delegates to the
// default state; statement bodies hold arbitrary content, including nested
// statements, which recurse through the state stack by construction.
func (l *lexer) lexStatementBlock() error {
	if l.scanner.Scan(reCloseBlock) {
		if err := l.emit(TokenCloseStatementBlock); err != nil {
			return err
		}
		l.pop()
		return nil
	}

	return l.lexDefault()
}

func (l *lexer) lexInterpolation() error {
	l.scanner.Scan(reWhitespace)

	if l.scanner.Scan(reCloseInterpolation) {
		if err := l.emit(TokenCloseInterpolation); err != nil {
			return err
		}
		l.pop()
		return nil
	}

	if l.scanner.IsEmpty() {
		return l.lexError("Missing closing }}", l.top().openedAt)
	}

	l.push(&lexerState{
		kind:         stateInExpression,
		openedAt:     l.scanner.Pos(),
		closePattern: reInterpolationClose,
	})
	return nil
}

// lexExpression accumulates the raw expression text. The close pattern is
// only attempted while no quote character is active, so a closing delimiter
// inside a string literal never terminates the expression early.
func (l *lexer) lexExpression(state *lexerState) error {
	if state.ignoreSymbol == 0 && l.scanner.Peek(state.closePattern) {
		// Trailing whitespace before the delimiter is not expression text.
		l.scanner.Scan(reWhitespace)
		return l.finishExpression(state)
	}

	if state.ignoreSymbol != 0 {
		if l.scanner.Scan(exprStringRun[state.ignoreSymbol]) {
			state.accumulate(l.scanner)
			state.ignoreSymbol = 0
			return nil
		}
		return l.lexError("Missing close symbol", state.openedAt)
	}

	// Leading whitespace is skipped without being accumulated; interior
	// whitespace arrives as part of content runs and is preserved.
	if state.partial == nil && l.scanner.Scan(reWhitespace) {
		return nil
	}

	if l.scanner.Scan(reExprQuote) {
		state.ignoreSymbol = l.scanner.Match()[0]
		state.accumulate(l.scanner)
		return nil
	}

	if l.scanner.Scan(reExprRun) {
		state.accumulate(l.scanner)
		return nil
	}

	// Parens that are not the close delimiter are ordinary expression text
	// (call syntax, grouping). When `)` is the close delimiter it was already
	// handled by the close check above.
	if l.scanner.Scan(reExprParen) {
		state.accumulate(l.scanner)
		return nil
	}

	return l.lexError("Missing close symbol", l.scanner.Pos())
}

// finishExpression finalizes the accumulated partial token and pops the
// expression state. The enclosing state consumes the close delimiter.
func (l *lexer) finishExpression(state *lexerState) error {
	if state.partial == nil {
		return l.lexError("Empty expression", state.openedAt)
	}

	trimmed := strings.TrimRight(state.partial.Substring, " \t\r\n")
	if trimmed == "" {
		return l.lexError("Empty expression", state.openedAt)
	}
	state.partial.EndIndex -= len(state.partial.Substring) - len(trimmed)
	state.partial.Substring = trimmed

	l.tokens = append(l.tokens, *state.partial)
	l.pop()
	return nil
}

// checkTerminated reports the appropriate error when input ended while a
// state other than the bottom default was still open. Expression states are
// unwound first so the error names the construct the author left unclosed.
func (l *lexer) checkTerminated() error {
	for len(l.states) > 1 && l.top().kind == stateInExpression {
		l.pop()
	}

	state := l.top()
	switch state.kind {
	case stateDefault:
		return nil
	case stateInStatementArgs:
		return l.lexError("Missing closing {", state.openedAt)
	case stateInStatementBlock:
		return l.lexError("Missing closing }", state.openedAt)
	case stateInInterpolation:
		return l.lexError("Missing closing }}", state.openedAt)
	default:
		return errors.NewInternalError("lexer_state", "unknown lexer state at end of input", nil)
	}
}

// emit appends a token for the scanner's latest match. An empty match is a
// lexer bug, never silently dropped.
func (l *lexer) emit(tokenType TokenType) error {
	if l.scanner.Match() == "" {
		return errors.NewInternalError("lexer_empty_token",
			"empty match for "+tokenType.String(), nil)
	}

	l.tokens = append(l.tokens, Token{
		Type:       tokenType,
		StartIndex: l.scanner.MatchStart(),
		EndIndex:   l.scanner.MatchEnd(),
		Substring:  l.scanner.Match(),
	})
	return nil
}

// lexError builds a LexError carrying the current state stack for
// diagnostics.
func (l *lexer) lexError(message string, position int) error {
	err := errors.NewLexError(message, position)
	err.StateStack = l.stackDescription()
	return err
}

func (l *lexer) stackDescription() []string {
	desc := make([]string, len(l.states))
	for i, state := range l.states {
		desc[i] = state.kind.String()
	}
	return desc
}

func (l *lexer) top() *lexerState {
	return l.states[len(l.states)-1]
}

func (l *lexer) push(state *lexerState) {
	l.states = append(l.states, state)
}

// pop removes the top state. Popping past the bottom is a lexer bug, not a
// user error.
func (l *lexer) pop() {
	if len(l.states) <= 1 {
		panic("template: lexer state stack underflow")
	}
	l.states = l.states[:len(l.states)-1]
}

func (st *lexerState) accumulate(s *Scanner) {
	if st.partial == nil {
		st.partial = &Token{
			Type:       TokenExpression,
			StartIndex: s.MatchStart(),
			EndIndex:   s.MatchEnd(),
			Substring:  s.Match(),
		}
		return
	}

	st.partial.Substring += s.Match()
	st.partial.EndIndex = s.MatchEnd()
}
