package template

import (
	"strings"

	"github.com/lumenbar/lumen/internal/errors"
)

type constructKind int

const (
	constructConditional constructKind = iota
	constructLoop
	constructSwitch
)

// openConstruct is one entry on the parser's stack of open control
// constructs. The body field accumulates nodes for whichever branch, case,
// or loop body is currently active.
type openConstruct struct {
	kind constructKind

	cond *ConditionalNode
	loop *LoopNode
	sw   *SwitchNode

	body []Node

	// Conditional state. A chain stays open after a branch body closes so a
	// following `@else if`/`@else` can extend it; pendingText buffers the
	// whitespace between branches while the chain is undecided.
	branchExpr    string
	inElse        bool
	awaitingChain bool
	pendingText   []Node

	// Switch state. Between case bodies only `@case`, `@default`, `}`, and
	// whitespace are valid.
	inCase    bool
	inDefault bool
	caseExpr  string
}

type parser struct {
	tokens []Token
	pos    int
	stack  []*openConstruct
	root   []Node
}

// Parse builds a template node tree from a token sequence. It fails fast:
// malformed input is never repaired.
func Parse(tokens []Token) ([]Node, error) {
	p := &parser{tokens: tokens}

	for p.pos < len(p.tokens) {
		if err := p.parseToken(); err != nil {
			return nil, err
		}
	}

	// A conditional whose last branch closed at end of input is complete.
	if top := p.top(); top != nil && top.kind == constructConditional && top.awaitingChain {
		p.sealConditional()
	}

	if len(p.stack) > 0 {
		return nil, errors.NewParseError("unexpected end of template: statement block is still open", len(p.tokens))
	}

	return p.root, nil
}

func (p *parser) parseToken() error {
	tok := p.tokens[p.pos]

	// Decide the fate of an open conditional chain before anything else:
	// only `@else if`, `@else`, and interstitial whitespace continue it.
	if top := p.top(); top != nil && top.kind == constructConditional && top.awaitingChain {
		switch tok.Type {
		case TokenElseIfStatement, TokenElseStatement:
			top.pendingText = nil
		case TokenText:
			if strings.TrimSpace(tok.Substring) == "" {
				top.pendingText = append(top.pendingText, &TextNode{Content: tok.Substring})
				p.pos++
				return nil
			}
			p.sealConditional()
		default:
			p.sealConditional()
		}
	}

	// Between switch cases, only case markers and the closing brace are
	// grammatical; whitespace from the lexer is tolerated and dropped.
	if top := p.top(); top != nil && top.kind == constructSwitch && !top.inCase {
		return p.parseSwitchLevel(tok)
	}

	switch tok.Type {
	case TokenText:
		p.appendNode(&TextNode{Content: tok.Substring})
		p.pos++
		return nil

	case TokenOpenInterpolation:
		return p.parseInterpolation()

	case TokenIfStatement:
		expr, err := p.parseStatementHeader("@if", true)
		if err != nil {
			return err
		}
		p.stack = append(p.stack, &openConstruct{
			kind:       constructConditional,
			cond:       &ConditionalNode{},
			branchExpr: expr,
		})
		return nil

	case TokenElseIfStatement:
		top := p.top()
		if top == nil || top.kind != constructConditional || !top.awaitingChain {
			return errors.NewParseError("'@else if' without a matching '@if'", p.pos)
		}
		expr, err := p.parseStatementHeader("@else if", true)
		if err != nil {
			return err
		}
		top.branchExpr = expr
		top.body = nil
		top.awaitingChain = false
		return nil

	case TokenElseStatement:
		top := p.top()
		if top == nil || top.kind != constructConditional || !top.awaitingChain {
			return errors.NewParseError("'@else' without a matching '@if'", p.pos)
		}
		if _, err := p.parseStatementHeader("@else", false); err != nil {
			return err
		}
		top.inElse = true
		top.body = nil
		top.awaitingChain = false
		return nil

	case TokenForStatement:
		expr, err := p.parseStatementHeader("@for", true)
		if err != nil {
			return err
		}
		p.stack = append(p.stack, &openConstruct{
			kind: constructLoop,
			loop: &LoopNode{Expression: expr},
		})
		return nil

	case TokenSwitchStatement:
		expr, err := p.parseStatementHeader("@switch", true)
		if err != nil {
			return err
		}
		p.stack = append(p.stack, &openConstruct{
			kind: constructSwitch,
			sw:   &SwitchNode{Expression: expr},
		})
		return nil

	case TokenSwitchCaseStatement, TokenSwitchDefaultStatement:
		return errors.NewParseError("'"+tok.Substring+"' outside of a '@switch' block", p.pos)

	case TokenCloseStatementBlock:
		return p.closeBlock()

	default:
		return errors.NewParseError("unexpected "+tok.Type.String()+" token", p.pos)
	}
}

// parseSwitchLevel handles tokens between a switch's braces, outside any
// case body.
func (p *parser) parseSwitchLevel(tok Token) error {
	top := p.top()

	switch tok.Type {
	case TokenText:
		if strings.TrimSpace(tok.Substring) != "" {
			return errors.NewParseError("text inside a '@switch' block must be within a '@case' or '@default'", p.pos)
		}
		p.pos++
		return nil

	case TokenSwitchCaseStatement:
		expr, err := p.parseStatementHeader("@case", true)
		if err != nil {
			return err
		}
		top.inCase = true
		top.inDefault = false
		top.caseExpr = expr
		top.body = nil
		return nil

	case TokenSwitchDefaultStatement:
		if top.sw.HasDefault {
			return errors.NewParseError("duplicate '@default' in '@switch' block", p.pos)
		}
		if _, err := p.parseStatementHeader("@default", false); err != nil {
			return err
		}
		top.inCase = true
		top.inDefault = true
		top.body = nil
		return nil

	case TokenCloseStatementBlock:
		p.stack = p.stack[:len(p.stack)-1]
		p.appendNode(top.sw)
		p.pos++
		return nil

	default:
		return errors.NewParseError("unexpected "+tok.Type.String()+" inside '@switch' block", p.pos)
	}
}

// parseStatementHeader consumes a statement keyword plus, when required, its
// expression, through the opening brace of its block.
func (p *parser) parseStatementHeader(name string, needsExpression bool) (string, error) {
	p.pos++

	var expr string
	if needsExpression {
		if p.pos >= len(p.tokens) || p.tokens[p.pos].Type != TokenExpression {
			return "", errors.NewParseError("'"+name+"' is missing its expression", p.pos)
		}
		expr = p.tokens[p.pos].Substring
		p.pos++
	}

	if p.pos >= len(p.tokens) || p.tokens[p.pos].Type != TokenOpenStatementBlock {
		return "", errors.NewParseError("'"+name+"' is missing its statement block", p.pos)
	}
	p.pos++

	return expr, nil
}

func (p *parser) parseInterpolation() error {
	p.pos++

	if p.pos >= len(p.tokens) || p.tokens[p.pos].Type != TokenExpression {
		return errors.NewParseError("interpolation is missing its expression", p.pos)
	}
	expr := p.tokens[p.pos].Substring
	p.pos++

	if p.pos >= len(p.tokens) || p.tokens[p.pos].Type != TokenCloseInterpolation {
		return errors.NewParseError("interpolation is missing its closing '}}'", p.pos)
	}
	p.pos++

	p.appendNode(&InterpolationNode{Expression: expr})
	return nil
}

func (p *parser) closeBlock() error {
	top := p.top()
	if top == nil {
		return errors.NewParseError("unmatched closing '}'", p.pos)
	}

	p.pos++

	switch top.kind {
	case constructConditional:
		if top.inElse {
			top.cond.ElseBody = top.body
			top.cond.HasElse = true
			p.sealConditional()
			return nil
		}
		top.cond.Branches = append(top.cond.Branches, ConditionalBranch{
			Expression: top.branchExpr,
			Body:       top.body,
		})
		top.body = nil
		top.awaitingChain = true
		return nil

	case constructLoop:
		top.loop.Body = top.body
		p.stack = p.stack[:len(p.stack)-1]
		p.appendNode(top.loop)
		return nil

	case constructSwitch:
		// Reached only from inside a case body; the switch-level close is
		// handled in parseSwitchLevel.
		if top.inDefault {
			top.sw.DefaultBody = top.body
			top.sw.HasDefault = true
		} else {
			top.sw.Cases = append(top.sw.Cases, SwitchCase{
				Expression: top.caseExpr,
				Body:       top.body,
			})
		}
		top.inCase = false
		top.inDefault = false
		top.body = nil
		return nil

	default:
		return errors.NewParseError("unmatched closing '}'", p.pos-1)
	}
}

// sealConditional finishes the conditional at the top of the stack and
// appends it to the enclosing body, followed by any whitespace buffered
// after its final branch.
func (p *parser) sealConditional() {
	top := p.top()
	pending := top.pendingText

	p.stack = p.stack[:len(p.stack)-1]
	p.appendNode(top.cond)
	for _, node := range pending {
		p.appendNode(node)
	}
}

func (p *parser) appendNode(node Node) {
	if top := p.top(); top != nil {
		top.body = append(top.body, node)
		return
	}
	p.root = append(p.root, node)
}

func (p *parser) top() *openConstruct {
	if len(p.stack) == 0 {
		return nil
	}
	return p.stack[len(p.stack)-1]
}
