package template

// Node is a single node of a parsed template tree. The tree is immutable
// once built: parsing fully determines its structure, and rendering never
// mutates it, so one tree may be rendered concurrently with many different
// bindings.
type Node interface {
	templateNode()
}

// TextNode is literal output.
type TextNode struct {
	Content string
}

// InterpolationNode is a `{{ expression }}` span whose evaluated, stringified
// value is spliced into the output.
type InterpolationNode struct {
	Expression string
}

// ConditionalBranch is one `@if` or `@else if` arm.
type ConditionalBranch struct {
	Expression string
	Body       []Node
}

// ConditionalNode is an `@if`/`@else if`/`@else` chain. Branches[0] is the
// `@if`; subsequent entries are `@else if` arms in source order.
type ConditionalNode struct {
	Branches []ConditionalBranch
	ElseBody []Node
	HasElse  bool
}

// LoopNode is an `@for (item of iterable) { ... }` construct. The body is
// re-rendered once per element with loop-local bindings injected.
type LoopNode struct {
	Expression string
	Body       []Node
}

// SwitchCase is one `@case` arm of a switch.
type SwitchCase struct {
	Expression string
	Body       []Node
}

// SwitchNode is an `@switch`/`@case`/`@default` construct.
type SwitchNode struct {
	Expression  string
	Cases       []SwitchCase
	DefaultBody []Node
	HasDefault  bool
}

func (*TextNode) templateNode()          {}
func (*InterpolationNode) templateNode() {}
func (*ConditionalNode) templateNode()   {}
func (*LoopNode) templateNode()          {}
func (*SwitchNode) templateNode()        {}
