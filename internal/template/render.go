package template

import (
	"encoding/json"
	"reflect"
	"strconv"
	"strings"

	"github.com/lumenbar/lumen/internal/errors"
)

// SegmentKind distinguishes plain markup spans from placeholder spans.
type SegmentKind int

const (
	SegmentText SegmentKind = iota
	SegmentPlaceholder
)

// Segment is one typed span of rendered output. Text segments carry literal
// markup; placeholder segments carry the binding name and the live reference
// it resolves to. Typed spans (rather than marker-string splicing) mean a
// data value that happens to contain `{{ name }}` text can never collide
// with a real placeholder.
type Segment struct {
	Kind  SegmentKind
	Text  string
	Name  string
	Value interface{}
}

// Output is the result of a render pass.
type Output struct {
	segments []Segment
}

// Segments returns the typed spans of the output in document order.
func (o *Output) Segments() []Segment {
	return o.segments
}

// Markup returns the phase-1 markup string: placeholder spans appear as
// their `{{ name }}` markers so the result is plain text throughout.
func (o *Output) Markup() string {
	var sb strings.Builder
	for _, seg := range o.segments {
		if seg.Kind == SegmentPlaceholder {
			sb.WriteString(Placeholder{Name: seg.Name}.Marker())
			continue
		}
		sb.WriteString(seg.Text)
	}
	return sb.String()
}

// Resolved returns the phase-2 value sequence: markup strings interleaved
// with the live references supplied for opaque names, preserving object
// identity rather than stringifying them.
func (o *Output) Resolved() []interface{} {
	var resolved []interface{}
	for _, seg := range o.segments {
		if seg.Kind == SegmentPlaceholder {
			resolved = append(resolved, seg.Value)
			continue
		}
		resolved = append(resolved, seg.Text)
	}
	return resolved
}

func (o *Output) emitText(text string) {
	if text == "" {
		return
	}
	if n := len(o.segments); n > 0 && o.segments[n-1].Kind == SegmentText {
		o.segments[n-1].Text += text
		return
	}
	o.segments = append(o.segments, Segment{Kind: SegmentText, Text: text})
}

func (o *Output) emitPlaceholder(name string, value interface{}) {
	o.segments = append(o.segments, Segment{Kind: SegmentPlaceholder, Name: name, Value: value})
}

// Render walks a parsed template tree depth-first against bindings and
// produces the output markup. Rendering is a pure function of (tree,
// bindings): it never mutates either, so concurrent renders of the same tree
// need no coordination.
func Render(nodes []Node, bindings *Bindings) (*Output, error) {
	out := &Output{}
	if err := renderNodes(out, nodes, bindings); err != nil {
		return nil, err
	}
	return out, nil
}

func renderNodes(out *Output, nodes []Node, bindings *Bindings) error {
	for _, node := range nodes {
		if err := renderNode(out, node, bindings); err != nil {
			return err
		}
	}
	return nil
}

func renderNode(out *Output, node Node, bindings *Bindings) error {
	switch n := node.(type) {
	case *TextNode:
		out.emitText(n.Content)
		return nil

	case *InterpolationNode:
		value, err := Evaluate(n.Expression, bindings)
		if err != nil {
			return err
		}
		if ph, ok := value.(Placeholder); ok {
			out.emitPlaceholder(ph.Name, bindings.OpaquePlaceholders[ph.Name])
			return nil
		}
		out.emitText(Stringify(value))
		return nil

	case *ConditionalNode:
		for _, branch := range n.Branches {
			value, err := Evaluate(branch.Expression, bindings)
			if err != nil {
				return err
			}
			if Truthy(value) {
				return renderNodes(out, branch.Body, bindings)
			}
		}
		if n.HasElse {
			return renderNodes(out, n.ElseBody, bindings)
		}
		return nil

	case *LoopNode:
		return renderLoop(out, n, bindings)

	case *SwitchNode:
		value, err := Evaluate(n.Expression, bindings)
		if err != nil {
			return err
		}
		for _, c := range n.Cases {
			caseValue, err := Evaluate(c.Expression, bindings)
			if err != nil {
				return err
			}
			if StrictEquals(value, caseValue) {
				return renderNodes(out, c.Body, bindings)
			}
		}
		if n.HasDefault {
			return renderNodes(out, n.DefaultBody, bindings)
		}
		return nil

	default:
		return errors.NewInternalError("render_node", "unknown template node", nil)
	}
}

func renderLoop(out *Output, loop *LoopNode, bindings *Bindings) error {
	name, iterableExpr, err := SplitLoopExpression(loop.Expression)
	if err != nil {
		return err
	}

	iterable, err := Evaluate(iterableExpr, bindings)
	if err != nil {
		return err
	}

	rv := reflect.ValueOf(iterable)
	if iterable == nil || (rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array) {
		return errors.NewEvalError("loop target is not iterable", loop.Expression)
	}

	for i := 0; i < rv.Len(); i++ {
		scoped := bindings.WithVariables(map[string]interface{}{
			name:    rv.Index(i).Interface(),
			"index": i,
		})
		if err := renderNodes(out, loop.Body, scoped); err != nil {
			return err
		}
	}

	return nil
}

// Stringify converts an evaluated value to its output text. Objects and
// sequences take their JSON form; null renders as empty text.
func Stringify(value interface{}) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case Placeholder:
		return v.Marker()
	default:
		if n, ok := toFloat(value); ok {
			return strconv.FormatFloat(n, 'f', -1, 64)
		}
		encoded, err := json.Marshal(value)
		if err != nil {
			return ""
		}
		return string(encoded)
	}
}
