package internal

import (
	"fmt"
	"strings"
)

// Node is the interface all AST nodes implement
type Node interface {
	// Type returns the node type identifier
	Type() NodeType
	// Pos returns the source position of this node
	Pos() Position
	// String returns a human-readable representation
	String() string
}

// SequenceNode is an ordered list of nodes. It is the root of every parsed template
// and the body of every section.
type SequenceNode struct {
	pos      Position
	Children []Node
}

// Type returns NodeTypeSequence
func (n *SequenceNode) Type() NodeType {
	return NodeTypeSequence
}

// Pos returns the source position
func (n *SequenceNode) Pos() Position {
	return n.pos
}

// String returns an indented dump of the subtree
func (n *SequenceNode) String() string {
	var sb strings.Builder
	n.dump(&sb, 0)
	return sb.String()
}

func (n *SequenceNode) dump(sb *strings.Builder, depth int) {
	indent := strings.Repeat("  ", depth)
	sb.WriteString("SequenceNode{\n")
	for i, child := range n.Children {
		fmt.Fprintf(sb, "%s  [%d] ", indent, i)
		if section, ok := child.(*SectionNode); ok {
			section.dump(sb, depth+1)
		} else {
			sb.WriteString(child.String())
		}
		sb.WriteString("\n")
	}
	sb.WriteString(indent)
	sb.WriteString("}")
}

// NewSequenceNode creates a new sequence node
func NewSequenceNode(children []Node, pos Position) *SequenceNode {
	return &SequenceNode{
		pos:      pos,
		Children: children,
	}
}

// LiteralNode represents literal text copied verbatim to the output
type LiteralNode struct {
	pos  Position
	Text string
}

// Type returns NodeTypeLiteral
func (n *LiteralNode) Type() NodeType {
	return NodeTypeLiteral
}

// Pos returns the source position
func (n *LiteralNode) Pos() Position {
	return n.pos
}

// String returns a string representation
func (n *LiteralNode) String() string {
	return fmt.Sprintf("LiteralNode{%q @ %s}", truncate(n.Text), n.pos)
}

// NewLiteralNode creates a new literal node
func NewLiteralNode(text string, pos Position) *LiteralNode {
	return &LiteralNode{
		pos:  pos,
		Text: text,
	}
}

// InterpolationNode writes the display form of a value through the escaping writer
type InterpolationNode struct {
	pos  Position
	Name Name
}

// Type returns NodeTypeInterpolation
func (n *InterpolationNode) Type() NodeType {
	return NodeTypeInterpolation
}

// Pos returns the source position
func (n *InterpolationNode) Pos() Position {
	return n.pos
}

// String returns a string representation
func (n *InterpolationNode) String() string {
	return fmt.Sprintf("InterpolationNode{%s @ %s}", n.Name, n.pos)
}

// NewInterpolationNode creates a new escaped interpolation node
func NewInterpolationNode(name Name, pos Position) *InterpolationNode {
	return &InterpolationNode{
		pos:  pos,
		Name: name,
	}
}

// UnescapedInterpolationNode writes the display form of a value verbatim
type UnescapedInterpolationNode struct {
	pos  Position
	Name Name
}

// Type returns NodeTypeUnescapedInterpolation
func (n *UnescapedInterpolationNode) Type() NodeType {
	return NodeTypeUnescapedInterpolation
}

// Pos returns the source position
func (n *UnescapedInterpolationNode) Pos() Position {
	return n.pos
}

// String returns a string representation
func (n *UnescapedInterpolationNode) String() string {
	return fmt.Sprintf("UnescapedInterpolationNode{%s @ %s}", n.Name, n.pos)
}

// NewUnescapedInterpolationNode creates a new raw interpolation node
func NewUnescapedInterpolationNode(name Name, pos Position) *UnescapedInterpolationNode {
	return &UnescapedInterpolationNode{
		pos:  pos,
		Name: name,
	}
}

// SectionNode is a section of any flavor with its nested body
type SectionNode struct {
	pos    Position
	Kind   SectionType
	Name   Name
	Nested *SequenceNode
}

// Type returns the node type matching the section flavor
func (n *SectionNode) Type() NodeType {
	return sectionNodeTypes[n.Kind]
}

// Pos returns the source position of the opener
func (n *SectionNode) Pos() Position {
	return n.pos
}

// String returns a string representation including the nested body
func (n *SectionNode) String() string {
	var sb strings.Builder
	n.dump(&sb, 0)
	return sb.String()
}

func (n *SectionNode) dump(sb *strings.Builder, depth int) {
	fmt.Fprintf(sb, "SectionNode{%s %s @ %s, nested=", n.Kind, n.Name, n.pos)
	n.Nested.dump(sb, depth)
	sb.WriteString("}")
}

// NewSectionNode creates a new section node
func NewSectionNode(kind SectionType, name Name, nested *SequenceNode, pos Position) *SectionNode {
	return &SectionNode{
		pos:    pos,
		Kind:   kind,
		Name:   name,
		Nested: nested,
	}
}

// PartialNode includes another template rendered against Root
type PartialNode struct {
	pos         Position
	PartialName string
	Root        Name
}

// Type returns NodeTypePartialInclude
func (n *PartialNode) Type() NodeType {
	return NodeTypePartialInclude
}

// Pos returns the source position
func (n *PartialNode) Pos() Position {
	return n.pos
}

// String returns a string representation
func (n *PartialNode) String() string {
	return fmt.Sprintf("PartialNode{%s root=%s @ %s}", n.PartialName, n.Root, n.pos)
}

// NewPartialNode creates a new partial include node
func NewPartialNode(partial string, root Name, pos Position) *PartialNode {
	return &PartialNode{
		pos:         pos,
		PartialName: partial,
		Root:        root,
	}
}

// Walk visits every node of the tree in document order. Returning false from fn
// stops descent into that node's children.
func Walk(node Node, fn func(Node) bool) {
	if node == nil || !fn(node) {
		return
	}
	switch n := node.(type) {
	case *SequenceNode:
		for _, child := range n.Children {
			Walk(child, fn)
		}
	case *SectionNode:
		Walk(n.Nested, fn)
	}
}

// Partials returns the partial names referenced by the tree, in order of first appearance.
func Partials(root Node) []string {
	var names []string
	seen := make(map[string]bool)
	Walk(root, func(n Node) bool {
		if p, ok := n.(*PartialNode); ok && !seen[p.PartialName] {
			seen[p.PartialName] = true
			names = append(names, p.PartialName)
		}
		return true
	})
	return names
}
