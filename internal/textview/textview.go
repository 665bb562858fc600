// Package textview prints a rendered tree as an indented, colored outline.
// It reads the tree's DOM, so it shows exactly what is materialized and
// expanded: deferred containers print their placeholder and truncated ones
// their "more items" line.
package textview

import (
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mcncl/jsontree/internal/tree"
	"golang.org/x/net/html"
)

// Kind classifies an outline line.
type Kind int

const (
	KindValue Kind = iota
	KindEmpty
	KindContainer
	KindPlaceholder
	KindLoadMore
)

// Line is one row of the outline.
type Line struct {
	Depth int
	Kind  Kind
	// Label is the key or index prefix, e.g. `"name": ` or `[0]: `.
	Label      string
	IndexLabel bool
	Text       string
	// ValueClass is the CSS class of a primitive, e.g. json-tree-string.
	ValueClass string
	// NodeID identifies the container or load-more affordance.
	NodeID   string
	Expanded bool
}

// Actionable reports whether the line can receive a tree action.
func (l Line) Actionable() bool {
	return l.NodeID != "" && (l.Kind == KindContainer || l.Kind == KindPlaceholder || l.Kind == KindLoadMore)
}

// Lines flattens the visible part of a rendered tree.
func Lines(root *html.Node) []Line {
	var out []Line
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		walk(c, 0, "", false, &out)
	}
	return out
}

func walk(n *html.Node, depth int, label string, index bool, out *[]Line) {
	if n.Type != html.ElementNode {
		return
	}
	switch {
	case tree.HasClass(n, "json-tree-value"):
		*out = append(*out, Line{
			Depth:      depth,
			Kind:       KindValue,
			Label:      label,
			IndexLabel: index,
			Text:       tree.TextContent(n),
			ValueClass: valueClass(n),
		})
	case tree.HasClass(n, "json-tree-empty"):
		*out = append(*out, Line{Depth: depth, Kind: KindEmpty, Label: label, IndexLabel: index, Text: tree.TextContent(n)})
	case tree.HasClass(n, "json-tree-object"), tree.HasClass(n, "json-tree-array"):
		walkContainer(n, depth, label, index, out)
	}
}

func walkContainer(n *html.Node, depth int, label string, index bool, out *[]Line) {
	line := Line{Depth: depth, Kind: KindContainer, Label: label, IndexLabel: index}
	var children *html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		switch {
		case tree.HasClass(c, "json-tree-toggle"):
			line.NodeID, _ = tree.Attr(c, "data-node-id")
			expanded, _ := tree.Attr(c, "aria-expanded")
			line.Expanded = expanded == "true"
		case tree.HasClass(c, "json-tree-label"):
			line.Text = tree.TextContent(c)
		case tree.HasClass(c, "json-tree-children"):
			children = c
		}
	}
	*out = append(*out, line)

	if children == nil || tree.IsHidden(children) {
		return
	}
	for c := children.FirstChild; c != nil; c = c.NextSibling {
		switch {
		case tree.HasClass(c, "json-tree-row"):
			walkRow(c, depth+1, out)
		case tree.HasClass(c, "json-tree-placeholder"):
			*out = append(*out, Line{Depth: depth + 1, Kind: KindPlaceholder, Text: tree.TextContent(c), NodeID: line.NodeID})
		case tree.HasClass(c, "json-tree-load-more"):
			id, _ := tree.Attr(c, "data-node-id")
			*out = append(*out, Line{Depth: depth + 1, Kind: KindLoadMore, Text: tree.TextContent(c), NodeID: id})
		}
	}
}

func walkRow(row *html.Node, depth int, out *[]Line) {
	var label string
	var index bool
	for c := row.FirstChild; c != nil; c = c.NextSibling {
		switch {
		case tree.HasClass(c, "json-tree-key"):
			label = tree.TextContent(c)
		case tree.HasClass(c, "json-tree-index"):
			label = tree.TextContent(c)
			index = true
		default:
			walk(c, depth, label, index, out)
		}
	}
}

func valueClass(n *html.Node) string {
	class, _ := tree.Attr(n, "class")
	for _, f := range strings.Fields(class) {
		if f != "json-tree-value" {
			return f
		}
	}
	return ""
}

// Styles colors the parts of a line.
type Styles struct {
	Key      lipgloss.Style
	Index    lipgloss.Style
	String   lipgloss.Style
	Number   lipgloss.Style
	Boolean  lipgloss.Style
	Null     lipgloss.Style
	Label    lipgloss.Style
	Muted    lipgloss.Style
	Selected lipgloss.Style
}

// NewStyles builds the palette for a renderer. A renderer writing to a
// non-terminal produces plain text.
func NewStyles(r *lipgloss.Renderer) Styles {
	return Styles{
		Key:      r.NewStyle().Foreground(lipgloss.Color("135")).Bold(true),
		Index:    r.NewStyle().Foreground(lipgloss.Color("33")).Bold(true),
		String:   r.NewStyle().Foreground(lipgloss.Color("34")),
		Number:   r.NewStyle().Foreground(lipgloss.Color("37")),
		Boolean:  r.NewStyle().Foreground(lipgloss.Color("208")).Bold(true),
		Null:     r.NewStyle().Foreground(lipgloss.Color("245")).Italic(true),
		Label:    r.NewStyle().Faint(true),
		Muted:    r.NewStyle().Foreground(lipgloss.Color("245")),
		Selected: r.NewStyle().Reverse(true),
	}
}

// Format renders a single line.
func (s Styles) Format(l Line) string {
	var b strings.Builder
	b.WriteString(strings.Repeat("  ", l.Depth))

	switch l.Kind {
	case KindContainer:
		if l.Expanded {
			b.WriteString("▼ ")
		} else {
			b.WriteString("▶ ")
		}
	default:
		b.WriteString("  ")
	}

	if l.Label != "" {
		if l.IndexLabel {
			b.WriteString(s.Index.Render(l.Label))
		} else {
			b.WriteString(s.Key.Render(l.Label))
		}
	}

	switch l.Kind {
	case KindValue:
		b.WriteString(s.value(l.ValueClass).Render(l.Text))
	case KindContainer:
		b.WriteString(s.Label.Render(l.Text))
	default:
		b.WriteString(s.Muted.Render(l.Text))
	}
	return b.String()
}

func (s Styles) value(class string) lipgloss.Style {
	switch class {
	case "json-tree-string":
		return s.String
	case "json-tree-number":
		return s.Number
	case "json-tree-boolean":
		return s.Boolean
	case "json-tree-null":
		return s.Null
	}
	return s.Muted
}

// Render writes the outline of a rendered tree to w, one line per row.
func Render(w io.Writer, root *html.Node) error {
	styles := NewStyles(lipgloss.NewRenderer(w))
	for _, l := range Lines(root) {
		if _, err := io.WriteString(w, styles.Format(l)+"\n"); err != nil {
			return err
		}
	}
	return nil
}
