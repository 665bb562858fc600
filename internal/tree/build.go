package tree

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/iancoleman/strcase"
	"github.com/mcncl/jsontree/internal/models"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// renderNode appends the representation of v to parent.
func (t *Tree) renderNode(v models.Value, parent *html.Node, depth int, lazy bool) {
	switch v.Kind() {
	case models.Object, models.Array:
		t.renderContainer(v, parent, depth, lazy)
	default:
		parent.AppendChild(renderPrimitive(v))
	}
}

func kindClass(k models.Kind) string {
	return "json-tree-" + strcase.ToKebab(k.String())
}

func renderPrimitive(v models.Value) *html.Node {
	span := element(atom.Span, "json-tree-value "+kindClass(v.Kind()))
	span.AppendChild(text(literal(v)))
	return span
}

// literal is the text shown for a primitive.
func literal(v models.Value) string {
	switch v.Kind() {
	case models.String:
		return quote(v.Str())
	case models.Number:
		return v.Number().String()
	case models.Bool:
		if v.Bool() {
			return "true"
		}
		return "false"
	default:
		return "null"
	}
}

// quote renders s as a JSON string literal. HTML characters are left alone;
// the serializer escapes them.
func quote(s string) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return `"` + s + `"`
	}
	return strings.TrimSuffix(buf.String(), "\n")
}

// summary is the container label, e.g. "Object (1 key)" or "Array (3 items)".
func summary(k models.Kind, n int) string {
	if k == models.Object {
		return fmt.Sprintf("Object (%d %s)", n, plural(n, "key", "keys"))
	}
	return fmt.Sprintf("Array (%d %s)", n, plural(n, "item", "items"))
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

func (t *Tree) renderContainer(v models.Value, parent *html.Node, depth int, lazy bool) {
	n := v.Len()
	if n == 0 {
		empty := element(atom.Span, "json-tree-empty")
		if v.Kind() == models.Object {
			empty.AppendChild(text("{}"))
		} else {
			empty.AppendChild(text("[]"))
		}
		parent.AppendChild(empty)
		return
	}

	id := t.nextID()
	box := element(atom.Div, kindClass(v.Kind()))

	toggle := element(atom.Span, "json-tree-toggle",
		attribute("role", "button"),
		attribute("aria-expanded", "true"),
		attribute("data-action", string(ActionToggle)),
		attribute("data-node-id", id),
	)
	toggle.AppendChild(element(atom.I, "bi bi-chevron-down"))
	box.AppendChild(toggle)

	label := element(atom.Span, "json-tree-label")
	label.AppendChild(text(summary(v.Kind(), n)))
	box.AppendChild(label)

	children := element(atom.Div, "json-tree-children",
		attribute("data-node-id", id),
		attribute("style", childrenIndent),
	)

	c := &container{
		id:       id,
		kind:     v.Kind(),
		depth:    depth,
		count:    n,
		toggle:   toggle,
		children: children,
		expanded: true,
	}
	t.containers[id] = c
	t.order = append(t.order, id)

	if lazy && n > t.opts.Thresholds.LazyRender {
		pending := v
		c.pending = &pending
		setAttr(children, "data-lazy-render", "true")
		placeholder := element(atom.Div, "json-tree-placeholder text-muted small")
		placeholder.AppendChild(text("Click to load..."))
		children.AppendChild(placeholder)
	} else {
		t.appendMembers(v, children, depth, lazy, 0, true)
	}

	box.AppendChild(children)
	parent.AppendChild(box)
}

// appendMembers renders members of v starting at from. With truncate set and
// more than MaxInitialRender members, the rest go behind a "more items"
// affordance.
func (t *Tree) appendMembers(v models.Value, children *html.Node, depth int, lazy bool, from int, truncate bool) {
	n := v.Len()
	end := n
	if truncate && n-from > t.opts.Thresholds.MaxInitialRender {
		end = from + t.opts.Thresholds.MaxInitialRender
	}

	for i := from; i < end; i++ {
		t.appendRow(v, i, children, depth, lazy)
	}

	if end < n {
		id := t.nextID()
		more := element(atom.Div, "json-tree-load-more text-muted small",
			attribute("role", "button"),
			attribute("style", "cursor: pointer"),
			attribute("data-action", string(ActionLoadMore)),
			attribute("data-node-id", id),
		)
		more.AppendChild(text(fmt.Sprintf("... %d more %s", n-end, plural(n-end, "item", "items"))))
		children.AppendChild(more)
		t.overflows[id] = &overflow{
			node:     more,
			children: children,
			value:    v,
			depth:    depth,
			from:     end,
		}
		t.overflowOrder = append(t.overflowOrder, id)
	}
}

// appendRow renders member i of v as a labelled row.
func (t *Tree) appendRow(v models.Value, i int, children *html.Node, depth int, lazy bool) {
	row := element(atom.Div, "json-tree-row")

	var child models.Value
	if v.Kind() == models.Object {
		m := v.Members()[i]
		key := element(atom.Span, "json-tree-key")
		key.AppendChild(text(quote(m.Key) + ": "))
		row.AppendChild(key)
		child = m.Value
	} else {
		index := element(atom.Span, "json-tree-index")
		index.AppendChild(text(fmt.Sprintf("[%d]: ", i)))
		row.AppendChild(index)
		child = v.Items()[i]
	}

	t.renderNode(child, row, depth+1, lazy)
	children.AppendChild(row)
}
