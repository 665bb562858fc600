package tree

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/mcncl/jsontree/internal/models"
	"github.com/stretchr/testify/assert"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// shaped builds an array holding one array per width, each filled with
// numbers.
func shaped(widths []int) models.Value {
	items := make([]models.Value, len(widths))
	for i, w := range widths {
		items[i] = arrayOf(w, number)
	}
	return models.ArrayValue(items...)
}

func TestProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	parameters.Rng.Seed(4242)

	properties := gopter.NewProperties(parameters)

	properties.Property("node count is one plus the children", prop.ForAll(
		func(widths []int) bool {
			want := 1
			for _, w := range widths {
				want += 1 + w
			}
			return CountNodes(shaped(widths)) == want
		},
		gen.SliceOf(gen.IntRange(0, 120)),
	))

	properties.Property("every member is shown after expand-all and load-more", prop.ForAll(
		func(widths []int) bool {
			tr := Render(shaped(widths), element(atom.Div, ""), DefaultOptions())
			tr.ExpandAll()
			for _, id := range tr.Overflows() {
				if _, err := tr.LoadMore(id); err != nil {
					return false
				}
			}
			want := len(widths)
			for _, w := range widths {
				want += w
			}
			return len(QueryAll(tr.Root(), "json-tree-row")) == want && len(tr.Deferred()) == 0
		},
		gen.SliceOf(gen.IntRange(0, 120)),
	))

	properties.Property("materialization happens at most once per container", prop.ForAll(
		func(widths []int, clicks int) bool {
			tr := Render(shaped(widths), element(atom.Div, ""), DefaultOptions())
			deferred := len(tr.Deferred())
			for i := 0; i < clicks; i++ {
				for _, id := range tr.Containers() {
					_ = tr.Toggle(id)
					tr.Intersect(id)
				}
				tr.ExpandAll()
				tr.CollapseAll()
			}
			if clicks == 0 {
				return tr.Stats().Materializations == 0
			}
			return tr.Stats().Materializations == deferred
		},
		gen.SliceOf(gen.IntRange(0, 80)),
		gen.IntRange(0, 3),
	))

	properties.TestingRun(t)
}

func TestObserver(t *testing.T) {
	o := NewObserver("10px")
	assert.Equal(t, "10px", o.RootMargin())

	calls := 0
	o.Observe("b", func() { calls++ })
	o.Observe("a", func() { calls++ })
	assert.Equal(t, []string{"a", "b"}, o.Observed())
	assert.True(t, o.Observing("a"))

	assert.True(t, o.Intersect("a"))
	assert.False(t, o.Intersect("a"))
	assert.Equal(t, 1, calls)

	o.Unobserve("b")
	assert.False(t, o.Intersect("b"))
	assert.Equal(t, 0, o.Len())
	assert.Equal(t, 1, calls)
}

func newDocument() (*html.Node, *html.Node) {
	doc := &html.Node{Type: html.DocumentNode}
	root := element(atom.Html, "")
	head := element(atom.Head, "")
	body := element(atom.Body, "")
	mount := element(atom.Div, "", attribute("id", "mount"))
	doc.AppendChild(root)
	root.AppendChild(head)
	root.AppendChild(body)
	body.AppendChild(mount)
	return doc, mount
}

func countStyles(doc *html.Node) int {
	n := 0
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.ElementNode && node.DataAtom == atom.Style {
			if id, _ := Attr(node, "id"); id == StyleElementID {
				n++
			}
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return n
}

func TestAttachStyles(t *testing.T) {
	doc, mount := newDocument()

	Render(mustParseValue(`[1]`), mount, DefaultOptions())
	Render(mustParseValue(`{"a": 1}`), mount, DefaultOptions())
	assert.Equal(t, 1, countStyles(doc))

	assert.False(t, AttachStyles(doc))
	assert.False(t, AttachStyles(nil))

	other, _ := newDocument()
	assert.True(t, AttachStyles(other))
	assert.Equal(t, 1, countStyles(other))
}

func TestAttachStyles_NoHead(t *testing.T) {
	mount := element(atom.Div, "")
	Render(mustParseValue(`[1]`), mount, DefaultOptions())
	assert.Equal(t, 0, countStyles(mount))
}
