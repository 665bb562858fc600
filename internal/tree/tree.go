// Package tree renders a JSON value as an interactive, incrementally revealed
// HTML tree.
//
// Render builds the visible part of the tree under a mount element and
// returns a *Tree. Large containers may be deferred: their children stay as
// a stored value until a toggle click, an expand-all, or (for virtualized
// trees) a viewport intersection materializes them. Materialization happens
// at most once per container. Collapsing only hides children.
//
// A Tree is not safe for concurrent use; hosts serialize events.
package tree

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/mcncl/jsontree/internal/errors"
	"github.com/mcncl/jsontree/internal/logging"
	"github.com/mcncl/jsontree/internal/models"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// container is the arena entry for one non-empty object or array.
type container struct {
	id       string
	kind     models.Kind
	depth    int
	count    int
	toggle   *html.Node
	children *html.Node
	expanded bool
	// pending holds the unrendered value while the container is deferred.
	pending *models.Value
}

// overflow is the arena entry for a "more items" affordance.
type overflow struct {
	node     *html.Node
	children *html.Node
	value    models.Value
	depth    int
	from     int
	loaded   bool
}

// Tree is one rendered JSON tree and the state behind its interactions.
type Tree struct {
	id       string
	mount    *html.Node
	root     *html.Node
	opts     Options
	policy   Policy
	log      logging.Logger
	observer *Observer

	seq        int
	containers map[string]*container
	order      []string
	overflows  map[string]*overflow

	overflowOrder []string

	materializations int
}

// Render clears mount and renders v into it. The mount keeps the controls
// bar and the tree; the returned Tree handles later interaction.
func Render(v models.Value, mount *html.Node, opts Options) *Tree {
	opts = opts.withDefaults()
	clearChildren(mount)
	AttachStyles(documentRoot(mount))

	policy := DecidePolicy(CountNodes(v), opts)
	t := &Tree{
		id:         uuid.NewString(),
		mount:      mount,
		opts:       opts,
		policy:     policy,
		observer:   NewObserver(opts.RootMargin),
		containers: make(map[string]*container),
		overflows:  make(map[string]*overflow),
	}
	t.log = opts.Logger.WithComponent("tree").With("tree_id", t.id)

	mount.AppendChild(t.controls())

	t.root = element(atom.Div, "json-tree",
		attribute("data-tree-id", t.id),
		attribute("data-node-count", fmt.Sprint(policy.NodeCount)),
		attribute("data-virtualized", fmt.Sprint(policy.Virtualized)),
	)
	t.renderNode(v, t.root, 0, policy.LazyEnabled)
	mount.AppendChild(t.root)

	if policy.Virtualized {
		t.observeDeferred()
	}

	t.log.Debug(context.Background(), "rendered json tree",
		"nodes", policy.NodeCount,
		"virtualized", policy.Virtualized,
		"lazy", policy.LazyEnabled,
		"containers", len(t.containers),
		"deferred", len(t.Deferred()),
	)
	return t
}

func (t *Tree) nextID() string {
	t.seq++
	return fmt.Sprintf("%s-%d", t.id, t.seq)
}

// observeDeferred registers a one-shot viewport watcher for every deferred
// container.
func (t *Tree) observeDeferred() {
	setAttr(t.root, "data-root-margin", t.opts.RootMargin)
	for _, id := range t.order {
		c := t.containers[id]
		if c.pending == nil {
			continue
		}
		setAttr(c.children, "data-observe", "true")
		t.observer.Observe(id, func() {
			t.materialize(c)
		})
	}
}

// controls builds the Expand All / Collapse All bar and node count summary.
func (t *Tree) controls() *html.Node {
	bar := element(atom.Div, "json-tree-controls mb-2")
	bar.AppendChild(t.button(ActionExpandAll, "bi bi-arrows-expand", "Expand All"))
	bar.AppendChild(t.button(ActionCollapseAll, "bi bi-arrows-collapse", "Collapse All"))

	summary := element(atom.Span, "text-muted small")
	summary.AppendChild(text(nodeSummary(t.opts.Lang, t.policy.NodeCount, t.policy.Virtualized)))
	bar.AppendChild(summary)
	return bar
}

func (t *Tree) button(action Action, icon, label string) *html.Node {
	b := element(atom.Button, "btn btn-sm btn-outline-secondary me-2",
		attribute("type", "button"),
		attribute("id", fmt.Sprintf("%s-%s", t.id, action)),
		attribute("data-action", string(action)),
		attribute("data-tree-id", t.id),
	)
	b.AppendChild(element(atom.I, icon))
	b.AppendChild(text(" " + label))
	return b
}

// nodeSummary formats "1,234 nodes (virtualized)" using the number
// conventions of lang.
func nodeSummary(lang string, count int, virtualized bool) string {
	tag, err := language.Parse(lang)
	if err != nil {
		tag = language.English
	}
	s := message.NewPrinter(tag).Sprintf("%d node", count)
	if count != 1 {
		s += "s"
	}
	if virtualized {
		s += " (virtualized)"
	}
	return s
}

// ID returns the tree's unique identifier.
func (t *Tree) ID() string { return t.id }

// Root returns the .json-tree element.
func (t *Tree) Root() *html.Node { return t.root }

// Mount returns the element the tree was rendered into.
func (t *Tree) Mount() *html.Node { return t.mount }

// Policy returns the decision made for this render.
func (t *Tree) Policy() Policy { return t.policy }

// Observer returns the viewport watcher registry.
func (t *Tree) Observer() *Observer { return t.observer }

// Containers returns the ids of all non-empty containers in creation order.
// Containers revealed later are appended.
func (t *Tree) Containers() []string {
	out := make([]string, len(t.order))
	copy(out, t.order)
	return out
}

// Deferred returns the ids of containers that are still deferred.
func (t *Tree) Deferred() []string {
	var out []string
	for _, id := range t.order {
		if t.containers[id].pending != nil {
			out = append(out, id)
		}
	}
	return out
}

// Overflows returns the ids of "more items" affordances not yet loaded, in
// creation order.
func (t *Tree) Overflows() []string {
	var out []string
	for _, id := range t.overflowOrder {
		if !t.overflows[id].loaded {
			out = append(out, id)
		}
	}
	return out
}

// Expanded reports whether the container is expanded.
func (t *Tree) Expanded(id string) (bool, error) {
	c, err := t.lookup(id)
	if err != nil {
		return false, err
	}
	return c.expanded, nil
}

// IsDeferred reports whether the container still awaits materialization.
func (t *Tree) IsDeferred(id string) (bool, error) {
	c, err := t.lookup(id)
	if err != nil {
		return false, err
	}
	return c.pending != nil, nil
}

// Children returns the children element of a container.
func (t *Tree) Children(id string) (*html.Node, error) {
	c, err := t.lookup(id)
	if err != nil {
		return nil, err
	}
	return c.children, nil
}

func (t *Tree) lookup(id string) (*container, error) {
	c, ok := t.containers[id]
	if !ok {
		return nil, errors.NewRenderError(fmt.Sprintf("no container with id %q", id), errors.ErrUnknownNode)
	}
	return c, nil
}

// Stats summarizes the current state of the tree.
type Stats struct {
	ID               string
	NodeCount        int
	Virtualized      bool
	LazyEnabled      bool
	Containers       int
	Deferred         int
	Observed         int
	Materializations int
}

// Stats returns counters describing the tree.
func (t *Tree) Stats() Stats {
	return Stats{
		ID:               t.id,
		NodeCount:        t.policy.NodeCount,
		Virtualized:      t.policy.Virtualized,
		LazyEnabled:      t.policy.LazyEnabled,
		Containers:       len(t.order),
		Deferred:         len(t.Deferred()),
		Observed:         t.observer.Len(),
		Materializations: t.materializations,
	}
}
