package tree

import (
	"context"
	"fmt"

	"github.com/mcncl/jsontree/internal/errors"
)

// Materialize renders the children of a deferred container. It reports
// whether anything was rendered; an already materialized container is left
// untouched.
func (t *Tree) Materialize(id string) (bool, error) {
	c, err := t.lookup(id)
	if err != nil {
		return false, err
	}
	return t.materialize(c), nil
}

// materialize replaces the placeholder with every member of the stored
// value. Nested containers are rendered with deferral off.
func (t *Tree) materialize(c *container) bool {
	if c.pending == nil {
		return false
	}
	v := *c.pending
	c.pending = nil

	clearChildren(c.children)
	removeAttr(c.children, "data-lazy-render")
	removeAttr(c.children, "data-observe")
	t.appendMembers(v, c.children, c.depth, false, 0, false)
	t.observer.Unobserve(c.id)
	t.materializations++

	t.log.Debug(context.Background(), "materialized deferred container",
		"node_id", c.id,
		"kind", c.kind.String(),
		"members", c.count,
	)
	return true
}

// LoadMore replaces a "more items" affordance with the remaining rows. The
// remainder is rendered in full with deferral off. It reports whether rows
// were added.
func (t *Tree) LoadMore(id string) (bool, error) {
	o, ok := t.overflows[id]
	if !ok {
		return false, errors.NewRenderError(fmt.Sprintf("no load-more affordance with id %q", id), errors.ErrUnknownNode)
	}
	if o.loaded {
		return false, nil
	}
	o.loaded = true

	if o.node.Parent != nil {
		o.node.Parent.RemoveChild(o.node)
	}
	t.appendMembers(o.value, o.children, o.depth, false, o.from, false)

	t.log.Debug(context.Background(), "loaded remaining items",
		"node_id", id,
		"from", o.from,
		"total", o.value.Len(),
	)
	return true, nil
}

// Intersect reports that the deferred containers with the given ids came
// within the root margin of the viewport. Each watcher fires once. It
// returns how many containers materialized.
func (t *Tree) Intersect(ids ...string) int {
	fired := 0
	for _, id := range ids {
		before := t.materializations
		if t.observer.Intersect(id) && t.materializations > before {
			fired++
		}
	}
	return fired
}
