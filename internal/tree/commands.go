package tree

import (
	"context"
	"fmt"
	"strconv"

	"github.com/mcncl/jsontree/internal/errors"
)

// Action names an interaction a host can forward to the tree.
type Action string

const (
	ActionToggle      Action = "toggle"
	ActionLoadMore    Action = "load-more"
	ActionExpandAll   Action = "expand-all"
	ActionCollapseAll Action = "collapse-all"
	ActionIntersect   Action = "intersect"
)

// Event is an interaction delivered by a host (browser, terminal).
type Event struct {
	Action Action `json:"action"`
	NodeID string `json:"node_id,omitempty"`
}

// Dispatch routes an event to the matching operation.
func (t *Tree) Dispatch(ev Event) error {
	switch ev.Action {
	case ActionToggle:
		return t.Toggle(ev.NodeID)
	case ActionLoadMore:
		_, err := t.LoadMore(ev.NodeID)
		return err
	case ActionExpandAll:
		t.ExpandAll()
		return nil
	case ActionCollapseAll:
		t.CollapseAll()
		return nil
	case ActionIntersect:
		t.Intersect(ev.NodeID)
		return nil
	default:
		return errors.NewRenderError(fmt.Sprintf("action %q is not supported", ev.Action), errors.ErrUnknownAction)
	}
}

// Toggle flips a container between expanded and collapsed. Expanding a
// deferred container materializes it first.
func (t *Tree) Toggle(id string) error {
	c, err := t.lookup(id)
	if err != nil {
		return err
	}
	if c.expanded {
		t.setExpanded(c, false)
		return nil
	}
	t.materialize(c)
	t.setExpanded(c, true)
	return nil
}

// ExpandAll expands every container currently in the tree and materializes
// the deferred ones.
func (t *Tree) ExpandAll() {
	ids := t.Containers()
	revealed := 0
	for _, id := range ids {
		c := t.containers[id]
		t.setExpanded(c, true)
		if t.materialize(c) {
			revealed++
		}
	}
	t.log.Debug(context.Background(), "expanded all containers", "containers", len(ids), "materialized", revealed)
}

// CollapseAll hides the children of every container. Nothing is
// un-materialized.
func (t *Tree) CollapseAll() {
	for _, id := range t.order {
		t.setExpanded(t.containers[id], false)
	}
	t.log.Debug(context.Background(), "collapsed all containers", "containers", len(t.order))
}

func (t *Tree) setExpanded(c *container, expanded bool) {
	c.expanded = expanded
	if expanded {
		removeClass(c.toggle, "collapsed")
	} else {
		addClass(c.toggle, "collapsed")
	}
	setAttr(c.toggle, "aria-expanded", strconv.FormatBool(expanded))
	setVisible(c.children, expanded)
}
