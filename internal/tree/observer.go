package tree

import "sort"

// Observer holds one-shot viewport watchers keyed by node id. A watcher is
// removed before its callback runs, so it fires at most once.
type Observer struct {
	rootMargin string
	callbacks  map[string]func()
}

// NewObserver creates an empty registry.
func NewObserver(rootMargin string) *Observer {
	return &Observer{
		rootMargin: rootMargin,
		callbacks:  make(map[string]func()),
	}
}

// RootMargin is how far outside the viewport an element still counts as
// visible, in CSS margin syntax.
func (o *Observer) RootMargin() string { return o.rootMargin }

// Observe registers fn for id, replacing any previous watcher.
func (o *Observer) Observe(id string, fn func()) {
	o.callbacks[id] = fn
}

// Unobserve drops the watcher for id, if any.
func (o *Observer) Unobserve(id string) {
	delete(o.callbacks, id)
}

// Observing reports whether id has a live watcher.
func (o *Observer) Observing(id string) bool {
	_, ok := o.callbacks[id]
	return ok
}

// Intersect fires and disposes the watcher for id. It reports whether a
// watcher was registered.
func (o *Observer) Intersect(id string) bool {
	fn, ok := o.callbacks[id]
	if !ok {
		return false
	}
	delete(o.callbacks, id)
	fn()
	return true
}

// Len returns the number of live watchers.
func (o *Observer) Len() int { return len(o.callbacks) }

// Observed returns the ids with live watchers, sorted.
func (o *Observer) Observed() []string {
	ids := make([]string, 0, len(o.callbacks))
	for id := range o.callbacks {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
