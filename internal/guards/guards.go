// Package guards holds the size and complexity limits that decide whether a
// JSON document may be handed to the tree renderer at all.
package guards

import (
	"fmt"

	"github.com/mcncl/jsontree/internal/errors"
	"github.com/mcncl/jsontree/internal/models"
)

// Limits bounds what the tree view will accept.
type Limits struct {
	WarningSize  int64
	MaxSize      int64
	MaxTreeDepth int
	MaxTreeNodes int
}

// DefaultLimits returns the stock limits: warn at 1 MiB, reject above 5 MiB,
// at most 50 levels and 10000 nodes.
func DefaultLimits() Limits {
	return Limits{
		WarningSize:  1024 * 1024,
		MaxSize:      5 * 1024 * 1024,
		MaxTreeDepth: 50,
		MaxTreeNodes: 10000,
	}
}

// SizeCheck is the verdict on the raw input size.
type SizeCheck struct {
	Allowed bool
	Size    int64
	Warning bool
	Message string
}

// CheckSize classifies an input of size bytes.
func (l Limits) CheckSize(size int64) SizeCheck {
	if size > l.MaxSize {
		return SizeCheck{
			Allowed: false,
			Size:    size,
			Warning: true,
			Message: fmt.Sprintf("File too large (%s). Maximum size is %s.", megabytes(size), megabytes(l.MaxSize)),
		}
	}
	if size > l.WarningSize {
		return SizeCheck{
			Allowed: true,
			Size:    size,
			Warning: true,
			Message: fmt.Sprintf("Large file (%s). Processing may be slow.", megabytes(size)),
		}
	}
	return SizeCheck{Allowed: true, Size: size}
}

// Err returns a guard error when the size is not allowed.
func (c SizeCheck) Err() error {
	if c.Allowed {
		return nil
	}
	return errors.NewGuardError(c.Message, errors.ErrTooLarge)
}

func megabytes(n int64) string {
	return fmt.Sprintf("%.2f MB", float64(n)/1024/1024)
}

// Depth returns the nesting depth of v, where a primitive root is depth 0.
// The walk stops descending once it is past limit, so the result is at most
// limit+1 for anything deeper.
func Depth(v models.Value, limit int) int {
	return depth(v, 0, limit)
}

func depth(v models.Value, current, limit int) int {
	if current > limit {
		return current
	}
	deepest := current
	switch v.Kind() {
	case models.Object:
		for _, m := range v.Members() {
			deepest = max(deepest, depth(m.Value, current+1, limit))
		}
	case models.Array:
		for _, item := range v.Items() {
			deepest = max(deepest, depth(item, current+1, limit))
		}
	}
	return deepest
}

// CountNodes counts values in v and stops once maxCount is reached.
func CountNodes(v models.Value, maxCount int) int {
	count := 0
	var walk func(models.Value) bool
	walk = func(n models.Value) bool {
		if count >= maxCount {
			return false
		}
		count++
		switch n.Kind() {
		case models.Object:
			for _, m := range n.Members() {
				if !walk(m.Value) {
					return false
				}
			}
		case models.Array:
			for _, item := range n.Items() {
				if !walk(item) {
					return false
				}
			}
		}
		return true
	}
	walk(v)
	return count
}

// Verdict reports whether a parsed document fits the tree view limits.
type Verdict struct {
	Allowed bool
	Depth   int
	Nodes   int
	Reason  string
}

// CanRenderTree checks depth first, then node count.
func (l Limits) CanRenderTree(v models.Value) Verdict {
	d := Depth(v, l.MaxTreeDepth)
	if d > l.MaxTreeDepth {
		return Verdict{
			Depth:  d,
			Reason: fmt.Sprintf("JSON too deeply nested (%d levels). Maximum depth is %d.", d, l.MaxTreeDepth),
		}
	}

	// Count one past the limit so an over-limit document is detectable.
	nodes := CountNodes(v, l.MaxTreeNodes+1)
	if nodes > l.MaxTreeNodes {
		return Verdict{
			Depth:  d,
			Nodes:  nodes,
			Reason: fmt.Sprintf("JSON too complex (%d nodes). Maximum is %d nodes.", nodes, l.MaxTreeNodes),
		}
	}

	return Verdict{Allowed: true, Depth: d, Nodes: nodes}
}

// Err returns a guard error wrapping ErrTooDeep or ErrTooManyNodes.
func (v Verdict) Err() error {
	if v.Allowed {
		return nil
	}
	sentinel := errors.ErrTooManyNodes
	if v.Nodes == 0 {
		sentinel = errors.ErrTooDeep
	}
	return errors.NewGuardError(v.Reason, sentinel)
}

// Check runs the size and complexity guards over a parsed document.
func (l Limits) Check(doc models.Document) (SizeCheck, Verdict, error) {
	size := l.CheckSize(doc.Size)
	if err := size.Err(); err != nil {
		return size, Verdict{}, err
	}
	verdict := l.CanRenderTree(doc.Root)
	return size, verdict, verdict.Err()
}
