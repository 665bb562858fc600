package tree

import "github.com/mcncl/jsontree/internal/logging"

// Reference thresholds.
const (
	// VirtualizationThreshold is the node count above which a tree is
	// flagged virtualized and deferred nodes get viewport watchers.
	VirtualizationThreshold = 1000
	// LazyRenderThreshold is the member count above which a container's
	// children are deferred.
	LazyRenderThreshold = 50
	// MaxInitialRender is the member count above which an eagerly rendered
	// container shows a "more items" affordance.
	MaxInitialRender = 100
	// DefaultRootMargin is how close to the viewport a deferred node must
	// come before it materializes.
	DefaultRootMargin = "50px"
)

// Thresholds are the size limits that shape a render.
type Thresholds struct {
	Virtualization   int
	LazyRender       int
	MaxInitialRender int
}

// DefaultThresholds returns the reference thresholds.
func DefaultThresholds() Thresholds {
	return Thresholds{
		Virtualization:   VirtualizationThreshold,
		LazyRender:       LazyRenderThreshold,
		MaxInitialRender: MaxInitialRender,
	}
}

// Options configures a render. The zero value renders lazily with the
// reference thresholds.
type Options struct {
	// DisableLazy renders every level eagerly, subject only to the
	// MaxInitialRender cap.
	DisableLazy bool
	Thresholds Thresholds
	RootMargin string
	// Lang selects number formatting in the controls bar.
	Lang   string
	Logger logging.Logger
}

// DefaultOptions returns options with lazy rendering on and the reference
// thresholds.
func DefaultOptions() Options {
	return Options{
		Thresholds: DefaultThresholds(),
		RootMargin: DefaultRootMargin,
		Lang:       "en",
	}
}

func (o Options) withDefaults() Options {
	d := DefaultThresholds()
	if o.Thresholds.Virtualization <= 0 {
		o.Thresholds.Virtualization = d.Virtualization
	}
	if o.Thresholds.LazyRender <= 0 {
		o.Thresholds.LazyRender = d.LazyRender
	}
	if o.Thresholds.MaxInitialRender <= 0 {
		o.Thresholds.MaxInitialRender = d.MaxInitialRender
	}
	if o.RootMargin == "" {
		o.RootMargin = DefaultRootMargin
	}
	if o.Lang == "" {
		o.Lang = "en"
	}
	if o.Logger == nil {
		o.Logger = logging.Nop()
	}
	return o
}

// Policy is decided once per render and shared by every node.
type Policy struct {
	NodeCount   int
	Virtualized bool
	LazyEnabled bool
}

// DecidePolicy applies the thresholds to a node count.
func DecidePolicy(nodeCount int, opts Options) Policy {
	opts = opts.withDefaults()
	return Policy{
		NodeCount:   nodeCount,
		Virtualized: nodeCount > opts.Thresholds.Virtualization,
		LazyEnabled: !opts.DisableLazy,
	}
}
