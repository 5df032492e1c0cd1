package temporal

import "fmt"

// Kind distinguishes the instants a Timepoint can denote.
type Kind int

const (
	// KindGlobalStart is the plan's global start instant.
	KindGlobalStart Kind = iota + 1
	// KindStart is the start instant of a container (action instance).
	KindStart
	// KindEnd is the end instant of a container.
	KindEnd
	// KindGlobalEnd is the plan's global end instant.
	KindGlobalEnd
)

// String implements fmt.Stringer.
func (k Kind) String() string {
	switch k {
	case KindGlobalStart:
		return "global-start"
	case KindStart:
		return "start"
	case KindEnd:
		return "end"
	case KindGlobalEnd:
		return "global-end"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Timepoint is the start or end instant of a named container, or one of the
// plan's two global instants. Timepoints are immutable values; equality and
// map identity are by (Kind, Container).
type Timepoint struct {
	Kind      Kind
	Container string // empty for global timepoints
}

// GlobalStart is the plan's fixed start timepoint.
func GlobalStart() Timepoint { return Timepoint{Kind: KindGlobalStart} }

// GlobalEnd is the plan's fixed end timepoint.
func GlobalEnd() Timepoint { return Timepoint{Kind: KindGlobalEnd} }

// StartOf is the start timepoint of the named container.
func StartOf(container string) Timepoint {
	return Timepoint{Kind: KindStart, Container: container}
}

// EndOf is the end timepoint of the named container.
func EndOf(container string) Timepoint {
	return Timepoint{Kind: KindEnd, Container: container}
}

// IsGlobal reports whether the timepoint is one of the two fixed plan nodes.
func (tp Timepoint) IsGlobal() bool {
	return tp.Kind == KindGlobalStart || tp.Kind == KindGlobalEnd
}

// String implements fmt.Stringer.
func (tp Timepoint) String() string {
	if tp.IsGlobal() {
		return tp.Kind.String()
	}
	return fmt.Sprintf("%s(%s)", tp.Kind, tp.Container)
}

// Less is a deterministic total order over timepoints: GlobalStart first,
// GlobalEnd last, container timepoints by (Container, Kind) between them.
// Used only to pick canonical directions and stable iteration orders.
func (tp Timepoint) Less(other Timepoint) bool {
	if tp == other {
		return false
	}
	ra, rb := tp.rank(), other.rank()
	if ra != rb {
		return ra < rb
	}
	if tp.Container != other.Container {
		return tp.Container < other.Container
	}
	return tp.Kind < other.Kind
}

func (tp Timepoint) rank() int {
	switch tp.Kind {
	case KindGlobalStart:
		return 0
	case KindGlobalEnd:
		return 2
	default:
		return 1
	}
}
