package temporal

import (
	"errors"
	"fmt"
	"time"
)

// ErrAxesMustDiffer is returned by [UnresolvedAxes.Resolve] when the pinned
// and variable axis name the same axis.
var ErrAxesMustDiffer = errors.New("temporal: pinned axis and variable axis must differ")

// UnresolvedBound is the wire representation of one endpoint of the variable
// axis interval before defaulting: either a concrete (kind, instant) pair or
// absent (nil in the containing [UnresolvedAxes]), meaning "apply the
// caller's default".
type UnresolvedBound struct {
	Kind BoundKind
	At   time.Time // meaningful only when Kind != Unbounded
}

// UnresolvedAxes is the wire shape of a structural query's temporal axes
// (spec §6): a pinned axis with an optional timestamp (nil resolves to
// now()), and a variable axis with optional start/end bounds (a nil start
// resolves to unbounded, a nil end resolves to an inclusive bound at now()).
type UnresolvedAxes struct {
	PinnedAxis    Axis
	PinnedAt      *time.Time
	VariableAxis  Axis
	VariableStart *UnresolvedBound
	VariableEnd   *UnresolvedBound
}

// Resolve substitutes now for every omitted endpoint and produces a concrete
// [TemporalAxes]. now is passed in explicitly (rather than calling time.Now
// internally) so that resolution is deterministic and testable.
func (u UnresolvedAxes) Resolve(now time.Time) (TemporalAxes, error) {
	if u.PinnedAxis == u.VariableAxis {
		return TemporalAxes{}, ErrAxesMustDiffer
	}

	pinnedAt := now
	if u.PinnedAt != nil {
		pinnedAt = *u.PinnedAt
	}

	start := UnresolvedBound{Kind: Unbounded}
	if u.VariableStart != nil {
		start = *u.VariableStart
	}
	end := UnresolvedBound{Kind: Inclusive, At: now}
	if u.VariableEnd != nil {
		end = *u.VariableEnd
	}

	switch u.VariableAxis {
	case DecisionAxis:
		iv, err := NewLimitedInterval(toBound[DecisionTime](start), toBound[DecisionTime](end))
		if err != nil {
			return TemporalAxes{}, err
		}
		return NewDecisionTimeAxes(TimestampFrom[TransactionTime](pinnedAt), iv), nil
	case TransactionAxis:
		iv, err := NewLimitedInterval(toBound[TransactionTime](start), toBound[TransactionTime](end))
		if err != nil {
			return TemporalAxes{}, err
		}
		return NewTransactionTimeAxes(TimestampFrom[DecisionTime](pinnedAt), iv), nil
	default:
		return TemporalAxes{}, fmt.Errorf("temporal: unknown axis %v", u.VariableAxis)
	}
}

func toBound[A any](b UnresolvedBound) Bound[A] {
	switch b.Kind {
	case Inclusive:
		return InclusiveBound(TimestampFrom[A](b.At))
	case Exclusive:
		return ExclusiveBound(TimestampFrom[A](b.At))
	default:
		return UnboundedBound[A]()
	}
}

// DefaultEntityQueryAxes builds the default axes used when an entity query
// does not specify decision_time (spec §4.5 item 2): transaction time pinned
// at now, decision time unbounded-to-now.
func DefaultEntityQueryAxes(now time.Time) TemporalAxes {
	iv, err := NewLimitedInterval(UnboundedBound[DecisionTime](), InclusiveBound(TimestampFrom[DecisionTime](now)))
	if err != nil {
		// now > zero-value always holds; this branch is unreachable.
		panic(err)
	}
	return NewDecisionTimeAxes(TimestampFrom[TransactionTime](now), iv)
}
