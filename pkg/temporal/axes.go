package temporal

import "time"

// TemporalAxes pins one axis to a single instant and describes the other
// (variable) axis as a [LimitedInterval], per spec §3.1. Construct one with
// [NewDecisionTimeAxes] or [NewTransactionTimeAxes] — the zero value is not
// valid.
type TemporalAxes struct {
	variable Axis // which axis varies; the other is pinned

	pinnedDecision    Timestamp[DecisionTime]
	pinnedTransaction Timestamp[TransactionTime]

	variableDecision    LimitedInterval[DecisionTime]
	variableTransaction LimitedInterval[TransactionTime]
}

// NewDecisionTimeAxes pins transaction time at pinnedAt and lets decision
// time vary over variable.
func NewDecisionTimeAxes(pinnedAt Timestamp[TransactionTime], variable LimitedInterval[DecisionTime]) TemporalAxes {
	return TemporalAxes{
		variable:          DecisionAxis,
		pinnedTransaction: pinnedAt,
		variableDecision:  variable,
	}
}

// NewTransactionTimeAxes pins decision time at pinnedAt and lets transaction
// time vary over variable.
func NewTransactionTimeAxes(pinnedAt Timestamp[DecisionTime], variable LimitedInterval[TransactionTime]) TemporalAxes {
	return TemporalAxes{
		variable:            TransactionAxis,
		pinnedDecision:      pinnedAt,
		variableTransaction: variable,
	}
}

// PinnedAxis reports which axis is pinned to a single instant.
func (a TemporalAxes) PinnedAxis() Axis {
	if a.variable == DecisionAxis {
		return TransactionAxis
	}
	return DecisionAxis
}

// VariableAxis reports which axis varies over an interval.
func (a TemporalAxes) VariableAxis() Axis { return a.variable }

// PinnedTimestamp returns the instant the pinned axis is fixed at, as a raw
// time.Time for axis-agnostic consumers such as the planner and the wire
// encoder.
func (a TemporalAxes) PinnedTimestamp() time.Time {
	if a.variable == DecisionAxis {
		return a.pinnedTransaction.Time()
	}
	return a.pinnedDecision.Time()
}

// DecisionTimestamp returns the pinned decision-time instant and true when
// the decision axis is pinned (i.e. the variable axis is transaction time).
func (a TemporalAxes) DecisionTimestamp() (Timestamp[DecisionTime], bool) {
	if a.variable == TransactionAxis {
		return a.pinnedDecision, true
	}
	return Timestamp[DecisionTime]{}, false
}

// TransactionTimestamp returns the pinned transaction-time instant and true
// when the transaction axis is pinned (i.e. the variable axis is decision time).
func (a TemporalAxes) TransactionTimestamp() (Timestamp[TransactionTime], bool) {
	if a.variable == DecisionAxis {
		return a.pinnedTransaction, true
	}
	return Timestamp[TransactionTime]{}, false
}

// DecisionInterval returns the variable decision-time interval and true when
// decision time is the variable axis.
func (a TemporalAxes) DecisionInterval() (LimitedInterval[DecisionTime], bool) {
	if a.variable == DecisionAxis {
		return a.variableDecision, true
	}
	return LimitedInterval[DecisionTime]{}, false
}

// TransactionInterval returns the variable transaction-time interval and
// true when transaction time is the variable axis.
func (a TemporalAxes) TransactionInterval() (LimitedInterval[TransactionTime], bool) {
	if a.variable == TransactionAxis {
		return a.variableTransaction, true
	}
	return LimitedInterval[TransactionTime]{}, false
}

// VariableBounds returns the variable axis's bounds as raw (kind, time)
// pairs, for consumers (the planner, the wire encoder) that work across both
// axes without the phantom type parameter.
func (a TemporalAxes) VariableBounds() (start, end RawBound) {
	if a.variable == DecisionAxis {
		return rawBoundOf(a.variableDecision.Start), rawBoundOf(a.variableDecision.End)
	}
	return rawBoundOf(a.variableTransaction.Start), rawBoundOf(a.variableTransaction.End)
}

// RawBound is the axis-agnostic wire/planner representation of a [Bound]:
// a bound kind plus the concrete instant, ignored when Kind is [Unbounded].
type RawBound struct {
	Kind BoundKind
	At   time.Time
}

func rawBoundOf[A any](b Bound[A]) RawBound {
	return RawBound{Kind: b.Kind, At: b.At.Time()}
}
