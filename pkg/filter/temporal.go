package filter

import (
	"github.com/MrWong99/entigraph/pkg/authz"
	"github.com/MrWong99/entigraph/pkg/temporal"
)

// TemporalWhere compiles the bitemporal pinning a query always carries
// (spec §3.1, §4.6 item 2): the pinned axis is an `@>` range-contains check
// against a single instant, and the variable axis is an `&&` overlap check
// against the caller's requested interval. b is shared with the rest of the
// compiled statement so placeholders stay in one sequence.
func TemporalWhere(b *Builder, axes temporal.TemporalAxes, kind authz.ResourceKind) string {
	decisionCol, transactionCol := temporalColumns(kind)

	var pinnedExpr string
	if ts, ok := axes.DecisionTimestamp(); ok {
		pinnedExpr = decisionCol + " @> " + b.Next(ts.Time()) + "::timestamptz"
	} else if ts, ok := axes.TransactionTimestamp(); ok {
		pinnedExpr = transactionCol + " @> " + b.Next(ts.Time()) + "::timestamptz"
	}

	variableCol := decisionCol
	if axes.VariableAxis() == temporal.TransactionAxis {
		variableCol = transactionCol
	}
	start, end := axes.VariableBounds()
	variableExpr := variableCol + " && " + rangeLiteral(b, start, end)

	return "(" + pinnedExpr + ") AND (" + variableExpr + ")"
}

func temporalColumns(kind authz.ResourceKind) (decision, transaction string) {
	if kind == authz.ResourceEntity {
		return "e.decision_time", "e.transaction_time"
	}
	return "o.decision_time", "o.transaction_time"
}

// rangeLiteral renders a Postgres tstzrange(start, end, bounds) constructor
// call for a variable-axis interval, binding each finite endpoint as its own
// positional argument and passing NULL for an unbounded side — the
// constructor treats a NULL endpoint as +/-infinity.
func rangeLiteral(b *Builder, start, end temporal.RawBound) string {
	startArg := "NULL"
	if start.Kind != temporal.Unbounded {
		startArg = b.Next(start.At) + "::timestamptz"
	}
	endArg := "NULL"
	if end.Kind != temporal.Unbounded {
		endArg = b.Next(end.At) + "::timestamptz"
	}
	bounds := rangeBoundsLiteral(start, end)
	return "tstzrange(" + startArg + ", " + endArg + ", '" + bounds + "')"
}

// rangeBoundsLiteral renders the two-character Postgres range bound flag
// ("[)", "()", "[]", "(]") for a pair of endpoints. An unbounded side is
// always rendered exclusive, matching Postgres's own NULL-endpoint
// convention.
func rangeBoundsLiteral(start, end temporal.RawBound) string {
	open := "["
	if start.Kind != temporal.Inclusive {
		open = "("
	}
	closeB := ")"
	if end.Kind == temporal.Inclusive {
		closeB = "]"
	}
	return open + closeB
}
