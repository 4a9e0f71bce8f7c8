package deletion

import (
	"fmt"

	"github.com/MrWong99/entigraph/pkg/ids"
)

// InvalidDecisionTime is returned when params.DecisionTime names an instant
// after the transaction-time clock at call start (spec §4.7 step 1).
type InvalidDecisionTime struct {
	DecisionTime    string
	TransactionTime string
}

func (e *InvalidDecisionTime) Error() string {
	return fmt.Sprintf("deletion: decision time %s is after transaction time %s", e.DecisionTime, e.TransactionTime)
}

// DependentLinkExists is returned when Scope.LinkBehavior is [Ignore] and a
// live link entity outside the deletion set references a selected entity
// (spec §4.7 step 6 failure mode).
type DependentLinkExists struct {
	EntityUuid     ids.EntityUuid
	LinkEntityUuid ids.EntityUuid
}

func (e *DependentLinkExists) Error() string {
	return fmt.Sprintf("deletion: entity %s is referenced by link entity %s", e.EntityUuid, e.LinkEntityUuid)
}

// Unauthorized is returned when actor may not Delete one of the selected
// entities. Per spec §7's policy-error guidance it names the offending
// entity but never which rule matched.
type Unauthorized struct {
	EntityUuid ids.EntityUuid
}

func (e *Unauthorized) Error() string {
	return fmt.Sprintf("deletion: actor is not authorized to delete entity %s", e.EntityUuid)
}
