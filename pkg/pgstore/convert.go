package pgstore

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/MrWong99/entigraph/pkg/ids"
	"github.com/MrWong99/entigraph/pkg/temporal"
)

// actorToColumns splits an ActorId's sum-type payload into the three
// columns every editions table carries for provenance: a discriminating
// kind string plus one nullable uuid column per variant, matching the
// teacher's preference for plain columns over a custom composite type.
func actorToColumns(a ids.ActorId) (kind string, user, machine *uuid.UUID) {
	switch a.Kind {
	case ids.ActorMachine:
		m := uuid.UUID(a.Machine)
		return "machine", nil, &m
	default:
		u := uuid.UUID(a.User)
		return "user", &u, nil
	}
}

// columnsToActor reverses actorToColumns.
func columnsToActor(kind string, user, machine *uuid.UUID) (ids.ActorId, error) {
	switch kind {
	case "machine":
		if machine == nil {
			return ids.ActorId{}, fmt.Errorf("pgstore: actor kind machine with no machine id")
		}
		return ids.NewMachineActor(ids.MachineId(*machine)), nil
	case "user":
		if user == nil {
			return ids.ActorId{}, fmt.Errorf("pgstore: actor kind user with no user id")
		}
		return ids.NewUserActor(ids.UserId(*user)), nil
	default:
		return ids.ActorId{}, fmt.Errorf("pgstore: unknown actor kind %q", kind)
	}
}

// boundToColumns flattens a Bound[A] into its (kind, at) column pair. Storing
// the four inclusive/exclusive/unbounded combinations as plain columns
// rather than a native tstzrange preserves exactly the distinctions
// [temporal.Interval] needs (spec §3.1) — tstzrange's canonical form would
// collapse some of them.
func boundToColumns[A any](b temporal.Bound[A]) (kind string, at *time.Time) {
	kind = b.Kind.String()
	if b.Kind == temporal.Unbounded {
		return kind, nil
	}
	t := b.At.Time()
	return kind, &t
}

// columnsToBound reverses boundToColumns.
func columnsToBound[A any](kind string, at *time.Time) (temporal.Bound[A], error) {
	switch kind {
	case "unbounded":
		return temporal.UnboundedBound[A](), nil
	case "inclusive":
		if at == nil {
			return temporal.Bound[A]{}, fmt.Errorf("pgstore: inclusive bound with no timestamp")
		}
		return temporal.InclusiveBound(temporal.TimestampFrom[A](*at)), nil
	case "exclusive":
		if at == nil {
			return temporal.Bound[A]{}, fmt.Errorf("pgstore: exclusive bound with no timestamp")
		}
		return temporal.ExclusiveBound(temporal.TimestampFrom[A](*at)), nil
	default:
		return temporal.Bound[A]{}, fmt.Errorf("pgstore: unknown bound kind %q", kind)
	}
}
