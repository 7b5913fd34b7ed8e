package auth

import (
	"github.com/google/uuid"

	"github.com/appetiteclub/tableside/pkg/enums/staffrole"
)

type ActorKind int

const (
	// ActorUnattributed acts on behalf of the restaurant without a staff
	// identity, e.g. a manager console. Ownership rules do not apply to it.
	ActorUnattributed ActorKind = iota
	ActorStaff
)

// Actor is the party requesting an order transition.
type Actor struct {
	Kind    ActorKind
	StaffID uuid.UUID
	Role    staffrole.Role
}

func Staff(id uuid.UUID, role staffrole.Role) Actor {
	return Actor{Kind: ActorStaff, StaffID: id, Role: role}
}

func Unattributed() Actor {
	return Actor{Kind: ActorUnattributed}
}

func (a Actor) IsStaff() bool {
	return a.Kind == ActorStaff && a.StaffID != uuid.Nil
}

func (a Actor) IsWaiter() bool {
	return a.IsStaff() && a.Role == staffrole.Roles.Waiter
}

func (a Actor) String() string {
	if !a.IsStaff() {
		return "unattributed"
	}
	return a.Role.Code() + ":" + a.StaffID.String()
}
