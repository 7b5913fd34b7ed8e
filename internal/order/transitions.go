package order

import "github.com/appetiteclub/tableside/pkg/enums/orderstatus"

var transitions = map[orderstatus.Status][]orderstatus.Status{
	orderstatus.Statuses.Pending:   {orderstatus.Statuses.Accepted, orderstatus.Statuses.Cancelled},
	orderstatus.Statuses.Accepted:  {orderstatus.Statuses.Preparing, orderstatus.Statuses.Cancelled},
	orderstatus.Statuses.Preparing: {orderstatus.Statuses.Ready, orderstatus.Statuses.Cancelled},
	orderstatus.Statuses.Ready:     {orderstatus.Statuses.Delivered},
}

// CanTransition reports whether the lifecycle allows moving from one status to another.
func CanTransition(from, to orderstatus.Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// NextStatuses lists the statuses reachable in one step. Terminal statuses have none.
func NextStatuses(from orderstatus.Status) []orderstatus.Status {
	next := transitions[from]
	out := make([]orderstatus.Status, len(next))
	copy(out, next)
	return out
}
