package orderstatus

import (
	"strings"
)

type Status struct {
	Name string
}

func (s Status) Code() string {
	return s.Name
}

// IsTerminal reports whether no transition leaves this status.
func (s Status) IsTerminal() bool {
	return s == Statuses.Delivered || s == Statuses.Cancelled
}

func (s Status) IsZero() bool {
	return s.Name == ""
}

type Enum struct {
	Pending   Status
	Accepted  Status
	Preparing Status
	Ready     Status
	Delivered Status
	Cancelled Status
}

var Statuses = Enum{
	Pending:   Status{Name: "PENDING"},
	Accepted:  Status{Name: "ACCEPTED"},
	Preparing: Status{Name: "PREPARING"},
	Ready:     Status{Name: "READY"},
	Delivered: Status{Name: "DELIVERED"},
	Cancelled: Status{Name: "CANCELLED"},
}

var All = []Status{
	Statuses.Pending,
	Statuses.Accepted,
	Statuses.Preparing,
	Statuses.Ready,
	Statuses.Delivered,
	Statuses.Cancelled,
}

// Active lists the statuses an order can still leave, in lifecycle order.
var Active = []Status{
	Statuses.Pending,
	Statuses.Accepted,
	Statuses.Preparing,
	Statuses.Ready,
}

var Terminal = []Status{
	Statuses.Delivered,
	Statuses.Cancelled,
}

// ByName returns the status for a given name, or nil if not found.
// Matching is case-insensitive so "preparing" and "PREPARING" resolve alike.
func ByName(name string) *Status {
	for _, s := range All {
		if strings.EqualFold(s.Name, name) {
			return &s
		}
	}
	return nil
}

// Names returns the wire names of the given statuses.
func Names(statuses []Status) []string {
	names := make([]string, 0, len(statuses))
	for _, s := range statuses {
		names = append(names, s.Name)
	}
	return names
}
