// Package status holds the candidate lifecycle: the closed set of statuses and the single
// transition function every signal path goes through.
package status

import (
	"strings"

	"cv-status/internal/apperr"
)

// Status is a candidate's position in the outreach lifecycle.
type Status string

const (
	Pending       Status = "PENDING"
	Emailed       Status = "EMAILED"
	EmailOpened   Status = "EMAIL_OPENED"
	Replied       Status = "REPLIED"
	Interested    Status = "INTERESTED"
	NotInterested Status = "NOT_INTERESTED"
)

// All lists every status in lifecycle order.
var All = []Status{Pending, Emailed, EmailOpened, Replied, Interested, NotInterested}

// Valid reports whether s is one of the six known statuses.
func (s Status) Valid() bool {
	switch s {
	case Pending, Emailed, EmailOpened, Replied, Interested, NotInterested:
		return true
	}
	return false
}

// IsTerminal reports whether no automatic signal can move s further.
func (s Status) IsTerminal() bool {
	return s == Interested || s == NotInterested
}

func (s Status) String() string { return string(s) }

// Parse converts a boundary string into a Status. Surrounding whitespace is ignored,
// case is not: the wire values are exactly the six upper-case names.
func Parse(raw string) (Status, error) {
	s := Status(strings.TrimSpace(raw))
	if !s.Valid() {
		return "", apperr.Validationf("invalid status %q: must be one of %s", raw, joinAll())
	}
	return s, nil
}

func joinAll() string {
	names := make([]string, len(All))
	for i, s := range All {
		names[i] = string(s)
	}
	return strings.Join(names, ", ")
}
