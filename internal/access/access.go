// Package access decides which complaints an identity may read or change.
//
// Every complaint operation goes through CanAccess and WritableFields; list
// queries go through ScopeFor. Scope.Matches agrees with CanAccess(Read) for
// every identity and resource, so a complaint shows up in a listing exactly
// when it can be opened.
//
// Rules:
//   - admin => read and write everything
//   - student => own complaints only; the only writable field is feedback
//   - staff with a department => same school AND (same department OR assignee)
//   - staff without a department => same school OR assignee
//
// School and department comparisons are trimmed and case-folded.
package access

import (
	"go.mongodb.org/mongo-driver/bson/primitive"

	"ComplaintDesk/internal/auth"
)

// Mode is the kind of access requested.
type Mode int

const (
	Read Mode = iota
	Write
)

func (m Mode) String() string {
	if m == Write {
		return "write"
	}
	return "read"
}

// Resource is the part of a complaint the resolver looks at. School and
// Department are the snapshot taken when the complaint was created.
type Resource struct {
	OwnerID    primitive.ObjectID
	School     string
	Department string
	AssignedTo *primitive.ObjectID
}

func (r Resource) assignedTo(id primitive.ObjectID) bool {
	return r.AssignedTo != nil && !r.AssignedTo.IsZero() && *r.AssignedTo == id
}

// CanAccess reports whether identity may read or write the resource.
// Access is symmetric between modes; what differs is the set of fields
// each role may change (see WritableFields). The decision is the listing
// scope applied to a single resource, so the two can never drift apart.
func CanAccess(identity auth.Identity, r Resource, mode Mode) bool {
	return ScopeFor(identity).Matches(r)
}
