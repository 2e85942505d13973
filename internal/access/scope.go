package access

import (
	"go.mongodb.org/mongo-driver/bson/primitive"

	"ComplaintDesk/internal/auth"
)

// Scope restricts a complaint listing to what an identity may read.
// The zero value matches nothing.
type Scope struct {
	Unrestricted bool

	// OwnerID restricts to complaints filed by this user (students).
	OwnerID primitive.ObjectID

	// Staff scope. AssigneeID is always honored; School and Department
	// are compared normalized. An empty Department means the whole school.
	Staff      bool
	AssigneeID primitive.ObjectID
	School     string
	Department string
}

// ScopeFor returns the listing scope of identity.
func ScopeFor(identity auth.Identity) Scope {
	switch identity.Role {
	case auth.RoleAdmin:
		return Scope{Unrestricted: true}
	case auth.RoleStudent:
		return Scope{OwnerID: identity.ID}
	case auth.RoleStaff:
		return Scope{
			Staff:      true,
			AssigneeID: identity.ID,
			School:     identity.School,
			Department: auth.NormalizeScope(identity.Department),
		}
	default:
		return Scope{}
	}
}

// Matches reports whether r falls inside the scope.
func (s Scope) Matches(r Resource) bool {
	switch {
	case s.Unrestricted:
		return true
	case s.Staff:
		isAssigned := !s.AssigneeID.IsZero() && r.assignedTo(s.AssigneeID)
		sameSchool := auth.NormalizeScope(r.School) == auth.NormalizeScope(s.School)
		if s.Department == "" {
			return sameSchool || isAssigned
		}
		sameDept := auth.NormalizeScope(r.Department) == auth.NormalizeScope(s.Department)
		return sameSchool && (sameDept || isAssigned)
	case !s.OwnerID.IsZero():
		return r.OwnerID == s.OwnerID
	default:
		return false
	}
}
