package auth

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	apperrors "ComplaintDesk/internal/pkg/errors"
)

// Role is the organizational role of a user.
type Role string

const (
	RoleStudent Role = "student"
	RoleStaff   Role = "staff"
	RoleAdmin   Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleStaff, RoleAdmin:
		return true
	}
	return false
}

// ErrUnknownRole is returned for a stored user whose role is not one of the
// known roles.
func ErrUnknownRole() *apperrors.AppError {
	return apperrors.Forbidden(apperrors.CodeRoleForbidden, "unknown role")
}

// User is a person known to the system.
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	FirstName    string             `bson:"first_name" json:"firstName"`
	LastName     string             `bson:"last_name" json:"lastName"`
	Email        string             `bson:"email" json:"email"`                 // Stored lowercase
	Phone        string             `bson:"phone" json:"phone"`                 // 10-digit mobile number
	PasswordHash string             `bson:"password_hash" json:"-"`             // bcrypt hash, never serialized
	Role         Role               `bson:"role" json:"role"`                   // student, staff, admin
	School       string             `bson:"school" json:"school"`               // Empty for admin
	Department   string             `bson:"department" json:"department"`       // May be empty for staff, always empty for admin
	StudentID    string             `bson:"student_id,omitempty" json:"studentId,omitempty"`
	CourseYear   string             `bson:"course_year,omitempty" json:"courseYear,omitempty"`
	CreatedAt    time.Time          `bson:"created_at" json:"createdAt"`
}

// FullName returns "First Last".
func (u *User) FullName() string {
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// Identity is the authenticated actor of a request.
type Identity struct {
	ID         primitive.ObjectID
	Role       Role
	School     string
	Department string
}

// IdentityOf derives the request identity from a freshly loaded user.
// Admins never carry organizational scope.
func IdentityOf(u *User) Identity {
	id := Identity{
		ID:         u.ID,
		Role:       u.Role,
		School:     u.School,
		Department: u.Department,
	}
	if u.Role == RoleAdmin {
		id.School = ""
		id.Department = ""
	}
	return id
}

// IsAdmin reports whether the identity has the admin role.
func (i Identity) IsAdmin() bool { return i.Role == RoleAdmin }

// Credential is the login request body.
type Credential struct {
	Identifier string `json:"identifier"` // email or phone
	Password   string `json:"password"`
}
