package access

import (
	"sort"

	"ComplaintDesk/internal/auth"
)

// Field names a mutable complaint field.
type Field string

const (
	FieldTitle           Field = "title"
	FieldDescription     Field = "description"
	FieldCategory        Field = "category"
	FieldSubcategory     Field = "subcategory"
	FieldPriority        Field = "priority"
	FieldStatus          Field = "status"
	FieldAdminNotes      Field = "adminNotes"
	FieldResolutionNotes Field = "resolutionNotes"
	FieldAssignedTo      Field = "assignedTo"
	FieldFeedback        Field = "feedback"
)

// FieldSet is a set of writable fields.
type FieldSet map[Field]struct{}

func newFieldSet(fields ...Field) FieldSet {
	s := make(FieldSet, len(fields))
	for _, f := range fields {
		s[f] = struct{}{}
	}
	return s
}

// Has reports whether f is in the set.
func (s FieldSet) Has(f Field) bool {
	_, ok := s[f]
	return ok
}

// Sorted returns the fields in stable order.
func (s FieldSet) Sorted() []Field {
	out := make([]Field, 0, len(s))
	for f := range s {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

var (
	adminFields = []Field{
		FieldTitle, FieldDescription, FieldCategory, FieldSubcategory, FieldPriority,
		FieldStatus, FieldAdminNotes, FieldResolutionNotes, FieldAssignedTo,
	}
	staffFields   = []Field{FieldStatus, FieldAdminNotes}
	studentFields = []Field{FieldFeedback}
)

// WritableFields returns the fields identity may change on the resource.
//
// Feedback belongs to the owner alone, so it is never in the admin or
// staff set. Ownership grants it even when the owner's scope no longer
// covers the complaint, e.g. a staff member who changed department.
func WritableFields(identity auth.Identity, r Resource) FieldSet {
	if !CanAccess(identity, r, Write) {
		if isOwner(identity, r) {
			return newFieldSet(studentFields...)
		}
		return FieldSet{}
	}

	var fields []Field
	switch identity.Role {
	case auth.RoleAdmin:
		fields = append(fields, adminFields...)
	case auth.RoleStaff:
		fields = append(fields, staffFields...)
	}
	if isOwner(identity, r) {
		fields = append(fields, studentFields...)
	}
	return newFieldSet(fields...)
}

// CanWriteField reports whether identity may change field f on the resource.
func CanWriteField(identity auth.Identity, r Resource, f Field) bool {
	return WritableFields(identity, r).Has(f)
}

func isOwner(identity auth.Identity, r Resource) bool {
	return !identity.ID.IsZero() && r.OwnerID == identity.ID
}
