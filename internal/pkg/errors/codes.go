package errors

// Error code constants. Backend logs are always in English; clients key
// their copy off the code.

// Complaint error codes.
const (
	CodeComplaintNotFound = "COMPLAINT_NOT_FOUND"
	CodeFeedbackExists    = "FEEDBACK_ALREADY_SUBMITTED"
)

// Notification error codes.
const (
	CodeNotificationNotFound = "NOTIFICATION_NOT_FOUND"
)

// User / auth error codes.
const (
	CodeUserNotFound  = "USER_NOT_FOUND"
	CodeAuthFailed    = "AUTH_FAILED"
	CodeTokenInvalid  = "TOKEN_INVALID"
	CodeAccessDenied  = "ACCESS_DENIED"
	CodeRoleForbidden = "ROLE_FORBIDDEN"
)

// Validation error codes.
const (
	CodeValidationFailed = "VALIDATION_FAILED"
	CodeInvalidID        = "INVALID_ID"
)

// Generic error codes.
const (
	CodeInternal    = "INTERNAL_ERROR"
	CodePersistence = "PERSISTENCE_ERROR"
)

// Field error codes.
const (
	FieldRequired     = "required"
	FieldInvalid      = "invalid"
	FieldOutOfRange   = "out_of_range"
	FieldNotWritable  = "not_writable"
	FieldAlreadySet   = "already_set"
	FieldTooManyItems = "too_many_items"
)

// ErrAccessDenied is the single denial returned by every visibility check.
// It carries no detail about the hidden resource.
func ErrAccessDenied() *AppError {
	return Forbidden(CodeAccessDenied, "access denied")
}

// ErrValidation creates a field-level validation failure.
func ErrValidation(field, code, message string) *AppError {
	return Invalid(CodeValidationFailed, "validation failed").
		WithFields(FieldError{Field: field, Code: code, Message: message})
}

// ErrPersistence wraps a store failure behind a generic message.
func ErrPersistence(err error) *AppError {
	appErr := Internal(CodePersistence, "internal server error")
	appErr.Err = err
	return appErr
}
