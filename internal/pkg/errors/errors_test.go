package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindStatus(t *testing.T) {
	tests := []struct {
		err  *AppError
		kind Kind
		want int
	}{
		{NotFound(CodeComplaintNotFound, "complaint not found"), KindNotFound, http.StatusNotFound},
		{ErrAccessDenied(), KindAccessDenied, http.StatusForbidden},
		{ErrValidation("title", FieldRequired, ""), KindValidation, http.StatusBadRequest},
		{Unauthenticated(CodeTokenInvalid, "invalid token"), KindUnauthenticated, http.StatusUnauthorized},
		{ErrPersistence(errors.New("x")), KindInternal, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Code, func(t *testing.T) {
			assert.Equal(t, tt.kind, tt.err.Kind)
			assert.Equal(t, tt.want, tt.err.Status())
		})
	}
	assert.Equal(t, http.StatusInternalServerError, Kind(99).Status())
}

func TestPersistenceWrapsCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := ErrPersistence(cause)

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "connection reset")
	assert.Equal(t, "internal server error", err.Message)
}

func TestAsThroughWrapping(t *testing.T) {
	wrapped := fmt.Errorf("get complaint: %w", NotFound(CodeComplaintNotFound, "complaint not found"))

	appErr, ok := As(wrapped)
	require.True(t, ok)
	assert.Equal(t, CodeComplaintNotFound, appErr.Code)
	assert.True(t, HasCode(wrapped, CodeComplaintNotFound))
	assert.False(t, HasCode(errors.New("plain"), CodeComplaintNotFound))
}

func TestErrValidationCarriesField(t *testing.T) {
	err := ErrValidation("rating", FieldOutOfRange, "rating must be between 1 and 5")

	require.Len(t, err.Fields, 1)
	assert.Equal(t, "rating", err.Fields[0].Field)
	assert.Equal(t, FieldOutOfRange, err.Fields[0].Code)
}

func TestErrAccessDeniedIsGeneric(t *testing.T) {
	err := ErrAccessDenied()
	assert.Equal(t, "access denied", err.Message)
	assert.Empty(t, err.Fields)
}
