package auth

import (
	"net/http"

	"github.com/labstack/echo/v4"

	apperrors "ComplaintDesk/internal/pkg/errors"
)

// ContextKeyUser and ContextKeyIdentity are the echo context keys set by the
// identity middleware.
const (
	ContextKeyUser     = "user"
	ContextKeyIdentity = "identity"
)

// AuthHandler exposes login and profile endpoints.
type AuthHandler struct {
	service *UserService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(service *UserService) *AuthHandler {
	return &AuthHandler{service: service}
}

// Login exchanges an email/phone + password for an access token.
func (h *AuthHandler) Login(c echo.Context) error {
	var cred Credential
	if err := c.Bind(&cred); err != nil {
		return apperrors.Invalid(apperrors.CodeValidationFailed, "invalid request body")
	}

	token, user, err := h.service.AuthenticateUser(c.Request().Context(), cred)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"token": token,
		"user":  profileOf(user),
	})
}

// Profile returns the authenticated user.
func (h *AuthHandler) Profile(c echo.Context) error {
	user, ok := c.Get(ContextKeyUser).(*User)
	if !ok || user == nil {
		return apperrors.Unauthenticated(apperrors.CodeTokenInvalid, "invalid or missing token")
	}
	return c.JSON(http.StatusOK, profileOf(user))
}

func profileOf(u *User) map[string]interface{} {
	return map[string]interface{}{
		"id":         u.ID.Hex(),
		"name":       u.FullName(),
		"email":      u.Email,
		"role":       u.Role,
		"school":     u.School,
		"department": u.Department,
	}
}

// IdentityFrom returns the identity stored by the middleware.
func IdentityFrom(c echo.Context) (Identity, bool) {
	id, ok := c.Get(ContextKeyIdentity).(Identity)
	return id, ok
}
