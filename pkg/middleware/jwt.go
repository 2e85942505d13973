package middleware

import (
	"context"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"ComplaintDesk/internal/auth"
	apperrors "ComplaintDesk/internal/pkg/errors"
	"ComplaintDesk/internal/pkg/logger"
)

// UserLookup loads the user a token was issued for.
type UserLookup interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*auth.User, error)
}

// JWTMiddleware validates the bearer token, loads the user it names and
// stores both the user and its Identity on the echo context. Role and scope
// always come from the stored user, never from the token.
func JWTMiddleware(signer *auth.Signer, users UserLookup) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			if header == "" {
				return apperrors.Unauthenticated(apperrors.CodeTokenInvalid, "missing token")
			}

			userID, err := signer.ValidateJWT(header)
			if err != nil {
				logger.Debug("token rejected", zap.Error(err))
				return apperrors.Unauthenticated(apperrors.CodeTokenInvalid, "invalid token")
			}

			user, err := users.FindByID(c.Request().Context(), userID)
			if err != nil {
				return apperrors.ErrPersistence(err)
			}
			if user == nil {
				return apperrors.Unauthenticated(apperrors.CodeTokenInvalid, "invalid token")
			}
			if !user.Role.Valid() {
				logger.Warn("request refused: unknown role",
					zap.String("user_id", user.ID.Hex()),
					zap.String("role", string(user.Role)),
				)
				return auth.ErrUnknownRole()
			}

			c.Set(auth.ContextKeyUser, user)
			c.Set(auth.ContextKeyIdentity, auth.IdentityOf(user))
			return next(c)
		}
	}
}
