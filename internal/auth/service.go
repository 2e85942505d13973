package auth

import (
	"context"
	"strings"

	"go.uber.org/zap"

	apperrors "ComplaintDesk/internal/pkg/errors"
	"ComplaintDesk/internal/pkg/logger"
)

// Users is the user lookup the login flow needs.
type Users interface {
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByPhone(ctx context.Context, phone string) (*User, error)
}

// UserService authenticates users against stored credentials.
type UserService struct {
	repo   Users
	signer *Signer
}

// NewUserService creates a new UserService.
func NewUserService(repo *UserRepository, signer *Signer) *UserService {
	return &UserService{repo: repo, signer: signer}
}

// AuthenticateUser checks the credential and issues an access token.
// The identifier is an email when it contains "@", otherwise a phone number.
func (s *UserService) AuthenticateUser(ctx context.Context, cred Credential) (string, *User, error) {
	identifier := strings.TrimSpace(cred.Identifier)
	if identifier == "" || cred.Password == "" {
		return "", nil, apperrors.ErrValidation("identifier", apperrors.FieldRequired, "identifier and password are required")
	}

	var (
		user *User
		err  error
	)
	if strings.Contains(identifier, "@") {
		user, err = s.repo.FindByEmail(ctx, identifier)
	} else {
		user, err = s.repo.FindByPhone(ctx, identifier)
	}
	if err != nil {
		return "", nil, apperrors.ErrPersistence(err)
	}
	if user == nil || !CheckPasswordHash(cred.Password, user.PasswordHash) {
		return "", nil, apperrors.Unauthenticated(apperrors.CodeAuthFailed, "invalid credentials")
	}
	if !user.Role.Valid() {
		logger.Warn("login refused: unknown role", zap.String("user_id", user.ID.Hex()), zap.String("role", string(user.Role)))
		return "", nil, ErrUnknownRole()
	}

	token, err := s.signer.GenerateJWT(user.ID, TokenTTL)
	if err != nil {
		logger.Error("token signing failed", zap.String("user_id", user.ID.Hex()), zap.Error(err))
		return "", nil, apperrors.Internal(apperrors.CodeInternal, "token not generated")
	}
	return token, user, nil
}
