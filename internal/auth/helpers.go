package auth

import (
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

// TokenTTL is the lifetime of an issued access token.
const TokenTTL = 7 * 24 * time.Hour

// JWTClaims carries only the subject; role and scope are always reloaded
// from the user record so profile changes take effect immediately.
type JWTClaims struct {
	jwt.RegisteredClaims
}

// Signer issues and validates HS256 access tokens.
type Signer struct {
	key []byte
}

// NewSigner creates a signer for the given secret.
func NewSigner(key string) *Signer {
	return &Signer{key: []byte(key)}
}

// GenerateJWT issues a token for userID valid for duration.
func (s *Signer) GenerateJWT(userID primitive.ObjectID, duration time.Duration) (string, error) {
	now := time.Now()
	claims := &JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.Hex(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(duration)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.key)
}

// ValidateJWT verifies the token and returns the user id it was issued for.
func (s *Signer) ValidateJWT(tokenString string) (primitive.ObjectID, error) {
	tokenString = strings.TrimSpace(strings.TrimPrefix(tokenString, "Bearer "))
	if tokenString == "" {
		return primitive.NilObjectID, errors.New("missing token")
	}

	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.key, nil
	}, jwt.WithExpirationRequired())
	if err != nil {
		return primitive.NilObjectID, err
	}

	claims, ok := token.Claims.(*JWTClaims)
	if !ok || !token.Valid {
		return primitive.NilObjectID, errors.New("invalid token")
	}

	id, err := primitive.ObjectIDFromHex(claims.Subject)
	if err != nil {
		return primitive.NilObjectID, errors.New("invalid token subject")
	}
	return id, nil
}

// CheckPasswordHash compares a password with its bcrypt hash.
func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// NormalizeEmail lowercases and trims an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NormalizeScope trims and case-folds an organizational name (school or
// department). Those names are free text entered by users, so every scope
// comparison goes through this.
func NormalizeScope(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// ScopePattern returns an anchored regular expression matching any stored
// value that normalizes to the same scope as s. Use it with the
// case-insensitive option.
func ScopePattern(s string) string {
	return `^\s*` + regexp.QuoteMeta(NormalizeScope(s)) + `\s*$`
}
