package auth

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

func TestSignerRoundTrip(t *testing.T) {
	signer := NewSigner("test-secret")
	userID := primitive.NewObjectID()

	token, err := signer.GenerateJWT(userID, time.Hour)
	require.NoError(t, err)

	got, err := signer.ValidateJWT("Bearer " + token)
	require.NoError(t, err)
	assert.Equal(t, userID, got)
}

func TestSignerRejectsExpiredToken(t *testing.T) {
	signer := NewSigner("test-secret")

	token, err := signer.GenerateJWT(primitive.NewObjectID(), -time.Minute)
	require.NoError(t, err)

	_, err = signer.ValidateJWT(token)
	assert.Error(t, err)
}

func TestSignerRejectsForeignKey(t *testing.T) {
	token, err := NewSigner("one").GenerateJWT(primitive.NewObjectID(), time.Hour)
	require.NoError(t, err)

	_, err = NewSigner("two").ValidateJWT(token)
	assert.Error(t, err)
}

func TestSignerRejectsEmptyToken(t *testing.T) {
	_, err := NewSigner("k").ValidateJWT("Bearer ")
	assert.Error(t, err)
}

func hashForTest(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hash)
}

func TestRoleValid(t *testing.T) {
	for _, r := range []Role{RoleStudent, RoleStaff, RoleAdmin} {
		assert.True(t, r.Valid(), r)
	}
	assert.False(t, Role("").Valid())
	assert.False(t, Role("superuser").Valid())
}

func TestPasswordHash(t *testing.T) {
	hash := hashForTest(t, "Secr3t!x")
	assert.True(t, CheckPasswordHash("Secr3t!x", hash))
	assert.False(t, CheckPasswordHash("wrong", hash))
}

func TestNormalizeScope(t *testing.T) {
	assert.Equal(t, "soe", NormalizeScope("  SoE \t"))
	assert.Equal(t, "", NormalizeScope("   "))
}

func TestScopePatternMatchesNormalizedValues(t *testing.T) {
	re := regexp.MustCompile("(?i)" + ScopePattern(" School Of Management Sciences (SOMS) "))

	assert.True(t, re.MatchString("school of management sciences (soms)"))
	assert.True(t, re.MatchString("  SCHOOL OF MANAGEMENT SCIENCES (SOMS)"))
	assert.False(t, re.MatchString("School Of Management Sciences"))
	assert.False(t, re.MatchString("School Of Management Sciences (SOMS) annex"))
}

func TestIdentityOfDropsAdminScope(t *testing.T) {
	admin := &User{ID: primitive.NewObjectID(), Role: RoleAdmin, School: "SOE", Department: "CS"}
	id := IdentityOf(admin)
	assert.True(t, id.IsAdmin())
	assert.Empty(t, id.School)
	assert.Empty(t, id.Department)

	staff := &User{ID: primitive.NewObjectID(), Role: RoleStaff, School: "SOE"}
	id = IdentityOf(staff)
	assert.Equal(t, "SOE", id.School)
	assert.Empty(t, id.Department)
}
