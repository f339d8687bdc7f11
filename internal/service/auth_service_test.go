package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util"
)

func TestRegisterCreatesMemberAndIssuesToken(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	res, err := f.auth.Register(ctx, RegisterInput{Name: " Ann ", Email: " Ann@Example.COM ", Password: "secret"})
	require.NoError(t, err)
	assert.Equal(t, "Ann", res.User.Name)
	assert.Equal(t, "ann@example.com", res.User.Email)
	assert.Equal(t, domain.RoleMember, res.User.Role)

	claims, err := f.auth.TokenManager().ParseToken(res.Token.Token)
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, claims.Subject)
	assert.Equal(t, res.Token.ID, claims.ID)
	assert.Equal(t, domain.RoleMember, claims.Role)

	stored, err := f.store.Users.GetByID(ctx, res.User.ID)
	require.NoError(t, err)
	assert.NotEqual(t, "secret", stored.PasswordHash)
	assert.True(t, testStart.Equal(stored.CreatedAt))
}

func TestRegisterValidation(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	_, err := f.auth.Register(ctx, RegisterInput{Name: "Ann", Email: "ann@example.com", Password: "secret"})
	require.NoError(t, err)

	_, err = f.auth.Register(ctx, RegisterInput{Name: "Ann 2", Email: "ANN@example.com", Password: "other"})
	assert.True(t, apperrors.IsCode(err, apperrors.CodeValidation), "duplicate email: %v", err)

	_, err = f.auth.Register(ctx, RegisterInput{Name: "", Email: "x@example.com", Password: ""})
	require.True(t, apperrors.IsCode(err, apperrors.CodeValidation))
	assert.Equal(t, []string{"name", "password"}, apperrors.ToDomainError(err).Details["missing"])
}

func TestLogin(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	_, err := f.auth.Register(ctx, RegisterInput{Name: "Ann", Email: "ann@example.com", Password: "secret"})
	require.NoError(t, err)

	res, err := f.auth.Login(ctx, "ANN@example.com", "secret")
	require.NoError(t, err)
	assert.Equal(t, "ann@example.com", res.User.Email)
	assert.NotEmpty(t, res.Token.Token)

	_, wrongPassword := f.auth.Login(ctx, "ann@example.com", "nope")
	_, unknownEmail := f.auth.Login(ctx, "bob@example.com", "secret")
	for _, err := range []error{wrongPassword, unknownEmail} {
		require.True(t, apperrors.IsCode(err, apperrors.CodeAuth))
		assert.Equal(t, "invalid email or password", apperrors.ToDomainError(err).Message)
	}
}

func TestLogoutRevokesUntilExpiry(t *testing.T) {
	revocations := &mockRevocations{}
	f := newFixture(t, revocations)
	session := f.member(t, "Ann", "ann@example.com")

	revocations.On("Revoke", mock.Anything, session.TokenID, time.Hour).Return(nil).Once()
	require.NoError(t, f.auth.Logout(context.Background(), session))

	revocations.On("Revoke", mock.Anything, session.TokenID, mock.Anything).Return(errors.New("redis down")).Once()
	err := f.auth.Logout(context.Background(), session)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeInternal))

	revocations.AssertExpectations(t)
}

func TestLogoutWithoutStoreIsNoop(t *testing.T) {
	f := newFixture(t, nil)
	session := f.member(t, "Ann", "ann@example.com")
	assert.NoError(t, f.auth.Logout(context.Background(), session))

	err := f.auth.Logout(context.Background(), nil)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeAuth))
}

func TestMe(t *testing.T) {
	f := newFixture(t, nil)
	session := f.member(t, "Ann", "ann@example.com")

	profile, err := f.auth.Me(session)
	require.NoError(t, err)
	assert.Equal(t, session.User.ID, profile.ID)
	assert.Equal(t, "Ann", profile.Name)

	_, err = f.auth.Me(nil)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeAuth))
}

func TestEnsureAdminCreatesThenPromotes(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	admin, created, err := f.auth.EnsureAdmin(ctx, RegisterInput{Name: "Root", Email: "root@example.com", Password: "pw"})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, domain.RoleAdmin, admin.Role)

	member := f.member(t, "Ann", "ann@example.com")
	f.clock.Advance(time.Minute)
	promoted, created, err := f.auth.EnsureAdmin(ctx, RegisterInput{Email: "ann@example.com"})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, member.User.ID, promoted.ID)

	stored, err := f.store.Users.GetByID(ctx, member.User.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, stored.Role)
	assert.True(t, testStart.Add(time.Minute).Equal(stored.UpdatedAt))

	_, _, err = f.auth.EnsureAdmin(ctx, RegisterInput{Email: "new@example.com"})
	assert.True(t, apperrors.IsCode(err, apperrors.CodeValidation))
}

func TestPasswordLengthLimit(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	long := strings.Repeat("x", 73)

	_, err := f.auth.Register(ctx, RegisterInput{Name: "Ann", Email: "ann@example.com", Password: long})
	require.True(t, apperrors.IsCode(err, apperrors.CodeValidation), "got %v", err)
	assert.Equal(t, "password must be at most 72 bytes", apperrors.ToDomainError(err).Message)

	// multi-byte runes count by byte
	_, err = f.auth.Register(ctx, RegisterInput{Name: "Ann", Email: "ann@example.com", Password: strings.Repeat("é", 37)})
	assert.True(t, apperrors.IsCode(err, apperrors.CodeValidation))

	_, _, err = f.auth.EnsureAdmin(ctx, RegisterInput{Name: "Root", Email: "root@example.com", Password: long})
	assert.True(t, apperrors.IsCode(err, apperrors.CodeValidation))

	_, err = f.auth.Register(ctx, RegisterInput{Name: "Ann", Email: "ann@example.com", Password: long[:72]})
	assert.NoError(t, err)
}
