package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taskboard/api/internal/core/domain"
	"github.com/taskboard/api/internal/core/ports"
	"golang.org/x/crypto/bcrypt"
)

type fakeUserRepo struct {
	users map[uuid.UUID]*domain.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[uuid.UUID]*domain.User)}
}

func (r *fakeUserRepo) Create(_ context.Context, user *domain.User) error {
	for _, u := range r.users {
		if u.Username == user.Username || u.Email == user.Email {
			return domain.ErrUserExists
		}
	}
	copied := *user
	r.users[user.ID] = &copied
	return nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	copied := *u
	return &copied, nil
}

func (r *fakeUserRepo) GetByIDAndRefreshToken(_ context.Context, id uuid.UUID, refreshToken string) (*domain.User, error) {
	u, ok := r.users[id]
	if !ok || u.RefreshToken == nil || *u.RefreshToken != refreshToken {
		return nil, nil
	}
	copied := *u
	return &copied, nil
}

func (r *fakeUserRepo) ExistsByUsernameOrEmail(_ context.Context, username, email string) (bool, error) {
	for _, u := range r.users {
		if u.Username == username || u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeUserRepo) UpdateRefreshToken(_ context.Context, id uuid.UUID, refreshToken *string) error {
	if u, ok := r.users[id]; ok {
		u.RefreshToken = refreshToken
	}
	return nil
}

func newAuthServiceForTest() (ports.AuthService, *fakeUserRepo) {
	repo := newFakeUserRepo()
	return NewAuthService(repo, NewTokenService(testTokenConfig())), repo
}

func TestAuthService_RegisterThenLogin(t *testing.T) {
	svc, repo := newAuthServiceForTest()
	ctx := context.Background()

	result, err := svc.Register(ctx, ports.RegisterInput{
		Username: "ana",
		Email:    "ana@x.com",
		Password: "p1",
	})
	require.NoError(t, err)
	require.NotEmpty(t, result.AccessToken)
	require.NotEmpty(t, result.RefreshToken)

	stored := repo.users[result.User.ID]
	require.NotNil(t, stored)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("p1")))
	require.NotNil(t, stored.RefreshToken)
	assert.Equal(t, result.RefreshToken, *stored.RefreshToken)

	loginResult, err := svc.Login(ctx, "ana@x.com", "p1")
	require.NoError(t, err)
	assert.Equal(t, result.User.ID, loginResult.User.ID)
}

func TestAuthService_RegisterConflict(t *testing.T) {
	svc, repo := newAuthServiceForTest()
	ctx := context.Background()

	_, err := svc.Register(ctx, ports.RegisterInput{Username: "ana", Email: "ana@x.com", Password: "p1"})
	require.NoError(t, err)

	// same username, new email
	_, err = svc.Register(ctx, ports.RegisterInput{Username: "ana", Email: "other@x.com", Password: "p2"})
	assert.ErrorIs(t, err, domain.ErrUserExists)

	// same email, new username
	_, err = svc.Register(ctx, ports.RegisterInput{Username: "bob", Email: "ana@x.com", Password: "p2"})
	assert.ErrorIs(t, err, domain.ErrUserExists)

	assert.Len(t, repo.users, 1)
}

func TestAuthService_LoginFailuresAreIdentical(t *testing.T) {
	svc, _ := newAuthServiceForTest()
	ctx := context.Background()

	_, err := svc.Register(ctx, ports.RegisterInput{Username: "ana", Email: "ana@x.com", Password: "p1"})
	require.NoError(t, err)

	_, wrongPassword := svc.Login(ctx, "ana@x.com", "wrong")
	_, unknownEmail := svc.Login(ctx, "nobody@x.com", "p1")

	assert.ErrorIs(t, wrongPassword, domain.ErrInvalidCredentials)
	assert.ErrorIs(t, unknownEmail, domain.ErrInvalidCredentials)
	assert.Equal(t, wrongPassword.Error(), unknownEmail.Error())
}

func TestAuthService_LoginSupersedesRefreshToken(t *testing.T) {
	svc, repo := newAuthServiceForTest()
	ctx := context.Background()

	first, err := svc.Register(ctx, ports.RegisterInput{Username: "ana", Email: "ana@x.com", Password: "p1"})
	require.NoError(t, err)

	second, err := svc.Login(ctx, "ana@x.com", "p1")
	require.NoError(t, err)

	stored := repo.users[first.User.ID]
	require.NotNil(t, stored.RefreshToken)
	assert.Equal(t, second.RefreshToken, *stored.RefreshToken)

	// old token no longer matches the single slot
	old, err := repo.GetByIDAndRefreshToken(ctx, first.User.ID, first.RefreshToken)
	require.NoError(t, err)
	assert.Nil(t, old)
}

func TestAuthService_Logout(t *testing.T) {
	svc, repo := newAuthServiceForTest()
	ctx := context.Background()

	result, err := svc.Register(ctx, ports.RegisterInput{Username: "ana", Email: "ana@x.com", Password: "p1"})
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, result.User.ID))
	assert.Nil(t, repo.users[result.User.ID].RefreshToken)

	// logging out twice is fine
	require.NoError(t, svc.Logout(ctx, result.User.ID))
}
