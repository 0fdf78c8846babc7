package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dinein-backend/internal/domains/user/model"
	"dinein-backend/pkg/jwt"
)

type fakeUserRepo struct {
	byEmail map[string]*model.User
	byID    map[uuid.UUID]*model.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		byEmail: make(map[string]*model.User),
		byID:    make(map[uuid.UUID]*model.User),
	}
}

func (f *fakeUserRepo) Create(_ context.Context, u *model.User) error {
	u.ID = uuid.New()
	f.byEmail[u.Email] = u
	f.byID[u.ID] = u
	return nil
}

func (f *fakeUserRepo) FindByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	u, ok := f.byID[id]
	if !ok {
		return nil, model.ErrUserNotFound
	}
	return u, nil
}

func (f *fakeUserRepo) FindByEmail(_ context.Context, email string) (*model.User, error) {
	u, ok := f.byEmail[email]
	if !ok {
		return nil, model.ErrUserNotFound
	}
	return u, nil
}

func (f *fakeUserRepo) ExistsByEmail(_ context.Context, email string) (bool, error) {
	_, ok := f.byEmail[email]
	return ok, nil
}

func (f *fakeUserRepo) DebitPoints(_ context.Context, _ pgx.Tx, userID uuid.UUID, points int) error {
	u, ok := f.byID[userID]
	if !ok {
		return model.ErrUserNotFound
	}
	if u.Points < points {
		return model.ErrInsufficientPoints
	}
	u.Points -= points
	return nil
}

func (f *fakeUserRepo) CreditPoints(_ context.Context, _ pgx.Tx, userID uuid.UUID, points int) error {
	u, ok := f.byID[userID]
	if !ok {
		return model.ErrUserNotFound
	}
	u.Points += points
	return nil
}

func newUserFixture() (UserService, *fakeUserRepo) {
	repo := newFakeUserRepo()
	manager := jwt.NewManager("test-secret", 15*time.Minute, 168*time.Hour)
	return NewUserService(repo, manager), repo
}

func register(t *testing.T, svc UserService) *model.Profile {
	t.Helper()
	profile, err := svc.Register(context.Background(), &model.RegisterRequest{
		Email:    "diner@example.com",
		Password: "hunter2hunter2",
		FullName: "Nguyen Van A",
	})
	require.NoError(t, err)
	return profile
}

func TestRegisterDefaultsToClientRole(t *testing.T) {
	svc, repo := newUserFixture()

	profile := register(t, svc)
	assert.Equal(t, model.RoleClient, profile.Role)
	assert.Equal(t, 0, profile.Points)

	stored := repo.byEmail["diner@example.com"]
	require.NotNil(t, stored)
	assert.NotEqual(t, "hunter2hunter2", stored.PasswordHash, "password is never stored in the clear")
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	svc, _ := newUserFixture()
	register(t, svc)

	_, err := svc.Register(context.Background(), &model.RegisterRequest{
		Email:    "diner@example.com",
		Password: "anotherpassword",
		FullName: "Someone Else",
	})
	assert.ErrorIs(t, err, model.ErrEmailAlreadyExists)
}

func TestLoginVerifiesPassword(t *testing.T) {
	svc, _ := newUserFixture()
	register(t, svc)

	resp, err := svc.Login(context.Background(), &model.LoginRequest{
		Email:    "diner@example.com",
		Password: "hunter2hunter2",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.Equal(t, "diner@example.com", resp.User.Email)

	_, err = svc.Login(context.Background(), &model.LoginRequest{
		Email:    "diner@example.com",
		Password: "wrong-password",
	})
	assert.ErrorIs(t, err, model.ErrInvalidCredentials)

	// An unknown email reports the same error as a bad password
	_, err = svc.Login(context.Background(), &model.LoginRequest{
		Email:    "ghost@example.com",
		Password: "hunter2hunter2",
	})
	assert.ErrorIs(t, err, model.ErrInvalidCredentials)
}

func TestLoginRejectsInactiveAccount(t *testing.T) {
	svc, repo := newUserFixture()
	register(t, svc)
	repo.byEmail["diner@example.com"].IsActive = false

	_, err := svc.Login(context.Background(), &model.LoginRequest{
		Email:    "diner@example.com",
		Password: "hunter2hunter2",
	})
	assert.ErrorIs(t, err, model.ErrUserInactive)
}

func TestRefreshRotatesTokens(t *testing.T) {
	svc, _ := newUserFixture()
	register(t, svc)

	resp, err := svc.Login(context.Background(), &model.LoginRequest{
		Email:    "diner@example.com",
		Password: "hunter2hunter2",
	})
	require.NoError(t, err)

	fresh, err := svc.Refresh(context.Background(), &model.RefreshRequest{RefreshToken: resp.RefreshToken})
	require.NoError(t, err)
	assert.NotEmpty(t, fresh.AccessToken)
	assert.Equal(t, resp.User.ID, fresh.User.ID)

	_, err = svc.Refresh(context.Background(), &model.RefreshRequest{RefreshToken: "not-a-token"})
	assert.ErrorIs(t, err, model.ErrInvalidCredentials)

	// An access token is not a refresh token
	_, err = svc.Refresh(context.Background(), &model.RefreshRequest{RefreshToken: resp.AccessToken})
	assert.ErrorIs(t, err, model.ErrInvalidCredentials)
}
