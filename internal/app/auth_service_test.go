package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"accounts/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type mockUserRepo struct {
	getByEmailFn func(ctx context.Context, email string) (*domain.User, error)
	getByIDFn    func(ctx context.Context, id string) (*domain.User, error)
	createFn     func(ctx context.Context, user *domain.User) error
	updateFn     func(ctx context.Context, user *domain.User) error
}

func (m *mockUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	if m.getByEmailFn != nil {
		return m.getByEmailFn(ctx, email)
	}
	return nil, nil
}

func (m *mockUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockUserRepo) Create(ctx context.Context, user *domain.User) error {
	if m.createFn != nil {
		return m.createFn(ctx, user)
	}
	return nil
}

func (m *mockUserRepo) Update(ctx context.Context, user *domain.User) error {
	if m.updateFn != nil {
		return m.updateFn(ctx, user)
	}
	return nil
}

type mockSessionRepo struct {
	createFn      func(ctx context.Context, userID, token string, expiresAt time.Time) error
	getByTokenFn  func(ctx context.Context, token string) (*domain.Session, error)
	deleteFn      func(ctx context.Context, token string) error
	deleteOtherFn func(ctx context.Context, userID, keepToken string) error
}

func (m *mockSessionRepo) Create(ctx context.Context, userID, token string, expiresAt time.Time) error {
	if m.createFn != nil {
		return m.createFn(ctx, userID, token, expiresAt)
	}
	return nil
}

func (m *mockSessionRepo) GetByToken(ctx context.Context, token string) (*domain.Session, error) {
	if m.getByTokenFn != nil {
		return m.getByTokenFn(ctx, token)
	}
	return nil, nil
}

func (m *mockSessionRepo) Delete(ctx context.Context, token string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, token)
	}
	return nil
}

func (m *mockSessionRepo) DeleteOtherForUser(ctx context.Context, userID, keepToken string) error {
	if m.deleteOtherFn != nil {
		return m.deleteOtherFn(ctx, userID, keepToken)
	}
	return nil
}

func (m *mockSessionRepo) DeleteExpired(ctx context.Context) error {
	return nil
}

func hashOf(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hash)
}

func TestAuthService_Register_Success(t *testing.T) {
	ctx := context.Background()

	var created *domain.User
	users := &mockUserRepo{
		createFn: func(ctx context.Context, user *domain.User) error {
			created = user
			return nil
		},
	}

	sessionCreates := 0
	sessions := &mockSessionRepo{
		createFn: func(ctx context.Context, userID, token string, expiresAt time.Time) error {
			sessionCreates++
			assert.NotEmpty(t, token)
			assert.True(t, expiresAt.After(time.Now()))
			return nil
		},
	}

	svc := NewAuthService(users, sessions, 0)
	user, token, err := svc.Register(ctx, RegisterInput{
		Email:                "alice@example.com",
		Password:             "pw123456",
		PasswordConfirmation: "pw123456",
		Name:                 "Alice",
	})

	require.NoError(t, err)
	require.NotNil(t, user)
	assert.NotEmpty(t, token)
	assert.Equal(t, 1, sessionCreates)
	assert.Equal(t, "alice@example.com", user.Email)
	assert.Equal(t, "Alice", user.Name)
	assert.NotEmpty(t, user.ID)

	require.NotNil(t, created)
	assert.NotEqual(t, "pw123456", created.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(created.PasswordHash), []byte("pw123456")))
}

func TestAuthService_Register_PasswordMismatch(t *testing.T) {
	ctx := context.Background()

	sessionCreates := 0
	sessions := &mockSessionRepo{
		createFn: func(ctx context.Context, userID, token string, expiresAt time.Time) error {
			sessionCreates++
			return nil
		},
	}

	svc := NewAuthService(&mockUserRepo{}, sessions, 0)
	_, _, err := svc.Register(ctx, RegisterInput{
		Email:                "alice@example.com",
		Password:             "pw123456",
		PasswordConfirmation: "different",
	})

	var verrs domain.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Equal(t, domain.ValidationErrors{domain.MsgPasswordConfirmation}, verrs)
	assert.Equal(t, 0, sessionCreates, "failed register must not create a session")
}

func TestAuthService_Register_CollectsFieldErrors(t *testing.T) {
	ctx := context.Background()
	svc := NewAuthService(&mockUserRepo{}, &mockSessionRepo{}, 0)

	_, _, err := svc.Register(ctx, RegisterInput{})

	var verrs domain.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Equal(t, domain.ValidationErrors{domain.MsgEmailBlank, domain.MsgPasswordBlank}, verrs)
}

func TestAuthService_Register_EmailTaken(t *testing.T) {
	ctx := context.Background()

	users := &mockUserRepo{
		getByEmailFn: func(ctx context.Context, email string) (*domain.User, error) {
			return &domain.User{ID: "u1", Email: email}, nil
		},
	}

	svc := NewAuthService(users, &mockSessionRepo{}, 0)
	_, _, err := svc.Register(ctx, RegisterInput{
		Email:                "alice@example.com",
		Password:             "pw123456",
		PasswordConfirmation: "pw123456",
	})

	var verrs domain.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Contains(t, verrs, domain.MsgEmailTaken)
}

func TestAuthService_Register_EmailTakenRace(t *testing.T) {
	ctx := context.Background()

	// GetByEmail sees nothing, but the store's unique constraint fires
	// on insert.
	users := &mockUserRepo{
		createFn: func(ctx context.Context, user *domain.User) error {
			return domain.ErrEmailTaken
		},
	}

	svc := NewAuthService(users, &mockSessionRepo{}, 0)
	_, _, err := svc.Register(ctx, RegisterInput{
		Email:                "alice@example.com",
		Password:             "pw123456",
		PasswordConfirmation: "pw123456",
	})

	var verrs domain.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Equal(t, domain.ValidationErrors{domain.MsgEmailTaken}, verrs)
}

func TestAuthService_Login_Success(t *testing.T) {
	ctx := context.Background()
	hash := hashOf(t, "pw123456")

	users := &mockUserRepo{
		getByEmailFn: func(ctx context.Context, email string) (*domain.User, error) {
			return &domain.User{ID: "u1", Email: email, PasswordHash: hash}, nil
		},
	}

	svc := NewAuthService(users, &mockSessionRepo{}, 0)
	user, token, err := svc.Login(ctx, "alice@example.com", "pw123456")

	require.NoError(t, err)
	assert.Equal(t, "u1", user.ID)
	assert.NotEmpty(t, token)
}

func TestAuthService_Login_WrongPasswordAndUnknownEmailLookAlike(t *testing.T) {
	ctx := context.Background()
	hash := hashOf(t, "correct-pass")

	known := &mockUserRepo{
		getByEmailFn: func(ctx context.Context, email string) (*domain.User, error) {
			return &domain.User{ID: "u1", Email: email, PasswordHash: hash}, nil
		},
	}
	unknown := &mockUserRepo{}

	_, _, wrongPw := NewAuthService(known, &mockSessionRepo{}, 0).Login(ctx, "alice@example.com", "wrong")
	_, _, noUser := NewAuthService(unknown, &mockSessionRepo{}, 0).Login(ctx, "ghost@example.com", "whatever")

	assert.ErrorIs(t, wrongPw, ErrInvalidCredentials)
	assert.ErrorIs(t, noUser, ErrInvalidCredentials)
	assert.Equal(t, wrongPw.Error(), noUser.Error())
}

func TestAuthService_Logout_Idempotent(t *testing.T) {
	ctx := context.Background()

	deletes := 0
	sessions := &mockSessionRepo{
		deleteFn: func(ctx context.Context, token string) error {
			deletes++
			return nil
		},
	}

	svc := NewAuthService(&mockUserRepo{}, sessions, 0)
	require.NoError(t, svc.Logout(ctx, "some-token"))
	require.NoError(t, svc.Logout(ctx, "some-token"))
	require.NoError(t, svc.Logout(ctx, ""))
	assert.Equal(t, 2, deletes)
}

func TestAuthService_CurrentUser_Valid(t *testing.T) {
	ctx := context.Background()

	sessions := &mockSessionRepo{
		getByTokenFn: func(ctx context.Context, token string) (*domain.Session, error) {
			return &domain.Session{Token: token, UserID: "u1", ExpiresAt: time.Now().Add(time.Hour)}, nil
		},
	}
	users := &mockUserRepo{
		getByIDFn: func(ctx context.Context, id string) (*domain.User, error) {
			return &domain.User{ID: id, Email: "alice@example.com"}, nil
		},
	}

	svc := NewAuthService(users, sessions, 0)
	user, err := svc.CurrentUser(ctx, "tok")

	require.NoError(t, err)
	assert.Equal(t, "u1", user.ID)
}

func TestAuthService_CurrentUser_UnknownToken(t *testing.T) {
	svc := NewAuthService(&mockUserRepo{}, &mockSessionRepo{}, 0)

	_, err := svc.CurrentUser(context.Background(), "no-such-token")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	_, err = svc.CurrentUser(context.Background(), "")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestAuthService_CurrentUser_Expired(t *testing.T) {
	ctx := context.Background()

	deleted := false
	sessions := &mockSessionRepo{
		getByTokenFn: func(ctx context.Context, token string) (*domain.Session, error) {
			return &domain.Session{Token: token, UserID: "u1", ExpiresAt: time.Now().Add(-time.Hour)}, nil
		},
		deleteFn: func(ctx context.Context, token string) error {
			deleted = true
			return nil
		},
	}

	svc := NewAuthService(&mockUserRepo{}, sessions, 0)
	_, err := svc.CurrentUser(ctx, "stale")

	assert.ErrorIs(t, err, ErrSessionExpired)
	assert.True(t, deleted, "expired session should be deleted on sight")
}

func TestAuthService_UpdateProfile_Name(t *testing.T) {
	ctx := context.Background()
	hash := hashOf(t, "pw123456")

	var updated *domain.User
	users := &mockUserRepo{
		getByIDFn: func(ctx context.Context, id string) (*domain.User, error) {
			return &domain.User{ID: id, Email: "alice@example.com", PasswordHash: hash, Name: "Alice"}, nil
		},
		updateFn: func(ctx context.Context, user *domain.User) error {
			updated = user
			return nil
		},
	}

	revoked := false
	sessions := &mockSessionRepo{
		deleteOtherFn: func(ctx context.Context, userID, keepToken string) error {
			revoked = true
			return nil
		},
	}

	svc := NewAuthService(users, sessions, 0)
	name := "Alice B."
	user, err := svc.UpdateProfile(ctx, "u1", "tok", UpdateInput{Name: &name})

	require.NoError(t, err)
	assert.Equal(t, "Alice B.", user.Name)
	require.NotNil(t, updated)
	assert.Equal(t, hash, updated.PasswordHash, "password hash untouched")
	assert.False(t, revoked, "name change must not revoke sessions")
}

func TestAuthService_UpdateProfile_PasswordMismatchLeavesHash(t *testing.T) {
	ctx := context.Background()
	hash := hashOf(t, "pw123456")

	updateCalls := 0
	users := &mockUserRepo{
		getByIDFn: func(ctx context.Context, id string) (*domain.User, error) {
			return &domain.User{ID: id, Email: "alice@example.com", PasswordHash: hash}, nil
		},
		updateFn: func(ctx context.Context, user *domain.User) error {
			updateCalls++
			return nil
		},
	}

	svc := NewAuthService(users, &mockSessionRepo{}, 0)
	newPw := "newpassword"
	wrong := "not-the-same"
	_, err := svc.UpdateProfile(ctx, "u1", "tok", UpdateInput{
		Password:             &newPw,
		PasswordConfirmation: &wrong,
	})

	var verrs domain.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Equal(t, domain.ValidationErrors{domain.MsgPasswordConfirmation}, verrs)
	assert.Equal(t, 0, updateCalls, "failed validation must not touch the store")
}

func TestAuthService_UpdateProfile_PasswordChangeRevokesOtherSessions(t *testing.T) {
	ctx := context.Background()
	hash := hashOf(t, "pw123456")

	users := &mockUserRepo{
		getByIDFn: func(ctx context.Context, id string) (*domain.User, error) {
			return &domain.User{ID: id, Email: "alice@example.com", PasswordHash: hash}, nil
		},
	}

	var revokedUser, keptToken string
	sessions := &mockSessionRepo{
		deleteOtherFn: func(ctx context.Context, userID, keepToken string) error {
			revokedUser = userID
			keptToken = keepToken
			return nil
		},
	}

	svc := NewAuthService(users, sessions, 0)
	newPw := "newpassword"
	conf := "newpassword"
	user, err := svc.UpdateProfile(ctx, "u1", "current-tok", UpdateInput{
		Password:             &newPw,
		PasswordConfirmation: &conf,
	})

	require.NoError(t, err)
	assert.NotEqual(t, hash, user.PasswordHash)
	assert.Equal(t, "u1", revokedUser)
	assert.Equal(t, "current-tok", keptToken)
}

func TestAuthService_UpdateProfile_UnknownUser(t *testing.T) {
	svc := NewAuthService(&mockUserRepo{}, &mockSessionRepo{}, 0)

	name := "x"
	_, err := svc.UpdateProfile(context.Background(), "nope", "tok", UpdateInput{Name: &name})
	assert.True(t, errors.Is(err, ErrUserNotFound))
}
