package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/CHEzRIF21/logiclinic/internal/config"
	"github.com/CHEzRIF21/logiclinic/internal/domain"
	"github.com/CHEzRIF21/logiclinic/pkg/auth"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var errUserNotFound = errors.New("user not found")

type fakeUserRepo struct {
	users map[uuid.UUID]*domain.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[uuid.UUID]*domain.User)}
}

func (f *fakeUserRepo) Create(_ context.Context, u *domain.User) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	f.users[u.ID] = u
	return nil
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, errUserNotFound
}

func (f *fakeUserRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, errUserNotFound
	}
	return u, nil
}

func (f *fakeUserRepo) UpdateLoginAttempt(_ context.Context, id uuid.UUID, success bool) error {
	u, ok := f.users[id]
	if !ok {
		return errUserNotFound
	}
	if success {
		u.FailedLoginCount = 0
		u.LockedUntil = nil
		now := time.Now()
		u.LastLoginAt = &now
		return nil
	}
	u.FailedLoginCount++
	if u.FailedLoginCount >= 5 {
		until := time.Now().Add(15 * time.Minute)
		u.LockedUntil = &until
	}
	return nil
}

func (f *fakeUserRepo) UpdatePassword(_ context.Context, id uuid.UUID, hash string) error {
	u, ok := f.users[id]
	if !ok {
		return errUserNotFound
	}
	u.PasswordHash = hash
	u.PasswordChangedAt = time.Now()
	return nil
}

func newAuthFixture(t *testing.T) (*AuthService, *fakeUserRepo, *domain.User) {
	t.Helper()

	repo := newFakeUserRepo()
	jwtManager := auth.NewJWTManager(config.JWTConfig{
		Secret:          "test-secret-at-least-32-characters!!",
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: 24 * time.Hour,
		Issuer:          "logiclinic-test",
	})
	svc := NewAuthService(repo, jwtManager, zap.NewNop())

	hash, err := bcrypt.GenerateFromPassword([]byte("correct-horse-battery"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hashing password: %v", err)
	}
	user := &domain.User{
		ID:           uuid.New(),
		ClinicID:     uuid.New(),
		Email:        "pharmacien@clinique.ci",
		PasswordHash: string(hash),
		FirstName:    "Awa",
		LastName:     "Traore",
		Role:         domain.RolePharmacien,
		IsActive:     true,
	}
	repo.users[user.ID] = user

	return svc, repo, user
}

func TestLoginIssuesTokenPair(t *testing.T) {
	svc, _, user := newAuthFixture(t)

	pair, err := svc.Login(context.Background(), user.Email, "correct-horse-battery", "10.0.0.7")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatal("token pair must carry both tokens")
	}
	if pair.TokenType != "Bearer" {
		t.Errorf("TokenType = %q, want Bearer", pair.TokenType)
	}
	if user.LastLoginAt == nil {
		t.Error("successful login must record last_login_at")
	}
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	svc, _, user := newAuthFixture(t)

	if _, err := svc.Login(context.Background(), user.Email, "wrong", "10.0.0.7"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials, got %v", err)
	}
	if user.FailedLoginCount != 1 {
		t.Errorf("FailedLoginCount = %d, want 1", user.FailedLoginCount)
	}
}

func TestLoginUnknownEmailLooksLikeBadPassword(t *testing.T) {
	svc, _, _ := newAuthFixture(t)

	if _, err := svc.Login(context.Background(), "nobody@clinique.ci", "anything", "10.0.0.7"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestLoginLocksAfterRepeatedFailures(t *testing.T) {
	svc, _, user := newAuthFixture(t)

	for i := 0; i < 5; i++ {
		if _, err := svc.Login(context.Background(), user.Email, "wrong", "10.0.0.7"); !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("attempt %d: expected ErrInvalidCredentials, got %v", i, err)
		}
	}

	// Even the right password bounces while the lock holds.
	if _, err := svc.Login(context.Background(), user.Email, "correct-horse-battery", "10.0.0.7"); !errors.Is(err, ErrAccountLocked) {
		t.Errorf("expected ErrAccountLocked, got %v", err)
	}
}

func TestLoginRejectsInactiveAccount(t *testing.T) {
	svc, _, user := newAuthFixture(t)
	user.IsActive = false

	if _, err := svc.Login(context.Background(), user.Email, "correct-horse-battery", "10.0.0.7"); !errors.Is(err, ErrAccountInactive) {
		t.Errorf("expected ErrAccountInactive, got %v", err)
	}
}

func TestRefreshToken(t *testing.T) {
	svc, _, user := newAuthFixture(t)

	pair, err := svc.Login(context.Background(), user.Email, "correct-horse-battery", "10.0.0.7")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	renewed, err := svc.RefreshToken(context.Background(), pair.RefreshToken)
	if err != nil {
		t.Fatalf("RefreshToken failed: %v", err)
	}
	if renewed.AccessToken == "" {
		t.Error("refresh must issue a new access token")
	}

	// An access token is not accepted in the refresh slot.
	if _, err := svc.RefreshToken(context.Background(), pair.AccessToken); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials for access token, got %v", err)
	}

	// Deactivation invalidates outstanding refresh tokens.
	user.IsActive = false
	if _, err := svc.RefreshToken(context.Background(), pair.RefreshToken); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials after deactivation, got %v", err)
	}
}

func TestChangePassword(t *testing.T) {
	svc, _, user := newAuthFixture(t)

	if err := svc.ChangePassword(context.Background(), user.ID, "wrong", "a-long-enough-password"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials, got %v", err)
	}
	if err := svc.ChangePassword(context.Background(), user.ID, "correct-horse-battery", "short"); err == nil {
		t.Error("expected weak password rejection")
	}

	if err := svc.ChangePassword(context.Background(), user.ID, "correct-horse-battery", "a-long-enough-password"); err != nil {
		t.Fatalf("ChangePassword failed: %v", err)
	}
	if _, err := svc.Login(context.Background(), user.Email, "a-long-enough-password", "10.0.0.7"); err != nil {
		t.Errorf("login with new password failed: %v", err)
	}
}
