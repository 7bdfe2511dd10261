package service

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"errors"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/kushch-a/car-service-crm/internal/model"
	"github.com/kushch-a/car-service-crm/pkg/jwt"
)

// Mock implementations

type mockUserRepo struct {
	users     map[int64]*model.User
	nameIndex map[string]*model.User
	nextID    int64
	createErr error
	getErr    error
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{
		users:     make(map[int64]*model.User),
		nameIndex: make(map[string]*model.User),
	}
}

func (m *mockUserRepo) Create(ctx context.Context, user *model.User) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.nextID++
	user.ID = m.nextID
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	m.users[user.ID] = user
	m.nameIndex[user.Username] = user
	return nil
}

func (m *mockUserRepo) GetByID(ctx context.Context, id int64) (*model.User, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	return m.users[id], nil
}

func (m *mockUserRepo) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	return m.nameIndex[username], nil
}

func newTestAuthService(t *testing.T) (*AuthService, *mockUserRepo, *jwt.Service) {
	t.Helper()
	privateKey, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("failed to generate RSA key: %v", err)
	}
	signer := jwt.NewTestService(privateKey, "crm-test", 15*time.Minute)
	repo := newMockUserRepo()
	svc := NewAuthService(AuthServiceConfig{
		UserRepo:   repo,
		Signer:     signer,
		BcryptCost: bcrypt.MinCost,
	})
	return svc, repo, signer
}

// ============================================================================
// Register Tests
// ============================================================================

func TestRegister_Success(t *testing.T) {
	t.Parallel()
	svc, repo, _ := newTestAuthService(t)

	user, err := svc.Register(context.Background(), RegisterRequest{
		Username: "  olena ",
		Email:    "Olena@Example.com",
		Password: "secret1",
		Role:     model.UserRoleManager,
	})

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user.Username != "olena" {
		t.Errorf("expected trimmed username, got %q", user.Username)
	}
	if user.Email != "olena@example.com" {
		t.Errorf("expected lowercased email, got %q", user.Email)
	}
	if !user.IsActive {
		t.Error("new users should be active")
	}
	if user.Hash == "secret1" || !checkPassword("secret1", user.Hash) {
		t.Error("password should be stored as a bcrypt hash")
	}
	if repo.nameIndex["olena"] == nil {
		t.Error("user should be persisted")
	}
}

func TestRegister_DefaultsToMasterRole(t *testing.T) {
	t.Parallel()
	svc, _, _ := newTestAuthService(t)

	user, err := svc.Register(context.Background(), RegisterRequest{Username: "m", Email: "m@example.com", Password: "secret1"})

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user.Role != model.UserRoleMaster {
		t.Errorf("expected role master, got %q", user.Role)
	}
}

func TestRegister_Validation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		req  RegisterRequest
		want error
	}{
		{"short password", RegisterRequest{Username: "a", Email: "a@example.com", Password: "12345"}, ErrPasswordTooShort},
		{"bad email", RegisterRequest{Username: "a", Email: "nope", Password: "123456"}, ErrInvalidEmail},
		{"unknown role", RegisterRequest{Username: "a", Email: "a@example.com", Password: "123456", Role: "owner"}, ErrInvalidRole},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			svc, _, _ := newTestAuthService(t)
			if _, err := svc.Register(context.Background(), tt.req); !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestRegister_EmptyUsername_ReturnsValidationError(t *testing.T) {
	t.Parallel()
	svc, _, _ := newTestAuthService(t)

	_, err := svc.Register(context.Background(), RegisterRequest{Username: " ", Email: "a@example.com", Password: "123456"})

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeValidation {
		t.Errorf("expected validation APIError, got %v", err)
	}
}

func TestRegister_DuplicateUsername(t *testing.T) {
	t.Parallel()
	svc, _, _ := newTestAuthService(t)
	req := RegisterRequest{Username: "dup", Email: "dup@example.com", Password: "123456"}

	if _, err := svc.Register(context.Background(), req); err != nil {
		t.Fatalf("first register failed: %v", err)
	}
	_, err := svc.Register(context.Background(), req)

	if !errors.Is(err, ErrUsernameExists) {
		t.Errorf("expected ErrUsernameExists, got %v", err)
	}
}

// ============================================================================
// Login Tests
// ============================================================================

func TestLogin_IssuesVerifiableToken(t *testing.T) {
	t.Parallel()
	svc, _, signer := newTestAuthService(t)
	user, err := svc.Register(context.Background(), RegisterRequest{Username: "ivan", Email: "ivan@example.com", Password: "secret1", Role: model.UserRoleAdmin})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	res, err := svc.Login(context.Background(), "ivan", "secret1")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}

	if res.TokenType != "bearer" {
		t.Errorf("expected token_type bearer, got %q", res.TokenType)
	}
	claims, err := signer.Validate(res.AccessToken)
	if err != nil {
		t.Fatalf("token should validate: %v", err)
	}
	if claims.Subject != "ivan" || claims.UserID != user.ID || claims.Role != "admin" {
		t.Errorf("unexpected claims: %+v", claims)
	}
}

func TestLogin_WrongPasswordAndUnknownUserLookTheSame(t *testing.T) {
	t.Parallel()
	svc, _, _ := newTestAuthService(t)
	if _, err := svc.Register(context.Background(), RegisterRequest{Username: "ivan", Email: "ivan@example.com", Password: "secret1"}); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	_, errWrong := svc.Login(context.Background(), "ivan", "wrong-password")
	_, errUnknown := svc.Login(context.Background(), "nobody", "secret1")

	if !errors.Is(errWrong, ErrInvalidCredentials) {
		t.Errorf("wrong password: expected ErrInvalidCredentials, got %v", errWrong)
	}
	if !errors.Is(errUnknown, ErrInvalidCredentials) {
		t.Errorf("unknown user: expected ErrInvalidCredentials, got %v", errUnknown)
	}
}

func TestLogin_InactiveUser(t *testing.T) {
	t.Parallel()
	svc, repo, _ := newTestAuthService(t)
	user, _ := svc.Register(context.Background(), RegisterRequest{Username: "gone", Email: "gone@example.com", Password: "secret1"})
	repo.users[user.ID].IsActive = false

	_, err := svc.Login(context.Background(), "gone", "secret1")

	if !errors.Is(err, ErrUserInactive) {
		t.Errorf("expected ErrUserInactive, got %v", err)
	}
}

func TestLogin_RepositoryErrorPropagates(t *testing.T) {
	t.Parallel()
	svc, repo, _ := newTestAuthService(t)
	boom := errors.New("db down")
	repo.getErr = boom

	_, err := svc.Login(context.Background(), "ivan", "secret1")

	if !errors.Is(err, boom) {
		t.Errorf("expected repository error, got %v", err)
	}
}

// ============================================================================
// EnsureAdmin Tests
// ============================================================================

func TestEnsureAdmin_CreatesOnce(t *testing.T) {
	t.Parallel()
	svc, repo, _ := newTestAuthService(t)
	ctx := context.Background()

	created, err := svc.EnsureAdmin(ctx, "admin", "admin123", "admin@example.com")
	if err != nil || !created {
		t.Fatalf("expected admin to be created, got created=%v err=%v", created, err)
	}
	created, err = svc.EnsureAdmin(ctx, "admin", "admin123", "admin@example.com")
	if err != nil || created {
		t.Fatalf("second call should be a no-op, got created=%v err=%v", created, err)
	}

	if len(repo.users) != 1 {
		t.Errorf("expected 1 user, got %d", len(repo.users))
	}
	if repo.nameIndex["admin"].Role != model.UserRoleAdmin {
		t.Error("bootstrap user should be an admin")
	}
}
