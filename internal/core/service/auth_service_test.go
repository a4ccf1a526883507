package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/haitebooks/bookstore-api/internal/core/domain"
	"github.com/haitebooks/bookstore-api/internal/core/ports"
)

// ---------------------------------------------------------------------------
// In-memory stub credential store
// ---------------------------------------------------------------------------

type stubUserRepo struct {
	mu      sync.Mutex
	users   map[string]*domain.User
	nextID  int64
	findErr error
	finds   int
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{users: make(map[string]*domain.User)}
}

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	clone := *u
	clone.Roles = append([]string(nil), u.Roles...)
	return &clone
}

func (r *stubUserRepo) FindByUsername(_ context.Context, username string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.finds++
	if r.findErr != nil {
		return nil, r.findErr
	}
	u, ok := r.users[username]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return cloneUser(u), nil
}

func (r *stubUserRepo) ExistsByUsername(_ context.Context, username string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.users[username]
	return ok, nil
}

// Create mirrors the unique indexes of the real store.
func (r *stubUserRepo) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.users[user.Username]; exists {
		return nil, domain.ErrUserExists
	}
	for _, u := range r.users {
		if u.Email == user.Email {
			return nil, domain.ErrEmailExists
		}
	}
	r.nextID++
	stored := cloneUser(user)
	stored.ID = r.nextID
	r.users[stored.Username] = stored
	return cloneUser(stored), nil
}

func (r *stubUserRepo) UpdateRoles(_ context.Context, username string, roles []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[username]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.Roles = append([]string(nil), roles...)
	return nil
}

func (r *stubUserRepo) SetEnabled(_ context.Context, username string, enabled bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[username]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.Enabled = enabled
	return nil
}

func (r *stubUserRepo) count(username string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[username]; ok {
		return 1
	}
	return 0
}

type recordingSink struct {
	mu     sync.Mutex
	events []domain.AuthEvent
}

func (s *recordingSink) Enqueue(e domain.AuthEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

const testSecret = "test-secret"

func newTestAuthService(t *testing.T, repo *stubUserRepo, sink ports.AuditSink) (*AuthService, *TokenService) {
	t.Helper()
	tokens, err := NewTokenService(testSecret, time.Hour)
	if err != nil {
		t.Fatalf("token service: %v", err)
	}
	svc, err := NewAuthService(repo, NewBcryptHasher(bcrypt.MinCost), tokens, sink, zerolog.Nop())
	if err != nil {
		t.Fatalf("auth service: %v", err)
	}
	return svc, tokens
}

func registerInput(username string) ports.RegisterInput {
	return ports.RegisterInput{
		Username: username,
		Password: "pass123",
		Email:    username + "@example.com",
		FullName: "Test " + username,
	}
}

// ---------------------------------------------------------------------------
// Register
// ---------------------------------------------------------------------------

func TestAuthService_Register_Success(t *testing.T) {
	repo := newStubUserRepo()
	svc, _ := newTestAuthService(t, repo, nil)

	user, err := svc.Register(context.Background(), registerInput("alice"))
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if user.ID == 0 {
		t.Fatalf("expected an assigned id")
	}
	if user.PasswordHash == "pass123" {
		t.Fatalf("expected password to be hashed")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("pass123")); err != nil {
		t.Fatalf("stored hash does not match password: %v", err)
	}
	if len(user.Roles) != 1 || user.Roles[0] != domain.RoleUser {
		t.Fatalf("expected default roles [USER], got %v", user.Roles)
	}
	if !user.Enabled {
		t.Fatalf("expected new account to be enabled")
	}
}

func TestAuthService_Register_Validation(t *testing.T) {
	svc, _ := newTestAuthService(t, newStubUserRepo(), nil)

	cases := []ports.RegisterInput{
		{Username: "", Password: "p", Email: "a@example.com"},
		{Username: "bob", Password: "", Email: "b@example.com"},
		{Username: "bob", Password: "p", Email: "  "},
	}
	for _, in := range cases {
		if _, err := svc.Register(context.Background(), in); !errors.Is(err, domain.ErrInvalidInput) {
			t.Fatalf("expected ErrInvalidInput for %+v, got %v", in, err)
		}
	}
}

func TestAuthService_Register_LengthLimits(t *testing.T) {
	repo := newStubUserRepo()
	svc, _ := newTestAuthService(t, repo, nil)

	tooLong := registerInput("hoa")
	tooLong.Password = strings.Repeat("é", 40) // 40 characters, 80 bytes
	if _, err := svc.Register(context.Background(), tooLong); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for an 80-byte password, got %v", err)
	}

	padded := registerInput("a")
	padded.Username = "  a  "
	if _, err := svc.Register(context.Background(), padded); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for a username that is short once trimmed, got %v", err)
	}
	if len(repo.users) != 0 {
		t.Fatalf("expected nothing stored, got %d users", len(repo.users))
	}

	atLimit := registerInput("Ánh")
	atLimit.Password = strings.Repeat("p", domain.MaxPasswordBytes)
	if _, err := svc.Register(context.Background(), atLimit); err != nil {
		t.Fatalf("expected a 72-byte password and 3-character username to register, got %v", err)
	}
}

func TestAuthService_Register_Duplicate(t *testing.T) {
	repo := newStubUserRepo()
	sink := &recordingSink{}
	svc, _ := newTestAuthService(t, repo, sink)

	if _, err := svc.Register(context.Background(), registerInput("bob")); err != nil {
		t.Fatalf("first register failed: %v", err)
	}
	in := registerInput("bob")
	in.Email = "other@example.com"
	if _, err := svc.Register(context.Background(), in); !errors.Is(err, domain.ErrUserExists) {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}
	if n := repo.count("bob"); n != 1 {
		t.Fatalf("expected exactly one record for bob, got %d", n)
	}
	if len(sink.events) != 2 || !sink.events[0].Success || sink.events[1].Success {
		t.Fatalf("unexpected audit trail: %+v", sink.events)
	}
}

func TestAuthService_Register_DuplicateEmail(t *testing.T) {
	svc, _ := newTestAuthService(t, newStubUserRepo(), nil)

	_, _ = svc.Register(context.Background(), registerInput("carol"))
	in := registerInput("carol2")
	in.Email = "CAROL@example.com"
	if _, err := svc.Register(context.Background(), in); !errors.Is(err, domain.ErrEmailExists) {
		t.Fatalf("expected ErrEmailExists, got %v", err)
	}
}

func TestAuthService_Register_ConcurrentSameUsername(t *testing.T) {
	repo := newStubUserRepo()
	svc, _ := newTestAuthService(t, repo, nil)

	const callers = 16
	var (
		wg        sync.WaitGroup
		successes atomic.Int32
		conflicts atomic.Int32
	)
	start := make(chan struct{})
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := svc.Register(context.Background(), registerInput("racer"))
			switch {
			case err == nil:
				successes.Add(1)
			case errors.Is(err, domain.ErrUserExists):
				conflicts.Add(1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	close(start)
	wg.Wait()

	if successes.Load() != 1 {
		t.Fatalf("expected exactly one success, got %d", successes.Load())
	}
	if conflicts.Load() != callers-1 {
		t.Fatalf("expected %d conflicts, got %d", callers-1, conflicts.Load())
	}
	if n := repo.count("racer"); n != 1 {
		t.Fatalf("expected one stored record, got %d", n)
	}
}

// ---------------------------------------------------------------------------
// Login
// ---------------------------------------------------------------------------

func TestAuthService_Login_Success(t *testing.T) {
	repo := newStubUserRepo()
	svc, tokens := newTestAuthService(t, repo, nil)

	if _, err := svc.Register(context.Background(), registerInput("dave")); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	res, err := svc.Login(context.Background(), "dave", "pass123", "127.0.0.1")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if res.Token == "" || res.TokenType != "Bearer" {
		t.Fatalf("unexpected login result: %+v", res)
	}

	p, err := tokens.Validate(res.Token)
	if err != nil {
		t.Fatalf("issued token invalid: %v", err)
	}
	if p.Username != "dave" {
		t.Fatalf("expected subject dave, got %s", p.Username)
	}
	if len(p.Roles) != 1 || !p.HasRole(domain.RoleUser) {
		t.Fatalf("expected roles {USER}, got %v", p.Roles)
	}
}

func TestAuthService_Login_FailuresAreIndistinguishable(t *testing.T) {
	repo := newStubUserRepo()
	sink := &recordingSink{}
	svc, _ := newTestAuthService(t, repo, sink)
	_, _ = svc.Register(context.Background(), registerInput("erin"))

	_, wrongPass := svc.Login(context.Background(), "erin", "badpass", "")
	_, noUser := svc.Login(context.Background(), "ghost", "pass123", "")

	if !errors.Is(wrongPass, domain.ErrInvalidCredentials) || !errors.Is(noUser, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for both, got %v / %v", wrongPass, noUser)
	}
	if wrongPass.Error() != noUser.Error() {
		t.Fatalf("messages differ: %q vs %q", wrongPass.Error(), noUser.Error())
	}

	last := sink.events[len(sink.events)-2:]
	if last[0].Reason == last[1].Reason {
		t.Fatalf("expected distinct server-side reasons, got %q", last[0].Reason)
	}
}

func TestAuthService_Login_DisabledAccount(t *testing.T) {
	repo := newStubUserRepo()
	svc, _ := newTestAuthService(t, repo, nil)
	_, _ = svc.Register(context.Background(), registerInput("frank"))
	_ = repo.SetEnabled(context.Background(), "frank", false)

	if _, err := svc.Login(context.Background(), "frank", "pass123", ""); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAuthService_Login_EmptyInput(t *testing.T) {
	repo := newStubUserRepo()
	svc, _ := newTestAuthService(t, repo, nil)

	if _, err := svc.Login(context.Background(), "", "x", ""); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if repo.finds != 0 {
		t.Fatalf("store should not be queried for empty input")
	}
}

func TestAuthService_Login_StoreError(t *testing.T) {
	repo := newStubUserRepo()
	repo.findErr = errors.New("connection reset")
	svc, _ := newTestAuthService(t, repo, nil)

	_, err := svc.Login(context.Background(), "gina", "pass", "")
	if err == nil || errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected wrapped store error, got %v", err)
	}
}
