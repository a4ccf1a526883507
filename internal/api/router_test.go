package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/haitebooks/bookstore-api/internal/api/handler"
	"github.com/haitebooks/bookstore-api/internal/core/domain"
	"github.com/haitebooks/bookstore-api/internal/core/ports"
	"github.com/haitebooks/bookstore-api/internal/core/service"
)

// memUsers is a mutex-guarded user store with the same uniqueness contract as
// the Mongo repository.
type memUsers struct {
	mu     sync.Mutex
	users  map[string]*domain.User
	nextID int64
}

func newMemUsers() *memUsers {
	return &memUsers{users: make(map[string]*domain.User)}
}

func (m *memUsers) FindByUsername(_ context.Context, username string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[username]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	clone := *u
	clone.Roles = append([]string(nil), u.Roles...)
	return &clone, nil
}

func (m *memUsers) ExistsByUsername(_ context.Context, username string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.users[username]
	return ok, nil
}

func (m *memUsers) Create(_ context.Context, u *domain.User) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[u.Username]; ok {
		return nil, domain.ErrUserExists
	}
	for _, existing := range m.users {
		if existing.Email == u.Email {
			return nil, domain.ErrEmailExists
		}
	}
	m.nextID++
	stored := *u
	stored.ID = m.nextID
	m.users[u.Username] = &stored
	out := stored
	return &out, nil
}

func (m *memUsers) UpdateRoles(_ context.Context, username string, roles []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[username]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.Roles = roles
	return nil
}

func (m *memUsers) SetEnabled(_ context.Context, username string, enabled bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[username]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.Enabled = enabled
	return nil
}

type emptyReviews struct{ ports.ReviewService }

func (emptyReviews) List(context.Context) ([]ports.ReviewView, error) {
	return []ports.ReviewView{}, nil
}

type fixedSuggestions struct{}

func (fixedSuggestions) Suggest(context.Context, string, int) ([]*domain.Book, error) {
	return []*domain.Book{{ID: 1, Title: "Dune", Author: "Frank Herbert"}}, nil
}

type testServer struct {
	*httptest.Server
	users *memUsers
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	users := newMemUsers()
	tokens, err := service.NewTokenService("router-test-secret", time.Hour)
	require.NoError(t, err)
	auth, err := service.NewAuthService(users, service.NewBcryptHasher(bcrypt.MinCost), tokens, nil, zerolog.Nop())
	require.NoError(t, err)

	e := NewRouter(Dependencies{
		Auth:        auth,
		Users:       service.NewUserService(users, nil, zerolog.Nop()),
		Reviews:     emptyReviews{},
		Suggestions: fixedSuggestions{},
		Tokens:      tokens,
		HealthChecks: map[string]handler.HealthCheck{
			"mongodb": func(context.Context) error { return nil },
		},
		Log: zerolog.Nop(),
	})

	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)
	return &testServer{Server: srv, users: users}
}

func (s *testServer) do(t *testing.T, method, path, token, body string) (int, map[string]any) {
	t.Helper()

	req, err := http.NewRequest(method, s.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := s.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp.StatusCode, out
}

func (s *testServer) register(t *testing.T, username string) int {
	t.Helper()
	code, _ := s.do(t, http.MethodPost, "/api/auth/register", "",
		fmt.Sprintf(`{"username":%q,"password":"secret123","email":"%s@example.com"}`, username, username))
	return code
}

func (s *testServer) login(t *testing.T, username, password string) string {
	t.Helper()
	code, body := s.do(t, http.MethodPost, "/api/auth/login", "",
		fmt.Sprintf(`{"username":%q,"password":%q}`, username, password))
	require.Equal(t, http.StatusOK, code)
	token, _ := body["token"].(string)
	require.NotEmpty(t, token)
	return token
}

// tamper flips the first character of the signature segment.
func tamper(token string) string {
	parts := strings.Split(token, ".")
	sig := []byte(parts[2])
	if sig[0] == 'A' {
		sig[0] = 'B'
	} else {
		sig[0] = 'A'
	}
	parts[2] = string(sig)
	return strings.Join(parts, ".")
}

func TestRouter_RegisterAndLogin(t *testing.T) {
	s := newTestServer(t)

	code, body := s.do(t, http.MethodPost, "/api/auth/register", "",
		`{"username":"alice","password":"secret123","email":"alice@example.com","full_name":"Alice"}`)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "User registered", body["message"])

	code, body = s.do(t, http.MethodPost, "/api/auth/register", "",
		`{"username":"alice","password":"another1","email":"other@example.com"}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, domain.ErrUserExists.Error(), body["error"])

	code, body = s.do(t, http.MethodPost, "/api/auth/login", "", `{"username":"alice","password":"secret123"}`)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Bearer", body["tokenType"])
	assert.NotEmpty(t, body["token"])
	assert.NotEmpty(t, body["expiresAt"])
}

func TestRouter_RegisterValidation(t *testing.T) {
	s := newTestServer(t)

	code, _ := s.do(t, http.MethodPost, "/api/auth/register", "", `{"username":"al","password":"x","email":"nope"}`)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = s.do(t, http.MethodPost, "/api/auth/register", "", `not-json`)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestRouter_RegisterRejectsPasswordOverBcryptLimit(t *testing.T) {
	s := newTestServer(t)

	// 40 characters pass the request validator but take 80 bytes.
	code, body := s.do(t, http.MethodPost, "/api/auth/register", "",
		fmt.Sprintf(`{"username":"hoa","password":%q,"email":"hoa@example.com"}`, strings.Repeat("é", 40)))
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, body["error"], "password must be at most 72 bytes")

	code, _ = s.do(t, http.MethodPost, "/api/auth/register", "", `{"username":"  a  ","password":"secret123","email":"a@example.com"}`)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestRouter_LoginFailuresAreIndistinguishable(t *testing.T) {
	s := newTestServer(t)
	require.Equal(t, http.StatusOK, s.register(t, "bob"))

	wrongCode, wrongBody := s.do(t, http.MethodPost, "/api/auth/login", "", `{"username":"bob","password":"bad-password"}`)
	unknownCode, unknownBody := s.do(t, http.MethodPost, "/api/auth/login", "", `{"username":"nobody","password":"bad-password"}`)

	assert.Equal(t, http.StatusUnauthorized, wrongCode)
	assert.Equal(t, wrongCode, unknownCode)
	assert.Equal(t, wrongBody, unknownBody)
}

func TestRouter_ProtectedRoutes(t *testing.T) {
	s := newTestServer(t)
	require.Equal(t, http.StatusOK, s.register(t, "carol"))
	token := s.login(t, "carol", "secret123")

	code, body := s.do(t, http.MethodGet, "/api/reviews", "", "")
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "unauthorized", body["error"])

	code, _ = s.do(t, http.MethodGet, "/api/reviews", token, "")
	assert.Equal(t, http.StatusOK, code)

	code, body = s.do(t, http.MethodGet, "/api/users/me", token, "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "carol", body["username"])
	assert.NotContains(t, body, "password_hash")

	code, _ = s.do(t, http.MethodGet, "/api/reviews", tamper(token), "")
	assert.Equal(t, http.StatusUnauthorized, code)

	code, _ = s.do(t, http.MethodGet, "/api/unknown", "", "")
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestRouter_UnknownRootPathsNeedAuthentication(t *testing.T) {
	s := newTestServer(t)
	require.Equal(t, http.StatusOK, s.register(t, "ivan"))
	token := s.login(t, "ivan", "secret123")

	code, body := s.do(t, http.MethodGet, "/foo", "", "")
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "unauthorized", body["error"])

	code, _ = s.do(t, http.MethodGet, "/foo", token, "")
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = s.do(t, http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, code)
}

func TestRouter_AdminRoutesRequireRole(t *testing.T) {
	s := newTestServer(t)
	require.Equal(t, http.StatusOK, s.register(t, "dave"))
	require.Equal(t, http.StatusOK, s.register(t, "root"))
	require.NoError(t, s.users.UpdateRoles(context.Background(), "root", []string{domain.RoleUser, domain.RoleAdmin}))

	userToken := s.login(t, "dave", "secret123")
	adminToken := s.login(t, "root", "secret123")

	code, _ := s.do(t, http.MethodPut, "/api/admin/users/dave/roles", userToken, `{"roles":["ADMIN"]}`)
	assert.Equal(t, http.StatusForbidden, code)

	code, _ = s.do(t, http.MethodPut, "/api/admin/users/dave/enabled", adminToken, `{"enabled":false}`)
	require.Equal(t, http.StatusOK, code)

	// The disabled account's still-valid token is rejected on the next request.
	code, _ = s.do(t, http.MethodGet, "/api/users/me", userToken, "")
	assert.Equal(t, http.StatusUnauthorized, code)

	code, _ = s.do(t, http.MethodPut, "/api/admin/users/ghost/roles", adminToken, `{"roles":["USER"]}`)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestRouter_RoleChangeTakesEffectWithoutNewToken(t *testing.T) {
	s := newTestServer(t)
	require.Equal(t, http.StatusOK, s.register(t, "erin"))
	token := s.login(t, "erin", "secret123")

	code, _ := s.do(t, http.MethodPut, "/api/admin/users/erin/roles", token, `{"roles":["USER"]}`)
	require.Equal(t, http.StatusForbidden, code)

	require.NoError(t, s.users.UpdateRoles(context.Background(), "erin", []string{domain.RoleAdmin}))

	code, _ = s.do(t, http.MethodPut, "/api/admin/users/erin/roles", token, `{"roles":["USER","ADMIN"]}`)
	assert.Equal(t, http.StatusOK, code)
}

func TestRouter_PublicRoutesIgnoreToken(t *testing.T) {
	s := newTestServer(t)

	for _, path := range []string{"/health", "/health/ready", "/api/ai/suggestions?q=dune"} {
		code, _ := s.do(t, http.MethodGet, path, "garbage", "")
		assert.Equal(t, http.StatusOK, code, path)
	}

	require.Equal(t, http.StatusOK, s.register(t, "gina"))
	code, body := s.do(t, http.MethodPost, "/api/auth/login", "garbage", `{"username":"gina","password":"secret123"}`)
	assert.Equal(t, http.StatusOK, code)
	assert.NotEmpty(t, body["token"])
}

func TestRouter_ConcurrentRegistrationSingleWinner(t *testing.T) {
	s := newTestServer(t)

	const callers = 12
	var ok, rejected atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			switch s.register(t, "frank") {
			case http.StatusOK:
				ok.Add(1)
			case http.StatusBadRequest:
				rejected.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), ok.Load())
	assert.Equal(t, int32(callers-1), rejected.Load())
}

func TestRouter_ErrorsAreJSON(t *testing.T) {
	s := newTestServer(t)

	code, body := s.do(t, http.MethodGet, "/api/reviews/user/abc", "", "")
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Contains(t, body, "error")

	token := func() string {
		require.Equal(t, http.StatusOK, s.register(t, "hank"))
		return s.login(t, "hank", "secret123")
	}()
	code, body = s.do(t, http.MethodGet, "/api/reviews/user/abc", token, "")
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "invalid userId", body["error"])
}
