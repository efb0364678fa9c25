package goSession

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"

	"github.com/MrEthical07/goSession/session"
)

const testSecret = "test-secret-0123456789abcdef"

type memoryUsers struct {
	mu       sync.Mutex
	accounts map[string]*Account

	usernameErr   error
	emailErr      error
	idErr         error
	usernameDelay time.Duration
	idCalls       int
}

func newMemoryUsers() *memoryUsers {
	return &memoryUsers{accounts: map[string]*Account{}}
}

func (m *memoryUsers) add(username, email, hash string) *Account {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now().UTC()
	acct := &Account{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	m.accounts[acct.ID] = acct
	return acct
}

func (m *memoryUsers) remove(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.accounts, id)
}

func (m *memoryUsers) find(match func(*Account) bool) (*Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.accounts {
		if match(a) && !a.Deleted() {
			cp := *a
			return &cp, nil
		}
	}
	return nil, ErrAccountNotFound
}

func (m *memoryUsers) FindByUsername(ctx context.Context, username string) (*Account, error) {
	if m.usernameDelay > 0 {
		select {
		case <-time.After(m.usernameDelay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if m.usernameErr != nil {
		return nil, m.usernameErr
	}
	return m.find(func(a *Account) bool { return a.Username == username })
}

func (m *memoryUsers) FindByEmail(_ context.Context, email string) (*Account, error) {
	if m.emailErr != nil {
		return nil, m.emailErr
	}
	return m.find(func(a *Account) bool { return strings.EqualFold(a.Email, email) })
}

func (m *memoryUsers) FindByID(_ context.Context, id string) (*Account, error) {
	m.mu.Lock()
	m.idCalls++
	m.mu.Unlock()
	if m.idErr != nil {
		return nil, m.idErr
	}
	return m.find(func(a *Account) bool { return a.ID == id })
}

func (m *memoryUsers) CreateAccount(_ context.Context, req NewAccount) (*Account, error) {
	if _, err := m.find(func(a *Account) bool {
		return a.Username == req.Username || strings.EqualFold(a.Email, req.Email)
	}); err == nil {
		return nil, ErrAccountExists
	}
	acct := m.add(req.Username, req.Email, req.PasswordHash)
	acct.DisplayName = req.DisplayName
	return acct, nil
}

type testEnv struct {
	engine *Engine
	users  *memoryUsers
	mr     *miniredis.Miniredis
	client *session.Client
}

func fastPasswordConfig(cfg *Config) {
	cfg.Password.Memory = 8 * 1024
	cfg.Password.Time = 1
	cfg.Password.Parallelism = 1
}

func newTestEnv(t testing.TB, mutate ...func(*Config)) *testEnv {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start: %v", err)
	}
	t.Cleanup(mr.Close)

	cfg := DefaultConfig()
	cfg.Session.Secrets = []string{testSecret}
	cfg.Metrics.Enabled = true
	fastPasswordConfig(&cfg)
	for _, fn := range mutate {
		fn(&cfg)
	}

	client := session.NewClient("redis://"+mr.Addr(), session.Options{OpTimeout: time.Second})
	t.Cleanup(func() { _ = client.Close() })

	users := newMemoryUsers()
	engine, err := New().
		WithConfig(cfg).
		WithStore(client).
		WithUserLookup(users).
		WithAccountCreator(users).
		WithLogger(NopLogger()).
		Build()
	if err != nil {
		t.Fatalf("build engine: %v", err)
	}

	return &testEnv{engine: engine, users: users, mr: mr, client: client}
}

// seed registers alice with a real hash of pw.
func (env *testEnv) seed(t testing.TB, username, email, pw string) *Account {
	t.Helper()
	hash, err := env.engine.HashPassword(pw)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	return env.users.add(username, email, hash)
}

func emptyState(t testing.TB, env *testEnv) *State {
	t.Helper()
	st, err := env.engine.Load(context.Background(), httptest.NewRequest(http.MethodGet, "/", nil))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	return st
}

// commitCookie commits st and returns the session cookie written, or nil.
func commitCookie(env *testEnv, st *State) *http.Cookie {
	rec := httptest.NewRecorder()
	env.engine.Commit(rec, st)
	for _, c := range rec.Result().Cookies() {
		if c.Name == env.engine.CookieName() {
			return c
		}
	}
	return nil
}

func requestWithCookie(name, value string) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(&http.Cookie{Name: name, Value: value})
	return r
}

var errBackendDown = errors.New("backend down")
