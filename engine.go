package goSession

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/MrEthical07/goSession/internal"
	"github.com/MrEthical07/goSession/internal/rate"
	"github.com/MrEthical07/goSession/password"
	"github.com/MrEthical07/goSession/session"
	"github.com/MrEthical07/goSession/token"
)

// SessionStore is the persistence contract the Engine needs. *session.Client
// implements it.
type SessionStore interface {
	Get(ctx context.Context, id string) (*session.Record, error)
	Set(ctx context.Context, rec *session.Record, ttl time.Duration) error
	Delete(ctx context.Context, id string) error
	Touch(ctx context.Context, id string, ttl time.Duration) error
	Ping(ctx context.Context) (time.Duration, error)
}

// Engine runs the session lifecycle: load, sign-in, sign-out and commit.
// It holds no per-request data and is safe for concurrent use.
type Engine struct {
	config Config

	store      SessionStore
	signer     *token.Signer
	verifier   *password.Verifier
	validator  *CredentialValidator
	serializer *PrincipalSerializer
	creator    AccountCreator
	limiter    *rate.Limiter

	metrics *Metrics
	logger  Logger
}

// Config returns a copy of the engine configuration.
func (e *Engine) Config() Config {
	return cloneConfig(e.config)
}

// Metrics returns the engine counters.
func (e *Engine) Metrics() *Metrics {
	return e.metrics
}

// CookieName returns the name of the session cookie.
func (e *Engine) CookieName() string {
	return e.config.Session.CookieName
}

// Load resolves the session carried by r.
//
// A missing cookie, an unverifiable signature, a malformed id, and an
// absent, expired or corrupt record all yield a State in PhaseNoSession and
// a nil error. A record whose principal no longer exists yields PhaseLoaded.
// Store and user-lookup outages are returned as errors; they are never
// reported as "no session".
//
//	Performance: 1 GET, plus 1 user lookup when a principal is present.
func (e *Engine) Load(ctx context.Context, r *http.Request) (*State, error) {
	start := time.Now()
	defer func() { e.metrics.Observe(MetricLoadLatency, time.Since(start)) }()

	st := &State{phase: PhaseNoSession}

	cookie, err := r.Cookie(e.config.Session.CookieName)
	if err != nil || cookie.Value == "" {
		return st, nil
	}

	id, rotated, err := e.signer.Unsign(cookie.Value)
	if err != nil {
		e.metrics.Inc(MetricSignatureRejected)
		e.logger.Debug("session token rejected", "reason", err)
		return st, nil
	}
	if _, err := internal.ParseSessionID(id); err != nil {
		e.metrics.Inc(MetricSignatureRejected)
		e.logger.Debug("session id malformed", "reason", err)
		return st, nil
	}

	rec, err := e.store.Get(ctx, id)
	switch {
	case errors.Is(err, session.ErrRecordNotFound):
		return st, nil
	case errors.Is(err, session.ErrRecordCorrupt):
		e.logger.Warn("session record corrupt, ignoring", "error", err)
		return st, nil
	case err != nil:
		e.metrics.Inc(MetricStoreUnavailable)
		return nil, err
	}

	st.phase = PhaseLoaded
	st.record = rec
	st.token = cookie.Value
	if rotated {
		if st.token, err = e.signer.Sign(id); err != nil {
			return nil, err
		}
		st.issued = true
	}

	if rec.Anonymous() {
		return st, nil
	}

	p, err := e.serializer.Deserialize(ctx, rec.PrincipalRef)
	switch {
	case errors.Is(err, ErrPrincipalVanished):
		e.metrics.Inc(MetricPrincipalVanished)
		e.logger.Info("session principal vanished", "principal", rec.PrincipalRef)
		return st, nil
	case err != nil:
		return nil, err
	}

	st.principal = p
	st.phase = PhaseAuthenticated

	if e.config.Session.Rolling {
		e.roll(ctx, st)
	}
	return st, nil
}

func (e *Engine) roll(ctx context.Context, st *State) {
	ttl := e.ttlFor(st.record.Persistent)
	if err := e.store.Touch(ctx, st.record.ID, ttl); err != nil {
		e.logger.Warn("session touch failed", "error", err)
		return
	}
	st.record.ExpiresAt = time.Now().Add(ttl).Unix()
	if st.record.Persistent {
		st.issued = true
	}
}

// SignIn validates the credentials and, on success, establishes an
// authenticated session on st. Credential failures return
// ErrInvalidCredentials and leave st untouched. A login that used up its
// failure budget gets ErrSignInThrottled until the window ends, whatever
// the password.
func (e *Engine) SignIn(ctx context.Context, st *State, login, pw string, rememberMe bool) (*Principal, error) {
	if st == nil {
		return nil, ErrEngineNotReady
	}

	throttled := e.limiter != nil && strings.TrimSpace(login) != ""
	if throttled {
		if err := e.limiter.Check(ctx, login); err != nil {
			if errors.Is(err, rate.ErrRateLimited) {
				e.metrics.Inc(MetricSignInThrottled)
				return nil, ErrSignInThrottled
			}
			e.metrics.Inc(MetricStoreUnavailable)
			return nil, err
		}
	}

	p, err := e.validator.Validate(ctx, login, pw)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			e.metrics.Inc(MetricSignInFailure)
			if throttled {
				if ferr := e.limiter.Fail(context.WithoutCancel(ctx), login); ferr != nil && !errors.Is(ferr, rate.ErrRateLimited) {
					e.logger.Warn("sign-in failure not counted", "error", ferr)
				}
			}
		}
		return nil, err
	}

	if err := e.Establish(ctx, st, p, rememberMe); err != nil {
		return nil, err
	}
	if throttled {
		if err := e.limiter.Reset(context.WithoutCancel(ctx), login); err != nil {
			e.logger.Warn("sign-in counter not reset", "error", err)
		}
	}
	e.metrics.Inc(MetricSignInSuccess)
	e.logger.Info("signed in", "principal", p.ID, "remember", rememberMe)
	return p, nil
}

// Establish binds p to a freshly minted session id on st.
//
// The principal reference and the expiry are written with one store
// command. Any previous record of st is deleted afterwards so the old id
// cannot be replayed. Store writes are detached from ctx cancellation: a
// client that disconnects mid-login cannot leave a half-written session.
func (e *Engine) Establish(ctx context.Context, st *State, p *Principal, rememberMe bool) error {
	if st == nil || p == nil {
		return ErrEngineNotReady
	}

	id, err := internal.NewSessionID()
	if err != nil {
		return err
	}
	signed, err := e.signer.Sign(id)
	if err != nil {
		return err
	}

	now := time.Now()
	ttl := e.ttlFor(rememberMe)
	rec := &session.Record{
		ID:           id,
		PrincipalRef: e.serializer.Serialize(p),
		CreatedAt:    now.Unix(),
		ExpiresAt:    now.Add(ttl).Unix(),
		Persistent:   rememberMe,
		Values:       st.values(),
	}

	wctx := context.WithoutCancel(ctx)
	if err := e.store.Set(wctx, rec, ttl); err != nil {
		e.metrics.Inc(MetricStoreUnavailable)
		return err
	}

	if old := st.record; old != nil && old.ID != id {
		if err := e.store.Delete(wctx, old.ID); err != nil {
			e.logger.Warn("previous session not deleted", "error", err)
		}
	}

	st.phase = PhaseAuthenticated
	st.record = rec
	st.principal = p
	st.token = signed
	st.issued = true
	st.cleared = false
	st.dirty = false
	st.pending = nil

	e.metrics.Inc(MetricSessionCreated)
	return nil
}

// SignOut destroys the session on st. Signing out without a session, or
// twice, is not an error. The delete is detached from ctx cancellation.
func (e *Engine) SignOut(ctx context.Context, st *State) error {
	if st == nil {
		return ErrEngineNotReady
	}

	if st.record != nil {
		if err := e.store.Delete(context.WithoutCancel(ctx), st.record.ID); err != nil {
			e.metrics.Inc(MetricStoreUnavailable)
			return err
		}
		e.metrics.Inc(MetricSessionDestroyed)
	}

	st.reset(PhaseDestroyed)
	st.cleared = true
	return nil
}

// Ensure gives st an anonymous session if it has none, so values can be
// stored before authentication.
func (e *Engine) Ensure(ctx context.Context, st *State) error {
	if st == nil {
		return ErrEngineNotReady
	}
	if st.record != nil {
		return nil
	}

	id, err := internal.NewSessionID()
	if err != nil {
		return err
	}
	signed, err := e.signer.Sign(id)
	if err != nil {
		return err
	}

	now := time.Now()
	ttl := e.ttlFor(false)
	rec := &session.Record{
		ID:        id,
		CreatedAt: now.Unix(),
		ExpiresAt: now.Add(ttl).Unix(),
		Values:    st.values(),
	}
	if err := e.store.Set(ctx, rec, ttl); err != nil {
		e.metrics.Inc(MetricStoreUnavailable)
		return err
	}

	st.phase = PhaseLoaded
	st.record = rec
	st.token = signed
	st.issued = true
	st.cleared = false
	st.dirty = false
	st.pending = nil

	e.metrics.Inc(MetricSessionCreated)
	return nil
}

// Save persists values written with State.Set. The record keeps its
// remaining lifetime.
func (e *Engine) Save(ctx context.Context, st *State) error {
	if st == nil {
		return ErrEngineNotReady
	}
	if !st.dirty {
		return nil
	}
	if st.record == nil {
		return e.Ensure(ctx, st)
	}

	rec := st.record.Clone()
	rec.Values = st.values()
	ttl := rec.TTL(time.Now())
	if ttl <= 0 {
		return fmt.Errorf("%w: session expired", session.ErrRecordNotFound)
	}
	if err := e.store.Set(ctx, rec, ttl); err != nil {
		e.metrics.Inc(MetricStoreUnavailable)
		return err
	}

	st.record = rec
	st.pending = nil
	st.dirty = false
	return nil
}

// Commit writes the Set-Cookie header implied by st, at most once per
// request. It must run before the response headers are sent.
func (e *Engine) Commit(w http.ResponseWriter, st *State) {
	if st == nil || st.committed {
		return
	}
	st.committed = true

	cfg := e.config.Session
	switch {
	case st.cleared:
		http.SetCookie(w, &http.Cookie{
			Name:     cfg.CookieName,
			Value:    "",
			Path:     cfg.CookiePath,
			Domain:   cfg.CookieDomain,
			Expires:  time.Unix(0, 0),
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   e.config.Security.SecureCookies,
			SameSite: cfg.SameSite,
		})
	case st.issued && st.record != nil:
		c := &http.Cookie{
			Name:     cfg.CookieName,
			Value:    st.token,
			Path:     cfg.CookiePath,
			Domain:   cfg.CookieDomain,
			HttpOnly: true,
			Secure:   e.config.Security.SecureCookies,
			SameSite: cfg.SameSite,
		}
		if st.record.Persistent {
			ttl := st.record.TTL(time.Now())
			c.MaxAge = int(ttl / time.Second)
			c.Expires = time.Unix(st.record.ExpiresAt, 0).UTC()
		}
		http.SetCookie(w, c)
	}
}

// HashPassword hashes pw with the configured scheme.
func (e *Engine) HashPassword(pw string) (string, error) {
	return e.verifier.Hash(pw)
}

// SignUp creates an account and signs it in on st. The password is hashed
// before it reaches the AccountCreator.
func (e *Engine) SignUp(ctx context.Context, st *State, req NewAccount, pw string) (*Principal, error) {
	if e.creator == nil || st == nil {
		return nil, ErrEngineNotReady
	}

	hash, err := e.HashPassword(pw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAccountInvalid, err)
	}
	req.PasswordHash = hash

	acct, err := e.creator.CreateAccount(ctx, req)
	if err != nil {
		return nil, err
	}
	p := acct.Principal()

	if err := e.Establish(ctx, st, p, false); err != nil {
		return nil, err
	}
	e.logger.Info("account created", "principal", p.ID)
	return p, nil
}

// Ping checks that the session store is reachable.
func (e *Engine) Ping(ctx context.Context) (time.Duration, error) {
	return e.store.Ping(ctx)
}

// Logger returns the engine logger.
func (e *Engine) Logger() Logger {
	return e.logger
}

func (e *Engine) ttlFor(rememberMe bool) time.Duration {
	if rememberMe {
		return e.config.Session.RememberTTL
	}
	return e.config.Session.DefaultTTL
}
