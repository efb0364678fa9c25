package goSession

import (
	"errors"

	"github.com/MrEthical07/goSession/internal/rate"
	"github.com/MrEthical07/goSession/password"
	"github.com/MrEthical07/goSession/session"
	"github.com/MrEthical07/goSession/token"
)

// Builder assembles an Engine. A Builder is single-use.
type Builder struct {
	config Config
	store  SessionStore

	users   UserLookup
	creator AccountCreator
	logger  Logger

	built bool
}

// New returns a Builder seeded with DefaultConfig.
func New() *Builder {
	return &Builder{
		config: DefaultConfig(),
	}
}

// WithConfig replaces the whole configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithSecrets sets the token signing secrets; the first one signs.
func (b *Builder) WithSecrets(secrets ...string) *Builder {
	b.config.Session.Secrets = append([]string(nil), secrets...)
	return b
}

// WithStore injects the session store. Without one, Build creates a
// *session.Client from Config.Store that connects on first use.
func (b *Builder) WithStore(store SessionStore) *Builder {
	b.store = store
	return b
}

// WithUserLookup sets the account directory. Required.
func (b *Builder) WithUserLookup(users UserLookup) *Builder {
	b.users = users
	return b
}

// WithAccountCreator enables SignUp.
func (b *Builder) WithAccountCreator(creator AccountCreator) *Builder {
	b.creator = creator
	return b
}

// WithLogger sets the engine logger. Defaults to slog.Default.
func (b *Builder) WithLogger(logger Logger) *Builder {
	b.logger = logger
	return b
}

// WithMetricsEnabled toggles the engine counters.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms toggles the Load latency histogram.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration and returns the Engine. It performs no
// network I/O.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if b.users == nil {
		return nil, errors.New("user lookup required")
	}

	signer, err := token.NewSigner(cfg.Session.Secrets...)
	if err != nil {
		return nil, err
	}

	verifier, err := password.NewVerifier(cfg.Password.options())
	if err != nil {
		return nil, err
	}

	store := b.store
	if store == nil {
		store = session.NewClient(cfg.Store.URL, session.Options{
			KeyPrefix: cfg.Store.KeyPrefix,
			OpTimeout: cfg.Store.OpTimeout,
		})
	}

	logger := b.logger
	if logger == nil {
		logger = defaultLogger()
	}

	var limiter *rate.Limiter
	if cfg.Security.MaxSignInAttempts > 0 {
		counters, ok := store.(rate.Counters)
		if !ok {
			return nil, errors.New("sign-in throttling requires a store with counters")
		}
		limiter = rate.New(counters, rate.Config{
			MaxAttempts: cfg.Security.MaxSignInAttempts,
			Window:      cfg.Security.SignInWindow,
		})
	}

	engine := &Engine{
		config:     cfg,
		store:      store,
		signer:     signer,
		verifier:   verifier,
		validator:  NewCredentialValidator(b.users, verifier, logger),
		serializer: NewPrincipalSerializer(b.users),
		creator:    b.creator,
		limiter:    limiter,
		metrics:    NewMetrics(cfg.Metrics),
		logger:     logger,
	}

	b.built = true
	return engine, nil
}
