package authcore

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"

	"github.com/commercekit/authcore/credstore"
	"github.com/commercekit/authcore/internal/rate"
	"github.com/commercekit/authcore/token"
	"github.com/commercekit/authcore/webhook"
)

// Builder assembles an [Engine]. Construction is allocation-only until
// Build; no I/O is performed.
//
// Builder instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Builder struct {
	config Config
	redis  redis.UniversalClient

	mailer   Mailer
	users    UserProvider
	orders   OrderUpdater
	sessions ExternalSessionReader
	sink     AuditSink

	extraResolvers []IdentityResolver

	built bool
}

// New creates a [Builder] preloaded with the default configuration.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig replaces the configuration. Zero-valued tunables are filled
// from defaults at Build.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cfg
	return b
}

// WithRedis supplies the Redis client required by [BackendRedis].
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithMailer supplies the notification channel for issued codes.
func (b *Builder) WithMailer(m Mailer) *Builder {
	b.mailer = m
	return b
}

// WithUserProvider supplies the persisted-identity collaborator. Required.
func (b *Builder) WithUserProvider(up UserProvider) *Builder {
	b.users = up
	return b
}

// WithOrderUpdater supplies the downstream order collaborator for trusted
// payment events.
func (b *Builder) WithOrderUpdater(ou OrderUpdater) *Builder {
	b.orders = ou
	return b
}

// WithExternalSessions enables the federated-session proof mechanism, tried
// before bearer tokens.
func (b *Builder) WithExternalSessions(reader ExternalSessionReader) *Builder {
	b.sessions = reader
	return b
}

// WithAuditSink supplies the audit destination. Ignored unless
// Config.Audit.Enabled is set.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.sink = sink
	return b
}

// WithResolver appends an additional proof mechanism after the built-in
// ones.
func (b *Builder) WithResolver(res IdentityResolver) *Builder {
	b.extraResolvers = append(b.extraResolvers, res)
	return b
}

// Build validates the configuration, wires the stores, limiter, token
// manager, webhook verifier, and resolver chain, and returns a ready
// [Engine]. A Builder builds at most once.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}
	cfg := mergeDefaults(b.config)
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	if b.users == nil {
		return nil, errors.New("user provider is required")
	}
	if cfg.Store.Backend == BackendRedis && b.redis == nil {
		return nil, errors.New("redis backend requires a redis client")
	}

	tokens, err := token.NewManager(token.Config{
		TTL:    cfg.Session.TTL,
		Secret: cfg.Session.Secret,
		Issuer: cfg.Session.Issuer,
		Leeway: cfg.Session.Leeway,
	})
	if err != nil {
		return nil, err
	}

	engine := &Engine{
		config:  cfg,
		tokens:  tokens,
		mailer:  b.mailer,
		users:   b.users,
		orders:  b.orders,
		metrics: nil,
	}
	if cfg.Metrics.Enabled {
		engine.metrics = NewMetrics()
	}
	engine.audit = newAuditDispatcher(cfg.Audit, b.sink)
	if len(cfg.Webhook.Secret) > 0 {
		engine.webhooks = webhook.NewVerifier(cfg.Webhook.Secret)
	}

	limiterCfg := rate.Config{Window: cfg.RateLimit.Window, Max: cfg.RateLimit.Max}
	switch cfg.Store.Backend {
	case BackendMemory:
		engine.store = credstore.NewMemory()
		engine.limiter = rate.NewMemory(limiterCfg)
	case BackendFile:
		fileStore, err := credstore.NewFile(cfg.Store.SnapshotPath)
		if err != nil {
			return nil, err
		}
		engine.store = fileStore
		engine.limiter = rate.NewMemory(limiterCfg)
	case BackendRedis:
		fb := credstore.NewFallback(credstore.NewRedis(b.redis, cfg.Store.KeyPrefix))
		fb.OnFallback = func(op string, err error) {
			engine.metricInc(MetricStoreFallback)
			engine.emitAudit(context.Background(), auditEventStoreFallback, true, "", nil, func() map[string]string {
				return map[string]string{"op": op}
			})
		}
		engine.store = fb
		engine.limiter = rate.NewRedis(b.redis, limiterCfg, cfg.Store.KeyPrefix+"rl")
		engine.localLimiter = rate.NewMemory(limiterCfg)
	}

	var chain ResolverChain
	if b.sessions != nil {
		chain = append(chain, ExternalSessionResolver{Reader: b.sessions})
	}
	chain = append(chain, TokenResolver{Manager: tokens, CookieName: cfg.Session.CookieName})
	chain = append(chain, b.extraResolvers...)
	engine.resolvers = chain

	b.built = true
	return engine, nil
}
