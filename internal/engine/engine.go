package engine

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/fluxsocial/socialdna/internal/address"
	"github.com/fluxsocial/socialdna/internal/clock"
	"github.com/fluxsocial/socialdna/internal/collective"
	"github.com/fluxsocial/socialdna/internal/config"
	"github.com/fluxsocial/socialdna/internal/expression"
	"github.com/fluxsocial/socialdna/internal/graph"
	"github.com/fluxsocial/socialdna/internal/links"
	"github.com/fluxsocial/socialdna/internal/logging"
	"github.com/fluxsocial/socialdna/internal/metrics"
	"github.com/fluxsocial/socialdna/internal/profile"
	"github.com/fluxsocial/socialdna/internal/store"
)

// Engine bundles the services of one socialdna instance.
type Engine struct {
	Expressions *expression.Service
	Graph       *graph.Service
	Links       *links.Service
	Collectives *collective.Registry
	Profiles    *profile.Service
	Addresses   *address.Resolver

	store   *store.Store
	owned   bool
	cfg     config.Config
	logger  *zap.Logger
	metrics *metrics.Collector
}

type options struct {
	logger     *zap.Logger
	clock      clock.Clock
	admission  []links.Policy
	metrics    *metrics.Collector
	visibility expression.Visibility
}

// Option configures an Engine.
type Option func(*options)

// WithLogger sets the root logger. Default: zap.NewNop().
func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithClock sets the timestamp source shared by every service.
func WithClock(c clock.Clock) Option {
	return func(o *options) { o.clock = c }
}

// WithAdmission appends link admission policies after the configured ones.
func WithAdmission(p ...links.Policy) Option {
	return func(o *options) { o.admission = append(o.admission, p...) }
}

// WithMetrics sets the collector. Default: a fresh metrics.New().
func WithMetrics(m *metrics.Collector) Option {
	return func(o *options) { o.metrics = m }
}

// WithVisibility replaces the private expression read check.
func WithVisibility(v expression.Visibility) Option {
	return func(o *options) { o.visibility = v }
}

// Open opens the store named by cfg.Database and builds an Engine that
// owns it. Close releases the store.
func Open(cfg config.Config, opts ...Option) (*Engine, error) {
	o := resolve(opts)
	st, err := store.Open(cfg.Database,
		store.WithTimeout(cfg.Storage.Timeout.Std()),
		store.WithLogger(logging.For(o.logger, logging.ComponentStore)),
		store.WithBreaker(store.BreakerConfig{
			MaxRequests:         cfg.Storage.Breaker.MaxRequests,
			Interval:            cfg.Storage.Breaker.Interval.Std(),
			OpenTimeout:         cfg.Storage.Breaker.OpenTimeout.Std(),
			ConsecutiveFailures: cfg.Storage.Breaker.ConsecutiveFailures,
		}),
	)
	if err != nil {
		return nil, err
	}
	e, err := build(st, cfg, o)
	if err != nil {
		st.Close()
		return nil, err
	}
	e.owned = true
	return e, nil
}

// New builds an Engine over an already open store. The caller keeps
// ownership of st.
func New(st *store.Store, cfg config.Config, opts ...Option) (*Engine, error) {
	return build(st, cfg, resolve(opts))
}

func resolve(opts []Option) options {
	o := options{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.clock == nil {
		o.clock = clock.NewMonotonic()
	}
	if o.metrics == nil {
		o.metrics = metrics.New()
	}
	return o
}

func build(st *store.Store, cfg config.Config, o options) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	registryOpts := []collective.Option{
		collective.WithClock(o.clock),
		collective.WithMaxPageSize(cfg.Pagination.MaxPageSize),
		collective.WithLogger(logging.For(o.logger, logging.ComponentCollective)),
		collective.WithMetrics(o.metrics),
	}
	for _, c := range cfg.Collectives {
		policy, err := collective.ParseWritePolicy(c.WritePolicy)
		if err != nil {
			return nil, fmt.Errorf("collective %s: %w", c.ID, err)
		}
		registryOpts = append(registryOpts, collective.WithCollective(c.ID, collective.Settings{
			EnumerateMembers: c.Enumerate(),
			Policy:           policy,
		}))
	}

	exprOpts := []expression.Option{
		expression.WithClock(o.clock),
		expression.WithMaxPageSize(cfg.Pagination.MaxPageSize),
		expression.WithLogger(logging.For(o.logger, logging.ComponentExpression)),
		expression.WithMetrics(o.metrics),
	}
	if o.visibility != nil {
		exprOpts = append(exprOpts, expression.WithVisibility(o.visibility))
	}

	e := &Engine{
		Expressions: expression.New(st, cfg.LocalPartition, exprOpts...),
		Graph: graph.New(st,
			graph.WithClock(o.clock),
			graph.WithMaxPageSize(cfg.Pagination.MaxPageSize),
			graph.WithTraversalLimits(cfg.Traversal.MaxDepth, cfg.Traversal.MaxVisited),
			graph.WithLogger(logging.For(o.logger, logging.ComponentGraph)),
			graph.WithMetrics(o.metrics),
		),
		Links: links.New(st,
			links.WithPolicy(admission(cfg, o.admission)),
			links.WithClock(o.clock),
			links.WithMaxPageSize(cfg.Pagination.MaxPageSize),
			links.WithLogger(logging.For(o.logger, logging.ComponentLinks)),
			links.WithMetrics(o.metrics),
		),
		Collectives: collective.NewRegistry(st, registryOpts...),
		Profiles: profile.New(st,
			profile.WithClock(o.clock),
			profile.WithLogger(logging.For(o.logger, logging.ComponentProfile)),
			profile.WithMetrics(o.metrics),
		),
		Addresses: address.NewResolver(st),
		store:     st,
		cfg:       cfg,
		logger:    logging.For(o.logger, logging.ComponentEngine),
		metrics:   o.metrics,
	}
	e.logger.Debug("engine ready",
		zap.String("local_partition", string(cfg.LocalPartition)),
		zap.Int("collectives", len(cfg.Collectives)))
	return e, nil
}

// admission orders the configured policies: trusted sources, then quota,
// then extra. No policy at all admits everything.
func admission(cfg config.Config, extra []links.Policy) links.Policy {
	var chain links.Chain
	if len(cfg.Links.TrustedPartitions) > 0 {
		chain = append(chain, links.Trust(cfg.Links.TrustedPartitions...))
	}
	if cfg.Links.Quota.Limit > 0 {
		chain = append(chain, links.Quota{Limit: cfg.Links.Quota.Limit, Window: cfg.Links.Quota.Window.Std()})
	}
	chain = append(chain, extra...)
	if len(chain) == 0 {
		return links.AllowAll{}
	}
	return chain
}

// Config returns the configuration the engine was built with.
func (e *Engine) Config() config.Config {
	return e.cfg
}

// Metrics returns the engine's collector.
func (e *Engine) Metrics() *metrics.Collector {
	return e.metrics
}

// Close releases the store if the engine opened it.
func (e *Engine) Close() error {
	if e == nil || !e.owned {
		return nil
	}
	return e.store.Close()
}
