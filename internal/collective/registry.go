// Package collective implements per-collective communication logs,
// communication-method registries and optional membership sets.
package collective

import (
	"context"
	"maps"
	"slices"

	"go.uber.org/zap"

	"github.com/fluxsocial/socialdna/internal/clock"
	"github.com/fluxsocial/socialdna/internal/metrics"
	"github.com/fluxsocial/socialdna/internal/model"
	"github.com/fluxsocial/socialdna/internal/page"
	"github.com/fluxsocial/socialdna/internal/store"
)

const component = "collective"

// Store is the slice of the storage boundary collectives need.
type Store interface {
	Posts(ctx context.Context, q store.PostQuery) ([]model.Post, error)
	InsertMethod(ctx context.Context, m model.CommunicationMethod) (bool, error)
	Methods(ctx context.Context, collective model.PartitionID, limit, offset int) ([]model.CommunicationMethod, error)
	InsertMember(ctx context.Context, collective model.PartitionID, id model.Identity, at model.Timestamp) (bool, error)
	DeleteMember(ctx context.Context, collective model.PartitionID, id model.Identity) (bool, error)
	IsMember(ctx context.Context, collective model.PartitionID, id model.Identity) (bool, error)
	Members(ctx context.Context, collective model.PartitionID, limit, offset int) ([]model.Identity, error)
	WithTx(ctx context.Context, op string, fn func(tx *store.Tx) error) error
}

// Settings is the static configuration of one collective.
type Settings struct {
	// EnumerateMembers is false for collectives that opt out of listing
	// their membership. The set is still kept for write checks.
	EnumerateMembers bool

	// Policy decides who may post. Nil means Open.
	Policy WritePolicy
}

// DefaultSettings applies to collectives with no explicit configuration.
func DefaultSettings() Settings {
	return Settings{EnumerateMembers: true, Policy: Open{}}
}

// Registry hands out Collective handles over one store.
type Registry struct {
	store    Store
	clock    clock.Clock
	maxPage  int
	logger   *zap.Logger
	metrics  *metrics.Collector
	defaults Settings

	// settings is fixed at construction.
	settings map[model.PartitionID]Settings
}

// Option configures a Registry.
type Option func(*Registry)

// WithClock sets the timestamp source.
func WithClock(c clock.Clock) Option {
	return func(r *Registry) { r.clock = c }
}

// WithMaxPageSize caps page sizes.
func WithMaxPageSize(n int) Option {
	return func(r *Registry) { r.maxPage = n }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(r *Registry) { r.logger = l }
}

// WithMetrics sets the metrics collector.
func WithMetrics(m *metrics.Collector) Option {
	return func(r *Registry) { r.metrics = m }
}

// WithDefaults sets the settings for unconfigured collectives.
func WithDefaults(s Settings) Option {
	return func(r *Registry) { r.defaults = s }
}

// WithCollective configures one collective.
func WithCollective(id model.PartitionID, s Settings) Option {
	return func(r *Registry) { r.settings[id] = s }
}

// NewRegistry creates a Registry over st.
func NewRegistry(st Store, opts ...Option) *Registry {
	r := &Registry{
		store:    st,
		clock:    clock.NewMonotonic(),
		maxPage:  page.DefaultMaxSize,
		logger:   zap.NewNop(),
		defaults: DefaultSettings(),
		settings: make(map[model.PartitionID]Settings),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Collective returns the handle for id. A malformed id is InvalidArgument.
func (r *Registry) Collective(id model.PartitionID) (*Collective, error) {
	if err := model.ValidatePartition("collective.open", id); err != nil {
		return nil, err
	}
	s, ok := r.settings[id]
	if !ok {
		s = r.defaults
	}
	if s.Policy == nil {
		s.Policy = Open{}
	}
	return &Collective{id: id, settings: s, reg: r}, nil
}

// Configured returns one page of the explicitly configured collective ids,
// ordered by id. Collectives running on the defaults are not listed.
func (r *Registry) Configured(req page.Request) (model.Page[model.PartitionID], error) {
	if err := req.Validate("collective.configured", r.maxPage); err != nil {
		return model.Page[model.PartitionID]{}, err
	}
	ids := slices.Sorted(maps.Keys(r.settings))
	return page.Of(page.Slice(ids, req), req), nil
}
