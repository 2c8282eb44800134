package graph

import (
	"context"

	"go.uber.org/zap"

	"github.com/fluxsocial/socialdna/internal/clock"
	"github.com/fluxsocial/socialdna/internal/metrics"
	"github.com/fluxsocial/socialdna/internal/model"
	"github.com/fluxsocial/socialdna/internal/page"
	"github.com/fluxsocial/socialdna/internal/store"
)

const component = "graph"

// Default traversal caps.
const (
	DefaultMaxDepth   = 6
	DefaultMaxVisited = 10_000
)

// Store is the slice of the storage boundary the graph needs.
type Store interface {
	InsertFollow(ctx context.Context, e model.FollowEdge) (bool, error)
	DeleteFollow(ctx context.Context, follower, followed model.Identity, rel model.Relation) (bool, error)
	Follows(ctx context.Context, dir store.Direction, anchor model.Identity, rel model.Relation, limit, offset int) ([]model.Identity, error)
	Neighbors(ctx context.Context, dir store.Direction, frontier []model.Identity, rel model.Relation) ([]model.Identity, error)
	PendingRequests(ctx context.Context, id model.Identity, incoming bool, limit, offset int) ([]model.FriendshipRequest, error)
	Friends(ctx context.Context, id model.Identity, limit, offset int) ([]model.Identity, error)
	WithTx(ctx context.Context, op string, fn func(tx *store.Tx) error) error
}

// Service implements follow, traversal and friendship operations.
type Service struct {
	store      Store
	clock      clock.Clock
	maxPage    int
	maxDepth   int
	maxVisited int
	logger     *zap.Logger
	metrics    *metrics.Collector
}

// Option configures a Service.
type Option func(*Service)

// WithClock sets the timestamp source.
func WithClock(c clock.Clock) Option {
	return func(s *Service) { s.clock = c }
}

// WithMaxPageSize caps page sizes.
func WithMaxPageSize(n int) Option {
	return func(s *Service) { s.maxPage = n }
}

// WithTraversalLimits caps traversal depth and the number of identities
// one traversal may visit. Non-positive values keep the defaults.
func WithTraversalLimits(maxDepth, maxVisited int) Option {
	return func(s *Service) {
		if maxDepth > 0 {
			s.maxDepth = maxDepth
		}
		if maxVisited > 0 {
			s.maxVisited = maxVisited
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithMetrics sets the metrics collector.
func WithMetrics(m *metrics.Collector) Option {
	return func(s *Service) { s.metrics = m }
}

// New creates a graph Service over st.
func New(st Store, opts ...Option) *Service {
	s := &Service{
		store:      st,
		clock:      clock.NewMonotonic(),
		maxPage:    page.DefaultMaxSize,
		maxDepth:   DefaultMaxDepth,
		maxVisited: DefaultMaxVisited,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}
