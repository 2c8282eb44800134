// Package profile stores one self-described profile per identity.
package profile

import (
	"context"

	"go.uber.org/zap"

	"github.com/fluxsocial/socialdna/internal/agent"
	"github.com/fluxsocial/socialdna/internal/clock"
	"github.com/fluxsocial/socialdna/internal/errs"
	"github.com/fluxsocial/socialdna/internal/metrics"
	"github.com/fluxsocial/socialdna/internal/model"
)

const component = "profile"

// Store is the slice of the storage boundary profiles need.
type Store interface {
	InsertProfile(ctx context.Context, p model.Profile) (bool, error)
	UpdateProfile(ctx context.Context, p model.Profile) (bool, error)
	DeleteProfile(ctx context.Context, id model.Identity) (bool, error)
	Profile(ctx context.Context, id model.Identity) (*model.Profile, error)
}

// Fields are the caller-supplied parts of a profile.
type Fields struct {
	DisplayName string
	Summary     string
	Avatar      *model.GlobalEntryRef
}

// Service implements profile operations. Writes always target the
// calling identity's own profile.
type Service struct {
	store   Store
	clock   clock.Clock
	logger  *zap.Logger
	metrics *metrics.Collector
}

// Option configures a Service.
type Option func(*Service)

// WithClock sets the timestamp source.
func WithClock(c clock.Clock) Option {
	return func(s *Service) { s.clock = c }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithMetrics sets the metrics collector.
func WithMetrics(m *metrics.Collector) Option {
	return func(s *Service) { s.metrics = m }
}

// New creates a Service over st.
func New(st Store, opts ...Option) *Service {
	s := &Service{
		store:  st,
		clock:  clock.NewMonotonic(),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create stores the caller's profile. If one already exists it is
// returned unchanged.
func (s *Service) Create(ctx context.Context, f Fields) (_ model.Profile, err error) {
	const op = "profile.create"
	defer func() { s.metrics.Observe(component, "create", err) }()

	p, err := s.build(ctx, op, f)
	if err != nil {
		return model.Profile{}, err
	}
	inserted, err := s.store.InsertProfile(ctx, p)
	if err != nil {
		return model.Profile{}, errs.Wrap(errs.StorageUnavailable, op, err)
	}
	if inserted {
		s.logger.Debug("profile created", zap.String("identity", string(p.Identity)))
		return p, nil
	}
	stored, err := s.store.Profile(ctx, p.Identity)
	if err != nil {
		return model.Profile{}, errs.Wrap(errs.StorageUnavailable, op, err)
	}
	if stored == nil {
		// Deleted between the insert and the read.
		return model.Profile{}, errs.Newf(errs.NotFound, op, "profile %s was removed concurrently", p.Identity)
	}
	return *stored, nil
}

// Get returns id's profile, or nil if none exists.
func (s *Service) Get(ctx context.Context, id model.Identity) (_ *model.Profile, err error) {
	const op = "profile.get"
	defer func() { s.metrics.Observe(component, "get", err) }()

	if err := model.ValidateIdentity(op, id); err != nil {
		return nil, err
	}
	p, err := s.store.Profile(ctx, id)
	if err != nil {
		return nil, errs.Wrap(errs.StorageUnavailable, op, err)
	}
	return p, nil
}

// Update replaces the caller's profile. NotFound if there is none.
func (s *Service) Update(ctx context.Context, f Fields) (_ model.Profile, err error) {
	const op = "profile.update"
	defer func() { s.metrics.Observe(component, "update", err) }()

	p, err := s.build(ctx, op, f)
	if err != nil {
		return model.Profile{}, err
	}
	updated, err := s.store.UpdateProfile(ctx, p)
	if err != nil {
		return model.Profile{}, errs.Wrap(errs.StorageUnavailable, op, err)
	}
	if !updated {
		return model.Profile{}, errs.Newf(errs.NotFound, op, "no profile for %s", p.Identity)
	}
	s.logger.Debug("profile updated", zap.String("identity", string(p.Identity)))
	return p, nil
}

// Delete removes the caller's profile. Deleting a missing profile is a no-op.
func (s *Service) Delete(ctx context.Context) (err error) {
	const op = "profile.delete"
	defer func() { s.metrics.Observe(component, "delete", err) }()

	caller, err := agent.Require(ctx, op)
	if err != nil {
		return err
	}
	removed, err := s.store.DeleteProfile(ctx, caller)
	if err != nil {
		return errs.Wrap(errs.StorageUnavailable, op, err)
	}
	s.logger.Debug("profile deleted", zap.String("identity", string(caller)), zap.Bool("removed", removed))
	return nil
}

func (s *Service) build(ctx context.Context, op string, f Fields) (model.Profile, error) {
	caller, err := agent.Require(ctx, op)
	if err != nil {
		return model.Profile{}, err
	}
	p := model.Profile{
		Identity:    caller,
		DisplayName: f.DisplayName,
		Summary:     f.Summary,
		Avatar:      f.Avatar,
	}
	if err := model.ValidateStruct(op, p); err != nil {
		return model.Profile{}, err
	}
	p.UpdatedAt = s.clock.Now()
	return p, nil
}
