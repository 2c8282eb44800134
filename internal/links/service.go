// Package links indexes directed cross-partition links between entries.
//
// Outgoing and incoming discovery are two orders over the same edge set.
// New links pass an injected admission Policy inside the write transaction.
package links

import (
	"context"
	"errors"
	"slices"
	"strings"

	"go.uber.org/zap"

	"github.com/fluxsocial/socialdna/internal/agent"
	"github.com/fluxsocial/socialdna/internal/clock"
	"github.com/fluxsocial/socialdna/internal/errs"
	"github.com/fluxsocial/socialdna/internal/metrics"
	"github.com/fluxsocial/socialdna/internal/model"
	"github.com/fluxsocial/socialdna/internal/page"
	"github.com/fluxsocial/socialdna/internal/store"
)

const component = "links"

// Store is the slice of the storage boundary links need.
type Store interface {
	Links(ctx context.Context, q store.LinkQuery) ([]model.CrossLink, error)
	WithTx(ctx context.Context, op string, fn func(tx *store.Tx) error) error
}

// Service implements link creation, removal and discovery.
type Service struct {
	store   Store
	policy  Policy
	clock   clock.Clock
	maxPage int
	logger  *zap.Logger
	metrics *metrics.Collector
}

// Option configures a Service.
type Option func(*Service)

// WithPolicy sets the admission policy. The default admits everything.
func WithPolicy(p Policy) Option {
	return func(s *Service) { s.policy = p }
}

// WithClock sets the timestamp source.
func WithClock(c clock.Clock) Option {
	return func(s *Service) { s.clock = c }
}

// WithMaxPageSize caps page sizes.
func WithMaxPageSize(n int) Option {
	return func(s *Service) { s.maxPage = n }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithMetrics sets the metrics collector.
func WithMetrics(m *metrics.Collector) Option {
	return func(s *Service) { s.metrics = m }
}

// New creates a links Service over st.
func New(st Store, opts ...Option) *Service {
	s := &Service{
		store:   st,
		policy:  AllowAll{},
		clock:   clock.NewMonotonic(),
		maxPage: page.DefaultMaxSize,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateLink links source to target as the caller. A link the caller
// already holds is a no-op success and is not charged to any quota.
func (s *Service) CreateLink(ctx context.Context, source, target model.GlobalEntryRef) (err error) {
	const op = "links.create"
	defer func() { s.metrics.Observe(component, "create", err) }()

	caller, err := s.linkArgs(ctx, op, source, target)
	if err != nil {
		return err
	}
	link := model.CrossLink{Source: source, Target: target, CreatedBy: caller, CreatedAt: s.clock.Now()}

	var created bool
	err = s.store.WithTx(ctx, op, func(tx *store.Tx) error {
		exists, err := tx.LinkExists(link)
		if err != nil || exists {
			return err
		}
		if err := s.policy.Admit(ctx, Request{
			Caller: caller,
			Link:   link,
			Now:    link.CreatedAt,
			Recent: func(since model.Timestamp) (int, error) {
				return tx.CountLinksSince(caller, since)
			},
		}); err != nil {
			return s.denied(op, caller, err)
		}
		created, err = tx.InsertLink(link)
		return err
	})
	if err != nil {
		return errs.Wrap(errs.StorageUnavailable, op, err)
	}

	s.logger.Debug("link",
		zap.String("source", source.String()),
		zap.String("target", target.String()),
		zap.String("created_by", string(caller)),
		zap.Bool("created", created))
	return nil
}

// denied converts a policy outcome into the engine error taxonomy.
func (s *Service) denied(op string, caller model.Identity, err error) error {
	var d *Denial
	if !errors.As(err, &d) {
		return err
	}
	s.metrics.AdmissionDenied(d.Reason)
	s.logger.Info("link admission denied",
		zap.String("caller", string(caller)),
		zap.String("reason", d.Reason),
		zap.String("detail", d.Message))
	return errs.New(d.Code, op, d.Message)
}

// RemoveLink removes the caller's source -> target link. Removing a link
// held only by other identities is Forbidden; removing an absent link is
// a no-op success.
func (s *Service) RemoveLink(ctx context.Context, source, target model.GlobalEntryRef) (err error) {
	const op = "links.remove"
	defer func() { s.metrics.Observe(component, "remove", err) }()

	caller, err := s.linkArgs(ctx, op, source, target)
	if err != nil {
		return err
	}
	err = s.store.WithTx(ctx, op, func(tx *store.Tx) error {
		creators, err := tx.LinkCreators(source, target)
		if err != nil || len(creators) == 0 {
			return err
		}
		if !slices.Contains(creators, caller) {
			return errs.New(errs.Forbidden, op, "only the link's creator may remove it")
		}
		_, err = tx.DeleteLink(source, target, caller)
		return err
	})
	if err != nil {
		return errs.Wrap(errs.StorageUnavailable, op, err)
	}
	s.logger.Debug("unlink",
		zap.String("source", source.String()),
		zap.String("target", target.String()),
		zap.String("by", string(caller)))
	return nil
}

// GetOutgoing returns one page of links from source, newest first, then by
// target ref. A non-nil filter keeps only targets in that partition.
func (s *Service) GetOutgoing(ctx context.Context, source model.GlobalEntryRef, filter *model.PartitionID, req page.Request) (model.Page[model.CrossLink], error) {
	return s.list(ctx, "links.get_outgoing", true, source, filter, req)
}

// GetIncoming returns one page of links to target, newest first, then by
// source ref. A non-nil filter keeps only sources in that partition.
func (s *Service) GetIncoming(ctx context.Context, target model.GlobalEntryRef, filter *model.PartitionID, req page.Request) (model.Page[model.CrossLink], error) {
	return s.list(ctx, "links.get_incoming", false, target, filter, req)
}

func (s *Service) list(ctx context.Context, op string, outgoing bool, anchor model.GlobalEntryRef, filter *model.PartitionID, req page.Request) (_ model.Page[model.CrossLink], err error) {
	defer func() { s.metrics.Observe(component, strings.TrimPrefix(op, component+"."), err) }()

	if err := model.ValidateRef(op, anchor); err != nil {
		return model.Page[model.CrossLink]{}, err
	}
	if err := req.Validate(op, s.maxPage); err != nil {
		return model.Page[model.CrossLink]{}, err
	}
	q := store.LinkQuery{Anchor: anchor, Outgoing: outgoing, Limit: req.Limit(), Offset: req.Offset()}
	if filter != nil {
		if err := model.ValidatePartition(op, *filter); err != nil {
			return model.Page[model.CrossLink]{}, err
		}
		q.Counterpart = *filter
	}
	links, err := s.store.Links(ctx, q)
	if err != nil {
		return model.Page[model.CrossLink]{}, errs.Wrap(errs.StorageUnavailable, op, err)
	}
	return page.Of(links, req), nil
}

func (s *Service) linkArgs(ctx context.Context, op string, source, target model.GlobalEntryRef) (model.Identity, error) {
	caller, err := agent.Require(ctx, op)
	if err != nil {
		return "", err
	}
	if err := model.ValidateRef(op, source); err != nil {
		return "", err
	}
	if err := model.ValidateRef(op, target); err != nil {
		return "", err
	}
	return caller, nil
}
