package expression

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fluxsocial/socialdna/internal/address"
	"github.com/fluxsocial/socialdna/internal/agent"
	"github.com/fluxsocial/socialdna/internal/clock"
	"github.com/fluxsocial/socialdna/internal/errs"
	"github.com/fluxsocial/socialdna/internal/metrics"
	"github.com/fluxsocial/socialdna/internal/model"
	"github.com/fluxsocial/socialdna/internal/page"
	"github.com/fluxsocial/socialdna/internal/store"
)

const component = "expression"

// receiptNamespace scopes delivery receipts; a receipt is the UUIDv5 of the
// private entry hash under it.
var receiptNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("socialdna:receipt"))

// Store is the slice of the storage boundary expressions need.
type Store interface {
	address.Getter
	Put(ctx context.Context, e store.Entry) (store.Entry, error)
	Query(ctx context.Context, q store.EntryQuery) ([]store.Entry, error)
}

// Visibility decides whether the calling context may read a private
// expression fetched by address.
type Visibility func(ctx context.Context, e model.Expression) bool

// ParticipantsOnly admits the sender and the recipient of a private expression.
func ParticipantsOnly(ctx context.Context, e model.Expression) bool {
	caller, ok := agent.FromContext(ctx)
	return ok && (caller == e.Creator || caller == e.Recipient)
}

// Service implements the expression operations.
type Service struct {
	store      Store
	resolver   *address.Resolver
	local      model.PartitionID
	clock      clock.Clock
	visibility Visibility
	maxPage    int
	logger     *zap.Logger
	metrics    *metrics.Collector
}

// Option configures a Service.
type Option func(*Service)

// WithClock sets the timestamp source.
func WithClock(c clock.Clock) Option {
	return func(s *Service) { s.clock = c }
}

// WithVisibility replaces the private-read check.
func WithVisibility(v Visibility) Option {
	return func(s *Service) { s.visibility = v }
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

// New creates a Service writing to the local partition.
func New(st Store, local model.PartitionID, opts ...Option) *Service {
	s := &Service{
		store:      st,
		resolver:   address.NewResolver(st),
		local:      local,
		clock:      clock.NewMonotonic(),
		visibility: ParticipantsOnly,
		maxPage:    page.DefaultMaxSize,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// entryBody is the stored encoding of the parts of an Expression not
// already held in entry columns.
type entryBody struct {
	Content       model.Content      `json:"content"`
	LinkPartition *model.PartitionID `json:"link_partition,omitempty"`
}

// CreatePublic writes content to the local partition and appends it to the
// caller's public log. Creating identical content again returns the stored
// expression unchanged.
func (s *Service) CreatePublic(ctx context.Context, content model.Content, linkPartition *model.PartitionID) (_ model.Expression, err error) {
	const op = "expression.create_public"
	defer func() { s.metrics.Observe(component, "create_public", err) }()

	caller, err := agent.Require(ctx, op)
	if err != nil {
		return model.Expression{}, err
	}
	if err := content.Validate(op); err != nil {
		return model.Expression{}, err
	}
	if linkPartition != nil {
		if err := model.ValidatePartition(op, *linkPartition); err != nil {
			return model.Expression{}, err
		}
	}

	hash, err := model.ExpressionHash(caller, s.local, content, linkPartition)
	if err != nil {
		return model.Expression{}, errs.Wrap(errs.InvalidArgument, op, err)
	}
	body, err := json.Marshal(entryBody{Content: content, LinkPartition: linkPartition})
	if err != nil {
		return model.Expression{}, errs.Wrap(errs.InvalidArgument, op, err)
	}

	stored, err := s.store.Put(ctx, store.Entry{
		Partition: s.local,
		Hash:      hash,
		Kind:      store.KindExpression,
		Author:    caller,
		Body:      body,
		CreatedAt: s.clock.Now(),
	})
	if err != nil {
		s.logger.Warn("create public expression failed", zap.String("creator", string(caller)), zap.Error(err))
		return model.Expression{}, errs.Wrap(errs.StorageUnavailable, op, err)
	}

	s.logger.Debug("public expression stored",
		zap.String("creator", string(caller)),
		zap.String("hash", string(hash)))
	return decode(op, stored)
}

// GetByAuthor returns one page of author's public expressions ordered by
// created_at descending, then hash ascending.
func (s *Service) GetByAuthor(ctx context.Context, author model.Identity, req page.Request) (_ model.Page[model.Expression], err error) {
	const op = "expression.get_by_author"
	defer func() { s.metrics.Observe(component, "get_by_author", err) }()

	if err := model.ValidateIdentity(op, author); err != nil {
		return model.Page[model.Expression]{}, err
	}
	if err := req.Validate(op, s.maxPage); err != nil {
		return model.Page[model.Expression]{}, err
	}
	return s.query(ctx, op, store.EntryQuery{
		Kind:   store.KindExpression,
		Author: author,
		Limit:  req.Limit(),
		Offset: req.Offset(),
	}, req)
}

// GetByAddress returns the expression at ref, or nil if absent. A private
// expression the caller may not read is reported as absent.
func (s *Service) GetByAddress(ctx context.Context, ref model.GlobalEntryRef) (_ *model.Expression, err error) {
	const op = "expression.get_by_address"
	defer func() { s.metrics.Observe(component, "get_by_address", err) }()

	entry, err := s.resolver.Resolve(ctx, ref)
	if err != nil {
		return nil, errs.Wrap(errs.StorageUnavailable, op, err)
	}
	if entry == nil {
		return nil, nil
	}
	expr, err := decode(op, *entry)
	if err != nil {
		return nil, err
	}
	if expr.IsPrivate() && !s.visibility(ctx, expr) {
		return nil, nil
	}
	return &expr, nil
}

// SendPrivate delivers content to one recipient and returns a receipt
// derived from the entry hash, so a retried send yields the same receipt
// and a single delivery.
func (s *Service) SendPrivate(ctx context.Context, to model.Identity, content model.Content) (_ model.ReceiptID, err error) {
	const op = "expression.send_private"
	defer func() { s.metrics.Observe(component, "send_private", err) }()

	caller, err := agent.Require(ctx, op)
	if err != nil {
		return "", err
	}
	if err := model.ValidateIdentity(op, to); err != nil {
		return "", err
	}
	if err := content.Validate(op); err != nil {
		return "", err
	}

	hash, err := model.PrivateHash(caller, to, s.local, content)
	if err != nil {
		return "", errs.Wrap(errs.InvalidArgument, op, err)
	}
	body, err := json.Marshal(entryBody{Content: content})
	if err != nil {
		return "", errs.Wrap(errs.InvalidArgument, op, err)
	}

	if _, err := s.store.Put(ctx, store.Entry{
		Partition: s.local,
		Hash:      hash,
		Kind:      store.KindPrivate,
		Author:    caller,
		Recipient: to,
		Body:      body,
		CreatedAt: s.clock.Now(),
	}); err != nil {
		s.logger.Warn("send private failed", zap.String("to", string(to)), zap.Error(err))
		return "", errs.Wrap(errs.StorageUnavailable, op, err)
	}

	receipt := model.ReceiptID(uuid.NewSHA1(receiptNamespace, []byte(hash)).String())
	s.logger.Debug("private expression delivered",
		zap.String("from", string(caller)),
		zap.String("to", string(to)),
		zap.String("receipt", string(receipt)))
	return receipt, nil
}

// Inbox returns one page of private expressions addressed to the caller,
// optionally only those from one sender.
func (s *Service) Inbox(ctx context.Context, from *model.Identity, req page.Request) (_ model.Page[model.Expression], err error) {
	const op = "expression.inbox"
	defer func() { s.metrics.Observe(component, "inbox", err) }()

	caller, err := agent.Require(ctx, op)
	if err != nil {
		return model.Page[model.Expression]{}, err
	}
	if err := req.Validate(op, s.maxPage); err != nil {
		return model.Page[model.Expression]{}, err
	}
	q := store.EntryQuery{
		Kind:      store.KindPrivate,
		Recipient: caller,
		Limit:     req.Limit(),
		Offset:    req.Offset(),
	}
	if from != nil {
		if err := model.ValidateIdentity(op, *from); err != nil {
			return model.Page[model.Expression]{}, err
		}
		q.Author = *from
	}
	return s.query(ctx, op, q, req)
}

func (s *Service) query(ctx context.Context, op string, q store.EntryQuery, req page.Request) (model.Page[model.Expression], error) {
	entries, err := s.store.Query(ctx, q)
	if err != nil {
		return model.Page[model.Expression]{}, errs.Wrap(errs.StorageUnavailable, op, err)
	}
	items := make([]model.Expression, 0, len(entries))
	for _, e := range entries {
		expr, err := decode(op, e)
		if err != nil {
			return model.Page[model.Expression]{}, err
		}
		items = append(items, expr)
	}
	return page.Of(items, req), nil
}

func decode(op string, e store.Entry) (model.Expression, error) {
	var body entryBody
	if err := json.Unmarshal(e.Body, &body); err != nil {
		return model.Expression{}, errs.Wrap(errs.StorageUnavailable, op,
			fmt.Errorf("decode entry %s: %w", e.Ref(), err))
	}
	return model.Expression{
		ContentRef:      e.Ref(),
		OriginPartition: e.Partition,
		Creator:         e.Author,
		CreatedAt:       e.CreatedAt,
		Content:         body.Content,
		LinkPartition:   body.LinkPartition,
		Recipient:       e.Recipient,
	}, nil
}
