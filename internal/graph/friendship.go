package graph

import (
	"context"

	"go.uber.org/zap"

	"github.com/fluxsocial/socialdna/internal/agent"
	"github.com/fluxsocial/socialdna/internal/errs"
	"github.com/fluxsocial/socialdna/internal/model"
	"github.com/fluxsocial/socialdna/internal/page"
	"github.com/fluxsocial/socialdna/internal/store"
)

// RequestFriendship proposes friendship to target. If target already has a
// pending request toward the caller, both resolve to Friends in the same
// transaction. Requesting while already requested or friends is a no-op.
func (s *Service) RequestFriendship(ctx context.Context, target model.Identity) (status model.FriendshipStatus, err error) {
	const op = "graph.request_friendship"
	defer func() { s.metrics.Observe(component, "request_friendship", err) }()

	caller, err := s.peerArgs(ctx, op, target)
	if err != nil {
		return "", err
	}
	now := s.clock.Now()

	err = s.store.WithTx(ctx, op, func(tx *store.Tx) error {
		edge, err := tx.Friendship(caller, target)
		if err != nil {
			return err
		}
		if edge != nil {
			status = model.StatusFriends
			return nil
		}

		reverse, err := tx.Request(target, caller)
		if err != nil {
			return err
		}
		if reverse != nil && reverse.State == model.RequestPending {
			if _, err := tx.InsertFriendship(model.NewFriendshipEdge(caller, target, now)); err != nil {
				return err
			}
			for _, r := range []model.FriendshipRequest{
				{From: target, To: caller, State: model.RequestAccepted, UpdatedAt: now},
				{From: caller, To: target, State: model.RequestAccepted, UpdatedAt: now},
			} {
				if err := tx.PutRequest(r); err != nil {
					return err
				}
			}
			status = model.StatusFriends
			return nil
		}

		forward, err := tx.Request(caller, target)
		if err != nil {
			return err
		}
		status = model.StatusRequestedBySelf
		if forward != nil && forward.State == model.RequestPending {
			return nil
		}
		return tx.PutRequest(model.FriendshipRequest{From: caller, To: target, State: model.RequestPending, UpdatedAt: now})
	})
	if err != nil {
		return "", errs.Wrap(errs.StorageUnavailable, op, err)
	}

	s.logger.Debug("friendship requested",
		zap.String("from", string(caller)),
		zap.String("to", string(target)),
		zap.String("status", string(status)))
	return status, nil
}

// DeclineFriendship declines target's pending request to the caller.
// Declining when no request is pending is a no-op.
func (s *Service) DeclineFriendship(ctx context.Context, target model.Identity) (err error) {
	const op = "graph.decline_friendship"
	defer func() { s.metrics.Observe(component, "decline_friendship", err) }()

	caller, err := s.peerArgs(ctx, op, target)
	if err != nil {
		return err
	}
	return s.transition(ctx, op, target, caller, model.RequestDeclined)
}

// WithdrawFriendshipRequest retracts the caller's pending request to
// target, returning the pair to None. A no-op when nothing is pending.
func (s *Service) WithdrawFriendshipRequest(ctx context.Context, target model.Identity) (err error) {
	const op = "graph.withdraw_friendship_request"
	defer func() { s.metrics.Observe(component, "withdraw_friendship_request", err) }()

	caller, err := s.peerArgs(ctx, op, target)
	if err != nil {
		return err
	}
	return s.transition(ctx, op, caller, target, model.RequestWithdrawn)
}

// transition moves a pending from -> to request into state.
func (s *Service) transition(ctx context.Context, op string, from, to model.Identity, state model.RequestState) error {
	now := s.clock.Now()
	var changed bool
	err := s.store.WithTx(ctx, op, func(tx *store.Tx) error {
		req, err := tx.Request(from, to)
		if err != nil || req == nil || req.State != model.RequestPending {
			return err
		}
		changed = true
		return tx.PutRequest(model.FriendshipRequest{From: from, To: to, State: state, UpdatedAt: now})
	})
	if err != nil {
		return errs.Wrap(errs.StorageUnavailable, op, err)
	}
	s.logger.Debug("friendship request transition",
		zap.String("from", string(from)),
		zap.String("to", string(to)),
		zap.String("state", string(state)),
		zap.Bool("changed", changed))
	return nil
}

// DropFriendship ends the friendship with target and clears the request
// log between them. Dropping a non-friend is a no-op.
func (s *Service) DropFriendship(ctx context.Context, target model.Identity) (err error) {
	const op = "graph.drop_friendship"
	defer func() { s.metrics.Observe(component, "drop_friendship", err) }()

	caller, err := s.peerArgs(ctx, op, target)
	if err != nil {
		return err
	}
	var dropped bool
	err = s.store.WithTx(ctx, op, func(tx *store.Tx) error {
		var err error
		if dropped, err = tx.DeleteFriendship(caller, target); err != nil || !dropped {
			return err
		}
		return tx.DeleteRequests(caller, target)
	})
	if err != nil {
		return errs.Wrap(errs.StorageUnavailable, op, err)
	}
	s.logger.Debug("friendship dropped",
		zap.String("by", string(caller)),
		zap.String("peer", string(target)),
		zap.Bool("dropped", dropped))
	return nil
}

// FriendshipState reports the handshake state between the caller and other.
func (s *Service) FriendshipState(ctx context.Context, other model.Identity) (status model.FriendshipStatus, err error) {
	const op = "graph.friendship_state"
	defer func() { s.metrics.Observe(component, "friendship_state", err) }()

	caller, err := s.peerArgs(ctx, op, other)
	if err != nil {
		return "", err
	}
	err = s.store.WithTx(ctx, op, func(tx *store.Tx) error {
		status, err = statusBetween(tx, caller, other)
		return err
	})
	if err != nil {
		return "", errs.Wrap(errs.StorageUnavailable, op, err)
	}
	return status, nil
}

func statusBetween(tx *store.Tx, self, other model.Identity) (model.FriendshipStatus, error) {
	edge, err := tx.Friendship(self, other)
	if err != nil {
		return "", err
	}
	if edge != nil {
		return model.StatusFriends, nil
	}
	forward, err := tx.Request(self, other)
	if err != nil {
		return "", err
	}
	reverse, err := tx.Request(other, self)
	if err != nil {
		return "", err
	}
	switch {
	case forward != nil && forward.State == model.RequestPending:
		return model.StatusRequestedBySelf, nil
	case reverse != nil && reverse.State == model.RequestPending:
		return model.StatusRequestedByOther, nil
	case forward != nil && forward.State == model.RequestDeclined,
		reverse != nil && reverse.State == model.RequestDeclined:
		return model.StatusDeclined, nil
	}
	return model.StatusNone, nil
}

// IncomingFriendshipRequests lists pending requests addressed to the
// caller, ordered by sender.
func (s *Service) IncomingFriendshipRequests(ctx context.Context, req page.Request) (model.Page[model.FriendshipRequest], error) {
	return s.pending(ctx, "graph.incoming_friendship_requests", true, req)
}

// OutgoingFriendshipRequests lists the caller's pending requests, ordered
// by recipient.
func (s *Service) OutgoingFriendshipRequests(ctx context.Context, req page.Request) (model.Page[model.FriendshipRequest], error) {
	return s.pending(ctx, "graph.outgoing_friendship_requests", false, req)
}

func (s *Service) pending(ctx context.Context, op string, incoming bool, req page.Request) (_ model.Page[model.FriendshipRequest], err error) {
	defer func() { s.metrics.Observe(component, opName(op), err) }()

	caller, err := agent.Require(ctx, op)
	if err != nil {
		return model.Page[model.FriendshipRequest]{}, err
	}
	if err := req.Validate(op, s.maxPage); err != nil {
		return model.Page[model.FriendshipRequest]{}, err
	}
	reqs, err := s.store.PendingRequests(ctx, caller, incoming, req.Limit(), req.Offset())
	if err != nil {
		return model.Page[model.FriendshipRequest]{}, errs.Wrap(errs.StorageUnavailable, op, err)
	}
	return page.Of(reqs, req), nil
}

// MyFriends lists the caller's friends ordered by identity.
func (s *Service) MyFriends(ctx context.Context, req page.Request) (model.IdentityPage, error) {
	caller, err := agent.Require(ctx, "graph.my_friends")
	if err != nil {
		return model.IdentityPage{}, err
	}
	return s.friends(ctx, "graph.my_friends", caller, req)
}

// FriendsOf lists id's friends ordered by identity.
func (s *Service) FriendsOf(ctx context.Context, id model.Identity, req page.Request) (model.IdentityPage, error) {
	return s.friends(ctx, "graph.friends_of", id, req)
}

func (s *Service) friends(ctx context.Context, op string, id model.Identity, req page.Request) (_ model.IdentityPage, err error) {
	defer func() { s.metrics.Observe(component, opName(op), err) }()

	if err := model.ValidateIdentity(op, id); err != nil {
		return model.IdentityPage{}, err
	}
	if err := req.Validate(op, s.maxPage); err != nil {
		return model.IdentityPage{}, err
	}
	ids, err := s.store.Friends(ctx, id, req.Limit(), req.Offset())
	if err != nil {
		return model.IdentityPage{}, errs.Wrap(errs.StorageUnavailable, op, err)
	}
	return page.Of(ids, req), nil
}

// peerArgs validates a friendship operation aimed at other and returns the caller.
func (s *Service) peerArgs(ctx context.Context, op string, other model.Identity) (model.Identity, error) {
	caller, err := agent.Require(ctx, op)
	if err != nil {
		return "", err
	}
	if err := model.ValidateIdentity(op, other); err != nil {
		return "", err
	}
	if other == caller {
		return "", errs.New(errs.InvalidArgument, op, "cannot befriend the calling identity")
	}
	return caller, nil
}
