package graph

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/fluxsocial/socialdna/internal/agent"
	"github.com/fluxsocial/socialdna/internal/errs"
	"github.com/fluxsocial/socialdna/internal/model"
	"github.com/fluxsocial/socialdna/internal/page"
	"github.com/fluxsocial/socialdna/internal/store"
)

// Follow makes the caller follow target under rel. Following an edge that
// already exists is a no-op success.
func (s *Service) Follow(ctx context.Context, target model.Identity, rel model.Relation) (err error) {
	const op = "graph.follow"
	defer func() { s.metrics.Observe(component, "follow", err) }()

	caller, err := s.edgeArgs(ctx, op, target, rel)
	if err != nil {
		return err
	}
	inserted, err := s.store.InsertFollow(ctx, model.FollowEdge{
		Follower:  caller,
		Followed:  target,
		Relation:  rel,
		CreatedAt: s.clock.Now(),
	})
	if err != nil {
		return errs.Wrap(errs.StorageUnavailable, op, err)
	}
	s.logger.Debug("follow",
		zap.String("follower", string(caller)),
		zap.String("followed", string(target)),
		zap.Stringer("relation", rel),
		zap.Bool("inserted", inserted))
	return nil
}

// Unfollow removes the caller's edge to target under rel. Removing an
// absent edge is a no-op success.
func (s *Service) Unfollow(ctx context.Context, target model.Identity, rel model.Relation) (err error) {
	const op = "graph.unfollow"
	defer func() { s.metrics.Observe(component, "unfollow", err) }()

	caller, err := s.edgeArgs(ctx, op, target, rel)
	if err != nil {
		return err
	}
	removed, err := s.store.DeleteFollow(ctx, caller, target, rel)
	if err != nil {
		return errs.Wrap(errs.StorageUnavailable, op, err)
	}
	s.logger.Debug("unfollow",
		zap.String("follower", string(caller)),
		zap.String("followed", string(target)),
		zap.Stringer("relation", rel),
		zap.Bool("removed", removed))
	return nil
}

// Followers returns one page of identities following followed under rel,
// ordered by identity.
func (s *Service) Followers(ctx context.Context, followed model.Identity, rel model.Relation, req page.Request) (model.IdentityPage, error) {
	return s.adjacent(ctx, "graph.followers", store.TowardFollowers, followed, rel, req)
}

// MyFollowers is Followers for the caller.
func (s *Service) MyFollowers(ctx context.Context, rel model.Relation, req page.Request) (model.IdentityPage, error) {
	caller, err := agent.Require(ctx, "graph.my_followers")
	if err != nil {
		return model.IdentityPage{}, err
	}
	return s.adjacent(ctx, "graph.my_followers", store.TowardFollowers, caller, rel, req)
}

// Following returns one page of identities follower follows under rel,
// ordered by identity.
func (s *Service) Following(ctx context.Context, follower model.Identity, rel model.Relation, req page.Request) (model.IdentityPage, error) {
	return s.adjacent(ctx, "graph.following", store.TowardFollowing, follower, rel, req)
}

// MyFollowing is Following for the caller.
func (s *Service) MyFollowing(ctx context.Context, rel model.Relation, req page.Request) (model.IdentityPage, error) {
	caller, err := agent.Require(ctx, "graph.my_following")
	if err != nil {
		return model.IdentityPage{}, err
	}
	return s.adjacent(ctx, "graph.my_following", store.TowardFollowing, caller, rel, req)
}

func (s *Service) adjacent(ctx context.Context, op string, dir store.Direction, anchor model.Identity, rel model.Relation, req page.Request) (_ model.IdentityPage, err error) {
	defer func() { s.metrics.Observe(component, opName(op), err) }()

	if err := model.ValidateIdentity(op, anchor); err != nil {
		return model.IdentityPage{}, err
	}
	if err := model.ValidateRelation(op, rel); err != nil {
		return model.IdentityPage{}, err
	}
	if err := req.Validate(op, s.maxPage); err != nil {
		return model.IdentityPage{}, err
	}
	ids, err := s.store.Follows(ctx, dir, anchor, rel, req.Limit(), req.Offset())
	if err != nil {
		return model.IdentityPage{}, errs.Wrap(errs.StorageUnavailable, op, err)
	}
	return page.Of(ids, req), nil
}

// edgeArgs validates a mutation aimed at target and returns the caller.
func (s *Service) edgeArgs(ctx context.Context, op string, target model.Identity, rel model.Relation) (model.Identity, error) {
	caller, err := agent.Require(ctx, op)
	if err != nil {
		return "", err
	}
	if err := model.ValidateIdentity(op, target); err != nil {
		return "", err
	}
	if target == caller {
		return "", errs.New(errs.InvalidArgument, op, "cannot target the calling identity")
	}
	if err := model.ValidateRelation(op, rel); err != nil {
		return "", err
	}
	return caller, nil
}

// opName strips the component prefix for metric labels.
func opName(op string) string {
	return strings.TrimPrefix(op, component+".")
}
