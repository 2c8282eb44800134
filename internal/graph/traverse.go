package graph

import (
	"context"

	"go.uber.org/zap"

	"github.com/fluxsocial/socialdna/internal/agent"
	"github.com/fluxsocial/socialdna/internal/errs"
	"github.com/fluxsocial/socialdna/internal/model"
	"github.com/fluxsocial/socialdna/internal/store"
)

// NthLevelFollowers returns the identities exactly n follower-hops from
// target under rel: nodes first reached at depth n, each once, ordered by
// identity, with the caller excluded. n = 0 returns {target}.
func (s *Service) NthLevelFollowers(ctx context.Context, n int, target model.Identity, rel model.Relation) ([]model.Identity, error) {
	return s.nthLevel(ctx, "graph.nth_level_followers", store.TowardFollowers, n, target, rel)
}

// NthLevelFollowing mirrors NthLevelFollowers along outgoing follows.
func (s *Service) NthLevelFollowing(ctx context.Context, n int, target model.Identity, rel model.Relation) ([]model.Identity, error) {
	return s.nthLevel(ctx, "graph.nth_level_following", store.TowardFollowing, n, target, rel)
}

func (s *Service) nthLevel(ctx context.Context, op string, dir store.Direction, n int, target model.Identity, rel model.Relation) (_ []model.Identity, err error) {
	defer func() { s.metrics.Observe(component, opName(op), err) }()

	if n < 0 || n > s.maxDepth {
		return nil, errs.Newf(errs.InvalidArgument, op, "depth %d outside [0, %d]", n, s.maxDepth)
	}
	if err := model.ValidateIdentity(op, target); err != nil {
		return nil, err
	}
	if err := model.ValidateRelation(op, rel); err != nil {
		return nil, err
	}
	if n == 0 {
		return []model.Identity{target}, nil
	}

	visited := map[model.Identity]struct{}{target: {}}
	frontier := []model.Identity{target}

	for depth := 1; depth <= n && len(frontier) > 0; depth++ {
		if err := ctx.Err(); err != nil {
			return nil, errs.Wrap(errs.StorageUnavailable, op, err)
		}
		next, err := s.store.Neighbors(ctx, dir, frontier, rel)
		if err != nil {
			return nil, errs.Wrap(errs.StorageUnavailable, op, err)
		}

		// Neighbors is sorted, so the fresh frontier stays sorted.
		fresh := make([]model.Identity, 0, len(next))
		for _, id := range next {
			if _, seen := visited[id]; seen {
				continue
			}
			visited[id] = struct{}{}
			fresh = append(fresh, id)
		}
		if len(visited) > s.maxVisited {
			return nil, errs.Newf(errs.InvalidArgument, op,
				"traversal visited more than %d identities at depth %d", s.maxVisited, depth)
		}
		frontier = fresh

		s.logger.Debug("traversal level",
			zap.String("target", string(target)),
			zap.Int("depth", depth),
			zap.Int("frontier", len(frontier)))
	}

	result := make([]model.Identity, 0, len(frontier))
	caller, _ := agent.FromContext(ctx)
	for _, id := range frontier {
		if id != caller {
			result = append(result, id)
		}
	}
	s.metrics.Traversal(len(result), len(visited))
	return result, nil
}
