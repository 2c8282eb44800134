package store

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/fluxsocial/socialdna/internal/model"
)

// neighborChunk bounds the IN-list size of one frontier expansion query.
const neighborChunk = 500

// Direction selects which end of a follow edge a query walks toward.
type Direction int

const (
	// TowardFollowers walks from followed to follower.
	TowardFollowers Direction = iota
	// TowardFollowing walks from follower to followed.
	TowardFollowing
)

// columns returns (anchor, peer) column names for d.
func (d Direction) columns() (string, string) {
	if d == TowardFollowers {
		return "followed", "follower"
	}
	return "follower", "followed"
}

// InsertFollow records e. Returns false if the edge already existed.
func (s *Store) InsertFollow(ctx context.Context, e model.FollowEdge) (bool, error) {
	var inserted bool
	err := s.run(ctx, "store.insert_follow", func(ctx context.Context) error {
		res, err := s.db.ExecContext(ctx, `
			INSERT INTO follows (follower, followed, relation, created_at)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(follower, followed, relation) DO NOTHING
		`, e.Follower, e.Followed, e.Relation.Key(), e.CreatedAt)
		if err != nil {
			return fmt.Errorf("insert follow: %w", err)
		}
		inserted, err = affected(res)
		return err
	})
	return inserted, err
}

// DeleteFollow removes exactly the (follower, followed, relation) edge.
// Returns false if it did not exist.
func (s *Store) DeleteFollow(ctx context.Context, follower, followed model.Identity, rel model.Relation) (bool, error) {
	var removed bool
	err := s.run(ctx, "store.delete_follow", func(ctx context.Context) error {
		res, err := s.db.ExecContext(ctx, `
			DELETE FROM follows WHERE follower = ? AND followed = ? AND relation = ?
		`, follower, followed, rel.Key())
		if err != nil {
			return fmt.Errorf("delete follow: %w", err)
		}
		removed, err = affected(res)
		return err
	})
	return removed, err
}

// FollowEdges returns every edge from follower to followed, ordered by relation.
func (s *Store) FollowEdges(ctx context.Context, follower, followed model.Identity) ([]model.FollowEdge, error) {
	var out []model.FollowEdge
	err := s.run(ctx, "store.follow_edges", func(ctx context.Context) error {
		rows, err := s.db.QueryContext(ctx, `
			SELECT follower, followed, relation, created_at
			FROM follows
			WHERE follower = ? AND followed = ?
			ORDER BY relation COLLATE BINARY
		`, follower, followed)
		if err != nil {
			return fmt.Errorf("query follow edges: %w", err)
		}
		out, err = collectRows(rows, func(row rowScanner) (model.FollowEdge, error) {
			var e model.FollowEdge
			var rel string
			if err := row.Scan(&e.Follower, &e.Followed, &rel, &e.CreatedAt); err != nil {
				return e, err
			}
			e.Relation = model.RelationFromKey(rel)
			return e, nil
		})
		return err
	})
	return out, err
}

// Follows lists one page of peers adjacent to anchor under rel, ordered
// by identity.
func (s *Store) Follows(ctx context.Context, dir Direction, anchor model.Identity, rel model.Relation, limit, offset int) ([]model.Identity, error) {
	anchorCol, peerCol := dir.columns()
	query := fmt.Sprintf(`
		SELECT %[2]s FROM follows
		WHERE %[1]s = ? AND relation = ?
		ORDER BY %[2]s COLLATE BINARY
		LIMIT ? OFFSET ?`, anchorCol, peerCol)

	var out []model.Identity
	err := s.run(ctx, "store.follows", func(ctx context.Context) error {
		rows, err := s.db.QueryContext(ctx, query, anchor, rel.Key(), limit, offset)
		if err != nil {
			return fmt.Errorf("query follows: %w", err)
		}
		out, err = collectRows(rows, scanIdentity)
		return err
	})
	return out, err
}

// Neighbors returns the distinct peers adjacent to any identity in
// frontier under rel, ordered by identity. Used for breadth-first expansion.
func (s *Store) Neighbors(ctx context.Context, dir Direction, frontier []model.Identity, rel model.Relation) ([]model.Identity, error) {
	anchorCol, peerCol := dir.columns()
	seen := make(map[model.Identity]struct{})
	var out []model.Identity

	err := s.run(ctx, "store.neighbors", func(ctx context.Context) error {
		for start := 0; start < len(frontier); start += neighborChunk {
			end := min(start+neighborChunk, len(frontier))
			chunk := frontier[start:end]

			args := make([]any, 0, len(chunk)+1)
			args = append(args, rel.Key())
			for _, id := range chunk {
				args = append(args, id)
			}
			query := fmt.Sprintf(`
				SELECT DISTINCT %[2]s FROM follows
				WHERE relation = ? AND %[1]s IN (%[3]s)
				ORDER BY %[2]s COLLATE BINARY`,
				anchorCol, peerCol, placeholders(len(chunk)))

			rows, err := s.db.QueryContext(ctx, query, args...)
			if err != nil {
				return fmt.Errorf("query neighbors: %w", err)
			}
			ids, err := collectRows(rows, scanIdentity)
			if err != nil {
				return err
			}
			for _, id := range ids {
				if _, dup := seen[id]; !dup {
					seen[id] = struct{}{}
					out = append(out, id)
				}
			}
		}
		slices.Sort(out)
		return nil
	})
	return out, err
}

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}
