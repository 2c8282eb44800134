package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fluxsocial/socialdna/internal/model"
)

// Request returns the directed request from -> to, or nil if none exists.
func (t *Tx) Request(from, to model.Identity) (*model.FriendshipRequest, error) {
	row := t.tx.QueryRowContext(t.ctx, `
		SELECT from_id, to_id, state, updated_at
		FROM friend_requests
		WHERE from_id = ? AND to_id = ?
	`, from, to)
	r, err := scanRequest(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get friend request: %w", err)
	}
	return &r, nil
}

// PutRequest inserts r or replaces the state of the existing (from, to) request.
func (t *Tx) PutRequest(r model.FriendshipRequest) error {
	_, err := t.tx.ExecContext(t.ctx, `
		INSERT INTO friend_requests (from_id, to_id, state, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(from_id, to_id) DO UPDATE SET
			state = excluded.state,
			updated_at = excluded.updated_at
	`, r.From, r.To, r.State, r.UpdatedAt)
	if err != nil {
		return fmt.Errorf("put friend request: %w", err)
	}
	return nil
}

// DeleteRequests removes the requests in both directions between x and y.
func (t *Tx) DeleteRequests(x, y model.Identity) error {
	_, err := t.tx.ExecContext(t.ctx, `
		DELETE FROM friend_requests
		WHERE (from_id = ? AND to_id = ?) OR (from_id = ? AND to_id = ?)
	`, x, y, y, x)
	if err != nil {
		return fmt.Errorf("delete friend requests: %w", err)
	}
	return nil
}

// Friendship returns the edge between x and y, or nil if they are not friends.
func (t *Tx) Friendship(x, y model.Identity) (*model.FriendshipEdge, error) {
	a, b := model.CanonicalPair(x, y)
	var e model.FriendshipEdge
	err := t.tx.QueryRowContext(t.ctx, `
		SELECT a, b, created_at FROM friendships WHERE a = ? AND b = ?
	`, a, b).Scan(&e.A, &e.B, &e.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get friendship: %w", err)
	}
	return &e, nil
}

// InsertFriendship records e. Returns false if the pair were already friends.
func (t *Tx) InsertFriendship(e model.FriendshipEdge) (bool, error) {
	a, b := model.CanonicalPair(e.A, e.B)
	res, err := t.tx.ExecContext(t.ctx, `
		INSERT INTO friendships (a, b, created_at) VALUES (?, ?, ?)
		ON CONFLICT(a, b) DO NOTHING
	`, a, b, e.CreatedAt)
	if err != nil {
		return false, fmt.Errorf("insert friendship: %w", err)
	}
	return affected(res)
}

// DeleteFriendship removes the edge between x and y. Returns false if absent.
func (t *Tx) DeleteFriendship(x, y model.Identity) (bool, error) {
	a, b := model.CanonicalPair(x, y)
	res, err := t.tx.ExecContext(t.ctx, `DELETE FROM friendships WHERE a = ? AND b = ?`, a, b)
	if err != nil {
		return false, fmt.Errorf("delete friendship: %w", err)
	}
	return affected(res)
}

// PendingRequests lists one page of pending requests. With incoming set
// it lists requests addressed to id ordered by sender; otherwise requests
// sent by id ordered by recipient.
func (s *Store) PendingRequests(ctx context.Context, id model.Identity, incoming bool, limit, offset int) ([]model.FriendshipRequest, error) {
	query := `
		SELECT from_id, to_id, state, updated_at FROM friend_requests
		WHERE to_id = ? AND state = 'pending'
		ORDER BY from_id COLLATE BINARY
		LIMIT ? OFFSET ?`
	if !incoming {
		query = `
		SELECT from_id, to_id, state, updated_at FROM friend_requests
		WHERE from_id = ? AND state = 'pending'
		ORDER BY to_id COLLATE BINARY
		LIMIT ? OFFSET ?`
	}

	var out []model.FriendshipRequest
	err := s.run(ctx, "store.pending_requests", func(ctx context.Context) error {
		rows, err := s.db.QueryContext(ctx, query, id, limit, offset)
		if err != nil {
			return fmt.Errorf("query friend requests: %w", err)
		}
		out, err = collectRows(rows, scanRequest)
		return err
	})
	return out, err
}

// Friends lists one page of id's friends ordered by identity.
func (s *Store) Friends(ctx context.Context, id model.Identity, limit, offset int) ([]model.Identity, error) {
	var out []model.Identity
	err := s.run(ctx, "store.friends", func(ctx context.Context) error {
		rows, err := s.db.QueryContext(ctx, `
			SELECT peer FROM (
				SELECT b AS peer FROM friendships WHERE a = ?
				UNION ALL
				SELECT a AS peer FROM friendships WHERE b = ?
			)
			ORDER BY peer COLLATE BINARY
			LIMIT ? OFFSET ?
		`, id, id, limit, offset)
		if err != nil {
			return fmt.Errorf("query friends: %w", err)
		}
		out, err = collectRows(rows, scanIdentity)
		return err
	})
	return out, err
}

func scanRequest(row rowScanner) (model.FriendshipRequest, error) {
	var r model.FriendshipRequest
	err := row.Scan(&r.From, &r.To, &r.State, &r.UpdatedAt)
	return r, err
}
