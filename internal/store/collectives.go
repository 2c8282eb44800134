package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fluxsocial/socialdna/internal/model"
)

// InsertPost appends p to its collective's log and returns the stored post.
// Re-posting the same (collective, ref, author) returns the original.
func (s *Store) InsertPost(ctx context.Context, p model.Post) (model.Post, error) {
	var stored model.Post
	err := s.run(ctx, "store.insert_post", func(ctx context.Context) error {
		return inTx(ctx, s.db, func(q querier) error {
			var err error
			stored, err = insertPost(ctx, q, p)
			return err
		})
	})
	return stored, err
}

// InsertPost is Store.InsertPost inside the transaction.
func (t *Tx) InsertPost(p model.Post) (model.Post, error) {
	return insertPost(t.ctx, t.tx, p)
}

func insertPost(ctx context.Context, q querier, p model.Post) (model.Post, error) {
	if _, err := q.ExecContext(ctx, `
		INSERT INTO posts (collective, hash, ref_partition, ref_hash, author, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(collective, hash) DO NOTHING
	`, p.Collective, p.Hash, p.Ref.Partition, p.Ref.Entry, p.Author, p.CreatedAt); err != nil {
		return model.Post{}, fmt.Errorf("insert post: %w", err)
	}
	row := q.QueryRowContext(ctx, `
		SELECT collective, hash, ref_partition, ref_hash, author, created_at
		FROM posts WHERE collective = ? AND hash = ?
	`, p.Collective, p.Hash)
	return scanPost(row)
}

// PostQuery selects posts in one collective. Both filters are optional
// and combine with AND.
type PostQuery struct {
	Collective model.PartitionID
	Partition  model.PartitionID
	Author     model.Identity
	Limit      int
	Offset     int
}

// Posts returns posts ordered by created_at descending, then hash ascending.
func (s *Store) Posts(ctx context.Context, q PostQuery) ([]model.Post, error) {
	query := `
		SELECT collective, hash, ref_partition, ref_hash, author, created_at
		FROM posts WHERE collective = ?`
	args := []any{q.Collective}
	if q.Partition != "" {
		query += ` AND ref_partition = ?`
		args = append(args, q.Partition)
	}
	if q.Author != "" {
		query += ` AND author = ?`
		args = append(args, q.Author)
	}
	query += ` ORDER BY created_at DESC, hash COLLATE BINARY LIMIT ? OFFSET ?`
	args = append(args, q.Limit, q.Offset)

	var out []model.Post
	err := s.run(ctx, "store.posts", func(ctx context.Context) error {
		rows, err := s.db.QueryContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("query posts: %w", err)
		}
		out, err = collectRows(rows, scanPost)
		return err
	})
	return out, err
}

// InsertMethod registers a communication method. Returns false if the
// partition was already registered for the collective.
func (s *Store) InsertMethod(ctx context.Context, m model.CommunicationMethod) (bool, error) {
	var inserted bool
	err := s.run(ctx, "store.insert_method", func(ctx context.Context) error {
		res, err := s.db.ExecContext(ctx, `
			INSERT INTO communication_methods (collective, partition_id, registered_by, created_at)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(collective, partition_id) DO NOTHING
		`, m.Collective, m.Partition, m.RegisteredBy, m.CreatedAt)
		if err != nil {
			return fmt.Errorf("insert communication method: %w", err)
		}
		inserted, err = affected(res)
		return err
	})
	return inserted, err
}

// Methods lists a collective's communication methods ordered by partition.
func (s *Store) Methods(ctx context.Context, collective model.PartitionID, limit, offset int) ([]model.CommunicationMethod, error) {
	var out []model.CommunicationMethod
	err := s.run(ctx, "store.methods", func(ctx context.Context) error {
		rows, err := s.db.QueryContext(ctx, `
			SELECT collective, partition_id, registered_by, created_at
			FROM communication_methods
			WHERE collective = ?
			ORDER BY partition_id COLLATE BINARY
			LIMIT ? OFFSET ?
		`, collective, limit, offset)
		if err != nil {
			return fmt.Errorf("query communication methods: %w", err)
		}
		out, err = collectRows(rows, func(row rowScanner) (model.CommunicationMethod, error) {
			var m model.CommunicationMethod
			err := row.Scan(&m.Collective, &m.Partition, &m.RegisteredBy, &m.CreatedAt)
			return m, err
		})
		return err
	})
	return out, err
}

// InsertMember adds id to collective. Returns false if already a member.
func (s *Store) InsertMember(ctx context.Context, collective model.PartitionID, id model.Identity, at model.Timestamp) (bool, error) {
	var inserted bool
	err := s.run(ctx, "store.insert_member", func(ctx context.Context) error {
		res, err := s.db.ExecContext(ctx, `
			INSERT INTO members (collective, identity, joined_at) VALUES (?, ?, ?)
			ON CONFLICT(collective, identity) DO NOTHING
		`, collective, id, at)
		if err != nil {
			return fmt.Errorf("insert member: %w", err)
		}
		inserted, err = affected(res)
		return err
	})
	return inserted, err
}

// DeleteMember removes id from collective. Returns false if not a member.
func (s *Store) DeleteMember(ctx context.Context, collective model.PartitionID, id model.Identity) (bool, error) {
	var removed bool
	err := s.run(ctx, "store.delete_member", func(ctx context.Context) error {
		res, err := s.db.ExecContext(ctx, `
			DELETE FROM members WHERE collective = ? AND identity = ?
		`, collective, id)
		if err != nil {
			return fmt.Errorf("delete member: %w", err)
		}
		removed, err = affected(res)
		return err
	})
	return removed, err
}

// IsMember reports whether id belongs to collective.
func (s *Store) IsMember(ctx context.Context, collective model.PartitionID, id model.Identity) (bool, error) {
	var member bool
	err := s.run(ctx, "store.is_member", func(ctx context.Context) error {
		var err error
		member, err = isMember(ctx, s.db, collective, id)
		return err
	})
	return member, err
}

// IsMember reads membership inside the transaction, so a concurrent
// Leave cannot land between the check and a write that depends on it.
func (t *Tx) IsMember(collective model.PartitionID, id model.Identity) (bool, error) {
	return isMember(t.ctx, t.tx, collective, id)
}

func isMember(ctx context.Context, q querier, collective model.PartitionID, id model.Identity) (bool, error) {
	var one int
	err := q.QueryRowContext(ctx, `
		SELECT 1 FROM members WHERE collective = ? AND identity = ?
	`, collective, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check member: %w", err)
	}
	return true, nil
}

// Members lists one page of a collective's members ordered by identity.
func (s *Store) Members(ctx context.Context, collective model.PartitionID, limit, offset int) ([]model.Identity, error) {
	var out []model.Identity
	err := s.run(ctx, "store.members", func(ctx context.Context) error {
		rows, err := s.db.QueryContext(ctx, `
			SELECT identity FROM members
			WHERE collective = ?
			ORDER BY identity COLLATE BINARY
			LIMIT ? OFFSET ?
		`, collective, limit, offset)
		if err != nil {
			return fmt.Errorf("query members: %w", err)
		}
		out, err = collectRows(rows, scanIdentity)
		return err
	})
	return out, err
}

func scanPost(row rowScanner) (model.Post, error) {
	var p model.Post
	err := row.Scan(&p.Collective, &p.Hash, &p.Ref.Partition, &p.Ref.Entry, &p.Author, &p.CreatedAt)
	return p, err
}
