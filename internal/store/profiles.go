package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fluxsocial/socialdna/internal/model"
)

// InsertProfile stores p. Returns false if id already has a profile.
func (s *Store) InsertProfile(ctx context.Context, p model.Profile) (bool, error) {
	var inserted bool
	err := s.run(ctx, "store.insert_profile", func(ctx context.Context) error {
		part, hash := avatarColumns(p.Avatar)
		res, err := s.db.ExecContext(ctx, `
			INSERT INTO profiles (identity, display_name, summary, avatar_partition, avatar_hash, updated_at)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT(identity) DO NOTHING
		`, p.Identity, p.DisplayName, p.Summary, part, hash, p.UpdatedAt)
		if err != nil {
			return fmt.Errorf("insert profile: %w", err)
		}
		inserted, err = affected(res)
		return err
	})
	return inserted, err
}

// UpdateProfile replaces an existing profile. Returns false if absent.
func (s *Store) UpdateProfile(ctx context.Context, p model.Profile) (bool, error) {
	var updated bool
	err := s.run(ctx, "store.update_profile", func(ctx context.Context) error {
		part, hash := avatarColumns(p.Avatar)
		res, err := s.db.ExecContext(ctx, `
			UPDATE profiles
			SET display_name = ?, summary = ?, avatar_partition = ?, avatar_hash = ?, updated_at = ?
			WHERE identity = ?
		`, p.DisplayName, p.Summary, part, hash, p.UpdatedAt, p.Identity)
		if err != nil {
			return fmt.Errorf("update profile: %w", err)
		}
		updated, err = affected(res)
		return err
	})
	return updated, err
}

// DeleteProfile removes id's profile. Returns false if absent.
func (s *Store) DeleteProfile(ctx context.Context, id model.Identity) (bool, error) {
	var removed bool
	err := s.run(ctx, "store.delete_profile", func(ctx context.Context) error {
		res, err := s.db.ExecContext(ctx, `DELETE FROM profiles WHERE identity = ?`, id)
		if err != nil {
			return fmt.Errorf("delete profile: %w", err)
		}
		removed, err = affected(res)
		return err
	})
	return removed, err
}

// Profile returns id's profile, or nil if none exists.
func (s *Store) Profile(ctx context.Context, id model.Identity) (*model.Profile, error) {
	var out *model.Profile
	err := s.run(ctx, "store.profile", func(ctx context.Context) error {
		var p model.Profile
		var part, hash sql.NullString
		err := s.db.QueryRowContext(ctx, `
			SELECT identity, display_name, summary, avatar_partition, avatar_hash, updated_at
			FROM profiles WHERE identity = ?
		`, id).Scan(&p.Identity, &p.DisplayName, &p.Summary, &part, &hash, &p.UpdatedAt)
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("get profile: %w", err)
		}
		if part.Valid && hash.Valid {
			ref := model.Ref(model.PartitionID(part.String), model.Hash(hash.String))
			p.Avatar = &ref
		}
		out = &p
		return nil
	})
	return out, err
}

func avatarColumns(ref *model.GlobalEntryRef) (sql.NullString, sql.NullString) {
	if ref == nil {
		return sql.NullString{}, sql.NullString{}
	}
	return sql.NullString{String: string(ref.Partition), Valid: true},
		sql.NullString{String: string(ref.Entry), Valid: true}
}
