package store

import (
	"context"
	"fmt"

	"github.com/fluxsocial/socialdna/internal/model"
)

const linkColumns = `source_partition, source_hash, target_partition, target_hash, created_by, created_at`

// LinkExists reports whether creator already holds the source -> target link.
func (t *Tx) LinkExists(l model.CrossLink) (bool, error) {
	var n int
	err := t.tx.QueryRowContext(t.ctx, `
		SELECT COUNT(*) FROM cross_links
		WHERE source_partition = ? AND source_hash = ?
		  AND target_partition = ? AND target_hash = ?
		  AND created_by = ?
	`, l.Source.Partition, l.Source.Entry, l.Target.Partition, l.Target.Entry, l.CreatedBy).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("check link: %w", err)
	}
	return n > 0, nil
}

// InsertLink records l and logs the creation for CountLinksSince.
// Returns false if the creator already held it.
func (t *Tx) InsertLink(l model.CrossLink) (bool, error) {
	res, err := t.tx.ExecContext(t.ctx, `
		INSERT INTO cross_links (`+linkColumns+`)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT DO NOTHING
	`, l.Source.Partition, l.Source.Entry, l.Target.Partition, l.Target.Entry, l.CreatedBy, l.CreatedAt)
	if err != nil {
		return false, fmt.Errorf("insert link: %w", err)
	}
	inserted, err := affected(res)
	if err != nil || !inserted {
		return inserted, err
	}
	if _, err := t.tx.ExecContext(t.ctx, `
		INSERT INTO link_creations (created_by, created_at) VALUES (?, ?)
	`, l.CreatedBy, l.CreatedAt); err != nil {
		return false, fmt.Errorf("log link creation: %w", err)
	}
	return true, nil
}

// LinkCreators lists who holds a source -> target link, ordered by identity.
func (t *Tx) LinkCreators(source, target model.GlobalEntryRef) ([]model.Identity, error) {
	rows, err := t.tx.QueryContext(t.ctx, `
		SELECT created_by FROM cross_links
		WHERE source_partition = ? AND source_hash = ?
		  AND target_partition = ? AND target_hash = ?
		ORDER BY created_by COLLATE BINARY
	`, source.Partition, source.Entry, target.Partition, target.Entry)
	if err != nil {
		return nil, fmt.Errorf("query link creators: %w", err)
	}
	return collectRows(rows, scanIdentity)
}

// DeleteLink removes creator's source -> target link. Returns false if absent.
func (t *Tx) DeleteLink(source, target model.GlobalEntryRef, creator model.Identity) (bool, error) {
	res, err := t.tx.ExecContext(t.ctx, `
		DELETE FROM cross_links
		WHERE source_partition = ? AND source_hash = ?
		  AND target_partition = ? AND target_hash = ?
		  AND created_by = ?
	`, source.Partition, source.Entry, target.Partition, target.Entry, creator)
	if err != nil {
		return false, fmt.Errorf("delete link: %w", err)
	}
	return affected(res)
}

// CountLinksSince counts links creator made at or after since, including
// links removed since then.
func (t *Tx) CountLinksSince(creator model.Identity, since model.Timestamp) (int, error) {
	var n int
	err := t.tx.QueryRowContext(t.ctx, `
		SELECT COUNT(*) FROM link_creations WHERE created_by = ? AND created_at >= ?
	`, creator, since).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count links: %w", err)
	}
	return n, nil
}

// LinkQuery selects one page of links anchored at Anchor. Outgoing
// anchors on the source; otherwise on the target. Counterpart, if set,
// restricts the other end to one partition.
type LinkQuery struct {
	Anchor      model.GlobalEntryRef
	Outgoing    bool
	Counterpart model.PartitionID
	Limit       int
	Offset      int
}

// Links returns links ordered by created_at descending, then counterpart
// ref ascending, then creator ascending.
func (s *Store) Links(ctx context.Context, q LinkQuery) ([]model.CrossLink, error) {
	anchorPart, anchorHash := "source_partition", "source_hash"
	otherPart, otherHash := "target_partition", "target_hash"
	if !q.Outgoing {
		anchorPart, anchorHash, otherPart, otherHash = otherPart, otherHash, anchorPart, anchorHash
	}

	query := `SELECT ` + linkColumns + ` FROM cross_links WHERE ` +
		anchorPart + ` = ? AND ` + anchorHash + ` = ?`
	args := []any{q.Anchor.Partition, q.Anchor.Entry}
	if q.Counterpart != "" {
		query += ` AND ` + otherPart + ` = ?`
		args = append(args, q.Counterpart)
	}
	query += ` ORDER BY created_at DESC, ` +
		otherPart + ` COLLATE BINARY, ` + otherHash + ` COLLATE BINARY, created_by COLLATE BINARY
		LIMIT ? OFFSET ?`
	args = append(args, q.Limit, q.Offset)

	var out []model.CrossLink
	err := s.run(ctx, "store.links", func(ctx context.Context) error {
		rows, err := s.db.QueryContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("query links: %w", err)
		}
		out, err = collectRows(rows, scanLink)
		return err
	})
	return out, err
}

func scanLink(row rowScanner) (model.CrossLink, error) {
	var l model.CrossLink
	err := row.Scan(&l.Source.Partition, &l.Source.Entry, &l.Target.Partition, &l.Target.Entry, &l.CreatedBy, &l.CreatedAt)
	return l, err
}
