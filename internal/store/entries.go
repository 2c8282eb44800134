package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/fluxsocial/socialdna/internal/model"
)

// EntryKind distinguishes the append-only entry logs sharing the entries table.
type EntryKind string

const (
	KindExpression EntryKind = "expression"
	KindPrivate    EntryKind = "private"
)

// Entry is one content-addressed record. Body is opaque to the store;
// the expression component owns its encoding.
type Entry struct {
	Partition model.PartitionID
	Hash      model.Hash
	Kind      EntryKind
	Author    model.Identity
	Recipient model.Identity
	Body      []byte
	CreatedAt model.Timestamp
}

// Ref returns the global address of e.
func (e Entry) Ref() model.GlobalEntryRef {
	return model.Ref(e.Partition, e.Hash)
}

// Put appends e if no entry with the same (partition, hash) exists and
// returns the stored entry. Re-putting identical content returns the
// original, including its original CreatedAt.
func (s *Store) Put(ctx context.Context, e Entry) (Entry, error) {
	var stored Entry
	err := s.run(ctx, "store.put", func(ctx context.Context) error {
		return inTx(ctx, s.db, func(q querier) error {
			if _, err := q.ExecContext(ctx, `
				INSERT INTO entries (partition_id, hash, kind, author, recipient, body, created_at, schema_version)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?)
				ON CONFLICT(partition_id, hash) DO NOTHING
			`, e.Partition, e.Hash, e.Kind, e.Author, e.Recipient, string(e.Body), e.CreatedAt, model.SchemaVersion); err != nil {
				return fmt.Errorf("insert entry: %w", err)
			}
			got, err := getEntry(ctx, q, e.Partition, e.Hash)
			if err != nil {
				return err
			}
			if got == nil {
				return fmt.Errorf("entry %s/%s missing after insert", e.Partition, e.Hash)
			}
			stored = *got
			return nil
		})
	})
	return stored, err
}

// Get returns the entry at (partition, hash), or nil if absent.
func (s *Store) Get(ctx context.Context, partition model.PartitionID, hash model.Hash) (*Entry, error) {
	var out *Entry
	err := s.run(ctx, "store.get", func(ctx context.Context) error {
		var err error
		out, err = getEntry(ctx, s.db, partition, hash)
		return err
	})
	return out, err
}

func getEntry(ctx context.Context, q querier, partition model.PartitionID, hash model.Hash) (*Entry, error) {
	row := q.QueryRowContext(ctx, `
		SELECT partition_id, hash, kind, author, recipient, body, created_at
		FROM entries
		WHERE partition_id = ? AND hash = ?
	`, partition, hash)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get entry: %w", err)
	}
	return &e, nil
}

// EntryQuery selects entries of one kind. Empty fields do not filter.
// Results are ordered by created_at descending, then hash ascending.
type EntryQuery struct {
	Kind      EntryKind
	Author    model.Identity
	Recipient model.Identity
	Partition model.PartitionID
	Limit     int
	Offset    int
}

// Query returns one page of entries matching q.
func (s *Store) Query(ctx context.Context, q EntryQuery) ([]Entry, error) {
	var where []string
	var args []any
	where = append(where, "kind = ?")
	args = append(args, q.Kind)
	if q.Author != "" {
		where = append(where, "author = ?")
		args = append(args, q.Author)
	}
	if q.Recipient != "" {
		where = append(where, "recipient = ?")
		args = append(args, q.Recipient)
	}
	if q.Partition != "" {
		where = append(where, "partition_id = ?")
		args = append(args, q.Partition)
	}
	args = append(args, q.Limit, q.Offset)

	query := `
		SELECT partition_id, hash, kind, author, recipient, body, created_at
		FROM entries
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY created_at DESC, hash COLLATE BINARY ASC
		LIMIT ? OFFSET ?`

	var out []Entry
	err := s.run(ctx, "store.query", func(ctx context.Context) error {
		rows, err := s.db.QueryContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("query entries: %w", err)
		}
		out, err = collectRows(rows, scanEntry)
		return err
	})
	return out, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (Entry, error) {
	var e Entry
	var body string
	if err := row.Scan(&e.Partition, &e.Hash, &e.Kind, &e.Author, &e.Recipient, &body, &e.CreatedAt); err != nil {
		return Entry{}, err
	}
	e.Body = []byte(body)
	return e, nil
}
