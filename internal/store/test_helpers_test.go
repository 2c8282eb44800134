package store

import (
	"path/filepath"
	"testing"

	"github.com/fluxsocial/socialdna/internal/model"
)

// createTestStore creates a new file-backed store for testing.
func createTestStore(t *testing.T, opts ...Option) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path, opts...)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func testEntry(partition, hash, author string, at int64) Entry {
	return Entry{
		Partition: model.PartitionID(partition),
		Hash:      model.Hash(hash),
		Kind:      KindExpression,
		Author:    model.Identity(author),
		Body:      []byte(`{"kind":"text","text":"hi"}`),
		CreatedAt: model.Timestamp(at),
	}
}
