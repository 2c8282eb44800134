package testutil

import (
	"path/filepath"
	"testing"

	"github.com/fluxsocial/socialdna/internal/store"
)

// OpenStore opens a fresh file-backed store under t.TempDir and closes it
// when the test finishes.
func OpenStore(t testing.TB, opts ...store.Option) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "socialdna.db"), opts...)
	if err != nil {
		t.Fatalf("store.Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}
