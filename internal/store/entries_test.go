package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fluxsocial/socialdna/internal/model"
)

func TestPut_Idempotent(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	first, err := s.Put(ctx, testEntry("p1", "h1", "alice", 100))
	require.NoError(t, err)
	assert.Equal(t, model.Timestamp(100), first.CreatedAt)

	// A retry at a later time returns the original entry.
	again, err := s.Put(ctx, testEntry("p1", "h1", "alice", 200))
	require.NoError(t, err)
	assert.Equal(t, first, again)

	var count int
	require.NoError(t, s.db.QueryRow(`SELECT COUNT(*) FROM entries`).Scan(&count))
	assert.Equal(t, 1, count)
}

func TestGet_Absent(t *testing.T) {
	s := createTestStore(t)

	got, err := s.Get(context.Background(), "p1", "missing")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestQuery_OrderAndFilters(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	for _, e := range []Entry{
		testEntry("p1", "h-b", "alice", 100),
		testEntry("p1", "h-a", "alice", 100),
		testEntry("p1", "h-c", "alice", 300),
		testEntry("p2", "h-d", "alice", 200),
		testEntry("p1", "h-e", "bob", 400),
	} {
		_, err := s.Put(ctx, e)
		require.NoError(t, err)
	}

	got, err := s.Query(ctx, EntryQuery{Kind: KindExpression, Author: "alice", Limit: 10})
	require.NoError(t, err)
	var hashes []model.Hash
	for _, e := range got {
		hashes = append(hashes, e.Hash)
	}
	// created_at desc, ties broken by hash asc
	assert.Equal(t, []model.Hash{"h-c", "h-d", "h-a", "h-b"}, hashes)

	page2, err := s.Query(ctx, EntryQuery{Kind: KindExpression, Author: "alice", Limit: 2, Offset: 2})
	require.NoError(t, err)
	require.Len(t, page2, 2)
	assert.Equal(t, model.Hash("h-a"), page2[0].Hash)

	inP2, err := s.Query(ctx, EntryQuery{Kind: KindExpression, Partition: "p2", Limit: 10})
	require.NoError(t, err)
	require.Len(t, inP2, 1)
	assert.Equal(t, model.Hash("h-d"), inP2[0].Hash)

	private, err := s.Query(ctx, EntryQuery{Kind: KindPrivate, Limit: 10})
	require.NoError(t, err)
	assert.Empty(t, private)
}

func TestQuery_Recipient(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	msg := testEntry("inbox", "h1", "alice", 10)
	msg.Kind = KindPrivate
	msg.Recipient = "bob"
	_, err := s.Put(ctx, msg)
	require.NoError(t, err)

	got, err := s.Query(ctx, EntryQuery{Kind: KindPrivate, Recipient: "bob", Limit: 10})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, model.Identity("alice"), got[0].Author)

	none, err := s.Query(ctx, EntryQuery{Kind: KindPrivate, Recipient: "carol", Limit: 10})
	require.NoError(t, err)
	assert.Empty(t, none)
}
