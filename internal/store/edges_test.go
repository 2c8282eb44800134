package store

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fluxsocial/socialdna/internal/model"
)

func follow(t *testing.T, s *Store, from, to string, rel model.Relation) {
	t.Helper()
	_, err := s.InsertFollow(context.Background(), model.FollowEdge{
		Follower: model.Identity(from), Followed: model.Identity(to), Relation: rel, CreatedAt: 1,
	})
	require.NoError(t, err)
}

func TestFollows_InsertIdempotentPerRelation(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	inserted, err := s.InsertFollow(ctx, model.FollowEdge{Follower: "a", Followed: "b", Relation: model.NoRelation(), CreatedAt: 1})
	require.NoError(t, err)
	assert.True(t, inserted)

	inserted, err = s.InsertFollow(ctx, model.FollowEdge{Follower: "a", Followed: "b", Relation: model.NoRelation(), CreatedAt: 2})
	require.NoError(t, err)
	assert.False(t, inserted)

	follow(t, s, "a", "b", model.Named("work"))

	edges, err := s.FollowEdges(ctx, "a", "b")
	require.NoError(t, err)
	require.Len(t, edges, 2)
	assert.True(t, edges[0].Relation.IsNone())
	assert.Equal(t, model.Named("work"), edges[1].Relation)
	assert.Equal(t, model.Timestamp(1), edges[0].CreatedAt)
}

func TestFollows_DeleteExactRelation(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	follow(t, s, "a", "b", model.NoRelation())
	follow(t, s, "a", "b", model.Named("work"))

	removed, err := s.DeleteFollow(ctx, "a", "b", model.Named("work"))
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = s.DeleteFollow(ctx, "a", "b", model.Named("work"))
	require.NoError(t, err)
	assert.False(t, removed)

	edges, err := s.FollowEdges(ctx, "a", "b")
	require.NoError(t, err)
	require.Len(t, edges, 1)
	assert.True(t, edges[0].Relation.IsNone())
}

func TestFollows_ListBothDirections(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	follow(t, s, "carol", "bob", model.NoRelation())
	follow(t, s, "alice", "bob", model.NoRelation())
	follow(t, s, "dave", "bob", model.Named("fan"))
	follow(t, s, "bob", "erin", model.NoRelation())

	followers, err := s.Follows(ctx, TowardFollowers, "bob", model.NoRelation(), 10, 0)
	require.NoError(t, err)
	assert.Equal(t, []model.Identity{"alice", "carol"}, followers)

	fans, err := s.Follows(ctx, TowardFollowers, "bob", model.Named("fan"), 10, 0)
	require.NoError(t, err)
	assert.Equal(t, []model.Identity{"dave"}, fans)

	following, err := s.Follows(ctx, TowardFollowing, "bob", model.NoRelation(), 10, 0)
	require.NoError(t, err)
	assert.Equal(t, []model.Identity{"erin"}, following)

	page, err := s.Follows(ctx, TowardFollowers, "bob", model.NoRelation(), 1, 1)
	require.NoError(t, err)
	assert.Equal(t, []model.Identity{"carol"}, page)
}

func TestNeighbors_DistinctSortedAcrossChunks(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	var frontier []model.Identity
	for i := 0; i < neighborChunk+10; i++ {
		id := fmt.Sprintf("f%04d", i)
		frontier = append(frontier, model.Identity(id))
		follow(t, s, id, "hub", model.NoRelation())
		follow(t, s, id, fmt.Sprintf("z%04d", i%3), model.NoRelation())
	}

	got, err := s.Neighbors(ctx, TowardFollowing, frontier, model.NoRelation())
	require.NoError(t, err)
	assert.Equal(t, []model.Identity{"hub", "z0000", "z0001", "z0002"}, got)

	back, err := s.Neighbors(ctx, TowardFollowers, []model.Identity{"z0001"}, model.NoRelation())
	require.NoError(t, err)
	assert.Len(t, back, (neighborChunk+10)/3)
}

func TestFriendships_TxMethods(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	err := s.WithTx(ctx, "test", func(tx *Tx) error {
		req, err := tx.Request("alice", "bob")
		require.NoError(t, err)
		assert.Nil(t, req)

		require.NoError(t, tx.PutRequest(model.FriendshipRequest{From: "alice", To: "bob", State: model.RequestPending, UpdatedAt: 1}))
		require.NoError(t, tx.PutRequest(model.FriendshipRequest{From: "alice", To: "bob", State: model.RequestWithdrawn, UpdatedAt: 2}))

		req, err = tx.Request("alice", "bob")
		require.NoError(t, err)
		require.NotNil(t, req)
		assert.Equal(t, model.RequestWithdrawn, req.State)
		assert.Equal(t, model.Timestamp(2), req.UpdatedAt)

		inserted, err := tx.InsertFriendship(model.NewFriendshipEdge("bob", "alice", 3))
		require.NoError(t, err)
		assert.True(t, inserted)
		inserted, err = tx.InsertFriendship(model.NewFriendshipEdge("alice", "bob", 4))
		require.NoError(t, err)
		assert.False(t, inserted)

		edge, err := tx.Friendship("bob", "alice")
		require.NoError(t, err)
		require.NotNil(t, edge)
		assert.Equal(t, model.Identity("alice"), edge.A)
		assert.Equal(t, model.Timestamp(3), edge.CreatedAt)

		require.NoError(t, tx.DeleteRequests("bob", "alice"))
		req, err = tx.Request("alice", "bob")
		require.NoError(t, err)
		assert.Nil(t, req)
		return nil
	})
	require.NoError(t, err)
}

func TestFriendships_PendingAndFriends(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	err := s.WithTx(ctx, "seed", func(tx *Tx) error {
		for _, r := range []model.FriendshipRequest{
			{From: "carol", To: "alice", State: model.RequestPending},
			{From: "bob", To: "alice", State: model.RequestPending},
			{From: "dave", To: "alice", State: model.RequestDeclined},
			{From: "alice", To: "erin", State: model.RequestPending},
		} {
			if err := tx.PutRequest(r); err != nil {
				return err
			}
		}
		for _, peer := range []model.Identity{"zed", "bob", "aaron"} {
			if _, err := tx.InsertFriendship(model.NewFriendshipEdge("alice", peer, 1)); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)

	incoming, err := s.PendingRequests(ctx, "alice", true, 10, 0)
	require.NoError(t, err)
	require.Len(t, incoming, 2)
	assert.Equal(t, model.Identity("bob"), incoming[0].From)
	assert.Equal(t, model.Identity("carol"), incoming[1].From)

	outgoing, err := s.PendingRequests(ctx, "alice", false, 10, 0)
	require.NoError(t, err)
	require.Len(t, outgoing, 1)
	assert.Equal(t, model.Identity("erin"), outgoing[0].To)

	friends, err := s.Friends(ctx, "alice", 10, 0)
	require.NoError(t, err)
	assert.Equal(t, []model.Identity{"aaron", "bob", "zed"}, friends)

	second, err := s.Friends(ctx, "alice", 2, 2)
	require.NoError(t, err)
	assert.Equal(t, []model.Identity{"zed"}, second)
}

func TestLinks_InsertQueryDelete(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	src := model.Ref("p1", "src")

	links := []model.CrossLink{
		{Source: src, Target: model.Ref("p2", "t2"), CreatedBy: "alice", CreatedAt: 10},
		{Source: src, Target: model.Ref("p2", "t1"), CreatedBy: "alice", CreatedAt: 10},
		{Source: src, Target: model.Ref("p3", "t3"), CreatedBy: "bob", CreatedAt: 20},
		{Source: src, Target: model.Ref("p2", "t1"), CreatedBy: "bob", CreatedAt: 5},
	}
	err := s.WithTx(ctx, "seed", func(tx *Tx) error {
		for _, l := range links {
			inserted, err := tx.InsertLink(l)
			if err != nil {
				return err
			}
			assert.True(t, inserted)
		}
		again, err := tx.InsertLink(links[0])
		require.NoError(t, err)
		assert.False(t, again)
		return nil
	})
	require.NoError(t, err)

	out, err := s.Links(ctx, LinkQuery{Anchor: src, Outgoing: true, Limit: 10})
	require.NoError(t, err)
	require.Len(t, out, 4)
	assert.Equal(t, model.Ref("p3", "t3"), out[0].Target)
	assert.Equal(t, model.Ref("p2", "t1"), out[1].Target)
	assert.Equal(t, model.Ref("p2", "t2"), out[2].Target)
	assert.Equal(t, model.Identity("bob"), out[3].CreatedBy)

	filtered, err := s.Links(ctx, LinkQuery{Anchor: src, Outgoing: true, Counterpart: "p3", Limit: 10})
	require.NoError(t, err)
	require.Len(t, filtered, 1)

	in, err := s.Links(ctx, LinkQuery{Anchor: model.Ref("p2", "t1"), Limit: 10})
	require.NoError(t, err)
	require.Len(t, in, 2)
	assert.Equal(t, model.Identity("alice"), in[0].CreatedBy)

	err = s.WithTx(ctx, "remove", func(tx *Tx) error {
		creators, err := tx.LinkCreators(src, model.Ref("p2", "t1"))
		require.NoError(t, err)
		assert.Equal(t, []model.Identity{"alice", "bob"}, creators)

		n, err := tx.CountLinksSince("alice", 10)
		require.NoError(t, err)
		assert.Equal(t, 2, n)

		removed, err := tx.DeleteLink(src, model.Ref("p2", "t1"), "alice")
		require.NoError(t, err)
		assert.True(t, removed)

		exists, err := tx.LinkExists(links[3])
		require.NoError(t, err)
		assert.True(t, exists, "bob's copy survives")

		n, err = tx.CountLinksSince("alice", 10)
		require.NoError(t, err)
		assert.Equal(t, 2, n, "removal does not refund a creation")
		return nil
	})
	require.NoError(t, err)
}

func TestCollectives_PostsMethodsMembers(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	p := model.Post{Hash: "h1", Collective: "c1", Ref: model.Ref("p1", "e1"), Author: "alice", CreatedAt: 10}
	stored, err := s.InsertPost(ctx, p)
	require.NoError(t, err)
	assert.Equal(t, p, stored)

	retry := p
	retry.CreatedAt = 99
	stored, err = s.InsertPost(ctx, retry)
	require.NoError(t, err)
	assert.Equal(t, model.Timestamp(10), stored.CreatedAt)

	_, err = s.InsertPost(ctx, model.Post{Hash: "h2", Collective: "c1", Ref: model.Ref("p2", "e2"), Author: "bob", CreatedAt: 20})
	require.NoError(t, err)

	all, err := s.Posts(ctx, PostQuery{Collective: "c1", Limit: 10})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, model.Hash("h2"), all[0].Hash)

	both, err := s.Posts(ctx, PostQuery{Collective: "c1", Partition: "p2", Author: "alice", Limit: 10})
	require.NoError(t, err)
	assert.Empty(t, both)

	inserted, err := s.InsertMethod(ctx, model.CommunicationMethod{Collective: "c1", Partition: "p9", RegisteredBy: "alice", CreatedAt: 1})
	require.NoError(t, err)
	assert.True(t, inserted)
	inserted, err = s.InsertMethod(ctx, model.CommunicationMethod{Collective: "c1", Partition: "p9", RegisteredBy: "bob", CreatedAt: 2})
	require.NoError(t, err)
	assert.False(t, inserted)
	methods, err := s.Methods(ctx, "c1", 10, 0)
	require.NoError(t, err)
	require.Len(t, methods, 1)
	assert.Equal(t, model.Identity("alice"), methods[0].RegisteredBy)

	_, err = s.InsertMember(ctx, "c1", "zoe", 1)
	require.NoError(t, err)
	_, err = s.InsertMember(ctx, "c1", "adam", 1)
	require.NoError(t, err)
	member, err := s.IsMember(ctx, "c1", "zoe")
	require.NoError(t, err)
	assert.True(t, member)

	members, err := s.Members(ctx, "c1", 10, 0)
	require.NoError(t, err)
	assert.Equal(t, []model.Identity{"adam", "zoe"}, members)

	removed, err := s.DeleteMember(ctx, "c1", "zoe")
	require.NoError(t, err)
	assert.True(t, removed)
	member, err = s.IsMember(ctx, "c1", "zoe")
	require.NoError(t, err)
	assert.False(t, member)
}

func TestProfiles_CRUD(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	avatar := model.Ref("media", "img")
	p := model.Profile{Identity: "alice", DisplayName: "Alice", Summary: "hi", Avatar: &avatar, UpdatedAt: 1}

	inserted, err := s.InsertProfile(ctx, p)
	require.NoError(t, err)
	assert.True(t, inserted)
	inserted, err = s.InsertProfile(ctx, p)
	require.NoError(t, err)
	assert.False(t, inserted)

	got, err := s.Profile(ctx, "alice")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, p, *got)

	p.Avatar = nil
	p.DisplayName = "Al"
	updated, err := s.UpdateProfile(ctx, p)
	require.NoError(t, err)
	assert.True(t, updated)
	got, err = s.Profile(ctx, "alice")
	require.NoError(t, err)
	assert.Nil(t, got.Avatar)
	assert.Equal(t, "Al", got.DisplayName)

	removed, err := s.DeleteProfile(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, removed)
	got, err = s.Profile(ctx, "alice")
	require.NoError(t, err)
	assert.Nil(t, got)

	updated, err = s.UpdateProfile(ctx, p)
	require.NoError(t, err)
	assert.False(t, updated)
}
