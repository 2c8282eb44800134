package collective

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fluxsocial/socialdna/internal/agent"
	"github.com/fluxsocial/socialdna/internal/errs"
	"github.com/fluxsocial/socialdna/internal/model"
	"github.com/fluxsocial/socialdna/internal/page"
	"github.com/fluxsocial/socialdna/internal/testutil"
)

const (
	openID    model.PartitionID = "town-square"
	closedID  model.PartitionID = "council"
	privateID model.PartitionID = "quiet-club"
)

func newRegistry(t *testing.T, opts ...Option) *Registry {
	t.Helper()
	opts = append([]Option{
		WithClock(testutil.NewDeterministicClock()),
		WithCollective(closedID, Settings{EnumerateMembers: true, Policy: MembersOnly{}}),
		WithCollective(privateID, Settings{EnumerateMembers: false, Policy: MembersOnly{}}),
	}, opts...)
	return NewRegistry(testutil.OpenStore(t), opts...)
}

func open(t *testing.T, r *Registry, id model.PartitionID) *Collective {
	t.Helper()
	c, err := r.Collective(id)
	require.NoError(t, err)
	return c
}

func as(id model.Identity) context.Context {
	return agent.WithIdentity(context.Background(), id)
}

func TestRegistry_RejectsMalformedID(t *testing.T) {
	_, err := newRegistry(t).Collective("")
	assert.True(t, errs.IsInvalidArgument(err), "got %v", err)
}

func TestRegistry_Configured(t *testing.T) {
	r := newRegistry(t, WithCollective("agora", DefaultSettings()))

	first, err := r.Configured(page.First(2))
	require.NoError(t, err)
	assert.Equal(t, []model.PartitionID{"agora", closedID}, first.Items)

	second, err := r.Configured(page.New(2, 1))
	require.NoError(t, err)
	assert.Equal(t, []model.PartitionID{privateID}, second.Items)

	past, err := r.Configured(page.New(2, 5))
	require.NoError(t, err)
	assert.Empty(t, past.Items)

	_, err = r.Configured(page.New(0, 0))
	assert.True(t, errs.IsInvalidArgument(err), "got %v", err)
}

func TestRegistry_NilPolicyIsOpen(t *testing.T) {
	r := newRegistry(t, WithCollective("loose", Settings{EnumerateMembers: true}))
	ok, err := open(t, r, "loose").Writable(as("alice"))
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestPost_Idempotent(t *testing.T) {
	c := open(t, newRegistry(t), openID)
	ref := model.Ref("posts-dna", "expr-1")

	first, err := c.Post(as("alice"), ref)
	require.NoError(t, err)
	again, err := c.Post(as("alice"), ref)
	require.NoError(t, err)
	assert.Equal(t, first, again)

	log, err := c.ReadCommunications(context.Background(), nil, nil, page.First(10))
	require.NoError(t, err)
	assert.Len(t, log.Items, 1)
}

func TestPost_RequiresIdentity(t *testing.T) {
	c := open(t, newRegistry(t), openID)
	_, err := c.Post(context.Background(), model.Ref("posts-dna", "expr-1"))
	assert.True(t, errs.IsForbidden(err), "got %v", err)
}

func TestPost_MembersOnly(t *testing.T) {
	c := open(t, newRegistry(t), closedID)
	ref := model.Ref("posts-dna", "expr-1")

	ok, err := c.Writable(as("alice"))
	require.NoError(t, err)
	assert.False(t, ok)
	_, err = c.Post(as("alice"), ref)
	assert.True(t, errs.IsForbidden(err), "got %v", err)

	require.NoError(t, c.Join(as("alice")))
	ok, err = c.Writable(as("alice"))
	require.NoError(t, err)
	assert.True(t, ok)
	_, err = c.Post(as("alice"), ref)
	require.NoError(t, err)

	require.NoError(t, c.Leave(as("alice")))
	_, err = c.Post(as("alice"), model.Ref("posts-dna", "expr-2"))
	assert.True(t, errs.IsForbidden(err), "got %v", err)
}

// leaveDuringCheck starts the caller's Leave while the members-only
// check runs and records whether it finished before the check returned.
type leaveDuringCheck struct {
	c        *Collective
	started  bool
	finished bool
	done     chan error
}

func (p *leaveDuringCheck) Writable(ctx context.Context, members Membership, caller model.Identity) (bool, error) {
	ok, err := MembersOnly{}.Writable(ctx, members, caller)
	if p.started {
		return ok, err
	}
	p.started = true
	p.done = make(chan error, 1)
	go func() { p.done <- p.c.Leave(as(caller)) }()
	select {
	case leaveErr := <-p.done:
		p.finished = true
		p.done <- leaveErr
	case <-time.After(50 * time.Millisecond):
	}
	return ok, err
}

func (p *leaveDuringCheck) Name() string { return "leave_during_check" }

func TestPost_LeaveWaitsForMembershipCheck(t *testing.T) {
	policy := &leaveDuringCheck{}
	r := newRegistry(t, WithCollective("guarded", Settings{EnumerateMembers: true, Policy: policy}))
	c := open(t, r, "guarded")
	policy.c = c
	require.NoError(t, c.Join(as("alice")))

	_, err := c.Post(as("alice"), model.Ref("posts-dna", "expr-1"))
	require.NoError(t, err)
	assert.False(t, policy.finished, "leave must not land between the check and the insert")
	require.NoError(t, <-policy.done)

	ok, err := c.Writable(as("alice"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestWritable_Anonymous(t *testing.T) {
	ok, err := open(t, newRegistry(t), openID).Writable(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestReadCommunications_Filters(t *testing.T) {
	c := open(t, newRegistry(t), openID)
	posts := []struct {
		author model.Identity
		ref    model.GlobalEntryRef
	}{
		{"alice", model.Ref("posts-dna", "a-1")},
		{"alice", model.Ref("media-dna", "a-2")},
		{"bob", model.Ref("posts-dna", "b-1")},
		{"bob", model.Ref("media-dna", "b-2")},
	}
	for _, p := range posts {
		_, err := c.Post(as(p.author), p.ref)
		require.NoError(t, err)
	}

	read := func(part *model.PartitionID, author *model.Identity) []model.GlobalEntryRef {
		t.Helper()
		got, err := c.ReadCommunications(context.Background(), part, author, page.First(10))
		require.NoError(t, err)
		refs := make([]model.GlobalEntryRef, len(got.Items))
		for i, p := range got.Items {
			refs[i] = p.Ref
		}
		return refs
	}

	media := model.PartitionID("media-dna")
	bob := model.Identity("bob")

	assert.Equal(t, []model.GlobalEntryRef{
		model.Ref("media-dna", "b-2"),
		model.Ref("posts-dna", "b-1"),
		model.Ref("media-dna", "a-2"),
		model.Ref("posts-dna", "a-1"),
	}, read(nil, nil), "newest first")
	assert.Equal(t, []model.GlobalEntryRef{
		model.Ref("media-dna", "b-2"),
		model.Ref("media-dna", "a-2"),
	}, read(&media, nil))
	assert.Equal(t, []model.GlobalEntryRef{
		model.Ref("media-dna", "b-2"),
		model.Ref("posts-dna", "b-1"),
	}, read(nil, &bob))
	assert.Equal(t, []model.GlobalEntryRef{model.Ref("media-dna", "b-2")}, read(&media, &bob))
}

func TestReadCommunications_Paging(t *testing.T) {
	c := open(t, newRegistry(t), openID)
	for _, h := range []model.Hash{"e-1", "e-2", "e-3"} {
		_, err := c.Post(as("alice"), model.Ref("posts-dna", h))
		require.NoError(t, err)
	}
	second, err := c.ReadCommunications(context.Background(), nil, nil, page.New(2, 1))
	require.NoError(t, err)
	require.Len(t, second.Items, 1)
	assert.Equal(t, model.Ref("posts-dna", "e-1"), second.Items[0].Ref)

	_, err = c.ReadCommunications(context.Background(), nil, nil, page.New(0, 0))
	assert.True(t, errs.IsInvalidArgument(err))
}

func TestCommunicationMethods(t *testing.T) {
	c := open(t, newRegistry(t), openID)
	require.NoError(t, c.RegisterCommunicationMethod(as("alice"), "video-dna"))
	require.NoError(t, c.RegisterCommunicationMethod(as("bob"), "audio-dna"))
	require.NoError(t, c.RegisterCommunicationMethod(as("bob"), "video-dna"))

	got, err := c.CommunicationMethods(context.Background(), page.First(10))
	require.NoError(t, err)
	require.Len(t, got.Items, 2)
	assert.EqualValues(t, "audio-dna", got.Items[0].Partition)
	assert.EqualValues(t, "video-dna", got.Items[1].Partition)
	assert.EqualValues(t, "alice", got.Items[1].RegisteredBy, "first registration wins")

	err = c.RegisterCommunicationMethod(context.Background(), "text-dna")
	assert.True(t, errs.IsForbidden(err))
	err = c.RegisterCommunicationMethod(as("alice"), "")
	assert.True(t, errs.IsInvalidArgument(err))
}

func TestMembers_Enumerated(t *testing.T) {
	c := open(t, newRegistry(t), openID)
	for _, id := range []model.Identity{"carol", "alice", "bob"} {
		require.NoError(t, c.Join(as(id)))
	}
	require.NoError(t, c.Join(as("alice")))
	require.NoError(t, c.Leave(as("bob")))
	require.NoError(t, c.Leave(as("bob")))

	got, enumerated, err := c.Members(context.Background(), page.First(10))
	require.NoError(t, err)
	assert.True(t, enumerated)
	assert.Equal(t, []model.Identity{"alice", "carol"}, got.Items)
}

func TestMembers_OptOut(t *testing.T) {
	c := open(t, newRegistry(t), privateID)
	assert.False(t, c.Enumerable())
	require.NoError(t, c.Join(as("alice")))

	got, enumerated, err := c.Members(context.Background(), page.First(10))
	require.NoError(t, err)
	assert.False(t, enumerated)
	assert.Empty(t, got.Items)

	// Membership still gates writes.
	_, err = c.Post(as("alice"), model.Ref("posts-dna", "expr-1"))
	require.NoError(t, err)
	_, err = c.Post(as("bob"), model.Ref("posts-dna", "expr-1"))
	assert.True(t, errs.IsForbidden(err))
}

func TestJoin_RequiresIdentity(t *testing.T) {
	c := open(t, newRegistry(t), openID)
	assert.True(t, errs.IsForbidden(c.Join(context.Background())))
	assert.True(t, errs.IsForbidden(c.Leave(context.Background())))
}

func TestParseWritePolicy(t *testing.T) {
	for name, want := range map[string]string{"": "open", "open": "open", "members_only": "members_only"} {
		p, err := ParseWritePolicy(name)
		require.NoError(t, err)
		assert.Equal(t, want, p.Name())
	}
	_, err := ParseWritePolicy("everyone")
	assert.Error(t, err)
}
