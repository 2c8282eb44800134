package engine

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/fluxsocial/socialdna/internal/agent"
	"github.com/fluxsocial/socialdna/internal/config"
	"github.com/fluxsocial/socialdna/internal/errs"
	"github.com/fluxsocial/socialdna/internal/links"
	"github.com/fluxsocial/socialdna/internal/model"
	"github.com/fluxsocial/socialdna/internal/page"
	"github.com/fluxsocial/socialdna/internal/profile"
	"github.com/fluxsocial/socialdna/internal/testutil"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func testConfig(t *testing.T) config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Database = filepath.Join(t.TempDir(), "engine.db")
	cfg.LocalPartition = "posts-dna"
	return cfg
}

func openEngine(t *testing.T, cfg config.Config, opts ...Option) *Engine {
	t.Helper()
	opts = append([]Option{WithClock(testutil.NewDeterministicClock())}, opts...)
	e, err := Open(cfg, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { e.Close() })
	return e
}

func as(id model.Identity) context.Context {
	return agent.WithIdentity(context.Background(), id)
}

func TestEngine_EndToEnd(t *testing.T) {
	e := openEngine(t, testConfig(t))

	require.NoError(t, e.Graph.Follow(as("alice"), "bob", model.NoRelation()))
	require.NoError(t, e.Graph.Follow(as("bob"), "carol", model.NoRelation()))
	second, err := e.Graph.NthLevelFollowing(context.Background(), 2, "alice", model.NoRelation())
	require.NoError(t, err)
	assert.Equal(t, []model.Identity{"carol"}, second)

	expr, err := e.Expressions.CreatePublic(as("alice"), model.Text("hello"), nil)
	require.NoError(t, err)
	assert.EqualValues(t, "posts-dna", expr.ContentRef.Partition)

	ok, err := e.Addresses.Exists(context.Background(), expr.ContentRef)
	require.NoError(t, err)
	assert.True(t, ok)

	comment := model.Ref("comments-dna", "c-1")
	require.NoError(t, e.Links.CreateLink(as("bob"), expr.ContentRef, comment))
	out, err := e.Links.GetOutgoing(context.Background(), expr.ContentRef, nil, page.First(10))
	require.NoError(t, err)
	require.Len(t, out.Items, 1)
	assert.Equal(t, comment, out.Items[0].Target)

	square, err := e.Collectives.Collective("town-square")
	require.NoError(t, err)
	_, err = square.Post(as("alice"), expr.ContentRef)
	require.NoError(t, err)

	_, err = e.Profiles.Create(as("alice"), profile.Fields{DisplayName: "Alice"})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, e.Metrics().WriteText(&buf))
	assert.Contains(t, buf.String(), `socialdna_operations_total{component="graph",op="follow",outcome="ok"} 2`)
	assert.Contains(t, buf.String(), `socialdna_operations_total{component="profile",op="create",outcome="ok"} 1`)
}

func TestEngine_ConfiguredAdmission(t *testing.T) {
	cfg := testConfig(t)
	cfg.Links.TrustedPartitions = []model.PartitionID{"posts-dna"}
	cfg.Links.Quota = config.Quota{Limit: 1, Window: config.Duration(time.Hour)}
	e := openEngine(t, cfg)

	src := model.Ref("posts-dna", "expr-1")
	err := e.Links.CreateLink(as("bob"), model.Ref("spam-dna", "x"), src)
	assert.True(t, errs.IsForbidden(err), "untrusted source: %v", err)

	require.NoError(t, e.Links.CreateLink(as("bob"), src, model.Ref("comments-dna", "c-1")))
	err = e.Links.CreateLink(as("bob"), src, model.Ref("comments-dna", "c-2"))
	assert.True(t, errs.IsRateLimited(err), "quota: %v", err)
}

func TestEngine_ExtraAdmissionRunsLast(t *testing.T) {
	deny := links.AdmitFunc(func(caller model.Identity, _, _ model.GlobalEntryRef) bool { return caller != "mallory" })
	e := openEngine(t, testConfig(t), WithAdmission(deny))

	src := model.Ref("posts-dna", "expr-1")
	require.NoError(t, e.Links.CreateLink(as("bob"), src, model.Ref("comments-dna", "c-1")))
	err := e.Links.CreateLink(as("mallory"), src, model.Ref("comments-dna", "c-2"))
	assert.True(t, errs.IsForbidden(err))
}

func TestEngine_ConfiguredCollectives(t *testing.T) {
	cfg := testConfig(t)
	hidden := false
	cfg.Collectives = []config.Collective{{ID: "council", WritePolicy: "members_only", EnumerateMembers: &hidden}}
	e := openEngine(t, cfg)

	council, err := e.Collectives.Collective("council")
	require.NoError(t, err)
	assert.False(t, council.Enumerable())

	ref := model.Ref("posts-dna", "expr-1")
	_, err = council.Post(as("alice"), ref)
	assert.True(t, errs.IsForbidden(err))
	require.NoError(t, council.Join(as("alice")))
	_, err = council.Post(as("alice"), ref)
	require.NoError(t, err)
}

func TestEngine_ConfiguredLimits(t *testing.T) {
	cfg := testConfig(t)
	cfg.Pagination.MaxPageSize = 5
	cfg.Traversal.MaxDepth = 2
	e := openEngine(t, cfg)

	_, err := e.Graph.MyFollowing(as("alice"), model.NoRelation(), page.First(6))
	assert.True(t, errs.IsInvalidArgument(err))
	_, err = e.Graph.NthLevelFollowers(context.Background(), 3, "alice", model.NoRelation())
	assert.True(t, errs.IsInvalidArgument(err))
}

func TestOpen_RejectsBadConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.Collectives = []config.Collective{{ID: "c", WritePolicy: "everyone"}}
	_, err := Open(cfg)
	assert.ErrorContains(t, err, "unknown write policy")

	cfg = testConfig(t)
	cfg.LocalPartition = ""
	_, err = Open(cfg)
	assert.Error(t, err)
}

func TestNew_LeavesStoreOpen(t *testing.T) {
	st := testutil.OpenStore(t)
	e, err := New(st, testConfig(t))
	require.NoError(t, err)
	require.NoError(t, e.Close())

	require.NoError(t, e.Graph.Follow(as("alice"), "bob", model.NoRelation()))
}

func TestClose_Nil(t *testing.T) {
	var e *Engine
	assert.NoError(t, e.Close())
}
