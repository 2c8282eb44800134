package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalScenario = `
name: minimal
description: one follow
flow:
  - as: alice
    invoke: graph.follow
    args: {target: bob}
`

func TestParseScenario_Minimal(t *testing.T) {
	s, err := ParseScenario([]byte(minimalScenario))
	require.NoError(t, err)

	assert.Equal(t, "minimal", s.Name)
	require.Len(t, s.Flow, 1)
	assert.Equal(t, "alice", s.Flow[0].As)
	assert.Equal(t, "graph.follow", s.Flow[0].Invoke)
	assert.Equal(t, map[string]any{"target": "bob"}, s.Flow[0].Args)
	assert.Nil(t, s.Flow[0].Expect)
}

func TestParseScenario_Expect(t *testing.T) {
	s, err := ParseScenario([]byte(`
name: expect
description: both expectation forms
flow:
  - as: alice
    invoke: graph.request_friendship
    args: {target: bob}
    expect:
      result: {status: requested_by_self}
  - invoke: graph.friends
    expect: {error: FORBIDDEN}
`))
	require.NoError(t, err)
	require.Len(t, s.Flow, 2)
	assert.Equal(t, map[string]any{"status": "requested_by_self"}, s.Flow[0].Expect.Result)
	assert.Equal(t, "FORBIDDEN", s.Flow[1].Expect.Error)
}

func TestParseScenario_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{
			name: "missing name",
			yaml: "description: d\nflow: [{invoke: graph.follow}]\n",
			want: "name is required",
		},
		{
			name: "missing description",
			yaml: "name: n\nflow: [{invoke: graph.follow}]\n",
			want: "description is required",
		},
		{
			name: "empty flow",
			yaml: "name: n\ndescription: d\nflow: []\n",
			want: "flow list is required",
		},
		{
			name: "unknown field",
			yaml: "name: n\ndescription: d\nflow: [{invoke: graph.follow}]\nassertion: []\n",
			want: "failed to parse YAML",
		},
		{
			name: "unknown operation",
			yaml: "name: n\ndescription: d\nflow: [{invoke: graph.teleport}]\n",
			want: `flow[0]: unknown operation "graph.teleport"`,
		},
		{
			name: "missing invoke",
			yaml: "name: n\ndescription: d\nflow: [{as: alice}]\n",
			want: "flow[0]: invoke is required",
		},
		{
			name: "unknown error code",
			yaml: "name: n\ndescription: d\nflow: [{invoke: graph.follow, expect: {error: NOPE}}]\n",
			want: `unknown error code "NOPE"`,
		},
		{
			name: "setup with expect",
			yaml: "name: n\ndescription: d\nsetup: [{invoke: graph.follow, expect: {error: FORBIDDEN}}]\nflow: [{invoke: graph.follow}]\n",
			want: "setup steps cannot carry expect",
		},
		{
			name: "unknown assertion",
			yaml: "name: n\ndescription: d\nflow: [{invoke: graph.follow}]\nassertions: [{type: final_state}]\n",
			want: `unknown assertion type "final_state"`,
		},
		{
			name: "trace_count without invoke",
			yaml: "name: n\ndescription: d\nflow: [{invoke: graph.follow}]\nassertions: [{type: trace_count, count: 1}]\n",
			want: "invoke is required for trace_count",
		},
		{
			name: "trace_count bad outcome",
			yaml: "name: n\ndescription: d\nflow: [{invoke: graph.follow}]\nassertions: [{type: trace_count, invoke: graph.follow, outcome: fine}]\n",
			want: `unknown error code "fine"`,
		},
		{
			name: "trace_order without invokes",
			yaml: "name: n\ndescription: d\nflow: [{invoke: graph.follow}]\nassertions: [{type: trace_order}]\n",
			want: "invokes list is required",
		},
		{
			name: "query without expect",
			yaml: "name: n\ndescription: d\nflow: [{invoke: graph.follow}]\nassertions: [{type: query, invoke: graph.friends}]\n",
			want: "expect is required for query",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadScenario_Missing(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestLoadDir(t *testing.T) {
	scenarios, err := LoadDir("testdata/scenarios")
	require.NoError(t, err)

	var names []string
	for _, s := range scenarios {
		names = append(names, s.Name)
	}
	assert.Equal(t, []string{"friendship_handshake", "links_and_collectives"}, names)
}

func TestLoadDir_DuplicateNames(t *testing.T) {
	dir := t.TempDir()
	for _, f := range []string{"a.yaml", "b.yaml"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, f), []byte(minimalScenario), 0o644))
	}
	_, err := LoadDir(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `scenario "minimal" defined in both`)
}

func TestOperations_AllBind(t *testing.T) {
	names := Operations()
	assert.Len(t, names, len(operations))
	assert.Contains(t, names, "graph.follow")
	assert.Contains(t, names, "collective.post")
	assert.Contains(t, names, "address.exists")
}
