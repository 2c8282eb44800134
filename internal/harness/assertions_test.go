package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fluxsocial/socialdna/internal/model"
)

func TestNormalize(t *testing.T) {
	got, err := normalize(model.Page[model.Identity]{Items: []model.Identity{"bob"}, Size: 10, Number: 2})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"items":  []any{"bob"},
		"size":   int64(10),
		"number": int64(2),
	}, got)

	got, err = normalize(map[string]any{"n": 3, "f": 1.5, "ok": true})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"n": int64(3), "f": "1.5", "ok": true}, got)

	got, err = normalize(nil)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestMatches(t *testing.T) {
	actual := map[string]any{
		"items":  []any{map[string]any{"author": "alice", "hash": "h1"}},
		"size":   int64(100),
		"number": int64(0),
	}
	tests := []struct {
		name     string
		actual   any
		expected any
		want     bool
	}{
		{"subset of keys", actual, map[string]any{"size": int64(100)}, true},
		{"nested subset", actual, map[string]any{"items": []any{map[string]any{"author": "alice"}}}, true},
		{"wrong scalar", actual, map[string]any{"size": int64(5)}, false},
		{"missing key", actual, map[string]any{"total": int64(1)}, false},
		{"list length differs", actual, map[string]any{"items": []any{}}, false},
		{"null list is empty", nil, []any{}, true},
		{"type mismatch", "text", map[string]any{}, false},
		{"equal scalars", "alice", "alice", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, matches(tt.actual, tt.expected))
		})
	}
}

func TestAssertTraceCount(t *testing.T) {
	trace := []TraceEvent{
		{Seq: 1, Invoke: "graph.follow", Outcome: OutcomeOK},
		{Seq: 2, Invoke: "graph.follow", Outcome: "FORBIDDEN"},
		{Seq: 3, Invoke: "graph.unfollow", Outcome: OutcomeOK},
	}

	assert.NoError(t, assertTraceCount(trace, Assertion{Invoke: "graph.follow", Count: 2}))
	assert.NoError(t, assertTraceCount(trace, Assertion{Invoke: "graph.follow", Outcome: "FORBIDDEN", Count: 1}))
	assert.NoError(t, assertTraceCount(trace, Assertion{Invoke: "graph.friends", Count: 0}))

	err := assertTraceCount(trace, Assertion{Invoke: "graph.follow", Outcome: OutcomeOK, Count: 2})
	require.Error(t, err)
	assert.Equal(t, "trace_count: expected graph.follow with outcome ok 2 times, found 1", err.Error())
}

func TestAssertTraceOrder(t *testing.T) {
	trace := []TraceEvent{
		{Invoke: "graph.follow"},
		{Invoke: "graph.followers"},
		{Invoke: "graph.unfollow"},
	}

	assert.NoError(t, assertTraceOrder(trace, Assertion{Invokes: []string{"graph.follow", "graph.unfollow"}}))

	err := assertTraceOrder(trace, Assertion{Invokes: []string{"graph.unfollow", "graph.follow"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `first missing "graph.follow"`)
}

func TestEvaluateAssertions_CollectsFailures(t *testing.T) {
	result := NewResult()
	result.record(TraceEvent{Invoke: "graph.follow", Outcome: OutcomeOK})

	failures := EvaluateAssertions(result, []Assertion{
		{Type: AssertTraceCount, Invoke: "graph.follow", Count: 1},
		{Type: AssertTraceCount, Invoke: "graph.follow", Count: 3},
		{Type: AssertTraceOrder, Invokes: []string{"graph.unfollow"}},
	}, nil)

	require.Len(t, failures, 2)
	assert.Contains(t, failures[0], "assertions[1]")
	assert.Contains(t, failures[1], "assertions[2]")
}

func TestResult_Record(t *testing.T) {
	r := NewResult()
	r.record(TraceEvent{Invoke: "graph.follow"})
	r.record(TraceEvent{Invoke: "graph.unfollow"})

	assert.Equal(t, int64(1), r.Trace[0].Seq)
	assert.Equal(t, int64(2), r.Trace[1].Seq)
	assert.True(t, r.Pass)

	r.AddError("boom")
	assert.False(t, r.Pass)
	assert.Equal(t, []string{"boom"}, r.Errors)
}
