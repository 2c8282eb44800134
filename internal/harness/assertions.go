package harness

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/fluxsocial/socialdna/internal/agent"
	"github.com/fluxsocial/socialdna/internal/engine"
	"github.com/fluxsocial/socialdna/internal/model"
)

// AssertionError describes a failed assertion.
type AssertionError struct {
	Type    string
	Message string
}

func (e *AssertionError) Error() string {
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// AssertionContext carries what query assertions need.
type AssertionContext struct {
	Ctx    context.Context
	Engine *engine.Engine
}

// EvaluateAssertions checks every assertion and returns one message per
// failure.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var failures []string
	for i, a := range assertions {
		var err error
		switch a.Type {
		case AssertTraceCount:
			err = assertTraceCount(result.Trace, a)
		case AssertTraceOrder:
			err = assertTraceOrder(result.Trace, a)
		case AssertQuery:
			err = assertQuery(actx, a)
		default:
			err = &AssertionError{Type: a.Type, Message: "unknown assertion type"}
		}
		if err != nil {
			failures = append(failures, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return failures
}

func assertTraceCount(trace []TraceEvent, a Assertion) error {
	count := 0
	for _, ev := range trace {
		if ev.Invoke != a.Invoke {
			continue
		}
		if a.Outcome != "" && ev.Outcome != a.Outcome {
			continue
		}
		count++
	}
	if count != a.Count {
		return &AssertionError{
			Type:    AssertTraceCount,
			Message: fmt.Sprintf("expected %s %s %d times, found %d", a.Invoke, outcomeLabel(a.Outcome), a.Count, count),
		}
	}
	return nil
}

func outcomeLabel(outcome string) string {
	if outcome == "" {
		return "with any outcome"
	}
	return "with outcome " + outcome
}

// assertTraceOrder checks that the operations occur in the given relative
// order. Other events may be interleaved.
func assertTraceOrder(trace []TraceEvent, a Assertion) error {
	next := 0
	for _, ev := range trace {
		if next < len(a.Invokes) && ev.Invoke == a.Invokes[next] {
			next++
		}
	}
	if next != len(a.Invokes) {
		return &AssertionError{
			Type:    AssertTraceOrder,
			Message: fmt.Sprintf("expected order %v, first missing %q", a.Invokes, a.Invokes[next]),
		}
	}
	return nil
}

func assertQuery(actx *AssertionContext, a Assertion) error {
	fn, err := operations[a.Invoke](args(a.Args))
	if err != nil {
		return &AssertionError{Type: AssertQuery, Message: err.Error()}
	}
	ctx := actx.Ctx
	if a.As != "" {
		ctx = agent.WithIdentity(ctx, model.Identity(a.As))
	}
	got, err := fn(ctx, actx.Engine)
	if err != nil {
		return &AssertionError{Type: AssertQuery, Message: fmt.Sprintf("%s failed: %v", a.Invoke, err)}
	}
	actual, err := normalize(got)
	if err != nil {
		return err
	}
	expected, err := normalize(a.Expect)
	if err != nil {
		return err
	}
	if !matches(actual, expected) {
		return &AssertionError{
			Type:    AssertQuery,
			Message: fmt.Sprintf("%s returned %s, want subset %s", a.Invoke, render(actual), render(expected)),
		}
	}
	return nil
}

// normalize converts v to its JSON form: maps, lists, strings, bools,
// nil and int64. Non-integral numbers stay as their decimal string.
func normalize(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode value: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var out any
	if err := dec.Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode value: %w", err)
	}
	return integers(out), nil
}

func integers(v any) any {
	switch t := v.(type) {
	case json.Number:
		if n, err := t.Int64(); err == nil {
			return n
		}
		return t.String()
	case map[string]any:
		for k, e := range t {
			t[k] = integers(e)
		}
		return t
	case []any:
		for i, e := range t {
			t[i] = integers(e)
		}
		return t
	default:
		return v
	}
}

// matches reports whether actual contains expected. Maps match on the
// expected keys only; lists must have the same length, and a null list
// matches an empty one.
func matches(actual, expected any) bool {
	switch want := expected.(type) {
	case map[string]any:
		got, ok := actual.(map[string]any)
		if !ok {
			return false
		}
		for k, w := range want {
			g, ok := got[k]
			if !ok || !matches(g, w) {
				return false
			}
		}
		return true
	case []any:
		if actual == nil && len(want) == 0 {
			return true
		}
		got, ok := actual.([]any)
		if !ok || len(got) != len(want) {
			return false
		}
		for i := range want {
			if !matches(got[i], want[i]) {
				return false
			}
		}
		return true
	default:
		return reflect.DeepEqual(actual, expected)
	}
}

func render(v any) string {
	data, err := model.MarshalCanonical(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}
