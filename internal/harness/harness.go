package harness

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/fluxsocial/socialdna/internal/agent"
	"github.com/fluxsocial/socialdna/internal/config"
	"github.com/fluxsocial/socialdna/internal/engine"
	"github.com/fluxsocial/socialdna/internal/errs"
	"github.com/fluxsocial/socialdna/internal/model"
	"github.com/fluxsocial/socialdna/internal/testutil"
)

// Harness executes one scenario against one engine.
type Harness struct {
	engine *engine.Engine
	logger *zap.Logger
}

// Option configures Run.
type Option func(*options)

type options struct {
	logger *zap.Logger
}

// WithLogger routes engine logs to l. The default discards them.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.logger = l }
}

// Run executes a scenario and returns its result.
//
// Each scenario runs in a fresh in-memory database with a deterministic
// clock. A returned error means the scenario itself could not run: bad
// configuration, malformed arguments or a failing setup step. Failed
// expectations and assertions are reported in the Result instead.
func Run(ctx context.Context, scenario *Scenario, opts ...Option) (*Result, error) {
	o := options{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}

	cfg, err := scenarioConfig(scenario)
	if err != nil {
		return nil, err
	}

	eng, err := engine.Open(cfg, engine.WithClock(testutil.NewDeterministicClock()), engine.WithLogger(o.logger))
	if err != nil {
		return nil, fmt.Errorf("failed to open engine: %w", err)
	}
	defer eng.Close()

	h := &Harness{engine: eng, logger: o.logger}

	result := NewResult()
	if err := h.executeSetup(ctx, scenario.Setup); err != nil {
		return nil, fmt.Errorf("failed to execute setup: %w", err)
	}
	if err := h.executeFlow(ctx, scenario.Flow, result); err != nil {
		return nil, fmt.Errorf("failed to execute flow: %w", err)
	}

	actx := &AssertionContext{Ctx: ctx, Engine: eng}
	for _, msg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(msg)
	}
	return result, nil
}

// scenarioConfig applies the scenario's overrides on top of the defaults
// through the same schema check a config file gets.
func scenarioConfig(s *Scenario) (config.Config, error) {
	cfg := config.Default()
	if len(s.Config) > 0 {
		data, err := yaml.Marshal(s.Config)
		if err != nil {
			return config.Config{}, fmt.Errorf("failed to encode scenario config: %w", err)
		}
		if cfg, err = config.Parse(data); err != nil {
			return config.Config{}, err
		}
	}
	cfg.Database = ":memory:"
	return cfg, nil
}

func (h *Harness) executeSetup(ctx context.Context, setup []Step) error {
	for i, step := range setup {
		if _, err := h.invoke(ctx, step); err != nil {
			return fmt.Errorf("setup[%d] %s: %w", i, step.Invoke, err)
		}
	}
	return nil
}

func (h *Harness) executeFlow(ctx context.Context, flow []Step, result *Result) error {
	for i, step := range flow {
		fn, err := operations[step.Invoke](args(step.Args))
		if err != nil {
			return fmt.Errorf("flow[%d] %s: %w", i, step.Invoke, err)
		}
		got, callErr := fn(withCaller(ctx, step.As), h.engine)

		ev := TraceEvent{As: step.As, Invoke: step.Invoke, Outcome: OutcomeOK}
		if ev.Args, err = normalizeArgs(step.Args); err != nil {
			return fmt.Errorf("flow[%d]: %w", i, err)
		}
		if callErr != nil {
			ev.Outcome = outcomeOf(callErr)
		} else if ev.Result, err = normalize(got); err != nil {
			return fmt.Errorf("flow[%d]: %w", i, err)
		}
		result.record(ev)

		h.logger.Debug("scenario step",
			zap.Int("step", i),
			zap.String("invoke", step.Invoke),
			zap.String("as", step.As),
			zap.String("outcome", ev.Outcome))

		for _, msg := range checkExpect(step, ev, callErr) {
			result.AddError(fmt.Sprintf("flow[%d] %s: %s", i, step.Invoke, msg))
		}
	}
	return nil
}

func (h *Harness) invoke(ctx context.Context, step Step) (any, error) {
	fn, err := operations[step.Invoke](args(step.Args))
	if err != nil {
		return nil, err
	}
	return fn(withCaller(ctx, step.As), h.engine)
}

// outcomeOf is the error code of err, or "ERROR" when it carries none.
func outcomeOf(err error) string {
	if code := errs.CodeOf(err); code != "" {
		return string(code)
	}
	return "ERROR"
}

func withCaller(ctx context.Context, as string) context.Context {
	if as == "" {
		return ctx
	}
	return agent.WithIdentity(ctx, model.Identity(as))
}

func normalizeArgs(a map[string]any) (map[string]any, error) {
	if len(a) == 0 {
		return nil, nil
	}
	v, err := normalize(a)
	if err != nil {
		return nil, err
	}
	m, _ := v.(map[string]any)
	return m, nil
}

func checkExpect(step Step, ev TraceEvent, callErr error) []string {
	want := step.Expect
	if want == nil {
		want = &Expect{}
	}
	if want.Error != "" {
		if callErr == nil {
			return []string{fmt.Sprintf("expected error %s, got success", want.Error)}
		}
		if ev.Outcome != want.Error {
			return []string{fmt.Sprintf("expected error %s, got %v", want.Error, callErr)}
		}
		return nil
	}
	if callErr != nil {
		return []string{fmt.Sprintf("unexpected error: %v", callErr)}
	}
	if want.Result == nil {
		return nil
	}
	expected, err := normalize(want.Result)
	if err != nil {
		return []string{err.Error()}
	}
	if !matches(ev.Result, expected) {
		return []string{fmt.Sprintf("result %s, want subset %s", render(ev.Result), render(expected))}
	}
	return nil
}
