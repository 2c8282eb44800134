package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/fluxsocial/socialdna/internal/errs"
)

// Scenario defines a conformance scenario.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Config overrides engine configuration, in the config file layout.
	// The database is always a fresh in-memory one.
	Config map[string]any `yaml:"config,omitempty"`

	// Setup steps establish initial state. They must succeed and are not
	// recorded in the trace.
	Setup []Step `yaml:"setup,omitempty"`

	// Flow is the recorded sequence of operations.
	Flow []Step `yaml:"flow"`

	// Assertions run after the flow.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// Step invokes one engine operation.
type Step struct {
	// As is the calling agent. Empty means an anonymous caller.
	As string `yaml:"as,omitempty"`

	// Invoke names the operation, e.g. "graph.follow".
	Invoke string `yaml:"invoke"`

	Args map[string]any `yaml:"args,omitempty"`

	// Expect is checked against the outcome. Nil means the step must
	// succeed and its result is not inspected.
	Expect *Expect `yaml:"expect,omitempty"`
}

// Expect describes the expected outcome of a step.
type Expect struct {
	// Error is the expected error code. Empty means success.
	Error string `yaml:"error,omitempty"`

	// Result is subset-matched against the JSON form of the result.
	Result any `yaml:"result,omitempty"`
}

// Assertion validates the trace or the final state.
type Assertion struct {
	// Type is one of the Assert constants.
	Type string `yaml:"type"`

	// Invoke is the operation (trace_count, query).
	Invoke string `yaml:"invoke,omitempty"`

	// Outcome narrows trace_count to "ok" or an error code.
	Outcome string `yaml:"outcome,omitempty"`

	// Count is the expected number of matching trace events (trace_count).
	Count int `yaml:"count,omitempty"`

	// Invokes is the expected relative order of operations (trace_order).
	Invokes []string `yaml:"invokes,omitempty"`

	// As and Args parameterize a query.
	As   string         `yaml:"as,omitempty"`
	Args map[string]any `yaml:"args,omitempty"`

	// Expect is subset-matched against the query result.
	Expect any `yaml:"expect,omitempty"`
}

// Assertion types.
const (
	AssertTraceCount = "trace_count"
	AssertTraceOrder = "trace_order"
	AssertQuery      = "query"
)

// LoadScenario reads and parses a scenario YAML file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	s, err := ParseScenario(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// ParseScenario parses scenario YAML, rejecting unknown fields.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// LoadDir loads every *.yaml scenario in dir, sorted by file name.
func LoadDir(dir string) ([]*Scenario, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)

	scenarios := make([]*Scenario, 0, len(paths))
	names := make(map[string]string, len(paths))
	for _, path := range paths {
		s, err := LoadScenario(path)
		if err != nil {
			return nil, err
		}
		if prev, ok := names[s.Name]; ok {
			return nil, fmt.Errorf("scenario %q defined in both %s and %s", s.Name, prev, path)
		}
		names[s.Name] = path
		scenarios = append(scenarios, s)
	}
	return scenarios, nil
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Flow) == 0 {
		return fmt.Errorf("flow list is required and must be non-empty")
	}

	for i, step := range s.Setup {
		if err := validateStep(step); err != nil {
			return fmt.Errorf("setup[%d]: %w", i, err)
		}
		if step.Expect != nil {
			return fmt.Errorf("setup[%d]: setup steps cannot carry expect", i)
		}
	}
	for i, step := range s.Flow {
		if err := validateStep(step); err != nil {
			return fmt.Errorf("flow[%d]: %w", i, err)
		}
	}
	for i := range s.Assertions {
		if err := validateAssertion(&s.Assertions[i]); err != nil {
			return fmt.Errorf("assertions[%d]: %w", i, err)
		}
	}
	return nil
}

func validateStep(step Step) error {
	if step.Invoke == "" {
		return fmt.Errorf("invoke is required")
	}
	if _, ok := operations[step.Invoke]; !ok {
		return fmt.Errorf("unknown operation %q", step.Invoke)
	}
	if step.Expect != nil && step.Expect.Error != "" {
		if err := validateCode(step.Expect.Error); err != nil {
			return fmt.Errorf("expect: %w", err)
		}
	}
	return nil
}

func validateAssertion(a *Assertion) error {
	switch a.Type {
	case "":
		return fmt.Errorf("type is required")
	case AssertTraceCount:
		if a.Invoke == "" {
			return fmt.Errorf("invoke is required for trace_count")
		}
		if a.Count < 0 {
			return fmt.Errorf("count must be non-negative for trace_count")
		}
		if a.Outcome != "" && a.Outcome != OutcomeOK {
			if err := validateCode(a.Outcome); err != nil {
				return err
			}
		}
	case AssertTraceOrder:
		if len(a.Invokes) == 0 {
			return fmt.Errorf("invokes list is required for trace_order")
		}
	case AssertQuery:
		if _, ok := operations[a.Invoke]; !ok {
			return fmt.Errorf("unknown operation %q", a.Invoke)
		}
		if a.Expect == nil {
			return fmt.Errorf("expect is required for query")
		}
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
	return nil
}

func validateCode(code string) error {
	switch errs.Code(code) {
	case errs.NotFound, errs.InvalidArgument, errs.Forbidden, errs.RateLimited, errs.StorageUnavailable:
		return nil
	}
	return fmt.Errorf("unknown error code %q", code)
}
