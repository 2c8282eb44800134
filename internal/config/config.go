// Package config loads the engine configuration from YAML and checks it
// against an embedded CUE schema.
package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"gopkg.in/yaml.v3"

	"github.com/fluxsocial/socialdna/internal/model"
)

//go:embed schema.cue
var schemaSource string

// Duration is a time.Duration written as "5s", "1m30s" and so on.
type Duration time.Duration

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

func (d Duration) String() string { return time.Duration(d).String() }

// UnmarshalYAML parses a Go duration string.
func (d *Duration) UnmarshalYAML(n *yaml.Node) error {
	var s string
	if err := n.Decode(&s); err != nil {
		return err
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("line %d: %w", n.Line, err)
	}
	*d = Duration(v)
	return nil
}

// MarshalYAML writes d as a duration string.
func (d Duration) MarshalYAML() (any, error) {
	return d.String(), nil
}

// Config is the full engine configuration.
type Config struct {
	Database       string            `yaml:"database"`
	LocalPartition model.PartitionID `yaml:"local_partition"`
	Log            Log               `yaml:"log"`
	Pagination     Pagination        `yaml:"pagination"`
	Traversal      Traversal         `yaml:"traversal"`
	Links          Links             `yaml:"links"`
	Storage        Storage           `yaml:"storage"`
	Collectives    []Collective      `yaml:"collectives,omitempty"`
}

type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type Pagination struct {
	MaxPageSize int `yaml:"max_page_size"`
}

type Traversal struct {
	MaxDepth   int `yaml:"max_depth"`
	MaxVisited int `yaml:"max_visited"`
}

type Links struct {
	Quota             Quota               `yaml:"quota"`
	TrustedPartitions []model.PartitionID `yaml:"trusted_partitions,omitempty"`
}

// Quota bounds new links per identity per window. Limit 0 disables it.
type Quota struct {
	Limit  int      `yaml:"limit"`
	Window Duration `yaml:"window"`
}

type Storage struct {
	Timeout Duration `yaml:"timeout"`
	Breaker Breaker  `yaml:"breaker"`
}

type Breaker struct {
	MaxRequests         uint32   `yaml:"max_requests"`
	Interval            Duration `yaml:"interval"`
	OpenTimeout         Duration `yaml:"open_timeout"`
	ConsecutiveFailures uint32   `yaml:"consecutive_failures"`
}

// Collective overrides the settings of one collective.
type Collective struct {
	ID               model.PartitionID `yaml:"id"`
	EnumerateMembers *bool             `yaml:"enumerate_members,omitempty"`
	WritePolicy      string            `yaml:"write_policy,omitempty"`
}

// Enumerate reports whether the collective lists its members. Unset means yes.
func (c Collective) Enumerate() bool {
	return c.EnumerateMembers == nil || *c.EnumerateMembers
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Database:       "socialdna.db",
		LocalPartition: "local",
		Log:            Log{Level: "info", Format: "console"},
		Pagination:     Pagination{MaxPageSize: 1000},
		Traversal:      Traversal{MaxDepth: 6, MaxVisited: 10_000},
		Links: Links{
			Quota: Quota{Window: Duration(time.Minute)},
		},
		Storage: Storage{
			Timeout: Duration(5 * time.Second),
			Breaker: Breaker{
				MaxRequests:         1,
				Interval:            Duration(30 * time.Second),
				OpenTimeout:         Duration(10 * time.Second),
				ConsecutiveFailures: 5,
			},
		},
	}
}

// Load reads the YAML file at path over the defaults.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes data over the defaults. The document is checked against
// the schema first, so unknown keys and out-of-range values fail with the
// schema's message rather than a decode error.
func Parse(data []byte) (Config, error) {
	cfg := Default()

	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if raw == nil {
		return cfg, nil
	}
	if err := checkSchema(raw); err != nil {
		return Config{}, err
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// checkSchema unifies raw with #Config and requires a concrete result.
func checkSchema(raw any) error {
	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compile config schema: %w", err)
	}
	def := schema.LookupPath(cue.ParsePath("#Config"))
	doc := ctx.Encode(raw)
	if err := doc.Err(); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := def.Unify(doc).Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Validate checks the constraints the schema cannot express.
func (c Config) Validate() error {
	if c.LocalPartition == "" {
		return errors.New("invalid config: local_partition must not be empty")
	}
	if c.Traversal.MaxDepth < 1 {
		return errors.New("invalid config: traversal.max_depth must be at least 1")
	}
	seen := make(map[model.PartitionID]bool, len(c.Collectives))
	for _, col := range c.Collectives {
		if seen[col.ID] {
			return fmt.Errorf("invalid config: collective %q configured twice", col.ID)
		}
		seen[col.ID] = true
	}
	return nil
}

// Marshal renders c as YAML.
func (c Config) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
