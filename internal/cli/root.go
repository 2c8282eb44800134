package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fluxsocial/socialdna/internal/agent"
	"github.com/fluxsocial/socialdna/internal/config"
	"github.com/fluxsocial/socialdna/internal/engine"
	"github.com/fluxsocial/socialdna/internal/logging"
	"github.com/fluxsocial/socialdna/internal/model"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	Database   string // overrides config database when set
	ConfigPath string
	As         string // calling identity
	Metrics    bool   // dump metrics to stderr after the command
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the socialdna CLI.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{})
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "socialdna",
		Short: "socialdna - social graph and expression engine",
		Long: `Follow graphs, friendships, authored expressions, cross-partition links
and collectives over one local SQLite store.

Writes act as the identity given with --as.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return usageError(fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			return nil
		},
	}
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError(err)
	})

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.Database, "db", "", "path to SQLite database (overrides config)")
	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "path to YAML config file")
	cmd.PersistentFlags().StringVar(&opts.As, "as", "", "calling identity for writes")
	cmd.PersistentFlags().BoolVar(&opts.Metrics, "metrics", false, "print operation metrics to stderr")

	// Add subcommands
	cmd.AddCommand(newFollowCommand(opts))
	cmd.AddCommand(newUnfollowCommand(opts))
	cmd.AddCommand(newFollowersCommand(opts))
	cmd.AddCommand(newFollowingCommand(opts))
	cmd.AddCommand(newTraverseCommand(opts))
	cmd.AddCommand(newFriendCommand(opts))
	cmd.AddCommand(newExprCommand(opts))
	cmd.AddCommand(newLinkCommand(opts))
	cmd.AddCommand(newContextCommand(opts))
	cmd.AddCommand(newProfileCommand(opts))
	cmd.AddCommand(newConfigCommand(opts))
	cmd.AddCommand(newTestCommand(opts))
	cmd.AddCommand(newVersionCommand(opts))

	return cmd
}

// Execute runs the CLI with args and returns the process exit code.
// Failures are reported on stdout in the selected format.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	opts := &RootOptions{Format: "text"}
	cmd := newRootCommand(opts)
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) && exitErr.Reported {
		return exitErr.Code
	}
	if !isValidFormat(opts.Format) {
		opts.Format = "text"
	}
	return opts.formatter(cmd).Fail(err)
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}

func usageError(err error) error {
	return &ExitError{Code: ExitCommandError, Kind: CodeUsage, Message: "usage", Err: err}
}

// exactArgs is cobra.ExactArgs reported as a usage error.
func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := cobra.ExactArgs(n)(cmd, args); err != nil {
			return usageError(err)
		}
		return nil
	}
}

// maxArgs is cobra.MaximumNArgs reported as a usage error.
func maxArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := cobra.MaximumNArgs(n)(cmd, args); err != nil {
			return usageError(err)
		}
		return nil
	}
}

func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   o.Verbose,
	}
}

// loadConfig reads --config, or the defaults, and applies --db.
func (o *RootOptions) loadConfig() (config.Config, error) {
	cfg := config.Default()
	if o.ConfigPath != "" {
		var err error
		if cfg, err = config.Load(o.ConfigPath); err != nil {
			return config.Config{}, &ExitError{Code: ExitCommandError, Kind: CodeConfig, Message: "failed to load config", Err: err}
		}
	}
	if o.Database != "" {
		cfg.Database = o.Database
	}
	return cfg, nil
}

func (o *RootOptions) logger(cmd *cobra.Command, cfg config.Config) (*zap.Logger, error) {
	level := cfg.Log.Level
	if o.Verbose {
		level = "debug"
	}
	l, err := logging.NewWithWriter(cmd.ErrOrStderr(), level, logging.Format(cfg.Log.Format))
	if err != nil {
		return nil, &ExitError{Code: ExitCommandError, Kind: CodeConfig, Message: "failed to build logger", Err: err}
	}
	return l, nil
}

// session is what a command sees once the engine is open.
type session struct {
	ctx    context.Context
	engine *engine.Engine
	out    *OutputFormatter
}

// caller returns the --as identity. Reads that default to the caller's own
// data fail with Forbidden without one.
func (s *session) caller(op string) (model.Identity, error) {
	return agent.Require(s.ctx, op)
}

// run opens the engine, runs fn and closes the engine again.
func (o *RootOptions) run(cmd *cobra.Command, fn func(s *session) error) (err error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return err
	}
	logger, err := o.logger(cmd, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	e, err := engine.Open(cfg, engine.WithLogger(logger))
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer func() {
		if cerr := e.Close(); cerr != nil && err == nil {
			err = WrapExitError(ExitUnavailable, "failed to close database", cerr)
		}
	}()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if o.As != "" {
		ctx = agent.WithIdentity(ctx, model.Identity(o.As))
	}

	s := &session{ctx: ctx, engine: e, out: o.formatter(cmd)}
	s.out.VerboseLog("database %s, local partition %s", cfg.Database, cfg.LocalPartition)
	err = fn(s)
	if o.Metrics {
		if merr := e.Metrics().WriteText(cmd.ErrOrStderr()); merr != nil && err == nil {
			err = merr
		}
	}
	return err
}
