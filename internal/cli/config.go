package cli

import (
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// effectiveConfig prints as YAML in text mode and as the same tree in JSON.
type effectiveConfig struct {
	raw  []byte
	Tree map[string]any `json:"config"`
}

func (c effectiveConfig) RenderText(w io.Writer) {
	_, _ = w.Write(c.raw)
}

func newConfigCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Long: `Print the configuration after defaults, the --config file and --db are
applied. The file is checked against the embedded schema first.`,
		Args: exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			data, err := cfg.Marshal()
			if err != nil {
				return err
			}
			var tree map[string]any
			if err := yaml.Unmarshal(data, &tree); err != nil {
				return err
			}
			return opts.formatter(cmd).Success(effectiveConfig{raw: data, Tree: tree})
		},
	}
}
