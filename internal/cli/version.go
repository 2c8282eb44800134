package cli

import (
	"github.com/spf13/cobra"

	"github.com/fluxsocial/socialdna/internal/model"
)

// VersionInfo is printed by the version command.
type VersionInfo struct {
	Engine string `json:"engine"`
	Schema string `json:"schema"`
}

func (v VersionInfo) String() string {
	return "socialdna " + v.Engine + " (entry schema " + v.Schema + ")"
}

func newVersionCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the engine and entry schema versions",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.formatter(cmd).Success(VersionInfo{
				Engine: model.EngineVersion,
				Schema: model.SchemaVersion,
			})
		},
	}
}
