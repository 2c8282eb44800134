package cli

import (
	"github.com/spf13/cobra"

	"github.com/fluxsocial/socialdna/internal/errs"
	"github.com/fluxsocial/socialdna/internal/model"
	"github.com/fluxsocial/socialdna/internal/profile"
)

type profileFlags struct {
	name    string
	summary string
	avatar  string
}

func (f profileFlags) fields() (profile.Fields, error) {
	out := profile.Fields{DisplayName: f.name, Summary: f.summary}
	if f.avatar != "" {
		ref, err := model.ParseRef(f.avatar)
		if err != nil {
			return profile.Fields{}, usageError(err)
		}
		out.Avatar = &ref
	}
	return out, nil
}

func newProfileCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "The caller's profile",
		Long: `Create, update, fetch and delete profiles. Writes always target the
--as identity's own profile.

Examples:
  socialdna --as alice profile create --name Alice --avatar media-dna/img-1
  socialdna profile get alice`,
	}
	cmd.AddCommand(newProfileWriteCommand(opts, "create", "Create the caller's profile (no-op if it exists)",
		func(s *session, f profile.Fields) (model.Profile, error) { return s.engine.Profiles.Create(s.ctx, f) }))
	cmd.AddCommand(newProfileWriteCommand(opts, "update", "Replace the caller's profile",
		func(s *session, f profile.Fields) (model.Profile, error) { return s.engine.Profiles.Update(s.ctx, f) }))
	cmd.AddCommand(&cobra.Command{
		Use:   "get <identity>",
		Short: "Fetch a profile",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, func(s *session) error {
				p, err := s.engine.Profiles.Get(s.ctx, model.Identity(args[0]))
				if err != nil {
					return err
				}
				if p == nil {
					return errs.Newf(errs.NotFound, "profile.get", "no profile for %s", args[0])
				}
				return s.out.Success(profileView(*p))
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "delete",
		Short: "Delete the caller's profile",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, func(s *session) error {
				if err := s.engine.Profiles.Delete(s.ctx); err != nil {
					return err
				}
				return s.out.Success(ack{Action: "deleted"})
			})
		},
	})
	return cmd
}

func newProfileWriteCommand(opts *RootOptions, use, short string, fn func(s *session, f profile.Fields) (model.Profile, error)) *cobra.Command {
	var pf profileFlags
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			fields, err := pf.fields()
			if err != nil {
				return err
			}
			return opts.run(cmd, func(s *session) error {
				p, err := fn(s, fields)
				if err != nil {
					return err
				}
				return s.out.Success(profileView(p))
			})
		},
	}
	cmd.Flags().StringVar(&pf.name, "name", "", "display name (required)")
	cmd.Flags().StringVar(&pf.summary, "summary", "", "short description")
	cmd.Flags().StringVar(&pf.avatar, "avatar", "", "avatar entry as partition/hash")
	return cmd
}
