package cli

import (
	"github.com/spf13/cobra"

	"github.com/fluxsocial/socialdna/internal/model"
)

func newLinkCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "link",
		Short: "Cross-partition links between entries",
		Long: `Create, remove and discover links between entries in any partitions.
References are written partition/hash.

Examples:
  socialdna --as bob link create posts-dna/3f2a... comments-dna/9c1e...
  socialdna link outgoing posts-dna/3f2a... --partition comments-dna`,
	}
	cmd.AddCommand(newLinkMutationCommand(opts, "create", "Link source to target", "linked",
		func(s *session, src, tgt model.GlobalEntryRef) error { return s.engine.Links.CreateLink(s.ctx, src, tgt) }))
	cmd.AddCommand(newLinkMutationCommand(opts, "remove", "Remove your link from source to target", "unlinked",
		func(s *session, src, tgt model.GlobalEntryRef) error { return s.engine.Links.RemoveLink(s.ctx, src, tgt) }))
	cmd.AddCommand(newLinkListCommand(opts, "outgoing", true))
	cmd.AddCommand(newLinkListCommand(opts, "incoming", false))
	return cmd
}

func parseRefs(args []string) ([]model.GlobalEntryRef, error) {
	refs := make([]model.GlobalEntryRef, len(args))
	for i, a := range args {
		ref, err := model.ParseRef(a)
		if err != nil {
			return nil, usageError(err)
		}
		refs[i] = ref
	}
	return refs, nil
}

func newLinkMutationCommand(opts *RootOptions, use, short, action string, fn func(s *session, src, tgt model.GlobalEntryRef) error) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <source> <target>",
		Short: short,
		Args:  exactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			refs, err := parseRefs(args)
			if err != nil {
				return err
			}
			return opts.run(cmd, func(s *session) error {
				if err := fn(s, refs[0], refs[1]); err != nil {
					return err
				}
				return s.out.Success(ack{Action: action, Subject: refs[0].String() + " -> " + refs[1].String()})
			})
		},
	}
}

func newLinkListCommand(opts *RootOptions, use string, outgoing bool) *cobra.Command {
	var partition string
	var pf pageFlags
	cmd := &cobra.Command{
		Use:   use + " <ref>",
		Short: "List " + use + " links of an entry, newest first",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			refs, err := parseRefs(args)
			if err != nil {
				return err
			}
			var filter *model.PartitionID
			if partition != "" {
				p := model.PartitionID(partition)
				filter = &p
			}
			return opts.run(cmd, func(s *session) error {
				var p model.Page[model.CrossLink]
				var err error
				if outgoing {
					p, err = s.engine.Links.GetOutgoing(s.ctx, refs[0], filter, pf.request())
				} else {
					p, err = s.engine.Links.GetIncoming(s.ctx, refs[0], filter, pf.request())
				}
				if err != nil {
					return err
				}
				return s.out.Success(linkPage(p))
			})
		},
	}
	cmd.Flags().StringVar(&partition, "partition", "", "only links whose other end is in this partition")
	addPageFlags(cmd, &pf)
	return cmd
}
