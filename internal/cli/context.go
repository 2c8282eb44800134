package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/fluxsocial/socialdna/internal/collective"
	"github.com/fluxsocial/socialdna/internal/model"
)

type membersView struct {
	Collective model.PartitionID  `json:"collective"`
	Enumerated bool               `json:"enumerated"`
	Members    model.IdentityPage `json:"members"`
}

func (m membersView) RenderText(w io.Writer) {
	if !m.Enumerated {
		fmt.Fprintf(w, "%s does not list its members\n", m.Collective)
		return
	}
	identityPage(m.Members).RenderText(w)
}

type writableView struct {
	Collective model.PartitionID `json:"collective"`
	Writable   bool              `json:"writable"`
}

func (v writableView) String() string {
	if v.Writable {
		return "writable"
	}
	return "not writable"
}

func newContextCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "context",
		Short: "Collective communication logs, methods and members",
		Long: `Post to and read a collective's communication log, register the
partitions it communicates in, and manage membership.

Collectives are configured under "collectives" in the config file. An
unconfigured collective is open to everyone and lists its members.

Examples:
  socialdna --as alice context post town-square posts-dna/3f2a...
  socialdna context read town-square --author alice
  socialdna --as alice context join council`,
	}
	cmd.AddCommand(newContextListCommand(opts))
	cmd.AddCommand(newContextPostCommand(opts))
	cmd.AddCommand(newContextReadCommand(opts))
	cmd.AddCommand(newContextRegisterCommand(opts))
	cmd.AddCommand(newContextMethodsCommand(opts))
	cmd.AddCommand(newContextMembersCommand(opts))
	cmd.AddCommand(collectiveCommand(opts, "join", "Join a collective", func(s *session, c *collective.Collective) (any, error) {
		return ack{Action: "joined", Subject: string(c.ID())}, c.Join(s.ctx)
	}))
	cmd.AddCommand(collectiveCommand(opts, "leave", "Leave a collective", func(s *session, c *collective.Collective) (any, error) {
		return ack{Action: "left", Subject: string(c.ID())}, c.Leave(s.ctx)
	}))
	cmd.AddCommand(collectiveCommand(opts, "writable", "Report whether the caller may post", func(s *session, c *collective.Collective) (any, error) {
		ok, err := c.Writable(s.ctx)
		return writableView{Collective: c.ID(), Writable: ok}, err
	}))
	return cmd
}

// withCollective resolves the collective named by id and runs fn.
func withCollective(s *session, id string, fn func(c *collective.Collective) error) error {
	c, err := s.engine.Collectives.Collective(model.PartitionID(id))
	if err != nil {
		return err
	}
	return fn(c)
}

func collectiveCommand(opts *RootOptions, use, short string, fn func(s *session, c *collective.Collective) (any, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <collective>",
		Short: short,
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, func(s *session) error {
				return withCollective(s, args[0], func(c *collective.Collective) error {
					result, err := fn(s, c)
					if err != nil {
						return err
					}
					return s.out.Success(result)
				})
			})
		},
	}
}

func newContextPostCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "post <collective> <ref>",
		Short: "Append a reference to a collective's log",
		Args:  exactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			refs, err := parseRefs(args[1:])
			if err != nil {
				return err
			}
			return opts.run(cmd, func(s *session) error {
				return withCollective(s, args[0], func(c *collective.Collective) error {
					post, err := c.Post(s.ctx, refs[0])
					if err != nil {
						return err
					}
					return s.out.Success(postPage{Items: []model.Post{post}, Size: 1})
				})
			})
		},
	}
}

func newContextReadCommand(opts *RootOptions) *cobra.Command {
	var partition, author string
	var pf pageFlags
	cmd := &cobra.Command{
		Use:   "read <collective>",
		Short: "Read a collective's log, newest first",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var byPartition *model.PartitionID
			if partition != "" {
				p := model.PartitionID(partition)
				byPartition = &p
			}
			var byAgent *model.Identity
			if author != "" {
				a := model.Identity(author)
				byAgent = &a
			}
			return opts.run(cmd, func(s *session) error {
				return withCollective(s, args[0], func(c *collective.Collective) error {
					p, err := c.ReadCommunications(s.ctx, byPartition, byAgent, pf.request())
					if err != nil {
						return err
					}
					return s.out.Success(postPage(p))
				})
			})
		},
	}
	cmd.Flags().StringVar(&partition, "partition", "", "only posts referencing this partition")
	cmd.Flags().StringVar(&author, "author", "", "only posts by this identity")
	addPageFlags(cmd, &pf)
	return cmd
}

func newContextRegisterCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "register <collective> <partition>",
		Short: "Register a partition the collective communicates in",
		Args:  exactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, func(s *session) error {
				return withCollective(s, args[0], func(c *collective.Collective) error {
					if err := c.RegisterCommunicationMethod(s.ctx, model.PartitionID(args[1])); err != nil {
						return err
					}
					return s.out.Success(ack{Action: "registered", Subject: args[1]})
				})
			})
		},
	}
}

func newContextListCommand(opts *RootOptions) *cobra.Command {
	var pf pageFlags
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List collectives configured in the config file",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, func(s *session) error {
				p, err := s.engine.Collectives.Configured(pf.request())
				if err != nil {
					return err
				}
				return s.out.Success(partitionPage(p))
			})
		},
	}
	addPageFlags(cmd, &pf)
	return cmd
}

func newContextMethodsCommand(opts *RootOptions) *cobra.Command {
	var pf pageFlags
	cmd := &cobra.Command{
		Use:   "methods <collective>",
		Short: "List registered communication partitions",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, func(s *session) error {
				return withCollective(s, args[0], func(c *collective.Collective) error {
					p, err := c.CommunicationMethods(s.ctx, pf.request())
					if err != nil {
						return err
					}
					return s.out.Success(methodPage(p))
				})
			})
		},
	}
	addPageFlags(cmd, &pf)
	return cmd
}

func newContextMembersCommand(opts *RootOptions) *cobra.Command {
	var pf pageFlags
	cmd := &cobra.Command{
		Use:   "members <collective>",
		Short: "List members, if the collective allows it",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, func(s *session) error {
				return withCollective(s, args[0], func(c *collective.Collective) error {
					p, enumerated, err := c.Members(s.ctx, pf.request())
					if err != nil {
						return err
					}
					return s.out.Success(membersView{Collective: c.ID(), Enumerated: enumerated, Members: p})
				})
			})
		},
	}
	addPageFlags(cmd, &pf)
	return cmd
}
