package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/fluxsocial/socialdna/internal/errs"
	"github.com/fluxsocial/socialdna/internal/model"
)

// contentFlags select a text or reference payload.
type contentFlags struct {
	text   string
	ref    string
	schema string
	nonce  string
}

func addContentFlags(cmd *cobra.Command, c *contentFlags) {
	cmd.Flags().StringVar(&c.text, "text", "", "inline text body")
	cmd.Flags().StringVar(&c.ref, "ref", "", "content hash resolved outside the engine")
	cmd.Flags().StringVar(&c.schema, "schema", "", "schema id of --ref content")
	cmd.Flags().StringVar(&c.nonce, "nonce", "", "distinguishes intentionally repeated content")
	cmd.MarkFlagsMutuallyExclusive("text", "ref")
}

func (c contentFlags) content() (model.Content, error) {
	var content model.Content
	switch {
	case c.text != "":
		content = model.Text(c.text)
	case c.ref != "":
		content = model.Reference(model.Hash(c.ref), c.schema)
	default:
		return model.Content{}, usageError(errors.New("one of --text or --ref is required"))
	}
	content.Nonce = c.nonce
	return content, nil
}

type receiptView struct {
	Recipient model.Identity  `json:"recipient"`
	Receipt   model.ReceiptID `json:"receipt"`
}

func (r receiptView) String() string {
	return "delivered to " + string(r.Recipient) + ", receipt " + string(r.Receipt)
}

func newExprCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "expr",
		Short: "Authored and private expressions",
		Long: `Create, fetch and list expressions.

Public expressions are written to the local partition and appended to the
author's log. Private expressions are delivered to one recipient.

Examples:
  socialdna --as alice expr create --text "hello"
  socialdna expr get posts-dna/3f2a...
  socialdna --as alice expr send bob --text "hi bob"
  socialdna --as bob expr inbox --from alice`,
	}
	cmd.AddCommand(newExprCreateCommand(opts))
	cmd.AddCommand(newExprGetCommand(opts))
	cmd.AddCommand(newExprByAuthorCommand(opts))
	cmd.AddCommand(newExprSendCommand(opts))
	cmd.AddCommand(newExprInboxCommand(opts))
	return cmd
}

func newExprCreateCommand(opts *RootOptions) *cobra.Command {
	var cf contentFlags
	var linkPartition string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a public expression",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := cf.content()
			if err != nil {
				return err
			}
			var link *model.PartitionID
			if linkPartition != "" {
				p := model.PartitionID(linkPartition)
				link = &p
			}
			return opts.run(cmd, func(s *session) error {
				e, err := s.engine.Expressions.CreatePublic(s.ctx, content, link)
				if err != nil {
					return err
				}
				return s.out.Success(expressionView(e))
			})
		},
	}
	addContentFlags(cmd, &cf)
	cmd.Flags().StringVar(&linkPartition, "link-partition", "", "partition where comments should be linked")
	return cmd
}

func newExprGetCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "get <partition/hash>",
		Short: "Fetch an expression by address",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ref, err := model.ParseRef(args[0])
			if err != nil {
				return usageError(err)
			}
			return opts.run(cmd, func(s *session) error {
				e, err := s.engine.Expressions.GetByAddress(s.ctx, ref)
				if err != nil {
					return err
				}
				if e == nil {
					return errs.Newf(errs.NotFound, "expr.get", "no expression at %s", ref)
				}
				return s.out.Success(expressionView(*e))
			})
		},
	}
}

func newExprByAuthorCommand(opts *RootOptions) *cobra.Command {
	var pf pageFlags
	cmd := &cobra.Command{
		Use:   "by-author <identity>",
		Short: "List an author's public expressions, newest first",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, func(s *session) error {
				p, err := s.engine.Expressions.GetByAuthor(s.ctx, model.Identity(args[0]), pf.request())
				if err != nil {
					return err
				}
				return s.out.Success(expressionPage(p))
			})
		},
	}
	addPageFlags(cmd, &pf)
	return cmd
}

func newExprSendCommand(opts *RootOptions) *cobra.Command {
	var cf contentFlags
	cmd := &cobra.Command{
		Use:   "send <recipient>",
		Short: "Deliver a private expression",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := cf.content()
			if err != nil {
				return err
			}
			to := model.Identity(args[0])
			return opts.run(cmd, func(s *session) error {
				receipt, err := s.engine.Expressions.SendPrivate(s.ctx, to, content)
				if err != nil {
					return err
				}
				return s.out.Success(receiptView{Recipient: to, Receipt: receipt})
			})
		},
	}
	addContentFlags(cmd, &cf)
	return cmd
}

func newExprInboxCommand(opts *RootOptions) *cobra.Command {
	var from string
	var pf pageFlags
	cmd := &cobra.Command{
		Use:   "inbox",
		Short: "List private expressions delivered to the caller",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, func(s *session) error {
				var sender *model.Identity
				if from != "" {
					id := model.Identity(from)
					sender = &id
				}
				p, err := s.engine.Expressions.Inbox(s.ctx, sender, pf.request())
				if err != nil {
					return err
				}
				return s.out.Success(expressionPage(p))
			})
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "only messages from this sender")
	addPageFlags(cmd, &pf)
	return cmd
}
