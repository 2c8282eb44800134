package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/fluxsocial/socialdna/internal/model"
)

func newFollowCommand(opts *RootOptions) *cobra.Command {
	var relation string
	cmd := &cobra.Command{
		Use:   "follow <identity>",
		Short: "Follow an identity",
		Long: `Follow an identity, optionally under a named relation.

Examples:
  socialdna --as alice follow bob
  socialdna --as alice follow bob --relation colleague`,
		Args: exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, func(s *session) error {
				if err := s.engine.Graph.Follow(s.ctx, model.Identity(args[0]), model.ParseRelation(relation)); err != nil {
					return err
				}
				return s.out.Success(ack{Action: "following", Subject: args[0]})
			})
		},
	}
	cmd.Flags().StringVar(&relation, "relation", "", "relation label (default: none)")
	return cmd
}

func newUnfollowCommand(opts *RootOptions) *cobra.Command {
	var relation string
	cmd := &cobra.Command{
		Use:   "unfollow <identity>",
		Short: "Stop following an identity",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, func(s *session) error {
				if err := s.engine.Graph.Unfollow(s.ctx, model.Identity(args[0]), model.ParseRelation(relation)); err != nil {
					return err
				}
				return s.out.Success(ack{Action: "unfollowed", Subject: args[0]})
			})
		},
	}
	cmd.Flags().StringVar(&relation, "relation", "", "relation label (default: none)")
	return cmd
}

func newFollowersCommand(opts *RootOptions) *cobra.Command {
	var relation string
	var pf pageFlags
	cmd := &cobra.Command{
		Use:   "followers [identity]",
		Short: "List followers of an identity (default: the caller)",
		Args:  maxArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, func(s *session) error {
				rel := model.ParseRelation(relation)
				var p model.IdentityPage
				var err error
				if len(args) == 1 {
					p, err = s.engine.Graph.Followers(s.ctx, model.Identity(args[0]), rel, pf.request())
				} else {
					p, err = s.engine.Graph.MyFollowers(s.ctx, rel, pf.request())
				}
				if err != nil {
					return err
				}
				return s.out.Success(identityPage(p))
			})
		},
	}
	cmd.Flags().StringVar(&relation, "relation", "", "relation label (default: none)")
	addPageFlags(cmd, &pf)
	return cmd
}

func newFollowingCommand(opts *RootOptions) *cobra.Command {
	var relation string
	var pf pageFlags
	cmd := &cobra.Command{
		Use:   "following [identity]",
		Short: "List identities an identity follows (default: the caller)",
		Args:  maxArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, func(s *session) error {
				rel := model.ParseRelation(relation)
				var p model.IdentityPage
				var err error
				if len(args) == 1 {
					p, err = s.engine.Graph.Following(s.ctx, model.Identity(args[0]), rel, pf.request())
				} else {
					p, err = s.engine.Graph.MyFollowing(s.ctx, rel, pf.request())
				}
				if err != nil {
					return err
				}
				return s.out.Success(identityPage(p))
			})
		},
	}
	cmd.Flags().StringVar(&relation, "relation", "", "relation label (default: none)")
	addPageFlags(cmd, &pf)
	return cmd
}

func newTraverseCommand(opts *RootOptions) *cobra.Command {
	var relation, direction string
	cmd := &cobra.Command{
		Use:   "traverse <n> <identity>",
		Short: "List identities exactly n follow hops away",
		Long: `List the identities first reached at depth n when walking follow edges
from identity. Depth 0 is the identity itself.

Examples:
  socialdna traverse 2 alice
  socialdna traverse 3 alice --direction followers --relation colleague`,
		Args: exactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := strconv.Atoi(args[0])
			if err != nil {
				return usageError(fmt.Errorf("depth %q is not an integer", args[0]))
			}
			if direction != "following" && direction != "followers" {
				return usageError(fmt.Errorf("invalid direction %q: must be following or followers", direction))
			}
			return opts.run(cmd, func(s *session) error {
				rel := model.ParseRelation(relation)
				target := model.Identity(args[1])
				var ids []model.Identity
				var err error
				if direction == "followers" {
					ids, err = s.engine.Graph.NthLevelFollowers(s.ctx, n, target, rel)
				} else {
					ids, err = s.engine.Graph.NthLevelFollowing(s.ctx, n, target, rel)
				}
				if err != nil {
					return err
				}
				return s.out.Success(identityList(ids))
			})
		},
	}
	cmd.Flags().StringVar(&relation, "relation", "", "relation label (default: none)")
	cmd.Flags().StringVar(&direction, "direction", "following", "edge direction (following|followers)")
	return cmd
}
