package cli

import (
	"github.com/spf13/cobra"

	"github.com/fluxsocial/socialdna/internal/model"
)

// statusView is the handshake state with one peer.
type statusView struct {
	Peer   model.Identity         `json:"peer"`
	Status model.FriendshipStatus `json:"status"`
}

func newFriendCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "friend",
		Short: "Friendship handshakes",
		Long: `Request, accept, decline, withdraw and drop friendships.

A request to someone who already asked you accepts theirs.

Examples:
  socialdna --as alice friend request bob
  socialdna --as bob friend request alice
  socialdna --as alice friend list`,
	}

	cmd.AddCommand(peerCommand(opts, "request", "Request friendship, or accept a pending request from the peer",
		func(s *session, peer model.Identity) (any, error) {
			st, err := s.engine.Graph.RequestFriendship(s.ctx, peer)
			return statusView{Peer: peer, Status: st}, err
		}))
	cmd.AddCommand(peerCommand(opts, "decline", "Decline the peer's pending request",
		func(s *session, peer model.Identity) (any, error) {
			return ack{Action: "declined", Subject: string(peer)}, s.engine.Graph.DeclineFriendship(s.ctx, peer)
		}))
	cmd.AddCommand(peerCommand(opts, "withdraw", "Withdraw your pending request to the peer",
		func(s *session, peer model.Identity) (any, error) {
			return ack{Action: "withdrawn", Subject: string(peer)}, s.engine.Graph.WithdrawFriendshipRequest(s.ctx, peer)
		}))
	cmd.AddCommand(peerCommand(opts, "drop", "End a friendship",
		func(s *session, peer model.Identity) (any, error) {
			return ack{Action: "dropped", Subject: string(peer)}, s.engine.Graph.DropFriendship(s.ctx, peer)
		}))
	cmd.AddCommand(peerCommand(opts, "status", "Show the handshake state with the peer",
		func(s *session, peer model.Identity) (any, error) {
			st, err := s.engine.Graph.FriendshipState(s.ctx, peer)
			return statusView{Peer: peer, Status: st}, err
		}))

	cmd.AddCommand(newFriendListCommand(opts))
	cmd.AddCommand(newRequestListCommand(opts, "incoming", true))
	cmd.AddCommand(newRequestListCommand(opts, "outgoing", false))
	return cmd
}

func (v statusView) String() string {
	return string(v.Peer) + " " + string(v.Status)
}

// peerCommand builds a subcommand taking exactly one peer identity.
func peerCommand(opts *RootOptions, use, short string, fn func(s *session, peer model.Identity) (any, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <identity>",
		Short: short,
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, func(s *session) error {
				result, err := fn(s, model.Identity(args[0]))
				if err != nil {
					return err
				}
				return s.out.Success(result)
			})
		},
	}
}

func newFriendListCommand(opts *RootOptions) *cobra.Command {
	var pf pageFlags
	cmd := &cobra.Command{
		Use:   "list [identity]",
		Short: "List friends of an identity (default: the caller)",
		Args:  maxArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, func(s *session) error {
				var p model.IdentityPage
				var err error
				if len(args) == 1 {
					p, err = s.engine.Graph.FriendsOf(s.ctx, model.Identity(args[0]), pf.request())
				} else {
					p, err = s.engine.Graph.MyFriends(s.ctx, pf.request())
				}
				if err != nil {
					return err
				}
				return s.out.Success(identityPage(p))
			})
		},
	}
	addPageFlags(cmd, &pf)
	return cmd
}

func newRequestListCommand(opts *RootOptions, use string, incoming bool) *cobra.Command {
	var pf pageFlags
	cmd := &cobra.Command{
		Use:   use,
		Short: "List pending " + use + " friendship requests",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, func(s *session) error {
				var p model.Page[model.FriendshipRequest]
				var err error
				if incoming {
					p, err = s.engine.Graph.IncomingFriendshipRequests(s.ctx, pf.request())
				} else {
					p, err = s.engine.Graph.OutgoingFriendshipRequests(s.ctx, pf.request())
				}
				if err != nil {
					return err
				}
				return s.out.Success(requestPage(p))
			})
		},
	}
	addPageFlags(cmd, &pf)
	return cmd
}
