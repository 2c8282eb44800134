package harness

import (
	"context"
	"fmt"

	"github.com/fluxsocial/socialdna/internal/collective"
	"github.com/fluxsocial/socialdna/internal/engine"
	"github.com/fluxsocial/socialdna/internal/model"
	"github.com/fluxsocial/socialdna/internal/profile"
)

// defaultPageSize applies when a step does not name a page size.
const defaultPageSize = 100

// call runs a bound operation against an engine.
type call func(ctx context.Context, e *engine.Engine) (any, error)

// binder turns step arguments into a call. Binding errors are scenario
// mistakes, not engine outcomes.
type binder func(a args) (call, error)

var operations = map[string]binder{
	"graph.follow":                       bindEdge(true),
	"graph.unfollow":                     bindEdge(false),
	"graph.followers":                    bindAdjacent(true),
	"graph.following":                    bindAdjacent(false),
	"graph.nth_level_followers":          bindNthLevel(true),
	"graph.nth_level_following":          bindNthLevel(false),
	"graph.request_friendship":           bindRequestFriendship,
	"graph.decline_friendship":           bindPeer(declineFriendship),
	"graph.withdraw_friendship_request":  bindPeer(withdrawFriendshipRequest),
	"graph.drop_friendship":              bindPeer(dropFriendship),
	"graph.friendship_state":             bindFriendshipState,
	"graph.incoming_friendship_requests": bindPending(true),
	"graph.outgoing_friendship_requests": bindPending(false),
	"graph.friends":                      bindFriends,
	"expression.create_public":           bindCreatePublic,
	"expression.get_by_author":           bindGetByAuthor,
	"expression.get_by_address":          bindGetByAddress,
	"expression.send_private":            bindSendPrivate,
	"expression.inbox":                   bindInbox,
	"links.create":                       bindLinkEdge(true),
	"links.remove":                       bindLinkEdge(false),
	"links.outgoing":                     bindLinkList(true),
	"links.incoming":                     bindLinkList(false),
	"collective.post":                    bindPost,
	"collective.read":                    bindRead,
	"collective.register_method":         bindRegisterMethod,
	"collective.methods":                 bindMethods,
	"collective.members":                 bindMembers,
	"collective.join":                    bindMembership(true),
	"collective.leave":                   bindMembership(false),
	"collective.writable":                bindWritable,
	"profile.create":                     bindProfileWrite(true),
	"profile.update":                     bindProfileWrite(false),
	"profile.get":                        bindProfileGet,
	"profile.delete":                     bindProfileDelete,
	"address.exists":                     bindExists,
}

// Operations lists the operation names a scenario may invoke.
func Operations() []string {
	names := make([]string, 0, len(operations))
	for name := range operations {
		names = append(names, name)
	}
	return names
}

func bindEdge(follow bool) binder {
	return func(a args) (call, error) {
		target, err := a.identity("target")
		if err != nil {
			return nil, err
		}
		rel := a.relation()
		return func(ctx context.Context, e *engine.Engine) (any, error) {
			if follow {
				return nil, e.Graph.Follow(ctx, target, rel)
			}
			return nil, e.Graph.Unfollow(ctx, target, rel)
		}, nil
	}
}

func bindAdjacent(followers bool) binder {
	return func(a args) (call, error) {
		req, err := a.page()
		if err != nil {
			return nil, err
		}
		anchor := a.optIdentity("identity")
		rel := a.relation()
		return func(ctx context.Context, e *engine.Engine) (any, error) {
			switch {
			case followers && anchor == nil:
				return e.Graph.MyFollowers(ctx, rel, req)
			case followers:
				return e.Graph.Followers(ctx, *anchor, rel, req)
			case anchor == nil:
				return e.Graph.MyFollowing(ctx, rel, req)
			default:
				return e.Graph.Following(ctx, *anchor, rel, req)
			}
		}, nil
	}
}

func bindNthLevel(followers bool) binder {
	return func(a args) (call, error) {
		n, err := a.integer("n", -1)
		if err != nil {
			return nil, err
		}
		if n < 0 {
			return nil, fmt.Errorf("missing argument %q", "n")
		}
		target, err := a.identity("target")
		if err != nil {
			return nil, err
		}
		rel := a.relation()
		return func(ctx context.Context, e *engine.Engine) (any, error) {
			if followers {
				return e.Graph.NthLevelFollowers(ctx, n, target, rel)
			}
			return e.Graph.NthLevelFollowing(ctx, n, target, rel)
		}, nil
	}
}

func bindRequestFriendship(a args) (call, error) {
	target, err := a.identity("target")
	if err != nil {
		return nil, err
	}
	return func(ctx context.Context, e *engine.Engine) (any, error) {
		status, err := e.Graph.RequestFriendship(ctx, target)
		if err != nil {
			return nil, err
		}
		return map[string]any{"status": status}, nil
	}, nil
}

func bindPeer(fn func(ctx context.Context, e *engine.Engine, peer model.Identity) error) binder {
	return func(a args) (call, error) {
		target, err := a.identity("target")
		if err != nil {
			return nil, err
		}
		return func(ctx context.Context, e *engine.Engine) (any, error) {
			return nil, fn(ctx, e, target)
		}, nil
	}
}

func declineFriendship(ctx context.Context, e *engine.Engine, peer model.Identity) error {
	return e.Graph.DeclineFriendship(ctx, peer)
}

func withdrawFriendshipRequest(ctx context.Context, e *engine.Engine, peer model.Identity) error {
	return e.Graph.WithdrawFriendshipRequest(ctx, peer)
}

func dropFriendship(ctx context.Context, e *engine.Engine, peer model.Identity) error {
	return e.Graph.DropFriendship(ctx, peer)
}

func bindFriendshipState(a args) (call, error) {
	other, err := a.identity("other")
	if err != nil {
		return nil, err
	}
	return func(ctx context.Context, e *engine.Engine) (any, error) {
		status, err := e.Graph.FriendshipState(ctx, other)
		if err != nil {
			return nil, err
		}
		return map[string]any{"status": status}, nil
	}, nil
}

func bindPending(incoming bool) binder {
	return func(a args) (call, error) {
		req, err := a.page()
		if err != nil {
			return nil, err
		}
		return func(ctx context.Context, e *engine.Engine) (any, error) {
			if incoming {
				return e.Graph.IncomingFriendshipRequests(ctx, req)
			}
			return e.Graph.OutgoingFriendshipRequests(ctx, req)
		}, nil
	}
}

func bindFriends(a args) (call, error) {
	req, err := a.page()
	if err != nil {
		return nil, err
	}
	of := a.optIdentity("identity")
	return func(ctx context.Context, e *engine.Engine) (any, error) {
		if of == nil {
			return e.Graph.MyFriends(ctx, req)
		}
		return e.Graph.FriendsOf(ctx, *of, req)
	}, nil
}

func bindCreatePublic(a args) (call, error) {
	content, err := a.content()
	if err != nil {
		return nil, err
	}
	linkPartition := a.optPartition("link_partition")
	return func(ctx context.Context, e *engine.Engine) (any, error) {
		return e.Expressions.CreatePublic(ctx, content, linkPartition)
	}, nil
}

func bindGetByAuthor(a args) (call, error) {
	author, err := a.identity("author")
	if err != nil {
		return nil, err
	}
	req, err := a.page()
	if err != nil {
		return nil, err
	}
	return func(ctx context.Context, e *engine.Engine) (any, error) {
		return e.Expressions.GetByAuthor(ctx, author, req)
	}, nil
}

func bindGetByAddress(a args) (call, error) {
	ref, err := a.ref("ref")
	if err != nil {
		return nil, err
	}
	return func(ctx context.Context, e *engine.Engine) (any, error) {
		return e.Expressions.GetByAddress(ctx, ref)
	}, nil
}

func bindSendPrivate(a args) (call, error) {
	to, err := a.identity("to")
	if err != nil {
		return nil, err
	}
	content, err := a.content()
	if err != nil {
		return nil, err
	}
	return func(ctx context.Context, e *engine.Engine) (any, error) {
		receipt, err := e.Expressions.SendPrivate(ctx, to, content)
		if err != nil {
			return nil, err
		}
		return map[string]any{"receipt": receipt}, nil
	}, nil
}

func bindInbox(a args) (call, error) {
	req, err := a.page()
	if err != nil {
		return nil, err
	}
	from := a.optIdentity("from")
	return func(ctx context.Context, e *engine.Engine) (any, error) {
		return e.Expressions.Inbox(ctx, from, req)
	}, nil
}

func bindLinkEdge(create bool) binder {
	return func(a args) (call, error) {
		source, err := a.ref("source")
		if err != nil {
			return nil, err
		}
		target, err := a.ref("target")
		if err != nil {
			return nil, err
		}
		return func(ctx context.Context, e *engine.Engine) (any, error) {
			if create {
				return nil, e.Links.CreateLink(ctx, source, target)
			}
			return nil, e.Links.RemoveLink(ctx, source, target)
		}, nil
	}
}

func bindLinkList(outgoing bool) binder {
	return func(a args) (call, error) {
		anchor, err := a.ref("ref")
		if err != nil {
			return nil, err
		}
		req, err := a.page()
		if err != nil {
			return nil, err
		}
		filter := a.optPartition("partition")
		return func(ctx context.Context, e *engine.Engine) (any, error) {
			if outgoing {
				return e.Links.GetOutgoing(ctx, anchor, filter, req)
			}
			return e.Links.GetIncoming(ctx, anchor, filter, req)
		}, nil
	}
}

// collectiveCall binds the "collective" argument shared by every
// collective operation.
func collectiveCall(a args, fn func(ctx context.Context, c *collective.Collective) (any, error)) (call, error) {
	id, err := a.str("collective")
	if err != nil {
		return nil, err
	}
	return func(ctx context.Context, e *engine.Engine) (any, error) {
		c, err := e.Collectives.Collective(model.PartitionID(id))
		if err != nil {
			return nil, err
		}
		return fn(ctx, c)
	}, nil
}

func bindPost(a args) (call, error) {
	ref, err := a.ref("ref")
	if err != nil {
		return nil, err
	}
	return collectiveCall(a, func(ctx context.Context, c *collective.Collective) (any, error) {
		return c.Post(ctx, ref)
	})
}

func bindRead(a args) (call, error) {
	req, err := a.page()
	if err != nil {
		return nil, err
	}
	byPartition := a.optPartition("partition")
	byAgent := a.optIdentity("author")
	return collectiveCall(a, func(ctx context.Context, c *collective.Collective) (any, error) {
		return c.ReadCommunications(ctx, byPartition, byAgent, req)
	})
}

func bindRegisterMethod(a args) (call, error) {
	partition, err := a.str("partition")
	if err != nil {
		return nil, err
	}
	return collectiveCall(a, func(ctx context.Context, c *collective.Collective) (any, error) {
		return nil, c.RegisterCommunicationMethod(ctx, model.PartitionID(partition))
	})
}

func bindMethods(a args) (call, error) {
	req, err := a.page()
	if err != nil {
		return nil, err
	}
	return collectiveCall(a, func(ctx context.Context, c *collective.Collective) (any, error) {
		return c.CommunicationMethods(ctx, req)
	})
}

func bindMembers(a args) (call, error) {
	req, err := a.page()
	if err != nil {
		return nil, err
	}
	return collectiveCall(a, func(ctx context.Context, c *collective.Collective) (any, error) {
		members, enumerated, err := c.Members(ctx, req)
		if err != nil {
			return nil, err
		}
		return map[string]any{"members": members, "enumerated": enumerated}, nil
	})
}

func bindMembership(join bool) binder {
	return func(a args) (call, error) {
		return collectiveCall(a, func(ctx context.Context, c *collective.Collective) (any, error) {
			if join {
				return nil, c.Join(ctx)
			}
			return nil, c.Leave(ctx)
		})
	}
}

func bindWritable(a args) (call, error) {
	return collectiveCall(a, func(ctx context.Context, c *collective.Collective) (any, error) {
		ok, err := c.Writable(ctx)
		if err != nil {
			return nil, err
		}
		return map[string]any{"writable": ok}, nil
	})
}

func bindProfileWrite(create bool) binder {
	return func(a args) (call, error) {
		name, err := a.str("display_name")
		if err != nil {
			return nil, err
		}
		f := profile.Fields{DisplayName: name, Summary: a.optStr("summary")}
		if _, ok := a["avatar"]; ok {
			avatar, err := a.ref("avatar")
			if err != nil {
				return nil, err
			}
			f.Avatar = &avatar
		}
		return func(ctx context.Context, e *engine.Engine) (any, error) {
			if create {
				return e.Profiles.Create(ctx, f)
			}
			return e.Profiles.Update(ctx, f)
		}, nil
	}
}

func bindProfileGet(a args) (call, error) {
	id, err := a.identity("identity")
	if err != nil {
		return nil, err
	}
	return func(ctx context.Context, e *engine.Engine) (any, error) {
		return e.Profiles.Get(ctx, id)
	}, nil
}

func bindProfileDelete(args) (call, error) {
	return func(ctx context.Context, e *engine.Engine) (any, error) {
		return nil, e.Profiles.Delete(ctx)
	}, nil
}

func bindExists(a args) (call, error) {
	ref, err := a.ref("ref")
	if err != nil {
		return nil, err
	}
	return func(ctx context.Context, e *engine.Engine) (any, error) {
		ok, err := e.Addresses.Exists(ctx, ref)
		if err != nil {
			return nil, err
		}
		return map[string]any{"exists": ok}, nil
	}, nil
}
