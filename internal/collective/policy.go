package collective

import (
	"context"
	"fmt"

	"github.com/fluxsocial/socialdna/internal/model"
	"github.com/fluxsocial/socialdna/internal/store"
)

// Membership answers membership questions for one collective.
type Membership interface {
	IsMember(ctx context.Context, id model.Identity) (bool, error)
}

// WritePolicy decides whether caller may post to a collective. During
// Post, members reads inside the post's transaction.
type WritePolicy interface {
	Writable(ctx context.Context, members Membership, caller model.Identity) (bool, error)
	Name() string
}

// Open lets any identified caller post.
type Open struct{}

func (Open) Writable(context.Context, Membership, model.Identity) (bool, error) { return true, nil }
func (Open) Name() string                                                     { return "open" }

// MembersOnly lets only current members post.
type MembersOnly struct{}

func (MembersOnly) Writable(ctx context.Context, members Membership, caller model.Identity) (bool, error) {
	return members.IsMember(ctx, caller)
}
func (MembersOnly) Name() string { return "members_only" }

type storeMembership struct{ c *Collective }

func (m storeMembership) IsMember(ctx context.Context, id model.Identity) (bool, error) {
	return m.c.reg.store.IsMember(ctx, m.c.id, id)
}

type txMembership struct {
	tx *store.Tx
	id model.PartitionID
}

func (m txMembership) IsMember(_ context.Context, id model.Identity) (bool, error) {
	return m.tx.IsMember(m.id, id)
}

// ParseWritePolicy maps a config name to a policy. Empty means open.
func ParseWritePolicy(name string) (WritePolicy, error) {
	switch name {
	case "", "open":
		return Open{}, nil
	case "members_only":
		return MembersOnly{}, nil
	}
	return nil, fmt.Errorf("unknown write policy %q", name)
}
