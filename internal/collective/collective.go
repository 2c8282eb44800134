package collective

import (
	"context"

	"go.uber.org/zap"

	"github.com/fluxsocial/socialdna/internal/agent"
	"github.com/fluxsocial/socialdna/internal/errs"
	"github.com/fluxsocial/socialdna/internal/model"
	"github.com/fluxsocial/socialdna/internal/page"
	"github.com/fluxsocial/socialdna/internal/store"
)

// Collective is a handle on one collective's log, methods and members.
type Collective struct {
	id       model.PartitionID
	settings Settings
	reg      *Registry
}

// ID returns the collective's partition id.
func (c *Collective) ID() model.PartitionID {
	return c.id
}

// Enumerable reports whether Members lists this collective's members.
func (c *Collective) Enumerable() bool {
	return c.settings.EnumerateMembers
}

// Writable reports whether the caller may post. A caller without an
// identity is never writable.
func (c *Collective) Writable(ctx context.Context) (bool, error) {
	caller, ok := agent.FromContext(ctx)
	if !ok {
		return false, nil
	}
	writable, err := c.settings.Policy.Writable(ctx, storeMembership{c}, caller)
	if err != nil {
		return false, errs.Wrap(errs.StorageUnavailable, "collective.writable", err)
	}
	return writable, nil
}

// Post appends ref to the collective's log as the caller. Posting the
// same ref again returns the original post.
func (c *Collective) Post(ctx context.Context, ref model.GlobalEntryRef) (_ model.Post, err error) {
	const op = "collective.post"
	defer func() { c.reg.metrics.Observe(component, "post", err) }()

	caller, err := agent.Require(ctx, op)
	if err != nil {
		return model.Post{}, err
	}
	if err := model.ValidateRef(op, ref); err != nil {
		return model.Post{}, err
	}
	hash, err := model.PostHash(c.id, ref, caller)
	if err != nil {
		return model.Post{}, errs.Wrap(errs.InvalidArgument, op, err)
	}
	post := model.Post{
		Hash:       hash,
		Collective: c.id,
		Ref:        ref,
		Author:     caller,
	}
	err = c.reg.store.WithTx(ctx, op, func(tx *store.Tx) error {
		writable, err := c.settings.Policy.Writable(ctx, txMembership{tx: tx, id: c.id}, caller)
		if err != nil {
			return err
		}
		if !writable {
			return errs.Newf(errs.Forbidden, op,
				"collective %s is not writable under policy %s", c.id, c.settings.Policy.Name())
		}
		post.CreatedAt = c.reg.clock.Now()
		post, err = tx.InsertPost(post)
		return err
	})
	if err != nil {
		return model.Post{}, errs.Wrap(errs.StorageUnavailable, op, err)
	}
	c.reg.logger.Debug("post",
		zap.String("collective", string(c.id)),
		zap.String("ref", ref.String()),
		zap.String("author", string(caller)))
	return post, nil
}

// ReadCommunications returns one page of the log, newest first. Non-nil
// filters restrict the referenced partition and the author; both combine
// with AND.
func (c *Collective) ReadCommunications(ctx context.Context, byPartition *model.PartitionID, byAgent *model.Identity, req page.Request) (_ model.Page[model.Post], err error) {
	const op = "collective.read_communications"
	defer func() { c.reg.metrics.Observe(component, "read_communications", err) }()

	if err := req.Validate(op, c.reg.maxPage); err != nil {
		return model.Page[model.Post]{}, err
	}
	q := store.PostQuery{Collective: c.id, Limit: req.Limit(), Offset: req.Offset()}
	if byPartition != nil {
		if err := model.ValidatePartition(op, *byPartition); err != nil {
			return model.Page[model.Post]{}, err
		}
		q.Partition = *byPartition
	}
	if byAgent != nil {
		if err := model.ValidateIdentity(op, *byAgent); err != nil {
			return model.Page[model.Post]{}, err
		}
		q.Author = *byAgent
	}
	posts, err := c.reg.store.Posts(ctx, q)
	if err != nil {
		return model.Page[model.Post]{}, errs.Wrap(errs.StorageUnavailable, op, err)
	}
	return page.Of(posts, req), nil
}

// RegisterCommunicationMethod records that the collective also
// communicates in partition. Registering twice is a no-op.
func (c *Collective) RegisterCommunicationMethod(ctx context.Context, partition model.PartitionID) (err error) {
	const op = "collective.register_communication_method"
	defer func() { c.reg.metrics.Observe(component, "register_communication_method", err) }()

	caller, err := agent.Require(ctx, op)
	if err != nil {
		return err
	}
	if err := model.ValidatePartition(op, partition); err != nil {
		return err
	}
	inserted, err := c.reg.store.InsertMethod(ctx, model.CommunicationMethod{
		Collective:   c.id,
		Partition:    partition,
		RegisteredBy: caller,
		CreatedAt:    c.reg.clock.Now(),
	})
	if err != nil {
		return errs.Wrap(errs.StorageUnavailable, op, err)
	}
	c.reg.logger.Debug("communication method",
		zap.String("collective", string(c.id)),
		zap.String("partition", string(partition)),
		zap.Bool("inserted", inserted))
	return nil
}

// CommunicationMethods lists registered partitions ordered by partition id.
func (c *Collective) CommunicationMethods(ctx context.Context, req page.Request) (_ model.Page[model.CommunicationMethod], err error) {
	const op = "collective.communication_methods"
	defer func() { c.reg.metrics.Observe(component, "communication_methods", err) }()

	if err := req.Validate(op, c.reg.maxPage); err != nil {
		return model.Page[model.CommunicationMethod]{}, err
	}
	methods, err := c.reg.store.Methods(ctx, c.id, req.Limit(), req.Offset())
	if err != nil {
		return model.Page[model.CommunicationMethod]{}, errs.Wrap(errs.StorageUnavailable, op, err)
	}
	return page.Of(methods, req), nil
}

// Members lists one page of members ordered by identity. enumerated is
// false, with an empty page, when the collective opts out of listing.
func (c *Collective) Members(ctx context.Context, req page.Request) (_ model.IdentityPage, enumerated bool, err error) {
	const op = "collective.members"
	defer func() { c.reg.metrics.Observe(component, "members", err) }()

	if err := req.Validate(op, c.reg.maxPage); err != nil {
		return model.IdentityPage{}, false, err
	}
	if !c.settings.EnumerateMembers {
		return page.Of[model.Identity](nil, req), false, nil
	}
	ids, err := c.reg.store.Members(ctx, c.id, req.Limit(), req.Offset())
	if err != nil {
		return model.IdentityPage{}, false, errs.Wrap(errs.StorageUnavailable, op, err)
	}
	return page.Of(ids, req), true, nil
}

// Join adds the caller to the membership set. Joining twice is a no-op.
func (c *Collective) Join(ctx context.Context) (err error) {
	const op = "collective.join"
	defer func() { c.reg.metrics.Observe(component, "join", err) }()

	caller, err := agent.Require(ctx, op)
	if err != nil {
		return err
	}
	if _, err := c.reg.store.InsertMember(ctx, c.id, caller, c.reg.clock.Now()); err != nil {
		return errs.Wrap(errs.StorageUnavailable, op, err)
	}
	c.reg.logger.Debug("join", zap.String("collective", string(c.id)), zap.String("member", string(caller)))
	return nil
}

// Leave removes the caller from the membership set. Leaving when not a
// member is a no-op.
func (c *Collective) Leave(ctx context.Context) (err error) {
	const op = "collective.leave"
	defer func() { c.reg.metrics.Observe(component, "leave", err) }()

	caller, err := agent.Require(ctx, op)
	if err != nil {
		return err
	}
	if _, err := c.reg.store.DeleteMember(ctx, c.id, caller); err != nil {
		return errs.Wrap(errs.StorageUnavailable, op, err)
	}
	c.reg.logger.Debug("leave", zap.String("collective", string(c.id)), zap.String("member", string(caller)))
	return nil
}
