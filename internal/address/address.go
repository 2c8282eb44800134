// Package address resolves global entry references against the store.
package address

import (
	"context"

	"github.com/fluxsocial/socialdna/internal/model"
	"github.com/fluxsocial/socialdna/internal/store"
)

// Getter is the slice of the storage boundary a Resolver needs.
type Getter interface {
	Get(ctx context.Context, partition model.PartitionID, hash model.Hash) (*store.Entry, error)
}

// Resolver looks up entries by GlobalEntryRef. It has no side effects.
type Resolver struct {
	store Getter
}

// NewResolver creates a Resolver over s.
func NewResolver(s Getter) *Resolver {
	return &Resolver{store: s}
}

// Resolve returns the entry at ref, or nil if nothing is stored there.
// A malformed ref is InvalidArgument; storage failures propagate unchanged.
func (r *Resolver) Resolve(ctx context.Context, ref model.GlobalEntryRef) (*store.Entry, error) {
	if err := model.ValidateRef("address.resolve", ref); err != nil {
		return nil, err
	}
	return r.store.Get(ctx, ref.Partition, ref.Entry)
}

// Exists reports whether ref resolves to a stored entry.
func (r *Resolver) Exists(ctx context.Context, ref model.GlobalEntryRef) (bool, error) {
	e, err := r.Resolve(ctx, ref)
	if err != nil {
		return false, err
	}
	return e != nil, nil
}
