// Package agent threads the calling identity through context.Context.
//
// The host sets the identity once per invocation; engine operations read it
// here and never accept it as a parameter, so a caller cannot write on
// behalf of someone else.
package agent

import (
	"context"

	"github.com/fluxsocial/socialdna/internal/errs"
	"github.com/fluxsocial/socialdna/internal/model"
)

type contextKey struct{}

// WithIdentity returns a context carrying id as the calling agent.
func WithIdentity(ctx context.Context, id model.Identity) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// FromContext returns the calling identity and whether one is set.
func FromContext(ctx context.Context) (model.Identity, bool) {
	id, ok := ctx.Value(contextKey{}).(model.Identity)
	return id, ok && id != ""
}

// Require returns the calling identity, or Forbidden when the context has none.
func Require(ctx context.Context, op string) (model.Identity, error) {
	id, ok := FromContext(ctx)
	if !ok {
		return "", errs.New(errs.Forbidden, op, "no calling identity in context")
	}
	return id, nil
}
