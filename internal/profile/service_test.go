package profile

import (
	"context"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fluxsocial/socialdna/internal/agent"
	"github.com/fluxsocial/socialdna/internal/errs"
	"github.com/fluxsocial/socialdna/internal/model"
	"github.com/fluxsocial/socialdna/internal/testutil"
)

func newService(t *testing.T) *Service {
	t.Helper()
	return New(testutil.OpenStore(t), WithClock(testutil.NewDeterministicClock()))
}

func as(id model.Identity) context.Context {
	return agent.WithIdentity(context.Background(), id)
}

func TestCreate_ThenGet(t *testing.T) {
	svc := newService(t)
	avatar := model.Ref("media-dna", "img-1")

	created, err := svc.Create(as("alice"), Fields{DisplayName: "Alice", Summary: "hi", Avatar: &avatar})
	require.NoError(t, err)
	assert.EqualValues(t, "alice", created.Identity)
	assert.Equal(t, testutil.DefaultStart, created.UpdatedAt)

	got, err := svc.Get(context.Background(), "alice")
	require.NoError(t, err)
	require.NotNil(t, got)
	if diff := cmp.Diff(created, *got); diff != "" {
		t.Errorf("stored profile mismatch (-want +got):\n%s", diff)
	}
}

func TestCreate_ExistingIsNoop(t *testing.T) {
	svc := newService(t)
	first, err := svc.Create(as("alice"), Fields{DisplayName: "Alice"})
	require.NoError(t, err)

	again, err := svc.Create(as("alice"), Fields{DisplayName: "Someone Else"})
	require.NoError(t, err)
	assert.Equal(t, first, again)
}

func TestGet_Missing(t *testing.T) {
	got, err := newService(t).Get(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestUpdate(t *testing.T) {
	svc := newService(t)
	_, err := svc.Update(as("alice"), Fields{DisplayName: "Alice"})
	assert.True(t, errs.IsNotFound(err), "got %v", err)

	avatar := model.Ref("media-dna", "img-1")
	_, err = svc.Create(as("alice"), Fields{DisplayName: "Alice", Avatar: &avatar})
	require.NoError(t, err)
	updated, err := svc.Update(as("alice"), Fields{DisplayName: "Alice B.", Summary: "moved"})
	require.NoError(t, err)

	got, err := svc.Get(context.Background(), "alice")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, updated, *got)
	assert.Nil(t, got.Avatar, "update replaces the whole profile")
}

func TestDelete_Idempotent(t *testing.T) {
	svc := newService(t)
	_, err := svc.Create(as("alice"), Fields{DisplayName: "Alice"})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(as("alice")))
	require.NoError(t, svc.Delete(as("alice")))

	got, err := svc.Get(context.Background(), "alice")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestWrites_OnlyOwnProfile(t *testing.T) {
	svc := newService(t)
	_, err := svc.Create(as("alice"), Fields{DisplayName: "Alice"})
	require.NoError(t, err)

	// bob's delete targets bob's own (absent) profile.
	require.NoError(t, svc.Delete(as("bob")))
	got, err := svc.Get(context.Background(), "alice")
	require.NoError(t, err)
	assert.NotNil(t, got)
}

func TestValidation(t *testing.T) {
	svc := newService(t)
	bad := model.Ref("", "img-1")
	tests := []struct {
		name   string
		ctx    context.Context
		fields Fields
		check  func(error) bool
	}{
		{"anonymous", context.Background(), Fields{DisplayName: "x"}, errs.IsForbidden},
		{"missing name", as("alice"), Fields{}, errs.IsInvalidArgument},
		{"long name", as("alice"), Fields{DisplayName: strings.Repeat("a", 129)}, errs.IsInvalidArgument},
		{"long summary", as("alice"), Fields{DisplayName: "a", Summary: strings.Repeat("s", 2049)}, errs.IsInvalidArgument},
		{"bad avatar", as("alice"), Fields{DisplayName: "a", Avatar: &bad}, errs.IsInvalidArgument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(tt.ctx, tt.fields)
			assert.True(t, tt.check(err), "got %v", err)
		})
	}

	_, err := svc.Get(context.Background(), "")
	assert.True(t, errs.IsInvalidArgument(err))
	assert.True(t, errs.IsForbidden(svc.Delete(context.Background())))
}
