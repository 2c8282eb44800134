package graph

import (
	"context"
	"testing"

	"go.uber.org/goleak"

	"github.com/fluxsocial/socialdna/internal/agent"
	"github.com/fluxsocial/socialdna/internal/model"
	"github.com/fluxsocial/socialdna/internal/testutil"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newService(t *testing.T, opts ...Option) *Service {
	t.Helper()
	opts = append([]Option{WithClock(testutil.NewDeterministicClock())}, opts...)
	return New(testutil.OpenStore(t), opts...)
}

func as(id model.Identity) context.Context {
	return agent.WithIdentity(context.Background(), id)
}
