package links

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fluxsocial/socialdna/internal/errs"
	"github.com/fluxsocial/socialdna/internal/model"
)

func request(source model.PartitionID, recent int) Request {
	return Request{
		Caller: "alice",
		Link:   model.CrossLink{Source: model.Ref(source, "h"), Target: model.Ref("t", "h")},
		Now:    10_000,
		Recent: func(model.Timestamp) (int, error) { return recent, nil },
	}
}

func denialOf(t *testing.T, err error) *Denial {
	t.Helper()
	var d *Denial
	require.True(t, errors.As(err, &d), "expected a Denial, got %v", err)
	return d
}

func TestQuota(t *testing.T) {
	ctx := context.Background()
	q := Quota{Limit: 3, Window: time.Second}

	assert.NoError(t, q.Admit(ctx, request("p", 2)))

	d := denialOf(t, q.Admit(ctx, request("p", 3)))
	assert.Equal(t, errs.RateLimited, d.Code)
	assert.Equal(t, "quota", d.Reason)

	var since model.Timestamp
	r := request("p", 0)
	r.Recent = func(s model.Timestamp) (int, error) { since = s; return 0, nil }
	require.NoError(t, q.Admit(ctx, r))
	assert.Equal(t, model.Timestamp(9_000), since)

	assert.NoError(t, Quota{}.Admit(ctx, request("p", 1_000)), "zero quota is disabled")
}

func TestQuota_CountFailure(t *testing.T) {
	boom := errors.New("locked")
	r := request("p", 0)
	r.Recent = func(model.Timestamp) (int, error) { return 0, boom }

	err := Quota{Limit: 1, Window: time.Second}.Admit(context.Background(), r)
	assert.ErrorIs(t, err, boom)
}

func TestTrustedSources(t *testing.T) {
	ctx := context.Background()
	trusted := Trust("home", "friends")

	assert.NoError(t, trusted.Admit(ctx, request("home", 0)))
	d := denialOf(t, trusted.Admit(ctx, request("elsewhere", 0)))
	assert.Equal(t, errs.Forbidden, d.Code)
	assert.Equal(t, "untrusted_source", d.Reason)

	assert.Error(t, Trust().Admit(ctx, request("home", 0)))
}

func TestChain_FirstDenialWins(t *testing.T) {
	ctx := context.Background()
	chain := Chain{
		AllowAll{},
		Trust("home"),
		Quota{Limit: 1, Window: time.Second},
	}

	assert.NoError(t, chain.Admit(ctx, request("home", 0)))
	assert.Equal(t, "untrusted_source", denialOf(t, chain.Admit(ctx, request("away", 5))).Reason)
	assert.Equal(t, "quota", denialOf(t, chain.Admit(ctx, request("home", 5))).Reason)
	assert.NoError(t, Chain{}.Admit(ctx, request("any", 0)))
}

func TestAdmitFunc(t *testing.T) {
	onlyAlice := AdmitFunc(func(caller model.Identity, _, _ model.GlobalEntryRef) bool {
		return caller == "alice"
	})
	assert.NoError(t, onlyAlice.Admit(context.Background(), request("p", 0)))

	r := request("p", 0)
	r.Caller = "bob"
	d := denialOf(t, onlyAlice.Admit(context.Background(), r))
	assert.Equal(t, errs.Forbidden, d.Code)
	assert.Equal(t, "predicate: link rejected by admission predicate", d.Error())
}
