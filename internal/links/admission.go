package links

import (
	"context"
	"fmt"
	"time"

	"github.com/fluxsocial/socialdna/internal/errs"
	"github.com/fluxsocial/socialdna/internal/model"
)

// Request is what an admission policy sees for one new link.
type Request struct {
	Caller model.Identity
	Link   model.CrossLink
	Now    model.Timestamp

	// Recent counts links the caller created at or after since, removed
	// ones included, read in the same transaction as the insert.
	Recent func(since model.Timestamp) (int, error)
}

// Policy decides whether a link may be created. It returns nil to admit,
// a *Denial to reject, or any other error when it could not decide.
type Policy interface {
	Admit(ctx context.Context, r Request) error
}

// Denial is a policy rejection.
type Denial struct {
	Code    errs.Code
	Reason  string
	Message string
}

func (d *Denial) Error() string {
	return fmt.Sprintf("%s: %s", d.Reason, d.Message)
}

// AllowAll admits every link.
type AllowAll struct{}

func (AllowAll) Admit(context.Context, Request) error { return nil }

// AdmitFunc adapts a boolean predicate. A false result is Forbidden.
type AdmitFunc func(caller model.Identity, source, target model.GlobalEntryRef) bool

func (f AdmitFunc) Admit(_ context.Context, r Request) error {
	if f(r.Caller, r.Link.Source, r.Link.Target) {
		return nil
	}
	return &Denial{Code: errs.Forbidden, Reason: "predicate", Message: "link rejected by admission predicate"}
}

// Quota limits each identity to Limit new links per sliding Window,
// counted over logged creations, so removing a link does not free its
// slot. A non-positive Limit disables it.
type Quota struct {
	Limit  int
	Window time.Duration
}

func (q Quota) Admit(_ context.Context, r Request) error {
	if q.Limit <= 0 || q.Window <= 0 {
		return nil
	}
	since := r.Now - model.Timestamp(q.Window.Milliseconds())
	n, err := r.Recent(since)
	if err != nil {
		return err
	}
	if n >= q.Limit {
		return &Denial{
			Code:    errs.RateLimited,
			Reason:  "quota",
			Message: fmt.Sprintf("%d links in the last %s (limit %d)", n, q.Window, q.Limit),
		}
	}
	return nil
}

// TrustedSources admits links only from the listed source partitions.
// An empty set admits nothing.
type TrustedSources map[model.PartitionID]struct{}

// Trust builds a TrustedSources set.
func Trust(partitions ...model.PartitionID) TrustedSources {
	t := make(TrustedSources, len(partitions))
	for _, p := range partitions {
		t[p] = struct{}{}
	}
	return t
}

func (t TrustedSources) Admit(_ context.Context, r Request) error {
	if _, ok := t[r.Link.Source.Partition]; ok {
		return nil
	}
	return &Denial{
		Code:    errs.Forbidden,
		Reason:  "untrusted_source",
		Message: fmt.Sprintf("source partition %q is not trusted", r.Link.Source.Partition),
	}
}

// Chain admits a link only if every policy admits it, checked in order.
type Chain []Policy

func (c Chain) Admit(ctx context.Context, r Request) error {
	for _, p := range c {
		if err := p.Admit(ctx, r); err != nil {
			return err
		}
	}
	return nil
}
