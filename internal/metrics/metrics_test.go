package metrics

import (
	"bytes"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fluxsocial/socialdna/internal/errs"
)

func TestOutcome(t *testing.T) {
	assert.Equal(t, "ok", Outcome(nil))
	assert.Equal(t, "rate_limited", Outcome(errs.New(errs.RateLimited, "links.create", "quota")))
	assert.Equal(t, "storage_unavailable", Outcome(errs.Wrap(errs.StorageUnavailable, "store.get", errors.New("locked"))))
	assert.Equal(t, "error", Outcome(errors.New("plain")))
}

func TestCollector_Observe(t *testing.T) {
	c := New()

	c.Observe("graph", "follow", nil)
	c.Observe("graph", "follow", nil)
	c.Observe("graph", "follow", errs.New(errs.Forbidden, "graph.follow", "no identity"))

	assert.Equal(t, 2.0, testutil.ToFloat64(c.operations.WithLabelValues("graph", "follow", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.operations.WithLabelValues("graph", "follow", "forbidden")))
}

func TestCollector_AdmissionAndTraversal(t *testing.T) {
	c := New()
	c.AdmissionDenied("quota")
	c.Traversal(3, 12)

	assert.Equal(t, 1.0, testutil.ToFloat64(c.admissionDenied.WithLabelValues("quota")))
	assert.Equal(t, 1, testutil.CollectAndCount(c.frontierSize))
}

func TestCollector_NilIsNoop(t *testing.T) {
	var c *Collector
	c.Observe("graph", "follow", nil)
	c.AdmissionDenied("quota")
	c.Traversal(1, 1)
	assert.Nil(t, c.Registry())
	assert.NoError(t, c.WriteText(&bytes.Buffer{}))
}

func TestCollector_WriteText(t *testing.T) {
	c := New()
	c.Observe("links", "create", nil)

	var buf bytes.Buffer
	require.NoError(t, c.WriteText(&buf))
	assert.Contains(t, buf.String(), `socialdna_operations_total{component="links",op="create",outcome="ok"} 1`)
}
