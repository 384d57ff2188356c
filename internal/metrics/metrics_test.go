package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCollectorRecords(t *testing.T) {
	registry := prometheus.NewRegistry()
	c := NewCollector(registry)

	c.RecordAuth("ok")
	c.RecordAuth("ok")
	c.RecordAuth("invalid_token")
	if got := testutil.ToFloat64(c.authResults.WithLabelValues("ok")); got != 2 {
		t.Fatalf("expected 2 ok auths, got %f", got)
	}
	if got := testutil.ToFloat64(c.authResults.WithLabelValues("invalid_token")); got != 1 {
		t.Fatalf("expected 1 invalid auth, got %f", got)
	}

	c.RecordProviderCall("openai", nil, 10*time.Millisecond)
	c.RecordProviderCall("ibm", errors.New("down"), time.Millisecond)
	if got := testutil.ToFloat64(c.providerCalls.WithLabelValues("openai", "ok")); got != 1 {
		t.Fatalf("expected 1 ok call, got %f", got)
	}
	if got := testutil.ToFloat64(c.providerCalls.WithLabelValues("ibm", "error")); got != 1 {
		t.Fatalf("expected 1 failed call, got %f", got)
	}

	c.RecordClassify("ok")
	if got := testutil.ToFloat64(c.classifyResults.WithLabelValues("ok")); got != 1 {
		t.Fatalf("expected 1 classify, got %f", got)
	}
}

func TestNilCollectorIsNoOp(t *testing.T) {
	var c *Collector
	// Must not panic.
	c.RecordAuth("ok")
	c.RecordProviderCall("openai", nil, time.Millisecond)
	c.RecordClassify("ok")
}
