package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCollectors(t *testing.T) {
	c := New(prometheus.NewRegistry())

	c.ObserveEvaluation("one", "centered", "acceptable")
	c.ObserveEvaluation("one", "centered", "acceptable")
	c.ObserveEvaluation("none", "not_applicable", "not_applicable")

	if got := testutil.ToFloat64(c.Evaluations.WithLabelValues("one", "centered", "acceptable")); got != 2 {
		t.Errorf("accepted evaluations = %v, want 2", got)
	}

	c.ObserveDetection("pigo", 10*time.Millisecond, nil)
	c.ObserveDetection("pigo", 10*time.Millisecond, errors.New("boom"))
	if got := testutil.ToFloat64(c.DetectionErrors.WithLabelValues("pigo")); got != 1 {
		t.Errorf("detection errors = %v, want 1", got)
	}

	c.SessionOpened()
	c.SessionOpened()
	c.SessionClosed()
	if got := testutil.ToFloat64(c.ActiveSessions); got != 1 {
		t.Errorf("active sessions = %v, want 1", got)
	}
}

func TestCollectors_Nil(t *testing.T) {
	var c *Collectors
	c.ObserveEvaluation("one", "centered", "acceptable")
	c.ObserveDetection("pigo", time.Millisecond, nil)
	c.SessionOpened()
	c.SessionClosed()
}
