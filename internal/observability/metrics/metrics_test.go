package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestLeadMetricsObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewLeadMetrics(reg)
	m.ObserveSubmission("contact", "submitted")
	m.ObserveSubmission("contact", "submitted")
	m.ObserveEmailCheck("contact", "valid")
	m.ObserveNotification("enquiry_form", false)
	m.ObserveDeliveryLatency("contact", 0.25)

	if got := testutil.ToFloat64(m.submissionsTotal.WithLabelValues("contact", "submitted")); got != 2 {
		t.Fatalf("expected 2 submissions, got %v", got)
	}
	if got := testutil.ToFloat64(m.notificationsTotal.WithLabelValues("enquiry_form", "failed")); got != 1 {
		t.Fatalf("expected 1 failed notification, got %v", got)
	}
}

func TestPopupMetricsObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewPopupMetrics(reg)
	m.ViewOpened()
	m.ObserveShown("trial")
	m.ObserveDismissed("trial")
	m.ViewClosed()

	if got := testutil.ToFloat64(m.shownTotal.WithLabelValues("trial")); got != 1 {
		t.Fatalf("expected 1 trial impression, got %v", got)
	}
	if got := testutil.ToFloat64(m.activeViews); got != 0 {
		t.Fatalf("expected no active views, got %v", got)
	}
}

func TestMetricsNilSafe(t *testing.T) {
	var lm *LeadMetrics
	lm.ObserveSubmission("contact", "submitted")
	lm.ObserveEmailCheck("contact", "invalid")
	lm.ObserveNotification("customer_greetings", true)
	lm.ObserveDeliveryLatency("contact", 0.1)

	var pm *PopupMetrics
	pm.ObserveShown("trial")
	pm.ObserveDismissed("trial")
	pm.ViewOpened()
	pm.ViewClosed()
}
