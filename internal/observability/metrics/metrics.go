package metrics

import "github.com/prometheus/client_golang/prometheus"

// LeadMetrics exposes counters/histograms for the lead submission workflow.
type LeadMetrics struct {
	submissionsTotal   *prometheus.CounterVec
	emailChecksTotal   *prometheus.CounterVec
	notificationsTotal *prometheus.CounterVec
	deliveryLatency    *prometheus.HistogramVec
}

func NewLeadMetrics(reg prometheus.Registerer) *LeadMetrics {
	m := &LeadMetrics{
		submissionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "acecrm",
			Subsystem: "leads",
			Name:      "submissions_total",
			Help:      "Lead form submission attempts by terminal state",
		}, []string{"form", "outcome"}),
		emailChecksTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "acecrm",
			Subsystem: "leads",
			Name:      "email_checks_total",
			Help:      "Remote email verification verdicts",
		}, []string{"form", "verdict"}),
		notificationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "acecrm",
			Subsystem: "leads",
			Name:      "notifications_total",
			Help:      "Best-effort WhatsApp notification attempts",
		}, []string{"template", "status"}),
		deliveryLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "acecrm",
			Subsystem: "leads",
			Name:      "delivery_latency_seconds",
			Help:      "Latency of the transactional email delivery call",
			Buckets:   prometheus.DefBuckets,
		}, []string{"form"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.submissionsTotal, m.emailChecksTotal, m.notificationsTotal, m.deliveryLatency)
	return m
}

func (m *LeadMetrics) ObserveSubmission(form, outcome string) {
	if m == nil {
		return
	}
	m.submissionsTotal.WithLabelValues(form, outcome).Inc()
}

func (m *LeadMetrics) ObserveEmailCheck(form, verdict string) {
	if m == nil {
		return
	}
	m.emailChecksTotal.WithLabelValues(form, verdict).Inc()
}

func (m *LeadMetrics) ObserveNotification(template string, ok bool) {
	if m == nil {
		return
	}
	status := "sent"
	if !ok {
		status = "failed"
	}
	m.notificationsTotal.WithLabelValues(template, status).Inc()
}

func (m *LeadMetrics) ObserveDeliveryLatency(form string, seconds float64) {
	if m == nil {
		return
	}
	m.deliveryLatency.WithLabelValues(form).Observe(seconds)
}

// PopupMetrics counts overlay impressions and dismissals across page views.
type PopupMetrics struct {
	shownTotal     *prometheus.CounterVec
	dismissedTotal *prometheus.CounterVec
	activeViews    prometheus.Gauge
}

func NewPopupMetrics(reg prometheus.Registerer) *PopupMetrics {
	m := &PopupMetrics{
		shownTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "acecrm",
			Subsystem: "popup",
			Name:      "shown_total",
			Help:      "Overlays made visible",
		}, []string{"overlay"}),
		dismissedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "acecrm",
			Subsystem: "popup",
			Name:      "dismissed_total",
			Help:      "Overlays dismissed by the visitor",
		}, []string{"overlay"}),
		activeViews: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "acecrm",
			Subsystem: "popup",
			Name:      "active_views",
			Help:      "Page views currently hosting a popup sequencer",
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.shownTotal, m.dismissedTotal, m.activeViews)
	return m
}

func (m *PopupMetrics) ObserveShown(overlay string) {
	if m == nil {
		return
	}
	m.shownTotal.WithLabelValues(overlay).Inc()
}

func (m *PopupMetrics) ObserveDismissed(overlay string) {
	if m == nil {
		return
	}
	m.dismissedTotal.WithLabelValues(overlay).Inc()
}

func (m *PopupMetrics) ViewOpened() {
	if m == nil {
		return
	}
	m.activeViews.Inc()
}

func (m *PopupMetrics) ViewClosed() {
	if m == nil {
		return
	}
	m.activeViews.Dec()
}
