package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "feedbackflow_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "feedbackflow_http_request_duration_seconds",
		Help:    "Duration of HTTP requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	loginsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "feedbackflow_logins_total",
		Help: "Count of login attempts by result",
	}, []string{"result"})

	sessionRestores = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "feedbackflow_session_restores_total",
		Help: "Count of startup session restore attempts by result",
	}, []string{"result"})

	dashboardComputations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "feedbackflow_dashboard_computations_total",
		Help: "Count of dashboard view computations by role",
	}, []string{"role"})

	feedbackCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "feedbackflow_feedback_created_total",
		Help: "Count of feedback records created by sentiment",
	}, []string{"sentiment"})

	acknowledgments = promauto.NewCounter(prometheus.CounterOpts{
		Name: "feedbackflow_acknowledgments_total",
		Help: "Count of feedback acknowledgments",
	})

	sessionActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "feedbackflow_session_active",
		Help: "Whether an authenticated session is currently held (0 or 1)",
	})

	pendingAcknowledgments = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "feedbackflow_pending_acknowledgments",
		Help: "Number of feedback records awaiting acknowledgment",
	})
)

// ObserveHTTPRequest records an HTTP request metric.
func ObserveHTTPRequest(method, path, status string, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, path, status).Inc()
	httpRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// ObserveLogin increments the login counter with a result label.
func ObserveLogin(result string) {
	loginsTotal.WithLabelValues(result).Inc()
}

// ObserveSessionRestore records the outcome of a startup restore attempt.
func ObserveSessionRestore(result string) {
	sessionRestores.WithLabelValues(result).Inc()
}

// ObserveDashboard increments the dashboard computation counter for a role.
func ObserveDashboard(role string) {
	dashboardComputations.WithLabelValues(role).Inc()
}

// ObserveFeedbackCreated increments the created counter for a sentiment.
func ObserveFeedbackCreated(sentiment string) {
	feedbackCreated.WithLabelValues(sentiment).Inc()
}

// ObserveAcknowledgment increments the acknowledgment counter.
func ObserveAcknowledgment() {
	acknowledgments.Inc()
}

// SetSessionActive sets the active-session gauge.
func SetSessionActive(active bool) {
	if active {
		sessionActive.Set(1)
		return
	}
	sessionActive.Set(0)
}

// SetPendingAcknowledgments sets the pending-acknowledgment gauge.
func SetPendingAcknowledgments(n int) {
	pendingAcknowledgments.Set(float64(n))
}
