package observability

import "github.com/prometheus/client_golang/prometheus"

var (
	APIRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "modq_api_requests_total", Help: "Admin API requests"},
		[]string{"endpoint", "status"},
	)
	WebhookRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "modq_webhook_requests_total", Help: "Webhook intake results"},
		[]string{"status"},
	)
	Transitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "modq_transitions_total", Help: "Moderation transitions"},
		[]string{"action", "result"},
	)
	Publishes = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "modq_publish_total", Help: "Publish outcomes"},
		[]string{"result"},
	)
	PublishLatency = prometheus.NewHistogram(
		prometheus.HistogramOpts{Name: "modq_publish_latency_seconds", Help: "Posting API latency"},
	)
)

func Register(reg prometheus.Registerer) {
	reg.MustRegister(APIRequests, WebhookRequests, Transitions, Publishes, PublishLatency)
}
