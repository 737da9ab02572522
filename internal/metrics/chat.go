package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Chat completion metrics, shared by every chat provider.
var (
	ChatRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chat_requests_total",
			Help:      "Total number of chat completion requests",
		},
		[]string{"provider", "model", "status"},
	)

	ChatRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "chat_request_duration_seconds",
			Help:      "Chat completion duration in seconds",
			Buckets:   []float64{0.25, 0.5, 1, 2.5, 5, 10, 20, 30, 60},
		},
		[]string{"provider", "model"},
	)

	ChatTokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chat_tokens_total",
			Help:      "Total chat tokens consumed",
		},
		[]string{"provider", "model", "type"},
	)
)

var registerChat sync.Once

// RegisterChatMetrics registers chat completion metrics. Safe to call more than once.
func RegisterChatMetrics() {
	registerChat.Do(func() {
		prometheus.MustRegister(ChatRequestsTotal, ChatRequestDuration, ChatTokensTotal)
	})
}

// ObserveChat records one completion call.
func ObserveChat(provider, model string, seconds float64, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	ChatRequestsTotal.WithLabelValues(provider, model, status).Inc()
	if err == nil {
		ChatRequestDuration.WithLabelValues(provider, model).Observe(seconds)
	}
}

// AddChatTokens records prompt and completion token counts when the provider reports them.
func AddChatTokens(provider, model string, prompt, completion int) {
	if prompt > 0 {
		ChatTokensTotal.WithLabelValues(provider, model, "prompt").Add(float64(prompt))
	}
	if completion > 0 {
		ChatTokensTotal.WithLabelValues(provider, model, "completion").Add(float64(completion))
	}
}
