package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// 元数据解析阶段
const (
	ParseStageStrict  = "strict"
	ParseStageSalvage = "salvage"
	ParseStageFailed  = "failed"
)

var (
	httpRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "prompt_manager_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	httpDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "prompt_manager_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"method", "route"},
	)

	metadataParses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "prompt_manager_metadata_parse_total",
			Help: "Metadata parse attempts by stage",
		},
		[]string{"stage"},
	)

	aiCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "prompt_manager_ai_calls_total",
			Help: "Total number of AI provider calls",
		},
		[]string{"provider", "status"},
	)

	aiLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "prompt_manager_ai_call_duration_seconds",
			Help:    "AI provider call latency in seconds",
			Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 20, 30},
		},
		[]string{"provider"},
	)
)

// RecordHTTPRequest 记录HTTP请求
func RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	httpDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordMetadataParse 记录元数据解析所用阶段
func RecordMetadataParse(stage string) {
	metadataParses.WithLabelValues(stage).Inc()
}

// RecordAICall 记录AI调用结果和耗时
func RecordAICall(provider string, err error, duration time.Duration) {
	status := "success"
	if err != nil {
		status = "error"
	}
	aiCalls.WithLabelValues(provider, status).Inc()
	aiLatency.WithLabelValues(provider).Observe(duration.Seconds())
}
