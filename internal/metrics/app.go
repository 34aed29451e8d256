// Package metrics emits application metrics through the shared telemetry
// system. All helpers are safe to call before metrics are initialized.
package metrics

import (
	"time"

	"github.com/RimvydasPet/tech-doc-assistant/internal/observability"
)

// Application-level metric names following Prometheus conventions
var (
	QuestionsTotal       = "app_questions_total"
	QuestionDuration     = "app_question_duration_ms"
	RateLimitRejected    = "app_rate_limit_rejected_total"
	CacheRequestsTotal   = "app_cache_requests_total"
	TokensConsumedTotal  = "app_tokens_consumed_total"
	ToolInvocationsTotal = "app_tool_invocations_total"

	ServerStartTime = "app_server_start_time_seconds"
)

// RecordQuestion records one answered (or failed) question.
func RecordQuestion(language string, success bool, duration time.Duration) {
	status := "success"
	if !success {
		status = "failure"
	}

	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Counter(
			QuestionsTotal,
			1,
			map[string]string{
				"language": language,
				"status":   status,
			},
		)

		_ = observability.TelemetrySystem.Histogram(
			QuestionDuration,
			duration,
			map[string]string{
				"language": language,
			},
		)
	}
}

// RecordRateLimitRejection records a request rejected by the session limiter.
func RecordRateLimitRejection() {
	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Counter(RateLimitRejected, 1, nil)
	}
}

// RecordCacheLookup records one cache region lookup.
func RecordCacheLookup(region string, hit bool) {
	outcome := "miss"
	if hit {
		outcome = "hit"
	}

	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Counter(
			CacheRequestsTotal,
			1,
			map[string]string{
				"region":  region,
				"outcome": outcome,
			},
		)
	}
}

// RecordTokens records LLM tokens consumed by one completion.
func RecordTokens(role string, total int) {
	if total <= 0 {
		return
	}
	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Counter(
			TokensConsumedTotal,
			float64(total),
			map[string]string{
				"role": role,
			},
		)
	}
}

// RecordToolInvocation records one tool call folded into an answer.
func RecordToolInvocation(tool string, success bool) {
	status := "success"
	if !success {
		status = "failure"
	}

	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Counter(
			ToolInvocationsTotal,
			1,
			map[string]string{
				"tool":   tool,
				"status": status,
			},
		)
	}
}

// SetServerStartTime records the server start time (Unix timestamp)
func SetServerStartTime(timestamp int64) {
	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Gauge(
			ServerStartTime,
			float64(timestamp),
			nil,
		)
	}
}
