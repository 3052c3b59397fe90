package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	StatusPublished        = "published"
	StatusInvalidTopic     = "invalid_topic"
	StatusMalformedPayload = "malformed_payload"
	StatusValidationError  = "validation_error"
	StatusPublishFailed    = "publish_failed"
	StatusInternalError    = "internal_error"
)

var (
	EngineMessagesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "engine_messages_total",
			Help: "Total number of messages handled by the rule engine (count)",
		},
		[]string{"status"},
	)

	EngineProcessingDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "engine_processing_duration_ms",
			Help:    "Processing duration for the rule engine in milliseconds",
			Buckets: []float64{0.1, 0.5, 1, 5, 10, 25, 50, 100, 250},
		},
		[]string{"status"},
	)

	EngineEligibilityTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "engine_eligibility_total",
			Help: "Total number of determinations by eligibility outcome (count)",
		},
		[]string{"eligible", "composition"},
	)

	MQTTMessagesReadTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mqtt_messages_read_total",
			Help: "Total number of messages received from the MQTT broker (count)",
		},
		[]string{"service", "filter"},
	)

	MQTTMessagesWrittenTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mqtt_messages_written_total",
			Help: "Total number of messages published to the MQTT broker (count)",
		},
		[]string{"service", "status"},
	)

	MQTTMessageSizeBytes = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mqtt_message_size_bytes",
			Help:    "Size of MQTT payloads in bytes",
			Buckets: []float64{16, 64, 128, 256, 512, 1024, 4096, 16384},
		},
		[]string{"service", "direction"},
	)

	MQTTWriteDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mqtt_write_duration_ms",
			Help:    "Duration of MQTT publishes in milliseconds",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
		},
		[]string{"service"},
	)

	MQTTConnectionState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "mqtt_connection_state",
			Help: "Engine connection state (0=disconnected, 1=connected, 2=subscribed) (state code)",
		},
		[]string{"service"},
	)

	RetryAttemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "retry_attempts_total",
			Help: "Total number of retry attempts (count)",
		},
		[]string{"service", "operation"},
	)

	SimulatorInvariantViolationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "simulator_invariant_violations_total",
			Help: "Total number of received results that broke an invariant (count)",
		},
		[]string{"invariant"},
	)
)

var (
	engineOnce    sync.Once
	brokerOnce    sync.Once
	simulatorOnce sync.Once
)

func RegisterEngineMetrics() {
	engineOnce.Do(func() {
		prometheus.MustRegister(EngineMessagesTotal)
		prometheus.MustRegister(EngineProcessingDuration)
		prometheus.MustRegister(EngineEligibilityTotal)
		prometheus.MustRegister(MQTTConnectionState)
	})
}

func RegisterBrokerMetrics() {
	brokerOnce.Do(func() {
		prometheus.MustRegister(MQTTMessagesReadTotal)
		prometheus.MustRegister(MQTTMessagesWrittenTotal)
		prometheus.MustRegister(MQTTMessageSizeBytes)
		prometheus.MustRegister(MQTTWriteDuration)
	})
}

func RegisterSimulatorMetrics() {
	simulatorOnce.Do(func() {
		prometheus.MustRegister(RetryAttemptsTotal)
		prometheus.MustRegister(SimulatorInvariantViolationsTotal)
	})
}

func ObserveEngineDuration(duration time.Duration, status string) {
	EngineProcessingDuration.WithLabelValues(status).Observe(float64(duration.Microseconds()) / 1000)
}

func IncEngineMessages(status string) {
	EngineMessagesTotal.WithLabelValues(status).Inc()
}

func IncEligibility(eligible bool, composition string) {
	label := "false"
	if eligible {
		label = "true"
	}
	EngineEligibilityTotal.WithLabelValues(label, composition).Inc()
}

func SetConnectionState(service string, state int) {
	MQTTConnectionState.WithLabelValues(service).Set(float64(state))
}

func IncMQTTMessagesRead(service, filter string) {
	MQTTMessagesReadTotal.WithLabelValues(service, filter).Inc()
}

func IncMQTTMessagesWritten(service, status string) {
	MQTTMessagesWrittenTotal.WithLabelValues(service, status).Inc()
}

func ObserveMQTTMessageSize(service, direction string, sizeBytes int) {
	MQTTMessageSizeBytes.WithLabelValues(service, direction).Observe(float64(sizeBytes))
}

func ObserveMQTTWriteDuration(service string, duration time.Duration) {
	MQTTWriteDuration.WithLabelValues(service).Observe(float64(duration.Milliseconds()))
}

func IncRetryAttempt(service, operation string) {
	RetryAttemptsTotal.WithLabelValues(service, operation).Inc()
}

func IncInvariantViolation(invariant string) {
	SimulatorInvariantViolationsTotal.WithLabelValues(invariant).Inc()
}
