package config

import (
	"fmt"
	"strings"

	"supplement/internal/constants"
)

type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for field '%s': %s", e.Field, e.Message)
}

// ValidateStatic checks every setting and reports all problems at once.
// Any error here is fatal at startup.
func ValidateStatic(cfg *Config) error {
	var errors []error

	errors = append(errors, validateBroker(cfg.Broker)...)

	if err := validateServer(cfg.Server); err != nil {
		errors = append(errors, err)
	}

	if err := validateLogging(cfg.Logging); err != nil {
		errors = append(errors, err)
	}

	if err := validateTracing(cfg.Tracing); err != nil {
		errors = append(errors, err)
	}

	if err := validateSimulator(cfg.Simulator); err != nil {
		errors = append(errors, err)
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed: %v", errors)
	}

	return nil
}

func validateBroker(cfg BrokerConfig) []error {
	switch cfg.Type {
	case constants.BrokerTypeMQTT:
		return validateMQTT(cfg.MQTT)
	case "":
		return []error{&ValidationError{
			Field:   "BROKER_TYPE",
			Message: "broker type is required",
		}}
	default:
		return []error{&ValidationError{
			Field:   "BROKER_TYPE",
			Message: fmt.Sprintf("unknown broker type: %s (supported: mqtt)", cfg.Type),
		}}
	}
}

func validateMQTT(cfg MQTTConfig) []error {
	var errs []error

	if err := validatePrefix("InputTopicPrefix", cfg.InputTopicPrefix); err != nil {
		errs = append(errs, err)
	}

	if err := validatePrefix("OutputTopicPrefix", cfg.OutputTopicPrefix); err != nil {
		errs = append(errs, err)
	}

	if cfg.Host == "" {
		errs = append(errs, &ValidationError{
			Field:   "MQTTHost",
			Message: "MQTT host is required",
		})
	}

	if cfg.Port < 1 || cfg.Port > 65535 {
		errs = append(errs, &ValidationError{
			Field:   "MQTTPort",
			Message: fmt.Sprintf("port must be between 1 and 65535, got %d", cfg.Port),
		})
	}

	if cfg.QoS < 0 || cfg.QoS > 2 {
		errs = append(errs, &ValidationError{
			Field:   "MQTT_QOS",
			Message: fmt.Sprintf("qos must be 0, 1 or 2, got %d", cfg.QoS),
		})
	}

	if cfg.KeepAlive < 0 {
		errs = append(errs, &ValidationError{
			Field:   "MQTT_KEEPALIVE",
			Message: "keepalive must be non-negative",
		})
	}

	if cfg.ConnectTimeout <= 0 {
		errs = append(errs, &ValidationError{
			Field:   "MQTT_CONNECT_TIMEOUT",
			Message: "connect timeout must be positive",
		})
	}

	if cfg.PublishTimeout <= 0 {
		errs = append(errs, &ValidationError{
			Field:   "MQTT_PUBLISH_TIMEOUT",
			Message: "publish timeout must be positive",
		})
	}

	return errs
}

func validatePrefix(field, prefix string) error {
	if prefix == "" {
		return &ValidationError{
			Field:   field,
			Message: "topic prefix is required",
		}
	}

	if strings.ContainsAny(prefix, constants.MultiLevelWildcard+constants.SingleLevelWildcard) {
		return &ValidationError{
			Field:   field,
			Message: fmt.Sprintf("topic prefix must not contain MQTT wildcards, got %q", prefix),
		}
	}

	return nil
}

func validateServer(cfg ServerConfig) error {
	if cfg.Port < 0 || cfg.Port > 65535 {
		return &ValidationError{
			Field:   "SERVER_PORT",
			Message: fmt.Sprintf("port must be between 0 and 65535, got %d", cfg.Port),
		}
	}

	return nil
}

func validateLogging(cfg LoggingConfig) error {
	validLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLevels[strings.ToLower(cfg.Level)] {
		return &ValidationError{
			Field:   "LOGGING_LEVEL",
			Message: fmt.Sprintf("invalid log level: %s (valid: debug, info, warn, error)", cfg.Level),
		}
	}

	if cfg.Format != "json" && cfg.Format != "console" {
		return &ValidationError{
			Field:   "LOGGING_FORMAT",
			Message: fmt.Sprintf("invalid log format: %s (valid: json, console)", cfg.Format),
		}
	}

	return nil
}

func validateTracing(cfg TracingConfig) error {
	if cfg.Enabled && cfg.Endpoint == "" {
		return &ValidationError{
			Field:   "TRACING_OTLP_ENDPOINT",
			Message: "OTLP endpoint is required when tracing is enabled",
		}
	}

	return nil
}

func validateSimulator(cfg SimulatorConfig) error {
	if cfg.Interval < 0 {
		return &ValidationError{
			Field:   "SIMULATOR_INTERVAL",
			Message: "interval must be non-negative",
		}
	}

	if cfg.Retry.MaxAttempts < 1 {
		return &ValidationError{
			Field:   "SIMULATOR_RETRY_MAX_ATTEMPTS",
			Message: "max attempts must be at least 1",
		}
	}

	if cfg.Retry.Multiplier <= 0 {
		return &ValidationError{
			Field:   "SIMULATOR_RETRY_MULTIPLIER",
			Message: "multiplier must be positive",
		}
	}

	if cfg.Retry.MaxInterval > 0 && cfg.Retry.InitialInterval > cfg.Retry.MaxInterval {
		return &ValidationError{
			Field:   "SIMULATOR_RETRY_MAX_INTERVAL",
			Message: "max interval must be greater than or equal to initial interval",
		}
	}

	return nil
}
