package config

import (
	"time"
)

// Config is loaded once at startup and never mutated afterwards. Keys are
// flat because every setting comes from the environment (or a dotenv file
// with the same names); nested structs only group them in Go.
type Config struct {
	Broker    BrokerConfig    `mapstructure:",squash"`
	Server    ServerConfig    `mapstructure:",squash"`
	Logging   LoggingConfig   `mapstructure:",squash"`
	Tracing   TracingConfig   `mapstructure:",squash"`
	Simulator SimulatorConfig `mapstructure:",squash"`
}

type BrokerConfig struct {
	Type string     `mapstructure:"broker_type"`
	MQTT MQTTConfig `mapstructure:",squash"`
}

type MQTTConfig struct {
	InputTopicPrefix  string        `mapstructure:"inputtopicprefix"`
	OutputTopicPrefix string        `mapstructure:"outputtopicprefix"`
	Host              string        `mapstructure:"mqtthost"`
	Port              int           `mapstructure:"mqttport"`
	ClientID          string        `mapstructure:"mqtt_client_id"`
	KeepAlive         time.Duration `mapstructure:"mqtt_keepalive"`
	QoS               int           `mapstructure:"mqtt_qos"`
	ConnectTimeout    time.Duration `mapstructure:"mqtt_connect_timeout"`
	PublishTimeout    time.Duration `mapstructure:"mqtt_publish_timeout"`
	AutoReconnect     bool          `mapstructure:"mqtt_auto_reconnect"`
}

type ServerConfig struct {
	// Port of the /health and /metrics listener; 0 disables it.
	Port int `mapstructure:"server_port"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"logging_level"`
	Format string `mapstructure:"logging_format"`
	// File receives a copy of every log line in addition to stderr; empty
	// disables it.
	File string `mapstructure:"logging_file"`
}

type TracingConfig struct {
	Enabled      bool    `mapstructure:"tracing_enabled"`
	ServiceName  string  `mapstructure:"tracing_service_name"`
	Endpoint     string  `mapstructure:"tracing_otlp_endpoint"`
	Insecure     bool    `mapstructure:"tracing_otlp_insecure"`
	SamplerType  string  `mapstructure:"tracing_sampler_type"`
	SamplerParam float64 `mapstructure:"tracing_sampler_param"`
}

type SimulatorConfig struct {
	Interval time.Duration `mapstructure:"simulator_interval"`
	// Wait is how long the simulator keeps listening for results after the
	// last publish.
	Wait  time.Duration `mapstructure:"simulator_wait"`
	Retry RetryConfig   `mapstructure:",squash"`
}

type RetryConfig struct {
	MaxAttempts     int           `mapstructure:"simulator_retry_max_attempts"`
	InitialInterval time.Duration `mapstructure:"simulator_retry_initial_interval"`
	MaxInterval     time.Duration `mapstructure:"simulator_retry_max_interval"`
	Multiplier      float64       `mapstructure:"simulator_retry_multiplier"`
}

// Load reads the configuration for serviceName, whose default log file
// applies when LOGGING_FILE is unset.
func Load(configFile, serviceName string) (*Config, error) {
	return LoadForService(configFile, serviceName)
}
