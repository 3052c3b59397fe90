package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("InputTopicPrefix", "iPrefix/")
	t.Setenv("OutputTopicPrefix", "oPrefix/")
	t.Setenv("MQTTHost", "localhost")
	t.Setenv("MQTTPort", "1883")
}

func TestLoadFromEnvironment(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "mqtt", cfg.Broker.Type)
	assert.Equal(t, "iPrefix/", cfg.Broker.MQTT.InputTopicPrefix)
	assert.Equal(t, "oPrefix/", cfg.Broker.MQTT.OutputTopicPrefix)
	assert.Equal(t, "localhost", cfg.Broker.MQTT.Host)
	assert.Equal(t, 1883, cfg.Broker.MQTT.Port)
	assert.Equal(t, 60*time.Second, cfg.Broker.MQTT.KeepAlive)
	assert.Equal(t, 0, cfg.Broker.MQTT.QoS)
	assert.True(t, cfg.Broker.MQTT.AutoReconnect)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, 5*time.Second, cfg.Simulator.Interval)
	assert.Equal(t, 3, cfg.Simulator.Retry.MaxAttempts)
	assert.Equal(t, 500*time.Millisecond, cfg.Simulator.Retry.InitialInterval)
}

func TestLoadOptionalOverrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("MQTT_KEEPALIVE", "30s")
	t.Setenv("MQTT_QOS", "1")
	t.Setenv("SERVER_PORT", "0")
	t.Setenv("LOGGING_LEVEL", "debug")
	t.Setenv("SIMULATOR_INTERVAL", "100ms")

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, 30*time.Second, cfg.Broker.MQTT.KeepAlive)
	assert.Equal(t, 1, cfg.Broker.MQTT.QoS)
	assert.Equal(t, 0, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, 100*time.Millisecond, cfg.Simulator.Interval)
}

func TestLoadFromDotenvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "engine.env")
	content := "InputTopicPrefix=fileIn/\nOutputTopicPrefix=fileOut/\nMQTTHost=broker\nMQTTPort=1884\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "fileIn/", cfg.Broker.MQTT.InputTopicPrefix)
	assert.Equal(t, "fileOut/", cfg.Broker.MQTT.OutputTopicPrefix)
	assert.Equal(t, "broker", cfg.Broker.MQTT.Host)
	assert.Equal(t, 1884, cfg.Broker.MQTT.Port)
}

func TestEnvironmentOverridesDotenvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "engine.env")
	content := "InputTopicPrefix=fileIn/\nOutputTopicPrefix=fileOut/\nMQTTHost=broker\nMQTTPort=1884\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Setenv("MQTTHost", "from-env")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Broker.MQTT.Host)
}

func TestLoadMissingFile(t *testing.T) {
	setRequiredEnv(t)
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.env"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoadMissingRequired(t *testing.T) {
	t.Setenv("InputTopicPrefix", "")
	t.Setenv("OutputTopicPrefix", "")
	t.Setenv("MQTTHost", "")
	t.Setenv("MQTTPort", "")

	_, err := LoadConfig("")
	require.Error(t, err)
	for _, field := range []string{"InputTopicPrefix", "OutputTopicPrefix", "MQTTHost", "MQTTPort"} {
		assert.Contains(t, err.Error(), field)
	}
}

func TestLoadInvalidPort(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("MQTTPort", "not-a-port")

	_, err := LoadConfig("")
	require.Error(t, err)
}

func validConfig() *Config {
	return &Config{
		Broker: BrokerConfig{
			Type: "mqtt",
			MQTT: MQTTConfig{
				InputTopicPrefix:  "iPrefix/",
				OutputTopicPrefix: "oPrefix/",
				Host:              "localhost",
				Port:              1883,
				KeepAlive:         60 * time.Second,
				ConnectTimeout:    time.Second,
				PublishTimeout:    time.Second,
			},
		},
		Logging: LoggingConfig{Level: "info", Format: "json"},
		Simulator: SimulatorConfig{
			Retry: RetryConfig{MaxAttempts: 1, Multiplier: 2},
		},
	}
}

func TestValidateStatic(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"unknown broker", func(c *Config) { c.Broker.Type = "kafka" }, "BROKER_TYPE"},
		{"empty broker", func(c *Config) { c.Broker.Type = "" }, "BROKER_TYPE"},
		{"wildcard input prefix", func(c *Config) { c.Broker.MQTT.InputTopicPrefix = "in/#" }, "InputTopicPrefix"},
		{"wildcard output prefix", func(c *Config) { c.Broker.MQTT.OutputTopicPrefix = "out/+/" }, "OutputTopicPrefix"},
		{"port too large", func(c *Config) { c.Broker.MQTT.Port = 70000 }, "MQTTPort"},
		{"bad qos", func(c *Config) { c.Broker.MQTT.QoS = 3 }, "MQTT_QOS"},
		{"zero publish timeout", func(c *Config) { c.Broker.MQTT.PublishTimeout = 0 }, "MQTT_PUBLISH_TIMEOUT"},
		{"server port", func(c *Config) { c.Server.Port = -1 }, "SERVER_PORT"},
		{"log level", func(c *Config) { c.Logging.Level = "trace" }, "LOGGING_LEVEL"},
		{"log format", func(c *Config) { c.Logging.Format = "xml" }, "LOGGING_FORMAT"},
		{"tracing without endpoint", func(c *Config) { c.Tracing.Enabled = true }, "TRACING_OTLP_ENDPOINT"},
		{"retry attempts", func(c *Config) { c.Simulator.Retry.MaxAttempts = 0 }, "SIMULATOR_RETRY_MAX_ATTEMPTS"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := ValidateStatic(cfg)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLogFileDefaults(t *testing.T) {
	tests := []struct {
		name    string
		service string
		env     *string
		want    string
	}{
		{name: "engine default", service: "rule-engine", want: "log/engine.log"},
		{name: "web app default", service: "web-app", want: "log/webapp.log"},
		{name: "no service", service: "", want: ""},
		{name: "override", service: "rule-engine", env: strPtr("/var/log/bre.log"), want: "/var/log/bre.log"},
		{name: "empty disables", service: "web-app", env: strPtr(""), want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequiredEnv(t)
			if tt.env != nil {
				t.Setenv("LOGGING_FILE", *tt.env)
			}

			cfg, err := Load("", tt.service)
			require.NoError(t, err)
			assert.Equal(t, tt.want, cfg.Logging.File)
		})
	}
}

func strPtr(s string) *string {
	return &s
}
