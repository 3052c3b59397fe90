package config

import (
	"fmt"
	"os"

	"github.com/spf13/viper"

	"supplement/internal/constants"
)

// LoadConfig reads settings from the process environment. configFile, when
// set, names a dotenv file whose values apply to variables missing from the
// environment; when empty, ./.env is used if it exists.
func LoadConfig(configFile string) (*Config, error) {
	return LoadForService(configFile, "")
}

func LoadForService(configFile, serviceName string) (*Config, error) {
	viper.Reset()

	setDefaults()
	viper.SetDefault("logging_file", constants.DefaultLogFile(serviceName))
	bindEnvVariables()

	if configFile == "" {
		if _, err := os.Stat(constants.DefaultEnvFile); err == nil {
			configFile = constants.DefaultEnvFile
		}
	}

	if configFile != "" {
		viper.SetConfigType("env")
		viper.SetConfigFile(configFile)
		if err := viper.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// viper ignores empty environment values; LOGGING_FILE= disables the file
	if v, ok := os.LookupEnv("LOGGING_FILE"); ok && v == "" {
		cfg.Logging.File = ""
	}

	if err := ValidateStatic(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults() {
	viper.SetDefault("broker_type", constants.BrokerTypeMQTT)
	viper.SetDefault("mqtt_keepalive", constants.DefaultKeepAlive)
	viper.SetDefault("mqtt_qos", 0)
	viper.SetDefault("mqtt_connect_timeout", constants.DefaultConnectTimeout)
	viper.SetDefault("mqtt_publish_timeout", constants.DefaultPublishTimeout)
	viper.SetDefault("mqtt_auto_reconnect", true)

	viper.SetDefault("server_port", constants.DefaultServerPort)

	viper.SetDefault("logging_level", "info")
	viper.SetDefault("logging_format", "json")

	viper.SetDefault("tracing_enabled", false)
	viper.SetDefault("tracing_sampler_type", "always_on")

	viper.SetDefault("simulator_interval", constants.DefaultSimulatorInterval)
	viper.SetDefault("simulator_wait", constants.DefaultSimulatorInterval)
	viper.SetDefault("simulator_retry_max_attempts", 3)
	viper.SetDefault("simulator_retry_initial_interval", "500ms")
	viper.SetDefault("simulator_retry_max_interval", "5s")
	viper.SetDefault("simulator_retry_multiplier", 2.0)
}

func bindEnvVariables() {
	viper.BindEnv("inputtopicprefix", "InputTopicPrefix")
	viper.BindEnv("outputtopicprefix", "OutputTopicPrefix")
	viper.BindEnv("mqtthost", "MQTTHost")
	viper.BindEnv("mqttport", "MQTTPort")

	viper.BindEnv("broker_type", "BROKER_TYPE")
	viper.BindEnv("mqtt_client_id", "MQTT_CLIENT_ID")
	viper.BindEnv("mqtt_keepalive", "MQTT_KEEPALIVE")
	viper.BindEnv("mqtt_qos", "MQTT_QOS")
	viper.BindEnv("mqtt_connect_timeout", "MQTT_CONNECT_TIMEOUT")
	viper.BindEnv("mqtt_publish_timeout", "MQTT_PUBLISH_TIMEOUT")
	viper.BindEnv("mqtt_auto_reconnect", "MQTT_AUTO_RECONNECT")

	viper.BindEnv("server_port", "SERVER_PORT")

	viper.BindEnv("logging_level", "LOGGING_LEVEL")
	viper.BindEnv("logging_format", "LOGGING_FORMAT")
	viper.BindEnv("logging_file", "LOGGING_FILE")

	viper.BindEnv("tracing_enabled", "TRACING_ENABLED")
	viper.BindEnv("tracing_service_name", "TRACING_SERVICE_NAME")
	viper.BindEnv("tracing_otlp_endpoint", "TRACING_OTLP_ENDPOINT")
	viper.BindEnv("tracing_otlp_insecure", "TRACING_OTLP_INSECURE")
	viper.BindEnv("tracing_sampler_type", "TRACING_SAMPLER_TYPE")
	viper.BindEnv("tracing_sampler_param", "TRACING_SAMPLER_PARAM")

	viper.BindEnv("simulator_interval", "SIMULATOR_INTERVAL")
	viper.BindEnv("simulator_wait", "SIMULATOR_WAIT")
	viper.BindEnv("simulator_retry_max_attempts", "SIMULATOR_RETRY_MAX_ATTEMPTS")
	viper.BindEnv("simulator_retry_initial_interval", "SIMULATOR_RETRY_INITIAL_INTERVAL")
	viper.BindEnv("simulator_retry_max_interval", "SIMULATOR_RETRY_MAX_INTERVAL")
	viper.BindEnv("simulator_retry_multiplier", "SIMULATOR_RETRY_MULTIPLIER")
}
