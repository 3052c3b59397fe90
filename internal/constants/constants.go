package constants

import "time"

const (
	BrokerTypeMQTT = "mqtt"

	// MultiLevelWildcard is appended to the input prefix to build the
	// subscription filter.
	MultiLevelWildcard  = "#"
	SingleLevelWildcard = "+"
	TopicLevelSeparator = "/"
)

const (
	DefaultKeepAlive      = 60 * time.Second
	DefaultConnectTimeout = 30 * time.Second
	DefaultPublishTimeout = 10 * time.Second
)

const (
	ServiceNameRuleEngine = "rule-engine"
	ServiceNameWebApp     = "web-app"
)

const (
	DefaultEnvFile    = ".env"
	DefaultServerPort = 8080
)

const (
	DefaultEngineLogFile = "log/engine.log"
	DefaultWebAppLogFile = "log/webapp.log"
)

// DefaultLogFile returns the log file a service writes to when LOGGING_FILE
// is not set.
func DefaultLogFile(serviceName string) string {
	switch serviceName {
	case ServiceNameRuleEngine:
		return DefaultEngineLogFile
	case ServiceNameWebApp:
		return DefaultWebAppLogFile
	default:
		return ""
	}
}

const (
	DefaultSimulatorInterval = 5 * time.Second
	SimulatorTopicIDPrefix   = "topic-"
)

const (
	ShutdownTimeout = 5 * time.Second
)
