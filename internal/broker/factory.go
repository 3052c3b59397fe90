package broker

import (
	"fmt"

	"supplement/internal/config"
	"supplement/internal/constants"
	"supplement/internal/logger"
)

func NewClient(cfg config.BrokerConfig, serviceName string, log logger.Logger) (Client, error) {
	switch cfg.Type {
	case constants.BrokerTypeMQTT:
		return NewMQTTClient(cfg.MQTT, serviceName, log), nil
	default:
		return nil, fmt.Errorf("unknown broker type: %s", cfg.Type)
	}
}
