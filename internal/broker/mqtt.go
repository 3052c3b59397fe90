package broker

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"supplement/internal/config"
	"supplement/internal/logger"
	"supplement/pkg/errors"
	"supplement/pkg/logging"
	"supplement/pkg/metrics"
)

const (
	deliveryBuffer  = 256
	disconnectQuiet = 250 // milliseconds
)

type delivery struct {
	handler MessageHandler
	topic   string
	payload []byte
}

// MQTTClient adapts the paho client to Client. Inbound messages are queued
// by paho's router goroutine and handed to subscribers by a single dispatch
// goroutine, so handlers may publish and wait without stalling the
// connection.
type MQTTClient struct {
	cfg         config.MQTTConfig
	serviceName string
	handler     ConnectionHandler
	logger      logger.Logger
	newClient   func(*mqtt.ClientOptions) mqtt.Client

	ctx        context.Context
	client     mqtt.Client
	deliveries chan delivery
	done       chan struct{}
	stopOnce   sync.Once
	wg         sync.WaitGroup
}

func NewMQTTClient(cfg config.MQTTConfig, serviceName string, log logger.Logger) *MQTTClient {
	return &MQTTClient{
		cfg:         cfg,
		serviceName: serviceName,
		logger:      log,
		newClient:   mqtt.NewClient,
		ctx:         context.Background(),
		deliveries:  make(chan delivery, deliveryBuffer),
		done:        make(chan struct{}),
	}
}

func (c *MQTTClient) BrokerURL() string {
	return "tcp://" + net.JoinHostPort(c.cfg.Host, strconv.Itoa(c.cfg.Port))
}

func (c *MQTTClient) clientID() string {
	if c.cfg.ClientID != "" {
		return c.cfg.ClientID
	}
	return fmt.Sprintf("%s-%s", c.serviceName, uuid.NewString()[:8])
}

func (c *MQTTClient) options() *mqtt.ClientOptions {
	brokerURL := c.BrokerURL()

	opts := mqtt.NewClientOptions()
	opts.AddBroker(brokerURL)
	opts.SetClientID(c.clientID())
	opts.SetKeepAlive(c.cfg.KeepAlive)
	opts.SetConnectTimeout(c.cfg.ConnectTimeout)
	opts.SetAutoReconnect(c.cfg.AutoReconnect)
	opts.SetCleanSession(true)
	opts.SetOrderMatters(true)

	opts.SetOnConnectHandler(func(mqtt.Client) {
		c.logger.InfowCtx(c.ctx, "Connected to MQTT broker",
			"broker", brokerURL,
		)
		if c.handler != nil {
			c.handler.OnConnect(c.ctx, nil)
		}
	})

	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		c.logger.WarnwCtx(c.ctx, "Lost connection to MQTT broker",
			"broker", brokerURL,
			"error", err,
		)
		if c.handler != nil {
			c.handler.OnConnectionLost(c.ctx, err)
		}
	})

	return opts
}

// Connect dials the broker and blocks until the CONNACK arrives or the
// connect timeout elapses. handler may be nil; a failure is reported to it
// as well as returned.
func (c *MQTTClient) Connect(ctx context.Context, handler ConnectionHandler) error {
	if c.client != nil {
		return fmt.Errorf("mqtt client already connected")
	}

	c.handler = handler
	c.ctx = logging.WithServiceName(ctx, c.serviceName)
	c.client = c.newClient(c.options())

	c.wg.Add(1)
	go c.dispatch()

	c.logger.InfowCtx(c.ctx, "Connecting to MQTT broker",
		"broker", c.BrokerURL(),
		"keepalive", c.cfg.KeepAlive,
	)

	token := c.client.Connect()
	if err := waitToken(ctx, token, c.cfg.ConnectTimeout); err != nil {
		connErr := &ConnectError{Err: err}
		if ct, ok := token.(*mqtt.ConnectToken); ok {
			connErr.ReturnCode = ct.ReturnCode()
		}
		if c.handler != nil {
			c.handler.OnConnect(c.ctx, connErr)
		}
		return connErr
	}

	return nil
}

func (c *MQTTClient) Subscribe(ctx context.Context, filter string, handler MessageHandler) error {
	if c.client == nil {
		return errors.ErrNotConnected.WithDetail("filter", filter)
	}

	token := c.client.Subscribe(filter, byte(c.cfg.QoS), func(_ mqtt.Client, m mqtt.Message) {
		metrics.IncMQTTMessagesRead(c.serviceName, filter)
		metrics.ObserveMQTTMessageSize(c.serviceName, "in", len(m.Payload()))

		select {
		case c.deliveries <- delivery{handler: handler, topic: m.Topic(), payload: m.Payload()}:
		case <-c.done:
		}
	})

	if err := waitToken(ctx, token, c.cfg.PublishTimeout); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", filter, err)
	}

	c.logger.InfowCtx(c.ctx, "Subscribed",
		"filter", filter,
		"qos", c.cfg.QoS,
	)
	return nil
}

func (c *MQTTClient) Publish(ctx context.Context, topic string, payload []byte) error {
	if c.client == nil {
		return errors.ErrNotConnected.WithDetail("topic", topic)
	}

	start := time.Now()
	token := c.client.Publish(topic, byte(c.cfg.QoS), false, payload)
	if err := waitToken(ctx, token, c.cfg.PublishTimeout); err != nil {
		metrics.IncMQTTMessagesWritten(c.serviceName, "error")
		return errors.ErrPublish.WithCause(err).WithDetail("topic", topic)
	}

	metrics.IncMQTTMessagesWritten(c.serviceName, "ok")
	metrics.ObserveMQTTMessageSize(c.serviceName, "out", len(payload))
	metrics.ObserveMQTTWriteDuration(c.serviceName, time.Since(start))
	return nil
}

func (c *MQTTClient) IsConnected() bool {
	return c.client != nil && c.client.IsConnectionOpen()
}

// Disconnect stops dispatching and closes the connection. Queued messages
// that have not been dispatched yet are dropped.
func (c *MQTTClient) Disconnect() {
	c.stopOnce.Do(func() {
		close(c.done)
		if c.client != nil {
			c.client.Disconnect(disconnectQuiet)
			c.logger.InfowCtx(c.ctx, "Disconnected from MQTT broker",
				"broker", c.BrokerURL(),
			)
		}
		c.wg.Wait()
	})
}

func (c *MQTTClient) dispatch() {
	defer c.wg.Done()
	for {
		select {
		case d := <-c.deliveries:
			d.handler(logging.WithTopic(c.ctx, d.topic), d.topic, d.payload)
		case <-c.done:
			return
		}
	}
}

func waitToken(ctx context.Context, token mqtt.Token, timeout time.Duration) error {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-token.Done():
		return token.Error()
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return fmt.Errorf("timed out after %s", timeout)
	}
}
