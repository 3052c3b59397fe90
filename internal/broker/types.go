package broker

import (
	"context"
	"fmt"
)

// MessageHandler receives one inbound message. Handlers for a client are
// invoked one at a time in arrival order.
type MessageHandler func(ctx context.Context, topic string, payload []byte)

// ConnectionHandler observes the connection lifecycle. OnConnect is called
// with a nil error after every successful CONNACK (including automatic
// reconnects) and with a non-nil error when a connect attempt fails.
type ConnectionHandler interface {
	OnConnect(ctx context.Context, err error)
	OnConnectionLost(ctx context.Context, err error)
}

type Client interface {
	Connect(ctx context.Context, handler ConnectionHandler) error
	Subscribe(ctx context.Context, filter string, handler MessageHandler) error
	Publish(ctx context.Context, topic string, payload []byte) error
	Disconnect()
	IsConnected() bool
}

// ConnectError is reported when the broker cannot be reached or refuses the
// connection. ReturnCode is the CONNACK return code, 0 when no CONNACK was
// received.
type ConnectError struct {
	ReturnCode byte
	Err        error
}

func (e *ConnectError) Error() string {
	return fmt.Sprintf("connect failed with reason code %d: %v", e.ReturnCode, e.Err)
}

func (e *ConnectError) Unwrap() error {
	return e.Err
}
