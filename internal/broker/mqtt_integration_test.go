//go:build integration
// +build integration

package broker

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"supplement/internal/logger"
)

type nopHandler struct{}

func (nopHandler) OnConnect(context.Context, error)        {}
func (nopHandler) OnConnectionLost(context.Context, error) {}

// startMosquitto runs a broker that accepts anonymous clients on 1883.
func startMosquitto(t *testing.T) (string, int) {
	t.Helper()
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "eclipse-mosquitto:1.6",
		ExposedPorts: []string{"1883/tcp"},
		WaitingFor:   wait.ForListeningPort("1883/tcp").WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("failed to start mosquitto container: %v", err)
	}
	t.Cleanup(func() {
		container.Terminate(ctx)
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "1883")
	require.NoError(t, err)

	p, err := strconv.Atoi(port.Port())
	require.NoError(t, err)
	return host, p
}

func TestMQTTClientRoundTrip(t *testing.T) {
	host, port := startMosquitto(t)

	cfg := testMQTTConfig()
	cfg.Host = host
	cfg.Port = port
	cfg.PublishTimeout = 5 * time.Second
	cfg.ConnectTimeout = 10 * time.Second

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	subscriber := NewMQTTClient(cfg, "integration-sub", logger.NopLogger())
	require.NoError(t, subscriber.Connect(ctx, nopHandler{}))
	defer subscriber.Disconnect()

	received := make(chan string, 1)
	require.NoError(t, subscriber.Subscribe(ctx, "iPrefix/#", func(_ context.Context, topic string, payload []byte) {
		received <- topic + " " + string(payload)
	}))

	publisher := NewMQTTClient(cfg, "integration-pub", logger.NopLogger())
	require.NoError(t, publisher.Connect(ctx, nopHandler{}))
	defer publisher.Disconnect()

	require.NoError(t, publisher.Publish(ctx, "iPrefix/topic-a", []byte(`{"id":"a"}`)))

	select {
	case got := <-received:
		require.Equal(t, `iPrefix/topic-a {"id":"a"}`, got)
	case <-ctx.Done():
		t.Fatal("message not received")
	}
}
