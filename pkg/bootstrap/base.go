package bootstrap

import (
	"context"
	"fmt"

	"supplement/internal/broker"
	"supplement/internal/config"
	"supplement/internal/logger"
	"supplement/pkg/logging"
)

// Base carries what every service binary needs: its configuration, a
// logger and one bus client.
type Base struct {
	Config      *config.Config
	Logger      logger.Logger
	Bus         broker.Client
	ServiceName string
}

func NewBase(cfg *config.Config, log logger.Logger, serviceName string) *Base {
	if sugaredLogger, ok := log.(*logger.SugaredLogger); ok {
		sugaredLogger.SetServiceName(serviceName)
	}
	return &Base{
		Config:      cfg,
		Logger:      log,
		ServiceName: serviceName,
	}
}

func (b *Base) InitBroker() error {
	bus, err := broker.NewClient(b.Config.Broker, b.ServiceName, b.Logger)
	if err != nil {
		return fmt.Errorf("failed to create bus client: %w", err)
	}
	b.Bus = bus
	return nil
}

func (b *Base) ShutdownBroker() {
	if b.Bus != nil {
		b.Bus.Disconnect()
	}
}

func (b *Base) Shutdown(ctx context.Context, additionalShutdown func(ctx context.Context) []error) error {
	ctx = logging.WithServiceName(ctx, b.ServiceName)
	b.Logger.InfowCtx(ctx, "Shutting down application")

	b.ShutdownBroker()

	var errs []error
	if additionalShutdown != nil {
		errs = append(errs, additionalShutdown(ctx)...)
	}

	if len(errs) > 0 {
		return fmt.Errorf("shutdown errors: %v", errs)
	}

	b.Logger.InfowCtx(ctx, "Application exited successfully")
	return nil
}
