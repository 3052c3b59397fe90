package main

import (
	"context"
	"fmt"

	"supplement/internal/config"
	"supplement/internal/constants"
	"supplement/internal/logger"
	"supplement/internal/simulator"
	"supplement/pkg/bootstrap"
	"supplement/pkg/cel"
	"supplement/pkg/metrics"
	"supplement/pkg/tracing"
)

type App struct {
	*bootstrap.Base
	simulator      *simulator.Simulator
	tracerProvider *tracing.TracerProvider
}

func NewApp(cfg *config.Config, log logger.Logger) *App {
	return &App{
		Base: bootstrap.NewBase(cfg, log, constants.ServiceNameWebApp),
	}
}

func (a *App) Initialize(ctx context.Context) error {
	tp, err := tracing.Init(a.Config.Tracing, constants.ServiceNameWebApp)
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}
	a.tracerProvider = tp

	metrics.RegisterBrokerMetrics()
	metrics.RegisterSimulatorMetrics()

	eval, err := cel.NewEvaluator()
	if err != nil {
		return err
	}
	invariants, err := cel.NewInvariantSet(eval, cel.ResultInvariants)
	if err != nil {
		return fmt.Errorf("failed to compile result invariants: %w", err)
	}

	if err := a.InitBroker(); err != nil {
		return fmt.Errorf("failed to initialize broker: %w", err)
	}

	a.simulator = simulator.New(a.Bus, a.Config.Broker.MQTT, a.Config.Simulator, invariants, a.Logger)
	return nil
}

func (a *App) Run(ctx context.Context) (simulator.Summary, error) {
	return a.simulator.Run(ctx)
}

func (a *App) Shutdown(ctx context.Context) error {
	return a.Base.Shutdown(ctx, func(ctx context.Context) []error {
		if a.tracerProvider == nil {
			return nil
		}
		shutdownCtx, cancel := context.WithTimeout(ctx, constants.ShutdownTimeout)
		defer cancel()
		if err := a.tracerProvider.Shutdown(shutdownCtx); err != nil {
			return []error{fmt.Errorf("tracer provider shutdown error: %w", err)}
		}
		return nil
	})
}
