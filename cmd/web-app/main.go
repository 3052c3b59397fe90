package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"supplement/internal/config"
	"supplement/internal/constants"
	"supplement/internal/logger"
	"supplement/pkg/logging"
)

var (
	configFile string
	strict     bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   constants.ServiceNameWebApp,
		Short: "Winter supplement request simulator",
		Long:  "Web app simulator publishes sample eligibility requests and checks the results the rule engine returns",
		RunE:  runCmd().RunE,
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Path to a dotenv config file (default .env when present)")
	rootCmd.PersistentFlags().BoolVar(&strict, "strict", false, "Exit non-zero when a result is missing or violates an invariant")

	rootCmd.AddCommand(runCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Publish the sample cases once",
		RunE: func(cmd *cobra.Command, args []string) error {
			earlyLog := logging.NewEarlyLog()

			if configFile == "" {
				configFile = os.Getenv("CONFIG_FILE")
			}

			cfg, err := config.Load(configFile, constants.ServiceNameWebApp)
			if err != nil {
				earlyLog.Error("Failed to load config: %v", err)
				return err
			}

			log, err := logger.New(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.File)
			if err != nil {
				earlyLog.Error("Failed to init logger: %v", err)
				return err
			}
			defer log.Sync()

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()
			ctx = logging.WithServiceName(ctx, constants.ServiceNameWebApp)

			log.InfowCtx(ctx, "Starting web app simulator",
				"input_prefix", cfg.Broker.MQTT.InputTopicPrefix,
				"output_prefix", cfg.Broker.MQTT.OutputTopicPrefix,
				"interval", cfg.Simulator.Interval,
			)

			app := NewApp(cfg, log)
			if err := app.Initialize(ctx); err != nil {
				log.ErrorwCtx(ctx, "Failed to initialize application", "error", err)
				return fmt.Errorf("failed to initialize application: %w", err)
			}

			summary, runErr := app.Run(ctx)
			if err := app.Shutdown(context.Background()); err != nil {
				log.ErrorwCtx(ctx, "Shutdown finished with errors", "error", err)
			}
			if runErr != nil && runErr != context.Canceled {
				log.ErrorwCtx(ctx, "Simulator stopped with error", "error", runErr)
				return runErr
			}

			if strict && (len(summary.Missing) > 0 || summary.Violations > 0) {
				return fmt.Errorf("%d missing results, %d invariant violations", len(summary.Missing), summary.Violations)
			}
			return nil
		},
	}
}
