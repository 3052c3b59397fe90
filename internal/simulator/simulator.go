package simulator

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"

	"supplement/internal/broker"
	"supplement/internal/config"
	"supplement/internal/constants"
	"supplement/internal/logger"
	"supplement/pkg/cel"
	"supplement/pkg/logging"
	"supplement/pkg/metrics"
	"supplement/pkg/retry"
)

// Summary describes one completed run.
type Summary struct {
	Published  int
	Received   int
	Violations int
	// Missing lists the topic ids of valid cases that got no result.
	Missing []string
}

// Simulator plays the web app: it publishes the canonical cases to the
// input prefix and checks whatever arrives on the output prefix.
type Simulator struct {
	bus          broker.Client
	inputPrefix  string
	outputPrefix string
	wait         time.Duration
	limiter      *rate.Limiter
	policy       retry.Policy
	invariants   *cel.InvariantSet
	logger       logger.Logger

	connected chan struct{}
	once      sync.Once

	mu         sync.Mutex
	inputs     map[string]map[string]interface{}
	expected   map[string]bool
	received   int
	violations int
}

func New(bus broker.Client, mqttCfg config.MQTTConfig, simCfg config.SimulatorConfig, invariants *cel.InvariantSet, log logger.Logger) *Simulator {
	limit := rate.Inf
	if simCfg.Interval > 0 {
		limit = rate.Every(simCfg.Interval)
	}

	return &Simulator{
		bus:          bus,
		inputPrefix:  mqttCfg.InputTopicPrefix,
		outputPrefix: mqttCfg.OutputTopicPrefix,
		wait:         simCfg.Wait,
		limiter:      rate.NewLimiter(limit, 1),
		policy:       retry.PolicyFromConfig(simCfg.Retry),
		invariants:   invariants,
		logger:       log,
		connected:    make(chan struct{}),
		inputs:       make(map[string]map[string]interface{}),
		expected:     make(map[string]bool),
	}
}

func (s *Simulator) OnConnect(ctx context.Context, err error) {
	if err != nil {
		s.logger.ErrorwCtx(ctx, "Simulator: connection failed", "error", err)
		return
	}

	filter := s.outputPrefix + constants.MultiLevelWildcard
	if err := s.bus.Subscribe(ctx, filter, s.HandleResult); err != nil {
		s.logger.ErrorwCtx(ctx, "Simulator: subscribe failed", "error", err, "filter", filter)
		return
	}

	s.logger.InfowCtx(ctx, "Simulator: connected", "filter", filter)
	s.once.Do(func() { close(s.connected) })
}

func (s *Simulator) OnConnectionLost(ctx context.Context, err error) {
	s.logger.WarnwCtx(ctx, "Simulator: connection lost", "error", err)
}

// Run publishes every case once, keeps listening for the configured wait
// and disconnects.
func (s *Simulator) Run(ctx context.Context) (Summary, error) {
	ctx = logging.WithServiceName(ctx, constants.ServiceNameWebApp)
	defer s.bus.Disconnect()

	if err := s.bus.Connect(ctx, s); err != nil {
		return Summary{}, fmt.Errorf("failed to connect to broker: %w", err)
	}

	select {
	case <-s.connected:
	case <-ctx.Done():
		return Summary{}, ctx.Err()
	}

	var summary Summary
	for _, c := range Cases(s.inputPrefix) {
		if err := s.limiter.Wait(ctx); err != nil {
			return s.summarize(summary), err
		}

		if err := s.publish(ctx, c); err != nil {
			s.logger.ErrorwCtx(ctx, "Simulator: giving up on case",
				"case", c.Name,
				"topic", c.Topic,
				"error", err,
			)
			continue
		}
		summary.Published++
	}

	if s.wait > 0 {
		s.logger.InfowCtx(ctx, "Simulator: waiting for results", "wait", s.wait)
		timer := time.NewTimer(s.wait)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
		}
	}

	summary = s.summarize(summary)
	for _, id := range summary.Missing {
		s.logger.WarnwCtx(ctx, "Simulator: no result received", "topic_id", id)
	}
	s.logger.InfowCtx(ctx, "Simulator: run complete",
		"published", summary.Published,
		"received", summary.Received,
		"violations", summary.Violations,
	)
	return summary, nil
}

func (s *Simulator) publish(ctx context.Context, c Case) error {
	id := strings.TrimPrefix(c.Topic, s.inputPrefix)
	if c.ExpectResult {
		input, _ := gjson.ParseBytes(c.Payload).Value().(map[string]interface{})
		s.mu.Lock()
		s.inputs[id] = input
		s.expected[id] = true
		s.mu.Unlock()
	}

	err := retry.RetryWithCallback(ctx, s.policy, func() error {
		return s.bus.Publish(ctx, c.Topic, c.Payload)
	}, func(attempt int, err error, next time.Duration) {
		metrics.IncRetryAttempt(constants.ServiceNameWebApp, "publish")
		s.logger.WarnwCtx(ctx, "Simulator: publish failed, retrying",
			"attempt", attempt,
			"next_delay", next,
			"error", err,
		)
	})
	if err != nil {
		s.mu.Lock()
		delete(s.expected, id)
		s.mu.Unlock()
		return err
	}

	s.logger.InfowCtx(ctx, "Simulator: published",
		"case", c.Name,
		"topic", c.Topic,
		"payload", string(c.Payload),
	)
	return nil
}

// HandleResult logs one result and checks it against the invariants for
// the input that produced it.
func (s *Simulator) HandleResult(ctx context.Context, topic string, payload []byte) {
	s.logger.InfowCtx(ctx, "Simulator: received result", "payload", string(payload))

	id := strings.TrimPrefix(topic, s.outputPrefix)

	s.mu.Lock()
	s.received++
	input, known := s.inputs[id]
	delete(s.expected, id)
	s.mu.Unlock()

	if !known {
		s.logger.WarnwCtx(ctx, "Simulator: result for unknown input", "topic_id", id)
		return
	}

	result, ok := gjson.ParseBytes(payload).Value().(map[string]interface{})
	if !ok {
		s.recordViolation(ctx, "result_is_object", id)
		return
	}

	violated, err := s.invariants.Check(ctx, input, result)
	if err != nil {
		s.logger.ErrorwCtx(ctx, "Simulator: invariant evaluation failed", "error", err, "topic_id", id)
	}
	for _, name := range violated {
		s.recordViolation(ctx, name, id)
	}
}

func (s *Simulator) recordViolation(ctx context.Context, invariant, id string) {
	metrics.IncInvariantViolation(invariant)
	s.mu.Lock()
	s.violations++
	s.mu.Unlock()
	s.logger.ErrorwCtx(ctx, "Simulator: result violates invariant",
		"invariant", invariant,
		"topic_id", id,
	)
}

func (s *Simulator) summarize(summary Summary) Summary {
	s.mu.Lock()
	defer s.mu.Unlock()

	summary.Received = s.received
	summary.Violations = s.violations
	summary.Missing = summary.Missing[:0]
	for _, c := range Cases(s.inputPrefix) {
		id := strings.TrimPrefix(c.Topic, s.inputPrefix)
		if s.expected[id] {
			summary.Missing = append(summary.Missing, id)
		}
	}
	return summary
}
