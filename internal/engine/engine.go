package engine

import (
	"context"
	stderrors "errors"
	"fmt"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/codes"

	"supplement/internal/broker"
	"supplement/internal/constants"
	"supplement/internal/eligibility"
	"supplement/internal/logger"
	"supplement/pkg/errors"
	"supplement/pkg/logging"
	"supplement/pkg/metrics"
	"supplement/pkg/tracing"
)

type State int32

const (
	Disconnected State = iota
	Connected
	Subscribed
)

func (s State) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connected:
		return "connected"
	case Subscribed:
		return "subscribed"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// Engine subscribes below the input prefix and answers every valid input
// record with exactly one result on the output prefix.
type Engine struct {
	bus      broker.Client
	decoder  *eligibility.Decoder
	encoder  *eligibility.Encoder
	evaluate func(eligibility.InputRecord) eligibility.OutputRecord
	logger   logger.Logger
	state    atomic.Int32
}

func New(bus broker.Client, decoder *eligibility.Decoder, encoder *eligibility.Encoder, log logger.Logger) *Engine {
	return &Engine{
		bus:      bus,
		decoder:  decoder,
		encoder:  encoder,
		evaluate: eligibility.Evaluate,
		logger:   log,
	}
}

func (e *Engine) State() State {
	return State(e.state.Load())
}

// Ready reports an error unless the engine holds an active subscription.
func (e *Engine) Ready() error {
	if s := e.State(); s != Subscribed {
		return fmt.Errorf("engine is %s", s)
	}
	return nil
}

func (e *Engine) setState(s State) {
	e.state.Store(int32(s))
	metrics.SetConnectionState(constants.ServiceNameRuleEngine, int(s))
}

// Run connects and serves until ctx is canceled. A failed initial connect
// is returned so the process can exit non-zero.
func (e *Engine) Run(ctx context.Context) error {
	ctx = logging.WithServiceName(ctx, constants.ServiceNameRuleEngine)
	defer e.setState(Disconnected)

	if err := e.bus.Connect(ctx, e); err != nil {
		e.bus.Disconnect()
		return fmt.Errorf("failed to connect to broker: %w", err)
	}

	<-ctx.Done()
	e.logger.InfowCtx(ctx, "Engine: shutting down")
	e.bus.Disconnect()
	return nil
}

func (e *Engine) OnConnect(ctx context.Context, err error) {
	if err != nil {
		e.setState(Disconnected)

		kv := []interface{}{"error", err}
		var connErr *broker.ConnectError
		if stderrors.As(err, &connErr) {
			kv = append(kv, "reason_code", connErr.ReturnCode)
		}
		e.logger.ErrorwCtx(ctx, "Engine: connection failed", kv...)
		return
	}

	e.setState(Connected)
	e.logger.InfowCtx(ctx, "Engine: connected successfully")

	filter := e.decoder.SubscriptionFilter()
	if err := e.bus.Subscribe(ctx, filter, e.onMessage); err != nil {
		e.setState(Disconnected)
		e.logger.ErrorwCtx(ctx, "Engine: connection failed",
			"error", err,
			"filter", filter,
		)
		return
	}

	e.setState(Subscribed)
	e.logger.InfowCtx(ctx, "Engine: subscribed", "filter", filter)
}

func (e *Engine) OnConnectionLost(ctx context.Context, err error) {
	e.setState(Disconnected)
	e.logger.WarnwCtx(ctx, "Engine: connection lost", "error", err)
}

func (e *Engine) onMessage(ctx context.Context, topic string, payload []byte) {
	_ = e.HandleMessage(ctx, topic, payload)
}

// HandleMessage decodes, evaluates and publishes one message. Invalid
// messages are logged and dropped; the returned error is informational.
func (e *Engine) HandleMessage(ctx context.Context, topic string, payload []byte) (err error) {
	ctx = logging.WithTopic(ctx, topic)
	ctx, span := tracing.StartMessageSpan(ctx, constants.ServiceNameRuleEngine, topic)
	defer span.End()

	start := time.Now()
	status := metrics.StatusPublished

	defer func() {
		if r := recover(); r != nil {
			err = errors.RecoverPanic(r)
			status = metrics.StatusInternalError
			e.logger.ErrorwCtx(ctx, "Engine: recovered from panic while handling message",
				"error", err,
			)
		}
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, errors.Code(err))
		}
		metrics.IncEngineMessages(status)
		metrics.ObserveEngineDuration(time.Since(start), status)
	}()

	e.logger.InfowCtx(ctx, "Engine: received message", "payload", string(payload))

	id, record, err := e.decoder.Decode(topic, payload)
	if err != nil {
		status = decodeStatus(err)
		e.logger.ErrorwCtx(ctx, "Engine: dropped invalid message",
			"error_code", errors.Code(err),
			"error", err,
			"fields", errors.Fields(err),
		)
		return err
	}
	ctx = logging.WithTopicID(ctx, id)

	out := e.evaluate(record)
	metrics.IncEligibility(out.IsEligible, string(record.FamilyComposition))

	outTopic, body, err := e.encoder.Encode(id, out)
	if err != nil {
		status = metrics.StatusInternalError
		e.logger.ErrorwCtx(ctx, "Engine: failed to encode result", "error", err)
		return errors.ErrInternal.WithCause(err)
	}

	if err := e.bus.Publish(ctx, outTopic, body); err != nil {
		status = metrics.StatusPublishFailed
		e.logger.ErrorwCtx(ctx, "Engine: failed to publish result",
			"error", err,
			"output_topic", outTopic,
		)
		return err
	}

	e.logger.InfowCtx(ctx, "Engine: published result",
		"output_topic", outTopic,
		"payload", string(body),
	)
	return nil
}

func decodeStatus(err error) string {
	switch {
	case errors.IsInvalidTopic(err):
		return metrics.StatusInvalidTopic
	case errors.IsMalformedPayload(err):
		return metrics.StatusMalformedPayload
	case errors.IsValidation(err):
		return metrics.StatusValidationError
	default:
		return metrics.StatusInternalError
	}
}
