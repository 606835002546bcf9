package worker

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/spec-kit/finance-service/internal/events"
)

// StartEventForwarder subscribes to every event type and republishes each
// event as JSON, using the event type as routing key. Broker failures are
// logged and never fail the originating request.
func StartEventForwarder(dispatcher events.Dispatcher, publisher events.Publisher, logger *zap.Logger) {
	if dispatcher == nil || publisher == nil {
		return
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	forward := func(ctx context.Context, ev events.Event) error {
		body, err := json.Marshal(ev)
		if err != nil {
			logger.Error("encode event", zap.String("event_id", ev.ID), zap.Error(err))
			return nil
		}
		if err := publisher.Publish(ctx, string(ev.Type), body); err != nil {
			logger.Warn("forward event",
				zap.String("event_id", ev.ID),
				zap.String("type", string(ev.Type)),
				zap.Error(err),
			)
		}
		return nil
	}

	for _, eventType := range events.AllTypes {
		dispatcher.Subscribe(eventType, forward)
	}
}
