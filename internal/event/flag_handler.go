package event

import (
	"context"
	"crm-bridge/internal/domain/contact"
	"encoding/json"
	"log/slog"
	"strings"

	amqp "github.com/rabbitmq/amqp091-go"
)

type FlagEventHandler struct {
	service contact.ContactService
	logger  *slog.Logger
}

func NewFlagEventHandler(service contact.ContactService, logger *slog.Logger) *FlagEventHandler {
	if service == nil {
		panic("contact service cannot be nil")
	}
	return &FlagEventHandler{
		service: service,
		logger:  logger.With("component", "FlagEventHandler"),
	}
}

// HandleDelivery applies one flag request. Failed deliveries are dropped
// without requeue; redelivery is left to the broker's dead-letter setup.
func (h *FlagEventHandler) HandleDelivery(ctx context.Context, d amqp.Delivery) {
	logCtx := h.logger.With(slog.Uint64("deliveryTag", d.DeliveryTag), slog.String("routingKey", d.RoutingKey))

	if d.RoutingKey != RoutingKeyFlagRequested {
		logCtx.WarnContext(ctx, "Received message with unknown routing key. Discarding.")
		_ = d.Reject(false)
		return
	}

	var req FlagRequestedEvent
	if err := json.Unmarshal(d.Body, &req); err != nil {
		logCtx.ErrorContext(ctx, "Failed to unmarshal FlagRequestedEvent", "error", err, "body", string(d.Body))
		_ = d.Nack(false, false)
		return
	}
	if strings.TrimSpace(req.Email) == "" || strings.TrimSpace(req.Field) == "" {
		logCtx.ErrorContext(ctx, "FlagRequestedEvent is missing email or field")
		_ = d.Nack(false, false)
		return
	}

	logCtx = logCtx.With(slog.String("email", req.Email), slog.String("field", req.Field))
	logCtx.InfoContext(ctx, "Processing flag request")

	result, err := h.service.SetFlag(ctx, req.Email, req.Field, req.Value)
	if err != nil {
		logCtx.ErrorContext(ctx, "Failed to set flag", "error", err)
		_ = d.Nack(false, false)
		return
	}

	if err := d.Ack(false); err != nil {
		logCtx.ErrorContext(ctx, "Failed to acknowledge message after processing", "error", err)
		return
	}
	logCtx.InfoContext(ctx, "Processed and acknowledged flag request", slog.Bool("registered", result.Registered), slog.String("result", result.String()))
}
