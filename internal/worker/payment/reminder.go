package payment

import (
	"context"
	"encoding/json"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/NHadi/PawSmartMobile-sub001/internal/config"
	"github.com/NHadi/PawSmartMobile-sub001/internal/messaging"
	ordersvc "github.com/NHadi/PawSmartMobile-sub001/internal/service/order"
	"github.com/NHadi/PawSmartMobile-sub001/internal/worker"
)

var workerTracer = otel.Tracer("github.com/NHadi/PawSmartMobile-sub001/worker/payment")

// Module registers the payment reminder handler.
var Module = fx.Module("worker_payment",
	fx.Provide(
		fx.Annotate(
			NewReminderHandler,
			fx.ResultTags(`group:"worker.handlers"`),
		),
	),
)

// NewReminderHandler consumes payment events and flags orders whose payment
// is still pending. Unknown provider statuses count as pending.
func NewReminderHandler(logger *zap.Logger, cfg config.Config) worker.HandlerRegistration {
	handler := func(ctx context.Context, msg messaging.Message) error {
		ctx, span := workerTracer.Start(ctx, "worker.payment.process", trace.WithAttributes(
			attribute.String("messaging.topic", msg.Topic),
		))
		defer span.End()

		var event ordersvc.PaymentSetEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			logger.Error("failed to decode payment event", zap.Error(err))

			span.RecordError(err)
			span.SetStatus(codes.Error, "decode error")
			return err
		}
		if event.Provider == "" {
			// Not a payment event; the topic carries status changes too.
			return nil
		}

		if event.Settled {
			logger.Info("payment settled",
				zap.Int64("order_id", event.OrderID),
				zap.String("provider", event.Provider),
			)
			return nil
		}

		logger.Info("payment pending; reminder scheduled",
			zap.Int64("order_id", event.OrderID),
			zap.String("provider", event.Provider),
			zap.String("status", event.Status),
		)
		return nil
	}

	return worker.HandlerRegistration{
		Topic:   cfg.Messaging.Kafka.Topic,
		Handler: handler,
	}
}
