package order

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/NHadi/PawSmartMobile-sub001/internal/commerce"
	"github.com/NHadi/PawSmartMobile-sub001/internal/config"
	"github.com/NHadi/PawSmartMobile-sub001/internal/entity"
	"github.com/NHadi/PawSmartMobile-sub001/internal/messaging"
	"github.com/NHadi/PawSmartMobile-sub001/internal/payment"
	"github.com/NHadi/PawSmartMobile-sub001/internal/resolver"
	"github.com/NHadi/PawSmartMobile-sub001/internal/status"
	"github.com/NHadi/PawSmartMobile-sub001/pkg/errorbank"
)

var serviceTracer = otel.Tracer("github.com/NHadi/PawSmartMobile-sub001/service/order")

// Service exposes decoded, image-enriched-where-possible order views to the
// consuming layer. Raw annotations and cache internals never leave it.
type Service struct {
	resolver  *resolver.Resolver
	client    commerce.Client
	publisher messaging.Client
	logger    *zap.Logger
	messaging messagingConfig
}

type messagingConfig struct {
	enabled bool
	topic   string
}

// Params defines dependencies for constructing Service.
type Params struct {
	fx.In

	Resolver  *resolver.Resolver
	Client    commerce.Client
	Publisher messaging.Client
	Config    config.Config
	Logger    *zap.Logger
}

// NewService wires a new Service instance.
func NewService(p Params) *Service {
	return &Service{
		resolver:  p.Resolver,
		client:    p.Client,
		publisher: p.Publisher,
		logger:    p.Logger,
		messaging: messagingConfig{
			enabled: p.Config.Messaging.Enabled,
			topic:   p.Config.Messaging.Kafka.Topic,
		},
	}
}

// Get resolves and decorates a single order.
func (s *Service) Get(ctx context.Context, id int64) (*entity.Order, error) {
	ctx, span := serviceTracer.Start(ctx, "OrderService.Get", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	order, err := s.resolver.GetOrder(ctx, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "resolution failed")
		return nil, err
	}

	s.decorate(order)
	return order, nil
}

// List returns the decorated result set for the query.
func (s *Service) List(ctx context.Context, q commerce.Query) ([]entity.Order, error) {
	ctx, span := serviceTracer.Start(ctx, "OrderService.List", trace.WithAttributes(
		attribute.Int64("query.partner_id", q.PartnerID),
		attribute.Int("query.page_size", q.PageSize),
	))
	defer span.End()

	orders, err := s.resolver.ListOrders(ctx, q)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "resolution failed")
		return nil, err
	}

	for i := range orders {
		s.decorate(&orders[i])
	}
	return orders, nil
}

// SetStatus writes a new effective status onto the order. The lifecycle tag
// replaces any previous one; the payment line, if present, stays untouched.
// Write failures surface directly with no local rollback or retry; the codec
// holds no state to roll back.
func (s *Service) SetStatus(ctx context.Context, order *entity.Order, target entity.EffectiveStatus) error {
	if order == nil {
		return errorbank.BadRequest("order is required")
	}
	ctx, span := serviceTracer.Start(ctx, "OrderService.SetStatus", trace.WithAttributes(
		attribute.Int64("order.id", order.ID),
		attribute.String("order.status", string(target)),
	))
	defer span.End()

	enc := status.Encode(target, order.Annotation)
	update := commerce.OrderUpdate{Annotation: &enc.Annotation}
	if enc.StateChanged {
		update.State = &enc.State
	}

	if err := s.client.UpdateOrder(ctx, order.ID, update); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "backend write failed")
		return errorbank.Internal("failed to write order status", errorbank.WithCause(err))
	}

	order.Annotation = enc.Annotation
	if enc.StateChanged {
		order.State = enc.State
	}
	s.decorate(order)

	s.resolver.Invalidate(ctx, order.PartnerID)
	s.publish(ctx, order.ID, StatusChangedEvent{
		OrderID:   order.ID,
		Status:    order.Status,
		Label:     order.StatusLabel,
		ChangedAt: time.Now().UTC(),
	})
	return nil
}

// SetPayment records the single active payment for the order, replacing any
// previous payment line while leaving the lifecycle tag alone.
func (s *Service) SetPayment(ctx context.Context, order *entity.Order, rec entity.PaymentRecord) error {
	if order == nil {
		return errorbank.BadRequest("order is required")
	}
	if rec.Provider == "" || rec.ExternalID == "" {
		return errorbank.BadRequest("payment provider and external id are required")
	}
	ctx, span := serviceTracer.Start(ctx, "OrderService.SetPayment", trace.WithAttributes(
		attribute.Int64("order.id", order.ID),
		attribute.String("payment.provider", rec.Provider),
	))
	defer span.End()

	annotation := payment.Encode(rec, order.Annotation)
	if err := s.client.UpdateOrder(ctx, order.ID, commerce.OrderUpdate{Annotation: &annotation}); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "backend write failed")
		return errorbank.Internal("failed to write order payment", errorbank.WithCause(err))
	}

	order.Annotation = annotation
	s.decorate(order)

	s.resolver.Invalidate(ctx, order.PartnerID)
	s.publish(ctx, order.ID, PaymentSetEvent{
		OrderID:    order.ID,
		Provider:   rec.Provider,
		ExternalID: rec.ExternalID,
		Status:     rec.Status,
		Settled:    payment.Settled(rec),
	})
	return nil
}

// decorate derives the effective status and payment view from the backend
// fields. Derived fields are the only ones consumers may rely on.
func (s *Service) decorate(order *entity.Order) {
	decoded := status.Decode(order.State, order.Annotation)
	order.Status = decoded.Status
	order.StatusLabel = decoded.Label

	if rec, ok := payment.Decode(order.Annotation); ok {
		order.Payment = &rec
	} else {
		order.Payment = nil
	}
}

func (s *Service) publish(ctx context.Context, orderID int64, event any) {
	if !s.messaging.enabled || s.publisher == nil {
		return
	}
	value, err := json.Marshal(event)
	if err != nil {
		if s.logger != nil {
			s.logger.Error("marshal order event", zap.Error(err))
		}
		return
	}
	key := []byte(fmt.Sprintf("order-%d", orderID))
	if err := s.publisher.Publish(ctx, key, value); err != nil {
		if s.logger != nil {
			s.logger.Error("publish order event", zap.Error(err))
		}
	}
}

// StatusChangedEvent is emitted after a successful status write.
type StatusChangedEvent struct {
	OrderID   int64                  `json:"order_id"`
	Status    entity.EffectiveStatus `json:"status"`
	Label     string                 `json:"label"`
	ChangedAt time.Time              `json:"changed_at"`
}

// PaymentSetEvent is emitted after a successful payment write.
type PaymentSetEvent struct {
	OrderID    int64  `json:"order_id"`
	Provider   string `json:"provider"`
	ExternalID string `json:"external_id"`
	Status     string `json:"status"`
	Settled    bool   `json:"settled"`
}
