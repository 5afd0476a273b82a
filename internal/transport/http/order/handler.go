package order

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/NHadi/PawSmartMobile-sub001/internal/commerce"
	"github.com/NHadi/PawSmartMobile-sub001/internal/dto"
	"github.com/NHadi/PawSmartMobile-sub001/internal/entity"
	"github.com/NHadi/PawSmartMobile-sub001/internal/payment"
	"github.com/NHadi/PawSmartMobile-sub001/internal/presentation/http/response"
	service "github.com/NHadi/PawSmartMobile-sub001/internal/service/order"
	"github.com/NHadi/PawSmartMobile-sub001/pkg/errorbank"
)

var httpTracer = otel.Tracer("github.com/NHadi/PawSmartMobile-sub001/transport/http/order")

const defaultPageSize = 10

// Handler exposes order endpoints over HTTP.
type Handler struct {
	svc *service.Service
}

// NewHandler constructs an order Handler.
func NewHandler(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// Register routes with the provided Echo instance.
func Register(e *echo.Echo, h *Handler) {
	g := e.Group("/orders")
	g.GET("", h.list)
	g.GET("/:id", h.getByID)
	g.PUT("/:id/status", h.setStatus)
	g.PUT("/:id/payment", h.setPayment)
}

func (h *Handler) list(c echo.Context) error {
	b := response.New(c)

	partnerID, err := strconv.ParseInt(c.QueryParam("partner_id"), 10, 64)
	if err != nil {
		return b.WithError(errorbank.BadRequest("invalid partner_id", errorbank.WithCause(err))).Build()
	}
	pageSize := defaultPageSize
	if raw := c.QueryParam("limit"); raw != "" {
		pageSize, err = strconv.Atoi(raw)
		if err != nil || pageSize <= 0 {
			return b.WithError(errorbank.BadRequest("invalid limit")).Build()
		}
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.list", trace.WithAttributes(attribute.Int64("partner.id", partnerID)))
	defer span.End()

	orders, err := h.svc.List(ctx, commerce.Query{PartnerID: partnerID, PageSize: pageSize})
	if err != nil {
		return b.WithError(err).Build()
	}

	out := make([]dto.OrderResponse, 0, len(orders))
	for i := range orders {
		out = append(out, dto.FromOrder(&orders[i], payment.Settled))
	}
	return b.WithData(out).WithMeta("count", len(out)).Build()
}

func (h *Handler) getByID(c echo.Context) error {
	b := response.New(c)

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return b.WithError(errorbank.BadRequest("invalid id", errorbank.WithCause(err))).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.getByID", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	order, err := h.svc.Get(ctx, id)
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithData(dto.FromOrder(order, payment.Settled)).Build()
}

func (h *Handler) setStatus(c echo.Context) error {
	b := response.New(c)

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return b.WithError(errorbank.BadRequest("invalid id", errorbank.WithCause(err))).Build()
	}

	var payload struct {
		Status string `json:"status"`
	}
	if err := c.Bind(&payload); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}
	if payload.Status == "" {
		return b.WithError(errorbank.BadRequest("status is required")).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.setStatus", trace.WithAttributes(
		attribute.Int64("order.id", id),
		attribute.String("order.status", payload.Status),
	))
	defer span.End()

	order, err := h.svc.Get(ctx, id)
	if err != nil {
		return b.WithError(err).Build()
	}
	if err := h.svc.SetStatus(ctx, order, entity.EffectiveStatus(payload.Status)); err != nil {
		return b.WithError(err).Build()
	}

	return b.WithData(dto.FromOrder(order, payment.Settled)).Build()
}

func (h *Handler) setPayment(c echo.Context) error {
	b := response.New(c)

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return b.WithError(errorbank.BadRequest("invalid id", errorbank.WithCause(err))).Build()
	}

	var payload struct {
		Provider   string `json:"provider"`
		ExternalID string `json:"external_id"`
		Status     string `json:"status"`
	}
	if err := c.Bind(&payload); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.setPayment", trace.WithAttributes(
		attribute.Int64("order.id", id),
		attribute.String("payment.provider", payload.Provider),
	))
	defer span.End()

	order, err := h.svc.Get(ctx, id)
	if err != nil {
		return b.WithError(err).Build()
	}
	rec := entity.PaymentRecord{
		Provider:   payload.Provider,
		ExternalID: payload.ExternalID,
		Status:     payload.Status,
	}
	if err := h.svc.SetPayment(ctx, order, rec); err != nil {
		return b.WithError(err).Build()
	}

	return b.WithStatus(http.StatusOK).WithData(dto.FromOrder(order, payment.Settled)).Build()
}
