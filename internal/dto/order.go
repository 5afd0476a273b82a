package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/NHadi/PawSmartMobile-sub001/internal/entity"
)

// OrderResponse is an order as exposed to the consuming view layer. The raw
// annotation never appears here; consumers see only the decoded status and
// payment fields.
type OrderResponse struct {
	ID          int64              `json:"id"`
	PartnerID   int64              `json:"partner_id"`
	Reference   string             `json:"reference"`
	Status      string             `json:"status"`
	StatusLabel string             `json:"status_label"`
	Lines       []LineItemResponse `json:"lines"`
	AmountTax   decimal.Decimal    `json:"amount_tax"`
	AmountTotal decimal.Decimal    `json:"amount_total"`
	Payment     *PaymentResponse   `json:"payment,omitempty"`
	CreatedAt   time.Time          `json:"created_at"`
}

// LineItemResponse is a single order line.
type LineItemResponse struct {
	ProductID int64           `json:"product_id"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Image     string          `json:"image,omitempty"`
}

// PaymentResponse is the active payment attached to an order.
type PaymentResponse struct {
	Provider   string `json:"provider"`
	ExternalID string `json:"external_id"`
	Status     string `json:"status"`
	Settled    bool   `json:"settled"`
}

// FromOrder maps a decorated order onto the transport shape.
func FromOrder(order *entity.Order, settled func(entity.PaymentRecord) bool) OrderResponse {
	resp := OrderResponse{
		ID:          order.ID,
		PartnerID:   order.PartnerID,
		Reference:   order.Reference,
		Status:      string(order.Status),
		StatusLabel: order.StatusLabel,
		AmountTax:   order.AmountTax,
		AmountTotal: order.AmountTotal,
		CreatedAt:   order.CreatedAt,
	}
	for _, line := range order.Lines {
		resp.Lines = append(resp.Lines, LineItemResponse{
			ProductID: line.ProductID,
			Name:      line.Name,
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice,
			Image:     line.Image,
		})
	}
	if order.Payment != nil {
		resp.Payment = &PaymentResponse{
			Provider:   order.Payment.Provider,
			ExternalID: order.Payment.ExternalID,
			Status:     order.Payment.Status,
			Settled:    settled(*order.Payment),
		}
	}
	return resp
}

// RegionResponse is an administrative region.
type RegionResponse struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Code string `json:"code"`
}

// PostalCodeResponse is a postal code within a region.
type PostalCodeResponse struct {
	ID   int64  `json:"id"`
	Code string `json:"code"`
	City string `json:"city"`
}
