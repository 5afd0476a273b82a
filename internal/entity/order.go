package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// NativeState is the backend commerce system's own order state. The backend
// exposes exactly these five values and cannot be extended.
type NativeState string

const (
	StateDraft     NativeState = "draft"
	StateSent      NativeState = "sent"
	StateConfirmed NativeState = "confirmed"
	StateDone      NativeState = "done"
	StateCancelled NativeState = "cancelled"
)

// EffectiveStatus is the richer order status the client exposes. It covers
// the five native states plus the extended lifecycle encoded into the order
// annotation. The type is open: decoding an unrecognized tag yields an ad hoc
// status carrying the lower-cased tag.
type EffectiveStatus string

const (
	StatusDraft             EffectiveStatus = "draft"
	StatusSent              EffectiveStatus = "sent"
	StatusConfirmed         EffectiveStatus = "confirmed"
	StatusDone              EffectiveStatus = "done"
	StatusCancelled         EffectiveStatus = "cancelled"
	StatusWaitingPayment    EffectiveStatus = "waiting_payment"
	StatusPaymentConfirmed  EffectiveStatus = "payment_confirmed"
	StatusPendingReview     EffectiveStatus = "pending_review"
	StatusApproved          EffectiveStatus = "approved"
	StatusProcessing        EffectiveStatus = "processing"
	StatusShipped           EffectiveStatus = "shipped"
	StatusDelivered         EffectiveStatus = "delivered"
	StatusReturnCancelled   EffectiveStatus = "return_cancelled"
	StatusInspectionPending EffectiveStatus = "inspection_pending"
)

// LineItem is a single order line. Image carries the denormalized product
// image payload; the backend omits it on single-record reads, so it may be
// empty depending on which read path produced the order.
type LineItem struct {
	ProductID int64           `json:"product_id"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Image     string          `json:"image,omitempty"`
}

// Order is a backend commerce order. State and Annotation are backend-owned;
// Status, StatusLabel, and Payment are derived by the decoding layer and never
// written back verbatim.
type Order struct {
	ID          int64           `json:"id"`
	PartnerID   int64           `json:"partner_id"`
	Reference   string          `json:"reference"`
	State       NativeState     `json:"state"`
	Annotation  string          `json:"annotation"`
	Lines       []LineItem      `json:"lines"`
	AmountTax   decimal.Decimal `json:"amount_tax"`
	AmountTotal decimal.Decimal `json:"amount_total"`
	CreatedAt   time.Time       `json:"created_at"`

	Status      EffectiveStatus `json:"status,omitempty"`
	StatusLabel string          `json:"status_label,omitempty"`
	Payment     *PaymentRecord  `json:"payment,omitempty"`
}

// PaymentRecord is the single active payment attached to an order. At most
// one record exists per order at a time; writing a new one replaces it.
type PaymentRecord struct {
	Provider   string `json:"provider"`
	ExternalID string `json:"external_id"`
	Status     string `json:"status"`
}

// HasImages reports whether any line item carries an image payload. List
// reads are the only path that reliably populates images.
func (o *Order) HasImages() bool {
	for _, line := range o.Lines {
		if line.Image != "" {
			return true
		}
	}
	return false
}

// Region is an administrative region used for address entry.
type Region struct {
	ID        int64  `json:"id"`
	CountryID int64  `json:"country_id"`
	Name      string `json:"name"`
	Code      string `json:"code"`
}

// PostalCode is a postal code attached to a region.
type PostalCode struct {
	ID       int64  `json:"id"`
	RegionID int64  `json:"region_id"`
	Code     string `json:"code"`
	City     string `json:"city"`
}
