package reference

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/NHadi/PawSmartMobile-sub001/internal/dto"
	"github.com/NHadi/PawSmartMobile-sub001/internal/presentation/http/response"
	service "github.com/NHadi/PawSmartMobile-sub001/internal/service/reference"
	"github.com/NHadi/PawSmartMobile-sub001/pkg/errorbank"
)

// Handler exposes reference-data and preference endpoints over HTTP.
type Handler struct {
	svc *service.Service
}

// NewHandler constructs a reference Handler.
func NewHandler(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// Register routes with the provided Echo instance.
func Register(e *echo.Echo, h *Handler) {
	g := e.Group("/reference")
	g.GET("/regions", h.regions)
	g.GET("/postal-codes", h.postalCodes)

	p := e.Group("/preferences")
	p.GET("/default-address", h.getDefaultAddress)
	p.PUT("/default-address", h.setDefaultAddress)
}

func (h *Handler) regions(c echo.Context) error {
	b := response.New(c)

	countryID, err := strconv.ParseInt(c.QueryParam("country_id"), 10, 64)
	if err != nil {
		return b.WithError(errorbank.BadRequest("invalid country_id", errorbank.WithCause(err))).Build()
	}

	regions, err := h.svc.Regions(c.Request().Context(), countryID)
	if err != nil {
		return b.WithError(err).Build()
	}

	out := make([]dto.RegionResponse, 0, len(regions))
	for _, r := range regions {
		out = append(out, dto.RegionResponse{ID: r.ID, Name: r.Name, Code: r.Code})
	}
	return b.WithData(out).Build()
}

func (h *Handler) postalCodes(c echo.Context) error {
	b := response.New(c)

	regionID, err := strconv.ParseInt(c.QueryParam("region_id"), 10, 64)
	if err != nil {
		return b.WithError(errorbank.BadRequest("invalid region_id", errorbank.WithCause(err))).Build()
	}

	postals, err := h.svc.PostalCodes(c.Request().Context(), regionID)
	if err != nil {
		return b.WithError(err).Build()
	}

	out := make([]dto.PostalCodeResponse, 0, len(postals))
	for _, p := range postals {
		out = append(out, dto.PostalCodeResponse{ID: p.ID, Code: p.Code, City: p.City})
	}
	return b.WithData(out).Build()
}

func (h *Handler) getDefaultAddress(c echo.Context) error {
	b := response.New(c)

	id, ok := h.svc.DefaultAddressID(c.Request().Context())
	if !ok {
		return b.WithError(errorbank.NotFound("no default address set")).Build()
	}
	return b.WithData(map[string]int64{"address_id": id}).Build()
}

func (h *Handler) setDefaultAddress(c echo.Context) error {
	b := response.New(c)

	var payload struct {
		AddressID int64 `json:"address_id"`
	}
	if err := c.Bind(&payload); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}

	if err := h.svc.SetDefaultAddressID(c.Request().Context(), payload.AddressID); err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(map[string]int64{"address_id": payload.AddressID}).Build()
}
