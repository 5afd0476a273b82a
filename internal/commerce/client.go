// Package commerce talks to the third-party backend commerce system. The
// backend owns orders, payments, and reference data; this client wraps its
// HTTP API behind a narrow interface so the rest of the layer never sees
// transport details. List reads carry denormalized line-item images;
// single-record reads may not. The read resolver exists to paper over that
// asymmetry.
package commerce

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/google/uuid"
	"github.com/sony/gobreaker"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/NHadi/PawSmartMobile-sub001/internal/config"
	"github.com/NHadi/PawSmartMobile-sub001/internal/entity"
)

var (
	// ErrNotFound is returned when the backend has no such record.
	ErrNotFound = errors.New("commerce: record not found")
	// ErrUnavailable is returned for transport failures and 5xx responses.
	ErrUnavailable = errors.New("commerce: backend unavailable")
)

// Query is the canonical shape of an order list read. Result sets are cached
// and probed by this descriptor, so it must stay value-comparable.
type Query struct {
	PartnerID int64
	PageSize  int
}

// Key returns the canonical cache identifier for the query.
func (q Query) Key() string {
	return "partner=" + strconv.FormatInt(q.PartnerID, 10) + ":size=" + strconv.Itoa(q.PageSize)
}

// OrderUpdate is a field-level order write. Nil fields are left untouched;
// the backend applies these idempotently.
type OrderUpdate struct {
	Annotation *string             `json:"annotation,omitempty"`
	State      *entity.NativeState `json:"state,omitempty"`
}

// Client is the backend commerce interface consumed by the rest of the layer.
type Client interface {
	ListOrders(ctx context.Context, q Query) ([]entity.Order, error)
	GetOrder(ctx context.Context, id int64) (*entity.Order, error)
	UpdateOrder(ctx context.Context, id int64, update OrderUpdate) error
	Regions(ctx context.Context, countryID int64) ([]entity.Region, error)
	PostalCodes(ctx context.Context, regionID int64) ([]entity.PostalCode, error)
}

// HTTPClient is the transport seam; tests substitute it.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Module provides the commerce client to the Fx graph.
var Module = fx.Provide(NewHTTPClientFromConfig)

type httpClient struct {
	baseURL string
	apiKey  string
	client  HTTPClient
	breaker *gobreaker.CircuitBreaker
	logger  *zap.Logger
}

// NewHTTPClientFromConfig builds the production client.
func NewHTTPClientFromConfig(cfg config.Config, logger *zap.Logger) Client {
	return NewHTTPClient(cfg.Commerce, &http.Client{Timeout: cfg.Commerce.Timeout}, logger)
}

// NewHTTPClient builds a client over the given transport.
func NewHTTPClient(cfg config.Commerce, transport HTTPClient, logger *zap.Logger) Client {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "commerce",
		Timeout: cfg.BreakerOpenFor,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsSuccessful: func(err error) bool {
			// Missing records are answers, not backend failures.
			return err == nil || errors.Is(err, ErrNotFound)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			if logger != nil {
				logger.Warn("commerce breaker state changed",
					zap.String("from", from.String()),
					zap.String("to", to.String()),
				)
			}
		},
	})

	return &httpClient{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		client:  transport,
		breaker: breaker,
		logger:  logger,
	}
}

func (c *httpClient) ListOrders(ctx context.Context, q Query) ([]entity.Order, error) {
	query := url.Values{}
	query.Set("partner_id", strconv.FormatInt(q.PartnerID, 10))
	query.Set("limit", strconv.Itoa(q.PageSize))

	var payload struct {
		Orders []entity.Order `json:"orders"`
	}
	if err := c.call(ctx, http.MethodGet, "/api/orders?"+query.Encode(), nil, &payload); err != nil {
		return nil, err
	}
	return payload.Orders, nil
}

func (c *httpClient) GetOrder(ctx context.Context, id int64) (*entity.Order, error) {
	var order entity.Order
	if err := c.call(ctx, http.MethodGet, "/api/orders/"+strconv.FormatInt(id, 10), nil, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

func (c *httpClient) UpdateOrder(ctx context.Context, id int64, update OrderUpdate) error {
	return c.call(ctx, http.MethodPatch, "/api/orders/"+strconv.FormatInt(id, 10), update, nil)
}

func (c *httpClient) Regions(ctx context.Context, countryID int64) ([]entity.Region, error) {
	var payload struct {
		Regions []entity.Region `json:"regions"`
	}
	path := "/api/regions?country_id=" + strconv.FormatInt(countryID, 10)
	if err := c.call(ctx, http.MethodGet, path, nil, &payload); err != nil {
		return nil, err
	}
	return payload.Regions, nil
}

func (c *httpClient) PostalCodes(ctx context.Context, regionID int64) ([]entity.PostalCode, error) {
	var payload struct {
		PostalCodes []entity.PostalCode `json:"postal_codes"`
	}
	path := "/api/postal-codes?region_id=" + strconv.FormatInt(regionID, 10)
	if err := c.call(ctx, http.MethodGet, path, nil, &payload); err != nil {
		return nil, err
	}
	return payload.PostalCodes, nil
}

func (c *httpClient) call(ctx context.Context, method, path string, body, out any) error {
	var reqBody *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewReader(raw)
	} else {
		reqBody = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	result, err := c.breaker.Execute(func() (any, error) {
		resp, err := c.client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusNotFound:
			return nil, ErrNotFound
		case resp.StatusCode >= 500:
			return nil, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
		case resp.StatusCode >= 400:
			return nil, fmt.Errorf("commerce: unexpected status %d", resp.StatusCode)
		}

		if out == nil {
			return nil, nil
		}
		var decoded json.RawMessage
		if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
			return nil, fmt.Errorf("commerce: decode response: %w", err)
		}
		return decoded, nil
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		return err
	}

	if out == nil {
		return nil
	}
	raw, _ := result.(json.RawMessage)
	return json.Unmarshal(raw, out)
}
