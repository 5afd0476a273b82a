package commerce

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/NHadi/PawSmartMobile-sub001/internal/config"
	"github.com/NHadi/PawSmartMobile-sub001/internal/entity"
)

type fakeTransport struct {
	mu       sync.Mutex
	requests []*http.Request
	bodies   [][]byte
	respond  func(req *http.Request) (*http.Response, error)
}

func (f *fakeTransport) Do(req *http.Request) (*http.Response, error) {
	var body []byte
	if req.Body != nil {
		body, _ = io.ReadAll(req.Body)
	}
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.bodies = append(f.bodies, body)
	f.mu.Unlock()
	return f.respond(req)
}

func (f *fakeTransport) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

func respondWith(status int, body string) func(*http.Request) (*http.Response, error) {
	return func(*http.Request) (*http.Response, error) {
		return &http.Response{
			StatusCode: status,
			Body:       io.NopCloser(strings.NewReader(body)),
		}, nil
	}
}

func newTestClient(transport *fakeTransport) Client {
	return NewHTTPClient(config.Commerce{
		BaseURL:        "https://commerce.test",
		APIKey:         "secret",
		BreakerOpenFor: time.Minute,
	}, transport, zap.NewNop())
}

func TestListOrders(t *testing.T) {
	transport := &fakeTransport{
		respond: respondWith(http.StatusOK, `{"orders":[{"id":42,"partner_id":7,"reference":"SO042","state":"confirmed"}]}`),
	}
	client := newTestClient(transport)

	orders, err := client.ListOrders(context.Background(), Query{PartnerID: 7, PageSize: 10})

	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, int64(42), orders[0].ID)
	assert.Equal(t, entity.StateConfirmed, orders[0].State)

	require.Equal(t, 1, transport.count())
	req := transport.requests[0]
	assert.Equal(t, "/api/orders", req.URL.Path)
	assert.Equal(t, "7", req.URL.Query().Get("partner_id"))
	assert.Equal(t, "10", req.URL.Query().Get("limit"))
	assert.Equal(t, "Bearer secret", req.Header.Get("Authorization"))
	assert.NotEmpty(t, req.Header.Get("X-Request-ID"))
}

func TestGetOrderNotFound(t *testing.T) {
	transport := &fakeTransport{respond: respondWith(http.StatusNotFound, "")}
	client := newTestClient(transport)

	_, err := client.GetOrder(context.Background(), 42)

	assert.ErrorIs(t, err, ErrNotFound)
}

func TestServerErrorMapsToUnavailable(t *testing.T) {
	transport := &fakeTransport{respond: respondWith(http.StatusBadGateway, "")}
	client := newTestClient(transport)

	_, err := client.GetOrder(context.Background(), 42)

	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestClientErrorIsNotUnavailable(t *testing.T) {
	transport := &fakeTransport{respond: respondWith(http.StatusForbidden, "")}
	client := newTestClient(transport)

	_, err := client.GetOrder(context.Background(), 42)

	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrUnavailable)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestUpdateOrder(t *testing.T) {
	transport := &fakeTransport{respond: respondWith(http.StatusOK, "{}")}
	client := newTestClient(transport)

	annotation := "[SHIPPED] customer notes"
	state := entity.StateDone
	err := client.UpdateOrder(context.Background(), 42, OrderUpdate{
		Annotation: &annotation,
		State:      &state,
	})

	require.NoError(t, err)
	require.Equal(t, 1, transport.count())
	req := transport.requests[0]
	assert.Equal(t, http.MethodPatch, req.Method)
	assert.Equal(t, "/api/orders/42", req.URL.Path)

	var sent map[string]string
	require.NoError(t, json.Unmarshal(transport.bodies[0], &sent))
	assert.Equal(t, annotation, sent["annotation"])
	assert.Equal(t, "done", sent["state"])
}

func TestUpdateOrderOmitsUntouchedFields(t *testing.T) {
	transport := &fakeTransport{respond: respondWith(http.StatusOK, "{}")}
	client := newTestClient(transport)

	annotation := "[PAYMENT] dana:PAY1:PENDING"
	require.NoError(t, client.UpdateOrder(context.Background(), 42, OrderUpdate{Annotation: &annotation}))

	var sent map[string]any
	require.NoError(t, json.Unmarshal(transport.bodies[0], &sent))
	assert.NotContains(t, sent, "state")
}

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	transport := &fakeTransport{respond: respondWith(http.StatusInternalServerError, "")}
	client := newTestClient(transport)

	for i := 0; i < 5; i++ {
		_, err := client.GetOrder(context.Background(), 42)
		require.ErrorIs(t, err, ErrUnavailable)
	}

	_, err := client.GetOrder(context.Background(), 42)
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, 5, transport.count(), "an open breaker must short-circuit the transport")
}

func TestNotFoundDoesNotTripBreaker(t *testing.T) {
	transport := &fakeTransport{respond: respondWith(http.StatusNotFound, "")}
	client := newTestClient(transport)

	for i := 0; i < 6; i++ {
		_, err := client.GetOrder(context.Background(), 42)
		require.ErrorIs(t, err, ErrNotFound)
	}

	assert.Equal(t, 6, transport.count())
}
