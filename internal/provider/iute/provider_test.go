package iute

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"creditgw/internal/audit"
	"creditgw/internal/config"
	"creditgw/internal/provider"
)

type staticSettings struct{ s config.IuteSettings }

func (s staticSettings) Iute() config.IuteSettings { return s.s }

type memSink struct {
	mu      sync.Mutex
	entries []audit.Entry
}

func (m *memSink) Append(_ context.Context, e audit.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, e)
	return nil
}

func (m *memSink) List(_ context.Context, limit int, since time.Time) ([]audit.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return audit.Tail(append([]audit.Entry(nil), m.entries...), limit, since), nil
}

func (m *memSink) Clear(context.Context) error     { m.entries = nil; return nil }
func (m *memSink) Trim(context.Context, int) error { return nil }

func newTestProvider(baseURL, key string) (*Provider, *memSink) {
	sink := &memSink{}
	p := New(staticSettings{config.IuteSettings{
		Env:                config.EnvSandbox,
		BaseURL:            baseURL,
		APIKey:             key,
		POSIdentifier:      "pos-1",
		SalesmanIdentifier: "sales-1",
	}}, nil, audit.NewLogger(sink))
	return p, sink
}

func TestProviderMetadata(t *testing.T) {
	p, _ := newTestProvider("https://x", "abcdefghijklmnop")
	assert.Equal(t, "Iute Credit", p.Name())
	assert.Equal(t, []provider.Capability{provider.CapCheckAuth, provider.CapCreateOrder, provider.CapOrderStatus}, p.Capabilities())
	assert.Equal(t, "abcdefgh***", p.Settings()["api_key"])
	assert.True(t, p.IsConfigured())
	for _, c := range p.TestClients() {
		assert.NotEmpty(t, c.OrderID)
	}
}

func TestNotConfigured(t *testing.T) {
	srv, got := fakeGateway(t, http.StatusOK, `{}`)
	p, sink := newTestProvider(srv.URL, "")
	ctx := context.Background()

	for _, res := range []provider.Result{
		p.CheckAuth(ctx, nil),
		p.CreateOrder(ctx, provider.Args{}),
		p.OrderStatus(ctx, provider.Args{"order_id": "o-1"}),
	} {
		assert.False(t, res.Success)
		assert.Equal(t, msgNotConfigured, res.Error)
	}
	assert.Empty(t, got.method, "no request reaches the gateway")
	assert.Empty(t, sink.entries)
}

func TestUnsupportedOperations(t *testing.T) {
	p, _ := newTestProvider("https://x", "key")
	res := p.Preapproved(context.Background(), provider.Args{})
	assert.True(t, provider.IsNotSupported(res))
	res = p.SearchClient(context.Background(), provider.Args{})
	assert.True(t, provider.IsNotSupported(res))
}

func TestCreateOrderFromArgs(t *testing.T) {
	srv, got := fakeGateway(t, http.StatusOK, `{"status":"PENDING"}`)
	p, sink := newTestProvider(srv.URL, "key-123456789")

	res := p.Submit(context.Background(), provider.Args{
		"order_id": "o-7",
		"phone":    "+37369000001",
		"amount":   json.Number("2500"),
		"user_pin": "",
		"gender":   "M",
		"items":    []any{map[string]any{"name": "TV", "price": 2500}, "junk"},
	})
	require.True(t, res.Success, res.Error)

	var sent map[string]any
	require.NoError(t, json.Unmarshal(got.body, &sent))
	assert.Equal(t, "o-7", sent["orderId"])
	assert.EqualValues(t, 2500, sent["totalAmount"])
	assert.Equal(t, DefaultCurrency, sent["currency"])
	assert.Nil(t, sent["userPin"])
	assert.Equal(t, "M", sent["gender"])
	assert.Len(t, sent["items"], 1)
	merchant := sent["merchant"].(map[string]any)
	assert.Equal(t, "pos-1", merchant["posIdentifier"])
	assert.Equal(t, "sales-1", merchant["salesmanIdentifier"])

	require.Len(t, sink.entries, 2)
	assert.Equal(t, "iute.create_order", sink.entries[0].Source)
	assert.Equal(t, "+373***", sink.entries[0].Payload["phone"])
	assert.Equal(t, "PENDING", sink.entries[1].Payload["status"])
	b, _ := json.Marshal(sink.entries)
	assert.NotContains(t, string(b), "+37369000001")
	assert.NotContains(t, string(b), "key-123456789")
}

func TestCreateOrderRejectsBadAmount(t *testing.T) {
	srv, got := fakeGateway(t, http.StatusOK, `{}`)
	p, _ := newTestProvider(srv.URL, "key")
	res := p.CreateOrder(context.Background(), provider.Args{"amount": "a lot"})
	assert.False(t, res.Success)
	assert.Empty(t, got.method)
}

func TestCheckStatusAlias(t *testing.T) {
	srv, got := fakeGateway(t, http.StatusOK, `{"status":"APPROVED"}`)
	p, _ := newTestProvider(srv.URL, "key")

	res := p.CheckStatus(context.Background(), provider.Args{"order_id": "o-1"})
	require.True(t, res.Success, res.Error)
	assert.Equal(t, "/api/v1/physical-api-partners/orders/o-1/status", got.path)

	res = p.OrderStatus(context.Background(), provider.Args{})
	assert.Equal(t, "Order ID required", res.Error)
}

func TestCheckAuthFailureAudited(t *testing.T) {
	srv, _ := fakeGateway(t, http.StatusForbidden, `{"message":"forbidden"}`)
	p, sink := newTestProvider(srv.URL, "key")

	res := p.CheckAuth(context.Background(), nil)
	assert.Equal(t, "HTTP 403: forbidden", res.Error)
	require.Len(t, sink.entries, 2)
	assert.Equal(t, audit.LevelError, sink.entries[1].Level)
	assert.Equal(t, "HTTP 403: forbidden", sink.entries[1].Payload["error"])
}
