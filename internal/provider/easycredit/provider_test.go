package easycredit

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"creditgw/internal/audit"
	"creditgw/internal/config"
	"creditgw/internal/provider"
)

type staticSettings struct{ s config.EasyCreditSettings }

func (s staticSettings) EasyCredit() config.EasyCreditSettings { return s.s }

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

func (m *memSink) dump(t *testing.T) string {
	b, err := json.Marshal(m.entries)
	require.NoError(t, err)
	return string(b)
}

func newTestProvider(baseURL, user, password string) (*Provider, *memSink) {
	sink := &memSink{}
	p := New(staticSettings{config.EasyCreditSettings{
		Env:         config.EnvSandbox,
		BaseURL:     baseURL,
		APIUser:     user,
		APIPassword: password,
	}}, nil, audit.NewLogger(sink))
	return p, sink
}

func TestProviderMetadata(t *testing.T) {
	p, _ := newTestProvider("https://x", "admin-user", "pw")
	assert.Equal(t, ID, p.ID())
	assert.True(t, p.IsConfigured())
	assert.Equal(t, []provider.Capability{
		provider.CapSearchClient, provider.CapPreapproved, provider.CapSubmit, provider.CapStatus,
	}, p.Capabilities())

	s := p.Settings()
	assert.Equal(t, "adm***", s["user"])
	assert.Equal(t, true, s["has_password"])
	assert.Len(t, p.TestClients(), 3)

	d := provider.Describe(p)
	assert.Equal(t, "💳", d.Icon)
	assert.Equal(t, "#667eea", d.Color)
}

func TestNotConfiguredMakesNoRequest(t *testing.T) {
	srv, _, hits := fakeSOAP(t, http.StatusOK, "")
	p, sink := newTestProvider(srv.URL, "user", "")
	ctx := context.Background()

	assert.False(t, p.IsConfigured())
	for _, res := range []provider.Result{
		p.Preapproved(ctx, provider.Args{"uin": "2000000000001"}),
		p.Submit(ctx, provider.Args{}),
		p.CheckStatus(ctx, provider.Args{"urn": "U1"}),
		p.SearchClient(ctx, provider.Args{"phone": "+37369000001"}),
	} {
		assert.False(t, res.Success)
		assert.Equal(t, msgNotConfigured, res.Error)
	}
	assert.Equal(t, int32(0), hits.Load())
	assert.Empty(t, sink.entries)
	assert.Equal(t, provider.ErrNotConfigured, errNotConfigured.Code)
}

func TestArgumentErrorsMakeNoRequest(t *testing.T) {
	srv, _, hits := fakeSOAP(t, http.StatusOK, "")
	p, _ := newTestProvider(srv.URL, "user", "pw")
	ctx := context.Background()

	res := p.SearchClient(ctx, provider.Args{})
	assert.Equal(t, "UIN (IDNP) or phone required", res.Error)

	res = p.CheckStatus(ctx, provider.Args{"urn": "  "})
	assert.Equal(t, "URN required", res.Error)

	res = p.Preapproved(ctx, provider.Args{"amount": "lots"})
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "amount")

	res = p.Submit(ctx, provider.Args{"amount": "1e20"})
	assert.Equal(t, `invalid amount: "1e20" out of range`, res.Error)

	res = p.Submit(ctx, provider.Args{"amount": 100, "goods_price": -5})
	assert.Equal(t, "invalid goods_price: must not be negative", res.Error)

	assert.Equal(t, int32(0), hits.Load())
}

func TestPreapprovedAuditIsMasked(t *testing.T) {
	srv, _, _ := fakeSOAP(t, http.StatusOK, soapResult("Preapproved",
		`<a:Status>OK</a:Status><a:MaxAutoApproveAmountForeSimplu>5000</a:MaxAutoApproveAmountForeSimplu>`))
	p, sink := newTestProvider(srv.URL, "user", "topsecret")

	res := p.Preapproved(context.Background(), provider.Args{"uin": "2000000000001", "phone": "+37369000001"})
	require.True(t, res.Success, res.Error)
	assert.Equal(t, true, res.Data["preapproved"])

	require.Len(t, sink.entries, 2)
	assert.Equal(t, "easycredit.preapproved", sink.entries[0].Source)
	assert.Equal(t, audit.LevelInfo, sink.entries[1].Level)
	assert.Equal(t, "***0001", sink.entries[0].Payload["uin"])
	assert.Equal(t, "+373***", sink.entries[0].Payload["phone"])
	assert.Equal(t, 5000, sink.entries[1].Payload["max_amount"])

	dump := sink.dump(t)
	assert.NotContains(t, dump, "2000000000001")
	assert.NotContains(t, dump, "+37369000001")
	assert.NotContains(t, dump, "topsecret")
}

func TestFailureIsAuditedAsError(t *testing.T) {
	srv, _, _ := fakeSOAP(t, http.StatusInternalServerError, soapFault)
	p, sink := newTestProvider(srv.URL, "user", "pw")

	res := p.CheckStatus(context.Background(), provider.Args{"urn": "U1"})
	assert.False(t, res.Success)
	require.Len(t, sink.entries, 2)
	last := sink.entries[1]
	assert.Equal(t, audit.LevelError, last.Level)
	assert.Equal(t, "Invalid login", last.Payload["error"])
	assert.Equal(t, false, last.Payload["success"])
}

func TestSearchClientRouting(t *testing.T) {
	var paths []string
	var mu sync.Mutex
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		paths = append(paths, r.URL.Path)
		mu.Unlock()
		action := strings.Trim(r.Header.Get("SOAPAction"), `"`)
		element := action[strings.LastIndex(action, "/")+1:]
		_, _ = w.Write([]byte(soapResult(element, `<a:Code>0</a:Code>`)))
	}))
	defer srv.Close()
	p, _ := newTestProvider(srv.URL, "user", "pw")
	ctx := context.Background()

	assert.True(t, p.SearchClient(ctx, provider.Args{"uin": "2000000000001", "lookup": "URNS"}).Success)
	assert.True(t, p.SearchClient(ctx, provider.Args{"uin": "2000000000001", "phone": "+37369000001"}).Success)
	assert.True(t, p.SearchClient(ctx, provider.Args{"phone": "+37369000001"}).Success)
	assert.True(t, p.SearchClient(ctx, provider.Args{"phone": "+37369000001", "lookup": "urns"}).Success)

	assert.Equal(t, []string{
		"/ECM_GetUrnPerUin_V2.svc",
		"/eShopClientInfo_v3.svc",
		"/ECM_GetClientInfoByPhone.svc",
		"/ECM_GetClientInfoByPhone.svc",
	}, paths)
}

func TestSubmitUsesArgs(t *testing.T) {
	srv, got, _ := fakeSOAP(t, http.StatusOK, soapResult("InsertRequest", `<a:URN>URN-1</a:URN>`))
	p, _ := newTestProvider(srv.URL, "user", "pw")

	res := p.Submit(context.Background(), provider.Args{
		"fio":         "Ivanov Ivan Ivanovich",
		"uin":         "2000000000001",
		"amount":      json.Number("15000"),
		"goods_price": "16000",
		"product_id":  7,
	})
	require.True(t, res.Success, res.Error)
	assert.Equal(t, "URN-1", res.Data["urn"])
	assert.Contains(t, got.body, "<Product>7</Product>")
	assert.Contains(t, got.body, "<GoodsPrice>16000</GoodsPrice><CreditAmount>15000</CreditAmount>")
	assert.Contains(t, got.body, "<GUFatherName>Ivanovich</GUFatherName>")
	assert.Contains(t, got.body, "<CaPhone>"+DefaultPhone+"</CaPhone>")
}
