package iute

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"creditgw/internal/provider/base"
)

type restCall struct {
	method      string
	path        string
	rawPath     string
	auth        string
	contentType string
	body        []byte
}

func fakeGateway(t *testing.T, status int, body string) (*httptest.Server, *restCall) {
	t.Helper()
	got := &restCall{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got.method = r.Method
		got.path = r.URL.Path
		got.rawPath = r.URL.EscapedPath()
		got.auth = r.Header.Get("Authorization")
		got.contentType = r.Header.Get("Content-Type")
		got.body, _ = io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv, got
}

func newTestClient(url string) *Client {
	return NewClient(base.NewHTTPClient("iute-test", 5), url+"/", "key-123456789", false)
}

func TestCheckAuth(t *testing.T) {
	srv, got := fakeGateway(t, http.StatusOK, `{"partnerId":"P1","posId":"POS-9","products":[{"id":1}]}`)

	res := newTestClient(srv.URL).CheckAuth(context.Background())
	assert.Equal(t, http.MethodGet, got.method)
	assert.Equal(t, pathMe, got.path)
	assert.Equal(t, "key-123456789", got.auth, "the key is sent raw, without a scheme")

	require.True(t, res.Success, res.Error)
	assert.Equal(t, "P1", res.Data["partnerId"])
	assert.Equal(t, "POS-9", res.Data["posId"])
	assert.Len(t, res.Data["products"], 1)
}

func TestCheckAuthFailure(t *testing.T) {
	srv, _ := fakeGateway(t, http.StatusUnauthorized, `{"message":"Invalid API key"}`)
	res := newTestClient(srv.URL).CheckAuth(context.Background())
	assert.False(t, res.Success)
	assert.Equal(t, "HTTP 401: Invalid API key", res.Error)
}

func TestCreateOrderRequestBody(t *testing.T) {
	srv, got := fakeGateway(t, http.StatusOK, `{"status":"APPROVED","myiuteCustomer":true}`)

	res := newTestClient(srv.URL).CreateOrder(context.Background(), OrderRequest{
		OrderID:     "o-1",
		MyiutePhone: "+37369000001",
		TotalAmount: 1500,
		Currency:    "MDL",
		Merchant:    Merchant{POSIdentifier: "pos", SalesmanIdentifier: "sm"},
	})

	assert.Equal(t, http.MethodPost, got.method)
	assert.Equal(t, pathOrder, got.path)
	assert.Equal(t, contentTypeJSON, got.contentType)
	assert.Equal(t, "key-123456789", got.auth)

	var sent map[string]any
	require.NoError(t, json.Unmarshal(got.body, &sent))
	assert.Equal(t, "o-1", sent["orderId"])
	assert.Equal(t, "+37369000001", sent["myiutePhone"])
	assert.EqualValues(t, 1500, sent["totalAmount"])
	assert.Equal(t, []any{}, sent["items"])
	for _, k := range []string{"shippingAmount", "taxAmount", "subtotal", "userPin", "birthday", "gender", "shipping", "billing", "discounts", "metadata"} {
		v, present := sent[k]
		assert.True(t, present, k)
		assert.Nil(t, v, k)
	}
	merchant := sent["merchant"].(map[string]any)
	assert.Equal(t, "pos", merchant["posIdentifier"])
	assert.Nil(t, merchant["userConfirmationUrl"])

	require.True(t, res.Success)
	assert.Equal(t, "APPROVED", res.Data["status"])
	assert.Equal(t, "Order created", res.Data["message"])
	assert.Equal(t, true, res.Data["myiuteCustomer"])
}

func TestCreateOrderDefaultsOnEmptyBody(t *testing.T) {
	srv, _ := fakeGateway(t, http.StatusOK, "")
	res := newTestClient(srv.URL).CreateOrder(context.Background(), OrderRequest{})
	require.True(t, res.Success)
	assert.Equal(t, map[string]any{"status": "PENDING", "message": "Order created", "myiuteCustomer": false}, res.Data)
}

func TestCreateOrderUnknownCustomerIsSuccess(t *testing.T) {
	srv, _ := fakeGateway(t, http.StatusNotFound, `{}`)
	res := newTestClient(srv.URL).CreateOrder(context.Background(), OrderRequest{})
	require.True(t, res.Success)
	assert.Equal(t, "CUSTOMER_NOT_EXISTS", res.Data["status"])
	assert.Equal(t, "Customer not found", res.Data["message"])
	assert.Equal(t, false, res.Data["myiuteCustomer"])
}

func TestCreateOrderServerError(t *testing.T) {
	srv, _ := fakeGateway(t, http.StatusInternalServerError, `{"message":"boom"}`)
	res := newTestClient(srv.URL).CreateOrder(context.Background(), OrderRequest{})
	assert.False(t, res.Success)
	assert.Equal(t, "HTTP 500: boom", res.Error)
	assert.Equal(t, "ERROR", res.Data["status"])
	assert.Equal(t, "boom", res.Data["message"])
	assert.Equal(t, false, res.Data["myiuteCustomer"])
}

func TestCreateOrderNonJSONError(t *testing.T) {
	srv, _ := fakeGateway(t, http.StatusBadGateway, `upstream down`)
	res := newTestClient(srv.URL).CreateOrder(context.Background(), OrderRequest{})
	assert.False(t, res.Success)
	assert.Equal(t, "HTTP 502: upstream down", res.Error)
	assert.Equal(t, "HTTP 502", res.Data["message"])
}

func TestOrderStatus(t *testing.T) {
	srv, got := fakeGateway(t, http.StatusOK, `{"status":"APPROVED","productName":"Credit 12","loanDuration":12}`)

	res := newTestClient(srv.URL).OrderStatus(context.Background(), "ord 1/2")
	assert.Equal(t, "/api/v1/physical-api-partners/orders/ord%201%2F2/status", got.rawPath)

	require.True(t, res.Success, res.Error)
	assert.Equal(t, "ord 1/2", res.Data["orderId"])
	assert.Equal(t, "APPROVED", res.Data["status"])
	assert.Equal(t, "Credit 12", res.Data["productName"])
	assert.EqualValues(t, 12, res.Data["loanDuration"])
}

func TestOrderStatusRequiresID(t *testing.T) {
	res := newTestClient("http://127.0.0.1:1").OrderStatus(context.Background(), " ")
	assert.False(t, res.Success)
	assert.Equal(t, "Order ID required", res.Error)
}

func TestOrderStatusNotFound(t *testing.T) {
	srv, _ := fakeGateway(t, http.StatusNotFound, `{"message":"Order not found"}`)
	res := newTestClient(srv.URL).OrderStatus(context.Background(), "o-404")
	assert.False(t, res.Success)
	assert.Equal(t, "HTTP 404: Order not found", res.Error)
	assert.Equal(t, "o-404", res.Data["orderId"])
}
