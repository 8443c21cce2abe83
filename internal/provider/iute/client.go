package iute

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"creditgw/internal/provider"
	"creditgw/internal/provider/base"
)

const (
	pathMe          = "/api/v1/physical-api-partners/me"
	pathOrder       = "/api/v1/physical-api-partners/order"
	pathOrderStatus = "/api/v1/physical-api-partners/orders/%s/status"

	contentTypeJSON = "application/json;charset=UTF-8"
)

// Client talks to the Iute partner gateway. The API key travels as the raw
// Authorization header value.
type Client struct {
	http      *base.HTTPClient
	baseURL   string
	apiKey    string
	verifyTLS bool
}

func NewClient(hc *base.HTTPClient, baseURL, apiKey string, verifyTLS bool) *Client {
	return &Client{http: hc, baseURL: strings.TrimRight(baseURL, "/"), apiKey: apiKey, verifyTLS: verifyTLS}
}

func (c *Client) authHeaders() map[string]string {
	return map[string]string{"Authorization": c.apiKey}
}

// Merchant identifies the point of sale placing the order.
type Merchant struct {
	POSIdentifier       string  `json:"posIdentifier"`
	SalesmanIdentifier  string  `json:"salesmanIdentifier"`
	UserConfirmationURL *string `json:"userConfirmationUrl"`
	UserCancelURL       *string `json:"userCancelUrl"`
}

// OrderRequest is the create-or-update order body; unset optionals are sent as null.
type OrderRequest struct {
	OrderID        string           `json:"orderId"`
	MyiutePhone    string           `json:"myiutePhone"`
	TotalAmount    int              `json:"totalAmount"`
	Currency       string           `json:"currency"`
	Merchant       Merchant         `json:"merchant"`
	ShippingAmount *int             `json:"shippingAmount"`
	TaxAmount      *int             `json:"taxAmount"`
	Subtotal       *int             `json:"subtotal"`
	UserPin        any              `json:"userPin"`
	Birthday       any              `json:"birthday"`
	Gender         any              `json:"gender"`
	Shipping       any              `json:"shipping"`
	Billing        any              `json:"billing"`
	Items          []map[string]any `json:"items"`
	Discounts      any              `json:"discounts"`
	Metadata       any              `json:"metadata"`
}

// apiMessage extracts the gateway's "message" field, falling back to the raw body.
func apiMessage(resp *base.HTTPResponse) string {
	var body map[string]any
	if err := resp.DecodeJSON(&body); err == nil {
		if m, ok := body["message"].(string); ok && m != "" {
			return m
		}
	}
	return resp.String()
}

func httpError(resp *base.HTTPResponse) string {
	return fmt.Sprintf("HTTP %d: %s", resp.StatusCode, apiMessage(resp))
}

// pick returns body[key] unless it is absent or null.
func pick(body map[string]any, key string, def any) any {
	if v, ok := body[key]; ok && v != nil {
		return v
	}
	return def
}

// CheckAuth verifies the API key and returns the partner profile.
func (c *Client) CheckAuth(ctx context.Context) provider.Result {
	resp, err := c.http.Get(ctx, c.baseURL+pathMe, c.authHeaders(), c.verifyTLS)
	if err != nil {
		return provider.FailWith(map[string]any{}, err.Error())
	}
	if !resp.IsSuccess() {
		return provider.FailWith(map[string]any{}, httpError(resp))
	}
	var body map[string]any
	if err := resp.DecodeJSON(&body); err != nil {
		return provider.FailWith(map[string]any{}, "Parse error")
	}
	return provider.OK(map[string]any{
		"partnerId": pick(body, "partnerId", ""),
		"posId":     pick(body, "posId", ""),
		"products":  pick(body, "products", []any{}),
	})
}

// CreateOrder creates or updates an order. A 404 means the phone has no Iute account,
// which the gateway reports as a regular outcome rather than an error.
func (c *Client) CreateOrder(ctx context.Context, r OrderRequest) provider.Result {
	if r.Items == nil {
		r.Items = []map[string]any{}
	}
	headers := c.authHeaders()
	headers["Content-Type"] = contentTypeJSON

	resp, err := c.http.PostJSON(ctx, c.baseURL+pathOrder, r, headers, c.verifyTLS)
	if err != nil {
		return provider.FailWith(map[string]any{
			"status":         "ERROR",
			"message":        err.Error(),
			"myiuteCustomer": false,
		}, err.Error())
	}

	body := map[string]any{}
	if len(resp.Body) > 0 {
		_ = resp.DecodeJSON(&body)
	}

	switch resp.StatusCode {
	case http.StatusOK:
		return provider.OK(map[string]any{
			"status":         pick(body, "status", "PENDING"),
			"message":        pick(body, "message", "Order created"),
			"myiuteCustomer": pick(body, "myiuteCustomer", false),
		})
	case http.StatusNotFound:
		return provider.OK(map[string]any{
			"status":         pick(body, "status", "CUSTOMER_NOT_EXISTS"),
			"message":        pick(body, "message", "Customer not found"),
			"myiuteCustomer": pick(body, "myiuteCustomer", false),
		})
	default:
		return provider.FailWith(map[string]any{
			"status":         pick(body, "status", "ERROR"),
			"message":        pick(body, "message", fmt.Sprintf("HTTP %d", resp.StatusCode)),
			"myiuteCustomer": false,
		}, httpError(resp))
	}
}

// OrderStatus reads the state of an order by id.
func (c *Client) OrderStatus(ctx context.Context, orderID string) provider.Result {
	orderID = strings.TrimSpace(orderID)
	empty := map[string]any{"orderId": orderID, "status": "", "productName": nil, "loanDuration": nil}
	if orderID == "" {
		return provider.FailWith(empty, "Order ID required")
	}

	u := c.baseURL + fmt.Sprintf(pathOrderStatus, url.PathEscape(orderID))
	resp, err := c.http.Get(ctx, u, c.authHeaders(), c.verifyTLS)
	if err != nil {
		return provider.FailWith(empty, err.Error())
	}
	if !resp.IsSuccess() {
		return provider.FailWith(empty, httpError(resp))
	}
	var body map[string]any
	if err := resp.DecodeJSON(&body); err != nil {
		return provider.FailWith(empty, "Parse error")
	}
	return provider.OK(map[string]any{
		"orderId":      pick(body, "orderId", orderID),
		"status":       pick(body, "status", ""),
		"productName":  body["productName"],
		"loanDuration": body["loanDuration"],
	})
}
