package iute

import (
	"context"

	"creditgw/internal/audit"
	"creditgw/internal/config"
	"creditgw/internal/provider"
	"creditgw/internal/provider/base"
)

const (
	ID = "iute"

	DefaultOrderID  = "test-order-001"
	DefaultPhone    = "+37369123456"
	DefaultAmount   = 1000
	DefaultCurrency = "MDL"

	msgNotConfigured = "Iute not configured (missing API key)"
)

var errNotConfigured = &provider.ProviderError{Code: provider.ErrNotConfigured, Message: msgNotConfigured}

type SettingsSource interface {
	Iute() config.IuteSettings
}

// Provider exposes the Iute Credit partner gateway (REST).
type Provider struct {
	provider.Unsupported

	settings SettingsSource
	http     *base.HTTPClient
	audit    *audit.Logger
}

func New(settings SettingsSource, hc *base.HTTPClient, auditLog *audit.Logger) *Provider {
	if hc == nil {
		hc = base.NewHTTPClient(ID, base.DefaultTimeoutSec)
	}
	return &Provider{settings: settings, http: hc, audit: auditLog}
}

func (p *Provider) ID() string          { return ID }
func (p *Provider) Name() string        { return "Iute Credit" }
func (p *Provider) Icon() string        { return "🟢" }
func (p *Provider) Color() string       { return "#00CC66" }
func (p *Provider) Description() string { return "Iute Credit REST API (CheckAuth, CreateOrder, OrderStatus)" }

func (p *Provider) Capabilities() []provider.Capability {
	return []provider.Capability{
		provider.CapCheckAuth,
		provider.CapCreateOrder,
		provider.CapOrderStatus,
	}
}

func (p *Provider) Settings() map[string]any {
	s := p.settings.Iute()
	return map[string]any{
		"env":                 s.Env,
		"base_url":            s.BaseURL,
		"api_key":             base.MaskSecret(s.APIKey, 8),
		"pos_identifier":      s.POSIdentifier,
		"salesman_identifier": s.SalesmanIdentifier,
	}
}

func (p *Provider) IsConfigured() bool { return p.settings.Iute().APIKey != "" }

func (p *Provider) TestClients() []provider.ClientFixture {
	return []provider.ClientFixture{
		{FIO: "Test Client 1", Phone: "+37377374279", Amount: 1000, Currency: "MDL", OrderID: "test-order-001"},
		{FIO: "Test Client 2", Phone: "+37378963107", Amount: 2000, Currency: "MDL", OrderID: "test-order-002"},
		{FIO: "Test Client 3", Phone: "+37371531475", Amount: 3000, Currency: "MDL", OrderID: "test-order-003"},
	}
}

func (p *Provider) client() (*Client, config.IuteSettings, bool) {
	s := p.settings.Iute()
	if s.APIKey == "" {
		return nil, s, false
	}
	return NewClient(p.http, s.BaseURL, s.APIKey, s.VerifyTLS()), s, true
}

func (p *Provider) CheckAuth(ctx context.Context, _ provider.Args) provider.Result {
	c, _, ok := p.client()
	if !ok {
		return provider.FailErr(errNotConfigured)
	}
	p.audit.Info(ctx, "iute.check_auth", "check auth request", nil)
	return p.outcome(ctx, "iute.check_auth", map[string]any{}, c.CheckAuth(ctx))
}

// CreateOrder args: order_id, phone, amount, currency, user_pin, birthday, gender, items.
func (p *Provider) CreateOrder(ctx context.Context, args provider.Args) provider.Result {
	amount, err := args.Amount("amount", DefaultAmount)
	if err != nil {
		return provider.FailErr(err)
	}
	c, s, ok := p.client()
	if !ok {
		return provider.FailErr(errNotConfigured)
	}
	req := OrderRequest{
		OrderID:     args.String("order_id", DefaultOrderID),
		MyiutePhone: args.String("phone", DefaultPhone),
		TotalAmount: amount,
		Currency:    args.String("currency", DefaultCurrency),
		Merchant: Merchant{
			POSIdentifier:      s.POSIdentifier,
			SalesmanIdentifier: s.SalesmanIdentifier,
		},
		UserPin:  args.Optional("user_pin"),
		Birthday: args.Optional("birthday"),
		Gender:   args.Optional("gender"),
		Items:    args.Items("items"),
	}
	payload := map[string]any{
		"order_id": req.OrderID,
		"phone":    base.MaskPhone(req.MyiutePhone),
		"amount":   amount,
		"currency": req.Currency,
	}
	p.audit.Info(ctx, "iute.create_order", "create order request", payload)
	return p.outcome(ctx, "iute.create_order", payload, c.CreateOrder(ctx, req))
}

// OrderStatus args: order_id.
func (p *Provider) OrderStatus(ctx context.Context, args provider.Args) provider.Result {
	orderID := args.String("order_id", "")
	if orderID == "" {
		return provider.Fail("Order ID required")
	}
	c, _, ok := p.client()
	if !ok {
		return provider.FailErr(errNotConfigured)
	}
	payload := map[string]any{"order_id": orderID}
	p.audit.Info(ctx, "iute.order_status", "order status request", payload)
	return p.outcome(ctx, "iute.order_status", payload, c.OrderStatus(ctx, orderID))
}

// Submit is CreateOrder under the generic name.
func (p *Provider) Submit(ctx context.Context, args provider.Args) provider.Result {
	return p.CreateOrder(ctx, args)
}

// CheckStatus is OrderStatus under the generic name.
func (p *Provider) CheckStatus(ctx context.Context, args provider.Args) provider.Result {
	return p.OrderStatus(ctx, args)
}

func (p *Provider) outcome(ctx context.Context, source string, payload map[string]any, res provider.Result) provider.Result {
	out := make(map[string]any, len(payload)+2)
	for k, v := range payload {
		out[k] = v
	}
	out["success"] = res.Success
	if s, ok := res.Data["status"]; ok {
		out["status"] = s
	}
	if res.Success {
		p.audit.Info(ctx, source, "response OK", out)
	} else {
		out["error"] = res.Error
		p.audit.Error(ctx, source, "response failed", out)
	}
	return res
}
