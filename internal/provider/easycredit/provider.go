package easycredit

import (
	"context"
	"strings"

	"creditgw/internal/audit"
	"creditgw/internal/config"
	"creditgw/internal/provider"
	"creditgw/internal/provider/base"
)

const (
	ID = "easycredit"

	msgNotConfigured = "EasyCredit not configured (missing user/password)"
)

var errNotConfigured = &provider.ProviderError{Code: provider.ErrNotConfigured, Message: msgNotConfigured}

// SettingsSource yields the current EasyCredit settings; it is consulted on every call.
type SettingsSource interface {
	EasyCredit() config.EasyCreditSettings
}

// Provider exposes EasyCredit Moldova (SOAP) through the common provider contract.
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

func (p *Provider) ID() string    { return ID }
func (p *Provider) Name() string  { return "EasyCredit" }
func (p *Provider) Icon() string  { return "💳" }
func (p *Provider) Color() string { return "#667eea" }
func (p *Provider) Description() string {
	return "EasyCredit Moldova SOAP API (Preapproved, Submit, Status, ClientInfo)"
}

func (p *Provider) Capabilities() []provider.Capability {
	return []provider.Capability{
		provider.CapSearchClient,
		provider.CapPreapproved,
		provider.CapSubmit,
		provider.CapStatus,
	}
}

func (p *Provider) Settings() map[string]any {
	s := p.settings.EasyCredit()
	return map[string]any{
		"env":          s.Env,
		"base_url":     s.BaseURL,
		"user":         base.MaskSecret(s.APIUser, 3),
		"has_password": s.APIPassword != "",
	}
}

func (p *Provider) IsConfigured() bool {
	return configured(p.settings.EasyCredit())
}

func configured(s config.EasyCreditSettings) bool {
	return s.APIUser != "" && s.APIPassword != ""
}

func (p *Provider) TestClients() []provider.ClientFixture {
	return []provider.ClientFixture{
		{FIO: "Ivanov Ivan Ivanovich", IDNumber: "2000000000001", Phone: "+37369000001", Amount: 15000, Currency: "MDL"},
		{FIO: "Petrov Petr Petrovich", IDNumber: "2000000000002", Phone: "+37369000002", Amount: 25000, Currency: "MDL"},
		{FIO: "Sidorov Sidor Sidorovich", IDNumber: "2000000000003", Phone: "+37369000003", Amount: 35000, Currency: "MDL"},
	}
}

// client builds a transport bound to the settings read for this call, or reports why it
// cannot.
func (p *Provider) client() (*Client, bool) {
	s := p.settings.EasyCredit()
	if !configured(s) {
		return nil, false
	}
	return NewClient(p.http, s.BaseURL, s.APIUser, s.APIPassword, s.VerifyTLS()), true
}

// SearchClient args: lookup=urns with uin (group, status, mode), or uin, or phone.
func (p *Provider) SearchClient(ctx context.Context, args provider.Args) provider.Result {
	uin := args.String("uin", "")
	phone := args.String("phone", "")
	if uin == "" && phone == "" {
		return provider.Fail("UIN (IDNP) or phone required")
	}
	c, ok := p.client()
	if !ok {
		return provider.FailErr(errNotConfigured)
	}

	payload := map[string]any{}
	if uin != "" {
		payload["uin"] = base.MaskIDN(uin)
	} else {
		payload["phone"] = base.MaskPhone(phone)
	}

	switch {
	case strings.EqualFold(args.String("lookup", ""), "urns") && uin != "":
		payload["lookup"] = "urns"
		p.audit.Info(ctx, "easycredit.search_client", "URN list request", payload)
		return p.outcome(ctx, "easycredit.search_client", payload, c.URNsPerUIN(ctx, URNsPerUINRequest{
			UIN:    uin,
			Group:  args.String("group", ""),
			Status: args.String("status", ""),
			Mode:   args.String("mode", ""),
		}))
	case uin != "":
		p.audit.Info(ctx, "easycredit.search_client", "client info request", payload)
		return p.outcome(ctx, "easycredit.search_client", payload, c.ClientInfo(ctx, uin))
	default:
		p.audit.Info(ctx, "easycredit.search_client", "client by phone request", payload)
		return p.outcome(ctx, "easycredit.search_client", payload, c.ClientInfoByPhone(ctx, phone))
	}
}

// Preapproved args: uin, phone, birth_date, card_id, amount (informational only).
func (p *Provider) Preapproved(ctx context.Context, args provider.Args) provider.Result {
	if _, err := args.Amount("amount", DefaultAmount); err != nil {
		return provider.FailErr(err)
	}
	c, ok := p.client()
	if !ok {
		return provider.FailErr(errNotConfigured)
	}
	req := PreapprovedRequest{
		UIN:       args.String("uin", DefaultUIN),
		Phone:     args.String("phone", ""),
		BirthDate: args.String("birth_date", ""),
		CardID:    args.String("card_id", ""),
	}
	payload := map[string]any{"uin": base.MaskIDN(req.UIN)}
	if req.Phone != "" {
		payload["phone"] = base.MaskPhone(req.Phone)
	}
	p.audit.Info(ctx, "easycredit.preapproved", "preapproved request", payload)
	return p.outcome(ctx, "easycredit.preapproved", payload, c.Preapproved(ctx, req))
}

// Submit args: fio, phone, uin, amount, goods_price, product_name, product_id.
func (p *Provider) Submit(ctx context.Context, args provider.Args) provider.Result {
	amount, err := args.Amount("amount", DefaultAmount)
	if err != nil {
		return provider.FailErr(err)
	}
	price, err := args.Amount("goods_price", amount)
	if err != nil {
		return provider.FailErr(err)
	}
	productID, err := args.Int("product_id", 0)
	if err != nil {
		return provider.FailErr(err)
	}
	c, ok := p.client()
	if !ok {
		return provider.FailErr(errNotConfigured)
	}
	req := SubmitRequest{
		UIN:         args.String("uin", DefaultUIN),
		FullName:    args.String("fio", DefaultFullName),
		Phone:       args.String("phone", DefaultPhone),
		ProductName: args.String("product_name", DefaultProduct),
		ProductID:   productID,
		Amount:      amount,
		GoodsPrice:  price,
	}
	payload := map[string]any{
		"uin":    base.MaskIDN(req.UIN),
		"phone":  base.MaskPhone(req.Phone),
		"amount": amount,
	}
	p.audit.Info(ctx, "easycredit.submit", "submit request", payload)
	return p.outcome(ctx, "easycredit.submit", payload, c.Submit(ctx, req))
}

// CheckStatus args: urn.
func (p *Provider) CheckStatus(ctx context.Context, args provider.Args) provider.Result {
	urn := args.String("urn", "")
	if urn == "" {
		return provider.Fail("URN required")
	}
	c, ok := p.client()
	if !ok {
		return provider.FailErr(errNotConfigured)
	}
	payload := map[string]any{"urn": urn}
	p.audit.Info(ctx, "easycredit.status", "status request", payload)
	return p.outcome(ctx, "easycredit.status", payload, c.Status(ctx, urn))
}

// outcome writes the closing audit line for a call and passes res through.
func (p *Provider) outcome(ctx context.Context, source string, payload map[string]any, res provider.Result) provider.Result {
	out := make(map[string]any, len(payload)+3)
	for k, v := range payload {
		out[k] = v
	}
	out["success"] = res.Success
	if res.Data != nil {
		for _, k := range []string{"status", "preapproved", "max_amount", "urn"} {
			if v, ok := res.Data[k]; ok {
				out[k] = v
			}
		}
	}
	if res.Success {
		p.audit.Info(ctx, source, "response OK", out)
	} else {
		out["error"] = res.Error
		p.audit.Error(ctx, source, "response failed", out)
	}
	return res
}
