package easycredit

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"

	"creditgw/internal/provider"
	"creditgw/internal/provider/base"
)

const (
	DefaultUIN      = "12345678901234"
	DefaultFullName = "Test Testovich Testov"
	DefaultPhone    = "+37369123456"
	DefaultProduct  = "Test product"
	DefaultAmount   = 10000

	msgParseFailed = "Could not parse response."
)

// operation binds a service endpoint to its SOAPAction and wrapper element names.
type operation struct {
	service string
	action  string
	element string
	result  string
}

var (
	opPreapproved = operation{
		service: "Preapproved_v2.1",
		action:  "http://tempuri.org/IPreapproved_v2_1/Preapproved",
		element: "Preapproved",
		result:  "PreapprovedResult",
	}
	opSubmit = operation{
		service: "Request_v4_PJ",
		action:  "http://tempuri.org/Request_v4_PJ_I/InsertRequest",
		element: "InsertRequest",
		result:  "InsertRequestResult",
	}
	opStatus = operation{
		service: "URNStatus_v2",
		action:  "http://tempuri.org/URNStatus_v2_I/GetUrnStatus",
		element: "GetUrnStatus",
		result:  "GetUrnStatusResult",
	}
	opClientByPhone = operation{
		service: "ECM_GetClientInfoByPhone",
		action:  "http://tempuri.org/ECM_GetClientInfoByPhone_I/GetClientInfoByPhone",
		element: "GetClientInfoByPhone",
		result:  "GetClientInfoByPhoneResult",
	}
	opClientInfo = operation{
		service: "eShopClientInfo_v3",
		action:  "http://tempuri.org/eShopClientInfo_v3_I/eShopClientInfo_v3",
		element: "eShopClientInfo_v3",
		result:  "eShopClientInfo_v3Result",
	}
	opURNsPerUIN = operation{
		service: "ECM_GetUrnPerUin_V2",
		action:  "http://tempuri.org/ECM_GetUrnPerUin_V2_I/ECM_GetUrnPerUin",
		element: "ECM_GetUrnPerUin",
		result:  "ECM_GetUrnPerUinResult",
	}
)

// Client talks to the EasyCredit SOAP services. It is built per call from fresh settings.
type Client struct {
	http      *base.HTTPClient
	baseURL   string
	user      string
	password  string
	verifyTLS bool
}

func NewClient(hc *base.HTTPClient, baseURL, user, password string, verifyTLS bool) *Client {
	return &Client{http: hc, baseURL: baseURL, user: user, password: password, verifyTLS: verifyTLS}
}

// serviceURL joins the base URL and "<service>.svc" without doubling the suffix.
func (c *Client) serviceURL(service string) string {
	u := strings.TrimRight(c.baseURL, "/") + "/" + service + ".svc"
	return strings.ReplaceAll(u, ".svc.svc", ".svc")
}

func (c *Client) credentials() []field {
	return []field{{"Login", c.user}, {"Password", c.password}}
}

// call posts one envelope and returns the flattened result element. The error is a
// *provider.ProviderError carrying the fault text, "Parse error" or the transport failure.
func (c *Client) call(ctx context.Context, op operation, fields []field) (map[string]any, error) {
	resp, err := c.http.Do(ctx, base.Request{
		Method: http.MethodPost,
		URL:    c.serviceURL(op.service),
		Body:   envelope(op.element, append(c.credentials(), fields...)),
		Headers: map[string]string{
			"Content-Type": "text/xml; charset=utf-8",
			"SOAPAction":   `"` + op.action + `"`,
		},
		VerifyTLS: c.verifyTLS,
	})
	if err != nil {
		return nil, &provider.ProviderError{Code: provider.ErrTransportFailed, Message: err.Error()}
	}

	if !resp.IsSuccess() {
		if fault := parseFault(resp.Body); fault != "" {
			return nil, &provider.ProviderError{Code: provider.ErrRemoteFault, Message: fault}
		}
		return nil, &provider.ProviderError{Code: provider.ErrTransportFailed, Message: fmt.Sprintf("HTTP %d", resp.StatusCode)}
	}

	if parsed := parseResult(resp.Body, op.result); len(parsed) > 0 {
		return parsed, nil
	}
	if fault := parseFault(resp.Body); fault != "" {
		return nil, &provider.ProviderError{Code: provider.ErrRemoteFault, Message: fault}
	}
	return nil, &provider.ProviderError{Code: provider.ErrParse, Message: "Parse error"}
}

// failureMessage is the human text placed in data.message next to err.
func failureMessage(err error) string {
	if pe, ok := err.(*provider.ProviderError); ok && pe.Code == provider.ErrParse {
		return msgParseFailed
	}
	return err.Error()
}

// StatusSignalsUnknownCustomer isolates the vendor convention of reporting an unknown
// customer through a status text containing "Wrong".
func StatusSignalsUnknownCustomer(status string) bool {
	return strings.Contains(status, "Wrong")
}

// IsPreapproved reports whether a Preapproved answer grants credit.
func IsPreapproved(maxAmount int, status string) bool {
	return maxAmount > 0 && !StatusSignalsUnknownCustomer(status)
}

// SplitFullName splits "Last First Father" with placeholders for missing parts.
func SplitFullName(fio string) (last, first, father string) {
	parts := strings.Fields(fio)
	if len(parts) == 0 {
		parts = strings.Fields(DefaultFullName)
	}
	last, first, father = "Testov", "Test", "Testovich"
	if len(parts) > 0 {
		last = parts[0]
	}
	if len(parts) > 1 {
		first = parts[1]
	}
	if len(parts) > 2 {
		father = parts[2]
	}
	return last, first, father
}

// parseAmount reads an integer amount; decimals are truncated and junk counts as 0.
func parseAmount(v any) int {
	s, _ := v.(string)
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	f, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return int(f)
}

func str(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if s, ok := m[k].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

// PreapprovedRequest carries the Preapproved_v2.1 inputs.
type PreapprovedRequest struct {
	UIN       string
	Phone     string
	BirthDate string
	CardID    string
}

// Preapproved asks for the pre-approved credit ceiling of a customer.
func (c *Client) Preapproved(ctx context.Context, r PreapprovedRequest) provider.Result {
	uin := r.UIN
	if uin == "" {
		uin = DefaultUIN
	}
	parsed, err := c.call(ctx, opPreapproved, []field{
		{"UIN", uin},
		{"BirthDate", r.BirthDate},
		{"Phone", r.Phone},
		{"cardid", r.CardID},
	})
	if err != nil {
		return provider.FailWith(map[string]any{
			"preapproved": false,
			"max_amount":  0,
			"message":     failureMessage(err),
		}, err.Error())
	}

	status := str(parsed, "Status")
	maxReuseste := parseAmount(parsed["MaxAutoApproveAmountForReuseste"])
	maxESimplu := parseAmount(parsed["MaxAutoApproveAmountForeSimplu"])
	maxAmount := max(maxReuseste, maxESimplu)
	approved := IsPreapproved(maxAmount, status)

	message := status
	if message == "" {
		message = "Not preapproved."
		if approved {
			message = "Preapproved."
		}
	}
	return provider.OK(map[string]any{
		"preapproved":  approved,
		"max_amount":   maxAmount,
		"max_reuseste": maxReuseste,
		"max_esimplu":  maxESimplu,
		"status":       status,
		"message":      message,
		"first_name":   parsed["FirstName"],
		"last_name":    parsed["LastName"],
		"father_name":  parsed["FatherName"],
		"birth_date":   parsed["BirthDate"],
	})
}

// SubmitRequest carries the Request_v4_PJ inputs the gateway fills in.
type SubmitRequest struct {
	UIN         string
	FullName    string
	Phone       string
	ProductName string
	ProductID   int
	Amount      int
	GoodsPrice  int
}

// Submit files a credit application and returns the URN assigned to it.
func (c *Client) Submit(ctx context.Context, r SubmitRequest) provider.Result {
	last, first, father := SplitFullName(r.FullName)
	amount := r.Amount
	if amount == 0 {
		amount = DefaultAmount
	}
	price := r.GoodsPrice
	if price == 0 {
		price = amount
	}
	uin := r.UIN
	if uin == "" {
		uin = DefaultUIN
	}
	phone := r.Phone
	goods := r.ProductName
	if goods == "" {
		goods = DefaultProduct
	}
	mobile := phone
	if mobile == "" {
		mobile = DefaultPhone
	}

	fields := []field{
		{"Product", strconv.Itoa(r.ProductID)},
		{"UIN", uin},
		{"CompanyName", ""},
		{"DateOfRegistration", ""},
		{"Director", ""},
		{"DirectorMobile", ""},
		{"GUFirstName", first},
		{"GULastName", last},
		{"GUFatherName", father},
		{"GUMobile", mobile},
		{"GoodsName", goods},
		{"GoodsPrice", strconv.Itoa(price)},
		{"CreditAmount", strconv.Itoa(amount)},
		{"FirstInstallmentDate", ""},
		{"IdCard", ""},
		{"CaRegion", ""},
		{"CaCity", ""},
		{"CaPhone", phone},
	}
	fields = append(fields, blank(
		"CaStreet", "CaBlock", "CaAppartmentNum",
		"JobCompany", "JobPhone",
		"CpFirstName", "CpLastName", "CpMobile",
		"Imei1", "Imei2", "Imei3",
		"Sex", "Nationality", "ExpiryDate", "MarritalStatus",
		"CaCountry", "CaMail", "CaCurYearAddress", "CaHomeOwnership",
		"BaCountry", "BaRegion", "BaCity", "BaStreet", "BaBlock", "BaAppartmentNum",
		"BaPhone", "BaMobile", "BaCurYearAddress", "BaHomeOwnership",
		"DependantChildren", "SpFirstName", "SpLastName", "SpDateOfBirth",
		"JobFieldActivity", "JobProfessionOther", "JobContractType", "JobHireDate",
		"JobHireEndDate", "JobWorkYears", "JobCountry", "JobRegion", "JobCity",
		"JobStreet", "JobBlock", "JobAppartmentNum", "JobMobile", "JobEmail",
		"RefundBank", "RefundBankCode", "RefundAccount",
		"CpFatherName", "CpCountry", "CpRegion", "CpCity", "CpStreet", "CpBlock",
		"CpAppartmentNum", "CpPhone", "CpEmail",
		"FiNetIncome", "FiSpouseNetIncome", "SpFathername", "CardNo",
		"GU_UIN", "GU_IdentityCard", "GU_ICExpiryDate", "GU_Birth_Date",
		"GU_CA_City", "GU_CA_RegionDesc", "GU_CA_Street", "GU_CA_Block",
		"GU_CA_AppartmentNum", "GU_CA_Phone", "GU_CA_Mobile2", "GU_JO_MonthlyIncome",
	)...)

	parsed, err := c.call(ctx, opSubmit, fields)
	if err != nil {
		return provider.FailWith(map[string]any{"urn": "", "message": failureMessage(err)}, err.Error())
	}
	status := str(parsed, "Status", "status")
	message := str(parsed, "Message", "message")
	if message == "" {
		message = status
	}
	if message == "" {
		message = "Application submitted."
	}
	return provider.OK(map[string]any{
		"urn":     str(parsed, "URN", "urn", "RequestId"),
		"status":  status,
		"message": message,
	})
}

func blank(tags ...string) []field {
	out := make([]field, len(tags))
	for i, t := range tags {
		out[i] = field{Tag: t}
	}
	return out
}

// Status reads the processing state of an application by URN.
func (c *Client) Status(ctx context.Context, urn string) provider.Result {
	urn = strings.TrimSpace(urn)
	if urn == "" {
		return provider.FailWith(map[string]any{"urn": "", "status": "", "message": "URN not specified."}, "URN required")
	}
	parsed, err := c.call(ctx, opStatus, []field{{"URN", urn}})
	if err != nil {
		return provider.FailWith(map[string]any{"urn": urn, "status": "", "message": failureMessage(err)}, err.Error())
	}
	return provider.OK(map[string]any{
		"urn":     urn,
		"status":  str(parsed, "Status", "status"),
		"message": "Status received.",
	})
}

// ClientInfoByPhone looks a customer up by mobile number.
func (c *Client) ClientInfoByPhone(ctx context.Context, phone string) provider.Result {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return provider.FailWith(map[string]any{}, "Phone required")
	}
	return c.lookup(ctx, opClientByPhone, []field{{"Phone", phone}}, nil)
}

// ClientInfo looks a customer up by UIN (IDNP) and expands the embedded CustomerInfo.
func (c *Client) ClientInfo(ctx context.Context, uin string) provider.Result {
	uin = strings.TrimSpace(uin)
	if uin == "" {
		return provider.FailWith(map[string]any{}, "UIN required")
	}
	return c.lookup(ctx, opClientInfo, []field{
		{"Uin", uin},
		{"RequestStatusID", ""},
		{"DocumentStatusID", ""},
		{"Messages", ""},
	}, func(parsed map[string]any) {
		info := str(parsed, "Info")
		if !looksLikeCustomerInfo(info) {
			return
		}
		if cust := parseCustomerInfo(info); len(cust) > 0 {
			parsed["Customer"] = cust
		}
	})
}

// URNsPerUINRequest filters the application list of one customer.
type URNsPerUINRequest struct {
	UIN    string
	Group  string
	Status string
	Mode   string
}

// URNsPerUIN lists the applications (URNs) filed for a UIN.
func (c *Client) URNsPerUIN(ctx context.Context, r URNsPerUINRequest) provider.Result {
	uin := strings.TrimSpace(r.UIN)
	if uin == "" {
		return provider.FailWith(map[string]any{}, "UIN required")
	}
	return c.lookup(ctx, opURNsPerUIN, []field{
		{"UIN", uin},
		{"Group", r.Group},
		{"Status", r.Status},
		{"Mode", r.Mode},
	}, nil)
}

func (c *Client) lookup(ctx context.Context, op operation, fields []field, enrich func(map[string]any)) provider.Result {
	parsed, err := c.call(ctx, op, fields)
	if err != nil {
		return provider.FailWith(map[string]any{}, err.Error())
	}
	if enrich != nil {
		enrich(parsed)
	}
	return provider.OK(parsed)
}
