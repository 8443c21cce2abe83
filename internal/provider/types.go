package provider

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Capability names an operation a provider declares it implements.
type Capability string

const (
	CapSearchClient Capability = "search_client"
	CapPreapproved  Capability = "preapproved"
	CapSubmit       Capability = "submit"
	CapStatus       Capability = "status"
	CapCheckAuth    Capability = "check_auth"
	CapCreateOrder  Capability = "create_order"
	CapOrderStatus  Capability = "order_status"
)

// Vocabulary returns the closed set of capability names.
func Vocabulary() []Capability {
	return []Capability{
		CapSearchClient,
		CapPreapproved,
		CapSubmit,
		CapStatus,
		CapCheckAuth,
		CapCreateOrder,
		CapOrderStatus,
	}
}

// IsKnownCapability reports whether c belongs to the vocabulary.
func IsKnownCapability(c Capability) bool {
	for _, known := range Vocabulary() {
		if known == c {
			return true
		}
	}
	return false
}

// Result is the envelope every provider operation returns.
type Result struct {
	Success bool
	Data    map[string]any
	Error   string
}

// OK builds a successful envelope.
func OK(data map[string]any) Result {
	return Result{Success: true, Data: data}
}

// Fail builds a failed envelope without payload.
func Fail(msg string) Result {
	return FailWith(nil, msg)
}

// FailWith builds a failed envelope that still carries a partial payload.
func FailWith(data map[string]any, msg string) Result {
	if strings.TrimSpace(msg) == "" {
		msg = "unknown error"
	}
	return Result{Success: false, Data: data, Error: msg}
}

// FailErr converts an error into a failed envelope.
func FailErr(err error) Result {
	if err == nil {
		return Fail("")
	}
	return Fail(err.Error())
}

type resultJSON struct {
	Success bool           `json:"success"`
	Data    map[string]any `json:"data"`
	Error   *string        `json:"error"`
}

// MarshalJSON renders {"success":..,"data":..|null,"error":..|null}.
func (r Result) MarshalJSON() ([]byte, error) {
	out := resultJSON{Success: r.Success, Data: r.Data}
	if r.Error != "" {
		e := r.Error
		out.Error = &e
	}
	return json.Marshal(out)
}

func (r *Result) UnmarshalJSON(b []byte) error {
	var in resultJSON
	if err := json.Unmarshal(b, &in); err != nil {
		return err
	}
	r.Success = in.Success
	r.Data = in.Data
	r.Error = ""
	if in.Error != nil {
		r.Error = *in.Error
	}
	return nil
}

// Args is the keyword-argument bag passed to every operation.
type Args map[string]any

// String returns the value under key as a trimmed string, or def when absent or empty.
func (a Args) String(key, def string) string {
	v, ok := a[key]
	if !ok || v == nil {
		return def
	}
	var s string
	switch t := v.(type) {
	case string:
		s = t
	case json.Number:
		s = t.String()
	case float64:
		s = strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		s = strconv.Itoa(t)
	case int64:
		s = strconv.FormatInt(t, 10)
	case bool:
		s = strconv.FormatBool(t)
	default:
		s = fmt.Sprint(t)
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return def
	}
	return s
}

// Int returns the value under key as an int. Numeric strings and JSON numbers are
// accepted; fractional values are truncated. Non-finite or out of range values are
// rejected.
func (a Args) Int(key string, def int) (int, error) {
	v, ok := a[key]
	if !ok || v == nil {
		return def, nil
	}
	switch t := v.(type) {
	case int:
		return t, nil
	case int64:
		return int(t), nil
	case float64:
		return floatToInt(key, t, fmt.Sprint(t))
	case json.Number:
		if n, err := t.Int64(); err == nil {
			return int(n), nil
		}
		f, err := t.Float64()
		if err != nil {
			return 0, &ProviderError{Code: ErrInvalidArgument, Message: fmt.Sprintf("invalid %s: %q", key, t.String())}
		}
		return floatToInt(key, f, t.String())
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return def, nil
		}
		if n, err := strconv.Atoi(s); err == nil {
			return n, nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, &ProviderError{Code: ErrInvalidArgument, Message: fmt.Sprintf("invalid %s: %q", key, s)}
		}
		return floatToInt(key, f, s)
	default:
		return 0, &ProviderError{Code: ErrInvalidArgument, Message: fmt.Sprintf("invalid %s: %v", key, v)}
	}
}

// Amount is Int restricted to values >= 0.
func (a Args) Amount(key string, def int) (int, error) {
	n, err := a.Int(key, def)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, &ProviderError{Code: ErrInvalidArgument, Message: fmt.Sprintf("invalid %s: must not be negative", key)}
	}
	return n, nil
}

func floatToInt(key string, f float64, raw string) (int, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f >= float64(math.MaxInt) || f < float64(math.MinInt) {
		return 0, &ProviderError{Code: ErrInvalidArgument, Message: fmt.Sprintf("invalid %s: %q out of range", key, raw)}
	}
	return int(f), nil
}

// Optional returns the raw value under key, or nil when absent or an empty string.
func (a Args) Optional(key string) any {
	v, ok := a[key]
	if !ok || v == nil {
		return nil
	}
	if s, isStr := v.(string); isStr && strings.TrimSpace(s) == "" {
		return nil
	}
	return v
}

// Items returns a list of objects stored under key. Anything else yields an empty list.
func (a Args) Items(key string) []map[string]any {
	out := []map[string]any{}
	raw, ok := a[key].([]any)
	if !ok {
		if typed, ok := a[key].([]map[string]any); ok {
			return typed
		}
		return out
	}
	for _, it := range raw {
		if m, ok := it.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}

// Without returns a copy of the bag minus the given keys.
func (a Args) Without(keys ...string) Args {
	out := make(Args, len(a))
	for k, v := range a {
		out[k] = v
	}
	for _, k := range keys {
		delete(out, k)
	}
	return out
}

// ClientFixture is a canned set of values used to pre-fill test forms.
type ClientFixture struct {
	FIO      string `json:"fio"`
	IDNumber string `json:"id_number"`
	Phone    string `json:"phone"`
	Amount   int    `json:"amount"`
	Currency string `json:"currency"`
	OrderID  string `json:"order_id,omitempty"`
}

// Descriptor is the serialisable summary of a registered provider.
type Descriptor struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Icon         string          `json:"icon"`
	Color        string          `json:"color"`
	Description  string          `json:"description"`
	Capabilities []Capability    `json:"capabilities"`
	Configured   bool            `json:"configured"`
	Settings     map[string]any  `json:"settings"`
	TestClients  []ClientFixture `json:"test_clients"`
}

// AsMap flattens the descriptor so it can travel as envelope data.
func (d Descriptor) AsMap() map[string]any {
	caps := make([]string, 0, len(d.Capabilities))
	for _, c := range d.Capabilities {
		caps = append(caps, string(c))
	}
	return map[string]any{
		"id":           d.ID,
		"name":         d.Name,
		"icon":         d.Icon,
		"color":        d.Color,
		"description":  d.Description,
		"capabilities": caps,
		"configured":   d.Configured,
		"settings":     d.Settings,
		"test_clients": d.TestClients,
	}
}

// Common error types
type ProviderError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *ProviderError) Error() string {
	return e.Message
}

// Error codes
const (
	ErrProviderNotFound      = "provider_not_found"
	ErrOperationNotSupported = "operation_not_supported"
	ErrNotConfigured         = "not_configured"
	ErrInvalidArgument       = "invalid_argument"
	ErrTransportFailed       = "transport_failed"
	ErrParse                 = "parse_error"
	ErrRemoteFault           = "remote_fault"
)
