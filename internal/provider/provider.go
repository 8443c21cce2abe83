package provider

import "context"

// Provider is the contract every credit provider satisfies. Operation methods never
// panic and never return errors: failures travel inside the Result.
type Provider interface {
	ID() string
	Name() string
	Icon() string
	Color() string
	Description() string
	Capabilities() []Capability

	// Settings returns environment, URL and masked credential indicators.
	Settings() map[string]any
	IsConfigured() bool
	TestClients() []ClientFixture

	SearchClient(ctx context.Context, args Args) Result
	Preapproved(ctx context.Context, args Args) Result
	Submit(ctx context.Context, args Args) Result
	CheckStatus(ctx context.Context, args Args) Result
	CheckAuth(ctx context.Context, args Args) Result
	CreateOrder(ctx context.Context, args Args) Result
	OrderStatus(ctx context.Context, args Args) Result
}

const notSupported = "Not supported"

// Unsupported supplies the default metadata and "Not supported" operations.
// Concrete providers embed it and override what they declare.
type Unsupported struct{}

func (Unsupported) Icon() string        { return "🏦" }
func (Unsupported) Color() string       { return "#0066CC" }
func (Unsupported) Description() string { return "" }

func (Unsupported) SearchClient(context.Context, Args) Result { return Fail(notSupported) }
func (Unsupported) Preapproved(context.Context, Args) Result  { return Fail(notSupported) }
func (Unsupported) Submit(context.Context, Args) Result       { return Fail(notSupported) }
func (Unsupported) CheckStatus(context.Context, Args) Result  { return Fail(notSupported) }
func (Unsupported) CheckAuth(context.Context, Args) Result    { return Fail(notSupported) }
func (Unsupported) CreateOrder(context.Context, Args) Result  { return Fail(notSupported) }
func (Unsupported) OrderStatus(context.Context, Args) Result  { return Fail(notSupported) }

// IsNotSupported reports whether r is the default stub response.
func IsNotSupported(r Result) bool {
	return !r.Success && r.Error == notSupported
}

// HasCapability reports whether p declares any of caps.
func HasCapability(p Provider, caps ...Capability) bool {
	for _, have := range p.Capabilities() {
		for _, want := range caps {
			if have == want {
				return true
			}
		}
	}
	return false
}

// Describe snapshots p into a Descriptor.
func Describe(p Provider) Descriptor {
	return Descriptor{
		ID:           p.ID(),
		Name:         p.Name(),
		Icon:         p.Icon(),
		Color:        p.Color(),
		Description:  p.Description(),
		Capabilities: p.Capabilities(),
		Configured:   p.IsConfigured(),
		Settings:     p.Settings(),
		TestClients:  p.TestClients(),
	}
}
