package credit

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"creditgw/internal/observability"
	"creditgw/internal/provider"
)

// Operation names as reported in errors and metrics.
const (
	OpSearchClient = "search_client"
	OpPreapproved  = "preapproved"
	OpSubmit       = "submit"
	OpCheckStatus  = "check_status"
	OpCheckAuth    = "check_auth"
	OpCreateOrder  = "create_order"
	OpOrderStatus  = "order_status"
)

// Controller dispatches operations to providers by id. It holds no provider-specific
// logic: lookup, capability check, then the provider's Result unchanged.
type Controller struct {
	registry *provider.Registry
	metrics  *observability.Metrics
}

// NewController binds a controller to reg. metrics may be nil.
func NewController(reg *provider.Registry, metrics *observability.Metrics) *Controller {
	if reg == nil {
		reg = provider.Default
	}
	return &Controller{registry: reg, metrics: metrics}
}

// Providers lists every registered provider.
func (c *Controller) Providers() []provider.Descriptor {
	return c.registry.Descriptors()
}

// ProviderInfo returns one provider's descriptor as envelope data.
func (c *Controller) ProviderInfo(id string) provider.Result {
	p, ok := c.registry.Get(id)
	if !ok {
		return notFound(id)
	}
	return provider.OK(provider.Describe(p).AsMap())
}

func (c *Controller) SearchClient(ctx context.Context, providerID string, args provider.Args) provider.Result {
	return c.dispatch(ctx, providerID, OpSearchClient, provider.Provider.SearchClient, args, provider.CapSearchClient)
}

func (c *Controller) Preapproved(ctx context.Context, providerID string, args provider.Args) provider.Result {
	return c.dispatch(ctx, providerID, OpPreapproved, provider.Provider.Preapproved, args, provider.CapPreapproved)
}

// Submit accepts providers declaring either submit or create_order.
func (c *Controller) Submit(ctx context.Context, providerID string, args provider.Args) provider.Result {
	return c.dispatch(ctx, providerID, OpSubmit, provider.Provider.Submit, args, provider.CapSubmit, provider.CapCreateOrder)
}

// CheckStatus accepts providers declaring either status or order_status.
func (c *Controller) CheckStatus(ctx context.Context, providerID string, args provider.Args) provider.Result {
	return c.dispatch(ctx, providerID, OpCheckStatus, provider.Provider.CheckStatus, args, provider.CapStatus, provider.CapOrderStatus)
}

func (c *Controller) CheckAuth(ctx context.Context, providerID string, args provider.Args) provider.Result {
	return c.dispatch(ctx, providerID, OpCheckAuth, provider.Provider.CheckAuth, args, provider.CapCheckAuth)
}

func (c *Controller) CreateOrder(ctx context.Context, providerID string, args provider.Args) provider.Result {
	return c.dispatch(ctx, providerID, OpCreateOrder, provider.Provider.CreateOrder, args, provider.CapCreateOrder)
}

func (c *Controller) OrderStatus(ctx context.Context, providerID string, args provider.Args) provider.Result {
	return c.dispatch(ctx, providerID, OpOrderStatus, provider.Provider.OrderStatus, args, provider.CapOrderStatus)
}

type operationFunc func(p provider.Provider, ctx context.Context, args provider.Args) provider.Result

func (c *Controller) dispatch(ctx context.Context, providerID, op string, call operationFunc, args provider.Args, accepted ...provider.Capability) provider.Result {
	p, ok := c.registry.Get(providerID)
	if !ok {
		c.metrics.Observe(observability.UnknownProvider, op, observability.OutcomeRejected, 0)
		return notFound(providerID)
	}
	if !provider.HasCapability(p, accepted...) {
		c.metrics.Observe(p.ID(), op, observability.OutcomeRejected, 0)
		return provider.FailErr(unsupported(p, op))
	}
	if args == nil {
		args = provider.Args{}
	}

	start := time.Now()
	res := call(p, ctx, args)
	elapsed := time.Since(start)

	outcome := observability.OutcomeSuccess
	if !res.Success {
		outcome = observability.OutcomeFailure
	}
	c.metrics.Observe(p.ID(), op, outcome, elapsed)

	log.Debug().
		Str("provider", providerID).
		Str("operation", op).
		Bool("success", res.Success).
		Dur("elapsed", elapsed).
		Msg("credit operation")
	return res
}

func notFound(id string) provider.Result {
	return provider.FailErr(errNotFound(id))
}

func errNotFound(id string) error {
	return &provider.ProviderError{
		Code:    provider.ErrProviderNotFound,
		Message: fmt.Sprintf("Provider '%s' not found", id),
	}
}

func unsupported(p provider.Provider, op string) error {
	return &provider.ProviderError{
		Code:    provider.ErrOperationNotSupported,
		Message: fmt.Sprintf("'%s' does not support %s", p.Name(), op),
	}
}
