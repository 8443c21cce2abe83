package credit

import (
	"creditgw/internal/audit"
	"creditgw/internal/config"
	"creditgw/internal/provider"
	"creditgw/internal/provider/base"
	"creditgw/internal/provider/easycredit"
	"creditgw/internal/provider/iute"
)

// Settings is everything the built-in providers read on each call.
type Settings interface {
	easycredit.SettingsSource
	iute.SettingsSource
}

// Deps carries what the providers need. HTTP may be nil for the default 30s transport.
type Deps struct {
	Settings Settings
	Audit    *audit.Logger
	HTTP     *base.HTTPClient
}

// Bootstrap registers the built-in providers in reg. Calling it twice replaces the
// earlier instances.
func Bootstrap(reg *provider.Registry, deps Deps) {
	if reg == nil {
		reg = provider.Default
	}
	if deps.Settings == nil {
		deps.Settings = config.NewProviderSettings("")
	}
	ecHTTP, iuteHTTP := deps.HTTP, deps.HTTP
	if ecHTTP == nil {
		ecHTTP = base.NewHTTPClient(easycredit.ID, base.DefaultTimeoutSec)
		iuteHTTP = base.NewHTTPClient(iute.ID, base.DefaultTimeoutSec)
	}

	reg.Register(easycredit.New(deps.Settings, ecHTTP, deps.Audit))
	reg.Register(iute.New(deps.Settings, iuteHTTP, deps.Audit))
}
