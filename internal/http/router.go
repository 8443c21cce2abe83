package httpx

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"creditgw/internal/audit"
	"creditgw/internal/config"
	"creditgw/internal/http/handlers"
	middlewarex "creditgw/internal/http/middleware"
	"creditgw/internal/observability"
	"creditgw/internal/services/credit"
)

// RouterDependencies holds all dependencies for the HTTP router
type RouterDependencies struct {
	Config     config.Cfg
	Controller *credit.Controller
	Settings   handlers.SettingsStore
	CreditLog  audit.Sink
	Audit      *audit.Logger
	Metrics    *observability.Metrics
}

// NewRouter wires the credit gateway routes. Provider-specific behaviour lives behind
// the controller only.
func NewRouter(deps RouterDependencies) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)

	// Health check (public)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status":    "ok",
			"providers": deps.Controller.Providers(),
		})
	})
	r.Handle("/metrics", deps.Metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(middlewarex.AdminAuth(deps.Config))

		ctrl := deps.Controller
		r.Route("/credit-testing", func(r chi.Router) {
			r.Get("/providers", handlers.ListProviders(ctrl))
			r.Get("/provider/{id}", handlers.ProviderInfo(ctrl))
			r.Get("/search-client", handlers.FromQuery(ctrl.SearchClient))
			r.Post("/preapproved", handlers.FromBody(ctrl.Preapproved))
			r.Post("/submit", handlers.FromBody(ctrl.Submit))
			r.Get("/status", handlers.FromQuery(ctrl.CheckStatus))
			r.Get("/check-auth", handlers.FromQuery(ctrl.CheckAuth))
			r.Post("/create-order", handlers.FromBody(ctrl.CreateOrder))
			r.Get("/order-status", handlers.FromQuery(ctrl.OrderStatus))
		})

		if deps.CreditLog != nil {
			r.Get("/credit-logs", handlers.ListCreditLog(deps.CreditLog))
			r.Post("/credit-logs/clear", handlers.ClearCreditLog(deps.CreditLog))
		}

		if deps.Settings != nil {
			r.Route("/credit-admin", func(r chi.Router) {
				r.Get("/easycredit-settings", handlers.GetEasyCreditSettings(deps.Settings))
				r.Post("/easycredit-settings", handlers.SaveEasyCreditSettings(deps.Settings, deps.Audit))
				r.Get("/iute-settings", handlers.GetIuteSettings(deps.Settings))
				r.Post("/iute-settings", handlers.SaveIuteSettings(deps.Settings, deps.Audit))
			})
		}
	})

	return r
}
