package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"creditgw/internal/provider"
	"creditgw/internal/services/credit"
)

// ListProviders returns every registered provider with its capabilities.
func ListProviders(ctrl *credit.Controller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"success":   true,
			"providers": ctrl.Providers(),
		})
	}
}

// ProviderInfo returns one provider descriptor.
func ProviderInfo(ctrl *credit.Controller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeResult(w, ctrl.ProviderInfo(chi.URLParam(r, "id")))
	}
}

type operation func(ctx context.Context, providerID string, args provider.Args) provider.Result

// FromQuery runs op with the query string as arguments; ?provider= selects the provider.
func FromQuery(op operation) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		pid := r.URL.Query().Get("provider")
		writeResult(w, op(r.Context(), pid, queryArgs(r, "provider")))
	}
}

// FromBody runs op with a JSON object body as arguments; its "provider" key selects the
// provider and is not forwarded.
func FromBody(op operation) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		args, err := bodyArgs(w, r)
		if err != nil {
			writeFail(w, http.StatusBadRequest, "invalid JSON")
			return
		}
		pid := args.String("provider", "")
		writeResult(w, op(r.Context(), pid, args.Without("provider")))
	}
}
