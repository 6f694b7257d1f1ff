package kestrel

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gopkg.in/yaml.v3"

	"github.com/caas-team/kestrel/internal/logger"
	"github.com/caas-team/kestrel/pkg/api"
	"github.com/caas-team/kestrel/pkg/assets"
	"github.com/caas-team/kestrel/pkg/checks"
	"github.com/caas-team/kestrel/pkg/checks/register"
)

// encoder is a common interface for encoders, e.g. json.Encoder
type encoder interface {
	Encode(v any) error
}

const (
	urlParamAssetID = "assetId"
	urlParamCheck   = "check"
)

// routes returns the http routes of the agent
func (k *Kestrel) routes() []api.Route {
	return []api.Route{
		{Path: "/openapi", Method: http.MethodGet, Handler: k.handleOpenAPI},
		{Path: "/v1/assets", Method: http.MethodGet, Handler: k.handleAssets},
		{Path: "/v1/outcomes", Method: http.MethodGet, Handler: k.handleOutcomes},
		{Path: fmt.Sprintf("/v1/outcomes/{%s}", urlParamAssetID), Method: http.MethodGet, Handler: k.handleAssetOutcomes},
		{Path: fmt.Sprintf("/v1/outcomes/{%s}/{%s}", urlParamAssetID, urlParamCheck), Method: http.MethodGet, Handler: k.handleOutcome},
		{Path: "/healthz", Method: "Handle", Handler: k.checker.Handler()},
		{Path: "/metrics", Method: "Handle", Handler: promhttp.HandlerFor(
			k.metrics.GetRegistry(),
			promhttp.HandlerOpts{Registry: k.metrics.GetRegistry()},
		).ServeHTTP},
	}
}

// handleOpenAPI serves the openapi spec of the outcome api, either as
// yaml or json depending on the accept header
func (k *Kestrel) handleOpenAPI(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())
	oapi, err := api.GenerateOutcomeSpecs(r.Context(), register.RegisteredChecks)
	if err != nil {
		log.Error("Failed to create openapi spec", "error", err)
		writeStatus(w, r, http.StatusInternalServerError)
		return
	}

	var marshaler encoder
	switch r.Header.Get("Accept") {
	case "application/json":
		marshaler = json.NewEncoder(w)
		w.Header().Add("Content-Type", "application/json")
	default:
		marshaler = yaml.NewEncoder(w)
		w.Header().Add("Content-Type", "text/yaml")
	}

	if err = marshaler.Encode(oapi); err != nil {
		log.Error("Failed to encode openapi spec", "error", err)
		writeStatus(w, r, http.StatusInternalServerError)
	}
}

// handleAssets serves the currently registered assets
func (k *Kestrel) handleAssets(w http.ResponseWriter, r *http.Request) {
	list := k.registry.List()
	if list == nil {
		list = []assets.Asset{}
	}
	writeJSON(w, r, list)
}

// handleOutcomes serves the latest report of every check binding
func (k *Kestrel) handleOutcomes(w http.ResponseWriter, r *http.Request) {
	reports := k.db.List()
	if reports == nil {
		reports = []checks.Report{}
	}
	writeJSON(w, r, reports)
}

// handleAssetOutcomes serves the latest report of every check bound to
// one asset. Unknown assets yield a 404, assets without finished runs an
// empty list.
func (k *Kestrel) handleAssetOutcomes(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, urlParamAssetID)
	if id == "" {
		writeStatus(w, r, http.StatusBadRequest)
		return
	}

	reports := k.db.ListByAsset(id)
	if reports == nil {
		if _, ok := k.registry.Get(assets.ID(id)); !ok {
			writeStatus(w, r, http.StatusNotFound)
			return
		}
		reports = []checks.Report{}
	}
	writeJSON(w, r, reports)
}

// handleOutcome serves the latest report of a single check binding
func (k *Kestrel) handleOutcome(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, urlParamAssetID)
	check := chi.URLParam(r, urlParamCheck)
	if id == "" || check == "" {
		writeStatus(w, r, http.StatusBadRequest)
		return
	}

	report, ok := k.db.Get(id, check)
	if !ok {
		writeStatus(w, r, http.StatusNotFound)
		return
	}
	writeJSON(w, r, report)
}

// writeJSON encodes v as indented json into the response
func writeJSON(w http.ResponseWriter, r *http.Request, v any) {
	log := logger.FromContext(r.Context())
	w.Header().Add("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		log.Error("Failed to encode response", "error", err)
		writeStatus(w, r, http.StatusInternalServerError)
	}
}

// writeStatus writes the default text of the given status code
func writeStatus(w http.ResponseWriter, r *http.Request, status int) {
	log := logger.FromContext(r.Context())
	w.WriteHeader(status)
	if _, err := w.Write([]byte(http.StatusText(status))); err != nil {
		log.Error("Failed to write response", "error", err)
	}
}
