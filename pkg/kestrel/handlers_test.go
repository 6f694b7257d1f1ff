package kestrel

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/caas-team/kestrel/pkg/assets"
	"github.com/caas-team/kestrel/pkg/checks"
	"github.com/caas-team/kestrel/pkg/db"
)

func TestKestrel_handleOpenAPI(t *testing.T) {
	k := &Kestrel{}

	tests := []struct {
		name    string
		accept  string
		decoder func(rr *httptest.ResponseRecorder) error
	}{
		{name: "yaml is default", accept: "", decoder: func(rr *httptest.ResponseRecorder) error {
			return yaml.Unmarshal(rr.Body.Bytes(), &openapi3.T{})
		}},
		{name: "json via accept header", accept: "application/json", decoder: func(rr *httptest.ResponseRecorder) error {
			return json.Unmarshal(rr.Body.Bytes(), &openapi3.T{})
		}},
		{name: "yaml via accept header", accept: "text/yaml", decoder: func(rr *httptest.ResponseRecorder) error {
			return yaml.Unmarshal(rr.Body.Bytes(), &openapi3.T{})
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/openapi", http.NoBody)
			if tt.accept != "" {
				r.Header.Add("Accept", tt.accept)
			}
			rr := httptest.NewRecorder()

			k.handleOpenAPI(rr, r)

			require.Equal(t, http.StatusOK, rr.Code)
			require.NoError(t, tt.decoder(rr))
		})
	}
}

func TestKestrel_handleOutcome(t *testing.T) {
	tests := []struct {
		name     string
		db       db.DB
		assetID  string
		check    string
		wantCode int
		want     []byte
	}{
		{name: "no data", db: db.NewInMemory(), assetID: "42", check: "web", wantCode: http.StatusNotFound, want: []byte(http.StatusText(http.StatusNotFound))},
		{name: "missing asset id", db: db.NewInMemory(), assetID: "", check: "web", wantCode: http.StatusBadRequest, want: []byte(http.StatusText(http.StatusBadRequest))},
		{name: "missing check", db: db.NewInMemory(), assetID: "42", check: "", wantCode: http.StatusBadRequest, want: []byte(http.StatusText(http.StatusBadRequest))},
		{name: "has data", db: testDb(), assetID: "42", check: "web", wantCode: http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			k := &Kestrel{db: tt.db}
			rr := httptest.NewRecorder()
			r := chiRequest(httptest.NewRequest(http.MethodGet, "/v1/outcomes/42/web", http.NoBody), tt.assetID, tt.check)

			k.handleOutcome(rr, r)
			resp := rr.Result() //nolint:bodyclose
			body, _ := io.ReadAll(resp.Body)

			require.Equal(t, tt.wantCode, resp.StatusCode)
			if tt.wantCode != http.StatusOK {
				assert.Equal(t, tt.want, body)
				return
			}

			var got checks.Report
			require.NoError(t, json.Unmarshal(body, &got))
			assert.Equal(t, "42", got.AssetID)
			assert.Equal(t, "web", got.Check)
			assert.Equal(t, checks.KindSuccess, got.Outcome.Kind)
		})
	}
}

func TestKestrel_handleAssetOutcomes(t *testing.T) {
	registered := assets.NewRegistry()
	registered.Replace([]assets.Asset{{ID: "7", Name: "quiet"}})

	tests := []struct {
		name     string
		db       db.DB
		registry *assets.Registry
		assetID  string
		wantCode int
		wantLen  int
	}{
		{name: "unknown asset", db: db.NewInMemory(), registry: assets.NewRegistry(), assetID: "42", wantCode: http.StatusNotFound},
		{name: "registered without runs", db: db.NewInMemory(), registry: registered, assetID: "7", wantCode: http.StatusOK, wantLen: 0},
		{name: "has data", db: testDb(), registry: assets.NewRegistry(), assetID: "42", wantCode: http.StatusOK, wantLen: 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			k := &Kestrel{db: tt.db, registry: tt.registry}
			rr := httptest.NewRecorder()
			r := chiRequest(httptest.NewRequest(http.MethodGet, "/v1/outcomes/42", http.NoBody), tt.assetID, "")

			k.handleAssetOutcomes(rr, r)
			resp := rr.Result() //nolint:bodyclose
			body, _ := io.ReadAll(resp.Body)

			require.Equal(t, tt.wantCode, resp.StatusCode)
			if tt.wantCode != http.StatusOK {
				return
			}

			var got []checks.Report
			require.NoError(t, json.Unmarshal(body, &got))
			assert.Len(t, got, tt.wantLen)
		})
	}
}

func TestKestrel_handleOutcomes(t *testing.T) {
	k := &Kestrel{db: testDb()}
	rr := httptest.NewRecorder()

	k.handleOutcomes(rr, httptest.NewRequest(http.MethodGet, "/v1/outcomes", http.NoBody))

	require.Equal(t, http.StatusOK, rr.Code)
	var got []checks.Report
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	require.Len(t, got, 3)
	// ordered by asset id, then check name
	assert.Equal(t, "7", got[0].AssetID)
	assert.Equal(t, "dns", got[1].Check)
	assert.Equal(t, "web", got[2].Check)
}

func TestKestrel_handleAssets(t *testing.T) {
	registry := assets.NewRegistry()
	registry.Replace([]assets.Asset{
		{ID: "42", Name: "endpoint-a"},
		{ID: "7", Name: "endpoint-b"},
	})
	k := &Kestrel{registry: registry}
	rr := httptest.NewRecorder()

	k.handleAssets(rr, httptest.NewRequest(http.MethodGet, "/v1/assets", http.NoBody))

	require.Equal(t, http.StatusOK, rr.Code)
	var got []assets.Asset
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	require.Len(t, got, 2)
	assert.Equal(t, assets.ID("42"), got[0].ID)
}

func TestKestrel_handleAssets_Empty(t *testing.T) {
	k := &Kestrel{registry: assets.NewRegistry()}
	rr := httptest.NewRecorder()

	k.handleAssets(rr, httptest.NewRequest(http.MethodGet, "/v1/assets", http.NoBody))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, "[]", rr.Body.String())
}

func chiRequest(r *http.Request, assetID, check string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(urlParamAssetID, assetID)
	rctx.URLParams.Add(urlParamCheck, check)

	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func testDb() *db.InMemory {
	d := db.NewInMemory()
	d.Save(checks.Report{
		AssetID: "42", AssetName: "endpoint-a", Check: "web",
		Timestamp: time.Unix(60, 0).UTC(), Duration: 150 * time.Millisecond,
		Outcome: checks.Outcome{Kind: checks.KindSuccess, Result: checks.Result{"status": {{"name": "code", "value": 200}}}},
	})
	d.Save(checks.Report{
		AssetID: "42", AssetName: "endpoint-a", Check: "dns",
		Timestamp: time.Unix(70, 0).UTC(), Duration: 2 * time.Second,
		Outcome: checks.Outcome{Kind: checks.KindFailure, Message: "timeout", Severity: checks.SeverityHigh},
	})
	d.Save(checks.Report{
		AssetID: "7", AssetName: "endpoint-b", Check: "web",
		Timestamp: time.Unix(80, 0).UTC(), Duration: 80 * time.Millisecond,
		Outcome: checks.Outcome{Kind: checks.KindSuccess},
	})
	return d
}
