package lookups

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/jhipl/backoffice/internal/platform/httpx"
	"github.com/jhipl/backoffice/internal/procurement"
)

func newTestRouter(b Backend) http.Handler {
	svc := NewService(b, NewCache(nil, 0), nil, 0, nil)
	r := chi.NewRouter()
	r.Route("/api", NewHandler(nil, svc).MountRoutes)
	return r
}

func serve(h http.Handler, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestOptionsEndpointFilters(t *testing.T) {
	rec := serve(newTestRouter(newStubBackend()), "/api/lookups/vendors?q=STEEL")
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"source":"vendors","term":"STEEL","options":["Bharat Steel"]}`, rec.Body.String())
}

func TestOptionsEndpointEmptyList(t *testing.T) {
	rec := serve(newTestRouter(newStubBackend()), "/api/lookups/tax-rates")
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"source":"tax-rates","options":[]}`, rec.Body.String())
}

func TestOptionsEndpointUnknownSource(t *testing.T) {
	rec := serve(newTestRouter(newStubBackend()), "/api/lookups/planets")
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestOptionsEndpointUpstreamFailure(t *testing.T) {
	b := newStubBackend()
	b.vendorErr = errors.Join(errors.New("connection reset"), httpx.ErrUpstream)
	rec := serve(newTestRouter(b), "/api/lookups/vendors")
	require.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestPrefillEndpoint(t *testing.T) {
	router := newTestRouter(newStubBackend())

	rec := serve(router, "/api/purchase-orders/PO-10/prefill")
	require.Equal(t, http.StatusOK, rec.Code)
	var fields procurement.TaxFields
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &fields))
	require.Equal(t, "10", fields.POID)
	require.Equal(t, "IGST 18%", fields.IGST)
	require.Equal(t, "1180.00", fields.Display)

	rec = serve(router, "/api/purchase-orders/PO-404/prefill")
	require.Equal(t, http.StatusNotFound, rec.Code)
}
