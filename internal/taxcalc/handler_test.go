package taxcalc

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
)

func newRouter() http.Handler {
	r := chi.NewRouter()
	r.Route("/api/tax", NewHandler().MountRoutes)
	return r
}

func TestParseEndpoint(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/tax/parse?text=SGST+9%25", nil)
	rec := httptest.NewRecorder()
	newRouter().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"text":"SGST 9%","rate":9}`, rec.Body.String())
}

func TestFinalAmountEndpoint(t *testing.T) {
	body := `{"base_amount":1000,"sgst":"SGST 9%","cgst":"CGST 9%","igst":""}`
	req := httptest.NewRequest(http.MethodPost, "/api/tax/final-amount", strings.NewReader(body))
	rec := httptest.NewRecorder()
	newRouter().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var got finalAmountResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.InDelta(t, 1180.0, got.FinalAmount, 1e-9)
	require.InDelta(t, 18.0, got.TotalRate, 1e-9)
	require.Equal(t, "1180.00", got.Display)
}

func TestFinalAmountRejectsBadBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/tax/final-amount", strings.NewReader(`{"base_amount":"lots"}`))
	rec := httptest.NewRecorder()
	newRouter().ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestFinalAmountRejectsNegativeBase(t *testing.T) {
	body := `{"base_amount":-500,"sgst":"18%"}`
	req := httptest.NewRequest(http.MethodPost, "/api/tax/final-amount", strings.NewReader(body))
	rec := httptest.NewRecorder()
	newRouter().ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "base_amount must not be negative")
}

func TestFinalAmountOverflow(t *testing.T) {
	body := `{"base_amount":1e308,"sgst":"100%"}`
	req := httptest.NewRequest(http.MethodPost, "/api/tax/final-amount", strings.NewReader(body))
	rec := httptest.NewRecorder()
	newRouter().ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	require.Contains(t, rec.Body.String(), "out of range")
}
