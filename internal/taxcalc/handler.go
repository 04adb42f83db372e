package taxcalc

import (
	"math"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/jhipl/backoffice/internal/platform/httpx"
)

// Handler exposes the calculator over HTTP.
type Handler struct{}

// NewHandler builds Handler instance.
func NewHandler() *Handler { return &Handler{} }

// MountRoutes registers tax routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/parse", h.parse)
	r.Post("/final-amount", h.finalAmount)
}

type parseResponse struct {
	Text string  `json:"text"`
	Rate float64 `json:"rate"`
}

func (h *Handler) parse(w http.ResponseWriter, r *http.Request) {
	text := r.URL.Query().Get("text")
	httpx.JSON(w, http.StatusOK, parseResponse{Text: text, Rate: ParseTaxRate(text)})
}

type finalAmountRequest struct {
	BaseAmount float64 `json:"base_amount"`
	SGST       string  `json:"sgst"`
	CGST       string  `json:"cgst"`
	IGST       string  `json:"igst"`
}

type finalAmountResponse struct {
	Breakdown
	Display string `json:"display"`
}

func (h *Handler) finalAmount(w http.ResponseWriter, r *http.Request) {
	var req finalAmountRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "body must be a JSON object with a numeric base_amount")
		return
	}
	if req.BaseAmount < 0 {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "base_amount must not be negative")
		return
	}
	b := Compute(req.BaseAmount, req.SGST, req.CGST, req.IGST)
	if math.IsInf(b.FinalAmount, 0) || math.IsNaN(b.FinalAmount) {
		httpx.Problem(w, http.StatusUnprocessableEntity, "Unprocessable Entity", "final amount is out of range")
		return
	}
	httpx.JSON(w, http.StatusOK, finalAmountResponse{Breakdown: b, Display: FormatAmount(b.FinalAmount, 2)})
}
