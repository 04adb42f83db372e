package dategate

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/jhipl/backoffice/internal/platform/httpx"
	"github.com/jhipl/backoffice/internal/shared"
)

// Handler answers gate and calendar queries for the caller's identity.
type Handler struct {
	gate Gate
	now  func() time.Time
}

// NewHandler builds Handler instance. now defaults to time.Now.
func NewHandler(gate Gate, now func() time.Time) *Handler {
	if now == nil {
		now = time.Now
	}
	return &Handler{gate: gate, now: now}
}

// MountRoutes registers gate routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/gate", h.status)
	r.Get("/calendar", h.calendar)
}

type statusResponse struct {
	Date    string   `json:"date"`
	Blocked bool     `json:"blocked"`
	Message string   `json:"message,omitempty"`
	Windows []Window `json:"windows"`
}

func (h *Handler) status(w http.ResponseWriter, r *http.Request) {
	action := strings.TrimSpace(r.URL.Query().Get("action"))
	if action == "" {
		action = "records"
	}
	today := h.now()
	resp := statusResponse{Date: today.Format("2006-01-02"), Windows: Windows()}
	if h.gate.IsBlocked(today, shared.IdentityFromContext(r.Context())) {
		resp.Blocked = true
		resp.Message = BlockedMessage(action)
	}
	httpx.JSON(w, http.StatusOK, resp)
}

type calendarResponse struct {
	Month   string   `json:"month"`
	Windows []Window `json:"windows"`
	Days    []Day    `json:"days"`
}

func (h *Handler) calendar(w http.ResponseWriter, r *http.Request) {
	month := h.now()
	if raw := r.URL.Query().Get("month"); raw != "" {
		parsed, err := time.Parse("2006-01", raw)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Bad Request", "month must be formatted as YYYY-MM")
			return
		}
		month = parsed
	}
	days := h.gate.Month(month.Year(), month.Month(), shared.IdentityFromContext(r.Context()))
	httpx.JSON(w, http.StatusOK, calendarResponse{
		Month:   month.Format("2006-01"),
		Windows: Windows(),
		Days:    days,
	})
}
