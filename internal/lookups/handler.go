package lookups

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"

	"github.com/jhipl/backoffice/internal/platform/httpx"
	"github.com/jhipl/backoffice/internal/procurement"
	"github.com/jhipl/backoffice/internal/shared"
)

// Handler serves option lists and PO pre-fill data to the forms.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers lookup endpoints. Searches are rate limited per
// caller since every keystroke of a select may hit them.
func (h *Handler) MountRoutes(r chi.Router) {
	limiter := httprate.Limit(120, time.Minute,
		httprate.WithKeyFuncs(rateLimitKey),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			httpx.Problem(w, http.StatusTooManyRequests, "Too Many Requests", "slow down")
		}),
	)
	r.Group(func(gr chi.Router) {
		gr.Use(limiter)
		gr.Get("/lookups/{source}", h.options)
	})
	r.Get("/purchase-orders/{number}/prefill", h.prefill)
}

func rateLimitKey(r *http.Request) (string, error) {
	if identity := shared.IdentityFromContext(r.Context()); identity != "" {
		return "user:" + identity, nil
	}
	key, err := httprate.KeyByIP(r)
	if err != nil {
		return "", err
	}
	return "ip:" + key, nil
}

type optionsResponse struct {
	Source  Source   `json:"source"`
	Term    string   `json:"term,omitempty"`
	Options []string `json:"options"`
}

func (h *Handler) options(w http.ResponseWriter, r *http.Request) {
	source, err := ParseSource(chi.URLParam(r, "source"))
	if err != nil {
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
		return
	}
	term := strings.TrimSpace(r.URL.Query().Get("q"))
	options, err := h.service.Search(r.Context(), source, term)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, optionsResponse{Source: source, Term: term, Options: options})
}

func (h *Handler) prefill(w http.ResponseWriter, r *http.Request) {
	number := strings.TrimSpace(chi.URLParam(r, "number"))
	fields, err := h.service.Prefill(r.Context(), number)
	if errors.Is(err, procurement.ErrNotFound) {
		httpx.Problem(w, http.StatusNotFound, "Not Found", "no purchase order "+number)
		return
	}
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, fields)
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	h.logger.Error("lookup request failed", slog.String("path", r.URL.Path), slog.Any("error", err))
	httpx.RespondError(w, err)
}
