package forms

import (
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/jhipl/backoffice/internal/backend"
	"github.com/jhipl/backoffice/internal/platform/httpx"
	"github.com/jhipl/backoffice/internal/shared"
)

const maxUploadBytes = 20 << 20

// GateRecorder counts gate rejections.
type GateRecorder interface {
	GateBlocked(action string)
}

// Handler wires HTTP endpoints for the forms.
type Handler struct {
	logger  *slog.Logger
	service *Service
	metrics GateRecorder
}

// NewHandler constructs a Handler instance. metrics may be nil.
func NewHandler(logger *slog.Logger, service *Service, metrics GateRecorder) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, metrics: metrics}
}

// MountRoutes registers form routes on provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.listKinds)
	r.Route("/{kind}", func(r chi.Router) {
		r.Post("/open", h.open)
		r.Post("/submissions", h.create)
		r.Get("/records", h.listRecords)
		r.Put("/records/{id}", h.update)
	})
}

type kindSummary struct {
	Kind       Kind   `json:"kind"`
	Title      string `json:"title"`
	ActionNoun string `json:"action_noun"`
}

func (h *Handler) listKinds(w http.ResponseWriter, r *http.Request) {
	var out []kindSummary
	for _, k := range h.service.Kinds() {
		def, _ := h.service.Definition(k)
		out = append(out, kindSummary{Kind: k, Title: def.Title, ActionNoun: def.ActionNoun})
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) open(w http.ResponseWriter, r *http.Request) {
	kind := Kind(chi.URLParam(r, "kind"))
	form, err := h.service.Open(r.Context(), kind, shared.IdentityFromContext(r.Context()))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, form.View())
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	kind := Kind(chi.URLParam(r, "kind"))
	sub, err := decodeSubmission(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	sub.IdempotencyKey = r.Header.Get(backend.IdempotencyHeader)
	rec, err := h.service.Create(r.Context(), kind, shared.IdentityFromContext(r.Context()), sub)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, rec)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	kind := Kind(chi.URLParam(r, "kind"))
	sub, err := decodeSubmission(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	rec, err := h.service.Update(r.Context(), kind, chi.URLParam(r, "id"), sub)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, rec)
}

func (h *Handler) listRecords(w http.ResponseWriter, r *http.Request) {
	records, err := h.service.List(r.Context(), Kind(chi.URLParam(r, "kind")))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	page := shared.PaginationFromRequest(r, len(records))
	start, end := page.Bounds()
	httpx.JSON(w, http.StatusOK, recordList{Records: append([]backend.Record{}, records[start:end]...), Pagination: page})
}

type recordList struct {
	Records    []backend.Record  `json:"records"`
	Pagination shared.Pagination `json:"pagination"`
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var blocked *BlockedError
	var invalid *ValidationError
	switch {
	case errors.As(err, &blocked):
		if h.metrics != nil {
			h.metrics.GateBlocked(blocked.Action)
		}
		httpx.Problem(w, http.StatusLocked, "Blocked", blocked.Message)
	case errors.As(err, &invalid):
		httpx.ValidationProblem(w, invalid.Error(), invalid.Fields)
	default:
		if !errors.Is(err, httpx.ErrNotFound) && !errors.Is(err, httpx.ErrValidation) && !errors.Is(err, httpx.ErrConflict) {
			h.logger.Error("forms request failed", slog.String("path", r.URL.Path), slog.Any("error", err))
		}
		httpx.RespondError(w, err)
	}
}

type submissionBody struct {
	Values map[string]string `json:"values"`
}

// decodeSubmission reads a JSON body or a multipart form with attachments.
func decodeSubmission(r *http.Request) (Submission, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		var body submissionBody
		if err := httpx.DecodeJSON(r, &body); err != nil && !errors.Is(err, io.EOF) {
			return Submission{}, err
		}
		return Submission{Values: body.Values}, nil
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		return Submission{}, err
	}
	sub := Submission{Values: map[string]string{}}
	for name, vals := range r.MultipartForm.Value {
		if len(vals) > 0 {
			sub.Values[name] = vals[0]
		}
	}
	for field, headers := range r.MultipartForm.File {
		for _, fh := range headers {
			f, err := fh.Open()
			if err != nil {
				return Submission{}, err
			}
			content, err := io.ReadAll(f)
			_ = f.Close()
			if err != nil {
				return Submission{}, err
			}
			sub.Files = append(sub.Files, backend.Attachment{Field: field, Filename: fh.Filename, Content: content})
		}
	}
	return sub, nil
}
