// Package forms drives the invoice, reimbursement and purchase order forms:
// option loading, PO pre-fill, the blocked-date gate, validation and relay
// to the backend.
package forms

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/jhipl/backoffice/internal/backend"
	"github.com/jhipl/backoffice/internal/dategate"
	"github.com/jhipl/backoffice/internal/lookups"
	"github.com/jhipl/backoffice/internal/platform/httpx"
	"github.com/jhipl/backoffice/internal/procurement"
)

// ErrUnknownKind is returned for a form kind with no definition.
var ErrUnknownKind = fmt.Errorf("forms: unknown kind: %w", httpx.ErrNotFound)

// OptionSource supplies select options and PO pre-fill data.
type OptionSource interface {
	Options(ctx context.Context, source lookups.Source) ([]string, error)
	Prefill(ctx context.Context, number string) (procurement.TaxFields, error)
}

// RecordStore persists records on the backend.
type RecordStore interface {
	Create(ctx context.Context, resource backend.Resource, fields map[string]string, files []backend.Attachment, idempotencyKey string) (backend.Record, error)
	Update(ctx context.Context, resource backend.Resource, id string, fields map[string]string, files []backend.Attachment) (backend.Record, error)
	List(ctx context.Context, resource backend.Resource) ([]backend.Record, error)
}

// KeyGuard rejects replayed idempotency keys.
type KeyGuard interface {
	CheckAndInsert(ctx context.Context, key, module string) error
	Delete(ctx context.Context, key, module string) error
}

// BlockedError is returned when the gate rejects creation.
type BlockedError struct {
	Action  string
	Message string
}

func (e *BlockedError) Error() string { return e.Message }

func (e *BlockedError) Unwrap() error { return httpx.ErrBlocked }

// ValidationError lists the invalid fields of a submission.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return "invalid fields: " + strings.Join(names, ", ")
}

func (e *ValidationError) Unwrap() error { return httpx.ErrValidation }

// Submission is the input of a create or update.
type Submission struct {
	Values         map[string]string
	Files          []backend.Attachment
	IdempotencyKey string
}

// Service orchestrates the forms.
type Service struct {
	defs     map[Kind]Definition
	options  OptionSource
	records  RecordStore
	gate     dategate.Gate
	keys     KeyGuard
	now      func() time.Time
	validate *validator.Validate
	logger   *slog.Logger
}

// NewService constructs the forms service. now defaults to time.Now.
func NewService(options OptionSource, records RecordStore, gate dategate.Gate, now func() time.Time, logger *slog.Logger) *Service {
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	validate := validator.New()
	_ = validate.RegisterValidation("amount", validAmount)
	return &Service{
		defs:     Definitions(),
		options:  options,
		records:  records,
		gate:     gate,
		now:      now,
		validate: validate,
		logger:   logger,
	}
}

// WithKeyGuard makes Create reject a client idempotency key that was already
// used for the same kind.
func (s *Service) WithKeyGuard(g KeyGuard) *Service {
	s.keys = g
	return s
}

// validAmount accepts a finite, non-negative decimal string.
func validAmount(fl validator.FieldLevel) bool {
	v, err := strconv.ParseFloat(strings.TrimSpace(fl.Field().String()), 64)
	return err == nil && v >= 0 && !math.IsInf(v, 0)
}

// Definition returns the definition of kind.
func (s *Service) Definition(kind Kind) (Definition, error) {
	def, ok := s.defs[kind]
	if !ok {
		return Definition{}, ErrUnknownKind
	}
	return def, nil
}

// Kinds lists the known kinds in a stable order.
func (s *Service) Kinds() []Kind {
	kinds := make([]Kind, 0, len(s.defs))
	for k := range s.defs {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

// Open consults the gate and returns an empty form with its options loaded.
func (s *Service) Open(ctx context.Context, kind Kind, identity string) (*Form, error) {
	def, err := s.Definition(kind)
	if err != nil {
		return nil, err
	}
	form := NewForm(def, s.prefillFunc(ctx))
	if ok, msg := form.OpenModal(s.gate, s.now(), identity); !ok {
		return nil, &BlockedError{Action: def.ActionNoun, Message: msg}
	}
	if err := s.loadOptions(ctx, form); err != nil {
		return nil, err
	}
	return form, nil
}

// Create validates a submission and relays it to the backend. The gate is
// checked again because the modal may have been opened before a window began.
func (s *Service) Create(ctx context.Context, kind Kind, identity string, sub Submission) (backend.Record, error) {
	form, err := s.Open(ctx, kind, identity)
	if err != nil {
		return backend.Record{}, err
	}
	if err := s.fill(form, sub.Values); err != nil {
		return backend.Record{}, err
	}
	key := sub.IdempotencyKey
	guarded := key != "" && s.keys != nil
	if key == "" {
		key = uuid.NewString()
	}
	if guarded {
		if err := s.keys.CheckAndInsert(ctx, key, string(kind)); err != nil {
			return backend.Record{}, err
		}
	}
	rec, err := s.records.Create(ctx, form.def.Resource, form.Values(), sub.Files, key)
	if err != nil {
		if guarded {
			if derr := s.keys.Delete(ctx, key, string(kind)); derr != nil {
				s.logger.Warn("release idempotency key", slog.String("key", key), slog.Any("error", derr))
			}
		}
		return backend.Record{}, err
	}
	s.logger.Info("record created", slog.String("kind", string(kind)), slog.String("id", rec.ID), slog.String("idempotency_key", key))
	return rec, nil
}

// Update validates a submission and replaces record id. Updates are not
// subject to the blocked-date gate.
func (s *Service) Update(ctx context.Context, kind Kind, id string, sub Submission) (backend.Record, error) {
	def, err := s.Definition(kind)
	if err != nil {
		return backend.Record{}, err
	}
	if strings.TrimSpace(id) == "" {
		return backend.Record{}, &ValidationError{Fields: map[string]string{"id": "id is required"}}
	}
	form := NewForm(def, s.prefillFunc(ctx))
	if err := s.loadOptions(ctx, form); err != nil {
		return backend.Record{}, err
	}
	if err := s.fill(form, sub.Values); err != nil {
		return backend.Record{}, err
	}
	return s.records.Update(ctx, def.Resource, id, form.Values(), sub.Files)
}

// List returns the records of kind.
func (s *Service) List(ctx context.Context, kind Kind) ([]backend.Record, error) {
	def, err := s.Definition(kind)
	if err != nil {
		return nil, err
	}
	return s.records.List(ctx, def.Resource)
}

func (s *Service) prefillFunc(ctx context.Context) PrefillFunc {
	return func(number string) (procurement.TaxFields, bool) {
		fields, err := s.options.Prefill(ctx, number)
		if err != nil {
			if !errors.Is(err, procurement.ErrNotFound) {
				s.logger.Warn("prefill purchase order", slog.String("po_number", number), slog.Any("error", err))
			}
			return procurement.TaxFields{}, false
		}
		return fields, true
	}
}

// loadOptions fetches every select's option source concurrently.
func (s *Service) loadOptions(ctx context.Context, form *Form) error {
	type result struct {
		field   string
		options []string
	}
	var specs []FieldSpec
	for _, spec := range form.def.Fields {
		if spec.Source != "" {
			specs = append(specs, spec)
		}
	}
	results := make([]result, len(specs))
	g, gctx := errgroup.WithContext(ctx)
	for i, spec := range specs {
		g.Go(func() error {
			opts, err := s.options.Options(gctx, spec.Source)
			if err != nil {
				return fmt.Errorf("load %s options: %w", spec.Source, err)
			}
			results[i] = result{field: spec.Name, options: opts}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	for _, r := range results {
		form.SetOptions(r.field, r.options)
	}
	return nil
}

// fill replays values into the form the same way the browser would: selects
// are opened and chosen, inputs are set. The PO number goes first so its
// pre-fill never overwrites a value the client sent. It then validates every
// field.
func (s *Service) fill(form *Form, values map[string]string) error {
	problems := map[string]string{}
	for _, spec := range replayOrder(form.def.Fields) {
		if spec.Derived {
			continue
		}
		value, present := values[spec.Name]
		value = strings.TrimSpace(value)
		sel, isSelect := form.Select(spec.Name)
		if !isSelect {
			if present {
				form.Set(spec.Name, value)
			}
			continue
		}
		if value == "" {
			// An explicit empty value clears a field a PO pre-fill set.
			if present && form.Value(spec.Name) != "" {
				form.Set(spec.Name, "")
				sel.SetValue("")
			}
			sel.Blur()
			continue
		}
		if value == form.Value(spec.Name) {
			sel.Blur()
			continue
		}
		sel.Activate()
		if !sel.Choose(value) {
			sel.Blur()
			problems[spec.Name] = fmt.Sprintf("%s: %q is not an available option", spec.Label, value)
		}
	}

	for _, spec := range form.def.Fields {
		if _, done := problems[spec.Name]; done {
			continue
		}
		if sel, ok := form.Select(spec.Name); ok && sel.Invalid() {
			problems[spec.Name] = sel.View().Error
			continue
		}
		if spec.Rule == "" {
			continue
		}
		if err := s.validate.Var(form.Value(spec.Name), spec.Rule); err != nil {
			problems[spec.Name] = fieldMessage(spec, err)
		}
	}
	if len(problems) > 0 {
		return &ValidationError{Fields: problems}
	}
	return nil
}

// replayOrder returns fields with the PO number first and the rest in
// definition order.
func replayOrder(fields []FieldSpec) []FieldSpec {
	out := make([]FieldSpec, 0, len(fields))
	for _, f := range fields {
		if f.Name == FieldPONumber {
			out = append(out, f)
		}
	}
	for _, f := range fields {
		if f.Name != FieldPONumber {
			out = append(out, f)
		}
	}
	return out
}

func fieldMessage(spec FieldSpec, err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return spec.Label + " is invalid"
	}
	switch fe := verrs[0]; fe.Tag() {
	case "required":
		return spec.Label + " is required"
	case "amount":
		return spec.Label + " must be a non-negative amount"
	case "datetime":
		return spec.Label + " must be a date (YYYY-MM-DD)"
	case "max":
		return spec.Label + " must be at most " + fe.Param() + " characters"
	default:
		return spec.Label + " is invalid"
	}
}
