// Package lookups serves the option lists behind the searchable selects:
// cost centers, vendors, GL codes, tax rates and purchase order numbers.
package lookups

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/jhipl/backoffice/internal/backend"
	"github.com/jhipl/backoffice/internal/procurement"
	"github.com/jhipl/backoffice/internal/selectctl"
)

// Source names an option list.
type Source string

const (
	SourceCostCenters    Source = "cost-centers"
	SourceVendors        Source = "vendors"
	SourceGLCodes        Source = "gl-codes"
	SourceTaxRates       Source = "tax-rates"
	SourcePurchaseOrders Source = "purchase-orders"
)

// ErrUnknownSource is returned for an unsupported Source.
var ErrUnknownSource = errors.New("lookups: unknown source")

// ParseSource validates a source name from a URL.
func ParseSource(raw string) (Source, error) {
	switch s := Source(raw); s {
	case SourceCostCenters, SourceVendors, SourceGLCodes, SourceTaxRates, SourcePurchaseOrders:
		return s, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownSource, raw)
}

// Backend lists the lookup collections.
type Backend interface {
	CostCenters(ctx context.Context) ([]backend.CostCenter, error)
	Vendors(ctx context.Context) ([]backend.Vendor, error)
	GLCodes(ctx context.Context) ([]backend.GLCode, error)
	TaxRates(ctx context.Context) ([]backend.TaxRate, error)
	PurchaseOrders(ctx context.Context) ([]backend.PurchaseOrder, error)
}

// Service loads option lists through the cache and keeps the purchase order
// book in step with the latest PO list.
type Service struct {
	backend Backend
	cache   *Cache
	book    *procurement.Book
	maxAge  time.Duration
	logger  *slog.Logger
	group   singleflight.Group
}

// NewService constructs the lookup service. maxAge bounds how stale the PO
// book may get before Prefill reloads it.
func NewService(b Backend, cache *Cache, book *procurement.Book, maxAge time.Duration, logger *slog.Logger) *Service {
	if book == nil {
		book = procurement.NewBook()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{backend: b, cache: cache, book: book, maxAge: maxAge, logger: logger}
}

// Book exposes the purchase order book.
func (s *Service) Book() *procurement.Book { return s.book }

// Options returns the display strings of source.
func (s *Service) Options(ctx context.Context, source Source) ([]string, error) {
	if source == SourcePurchaseOrders {
		if err := s.loadPurchaseOrders(ctx); err != nil {
			return nil, err
		}
		return s.book.Numbers(), nil
	}
	var options []string
	err := s.fetch(ctx, source, &options, func(ctx context.Context) (any, error) {
		return s.load(ctx, source)
	})
	if err != nil {
		return nil, err
	}
	return options, nil
}

// Search returns the options of source matching term.
func (s *Service) Search(ctx context.Context, source Source, term string) ([]string, error) {
	options, err := s.Options(ctx, source)
	if err != nil {
		return nil, err
	}
	return selectctl.Filter(options, term), nil
}

// Prefill returns the dependent tax fields for a PO number, reloading the
// book first when it is empty or older than maxAge.
func (s *Service) Prefill(ctx context.Context, number string) (procurement.TaxFields, error) {
	refreshed := s.book.RefreshedAt()
	if refreshed.IsZero() || (s.maxAge > 0 && time.Since(refreshed) > s.maxAge) {
		if err := s.loadPurchaseOrders(ctx); err != nil {
			return procurement.TaxFields{}, err
		}
	}
	return s.book.Prefill(number)
}

// Invalidate bumps the cache version and reloads the PO book.
func (s *Service) Invalidate(ctx context.Context) error {
	ver, err := s.cache.Bump(ctx)
	if err != nil {
		return err
	}
	s.logger.Info("lookups invalidated", slog.Int64("version", ver))
	return s.loadPurchaseOrders(ctx)
}

// Reload refreshes the PO book from the current cache version.
func (s *Service) Reload(ctx context.Context) error {
	return s.loadPurchaseOrders(ctx)
}

// Watch reloads the PO book whenever another process bumps the cache
// version. It returns once the subscription is established.
func (s *Service) Watch(ctx context.Context) error {
	return s.cache.ListenForInvalidation(ctx, func(version int64) {
		reloadCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		if err := s.Reload(reloadCtx); err != nil {
			s.logger.Warn("reload purchase orders", slog.Int64("version", version), slog.Any("error", err))
			return
		}
		s.logger.Debug("purchase orders reloaded", slog.Int64("version", version), slog.Int("count", s.book.Len()))
	})
}

func (s *Service) loadPurchaseOrders(ctx context.Context) error {
	var orders []backend.PurchaseOrder
	err := s.fetch(ctx, SourcePurchaseOrders, &orders, func(ctx context.Context) (any, error) {
		return s.backend.PurchaseOrders(ctx)
	})
	if err != nil {
		return err
	}
	snapshots := make([]procurement.Snapshot, 0, len(orders))
	for _, po := range orders {
		snapshots = append(snapshots, procurement.Snapshot{
			PONumber:    po.Number,
			POID:        po.ID,
			PaymentType: po.PaymentType,
			SGST:        po.SGST,
			CGST:        po.CGST,
			IGST:        po.IGST,
			BaseAmount:  po.Amount,
		})
	}
	s.book.Refresh(snapshots)
	return nil
}

func (s *Service) fetch(ctx context.Context, source Source, dest any, loader func(context.Context) (any, error)) error {
	key, err := s.cache.BuildKey(ctx, "lookups", string(source))
	if err != nil {
		s.logger.Warn("lookup cache key", slog.String("source", string(source)), slog.Any("error", err))
		key = "lookups:" + string(source)
	}
	ch := s.group.DoChan(key, func() (any, error) {
		var raw any
		err := s.cache.FetchJSON(ctx, key, &raw, loader)
		return raw, err
	})
	select {
	case <-ctx.Done():
		return ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return res.Err
		}
		return remarshal(res.Val, dest)
	}
}

func (s *Service) load(ctx context.Context, source Source) ([]string, error) {
	var options []string
	switch source {
	case SourceCostCenters:
		rows, err := s.backend.CostCenters(ctx)
		if err != nil {
			return nil, err
		}
		for _, r := range rows {
			options = append(options, joinLabel(r.Code, r.Name))
		}
	case SourceVendors:
		rows, err := s.backend.Vendors(ctx)
		if err != nil {
			return nil, err
		}
		for _, r := range rows {
			options = append(options, r.Name)
		}
	case SourceGLCodes:
		rows, err := s.backend.GLCodes(ctx)
		if err != nil {
			return nil, err
		}
		for _, r := range rows {
			options = append(options, joinLabel(r.Code, r.Description))
		}
	case SourceTaxRates:
		rows, err := s.backend.TaxRates(ctx)
		if err != nil {
			return nil, err
		}
		for _, r := range rows {
			options = append(options, r.Label)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownSource, source)
	}
	if options == nil {
		options = []string{}
	}
	return options, nil
}

func joinLabel(code, name string) string {
	switch {
	case code == "":
		return name
	case name == "":
		return code
	}
	return code + " - " + name
}
