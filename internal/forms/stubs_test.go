package forms

import (
	"context"
	"time"

	"github.com/jhipl/backoffice/internal/backend"
	"github.com/jhipl/backoffice/internal/lookups"
	"github.com/jhipl/backoffice/internal/procurement"
)

type stubOptions struct {
	book    *procurement.Book
	options map[lookups.Source][]string
	err     error
}

func newStubOptions() *stubOptions {
	book := procurement.NewBook()
	book.Refresh([]procurement.Snapshot{
		{PONumber: "PO-100", POID: "100", PaymentType: "Advance", SGST: "SGST 9%", CGST: "CGST 9%", BaseAmount: 1000},
		{PONumber: "PO-200", POID: "200", PaymentType: "Credit", IGST: "IGST 18%", BaseAmount: 250.5},
	})
	return &stubOptions{
		book: book,
		options: map[lookups.Source][]string{
			lookups.SourceVendors:     {"Acme Supplies", "Bharat Steel"},
			lookups.SourceCostCenters: {"CC-100 - Admin", "CC-200 - Sales"},
			lookups.SourceGLCodes:     {"5100 - Travel", "5200 - Office"},
			lookups.SourceTaxRates:    {"SGST 9%", "CGST 9%", "IGST 18%", "IGST 5%"},
		},
	}
}

func (s *stubOptions) Options(ctx context.Context, source lookups.Source) ([]string, error) {
	if s.err != nil {
		return nil, s.err
	}
	if source == lookups.SourcePurchaseOrders {
		return s.book.Numbers(), nil
	}
	return s.options[source], nil
}

func (s *stubOptions) Prefill(ctx context.Context, number string) (procurement.TaxFields, error) {
	return s.book.Prefill(number)
}

type createCall struct {
	resource backend.Resource
	fields   map[string]string
	files    []backend.Attachment
	key      string
}

type stubRecords struct {
	created []createCall
	updated map[string]map[string]string
	records []backend.Record
	err     error
}

func (s *stubRecords) Create(ctx context.Context, resource backend.Resource, fields map[string]string, files []backend.Attachment, key string) (backend.Record, error) {
	if s.err != nil {
		return backend.Record{}, s.err
	}
	s.created = append(s.created, createCall{resource: resource, fields: fields, files: files, key: key})
	return backend.Record{ID: "rec-1", Fields: fields}, nil
}

func (s *stubRecords) Update(ctx context.Context, resource backend.Resource, id string, fields map[string]string, files []backend.Attachment) (backend.Record, error) {
	if s.updated == nil {
		s.updated = map[string]map[string]string{}
	}
	s.updated[id] = fields
	return backend.Record{ID: id, Fields: fields}, nil
}

func (s *stubRecords) List(ctx context.Context, resource backend.Resource) ([]backend.Record, error) {
	return s.records, nil
}

func fixedDay(day int) func() time.Time {
	return func() time.Time { return time.Date(2026, time.October, day, 9, 0, 0, 0, time.UTC) }
}
