// Package procurement keeps the client-side purchase order snapshots used to
// pre-fill tax fields on dependent forms.
package procurement

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jhipl/backoffice/internal/taxcalc"
)

// Book maps PO numbers to snapshots. Safe for concurrent use.
type Book struct {
	mu        sync.RWMutex
	byNumber  map[string]Snapshot
	refreshed time.Time
}

// NewBook returns an empty book.
func NewBook() *Book {
	return &Book{byNumber: make(map[string]Snapshot)}
}

// Refresh replaces the book with snapshots. Duplicate PO numbers keep the
// last entry; blank numbers are skipped.
func (b *Book) Refresh(snapshots []Snapshot) {
	next := make(map[string]Snapshot, len(snapshots))
	for _, s := range snapshots {
		number := strings.TrimSpace(s.PONumber)
		if number == "" {
			continue
		}
		s.PONumber = number
		next[number] = s
	}
	b.mu.Lock()
	b.byNumber = next
	b.refreshed = time.Now()
	b.mu.Unlock()
}

// Lookup returns the snapshot for number.
func (b *Book) Lookup(number string) (Snapshot, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	s, ok := b.byNumber[strings.TrimSpace(number)]
	return s, ok
}

// Numbers lists the PO numbers in ascending order, for use as select options.
func (b *Book) Numbers() []string {
	b.mu.RLock()
	numbers := make([]string, 0, len(b.byNumber))
	for n := range b.byNumber {
		numbers = append(numbers, n)
	}
	b.mu.RUnlock()
	sort.Strings(numbers)
	return numbers
}

// Len is the number of snapshots held.
func (b *Book) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.byNumber)
}

// RefreshedAt is the time of the last Refresh, zero before the first one.
func (b *Book) RefreshedAt() time.Time {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.refreshed
}

// Prefill returns the tax fields for number. An unknown number yields empty
// fields and ErrNotFound so callers can clear the dependent inputs.
func (b *Book) Prefill(number string) (TaxFields, error) {
	s, ok := b.Lookup(number)
	if !ok {
		return TaxFields{}, ErrNotFound
	}
	final := taxcalc.ComputeFinalAmount(s.BaseAmount, s.SGST, s.CGST, s.IGST)
	return TaxFields{
		POID:        s.POID,
		PaymentType: s.PaymentType,
		SGST:        s.SGST,
		CGST:        s.CGST,
		IGST:        s.IGST,
		BaseAmount:  s.BaseAmount,
		FinalAmount: final,
		Display:     taxcalc.FormatAmount(final, 2),
	}, nil
}
