package procurement

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBookRefreshLastWriteWins(t *testing.T) {
	book := NewBook()
	require.True(t, book.RefreshedAt().IsZero())

	book.Refresh([]Snapshot{
		{PONumber: "PO-001", POID: "1", BaseAmount: 100},
		{PONumber: " PO-002 ", POID: "2", BaseAmount: 200},
		{PONumber: "PO-001", POID: "3", BaseAmount: 300},
		{PONumber: "  ", POID: "4"},
	})
	require.Equal(t, 2, book.Len())
	require.False(t, book.RefreshedAt().IsZero())

	s, ok := book.Lookup("PO-001")
	require.True(t, ok)
	require.Equal(t, "3", s.POID)

	s, ok = book.Lookup("PO-002")
	require.True(t, ok)
	require.Equal(t, "PO-002", s.PONumber)

	require.Equal(t, []string{"PO-001", "PO-002"}, book.Numbers())

	book.Refresh([]Snapshot{{PONumber: "PO-009"}})
	_, ok = book.Lookup("PO-001")
	require.False(t, ok)
	require.Equal(t, []string{"PO-009"}, book.Numbers())
}

func TestBookPrefill(t *testing.T) {
	book := NewBook()
	book.Refresh([]Snapshot{{
		PONumber:    "PO-100",
		POID:        "100",
		PaymentType: "Advance",
		SGST:        "SGST 9%",
		CGST:        "CGST 9%",
		BaseAmount:  1000,
	}})

	fields, err := book.Prefill("PO-100")
	require.NoError(t, err)
	require.Equal(t, "100", fields.POID)
	require.Equal(t, "Advance", fields.PaymentType)
	require.Equal(t, 1180.0, fields.FinalAmount)
	require.Equal(t, "1180.00", fields.Display)

	fields, err = book.Prefill("PO-404")
	require.ErrorIs(t, err, ErrNotFound)
	require.Equal(t, TaxFields{}, fields)
}

func TestBookConcurrentAccess(t *testing.T) {
	book := NewBook()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			book.Refresh([]Snapshot{{PONumber: "PO-1", BaseAmount: 10}})
		}()
		go func() {
			defer wg.Done()
			_, _ = book.Prefill("PO-1")
			_ = book.Numbers()
		}()
	}
	wg.Wait()
	require.Equal(t, 1, book.Len())
}
