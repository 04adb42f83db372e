package procurement

import "errors"

// Snapshot is the tax and amount data of a purchase order as last fetched
// from the backend, keyed by PO number.
type Snapshot struct {
	PONumber    string  `json:"po_number"`
	POID        string  `json:"po_id"`
	PaymentType string  `json:"payment_type"`
	SGST        string  `json:"sgst"`
	CGST        string  `json:"cgst"`
	IGST        string  `json:"igst"`
	BaseAmount  float64 `json:"base_amount"`
}

// TaxFields are the dependent form fields filled from a selected PO.
type TaxFields struct {
	POID        string  `json:"po_id"`
	PaymentType string  `json:"payment_type"`
	SGST        string  `json:"sgst"`
	CGST        string  `json:"cgst"`
	IGST        string  `json:"igst"`
	BaseAmount  float64 `json:"base_amount"`
	FinalAmount float64 `json:"final_amount"`
	// Display is FinalAmount rounded for the read-only total field.
	Display string `json:"display"`
}

// ErrNotFound indicates the PO number is not in the book.
var ErrNotFound = errors.New("procurement: purchase order not found")
