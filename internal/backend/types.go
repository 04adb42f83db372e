package backend

// Resource names a record collection on the backend.
type Resource string

const (
	ResourceInvoices       Resource = "invoices"
	ResourceReimbursements Resource = "reimbursements"
	ResourcePurchaseOrders Resource = "purchase-orders"
)

// CostCenter is a cost-center lookup row.
type CostCenter struct {
	ID   string `json:"id"`
	Code string `json:"code"`
	Name string `json:"name"`
}

// Vendor is a vendor lookup row.
type Vendor struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	GSTIN string `json:"gstin"`
}

// GLCode is a general-ledger account lookup row.
type GLCode struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

// TaxRate is a tax-rate lookup row. Label carries the percentage, for
// example "IGST 18%".
type TaxRate struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// PurchaseOrder is the purchase order summary served by the lookup endpoint.
type PurchaseOrder struct {
	ID          string  `json:"id"`
	Number      string  `json:"po_number"`
	PaymentType string  `json:"payment_type"`
	SGST        string  `json:"sgst"`
	CGST        string  `json:"cgst"`
	IGST        string  `json:"igst"`
	Amount      float64 `json:"amount"`
}

// Record is a stored invoice, reimbursement or purchase order.
type Record struct {
	ID     string            `json:"id"`
	Fields map[string]string `json:"fields"`
}

// Attachment is a file relayed with a submission.
type Attachment struct {
	Field    string
	Filename string
	Content  []byte
}
