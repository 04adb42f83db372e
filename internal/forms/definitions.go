package forms

import (
	"github.com/jhipl/backoffice/internal/backend"
	"github.com/jhipl/backoffice/internal/lookups"
)

// Kind identifies a record form.
type Kind string

const (
	KindInvoice       Kind = "invoice"
	KindReimbursement Kind = "reimbursement"
	KindPurchaseOrder Kind = "purchase_order"
)

// Field names shared by the forms.
const (
	FieldVendor        = "vendor"
	FieldCostCenter    = "cost_center"
	FieldGLCode        = "gl_code"
	FieldPONumber      = "po_number"
	FieldPOID          = "po_id"
	FieldPaymentType   = "payment_type"
	FieldSGST          = "sgst"
	FieldCGST          = "cgst"
	FieldIGST          = "igst"
	FieldBaseAmount    = "base_amount"
	FieldFinalAmount   = "final_amount"
	FieldInvoiceNumber = "invoice_number"
	FieldInvoiceDate   = "invoice_date"
	FieldExpenseDate   = "expense_date"
	FieldDescription   = "description"
)

// FieldSpec describes one input. A field with a Source or static Options is
// rendered as a searchable select.
type FieldSpec struct {
	Name    string
	Label   string
	Source  lookups.Source
	Options []string
	// Rule is a validator tag, for example "required,amount".
	Rule string
	// Derived fields are computed by the form and never read from input.
	Derived bool
}

// IsSelect reports whether the field is a searchable select.
func (f FieldSpec) IsSelect() bool {
	return f.Source != "" || f.Options != nil
}

// Definition describes a form kind.
type Definition struct {
	Kind     Kind
	Title    string
	Resource backend.Resource
	// ActionNoun is used in the blocked-date message.
	ActionNoun string
	Fields     []FieldSpec
}

// Field returns the field named name.
func (d Definition) Field(name string) (FieldSpec, bool) {
	for _, f := range d.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldSpec{}, false
}

var paymentTypes = []string{"Advance", "Credit", "Against Delivery"}

func taxFields() []FieldSpec {
	return []FieldSpec{
		{Name: FieldSGST, Label: "SGST", Source: lookups.SourceTaxRates},
		{Name: FieldCGST, Label: "CGST", Source: lookups.SourceTaxRates},
		{Name: FieldIGST, Label: "IGST", Source: lookups.SourceTaxRates},
	}
}

// Definitions returns the built-in forms.
func Definitions() map[Kind]Definition {
	invoice := Definition{
		Kind:       KindInvoice,
		Title:      "New Invoice",
		Resource:   backend.ResourceInvoices,
		ActionNoun: "invoices",
		Fields: []FieldSpec{
			{Name: FieldVendor, Label: "Vendor", Source: lookups.SourceVendors, Rule: "required"},
			{Name: FieldCostCenter, Label: "Cost Center", Source: lookups.SourceCostCenters, Rule: "required"},
			{Name: FieldGLCode, Label: "GL Code", Source: lookups.SourceGLCodes, Rule: "required"},
			{Name: FieldInvoiceNumber, Label: "Invoice Number", Rule: "required,max=64"},
			{Name: FieldInvoiceDate, Label: "Invoice Date", Rule: "required,datetime=2006-01-02"},
			{Name: FieldBaseAmount, Label: "Base Amount", Rule: "required,amount"},
			{Name: FieldPONumber, Label: "PO Number", Source: lookups.SourcePurchaseOrders},
			{Name: FieldPOID, Label: "PO ID", Derived: true},
			{Name: FieldPaymentType, Label: "Payment Type", Options: paymentTypes},
		},
	}
	invoice.Fields = append(invoice.Fields, taxFields()...)
	invoice.Fields = append(invoice.Fields,
		FieldSpec{Name: FieldFinalAmount, Label: "Final Amount", Derived: true},
		FieldSpec{Name: FieldDescription, Label: "Description", Rule: "omitempty,max=500"},
	)

	reimbursement := Definition{
		Kind:       KindReimbursement,
		Title:      "New Reimbursement",
		Resource:   backend.ResourceReimbursements,
		ActionNoun: "reimbursements",
		Fields: []FieldSpec{
			{Name: FieldCostCenter, Label: "Cost Center", Source: lookups.SourceCostCenters, Rule: "required"},
			{Name: FieldGLCode, Label: "GL Code", Source: lookups.SourceGLCodes, Rule: "required"},
			{Name: FieldExpenseDate, Label: "Expense Date", Rule: "required,datetime=2006-01-02"},
			{Name: FieldBaseAmount, Label: "Amount", Rule: "required,amount"},
			{Name: FieldFinalAmount, Label: "Final Amount", Derived: true},
			{Name: FieldDescription, Label: "Description", Rule: "required,max=500"},
		},
	}

	po := Definition{
		Kind:       KindPurchaseOrder,
		Title:      "New Purchase Order",
		Resource:   backend.ResourcePurchaseOrders,
		ActionNoun: "PO requests",
		Fields: []FieldSpec{
			{Name: FieldVendor, Label: "Vendor", Source: lookups.SourceVendors, Rule: "required"},
			{Name: FieldCostCenter, Label: "Cost Center", Source: lookups.SourceCostCenters, Rule: "required"},
			{Name: FieldPaymentType, Label: "Payment Type", Options: paymentTypes, Rule: "required"},
			{Name: FieldBaseAmount, Label: "Base Amount", Rule: "required,amount"},
		},
	}
	po.Fields = append(po.Fields, taxFields()...)
	po.Fields = append(po.Fields,
		FieldSpec{Name: FieldFinalAmount, Label: "Final Amount", Derived: true},
		FieldSpec{Name: FieldDescription, Label: "Description", Rule: "omitempty,max=500"},
	)

	return map[Kind]Definition{
		KindInvoice:       invoice,
		KindReimbursement: reimbursement,
		KindPurchaseOrder: po,
	}
}
