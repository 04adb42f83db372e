package forms

import (
	"context"
	"errors"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/jhipl/backoffice/internal/backend"
	"github.com/jhipl/backoffice/internal/dategate"
	"github.com/jhipl/backoffice/internal/platform/httpx"
	"github.com/jhipl/backoffice/internal/shared"
)

func newTestService(day int) (*Service, *stubOptions, *stubRecords) {
	opts := newStubOptions()
	records := &stubRecords{}
	svc := NewService(opts, records, dategate.New(dategate.DefaultBypassIdentity), fixedDay(day), nil)
	return svc, opts, records
}

func validInvoice() map[string]string {
	return map[string]string{
		FieldVendor:        "Acme Supplies",
		FieldCostCenter:    "CC-100 - Admin",
		FieldGLCode:        "5100 - Travel",
		FieldInvoiceNumber: "INV-1",
		FieldInvoiceDate:   "2026-10-08",
		FieldBaseAmount:    "1000",
		FieldPONumber:      "PO-100",
	}
}

func TestOpenLoadsOptions(t *testing.T) {
	svc, _, _ := newTestService(8)
	form, err := svc.Open(context.Background(), KindInvoice, "clerk@jhipl.com")
	require.NoError(t, err)

	vendor, ok := form.Select(FieldVendor)
	require.True(t, ok)
	require.Equal(t, []string{"Acme Supplies", "Bharat Steel"}, vendor.Options())

	po, _ := form.Select(FieldPONumber)
	require.Equal(t, []string{"PO-100", "PO-200"}, po.Options())
}

func TestOpenBlockedInsideWindow(t *testing.T) {
	svc, _, _ := newTestService(13)
	_, err := svc.Open(context.Background(), KindReimbursement, "clerk@jhipl.com")

	var blocked *BlockedError
	require.ErrorAs(t, err, &blocked)
	require.Equal(t, "reimbursements", blocked.Action)
	require.Equal(t, dategate.BlockedMessage("reimbursements"), blocked.Message)
	require.ErrorIs(t, err, httpx.ErrBlocked)
}

func TestOpenBypassIdentity(t *testing.T) {
	svc, _, _ := newTestService(13)
	_, err := svc.Open(context.Background(), KindInvoice, dategate.DefaultBypassIdentity)
	require.NoError(t, err)
}

func TestOpenUnknownKind(t *testing.T) {
	svc, _, _ := newTestService(8)
	_, err := svc.Open(context.Background(), Kind("voucher"), "")
	require.ErrorIs(t, err, ErrUnknownKind)
	require.ErrorIs(t, err, httpx.ErrNotFound)
}

func TestOpenPropagatesOptionErrors(t *testing.T) {
	svc, opts, _ := newTestService(8)
	opts.err = errors.New("backend down")
	_, err := svc.Open(context.Background(), KindPurchaseOrder, "")
	require.ErrorContains(t, err, "backend down")
}

func TestCreateRelaysPrefilledValues(t *testing.T) {
	svc, _, records := newTestService(8)
	rec, err := svc.Create(context.Background(), KindInvoice, "clerk@jhipl.com", Submission{
		Values:         validInvoice(),
		IdempotencyKey: "key-1",
	})
	require.NoError(t, err)
	require.Equal(t, "rec-1", rec.ID)

	require.Len(t, records.created, 1)
	call := records.created[0]
	require.Equal(t, backend.ResourceInvoices, call.resource)
	require.Equal(t, "key-1", call.key)
	require.Equal(t, "100", call.fields[FieldPOID])
	require.Equal(t, "Advance", call.fields[FieldPaymentType])
	require.Equal(t, "SGST 9%", call.fields[FieldSGST])
	require.Equal(t, "CGST 9%", call.fields[FieldCGST])
	require.Equal(t, "1180.00", call.fields[FieldFinalAmount])
}

func TestCreateGeneratesIdempotencyKey(t *testing.T) {
	svc, _, records := newTestService(8)
	_, err := svc.Create(context.Background(), KindInvoice, "", Submission{Values: validInvoice()})
	require.NoError(t, err)
	require.Len(t, records.created, 1)
	require.Len(t, records.created[0].key, 36)
}

func TestCreateBlockedDoesNotRelay(t *testing.T) {
	svc, _, records := newTestService(23)
	_, err := svc.Create(context.Background(), KindInvoice, "clerk@jhipl.com", Submission{Values: validInvoice()})
	require.ErrorIs(t, err, httpx.ErrBlocked)
	require.Empty(t, records.created)
}

func TestCreateValidation(t *testing.T) {
	svc, _, records := newTestService(8)
	values := validInvoice()
	delete(values, FieldVendor)
	values[FieldGLCode] = "9999 - Unknown"
	values[FieldInvoiceDate] = "08/10/2026"

	_, err := svc.Create(context.Background(), KindInvoice, "", Submission{Values: values})

	var invalid *ValidationError
	require.ErrorAs(t, err, &invalid)
	require.ErrorIs(t, err, httpx.ErrValidation)
	require.Equal(t, "Vendor is required", invalid.Fields[FieldVendor])
	require.Contains(t, invalid.Fields[FieldGLCode], "is not an available option")
	require.Equal(t, "Invoice Date must be a date (YYYY-MM-DD)", invalid.Fields[FieldInvoiceDate])
	require.Equal(t, "invalid fields: gl_code, invoice_date, vendor", invalid.Error())
	require.Empty(t, records.created)
}

func TestCreateRejectsNegativeAmount(t *testing.T) {
	svc, _, _ := newTestService(8)
	values := validInvoice()
	delete(values, FieldPONumber)
	values[FieldBaseAmount] = "-5"

	_, err := svc.Create(context.Background(), KindInvoice, "", Submission{Values: values})
	var invalid *ValidationError
	require.ErrorAs(t, err, &invalid)
	require.Equal(t, "Base Amount must be a non-negative amount", invalid.Fields[FieldBaseAmount])
}

func TestCreateKeepsClientOverridesOfPrefill(t *testing.T) {
	svc, _, records := newTestService(8)
	values := validInvoice()
	values[FieldBaseAmount] = "5000"
	values[FieldSGST] = "IGST 5%"

	_, err := svc.Create(context.Background(), KindInvoice, "", Submission{Values: values})
	require.NoError(t, err)
	fields := records.created[0].fields
	require.Equal(t, "100", fields[FieldPOID])
	require.Equal(t, "5000", fields[FieldBaseAmount])
	require.Equal(t, "IGST 5%", fields[FieldSGST])
	require.Equal(t, "CGST 9%", fields[FieldCGST])
	require.Equal(t, "5700.00", fields[FieldFinalAmount])
}

func TestReplayOrderPutsPONumberFirst(t *testing.T) {
	def := Definitions()[KindInvoice]
	order := replayOrder(def.Fields)
	require.Equal(t, FieldPONumber, order[0].Name)
	require.Len(t, order, len(def.Fields))
}

func TestCreateExplicitEmptyClearsPrefilledTax(t *testing.T) {
	svc, _, records := newTestService(8)
	values := validInvoice()
	values[FieldCGST] = ""

	_, err := svc.Create(context.Background(), KindInvoice, "", Submission{Values: values})
	require.NoError(t, err)
	fields := records.created[0].fields
	require.Equal(t, "", fields[FieldCGST])
	require.Equal(t, "1090.00", fields[FieldFinalAmount])
}

func TestUpdateIsNotGated(t *testing.T) {
	svc, _, records := newTestService(13)
	rec, err := svc.Update(context.Background(), KindPurchaseOrder, "po-7", Submission{Values: map[string]string{
		FieldVendor:      "Bharat Steel",
		FieldCostCenter:  "CC-200 - Sales",
		FieldPaymentType: "Credit",
		FieldBaseAmount:  "200",
		FieldIGST:        "IGST 18%",
	}})
	require.NoError(t, err)
	require.Equal(t, "po-7", rec.ID)
	require.Equal(t, "236.00", records.updated["po-7"][FieldFinalAmount])
}

func TestUpdateRequiresID(t *testing.T) {
	svc, _, _ := newTestService(8)
	_, err := svc.Update(context.Background(), KindPurchaseOrder, " ", Submission{})
	require.ErrorIs(t, err, httpx.ErrValidation)
}

func TestKindsSorted(t *testing.T) {
	svc, _, _ := newTestService(8)
	require.Equal(t, []Kind{KindInvoice, KindPurchaseOrder, KindReimbursement}, svc.Kinds())
}

func TestCreateRejectsReplayedKey(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	svc, _, records := newTestService(8)
	svc.WithKeyGuard(shared.NewIdempotencyStore(client, time.Hour))
	ctx := context.Background()
	sub := Submission{Values: validInvoice(), IdempotencyKey: "dup"}

	_, err := svc.Create(ctx, KindInvoice, "", sub)
	require.NoError(t, err)
	_, err = svc.Create(ctx, KindInvoice, "", sub)
	require.ErrorIs(t, err, httpx.ErrConflict)
	require.Len(t, records.created, 1)

	records.err = errors.New("backend down")
	sub.IdempotencyKey = "retry-me"
	_, err = svc.Create(ctx, KindInvoice, "", sub)
	require.ErrorContains(t, err, "backend down")

	records.err = nil
	_, err = svc.Create(ctx, KindInvoice, "", sub)
	require.NoError(t, err)
	require.Len(t, records.created, 2)
}
