package forms

import (
	"strconv"
	"strings"
	"time"

	"github.com/jhipl/backoffice/internal/dategate"
	"github.com/jhipl/backoffice/internal/procurement"
	"github.com/jhipl/backoffice/internal/selectctl"
	"github.com/jhipl/backoffice/internal/taxcalc"
)

// State is the generic form-state reducer: field name to value.
type State map[string]string

// Apply folds a change event into the state.
func (s State) Apply(ev selectctl.ChangeEvent) {
	s[ev.FieldName] = ev.Value
}

// PrefillFunc resolves a PO number to its tax fields.
type PrefillFunc func(number string) (procurement.TaxFields, bool)

// Form is one open modal: the definition, its select controls and values.
type Form struct {
	def     Definition
	state   State
	selects map[string]*selectctl.Select
	prefill PrefillFunc
}

// NewForm builds an empty form. prefill may be nil when the form has no PO field.
func NewForm(def Definition, prefill PrefillFunc) *Form {
	f := &Form{
		def:     def,
		state:   State{},
		selects: make(map[string]*selectctl.Select),
		prefill: prefill,
	}
	for _, spec := range def.Fields {
		if !spec.IsSelect() {
			continue
		}
		f.selects[spec.Name] = selectctl.New(selectctl.Config{
			Name:        spec.Name,
			Label:       spec.Label,
			Placeholder: "Select " + spec.Label,
			Required:    strings.Contains(spec.Rule, "required"),
			Options:     spec.Options,
			OnChange:    f.onChange,
		})
	}
	return f
}

// Definition returns the form's definition.
func (f *Form) Definition() Definition { return f.def }

// OpenModal consults the gate before the modal is shown. It returns the
// blocked message when creation is not allowed.
func (f *Form) OpenModal(gate dategate.Gate, today time.Time, identity string) (bool, string) {
	if gate.IsBlocked(today, identity) {
		return false, dategate.BlockedMessage(f.def.ActionNoun)
	}
	return true, ""
}

// Select returns the control for a select field.
func (f *Form) Select(name string) (*selectctl.Select, bool) {
	s, ok := f.selects[name]
	return s, ok
}

// SetOptions replaces the options of a select field.
func (f *Form) SetOptions(name string, options []string) {
	if s, ok := f.selects[name]; ok {
		s.SetOptions(options)
	}
}

// Set records a typed input value.
func (f *Form) Set(name, value string) {
	f.onChange(selectctl.ChangeEvent{FieldName: name, Value: value})
}

// Value returns the current value of name.
func (f *Form) Value(name string) string { return f.state[name] }

// Values returns a copy of the form state.
func (f *Form) Values() map[string]string {
	out := make(map[string]string, len(f.state))
	for k, v := range f.state {
		out[k] = v
	}
	return out
}

func (f *Form) onChange(ev selectctl.ChangeEvent) {
	f.state.Apply(ev)
	switch ev.FieldName {
	case FieldPONumber:
		f.applyPurchaseOrder(ev.Value)
	case FieldSGST, FieldCGST, FieldIGST, FieldBaseAmount:
		f.recompute()
	}
}

// applyPurchaseOrder fills the dependent fields from the selected PO, or
// clears them when the number has no snapshot.
func (f *Form) applyPurchaseOrder(number string) {
	var fields procurement.TaxFields
	found := false
	if f.prefill != nil && number != "" {
		fields, found = f.prefill(number)
	}
	base := ""
	final := ""
	if found {
		base = strconv.FormatFloat(fields.BaseAmount, 'f', -1, 64)
		final = fields.Display
	}
	f.setDerived(FieldPOID, fields.POID)
	f.setDerived(FieldPaymentType, fields.PaymentType)
	f.setDerived(FieldSGST, fields.SGST)
	f.setDerived(FieldCGST, fields.CGST)
	f.setDerived(FieldIGST, fields.IGST)
	f.setDerived(FieldBaseAmount, base)
	f.setDerived(FieldFinalAmount, final)
}

func (f *Form) recompute() {
	if _, ok := f.def.Field(FieldFinalAmount); !ok {
		return
	}
	raw := strings.TrimSpace(f.state[FieldBaseAmount])
	base, err := strconv.ParseFloat(raw, 64)
	if raw == "" || err != nil {
		f.state[FieldFinalAmount] = ""
		return
	}
	final := taxcalc.ComputeFinalAmount(base, f.state[FieldSGST], f.state[FieldCGST], f.state[FieldIGST])
	f.state[FieldFinalAmount] = taxcalc.FormatAmount(final, 2)
}

// setDerived writes a dependent value without emitting a change event. Fields
// the definition does not carry are skipped.
func (f *Form) setDerived(name, value string) {
	if _, ok := f.def.Field(name); !ok {
		return
	}
	f.state[name] = value
	if s, ok := f.selects[name]; ok {
		s.SetValue(value)
	}
}

// FieldView is one rendered field.
type FieldView struct {
	Name    string          `json:"name"`
	Label   string          `json:"label"`
	Value   string          `json:"value"`
	Derived bool            `json:"derived,omitempty"`
	Select  *selectctl.View `json:"select,omitempty"`
}

// View is the rendered form.
type View struct {
	Kind   Kind        `json:"kind"`
	Title  string      `json:"title"`
	Fields []FieldView `json:"fields"`
}

// View renders the form in definition order.
func (f *Form) View() View {
	v := View{Kind: f.def.Kind, Title: f.def.Title, Fields: make([]FieldView, 0, len(f.def.Fields))}
	for _, spec := range f.def.Fields {
		fv := FieldView{Name: spec.Name, Label: spec.Label, Value: f.state[spec.Name], Derived: spec.Derived}
		if s, ok := f.selects[spec.Name]; ok {
			sv := s.View()
			fv.Select = &sv
		}
		v.Fields = append(v.Fields, fv)
	}
	return v
}
