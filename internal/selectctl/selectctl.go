package selectctl

// ChangeEvent mirrors the change notification of a native select element so
// the control composes with generic form-state reducers.
type ChangeEvent struct {
	FieldName string `json:"name"`
	Value     string `json:"value"`
}

// ChangeFunc receives change events synchronously.
type ChangeFunc func(ChangeEvent)

// DropdownState is the interactive state of one control.
type DropdownState struct {
	IsOpen     bool   `json:"is_open"`
	SearchTerm string `json:"search_term"`
	Touched    bool   `json:"touched"`
}

// Config describes a control at mount time.
type Config struct {
	Name        string
	Label       string
	Placeholder string
	Required    bool
	Value       string
	Options     []string
	OnChange    ChangeFunc
}

// Select is a single-select control with incremental search. It is owned by a
// single caller and is not safe for concurrent use.
type Select struct {
	name        string
	label       string
	placeholder string
	required    bool
	value       string
	onChange    ChangeFunc

	options  []string
	filtered []string
	state    DropdownState
}

// New mounts a control in the Closed, untouched state.
func New(cfg Config) *Select {
	s := &Select{
		name:        cfg.Name,
		label:       cfg.Label,
		placeholder: cfg.Placeholder,
		required:    cfg.Required,
		value:       cfg.Value,
		onChange:    cfg.OnChange,
	}
	s.SetOptions(cfg.Options)
	return s
}

// Name is the field name carried by change events.
func (s *Select) Name() string { return s.name }

// Value is the currently selected option, empty when nothing is selected.
func (s *Select) Value() string { return s.value }

// State returns a copy of the dropdown state.
func (s *Select) State() DropdownState { return s.state }

// Options returns the full option list.
func (s *Select) Options() []string { return append([]string(nil), s.options...) }

// Filtered returns the options matching the current search term.
func (s *Select) Filtered() []string { return append([]string(nil), s.filtered...) }

// SetOptions replaces the option list and recomputes the filtered view
// against the current search term. Earlier lists are forgotten.
func (s *Select) SetOptions(options []string) {
	s.options = append([]string(nil), options...)
	s.refilter()
}

// SetValue updates the value from the owning form without emitting a change
// event, for example when a dependent field is pre-filled.
func (s *Select) SetValue(value string) { s.value = value }

// Activate toggles the dropdown, as a click on the display box does.
func (s *Select) Activate() {
	s.state.IsOpen = !s.state.IsOpen
}

// Search updates the search term while open.
func (s *Select) Search(term string) {
	if !s.state.IsOpen {
		return
	}
	s.state.SearchTerm = term
	s.refilter()
}

// Choose selects option: the change handler runs first, then the control
// closes, becomes touched and clears its search term. Choosing while closed,
// or an option outside the current list, is ignored.
func (s *Select) Choose(option string) bool {
	if !s.state.IsOpen || !s.has(option) {
		return false
	}
	s.value = option
	if s.onChange != nil {
		s.onChange(ChangeEvent{FieldName: s.name, Value: option})
	}
	s.state.IsOpen = false
	s.state.Touched = true
	s.state.SearchTerm = ""
	s.refilter()
	return true
}

// Blur handles focus leaving the control's subtree. The search term is kept.
func (s *Select) Blur() {
	s.state.IsOpen = false
	s.state.Touched = true
}

// Invalid reports a required control that was touched and holds no value.
func (s *Select) Invalid() bool {
	return s.required && s.state.Touched && s.value == ""
}

func (s *Select) has(option string) bool {
	for _, o := range s.options {
		if o == option {
			return true
		}
	}
	return false
}

func (s *Select) refilter() {
	s.filtered = Filter(s.options, s.state.SearchTerm)
}
