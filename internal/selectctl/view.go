package selectctl

// View is the rendered form of a control. The visual list and the accessible
// name/value pair come from the same state.
type View struct {
	Name           string   `json:"name"`
	Label          string   `json:"label,omitempty"`
	Value          string   `json:"value"`
	Display        string   `json:"display"`
	Required       bool     `json:"required"`
	Open           bool     `json:"open"`
	SearchTerm     string   `json:"search_term"`
	Touched        bool     `json:"touched"`
	Invalid        bool     `json:"invalid"`
	Error          string   `json:"error,omitempty"`
	Options        []string `json:"options"`
	AccessibleName string   `json:"accessible_name"`
}

// View renders the control.
func (s *Select) View() View {
	v := View{
		Name:       s.name,
		Label:      s.label,
		Value:      s.value,
		Display:    s.value,
		Required:   s.required,
		Open:       s.state.IsOpen,
		SearchTerm: s.state.SearchTerm,
		Touched:    s.state.Touched,
		Invalid:    s.Invalid(),
		Options:    s.Filtered(),
	}
	if v.Display == "" {
		v.Display = s.placeholder
		if v.Display == "" {
			v.Display = "Select..."
		}
	}
	v.AccessibleName = s.label
	if v.AccessibleName == "" {
		v.AccessibleName = s.name
	}
	if v.Invalid {
		v.Error = v.AccessibleName + " is required"
	}
	return v
}
