package plugin

// Pie represents the breakdown of one estimator's score. Each slice is a risk
// factor; the score is the sum of the slice values.
type Pie struct {
	Method  string  `json:"method" bson:"method"`
	Subject string  `json:"subject,omitempty" bson:"subject,omitempty"`
	Slices  []Slice `json:"slices" bson:"slices"`
}

// Slice represents a component that factors into the estimator's score. A
// positive MaxValue caps the value; protective slices carry negative values.
type Slice struct {
	Name     string  `json:"name" bson:"name"`
	Value    float64 `json:"value" bson:"value"`
	MaxValue float64 `json:"maxValue,omitempty" bson:"maxValue,omitempty"`
	Reason   string  `json:"reason,omitempty" bson:"reason,omitempty"`
}

// NewPie constructs a new pie for the given method and subject, starting from
// a copy of the default slices.
func NewPie(method, subject string, defaults []Slice) *Pie {
	pie := &Pie{Method: method, Subject: subject}
	pie.Slices = make([]Slice, len(defaults))
	copy(pie.Slices, defaults)
	return pie
}

// Clone creates a copy of the pie. Slices of the clone can be modified without
// affecting the original.
func (p *Pie) Clone() *Pie {
	cloned := *p
	cloned.Slices = make([]Slice, len(p.Slices))
	copy(cloned.Slices, p.Slices)
	return &cloned
}

// UpdateSliceValue finds the slice with the given name and sets its value and
// reason. The value is capped at the slice's MaxValue when one is set.
func (p *Pie) UpdateSliceValue(name string, value float64, reason string) {
	for i := range p.Slices {
		if p.Slices[i].Name == name {
			if p.Slices[i].MaxValue > 0 && value > p.Slices[i].MaxValue {
				value = p.Slices[i].MaxValue
			}
			p.Slices[i].Value = value
			p.Slices[i].Reason = reason
			return
		}
	}
}

// SliceValue returns the value of the named slice, or 0 if there is none.
func (p *Pie) SliceValue(name string) float64 {
	for i := range p.Slices {
		if p.Slices[i].Name == name {
			return p.Slices[i].Value
		}
	}
	return 0
}

// TotalValues sums up all the values in the slices.
func (p *Pie) TotalValues() float64 {
	total := 0.0
	for i := range p.Slices {
		total += p.Slices[i].Value
	}
	return total
}

// TopFactors returns up to n slices with a positive value as factors, largest
// first.
func (p *Pie) TopFactors(n int) []Factor {
	factors := make([]Factor, 0, len(p.Slices))
	for _, s := range p.Slices {
		if s.Value > 0 {
			factors = append(factors, Factor{Name: s.Name, Reason: s.Reason, Magnitude: Round(s.Value)})
		}
	}
	SortFactors(factors)
	if len(factors) > n {
		factors = factors[:n]
	}
	return factors
}
