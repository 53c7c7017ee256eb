package domain

import "fmt"

// Outcome names a lagged consequence of confirmed cases that the model can
// project.
type Outcome string

const (
	OutcomeDeaths Outcome = "deaths"
	OutcomeICU    Outcome = "icu"
	OutcomeNonICU Outcome = "non_icu"
)

// Outcomes returns every supported outcome in display order.
func Outcomes() []Outcome {
	return []Outcome{OutcomeDeaths, OutcomeICU, OutcomeNonICU}
}

// ParseOutcome maps a wire value onto an Outcome.
func ParseOutcome(s string) (Outcome, error) {
	switch Outcome(s) {
	case OutcomeDeaths, OutcomeICU, OutcomeNonICU:
		return Outcome(s), nil
	}
	return "", fmt.Errorf("unknown outcome %q", s)
}

// Label returns the human-readable name used in reports and chart legends.
func (o Outcome) Label() string {
	switch o {
	case OutcomeDeaths:
		return "deaths"
	case OutcomeICU:
		return "ICU patients"
	case OutcomeNonICU:
		return "non-ICU hospital patients"
	}
	return string(o)
}

// IntBounds describes a whole-valued tuning range (the lag slider).
type IntBounds struct {
	Min     int `json:"min"`
	Max     int `json:"max"`
	Step    int `json:"step"`
	Default int `json:"default"`
}

// Contains reports whether v falls inside the range. Values between step
// marks are accepted; the step only guides UI increments.
func (b IntBounds) Contains(v int) bool { return v >= b.Min && v <= b.Max }

// FloatBounds describes a fractional tuning range (the rate slider).
type FloatBounds struct {
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	Step    float64 `json:"step"`
	Default float64 `json:"default"`
}

// Contains reports whether v falls inside the range.
func (b FloatBounds) Contains(v float64) bool { return v >= b.Min && v <= b.Max }

// Control carries the tuning ranges for one outcome's projection.
type Control struct {
	Outcome Outcome     `json:"outcome"`
	Label   string      `json:"label"`
	Lag     IntBounds   `json:"lag"`
	Rate    FloatBounds `json:"rate"`
}

var controls = map[Outcome]Control{
	OutcomeDeaths: {
		Outcome: OutcomeDeaths,
		Lag:     IntBounds{Min: 5, Max: 30, Step: 1, Default: 17},
		Rate:    FloatBounds{Min: 0.001, Max: 0.030, Step: 0.001, Default: 0.018},
	},
	OutcomeICU: {
		Outcome: OutcomeICU,
		Lag:     IntBounds{Min: 1, Max: 20, Step: 1, Default: 15},
		Rate:    FloatBounds{Min: 0.0, Max: 0.3, Step: 0.01, Default: 0.19},
	},
	OutcomeNonICU: {
		Outcome: OutcomeNonICU,
		Lag:     IntBounds{Min: 1, Max: 20, Step: 1, Default: 13},
		Rate:    FloatBounds{Min: 0.0, Max: 0.6, Step: 0.01, Default: 0.47},
	},
}

// ControlFor returns the tuning ranges for one outcome.
func ControlFor(o Outcome) (Control, error) {
	c, ok := controls[o]
	if !ok {
		return Control{}, fmt.Errorf("unknown outcome %q", o)
	}
	c.Label = o.Label()
	return c, nil
}

// Params is one concrete choice of lag and rate for a projection.
type Params struct {
	Lag  int     `json:"lag"`
	Rate float64 `json:"rate"`
}

// DefaultParams returns the starting lag and rate for an outcome.
func DefaultParams(o Outcome) (Params, error) {
	c, err := ControlFor(o)
	if err != nil {
		return Params{}, err
	}
	return Params{Lag: c.Lag.Default, Rate: c.Rate.Default}, nil
}

// Validate checks p against the outcome's tuning ranges.
func (p Params) Validate(o Outcome) error {
	c, err := ControlFor(o)
	if err != nil {
		return err
	}
	if !c.Lag.Contains(p.Lag) {
		return fmt.Errorf("lag %d for %s outside [%d, %d]", p.Lag, o, c.Lag.Min, c.Lag.Max)
	}
	if !c.Rate.Contains(p.Rate) {
		return fmt.Errorf("rate %g for %s outside [%g, %g]", p.Rate, o, c.Rate.Min, c.Rate.Max)
	}
	return nil
}
