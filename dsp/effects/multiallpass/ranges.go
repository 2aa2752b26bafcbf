package multiallpass

import "math"

// Range describes how a host exposes one continuous control: its bounds,
// step, knob taper and factory value. The engine itself accepts any valid
// value; hosts use ranges to build controls and to sanitize user input.
type Range struct {
	Name    string
	Min     float64
	Max     float64
	Step    float64
	Default float64
	// Skew shapes the knob taper: a control position p in [0, 1] maps to
	// Min + (Max-Min)*p^(1/Skew). Values below 1 give more travel to the
	// low end. 0 is treated as 1.
	Skew float64
}

// Clamp snaps v to the nearest step from Min and bounds it to [Min, Max].
// NaN maps to Default.
func (r Range) Clamp(v float64) float64 {
	if math.IsNaN(v) {
		return r.Default
	}

	if r.Step > 0 {
		v = r.Min + math.Round((v-r.Min)/r.Step)*r.Step
	}

	return math.Max(r.Min, math.Min(r.Max, v))
}

// ToNormalized maps v to a control position in [0, 1].
func (r Range) ToNormalized(v float64) float64 {
	if r.Max <= r.Min {
		return 0
	}

	p := (math.Max(r.Min, math.Min(r.Max, v)) - r.Min) / (r.Max - r.Min)

	return math.Pow(p, r.skew())
}

// FromNormalized maps a control position in [0, 1] to a snapped value.
func (r Range) FromNormalized(p float64) float64 {
	if math.IsNaN(p) {
		return r.Default
	}

	p = math.Max(0, math.Min(1, p))

	return r.Clamp(r.Min + (r.Max-r.Min)*math.Pow(p, 1/r.skew()))
}

func (r Range) skew() float64 {
	if r.Skew <= 0 {
		return 1
	}

	return r.Skew
}

// Contains reports whether v lies within [Min, Max].
func (r Range) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

// frequencySkew gives the frequency knobs a square-root taper.
const frequencySkew = 0.5

// HostRanges returns the control ranges for an engine with maxStages
// stages. Frequencies are in Hz and gain in dB.
func HostRanges(maxStages int) []Range {
	return []Range{
		{Name: "min-frequency", Min: 10, Max: 1000, Step: 10, Default: DefaultMinFrequencyHz, Skew: frequencySkew},
		{Name: "max-frequency", Min: 1000, Max: 10000, Step: 10, Default: DefaultMaxFrequencyHz, Skew: frequencySkew},
		{Name: "stages", Min: 1, Max: float64(maxStages), Step: 1, Default: DefaultStages, Skew: 1},
		{Name: "mix", Min: 0, Max: 1, Step: 0.05, Default: DefaultMix, Skew: 1},
		{Name: "output-gain-db", Min: -12, Max: 12, Step: 0.1, Default: DefaultOutputGainDB, Skew: 1},
	}
}
