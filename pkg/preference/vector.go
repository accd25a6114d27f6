package preference

import (
	"fmt"
	"math"
	"sort"
)

// Dimension names a single axis of a golfer's preference profile.
type Dimension string

const (
	Difficulty       Dimension = "difficulty"
	Variety          Dimension = "variety"
	StrategicPenal   Dimension = "strategic_penal"
	PhysicalDemand   Dimension = "physical_demand"
	WeatherTolerance Dimension = "weather_tolerance"
	Conditions       Dimension = "conditions"
	Amenities        Dimension = "amenities"
	Service          Dimension = "service"
	Value            Dimension = "value"
	Aesthetics       Dimension = "aesthetics"
)

const (
	MinScore     = 0.0
	MaxScore     = 10.0
	NeutralScore = 5.0
)

// Dimensions is the canonical ordering. Vector embeddings of courses use the
// same order, so it must not change without re-ingesting the course collection.
var Dimensions = []Dimension{
	Difficulty,
	Variety,
	StrategicPenal,
	PhysicalDemand,
	WeatherTolerance,
	Conditions,
	Amenities,
	Service,
	Value,
	Aesthetics,
}

var labels = map[Dimension]string{
	Difficulty:       "Challenge",
	Variety:          "Variety",
	StrategicPenal:   "Strategic vs. penal",
	PhysicalDemand:   "Physical demand",
	WeatherTolerance: "Weather tolerance",
	Conditions:       "Course conditions",
	Amenities:        "Amenities",
	Service:          "Service",
	Value:            "Value",
	Aesthetics:       "Scenery",
}

// Label returns a human readable name for the dimension.
func (d Dimension) Label() string {
	if l, ok := labels[d]; ok {
		return l
	}
	return string(d)
}

// IsValid reports whether d is one of the ten canonical dimensions.
func (d Dimension) IsValid() bool {
	_, ok := labels[d]
	return ok
}

// Vector holds raw scores on the [MinScore, MaxScore] scale.
type Vector struct {
	Difficulty       float64 `json:"difficulty" yaml:"difficulty"`
	Variety          float64 `json:"variety" yaml:"variety"`
	StrategicPenal   float64 `json:"strategic_penal" yaml:"strategic_penal"`
	PhysicalDemand   float64 `json:"physical_demand" yaml:"physical_demand"`
	WeatherTolerance float64 `json:"weather_tolerance" yaml:"weather_tolerance"`
	Conditions       float64 `json:"conditions" yaml:"conditions"`
	Amenities        float64 `json:"amenities" yaml:"amenities"`
	Service          float64 `json:"service" yaml:"service"`
	Value            float64 `json:"value" yaml:"value"`
	Aesthetics       float64 `json:"aesthetics" yaml:"aesthetics"`
}

// Neutral returns a vector with every dimension at NeutralScore.
func Neutral() Vector {
	return Vector{
		Difficulty:       NeutralScore,
		Variety:          NeutralScore,
		StrategicPenal:   NeutralScore,
		PhysicalDemand:   NeutralScore,
		WeatherTolerance: NeutralScore,
		Conditions:       NeutralScore,
		Amenities:        NeutralScore,
		Service:          NeutralScore,
		Value:            NeutralScore,
		Aesthetics:       NeutralScore,
	}
}

func (v *Vector) field(d Dimension) *float64 {
	switch d {
	case Difficulty:
		return &v.Difficulty
	case Variety:
		return &v.Variety
	case StrategicPenal:
		return &v.StrategicPenal
	case PhysicalDemand:
		return &v.PhysicalDemand
	case WeatherTolerance:
		return &v.WeatherTolerance
	case Conditions:
		return &v.Conditions
	case Amenities:
		return &v.Amenities
	case Service:
		return &v.Service
	case Value:
		return &v.Value
	case Aesthetics:
		return &v.Aesthetics
	}
	return nil
}

// Get returns the raw score for d, or NeutralScore for an unknown dimension.
func (v Vector) Get(d Dimension) float64 {
	if f := v.field(d); f != nil {
		return *f
	}
	return NeutralScore
}

// Set stores a clamped score for d.
func (v *Vector) Set(d Dimension, score float64) error {
	f := v.field(d)
	if f == nil {
		return fmt.Errorf("unknown preference dimension %q", d)
	}
	*f = clamp(score, MinScore, MaxScore)
	return nil
}

// Add applies a delta to d and clamps the result.
func (v *Vector) Add(d Dimension, delta float64) error {
	return v.Set(d, v.Get(d)+delta)
}

// Clamped returns a copy with every dimension forced into range. NaN becomes neutral.
func (v Vector) Clamped() Vector {
	out := v
	for _, d := range Dimensions {
		f := out.field(d)
		if math.IsNaN(*f) {
			*f = NeutralScore
			continue
		}
		*f = clamp(*f, MinScore, MaxScore)
	}
	return out
}

// Map returns the raw scores keyed by dimension name.
func (v Vector) Map() map[string]float64 {
	out := make(map[string]float64, len(Dimensions))
	for _, d := range Dimensions {
		out[string(d)] = v.Get(d)
	}
	return out
}

// Normalized maps every dimension into [0, 1].
func (v Vector) Normalized() map[string]float64 {
	c := v.Clamped()
	out := make(map[string]float64, len(Dimensions))
	for _, d := range Dimensions {
		out[string(d)] = (c.Get(d) - MinScore) / (MaxScore - MinScore)
	}
	return out
}

// Embedding returns the normalized scores in canonical order, ready for a
// nearest-neighbour query against the course collection.
func (v Vector) Embedding() []float32 {
	n := v.Normalized()
	out := make([]float32, len(Dimensions))
	for i, d := range Dimensions {
		out[i] = float32(n[string(d)])
	}
	return out
}

// FromMap builds a vector from loosely keyed scores. Missing or unknown keys
// leave the neutral default in place.
func FromMap(m map[string]float64) Vector {
	v := Neutral()
	for k, score := range m {
		d := Dimension(k)
		if !d.IsValid() {
			continue
		}
		_ = v.Set(d, score)
	}
	return v.Clamped()
}

// Ranked holds a dimension and its score for ordering.
type Ranked struct {
	Dimension Dimension `json:"dimension"`
	Label     string    `json:"label"`
	Score     float64   `json:"score"`
}

// Top returns the n highest scoring dimensions, canonical order breaking ties.
func (v Vector) Top(n int) []Ranked {
	ranked := make([]Ranked, 0, len(Dimensions))
	for _, d := range Dimensions {
		ranked = append(ranked, Ranked{Dimension: d, Label: d.Label(), Score: v.Get(d)})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	if n > len(ranked) {
		n = len(ranked)
	}
	if n < 0 {
		n = 0
	}
	return ranked[:n]
}

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
