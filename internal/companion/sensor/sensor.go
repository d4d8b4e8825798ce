// Package sensor classifies raw telemetry readings into display levels
// and derives the composite driving state. All classification is pure;
// a missing or zero reading degrades to NOT_CONNECTED, never to a panic.
package sensor

import (
	"github.com/safedrive-io/safedrive/internal/companion/model"
)

// Level is the severity bucket a reading falls into.
type Level string

const (
	LevelSafe   Level = "SAFE"
	LevelWarn   Level = "WARNING"
	LevelDanger Level = "DANGER"

	// LevelNotConnected means the sensor produced no usable reading.
	LevelNotConnected Level = "NOT_CONNECTED"

	// LevelHidden means the viewer's role does not permit seeing the value.
	LevelHidden Level = "HIDDEN"
)

// Thresholds holds the classification boundaries. Values mirror the
// calibration of the deployed vehicle units.
type Thresholds struct {
	// AlcoholSafe and AlcoholWarning bound the normalized [0,1] reading.
	// At or below Safe is SAFE, at or below Warning is WARNING.
	AlcoholSafe    float64
	AlcoholWarning float64

	// ClearanceSafe and ClearanceWarning bound obstacle and footpath
	// distances in centimeters. Strictly above Safe is SAFE, strictly
	// above Warning is WARNING.
	ClearanceSafe    float64
	ClearanceWarning float64

	// AccelSafe and AccelDanger bound the acceleration magnitude in m/s².
	AccelSafe   float64
	AccelDanger float64

	// ImpactTrigger is the magnitude above which an accident alert fires.
	// Independent of the display buckets.
	ImpactTrigger float64

	// RunningMinSpeed is the km/h floor for considering the vehicle moving.
	RunningMinSpeed float64
}

// DefaultThresholds returns the production calibration.
func DefaultThresholds() Thresholds {
	return Thresholds{
		AlcoholSafe:      0.30,
		AlcoholWarning:   0.70,
		ClearanceSafe:    20,
		ClearanceWarning: 10,
		AccelSafe:        11,
		AccelDanger:      15,
		ImpactTrigger:    14,
		RunningMinSpeed:  3,
	}
}

// Classifier evaluates snapshots against a fixed set of thresholds.
type Classifier struct {
	t Thresholds
}

// NewClassifier returns a Classifier using the given thresholds.
func NewClassifier(t Thresholds) *Classifier {
	return &Classifier{t: t}
}

// Alcohol classifies the normalized alcohol reading. When visible is
// false the value is withheld regardless of the reading.
func (c *Classifier) Alcohol(reading float64, visible bool) Level {
	if !visible {
		return LevelHidden
	}
	if reading <= 0 {
		return LevelNotConnected
	}
	switch {
	case reading <= c.t.AlcoholSafe:
		return LevelSafe
	case reading <= c.t.AlcoholWarning:
		return LevelWarn
	default:
		return LevelDanger
	}
}

// AlcoholPercent converts the normalized reading to the 0-100 scale
// shown on dashboards.
func AlcoholPercent(reading float64) float64 {
	return reading * 100
}

// Obstacle classifies front/back clearance by the nearer of the two.
func (c *Classifier) Obstacle(front, back float64) Level {
	if front <= 0 || back <= 0 {
		return LevelNotConnected
	}
	return c.clearance(min(front, back))
}

// Footpath classifies lateral clearance. Both sides must clear a
// boundary for the pair to reach that level.
func (c *Classifier) Footpath(left, right float64) Level {
	if left <= 0 || right <= 0 {
		return LevelNotConnected
	}
	return c.clearance(min(left, right))
}

func (c *Classifier) clearance(dist float64) Level {
	switch {
	case dist > c.t.ClearanceSafe:
		return LevelSafe
	case dist > c.t.ClearanceWarning:
		return LevelWarn
	default:
		return LevelDanger
	}
}

// Accident classifies the acceleration magnitude for display.
func (c *Classifier) Accident(s *model.SensorSnapshot) Level {
	mag, ok := s.AccelMagnitude()
	if !ok {
		return LevelNotConnected
	}
	switch {
	case mag < c.t.AccelSafe:
		return LevelSafe
	case mag < c.t.AccelDanger:
		return LevelWarn
	default:
		return LevelDanger
	}
}

// ImpactTriggered reports whether the snapshot crosses the accident-alert
// threshold. Missing axes never trigger.
func (c *Classifier) ImpactTriggered(s *model.SensorSnapshot) bool {
	mag, ok := s.AccelMagnitude()
	return ok && mag > c.t.ImpactTrigger
}

// Running reports whether the vehicle counts as actively driving. Every
// input must be present and within bounds; any missing reading means the
// vehicle is not considered running.
func (c *Classifier) Running(s *model.SensorSnapshot) bool {
	if s == nil {
		return false
	}
	mag, ok := s.AccelMagnitude()
	if !ok {
		return false
	}
	if s.Alcohol <= 0 || s.Alcohol > c.t.AlcoholWarning {
		return false
	}
	if s.Speed <= c.t.RunningMinSpeed {
		return false
	}
	u, f := s.Ultrasonic, s.Surface
	if u.Front <= c.t.ClearanceWarning || u.Back <= c.t.ClearanceWarning {
		return false
	}
	if f.Left <= c.t.ClearanceWarning || f.Right <= c.t.ClearanceWarning {
		return false
	}
	return mag < c.t.ImpactTrigger
}
