package sensor

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/safedrive-io/safedrive/internal/companion/model"
)

func f(v float64) *float64 { return &v }

func snapshot(alcohol, front, back, left, right, speed, ax, ay, az float64) *model.SensorSnapshot {
	return &model.SensorSnapshot{
		VehicleID:  "veh-1",
		Alcohol:    alcohol,
		Ultrasonic: model.Ultrasonic{Front: front, Back: back},
		Surface:    model.Surface{Left: left, Right: right},
		Accel:      model.Accel{X: f(ax), Y: f(ay), Z: f(az)},
		Speed:      speed,
	}
}

func TestAlcohol(t *testing.T) {
	c := NewClassifier(DefaultThresholds())

	tests := []struct {
		name    string
		reading float64
		visible bool
		want    Level
	}{
		{"zero means no sensor", 0, true, LevelNotConnected},
		{"low reading is safe", 0.10, true, LevelSafe},
		{"boundary 0.30 is still safe", 0.30, true, LevelSafe},
		{"just above safe is warning", 0.31, true, LevelWarn},
		{"boundary 0.70 is still warning", 0.70, true, LevelWarn},
		{"above warning is danger", 0.71, true, LevelDanger},
		{"high reading is danger", 0.95, true, LevelDanger},
		{"hidden wins over any reading", 0.95, false, LevelHidden},
		{"hidden wins over no sensor", 0, false, LevelHidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Alcohol(tt.reading, tt.visible))
		})
	}
}

func TestAlcoholMonotonic(t *testing.T) {
	// Severity must never decrease as the reading rises.
	c := NewClassifier(DefaultThresholds())
	rank := map[Level]int{LevelSafe: 0, LevelWarn: 1, LevelDanger: 2}

	prev := -1
	for r := 0.01; r <= 1.0; r += 0.01 {
		got := rank[c.Alcohol(r, true)]
		assert.GreaterOrEqual(t, got, prev, "reading %.2f", r)
		prev = got
	}
}

func TestObstacle(t *testing.T) {
	c := NewClassifier(DefaultThresholds())

	tests := []struct {
		name        string
		front, back float64
		want        Level
	}{
		{"both clear", 50, 40, LevelSafe},
		{"nearer side governs", 50, 15, LevelWarn},
		{"boundary 20 is warning", 20, 100, LevelWarn},
		{"boundary 10 is danger", 10, 100, LevelDanger},
		{"close front is danger", 5, 100, LevelDanger},
		{"missing front", 0, 100, LevelNotConnected},
		{"missing back", 100, 0, LevelNotConnected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Obstacle(tt.front, tt.back))
		})
	}
}

func TestFootpath(t *testing.T) {
	c := NewClassifier(DefaultThresholds())

	assert.Equal(t, LevelSafe, c.Footpath(30, 25))
	assert.Equal(t, LevelWarn, c.Footpath(30, 12))
	assert.Equal(t, LevelDanger, c.Footpath(8, 30))
	assert.Equal(t, LevelNotConnected, c.Footpath(0, 30))
	assert.Equal(t, LevelNotConnected, c.Footpath(30, 0))
}

func TestAccident(t *testing.T) {
	c := NewClassifier(DefaultThresholds())

	tests := []struct {
		name string
		snap *model.SensorSnapshot
		want Level
	}{
		{"resting gravity is safe", snapshot(0.1, 50, 50, 30, 30, 0, 0, 0, 9.8), LevelSafe},
		{"moderate shake is warning", snapshot(0.1, 50, 50, 30, 30, 0, 12, 0, 0), LevelWarn},
		{"hard impact is danger", snapshot(0.1, 50, 50, 30, 30, 0, 15, 3, 0), LevelDanger},
		{"missing axis", &model.SensorSnapshot{Accel: model.Accel{X: f(1), Y: f(1)}}, LevelNotConnected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Accident(tt.snap))
		})
	}
}

func TestImpactTriggered(t *testing.T) {
	c := NewClassifier(DefaultThresholds())

	assert.False(t, c.ImpactTriggered(snapshot(0.1, 50, 50, 30, 30, 10, 0, 0, 9.8)))
	assert.True(t, c.ImpactTriggered(snapshot(0.1, 50, 50, 30, 30, 10, 15, 0, 0)))
	// No axes, no alert.
	assert.False(t, c.ImpactTriggered(&model.SensorSnapshot{}))
}

func TestRunning(t *testing.T) {
	c := NewClassifier(DefaultThresholds())

	base := snapshot(0.20, 50, 50, 30, 30, 25, 0, 0, 9.8)
	assert.True(t, c.Running(base))

	tests := []struct {
		name   string
		mutate func(s *model.SensorSnapshot)
	}{
		{"nil snapshot handled by caller", nil},
		{"alcohol over limit", func(s *model.SensorSnapshot) { s.Alcohol = 0.75 }},
		{"no alcohol sensor", func(s *model.SensorSnapshot) { s.Alcohol = 0 }},
		{"stationary", func(s *model.SensorSnapshot) { s.Speed = 2 }},
		{"front too close", func(s *model.SensorSnapshot) { s.Ultrasonic.Front = 8 }},
		{"back too close", func(s *model.SensorSnapshot) { s.Ultrasonic.Back = 8 }},
		{"left too close", func(s *model.SensorSnapshot) { s.Surface.Left = 8 }},
		{"right too close", func(s *model.SensorSnapshot) { s.Surface.Right = 8 }},
		{"impact in progress", func(s *model.SensorSnapshot) { s.Accel = model.Accel{X: f(15), Y: f(0), Z: f(0)} }},
		{"accelerometer missing", func(s *model.SensorSnapshot) { s.Accel = model.Accel{} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.mutate == nil {
				assert.False(t, c.Running(nil))
				return
			}
			s := snapshot(0.20, 50, 50, 30, 30, 25, 0, 0, 9.8)
			tt.mutate(s)
			assert.False(t, c.Running(s))
		})
	}
}
