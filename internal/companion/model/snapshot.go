package model

import (
	"math"
	"time"
)

// Ultrasonic holds the front/back obstacle distances in centimeters.
type Ultrasonic struct {
	Front float64 `json:"front"`
	Back  float64 `json:"back"`
}

// Surface holds the left/right footpath clearances in centimeters.
type Surface struct {
	Left  float64 `json:"left"`
	Right float64 `json:"right"`
}

// Accel holds the accelerometer axes in m/s². Pointers distinguish a
// missing axis (sensor not connected) from a genuine zero reading.
type Accel struct {
	X *float64 `json:"x"`
	Y *float64 `json:"y"`
	Z *float64 `json:"z"`
}

// Location is a GPS fix.
type Location struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// SensorSnapshot is the latest full sensor reading for one vehicle.
// Only one snapshot per vehicle is retained; the most recent wins.
type SensorSnapshot struct {
	VehicleID  string     `json:"vehicleId"`
	Alcohol    float64    `json:"alcohol"` // [0,1]
	Ultrasonic Ultrasonic `json:"ultrasonic"`
	Surface    Surface    `json:"surface"`
	Accel      Accel      `json:"accel"`
	Speed      float64    `json:"speed"` // km/h
	Location   Location   `json:"location"`
	Heading    float64    `json:"heading"`

	// ReceivedAt is assigned locally on arrival; the wire payload carries
	// no timestamp.
	ReceivedAt time.Time `json:"-"`
}

// AccelMagnitude returns the total acceleration magnitude and whether all
// three axes are present.
func (s *SensorSnapshot) AccelMagnitude() (float64, bool) {
	if s == nil || s.Accel.X == nil || s.Accel.Y == nil || s.Accel.Z == nil {
		return 0, false
	}
	x, y, z := *s.Accel.X, *s.Accel.Y, *s.Accel.Z
	return math.Sqrt(x*x + y*y + z*z), true
}
