package poller

import (
	"time"

	"github.com/timzifer/crowdmon/internal/crowd"
)

// SensorReadings is the sensor block of a device payload.
type SensorReadings struct {
	IR1        bool `json:"ir1_crowd"`
	IR2        bool `json:"ir2_crowd"`
	IR3        bool `json:"ir3_crowd"`
	Ultrasonic bool `json:"ultrasonic_crowd"`
}

// Telemetry is the payload returned by the device status endpoint.
type Telemetry struct {
	Status    string          `json:"status"`
	Timestamp float64         `json:"timestamp,omitempty"`
	Sensors   *SensorReadings `json:"sensors,omitempty"`
	DeviceID  string          `json:"device_id,omitempty"`
}

func (t Telemetry) readings() SensorReadings {
	if t.Sensors == nil {
		return SensorReadings{}
	}
	return *t.Sensors
}

func (r SensorReadings) flags() map[string]bool {
	return map[string]bool{
		crowd.SensorIR1:        r.IR1,
		crowd.SensorIR2:        r.IR2,
		crowd.SensorIR3:        r.IR3,
		crowd.SensorUltrasonic: r.Ultrasonic,
	}
}

// UpdatedAt returns the device timestamp, or now when it is missing or zero.
func (t Telemetry) UpdatedAt(now time.Time) time.Time {
	if t.Timestamp == 0 {
		return now
	}
	return time.UnixMilli(int64(t.Timestamp))
}

// Record maps the payload to a live compartment record. The status is kept
// verbatim and absent sensors read as false.
func (t Telemetry) Record(now time.Time) crowd.Record {
	return crowd.NewRecord(t.Status, crowd.LiveSensors, t.readings().flags(), t.UpdatedAt(now), true)
}
