package crowd

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
)

// Sensor flag names.
const (
	SensorIR1        = "ir1"
	SensorIR2        = "ir2"
	SensorIR3        = "ir3"
	SensorUltrasonic = "ultrasonic"
)

// LiveSensors are the flags reported by the device.
var LiveSensors = []string{SensorIR1, SensorIR2, SensorIR3, SensorUltrasonic}

// SimulatedSensors are the flags fabricated for simulated compartments.
var SimulatedSensors = []string{SensorIR1, SensorIR2, SensorUltrasonic}

// CompartmentID identifies a compartment card.
type CompartmentID string

// Known compartments. Compartment1 is fed by the device, the others are simulated.
const (
	Compartment1 CompartmentID = "compartment1"
	Compartment2 CompartmentID = "compartment2"
	Compartment3 CompartmentID = "compartment3"
)

// Compartments lists the compartments in display order.
var Compartments = []CompartmentID{Compartment1, Compartment2, Compartment3}

// LiveCompartment is the compartment mirrored from the device.
const LiveCompartment = Compartment1

// SimulatedCompartments are the compartments fed by the simulator.
var SimulatedCompartments = []CompartmentID{Compartment2, Compartment3}

// Number returns the numeric suffix used by element identifiers.
func (id CompartmentID) Number() string {
	return strings.TrimPrefix(string(id), "compartment")
}

// ErrUnknownCompartment is returned for identifiers outside the fixed table.
var ErrUnknownCompartment = errors.New("unknown compartment")

// SensorFlag is a named detector state.
type SensorFlag struct {
	Name   string `json:"name"`
	Active bool   `json:"active"`
}

// Record is the current telemetry of a compartment. Records are replaced as
// a whole, never patched.
type Record struct {
	Status      string       `json:"crowd_status"`
	Sensors     []SensorFlag `json:"sensors"`
	LastUpdated time.Time    `json:"last_updated"`
	Live        bool         `json:"is_live"`
}

// NewRecord builds a record with the provided flags in order.
func NewRecord(status string, names []string, active map[string]bool, updated time.Time, live bool) Record {
	sensors := make([]SensorFlag, 0, len(names))
	for _, name := range names {
		sensors = append(sensors, SensorFlag{Name: name, Active: active[name]})
	}
	return Record{Status: status, Sensors: sensors, LastUpdated: updated, Live: live}
}

// Sensor returns the value of a flag and whether the record carries it.
func (r Record) Sensor(name string) (bool, bool) {
	for _, s := range r.Sensors {
		if s.Name == name {
			return s.Active, true
		}
	}
	return false, false
}

// ActiveSensors counts the active flags.
func (r Record) ActiveSensors() int {
	count := 0
	for _, s := range r.Sensors {
		if s.Active {
			count++
		}
	}
	return count
}

// Clone returns a deep copy.
func (r Record) Clone() Record {
	out := r
	if r.Sensors != nil {
		out.Sensors = append([]SensorFlag(nil), r.Sensors...)
	}
	return out
}

// Table is the fixed compartment → record mapping.
type Table struct {
	mu      sync.RWMutex
	records map[CompartmentID]Record
}

// NewTable returns a table seeded with the startup records.
func NewTable(now time.Time) *Table {
	return &Table{records: map[CompartmentID]Record{
		Compartment1: NewRecord(StatusGreen.String(), LiveSensors, nil, now, true),
		Compartment2: NewRecord(StatusGreen.String(), SimulatedSensors, nil, now, false),
		Compartment3: NewRecord(StatusYellow.String(), SimulatedSensors, map[string]bool{
			SensorIR1:        true,
			SensorUltrasonic: true,
		}, now, false),
	}}
}

// Get returns a copy of the record for id.
func (t *Table) Get(id CompartmentID) (Record, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	rec, ok := t.records[id]
	if !ok {
		return Record{}, false
	}
	return rec.Clone(), true
}

// Set replaces the record of a known compartment.
func (t *Table) Set(id CompartmentID, rec Record) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.records[id]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownCompartment, id)
	}
	t.records[id] = rec.Clone()
	return nil
}

// Snapshot copies all records.
func (t *Table) Snapshot() map[CompartmentID]Record {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make(map[CompartmentID]Record, len(t.records))
	for id, rec := range t.records {
		out[id] = rec.Clone()
	}
	return out
}
