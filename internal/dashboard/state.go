package dashboard

import (
	"sync"
	"time"

	"github.com/timzifer/crowdmon/internal/crowd"
	"github.com/timzifer/crowdmon/internal/poller"
	"github.com/timzifer/crowdmon/internal/prompt"
)

// State is the application state shared by the driver and its readers.
// It outlives driver restarts so a config reload keeps records and address.
type State struct {
	table *crowd.Table

	mu              sync.RWMutex
	connection      prompt.Connection
	connected       bool
	lastTelemetry   *poller.Telemetry
	lastTelemetryAt time.Time
}

// NewState returns a state seeded with the startup records.
func NewState(now time.Time) *State {
	return &State{table: crowd.NewTable(now)}
}

// Table returns the record table.
func (s *State) Table() *crowd.Table {
	return s.table
}

// SetConnection stores the configured device target.
func (s *State) SetConnection(conn prompt.Connection) {
	s.mu.Lock()
	s.connection = conn
	s.mu.Unlock()
}

// Connection returns the configured device target. The URL is empty when no
// address was entered.
func (s *State) Connection() prompt.Connection {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.connection
}

// setConnected stores the flag and reports whether it changed.
func (s *State) setConnected(connected bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	changed := s.connected != connected
	s.connected = connected
	return changed
}

// Connected reports whether the last poll succeeded.
func (s *State) Connected() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.connected
}

func (s *State) storeTelemetry(t poller.Telemetry, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := t
	if t.Sensors != nil {
		sensors := *t.Sensors
		copied.Sensors = &sensors
	}
	s.lastTelemetry = &copied
	s.lastTelemetryAt = at
}

// LastTelemetry returns the last decoded device payload and when it arrived.
func (s *State) LastTelemetry() (*poller.Telemetry, time.Time) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.lastTelemetry == nil {
		return nil, time.Time{}
	}
	copied := *s.lastTelemetry
	if copied.Sensors != nil {
		sensors := *copied.Sensors
		copied.Sensors = &sensors
	}
	return &copied, s.lastTelemetryAt
}
