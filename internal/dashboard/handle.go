package dashboard

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/timzifer/crowdmon/internal/crowd"
	"github.com/timzifer/crowdmon/internal/poller"
	"github.com/timzifer/crowdmon/internal/render"
	"github.com/timzifer/crowdmon/internal/simulator"
	"github.com/timzifer/crowdmon/telemetry"
)

// Handle exposes the dashboard for inspection and tests.
type Handle struct {
	state     *State
	engine    *render.Engine
	collector telemetry.Collector
	policy    simulator.Policy
	logger    zerolog.Logger
	now       func() time.Time
}

// RenderCompartment projects rec onto the card of id.
func (h *Handle) RenderCompartment(id crowd.CompartmentID, rec crowd.Record) error {
	return h.engine.RenderCompartment(id, rec)
}

// SetConnectionStatus overrides the connection flag.
func (h *Handle) SetConnectionStatus(connected bool) {
	setConnectionStatus(h.state, h.collector, h.logger, connected)
}

// NormalizeStatus lowercases and trims a raw status.
func (h *Handle) NormalizeStatus(raw string) string {
	return crowd.NormalizeStatus(raw)
}

// FormatTimeAgo renders the age of t relative to the dashboard clock.
func (h *Handle) FormatTimeAgo(t time.Time) string {
	return crowd.FormatTimeAgo(t, h.now())
}

// Records returns a copy of the record table.
func (h *Handle) Records() map[crowd.CompartmentID]crowd.Record {
	return h.state.Table().Snapshot()
}

// Thresholds returns the passenger count constants.
func (h *Handle) Thresholds() crowd.Thresholds {
	return crowd.DefaultThresholds
}

// Connected reports the device connection flag.
func (h *Handle) Connected() bool {
	return h.state.Connected()
}

// DeviceURL returns the polled endpoint, empty without an address.
func (h *Handle) DeviceURL() string {
	return h.state.Connection().URL
}

// LastTelemetry returns the last decoded device payload.
func (h *Handle) LastTelemetry() (*poller.Telemetry, time.Time) {
	return h.state.LastTelemetry()
}

// Weights returns the simulator status weights.
func (h *Handle) Weights() map[string]float64 {
	return h.policy.Weights()
}

// Snapshot is the JSON view of the dashboard state.
type Snapshot struct {
	Connected       bool                                 `json:"connected"`
	DeviceAddress   string                               `json:"device_address,omitempty"`
	DeviceURL       string                               `json:"device_url,omitempty"`
	Records         map[crowd.CompartmentID]crowd.Record `json:"records"`
	LastTelemetry   *poller.Telemetry                    `json:"last_telemetry,omitempty"`
	LastTelemetryAt *time.Time                           `json:"last_telemetry_at,omitempty"`
	Thresholds      crowd.Thresholds                     `json:"thresholds"`
	Weights         map[string]float64                   `json:"simulation_weights"`
}

// Snapshot collects the current state.
func (h *Handle) Snapshot() Snapshot {
	conn := h.state.Connection()
	last, at := h.state.LastTelemetry()
	snap := Snapshot{
		Connected:     h.state.Connected(),
		DeviceAddress: conn.Address,
		DeviceURL:     conn.URL,
		Records:       h.Records(),
		LastTelemetry: last,
		Thresholds:    h.Thresholds(),
		Weights:       h.Weights(),
	}
	if !at.IsZero() {
		snap.LastTelemetryAt = &at
	}
	return snap
}
