package simulator

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/timzifer/crowdmon/internal/config"
	"github.com/timzifer/crowdmon/internal/crowd"
	"github.com/timzifer/crowdmon/telemetry"
)

// Simulator fabricates records for the compartments without a device.
type Simulator struct {
	source    randomSource
	policy    Policy
	collector telemetry.Collector
	logger    zerolog.Logger
}

// New creates a simulator from configuration.
func New(cfg config.SimulationConfig, collector telemetry.Collector, logger zerolog.Logger) (*Simulator, error) {
	source, err := newRandomSource(cfg.Source, cfg.Seed)
	if err != nil {
		return nil, err
	}
	policy, err := NewPolicy(cfg)
	if err != nil {
		return nil, fmt.Errorf("simulation policy: %w", err)
	}
	return newSimulator(source, policy, collector, logger), nil
}

func newSimulator(source randomSource, policy Policy, collector telemetry.Collector, logger zerolog.Logger) *Simulator {
	if collector == nil {
		collector = telemetry.Noop()
	}
	return &Simulator{
		source:    source,
		policy:    policy,
		collector: collector,
		logger:    logger.With().Str("component", "simulator").Logger(),
	}
}

// Policy returns the active distribution.
func (s *Simulator) Policy() Policy {
	return s.policy
}

// Draw produces one simulated record stamped with now.
func (s *Simulator) Draw(now time.Time) (crowd.Record, error) {
	u, err := s.source.Float64()
	if err != nil {
		return crowd.Record{}, err
	}
	status := s.policy.StatusFor(u)
	active := make(map[string]bool, len(crowd.SimulatedSensors))
	for _, sensor := range crowd.SimulatedSensors {
		on, err := randomBool(s.source, s.policy.Activation(status, sensor))
		if err != nil {
			return crowd.Record{}, err
		}
		active[sensor] = on
	}
	return crowd.NewRecord(status.String(), crowd.SimulatedSensors, active, now, false), nil
}

// Simulate draws a fresh record for every simulated compartment.
func (s *Simulator) Simulate(now time.Time) (map[crowd.CompartmentID]crowd.Record, error) {
	out := make(map[crowd.CompartmentID]crowd.Record, len(crowd.SimulatedCompartments))
	for _, id := range crowd.SimulatedCompartments {
		rec, err := s.Draw(now)
		if err != nil {
			return nil, fmt.Errorf("simulate %s: %w", id, err)
		}
		out[id] = rec
		s.collector.IncSimulated(string(id), rec.Status)
		s.logger.Debug().Str("compartment", string(id)).Str("status", rec.Status).Int("active", rec.ActiveSensors()).Msg("simulated")
	}
	return out, nil
}
