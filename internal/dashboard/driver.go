package dashboard

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/timzifer/crowdmon/internal/config"
	"github.com/timzifer/crowdmon/internal/crowd"
	"github.com/timzifer/crowdmon/internal/poller"
	"github.com/timzifer/crowdmon/internal/render"
	"github.com/timzifer/crowdmon/internal/simulator"
	"github.com/timzifer/crowdmon/telemetry"
)

// Driver owns the timers and applies poll and simulation results to the
// state. All writes happen on the goroutine running Run.
type Driver struct {
	cfg       *config.Config
	state     *State
	engine    *render.Engine
	simulator *simulator.Simulator
	poller    *poller.Poller
	collector telemetry.Collector
	logger    zerolog.Logger
	now       func() time.Time
}

// Option customises a Driver.
type Option func(*Driver)

// WithClock replaces the wall clock.
func WithClock(now func() time.Time) Option {
	return func(d *Driver) {
		if now != nil {
			d.now = now
		}
	}
}

// New wires a driver. The poller is only created when the state carries a
// device URL.
func New(cfg *config.Config, state *State, engine *render.Engine, collector telemetry.Collector, logger zerolog.Logger, opts ...Option) (*Driver, error) {
	if cfg == nil {
		cfg = &config.Config{}
	}
	if collector == nil {
		collector = telemetry.Noop()
	}
	d := &Driver{
		cfg:       cfg,
		state:     state,
		engine:    engine,
		collector: collector,
		logger:    logger.With().Str("component", "dashboard").Logger(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}

	sim, err := simulator.New(cfg.Simulation, collector, logger)
	if err != nil {
		return nil, err
	}
	d.simulator = sim

	if url := state.Connection().URL; url != "" {
		p, err := poller.New(url, poller.Options{
			Interval:         cfg.PollInterval(),
			Timeout:          cfg.RequestTimeout(),
			StatusExpression: cfg.Device.StatusExpression,
			Collector:        collector,
			Logger:           logger,
			Now:              d.now,
		})
		if err != nil {
			return nil, fmt.Errorf("create poller: %w", err)
		}
		d.poller = p
	}
	return d, nil
}

// Handle returns the inspection handle of the running dashboard.
func (d *Driver) Handle() *Handle {
	return &Handle{state: d.state, engine: d.engine, collector: d.collector, policy: d.simulator.Policy(), logger: d.logger, now: d.now}
}

// Run simulates and renders once, then serves poll results and timer ticks
// until ctx is cancelled.
func (d *Driver) Run(ctx context.Context) error {
	d.simulate()
	d.renderTimes()

	simTicker := time.NewTicker(d.cfg.SimulationInterval())
	defer simTicker.Stop()
	timeTicker := time.NewTicker(d.cfg.TimeRefreshInterval())
	defer timeTicker.Stop()

	results := make(chan poller.Result)
	var wg sync.WaitGroup
	defer wg.Wait()
	if d.poller != nil {
		d.logger.Info().Str("url", d.poller.URL()).Dur("interval", d.cfg.PollInterval()).Msg("polling device")
		wg.Add(1)
		go func() {
			defer wg.Done()
			d.poller.Run(ctx, results)
		}()
	} else {
		d.logger.Warn().Msg("no device address, showing simulated compartments only")
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-simTicker.C:
			d.simulate()
		case <-timeTicker.C:
			d.renderTimes()
		case res := <-results:
			d.apply(res)
		}
	}
}

func (d *Driver) apply(res poller.Result) {
	if res.Err != nil {
		d.setConnected(false)
		d.logger.Warn().Err(res.Err).Msg("live record kept after failed poll")
		return
	}
	if err := d.state.Table().Set(crowd.LiveCompartment, res.Record); err != nil {
		d.logger.Error().Err(err).Msg("store live record")
		return
	}
	d.state.storeTelemetry(res.Telemetry, res.At)
	d.setConnected(true)
	d.renderAll()
}

func (d *Driver) simulate() {
	records, err := d.simulator.Simulate(d.now())
	if err != nil {
		d.logger.Error().Err(err).Msg("simulation failed")
		return
	}
	for _, id := range crowd.SimulatedCompartments {
		if err := d.state.Table().Set(id, records[id]); err != nil {
			d.logger.Error().Err(err).Str("compartment", string(id)).Msg("store simulated record")
		}
	}
	d.renderAll()
}

func (d *Driver) setConnected(connected bool) {
	setConnectionStatus(d.state, d.collector, d.logger, connected)
}

func (d *Driver) renderAll() {
	snapshot := d.state.Table().Snapshot()
	d.engine.RenderAll(snapshot)
	d.engine.RenderTimes(snapshot, d.now())
}

func (d *Driver) renderTimes() {
	d.engine.RenderTimes(d.state.Table().Snapshot(), d.now())
}

func setConnectionStatus(state *State, collector telemetry.Collector, logger zerolog.Logger, connected bool) {
	changed := state.setConnected(connected)
	collector.SetConnected(connected)
	if !changed {
		return
	}
	if connected {
		logger.Info().Msg("connected to device")
	} else {
		logger.Warn().Msg("connection lost, reconnecting")
	}
}
