package telemetry

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Poll outcomes.
const (
	PollSuccess = "success"
	PollFailure = "failure"
)

// Collector captures telemetry events emitted by the dashboard.
//
// Implementations may forward metrics to Prometheus, loggers or other
// monitoring systems. Hooks run inline with the polling and simulation loop.
type Collector interface {
	IncHotReload(file string)
	IncPoll(outcome string)
	IncPollSkipped()
	IncSimulated(compartment, status string)
	SetConnected(connected bool)
}

type noopCollector struct{}

// Noop returns a collector that discards all metrics.
func Noop() Collector {
	return noopCollector{}
}

func (noopCollector) IncHotReload(string)         {}
func (noopCollector) IncPoll(string)              {}
func (noopCollector) IncPollSkipped()             {}
func (noopCollector) IncSimulated(string, string) {}
func (noopCollector) SetConnected(bool)           {}

// PrometheusCollector exposes telemetry counters via Prometheus.
type PrometheusCollector struct {
	hotReloads  *prometheus.CounterVec
	polls       *prometheus.CounterVec
	pollSkipped *prometheus.CounterVec
	simulated   *prometheus.CounterVec
	connected   *prometheus.GaugeVec
}

var (
	metricsLock      sync.Mutex
	hotReloadCounter *prometheus.CounterVec
	pollCounter      *prometheus.CounterVec
	pollSkipCounter  *prometheus.CounterVec
	simulatedCounter *prometheus.CounterVec
	connectedGauge   *prometheus.GaugeVec
)

// NewPrometheusCollector registers the required metrics with the provided
// registerer. Metrics already registered by an earlier collector are reused,
// so hot reloads keep their counters.
func NewPrometheusCollector(reg prometheus.Registerer) (*PrometheusCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	metricsLock.Lock()
	defer metricsLock.Unlock()

	var err error
	if hotReloadCounter, err = registerCounter(reg, hotReloadCounter, prometheus.CounterOpts{
		Name: "crowdmon_config_hot_reload_total",
		Help: "Number of hot reload operations triggered per configuration source file.",
	}, "file"); err != nil {
		return nil, err
	}
	if pollCounter, err = registerCounter(reg, pollCounter, prometheus.CounterOpts{
		Name: "crowdmon_device_polls_total",
		Help: "Number of completed device polls by outcome.",
	}, "outcome"); err != nil {
		return nil, err
	}
	if pollSkipCounter, err = registerCounter(reg, pollSkipCounter, prometheus.CounterOpts{
		Name: "crowdmon_device_polls_skipped_total",
		Help: "Number of poll ticks skipped because a request was still outstanding.",
	}); err != nil {
		return nil, err
	}
	if simulatedCounter, err = registerCounter(reg, simulatedCounter, prometheus.CounterOpts{
		Name: "crowdmon_simulated_status_total",
		Help: "Number of simulated statuses drawn per compartment.",
	}, "compartment", "status"); err != nil {
		return nil, err
	}
	if connectedGauge == nil {
		gauge := prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "crowdmon_device_connected",
			Help: "1 while the last device poll succeeded, 0 otherwise.",
		}, nil)
		if err := reg.Register(gauge); err != nil {
			already, ok := err.(prometheus.AlreadyRegisteredError)
			if !ok {
				return nil, err
			}
			existing, ok := already.ExistingCollector.(*prometheus.GaugeVec)
			if !ok {
				return nil, err
			}
			gauge = existing
		}
		connectedGauge = gauge
	}

	return &PrometheusCollector{
		hotReloads:  hotReloadCounter,
		polls:       pollCounter,
		pollSkipped: pollSkipCounter,
		simulated:   simulatedCounter,
		connected:   connectedGauge,
	}, nil
}

func registerCounter(reg prometheus.Registerer, current *prometheus.CounterVec, opts prometheus.CounterOpts, labels ...string) (*prometheus.CounterVec, error) {
	if current != nil {
		return current, nil
	}
	counter := prometheus.NewCounterVec(opts, labels)
	if err := reg.Register(counter); err != nil {
		if already, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := already.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
		}
		return nil, err
	}
	return counter, nil
}

// IncHotReload increments the counter for the provided file path.
func (p *PrometheusCollector) IncHotReload(file string) {
	if p == nil || p.hotReloads == nil {
		return
	}
	p.hotReloads.WithLabelValues(file).Inc()
}

// IncPoll records a finished device poll.
func (p *PrometheusCollector) IncPoll(outcome string) {
	if p == nil || p.polls == nil {
		return
	}
	p.polls.WithLabelValues(outcome).Inc()
}

// IncPollSkipped records a tick dropped by the single-flight guard.
func (p *PrometheusCollector) IncPollSkipped() {
	if p == nil || p.pollSkipped == nil {
		return
	}
	p.pollSkipped.WithLabelValues().Inc()
}

// IncSimulated records a simulated status draw.
func (p *PrometheusCollector) IncSimulated(compartment, status string) {
	if p == nil || p.simulated == nil {
		return
	}
	p.simulated.WithLabelValues(compartment, status).Inc()
}

// SetConnected updates the device connection gauge.
func (p *PrometheusCollector) SetConnected(connected bool) {
	if p == nil || p.connected == nil {
		return
	}
	value := 0.0
	if connected {
		value = 1
	}
	p.connected.WithLabelValues().Set(value)
}
