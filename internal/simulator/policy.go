package simulator

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/timzifer/crowdmon/internal/config"
	"github.com/timzifer/crowdmon/internal/crowd"
)

var defaultWeights = config.StatusWeights{Green: 0.35, Yellow: 0.50, Red: 0.15}

var defaultActivation = map[crowd.Status]map[string]float64{
	crowd.StatusGreen:  {crowd.SensorIR1: 0.2, crowd.SensorIR2: 0.1, crowd.SensorUltrasonic: 0.15},
	crowd.StatusYellow: {crowd.SensorIR1: 0.6, crowd.SensorIR2: 0.4, crowd.SensorUltrasonic: 0.5},
	crowd.StatusRed:    {crowd.SensorIR1: 0.8, crowd.SensorIR2: 0.7, crowd.SensorUltrasonic: 0.8},
}

// Policy holds the categorical status distribution and the per status
// sensor activation probabilities.
type Policy struct {
	weights    map[crowd.Status]decimal.Decimal
	yellowFrom float64
	redFrom    float64
	activation map[crowd.Status]map[string]float64
}

// DefaultPolicy returns the built in distribution.
func DefaultPolicy() Policy {
	p, err := NewPolicy(config.SimulationConfig{})
	if err != nil {
		panic(err)
	}
	return p
}

// NewPolicy builds a policy from configuration. Weights must sum to exactly 1
// and the expected number of active sensors must grow with severity.
func NewPolicy(cfg config.SimulationConfig) (Policy, error) {
	w := defaultWeights
	if cfg.Weights != nil {
		w = *cfg.Weights
	}
	weights := map[crowd.Status]decimal.Decimal{
		crowd.StatusGreen:  decimal.NewFromFloat(w.Green),
		crowd.StatusYellow: decimal.NewFromFloat(w.Yellow),
		crowd.StatusRed:    decimal.NewFromFloat(w.Red),
	}
	sum := decimal.Zero
	for _, status := range crowd.Statuses {
		weight := weights[status]
		if weight.IsNegative() {
			return Policy{}, fmt.Errorf("weight of %s must not be negative", status)
		}
		sum = sum.Add(weight)
	}
	if !sum.Equal(decimal.NewFromInt(1)) {
		return Policy{}, fmt.Errorf("status weights must sum to 1, got %s", sum.String())
	}

	activation := make(map[crowd.Status]map[string]float64, len(defaultActivation))
	for status, probs := range defaultActivation {
		copied := make(map[string]float64, len(probs))
		for sensor, p := range probs {
			copied[sensor] = p
		}
		activation[status] = copied
	}
	for rawStatus, probs := range cfg.Activation {
		status, ok := crowd.ParseStatus(rawStatus)
		if !ok {
			return Policy{}, fmt.Errorf("activation: unknown status %q", rawStatus)
		}
		for rawSensor, p := range probs {
			sensor := strings.ToLower(strings.TrimSpace(rawSensor))
			if !isSimulatedSensor(sensor) {
				return Policy{}, fmt.Errorf("activation %s: unknown sensor %q", status, rawSensor)
			}
			if p < 0 || p > 1 {
				return Policy{}, fmt.Errorf("activation %s.%s: probability %v out of range", status, sensor, p)
			}
			activation[status][sensor] = p
		}
	}

	policy := Policy{
		weights:    weights,
		yellowFrom: weights[crowd.StatusGreen].InexactFloat64(),
		redFrom:    weights[crowd.StatusGreen].Add(weights[crowd.StatusYellow]).InexactFloat64(),
		activation: activation,
	}
	for i := 1; i < len(crowd.Statuses); i++ {
		lower, upper := crowd.Statuses[i-1], crowd.Statuses[i]
		if !policy.expected(lower).LessThan(policy.expected(upper)) {
			return Policy{}, fmt.Errorf("expected active sensors of %s (%s) must exceed %s (%s)",
				upper, policy.expected(upper).String(), lower, policy.expected(lower).String())
		}
	}
	return policy, nil
}

func isSimulatedSensor(name string) bool {
	for _, s := range crowd.SimulatedSensors {
		if s == name {
			return true
		}
	}
	return false
}

func (p Policy) expected(status crowd.Status) decimal.Decimal {
	total := decimal.Zero
	for _, sensor := range crowd.SimulatedSensors {
		total = total.Add(decimal.NewFromFloat(p.activation[status][sensor]))
	}
	return total
}

// ExpectedActive returns the mean number of active sensors for status.
func (p Policy) ExpectedActive(status crowd.Status) float64 {
	return p.expected(status).InexactFloat64()
}

// StatusFor maps a uniform sample u in [0,1) onto a status using the
// cumulative weights.
func (p Policy) StatusFor(u float64) crowd.Status {
	switch {
	case u < p.yellowFrom:
		return crowd.StatusGreen
	case u < p.redFrom:
		return crowd.StatusYellow
	default:
		return crowd.StatusRed
	}
}

// Activation returns the probability that sensor reads active under status.
func (p Policy) Activation(status crowd.Status, sensor string) float64 {
	return p.activation[status][sensor]
}

// Weights returns the status weights keyed by wire name.
func (p Policy) Weights() map[string]float64 {
	out := make(map[string]float64, len(p.weights))
	for status, w := range p.weights {
		out[status.String()] = w.InexactFloat64()
	}
	return out
}
