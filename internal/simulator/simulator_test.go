package simulator

import (
	"errors"
	"io"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/timzifer/crowdmon/internal/config"
	"github.com/timzifer/crowdmon/internal/crowd"
)

type sequenceSource struct {
	values []float64
	pos    int
}

func (s *sequenceSource) Float64() (float64, error) {
	if s.pos >= len(s.values) {
		return 0, errors.New("sequence exhausted")
	}
	v := s.values[s.pos]
	s.pos++
	return v, nil
}

func TestStatusForThresholds(t *testing.T) {
	p := DefaultPolicy()
	cases := map[float64]crowd.Status{
		0:      crowd.StatusGreen,
		0.3499: crowd.StatusGreen,
		0.35:   crowd.StatusYellow,
		0.84:   crowd.StatusYellow,
		0.85:   crowd.StatusRed,
		0.9999: crowd.StatusRed,
	}
	for u, want := range cases {
		require.Equal(t, want, p.StatusFor(u), "u=%v", u)
	}
}

func TestDefaultPolicyActivation(t *testing.T) {
	p := DefaultPolicy()
	require.Equal(t, 0.2, p.Activation(crowd.StatusGreen, crowd.SensorIR1))
	require.Equal(t, 0.4, p.Activation(crowd.StatusYellow, crowd.SensorIR2))
	require.Equal(t, 0.8, p.Activation(crowd.StatusRed, crowd.SensorUltrasonic))
	require.Less(t, p.ExpectedActive(crowd.StatusGreen), p.ExpectedActive(crowd.StatusYellow))
	require.Less(t, p.ExpectedActive(crowd.StatusYellow), p.ExpectedActive(crowd.StatusRed))
	require.Equal(t, map[string]float64{"GREEN": 0.35, "YELLOW": 0.5, "RED": 0.15}, p.Weights())
}

func TestNewPolicyRejectsBadWeights(t *testing.T) {
	_, err := NewPolicy(config.SimulationConfig{Weights: &config.StatusWeights{Green: 0.4, Yellow: 0.4, Red: 0.1}})
	require.Error(t, err)

	_, err = NewPolicy(config.SimulationConfig{Weights: &config.StatusWeights{Green: 1.2, Yellow: -0.2}})
	require.Error(t, err)

	p, err := NewPolicy(config.SimulationConfig{Weights: &config.StatusWeights{Green: 0.1, Yellow: 0.2, Red: 0.7}})
	require.NoError(t, err)
	require.Equal(t, crowd.StatusYellow, p.StatusFor(0.15))
	require.Equal(t, crowd.StatusRed, p.StatusFor(0.3))
}

func TestNewPolicyActivationOverrides(t *testing.T) {
	p, err := NewPolicy(config.SimulationConfig{Activation: map[string]map[string]float64{
		"red": {"IR1": 1},
	}})
	require.NoError(t, err)
	require.Equal(t, 1.0, p.Activation(crowd.StatusRed, crowd.SensorIR1))
	require.Equal(t, 0.8, p.Activation(crowd.StatusRed, crowd.SensorUltrasonic))

	_, err = NewPolicy(config.SimulationConfig{Activation: map[string]map[string]float64{"blue": {"ir1": 0.5}}})
	require.Error(t, err)
	_, err = NewPolicy(config.SimulationConfig{Activation: map[string]map[string]float64{"green": {"ir3": 0.5}}})
	require.Error(t, err)
	_, err = NewPolicy(config.SimulationConfig{Activation: map[string]map[string]float64{"green": {"ir1": 2}}})
	require.Error(t, err)
}

func TestNewPolicyRejectsInvertedOrdering(t *testing.T) {
	_, err := NewPolicy(config.SimulationConfig{Activation: map[string]map[string]float64{
		"green": {"ir1": 1, "ir2": 1, "ultrasonic": 1},
	}})
	require.Error(t, err)
}

func TestDrawUsesSamples(t *testing.T) {
	src := &sequenceSource{values: []float64{0.9, 0.1, 0.75, 0.5}}
	sim := newSimulator(src, DefaultPolicy(), nil, zerolog.New(io.Discard))
	now := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)

	rec, err := sim.Draw(now)
	require.NoError(t, err)
	require.Equal(t, "RED", rec.Status)
	require.False(t, rec.Live)
	require.Equal(t, now, rec.LastUpdated)

	ir1, ok := rec.Sensor(crowd.SensorIR1)
	require.True(t, ok)
	require.True(t, ir1)
	ir2, _ := rec.Sensor(crowd.SensorIR2)
	require.False(t, ir2)
	ultrasonic, _ := rec.Sensor(crowd.SensorUltrasonic)
	require.True(t, ultrasonic)
	_, ok = rec.Sensor(crowd.SensorIR3)
	require.False(t, ok)
}

func TestDrawPropagatesSourceErrors(t *testing.T) {
	sim := newSimulator(&sequenceSource{}, DefaultPolicy(), nil, zerolog.New(io.Discard))
	_, err := sim.Draw(time.Now())
	require.Error(t, err)
}

func TestSimulateStaysInClosedSet(t *testing.T) {
	seed := int64(42)
	sim, err := New(config.SimulationConfig{Seed: &seed}, nil, zerolog.New(io.Discard))
	require.NoError(t, err)

	seen := make(map[string]int)
	for i := 0; i < 500; i++ {
		records, err := sim.Simulate(time.Now())
		require.NoError(t, err)
		require.Len(t, records, 2)
		for id, rec := range records {
			require.Contains(t, crowd.SimulatedCompartments, id)
			require.False(t, rec.Live)
			require.Len(t, rec.Sensors, len(crowd.SimulatedSensors))
			_, known := crowd.ParseStatus(rec.Status)
			require.True(t, known, rec.Status)
			seen[rec.Status]++
		}
	}
	require.Len(t, seen, 3)
}

func TestSeededSimulatorIsDeterministic(t *testing.T) {
	seed := int64(7)
	a, err := New(config.SimulationConfig{Seed: &seed}, nil, zerolog.New(io.Discard))
	require.NoError(t, err)
	b, err := New(config.SimulationConfig{Source: "PSEUDO", Seed: &seed}, nil, zerolog.New(io.Discard))
	require.NoError(t, err)

	now := time.Now()
	for i := 0; i < 20; i++ {
		ra, err := a.Draw(now)
		require.NoError(t, err)
		rb, err := b.Draw(now)
		require.NoError(t, err)
		require.Equal(t, ra, rb)
	}
}

func TestNewRandomSource(t *testing.T) {
	src, err := newRandomSource("secure", nil)
	require.NoError(t, err)
	for i := 0; i < 100; i++ {
		v, err := src.Float64()
		require.NoError(t, err)
		require.GreaterOrEqual(t, v, 0.0)
		require.Less(t, v, 1.0)
	}

	_, err = newRandomSource("dice", nil)
	require.Error(t, err)
}

func TestNewRandomSourceAliases(t *testing.T) {
	for _, name := range []string{"", " Pseudo ", "mersenne", "math", "CRYPTO", "secure"} {
		_, err := newRandomSource(name, nil)
		require.NoError(t, err, name)
	}
}

func TestRandomBoolBoundsSkipDraw(t *testing.T) {
	src := &sequenceSource{values: []float64{0.3}}

	on, err := randomBool(src, 0)
	require.NoError(t, err)
	require.False(t, on)
	on, err = randomBool(src, 1)
	require.NoError(t, err)
	require.True(t, on)

	on, err = randomBool(src, 0.5)
	require.NoError(t, err)
	require.True(t, on)
	_, err = randomBool(src, 0.5)
	require.Error(t, err)
}
