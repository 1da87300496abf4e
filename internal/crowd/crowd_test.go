package crowd

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestResolveKnownStatuses(t *testing.T) {
	cases := []struct {
		raw   string
		label string
		class string
	}{
		{"GREEN", "LOW CROWD", "green"},
		{"YELLOW", "MODERATE CROWD", "yellow"},
		{"RED", "HIGH CROWD", "red"},
		{" red ", "HIGH CROWD", "red"},
		{"Yellow", "MODERATE CROWD", "yellow"},
	}
	for _, tc := range cases {
		_, display, known := Resolve(tc.raw)
		require.True(t, known, tc.raw)
		require.Equal(t, tc.label, display.Label, tc.raw)
		require.Equal(t, tc.class, display.Class, tc.raw)
	}
}

func TestResolveFallsBackToGreen(t *testing.T) {
	for _, raw := range []string{"", "BLUE", "unknown", "R3D"} {
		status, display, known := Resolve(raw)
		require.False(t, known, raw)
		require.Equal(t, StatusGreen, status)
		require.Equal(t, "LOW CROWD", display.Label)
		require.Equal(t, "green", display.Class)
	}
	require.Equal(t, displays[StatusGreen], Status(42).Display())
}

func TestNormalizeStatus(t *testing.T) {
	require.Equal(t, "red", NormalizeStatus("RED"))
	require.Equal(t, "amber", NormalizeStatus("  Amber"))
}

func TestFormatTimeAgo(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	require.Equal(t, "5 sec ago", FormatTimeAgo(now.Add(-5*time.Second), now))
	require.Equal(t, "1 min ago", FormatTimeAgo(now.Add(-90*time.Second), now))
	require.Equal(t, "2 hours ago", FormatTimeAgo(now.Add(-7200*time.Second), now))
	require.Equal(t, "1 hour ago", FormatTimeAgo(now.Add(-3700*time.Second), now))
	require.Equal(t, "0 sec ago", FormatTimeAgo(now.Add(time.Minute), now))
}

func TestNewTableSeedsRecords(t *testing.T) {
	now := time.Now()
	table := NewTable(now)

	live, ok := table.Get(Compartment1)
	require.True(t, ok)
	require.True(t, live.Live)
	require.Len(t, live.Sensors, 4)
	require.Zero(t, live.ActiveSensors())

	third, ok := table.Get(Compartment3)
	require.True(t, ok)
	require.False(t, third.Live)
	require.Equal(t, "YELLOW", third.Status)
	ir1, present := third.Sensor(SensorIR1)
	require.True(t, present)
	require.True(t, ir1)
	_, present = third.Sensor(SensorIR3)
	require.False(t, present)
}

func TestTableSetReplacesWholeRecord(t *testing.T) {
	table := NewTable(time.Now())
	rec := NewRecord("RED", SimulatedSensors, map[string]bool{SensorIR2: true}, time.Now(), false)
	require.NoError(t, table.Set(Compartment2, rec))

	rec.Sensors[0].Active = true
	stored, _ := table.Get(Compartment2)
	active, _ := stored.Sensor(SensorIR1)
	require.False(t, active, "table must not share sensor storage with callers")

	err := table.Set("compartment9", rec)
	require.True(t, errors.Is(err, ErrUnknownCompartment))
	require.Len(t, table.Snapshot(), 3)
}

func TestCompartmentNumber(t *testing.T) {
	require.Equal(t, "1", Compartment1.Number())
	require.Equal(t, "3", Compartment3.Number())
}
