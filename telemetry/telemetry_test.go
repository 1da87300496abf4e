package telemetry

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/require"
)

func resetMetrics() {
	metricsLock.Lock()
	hotReloadCounter = nil
	pollCounter = nil
	pollSkipCounter = nil
	simulatedCounter = nil
	connectedGauge = nil
	metricsLock.Unlock()
}

func TestNoopCollector(t *testing.T) {
	collector := Noop()
	require.NotNil(t, collector)
	collector.IncHotReload("crowdmon.yaml")
	collector.IncPoll(PollSuccess)
	collector.IncPollSkipped()
	collector.IncSimulated("compartment2", "RED")
	collector.SetConnected(true)
}

func TestPrometheusCollectorRegistersAndReusesCounter(t *testing.T) {
	resetMetrics()

	reg := prometheus.NewRegistry()
	collector, err := NewPrometheusCollector(reg)
	require.NoError(t, err)
	require.NotNil(t, collector)

	collector.IncPoll(PollSuccess)

	metrics, err := reg.Gather()
	require.NoError(t, err)
	require.Len(t, metrics, 1)

	metric := metrics[0]
	require.Equal(t, "crowdmon_device_polls_total", metric.GetName())
	requireCounterValue(t, metric, 1)

	again, err := NewPrometheusCollector(reg)
	require.NoError(t, err)
	require.Same(t, collector.polls, again.polls)

	again.IncPoll(PollSuccess)

	metrics, err = reg.Gather()
	require.NoError(t, err)
	requireCounterValue(t, metrics[0], 2)
}

func TestPrometheusCollectorRecordsAllMetrics(t *testing.T) {
	resetMetrics()

	reg := prometheus.NewRegistry()
	collector, err := NewPrometheusCollector(reg)
	require.NoError(t, err)

	collector.IncHotReload("crowdmon.yaml")
	collector.IncPollSkipped()
	collector.IncSimulated("compartment3", "YELLOW")
	collector.SetConnected(true)

	metrics, err := reg.Gather()
	require.NoError(t, err)
	byName := make(map[string]*dto.MetricFamily, len(metrics))
	for _, mf := range metrics {
		byName[mf.GetName()] = mf
	}
	requireCounterValue(t, byName["crowdmon_config_hot_reload_total"], 1)
	requireCounterValue(t, byName["crowdmon_device_polls_skipped_total"], 1)
	requireCounterValue(t, byName["crowdmon_simulated_status_total"], 1)

	gauge := byName["crowdmon_device_connected"]
	require.NotNil(t, gauge)
	require.Equal(t, 1.0, gauge.Metric[0].GetGauge().GetValue())

	collector.SetConnected(false)
	metrics, err = reg.Gather()
	require.NoError(t, err)
	for _, mf := range metrics {
		if mf.GetName() == "crowdmon_device_connected" {
			require.Equal(t, 0.0, mf.Metric[0].GetGauge().GetValue())
		}
	}
}

func requireCounterValue(t *testing.T, mf *dto.MetricFamily, value float64) {
	t.Helper()
	require.NotNil(t, mf)
	require.Len(t, mf.Metric, 1)
	require.NotNil(t, mf.Metric[0].Counter)
	require.Equal(t, value, mf.Metric[0].Counter.GetValue())
}
