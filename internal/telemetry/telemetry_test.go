package telemetry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/giantswarm/lantern/internal/api"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func newTestMetrics(t *testing.T) (*Metrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	m, err := NewMetrics(provider.Meter("test"))
	require.NoError(t, err)
	return m, reader
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	return rm
}

func findMetric(rm metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for _, scope := range rm.ScopeMetrics {
		for i := range scope.Metrics {
			if scope.Metrics[i].Name == name {
				return &scope.Metrics[i]
			}
		}
	}
	return nil
}

func TestRecordInvocation(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.RecordInvocation(ctx, "fs", "read_file", 150*time.Millisecond, nil)
	m.RecordInvocation(ctx, "fs", "read_file", 50*time.Millisecond, &api.ValidationError{Server: "fs"})

	rm := collect(t, reader)

	counter := findMetric(rm, "lantern.invocations")
	require.NotNil(t, counter)
	sum, ok := counter.Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, sum.DataPoints, 2)

	outcomes := map[string]int64{}
	for _, dp := range sum.DataPoints {
		outcome, _ := dp.Attributes.Value(attribute.Key("outcome"))
		outcomes[outcome.AsString()] = dp.Value
	}
	assert.Equal(t, map[string]int64{api.CodeOK: 1, api.CodeValidation: 1}, outcomes)

	hist := findMetric(rm, "lantern.invocation.duration")
	require.NotNil(t, hist)
	h, ok := hist.Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	var count uint64
	for _, dp := range h.DataPoints {
		count += dp.Count
	}
	assert.Equal(t, uint64(2), count)
}

func TestRecordConnect(t *testing.T) {
	m, reader := newTestMetrics(t)
	m.RecordConnect(context.Background(), "fs", &api.ConnectionError{Server: "fs", Err: errors.New("refused")})

	rm := collect(t, reader)
	counter := findMetric(rm, "lantern.connects")
	require.NotNil(t, counter)
	sum := counter.Data.(metricdata.Sum[int64])
	require.Len(t, sum.DataPoints, 1)
	outcome, _ := sum.DataPoints[0].Attributes.Value(attribute.Key("outcome"))
	assert.Equal(t, api.CodeConnection, outcome.AsString())
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordInvocation(context.Background(), "fs", "x", time.Second, nil)
		m.RecordConnect(context.Background(), "fs", nil)
	})
}

func TestSetupDisabled(t *testing.T) {
	shutdown, err := Setup(context.Background(), Config{})
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}
