package telemetry

import (
	"context"
	"runtime/pprof"
	"strings"
	"testing"

	"github.com/grafana/pyroscope-go"
	"github.com/lotledger/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
)

func TestProfilerConfigFrom(t *testing.T) {
	cfg := ProfilerConfigFrom(config.ProfilingConfig{
		Enabled:       true,
		ServerAddress: "http://pyroscope:4040",
		ProfileTypes:  []string{"cpu", "mutex_count"},
	})
	assert.True(t, cfg.Enabled)
	assert.Equal(t, "lotledger", cfg.ApplicationName)
	assert.Equal(t, []pyroscope.ProfileType{pyroscope.ProfileCPU, pyroscope.ProfileMutexCount}, cfg.ProfileTypes)
	assert.True(t, cfg.has(pyroscope.ProfileMutexCount, pyroscope.ProfileMutexDuration))
	assert.False(t, cfg.has(pyroscope.ProfileBlockCount))
}

func TestNewProfiler_Disabled(t *testing.T) {
	p, err := NewProfiler(ProfilerConfig{}, zap.NewNop())
	require.NoError(t, err)
	assert.False(t, p.IsEnabled())
	assert.NoError(t, p.Stop())
	assert.NoError(t, p.Stop())

	var nilProfiler *Profiler
	assert.False(t, nilProfiler.IsEnabled())
	assert.NoError(t, nilProfiler.Stop())
}

func TestNewProfiler_RequiresServer(t *testing.T) {
	_, err := NewProfiler(ProfilerConfig{Enabled: true}, zap.NewNop())
	assert.Error(t, err)
}

func TestWithProfilingLabels(t *testing.T) {
	long := strings.Repeat("x", maxLabelValueLength+10)
	var seen map[string]string
	WithProfilingLabels(context.Background(), map[string]string{
		ProfilingLabelOperation: "dispatch",
		ProfilingLabelRoute:     long,
		"":                      "dropped",
		"empty":                 "",
	}, func(ctx context.Context) {
		seen = map[string]string{}
		pprof.ForLabels(ctx, func(k, v string) bool {
			seen[k] = v
			return true
		})
	})

	assert.Equal(t, "dispatch", seen[ProfilingLabelOperation])
	assert.Len(t, seen[ProfilingLabelRoute], maxLabelValueLength)
	assert.NotContains(t, seen, "empty")
	assert.Len(t, seen, 2)

	called := false
	WithProfilingLabels(context.Background(), nil, func(context.Context) { called = true })
	assert.True(t, called)
}

func TestLabelPairs_Sorted(t *testing.T) {
	pairs := labelPairs(map[string]string{"route": "/a", "method": "GET"})
	assert.Equal(t, []string{"method", "GET", "route", "/a"}, pairs)
}

func TestTracerProvider_EnableSpanProfiles(t *testing.T) {
	previous := otel.GetTracerProvider()
	t.Cleanup(func() { otel.SetTracerProvider(previous) })

	disabled := &TracerProvider{log: zap.NewNop()}
	disabled.EnableSpanProfiles()
	assert.False(t, disabled.spanProfiles)

	sdk := sdktrace.NewTracerProvider()
	t.Cleanup(func() { _ = sdk.Shutdown(context.Background()) })
	tp := &TracerProvider{sdk: sdk, provider: sdk, log: zap.NewNop()}

	tp.EnableSpanProfiles()
	tp.EnableSpanProfiles()
	assert.True(t, tp.spanProfiles)
	assert.Same(t, tp.provider, otel.GetTracerProvider())

	_, span := tp.Tracer("dispatch").Start(context.Background(), "dispatch")
	assert.True(t, span.SpanContext().IsValid())
	span.End()
}
