package telemetry

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"sort"
	"sync"

	"github.com/grafana/pyroscope-go"
	"github.com/lotledger/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// Profiling label keys. Keep values low-cardinality: a route pattern or an
// operation name, never an order id or a lot id.
const (
	ProfilingLabelRoute     = "route"
	ProfilingLabelMethod    = "method"
	ProfilingLabelResource  = "resource"
	ProfilingLabelOperation = "operation"
)

// maxLabelValueLength truncates label values
const maxLabelValueLength = 128

// ProfilerConfig is the [profiling] section with profile names resolved
type ProfilerConfig struct {
	Enabled              bool
	ServerAddress        string
	ApplicationName      string
	BasicAuthUser        string
	BasicAuthPassword    string
	ProfileTypes         []pyroscope.ProfileType
	MutexProfileFraction int
	BlockProfileRate     int
}

// ProfilerConfigFrom maps the [profiling] section. Names were checked by
// config.Validate.
func ProfilerConfigFrom(cfg config.ProfilingConfig) ProfilerConfig {
	out := ProfilerConfig{
		Enabled:              cfg.Enabled,
		ServerAddress:        cfg.ServerAddress,
		ApplicationName:      cfg.ApplicationName,
		BasicAuthUser:        cfg.BasicAuthUser,
		BasicAuthPassword:    cfg.BasicAuthPassword,
		MutexProfileFraction: cfg.MutexProfileFraction,
		BlockProfileRate:     cfg.BlockProfileRate,
	}
	if out.ApplicationName == "" {
		out.ApplicationName = defaultServiceName
	}
	for _, name := range cfg.ProfileTypes {
		out.ProfileTypes = append(out.ProfileTypes, pyroscope.ProfileType(name))
	}
	return out
}

func (c ProfilerConfig) has(types ...pyroscope.ProfileType) bool {
	for _, have := range c.ProfileTypes {
		for _, want := range types {
			if have == want {
				return true
			}
		}
	}
	return false
}

// Profiler pushes continuous profiles to a Pyroscope server
type Profiler struct {
	profiler *pyroscope.Profiler
	log      *zap.Logger
	mu       sync.Mutex
	stopped  bool
}

// NewProfiler starts profiling. With profiling disabled it returns a profiler
// that does nothing.
func NewProfiler(cfg ProfilerConfig, log *zap.Logger) (*Profiler, error) {
	p := &Profiler{log: log}
	if !cfg.Enabled {
		log.Info("continuous profiling disabled")
		return p, nil
	}
	if cfg.ServerAddress == "" {
		return nil, fmt.Errorf("profiler server address is required when profiling is enabled")
	}

	if cfg.has(pyroscope.ProfileMutexCount, pyroscope.ProfileMutexDuration) {
		fraction := cfg.MutexProfileFraction
		if fraction <= 0 {
			fraction = 5
		}
		runtime.SetMutexProfileFraction(fraction)
	}
	if cfg.has(pyroscope.ProfileBlockCount, pyroscope.ProfileBlockDuration) {
		rate := cfg.BlockProfileRate
		if rate <= 0 {
			rate = 5
		}
		runtime.SetBlockProfileRate(rate)
	}
	if len(cfg.ProfileTypes) == 0 {
		log.Warn("no profile types enabled, the profiler collects nothing")
	}

	tags := map[string]string{}
	if hostname := os.Getenv("HOSTNAME"); hostname != "" {
		tags["hostname"] = hostname
	}

	pc := pyroscope.Config{
		ApplicationName: cfg.ApplicationName,
		ServerAddress:   cfg.ServerAddress,
		Logger:          newPyroscopeLogger(log),
		Tags:            tags,
		ProfileTypes:    cfg.ProfileTypes,
	}
	if cfg.BasicAuthUser != "" && cfg.BasicAuthPassword != "" {
		pc.BasicAuthUser = cfg.BasicAuthUser
		pc.BasicAuthPassword = cfg.BasicAuthPassword
	}

	profiler, err := pyroscope.Start(pc)
	if err != nil {
		return nil, fmt.Errorf("start pyroscope profiler: %w", err)
	}
	p.profiler = profiler

	log.Info("continuous profiling enabled",
		zap.String("server", cfg.ServerAddress),
		zap.String("application", cfg.ApplicationName),
		zap.Int("profile_types", len(cfg.ProfileTypes)))
	return p, nil
}

// IsEnabled reports whether profiles are pushed
func (p *Profiler) IsEnabled() bool {
	return p != nil && p.profiler != nil
}

// Stop flushes pending profiles. Calling it more than once is fine.
// The SDK takes no context, so a hung server can hold Stop up.
func (p *Profiler) Stop() error {
	if p == nil {
		return nil
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stopped || p.profiler == nil {
		p.stopped = true
		return nil
	}
	p.stopped = true
	if err := p.profiler.Stop(); err != nil {
		p.log.Error("stop profiler", zap.Error(err))
		return fmt.Errorf("stop profiler: %w", err)
	}
	return nil
}

// WithProfilingLabels runs fn with labels attached to the samples it
// produces. Empty keys and values are dropped and long values truncated.
func WithProfilingLabels(ctx context.Context, labels map[string]string, fn func(context.Context)) {
	pairs := labelPairs(labels)
	if len(pairs) == 0 {
		fn(ctx)
		return
	}
	pyroscope.TagWrapper(ctx, pyroscope.Labels(pairs...), fn)
}

// labelPairs flattens labels into sorted key, value pairs
func labelPairs(labels map[string]string) []string {
	keys := make([]string, 0, len(labels))
	for k, v := range labels {
		if k == "" || v == "" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys)*2)
	for _, k := range keys {
		v := labels[k]
		if len(v) > maxLabelValueLength {
			v = v[:maxLabelValueLength]
		}
		pairs = append(pairs, k, v)
	}
	return pairs
}

// pyroscopeLogger routes SDK messages through zap
type pyroscopeLogger struct {
	sugar *zap.SugaredLogger
}

func newPyroscopeLogger(log *zap.Logger) pyroscope.Logger {
	return &pyroscopeLogger{sugar: log.Named("pyroscope").Sugar()}
}

func (l *pyroscopeLogger) Infof(format string, args ...any)  { l.sugar.Infof(format, args...) }
func (l *pyroscopeLogger) Debugf(format string, args ...any) { l.sugar.Debugf(format, args...) }
func (l *pyroscopeLogger) Errorf(format string, args ...any) { l.sugar.Errorf(format, args...) }
