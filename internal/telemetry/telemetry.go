// Package telemetry builds the logger and metrics registry used by cspgen.
package telemetry

import (
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/rs/zerolog"

	"github.com/gitrdm/gokancsp/internal/config"
	"github.com/gitrdm/gokancsp/pkg/csp"
)

// NewLogger returns a logger writing to w at the configured level. The
// "auto" format selects the console writer when w is a terminal and JSON
// otherwise.
func NewLogger(cfg config.LoggingConfig, w io.Writer) zerolog.Logger {
	if useConsole(cfg.Format, w) {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	}
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}

func useConsole(format string, w io.Writer) bool {
	switch format {
	case "console":
		return true
	case "json":
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Registry holds the solver metrics. A disabled registry hands out nil
// metrics, which the orchestrator ignores.
type Registry struct {
	reg     *prometheus.Registry
	metrics *csp.Metrics
}

// NewRegistry creates a registry with the csp collectors when enabled.
func NewRegistry(enabled bool) *Registry {
	if !enabled {
		return &Registry{}
	}
	reg := prometheus.NewRegistry()
	return &Registry{reg: reg, metrics: csp.NewMetrics(reg)}
}

// Metrics returns the collectors to pass to csp.WithMetrics.
func (r *Registry) Metrics() *csp.Metrics { return r.metrics }

// Gatherer exposes the underlying registry, nil when disabled.
func (r *Registry) Gatherer() prometheus.Gatherer {
	if r.reg == nil {
		return nil
	}
	return r.reg
}

// Summary flattens every counter into "name{label=value}" keys. Histograms
// contribute their sample count.
func (r *Registry) Summary() (map[string]float64, error) {
	out := map[string]float64{}
	if r.reg == nil {
		return out, nil
	}
	families, err := r.reg.Gather()
	if err != nil {
		return nil, err
	}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			key := mf.GetName() + labelString(m.GetLabel())
			switch {
			case m.GetCounter() != nil:
				out[key] = m.GetCounter().GetValue()
			case m.GetHistogram() != nil:
				out[key+"_count"] = float64(m.GetHistogram().GetSampleCount())
			}
		}
	}
	return out, nil
}

// LogSummary writes the summary as one info event.
func (r *Registry) LogSummary(log zerolog.Logger) {
	summary, err := r.Summary()
	if err != nil {
		log.Warn().Err(err).Msg("gather metrics")
		return
	}
	if len(summary) == 0 {
		return
	}
	keys := make([]string, 0, len(summary))
	for k := range summary {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	ev := log.Info()
	for _, k := range keys {
		ev = ev.Float64(k, summary[k])
	}
	ev.Msg("metrics")
}

func labelString(labels []*dto.LabelPair) string {
	if len(labels) == 0 {
		return ""
	}
	parts := make([]string, len(labels))
	for i, l := range labels {
		parts[i] = l.GetName() + "=" + l.GetValue()
	}
	return "{" + strings.Join(parts, ",") + "}"
}
