package metrics

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

// DefaultJob is the Pushgateway job name used when none is configured.
const DefaultJob = "spreedly_cli"

// ExportOptions selects where gathered metrics go when a process exits.
// Either target may be empty.
type ExportOptions struct {
	Textfile string
	PushURL  string
	Job      string
}

// Exporter hands the metrics of a short lived process to Prometheus, either as
// a node_exporter textfile or through a Pushgateway.
type Exporter struct {
	reg  *prometheus.Registry
	opts ExportOptions
}

// NewExporter returns an exporter over reg.
func NewExporter(reg *prometheus.Registry, opts ExportOptions) *Exporter {
	opts.Textfile = strings.TrimSpace(opts.Textfile)
	opts.PushURL = strings.TrimSpace(opts.PushURL)
	if strings.TrimSpace(opts.Job) == "" {
		opts.Job = DefaultJob
	}
	return &Exporter{reg: reg, opts: opts}
}

// Enabled reports whether any export target is configured.
func (e *Exporter) Enabled() bool {
	return e != nil && (e.opts.Textfile != "" || e.opts.PushURL != "")
}

// Flush writes the textfile and pushes to the gateway. Both targets are tried
// and their errors joined.
func (e *Exporter) Flush(ctx context.Context) error {
	if !e.Enabled() {
		return nil
	}
	var errs []error
	if e.opts.Textfile != "" {
		if err := prometheus.WriteToTextfile(e.opts.Textfile, e.reg); err != nil {
			errs = append(errs, fmt.Errorf("write metrics textfile: %w", err))
		}
	}
	if e.opts.PushURL != "" {
		if err := push.New(e.opts.PushURL, e.opts.Job).Gatherer(e.reg).PushContext(ctx); err != nil {
			errs = append(errs, fmt.Errorf("push metrics: %w", err))
		}
	}
	return errors.Join(errs...)
}
