package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/samvad-hq/spreedly-client/internal/config"
	"github.com/samvad-hq/spreedly-client/internal/logger"
	"github.com/samvad-hq/spreedly-client/internal/metrics"
	"github.com/samvad-hq/spreedly-client/internal/storage"
	"github.com/samvad-hq/spreedly-client/pkg/publishers"
	"github.com/samvad-hq/spreedly-client/pkg/spreedly"
)

// Caller is the subset of *spreedly.Client the runner drives.
type Caller interface {
	Get(ctx context.Context, endpoint string, params map[string]string) (*spreedly.Result, error)
	Post(ctx context.Context, endpoint string, body any) (*spreedly.Result, error)
	Put(ctx context.Context, endpoint string, body any) (*spreedly.Result, error)
}

// EventPublisher fans call events out to downstream sinks.
type EventPublisher interface {
	Publish(ctx context.Context, evt publishers.Event) (int, error)
}

// Runner executes single Spreedly calls and records their outcome in the
// journal and on the configured publishers.
type Runner struct {
	client   Caller
	journal  storage.Journal
	fanout   *publishers.Fanout
	events   EventPublisher
	exporter *metrics.Exporter
	log      logger.Logger
}

// NewRunner wires a runner from config. The returned runner must be closed.
func NewRunner(ctx context.Context, cfg *config.Config, log logger.Logger) (*Runner, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if log == nil {
		log = logger.NopLogger{}
	}
	if ctx == nil {
		ctx = context.Background()
	}

	opts := []spreedly.Option{spreedly.WithLogger(log)}
	var exporter *metrics.Exporter
	if cfg.MetricsEnabled {
		reg := prometheus.NewRegistry()
		calls, err := metrics.NewCalls(reg)
		if err != nil {
			return nil, fmt.Errorf("register metrics: %w", err)
		}
		opts = append(opts, spreedly.WithObserver(calls))
		exporter = metrics.NewExporter(reg, metrics.ExportOptions{
			Textfile: cfg.MetricsTextfile,
			PushURL:  cfg.MetricsPushURL,
			Job:      cfg.MetricsJob,
		})
		if !exporter.Enabled() {
			log.WarnObj("metrics enabled without an export target", "metrics_config", map[string]any{
				"textfile": cfg.MetricsTextfile,
				"push_url": cfg.MetricsPushURL,
			})
		}
	}
	client := spreedly.New(cfg.Spreedly(), opts...)
	log.InfoObj("spreedly client configured", "spreedly_client", map[string]any{
		"base_url":        client.BaseURL(),
		"timeout_seconds": int(cfg.Timeout.Seconds()),
	})

	var fanout *publishers.Fanout
	if strings.TrimSpace(cfg.PublishersFile) != "" {
		publisherReg, err := publishers.LoadRegistry(cfg.PublishersFile)
		if err != nil {
			return nil, fmt.Errorf("load publishers registry: %w", err)
		}
		enabled := publisherReg.Enabled()
		pubClients, err := publishers.BuildAll(ctx, publishers.DefaultRegistry(), enabled, log)
		if err != nil {
			return nil, fmt.Errorf("build publishers: %w", err)
		}
		fanout = publishers.NewFanout(pubClients)
		summaries := make([]map[string]string, 0, len(enabled))
		for _, pubCfg := range enabled {
			summaries = append(summaries, map[string]string{"id": pubCfg.ID, "type": pubCfg.Type})
		}
		log.InfoObj("publishers registry loaded", "publishers_meta", map[string]any{
			"count":      len(summaries),
			"publishers": summaries,
		})
	}

	journal, err := storage.NewJournal(cfg.StorageType, cfg.JournalPath, storage.Options{
		EntryTTL:        cfg.JournalTTL,
		CleanupInterval: cfg.StorageCleanup,
	})
	if err != nil {
		_ = fanout.Close()
		return nil, fmt.Errorf("init storage: %w", err)
	}
	log.DebugObj("storage initialized", "storage_config", map[string]any{
		"type":                     cfg.StorageType,
		"path":                     cfg.JournalPath,
		"entry_ttl_seconds":        int(cfg.JournalTTL.Seconds()),
		"cleanup_interval_seconds": int(cfg.StorageCleanup.Seconds()),
	})

	r := NewRunnerWith(client, journal, fanout, log)
	r.fanout = fanout
	r.exporter = exporter
	return r, nil
}

// NewRunnerWith assembles a runner from already built parts. events and journal may be nil.
func NewRunnerWith(client Caller, journal storage.Journal, events EventPublisher, log logger.Logger) *Runner {
	if log == nil {
		log = logger.NopLogger{}
	}
	if journal == nil {
		journal, _ = storage.NewJournal("none", "", storage.Options{})
	}
	if fan, ok := events.(*publishers.Fanout); ok && fan == nil {
		events = nil
	}
	return &Runner{client: client, journal: journal, events: events, log: log}
}

// Execute performs one call. Business failures come back as a failed result;
// configuration, not-found, unauthorized and transport errors are returned as errors.
// Journal and publisher failures are logged and never mask the call outcome.
func (r *Runner) Execute(ctx context.Context, method, endpoint string, params map[string]string, body any) (*spreedly.Result, error) {
	if r == nil || r.client == nil {
		return nil, fmt.Errorf("runner is not initialized")
	}

	method = strings.ToUpper(strings.TrimSpace(method))
	var (
		res *spreedly.Result
		err error
	)
	switch method {
	case http.MethodGet:
		res, err = r.client.Get(ctx, endpoint, params)
	case http.MethodPost:
		res, err = r.client.Post(ctx, endpoint, body)
	case http.MethodPut:
		res, err = r.client.Put(ctx, endpoint, body)
	default:
		return nil, fmt.Errorf("unsupported method %q", method)
	}

	if errors.Is(err, spreedly.ErrConfiguration) {
		return nil, err
	}
	r.record(ctx, method, endpoint, res, err)
	return res, err
}

// History returns the n most recent journaled calls.
func (r *Runner) History(n int) ([]storage.Entry, error) {
	return r.journal.Recent(n)
}

// Close exports the collected metrics, then releases the journal and publishers.
func (r *Runner) Close() error {
	if r == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return errors.Join(r.exporter.Flush(ctx), r.journal.Close(), r.fanout.Close())
}

func (r *Runner) record(ctx context.Context, method, endpoint string, res *spreedly.Result, callErr error) {
	evt := publishers.NewEvent(method, endpoint, res.StatusCode(), res.Success())
	evt.Token = resourceToken(res)
	switch {
	case callErr != nil:
		evt.Errors = callErr.Error()
		evt.StatusCode = statusOf(callErr)
	case res.Fails():
		evt.Errors = res.ErrorsJoined()
	}

	entry := storage.Entry{
		ID:         evt.ID,
		Method:     evt.Method,
		Endpoint:   evt.Endpoint,
		StatusCode: evt.StatusCode,
		Success:    evt.Success,
		Errors:     evt.Errors,
		OccurredAt: evt.OccurredAt,
	}
	if err := r.journal.Record(entry); err != nil {
		r.log.ErrorObj("journal record failed", "error", err.Error())
	}

	if r.events == nil {
		return
	}
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	if _, err := r.events.Publish(pubCtx, evt); err != nil {
		r.log.WarnObj("call event publish failed", "error", err.Error())
	}
}

func statusOf(err error) int {
	var (
		nf     *spreedly.NotFoundError
		unauth *spreedly.UnauthorizedError
		herr   *spreedly.HTTPError
	)
	switch {
	case errors.As(err, &nf):
		return http.StatusNotFound
	case errors.As(err, &unauth):
		return unauth.StatusCode
	case errors.As(err, &herr):
		return herr.StatusCode
	}
	return 0
}

// resourceToken returns the "token" field of the unwrapped resource, if any.
func resourceToken(res *spreedly.Result) string {
	obj, ok := res.Response().(map[string]any)
	if !ok {
		return ""
	}
	token, _ := obj["token"].(string)
	return token
}
