package storage

import (
	"fmt"
	"strings"
	"time"
)

// Package storage keeps a local journal of Spreedly call outcomes.

// Entry is one journaled call. IDs are ULIDs so they sort by time.
type Entry struct {
	ID         string    `json:"id"`
	Method     string    `json:"method"`
	Endpoint   string    `json:"endpoint"`
	StatusCode int       `json:"status_code"`
	Success    bool      `json:"success"`
	Errors     string    `json:"errors,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Journal records call outcomes.
type Journal interface {
	Close() error
	Record(e Entry) error
	Recent(n int) ([]Entry, error)
}

// Options controls retention characteristics for concrete journal implementations.
type Options struct {
	EntryTTL        time.Duration
	CleanupInterval time.Duration
}

const (
	defaultEntryTTL        = 30 * 24 * time.Hour
	defaultCleanupInterval = 12 * time.Hour
)

// NewJournal creates the configured storage backend.
func NewJournal(typ, path string, opts Options) (Journal, error) {
	typ = strings.TrimSpace(strings.ToLower(typ))
	opts = normalizeOptions(opts)

	switch typ {
	case "", "none", "disabled":
		return noopJournal{}, nil
	case "bbolt":
		if strings.TrimSpace(path) == "" {
			return nil, fmt.Errorf("bbolt storage requires a path")
		}
		return openBolt(path, opts)
	default:
		return nil, fmt.Errorf("unsupported storage type %q", typ)
	}
}

func normalizeOptions(opts Options) Options {
	if opts.EntryTTL <= 0 {
		opts.EntryTTL = defaultEntryTTL
	}
	if opts.CleanupInterval <= 0 {
		opts.CleanupInterval = defaultCleanupInterval
	}
	return opts
}

type noopJournal struct{}

func (noopJournal) Close() error                { return nil }
func (noopJournal) Record(Entry) error          { return nil }
func (noopJournal) Recent(int) ([]Entry, error) { return nil, nil }
