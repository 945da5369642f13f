package storage

import (
	"fmt"
	"testing"
	"time"

	bolt "go.etcd.io/bbolt"
)

func TestBoltJournalRecordsNewestFirst(t *testing.T) {
	raw, err := openBolt(t.TempDir()+"/journal.db", normalizeOptions(Options{}))
	if err != nil {
		t.Fatalf("openBolt: %v", err)
	}
	j := raw.(*boltJournal)
	defer j.Close()

	for i := 1; i <= 3; i++ {
		if err := j.Record(Entry{ID: fmt.Sprintf("01J%03d", i), Method: "GET", Endpoint: "v1/gateways.json", StatusCode: 200, Success: true}); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	got, err := j.Recent(2)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(got) != 2 || got[0].ID != "01J003" || got[1].ID != "01J002" {
		t.Fatalf("unexpected entries %+v", got)
	}
	if !got[0].Success || got[0].Endpoint != "v1/gateways.json" {
		t.Fatalf("entry not round-tripped: %+v", got[0])
	}
}

func TestBoltJournalExpiresEntries(t *testing.T) {
	opts := Options{
		EntryTTL:        1 * time.Second,
		CleanupInterval: 1 * time.Second,
	}
	raw, err := openBolt(t.TempDir()+"/journal.db", opts)
	if err != nil {
		t.Fatalf("openBolt: %v", err)
	}
	j := raw.(*boltJournal)
	defer j.Close()

	if err := j.Record(Entry{ID: "a"}); err != nil {
		t.Fatalf("Record: %v", err)
	}

	// Fast-forward cleanup cadence and trigger expiry.
	j.lastCleanup.Store(time.Now().Add(-2 * time.Second).Unix())
	time.Sleep(1100 * time.Millisecond)

	got, err := j.Recent(10)
	if err != nil {
		t.Fatalf("Recent after expiry: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected entry to expire, got %+v", got)
	}
}

func TestBoltJournalCleansUpAcrossReopen(t *testing.T) {
	path := t.TempDir() + "/journal.db"
	opts := Options{
		EntryTTL:        1 * time.Second,
		CleanupInterval: 1 * time.Second,
	}

	raw, err := openBolt(path, opts)
	if err != nil {
		t.Fatalf("openBolt: %v", err)
	}
	for i := 1; i <= 5; i++ {
		if err := raw.Record(Entry{ID: fmt.Sprintf("01J%03d", i)}); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}
	if err := raw.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	time.Sleep(1100 * time.Millisecond)

	raw, err = openBolt(path, opts)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	j := raw.(*boltJournal)
	defer j.Close()
	if j.lastCleanup.Load() == 0 {
		t.Fatalf("last cleanup time not restored")
	}
	if err := j.Record(Entry{ID: "01J006"}); err != nil {
		t.Fatalf("Record after reopen: %v", err)
	}

	var stored int
	if err := j.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(entryBucket)).ForEach(func(_, _ []byte) error {
			stored++
			return nil
		})
	}); err != nil {
		t.Fatalf("View: %v", err)
	}
	if stored != 1 {
		t.Fatalf("expected expired entries to be deleted, %d stored", stored)
	}
}

func TestBoltJournalRejectsEmptyID(t *testing.T) {
	raw, err := openBolt(t.TempDir()+"/journal.db", normalizeOptions(Options{}))
	if err != nil {
		t.Fatalf("openBolt: %v", err)
	}
	defer raw.Close()
	if err := raw.Record(Entry{}); err == nil {
		t.Fatalf("expected error for empty id")
	}
}

func TestNewJournalSupportsNoop(t *testing.T) {
	j, err := NewJournal("none", "", Options{})
	if err != nil {
		t.Fatalf("NewJournal none: %v", err)
	}
	if err := j.Record(Entry{ID: "x"}); err != nil {
		t.Fatalf("noop journal Record: %v", err)
	}
	if _, err := NewJournal("bbolt", "", Options{}); err == nil {
		t.Fatalf("expected bbolt without path to fail")
	}
	if _, err := NewJournal("redis", "x", Options{}); err == nil {
		t.Fatalf("expected unsupported type to fail")
	}
}
