package trace

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Flush tuning. Mirrors the audit logger: bounded-delay batches, drop on
// overflow rather than backpressure into catalog queries.
const (
	flushInterval = time.Second
	batchSize     = 64
	bufferSize    = 1024
)

// Schema for the query_traces table. Call Store.Init() or apply via
// dbopen.WithSchema.
const Schema = `
CREATE TABLE IF NOT EXISTS query_traces (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	trace_id TEXT,
	op TEXT NOT NULL,
	query TEXT NOT NULL,
	duration_us INTEGER NOT NULL,
	error TEXT,
	timestamp INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_query_traces_ts ON query_traces(timestamp);
CREATE INDEX IF NOT EXISTS idx_query_traces_tid ON query_traces(trace_id) WHERE trace_id != '';
CREATE INDEX IF NOT EXISTS idx_query_traces_slow ON query_traces(duration_us) WHERE duration_us > 100000;
`

// Store persists catalog query traces to a side SQLite database,
// asynchronously. It MUST be opened with the raw "sqlite" driver (not
// "sqlite-trace") or every trace write would trace itself.
type Store struct {
	db   *sql.DB
	ch   chan *Entry
	done chan struct{}
	once sync.Once
}

// NewStore creates a trace store backed by the given database connection.
func NewStore(db *sql.DB) *Store {
	s := &Store{
		db:   db,
		ch:   make(chan *Entry, bufferSize),
		done: make(chan struct{}),
	}
	go s.flushLoop()
	return s
}

// Init creates the query_traces table if it doesn't exist.
func (s *Store) Init() error {
	_, err := s.db.Exec(Schema)
	return err
}

// RecordAsync queues an entry for persistence. Non-blocking; drops when
// the buffer is full.
func (s *Store) RecordAsync(e *Entry) {
	select {
	case s.ch <- e:
	default:
	}
}

// Slowest returns the slowest recorded queries, worst first. The usual
// consumer is an operator poking at catalog latency after the fact.
func (s *Store) Slowest(ctx context.Context, limit int) ([]*Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT trace_id, op, query, duration_us, COALESCE(error, ''), timestamp
		FROM query_traces ORDER BY duration_us DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("trace: slowest: %w", err)
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.TraceID, &e.Op, &e.Query, &e.DurationUs, &e.Error, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("trace: scan: %w", err)
		}
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}

// Close drains the buffer and stops the flush goroutine.
func (s *Store) Close() error {
	s.once.Do(func() {
		close(s.ch)
		<-s.done
	})
	return nil
}

func (s *Store) flushLoop() {
	defer close(s.done)

	batch := make([]*Entry, 0, batchSize)
	ticker := time.NewTicker(flushInterval)
	defer ticker.Stop()

	for {
		select {
		case e, ok := <-s.ch:
			if !ok {
				s.flushBatch(batch)
				return
			}
			batch = append(batch, e)
			if len(batch) >= batchSize {
				s.flushBatch(batch)
				batch = batch[:0]
			}
		case <-ticker.C:
			if len(batch) > 0 {
				s.flushBatch(batch)
				batch = batch[:0]
			}
		}
	}
}

func (s *Store) flushBatch(batch []*Entry) {
	if len(batch) == 0 {
		return
	}

	tx, err := s.db.Begin()
	if err != nil {
		slog.Error("trace: begin tx", "error", err)
		return
	}

	stmt, err := tx.Prepare(`INSERT INTO query_traces (trace_id, op, query, duration_us, error, timestamp)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		slog.Error("trace: prepare", "error", err)
		return
	}
	defer stmt.Close()

	for _, e := range batch {
		if _, err := stmt.Exec(e.TraceID, e.Op, e.Query, e.DurationUs, e.Error, e.Timestamp); err != nil {
			slog.Error("trace: insert", "error", err)
		}
	}

	if err := tx.Commit(); err != nil {
		slog.Error("trace: commit", "error", err)
	}
}
