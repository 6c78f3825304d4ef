// Package audit provides the scriptshelf activity logger: an explicit
// batch accumulator that appends agent_logs rows to SQLite with a
// bounded-delay flush window.
//
// Every mutating catalog operation and every /api request records an entry.
// Appends are fire-and-forget: Log never blocks the caller and a failed
// write is reported via slog only, never to the primary operation.
//
// The agent_logs table is the single durable sink; the formatted read-back
// (Recent) preserves the classic "[timestamp] action: details" line shape.
// An optional mirror file can be configured for ops tailing — it is write-
// only and never read back.
package audit

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Schema for the agent_logs table. This package is the sole owner of the
// table; apply via Init or dbopen.WithSchema.
const Schema = `
CREATE TABLE IF NOT EXISTS agent_logs (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	action TEXT NOT NULL,
	details TEXT,
	timestamp INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_agent_logs_ts ON agent_logs(timestamp);
`

// Entry is a single activity record.
type Entry struct {
	ID        int64  `json:"id"`
	Action    string `json:"action"`
	Details   string `json:"details,omitempty"`
	Timestamp int64  `json:"timestamp"` // unix milliseconds
}

// FormatLine renders an entry in the log-line shape the admin view expects:
// "[<RFC3339 timestamp>] <action>: <details>".
func FormatLine(e *Entry) string {
	ts := time.UnixMilli(e.Timestamp).UTC().Format(time.RFC3339)
	return fmt.Sprintf("[%s] %s: %s", ts, e.Action, e.Details)
}

// Logger accumulates entries in memory and flushes them to the agent_logs
// table in batches. It owns its buffer — no package-level state.
type Logger struct {
	db     *sql.DB
	now    func() time.Time
	mirror *os.File

	ch       chan *Entry
	flushReq chan chan struct{}
	done     chan struct{}
	once     sync.Once

	interval  time.Duration
	batchSize int
}

// Option customises Logger behaviour.
type Option func(*Logger)

// WithFlushInterval sets the bounded delay before a partial batch is
// written. Default: 1s.
func WithFlushInterval(d time.Duration) Option {
	return func(l *Logger) { l.interval = d }
}

// WithBatchSize sets the batch threshold that triggers an immediate flush.
// Default: 64.
func WithBatchSize(n int) Option {
	return func(l *Logger) { l.batchSize = n }
}

// WithNow injects the clock used to stamp entries. Default: time.Now.
func WithNow(now func() time.Time) Option {
	return func(l *Logger) { l.now = now }
}

// WithMirrorFile appends every flushed line to the given file as well.
// Parent directories are created if missing. Mirror errors are swallowed.
func WithMirrorFile(path string) Option {
	return func(l *Logger) {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			slog.Error("audit: mirror mkdir", "path", path, "error", err)
			return
		}
		f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			slog.Error("audit: mirror open", "path", path, "error", err)
			return
		}
		l.mirror = f
	}
}

// NewLogger creates an activity logger writing to db and starts its flush
// loop. Call Close to drain and stop.
func NewLogger(db *sql.DB, opts ...Option) *Logger {
	l := &Logger{
		db:        db,
		now:       time.Now,
		ch:        make(chan *Entry, 1024),
		flushReq:  make(chan chan struct{}),
		done:      make(chan struct{}),
		interval:  time.Second,
		batchSize: 64,
	}
	for _, o := range opts {
		o(l)
	}
	go l.flushLoop()
	return l
}

// Init creates the agent_logs table if it doesn't exist.
func (l *Logger) Init() error {
	_, err := l.db.Exec(Schema)
	return err
}

// Log queues an activity entry. Non-blocking; drops if the buffer is full.
// The entry is also echoed to slog at debug level.
func (l *Logger) Log(ctx context.Context, action, details string) {
	e := &Entry{
		Action:    action,
		Details:   details,
		Timestamp: l.now().UnixMilli(),
	}
	slog.DebugContext(ctx, "audit", "action", action, "details", details)
	select {
	case l.ch <- e:
	default:
		slog.Warn("audit: buffer full, entry dropped", "action", action)
	}
}

// LogNow writes an activity entry synchronously, bypassing the batch
// buffer, and returns the stored row. Used where the caller needs the
// entry back, such as the log ingestion endpoint.
func (l *Logger) LogNow(ctx context.Context, action, details string) (*Entry, error) {
	e := &Entry{
		Action:    action,
		Details:   details,
		Timestamp: l.now().UnixMilli(),
	}
	var d any
	if details != "" {
		d = details
	}
	res, err := l.db.ExecContext(ctx,
		`INSERT INTO agent_logs (action, details, timestamp) VALUES (?, ?, ?)`,
		e.Action, d, e.Timestamp)
	if err != nil {
		return nil, fmt.Errorf("audit: insert: %w", err)
	}
	if e.ID, err = res.LastInsertId(); err != nil {
		return nil, err
	}
	l.writeMirror(e)
	return e, nil
}

// Flush synchronously writes out everything queued so far.
func (l *Logger) Flush() {
	ack := make(chan struct{})
	select {
	case l.flushReq <- ack:
		<-ack
	case <-l.done:
	}
}

// Close drains the buffer, stops the flush loop and closes the mirror file.
func (l *Logger) Close() error {
	l.once.Do(func() {
		close(l.ch)
		<-l.done
		if l.mirror != nil {
			l.mirror.Close()
		}
	})
	return nil
}

// Recent returns the formatted lines of the newest-inserted entries, oldest
// first (append order, like tailing a log file). limit <= 0 returns all.
func (l *Logger) Recent(ctx context.Context, limit int) ([]string, error) {
	q := `SELECT id, action, COALESCE(details, ''), timestamp FROM agent_logs ORDER BY id`
	var rows *sql.Rows
	var err error
	if limit > 0 {
		rows, err = l.db.QueryContext(ctx, q+` DESC LIMIT ?`, limit)
	} else {
		rows, err = l.db.QueryContext(ctx, q)
	}
	if err != nil {
		return nil, fmt.Errorf("audit: read: %w", err)
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.Action, &e.Details, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("audit: scan: %w", err)
		}
		entries = append(entries, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if limit > 0 {
		// The limited query selects newest first; restore append order.
		for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
			entries[i], entries[j] = entries[j], entries[i]
		}
	}

	lines := make([]string, 0, len(entries))
	for _, e := range entries {
		lines = append(lines, FormatLine(e))
	}
	return lines, nil
}

func (l *Logger) flushLoop() {
	defer close(l.done)

	batch := make([]*Entry, 0, l.batchSize)
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	for {
		select {
		case e, ok := <-l.ch:
			if !ok {
				l.flushBatch(batch)
				return
			}
			batch = append(batch, e)
			if len(batch) >= l.batchSize {
				l.flushBatch(batch)
				batch = batch[:0]
			}
		case ack := <-l.flushReq:
			// Drain anything already queued before acknowledging.
			for {
				select {
				case e, ok := <-l.ch:
					if !ok {
						l.flushBatch(batch)
						close(ack)
						return
					}
					batch = append(batch, e)
					continue
				default:
				}
				break
			}
			l.flushBatch(batch)
			batch = batch[:0]
			close(ack)
		case <-ticker.C:
			if len(batch) > 0 {
				l.flushBatch(batch)
				batch = batch[:0]
			}
		}
	}
}

func (l *Logger) flushBatch(batch []*Entry) {
	if len(batch) == 0 {
		return
	}

	tx, err := l.db.Begin()
	if err != nil {
		slog.Error("audit: begin tx", "error", err)
		return
	}

	stmt, err := tx.Prepare(`INSERT INTO agent_logs (action, details, timestamp) VALUES (?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		slog.Error("audit: prepare", "error", err)
		return
	}
	defer stmt.Close()

	for _, e := range batch {
		var details any
		if e.Details != "" {
			details = e.Details
		}
		if _, err := stmt.Exec(e.Action, details, e.Timestamp); err != nil {
			slog.Error("audit: insert", "error", err)
		}
	}

	if err := tx.Commit(); err != nil {
		slog.Error("audit: commit", "error", err)
		return
	}

	for _, e := range batch {
		l.writeMirror(e)
	}
}

func (l *Logger) writeMirror(e *Entry) {
	if l.mirror == nil {
		return
	}
	if _, err := l.mirror.WriteString(FormatLine(e) + "\n"); err != nil {
		slog.Error("audit: mirror write", "error", err)
	}
}
