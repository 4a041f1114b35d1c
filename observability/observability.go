// Package observability records comparison and calibration run outcomes in
// a local SQLite database. Recording is non-blocking by contract: a failing
// event store logs via slog and never propagates into the engine.
package observability

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/hazyhaar/domdiff/idgen"
)

// Schema creates the run-event table. Pass to dbopen.Open via WithSchema.
const Schema = `
CREATE TABLE IF NOT EXISTS run_events (
	event_id   TEXT PRIMARY KEY,
	run_id     TEXT NOT NULL,
	event_type TEXT NOT NULL,
	subject    TEXT NOT NULL,
	success    INTEGER NOT NULL,
	detail     TEXT,
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_run_events_run ON run_events (run_id);
`

// Event types.
const (
	EventComparison  = "comparison"
	EventCalibration = "calibration"
)

// EventLogger writes run events and manages retention cleanup.
type EventLogger struct {
	db    *sql.DB
	newID idgen.Generator
}

// EventLoggerOption configures an EventLogger.
type EventLoggerOption func(*EventLogger)

// WithEventIDGenerator sets a custom ID generator for event IDs.
func WithEventIDGenerator(gen idgen.Generator) EventLoggerOption {
	return func(l *EventLogger) { l.newID = gen }
}

// NewEventLogger creates a logger backed by the given database.
func NewEventLogger(db *sql.DB, opts ...EventLoggerOption) *EventLogger {
	l := &EventLogger{
		db:    db,
		newID: idgen.Prefixed("evt_", idgen.Default),
	}
	for _, o := range opts {
		o(l)
	}
	return l
}

// RecordComparison records a two-snapshot comparison outcome. subject is a
// caller-chosen identifier such as "home@1280x800".
func (l *EventLogger) RecordComparison(ctx context.Context, runID, subject string, ok bool, detail string) {
	l.record(ctx, runID, EventComparison, subject, ok, detail)
}

// RecordCalibration records one calibration pair outcome. It satisfies
// calibrate.Recorder.
func (l *EventLogger) RecordCalibration(ctx context.Context, runID, pair string, ok bool, detail string) {
	l.record(ctx, runID, EventCalibration, pair, ok, detail)
}

func (l *EventLogger) record(ctx context.Context, runID, eventType, subject string, ok bool, detail string) {
	_, err := l.db.ExecContext(ctx, `
		INSERT INTO run_events (event_id, run_id, event_type, subject, success, detail, created_at)
		VALUES (?,?,?,?,?,?,?)`,
		l.newID(), runID, eventType, subject, ok, detail, time.Now().Unix())
	if err != nil {
		slog.Error("observability: event record failed",
			"error", err, "event_type", eventType, "subject", subject)
	}
}

// Cleanup deletes events older than the retention window.
func Cleanup(ctx context.Context, db *sql.DB, retentionDays int) error {
	if retentionDays <= 0 {
		return nil
	}
	cutoff := time.Now().Unix() - int64(retentionDays)*86400
	_, err := db.ExecContext(ctx, `DELETE FROM run_events WHERE created_at < ?`, cutoff)
	return err
}
