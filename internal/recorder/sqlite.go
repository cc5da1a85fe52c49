package recorder

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"

	"AwesomeSentinel/internal/model"
)

// lastDateLayout is the storage format of the last_date column.
const lastDateLayout = "2006-01-02"

// SQLiteRecorder journals analysis runs to a SQLite database.
type SQLiteRecorder struct {
	db  *sql.DB
	mu  sync.Mutex
	log logrus.FieldLogger
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string, log logrus.FieldLogger) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL so dashboards can read the journal while the service writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db, log: log}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.WithField("path", dbPath).Info("sqlite journal opened")
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS analysis_runs (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp   INTEGER NOT NULL,
			run_id      TEXT NOT NULL,
			symbol      TEXT NOT NULL,
			source      TEXT,
			trigger     TEXT,
			bars        INTEGER,
			last_date   TEXT,
			last_close  REAL,
			last_ao     REAL,
			last_ac     REAL,
			signal      TEXT,
			prev_signal TEXT,
			changed     INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_symbol_ts ON analysis_runs(symbol, timestamp)`,

		`CREATE TABLE IF NOT EXISTS analysis_failures (
			id        INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp INTEGER NOT NULL,
			symbol    TEXT,
			kind      TEXT,
			message   TEXT,
			trigger   TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_failures_ts ON analysis_failures(timestamp)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordAnalysis(evt *AnalysisEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	changed := 0
	if evt.Changed() {
		changed = 1
	}
	_, err := r.db.Exec(`INSERT INTO analysis_runs
		(timestamp, run_id, symbol, source, trigger, bars, last_date,
		 last_close, last_ao, last_ac, signal, prev_signal, changed)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		evt.At.Unix(), evt.RunID, evt.Symbol, evt.Source, evt.Trigger, evt.Bars,
		evt.LastDate.Format(lastDateLayout), evt.LastClose, evt.LastAO, evt.LastAC,
		string(evt.Signal), string(evt.PrevSignal), changed,
	)
	return err
}

func (r *SQLiteRecorder) RecordFailure(evt *FailureEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO analysis_failures
		(timestamp, symbol, kind, message, trigger)
		VALUES (?,?,?,?,?)`,
		time.Now().Unix(), evt.Symbol, evt.Kind, evt.Message, evt.Trigger,
	)
	return err
}

// SignalHistory returns the most recent journaled signals for symbol, newest first.
func (r *SQLiteRecorder) SignalHistory(symbol string, limit int) ([]AnalysisEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rows, err := r.db.Query(`SELECT run_id, symbol, source, trigger, bars, timestamp,
		last_date, last_close, last_ao, last_ac, signal, prev_signal
		FROM analysis_runs WHERE symbol = ? ORDER BY id DESC LIMIT ?`, symbol, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []AnalysisEvent
	for rows.Next() {
		var e AnalysisEvent
		var ts int64
		var lastDate sql.NullString
		var sig, prev string
		if err := rows.Scan(&e.RunID, &e.Symbol, &e.Source, &e.Trigger, &e.Bars, &ts,
			&lastDate, &e.LastClose, &e.LastAO, &e.LastAC, &sig, &prev); err != nil {
			return nil, err
		}
		if lastDate.Valid {
			if e.LastDate, err = time.Parse(lastDateLayout, lastDate.String); err != nil {
				return nil, fmt.Errorf("parse last_date %q: %w", lastDate.String, err)
			}
		}
		e.At = time.Unix(ts, 0).UTC()
		e.Signal = model.Signal(sig)
		e.PrevSignal = model.Signal(prev)
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *SQLiteRecorder) Close() error {
	r.log.Info("closing sqlite journal")
	return r.db.Close()
}
