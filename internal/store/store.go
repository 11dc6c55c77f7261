// Package store handles SQLite persistence for competitions and results.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/verte-zerg/typerace/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

// ErrNotFound is returned when a competition does not exist.
var ErrNotFound = errors.New("competition not found")

// Store wraps SQLite access for competition data.
type Store struct {
	db *sql.DB
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// One connection keeps writes serialized and an in-memory database shared.
	db.SetMaxOpenConns(1)
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS competitions (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			mode TEXT NOT NULL,
			text TEXT NOT NULL,
			jumble TEXT NOT NULL,
			duration_ms INTEGER NOT NULL,
			start_at TEXT NOT NULL,
			stopped INTEGER NOT NULL,
			created_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS results (
			id INTEGER PRIMARY KEY,
			competition_id TEXT NOT NULL,
			participant_id TEXT NOT NULL,
			participant_name TEXT NOT NULL,
			wpm REAL NOT NULL,
			accuracy REAL NOT NULL,
			time_taken REAL NOT NULL,
			total_keystrokes INTEGER NOT NULL,
			correct_keystrokes INTEGER NOT NULL,
			repeat_count INTEGER NOT NULL,
			submitted_at TEXT NOT NULL,
			UNIQUE (competition_id, participant_id)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_results_competition ON results(competition_id);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// SaveCompetition inserts or replaces a competition. Results are kept.
func (s *Store) SaveCompetition(ctx context.Context, c model.Competition) error {
	jumble, err := json.Marshal(jumbleRows(c.Jumble))
	if err != nil {
		return fmt.Errorf("failed to encode jumble words: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO competitions (id, title, mode, text, jumble, duration_ms, start_at, stopped, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			mode = excluded.mode,
			text = excluded.text,
			jumble = excluded.jumble,
			duration_ms = excluded.duration_ms,
			start_at = excluded.start_at,
			stopped = excluded.stopped`,
		c.ID,
		c.Title,
		string(c.Mode),
		c.Text,
		string(jumble),
		c.Duration.Milliseconds(),
		c.StartAt.Format(time.RFC3339Nano),
		boolInt(c.Stopped),
		c.CreatedAt.Format(time.RFC3339Nano),
	)
	return err
}

// GetCompetition loads a competition by id.
func (s *Store) GetCompetition(ctx context.Context, id string) (model.Competition, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, title, mode, text, jumble, duration_ms, start_at, stopped, created_at
		 FROM competitions WHERE id = ?`, id)
	c, err := scanCompetition(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Competition{}, ErrNotFound
	}
	return c, err
}

// ListCompetitions returns every competition, oldest first.
func (s *Store) ListCompetitions(ctx context.Context) ([]model.Competition, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, mode, text, jumble, duration_ms, start_at, stopped, created_at
		 FROM competitions ORDER BY created_at ASC, id ASC`)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var result []model.Competition
	for rows.Next() {
		c, err := scanCompetition(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// UpdateSchedule changes the start time and the stopped flag.
func (s *Store) UpdateSchedule(ctx context.Context, id string, startAt time.Time, stopped bool) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE competitions SET start_at = ?, stopped = ? WHERE id = ?`,
		startAt.Format(time.RFC3339Nano), boolInt(stopped), id)
	if err != nil {
		return err
	}
	return expectOne(res)
}

// Restart clears all results and reschedules the competition in one transaction.
func (s *Store) Restart(ctx context.Context, id string, startAt time.Time) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()

	res, err := tx.ExecContext(ctx,
		`UPDATE competitions SET start_at = ?, stopped = 0 WHERE id = ?`,
		startAt.Format(time.RFC3339Nano), id)
	if err != nil {
		return err
	}
	if err = expectOne(res); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM results WHERE competition_id = ?`, id); err != nil {
		return err
	}
	return tx.Commit()
}

// UpsertResult stores a participant's latest submission. A submission with
// no keystrokes never replaces an existing result.
func (s *Store) UpsertResult(ctx context.Context, competitionID string, r model.Result) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO results (competition_id, participant_id, participant_name, wpm, accuracy, time_taken,
			total_keystrokes, correct_keystrokes, repeat_count, submitted_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(competition_id, participant_id) DO UPDATE SET
			participant_name = excluded.participant_name,
			wpm = excluded.wpm,
			accuracy = excluded.accuracy,
			time_taken = excluded.time_taken,
			total_keystrokes = excluded.total_keystrokes,
			correct_keystrokes = excluded.correct_keystrokes,
			repeat_count = excluded.repeat_count,
			submitted_at = excluded.submitted_at
		 WHERE excluded.total_keystrokes > 0 OR results.total_keystrokes = 0`,
		competitionID,
		r.ParticipantID,
		r.ParticipantName,
		r.Submission.WPM,
		r.Submission.Accuracy,
		r.Submission.TimeTaken,
		r.Submission.TotalKeystrokes,
		r.Submission.CorrectKeystrokes,
		r.Submission.RepeatCount,
		r.SubmittedAt.Format(time.RFC3339Nano),
	)
	return err
}

// ListResults returns a competition's results in first-arrival order.
func (s *Store) ListResults(ctx context.Context, competitionID string) ([]model.Result, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT participant_id, participant_name, wpm, accuracy, time_taken,
			total_keystrokes, correct_keystrokes, repeat_count, submitted_at
		 FROM results WHERE competition_id = ? ORDER BY id ASC`, competitionID)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var result []model.Result
	for rows.Next() {
		var r model.Result
		var submittedAt string
		if err := rows.Scan(&r.ParticipantID, &r.ParticipantName, &r.Submission.WPM, &r.Submission.Accuracy,
			&r.Submission.TimeTaken, &r.Submission.TotalKeystrokes, &r.Submission.CorrectKeystrokes,
			&r.Submission.RepeatCount, &submittedAt); err != nil {
			return nil, err
		}
		parsed, err := time.Parse(time.RFC3339Nano, submittedAt)
		if err != nil {
			return nil, err
		}
		r.SubmittedAt = parsed
		result = append(result, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// ClearResults deletes every result of a competition.
func (s *Store) ClearResults(ctx context.Context, competitionID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM results WHERE competition_id = ?`, competitionID)
	return err
}

type scanner interface {
	Scan(dest ...any) error
}

type jumbleRow struct {
	Scrambled string `json:"scrambled"`
	Answer    string `json:"answer"`
}

func jumbleRows(words []model.JumbleWord) []jumbleRow {
	rows := make([]jumbleRow, 0, len(words))
	for _, w := range words {
		rows = append(rows, jumbleRow{Scrambled: w.Scrambled, Answer: w.Answer})
	}
	return rows
}

func scanCompetition(row scanner) (model.Competition, error) {
	var c model.Competition
	var mode, jumble, startAt, createdAt string
	var durationMs int64
	var stopped int
	if err := row.Scan(&c.ID, &c.Title, &mode, &c.Text, &jumble, &durationMs, &startAt, &stopped, &createdAt); err != nil {
		return model.Competition{}, err
	}
	c.Mode = model.Mode(mode)
	c.Duration = time.Duration(durationMs) * time.Millisecond
	c.Stopped = stopped != 0

	var words []jumbleRow
	if err := json.Unmarshal([]byte(jumble), &words); err != nil {
		return model.Competition{}, fmt.Errorf("failed to decode jumble words: %w", err)
	}
	for _, w := range words {
		c.Jumble = append(c.Jumble, model.JumbleWord{Scrambled: w.Scrambled, Answer: w.Answer})
	}

	var err error
	if c.StartAt, err = time.Parse(time.RFC3339Nano, startAt); err != nil {
		return model.Competition{}, err
	}
	if c.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return model.Competition{}, err
	}
	return c, nil
}

func expectOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
