// Package sqlite stores branch holidays in SQLite. It backs the reference
// Holiday Persistence API served by `holiday-console serve`.
//
// A (branch_id, date) pair holds at most one holiday; creating an existing
// pair replaces its reason.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/username/holiday-console/internal/holiday"
	"github.com/username/holiday-console/pkg/dateutil"
	"go.uber.org/zap"
)

// Store implements holiday.Store on SQLite
type Store struct {
	db     *sql.DB
	mu     sync.RWMutex
	logger *zap.Logger
}

var _ holiday.Store = (*Store)(nil)

// New opens (and migrates) the database at dbPath.
// Use ":memory:" for an in-memory database.
func New(dbPath string, logger *zap.Logger) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// every connection to ":memory:" is a separate database
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	store := &Store{db: db, logger: logger}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS holidays (
		id TEXT PRIMARY KEY,
		branch_id TEXT NOT NULL,
		date TEXT NOT NULL,
		reason_type TEXT NOT NULL,
		reason_text TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE UNIQUE INDEX IF NOT EXISTS idx_holidays_branch_date
		ON holidays(branch_id, date);
	`

	_, err := s.db.Exec(schema)
	return err
}

func yearBounds(year int) (string, string) {
	return fmt.Sprintf("%04d-01-01", year), fmt.Sprintf("%04d-12-31", year)
}

// ListHolidays returns the holidays of branchID dated in year, ascending
func (s *Store) ListHolidays(ctx context.Context, branchID string, year int) ([]holiday.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	from, to := yearBounds(year)
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, branch_id, date, reason_type, reason_text
		FROM holidays
		WHERE branch_id = ? AND date BETWEEN ? AND ?
		ORDER BY date ASC
	`, branchID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query holidays: %w", err)
	}
	defer rows.Close()

	records := make([]holiday.Record, 0)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read holidays: %w", err)
	}

	return records, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (holiday.Record, error) {
	var (
		rec        holiday.Record
		reasonType string
	)
	if err := row.Scan(&rec.ID, &rec.BranchID, &rec.Date, &reasonType, &rec.ReasonText); err != nil {
		return holiday.Record{}, fmt.Errorf("failed to scan holiday: %w", err)
	}
	rec.ReasonType = holiday.ReasonType(reasonType)
	return rec, nil
}

// CreateHolidays upserts one holiday per date in a single transaction
func (s *Store) CreateHolidays(ctx context.Context, req holiday.CreateRequest) ([]holiday.Record, error) {
	if strings.TrimSpace(req.BranchID) == "" {
		return nil, holiday.ErrEmptyBranch
	}
	if err := holiday.ValidateReason(req.ReasonType, req.ReasonText); err != nil {
		return nil, err
	}
	if len(req.Dates) == 0 {
		return nil, fmt.Errorf("%w: no dates given", holiday.ErrInvalidDate)
	}
	for _, date := range req.Dates {
		if !dateutil.IsValidDate(date) {
			return nil, fmt.Errorf("%w: %q", holiday.ErrInvalidDate, date)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC().Format(time.RFC3339)
	records := make([]holiday.Record, 0, len(req.Dates))

	for _, date := range req.Dates {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO holidays (id, branch_id, date, reason_type, reason_text, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(branch_id, date) DO UPDATE SET
				reason_type = excluded.reason_type,
				reason_text = excluded.reason_text,
				updated_at = excluded.updated_at
		`, uuid.NewString(), req.BranchID, date, req.ReasonType.String(), req.ReasonText, now, now)
		if err != nil {
			return nil, fmt.Errorf("failed to save holiday %s: %w", date, err)
		}

		rec, err := scanRecord(tx.QueryRowContext(ctx, `
			SELECT id, branch_id, date, reason_type, reason_text
			FROM holidays WHERE branch_id = ? AND date = ?
		`, req.BranchID, date))
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit holidays: %w", err)
	}

	s.logger.Debug("Holidays stored",
		zap.String("branch_id", req.BranchID),
		zap.Int("dates", len(req.Dates)))

	return records, nil
}

// UpdateHoliday changes the reason of the holiday with id
func (s *Store) UpdateHoliday(ctx context.Context, id string, reasonType holiday.ReasonType, reasonText string) (*holiday.Record, error) {
	if err := holiday.ValidateReason(reasonType, reasonText); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `
		UPDATE holidays SET reason_type = ?, reason_text = ?, updated_at = ?
		WHERE id = ?
	`, reasonType.String(), reasonText, time.Now().UTC().Format(time.RFC3339), id)
	if err != nil {
		return nil, fmt.Errorf("failed to update holiday: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, holiday.ErrNotFound
	}

	rec, err := scanRecord(s.db.QueryRowContext(ctx, `
		SELECT id, branch_id, date, reason_type, reason_text
		FROM holidays WHERE id = ?
	`, id))
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// DeleteHoliday deletes a holiday by ID
func (s *Store) DeleteHoliday(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM holidays WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete holiday: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return holiday.ErrNotFound
	}
	return nil
}

// DeleteHolidays deletes the given dates of branchID. Dates outside year
// are ignored. Returns how many holidays were removed.
func (s *Store) DeleteHolidays(ctx context.Context, branchID string, year int, dates []string) (int, error) {
	if strings.TrimSpace(branchID) == "" {
		return 0, holiday.ErrEmptyBranch
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	deleted := 0
	for _, date := range dates {
		if dateutil.YearOf(date) != year {
			continue
		}
		res, err := tx.ExecContext(ctx, "DELETE FROM holidays WHERE branch_id = ? AND date = ?", branchID, date)
		if err != nil {
			return 0, fmt.Errorf("failed to delete holiday %s: %w", date, err)
		}
		n, _ := res.RowsAffected()
		deleted += int(n)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit deletion: %w", err)
	}

	s.logger.Debug("Holidays removed",
		zap.String("branch_id", branchID),
		zap.Int("year", year),
		zap.Int("deleted", deleted))

	return deleted, nil
}
