// Package registry keeps the local view of which dates are holidays for the
// selected (branch, year). The view is rebuilt from the store on every load
// and never patched in place, so it only ever reflects the last fetch.
package registry

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/username/holiday-console/internal/holiday"
	"github.com/username/holiday-console/internal/notify"
	"go.uber.org/zap"
)

// Scope identifies the selection the registry was loaded for
type Scope struct {
	BranchID string
	Year     int
}

// Registry maps YYYY-MM-DD to the holiday record of the current scope
type Registry struct {
	store    holiday.Store
	notifier notify.Notifier
	logger   *zap.Logger

	mu      sync.RWMutex
	scope   Scope
	records map[string]holiday.Record
}

// New creates an empty registry
func New(store holiday.Store, notifier notify.Notifier, logger *zap.Logger) *Registry {
	return &Registry{
		store:    store,
		notifier: notifier,
		logger:   logger,
		records:  make(map[string]holiday.Record),
	}
}

// Load replaces the registry with the store's holidays for branchID and year.
// An empty branchID ("all branches") clears the registry without a fetch.
// On a failed fetch the registry is left empty.
func (r *Registry) Load(ctx context.Context, branchID string, year int) error {
	scope := Scope{BranchID: branchID, Year: year}

	if branchID == "" {
		r.replace(scope, nil)
		r.logger.Debug("Registry cleared, no branch selected", zap.Int("year", year))
		return nil
	}

	records, err := r.store.ListHolidays(ctx, branchID, year)
	if err != nil {
		r.replace(scope, nil)
		r.notifier.Error("Failed to load holidays")
		r.logger.Error("Failed to load holidays",
			zap.String("branch_id", branchID),
			zap.Int("year", year),
			zap.Error(err))
		return fmt.Errorf("failed to load holidays: %w", err)
	}

	r.replace(scope, records)

	r.logger.Info("Registry loaded",
		zap.String("branch_id", branchID),
		zap.Int("year", year),
		zap.Int("holidays", len(records)))

	return nil
}

func (r *Registry) replace(scope Scope, records []holiday.Record) {
	fresh := make(map[string]holiday.Record, len(records))
	for _, rec := range records {
		fresh[rec.Date] = rec
	}

	r.mu.Lock()
	r.scope = scope
	r.records = fresh
	r.mu.Unlock()
}

// Lookup returns the holiday on date, if any
func (r *Registry) Lookup(date string) (holiday.Record, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.records[date]
	return rec, ok
}

// Scope returns the (branch, year) of the last load
func (r *Registry) Scope() Scope {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.scope
}

// Len returns the number of holidays held
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.records)
}

// Dates returns every holiday date in ascending order
func (r *Registry) Dates() []string {
	r.mu.RLock()
	dates := make([]string, 0, len(r.records))
	for date := range r.records {
		dates = append(dates, date)
	}
	r.mu.RUnlock()

	sort.Strings(dates)
	return dates
}

// Snapshot returns the held records ordered by date
func (r *Registry) Snapshot() []holiday.Record {
	dates := r.Dates()

	r.mu.RLock()
	defer r.mu.RUnlock()

	records := make([]holiday.Record, 0, len(dates))
	for _, date := range dates {
		if rec, ok := r.records[date]; ok {
			records = append(records, rec)
		}
	}
	return records
}
