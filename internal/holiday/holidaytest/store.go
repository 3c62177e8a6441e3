// Package holidaytest provides an in-memory holiday.Store for tests.
package holidaytest

import (
	"context"
	"sort"
	"strconv"
	"sync"

	"github.com/username/holiday-console/internal/holiday"
	"github.com/username/holiday-console/pkg/dateutil"
)

// Call records one store operation
type Call struct {
	Op       string
	BranchID string
	ID       string
	Year     int
	Dates    []string
}

// Store keeps holidays per branch and records every call
type Store struct {
	mu      sync.Mutex
	nextID  int
	records map[string]map[string]holiday.Record // branch -> date -> record
	calls   []Call

	// Err, when set, is returned by the operation named in its key
	// ("list", "create", "update", "delete", "bulk-delete").
	Err map[string]error
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{
		records: make(map[string]map[string]holiday.Record),
		Err:     make(map[string]error),
	}
}

// Seed adds records directly, bypassing call recording
func (s *Store) Seed(records ...holiday.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rec := range records {
		if rec.ID == "" {
			s.nextID++
			rec.ID = strconv.Itoa(s.nextID)
		}
		s.branch(rec.BranchID)[rec.Date] = rec
	}
}

// Calls returns the recorded calls
func (s *Store) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Call(nil), s.calls...)
}

// CallCount returns how many calls of op were recorded
func (s *Store) CallCount(op string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.calls {
		if c.Op == op {
			n++
		}
	}
	return n
}

// MutationCount returns the number of create, update and delete calls
func (s *Store) MutationCount() int {
	return s.CallCount("create") + s.CallCount("update") + s.CallCount("delete") + s.CallCount("bulk-delete")
}

func (s *Store) branch(branchID string) map[string]holiday.Record {
	b, ok := s.records[branchID]
	if !ok {
		b = make(map[string]holiday.Record)
		s.records[branchID] = b
	}
	return b
}

// ListHolidays implements holiday.Store
func (s *Store) ListHolidays(_ context.Context, branchID string, year int) ([]holiday.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, Call{Op: "list", BranchID: branchID, Year: year})
	if err := s.Err["list"]; err != nil {
		return nil, err
	}

	var out []holiday.Record
	for _, rec := range s.records[branchID] {
		if dateutil.YearOf(rec.Date) == year {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out, nil
}

// CreateHolidays implements holiday.Store
func (s *Store) CreateHolidays(_ context.Context, req holiday.CreateRequest) ([]holiday.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, Call{Op: "create", BranchID: req.BranchID, Dates: append([]string(nil), req.Dates...)})
	if err := s.Err["create"]; err != nil {
		return nil, err
	}

	b := s.branch(req.BranchID)
	out := make([]holiday.Record, 0, len(req.Dates))
	for _, date := range req.Dates {
		rec, ok := b[date]
		if !ok {
			s.nextID++
			rec = holiday.Record{ID: strconv.Itoa(s.nextID), BranchID: req.BranchID, Date: date}
		}
		rec.ReasonType = req.ReasonType
		rec.ReasonText = req.ReasonText
		b[date] = rec
		out = append(out, rec)
	}
	return out, nil
}

// UpdateHoliday implements holiday.Store
func (s *Store) UpdateHoliday(_ context.Context, id string, reasonType holiday.ReasonType, reasonText string) (*holiday.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, Call{Op: "update", ID: id})
	if err := s.Err["update"]; err != nil {
		return nil, err
	}

	for _, b := range s.records {
		for date, rec := range b {
			if rec.ID == id {
				rec.ReasonType = reasonType
				rec.ReasonText = reasonText
				b[date] = rec
				return &rec, nil
			}
		}
	}
	return nil, holiday.ErrNotFound
}

// DeleteHoliday implements holiday.Store
func (s *Store) DeleteHoliday(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, Call{Op: "delete", ID: id})
	if err := s.Err["delete"]; err != nil {
		return err
	}

	for _, b := range s.records {
		for date, rec := range b {
			if rec.ID == id {
				delete(b, date)
				return nil
			}
		}
	}
	return holiday.ErrNotFound
}

// DeleteHolidays implements holiday.Store
func (s *Store) DeleteHolidays(_ context.Context, branchID string, year int, dates []string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, Call{Op: "bulk-delete", BranchID: branchID, Year: year, Dates: append([]string(nil), dates...)})
	if err := s.Err["bulk-delete"]; err != nil {
		return 0, err
	}

	b := s.branch(branchID)
	deleted := 0
	for _, date := range dates {
		if dateutil.YearOf(date) != year {
			continue
		}
		if _, ok := b[date]; ok {
			delete(b, date)
			deleted++
		}
	}
	return deleted, nil
}
