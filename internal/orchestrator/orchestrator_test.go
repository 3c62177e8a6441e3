package orchestrator

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/holiday-console/internal/holiday"
	"github.com/username/holiday-console/internal/holiday/holidaytest"
	"github.com/username/holiday-console/internal/holidaysource"
	"github.com/username/holiday-console/internal/notify"
	"github.com/username/holiday-console/internal/registry"
	"github.com/username/holiday-console/internal/selection"
	"github.com/username/holiday-console/internal/session"
	"go.uber.org/zap"
)

type scriptedConfirmer struct {
	answer  bool
	err     error
	prompts []string
}

func (c *scriptedConfirmer) Confirm(message string) (bool, error) {
	c.prompts = append(c.prompts, message)
	return c.answer, c.err
}

type fixture struct {
	orch      *Orchestrator
	store     *holidaytest.Store
	notes     *notify.Recorder
	confirmer *scriptedConfirmer
}

func newFixture(t *testing.T, branchID string, seed ...holiday.Record) *fixture {
	t.Helper()

	store := holidaytest.NewStore()
	store.Seed(seed...)
	notes := &notify.Recorder{}
	confirmer := &scriptedConfirmer{answer: true}
	logger := zap.NewNop()

	reg := registry.New(store, notes, logger)
	orch := New(
		session.Session{BranchID: branchID, Year: 2025},
		store, reg, selection.NewEngine(reg), notes, confirmer, logger,
	)
	require.NoError(t, orch.Reload(context.Background()))

	return &fixture{orch: orch, store: store, notes: notes, confirmer: confirmer}
}

func lastNotice(t *testing.T, r *notify.Recorder) notify.Notification {
	t.Helper()
	n, ok := r.Last()
	require.True(t, ok, "expected a notification")
	return n
}

func TestEditors_RequireBranch(t *testing.T) {
	f := newFixture(t, "")

	err := f.orch.OpenSingleDateEditor("2025-08-15")
	assert.ErrorIs(t, err, ErrNoBranch)
	assert.Equal(t, StateIdle, f.orch.State())
	assert.Nil(t, f.orch.Editor())
	assert.Equal(t, notify.LevelInfo, lastNotice(t, f.notes).Level)

	err = f.orch.OpenBulkEditor(f.orch.Engine().SelectByWeekday(2025, 6, ""))
	assert.ErrorIs(t, err, ErrNoBranch)
	assert.Equal(t, StateIdle, f.orch.State())

	assert.Equal(t, 2, f.notes.Count(notify.LevelInfo))
	assert.Equal(t, 0, f.notes.Count(notify.LevelError))
	assert.Empty(t, f.store.Calls())
}

func TestConfirmSave_CreateSingleRoundTrip(t *testing.T) {
	f := newFixture(t, "1")
	ctx := context.Background()

	require.NoError(t, f.orch.OpenSingleDateEditor("2025-08-15"))
	assert.Equal(t, StateConfirming, f.orch.State())
	ed := f.orch.Editor()
	require.NotNil(t, ed)
	assert.Equal(t, ModeSingle, ed.Mode)
	assert.Nil(t, ed.Record)

	require.NoError(t, f.orch.ConfirmSave(ctx, holiday.ReasonNational, "Independence Day"))

	assert.Equal(t, StateIdle, f.orch.State())
	assert.Nil(t, f.orch.Editor())
	assert.Equal(t, notify.LevelSuccess, lastNotice(t, f.notes).Level)
	assert.Equal(t, 2, f.store.CallCount("list"))

	rec, ok := f.orch.Registry().Lookup("2025-08-15")
	require.True(t, ok)
	assert.Equal(t, "2025-08-15", rec.Date)
	assert.Equal(t, holiday.ReasonNational, rec.ReasonType)
	assert.Equal(t, "Independence Day", rec.ReasonText)
	assert.NotEmpty(t, rec.ID)
}

func TestConfirmSave_UpdatesExistingRecord(t *testing.T) {
	f := newFixture(t, "1", holiday.Record{
		ID: "h1", BranchID: "1", Date: "2025-10-20",
		ReasonType: holiday.ReasonOther, ReasonText: "TBD",
	})
	ctx := context.Background()

	require.NoError(t, f.orch.OpenSingleDateEditor("2025-10-20"))
	ed := f.orch.Editor()
	require.NotNil(t, ed.Record)
	assert.Equal(t, holiday.ReasonOther, ed.ReasonType)
	assert.Equal(t, "TBD", ed.ReasonText)

	require.NoError(t, f.orch.ConfirmSave(ctx, holiday.ReasonFestival, "Diwali"))

	assert.Equal(t, 1, f.store.CallCount("update"))
	assert.Equal(t, 0, f.store.CallCount("create"))
	rec, ok := f.orch.Registry().Lookup("2025-10-20")
	require.True(t, ok)
	assert.Equal(t, "h1", rec.ID)
	assert.Equal(t, "Diwali", rec.ReasonText)
}

func TestConfirmSave_BulkIsOneCall(t *testing.T) {
	f := newFixture(t, "1")

	require.NoError(t, f.orch.MarkWeekday(context.Background(), 6, holiday.ReasonWeekend, "Saturday"))

	var creates []holidaytest.Call
	for _, c := range f.store.Calls() {
		if c.Op == "create" {
			creates = append(creates, c)
		}
	}
	require.Len(t, creates, 1)
	assert.Len(t, creates[0].Dates, 52)
	assert.Equal(t, "1", creates[0].BranchID)
	assert.Equal(t, 52, f.orch.Registry().Len())
}

func TestOpenBulkEditor_EmptySelection(t *testing.T) {
	f := newFixture(t, "1")

	err := f.orch.OpenBulkEditor(selection.Selection{Label: "nothing"})
	assert.ErrorIs(t, err, ErrEmptySelection)
	assert.Equal(t, StateIdle, f.orch.State())
	assert.Equal(t, notify.LevelInfo, lastNotice(t, f.notes).Level)
}

func TestConfirmSave_MissingReason(t *testing.T) {
	tests := []struct {
		name       string
		reasonType holiday.ReasonType
		reasonText string
		wantErr    error
	}{
		{"no type", "", "Independence Day", ErrMissingReason},
		{"no text", holiday.ReasonNational, "", ErrMissingReason},
		{"blank text", holiday.ReasonNational, "   ", ErrMissingReason},
		{"unknown type", holiday.ReasonType("HOLI"), "Holi", holiday.ErrInvalidReasonType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, "1")
			require.NoError(t, f.orch.OpenSingleDateEditor("2025-03-14"))

			err := f.orch.ConfirmSave(context.Background(), tt.reasonType, tt.reasonText)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, StateConfirming, f.orch.State())
			assert.Zero(t, f.store.MutationCount())
		})
	}
}

func TestConfirmSave_FailureKeepsDraft(t *testing.T) {
	f := newFixture(t, "1")
	storeErr := errors.New("503 service unavailable")
	f.store.Err["create"] = storeErr

	require.NoError(t, f.orch.OpenSingleDateEditor("2025-08-15"))
	err := f.orch.ConfirmSave(context.Background(), holiday.ReasonNational, "Independence Day")

	require.Error(t, err)
	assert.ErrorIs(t, err, storeErr)
	assert.Equal(t, StateConfirming, f.orch.State())
	ed := f.orch.Editor()
	require.NotNil(t, ed)
	assert.Equal(t, "2025-08-15", ed.Date)
	assert.Equal(t, holiday.ReasonNational, ed.ReasonType)
	assert.Equal(t, "Independence Day", ed.ReasonText)
	assert.Equal(t, notify.LevelError, lastNotice(t, f.notes).Level)
	assert.Equal(t, 1, f.store.CallCount("list"), "no reload after a failed save")

	// retry once the store recovers
	delete(f.store.Err, "create")
	require.NoError(t, f.orch.ConfirmSave(context.Background(), ed.ReasonType, ed.ReasonText))
	assert.Equal(t, StateIdle, f.orch.State())
}

func TestOpenSingleDateEditor_OutsideSessionYear(t *testing.T) {
	f := newFixture(t, "1", holiday.Record{
		BranchID: "1", Date: "2026-01-26",
		ReasonType: holiday.ReasonNational, ReasonText: "Republic Day",
	})

	err := f.orch.OpenSingleDateEditor("2026-01-26")
	assert.ErrorIs(t, err, ErrOutsideYear)
	assert.Equal(t, StateIdle, f.orch.State())
	assert.Nil(t, f.orch.Editor())
	assert.Equal(t, notify.LevelInfo, lastNotice(t, f.notes).Level)

	assert.ErrorIs(t, f.orch.ConfirmRemove(context.Background()), ErrNotEditing)
	assert.ErrorIs(t, f.orch.ConfirmSave(context.Background(), holiday.ReasonNational, "Republic Day"), ErrNotEditing)
	assert.Zero(t, f.store.MutationCount())
}

func TestConfirmSave_NotEditing(t *testing.T) {
	f := newFixture(t, "1")
	err := f.orch.ConfirmSave(context.Background(), holiday.ReasonNational, "x")
	assert.ErrorIs(t, err, ErrNotEditing)
	assert.ErrorIs(t, f.orch.ConfirmRemove(context.Background()), ErrNotEditing)
}

func TestCancel(t *testing.T) {
	f := newFixture(t, "1")
	require.NoError(t, f.orch.OpenSingleDateEditor("2025-08-15"))

	f.orch.Cancel()
	assert.Equal(t, StateIdle, f.orch.State())
	assert.Nil(t, f.orch.Editor())
}

func TestConfirmRemove(t *testing.T) {
	f := newFixture(t, "1", holiday.Record{
		ID: "h9", BranchID: "1", Date: "2025-08-15",
		ReasonType: holiday.ReasonNational, ReasonText: "Independence Day",
	})
	ctx := context.Background()

	require.NoError(t, f.orch.OpenSingleDateEditor("2025-08-16"))
	assert.ErrorIs(t, f.orch.ConfirmRemove(ctx), ErrNoRecord)

	require.NoError(t, f.orch.OpenSingleDateEditor("2025-08-15"))
	require.NoError(t, f.orch.ConfirmRemove(ctx))

	_, ok := f.orch.Registry().Lookup("2025-08-15")
	assert.False(t, ok)
	assert.Equal(t, StateIdle, f.orch.State())
	assert.Equal(t, []holidaytest.Call{{Op: "delete", ID: "h9"}}, filterMutations(f.store.Calls()))
}

func TestConfirmRemove_FailureStaysOpen(t *testing.T) {
	f := newFixture(t, "1", holiday.Record{
		ID: "h9", BranchID: "1", Date: "2025-08-15",
		ReasonType: holiday.ReasonNational, ReasonText: "Independence Day",
	})
	f.store.Err["delete"] = errors.New("timeout")

	require.NoError(t, f.orch.OpenSingleDateEditor("2025-08-15"))
	require.Error(t, f.orch.ConfirmRemove(context.Background()))

	assert.Equal(t, StateConfirming, f.orch.State())
	_, ok := f.orch.Registry().Lookup("2025-08-15")
	assert.True(t, ok)
}

func TestClearWeekendHolidays_NothingToClear(t *testing.T) {
	f := newFixture(t, "1", holiday.Record{
		BranchID: "1", Date: "2025-08-15",
		ReasonType: holiday.ReasonNational, ReasonText: "Independence Day",
	})

	err := f.orch.ClearWeekendHolidays(context.Background())

	assert.ErrorIs(t, err, ErrEmptySelection)
	assert.Zero(t, f.store.MutationCount())
	assert.Empty(t, f.confirmer.prompts)
	n := lastNotice(t, f.notes)
	assert.Equal(t, notify.LevelInfo, n.Level)
	assert.Equal(t, 0, f.notes.Count(notify.LevelError))
}

func TestClearWeekendHolidays(t *testing.T) {
	f := newFixture(t, "1",
		holiday.Record{BranchID: "1", Date: "2025-01-05", ReasonType: holiday.ReasonWeekend, ReasonText: "Sunday"},
		holiday.Record{BranchID: "1", Date: "2025-01-04", ReasonType: holiday.ReasonWeekend, ReasonText: "Saturday"},
		holiday.Record{BranchID: "1", Date: "2025-08-15", ReasonType: holiday.ReasonNational, ReasonText: "Independence Day"},
	)

	require.NoError(t, f.orch.ClearWeekendHolidays(context.Background()))

	assert.Equal(t, []string{"Remove all 2 weekend holidays for year 2025?"}, f.confirmer.prompts)
	assert.Equal(t, []holidaytest.Call{{
		Op: "bulk-delete", BranchID: "1", Year: 2025,
		Dates: []string{"2025-01-04", "2025-01-05"},
	}}, filterMutations(f.store.Calls()))
	assert.Equal(t, []string{"2025-08-15"}, f.orch.Registry().Dates())
}

func TestClearWeekendHolidays_Declined(t *testing.T) {
	f := newFixture(t, "1",
		holiday.Record{BranchID: "1", Date: "2025-01-04", ReasonType: holiday.ReasonWeekend, ReasonText: "Saturday"},
	)
	f.confirmer.answer = false

	err := f.orch.ClearWeekendHolidays(context.Background())

	assert.ErrorIs(t, err, ErrCancelled)
	assert.Zero(t, f.store.MutationCount())
	assert.Equal(t, 1, f.orch.Registry().Len())
}

func TestClearAllHolidays_FailureKeepsRegistry(t *testing.T) {
	f := newFixture(t, "1",
		holiday.Record{BranchID: "1", Date: "2025-01-04", ReasonType: holiday.ReasonWeekend, ReasonText: "Saturday"},
		holiday.Record{BranchID: "1", Date: "2025-08-15", ReasonType: holiday.ReasonNational, ReasonText: "Independence Day"},
	)
	f.store.Err["bulk-delete"] = errors.New("boom")

	err := f.orch.ClearAllHolidays(context.Background())

	require.Error(t, err)
	assert.Equal(t, StateIdle, f.orch.State())
	assert.Equal(t, 2, f.orch.Registry().Len())
	assert.Equal(t, 1, f.store.CallCount("list"))
	assert.Equal(t, []string{"Remove all 2 holidays for year 2025?"}, f.confirmer.prompts)
}

func TestClearAllHolidays_NoBranch(t *testing.T) {
	f := newFixture(t, "")
	assert.ErrorIs(t, f.orch.ClearAllHolidays(context.Background()), ErrNoBranch)
	assert.Empty(t, f.confirmer.prompts)
}

func TestSelectBranch_Reloads(t *testing.T) {
	f := newFixture(t, "1",
		holiday.Record{BranchID: "1", Date: "2025-01-04", ReasonType: holiday.ReasonWeekend, ReasonText: "Saturday"},
		holiday.Record{BranchID: "2", Date: "2025-08-15", ReasonType: holiday.ReasonNational, ReasonText: "Independence Day"},
	)
	ctx := context.Background()

	require.NoError(t, f.orch.SelectBranch(ctx, "2"))
	assert.Equal(t, []string{"2025-08-15"}, f.orch.Registry().Dates())

	require.NoError(t, f.orch.SelectYear(ctx, 2024))
	assert.Equal(t, 0, f.orch.Registry().Len())
	assert.Equal(t, session.Session{BranchID: "2", Year: 2024}, f.orch.Session())

	require.NoError(t, f.orch.SelectBranch(ctx, ""))
	assert.Equal(t, 0, f.orch.Registry().Len())
}

func TestImportHolidays(t *testing.T) {
	f := newFixture(t, "1", holiday.Record{
		BranchID: "1", Date: "2025-01-26",
		ReasonType: holiday.ReasonNational, ReasonText: "Republic Day",
	})

	suggestions := []holidaysource.Suggestion{
		{Date: "2025-01-26", ReasonType: holiday.ReasonNational, ReasonText: "Republic Day"},
		{Date: "2025-08-15", ReasonType: holiday.ReasonNational, ReasonText: "Independence Day"},
		{Date: "2025-05-01", ReasonType: holiday.ReasonSpecial, ReasonText: "Bank Holiday"},
		{Date: "2025-12-01", ReasonType: holiday.ReasonSpecial, ReasonText: "Bank Holiday"},
		{Date: "2024-12-25", ReasonType: holiday.ReasonFestival, ReasonText: "Christmas"},
		{Date: "2025-08-15", ReasonType: holiday.ReasonNational, ReasonText: "Duplicate"},
	}

	created, err := f.orch.ImportHolidays(context.Background(), suggestions)

	require.NoError(t, err)
	assert.Equal(t, 3, created)
	assert.Equal(t, 2, f.store.CallCount("create"))
	assert.Equal(t, []string{"Import 3 holidays for year 2025?"}, f.confirmer.prompts)
	assert.Equal(t, []string{"2025-01-26", "2025-05-01", "2025-08-15", "2025-12-01"}, f.orch.Registry().Dates())
	assert.Equal(t, notify.LevelSuccess, lastNotice(t, f.notes).Level)
}

func TestImportHolidays_FailureStillReloads(t *testing.T) {
	f := newFixture(t, "1")
	f.store.Err["create"] = errors.New("boom")

	created, err := f.orch.ImportHolidays(context.Background(), []holidaysource.Suggestion{
		{Date: "2025-08-15", ReasonType: holiday.ReasonNational, ReasonText: "Independence Day"},
		{Date: "2025-10-02", ReasonType: holiday.ReasonNational, ReasonText: "Gandhi Jayanti"},
	})

	require.Error(t, err)
	assert.Zero(t, created)
	assert.Equal(t, 1, f.store.CallCount("create"), "stops at the first failed group")
	assert.Equal(t, 2, f.store.CallCount("list"))
	assert.Equal(t, StateIdle, f.orch.State())
	assert.Equal(t, notify.LevelError, lastNotice(t, f.notes).Level)
}

func TestImportHolidays_NothingNew(t *testing.T) {
	f := newFixture(t, "1")

	_, err := f.orch.ImportHolidays(context.Background(), []holidaysource.Suggestion{
		{Date: "2026-01-01", ReasonType: holiday.ReasonNational, ReasonText: "New Year"},
	})

	assert.ErrorIs(t, err, ErrEmptySelection)
	assert.Zero(t, f.store.MutationCount())
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "idle", StateIdle.String())
	assert.Equal(t, "confirming", StateConfirming.String())
	assert.Equal(t, "submitting", StateSubmitting.String())
	assert.Equal(t, "unknown", State(42).String())
}

func filterMutations(calls []holidaytest.Call) []holidaytest.Call {
	var out []holidaytest.Call
	for _, c := range calls {
		if c.Op != "list" {
			out = append(out, c)
		}
	}
	return out
}

// hookStore runs during before every create, while the orchestrator is submitting
type hookStore struct {
	*holidaytest.Store
	during func()
}

func (s *hookStore) CreateHolidays(ctx context.Context, req holiday.CreateRequest) ([]holiday.Record, error) {
	if s.during != nil {
		s.during()
	}
	return s.Store.CreateHolidays(ctx, req)
}

func TestActions_BusyWhileSubmitting(t *testing.T) {
	store := &hookStore{Store: holidaytest.NewStore()}
	store.Seed(holiday.Record{
		BranchID: "1", Date: "2025-01-04",
		ReasonType: holiday.ReasonWeekend, ReasonText: "Saturday",
	})
	notes := &notify.Recorder{}
	confirmer := &scriptedConfirmer{answer: true}
	reg := registry.New(store, notes, zap.NewNop())
	orch := New(
		session.Session{BranchID: "1", Year: 2025},
		store, reg, selection.NewEngine(reg), notes, confirmer, zap.NewNop(),
	)
	ctx := context.Background()
	require.NoError(t, orch.Reload(ctx))

	var errs []error
	store.during = func() {
		assert.Equal(t, StateSubmitting, orch.State())
		errs = append(errs,
			orch.OpenSingleDateEditor("2025-08-16"),
			orch.OpenBulkEditor(orch.Engine().SelectByWeekday(2025, 0, "")),
			orch.ClearAllHolidays(ctx),
			orch.ConfirmBulkClear(ctx, []string{"2025-01-04"}, "holidays"),
		)
		_, err := orch.ImportHolidays(ctx, []holidaysource.Suggestion{
			{Date: "2025-01-26", ReasonType: holiday.ReasonNational, ReasonText: "Republic Day"},
		})
		errs = append(errs, err)
	}

	require.NoError(t, orch.OpenSingleDateEditor("2025-08-15"))
	require.NoError(t, orch.ConfirmSave(ctx, holiday.ReasonNational, "Independence Day"))

	require.Len(t, errs, 5)
	for _, err := range errs {
		assert.ErrorIs(t, err, ErrBusy)
	}
	assert.Empty(t, confirmer.prompts)
	assert.Equal(t, 1, store.CallCount("create"))
	assert.Zero(t, store.CallCount("bulk-delete"))
	assert.Equal(t, StateIdle, orch.State())
}

func TestBulkActions_KeepOpenEditor(t *testing.T) {
	f := newFixture(t, "1", holiday.Record{
		BranchID: "1", Date: "2025-01-04",
		ReasonType: holiday.ReasonWeekend, ReasonText: "Saturday",
	})
	ctx := context.Background()

	require.NoError(t, f.orch.OpenSingleDateEditor("2025-08-15"))

	assert.ErrorIs(t, f.orch.ClearWeekendHolidays(ctx), ErrEditorOpen)
	assert.ErrorIs(t, f.orch.ConfirmBulkClear(ctx, []string{"2025-01-04"}, "holidays"), ErrEditorOpen)
	_, err := f.orch.ImportHolidays(ctx, []holidaysource.Suggestion{
		{Date: "2025-01-26", ReasonType: holiday.ReasonNational, ReasonText: "Republic Day"},
	})
	assert.ErrorIs(t, err, ErrEditorOpen)

	assert.Equal(t, StateConfirming, f.orch.State())
	ed := f.orch.Editor()
	require.NotNil(t, ed)
	assert.Equal(t, "2025-08-15", ed.Date)
	assert.Empty(t, f.confirmer.prompts)
	assert.Zero(t, f.store.MutationCount())

	// once the editor is closed the clear goes through
	f.orch.Cancel()
	require.NoError(t, f.orch.ClearWeekendHolidays(ctx))
	assert.Zero(t, f.orch.Registry().Len())
}
