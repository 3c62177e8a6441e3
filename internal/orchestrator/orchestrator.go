// Package orchestrator turns confirmed single-date and bulk holiday actions
// into store calls. Every successful mutation is followed by a full registry
// reload; the local view is never patched.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/username/holiday-console/internal/holiday"
	"github.com/username/holiday-console/internal/notify"
	"github.com/username/holiday-console/internal/registry"
	"github.com/username/holiday-console/internal/selection"
	"github.com/username/holiday-console/internal/session"
	"github.com/username/holiday-console/pkg/dateutil"
	"go.uber.org/zap"
)

var (
	ErrNoBranch       = errors.New("no branch selected")
	ErrEmptySelection = errors.New("selection is empty")
	ErrMissingReason  = errors.New("reason type and reason text are required")
	ErrNoRecord       = errors.New("date has no holiday to remove")
	ErrNotEditing     = errors.New("editor is not open")
	ErrBusy           = errors.New("a request is already in flight")
	ErrEditorOpen     = errors.New("an editor is open, save or cancel it first")
	ErrOutsideYear    = errors.New("date is outside the selected year")
	ErrCancelled      = errors.New("cancelled by user")
)

// State of the apply/remove state machine
type State int

const (
	StateIdle State = iota
	StateConfirming
	StateSubmitting
)

// String returns string representation
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConfirming:
		return "confirming"
	case StateSubmitting:
		return "submitting"
	default:
		return "unknown"
	}
}

// Mode tells whether the editor targets one date or a selection
type Mode int

const (
	ModeSingle Mode = iota + 1
	ModeBulk
)

// Editor is the open confirmation form
type Editor struct {
	Mode      Mode
	Date      string              // single mode
	Record    *holiday.Record     // single mode, nil when the date is not a holiday
	Selection selection.Selection // bulk mode

	// Draft keeps what the user typed so a failed save loses nothing
	ReasonType holiday.ReasonType
	ReasonText string
}

// Confirmer asks the user an explicit yes/no question
type Confirmer interface {
	Confirm(message string) (bool, error)
}

// Orchestrator is the apply/remove state machine for one session
type Orchestrator struct {
	store     holiday.Store
	registry  *registry.Registry
	engine    *selection.Engine
	notifier  notify.Notifier
	confirmer Confirmer
	logger    *zap.Logger

	mu      sync.Mutex
	session session.Session
	state   State
	editor  *Editor
}

// New creates an orchestrator for sess
func New(
	sess session.Session,
	store holiday.Store,
	reg *registry.Registry,
	engine *selection.Engine,
	notifier notify.Notifier,
	confirmer Confirmer,
	logger *zap.Logger,
) *Orchestrator {
	return &Orchestrator{
		store:     store,
		registry:  reg,
		engine:    engine,
		notifier:  notifier,
		confirmer: confirmer,
		logger:    logger,
		session:   sess,
	}
}

// Session returns the current branch/year selection
func (o *Orchestrator) Session() session.Session {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.session
}

// State returns the current state
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Editor returns a copy of the open editor, or nil when idle
func (o *Orchestrator) Editor() *Editor {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.editor == nil {
		return nil
	}
	ed := *o.editor
	return &ed
}

// Registry exposes the read side of the holiday registry
func (o *Orchestrator) Registry() *registry.Registry {
	return o.registry
}

// Engine exposes the selection engine bound to the registry
func (o *Orchestrator) Engine() *selection.Engine {
	return o.engine
}

// Reload rebuilds the registry for the current session
func (o *Orchestrator) Reload(ctx context.Context) error {
	sess := o.Session()
	return o.registry.Load(ctx, sess.BranchID, sess.Year)
}

// SelectBranch switches branch and reloads. An empty id selects all branches,
// which clears the registry.
func (o *Orchestrator) SelectBranch(ctx context.Context, branchID string) error {
	o.mu.Lock()
	o.session.BranchID = branchID
	o.state = StateIdle
	o.editor = nil
	o.mu.Unlock()

	return o.Reload(ctx)
}

// SelectYear switches year and reloads
func (o *Orchestrator) SelectYear(ctx context.Context, year int) error {
	o.mu.Lock()
	o.session.Year = year
	o.state = StateIdle
	o.editor = nil
	o.mu.Unlock()

	return o.Reload(ctx)
}

// Cancel closes the editor without saving
func (o *Orchestrator) Cancel() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.state == StateSubmitting {
		return
	}
	o.state = StateIdle
	o.editor = nil
}

// requireBranch is the guard every editor entry point runs first.
// Callers must hold o.mu.
func (o *Orchestrator) requireBranch() error {
	if !o.session.HasBranch() {
		o.notifier.Info("Please select a branch first")
		return ErrNoBranch
	}
	return nil
}

// requireIdle rejects actions that would drop an open editor or overlap a
// request in flight. Callers must hold o.mu.
func (o *Orchestrator) requireIdle() error {
	switch o.state {
	case StateSubmitting:
		return ErrBusy
	case StateConfirming:
		return ErrEditorOpen
	}
	return nil
}

// OpenSingleDateEditor opens the editor for date, pre-filled when the date
// is already a holiday
func (o *Orchestrator) OpenSingleDateEditor(date string) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if err := o.requireBranch(); err != nil {
		return err
	}
	if o.state == StateSubmitting {
		return ErrBusy
	}
	if !dateutil.IsValidDate(date) {
		return fmt.Errorf("%w: %q", holiday.ErrInvalidDate, date)
	}
	// The registry only holds the session year
	if dateutil.YearOf(date) != o.session.Year {
		o.notifier.Info(fmt.Sprintf("%s is outside year %d, switch the year first", date, o.session.Year))
		return fmt.Errorf("%w: %s not in %d", ErrOutsideYear, date, o.session.Year)
	}

	ed := &Editor{Mode: ModeSingle, Date: date}
	if rec, ok := o.registry.Lookup(date); ok {
		ed.Record = &rec
		ed.ReasonType = rec.ReasonType
		ed.ReasonText = rec.ReasonText
	}

	o.editor = ed
	o.state = StateConfirming

	o.logger.Debug("Single date editor opened",
		zap.String("date", date),
		zap.Bool("existing", ed.Record != nil))

	return nil
}

// OpenBulkEditor opens the editor for a selection. Every date receives
// the same reason.
func (o *Orchestrator) OpenBulkEditor(sel selection.Selection) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if err := o.requireBranch(); err != nil {
		return err
	}
	if o.state == StateSubmitting {
		return ErrBusy
	}
	if sel.Empty() {
		o.notifier.Info("No dates to update")
		return ErrEmptySelection
	}

	o.editor = &Editor{Mode: ModeBulk, Selection: sel}
	o.state = StateConfirming

	o.logger.Debug("Bulk editor opened",
		zap.String("label", sel.Label),
		zap.Int("dates", len(sel.Dates)))

	return nil
}

// ConfirmSave submits the open editor. Bulk mode creates every selected date
// in one call; single mode updates the existing record or creates the date.
// On failure the editor stays open with the draft kept.
func (o *Orchestrator) ConfirmSave(ctx context.Context, reasonType holiday.ReasonType, reasonText string) error {
	o.mu.Lock()
	if o.state != StateConfirming || o.editor == nil {
		o.mu.Unlock()
		return ErrNotEditing
	}

	o.editor.ReasonType = reasonType
	o.editor.ReasonText = reasonText

	if reasonType == "" || strings.TrimSpace(reasonText) == "" {
		o.mu.Unlock()
		return ErrMissingReason
	}
	if err := holiday.ValidateReason(reasonType, reasonText); err != nil {
		o.mu.Unlock()
		return err
	}

	ed := *o.editor
	sess := o.session
	o.state = StateSubmitting
	o.mu.Unlock()

	var (
		err     error
		message string
	)

	switch {
	case ed.Mode == ModeBulk:
		_, err = o.store.CreateHolidays(ctx, holiday.CreateRequest{
			BranchID:   sess.BranchID,
			Dates:      ed.Selection.Dates,
			ReasonType: reasonType,
			ReasonText: reasonText,
		})
		message = fmt.Sprintf("Holiday applied to %d dates", len(ed.Selection.Dates))
	case ed.Record != nil:
		_, err = o.store.UpdateHoliday(ctx, ed.Record.ID, reasonType, reasonText)
		message = "Holiday updated"
	default:
		_, err = o.store.CreateHolidays(ctx, holiday.CreateRequest{
			BranchID:   sess.BranchID,
			Dates:      []string{ed.Date},
			ReasonType: reasonType,
			ReasonText: reasonText,
		})
		message = "Holiday added"
	}

	if err != nil {
		o.backToEditor()
		o.notifier.Error("Failed to save holiday")
		o.logger.Error("Failed to save holiday",
			zap.String("branch_id", sess.BranchID),
			zap.String("date", ed.Date),
			zap.String("label", ed.Selection.Label),
			zap.Error(err))
		return fmt.Errorf("failed to save holiday: %w", err)
	}

	return o.finish(ctx, message)
}

// ConfirmRemove deletes the holiday of the open single-date editor
func (o *Orchestrator) ConfirmRemove(ctx context.Context) error {
	o.mu.Lock()
	if o.state != StateConfirming || o.editor == nil {
		o.mu.Unlock()
		return ErrNotEditing
	}
	if o.editor.Mode != ModeSingle || o.editor.Record == nil {
		o.mu.Unlock()
		return ErrNoRecord
	}

	rec := *o.editor.Record
	o.state = StateSubmitting
	o.mu.Unlock()

	if err := o.store.DeleteHoliday(ctx, rec.ID); err != nil {
		o.backToEditor()
		o.notifier.Error("Failed to remove holiday")
		o.logger.Error("Failed to remove holiday",
			zap.String("id", rec.ID),
			zap.String("date", rec.Date),
			zap.Error(err))
		return fmt.Errorf("failed to remove holiday: %w", err)
	}

	return o.finish(ctx, "Holiday removed")
}

// ConfirmBulkClear asks for an explicit confirmation and then removes every
// date in one call. what names the holidays in the prompt, e.g. "weekend holidays".
func (o *Orchestrator) ConfirmBulkClear(ctx context.Context, dates []string, what string) error {
	o.mu.Lock()
	if err := o.requireBranch(); err != nil {
		o.mu.Unlock()
		return err
	}
	if err := o.requireIdle(); err != nil {
		o.mu.Unlock()
		return err
	}
	if len(dates) == 0 {
		o.mu.Unlock()
		o.notifier.Info(fmt.Sprintf("No %s to remove", what))
		return ErrEmptySelection
	}
	sess := o.session
	o.mu.Unlock()

	ok, err := o.confirmer.Confirm(fmt.Sprintf("Remove all %d %s for year %d?", len(dates), what, sess.Year))
	if err != nil {
		return fmt.Errorf("failed to confirm: %w", err)
	}
	if !ok {
		o.notifier.Info("Nothing was removed")
		return ErrCancelled
	}

	if err := o.beginSubmit(); err != nil {
		return err
	}

	deleted, err := o.store.DeleteHolidays(ctx, sess.BranchID, sess.Year, dates)
	if err != nil {
		o.setState(StateIdle)
		o.notifier.Error("Failed to remove holidays")
		o.logger.Error("Failed to remove holidays",
			zap.String("branch_id", sess.BranchID),
			zap.Int("year", sess.Year),
			zap.Int("dates", len(dates)),
			zap.Error(err))
		return fmt.Errorf("failed to remove holidays: %w", err)
	}

	return o.finish(ctx, fmt.Sprintf("Removed %d %s", deleted, what))
}

// beginSubmit moves an idle orchestrator to Submitting. Used by the actions
// that confirm through a prompt instead of the editor.
func (o *Orchestrator) beginSubmit() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if err := o.requireIdle(); err != nil {
		return err
	}
	o.state = StateSubmitting
	return nil
}

func (o *Orchestrator) setState(s State) {
	o.mu.Lock()
	o.state = s
	o.mu.Unlock()
}

func (o *Orchestrator) backToEditor() {
	o.mu.Lock()
	if o.editor != nil {
		o.state = StateConfirming
	} else {
		o.state = StateIdle
	}
	o.mu.Unlock()
}

// finish closes the editor, reports success and resynchronises the registry
func (o *Orchestrator) finish(ctx context.Context, message string) error {
	o.mu.Lock()
	o.state = StateIdle
	o.editor = nil
	o.mu.Unlock()

	o.notifier.Success(message)
	o.logger.Info(message)

	if err := o.Reload(ctx); err != nil {
		return fmt.Errorf("failed to reload after change: %w", err)
	}
	return nil
}
