package orchestrator

import (
	"context"
	"fmt"

	"github.com/username/holiday-console/internal/holiday"
	"github.com/username/holiday-console/internal/holidaysource"
	"github.com/username/holiday-console/pkg/dateutil"
	"go.uber.org/zap"
)

// MarkWeekday opens a bulk editor for every date of the session year falling
// on weekday and saves it with the given reason
func (o *Orchestrator) MarkWeekday(ctx context.Context, weekday int, reasonType holiday.ReasonType, reasonText string) error {
	sel := o.engine.SelectByWeekday(o.Session().Year, weekday, "")
	if err := o.OpenBulkEditor(sel); err != nil {
		return err
	}
	return o.ConfirmSave(ctx, reasonType, reasonText)
}

// ClearWeekendHolidays removes the Saturdays and Sundays of the session year
// that are currently holidays
func (o *Orchestrator) ClearWeekendHolidays(ctx context.Context) error {
	if err := o.guard(); err != nil {
		return err
	}
	dates := o.engine.SelectExistingWeekendHolidays(o.Session().Year)
	return o.ConfirmBulkClear(ctx, dates, "weekend holidays")
}

// ClearAllHolidays removes every holiday held by the registry
func (o *Orchestrator) ClearAllHolidays(ctx context.Context) error {
	if err := o.guard(); err != nil {
		return err
	}
	return o.ConfirmBulkClear(ctx, o.engine.SelectAllExistingHolidays(), "holidays")
}

func (o *Orchestrator) guard() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if err := o.requireBranch(); err != nil {
		return err
	}
	return o.requireIdle()
}

type reasonKey struct {
	reasonType holiday.ReasonType
	reasonText string
}

// ImportHolidays creates the suggestions of the session year that are not
// holidays yet. Suggestions sharing a reason go out in one create call.
// The registry is reloaded once at the end, even after a failed group.
// Returns the number of dates created.
func (o *Orchestrator) ImportHolidays(ctx context.Context, suggestions []holidaysource.Suggestion) (int, error) {
	if err := o.guard(); err != nil {
		return 0, err
	}
	sess := o.Session()

	var (
		order  []reasonKey
		groups = make(map[reasonKey][]string)
		seen   = make(map[string]bool)
	)

	for _, s := range suggestions {
		if dateutil.YearOf(s.Date) != sess.Year || seen[s.Date] {
			continue
		}
		if _, exists := o.registry.Lookup(s.Date); exists {
			continue
		}
		if err := holiday.ValidateReason(s.ReasonType, s.ReasonText); err != nil {
			o.logger.Warn("Skipping invalid suggestion",
				zap.String("date", s.Date),
				zap.Error(err))
			continue
		}
		seen[s.Date] = true

		key := reasonKey{s.ReasonType, s.ReasonText}
		if _, ok := groups[key]; !ok {
			order = append(order, key)
		}
		groups[key] = append(groups[key], s.Date)
	}

	if len(seen) == 0 {
		o.notifier.Info("No new holidays to import")
		return 0, ErrEmptySelection
	}

	ok, err := o.confirmer.Confirm(fmt.Sprintf("Import %d holidays for year %d?", len(seen), sess.Year))
	if err != nil {
		return 0, fmt.Errorf("failed to confirm: %w", err)
	}
	if !ok {
		o.notifier.Info("Nothing was imported")
		return 0, ErrCancelled
	}

	if err := o.beginSubmit(); err != nil {
		return 0, err
	}

	created := 0
	var createErr error
	for _, key := range order {
		dates := groups[key]
		_, err := o.store.CreateHolidays(ctx, holiday.CreateRequest{
			BranchID:   sess.BranchID,
			Dates:      dates,
			ReasonType: key.reasonType,
			ReasonText: key.reasonText,
		})
		if err != nil {
			createErr = fmt.Errorf("failed to import %q: %w", key.reasonText, err)
			o.logger.Error("Failed to import holidays",
				zap.String("reason", key.reasonText),
				zap.Strings("dates", dates),
				zap.Error(err))
			break
		}
		created += len(dates)
	}

	o.setState(StateIdle)

	if createErr != nil {
		o.notifier.Error(fmt.Sprintf("Import stopped after %d holidays", created))
	} else {
		o.notifier.Success(fmt.Sprintf("Imported %d holidays", created))
	}

	if err := o.Reload(ctx); err != nil && createErr == nil {
		return created, fmt.Errorf("failed to reload after import: %w", err)
	}

	return created, createErr
}
