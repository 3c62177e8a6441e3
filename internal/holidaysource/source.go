package holidaysource

import (
	"context"

	"github.com/username/holiday-console/internal/holiday"
)

// Suggestion is a holiday proposed for import, not yet persisted
type Suggestion struct {
	Date       string // YYYY-MM-DD
	ReasonType holiday.ReasonType
	ReasonText string
}

// Source provides holiday suggestions for a year
type Source interface {
	// Holidays returns the suggestions dated in year, ordered by date
	Holidays(ctx context.Context, year int) ([]Suggestion, error)
}
