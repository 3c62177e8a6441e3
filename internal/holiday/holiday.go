package holiday

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/username/holiday-console/pkg/dateutil"
)

// ReasonType classifies why a date is a holiday
type ReasonType string

const (
	ReasonNational ReasonType = "NATIONAL"
	ReasonWeekend  ReasonType = "WEEKEND"
	ReasonFestival ReasonType = "FESTIVAL"
	ReasonBundh    ReasonType = "BUNDH"
	ReasonSpecial  ReasonType = "SPECIAL"
	ReasonOther    ReasonType = "OTHER"
)

// ReasonTypes lists every reason type in display order
var ReasonTypes = []ReasonType{
	ReasonNational,
	ReasonWeekend,
	ReasonFestival,
	ReasonBundh,
	ReasonSpecial,
	ReasonOther,
}

var (
	ErrInvalidReasonType = errors.New("invalid reason type")
	ErrEmptyReasonText   = errors.New("reason text is required")
	ErrInvalidDate       = errors.New("invalid date")
	ErrEmptyBranch       = errors.New("branch id is required")
	ErrNotFound          = errors.New("holiday not found")
)

// Valid reports whether r is one of the enumerated reason types
func (r ReasonType) Valid() bool {
	for _, rt := range ReasonTypes {
		if r == rt {
			return true
		}
	}
	return false
}

// String returns string representation
func (r ReasonType) String() string {
	return string(r)
}

// ParseReasonType accepts any letter case ("national", "Bundh")
func ParseReasonType(s string) (ReasonType, error) {
	rt := ReasonType(strings.ToUpper(strings.TrimSpace(s)))
	if !rt.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidReasonType, s)
	}
	return rt, nil
}

// Record is a persisted holiday for one branch and date
type Record struct {
	ID         string
	BranchID   string
	Date       string // YYYY-MM-DD
	ReasonType ReasonType
	ReasonText string
}

// Validate checks the fields every stored record must carry
func (r Record) Validate() error {
	if !dateutil.IsValidDate(r.Date) {
		return fmt.Errorf("%w: %q", ErrInvalidDate, r.Date)
	}
	return ValidateReason(r.ReasonType, r.ReasonText)
}

// ValidateReason checks a reason pair before it is sent to the store
func ValidateReason(reasonType ReasonType, reasonText string) error {
	if !reasonType.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidReasonType, reasonType)
	}
	if strings.TrimSpace(reasonText) == "" {
		return ErrEmptyReasonText
	}
	return nil
}

// CreateRequest creates one holiday per date, all with the same reason
type CreateRequest struct {
	BranchID   string
	Dates      []string
	ReasonType ReasonType
	ReasonText string
}

// Store is the Holiday Persistence API as seen by the core
type Store interface {
	ListHolidays(ctx context.Context, branchID string, year int) ([]Record, error)
	CreateHolidays(ctx context.Context, req CreateRequest) ([]Record, error)
	UpdateHoliday(ctx context.Context, id string, reasonType ReasonType, reasonText string) (*Record, error)
	DeleteHoliday(ctx context.Context, id string) error
	DeleteHolidays(ctx context.Context, branchID string, year int, dates []string) (int, error)
}
