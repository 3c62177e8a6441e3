package hrapi

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/username/holiday-console/internal/holiday"
	"github.com/username/holiday-console/pkg/dateutil"
)

// FlexibleID accepts both numeric and string IDs.
// HR backends return ids as 42 or "42" or a uuid; all become strings.
type FlexibleID string

// UnmarshalJSON implements json.Unmarshaler for FlexibleID
func (f *FlexibleID) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*f = ""
		return nil
	}

	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*f = FlexibleID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(b, &n); err == nil {
		if i, err := n.Int64(); err == nil {
			*f = FlexibleID(strconv.FormatInt(i, 10))
			return nil
		}
	}

	return fmt.Errorf("FlexibleID: cannot unmarshal %s", string(b))
}

// MarshalJSON implements json.Marshaler for FlexibleID
func (f FlexibleID) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(f))
}

// String returns string representation
func (f FlexibleID) String() string {
	return string(f)
}

// Envelope is the response shape of the HR API:
// {"success": true, "data": ..., "message": "..."}
type Envelope struct {
	Success *bool           `json:"success,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
	Message string          `json:"message,omitempty"`
}

// HolidayDTO is a holiday as it travels over the wire
type HolidayDTO struct {
	ID         FlexibleID `json:"id,omitempty"`
	BranchID   FlexibleID `json:"branchId,omitempty"`
	Date       string     `json:"date"`
	ReasonType string     `json:"reasonType"`
	ReasonText string     `json:"reasonText"`
}

// CreateHolidaysRequest creates one holiday per date with a shared reason
type CreateHolidaysRequest struct {
	BranchID   string   `json:"branchId"`
	Dates      []string `json:"dates"`
	ReasonType string   `json:"reasonType"`
	ReasonText string   `json:"reasonText"`
}

// UpdateHolidayRequest changes the reason of one holiday
type UpdateHolidayRequest struct {
	ReasonType string `json:"reasonType"`
	ReasonText string `json:"reasonText"`
}

// BulkDeleteRequest removes the listed dates of a branch and year
type BulkDeleteRequest struct {
	BranchID string   `json:"branchId"`
	Year     int      `json:"year"`
	Dates    []string `json:"dates"`
}

// BulkDeleteResponse reports how many holidays were removed
type BulkDeleteResponse struct {
	Deleted int `json:"deleted"`
}

// ToRecord validates the DTO and converts it to a holiday.Record.
// Dates sent as timestamps ("2025-08-15T00:00:00.000Z") keep their date part.
// An empty BranchID falls back to defaultBranch.
func (d HolidayDTO) ToRecord(defaultBranch string) (holiday.Record, error) {
	date := strings.TrimSpace(d.Date)
	if len(date) > len(dateutil.DateLayout) && dateutil.IsValidDate(date[:len(dateutil.DateLayout)]) {
		date = date[:len(dateutil.DateLayout)]
	}

	reasonType, err := holiday.ParseReasonType(d.ReasonType)
	if err != nil {
		return holiday.Record{}, err
	}

	rec := holiday.Record{
		ID:         d.ID.String(),
		BranchID:   d.BranchID.String(),
		Date:       date,
		ReasonType: reasonType,
		ReasonText: d.ReasonText,
	}
	if rec.BranchID == "" {
		rec.BranchID = defaultBranch
	}

	if err := rec.Validate(); err != nil {
		return holiday.Record{}, err
	}
	return rec, nil
}

// FromRecord converts a record to its wire form
func FromRecord(rec holiday.Record) HolidayDTO {
	return HolidayDTO{
		ID:         FlexibleID(rec.ID),
		BranchID:   FlexibleID(rec.BranchID),
		Date:       rec.Date,
		ReasonType: rec.ReasonType.String(),
		ReasonText: rec.ReasonText,
	}
}
