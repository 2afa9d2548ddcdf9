// Package holiday owns the per-campus holiday calendar and the working-day
// rules built on it.
package holiday

import (
	"strings"
	"time"

	id "peopleops/pkg/domain"
	dErrors "peopleops/pkg/domain-errors"
)

// DateLayout is the wire format for calendar dates: day-month-year.
const DateLayout = "02-01-2006"

// Holiday is a single non-working day on a campus calendar.
type Holiday struct {
	ID          id.HolidayID `json:"id"`
	TenantID    string       `json:"tenantId"`
	SchoolID    id.SchoolID  `json:"schoolId,omitzero"`
	Name        string       `json:"name"`
	Date        time.Time    `json:"date"`
	Recurring   bool         `json:"recurring"`
	Description string       `json:"description,omitempty"`
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`
}

// NewHoliday validates and builds a holiday, collecting every violation.
// A holiday without a school applies to every campus in the tenant.
func NewHoliday(holidayID id.HolidayID, tenantID string, schoolID id.SchoolID, name string, date time.Time, recurring bool, description string, now time.Time) (*Holiday, error) {
	var violations []string
	if strings.TrimSpace(name) == "" {
		violations = append(violations, "name is required")
	}
	if date.IsZero() {
		violations = append(violations, "date is required")
	}
	if len(violations) > 0 {
		return nil, dErrors.NewValidation("invalid holiday", violations)
	}
	return &Holiday{
		ID:          holidayID,
		TenantID:    tenantID,
		SchoolID:    schoolID,
		Name:        strings.TrimSpace(name),
		Date:        date.UTC().Truncate(24 * time.Hour),
		Recurring:   recurring,
		Description: description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// Matches reports whether the holiday falls on the given day for the given
// campus. Recurring holidays match the day and month of any year.
func (h *Holiday) Matches(date time.Time, schoolID id.SchoolID) bool {
	if !h.SchoolID.IsNil() && !schoolID.IsNil() && h.SchoolID != schoolID {
		return false
	}
	d := date.UTC()
	if h.Recurring {
		return h.Date.Month() == d.Month() && h.Date.Day() == d.Day()
	}
	y1, m1, d1 := h.Date.Date()
	y2, m2, d2 := d.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}

// IsWeekend reports the regional weekend: Friday and Saturday.
func IsWeekend(date time.Time) bool {
	wd := date.UTC().Weekday()
	return wd == time.Friday || wd == time.Saturday
}

// ParseDate parses a day-month-year string.
func ParseDate(raw string) (time.Time, error) {
	parsed, err := time.Parse(DateLayout, strings.TrimSpace(raw))
	if err != nil {
		return time.Time{}, dErrors.Newf(dErrors.CodeBadRequest, "date must be in DD-MM-YYYY format, got %q", raw)
	}
	return parsed, nil
}
