package holiday_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"peopleops/internal/holiday"
	id "peopleops/pkg/domain"
	dErrors "peopleops/pkg/domain-errors"
)

var now = time.Date(2026, 6, 15, 10, 0, 0, 0, time.UTC)

func TestIsWeekend(t *testing.T) {
	// 2026-06-19 is a Friday, 2026-06-20 a Saturday, 2026-06-21 a Sunday.
	assert.True(t, holiday.IsWeekend(time.Date(2026, 6, 19, 0, 0, 0, 0, time.UTC)))
	assert.True(t, holiday.IsWeekend(time.Date(2026, 6, 20, 0, 0, 0, 0, time.UTC)))
	assert.False(t, holiday.IsWeekend(time.Date(2026, 6, 21, 0, 0, 0, 0, time.UTC)))
	assert.False(t, holiday.IsWeekend(time.Date(2026, 6, 15, 0, 0, 0, 0, time.UTC)))
}

func TestParseDate(t *testing.T) {
	parsed, err := holiday.ParseDate("25-12-2026")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 12, 25, 0, 0, 0, 0, time.UTC), parsed)

	_, err = holiday.ParseDate("2026-12-25")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))

	_, err = holiday.ParseDate("not a date")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))
}

func TestHolidayMatches(t *testing.T) {
	campus := id.SchoolID(uuid.New())
	other := id.SchoolID(uuid.New())

	h, err := holiday.NewHoliday(id.HolidayID(uuid.New()), "tenant-1", campus,
		"Founding Day", time.Date(2026, 12, 25, 0, 0, 0, 0, time.UTC), false, "", now)
	require.NoError(t, err)

	assert.True(t, h.Matches(time.Date(2026, 12, 25, 9, 0, 0, 0, time.UTC), campus))
	assert.False(t, h.Matches(time.Date(2026, 12, 25, 9, 0, 0, 0, time.UTC), other))
	assert.False(t, h.Matches(time.Date(2027, 12, 25, 0, 0, 0, 0, time.UTC), campus),
		"non-recurring holidays are year-specific")

	// Tenant-wide holidays match every campus.
	wide, err := holiday.NewHoliday(id.HolidayID(uuid.New()), "tenant-1", id.SchoolID{},
		"New Year", time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), true, "", now)
	require.NoError(t, err)
	assert.True(t, wide.Matches(time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC), campus),
		"recurring holidays match any year")
}

func TestNewHolidayValidation(t *testing.T) {
	_, err := holiday.NewHoliday(id.HolidayID(uuid.New()), "tenant-1", id.SchoolID{},
		"  ", time.Time{}, false, "", now)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	assert.Len(t, dErrors.ViolationsOf(err), 2)
}
