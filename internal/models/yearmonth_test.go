package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseYearMonth(t *testing.T) {
	month, err := ParseYearMonth("2025-02")
	require.NoError(t, err)
	assert.Equal(t, 2025, month.Year)
	assert.Equal(t, time.February, month.Month)

	for _, raw := range []string{"", "2025", "2025-13", "02-2025", "2025-2"} {
		_, err := ParseYearMonth(raw)
		assert.Error(t, err, "input %q", raw)
	}
}

func TestYearMonthBounds(t *testing.T) {
	month, err := ParseYearMonth("2025-02")
	require.NoError(t, err)

	start := month.Start()
	assert.Equal(t, time.Date(2025, time.February, 1, 0, 0, 0, 0, time.UTC), start)

	end := month.End()
	assert.Equal(t, time.February, end.Month())
	assert.Equal(t, 28, end.Day())
	assert.True(t, end.Before(time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)))
}

func TestYearMonthBefore(t *testing.T) {
	jan, err := ParseYearMonth("2025-01")
	require.NoError(t, err)
	feb, err := ParseYearMonth("2025-02")
	require.NoError(t, err)
	dec24, err := ParseYearMonth("2024-12")
	require.NoError(t, err)

	assert.True(t, jan.Before(feb))
	assert.False(t, feb.Before(jan))
	assert.False(t, jan.Before(jan))
	assert.True(t, dec24.Before(jan))
}

func TestYearMonthString(t *testing.T) {
	month := YearMonthOf(time.Date(2025, time.February, 17, 10, 0, 0, 0, time.UTC))
	assert.Equal(t, "2025-02", month.String())
}
