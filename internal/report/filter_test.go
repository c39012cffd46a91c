package report

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestParseFilter(t *testing.T) {
	tests := []struct {
		name                    string
		start, end, month, year string
		wantLabel               string
		wantFrom, wantTo        time.Time
		wantAll                 bool
	}{
		{name: "nothing", wantAll: true, wantLabel: "all"},
		{
			name: "range wins over month and year", start: "2025-03-01", end: "2025-03-07", month: "2024-01", year: "2020",
			wantLabel: "2025-03-01..2025-03-07", wantFrom: date(2025, 3, 1), wantTo: date(2025, 3, 8),
		},
		{
			name: "half a range falls through to month", start: "2025-03-01", month: "2024-02",
			wantLabel: "2024-02", wantFrom: date(2024, 2, 1), wantTo: date(2024, 3, 1),
		},
		{
			name: "month wins over year", month: "2024-12", year: "2020",
			wantLabel: "2024-12", wantFrom: date(2024, 12, 1), wantTo: date(2025, 1, 1),
		},
		{
			name: "year", year: "2023",
			wantLabel: "2023", wantFrom: date(2023, 1, 1), wantTo: date(2024, 1, 1),
		},
		{
			name: "single day range", start: "2025-05-05", end: "2025-05-05",
			wantLabel: "2025-05-05..2025-05-05", wantFrom: date(2025, 5, 5), wantTo: date(2025, 5, 6),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := ParseFilter(tt.start, tt.end, tt.month, tt.year)
			require.NoError(t, err)
			assert.Equal(t, tt.wantLabel, f.Label())

			from, to, ok := f.Bounds()
			if tt.wantAll {
				assert.False(t, ok)
				return
			}
			require.True(t, ok)
			assert.Equal(t, tt.wantFrom, from)
			assert.Equal(t, tt.wantTo, to)
		})
	}
}

func TestParseFilter_Invalid(t *testing.T) {
	cases := map[string][4]string{
		"bad start":        {"03/01/2025", "2025-03-07", "", ""},
		"bad end":          {"2025-03-01", "tomorrow", "", ""},
		"end before start": {"2025-03-07", "2025-03-01", "", ""},
		"bad month":        {"", "", "2025-13", ""},
		"bad year":         {"", "", "", "twenty"},
		"year zero":        {"", "", "", "0"},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseFilter(in[0], in[1], in[2], in[3])
			assert.ErrorIs(t, err, ErrInvalidFilter)
		})
	}
}

func TestZeroFilterIsAll(t *testing.T) {
	var f Filter
	_, _, ok := f.Bounds()
	assert.False(t, ok)
	assert.Equal(t, "all", f.Label())
}

func TestPercentage(t *testing.T) {
	assert.Equal(t, "0", Percentage(5, 0).String())
	assert.Equal(t, "50", Percentage(1, 2).String())
	assert.Equal(t, "33.33", Percentage(1, 3).String())
	assert.Equal(t, "66.67", Percentage(2, 3).String())
}
