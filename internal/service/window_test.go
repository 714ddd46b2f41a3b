package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOperatingWindowContains(t *testing.T) {
	tests := []struct {
		name       string
		start, end time.Time
		want       bool
	}{
		{"full day", today(8, 0), today(22, 0), true},
		{"inside", today(10, 0), today(11, 30), true},
		{"starts before opening", today(7, 59), today(9, 0), false},
		{"ends after closing", today(21, 0), today(22, 1), false},
		{"spans the night", today(21, 0), tomorrow(9, 0), false},
		{"entirely at night", today(22, 30), today(23, 0), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, testWindow.Contains(tt.start, tt.end))
		})
	}
}

func TestOperatingWindowClip(t *testing.T) {
	spans := testWindow.Clip(today(6, 0), tomorrow(12, 0))
	require.Len(t, spans, 2)
	assert.Equal(t, today(8, 0), spans[0].start)
	assert.Equal(t, today(22, 0), spans[0].end)
	assert.Equal(t, tomorrow(8, 0), spans[1].start)
	assert.Equal(t, tomorrow(12, 0), spans[1].end)

	assert.Empty(t, testWindow.Clip(today(22, 0), tomorrow(8, 0)))
}

func TestOperatingWindowAcrossDST(t *testing.T) {
	berlin, err := time.LoadLocation("Europe/Berlin")
	require.NoError(t, err)
	w := OperatingWindow{Location: berlin, Open: 8 * time.Hour, Close: 22 * time.Hour}

	// Clocks go forward at 02:00 on 29 March 2026.
	day := time.Date(2026, 3, 29, 12, 0, 0, 0, berlin)
	open, closing := w.Bounds(w.Day(day))
	assert.Equal(t, 8, open.Hour())
	assert.Equal(t, 22, closing.Hour())

	assert.True(t, w.Contains(time.Date(2026, 3, 29, 8, 0, 0, 0, berlin), time.Date(2026, 3, 29, 22, 0, 0, 0, berlin)))
	assert.False(t, w.Contains(time.Date(2026, 3, 29, 7, 30, 0, 0, berlin), time.Date(2026, 3, 29, 9, 0, 0, 0, berlin)))
}
