package thredds

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDayFractionTime(t *testing.T) {
	tests := map[string]time.Time{
		"20160330":        time.Date(2016, 3, 30, 0, 0, 0, 0, time.UTC),
		"20160330.0":      time.Date(2016, 3, 30, 0, 0, 0, 0, time.UTC),
		"20160330.5":      time.Date(2016, 3, 30, 12, 0, 0, 0, time.UTC),
		"20160330.25":     time.Date(2016, 3, 30, 6, 0, 0, 0, time.UTC),
		"20160330.04":     time.Date(2016, 3, 30, 0, 57, 36, 0, time.UTC),
		" 20161231.75":    time.Date(2016, 12, 31, 18, 0, 0, 0, time.UTC),
		"2.016033025e+07": time.Date(2016, 3, 30, 6, 0, 0, 0, time.UTC),
		"2.01603305E7":    time.Date(2016, 3, 30, 12, 0, 0, 0, time.UTC),
	}
	for raw, want := range tests {
		got, err := DayFractionTime(raw)
		require.NoError(t, err, raw)
		assert.True(t, want.Equal(got), "%s: got %s want %s", raw, got, want)
	}
}

func TestDayFractionTimeRoundsToSecond(t *testing.T) {
	// 1/3 of a day is 08:00:00 but is not exactly representable.
	got, err := DayFractionTime("20160330.3333333333")
	require.NoError(t, err)
	assert.Equal(t, "2016-03-30T08:00:00", got.Format(TimestampLayout))
}

func TestDayFractionTimeInvalid(t *testing.T) {
	for _, raw := range []string{"", "abc", "2016-03-30", "20160330.x", "2.01603e+07"} {
		_, err := DayFractionTime(raw)
		assert.Error(t, err, raw)
	}
}

func TestTimestampDecoder(t *testing.T) {
	for _, mode := range []string{"", "none"} {
		dec, err := TimestampDecoder(mode)
		require.NoError(t, err)
		v, err := dec("20160330.5")
		require.NoError(t, err)
		assert.Equal(t, "20160330.5", v)
	}

	dec, err := TimestampDecoder("excel")
	require.NoError(t, err)
	v, err := dec("20160330.5")
	require.NoError(t, err)
	assert.Equal(t, "2016-03-30T12:00:00", v)

	_, err = TimestampDecoder("unix")
	assert.Error(t, err)
}
