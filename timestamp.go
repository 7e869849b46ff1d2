package thredds

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// TimestampLayout is how decoded timestamps are written to the index.
const TimestampLayout = "2006-01-02T15:04:05"

// DayFractionTime decodes a "%Y%m%d.%f" timestamp, where the integer part is a
// calendar day and the fraction is the elapsed part of that day, as written
// by ICON model output. Any float notation is accepted, including exponent
// form. Values are rounded to the nearest second.
func DayFractionTime(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("day-fraction timestamp %q: %w", raw, err)
	}
	day, frac, _ := strings.Cut(strconv.FormatFloat(v, 'f', -1, 64), ".")
	t, err := time.Parse("20060102", day)
	if err != nil {
		return time.Time{}, fmt.Errorf("day-fraction timestamp %q: %w", raw, err)
	}
	if frac != "" {
		f, err := strconv.ParseFloat("0."+frac, 64)
		if err != nil {
			return time.Time{}, fmt.Errorf("day-fraction timestamp %q: %w", raw, err)
		}
		t = t.Add(time.Duration(f * float64(24*time.Hour)))
	}
	return t.Add(500 * time.Millisecond).Truncate(time.Second), nil
}

// DecodeDayFraction is a ValueDecoder writing DayFractionTime values as
// TimestampLayout strings.
func DecodeDayFraction(raw string) (any, error) {
	t, err := DayFractionTime(raw)
	if err != nil {
		return nil, err
	}
	return t.Format(TimestampLayout), nil
}

// TimestampDecoder returns the decoder for a timestamp mode: "none" or "excel".
func TimestampDecoder(mode string) (ValueDecoder, error) {
	switch mode {
	case "", "none":
		return Identity, nil
	case "excel":
		return DecodeDayFraction, nil
	}
	return nil, fmt.Errorf("unknown timestamp mode %q", mode)
}
