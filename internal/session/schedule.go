// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package session

import (
	"fmt"
	"strings"
	"time"
)

const clockLayout = "15:04"

// schedule holds the parsed wall-clock lockout rules.
type schedule struct {
	hasActive   bool
	activeStart int // minute of day
	activeEnd   int
	hasDaily    bool
	dailyMinute int
}

func parseSchedule(activeHours, daily string) (schedule, error) {
	var s schedule
	if activeHours = strings.TrimSpace(activeHours); activeHours != "" {
		start, end, ok := strings.Cut(activeHours, "-")
		if !ok {
			return s, fmt.Errorf("active hours %q: expected HH:MM-HH:MM", activeHours)
		}
		startMin, err := parseMinuteOfDay(start)
		if err != nil {
			return s, fmt.Errorf("active hours start: %w", err)
		}
		endMin, err := parseMinuteOfDay(end)
		if err != nil {
			return s, fmt.Errorf("active hours end: %w", err)
		}
		s.hasActive = startMin != endMin
		s.activeStart, s.activeEnd = startMin, endMin
	}
	if daily = strings.TrimSpace(daily); daily != "" {
		m, err := parseMinuteOfDay(daily)
		if err != nil {
			return s, fmt.Errorf("daily lock time: %w", err)
		}
		s.hasDaily = true
		s.dailyMinute = m
	}
	return s, nil
}

func parseMinuteOfDay(v string) (int, error) {
	t, err := time.Parse(clockLayout, strings.TrimSpace(v))
	if err != nil {
		return 0, fmt.Errorf("%q is not HH:MM", v)
	}
	return t.Hour()*60 + t.Minute(), nil
}

func minuteOfDay(t time.Time) int { return t.Hour()*60 + t.Minute() }

// withinActiveHours reports whether t falls in the window. Windows may wrap
// midnight; no window (or start == end) means always active.
func (s schedule) withinActiveHours(t time.Time) bool {
	if !s.hasActive {
		return true
	}
	m := minuteOfDay(t)
	if s.activeStart < s.activeEnd {
		return m >= s.activeStart && m < s.activeEnd
	}
	return m >= s.activeStart || m < s.activeEnd
}

// dailyKey returns a per-minute dedup key when t is the daily lock minute.
func (s schedule) dailyKey(t time.Time) (string, bool) {
	if !s.hasDaily || minuteOfDay(t) != s.dailyMinute {
		return "", false
	}
	return t.Format("2006-01-02T15:04"), true
}
