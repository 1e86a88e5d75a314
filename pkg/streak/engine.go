// Package streak computes workout streak statistics over sets of
// local-calendar date strings. All functions are pure: callers pass
// "now" explicitly wherever today matters.
package streak

import (
	"sort"
	"time"
)

// maxStreakWalk caps the backward walk of CurrentStreak so pathological
// data can never loop unbounded.
const maxStreakWalk = 365

// dedup drops duplicate and malformed dates, keeping set semantics even
// when the caller forgot to deduplicate.
func dedup(dates []string) map[string]struct{} {
	set := make(map[string]struct{}, len(dates))
	for _, d := range dates {
		if _, err := ParseLocal(d); err != nil {
			continue
		}
		set[d] = struct{}{}
	}
	return set
}

// CurrentStreak returns the count of consecutive days with a workout,
// ending today or yesterday relative to now. A most recent date older
// than yesterday means the streak is broken.
func CurrentStreak(dates []string, now time.Time) int {
	set := dedup(dates)
	if len(set) == 0 {
		return 0
	}
	today := FormatLocal(now)
	yesterday := FormatLocal(now.AddDate(0, 0, -1))

	mostRecent := ""
	for d := range set {
		if d > mostRecent {
			mostRecent = d
		}
	}
	if mostRecent != today && mostRecent != yesterday {
		return 0
	}

	cursor := now
	if mostRecent == yesterday {
		cursor = now.AddDate(0, 0, -1)
	}
	count := 0
	for i := 0; i < maxStreakWalk; i++ {
		if _, ok := set[FormatLocal(cursor)]; !ok {
			break
		}
		count++
		cursor = cursor.AddDate(0, 0, -1)
	}
	return count
}

// LongestStreak returns the longest run of consecutive days ever
// recorded. 0 for empty input, 1 for a single date.
func LongestStreak(dates []string) int {
	set := dedup(dates)
	if len(set) == 0 {
		return 0
	}
	sorted := make([]string, 0, len(set))
	for d := range set {
		sorted = append(sorted, d)
	}
	sort.Strings(sorted)

	longest, run := 1, 1
	for i := 1; i < len(sorted); i++ {
		prev, _ := ParseLocal(sorted[i-1])
		if FormatLocal(prev.AddDate(0, 0, 1)) == sorted[i] {
			run++
		} else {
			run = 1
		}
		if run > longest {
			longest = run
		}
	}
	return longest
}

// WeeklyCount counts distinct workout dates within the Monday-to-Sunday
// week containing now.
func WeeklyCount(dates []string, now time.Time) int {
	set := dedup(dates)
	if len(set) == 0 {
		return 0
	}
	// Monday is the week start; Sunday counts as the trailing day of
	// the previous Monday's week.
	offset := 1 - int(now.Weekday())
	if now.Weekday() == time.Sunday {
		offset = -6
	}
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	weekStart := day.AddDate(0, 0, offset)
	weekEnd := weekStart.AddDate(0, 0, 7)

	count := 0
	for d := range set {
		t, err := ParseLocal(d)
		if err != nil {
			continue
		}
		if !t.Before(weekStart) && t.Before(weekEnd) {
			count++
		}
	}
	return count
}

// Intensity maps a day's workout count to a heat-scale value in [0,1].
// The calendar shading depends on these exact steps.
func Intensity(count int) float64 {
	switch {
	case count <= 0:
		return 0
	case count == 1:
		return 0.3
	case count == 2:
		return 0.6
	default:
		return 1
	}
}

// IsActive reports whether a streak ending on lastDate is still alive,
// i.e. lastDate is today or yesterday relative to now.
func IsActive(lastDate string, now time.Time) bool {
	return lastDate == FormatLocal(now) || lastDate == FormatLocal(now.AddDate(0, 0, -1))
}

// MergeCounts unions the date lists of standalone workouts and sessions
// into a per-date workout count for the calendar heat map.
func MergeCounts(workoutDates, sessionDates []string) map[string]int {
	counts := make(map[string]int, len(workoutDates)+len(sessionDates))
	for _, d := range workoutDates {
		if _, err := ParseLocal(d); err != nil {
			continue
		}
		counts[d]++
	}
	for _, d := range sessionDates {
		if _, err := ParseLocal(d); err != nil {
			continue
		}
		counts[d]++
	}
	return counts
}
