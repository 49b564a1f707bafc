// Package report derives read-side aggregates, filters and exports from a
// usage-entry snapshot. Everything here is a pure function of its input.
package report

import (
	"strings"
	"time"

	"github.com/Lyndoncatan/Neu-LabLogs/internal/model"
)

type Summary struct {
	TotalEntries        int            `json:"totalEntries"`
	TotalStudents       int            `json:"totalStudents"`
	UniqueRooms         int            `json:"uniqueRooms"`
	UniqueTeachers      int            `json:"uniqueTeachers"`
	AvgStudentsPerEntry float64        `json:"avgStudentsPerEntry"`
	ByPurpose           map[string]int `json:"byPurpose"`
	ByBuilding          map[string]int `json:"byBuilding"`
}

func Summarize(entries []model.UsageEntry) Summary {
	summary := Summary{
		ByPurpose:  make(map[string]int),
		ByBuilding: make(map[string]int),
	}
	rooms := make(map[string]struct{})
	teachers := make(map[string]struct{})

	for _, entry := range entries {
		summary.TotalEntries++
		summary.TotalStudents += entry.NumStudents
		rooms[RoomLabel(entry)] = struct{}{}
		teachers[entry.TeacherID] = struct{}{}

		purpose := entry.Purpose
		if purpose == "" {
			purpose = "Unspecified"
		}
		summary.ByPurpose[purpose]++
		summary.ByBuilding[entry.BuildingNumber]++
	}

	summary.UniqueRooms = len(rooms)
	summary.UniqueTeachers = len(teachers)
	if summary.TotalEntries > 0 {
		summary.AvgStudentsPerEntry = float64(summary.TotalStudents) / float64(summary.TotalEntries)
	}
	return summary
}

// RoomLabel is the display form of an entry's room, e.g. "IS-101".
func RoomLabel(entry model.UsageEntry) string {
	return entry.BuildingNumber + "-" + entry.RoomNumber
}

// Filter is the conjunctive export filter: room substring, case-insensitive
// purpose substring, inclusive start-time date range. Zero times mean
// unbounded.
type Filter struct {
	Room    string
	Purpose string
	From    time.Time
	To      time.Time
}

func Apply(filter Filter, entries []model.UsageEntry) []model.UsageEntry {
	filtered := make([]model.UsageEntry, 0, len(entries))
	for _, entry := range entries {
		if filter.Room != "" && !strings.Contains(RoomLabel(entry), filter.Room) {
			continue
		}
		if filter.Purpose != "" && !strings.Contains(strings.ToLower(entry.Purpose), strings.ToLower(filter.Purpose)) {
			continue
		}
		if !filter.From.IsZero() && entry.StartTime.Before(filter.From) {
			continue
		}
		if !filter.To.IsZero() && entry.StartTime.After(endOfDay(filter.To)) {
			continue
		}
		filtered = append(filtered, entry)
	}
	return filtered
}

// The end bound is a calendar date; extend it to the last instant of that
// day so the range is inclusive.
func endOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, int(999*time.Millisecond), t.Location())
}

type Period string

const (
	PeriodAll   Period = "all"
	PeriodDay   Period = "day"
	PeriodWeek  Period = "week"
	PeriodMonth Period = "month"
)

func ParsePeriod(value string) (Period, bool) {
	switch Period(value) {
	case PeriodAll, PeriodDay, PeriodWeek, PeriodMonth:
		return Period(value), true
	case "":
		return PeriodAll, true
	default:
		return "", false
	}
}

// ApplyPeriod keeps the entries whose start time falls in the given period
// relative to now: today, the trailing seven days, or the current calendar
// month.
func ApplyPeriod(period Period, now time.Time, entries []model.UsageEntry) []model.UsageEntry {
	if period == PeriodAll {
		return entries
	}
	filtered := make([]model.UsageEntry, 0, len(entries))
	for _, entry := range entries {
		start := entry.StartTime.In(now.Location())
		switch period {
		case PeriodDay:
			if sameDate(start, now) {
				filtered = append(filtered, entry)
			}
		case PeriodWeek:
			if !start.Before(now.AddDate(0, 0, -7)) {
				filtered = append(filtered, entry)
			}
		case PeriodMonth:
			if start.Month() == now.Month() && start.Year() == now.Year() {
				filtered = append(filtered, entry)
			}
		}
	}
	return filtered
}

func sameDate(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}
