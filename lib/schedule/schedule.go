// Package schedule holds the canonical schedule model both portals are
// normalized into, plus the small notation parsers their feeds require.
package schedule

import (
	"sort"
	"time"
)

// RecordStatus describes how trustworthy a stored schedule is after the
// latest refresh attempt.
type RecordStatus int

const (
	StatusUpToDate RecordStatus = iota
	// refresh failed because the stored credential no longer works
	StatusStaleAuthError
	// refresh failed because the portal misbehaved
	StatusStaleUpstreamError
)

type Entry struct {
	Name           string `json:"name"`
	Lecturer       string `json:"lecturer,omitempty"`
	Room           string `json:"room,omitempty"`
	SimplifiedRoom string `json:"simplified_room,omitempty"`
	// 1 = Monday .. 7 = Sunday
	DayOfWeek int `json:"day_of_week"`
	// 1-based ordinal class periods, not clock times
	StartSession int `json:"start_session"`
	EndSession   int `json:"end_session"`
}

type Week struct {
	WeekNumber int     `json:"week_number"`
	Entries    []Entry `json:"entries"`
}

type ExamEntry struct {
	Name           string    `json:"name"`
	Room           string    `json:"room,omitempty"`
	SimplifiedRoom string    `json:"simplified_room,omitempty"`
	Seat           int       `json:"seat,omitempty"`
	StartTime      time.Time `json:"start_time"`
	EndTime        time.Time `json:"end_time"`
}

// Schedule owns the merged view of a user's timetable and exams. Weeks
// are sparse, only those with at least one entry exist.
type Schedule struct {
	Username     string       `json:"username"`
	Weeks        []Week       `json:"weeks"`
	Exams        []ExamEntry  `json:"exams,omitempty"`
	RecordStatus RecordStatus `json:"record_status"`
}

func New(username string) Schedule {
	return Schedule{Username: username}
}

func mergeIfUnset(dst *string, src string) {
	if *dst == "" {
		*dst = src
	}
}

// AddEntry inserts the entry into the given week, merging with an
// existing entry that shares (name, day, startSession, endSession).
// Merging fills blank lecturer/room fields, never overwrites set ones.
func (s *Schedule) AddEntry(weekNumber int, entry Entry) {
	for i := range s.Weeks {
		if s.Weeks[i].WeekNumber != weekNumber {
			continue
		}
		week := &s.Weeks[i]
		for j := range week.Entries {
			e := &week.Entries[j]
			if e.Name == entry.Name && e.DayOfWeek == entry.DayOfWeek &&
				e.StartSession == entry.StartSession && e.EndSession == entry.EndSession {
				mergeIfUnset(&e.Lecturer, entry.Lecturer)
				mergeIfUnset(&e.Room, entry.Room)
				mergeIfUnset(&e.SimplifiedRoom, entry.SimplifiedRoom)
				return
			}
		}
		week.Entries = append(week.Entries, entry)
		return
	}
	s.Weeks = append(s.Weeks, Week{WeekNumber: weekNumber, Entries: []Entry{entry}})
}

// AddExam inserts the exam, merging with an existing one that shares
// (name, startTime, endTime). A nonzero seat wins over a zero one.
func (s *Schedule) AddExam(exam ExamEntry) {
	for i := range s.Exams {
		e := &s.Exams[i]
		if e.Name == exam.Name && e.StartTime.Equal(exam.StartTime) && e.EndTime.Equal(exam.EndTime) {
			mergeIfUnset(&e.Room, exam.Room)
			mergeIfUnset(&e.SimplifiedRoom, exam.SimplifiedRoom)
			if e.Seat == 0 {
				e.Seat = exam.Seat
			}
			return
		}
	}
	s.Exams = append(s.Exams, exam)
}

// SortWeeks orders weeks ascending by week number. Callers run this as
// a final pass after all entries are added.
func (s *Schedule) SortWeeks() {
	sort.Slice(s.Weeks, func(i, j int) bool {
		return s.Weeks[i].WeekNumber < s.Weeks[j].WeekNumber
	})
}
