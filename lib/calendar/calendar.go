// Package calendar projects a schedule and term onto an iCalendar feed
// with deterministic event identifiers.
package calendar

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/DL444/cqu-schedule/lib/schedule"
	"github.com/DL444/cqu-schedule/lib/timezone"

	ics "github.com/arran4/golang-ical"
)

type EventCategories int

const (
	Courses EventCategories = 1 << iota
	Exams

	All = Courses | Exams
)

type Projector struct {
	// session number to clock offsets, DefaultSessionTimes when nil
	SessionTimes map[int]SessionTime
	// alarm lead time before each event
	RemindBefore time.Duration
	// days beyond the term window during which the feed still carries
	// events instead of going empty
	VacationServeDays int
}

// EventUID hashes the identifying fields so regenerating the feed from
// unchanged data yields identical UIDs. Calendar clients dedup by UID
// and would show flapping duplicates otherwise.
func EventUID(username, summary string, start, end time.Time) string {
	h := sha256.Sum256([]byte(fmt.Sprintf(
		"%s|%s|%s|%s",
		username, summary, start.Format(time.RFC3339), end.Format(time.RFC3339),
	)))
	return hex.EncodeToString(h[:])
}

// Empty returns a calendar carrying no events. Served in place of an
// error so calendar clients show a blank schedule instead of a broken
// subscription.
func (p Projector) Empty() string {
	return newCalendar().Serialize()
}

func newCalendar() *ics.Calendar {
	cal := ics.NewCalendar()
	cal.SetProductId("-//DL444//CQU Schedule//EN")
	cal.SetMethod(ics.MethodPublish)
	return cal
}

// Calendar serializes the schedule into an iCalendar document. Outside
// the term window padded by VacationServeDays the result is an empty
// calendar.
func (p Projector) Calendar(username string, term schedule.Term, sched schedule.Schedule, categories EventCategories) string {
	now := timezone.Now()

	cal := newCalendar()

	serve := time.Duration(p.VacationServeDays) * 24 * time.Hour
	if now.Before(term.StartDate.Add(-serve)) || now.After(term.EndDate.Add(serve)) {
		return cal.Serialize()
	}

	sessionTimes := p.SessionTimes
	if sessionTimes == nil {
		sessionTimes = DefaultSessionTimes()
	}

	if categories&Courses != 0 {
		for _, week := range sched.Weeks {
			for _, entry := range week.Entries {
				startSession, okStart := sessionTimes[entry.StartSession]
				endSession, okEnd := sessionTimes[entry.EndSession]
				if !okStart || !okEnd {
					continue
				}
				day := term.StartDate.AddDate(0, 0, (week.WeekNumber-1)*7+(entry.DayOfWeek-1))
				start := day.Add(startSession.Start)
				end := day.Add(endSession.End)

				description := entry.Lecturer
				p.addEvent(cal, username, entry.Name, entry.Room, description, start, end, now)
			}
		}
	}
	if categories&Exams != 0 {
		for _, exam := range sched.Exams {
			description := ""
			if exam.Seat != 0 {
				description = fmt.Sprintf("座位号：%d", exam.Seat)
			}
			p.addEvent(cal, username, exam.Name+"（考试）", exam.Room, description, exam.StartTime, exam.EndTime, now)
		}
	}

	return cal.Serialize()
}

func (p Projector) addEvent(cal *ics.Calendar, username, summary, location, description string, start, end, stamp time.Time) {
	ev := cal.AddEvent(EventUID(username, summary, start, end))
	ev.SetSummary(summary)
	if location != "" {
		ev.SetLocation(location)
	}
	if description != "" {
		ev.SetDescription(description)
	}
	ev.SetStartAt(start)
	ev.SetEndAt(end)
	ev.SetDtStampTime(stamp)

	if p.RemindBefore > 0 {
		alarm := ev.AddAlarm()
		alarm.SetAction(ics.ActionDisplay)
		alarm.SetTrigger(fmt.Sprintf("-PT%dM", int(p.RemindBefore.Minutes())))
	}
}
