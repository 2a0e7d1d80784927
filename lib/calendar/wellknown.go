package calendar

import "time"

// SessionTime is a class period's clock offsets from midnight local
// time.
type SessionTime struct {
	Start time.Duration
	End   time.Duration
}

func at(hour, minute int) time.Duration {
	return time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute
}

// DefaultSessionTimes is the university's period bell schedule.
func DefaultSessionTimes() map[int]SessionTime {
	return map[int]SessionTime{
		1:  {Start: at(8, 30), End: at(9, 15)},
		2:  {Start: at(9, 25), End: at(10, 10)},
		3:  {Start: at(10, 30), End: at(11, 15)},
		4:  {Start: at(11, 25), End: at(12, 10)},
		5:  {Start: at(13, 30), End: at(14, 15)},
		6:  {Start: at(14, 25), End: at(15, 10)},
		7:  {Start: at(15, 20), End: at(16, 5)},
		8:  {Start: at(16, 25), End: at(17, 10)},
		9:  {Start: at(19, 0), End: at(19, 45)},
		10: {Start: at(19, 55), End: at(20, 40)},
		11: {Start: at(20, 50), End: at(21, 35)},
		12: {Start: at(21, 45), End: at(22, 30)},
	}
}
