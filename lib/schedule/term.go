package schedule

import "time"

// Term describes one academic term. EndDate is exclusive, normalized to
// the start of the day after the upstream's inclusive end date.
type Term struct {
	SessionTermId string    `json:"session_term_id"`
	StartDate     time.Time `json:"start_date"`
	EndDate       time.Time `json:"end_date"`
}

// Hint classifies the term's window against now, padded by graceDays on
// both sides. 0 means now is inside the window, -1 the term is still in
// the future, +1 it is already over.
func (t Term) Hint(now time.Time, graceDays int) int {
	grace := time.Duration(graceDays) * 24 * time.Hour
	if now.Before(t.StartDate.Add(-grace)) {
		return -1
	}
	if now.After(t.EndDate.Add(grace)) {
		return 1
	}
	return 0
}
