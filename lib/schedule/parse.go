package schedule

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseWeekRanges expands week notation like "3-16", "3" or "3-5 9"
// (space-separated tokens) into the list of week numbers.
func ParseWeekRanges(notation string) ([]int, error) {
	var weeks []int
	for _, token := range strings.Fields(notation) {
		start, end, err := parseRange(token)
		if err != nil {
			return nil, err
		}
		for w := start; w <= end; w++ {
			weeks = append(weeks, w)
		}
	}
	if len(weeks) == 0 {
		return nil, fmt.Errorf("empty week notation %q", notation)
	}
	return weeks, nil
}

// ParseSessionRange parses session notation like "3-4" or "7" into the
// inclusive start and end session numbers.
func ParseSessionRange(notation string) (start, end int, err error) {
	return parseRange(strings.TrimSpace(notation))
}

func parseRange(token string) (start, end int, err error) {
	first, second, isRange := strings.Cut(token, "-")
	start, err = strconv.Atoi(first)
	if err != nil {
		return 0, 0, fmt.Errorf("bad range token %q: %w", token, err)
	}
	if !isRange {
		return start, start, nil
	}
	end, err = strconv.Atoi(second)
	if err != nil {
		return 0, 0, fmt.Errorf("bad range token %q: %w", token, err)
	}
	if end < start {
		return 0, 0, fmt.Errorf("bad range token %q: end before start", token)
	}
	return start, end, nil
}

// ParseBitmask expands a bitmask string like "0110000000000000" into
// the list of 1-based positions holding '1'.
func ParseBitmask(mask string) []int {
	var positions []int
	for i, c := range mask {
		if c == '1' {
			positions = append(positions, i+1)
		}
	}
	return positions
}

// SessionBounds reads the first and last set bit of a period bitmask as
// the 1-based start and end session.
func SessionBounds(mask string) (start, end int, ok bool) {
	first := strings.Index(mask, "1")
	if first < 0 {
		return 0, 0, false
	}
	return first + 1, strings.LastIndex(mask, "1") + 1, true
}

// SimplifyRoom strips building/wing prefixes, keeping the segment after
// the last dash for compact display.
func SimplifyRoom(room string) string {
	if idx := strings.LastIndexAny(room, "-"); idx >= 0 && idx+1 < len(room) {
		return room[idx+1:]
	}
	return room
}
