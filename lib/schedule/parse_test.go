package schedule

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseWeekRanges(t *testing.T) {
	weeks, err := ParseWeekRanges("3-16")
	require.NoError(t, err)
	require.Len(t, weeks, 14)
	require.Equal(t, 3, weeks[0])
	require.Equal(t, 16, weeks[13])

	weeks, err = ParseWeekRanges("3")
	require.NoError(t, err)
	require.Equal(t, []int{3}, weeks)

	weeks, err = ParseWeekRanges("3-5 9")
	require.NoError(t, err)
	require.Equal(t, []int{3, 4, 5, 9}, weeks)
}

func TestParseWeekRangesRejectsGarbage(t *testing.T) {
	_, err := ParseWeekRanges("")
	require.Error(t, err)
	_, err = ParseWeekRanges("a-b")
	require.Error(t, err)
	_, err = ParseWeekRanges("5-3")
	require.Error(t, err)
}

func TestParseSessionRange(t *testing.T) {
	start, end, err := ParseSessionRange("3-4")
	require.NoError(t, err)
	require.Equal(t, 3, start)
	require.Equal(t, 4, end)

	start, end, err = ParseSessionRange("7")
	require.NoError(t, err)
	require.Equal(t, 7, start)
	require.Equal(t, 7, end)
}

func TestParseBitmask(t *testing.T) {
	require.Equal(t, []int{2, 3}, ParseBitmask("0110000000000000"))
	require.Nil(t, ParseBitmask("0000"))
}

func TestSessionBounds(t *testing.T) {
	start, end, ok := SessionBounds("0011000")
	require.True(t, ok)
	require.Equal(t, 3, start)
	require.Equal(t, 4, end)

	_, _, ok = SessionBounds("0000000")
	require.False(t, ok)
}

func TestSimplifyRoom(t *testing.T) {
	require.Equal(t, "3305", SimplifyRoom("D1-3305"))
	require.Equal(t, "B214", SimplifyRoom("主教学楼-B区-B214"))
	require.Equal(t, "3305", SimplifyRoom("3305"))
}

func TestClassifyUsername(t *testing.T) {
	ut, err := ClassifyUsername("20211234")
	require.NoError(t, err)
	require.Equal(t, UserTypeUndergraduate, ut)

	ut, err = ClassifyUsername("202112345678")
	require.NoError(t, err)
	require.Equal(t, UserTypePostgraduate, ut)

	ut, err = ClassifyUsername("2021123456789")
	require.NoError(t, err)
	require.Equal(t, UserTypePostgraduate, ut)

	_, err = ClassifyUsername("19991234")
	require.ErrorIs(t, err, ErrInvalidUsername)
	_, err = ClassifyUsername("2021123")
	require.ErrorIs(t, err, ErrInvalidUsername)
	_, err = ClassifyUsername("20x11234")
	require.ErrorIs(t, err, ErrInvalidUsername)
}
