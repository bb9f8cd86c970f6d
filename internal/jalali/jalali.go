// Package jalali holds the Persian (solar hijri) calendar arithmetic used for
// birth dates.
//
// The leap rule and the Gregorian conversion are the approximations the web
// client has always used, kept so that ages and month lengths match what
// parents already see:
//
//	leap(y)     = (y + 2346) % 128 < 29
//	gregorian y = y - 621
package jalali

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Fallback parts used when a date string is empty or a part is unusable.
const (
	FallbackYear  = 1380
	FallbackMonth = 1
	FallbackDay   = 1
)

// MaxAge is the upper clamp for Age.
const MaxAge = 18

// gregorianOffset approximates the Jalali→Gregorian year difference.
const gregorianOffset = 621

var monthNames = [12]string{
	"فروردین", "اردیبهشت", "خرداد", "تیر", "مرداد", "شهریور",
	"مهر", "آبان", "آذر", "دی", "بهمن", "اسفند",
}

// Date is a Jalali calendar date.
type Date struct {
	Year  int `json:"year"`
	Month int `json:"month"`
	Day   int `json:"day"`
}

// IsLeapYear reports whether Esfand of year has 30 days.
func IsLeapYear(year int) bool {
	return (year+2346)%128 < 29
}

// DaysInMonth returns the number of days of month in year.
func DaysInMonth(year, month int) int {
	if month <= 6 {
		return 31
	}
	if month <= 11 {
		return 30
	}
	if IsLeapYear(year) {
		return 30
	}
	return 29
}

// Parse reads a YYYY/MM/DD string. Missing, non-numeric or zero parts fall
// back to 1380/01/01 part by part.
func Parse(s string) Date {
	if strings.TrimSpace(s) == "" {
		return Date{Year: FallbackYear, Month: FallbackMonth, Day: FallbackDay}
	}

	parts := strings.Split(s, "/")
	return Date{
		Year:  partOr(parts, 0, FallbackYear),
		Month: partOr(parts, 1, FallbackMonth),
		Day:   partOr(parts, 2, FallbackDay),
	}
}

func partOr(parts []string, i, fallback int) int {
	if i >= len(parts) {
		return fallback
	}
	n, ok := number(parts[i])
	if !ok || n == 0 {
		return fallback
	}
	return n
}

// number parses a date part the way the client's Number() did: surrounding
// whitespace is ignored and an empty part is zero.
func number(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, true
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Format renders year/month/day with a zero-padded month and day.
func Format(year, month, day int) string {
	return fmt.Sprintf("%d/%02d/%02d", year, month, day)
}

// String implements fmt.Stringer.
func (d Date) String() string {
	return Format(d.Year, d.Month, d.Day)
}

// Display renders the date with Persian digits.
func (d Date) Display() string {
	return ToPersianDigits(d.String())
}

// Valid reports whether the month exists and the day fits in it.
func (d Date) Valid() bool {
	if d.Month < 1 || d.Month > 12 || d.Day < 1 {
		return false
	}
	return d.Day <= DaysInMonth(d.Year, d.Month)
}

// Clamp lowers the day to the month's length, used after the year or month
// of a date changes.
func (d Date) Clamp() Date {
	if n := DaysInMonth(d.Year, d.Month); d.Day > n {
		d.Day = n
	}
	return d
}

// MonthName returns the Persian name of month (1-12), or "" if out of range.
func MonthName(month int) string {
	if month < 1 || month > 12 {
		return ""
	}
	return monthNames[month-1]
}

// ToPersianDigits replaces ASCII digits with Extended Arabic-Indic digits.
func ToPersianDigits(s string) string {
	var b strings.Builder
	b.Grow(len(s) * 2)
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune('۰' + (r - '0'))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Age returns the age in whole years of someone born on the Jalali date
// birthDate, as seen at now. The result is clamped to [0, MaxAge]; malformed
// input yields 0.
func Age(birthDate string, now time.Time) int {
	d, ok := ParseStrict(birthDate)
	if !ok {
		return 0
	}
	// time.Date normalises overflowing months and days like the client did.
	birth := time.Date(d.Year-gregorianOffset, time.Month(d.Month), d.Day, 0, 0, 0, 0, now.Location())
	return clampAge(yearsBetween(birth, now))
}
