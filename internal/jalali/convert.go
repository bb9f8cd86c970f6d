package jalali

import (
	"strings"
	"time"
)

var gregorianMonthDays = [13]int{0, 31, 28, 31, 30, 31, 30, 31, 31, 30, 31, 30, 31}

// ToGregorian converts a Jalali date to the Gregorian calendar using the
// 33-year arithmetic cycle. Unlike the year-offset approximation in Age it is
// exact for the years a birth date can realistically take.
func ToGregorian(jy, jm, jd int) (gy, gm, gd int) {
	jy += 1595
	days := -355668 + 365*jy + (jy/33)*8 + ((jy%33)+3)/4 + jd
	if jm < 7 {
		days += (jm - 1) * 31
	} else {
		days += (jm-7)*30 + 186
	}

	gy = 400 * (days / 146097)
	days %= 146097
	if days > 36524 {
		days--
		gy += 100 * (days / 36524)
		days %= 36524
		if days >= 365 {
			days++
		}
	}
	gy += 4 * (days / 1461)
	days %= 1461
	if days > 365 {
		gy += (days - 1) / 365
		days = (days - 1) % 365
	}
	gd = days + 1

	monthDays := gregorianMonthDays
	if (gy%4 == 0 && gy%100 != 0) || gy%400 == 0 {
		monthDays[2] = 29
	}
	for gm = 1; gm < 13 && gd > monthDays[gm]; gm++ {
		gd -= monthDays[gm]
	}
	return gy, gm, gd
}

// Time returns midnight of d in loc.
func (d Date) Time(loc *time.Location) time.Time {
	gy, gm, gd := ToGregorian(d.Year, d.Month, d.Day)
	return time.Date(gy, time.Month(gm), gd, 0, 0, 0, 0, loc)
}

// ExactAge is Age computed with ToGregorian instead of the year offset.
// Malformed input yields 0 and the result is clamped to [0, MaxAge].
func ExactAge(birthDate string, now time.Time) int {
	d, ok := ParseStrict(birthDate)
	if !ok {
		return 0
	}
	return clampAge(yearsBetween(d.Time(now.Location()), now))
}

// ParseStrict accepts exactly three numeric "/"-separated parts, with no
// fallbacks. It does not check that the date exists; see Date.Valid.
func ParseStrict(s string) (Date, bool) {
	if s == "" {
		return Date{}, false
	}
	parts := strings.Split(s, "/")
	if len(parts) != 3 {
		return Date{}, false
	}
	var nums [3]int
	for i, p := range parts {
		n, ok := number(p)
		if !ok {
			return Date{}, false
		}
		nums[i] = n
	}
	return Date{Year: nums[0], Month: nums[1], Day: nums[2]}, true
}

func yearsBetween(birth, now time.Time) int {
	age := now.Year() - birth.Year()
	monthDiff := int(now.Month()) - int(birth.Month())
	if monthDiff < 0 || (monthDiff == 0 && now.Day() < birth.Day()) {
		age--
	}
	return age
}

func clampAge(age int) int {
	if age < 0 {
		return 0
	}
	if age > MaxAge {
		return MaxAge
	}
	return age
}
