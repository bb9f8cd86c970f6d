package jalali_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/digiplay/digiplay-server/internal/jalali"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, time.October, 18, 12, 0, 0, 0, time.UTC)

func TestDaysInMonth(t *testing.T) {
	for year := 1370; year <= 1410; year++ {
		for month := 1; month <= 6; month++ {
			assert.Equal(t, 31, jalali.DaysInMonth(year, month))
		}
		for month := 7; month <= 11; month++ {
			assert.Equal(t, 30, jalali.DaysInMonth(year, month))
		}

		esfand := 29
		if (year+2346)%128 < 29 {
			esfand = 30
		}
		assert.Equal(t, esfand, jalali.DaysInMonth(year, 12), "year %d", year)
	}
}

func TestIsLeapYear(t *testing.T) {
	assert.True(t, jalali.IsLeapYear(1380))
	assert.True(t, jalali.IsLeapYear(1394))
	assert.False(t, jalali.IsLeapYear(1395))
	assert.False(t, jalali.IsLeapYear(1403))
}

func TestParse(t *testing.T) {
	t.Run("empty falls back", func(t *testing.T) {
		assert.Equal(t, jalali.Date{Year: 1380, Month: 1, Day: 1}, jalali.Parse(""))
	})

	t.Run("well formed", func(t *testing.T) {
		assert.Equal(t, jalali.Date{Year: 1395, Month: 5, Day: 10}, jalali.Parse("1395/05/10"))
	})

	t.Run("bad parts fall back individually", func(t *testing.T) {
		assert.Equal(t, jalali.Date{Year: 1399, Month: 1, Day: 7}, jalali.Parse("1399/xx/7"))
		assert.Equal(t, jalali.Date{Year: 1380, Month: 4, Day: 1}, jalali.Parse("abc/4"))
		assert.Equal(t, jalali.Date{Year: 1380, Month: 1, Day: 1}, jalali.Parse("0/0/0"))
	})
}

func TestFormatRoundTrip(t *testing.T) {
	for year := 1380; year <= 1405; year += 5 {
		for month := 1; month <= 12; month++ {
			for day := 1; day <= jalali.DaysInMonth(year, month); day++ {
				s := fmt.Sprintf("%d/%d/%d", year, month, day)
				assert.Equal(t, jalali.Format(year, month, day), jalali.Parse(s).String())
			}
		}
	}
	assert.Equal(t, "1401/03/09", jalali.Format(1401, 3, 9))
	assert.Equal(t, "۱۴۰۱/۰۳/۰۹", jalali.Date{Year: 1401, Month: 3, Day: 9}.Display())
}

func TestValidAndClamp(t *testing.T) {
	assert.True(t, jalali.Date{Year: 1380, Month: 12, Day: 30}.Valid())
	assert.False(t, jalali.Date{Year: 1395, Month: 12, Day: 30}.Valid())
	assert.False(t, jalali.Date{Year: 1395, Month: 13, Day: 1}.Valid())

	clamped := jalali.Date{Year: 1395, Month: 12, Day: 30}.Clamp()
	assert.Equal(t, 29, clamped.Day)
	assert.Equal(t, "اسفند", jalali.MonthName(12))
	assert.Equal(t, "", jalali.MonthName(0))
}

func TestAge(t *testing.T) {
	tests := []struct {
		name      string
		birthDate string
		want      int
	}{
		{"empty", "", 0},
		{"two parts", "1395/05", 0},
		{"non numeric", "1395/aa/10", 0},
		{"year offset applied", "2636/10/18", 11},
		{"birthday not reached", "2636/10/19", 10},
		{"realistic dates clamp to max", "1395/05/10", jalali.MaxAge},
		{"future clamps to zero", "2700/01/01", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, jalali.Age(tt.birthDate, now))
		})
	}
}

func TestToGregorian(t *testing.T) {
	tests := []struct {
		jy, jm, jd int
		gy, gm, gd int
	}{
		{1403, 1, 1, 2024, 3, 20},
		{1402, 12, 29, 2024, 3, 19},
		{1399, 12, 30, 2021, 3, 20},
		{1395, 5, 10, 2016, 7, 31},
		{1380, 1, 1, 2001, 3, 21},
		{1405, 7, 26, 2026, 10, 18},
	}

	for _, tt := range tests {
		gy, gm, gd := jalali.ToGregorian(tt.jy, tt.jm, tt.jd)
		assert.Equal(t, []int{tt.gy, tt.gm, tt.gd}, []int{gy, gm, gd}, "%d/%d/%d", tt.jy, tt.jm, tt.jd)
	}

	d := jalali.Date{Year: 1403, Month: 1, Day: 1}.Time(time.UTC)
	require.Equal(t, time.Date(2024, time.March, 20, 0, 0, 0, 0, time.UTC), d)
}

func TestExactAge(t *testing.T) {
	assert.Equal(t, 10, jalali.ExactAge("1395/05/10", now))
	assert.Equal(t, 10, jalali.ExactAge("1395/07/27", now))
	assert.Equal(t, 9, jalali.ExactAge("1395/07/28", now))
	assert.Equal(t, jalali.MaxAge, jalali.ExactAge("1380/01/01", now))
	assert.Equal(t, 0, jalali.ExactAge("1410/01/01", now))
	assert.Equal(t, 0, jalali.ExactAge("garbage", now))

	for _, s := range []string{"1370/01/01", "1390/06/31", "1400/12/29", "1405/07/26"} {
		age := jalali.ExactAge(s, now)
		assert.GreaterOrEqual(t, age, 0)
		assert.LessOrEqual(t, age, jalali.MaxAge)
	}
}
