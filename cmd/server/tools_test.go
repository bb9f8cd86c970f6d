package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runAge(t *testing.T, date string) string {
	t.Helper()
	var out bytes.Buffer
	ageCmd.SetOut(&out)
	require.NoError(t, ageCmd.RunE(ageCmd, []string{date}))
	return out.String()
}

func TestAgeCommand(t *testing.T) {
	out := runAge(t, "1395/5/10")
	assert.Contains(t, out, "date:       1395/05/10")
	assert.Contains(t, out, "month:      مرداد, 31 days")
	assert.NotContains(t, out, "using")
}

func TestAgeCommandClampsDay(t *testing.T) {
	// 1395 is not a leap year, Esfand has 29 days
	out := runAge(t, "1395/12/30")
	assert.Contains(t, out, "اسفند has only 29 days, using 1395/12/29")
	assert.Contains(t, out, "date:       1395/12/29")
}
