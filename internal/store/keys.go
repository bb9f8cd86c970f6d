package store

import (
	"regexp"
	"strings"
)

// Document keys. Child-scoped keys end in _{childID}.
const (
	KeyChildren     = "childrenList"
	KeyParentWallet = "parentWallet"

	prefixWallet           = "childWallet"
	prefixGoals            = "childGoals"
	prefixAllowance        = "childAllowance"
	prefixTasks            = "tasks"
	prefixActivities       = "childActivities"
	prefixRecentActivities = "childRecentActivities"
	prefixRequests         = "childRequests"
)

var keyPattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]{0,127}$`)

func WalletKey(childID string) string           { return prefixWallet + "_" + childID }
func GoalsKey(childID string) string            { return prefixGoals + "_" + childID }
func AllowanceKey(childID string) string        { return prefixAllowance + "_" + childID }
func TasksKey(childID string) string            { return prefixTasks + "_" + childID }
func ActivitiesKey(childID string) string       { return prefixActivities + "_" + childID }
func RecentActivitiesKey(childID string) string { return prefixRecentActivities + "_" + childID }
func RequestsKey(childID string) string         { return prefixRequests + "_" + childID }

// ChildKeys lists every key derived from a child id
func ChildKeys(childID string) []string {
	return []string{
		WalletKey(childID),
		GoalsKey(childID),
		AllowanceKey(childID),
		TasksKey(childID),
		ActivitiesKey(childID),
		RecentActivitiesKey(childID),
		RequestsKey(childID),
	}
}

// ValidKey reports whether key may be used for raw document access
func ValidKey(key string) bool {
	return keyPattern.MatchString(key)
}

// family returns the key without its child suffix, e.g. childWallet for
// childWallet_42. Keys without a suffix are their own family.
func family(key string) string {
	if i := strings.IndexByte(key, '_'); i > 0 {
		return key[:i]
	}
	return key
}
