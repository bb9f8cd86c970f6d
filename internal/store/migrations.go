package store

import (
	"encoding/json"

	"github.com/pkg/errors"
)

// migration upgrades a stored value by one schema version
type migration func(raw []byte) ([]byte, error)

// schema lists the upgrade chain of one key family. steps[i] turns version
// i+1 into version i+2.
type schema struct {
	steps []migration
}

func (s schema) current() int {
	return len(s.steps) + 1
}

var schemas = map[string]schema{
	prefixActivities: {steps: []migration{addActivityPoints}},
	prefixTasks:      {steps: []migration{stripTaskFields}},
	prefixWallet:     {steps: []migration{addWalletDigits}},
}

// currentVersion returns the schema version new values of key are written at
func currentVersion(key string) int {
	if s, ok := schemas[family(key)]; ok {
		return s.current()
	}
	return 1
}

// migrate upgrades raw from version to the current version of key's family.
// It reports whether anything ran.
func migrate(key string, version int, raw []byte) ([]byte, int, bool, error) {
	s, ok := schemas[family(key)]
	if !ok || version >= s.current() {
		return raw, version, false, nil
	}
	if version < 1 {
		version = 1
	}

	for v := version; v < s.current(); v++ {
		next, err := s.steps[v-1](raw)
		if err != nil {
			return nil, v, false, errors.Wrapf(err, "migrate %s from v%d", key, v)
		}
		raw = next
	}
	return raw, s.current(), true, nil
}

// addActivityPoints gives every activity a numeric points field, 0 when absent
func addActivityPoints(raw []byte) ([]byte, error) {
	var rows []map[string]json.RawMessage
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, err
	}
	for _, row := range rows {
		var points float64
		if p, ok := row["points"]; !ok || string(p) == "null" || json.Unmarshal(p, &points) != nil {
			row["points"] = json.RawMessage("0")
		}
	}
	return json.Marshal(rows)
}

// stripTaskFields keeps only id, title and reward of each task
func stripTaskFields(raw []byte) ([]byte, error) {
	var rows []map[string]json.RawMessage
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, err
	}
	out := make([]map[string]json.RawMessage, 0, len(rows))
	for _, row := range rows {
		kept := make(map[string]json.RawMessage, 3)
		for _, field := range []string{"id", "title", "reward"} {
			if v, ok := row[field]; ok {
				kept[field] = v
			}
		}
		out = append(out, kept)
	}
	return json.Marshal(out)
}

func addWalletDigits(raw []byte) ([]byte, error) {
	var wallet map[string]json.RawMessage
	if err := json.Unmarshal(raw, &wallet); err != nil {
		return nil, err
	}
	if wallet == nil {
		wallet = map[string]json.RawMessage{}
	}
	if _, ok := wallet["digits"]; !ok {
		wallet["digits"] = json.RawMessage("0")
	}
	return json.Marshal(wallet)
}
