package store

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// decode unmarshals a stored value into out. The web client computes some
// timestamps and amounts in floating point, so when a fractional number is
// the only obstacle the value is decoded again with every number truncated.
func decode(raw []byte, out interface{}) error {
	err := json.Unmarshal(raw, out)
	var typeErr *json.UnmarshalTypeError
	if err == nil || !errors.As(err, &typeErr) || !strings.HasPrefix(typeErr.Value, "number") {
		return err
	}

	whole, err := wholeNumbers(raw)
	if err != nil {
		return err
	}
	return json.Unmarshal(whole, out)
}

// wholeNumbers rewrites every non-integer JSON number in raw as an integer
// truncated toward zero.
func wholeNumbers(raw []byte) ([]byte, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v interface{}
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return json.Marshal(truncate(v))
}

func truncate(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		for k, e := range t {
			t[k] = truncate(e)
		}
	case []interface{}:
		for i, e := range t {
			t[i] = truncate(e)
		}
	case json.Number:
		if _, err := t.Int64(); err == nil {
			return t
		}
		if f, err := t.Float64(); err == nil {
			return json.Number(strconv.FormatInt(int64(f), 10))
		}
	}
	return v
}
