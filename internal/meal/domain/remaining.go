package domain

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strconv"
)

// RemainingServings is either Tracked with a value or Untracked. Untracked
// meals predate servings tracking; they are stored as NULL and every
// consumption against them is allowed without touching a counter. The zero
// value is Untracked.
type RemainingServings struct {
	value   float64
	tracked bool
}

func Tracked(v float64) RemainingServings {
	return RemainingServings{value: v, tracked: true}
}

func Untracked() RemainingServings {
	return RemainingServings{}
}

func (r RemainingServings) IsTracked() bool { return r.tracked }

// Get returns the tracked value and whether the meal is tracked at all.
func (r RemainingServings) Get() (float64, bool) {
	return r.value, r.tracked
}

func (r RemainingServings) String() string {
	if !r.tracked {
		return "untracked"
	}
	return strconv.FormatFloat(r.value, 'f', -1, 64)
}

func (RemainingServings) GormDataType() string { return "float" }

func (r RemainingServings) Value() (driver.Value, error) {
	if !r.tracked {
		return nil, nil
	}
	return r.value, nil
}

func (r *RemainingServings) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*r = Untracked()
	case float64:
		*r = Tracked(v)
	case float32:
		*r = Tracked(float64(v))
	case int64:
		*r = Tracked(float64(v))
	case []byte:
		return r.parse(string(v))
	case string:
		return r.parse(v)
	default:
		return fmt.Errorf("servings_remaining: unsupported type %T", src)
	}
	return nil
}

func (r *RemainingServings) parse(raw string) error {
	if raw == "" {
		*r = Untracked()
		return nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fmt.Errorf("servings_remaining: %w", err)
	}
	*r = Tracked(f)
	return nil
}

func (r RemainingServings) MarshalJSON() ([]byte, error) {
	if !r.tracked {
		return []byte("null"), nil
	}
	return json.Marshal(r.value)
}

func (r *RemainingServings) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*r = Untracked()
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*r = Tracked(f)
	return nil
}
