package workload

import (
	"encoding/json"
	"strconv"
)

// Value is what a variable holds: an integer or a string.
type Value struct {
	Int      int64
	Str      string
	IsString bool
}

// IntValue wraps an integer.
func IntValue(v int64) Value {
	return Value{Int: v}
}

// StringValue wraps a string.
func StringValue(s string) Value {
	return Value{Str: s, IsString: true}
}

func (v Value) String() string {
	if v.IsString {
		return strconv.Quote(v.Str)
	}

	return strconv.FormatInt(v.Int, 10)
}

func (v Value) kind() string {
	if v.IsString {
		return "string"
	}

	return "integer"
}

// MarshalJSON writes a JSON string or a JSON number.
func (v Value) MarshalJSON() ([]byte, error) {
	if v.IsString {
		return json.Marshal(v.Str)
	}

	return json.Marshal(v.Int)
}

// UnmarshalJSON accepts a JSON string or a JSON number.
func (v *Value) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*v = StringValue(s)
		return nil
	}

	var n int64
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}

	*v = IntValue(n)

	return nil
}
