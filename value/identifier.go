package value

import (
	"bytes"
	"encoding/json"
	"strconv"

	"github.com/wippyai/transaction-toolkit/errors"
)

// Identifier names a transient bucket or proof within a manifest. It is
// either a string or a number; numbers are taken as-is without bounds
// checks, leaving range enforcement to the manifest compiler.
type Identifier struct {
	str   string
	num   int64
	isNum bool
}

// ID builds an Identifier from a string or an integer.
func ID[T string | int | int32 | int64 | uint32](v T) Identifier {
	switch x := any(v).(type) {
	case string:
		return Identifier{str: x}
	case int:
		return Identifier{num: int64(x), isNum: true}
	case int32:
		return Identifier{num: int64(x), isNum: true}
	case int64:
		return Identifier{num: x, isNum: true}
	case uint32:
		return Identifier{num: int64(x), isNum: true}
	}
	return Identifier{}
}

// IsNumber reports whether the identifier is numeric.
func (id Identifier) IsNumber() bool { return id.isNum }

// Number returns the numeric form; ok is false for string identifiers.
func (id Identifier) Number() (n int64, ok bool) { return id.num, id.isNum }

func (id Identifier) String() string {
	if id.isNum {
		return strconv.FormatInt(id.num, 10)
	}
	return id.str
}

func (id Identifier) MarshalJSON() ([]byte, error) {
	if id.isNum {
		return []byte(strconv.FormatInt(id.num, 10)), nil
	}
	return json.Marshal(id.str)
}

func (id *Identifier) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return errors.Deserialization(errors.PhaseDecode, nil, err)
		}
		*id = Identifier{str: s}
		return nil
	}
	n, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return errors.InvalidInput(errors.PhaseDecode, "identifier must be a string or an integer, got "+string(data))
	}
	*id = Identifier{num: n, isNum: true}
	return nil
}
