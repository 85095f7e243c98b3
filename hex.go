package txtoolkit

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// HexBytes is a byte string carried over the wire as a lowercase hex string.
type HexBytes []byte

// ParseHex decodes a hex string, accepting either case.
func ParseHex(s string) (HexBytes, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid hex string: %w", err)
	}
	return HexBytes(b), nil
}

// MustParseHex is ParseHex for constants; it panics on malformed input.
func MustParseHex(s string) HexBytes {
	b, err := ParseHex(s)
	if err != nil {
		panic(err)
	}
	return b
}

func (h HexBytes) String() string {
	return hex.EncodeToString(h)
}

func (h HexBytes) MarshalJSON() ([]byte, error) {
	return json.Marshal(hex.EncodeToString(h))
}

func (h *HexBytes) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("hex bytes: %w", err)
	}
	b, err := ParseHex(s)
	if err != nil {
		return err
	}
	*h = b
	return nil
}
