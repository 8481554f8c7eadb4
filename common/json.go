package common

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"unicode/utf8"

	"github.com/pkg/errors"
)

// Bytes is an opaque payload. Valid UTF-8 is rendered as a JSON string so
// that text payloads read naturally in serialized chains; anything else is
// rendered as {"hex":"..."} so that no byte is lost.
type Bytes []byte

type hexBytesJSON struct {
	Hex string `json:"hex"`
}

// MarshalJSON implements json.Marshaler.
func (b Bytes) MarshalJSON() ([]byte, error) {
	if utf8.Valid(b) {
		return json.Marshal(string(b))
	}
	return json.Marshal(hexBytesJSON{Hex: hex.EncodeToString(b)})
}

// UnmarshalJSON implements json.Unmarshaler.
func (b *Bytes) UnmarshalJSON(input []byte) error {
	input = bytes.TrimSpace(input)
	if len(input) == 0 {
		return errors.New("Bytes must not be empty")
	}
	if bytes.Equal(input, []byte("null")) {
		return nil
	}
	switch input[0] {
	case '"':
		var s string
		if err := json.Unmarshal(input, &s); err != nil {
			return err
		}
		*b = Bytes(s)
		return nil
	case '{':
		var h hexBytesJSON
		if err := json.Unmarshal(input, &h); err != nil {
			return err
		}
		raw, err := hex.DecodeString(h.Hex)
		if err != nil {
			return errors.Wrap(err, "Invalid hex payload")
		}
		*b = Bytes(raw)
		return nil
	}
	return errors.Errorf("Bytes must be formatted as string or {\"hex\":...}, got %s", input)
}

func (b Bytes) String() string {
	return string(b)
}
