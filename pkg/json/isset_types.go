package json

import (
	"encoding/json"
)

// RequiredString is used as a JSON type
//
// The Set flag indicates whether an unmarshaling actually happened on the type,
// so request handlers can distinguish a missing field from an empty one
type RequiredString struct {
	Set    bool
	String string
}

func (r RequiredString) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.String)
}

func (r *RequiredString) UnmarshalJSON(raw []byte) error {
	if err := json.Unmarshal(raw, &r.String); err != nil {
		return err
	}
	r.Set = true
	return nil
}
