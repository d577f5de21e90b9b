package json

import (
	j "encoding/json"
	"testing"
)

func TestUnmarshalString(t *testing.T) {
	tT := &struct {
		A RequiredString
		B string
	}{}
	jsonStr := []byte(`{}`)
	err := j.Unmarshal(jsonStr, tT)
	if err != nil {
		t.Error(err)
	}
	if tT.A.Set {
		t.Error("Expect A not to be set.")
	}
	if tT.B != "" {
		t.Error("Expect B to be empty.")
	}
	jsonStr = []byte(`{"A":"", "B":"x"}`)
	err = j.Unmarshal(jsonStr, tT)
	if err != nil {
		t.Error(err)
	}
	if !tT.A.Set {
		t.Error("Expect A to be set.")
	}
	if tT.A.String != "" {
		t.Errorf("Expect A to be empty, got %q", tT.A.String)
	}
	if tT.B != "x" {
		t.Errorf("Expect B to be %q, got %q", "x", tT.B)
	}
}
