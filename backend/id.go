package backend

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ID is an identifier sent by the backend either as a JSON number or string.
type ID string

func (id *ID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("id %s is neither string nor number", b)
	}
	*id = ID(n.String())
	return nil
}

func (id ID) String() string { return string(id) }
