package domain

import (
	"github.com/jmoiron/sqlx/types"
)

// NullJSON is a nullable jsonb column. SQL NULL scans to an invalid value,
// which is written back as NULL and encoded as JSON null.
type NullJSON struct {
	types.NullJSONText
}

func NewNullJSON(raw []byte) NullJSON {
	if len(raw) == 0 {
		return NullJSON{}
	}
	return NullJSON{types.NullJSONText{JSONText: types.JSONText(raw), Valid: true}}
}

// Bytes returns the raw document, or nil for NULL.
func (j NullJSON) Bytes() []byte {
	if !j.Valid {
		return nil
	}
	return []byte(j.JSONText)
}

func (j NullJSON) MarshalJSON() ([]byte, error) {
	if !j.Valid {
		return []byte("null"), nil
	}
	return j.JSONText.MarshalJSON()
}

func (j *NullJSON) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*j = NullJSON{}
		return nil
	}
	j.Valid = true
	return j.JSONText.UnmarshalJSON(data)
}
