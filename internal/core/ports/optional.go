package ports

import "encoding/json"

// Optional is a JSON field that distinguishes three states: absent from the
// request body, explicitly null, and present with a value. Partial updates
// need all three, since an omitted field must stay untouched while an
// explicit null clears a nullable column.
type Optional[T any] struct {
	Set   bool
	Valid bool
	Value T
}

func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	o.Set = true
	if string(data) == "null" {
		return nil
	}
	if err := json.Unmarshal(data, &o.Value); err != nil {
		return err
	}
	o.Valid = true
	return nil
}

func (o Optional[T]) MarshalJSON() ([]byte, error) {
	if !o.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(o.Value)
}
