package transport

import (
	"encoding/json"
	"time"
)

// OptionalTime distinguishes an absent JSON field from an explicit null.
// Set is true whenever the field appeared in the payload; a null value
// leaves Value nil, which callers read as "clear".
type OptionalTime struct {
	Value *time.Time
	Set   bool
}

func (o OptionalTime) IsZero() bool {
	return !o.Set
}

func (o *OptionalTime) UnmarshalJSON(data []byte) error {
	o.Set = true
	if string(data) == "null" {
		o.Value = nil
		return nil
	}

	var parsed time.Time
	if err := json.Unmarshal(data, &parsed); err != nil {
		return err
	}

	o.Value = &parsed
	return nil
}
