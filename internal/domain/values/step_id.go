package values

import (
	"database/sql/driver"
	"fmt"
	"strings"
)

// StepID uniquely identifies a workflow step within a blueprint.
// Enforces non-empty, trimmed identifiers.
type StepID struct {
	value string
}

// NewStepID creates a new StepID with validation.
func NewStepID(id string) (StepID, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return StepID{}, fmt.Errorf("step id cannot be empty")
	}
	return StepID{value: id}, nil
}

// MustNewStepID creates a StepID or panics (for tests/constants).
func MustNewStepID(id string) StepID {
	sid, err := NewStepID(id)
	if err != nil {
		panic(err)
	}
	return sid
}

// String returns the string representation.
func (s StepID) String() string {
	return s.value
}

// IsEmpty returns true if this is the zero value.
func (s StepID) IsEmpty() bool {
	return s.value == ""
}

// Equals checks if two StepIDs are equal.
func (s StepID) Equals(other StepID) bool {
	return s.value == other.value
}

// MarshalJSON implements json.Marshaler.
func (s StepID) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.value + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *StepID) UnmarshalJSON(data []byte) error {
	str := string(data)
	if len(str) < 2 {
		return fmt.Errorf("invalid step id JSON")
	}
	str = str[1 : len(str)-1]

	id, err := NewStepID(str)
	if err != nil {
		return err
	}
	*s = id
	return nil
}

// Value implements driver.Valuer for database/sql.
func (s StepID) Value() (driver.Value, error) {
	return s.value, nil
}

// Scan implements sql.Scanner for database/sql.
func (s *StepID) Scan(value interface{}) error {
	if value == nil {
		*s = StepID{}
		return nil
	}

	switch v := value.(type) {
	case string:
		id, err := NewStepID(v)
		if err != nil {
			return err
		}
		*s = id
		return nil
	case []byte:
		id, err := NewStepID(string(v))
		if err != nil {
			return err
		}
		*s = id
		return nil
	default:
		return fmt.Errorf("cannot scan %T into StepID", value)
	}
}
