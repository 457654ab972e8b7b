package core

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ID represents a domain identifier
type ID string

// patternNamespace scopes deterministic identifiers derived from analysis keys
var patternNamespace = uuid.MustParse("6f1c2a52-7d1b-4f0e-9a8e-3c5b1d2e4f60")

// NewID creates a new unique identifier using UUID v7 for time-ordered generation
func NewID() ID {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return ID(id.String())
}

// DeterministicID derives a stable identifier from a key, so recomputed
// analysis outputs keep the same id across runs.
func DeterministicID(key string) ID {
	return ID(uuid.NewSHA1(patternNamespace, []byte(key)).String())
}

// String returns the string representation
func (id ID) String() string {
	return string(id)
}

// IsEmpty checks if the ID is empty
func (id ID) IsEmpty() bool {
	return strings.TrimSpace(string(id)) == ""
}

// Domain-specific ID types
type (
	UserID       ID
	FoodID       ID
	TriggerID    ID
	MedicationID ID
	SymptomID    ID
	FlareID      ID
)

func (id UserID) String() string       { return string(id) }
func (id FoodID) String() string       { return string(id) }
func (id TriggerID) String() string    { return string(id) }
func (id MedicationID) String() string { return string(id) }
func (id SymptomID) String() string    { return string(id) }
func (id FlareID) String() string      { return string(id) }

// ParseUserID parses a string into UserID
func ParseUserID(s string) (UserID, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("user ID cannot be empty")
	}
	return UserID(strings.TrimSpace(s)), nil
}

// ParseSymptomID parses a string into SymptomID
func ParseSymptomID(s string) (SymptomID, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("symptom ID cannot be empty")
	}
	return SymptomID(strings.TrimSpace(s)), nil
}

// ParseFoodID parses a string into FoodID
func ParseFoodID(s string) (FoodID, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("food ID cannot be empty")
	}
	return FoodID(strings.TrimSpace(s)), nil
}
