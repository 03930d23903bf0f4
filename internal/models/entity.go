package models

import (
	"encoding/json"
	"strings"
	"time"
)

// Entity is implemented by every persisted document type
type Entity interface {
	GetID() string
	SetID(id string)
	// Touch stamps the entity; created is true the first time it is persisted.
	Touch(now time.Time, created bool)
	// Validate returns every violated field rule
	Validate() []string
}

// Normalizer is implemented by entities that derive fields before validation
type Normalizer interface {
	Normalize()
}

// Ref is a parent reference that is either a bare id or the resolved parent document.
type Ref[T any] struct {
	ID    string
	Value *T
}

// Reference builds an unresolved Ref
func Reference[T any](id string) Ref[T] {
	return Ref[T]{ID: id}
}

// Resolved builds a Ref holding the parent document
func Resolved[T any](id string, value *T) Ref[T] {
	return Ref[T]{ID: id, Value: value}
}

// IsResolved reports whether the parent document was loaded
func (r Ref[T]) IsResolved() bool {
	return r.Value != nil
}

// MarshalJSON writes the parent document when resolved and the id otherwise
func (r Ref[T]) MarshalJSON() ([]byte, error) {
	if r.Value != nil {
		return json.Marshal(r.Value)
	}
	return json.Marshal(r.ID)
}

// UnmarshalJSON accepts either form MarshalJSON produces
func (r *Ref[T]) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		r.Value = nil
		return json.Unmarshal(data, &r.ID)
	}
	if string(data) == "null" {
		*r = Ref[T]{}
		return nil
	}

	var value T
	if err := json.Unmarshal(data, &value); err != nil {
		return err
	}
	var withID struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(data, &withID); err != nil {
		return err
	}
	r.ID = withID.ID
	r.Value = &value
	return nil
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}
