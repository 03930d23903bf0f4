package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a document id is absent from its collection.
var ErrNotFound = errors.New("document not found")

// ErrConflict is returned by Insert when the id is already taken.
var ErrConflict = errors.New("document already exists")

// Document is the JSON object form of an entity.
type Document map[string]any

// Op is a filter comparison operator
type Op string

const (
	OpEq  Op = "eq"
	OpGt  Op = "gt"
	OpGte Op = "gte"
	OpLt  Op = "lt"
	OpLte Op = "lte"
)

// Kind tells an engine how to compare a field's values
type Kind string

const (
	KindString Kind = "string"
	KindNumber Kind = "number"
	KindTime   Kind = "time"
	KindBool   Kind = "bool"
)

// Filter restricts a query to documents whose Field compares to Value by Op.
// The comparison kind follows the Go type of Value.
type Filter struct {
	Field string
	Op    Op
	Value any
}

// Order sorts query results by one field.
type Order struct {
	Field string
	Desc  bool
	Kind  Kind
}

// Query is a conjunction of filters, an ordering and an optional limit (0 means no limit).
// Documents that tie on every order field keep insertion order.
type Query struct {
	Filters []Filter
	Order   []Order
	Limit   int
}

// Where builds a Filter.
func Where(field string, op Op, value any) Filter {
	return Filter{Field: field, Op: op, Value: value}
}

// Collection is a named set of documents keyed by id.
type Collection interface {
	Insert(ctx context.Context, id string, doc Document) error
	Get(ctx context.Context, id string) (Document, error)
	// Replace overwrites the whole document.
	Replace(ctx context.Context, id string, doc Document) error
	// Patch overwrites only the given top-level fields.
	Patch(ctx context.Context, id string, fields Document) error
	Delete(ctx context.Context, id string) error
	Find(ctx context.Context, q Query) ([]Document, error)
	Count(ctx context.Context, filters ...Filter) (int, error)
}

// DocumentStore defines the interface for document storage engines
type DocumentStore interface {
	Collection(name string) Collection
	Ping(ctx context.Context) error
	Close() error
}

// KindOf reports the comparison kind for a filter value.
func KindOf(v any) Kind {
	switch v.(type) {
	case bool:
		return KindBool
	case time.Time:
		return KindTime
	case int, int32, int64, float32, float64:
		return KindNumber
	default:
		return KindString
	}
}

// ToFloat converts the numeric filter values accepted by KindNumber.
func ToFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}
