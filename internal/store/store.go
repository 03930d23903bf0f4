package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

// Store is an in-memory DocumentStore. Documents are held as encoded JSON so callers
// never share mutable state with the store.
type Store struct {
	mu          sync.RWMutex
	collections map[string]*memCollection
}

type memCollection struct {
	mu   sync.RWMutex
	ids  []string // insertion order
	docs map[string][]byte
}

// NewStore creates a new in-memory store
func NewStore() *Store {
	return &Store{collections: make(map[string]*memCollection)}
}

// Collection returns the named collection, creating it on first use
func (s *Store) Collection(name string) Collection {
	s.mu.RLock()
	c, ok := s.collections[name]
	s.mu.RUnlock()
	if ok {
		return c
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok = s.collections[name]; !ok {
		c = &memCollection{docs: make(map[string][]byte)}
		s.collections[name] = c
	}
	return c
}

// Ping always succeeds for the in-memory store
func (s *Store) Ping(ctx context.Context) error { return ctx.Err() }

// Close is a no-op
func (s *Store) Close() error { return nil }

func (c *memCollection) Insert(ctx context.Context, id string, doc Document) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode document: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.docs[id]; exists {
		return ErrConflict
	}
	c.docs[id] = raw
	c.ids = append(c.ids, id)
	return nil
}

func (c *memCollection) Get(ctx context.Context, id string) (Document, error) {
	c.mu.RLock()
	raw, ok := c.docs[id]
	c.mu.RUnlock()

	if !ok {
		return nil, ErrNotFound
	}
	return decode(raw)
}

func (c *memCollection) Replace(ctx context.Context, id string, doc Document) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode document: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.docs[id]; !ok {
		return ErrNotFound
	}
	c.docs[id] = raw
	return nil
}

func (c *memCollection) Patch(ctx context.Context, id string, fields Document) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	raw, ok := c.docs[id]
	if !ok {
		return ErrNotFound
	}
	doc, err := decode(raw)
	if err != nil {
		return err
	}
	for k, v := range fields {
		doc[k] = v
	}
	if raw, err = json.Marshal(doc); err != nil {
		return fmt.Errorf("failed to encode document: %w", err)
	}
	c.docs[id] = raw
	return nil
}

func (c *memCollection) Delete(ctx context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.docs[id]; !ok {
		return ErrNotFound
	}
	delete(c.docs, id)
	for i, existing := range c.ids {
		if existing == id {
			c.ids = append(c.ids[:i], c.ids[i+1:]...)
			break
		}
	}
	return nil
}

func (c *memCollection) Find(ctx context.Context, q Query) ([]Document, error) {
	c.mu.RLock()
	result := make([]Document, 0)
	for _, id := range c.ids {
		doc, err := decode(c.docs[id])
		if err != nil {
			c.mu.RUnlock()
			return nil, err
		}
		if matchesAll(doc, q.Filters) {
			result = append(result, doc)
		}
	}
	c.mu.RUnlock()

	if len(q.Order) > 0 {
		sort.SliceStable(result, func(i, j int) bool {
			for _, o := range q.Order {
				cmp := compareField(result[i][o.Field], result[j][o.Field], o.Kind)
				if cmp == 0 {
					continue
				}
				if o.Desc {
					return cmp > 0
				}
				return cmp < 0
			}
			return false
		})
	}

	if q.Limit > 0 && len(result) > q.Limit {
		result = result[:q.Limit]
	}
	return result, nil
}

func (c *memCollection) Count(ctx context.Context, filters ...Filter) (int, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if len(filters) == 0 {
		return len(c.ids), nil
	}
	n := 0
	for _, id := range c.ids {
		doc, err := decode(c.docs[id])
		if err != nil {
			return 0, err
		}
		if matchesAll(doc, filters) {
			n++
		}
	}
	return n, nil
}

func decode(raw []byte) (Document, error) {
	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode document: %w", err)
	}
	return doc, nil
}

func matchesAll(doc Document, filters []Filter) bool {
	for _, f := range filters {
		if !matches(doc, f) {
			return false
		}
	}
	return true
}

func matches(doc Document, f Filter) bool {
	field, ok := doc[f.Field]
	if !ok || field == nil {
		return false
	}

	kind := KindOf(f.Value)
	value := f.Value
	if kind == KindBool {
		// booleans only support equality
		b, ok := field.(bool)
		return ok && f.Op == OpEq && b == value.(bool)
	}
	if _, ok := normalize(field, kind); !ok {
		return false
	}

	cmp := compareField(field, value, kind)
	switch f.Op {
	case OpEq:
		return cmp == 0
	case OpGt:
		return cmp > 0
	case OpGte:
		return cmp >= 0
	case OpLt:
		return cmp < 0
	case OpLte:
		return cmp <= 0
	}
	return false
}

// normalize converts a document or filter value to its kind's Go representation.
func normalize(v any, kind Kind) (any, bool) {
	switch kind {
	case KindNumber:
		return ToFloat(v)
	case KindTime:
		switch t := v.(type) {
		case time.Time:
			return t, true
		case string:
			parsed, err := time.Parse(time.RFC3339Nano, t)
			return parsed, err == nil
		}
	case KindBool:
		b, ok := v.(bool)
		return b, ok
	default:
		s, ok := v.(string)
		return s, ok
	}
	return nil, false
}

// compareField orders two values of the same kind. Values that cannot be read as the
// kind sort before those that can.
func compareField(a, b any, kind Kind) int {
	av, aok := normalize(a, kind)
	bv, bok := normalize(b, kind)
	switch {
	case !aok && !bok:
		return 0
	case !aok:
		return -1
	case !bok:
		return 1
	}

	switch kind {
	case KindNumber:
		x, y := av.(float64), bv.(float64)
		switch {
		case x < y:
			return -1
		case x > y:
			return 1
		}
		return 0
	case KindTime:
		return av.(time.Time).Compare(bv.(time.Time))
	case KindBool:
		x, y := av.(bool), bv.(bool)
		switch {
		case x == y:
			return 0
		case !x:
			return -1
		}
		return 1
	default:
		return strings.Compare(av.(string), bv.(string))
	}
}
