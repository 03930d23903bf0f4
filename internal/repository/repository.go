// Package repository implements validated CRUD over the document store for every
// entity type.
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Capstone-E1/aquahealth_backend/internal/apperrors"
	"github.com/Capstone-E1/aquahealth_backend/internal/models"
	"github.com/Capstone-E1/aquahealth_backend/internal/store"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// prefixSuffix bounds a name prefix search from above
const prefixSuffix = "\uf8ff"

// Options configures a Repository for one entity type
type Options[T any] struct {
	Collection string
	// Resource is the singular display name, e.g. "District"
	Resource string
	// Plural is used in error prefixes and stats keys, e.g. "Districts"
	Plural string
	Order  []store.Order
	// Validate adds rules that need the store, such as parent existence
	Validate func(ctx context.Context, v *T) []string
	Stats    StatsOptions
}

// StatsOptions selects the flag fields counted by Stats and the fields grouped by
type StatsOptions struct {
	ActiveField   string
	ArchivedField string
	GroupBy       []string
}

// Repository is the validate-then-persist CRUD contract shared by every entity
type Repository[T any, PT interface {
	*T
	models.Entity
}] struct {
	col    store.Collection
	opts   Options[T]
	logger *zap.Logger
	now    func() time.Time
	newID  func() string
}

// New creates a repository over the named collection of ds
func New[T any, PT interface {
	*T
	models.Entity
}](ds store.DocumentStore, opts Options[T], logger *zap.Logger) *Repository[T, PT] {
	return &Repository[T, PT]{
		col:    ds.Collection(opts.Collection),
		opts:   opts,
		logger: logger,
		now:    time.Now,
		newID:  uuid.NewString,
	}
}

func (r *Repository[T, PT]) singular() string { return strings.ToLower(r.opts.Resource) }
func (r *Repository[T, PT]) plural() string   { return strings.ToLower(r.opts.Plural) }

func (r *Repository[T, PT]) notFound(id string, err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return apperrors.NotFound(r.opts.Resource, id)
	}
	return err
}

func (r *Repository[T, PT]) validate(ctx context.Context, v *T) error {
	if n, ok := any(v).(models.Normalizer); ok {
		n.Normalize()
	}
	violations := PT(v).Validate()
	if r.opts.Validate != nil {
		violations = append(violations, r.opts.Validate(ctx, v)...)
	}
	return apperrors.NewValidationError(violations)
}

// Create validates v, assigns an id and timestamps, and persists it
func (r *Repository[T, PT]) Create(ctx context.Context, v *T) (*T, error) {
	if err := r.validate(ctx, v); err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", r.singular(), err)
	}

	PT(v).SetID(r.newID())
	PT(v).Touch(r.now(), true)

	doc, err := toDocument(v)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", r.singular(), err)
	}
	if err := r.col.Insert(ctx, PT(v).GetID(), doc); err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", r.singular(), err)
	}
	return v, nil
}

// Get returns the entity stored under id
func (r *Repository[T, PT]) Get(ctx context.Context, id string) (*T, error) {
	doc, err := r.col.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get %s: %w", r.singular(), r.notFound(id, err))
	}
	v, err := fromDocument[T](doc)
	if err != nil {
		return nil, fmt.Errorf("failed to get %s: %w", r.singular(), err)
	}
	return v, nil
}

// Exists reports whether id is stored
func (r *Repository[T, PT]) Exists(ctx context.Context, id string) (bool, error) {
	_, err := r.col.Get(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

// List applies equality filters with the repository's default ordering
func (r *Repository[T, PT]) List(ctx context.Context, filters []store.Filter, limit int) ([]T, error) {
	items, err := r.Find(ctx, store.Query{Filters: filters, Order: r.opts.Order, Limit: limit})
	if err != nil {
		return nil, fmt.Errorf("failed to get %s: %w", r.plural(), err)
	}
	return items, nil
}

// Find runs an arbitrary query and decodes the results
func (r *Repository[T, PT]) Find(ctx context.Context, q store.Query) ([]T, error) {
	docs, err := r.col.Find(ctx, q)
	if err != nil {
		return nil, err
	}

	items := make([]T, 0, len(docs))
	for _, doc := range docs {
		v, err := fromDocument[T](doc)
		if err != nil {
			r.logger.Warn("Skipping undecodable document",
				zap.String("collection", r.opts.Collection), zap.Any("id", doc["id"]), zap.Error(err))
			continue
		}
		items = append(items, *v)
	}
	return items, nil
}

// Update merges patch into the stored document and re-validates the result
func (r *Repository[T, PT]) Update(ctx context.Context, id string, patch map[string]any) (*T, error) {
	doc, err := r.col.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to update %s: %w", r.singular(), r.notFound(id, err))
	}

	for k, val := range patch {
		switch k {
		case "id", "createdAt":
			// identity and creation time are immutable
		default:
			doc[k] = val
		}
	}

	v, err := fromDocument[T](doc)
	if err != nil {
		return nil, fmt.Errorf("failed to update %s: %w",
			r.singular(), apperrors.NewValidationError([]string{"Invalid field value: " + err.Error()}))
	}
	if err := r.validate(ctx, v); err != nil {
		return nil, fmt.Errorf("failed to update %s: %w", r.singular(), err)
	}
	PT(v).Touch(r.now(), false)

	merged, err := toDocument(v)
	if err != nil {
		return nil, fmt.Errorf("failed to update %s: %w", r.singular(), err)
	}
	if err := r.col.Replace(ctx, id, merged); err != nil {
		return nil, fmt.Errorf("failed to update %s: %w", r.singular(), r.notFound(id, err))
	}
	return v, nil
}

// Delete removes id permanently
func (r *Repository[T, PT]) Delete(ctx context.Context, id string) error {
	if err := r.col.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete %s: %w", r.singular(), r.notFound(id, err))
	}
	return nil
}

// Search returns entities whose name starts with term
func (r *Repository[T, PT]) Search(ctx context.Context, term string) ([]T, error) {
	items, err := r.Find(ctx, store.Query{
		Filters: []store.Filter{
			store.Where("name", store.OpGte, term),
			store.Where("name", store.OpLte, term+prefixSuffix),
		},
		Order: []store.Order{{Field: "name", Kind: store.KindString}},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to search %s: %w", r.plural(), err)
	}
	return items, nil
}

// SetFlag flips one boolean field and bumps updatedAt
func (r *Repository[T, PT]) SetFlag(ctx context.Context, id, field string, value bool) error {
	err := r.col.Patch(ctx, id, store.Document{
		field:       value,
		"updatedAt": r.now(),
	})
	if err != nil {
		return fmt.Errorf("failed to update %s: %w", r.singular(), r.notFound(id, err))
	}
	return nil
}

// Stats counts totals and flags, and scans the collection only for parent groups
func (r *Repository[T, PT]) Stats(ctx context.Context) (map[string]any, error) {
	so := r.opts.Stats
	count := func(filters ...store.Filter) (int, error) {
		n, err := r.col.Count(ctx, filters...)
		if err != nil {
			return 0, fmt.Errorf("failed to get %s statistics: %w", r.singular(), err)
		}
		return n, nil
	}

	total, err := count()
	if err != nil {
		return nil, err
	}
	active, err := count(store.Where(so.ActiveField, store.OpEq, true))
	if err != nil {
		return nil, err
	}

	stats := map[string]any{
		"total" + r.opts.Plural:  total,
		"active" + r.opts.Plural: active,
	}
	if so.ArchivedField != "" {
		archived, err := count(store.Where(so.ArchivedField, store.OpEq, true))
		if err != nil {
			return nil, err
		}
		stats["archived"+r.opts.Plural] = archived
	} else {
		stats["inactive"+r.opts.Plural] = total - active
	}

	if len(so.GroupBy) == 0 {
		return stats, nil
	}
	docs, err := r.col.Find(ctx, store.Query{})
	if err != nil {
		return nil, fmt.Errorf("failed to get %s statistics: %w", r.singular(), err)
	}
	for _, field := range so.GroupBy {
		counts := make(map[string]int)
		for _, doc := range docs {
			if key, _ := doc[field].(string); key != "" {
				counts[key]++
			}
		}
		stats[field+"Stats"] = counts
	}
	return stats, nil
}

func toDocument(v any) (store.Document, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode document: %w", err)
	}
	var doc store.Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("failed to encode document: %w", err)
	}
	return doc, nil
}

func fromDocument[T any](doc store.Document) (*T, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	v := new(T)
	if err := json.Unmarshal(raw, v); err != nil {
		return nil, err
	}
	return v, nil
}
