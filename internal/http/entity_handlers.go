package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/Capstone-E1/aquahealth_backend/internal/models"
	"github.com/Capstone-E1/aquahealth_backend/internal/repository"
	"github.com/Capstone-E1/aquahealth_backend/internal/store"
	"github.com/go-chi/chi/v5"
)

// queryFilter turns one list query parameter into an equality filter
type queryFilter struct {
	field string
	parse func(string) (any, bool)
}

func stringFilter(field string) queryFilter {
	return queryFilter{field: field, parse: func(v string) (any, bool) { return v, true }}
}

func boolFilter(field string) queryFilter {
	return queryFilter{field: field, parse: func(v string) (any, bool) {
		b, err := strconv.ParseBool(v)
		return b, err == nil
	}}
}

// entityHandlers serves the CRUD routes of one entity type
type entityHandlers[T any, PT interface {
	*T
	models.Entity
}] struct {
	s         *Server
	repo      *repository.Repository[T, PT]
	newEntity func() *T
	singular  string
	plural    string
	filters   []queryFilter
	// expanded serves ?populate=true; nil when the entity has no parents
	expanded func(ctx context.Context, id string) (any, error)
}

func newEntityHandlers[T any, PT interface {
	*T
	models.Entity
}](s *Server, repo *repository.Repository[T, PT], newEntity func() *T, singular, plural string, filters ...queryFilter) *entityHandlers[T, PT] {
	return &entityHandlers[T, PT]{
		s:         s,
		repo:      repo,
		newEntity: newEntity,
		singular:  singular,
		plural:    plural,
		filters:   filters,
	}
}

func expandWith[E any](fn func(ctx context.Context, id string) (*E, error)) func(ctx context.Context, id string) (any, error) {
	return func(ctx context.Context, id string) (any, error) {
		return fn(ctx, id)
	}
}

func (h *entityHandlers[T, PT]) singularLower() string { return strings.ToLower(h.singular) }
func (h *entityHandlers[T, PT]) pluralLower() string   { return strings.ToLower(h.plural) }

func (h *entityHandlers[T, PT]) create(w http.ResponseWriter, r *http.Request) {
	entity := h.newEntity()
	if err := json.NewDecoder(r.Body).Decode(entity); err != nil {
		h.s.sendErrorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	created, err := h.repo.Create(r.Context(), entity)
	if err != nil {
		h.s.sendError(w, r, err, "Failed to create "+h.singularLower())
		return
	}
	h.s.sendSuccess(w, http.StatusCreated, h.singular+" created successfully", created)
}

func (h *entityHandlers[T, PT]) list(w http.ResponseWriter, r *http.Request) {
	var filters []store.Filter
	q := r.URL.Query()
	for _, f := range h.filters {
		raw := q.Get(f.field)
		if raw == "" {
			continue
		}
		v, ok := f.parse(raw)
		if !ok {
			h.s.sendErrorResponse(w, http.StatusBadRequest, "Invalid value for "+f.field)
			return
		}
		filters = append(filters, store.Where(f.field, store.OpEq, v))
	}

	items, err := h.repo.List(r.Context(), filters, queryInt(r, "limit", 0))
	if err != nil {
		h.s.sendError(w, r, err, "Failed to fetch "+h.pluralLower())
		return
	}
	sendList(w, h.plural+" retrieved successfully", items)
}

func (h *entityHandlers[T, PT]) get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var (
		item any
		err  error
	)
	if h.expanded != nil && r.URL.Query().Get("populate") == "true" {
		item, err = h.expanded(r.Context(), id)
	} else {
		item, err = h.repo.Get(r.Context(), id)
	}
	if err != nil {
		h.s.sendError(w, r, err, "Failed to fetch "+h.singularLower())
		return
	}
	h.s.sendSuccess(w, http.StatusOK, h.singular+" retrieved successfully", item)
}

func (h *entityHandlers[T, PT]) update(w http.ResponseWriter, r *http.Request) {
	var patch map[string]any
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		h.s.sendErrorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	updated, err := h.repo.Update(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		h.s.sendError(w, r, err, "Failed to update "+h.singularLower())
		return
	}
	h.s.sendSuccess(w, http.StatusOK, h.singular+" updated successfully", updated)
}

func (h *entityHandlers[T, PT]) remove(w http.ResponseWriter, r *http.Request) {
	if err := h.repo.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.s.sendError(w, r, err, "Failed to delete "+h.singularLower())
		return
	}
	h.s.sendSuccess(w, http.StatusOK, h.singular+" deleted successfully", nil)
}

func (h *entityHandlers[T, PT]) search(w http.ResponseWriter, r *http.Request) {
	items, err := h.repo.Search(r.Context(), chi.URLParam(r, "term"))
	if err != nil {
		h.s.sendError(w, r, err, "Failed to search "+h.pluralLower())
		return
	}
	sendList(w, h.plural+" search completed", items)
}

func (h *entityHandlers[T, PT]) stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.repo.Stats(r.Context())
	if err != nil {
		h.s.sendError(w, r, err, "Failed to get "+h.singularLower()+" statistics")
		return
	}
	h.s.sendSuccess(w, http.StatusOK, h.singular+" statistics retrieved successfully", stats)
}

func (h *entityHandlers[T, PT]) setFlag(field string, value bool, verb string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := h.repo.SetFlag(r.Context(), chi.URLParam(r, "id"), field, value); err != nil {
			h.s.sendError(w, r, err, "Failed to update "+h.singularLower())
			return
		}
		h.s.sendSuccess(w, http.StatusOK, h.singular+" "+verb+" successfully", nil)
	}
}

func (s *Server) getVillageByCode(w http.ResponseWriter, r *http.Request) {
	village, err := s.regions.VillageByCode(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		s.sendError(w, r, err, "Failed to fetch village")
		return
	}
	s.sendSuccess(w, http.StatusOK, "Village retrieved successfully", village)
}

func (s *Server) getUsersByLocation(w http.ResponseWriter, r *http.Request) {
	users, err := repository.UsersByDistrict(r.Context(), s.users, chi.URLParam(r, "district"))
	if err != nil {
		s.sendError(w, r, err, "Failed to fetch users")
		return
	}
	sendList(w, "Users retrieved successfully", users)
}
