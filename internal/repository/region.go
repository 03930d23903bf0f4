package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/Capstone-E1/aquahealth_backend/internal/apperrors"
	"github.com/Capstone-E1/aquahealth_backend/internal/models"
	"github.com/Capstone-E1/aquahealth_backend/internal/store"
	"go.uber.org/zap"
)

// Collection names
const (
	DistrictsCollection = "districts"
	TaluksCollection    = "taluks"
	HoblisCollection    = "hoblis"
	VillagesCollection  = "villages"
)

type (
	DistrictRepository = Repository[models.District, *models.District]
	TalukRepository    = Repository[models.Taluk, *models.Taluk]
	HobliRepository    = Repository[models.Hobli, *models.Hobli]
	VillageRepository  = Repository[models.Village, *models.Village]
)

var byName = []store.Order{{Field: "name", Kind: store.KindString}}

func flagStats(groupBy ...string) StatsOptions {
	return StatsOptions{ActiveField: "is_active", ArchivedField: "is_archived", GroupBy: groupBy}
}

// Regions holds the four administrative-hierarchy repositories. Child repositories
// check that their parent references resolve before every write.
type Regions struct {
	Districts *DistrictRepository
	Taluks    *TalukRepository
	Hoblis    *HobliRepository
	Villages  *VillageRepository
	logger    *zap.Logger
}

// NewRegions wires the hierarchy over ds
func NewRegions(ds store.DocumentStore, logger *zap.Logger) *Regions {
	g := &Regions{logger: logger}

	g.Districts = New[models.District, *models.District](ds, Options[models.District]{
		Collection: DistrictsCollection,
		Resource:   "District",
		Plural:     "Districts",
		Order:      byName,
		Stats:      flagStats(),
	}, logger)

	g.Taluks = New[models.Taluk, *models.Taluk](ds, Options[models.Taluk]{
		Collection: TaluksCollection,
		Resource:   "Taluk",
		Plural:     "Taluks",
		Order:      byName,
		Stats:      flagStats("district"),
		Validate: func(ctx context.Context, t *models.Taluk) []string {
			return g.checkParent(ctx, g.Districts.Exists, "district", t.District)
		},
	}, logger)

	g.Hoblis = New[models.Hobli, *models.Hobli](ds, Options[models.Hobli]{
		Collection: HoblisCollection,
		Resource:   "Hobli",
		Plural:     "Hoblis",
		Order:      byName,
		Stats:      flagStats("district", "taluk"),
		Validate: func(ctx context.Context, h *models.Hobli) []string {
			errs := g.checkParent(ctx, g.Districts.Exists, "district", h.District)
			return append(errs, g.checkParent(ctx, g.Taluks.Exists, "taluk", h.Taluk)...)
		},
	}, logger)

	g.Villages = New[models.Village, *models.Village](ds, Options[models.Village]{
		Collection: VillagesCollection,
		Resource:   "Village",
		Plural:     "Villages",
		Order:      byName,
		Stats:      flagStats("district", "taluk", "hobli"),
		Validate: func(ctx context.Context, v *models.Village) []string {
			errs := g.checkParent(ctx, g.Districts.Exists, "district", v.District)
			errs = append(errs, g.checkParent(ctx, g.Taluks.Exists, "taluk", v.Taluk)...)
			return append(errs, g.checkParent(ctx, g.Hoblis.Exists, "hobli", v.Hobli)...)
		},
	}, logger)

	return g
}

// checkParent reports a reference that does not resolve. Blank references are left
// to the entity's own required-field rules.
func (g *Regions) checkParent(ctx context.Context, exists func(context.Context, string) (bool, error), kind, id string) []string {
	if strings.TrimSpace(id) == "" {
		return nil
	}
	ok, err := exists(ctx, id)
	if err != nil {
		g.logger.Warn("Could not verify parent reference", zap.String("kind", kind), zap.String("id", id), zap.Error(err))
		return []string{fmt.Sprintf("Could not verify %s reference", kind)}
	}
	if !ok {
		return []string{fmt.Sprintf("Referenced %s does not exist", kind)}
	}
	return nil
}

// ActiveChildren lists active entities whose parentField equals parentID, by name
func ActiveChildren[T any, PT interface {
	*T
	models.Entity
}](ctx context.Context, repo *Repository[T, PT], parentField, parentID string) ([]T, error) {
	return repo.List(ctx, []store.Filter{
		store.Where(parentField, store.OpEq, parentID),
		store.Where("is_active", store.OpEq, true),
	}, 0)
}

// VillageByCode returns the first village carrying code
func (g *Regions) VillageByCode(ctx context.Context, code string) (*models.Village, error) {
	villages, err := g.Villages.Find(ctx, store.Query{
		Filters: []store.Filter{store.Where("village_code", store.OpEq, code)},
		Limit:   1,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get village by code: %w", err)
	}
	if len(villages) == 0 {
		return nil, fmt.Errorf("failed to get village by code: %w", apperrors.NotFound("Village", code))
	}
	return &villages[0], nil
}

// resolve loads a parent document, keeping the bare id when the lookup fails
func resolve[T any, PT interface {
	*T
	models.Entity
}](ctx context.Context, logger *zap.Logger, repo *Repository[T, PT], id string) models.Ref[T] {
	if id == "" {
		return models.Reference[T](id)
	}
	parent, err := repo.Get(ctx, id)
	if err != nil {
		logger.Warn("Error populating reference", zap.String("id", id), zap.Error(err))
		return models.Reference[T](id)
	}
	return models.Resolved(id, parent)
}

// TalukExpanded returns the taluk with its district resolved
func (g *Regions) TalukExpanded(ctx context.Context, id string) (*models.TalukExpanded, error) {
	t, err := g.Taluks.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return &models.TalukExpanded{
		Taluk:    *t,
		District: resolve(ctx, g.logger, g.Districts, t.District),
	}, nil
}

// HobliExpanded returns the hobli with district and taluk resolved
func (g *Regions) HobliExpanded(ctx context.Context, id string) (*models.HobliExpanded, error) {
	h, err := g.Hoblis.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return &models.HobliExpanded{
		Hobli:    *h,
		District: resolve(ctx, g.logger, g.Districts, h.District),
		Taluk:    resolve(ctx, g.logger, g.Taluks, h.Taluk),
	}, nil
}

// VillageExpanded returns the village with every parent resolved
func (g *Regions) VillageExpanded(ctx context.Context, id string) (*models.VillageExpanded, error) {
	v, err := g.Villages.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return &models.VillageExpanded{
		Village:  *v,
		District: resolve(ctx, g.logger, g.Districts, v.District),
		Taluk:    resolve(ctx, g.logger, g.Taluks, v.Taluk),
		Hobli:    resolve(ctx, g.logger, g.Hoblis, v.Hobli),
	}, nil
}
