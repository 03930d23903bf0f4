package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Capstone-E1/aquahealth_backend/internal/apperrors"
	"github.com/Capstone-E1/aquahealth_backend/internal/models"
	"github.com/Capstone-E1/aquahealth_backend/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupRegions(t *testing.T) (*store.Store, *Regions) {
	t.Helper()
	ds := store.NewStore()
	return ds, NewRegions(ds, zap.NewNop())
}

func createDistrict(t *testing.T, g *Regions, name string) *models.District {
	t.Helper()
	d := models.NewDistrict()
	d.Name = name
	created, err := g.Districts.Create(context.Background(), d)
	require.NoError(t, err)
	return created
}

func createTaluk(t *testing.T, g *Regions, name, districtID string) *models.Taluk {
	t.Helper()
	tk := models.NewTaluk()
	tk.Name = name
	tk.District = districtID
	created, err := g.Taluks.Create(context.Background(), tk)
	require.NoError(t, err)
	return created
}

func TestCreate_AssignsIDAndTimestamps(t *testing.T) {
	_, g := setupRegions(t)
	fixed := time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)
	g.Districts.now = func() time.Time { return fixed }

	d := createDistrict(t, g, "Mysuru")

	assert.NotEmpty(t, d.ID)
	assert.Equal(t, fixed, d.CreatedAt)
	assert.Equal(t, fixed, d.UpdatedAt)
	assert.True(t, d.IsActive)

	got, err := g.Districts.Get(context.Background(), d.ID)
	require.NoError(t, err)
	assert.Equal(t, "Mysuru", got.Name)
	assert.True(t, got.CreatedAt.Equal(fixed))
}

func TestCreate_InvalidNeverPersists(t *testing.T) {
	ds, g := setupRegions(t)
	ctx := context.Background()

	d := models.NewDistrict()
	d.DistrictID = -4
	_, err := g.Districts.Create(ctx, d)

	var ve *apperrors.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, []string{"District name is required", "District ID must be a non-negative number"}, ve.Errors)
	assert.Contains(t, err.Error(), "failed to create district")

	n, err := ds.Collection(DistrictsCollection).Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestCreate_ParentMustExist(t *testing.T) {
	_, g := setupRegions(t)
	ctx := context.Background()

	tk := models.NewTaluk()
	tk.Name = "Hunsur"
	tk.District = "no-such-district"
	_, err := g.Taluks.Create(ctx, tk)

	var ve *apperrors.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, []string{"Referenced district does not exist"}, ve.Errors)

	h := models.NewHobli()
	_, err = g.Hoblis.Create(ctx, h)
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, []string{
		"Hobli name is required",
		"District reference is required",
		"Taluk reference is required",
	}, ve.Errors)
}

func TestGet_NotFound(t *testing.T) {
	_, g := setupRegions(t)

	_, err := g.Villages.Get(context.Background(), "missing")
	assert.True(t, apperrors.IsNotFound(err))
	assert.EqualError(t, err, "failed to get village: Village not found")
}

func TestUpdate_MergesAndRevalidates(t *testing.T) {
	_, g := setupRegions(t)
	ctx := context.Background()
	d := createDistrict(t, g, "Mysuru")

	later := d.CreatedAt.Add(time.Hour)
	g.Districts.now = func() time.Time { return later }

	updated, err := g.Districts.Update(ctx, d.ID, map[string]any{"k_name": "ಮೈಸೂರು", "id": "hijack"})
	require.NoError(t, err)
	assert.Equal(t, d.ID, updated.ID)
	assert.Equal(t, "Mysuru", updated.Name)
	assert.Equal(t, "ಮೈಸೂರು", updated.KName)
	assert.True(t, updated.UpdatedAt.Equal(later))

	_, err = g.Districts.Update(ctx, d.ID, map[string]any{"name": " "})
	assert.True(t, apperrors.IsValidation(err))

	stored, err := g.Districts.Get(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, "Mysuru", stored.Name)

	_, err = g.Districts.Update(ctx, "missing", map[string]any{"name": "x"})
	assert.True(t, apperrors.IsNotFound(err))
}

func TestDelete(t *testing.T) {
	_, g := setupRegions(t)
	ctx := context.Background()
	d := createDistrict(t, g, "Mysuru")

	require.NoError(t, g.Districts.Delete(ctx, d.ID))
	assert.True(t, apperrors.IsNotFound(g.Districts.Delete(ctx, d.ID)))
}

func TestListFiltersAndOrdersByName(t *testing.T) {
	_, g := setupRegions(t)
	ctx := context.Background()
	createDistrict(t, g, "Mysuru")
	b := createDistrict(t, g, "Bengaluru")
	createDistrict(t, g, "Mandya")
	require.NoError(t, g.Districts.SetFlag(ctx, b.ID, "is_active", false))

	all, err := g.Districts.List(ctx, nil, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "Bengaluru", all[0].Name)
	assert.Equal(t, "Mysuru", all[2].Name)

	active, err := g.Districts.List(ctx, []store.Filter{store.Where("is_active", store.OpEq, true)}, 1)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "Mandya", active[0].Name)
}

func TestSearch_PrefixMatch(t *testing.T) {
	_, g := setupRegions(t)
	ctx := context.Background()
	createDistrict(t, g, "Mandya")
	createDistrict(t, g, "Mangaluru")
	createDistrict(t, g, "Mysuru")

	found, err := g.Districts.Search(ctx, "Man")
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.Equal(t, "Mandya", found[0].Name)
	assert.Equal(t, "Mangaluru", found[1].Name)

	found, err = g.Districts.Search(ctx, "man")
	require.NoError(t, err)
	assert.Empty(t, found)
}

func TestSetFlag(t *testing.T) {
	_, g := setupRegions(t)
	ctx := context.Background()
	d := createDistrict(t, g, "Mysuru")

	require.NoError(t, g.Districts.SetFlag(ctx, d.ID, "is_archived", true))
	got, err := g.Districts.Get(ctx, d.ID)
	require.NoError(t, err)
	assert.True(t, got.IsArchived)
	assert.True(t, got.IsActive)

	assert.True(t, apperrors.IsNotFound(g.Districts.SetFlag(ctx, "missing", "is_active", true)))
}

func TestStats_GroupsByParent(t *testing.T) {
	_, g := setupRegions(t)
	ctx := context.Background()
	d1 := createDistrict(t, g, "Mysuru")
	d2 := createDistrict(t, g, "Mandya")
	createTaluk(t, g, "Hunsur", d1.ID)
	tk := createTaluk(t, g, "Nanjangud", d1.ID)
	createTaluk(t, g, "Maddur", d2.ID)
	require.NoError(t, g.Taluks.SetFlag(ctx, tk.ID, "is_archived", true))

	stats, err := g.Taluks.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, stats["totalTaluks"])
	assert.Equal(t, 3, stats["activeTaluks"])
	assert.Equal(t, 1, stats["archivedTaluks"])
	assert.Equal(t, map[string]int{d1.ID: 2, d2.ID: 1}, stats["districtStats"])
}

// findless fails every scan so only Count can answer
type findless struct {
	store.DocumentStore
}

func (f findless) Collection(name string) store.Collection {
	return findlessCollection{f.DocumentStore.Collection(name)}
}

type findlessCollection struct {
	store.Collection
}

func (findlessCollection) Find(context.Context, store.Query) ([]store.Document, error) {
	return nil, &apperrors.StoreError{Op: "find", Err: errors.New("scan disabled")}
}

func TestStats_CountsWithoutScanning(t *testing.T) {
	ds, g := setupRegions(t)
	ctx := context.Background()
	createDistrict(t, g, "Mysuru")
	d := createDistrict(t, g, "Mandya")
	require.NoError(t, g.Districts.SetFlag(ctx, d.ID, "is_active", false))
	require.NoError(t, g.Districts.SetFlag(ctx, d.ID, "is_archived", true))

	counted := NewRegions(findless{ds}, zap.NewNop())
	stats, err := counted.Districts.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats["totalDistricts"])
	assert.Equal(t, 1, stats["activeDistricts"])
	assert.Equal(t, 1, stats["archivedDistricts"])

	_, err = counted.Taluks.Stats(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to get taluk statistics")
}

func TestActiveChildren(t *testing.T) {
	_, g := setupRegions(t)
	ctx := context.Background()
	d := createDistrict(t, g, "Mysuru")
	createTaluk(t, g, "Nanjangud", d.ID)
	hidden := createTaluk(t, g, "Hunsur", d.ID)
	require.NoError(t, g.Taluks.SetFlag(ctx, hidden.ID, "is_active", false))

	taluks, err := ActiveChildren(ctx, g.Taluks, "district", d.ID)
	require.NoError(t, err)
	require.Len(t, taluks, 1)
	assert.Equal(t, "Nanjangud", taluks[0].Name)
}

func TestExpanded_ResolvesAndKeepsIDOnFailure(t *testing.T) {
	_, g := setupRegions(t)
	ctx := context.Background()
	d := createDistrict(t, g, "Mysuru")
	tk := createTaluk(t, g, "Hunsur", d.ID)

	expanded, err := g.TalukExpanded(ctx, tk.ID)
	require.NoError(t, err)
	require.True(t, expanded.District.IsResolved())
	assert.Equal(t, "Mysuru", expanded.District.Value.Name)

	// parent removed after the taluk was written
	require.NoError(t, g.Districts.Delete(ctx, d.ID))
	expanded, err = g.TalukExpanded(ctx, tk.ID)
	require.NoError(t, err)
	assert.False(t, expanded.District.IsResolved())
	assert.Equal(t, d.ID, expanded.District.ID)
}

func TestVillageLifecycle(t *testing.T) {
	_, g := setupRegions(t)
	ctx := context.Background()
	d := createDistrict(t, g, "Mysuru")
	tk := createTaluk(t, g, "Hunsur", d.ID)

	h := models.NewHobli()
	h.Name, h.District, h.Taluk = "Bilikere", d.ID, tk.ID
	h, err := g.Hoblis.Create(ctx, h)
	require.NoError(t, err)

	v := models.NewVillage()
	v.Name, v.VillageCode = "Kallahalli", "KA-042"
	v.District, v.Taluk, v.Hobli = d.ID, tk.ID, h.ID
	v, err = g.Villages.Create(ctx, v)
	require.NoError(t, err)

	byCode, err := g.VillageByCode(ctx, "KA-042")
	require.NoError(t, err)
	assert.Equal(t, v.ID, byCode.ID)

	_, err = g.VillageByCode(ctx, "nope")
	assert.True(t, apperrors.IsNotFound(err))

	expanded, err := g.VillageExpanded(ctx, v.ID)
	require.NoError(t, err)
	assert.True(t, expanded.District.IsResolved())
	assert.True(t, expanded.Taluk.IsResolved())
	assert.Equal(t, "Bilikere", expanded.Hobli.Value.Name)
}
