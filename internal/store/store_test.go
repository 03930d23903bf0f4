package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedDistricts(t *testing.T, c Collection) {
	t.Helper()
	ctx := context.Background()
	docs := []Document{
		{"id": "d1", "name": "Mysuru", "district_id": 3, "is_active": true},
		{"id": "d2", "name": "Mandya", "district_id": 2, "is_active": false},
		{"id": "d3", "name": "Bengaluru", "district_id": 1, "is_active": true},
		{"id": "d4", "name": "Mandya", "district_id": 9, "is_active": true},
	}
	for _, d := range docs {
		require.NoError(t, c.Insert(ctx, d["id"].(string), d))
	}
}

func TestStore_InsertGet(t *testing.T) {
	ctx := context.Background()
	c := NewStore().Collection("districts")

	require.NoError(t, c.Insert(ctx, "d1", Document{"id": "d1", "name": "Mysuru"}))
	assert.ErrorIs(t, c.Insert(ctx, "d1", Document{"id": "d1"}), ErrConflict)

	doc, err := c.Get(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, "Mysuru", doc["name"])

	// mutating the returned copy must not leak back
	doc["name"] = "changed"
	again, err := c.Get(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, "Mysuru", again["name"])

	_, err = c.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_ReplacePatchDelete(t *testing.T) {
	ctx := context.Background()
	c := NewStore().Collection("districts")
	require.NoError(t, c.Insert(ctx, "d1", Document{"id": "d1", "name": "Mysuru", "is_active": true}))

	require.NoError(t, c.Patch(ctx, "d1", Document{"is_active": false}))
	doc, err := c.Get(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, false, doc["is_active"])
	assert.Equal(t, "Mysuru", doc["name"])

	require.NoError(t, c.Replace(ctx, "d1", Document{"id": "d1", "name": "Hassan"}))
	doc, err = c.Get(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, "Hassan", doc["name"])
	assert.NotContains(t, doc, "is_active")

	require.NoError(t, c.Delete(ctx, "d1"))
	assert.ErrorIs(t, c.Delete(ctx, "d1"), ErrNotFound)
	assert.ErrorIs(t, c.Patch(ctx, "d1", Document{"x": 1}), ErrNotFound)
	assert.ErrorIs(t, c.Replace(ctx, "d1", Document{}), ErrNotFound)
}

func TestStore_FindFiltersOrderAndLimit(t *testing.T) {
	ctx := context.Background()
	c := NewStore().Collection("districts")
	seedDistricts(t, c)

	docs, err := c.Find(ctx, Query{
		Filters: []Filter{Where("is_active", OpEq, true)},
		Order:   []Order{{Field: "name", Kind: KindString}},
	})
	require.NoError(t, err)
	require.Len(t, docs, 3)
	assert.Equal(t, []any{"d3", "d4", "d1"}, []any{docs[0]["id"], docs[1]["id"], docs[2]["id"]})

	docs, err = c.Find(ctx, Query{
		Order: []Order{{Field: "district_id", Kind: KindNumber, Desc: true}},
		Limit: 2,
	})
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "d4", docs[0]["id"])
	assert.Equal(t, "d1", docs[1]["id"])
}

func TestStore_FindStableOnTies(t *testing.T) {
	ctx := context.Background()
	c := NewStore().Collection("districts")
	seedDistricts(t, c)

	docs, err := c.Find(ctx, Query{
		Filters: []Filter{Where("name", OpEq, "Mandya")},
		Order:   []Order{{Field: "name", Kind: KindString}},
	})
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "d2", docs[0]["id"])
	assert.Equal(t, "d4", docs[1]["id"])
}

func TestStore_PrefixRange(t *testing.T) {
	ctx := context.Background()
	c := NewStore().Collection("districts")
	seedDistricts(t, c)

	docs, err := c.Find(ctx, Query{Filters: []Filter{
		Where("name", OpGte, "Ma"),
		Where("name", OpLte, "Ma\uf8ff"),
	}})
	require.NoError(t, err)
	assert.Len(t, docs, 2)
}

func TestStore_TimeFilters(t *testing.T) {
	ctx := context.Background()
	c := NewStore().Collection("sensor_readings")
	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		ts := base.Add(time.Duration(i) * time.Hour)
		id := ts.Format("15")
		require.NoError(t, c.Insert(ctx, id, Document{"id": id, "timestamp": ts.Format(time.RFC3339Nano)}))
	}

	docs, err := c.Find(ctx, Query{
		Filters: []Filter{
			Where("timestamp", OpGte, base.Add(time.Hour)),
			Where("timestamp", OpLte, base.Add(3*time.Hour)),
		},
		Order: []Order{{Field: "timestamp", Kind: KindTime, Desc: true}},
	})
	require.NoError(t, err)
	require.Len(t, docs, 3)
	assert.Equal(t, "13", docs[0]["id"])
	assert.Equal(t, "11", docs[2]["id"])
}

func TestStore_Count(t *testing.T) {
	ctx := context.Background()
	c := NewStore().Collection("districts")
	seedDistricts(t, c)

	n, err := c.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	n, err = c.Count(ctx, Where("is_active", OpEq, false))
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestStore_CollectionsAreIsolated(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	require.NoError(t, s.Collection("a").Insert(ctx, "x", Document{"id": "x"}))

	_, err := s.Collection("b").Get(ctx, "x")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, s.Ping(ctx))
}
