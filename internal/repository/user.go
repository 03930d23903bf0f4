package repository

import (
	"context"

	"github.com/Capstone-E1/aquahealth_backend/internal/models"
	"github.com/Capstone-E1/aquahealth_backend/internal/store"
	"go.uber.org/zap"
)

const UsersCollection = "users"

type UserRepository = Repository[models.User, *models.User]

// NewUsers creates the user repository, newest registrations first
func NewUsers(ds store.DocumentStore, logger *zap.Logger) *UserRepository {
	return New[models.User, *models.User](ds, Options[models.User]{
		Collection: UsersCollection,
		Resource:   "User",
		Plural:     "Users",
		Order:      []store.Order{{Field: "createdAt", Desc: true, Kind: store.KindTime}},
		Stats:      StatsOptions{ActiveField: "isActive", GroupBy: []string{"district"}},
	}, logger)
}

// UsersByDistrict returns every user whose free-text district matches
func UsersByDistrict(ctx context.Context, users *UserRepository, district string) ([]models.User, error) {
	return users.List(ctx, []store.Filter{store.Where("district", store.OpEq, district)}, 0)
}
