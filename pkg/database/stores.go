package database

import (
	"context"

	"github.com/PancyStudios/PancyModGo/pkg/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// TempRoleStore keeps temporary role grants in MongoDB.
type TempRoleStore struct {
	dm *DataManager[models.TemporaryRole]
}

// NewTempRoleStore creates a TempRoleStore over the temproles collection.
func NewTempRoleStore(db *Database) *TempRoleStore {
	return &TempRoleStore{dm: NewDataManager[models.TemporaryRole](TempRolesCollection, db)}
}

func byRequest(id string) bson.M { return bson.M{"requestMessageId": id} }

// CreateTempRole stores a grant.
func (s *TempRoleStore) CreateTempRole(ctx context.Context, r *models.TemporaryRole) error {
	return s.dm.Set(ctx, byRequest(r.RequestMessageID), r)
}

// ActiveTempRoles lists every stored grant, soonest expiry first.
func (s *TempRoleStore) ActiveTempRoles(ctx context.Context) ([]*models.TemporaryRole, error) {
	return s.dm.GetAll(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "expiresAt", Value: 1}}))
}

// GetTempRole returns the grant for a request message, or nil.
func (s *TempRoleStore) GetTempRole(ctx context.Context, id string) (*models.TemporaryRole, error) {
	return s.dm.Get(ctx, byRequest(id))
}

// DeleteTempRole removes the grant for a request message.
func (s *TempRoleStore) DeleteTempRole(ctx context.Context, id string) error {
	return s.dm.Delete(ctx, byRequest(id))
}

// InfractionStore keeps infractions in MongoDB.
type InfractionStore struct {
	dm *DataManager[models.Infraction]
}

// NewInfractionStore creates an InfractionStore over the infractions collection.
func NewInfractionStore(db *Database) *InfractionStore {
	return &InfractionStore{dm: NewDataManager[models.Infraction](InfractionsCollection, db)}
}

// CreateInfraction stores an infraction.
func (s *InfractionStore) CreateInfraction(ctx context.Context, inf *models.Infraction) error {
	return s.dm.Set(ctx, bson.M{"id": inf.ID}, inf)
}

// ListInfractions returns a user's infractions in a guild, newest first.
func (s *InfractionStore) ListInfractions(ctx context.Context, guildID, userID string) ([]*models.Infraction, error) {
	return s.dm.GetAll(ctx,
		bson.M{"guildId": guildID, "userId": userID},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}),
	)
}
