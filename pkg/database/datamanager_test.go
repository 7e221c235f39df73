package database

import (
	"context"
	"errors"
	"testing"

	"github.com/PancyStudios/PancyModGo/pkg/models"
	"go.mongodb.org/mongo-driver/bson"
)

func TestCacheKeyIsDeterministic(t *testing.T) {
	dm := NewDataManager[models.Infraction]("infractions", NewDatabase())

	a := dm.cacheKey(bson.M{"guildId": "G1", "userId": "U1"})
	b := dm.cacheKey(bson.M{"userId": "U1", "guildId": "G1"})
	if a != b {
		t.Errorf("cacheKey() = %q and %q, want equal", a, b)
	}
	if want := "infractions:{guildId=G1,userId=U1}"; a != want {
		t.Errorf("cacheKey() = %q, want %q", a, want)
	}
}

func TestOfflineWritesAreQueued(t *testing.T) {
	db := NewDatabase()
	store := NewTempRoleStore(db)
	ctx := context.Background()

	rec := &models.TemporaryRole{RequestMessageID: "R1", GuildID: "G1", RoleID: "VIP"}
	if err := store.CreateTempRole(ctx, rec); err != nil {
		t.Fatalf("CreateTempRole() offline error = %v, want nil", err)
	}
	if db.QueueLen() != 1 {
		t.Errorf("QueueLen() = %d, want 1", db.QueueLen())
	}

	got, err := store.GetTempRole(ctx, "R1")
	if err != nil || got != rec {
		t.Errorf("GetTempRole() offline = %v, %v, want cached record", got, err)
	}

	if err := store.DeleteTempRole(ctx, "R1"); err != nil {
		t.Fatalf("DeleteTempRole() offline error = %v", err)
	}
	if db.QueueLen() != 2 {
		t.Errorf("QueueLen() = %d, want 2", db.QueueLen())
	}
	if _, err := store.GetTempRole(ctx, "R1"); !errors.Is(err, ErrNotConnected) {
		t.Errorf("GetTempRole() after delete error = %v, want ErrNotConnected", err)
	}
}

func TestOfflineReadsFail(t *testing.T) {
	store := NewInfractionStore(NewDatabase())

	if _, err := store.ListInfractions(context.Background(), "G1", "U1"); !errors.Is(err, ErrNotConnected) {
		t.Errorf("ListInfractions() error = %v, want ErrNotConnected", err)
	}
}

func TestPingOffline(t *testing.T) {
	db := NewDatabase()
	if _, err := db.Ping(context.Background()); !errors.Is(err, ErrNotConnected) {
		t.Errorf("Ping() error = %v, want ErrNotConnected", err)
	}
	if status, ok := db.Status(context.Background()); ok || status == "" {
		t.Errorf("Status() = %q, %v, want offline", status, ok)
	}
}
