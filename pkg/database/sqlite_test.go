package database

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/PancyStudios/PancyModGo/pkg/models"
)

func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := OpenSQLite(filepath.Join(t.TempDir(), "data", "test.db"))
	if err != nil {
		t.Skipf("sqlite unavailable: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSQLiteTempRoles(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	grant := &models.TemporaryRole{
		RequestMessageID: "R1",
		GuildID:          "G1",
		RoleID:           "VIP",
		UserIDs:          []string{"U1", "U2"},
		ExpiresAt:        now.Add(time.Hour),
		ApprovedBy:       "ADMIN",
		CreatedAt:        now,
	}
	permanent := &models.TemporaryRole{
		RequestMessageID: "R2",
		GuildID:          "G1",
		RoleID:           "VIP",
		UserIDs:          []string{"U3"},
		Permanent:        true,
		CreatedAt:        now,
	}
	for _, r := range []*models.TemporaryRole{grant, permanent} {
		if err := store.CreateTempRole(ctx, r); err != nil {
			t.Fatalf("CreateTempRole(%s) error = %v", r.RequestMessageID, err)
		}
	}

	got, err := store.GetTempRole(ctx, "R1")
	if err != nil {
		t.Fatalf("GetTempRole() error = %v", err)
	}
	if got == nil {
		t.Fatal("GetTempRole() = nil, want record")
	}
	if len(got.UserIDs) != 2 || got.UserIDs[1] != "U2" {
		t.Errorf("UserIDs = %v, want [U1 U2]", got.UserIDs)
	}
	if !got.ExpiresAt.Equal(grant.ExpiresAt) {
		t.Errorf("ExpiresAt = %v, want %v", got.ExpiresAt, grant.ExpiresAt)
	}
	if got.ApprovedBy != "ADMIN" {
		t.Errorf("ApprovedBy = %q, want %q", got.ApprovedBy, "ADMIN")
	}

	perm, err := store.GetTempRole(ctx, "R2")
	if err != nil || perm == nil {
		t.Fatalf("GetTempRole(R2) = %v, %v", perm, err)
	}
	if !perm.Permanent || !perm.ExpiresAt.IsZero() {
		t.Errorf("permanent record = %+v, want Permanent with zero ExpiresAt", perm)
	}

	all, err := store.ActiveTempRoles(ctx)
	if err != nil {
		t.Fatalf("ActiveTempRoles() error = %v", err)
	}
	if len(all) != 2 || all[0].RequestMessageID != "R1" {
		t.Errorf("ActiveTempRoles() = %d records, first %v, want 2 with R1 first", len(all), all)
	}

	if err := store.DeleteTempRole(ctx, "R1"); err != nil {
		t.Fatalf("DeleteTempRole() error = %v", err)
	}
	if err := store.DeleteTempRole(ctx, "R1"); err != nil {
		t.Errorf("DeleteTempRole() twice error = %v, want nil", err)
	}
	missing, err := store.GetTempRole(ctx, "R1")
	if err != nil || missing != nil {
		t.Errorf("GetTempRole() after delete = %v, %v, want nil, nil", missing, err)
	}
}

func TestSQLiteInfractions(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	until := base.Add(30 * time.Minute)

	items := []*models.Infraction{
		{ID: "I1", GuildID: "G1", UserID: "U1", ModeratorID: "M", Type: models.InfractionMute, Reason: "spam", CreatedAt: base, ExpiresAt: &until},
		{ID: "I2", GuildID: "G1", UserID: "U1", ModeratorID: "M", Type: models.InfractionBan, CreatedAt: base.Add(time.Hour)},
		{ID: "I3", GuildID: "G1", UserID: "U2", ModeratorID: "M", Type: models.InfractionKick, CreatedAt: base},
		{ID: "I4", GuildID: "G2", UserID: "U1", ModeratorID: "M", Type: models.InfractionKick, CreatedAt: base},
	}
	for _, inf := range items {
		if err := store.CreateInfraction(ctx, inf); err != nil {
			t.Fatalf("CreateInfraction(%s) error = %v", inf.ID, err)
		}
	}

	got, err := store.ListInfractions(ctx, "G1", "U1")
	if err != nil {
		t.Fatalf("ListInfractions() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("ListInfractions() = %d, want 2", len(got))
	}
	if got[0].ID != "I2" || got[1].ID != "I1" {
		t.Errorf("order = %s,%s, want I2,I1", got[0].ID, got[1].ID)
	}
	if got[1].ExpiresAt == nil || !got[1].ExpiresAt.Equal(until) {
		t.Errorf("ExpiresAt = %v, want %v", got[1].ExpiresAt, until)
	}
	if got[0].ExpiresAt != nil {
		t.Errorf("ban ExpiresAt = %v, want nil", got[0].ExpiresAt)
	}
	if got[1].Type != models.InfractionMute || got[1].Reason != "spam" {
		t.Errorf("infraction = %+v, want mute/spam", got[1])
	}
}
