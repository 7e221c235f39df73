package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/PancyStudios/PancyModGo/pkg/logger"
	"github.com/PancyStudios/PancyModGo/pkg/models"
	"github.com/goccy/go-json"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS temp_roles (
    request_message_id TEXT PRIMARY KEY,
    guild_id TEXT NOT NULL,
    role_id TEXT NOT NULL,
    user_ids TEXT NOT NULL,
    expires_at DATETIME,
    permanent BOOLEAN NOT NULL DEFAULT 0,
    approved_by TEXT NOT NULL DEFAULT '',
    created_at DATETIME NOT NULL
);
CREATE TABLE IF NOT EXISTS infractions (
    id TEXT PRIMARY KEY,
    guild_id TEXT NOT NULL,
    user_id TEXT NOT NULL,
    moderator_id TEXT NOT NULL,
    type TEXT NOT NULL,
    reason TEXT NOT NULL DEFAULT '',
    created_at DATETIME NOT NULL,
    expires_at DATETIME
);
CREATE INDEX IF NOT EXISTS idx_infractions_member ON infractions (guild_id, user_id, created_at);`

// SQLiteStore keeps grants and infractions in a local SQLite file.
type SQLiteStore struct {
	db *sqlx.DB
}

// OpenSQLite opens (or creates) the database file and ensures the tables exist.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." && path != ":memory:" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create sqlite directory: %w", err)
		}
	}

	db, err := sqlx.Connect("sqlite3", path+"?_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to connect to sqlite database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	logger.Success(fmt.Sprintf("Base de datos SQLite lista en %s", path), "DB")
	return &SQLiteStore{db: db}, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Ping checks the database answers.
func (s *SQLiteStore) Ping(ctx context.Context) (time.Duration, error) {
	start := time.Now()
	err := s.db.PingContext(ctx)
	return time.Since(start), err
}

type tempRoleRow struct {
	RequestMessageID string       `db:"request_message_id"`
	GuildID          string       `db:"guild_id"`
	RoleID           string       `db:"role_id"`
	UserIDs          string       `db:"user_ids"`
	ExpiresAt        sql.NullTime `db:"expires_at"`
	Permanent        bool         `db:"permanent"`
	ApprovedBy       string       `db:"approved_by"`
	CreatedAt        time.Time    `db:"created_at"`
}

func (r tempRoleRow) model() (*models.TemporaryRole, error) {
	var users []string
	if err := json.Unmarshal([]byte(r.UserIDs), &users); err != nil {
		return nil, fmt.Errorf("decode user ids of %s: %w", r.RequestMessageID, err)
	}
	return &models.TemporaryRole{
		RequestMessageID: r.RequestMessageID,
		GuildID:          r.GuildID,
		RoleID:           r.RoleID,
		UserIDs:          users,
		ExpiresAt:        r.ExpiresAt.Time,
		Permanent:        r.Permanent,
		ApprovedBy:       r.ApprovedBy,
		CreatedAt:        r.CreatedAt,
	}, nil
}

// CreateTempRole stores a grant, replacing an existing one for the same request.
func (s *SQLiteStore) CreateTempRole(ctx context.Context, r *models.TemporaryRole) error {
	users, err := json.Marshal(r.UserIDs)
	if err != nil {
		return err
	}
	row := tempRoleRow{
		RequestMessageID: r.RequestMessageID,
		GuildID:          r.GuildID,
		RoleID:           r.RoleID,
		UserIDs:          string(users),
		ExpiresAt:        sql.NullTime{Time: r.ExpiresAt, Valid: !r.Permanent},
		Permanent:        r.Permanent,
		ApprovedBy:       r.ApprovedBy,
		CreatedAt:        r.CreatedAt,
	}
	query := `INSERT OR REPLACE INTO temp_roles
              (request_message_id, guild_id, role_id, user_ids, expires_at, permanent, approved_by, created_at)
              VALUES (:request_message_id, :guild_id, :role_id, :user_ids, :expires_at, :permanent, :approved_by, :created_at)`
	if _, err := s.db.NamedExecContext(ctx, query, row); err != nil {
		return fmt.Errorf("failed to insert temporary role: %w", err)
	}
	return nil
}

// ActiveTempRoles lists every stored grant, soonest expiry first.
func (s *SQLiteStore) ActiveTempRoles(ctx context.Context) ([]*models.TemporaryRole, error) {
	var rows []tempRoleRow
	if err := s.db.SelectContext(ctx, &rows, "SELECT * FROM temp_roles ORDER BY permanent, expires_at"); err != nil {
		return nil, fmt.Errorf("failed to list temporary roles: %w", err)
	}
	out := make([]*models.TemporaryRole, 0, len(rows))
	for _, row := range rows {
		r, err := row.model()
		if err != nil {
			logger.Warn(err.Error(), "DB")
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

// GetTempRole returns the grant for a request message, or nil.
func (s *SQLiteStore) GetTempRole(ctx context.Context, id string) (*models.TemporaryRole, error) {
	var row tempRoleRow
	err := s.db.GetContext(ctx, &row, "SELECT * FROM temp_roles WHERE request_message_id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get temporary role %s: %w", id, err)
	}
	return row.model()
}

// DeleteTempRole removes the grant for a request message. Missing rows are not an error.
func (s *SQLiteStore) DeleteTempRole(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM temp_roles WHERE request_message_id = ?", id); err != nil {
		return fmt.Errorf("failed to delete temporary role %s: %w", id, err)
	}
	return nil
}

type infractionRow struct {
	ID          string       `db:"id"`
	GuildID     string       `db:"guild_id"`
	UserID      string       `db:"user_id"`
	ModeratorID string       `db:"moderator_id"`
	Type        string       `db:"type"`
	Reason      string       `db:"reason"`
	CreatedAt   time.Time    `db:"created_at"`
	ExpiresAt   sql.NullTime `db:"expires_at"`
}

// CreateInfraction stores an infraction.
func (s *SQLiteStore) CreateInfraction(ctx context.Context, inf *models.Infraction) error {
	row := infractionRow{
		ID:          inf.ID,
		GuildID:     inf.GuildID,
		UserID:      inf.UserID,
		ModeratorID: inf.ModeratorID,
		Type:        string(inf.Type),
		Reason:      inf.Reason,
		CreatedAt:   inf.CreatedAt,
	}
	if inf.ExpiresAt != nil {
		row.ExpiresAt = sql.NullTime{Time: *inf.ExpiresAt, Valid: true}
	}
	query := `INSERT INTO infractions (id, guild_id, user_id, moderator_id, type, reason, created_at, expires_at)
              VALUES (:id, :guild_id, :user_id, :moderator_id, :type, :reason, :created_at, :expires_at)`
	if _, err := s.db.NamedExecContext(ctx, query, row); err != nil {
		return fmt.Errorf("failed to insert infraction: %w", err)
	}
	return nil
}

// ListInfractions returns a user's infractions in a guild, newest first.
func (s *SQLiteStore) ListInfractions(ctx context.Context, guildID, userID string) ([]*models.Infraction, error) {
	var rows []infractionRow
	query := "SELECT * FROM infractions WHERE guild_id = ? AND user_id = ? ORDER BY created_at DESC"
	if err := s.db.SelectContext(ctx, &rows, query, guildID, userID); err != nil {
		return nil, fmt.Errorf("failed to list infractions: %w", err)
	}
	out := make([]*models.Infraction, 0, len(rows))
	for _, row := range rows {
		inf := &models.Infraction{
			ID:          row.ID,
			GuildID:     row.GuildID,
			UserID:      row.UserID,
			ModeratorID: row.ModeratorID,
			Type:        models.InfractionType(row.Type),
			Reason:      row.Reason,
			CreatedAt:   row.CreatedAt,
		}
		if row.ExpiresAt.Valid {
			t := row.ExpiresAt.Time
			inf.ExpiresAt = &t
		}
		out = append(out, inf)
	}
	return out, nil
}
