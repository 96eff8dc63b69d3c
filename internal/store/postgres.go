// Package store implements the user, share and permission lookups the
// session layer consumes, backed by the service's relational database.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/tmakar/coscribe/internal/domain"
)

func Open(ctx context.Context, databaseURL string) (*sql.DB, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	db.SetConnMaxIdleTime(5 * time.Minute)
	db.SetConnMaxLifetime(30 * time.Minute)
	db.SetMaxIdleConns(10)
	db.SetMaxOpenConns(20)

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping db: %w", err)
	}
	return db, nil
}

// Postgres satisfies app.UserStore, app.PermissionOracle and
// app.ShareStore against the note service's schema.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

func (s *Postgres) UserByID(ctx context.Context, id domain.UserID) (*domain.User, error) {
	return s.scanUser(s.db.QueryRowContext(ctx,
		`SELECT id, username, display_name, COALESCE(avatar_url, ''), disabled FROM users WHERE id=$1`, string(id)))
}

func (s *Postgres) UserByUsername(ctx context.Context, username string) (*domain.User, error) {
	return s.scanUser(s.db.QueryRowContext(ctx,
		`SELECT id, username, display_name, COALESCE(avatar_url, ''), disabled FROM users WHERE username=$1`, username))
}

func (s *Postgres) scanUser(row *sql.Row) (*domain.User, error) {
	var u domain.User
	err := row.Scan(&u.ID, &u.Username, &u.DisplayName, &u.AvatarURL, &u.Disabled)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan user: %w", err)
	}
	return &u, nil
}

// GetPermissionLevel resolves the effective level: ownership counts as
// the maximum level, otherwise the user's share row decides.
func (s *Postgres) GetPermissionLevel(ctx context.Context, userID domain.UserID, resourceID domain.ResourceID, resourceType domain.ResourceType) (domain.Level, bool, error) {
	var owned bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM notes WHERE id=$1 AND owner_id=$2)`,
		string(resourceID), string(userID)).Scan(&owned)
	if err != nil {
		return "", false, fmt.Errorf("owner lookup: %w", err)
	}
	if owned {
		return domain.LevelAdmin, true, nil
	}

	var raw string
	err = s.db.QueryRowContext(ctx,
		`SELECT level FROM shares WHERE resource_id=$1 AND resource_type=$2 AND user_id=$3`,
		string(resourceID), string(resourceType), string(userID)).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("share lookup: %w", err)
	}
	level, ok := domain.ParseLevel(raw)
	if !ok {
		return "", false, fmt.Errorf("share lookup: unknown level %q", raw)
	}
	return level, true, nil
}

func (s *Postgres) FindSharesByResource(ctx context.Context, resourceID domain.ResourceID, resourceType domain.ResourceType) ([]domain.Share, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, resource_id, resource_type, user_id, level FROM shares WHERE resource_id=$1 AND resource_type=$2`,
		string(resourceID), string(resourceType))
	if err != nil {
		return nil, fmt.Errorf("find shares: %w", err)
	}
	defer rows.Close()

	var out []domain.Share
	for rows.Next() {
		var sh domain.Share
		var raw string
		if err := rows.Scan(&sh.ID, &sh.ResourceID, &sh.ResourceType, &sh.UserID, &raw); err != nil {
			return nil, fmt.Errorf("scan share: %w", err)
		}
		if level, ok := domain.ParseLevel(raw); ok {
			sh.Level = level
		}
		out = append(out, sh)
	}
	return out, rows.Err()
}
