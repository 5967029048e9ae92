package postgres

import (
	"context"
	"fmt"

	"github.com/flencrypto/cfs-platform/internal/domain/model"
	"github.com/flencrypto/cfs-platform/pkg/logger"
)

const userSelect = `SELECT
	u.id, u.email, u.username, u.name, u.image, u.created_at, u.updated_at,
	p.user_id AS profile_user_id, p.first_name, p.last_name, p.date_of_birth,
	p.phone, p.country, p.timezone, p.language, p.notifications,
	p.updated_at AS profile_updated_at
FROM users u
LEFT JOIN user_profiles p ON p.user_id = u.id
WHERE u.id = ?`

const userUpdate = `UPDATE users SET username = ?, name = ?, image = ?, updated_at = ? WHERE id = ?`

const profileUpsert = `INSERT INTO user_profiles (
	user_id, first_name, last_name, date_of_birth, phone, country, timezone,
	language, notifications, updated_at
) VALUES (
	:user_id, :first_name, :last_name, :date_of_birth, :phone, :country, :timezone,
	:language, :notifications, :updated_at
)
ON CONFLICT (user_id) DO UPDATE SET
	first_name = EXCLUDED.first_name,
	last_name = EXCLUDED.last_name,
	date_of_birth = EXCLUDED.date_of_birth,
	phone = EXCLUDED.phone,
	country = EXCLUDED.country,
	timezone = EXCLUDED.timezone,
	language = EXCLUDED.language,
	notifications = EXCLUDED.notifications,
	updated_at = EXCLUDED.updated_at`

// GetUser implements repository.UserStore.
func (s *Store) GetUser(ctx context.Context, id string) (model.User, error) {
	var row userRow
	if err := s.db.GetContext(ctx, &row, s.db.Rebind(userSelect), id); err != nil {
		return model.User{}, classify("get user", err)
	}
	u, err := row.toModel()
	if err != nil {
		return model.User{}, classify("get user", err)
	}
	return u, nil
}

// SaveProfile updates the user's identity fields and upserts the profile in
// one transaction, then re-reads the user.
func (s *Store) SaveProfile(ctx context.Context, u model.User) (model.User, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return model.User{}, classify("save profile", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, tx.Rebind(userUpdate), u.Username, u.Name, u.Image, s.stamp(u.UpdatedAt), u.ID)
	if err != nil {
		return model.User{}, classify("save profile", err)
	}
	if err := requireRow("save profile", res); err != nil {
		return model.User{}, err
	}

	if u.Profile != nil {
		p := *u.Profile
		p.UserID = u.ID
		p.UpdatedAt = s.stamp(p.UpdatedAt)
		row, err := newProfileRow(p)
		if err != nil {
			return model.User{}, fmt.Errorf("save profile: encode notifications: %w", err)
		}
		if _, err := tx.NamedExecContext(ctx, profileUpsert, row); err != nil {
			return model.User{}, classify("save profile", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return model.User{}, classify("save profile", err)
	}
	s.log.Debug(ctx, "profile saved", logger.String("user_id", u.ID))
	return s.GetUser(ctx, u.ID)
}
