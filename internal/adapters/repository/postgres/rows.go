package postgres

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/flencrypto/cfs-platform/internal/domain/model"
)

type contestRow struct {
	ID             string          `db:"id"`
	SportID        string          `db:"sport_id"`
	CreatorID      string          `db:"creator_id"`
	Name           string          `db:"name"`
	Description    sql.NullString  `db:"description"`
	Type           string          `db:"type"`
	Status         string          `db:"status"`
	EntryFee       float64         `db:"entry_fee"`
	PrizePool      float64         `db:"prize_pool"`
	SalaryCap      sql.NullFloat64 `db:"salary_cap"`
	RosterSize     int             `db:"roster_size"`
	MaxEntries     sql.NullInt64   `db:"max_entries"`
	CurrentEntries int             `db:"current_entries"`
	StartTime      time.Time       `db:"start_time"`
	LockTime       sql.NullTime    `db:"lock_time"`
	EndTime        sql.NullTime    `db:"end_time"`
	IsPrivate      bool            `db:"is_private"`
	InviteCode     sql.NullString  `db:"invite_code"`
	ScoringRules   []byte          `db:"scoring_rules"`
	CreatedAt      time.Time       `db:"created_at"`
	UpdatedAt      time.Time       `db:"updated_at"`

	SportSlug         string          `db:"sport_slug"`
	SportName         string          `db:"sport_name"`
	SportDisplayName  string          `db:"sport_display_name"`
	SportIsActive     bool            `db:"sport_is_active"`
	SportRosterSize   int             `db:"sport_roster_size"`
	SportSalaryCap    sql.NullFloat64 `db:"sport_salary_cap"`
	SportScoringRules []byte          `db:"sport_scoring_rules"`
	SportCreatedAt    time.Time       `db:"sport_created_at"`
	SportUpdatedAt    time.Time       `db:"sport_updated_at"`

	CreatorRef      sql.NullString `db:"creator_ref"`
	CreatorUsername sql.NullString `db:"creator_username"`
	CreatorName     sql.NullString `db:"creator_name"`
	CreatorImage    sql.NullString `db:"creator_image"`
}

func (r contestRow) toModel() (model.Contest, error) {
	rules, err := decodeRules(r.ScoringRules)
	if err != nil {
		return model.Contest{}, fmt.Errorf("contest %s scoring rules: %w", r.ID, err)
	}
	sportRules, err := decodeRules(r.SportScoringRules)
	if err != nil {
		return model.Contest{}, fmt.Errorf("sport %s scoring rules: %w", r.SportID, err)
	}

	c := model.Contest{
		ID:             r.ID,
		SportID:        r.SportID,
		CreatorID:      r.CreatorID,
		Name:           r.Name,
		Description:    nullString(r.Description),
		Type:           model.ContestType(r.Type),
		Status:         model.ContestStatus(r.Status),
		EntryFee:       r.EntryFee,
		PrizePool:      r.PrizePool,
		SalaryCap:      nullFloat(r.SalaryCap),
		RosterSize:     r.RosterSize,
		CurrentEntries: r.CurrentEntries,
		StartTime:      r.StartTime.UTC(),
		LockTime:       nullTime(r.LockTime),
		EndTime:        nullTime(r.EndTime),
		IsPrivate:      r.IsPrivate,
		InviteCode:     nullString(r.InviteCode),
		ScoringRules:   rules,
		CreatedAt:      r.CreatedAt.UTC(),
		UpdatedAt:      r.UpdatedAt.UTC(),
		Sport: &model.Sport{
			ID:           r.SportID,
			Slug:         r.SportSlug,
			Name:         r.SportName,
			DisplayName:  r.SportDisplayName,
			IsActive:     r.SportIsActive,
			RosterSize:   r.SportRosterSize,
			SalaryCap:    nullFloat(r.SportSalaryCap),
			ScoringRules: sportRules,
			CreatedAt:    r.SportCreatedAt.UTC(),
			UpdatedAt:    r.SportUpdatedAt.UTC(),
		},
	}
	if r.MaxEntries.Valid {
		c.MaxEntries = model.Ptr(int(r.MaxEntries.Int64))
	}
	if r.CreatorRef.Valid {
		c.Creator = &model.UserSummary{
			ID:       r.CreatorRef.String,
			Username: nullString(r.CreatorUsername),
			Name:     nullString(r.CreatorName),
			Image:    nullString(r.CreatorImage),
		}
	}
	return c, nil
}

type sportRow struct {
	ID           string          `db:"id"`
	Slug         string          `db:"slug"`
	Name         string          `db:"name"`
	DisplayName  string          `db:"display_name"`
	IsActive     bool            `db:"is_active"`
	RosterSize   int             `db:"roster_size"`
	SalaryCap    sql.NullFloat64 `db:"salary_cap"`
	ScoringRules []byte          `db:"scoring_rules"`
	CreatedAt    time.Time       `db:"created_at"`
	UpdatedAt    time.Time       `db:"updated_at"`
}

func (r sportRow) toModel() (model.Sport, error) {
	rules, err := decodeRules(r.ScoringRules)
	if err != nil {
		return model.Sport{}, fmt.Errorf("sport %s scoring rules: %w", r.ID, err)
	}
	return model.Sport{
		ID:           r.ID,
		Slug:         r.Slug,
		Name:         r.Name,
		DisplayName:  r.DisplayName,
		IsActive:     r.IsActive,
		RosterSize:   r.RosterSize,
		SalaryCap:    nullFloat(r.SalaryCap),
		ScoringRules: rules,
		CreatedAt:    r.CreatedAt.UTC(),
		UpdatedAt:    r.UpdatedAt.UTC(),
	}, nil
}

type userRow struct {
	ID        string         `db:"id"`
	Email     sql.NullString `db:"email"`
	Username  sql.NullString `db:"username"`
	Name      sql.NullString `db:"name"`
	Image     sql.NullString `db:"image"`
	CreatedAt time.Time      `db:"created_at"`
	UpdatedAt time.Time      `db:"updated_at"`

	ProfileUserID    sql.NullString `db:"profile_user_id"`
	FirstName        sql.NullString `db:"first_name"`
	LastName         sql.NullString `db:"last_name"`
	DateOfBirth      sql.NullTime   `db:"date_of_birth"`
	Phone            sql.NullString `db:"phone"`
	Country          sql.NullString `db:"country"`
	Timezone         sql.NullString `db:"timezone"`
	Language         sql.NullString `db:"language"`
	Notifications    []byte         `db:"notifications"`
	ProfileUpdatedAt sql.NullTime   `db:"profile_updated_at"`
}

func (r userRow) toModel() (model.User, error) {
	u := model.User{
		ID:        r.ID,
		Email:     nullString(r.Email),
		Username:  nullString(r.Username),
		Name:      nullString(r.Name),
		Image:     nullString(r.Image),
		CreatedAt: r.CreatedAt.UTC(),
		UpdatedAt: r.UpdatedAt.UTC(),
	}
	if !r.ProfileUserID.Valid {
		return u, nil
	}

	notifications := model.DefaultNotifications()
	if len(r.Notifications) > 0 {
		if err := json.Unmarshal(r.Notifications, &notifications); err != nil {
			return model.User{}, fmt.Errorf("user %s notifications: %w", r.ID, err)
		}
	}
	language := model.DefaultLanguage
	if r.Language.Valid && r.Language.String != "" {
		language = r.Language.String
	}
	p := &model.Profile{
		UserID:        r.ProfileUserID.String,
		FirstName:     nullString(r.FirstName),
		LastName:      nullString(r.LastName),
		DateOfBirth:   nullTime(r.DateOfBirth),
		Phone:         nullString(r.Phone),
		Country:       nullString(r.Country),
		Timezone:      nullString(r.Timezone),
		Language:      language,
		Notifications: notifications,
	}
	if r.ProfileUpdatedAt.Valid {
		p.UpdatedAt = r.ProfileUpdatedAt.Time.UTC()
	}
	u.Profile = p
	return u, nil
}

// profileRow is the named-parameter shape of the profile upsert.
type profileRow struct {
	UserID        string     `db:"user_id"`
	FirstName     *string    `db:"first_name"`
	LastName      *string    `db:"last_name"`
	DateOfBirth   *time.Time `db:"date_of_birth"`
	Phone         *string    `db:"phone"`
	Country       *string    `db:"country"`
	Timezone      *string    `db:"timezone"`
	Language      string     `db:"language"`
	Notifications string     `db:"notifications"`
	UpdatedAt     time.Time  `db:"updated_at"`
}

func newProfileRow(p model.Profile) (profileRow, error) {
	notifications, err := json.Marshal(p.Notifications)
	if err != nil {
		return profileRow{}, err
	}
	language := p.Language
	if language == "" {
		language = model.DefaultLanguage
	}
	return profileRow{
		UserID:        p.UserID,
		FirstName:     p.FirstName,
		LastName:      p.LastName,
		DateOfBirth:   p.DateOfBirth,
		Phone:         p.Phone,
		Country:       p.Country,
		Timezone:      p.Timezone,
		Language:      language,
		Notifications: string(notifications),
		UpdatedAt:     p.UpdatedAt.UTC(),
	}, nil
}

func decodeRules(raw []byte) (map[string]any, error) {
	rules := map[string]any{}
	if len(raw) == 0 {
		return rules, nil
	}
	if err := json.Unmarshal(raw, &rules); err != nil {
		return nil, err
	}
	if rules == nil {
		rules = map[string]any{}
	}
	return rules, nil
}

// encodeRules returns text; lib/pq would send a []byte as bytea, which
// jsonb columns reject.
func encodeRules(rules map[string]any) (string, error) {
	if rules == nil {
		return "{}", nil
	}
	raw, err := json.Marshal(rules)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	return model.Ptr(t.UTC())
}

func nullString(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	return model.Ptr(v.String)
}

func nullFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	return model.Ptr(v.Float64)
}

func nullTime(v sql.NullTime) *time.Time {
	if !v.Valid {
		return nil
	}
	return model.Ptr(v.Time.UTC())
}
