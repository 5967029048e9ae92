package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/flencrypto/cfs-platform/internal/adapters/repository"
	"github.com/flencrypto/cfs-platform/internal/domain/model"
)

const contestSelect = `SELECT
	c.id, c.sport_id, c.creator_id, c.name, c.description, c.type, c.status,
	c.entry_fee, c.prize_pool, c.salary_cap, c.roster_size, c.max_entries, c.current_entries,
	c.start_time, c.lock_time, c.end_time, c.is_private, c.invite_code, c.scoring_rules,
	c.created_at, c.updated_at,
	s.slug AS sport_slug, s.name AS sport_name, s.display_name AS sport_display_name,
	s.is_active AS sport_is_active, s.roster_size AS sport_roster_size,
	s.salary_cap AS sport_salary_cap, s.scoring_rules AS sport_scoring_rules,
	s.created_at AS sport_created_at, s.updated_at AS sport_updated_at,
	u.id AS creator_ref, u.username AS creator_username, u.name AS creator_name, u.image AS creator_image`

const contestFrom = `
FROM contests c
JOIN sports s ON s.id = c.sport_id
LEFT JOIN users u ON u.id = c.creator_id`

const contestInsert = `INSERT INTO contests (
	id, sport_id, creator_id, name, description, type, status,
	entry_fee, prize_pool, salary_cap, roster_size, max_entries, current_entries,
	start_time, lock_time, end_time, is_private, invite_code, scoring_rules,
	created_at, updated_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

const contestUpdate = `UPDATE contests SET
	sport_id = ?, name = ?, description = ?, type = ?, status = ?,
	entry_fee = ?, prize_pool = ?, salary_cap = ?, roster_size = ?, max_entries = ?,
	current_entries = ?, start_time = ?, lock_time = ?, end_time = ?,
	is_private = ?, invite_code = ?, scoring_rules = ?, updated_at = ?
WHERE id = ?`

// whereClause renders the filter as AND-joined predicates.
func whereClause(f model.ContestFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	if f.SportSlug != "" {
		conds = append(conds, "s.slug = ?")
		args = append(args, f.SportSlug)
	}
	if f.Status != nil {
		conds = append(conds, "c.status = ?")
		args = append(args, string(*f.Status))
	}
	if f.Type != nil {
		conds = append(conds, "c.type = ?")
		args = append(args, string(*f.Type))
	}
	if f.MinEntryFee != nil {
		conds = append(conds, "c.entry_fee >= ?")
		args = append(args, *f.MinEntryFee)
	}
	if f.MaxEntryFee != nil {
		conds = append(conds, "c.entry_fee <= ?")
		args = append(args, *f.MaxEntryFee)
	}
	if f.LockDueBy != nil {
		conds = append(conds, "c.lock_time IS NOT NULL AND c.lock_time <= ?")
		args = append(args, f.LockDueBy.UTC())
	}
	if len(conds) == 0 {
		return "", nil
	}
	return "\nWHERE " + strings.Join(conds, " AND "), args
}

// ListContests implements repository.ContestStore.
func (s *Store) ListContests(ctx context.Context, f model.ContestFilter) ([]model.Contest, int, error) {
	where, args := whereClause(f)

	var total int
	countQuery := s.db.Rebind("SELECT COUNT(*)" + contestFrom + where)
	if err := s.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, classify("count contests", err)
	}

	query := contestSelect + contestFrom + where + "\nORDER BY c.created_at DESC, c.id ASC"
	pageArgs := append([]any{}, args...)
	if f.Limit > 0 {
		query += " LIMIT ? OFFSET ?"
		pageArgs = append(pageArgs, f.Limit, f.Offset())
	}

	var rows []contestRow
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(query), pageArgs...); err != nil {
		return nil, 0, classify("list contests", err)
	}

	out := make([]model.Contest, 0, len(rows))
	for _, r := range rows {
		c, err := r.toModel()
		if err != nil {
			return nil, 0, classify("list contests", err)
		}
		out = append(out, c)
	}
	return out, total, nil
}

// GetContest implements repository.ContestStore.
func (s *Store) GetContest(ctx context.Context, id string) (model.Contest, error) {
	var row contestRow
	query := s.db.Rebind(contestSelect + contestFrom + "\nWHERE c.id = ?")
	if err := s.db.GetContext(ctx, &row, query, id); err != nil {
		return model.Contest{}, classify("get contest", err)
	}
	c, err := row.toModel()
	if err != nil {
		return model.Contest{}, classify("get contest", err)
	}
	return c, nil
}

// CreateContest inserts c and returns it with its sport and creator joined.
func (s *Store) CreateContest(ctx context.Context, c model.Contest) (model.Contest, error) {
	rules, err := encodeRules(c.ScoringRules)
	if err != nil {
		return model.Contest{}, fmt.Errorf("create contest: encode scoring rules: %w", err)
	}
	_, err = s.db.ExecContext(ctx, s.db.Rebind(contestInsert),
		c.ID, c.SportID, c.CreatorID, c.Name, c.Description, string(c.Type), string(c.Status),
		c.EntryFee, c.PrizePool, c.SalaryCap, c.RosterSize, c.MaxEntries, c.CurrentEntries,
		c.StartTime.UTC(), utcPtr(c.LockTime), utcPtr(c.EndTime), c.IsPrivate, c.InviteCode, rules,
		s.stamp(c.CreatedAt), s.stamp(c.UpdatedAt),
	)
	if err != nil {
		return model.Contest{}, classify("create contest", err)
	}
	return s.GetContest(ctx, c.ID)
}

// UpdateContest overwrites every mutable column of c. An unset UpdatedAt is
// stamped from the store clock.
func (s *Store) UpdateContest(ctx context.Context, c model.Contest) (model.Contest, error) {
	rules, err := encodeRules(c.ScoringRules)
	if err != nil {
		return model.Contest{}, fmt.Errorf("update contest: encode scoring rules: %w", err)
	}
	res, err := s.db.ExecContext(ctx, s.db.Rebind(contestUpdate),
		c.SportID, c.Name, c.Description, string(c.Type), string(c.Status),
		c.EntryFee, c.PrizePool, c.SalaryCap, c.RosterSize, c.MaxEntries,
		c.CurrentEntries, c.StartTime.UTC(), utcPtr(c.LockTime), utcPtr(c.EndTime),
		c.IsPrivate, c.InviteCode, rules, s.stamp(c.UpdatedAt),
		c.ID,
	)
	if err != nil {
		return model.Contest{}, classify("update contest", err)
	}
	if err := requireRow("update contest", res); err != nil {
		return model.Contest{}, err
	}
	return s.GetContest(ctx, c.ID)
}

// DeleteContest removes the contest row.
func (s *Store) DeleteContest(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, s.db.Rebind("DELETE FROM contests WHERE id = ?"), id)
	if err != nil {
		return classify("delete contest", err)
	}
	return requireRow("delete contest", res)
}

type rowsAffected interface {
	RowsAffected() (int64, error)
}

func requireRow(op string, res rowsAffected) error {
	n, err := res.RowsAffected()
	if err != nil {
		return classify(op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, repository.ErrNotFound)
	}
	return nil
}
