package postgres

import (
	"context"

	"github.com/flencrypto/cfs-platform/internal/domain/model"
)

const sportSelect = `SELECT id, slug, name, display_name, is_active, roster_size,
	salary_cap, scoring_rules, created_at, updated_at
FROM sports`

// ListSports implements repository.SportStore.
func (s *Store) ListSports(ctx context.Context, activeOnly bool) ([]model.Sport, error) {
	query := sportSelect
	if activeOnly {
		query += "\nWHERE is_active"
	}
	query += "\nORDER BY display_name ASC, id ASC"

	var rows []sportRow
	if err := s.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, classify("list sports", err)
	}
	out := make([]model.Sport, 0, len(rows))
	for _, r := range rows {
		sp, err := r.toModel()
		if err != nil {
			return nil, classify("list sports", err)
		}
		out = append(out, sp)
	}
	return out, nil
}
