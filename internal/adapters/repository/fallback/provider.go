// Package fallback serves a static deterministic dataset through the same
// store interfaces as the primary adapter. It answers reads while the
// primary store is unavailable and refuses every write.
package fallback

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/flencrypto/cfs-platform/internal/adapters/repository"
	"github.com/flencrypto/cfs-platform/internal/domain/model"
)

// Provider is a read-only repository.Store over the static dataset.
type Provider struct {
	sports   []model.Sport
	contests []model.Contest
	users    map[string]model.User
}

var _ repository.Store = (*Provider)(nil)

// New builds the provider and resolves every contest's sport and creator.
func New() *Provider {
	p := &Provider{
		sports: staticSports(),
		users:  map[string]model.User{},
	}
	u := staticUser()
	p.users[u.ID] = u
	creator := u.Summary()

	for _, sc := range staticContests() {
		c := sc.contest
		s := p.resolveSport(sc.sportName)
		c.SportID = s.ID
		c.Sport = &s
		c.CreatorID = creator.ID
		cr := creator
		c.Creator = &cr
		c.UpdatedAt = c.CreatedAt
		p.contests = append(p.contests, c)
	}
	sortContests(p.contests)
	return p
}

// resolveSport matches a sport by name, slug or id, case-insensitively, and
// synthesizes one from the name when nothing matches.
func (p *Provider) resolveSport(name string) model.Sport {
	for _, s := range p.sports {
		if strings.EqualFold(s.Name, name) || strings.EqualFold(s.Slug, name) || strings.EqualFold(s.ID, name) {
			return s.Clone()
		}
	}
	return SynthesizeSport(name)
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`) //nolint:gochecknoglobals // compiled once

// Slugify lowercases name and collapses every non-alphanumeric run into "-".
func Slugify(name string) string {
	return strings.Trim(nonSlug.ReplaceAllString(strings.ToLower(name), "-"), "-")
}

// SynthesizeSport derives a sport record from a bare name.
func SynthesizeSport(name string) model.Sport {
	slug := Slugify(name)
	return model.Sport{
		ID:           slug,
		Slug:         slug,
		Name:         name,
		DisplayName:  name,
		IsActive:     true,
		ScoringRules: emptyRules(),
		CreatedAt:    Epoch,
		UpdatedAt:    Epoch,
	}
}

func sortContests(cs []model.Contest) {
	sort.SliceStable(cs, func(i, j int) bool {
		if !cs[i].CreatedAt.Equal(cs[j].CreatedAt) {
			return cs[i].CreatedAt.After(cs[j].CreatedAt)
		}
		return cs[i].ID < cs[j].ID
	})
}

// ListContests filters with AND semantics and pages the way the primary store does.
func (p *Provider) ListContests(_ context.Context, f model.ContestFilter) ([]model.Contest, int, error) {
	var matched []model.Contest
	for _, c := range p.contests {
		slug := ""
		if c.Sport != nil {
			slug = c.Sport.Slug
		}
		if f.Matches(c, slug) {
			matched = append(matched, c)
		}
	}
	total := len(matched)

	start := max(0, min(f.Offset(), total))
	end := total
	if f.Limit > 0 {
		end = start + min(f.Limit, total-start)
	}
	out := make([]model.Contest, 0, end-start)
	for _, c := range matched[start:end] {
		out = append(out, c.Clone())
	}
	return out, total, nil
}

// GetContest returns repository.ErrNotFound for unknown ids.
func (p *Provider) GetContest(_ context.Context, id string) (model.Contest, error) {
	for _, c := range p.contests {
		if c.ID == id {
			return c.Clone(), nil
		}
	}
	return model.Contest{}, fmt.Errorf("contest %q: %w", id, repository.ErrNotFound)
}

// ListSports returns the static catalog ordered by display name.
func (p *Provider) ListSports(_ context.Context, activeOnly bool) ([]model.Sport, error) {
	out := make([]model.Sport, 0, len(p.sports))
	for _, s := range p.sports {
		if activeOnly && !s.IsActive {
			continue
		}
		out = append(out, s.Clone())
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].DisplayName < out[j].DisplayName })
	return out, nil
}

// GetUser returns the static user, or a synthesized one for any other id so
// authenticated reads keep working in fallback mode.
func (p *Provider) GetUser(_ context.Context, id string) (model.User, error) {
	if u, ok := p.users[id]; ok {
		return u, nil
	}
	return model.User{
		ID:        id,
		Name:      model.Ptr("Guest " + id),
		CreatedAt: Epoch,
		UpdatedAt: Epoch,
	}, nil
}

// CreateContest always fails: the fallback dataset is read-only.
func (p *Provider) CreateContest(context.Context, model.Contest) (model.Contest, error) {
	return model.Contest{}, repository.ErrReadOnly
}

// UpdateContest always fails.
func (p *Provider) UpdateContest(context.Context, model.Contest) (model.Contest, error) {
	return model.Contest{}, repository.ErrReadOnly
}

// DeleteContest always fails.
func (p *Provider) DeleteContest(context.Context, string) error {
	return repository.ErrReadOnly
}

// SaveProfile always fails.
func (p *Provider) SaveProfile(context.Context, model.User) (model.User, error) {
	return model.User{}, repository.ErrReadOnly
}
