// Package repository defines the contest store interfaces and the facade
// that routes reads to the fallback provider once the primary store is down.
package repository

import (
	"context"

	"github.com/flencrypto/cfs-platform/internal/domain/model"
)

// ContestStore provides read/write access to contests.
type ContestStore interface {
	// ListContests returns one page of contests matching every filter
	// predicate, ordered by createdAt desc then id asc, plus the total match count.
	ListContests(ctx context.Context, f model.ContestFilter) ([]model.Contest, int, error)

	// GetContest returns ErrNotFound if the contest is unknown.
	GetContest(ctx context.Context, id string) (model.Contest, error)

	CreateContest(ctx context.Context, c model.Contest) (model.Contest, error)
	UpdateContest(ctx context.Context, c model.Contest) (model.Contest, error)
	DeleteContest(ctx context.Context, id string) error
}

// SportStore exposes the sport catalog.
type SportStore interface {
	// ListSports returns sports ordered by display name.
	ListSports(ctx context.Context, activeOnly bool) ([]model.Sport, error)
}

// UserStore exposes users and their profiles.
type UserStore interface {
	// GetUser returns the user with its profile, or ErrNotFound.
	GetUser(ctx context.Context, id string) (model.User, error)

	// SaveProfile writes the user's core fields and upserts u.Profile when set.
	SaveProfile(ctx context.Context, u model.User) (model.User, error)
}

// Store is implemented by both the primary adapter and the fallback provider.
type Store interface {
	ContestStore
	SportStore
	UserStore
}

// Source tells callers which store answered a read.
type Source string

// Read sources.
const (
	SourcePrimary  Source = "primary"
	SourceFallback Source = "fallback"
)
