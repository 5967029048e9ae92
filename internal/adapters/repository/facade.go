package repository

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/flencrypto/cfs-platform/internal/domain/apperr"
	"github.com/flencrypto/cfs-platform/internal/domain/model"
	"github.com/flencrypto/cfs-platform/internal/domain/types"
	"github.com/flencrypto/cfs-platform/pkg/logger"
	"github.com/flencrypto/cfs-platform/pkg/metrics"
)

// Facade wraps the primary store. Once the primary reports
// ErrStoreUnavailable (or MarkUnavailable is called) the flag stays set for
// the life of the process: reads are answered by the fallback provider and
// writes fail with ServiceUnavailable without touching any store.
type Facade struct {
	primary     Store
	fallback    Store
	unavailable atomic.Bool
	log         logger.Logger
}

// NewFacade builds a facade. A nil primary starts the facade in fallback mode.
func NewFacade(primary, fallback Store, opts ...Option) *Facade {
	f := &Facade{primary: primary, fallback: fallback, log: logger.Nop()}
	for _, opt := range opts {
		opt(f)
	}
	if primary == nil {
		f.MarkUnavailable(context.Background(), ErrStoreUnavailable)
	}
	return f
}

// MarkUnavailable sets the unavailability flag. Only the first call logs.
func (f *Facade) MarkUnavailable(ctx context.Context, cause error) {
	if f.unavailable.CompareAndSwap(false, true) {
		metrics.SetStoreUnavailable(true)
		f.log.Warn(ctx, "primary store unavailable, serving reads from fallback data", logger.Error(cause))
	}
}

// Unavailable reports whether the facade is in fallback mode.
func (f *Facade) Unavailable() bool {
	return f.unavailable.Load()
}

// ListContests returns one page of contests and the source that answered.
func (f *Facade) ListContests(ctx context.Context, filter model.ContestFilter) (types.Page[model.Contest], Source, error) {
	type listed struct {
		items []model.Contest
		total int
	}
	res, src, err := read(ctx, f, "list_contests", func(s Store) (listed, error) {
		items, total, err := s.ListContests(ctx, filter)
		return listed{items, total}, err
	})
	if err != nil {
		return types.Page[model.Contest]{}, src, err
	}
	if res.items == nil {
		res.items = []model.Contest{}
	}
	return types.Page[model.Contest]{
		Items:      res.items,
		Pagination: types.NewPagination(filter.Page, filter.Limit, res.total),
	}, src, nil
}

// GetContest returns a NotFound error for unknown ids.
func (f *Facade) GetContest(ctx context.Context, id string) (model.Contest, Source, error) {
	return read(ctx, f, "get_contest", func(s Store) (model.Contest, error) {
		return s.GetContest(ctx, id)
	})
}

// ListSports returns the sport catalog.
func (f *Facade) ListSports(ctx context.Context, activeOnly bool) ([]model.Sport, Source, error) {
	return read(ctx, f, "list_sports", func(s Store) ([]model.Sport, error) {
		return s.ListSports(ctx, activeOnly)
	})
}

// GetUser returns a user with its profile.
func (f *Facade) GetUser(ctx context.Context, id string) (model.User, Source, error) {
	return read(ctx, f, "get_user", func(s Store) (model.User, error) {
		return s.GetUser(ctx, id)
	})
}

// CreateContest persists a new contest.
func (f *Facade) CreateContest(ctx context.Context, c model.Contest) (model.Contest, error) {
	return write(ctx, f, "create_contest", func(s Store) (model.Contest, error) {
		return s.CreateContest(ctx, c)
	})
}

// UpdateContest persists a merged contest.
func (f *Facade) UpdateContest(ctx context.Context, c model.Contest) (model.Contest, error) {
	return write(ctx, f, "update_contest", func(s Store) (model.Contest, error) {
		return s.UpdateContest(ctx, c)
	})
}

// DeleteContest removes a contest.
func (f *Facade) DeleteContest(ctx context.Context, id string) error {
	_, err := write(ctx, f, "delete_contest", func(s Store) (struct{}, error) {
		return struct{}{}, s.DeleteContest(ctx, id)
	})
	return err
}

// SaveProfile writes user fields and upserts the profile.
func (f *Facade) SaveProfile(ctx context.Context, u model.User) (model.User, error) {
	return write(ctx, f, "save_profile", func(s Store) (model.User, error) {
		return s.SaveProfile(ctx, u)
	})
}

func read[T any](ctx context.Context, f *Facade, op string, fn func(Store) (T, error)) (T, Source, error) {
	var zero T
	if !f.unavailable.Load() {
		start := time.Now()
		v, err := fn(f.primary)
		metrics.RecordRepositoryLatency(op, string(SourcePrimary), msSince(start))
		if err == nil {
			return v, SourcePrimary, nil
		}
		if !errors.Is(err, ErrStoreUnavailable) {
			return zero, SourcePrimary, classify(op, err)
		}
		metrics.RecordRepositoryError(op, "unavailable")
		f.MarkUnavailable(ctx, err)
	}

	metrics.RecordFallbackRead(op)
	start := time.Now()
	v, err := fn(f.fallback)
	metrics.RecordRepositoryLatency(op, string(SourceFallback), msSince(start))
	if err != nil {
		return zero, SourceFallback, classify(op, err)
	}
	return v, SourceFallback, nil
}

func write[T any](ctx context.Context, f *Facade, op string, fn func(Store) (T, error)) (T, error) {
	var zero T
	if f.unavailable.Load() {
		metrics.RecordWriteRejected(op)
		return zero, apperr.New(op, apperr.ServiceUnavailable, "primary store unavailable")
	}
	start := time.Now()
	v, err := fn(f.primary)
	metrics.RecordRepositoryLatency(op, string(SourcePrimary), msSince(start))
	if err == nil {
		return v, nil
	}
	if errors.Is(err, ErrStoreUnavailable) {
		f.MarkUnavailable(ctx, err)
		metrics.RecordWriteRejected(op)
	}
	return zero, classify(op, err)
}

// classify maps store sentinels onto apperr kinds.
func classify(op string, err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		metrics.RecordRepositoryError(op, "not_found")
		return apperr.Wrap(op, apperr.NotFound, err)
	case errors.Is(err, ErrInvalidReference):
		return &apperr.Error{Op: op, Kind: apperr.ValidationError, Err: err, Details: []apperr.FieldIssue{
			{Field: "sportId", Rule: "exists", Message: "referenced sport does not exist"},
		}}
	case errors.Is(err, ErrDuplicate):
		return &apperr.Error{Op: op, Kind: apperr.ValidationError, Err: err, Details: []apperr.FieldIssue{
			{Field: "username", Rule: "unique", Message: "username is already taken"},
		}}
	case errors.Is(err, ErrStoreUnavailable), errors.Is(err, ErrReadOnly):
		return apperr.Wrap(op, apperr.ServiceUnavailable, err)
	default:
		metrics.RecordRepositoryError(op, "internal")
		return apperr.Wrap(op, apperr.Internal, err)
	}
}

func msSince(t time.Time) float64 {
	return float64(time.Since(t).Microseconds()) / 1000
}
