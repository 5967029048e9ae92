package repository_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/flencrypto/cfs-platform/internal/adapters/repository"
	"github.com/flencrypto/cfs-platform/internal/adapters/repository/fallback"
	"github.com/flencrypto/cfs-platform/internal/domain/apperr"
	"github.com/flencrypto/cfs-platform/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

// fakeStore records calls and returns err from every method when set.
type fakeStore struct {
	err      error
	contests []model.Contest
	calls    map[string]int
}

func newFakeStore() *fakeStore {
	return &fakeStore{calls: map[string]int{}, contests: []model.Contest{
		{ID: "p1", Name: "Primary One", Status: model.StatusDraft},
		{ID: "p2", Name: "Primary Two", Status: model.StatusActive},
	}}
}

func (f *fakeStore) ListContests(_ context.Context, _ model.ContestFilter) ([]model.Contest, int, error) {
	f.calls["list"]++
	if f.err != nil {
		return nil, 0, f.err
	}
	return f.contests, len(f.contests), nil
}

func (f *fakeStore) GetContest(_ context.Context, id string) (model.Contest, error) {
	f.calls["get"]++
	if f.err != nil {
		return model.Contest{}, f.err
	}
	for _, c := range f.contests {
		if c.ID == id {
			return c, nil
		}
	}
	return model.Contest{}, repository.ErrNotFound
}

func (f *fakeStore) CreateContest(_ context.Context, c model.Contest) (model.Contest, error) {
	f.calls["create"]++
	return c, f.err
}

func (f *fakeStore) UpdateContest(_ context.Context, c model.Contest) (model.Contest, error) {
	f.calls["update"]++
	return c, f.err
}

func (f *fakeStore) DeleteContest(context.Context, string) error {
	f.calls["delete"]++
	return f.err
}

func (f *fakeStore) ListSports(context.Context, bool) ([]model.Sport, error) {
	f.calls["sports"]++
	return []model.Sport{{ID: "primary-sport"}}, f.err
}

func (f *fakeStore) GetUser(_ context.Context, id string) (model.User, error) {
	f.calls["user"]++
	return model.User{ID: id}, f.err
}

func (f *fakeStore) SaveProfile(_ context.Context, u model.User) (model.User, error) {
	f.calls["save"]++
	return u, f.err
}

func TestFacadePrimaryPath(t *testing.T) {
	Convey("Given a facade over a healthy primary store", t, func() {
		ctx := context.Background()
		primary := newFakeStore()
		f := repository.NewFacade(primary, fallback.New())

		Convey("When listing contests", func() {
			page, src, err := f.ListContests(ctx, model.ContestFilter{Page: 1, Limit: 1})

			Convey("Then the primary answers and pagination is computed", func() {
				So(err, ShouldBeNil)
				So(src, ShouldEqual, repository.SourcePrimary)
				So(page.Pagination.Total, ShouldEqual, 2)
				So(page.Pagination.TotalPages, ShouldEqual, 2)
				So(page.Pagination.HasNext, ShouldBeTrue)
			})
		})

		Convey("When a contest is missing", func() {
			_, _, err := f.GetContest(ctx, "missing")

			Convey("Then NotFound is returned without switching to fallback", func() {
				So(errors.Is(err, apperr.NotFound), ShouldBeTrue)
				So(f.Unavailable(), ShouldBeFalse)
			})
		})

		Convey("When the store fails with an ordinary error", func() {
			primary.err = errors.New("syntax error at or near SELEKT")
			_, _, err := f.ListContests(ctx, model.ContestFilter{Page: 1, Limit: 10})

			Convey("Then it propagates as Internal", func() {
				So(errors.Is(err, apperr.Internal), ShouldBeTrue)
				So(f.Unavailable(), ShouldBeFalse)
			})
		})

		Convey("When a write names an unknown sport", func() {
			primary.err = fmt.Errorf("insert contest: %w", repository.ErrInvalidReference)
			_, err := f.CreateContest(ctx, model.Contest{ID: "new"})

			Convey("Then it is a validation error on sportId", func() {
				So(errors.Is(err, apperr.ValidationError), ShouldBeTrue)
				So(apperr.DetailsOf(err), ShouldHaveLength, 1)
				So(apperr.DetailsOf(err)[0].Field, ShouldEqual, "sportId")
				So(f.Unavailable(), ShouldBeFalse)
			})
		})

		Convey("When a profile write collides on username", func() {
			primary.err = fmt.Errorf("update user: %w", repository.ErrDuplicate)
			_, err := f.SaveProfile(ctx, model.User{ID: "u1"})

			Convey("Then it is a validation error on username", func() {
				So(errors.Is(err, apperr.ValidationError), ShouldBeTrue)
				So(apperr.DetailsOf(err)[0].Rule, ShouldEqual, "unique")
			})
		})

		Convey("When writing", func() {
			c, err := f.CreateContest(ctx, model.Contest{ID: "new"})

			Convey("Then the primary is called exactly once", func() {
				So(err, ShouldBeNil)
				So(c.ID, ShouldEqual, "new")
				So(primary.calls["create"], ShouldEqual, 1)
			})
		})
	})
}

func TestFacadeFallbackPath(t *testing.T) {
	Convey("Given a primary store that becomes unreachable", t, func() {
		ctx := context.Background()
		primary := newFakeStore()
		primary.err = fmt.Errorf("dial tcp: %w", repository.ErrStoreUnavailable)
		f := repository.NewFacade(primary, fallback.New())

		Convey("When the first read fails", func() {
			page, src, err := f.ListContests(ctx, model.ContestFilter{Page: 1, Limit: 10})

			Convey("Then the fallback answers and the flag is set", func() {
				So(err, ShouldBeNil)
				So(src, ShouldEqual, repository.SourceFallback)
				So(page.Pagination.Total, ShouldEqual, 6)
				So(page.Items[0].ID, ShouldEqual, "contest_1")
				So(f.Unavailable(), ShouldBeTrue)
			})

			Convey("Then later reads skip the primary entirely", func() {
				_, src, err := f.GetContest(ctx, "contest_2")
				So(err, ShouldBeNil)
				So(src, ShouldEqual, repository.SourceFallback)
				So(primary.calls["get"], ShouldEqual, 0)
				So(primary.calls["list"], ShouldEqual, 1)
			})

			Convey("Then writes fail with ServiceUnavailable without touching any store", func() {
				_, err := f.CreateContest(ctx, model.Contest{ID: "x"})
				So(errors.Is(err, apperr.ServiceUnavailable), ShouldBeTrue)
				So(errors.Is(f.DeleteContest(ctx, "contest_3"), apperr.ServiceUnavailable), ShouldBeTrue)
				_, err = f.SaveProfile(ctx, model.User{ID: "user_1"})
				So(errors.Is(err, apperr.ServiceUnavailable), ShouldBeTrue)
				So(primary.calls["create"], ShouldEqual, 0)
				So(primary.calls["delete"], ShouldEqual, 0)
				So(primary.calls["save"], ShouldEqual, 0)
			})

			Convey("Then the flag is never cleared even if the store recovers", func() {
				primary.err = nil
				_, src, err := f.ListSports(ctx, false)
				So(err, ShouldBeNil)
				So(src, ShouldEqual, repository.SourceFallback)
				So(primary.calls["sports"], ShouldEqual, 0)
			})
		})

		Convey("When the first failure is a write", func() {
			_, err := f.UpdateContest(ctx, model.Contest{ID: "p1"})

			Convey("Then it is ServiceUnavailable and reads move to fallback", func() {
				So(errors.Is(err, apperr.ServiceUnavailable), ShouldBeTrue)
				So(f.Unavailable(), ShouldBeTrue)
				So(primary.calls["update"], ShouldEqual, 1)

				_, src, _ := f.GetUser(ctx, "user_1")
				So(src, ShouldEqual, repository.SourceFallback)
			})
		})

		Convey("When fallback lookups miss", func() {
			_, _, err := f.GetContest(ctx, "p1")
			So(errors.Is(err, apperr.NotFound), ShouldBeTrue)
		})
	})

	Convey("Given a facade built without a primary store", t, func() {
		f := repository.NewFacade(nil, fallback.New())

		So(f.Unavailable(), ShouldBeTrue)
		_, src, err := f.ListSports(context.Background(), true)
		So(err, ShouldBeNil)
		So(src, ShouldEqual, repository.SourceFallback)
	})

	Convey("Given MarkUnavailable at startup", t, func() {
		primary := newFakeStore()
		f := repository.NewFacade(primary, fallback.New())
		f.MarkUnavailable(context.Background(), errors.New("ping failed"))
		f.MarkUnavailable(context.Background(), errors.New("again"))

		_, src, err := f.ListContests(context.Background(), model.ContestFilter{Page: 1, Limit: 10})
		So(err, ShouldBeNil)
		So(src, ShouldEqual, repository.SourceFallback)
		So(primary.calls["list"], ShouldEqual, 0)
	})
}
