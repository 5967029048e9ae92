package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/flencrypto/cfs-platform/internal/adapters/auth"
	"github.com/flencrypto/cfs-platform/internal/adapters/http/api"
	"github.com/flencrypto/cfs-platform/internal/adapters/repository"
	"github.com/flencrypto/cfs-platform/internal/adapters/repository/fallback"
	service "github.com/flencrypto/cfs-platform/internal/app"
	"github.com/flencrypto/cfs-platform/internal/domain/apperr"
	"github.com/flencrypto/cfs-platform/internal/domain/model"
	"github.com/flencrypto/cfs-platform/internal/domain/types"
	"github.com/flencrypto/cfs-platform/pkg/logger"
)

func init() {
	// Initialize logging for tests
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

const testSecret = "test-secret"

var start = time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)

// mockDeps records the calls it receives and returns canned results.
type mockDeps struct {
	contest model.Contest
	page    types.Page[model.Contest]
	sports  []model.Sport
	user    model.User
	source  repository.Source
	err     error

	lastActor  model.Actor
	lastFilter model.ContestFilter
	lastDraft  model.ContestDraft
	lastPatch  model.ContestPatch
	lastTarget model.ContestStatus
	lastActive bool
	lastUpdate model.ProfileUpdate
	calls      int
}

func (m *mockDeps) ListContests(_ context.Context, f model.ContestFilter) (types.Page[model.Contest], repository.Source, error) {
	m.calls++
	m.lastFilter = f
	return m.page, m.source, m.err
}

func (m *mockDeps) GetContest(_ context.Context, id string) (model.Contest, repository.Source, error) {
	m.calls++
	c := m.contest
	c.ID = id
	return c, m.source, m.err
}

func (m *mockDeps) CreateDraft(_ context.Context, d model.ContestDraft, a model.Actor) (model.Contest, error) {
	m.calls++
	m.lastDraft, m.lastActor = d, a
	if m.err != nil {
		return model.Contest{}, m.err
	}
	return d.NewContest("contest_new", a.ID, start.Add(-time.Hour)), nil
}

func (m *mockDeps) UpdateContest(_ context.Context, _ string, p model.ContestPatch, a model.Actor) (model.Contest, error) {
	m.calls++
	m.lastPatch, m.lastActor = p, a
	return m.contest, m.err
}

func (m *mockDeps) TransitionContest(_ context.Context, _ string, target model.ContestStatus, a model.Actor) (model.Contest, error) {
	m.calls++
	m.lastTarget, m.lastActor = target, a
	c := m.contest
	c.Status = target
	return c, m.err
}

func (m *mockDeps) DeleteContest(_ context.Context, _ string, a model.Actor) error {
	m.calls++
	m.lastActor = a
	return m.err
}

func (m *mockDeps) ListSports(_ context.Context, activeOnly bool) ([]model.Sport, repository.Source, error) {
	m.calls++
	m.lastActive = activeOnly
	return m.sports, m.source, m.err
}

func (m *mockDeps) GetProfile(_ context.Context, a model.Actor) (model.User, repository.Source, error) {
	m.calls++
	m.lastActor = a
	if a.ID == "" {
		return model.User{}, "", apperr.New("profile.get", apperr.Unauthorized, "")
	}
	return m.user, m.source, m.err
}

func (m *mockDeps) UpdateProfile(_ context.Context, u model.ProfileUpdate, a model.Actor) (model.User, error) {
	m.calls++
	m.lastUpdate, m.lastActor = u, a
	return m.user, m.err
}

func (m *mockDeps) Status(context.Context) map[string]string {
	return map[string]string{"database": "connected"}
}

type envelope struct {
	Success    bool                `json:"success"`
	Data       json.RawMessage     `json:"data"`
	Error      string              `json:"error"`
	Details    []apperr.FieldIssue `json:"details"`
	Pagination *types.Pagination   `json:"pagination"`
	Message    string              `json:"message"`
}

func decode(w *httptest.ResponseRecorder) envelope {
	var env envelope
	So(json.Unmarshal(w.Body.Bytes(), &env), ShouldBeNil)
	return env
}

func token(sub string, roles ...string) string {
	iss, err := auth.NewIssuer(testSecret, "cfs-test")
	So(err, ShouldBeNil)
	tok, err := iss.Issue(sub, roles, time.Hour)
	So(err, ShouldBeNil)
	return "Bearer " + tok
}

func newHandler(deps api.Dependencies, opts ...api.Option) http.Handler {
	v, err := auth.NewVerifier(testSecret, "cfs-test")
	So(err, ShouldBeNil)
	base := []api.Option{api.WithVerifier(v), api.WithLogger(logger.Get())}
	return api.NewServer(deps, append(base, opts...)...).Handler()
}

func do(h http.Handler, method, target, body, authz string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, http.NoBody)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if authz != "" {
		req.Header.Set("Authorization", authz)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

const createBody = `{"sportId":"soccer","name":"Test Cup","type":"DAILY","entryFee":10,"prizePool":1000,"rosterSize":5,"startTime":"2030-01-01T00:00:00Z"}`

func TestServer_Contests(t *testing.T) {
	Convey("Given an API server over mock dependencies", t, func() {
		deps := &mockDeps{
			contest: model.Contest{ID: "contest_1", Name: "Cup", Status: model.StatusDraft, CreatorID: "u1", StartTime: start},
			source:  repository.SourcePrimary,
		}
		h := newHandler(deps)

		Convey("When listing contests with filters", func() {
			deps.page = types.Page[model.Contest]{
				Items:      []model.Contest{deps.contest},
				Pagination: types.NewPagination(2, 5, 6),
			}
			w := do(h, http.MethodGet, "/api/contests?status=active&page=2&limit=5&sport=nba", "", "")

			Convey("Then the normalized filter reaches the controller", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(*deps.lastFilter.Status, ShouldEqual, model.StatusActive)
				So(deps.lastFilter.Page, ShouldEqual, 2)
				So(deps.lastFilter.Limit, ShouldEqual, 5)
				So(deps.lastFilter.SportSlug, ShouldEqual, "nba")
			})

			Convey("And pagination is included", func() {
				env := decode(w)
				So(env.Success, ShouldBeTrue)
				So(env.Pagination, ShouldNotBeNil)
				So(env.Pagination.TotalPages, ShouldEqual, 2)
				So(env.Pagination.HasPrev, ShouldBeTrue)
				So(w.Header().Get(api.HeaderDataSource), ShouldBeEmpty)
			})
		})

		Convey("When a list filter is invalid", func() {
			w := do(h, http.MethodGet, "/api/contests?status=BOGUS", "", "")

			Convey("Then it is rejected with details and the controller is not called", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				env := decode(w)
				So(env.Error, ShouldEqual, "Validation failed")
				So(env.Details, ShouldNotBeEmpty)
				So(env.Details[0].Field, ShouldEqual, "status")
				So(deps.calls, ShouldEqual, 0)
			})
		})

		Convey("When an empty list is returned", func() {
			w := do(h, http.MethodGet, "/api/contests", "", "")

			Convey("Then data is an empty array", func() {
				So(string(decode(w).Data), ShouldEqual, "[]")
			})
		})

		Convey("When a contest is missing", func() {
			deps.err = apperr.New("contests.get", apperr.NotFound, "")
			w := do(h, http.MethodGet, "/api/contests/nope", "", "")

			Convey("Then 404 Contest not found is returned", func() {
				So(w.Code, ShouldEqual, http.StatusNotFound)
				So(decode(w).Error, ShouldEqual, "Contest not found")
			})
		})

		Convey("When the read is served from fallback data", func() {
			deps.source = repository.SourceFallback
			w := do(h, http.MethodGet, "/api/contests/contest_1", "", "")

			Convey("Then the data source header is set", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Header().Get(api.HeaderDataSource), ShouldEqual, "fallback")
			})
		})

		Convey("When an anonymous caller creates a contest", func() {
			w := do(h, http.MethodPost, "/api/contests", createBody, "")

			Convey("Then 401 Unauthorized is returned without calling the controller", func() {
				So(w.Code, ShouldEqual, http.StatusUnauthorized)
				So(decode(w).Error, ShouldEqual, "Unauthorized")
				So(deps.calls, ShouldEqual, 0)
			})
		})

		Convey("When a bearer token is invalid", func() {
			w := do(h, http.MethodGet, "/api/contests", "", "Bearer not-a-token")

			Convey("Then the request is rejected", func() {
				So(w.Code, ShouldEqual, http.StatusUnauthorized)
			})
		})

		Convey("When an authenticated user creates a contest", func() {
			w := do(h, http.MethodPost, "/api/contests", createBody, token("u1"))

			Convey("Then 201 with a DRAFT contest owned by the caller is returned", func() {
				So(w.Code, ShouldEqual, http.StatusCreated)
				var c model.Contest
				So(json.Unmarshal(decode(w).Data, &c), ShouldBeNil)
				So(c.Status, ShouldEqual, model.StatusDraft)
				So(c.CreatorID, ShouldEqual, "u1")
				So(c.CurrentEntries, ShouldEqual, 0)
				So(deps.lastActor.ID, ShouldEqual, "u1")
			})
		})

		Convey("When the create body is malformed", func() {
			w := do(h, http.MethodPost, "/api/contests", `[1,2]`, token("u1"))

			Convey("Then a body validation error is returned", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				env := decode(w)
				So(env.Details[0].Field, ShouldEqual, "body")
				So(deps.calls, ShouldEqual, 0)
			})
		})

		Convey("When the create body has a bad fee", func() {
			body := strings.Replace(createBody, `"entryFee":10`, `"entryFee":-1`, 1)
			w := do(h, http.MethodPost, "/api/contests", body, token("u1"))

			Convey("Then entryFee is reported", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				env := decode(w)
				fields := []string{}
				for _, d := range env.Details {
					fields = append(fields, d.Field)
				}
				So(fields, ShouldContain, "entryFee")
			})
		})

		Convey("When the store is unavailable on create", func() {
			deps.err = apperr.New("contests.create", apperr.ServiceUnavailable, "down")
			w := do(h, http.MethodPost, "/api/contests", createBody, token("u1"))

			Convey("Then 503 is returned", func() {
				So(w.Code, ShouldEqual, http.StatusServiceUnavailable)
				So(decode(w).Error, ShouldEqual, "Service temporarily unavailable")
			})
		})

		Convey("When a stranger patches a contest", func() {
			deps.err = apperr.New("contests.update", apperr.Forbidden, "")
			w := do(h, http.MethodPatch, "/api/contests/contest_1", `{"name":"Renamed"}`, token("stranger"))

			Convey("Then 403 Forbidden is returned", func() {
				So(w.Code, ShouldEqual, http.StatusForbidden)
				So(decode(w).Error, ShouldEqual, "Forbidden")
				So(*deps.lastPatch.Name, ShouldEqual, "Renamed")
			})
		})

		Convey("When a patch carries no updatable field", func() {
			w := do(h, http.MethodPatch, "/api/contests/contest_1", `{"id":"x","creatorId":"y"}`, token("u1"))

			Convey("Then it is rejected before the controller", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(deps.calls, ShouldEqual, 0)
			})
		})

		Convey("When a transition is requested", func() {
			w := do(h, http.MethodPost, "/api/contests/contest_1/transitions", `{"status":"active"}`, token("u1"))

			Convey("Then the parsed target reaches the controller", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(deps.lastTarget, ShouldEqual, model.StatusActive)
			})
		})

		Convey("When a transition target is unknown", func() {
			w := do(h, http.MethodPost, "/api/contests/contest_1/transitions", `{"status":"paused"}`, token("u1"))

			Convey("Then the status field is rejected", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				env := decode(w)
				So(env.Details[0].Field, ShouldEqual, "status")
				So(env.Details[0].Rule, ShouldEqual, "oneof")
			})
		})

		Convey("When the transition is illegal", func() {
			deps.err = apperr.New("contests.transition", apperr.InvalidTransition, "")
			w := do(h, http.MethodPost, "/api/contests/contest_1/transitions", `{"status":"SETTLED"}`, token("u1"))

			Convey("Then 400 Invalid status transition is returned", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(decode(w).Error, ShouldEqual, "Invalid status transition")
			})
		})

		Convey("When a draft is deleted", func() {
			w := do(h, http.MethodDelete, "/api/contests/contest_1", "", token("u1"))

			Convey("Then a success message is returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				env := decode(w)
				So(env.Success, ShouldBeTrue)
				So(env.Message, ShouldEqual, "Contest deleted successfully")
			})
		})

		Convey("When a non-draft is deleted", func() {
			deps.err = apperr.New("contests.delete", apperr.InvalidState, "")
			w := do(h, http.MethodDelete, "/api/contests/contest_1", "", token("u1"))

			Convey("Then 400 Can only delete draft contests is returned", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(decode(w).Error, ShouldEqual, "Can only delete draft contests")
			})
		})

		Convey("When the controller fails unexpectedly", func() {
			deps.err = errors.New("boom")
			w := do(h, http.MethodGet, "/api/contests", "", "")

			Convey("Then 500 hides the cause", func() {
				So(w.Code, ShouldEqual, http.StatusInternalServerError)
				So(decode(w).Error, ShouldEqual, "Failed to fetch contests")
			})
		})
	})
}

func TestServer_SportsAndProfile(t *testing.T) {
	Convey("Given an API server over mock dependencies", t, func() {
		deps := &mockDeps{
			sports: []model.Sport{{ID: "nba", Slug: "nba", DisplayName: "NBA", IsActive: true}},
			user:   model.User{ID: "u1", Name: model.Ptr("Test User")},
			source: repository.SourcePrimary,
		}
		h := newHandler(deps)

		Convey("When sports are listed with active=true", func() {
			w := do(h, http.MethodGet, "/api/sports?active=true", "", "")

			Convey("Then only active sports are requested", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(deps.lastActive, ShouldBeTrue)
			})
		})

		Convey("When sports are listed with another active value", func() {
			do(h, http.MethodGet, "/api/sports?active=false", "", "")

			Convey("Then the full catalog is requested", func() {
				So(deps.lastActive, ShouldBeFalse)
			})
		})

		Convey("When the profile is read anonymously", func() {
			w := do(h, http.MethodGet, "/api/me", "", "")

			Convey("Then 401 is returned", func() {
				So(w.Code, ShouldEqual, http.StatusUnauthorized)
			})
		})

		Convey("When the profile is read by a missing user", func() {
			deps.err = apperr.New("profile.get", apperr.NotFound, "")
			w := do(h, http.MethodGet, "/api/me", "", token("ghost"))

			Convey("Then 404 User not found is returned", func() {
				So(w.Code, ShouldEqual, http.StatusNotFound)
				So(decode(w).Error, ShouldEqual, "User not found")
			})
		})

		Convey("When the profile is updated", func() {
			w := do(h, http.MethodPatch, "/api/me", `{"profile":{"firstName":"Ada"},"preferences":{"sms":true}}`, token("u1"))

			Convey("Then the validated update reaches the controller", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(*deps.lastUpdate.FirstName, ShouldEqual, "Ada")
				So(*deps.lastUpdate.Notifications.SMS, ShouldBeTrue)
			})
		})

		Convey("When the profile payload is empty", func() {
			w := do(h, http.MethodPatch, "/api/me", `{}`, token("u1"))

			Convey("Then Invalid profile payload is returned", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(decode(w).Error, ShouldEqual, "Invalid profile payload")
			})
		})
	})
}

func TestServer_Operational(t *testing.T) {
	Convey("Given an API server", t, func() {
		deps := &mockDeps{}
		h := newHandler(deps)

		Convey("Then /healthz reports ok", func() {
			w := do(h, http.MethodGet, "/healthz", "", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(decode(w).Success, ShouldBeTrue)
		})

		Convey("Then /status returns the controller report", func() {
			w := do(h, http.MethodGet, "/status", "", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `"database":"connected"`)
		})

		Convey("Then /metrics serves Prometheus text", func() {
			do(h, http.MethodGet, "/healthz", "", "")
			w := do(h, http.MethodGet, "/metrics", "", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, "cfs_contests_http_requests_total")
		})

		Convey("Then unknown routes return a JSON 404", func() {
			w := do(h, http.MethodGet, "/unknown", "", "")
			So(w.Code, ShouldEqual, http.StatusNotFound)
			So(decode(w).Success, ShouldBeFalse)
		})
	})
}

func TestServer_RateLimit(t *testing.T) {
	Convey("Given a server with a burst of two writes", t, func() {
		deps := &mockDeps{contest: model.Contest{Status: model.StatusDraft}}
		h := newHandler(deps, api.WithRateLimiter(api.NewRateLimiter(0.001, 2)))
		authz := token("u1")

		Convey("When a third write arrives immediately", func() {
			codes := []int{}
			for n := 0; n < 3; n++ {
				codes = append(codes, do(h, http.MethodDelete, "/api/contests/contest_1", "", authz).Code)
			}

			Convey("Then it is rejected with 429", func() {
				So(codes, ShouldResemble, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests})
			})

			Convey("And reads are not limited", func() {
				So(do(h, http.MethodGet, "/api/contests", "", authz).Code, ShouldEqual, http.StatusOK)
			})

			Convey("And another actor keeps its own budget", func() {
				So(do(h, http.MethodDelete, "/api/contests/contest_1", "", token("u2")).Code, ShouldEqual, http.StatusOK)
			})
		})
	})
}

func TestServer_FallbackMode(t *testing.T) {
	Convey("Given the real controller over an unavailable store", t, func() {
		ctx := context.Background()
		facade := repository.NewFacade(fallback.New(), fallback.New())
		facade.MarkUnavailable(ctx, errors.New("connection refused"))
		h := newHandler(service.New(facade))

		Convey("When contests are listed", func() {
			w := do(h, http.MethodGet, "/api/contests", "", "")

			Convey("Then mock data is served and labelled", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Header().Get(api.HeaderDataSource), ShouldEqual, "fallback")
				env := decode(w)
				So(env.Pagination.Total, ShouldBeGreaterThan, 0)
			})
		})

		Convey("When a page far beyond the data is requested", func() {
			w := do(h, http.MethodGet, "/api/contests?page=4611686018427387905&limit=10", "", "")

			Convey("Then it is rejected on page rather than crashing", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				env := decode(w)
				So(env.Details, ShouldHaveLength, 1)
				So(env.Details[0].Field, ShouldEqual, "page")
			})
		})

		Convey("When the last representable page is requested", func() {
			w := do(h, http.MethodGet, "/api/contests?page=92233720368547758&limit=100", "", "")

			Convey("Then an empty page is served", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(decode(w).Pagination.Total, ShouldEqual, 6)
			})
		})

		Convey("When a contest is created", func() {
			w := do(h, http.MethodPost, "/api/contests", createBody, token("u1"))

			Convey("Then the write fails loudly with 503", func() {
				So(w.Code, ShouldEqual, http.StatusServiceUnavailable)
			})
		})

		Convey("When status is requested", func() {
			w := do(h, http.MethodGet, "/status", "", "")

			Convey("Then the database is reported disconnected", func() {
				So(w.Body.String(), ShouldContainSubstring, `"database":"disconnected"`)
			})
		})
	})
}
