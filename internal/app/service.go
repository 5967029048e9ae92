// Package service provides the contest lifecycle controller that sits
// between the HTTP API and the repository facade.
package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/flencrypto/cfs-platform/internal/adapters/cache"
	"github.com/flencrypto/cfs-platform/internal/adapters/repository"
	"github.com/flencrypto/cfs-platform/internal/domain/apperr"
	"github.com/flencrypto/cfs-platform/internal/domain/lifecycle"
	"github.com/flencrypto/cfs-platform/internal/domain/model"
	"github.com/flencrypto/cfs-platform/internal/domain/types"
	"github.com/flencrypto/cfs-platform/pkg/logger"
	"github.com/flencrypto/cfs-platform/pkg/metrics"
)

// Operation names used in errors, logs and metrics.
const (
	OpCreate        = "contests.create"
	OpUpdate        = "contests.update"
	OpDelete        = "contests.delete"
	OpTransition    = "contests.transition"
	OpList          = "contests.list"
	OpGet           = "contests.get"
	OpSports        = "sports.list"
	OpGetProfile    = "profile.get"
	OpUpdateProfile = "profile.update"
	OpLockSweep     = "contests.lock_sweep"
)

// SystemActorID identifies writes made by background jobs.
const SystemActorID = "system"

// Repository is the facade the service writes through. *repository.Facade
// implements it.
type Repository interface {
	ListContests(ctx context.Context, filter model.ContestFilter) (types.Page[model.Contest], repository.Source, error)
	GetContest(ctx context.Context, id string) (model.Contest, repository.Source, error)
	ListSports(ctx context.Context, activeOnly bool) ([]model.Sport, repository.Source, error)
	GetUser(ctx context.Context, id string) (model.User, repository.Source, error)

	CreateContest(ctx context.Context, c model.Contest) (model.Contest, error)
	UpdateContest(ctx context.Context, c model.Contest) (model.Contest, error)
	DeleteContest(ctx context.Context, id string) error
	SaveProfile(ctx context.Context, u model.User) (model.User, error)

	Unavailable() bool
}

// Service implements the contest lifecycle rules.
type Service struct {
	repo   Repository
	sports cache.SportCache
	logger logger.Logger
	now    func() time.Time
	newID  func() string

	sweepBatch int
	redisOn    bool
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithSportCache enables the sport catalog cache.
func WithSportCache(c cache.SportCache) Option {
	return func(s *Service) {
		if c != nil {
			s.sports = c
			_, nop := c.(cache.Nop)
			s.redisOn = !nop
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithIDGenerator overrides contest id generation.
func WithIDGenerator(gen func() string) Option {
	return func(s *Service) {
		if gen != nil {
			s.newID = gen
		}
	}
}

// WithSweepBatch sets how many due contests one sweep may lock.
func WithSweepBatch(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.sweepBatch = n
		}
	}
}

// New constructs a Service over repo.
func New(repo Repository, opts ...Option) *Service {
	s := &Service{
		repo:       repo,
		sports:     cache.Nop{},
		logger:     logger.Nop(),
		now:        func() time.Time { return time.Now().UTC() },
		newID:      uuid.NewString,
		sweepBatch: 100,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// observe records the outcome of a lifecycle operation.
func (s *Service) observe(ctx context.Context, op string, err error) {
	if err == nil {
		metrics.RecordContestOperation(op, "ok")
		return
	}
	kind := apperr.KindOf(err)
	metrics.RecordContestOperation(op, string(kind))
	if kind == apperr.Internal {
		s.logger.Error(ctx, "contest operation failed", logger.String("op", op), logger.Error(err))
	}
}

func requireActor(op string, actor model.Actor) error {
	if actor.ID == "" {
		return apperr.New(op, apperr.Unauthorized, "authentication required")
	}
	return nil
}

// writable fails fast while the facade serves from fallback data.
func (s *Service) writable(op string) error {
	if s.repo.Unavailable() {
		metrics.RecordWriteRejected(op)
		return apperr.New(op, apperr.ServiceUnavailable, "contest store is unavailable")
	}
	return nil
}

func invalid(op string, issues []apperr.FieldIssue) error {
	metrics.RecordValidationRejection(op)
	return apperr.Invalid(op, issues)
}

// CreateDraft stores a new DRAFT contest owned by actor.
func (s *Service) CreateDraft(ctx context.Context, draft model.ContestDraft, actor model.Actor) (out model.Contest, err error) {
	defer func() { s.observe(ctx, OpCreate, err) }()

	if err := requireActor(OpCreate, actor); err != nil {
		return model.Contest{}, err
	}
	if err := s.writable(OpCreate); err != nil {
		return model.Contest{}, err
	}

	c := draft.NewContest(s.newID(), actor.ID, s.now())
	if issues := c.Validate(); len(issues) > 0 {
		return model.Contest{}, invalid(OpCreate, issues)
	}

	created, err := s.repo.CreateContest(ctx, c)
	if err != nil {
		return model.Contest{}, err
	}
	s.logger.Info(ctx, "contest created",
		logger.String("contest_id", created.ID),
		logger.String("creator_id", actor.ID))
	return created, nil
}

// loadForWrite returns the current contest after the availability and
// authorization checks that precede every mutation.
func (s *Service) loadForWrite(ctx context.Context, op, id string, actor model.Actor) (model.Contest, error) {
	if err := requireActor(op, actor); err != nil {
		return model.Contest{}, err
	}
	if err := s.writable(op); err != nil {
		return model.Contest{}, err
	}
	current, _, err := s.repo.GetContest(ctx, id)
	if err != nil {
		return model.Contest{}, err
	}
	if err := lifecycle.Authorize(op, actor, current); err != nil {
		return model.Contest{}, err
	}
	return current, nil
}

// UpdateContest merges patch onto the stored contest. A status different
// from the current one is checked against the transition table. An empty
// patch is rejected before the store is read.
func (s *Service) UpdateContest(ctx context.Context, id string, patch model.ContestPatch, actor model.Actor) (out model.Contest, err error) {
	defer func() { s.observe(ctx, OpUpdate, err) }()

	if patch.IsEmpty() {
		return model.Contest{}, invalid(OpUpdate, []apperr.FieldIssue{
			{Field: "body", Rule: "noop", Message: "no updatable fields provided"},
		})
	}
	current, err := s.loadForWrite(ctx, OpUpdate, id, actor)
	if err != nil {
		return model.Contest{}, err
	}

	merged := patch.Apply(current)
	transition := patch.Status != nil && *patch.Status != current.Status
	if transition {
		if err := lifecycle.CheckTransition(OpUpdate, current.Status, *patch.Status); err != nil {
			return model.Contest{}, err
		}
		merged.Status = *patch.Status
	}
	if issues := merged.Validate(); len(issues) > 0 {
		return model.Contest{}, invalid(OpUpdate, issues)
	}
	merged.UpdatedAt = s.now()

	updated, err := s.repo.UpdateContest(ctx, merged)
	if err != nil {
		return model.Contest{}, err
	}
	if transition {
		metrics.RecordContestTransition(string(current.Status), string(merged.Status))
	}
	s.logger.Info(ctx, "contest updated",
		logger.String("contest_id", id),
		logger.String("status", string(updated.Status)))
	return updated, nil
}

// TransitionContest moves a contest to target.
func (s *Service) TransitionContest(ctx context.Context, id string, target model.ContestStatus, actor model.Actor) (out model.Contest, err error) {
	defer func() { s.observe(ctx, OpTransition, err) }()

	current, err := s.loadForWrite(ctx, OpTransition, id, actor)
	if err != nil {
		return model.Contest{}, err
	}
	if err := lifecycle.CheckTransition(OpTransition, current.Status, target); err != nil {
		return model.Contest{}, err
	}

	next := current.Clone()
	next.Status = target
	next.UpdatedAt = s.now()
	updated, err := s.repo.UpdateContest(ctx, next)
	if err != nil {
		return model.Contest{}, err
	}
	metrics.RecordContestTransition(string(current.Status), string(target))
	s.logger.Info(ctx, "contest transitioned",
		logger.String("contest_id", id),
		logger.String("from", string(current.Status)),
		logger.String("to", string(target)),
		logger.String("actor_id", actor.ID))
	return updated, nil
}

// DeleteContest removes a DRAFT contest.
func (s *Service) DeleteContest(ctx context.Context, id string, actor model.Actor) (err error) {
	defer func() { s.observe(ctx, OpDelete, err) }()

	current, err := s.loadForWrite(ctx, OpDelete, id, actor)
	if err != nil {
		return err
	}
	if err := lifecycle.CheckDeletable(OpDelete, current); err != nil {
		return err
	}
	if err := s.repo.DeleteContest(ctx, id); err != nil {
		return err
	}
	s.logger.Info(ctx, "contest deleted", logger.String("contest_id", id), logger.String("actor_id", actor.ID))
	return nil
}

// ListContests returns one page of contests.
func (s *Service) ListContests(ctx context.Context, filter model.ContestFilter) (types.Page[model.Contest], repository.Source, error) {
	page, src, err := s.repo.ListContests(ctx, filter)
	s.observe(ctx, OpList, err)
	return page, src, err
}

// GetContest returns a single contest.
func (s *Service) GetContest(ctx context.Context, id string) (model.Contest, repository.Source, error) {
	c, src, err := s.repo.GetContest(ctx, id)
	s.observe(ctx, OpGet, err)
	return c, src, err
}

// ListSports serves the catalog through the sport cache. Cache failures are
// logged and treated as misses; fallback results are never cached.
func (s *Service) ListSports(ctx context.Context, activeOnly bool) ([]model.Sport, repository.Source, error) {
	if !s.repo.Unavailable() {
		sports, ok, err := s.sports.GetSports(ctx, activeOnly)
		switch {
		case err != nil:
			metrics.RecordCacheLookup("error")
			s.logger.Warn(ctx, "sport cache read failed", logger.Error(err))
		case ok:
			metrics.RecordCacheLookup("hit")
			return sports, repository.SourcePrimary, nil
		default:
			metrics.RecordCacheLookup("miss")
		}
	}

	sports, src, err := s.repo.ListSports(ctx, activeOnly)
	s.observe(ctx, OpSports, err)
	if err != nil {
		return nil, src, err
	}
	if src == repository.SourcePrimary {
		if err := s.sports.SetSports(ctx, activeOnly, sports); err != nil {
			s.logger.Warn(ctx, "sport cache write failed", logger.Error(err))
		}
	}
	return sports, src, nil
}

// GetProfile returns the actor's user record with its profile.
func (s *Service) GetProfile(ctx context.Context, actor model.Actor) (model.User, repository.Source, error) {
	if err := requireActor(OpGetProfile, actor); err != nil {
		return model.User{}, "", err
	}
	u, src, err := s.repo.GetUser(ctx, actor.ID)
	s.observe(ctx, OpGetProfile, err)
	return u, src, err
}

// UpdateProfile merges update onto the actor's user and profile.
func (s *Service) UpdateProfile(ctx context.Context, update model.ProfileUpdate, actor model.Actor) (out model.User, err error) {
	defer func() { s.observe(ctx, OpUpdateProfile, err) }()

	if err := requireActor(OpUpdateProfile, actor); err != nil {
		return model.User{}, err
	}
	if err := s.writable(OpUpdateProfile); err != nil {
		return model.User{}, err
	}
	current, _, err := s.repo.GetUser(ctx, actor.ID)
	if err != nil {
		return model.User{}, err
	}
	next, changed := update.Apply(current, s.now())
	if !changed {
		return current, nil
	}
	saved, err := s.repo.SaveProfile(ctx, next)
	if err != nil {
		return model.User{}, err
	}
	s.logger.Info(ctx, "profile updated", logger.String("user_id", actor.ID))
	return saved, nil
}

// LockDueContests moves ACTIVE contests whose lock time has passed to
// LOCKED and returns how many were locked. It does nothing while the store is
// unavailable. Failures on individual contests are logged and skipped.
func (s *Service) LockDueContests(ctx context.Context) (int, error) {
	if s.repo.Unavailable() {
		return 0, nil
	}
	now := s.now()
	active := model.StatusActive
	page, _, err := s.repo.ListContests(ctx, model.ContestFilter{
		Page:      1,
		Limit:     s.sweepBatch,
		Status:    &active,
		LockDueBy: &now,
	})
	if err != nil {
		s.observe(ctx, OpLockSweep, err)
		return 0, err
	}

	system := model.Actor{ID: SystemActorID, Roles: []string{model.RoleSuperAdmin}}
	locked := 0
	for _, c := range page.Items {
		if _, err := s.TransitionContest(ctx, c.ID, model.StatusLocked, system); err != nil {
			s.logger.Warn(ctx, "lock sweep skipped contest",
				logger.String("contest_id", c.ID), logger.Error(err))
			continue
		}
		locked++
	}
	s.observe(ctx, OpLockSweep, nil)
	return locked, nil
}

// Integration statuses reported by Status.
const (
	StatusConnected    = "connected"
	StatusDisconnected = "disconnected"
	StatusFallback     = "fallback"
	StatusMock         = "mock"
)

// Status reports the state of every backing service. Integrations this
// service does not talk to are reported as mock.
func (s *Service) Status(context.Context) map[string]string {
	status := map[string]string{
		"database":     StatusConnected,
		"auth":         StatusConnected,
		"redis":        StatusFallback,
		"payments":     StatusMock,
		"sportsData":   StatusMock,
		"kyc":          StatusMock,
		"fraud":        StatusMock,
		"messaging":    StatusMock,
		"analytics":    StatusMock,
		"monitoring":   StatusMock,
		"featureFlags": StatusMock,
	}
	if s.repo.Unavailable() {
		status["database"] = StatusDisconnected
	}
	if s.redisOn {
		status["redis"] = StatusConnected
	}
	return status
}
