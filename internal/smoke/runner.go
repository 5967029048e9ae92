package smoke

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/flencrypto/cfs-platform/internal/adapters/auth"
	"github.com/flencrypto/cfs-platform/pkg/logger"
)

// Sentinel errors.
var (
	ErrUnexpectedStatus = errors.New("unexpected status")
	ErrNoSports         = errors.New("no active sports")
)

// tokenTTL bounds the lifetime of the token issued for one run.
const tokenTTL = 15 * time.Minute

type runner struct {
	cfg    *Config
	client *HTTPClient
	stats  *Stats
	log    logger.Logger

	sportID string
}

// Run walks a contest through its lifecycle against a running service. When
// the service reports its database disconnected the run checks that reads
// still succeed and writes fail with 503 instead.
func Run(ctx context.Context, cfg *Config) (*Stats, error) {
	iss, err := auth.NewIssuer(cfg.Secret, cfg.Issuer)
	if err != nil {
		return nil, fmt.Errorf("token issuer: %w", err)
	}
	token, err := iss.Issue(cfg.Subject, cfg.Roles, tokenTTL)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}

	r := &runner{
		cfg:    cfg,
		client: newHTTPClient(cfg.BaseURL, token, cfg.Timeout),
		stats:  &Stats{StartTime: time.Now()},
		log:    logger.Get().Named("smoke"),
	}
	r.log.Info(ctx, "starting smoke run",
		logger.String("baseURL", cfg.BaseURL),
		logger.String("subject", cfg.Subject))

	err = r.run(ctx)
	r.stats.EndTime = time.Now()
	r.stats.Duration = r.stats.EndTime.Sub(r.stats.StartTime)
	r.displayFinalStats(ctx)
	return r.stats, err
}

func (r *runner) run(ctx context.Context) error {
	steps := []struct {
		name string
		fn   func(context.Context) error
	}{
		{"health", r.checkHealth},
		{"status", r.checkStatus},
		{"sports", r.listSports},
		{"contests", r.listContests},
	}
	for _, s := range steps {
		if err := r.step(ctx, s.name, s.fn); err != nil {
			return err
		}
	}
	if r.stats.ReadOnly {
		return r.step(ctx, "write rejected", r.expectWriteRejected)
	}

	lifecycle := []struct {
		name string
		fn   func(context.Context) error
	}{
		{"create draft", r.createDraft},
		{"get contest", r.getContest},
		{"update contest", r.updateContest},
		{"activate", r.transition("ACTIVE", http.StatusOK)},
		{"delete non-draft", r.deleteContest(http.StatusBadRequest)},
		{"cancel", r.transition("CANCELLED", http.StatusOK)},
		{"reopen cancelled", r.transition("ACTIVE", http.StatusBadRequest)},
	}
	for _, s := range lifecycle {
		if err := r.step(ctx, s.name, s.fn); err != nil {
			return err
		}
	}
	return nil
}

func (r *runner) step(ctx context.Context, name string, fn func(context.Context) error) error {
	r.stats.Steps++
	if err := fn(ctx); err != nil {
		r.stats.Failed++
		r.log.Error(ctx, "step failed", logger.String("step", name), logger.Error(err))
		return fmt.Errorf("%s: %w", name, err)
	}
	r.stats.Passed++
	r.log.Info(ctx, "step passed", logger.String("step", name))
	return nil
}

// call performs a request and checks the status code.
func (r *runner) call(ctx context.Context, method, path string, body any, want int) (response, error) {
	resp, err := r.client.do(ctx, method, path, body, true)
	if err != nil {
		return response{}, err
	}
	if r.cfg.Verbose {
		r.log.Debug(ctx, "response",
			logger.String("method", method),
			logger.String("path", path),
			logger.Int("status", resp.status),
			logger.String("error", resp.body.Error))
	}
	if resp.status != want {
		return resp, fmt.Errorf("%w: %s %s returned %d, want %d (%s)",
			ErrUnexpectedStatus, method, path, resp.status, want, resp.body.Error)
	}
	return resp, nil
}

func (r *runner) checkHealth(ctx context.Context) error {
	_, err := r.call(ctx, http.MethodGet, "/healthz", nil, http.StatusOK)
	return err
}

func (r *runner) checkStatus(ctx context.Context) error {
	resp, err := r.call(ctx, http.MethodGet, "/status", nil, http.StatusOK)
	if err != nil {
		return err
	}
	var status map[string]string
	if err := json.Unmarshal(resp.body.Data, &status); err != nil {
		return fmt.Errorf("decode status: %w", err)
	}
	r.stats.ReadOnly = status["database"] != "connected"
	if r.stats.ReadOnly {
		r.log.Warn(ctx, "service is in fallback mode; running read-only checks")
	}
	return nil
}

func (r *runner) listSports(ctx context.Context) error {
	resp, err := r.call(ctx, http.MethodGet, "/api/sports?active=true", nil, http.StatusOK)
	if err != nil {
		return err
	}
	var sports []struct {
		ID         string `json:"id"`
		RosterSize int    `json:"rosterSize"`
	}
	if err := json.Unmarshal(resp.body.Data, &sports); err != nil {
		return fmt.Errorf("decode sports: %w", err)
	}
	if len(sports) == 0 {
		return ErrNoSports
	}
	r.sportID = sports[0].ID
	return nil
}

func (r *runner) listContests(ctx context.Context) error {
	_, err := r.call(ctx, http.MethodGet, "/api/contests?limit=5", nil, http.StatusOK)
	return err
}

func (r *runner) draftBody() map[string]any {
	start := time.Now().UTC().Add(48 * time.Hour).Truncate(time.Second)
	return map[string]any{
		"sportId":    r.sportID,
		"name":       "Smoke Test " + start.Format("20060102-150405"),
		"type":       "DAILY",
		"entryFee":   1,
		"prizePool":  100,
		"rosterSize": 5,
		"startTime":  start.Format(time.RFC3339),
		"lockTime":   start.Add(-time.Hour).Format(time.RFC3339),
	}
}

func (r *runner) expectWriteRejected(ctx context.Context) error {
	_, err := r.call(ctx, http.MethodPost, "/api/contests", r.draftBody(), http.StatusServiceUnavailable)
	return err
}

func (r *runner) createDraft(ctx context.Context) error {
	resp, err := r.call(ctx, http.MethodPost, "/api/contests", r.draftBody(), http.StatusCreated)
	if err != nil {
		return err
	}
	var c struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	if err := json.Unmarshal(resp.body.Data, &c); err != nil {
		return fmt.Errorf("decode contest: %w", err)
	}
	if c.Status != "DRAFT" {
		return fmt.Errorf("%w: created contest has status %s", ErrUnexpectedStatus, c.Status)
	}
	r.stats.ContestID = c.ID
	return nil
}

func (r *runner) contestPath() string { return "/api/contests/" + r.stats.ContestID }

func (r *runner) getContest(ctx context.Context) error {
	_, err := r.call(ctx, http.MethodGet, r.contestPath(), nil, http.StatusOK)
	return err
}

func (r *runner) updateContest(ctx context.Context) error {
	_, err := r.call(ctx, http.MethodPatch, r.contestPath(), map[string]any{"prizePool": 150}, http.StatusOK)
	return err
}

func (r *runner) transition(target string, want int) func(context.Context) error {
	return func(ctx context.Context) error {
		_, err := r.call(ctx, http.MethodPost, r.contestPath()+"/transitions", map[string]string{"status": target}, want)
		return err
	}
}

func (r *runner) deleteContest(want int) func(context.Context) error {
	return func(ctx context.Context) error {
		_, err := r.call(ctx, http.MethodDelete, r.contestPath(), nil, want)
		return err
	}
}

func (r *runner) displayFinalStats(ctx context.Context) {
	r.log.Info(ctx, "final statistics",
		logger.Int("steps", r.stats.Steps),
		logger.Int("passed", r.stats.Passed),
		logger.Int("failed", r.stats.Failed),
		logger.Bool("readOnly", r.stats.ReadOnly),
		logger.String("contestId", r.stats.ContestID),
		logger.String("duration", r.stats.Duration.String()))
}
