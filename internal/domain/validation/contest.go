package validation

import (
	"strings"
	"time"

	"github.com/flencrypto/cfs-platform/internal/domain/model"
)

// immutableFields are never accepted from an update payload.
var immutableFields = map[string]bool{ //nolint:gochecknoglobals // read-only
	"id":             true,
	"creatorId":      true,
	"createdAt":      true,
	"updatedAt":      true,
	"currentEntries": true,
}

type contestInput struct {
	SportID    *string    `json:"sportId" validate:"required,min=1"`
	Name       *string    `json:"name" validate:"required,min=1"`
	Type       *string    `json:"type" validate:"required,contest_type"`
	EntryFee   *float64   `json:"entryFee" validate:"required,gte=0"`
	PrizePool  *float64   `json:"prizePool" validate:"required,gte=0"`
	RosterSize *int       `json:"rosterSize" validate:"required,gt=0"`
	MaxEntries *int       `json:"maxEntries" validate:"omitempty,gt=0"`
	SalaryCap  *float64   `json:"salaryCap" validate:"omitempty,gte=0"`
	StartTime  *time.Time `json:"startTime" validate:"required"`
}

type patchInput struct {
	SportID    *string  `json:"sportId" validate:"omitempty,min=1"`
	Name       *string  `json:"name" validate:"omitempty,min=1"`
	Type       *string  `json:"type" validate:"omitempty,contest_type"`
	Status     *string  `json:"status" validate:"omitempty,contest_status"`
	EntryFee   *float64 `json:"entryFee" validate:"omitempty,gte=0"`
	PrizePool  *float64 `json:"prizePool" validate:"omitempty,gte=0"`
	RosterSize *int     `json:"rosterSize" validate:"omitempty,gt=0"`
	MaxEntries *int     `json:"maxEntries" validate:"omitempty,gt=0"`
	SalaryCap  *float64 `json:"salaryCap" validate:"omitempty,gte=0"`
}

// CreateContest validates a POST /api/contests body.
func CreateContest(raw map[string]any) (model.ContestDraft, *Rejection) {
	rej := &Rejection{Op: "contests.create"}
	rd := newReader(raw, "", rej)

	in := contestInput{
		SportID:    rd.trimmed("sportId"),
		Name:       rd.trimmed("name"),
		Type:       upper(rd.trimmed("type")),
		EntryFee:   rd.number("entryFee"),
		PrizePool:  rd.number("prizePool"),
		RosterSize: rd.integer("rosterSize"),
		MaxEntries: rd.integer("maxEntries"),
		SalaryCap:  rd.number("salaryCap"),
		StartTime:  rd.timestamp("startTime"),
	}
	endTime := rd.timestamp("endTime")
	lockTime := rd.timestamp("lockTime")
	isPrivate := rd.boolean("isPrivate")
	description := rd.str("description")
	rules := rd.object("scoringRules")

	rej.check(in, "", rd.failed)
	checkWindow(rej, in.StartTime, lockTime, endTime)
	if rej = rej.orNil(); rej != nil {
		return model.ContestDraft{}, rej
	}

	d := model.ContestDraft{
		SportID:      *in.SportID,
		Name:         *in.Name,
		Description:  description,
		Type:         model.ContestType(*in.Type),
		EntryFee:     *in.EntryFee,
		PrizePool:    *in.PrizePool,
		SalaryCap:    in.SalaryCap,
		RosterSize:   *in.RosterSize,
		MaxEntries:   in.MaxEntries,
		StartTime:    *in.StartTime,
		LockTime:     lockTime,
		EndTime:      endTime,
		ScoringRules: rules,
	}
	if isPrivate != nil {
		d.IsPrivate = *isPrivate
	}
	return d, nil
}

// UpdateContest validates a PATCH /api/contests/{id} body. Immutable and
// unknown keys are dropped; a body with no recognized field is a no-op
// rejection.
func UpdateContest(raw map[string]any) (model.ContestPatch, *Rejection) {
	rej := &Rejection{Op: "contests.update"}
	accepted := make(map[string]any, len(raw))
	for k, v := range raw {
		if !immutableFields[k] {
			accepted[k] = v
		}
	}
	rd := newReader(accepted, "", rej)

	in := patchInput{
		SportID:    rd.trimmed("sportId"),
		Name:       rd.trimmed("name"),
		Type:       upper(rd.trimmed("type")),
		Status:     upper(rd.trimmed("status")),
		EntryFee:   rd.number("entryFee"),
		PrizePool:  rd.number("prizePool"),
		RosterSize: rd.integer("rosterSize"),
		MaxEntries: rd.integer("maxEntries"),
		SalaryCap:  rd.number("salaryCap"),
	}
	p := model.ContestPatch{
		StartTime:    rd.timestamp("startTime"),
		EndTime:      rd.timestamp("endTime"),
		LockTime:     rd.timestamp("lockTime"),
		IsPrivate:    rd.boolean("isPrivate"),
		Description:  rd.str("description"),
		InviteCode:   rd.str("inviteCode"),
		ScoringRules: rd.object("scoringRules"),
	}

	if rd.seen == 0 {
		rej.add("body", "noop", "no updatable fields provided")
		return model.ContestPatch{}, rej
	}

	rej.check(in, "", rd.failed)
	if p.StartTime != nil {
		checkWindow(rej, p.StartTime, p.LockTime, p.EndTime)
	}
	if rej = rej.orNil(); rej != nil {
		return model.ContestPatch{}, rej
	}

	p.SportID = in.SportID
	p.Name = in.Name
	p.EntryFee = in.EntryFee
	p.PrizePool = in.PrizePool
	p.RosterSize = in.RosterSize
	p.MaxEntries = in.MaxEntries
	p.SalaryCap = in.SalaryCap
	if in.Type != nil {
		t := model.ContestType(*in.Type)
		p.Type = &t
	}
	if in.Status != nil {
		s := model.ContestStatus(*in.Status)
		p.Status = &s
	}
	return p, nil
}

func checkWindow(rej *Rejection, start, lock, end *time.Time) {
	if start == nil {
		return
	}
	if lock != nil && lock.After(*start) {
		rej.add("lockTime", "ltefield", "must not be after startTime")
	}
	if end != nil && end.Before(*start) {
		rej.add("endTime", "gtefield", "must not be before startTime")
	}
}

func upper(s *string) *string {
	if s == nil {
		return nil
	}
	u := strings.ToUpper(*s)
	return &u
}
