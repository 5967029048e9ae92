// Package model contains domain models passed between layers.
package model

import (
	"maps"
	"math"
	"strings"
	"time"

	"github.com/flencrypto/cfs-platform/internal/domain/apperr"
)

// ContestStatus is the lifecycle state of a contest.
type ContestStatus string

// Contest statuses.
const (
	StatusDraft     ContestStatus = "DRAFT"
	StatusActive    ContestStatus = "ACTIVE"
	StatusLocked    ContestStatus = "LOCKED"
	StatusSettled   ContestStatus = "SETTLED"
	StatusCancelled ContestStatus = "CANCELLED"
)

// Statuses lists every status in lifecycle order.
var Statuses = []ContestStatus{StatusDraft, StatusActive, StatusLocked, StatusSettled, StatusCancelled}

// Valid reports whether s is a known status.
func (s ContestStatus) Valid() bool {
	switch s {
	case StatusDraft, StatusActive, StatusLocked, StatusSettled, StatusCancelled:
		return true
	}
	return false
}

// ParseStatus parses a status case-insensitively.
func ParseStatus(v string) (ContestStatus, bool) {
	s := ContestStatus(strings.ToUpper(strings.TrimSpace(v)))
	return s, s.Valid()
}

// ContestType is the format of a contest.
type ContestType string

// Contest types.
const (
	TypeDaily      ContestType = "DAILY"
	TypeWeekly     ContestType = "WEEKLY"
	TypeSeasonal   ContestType = "SEASONAL"
	TypeHeadToHead ContestType = "HEAD_TO_HEAD"
	TypeTournament ContestType = "TOURNAMENT"
	TypeMultiplier ContestType = "MULTIPLIER"
)

// Valid reports whether t is a known type.
func (t ContestType) Valid() bool {
	switch t {
	case TypeDaily, TypeWeekly, TypeSeasonal, TypeHeadToHead, TypeTournament, TypeMultiplier:
		return true
	}
	return false
}

// ParseType parses a contest type case-insensitively.
func ParseType(v string) (ContestType, bool) {
	t := ContestType(strings.ToUpper(strings.TrimSpace(v)))
	return t, t.Valid()
}

// UserSummary is the creator projection embedded in contests.
type UserSummary struct {
	ID       string  `json:"id"`
	Username *string `json:"username"`
	Name     *string `json:"name"`
	Image    *string `json:"image"`
}

// Contest is a scored competition instance.
type Contest struct {
	ID             string         `json:"id"`
	SportID        string         `json:"sportId"`
	Sport          *Sport         `json:"sport,omitempty"`
	CreatorID      string         `json:"creatorId"`
	Creator        *UserSummary   `json:"creator,omitempty"`
	Name           string         `json:"name"`
	Description    *string        `json:"description"`
	Type           ContestType    `json:"type"`
	Status         ContestStatus  `json:"status"`
	EntryFee       float64        `json:"entryFee"`
	PrizePool      float64        `json:"prizePool"`
	SalaryCap      *float64       `json:"salaryCap"`
	RosterSize     int            `json:"rosterSize"`
	MaxEntries     *int           `json:"maxEntries"`
	CurrentEntries int            `json:"currentEntries"`
	StartTime      time.Time      `json:"startTime"`
	LockTime       *time.Time     `json:"lockTime"`
	EndTime        *time.Time     `json:"endTime"`
	IsPrivate      bool           `json:"isPrivate"`
	InviteCode     *string        `json:"inviteCode"`
	ScoringRules   map[string]any `json:"scoringRules"`
	CreatedAt      time.Time      `json:"createdAt"`
	UpdatedAt      time.Time      `json:"updatedAt"`
}

// Clone returns a copy that shares no pointers or maps with c.
func (c Contest) Clone() Contest {
	out := c
	out.Description = clonePtr(c.Description)
	out.SalaryCap = clonePtr(c.SalaryCap)
	out.MaxEntries = clonePtr(c.MaxEntries)
	out.LockTime = clonePtr(c.LockTime)
	out.EndTime = clonePtr(c.EndTime)
	out.InviteCode = clonePtr(c.InviteCode)
	out.ScoringRules = maps.Clone(c.ScoringRules)
	if c.Sport != nil {
		s := c.Sport.Clone()
		out.Sport = &s
	}
	if c.Creator != nil {
		cr := *c.Creator
		out.Creator = &cr
	}
	return out
}

// Validate checks the numeric and temporal invariants of a fully merged
// contest and returns every violation. A nil slice means the contest is valid.
func (c Contest) Validate() []apperr.FieldIssue {
	var issues []apperr.FieldIssue
	add := func(field, rule, msg string) {
		issues = append(issues, apperr.FieldIssue{Field: field, Rule: rule, Message: msg})
	}

	if strings.TrimSpace(c.SportID) == "" {
		add("sportId", "required", "sport reference is required")
	}
	if strings.TrimSpace(c.Name) == "" {
		add("name", "required", "name must not be empty")
	}
	if !c.Type.Valid() {
		add("type", "oneof", "unknown contest type")
	}
	if !c.Status.Valid() {
		add("status", "oneof", "unknown contest status")
	}
	if c.EntryFee < 0 {
		add("entryFee", "gte", "entry fee must not be negative")
	}
	if c.PrizePool < 0 {
		add("prizePool", "gte", "prize pool must not be negative")
	}
	if c.SalaryCap != nil && *c.SalaryCap < 0 {
		add("salaryCap", "gte", "salary cap must not be negative")
	}
	if c.RosterSize <= 0 {
		add("rosterSize", "gt", "roster size must be positive")
	}
	if c.MaxEntries != nil && *c.MaxEntries <= 0 {
		add("maxEntries", "gt", "max entries must be positive")
	}
	if c.CurrentEntries < 0 {
		add("currentEntries", "gte", "current entries must not be negative")
	}
	if c.MaxEntries != nil && c.CurrentEntries > *c.MaxEntries {
		add("maxEntries", "gtefield", "max entries must not be below current entries")
	}
	if c.StartTime.IsZero() {
		add("startTime", "required", "start time is required")
	} else {
		if c.LockTime != nil && c.LockTime.After(c.StartTime) {
			add("lockTime", "ltefield", "lock time must not be after start time")
		}
		if c.EndTime != nil && c.EndTime.Before(c.StartTime) {
			add("endTime", "gtefield", "end time must not be before start time")
		}
	}
	return issues
}

// ContestFilter is a normalized list query.
type ContestFilter struct {
	Page        int
	Limit       int
	SportSlug   string
	Status      *ContestStatus
	Type        *ContestType
	MinEntryFee *float64
	MaxEntryFee *float64

	// LockDueBy selects contests whose lock time is at or before the instant.
	LockDueBy *time.Time
}

// Offset returns the number of records to skip, saturating at math.MaxInt.
func (f ContestFilter) Offset() int {
	if f.Page < 1 || f.Limit < 1 {
		return 0
	}
	if f.Page-1 > math.MaxInt/f.Limit {
		return math.MaxInt
	}
	return (f.Page - 1) * f.Limit
}

// Matches reports whether c satisfies every supplied predicate. sportSlug is
// the slug of the contest's resolved sport.
func (f ContestFilter) Matches(c Contest, sportSlug string) bool {
	if f.SportSlug != "" && f.SportSlug != sportSlug {
		return false
	}
	if f.Status != nil && c.Status != *f.Status {
		return false
	}
	if f.Type != nil && c.Type != *f.Type {
		return false
	}
	if f.MinEntryFee != nil && c.EntryFee < *f.MinEntryFee {
		return false
	}
	if f.MaxEntryFee != nil && c.EntryFee > *f.MaxEntryFee {
		return false
	}
	if f.LockDueBy != nil && (c.LockTime == nil || c.LockTime.After(*f.LockDueBy)) {
		return false
	}
	return true
}

// ContestDraft is a validated create payload.
type ContestDraft struct {
	SportID      string
	Name         string
	Description  *string
	Type         ContestType
	EntryFee     float64
	PrizePool    float64
	SalaryCap    *float64
	RosterSize   int
	MaxEntries   *int
	StartTime    time.Time
	LockTime     *time.Time
	EndTime      *time.Time
	IsPrivate    bool
	ScoringRules map[string]any
}

// NewContest materializes a DRAFT contest from the draft.
func (d ContestDraft) NewContest(id, creatorID string, now time.Time) Contest {
	rules := maps.Clone(d.ScoringRules)
	if rules == nil {
		rules = map[string]any{}
	}
	return Contest{
		ID:             id,
		SportID:        d.SportID,
		CreatorID:      creatorID,
		Name:           d.Name,
		Description:    clonePtr(d.Description),
		Type:           d.Type,
		Status:         StatusDraft,
		EntryFee:       d.EntryFee,
		PrizePool:      d.PrizePool,
		SalaryCap:      clonePtr(d.SalaryCap),
		RosterSize:     d.RosterSize,
		MaxEntries:     clonePtr(d.MaxEntries),
		CurrentEntries: 0,
		StartTime:      d.StartTime,
		LockTime:       clonePtr(d.LockTime),
		EndTime:        clonePtr(d.EndTime),
		IsPrivate:      d.IsPrivate,
		ScoringRules:   rules,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// ContestPatch is a validated partial update. Nil fields are absent.
type ContestPatch struct {
	SportID      *string
	Name         *string
	Description  *string
	Type         *ContestType
	Status       *ContestStatus
	EntryFee     *float64
	PrizePool    *float64
	SalaryCap    *float64
	RosterSize   *int
	MaxEntries   *int
	StartTime    *time.Time
	LockTime     *time.Time
	EndTime      *time.Time
	IsPrivate    *bool
	InviteCode   *string
	ScoringRules map[string]any
}

// IsEmpty reports whether the patch carries no field.
func (p ContestPatch) IsEmpty() bool {
	return p.SportID == nil && p.Name == nil && p.Description == nil && p.Type == nil &&
		p.Status == nil && p.EntryFee == nil && p.PrizePool == nil && p.SalaryCap == nil &&
		p.RosterSize == nil && p.MaxEntries == nil && p.StartTime == nil && p.LockTime == nil &&
		p.EndTime == nil && p.IsPrivate == nil && p.InviteCode == nil && p.ScoringRules == nil
}

// Apply merges every non-status field onto a copy of c. Status changes go
// through the lifecycle transition check instead.
func (p ContestPatch) Apply(c Contest) Contest {
	out := c.Clone()
	setIf(&out.SportID, p.SportID)
	setIf(&out.Name, p.Name)
	setIf(&out.Type, p.Type)
	setIf(&out.EntryFee, p.EntryFee)
	setIf(&out.PrizePool, p.PrizePool)
	setIf(&out.RosterSize, p.RosterSize)
	setIf(&out.StartTime, p.StartTime)
	setIf(&out.IsPrivate, p.IsPrivate)
	if p.Description != nil {
		out.Description = clonePtr(p.Description)
	}
	if p.SalaryCap != nil {
		out.SalaryCap = clonePtr(p.SalaryCap)
	}
	if p.MaxEntries != nil {
		out.MaxEntries = clonePtr(p.MaxEntries)
	}
	if p.LockTime != nil {
		out.LockTime = clonePtr(p.LockTime)
	}
	if p.EndTime != nil {
		out.EndTime = clonePtr(p.EndTime)
	}
	if p.InviteCode != nil {
		out.InviteCode = clonePtr(p.InviteCode)
	}
	if p.ScoringRules != nil {
		out.ScoringRules = maps.Clone(p.ScoringRules)
	}
	if p.SportID != nil && *p.SportID != c.SportID {
		out.Sport = nil
	}
	return out
}

func setIf[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}

func clonePtr[T any](v *T) *T {
	if v == nil {
		return nil
	}
	cp := *v
	return &cp
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T { return &v }
