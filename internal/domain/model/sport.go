package model

import (
	"maps"
	"time"
)

// Sport is read-mostly reference data.
type Sport struct {
	ID           string         `json:"id"`
	Slug         string         `json:"slug"`
	Name         string         `json:"name"`
	DisplayName  string         `json:"displayName"`
	IsActive     bool           `json:"isActive"`
	RosterSize   int            `json:"rosterSize"`
	SalaryCap    *float64       `json:"salaryCap"`
	ScoringRules map[string]any `json:"scoringRules"`
	CreatedAt    time.Time      `json:"createdAt"`
	UpdatedAt    time.Time      `json:"updatedAt"`
}

// Clone returns a deep copy of s.
func (s Sport) Clone() Sport {
	out := s
	out.SalaryCap = clonePtr(s.SalaryCap)
	out.ScoringRules = maps.Clone(s.ScoringRules)
	return out
}
