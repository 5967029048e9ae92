// Package types contains common types used across the application
package types

import "github.com/flencrypto/cfs-platform/internal/domain/apperr"

// Pagination describes one page of a list result.
type Pagination struct {
	Page       int  `json:"page"`
	Limit      int  `json:"limit"`
	Total      int  `json:"total"`
	TotalPages int  `json:"totalPages"`
	HasNext    bool `json:"hasNext"`
	HasPrev    bool `json:"hasPrev"`
}

// NewPagination computes page metadata. The primary store and the fallback
// provider both go through here so their responses cannot diverge.
func NewPagination(page, limit, total int) Pagination {
	totalPages := 0
	if limit > 0 {
		totalPages = (total + limit - 1) / limit
	}
	return Pagination{
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
		HasPrev:    page > 1,
	}
}

// Page is a list result plus its pagination.
type Page[T any] struct {
	Items      []T
	Pagination Pagination
}

// Envelope is the response body of every API route.
type Envelope struct {
	Success    bool                `json:"success"`
	Data       any                 `json:"data,omitempty"`
	Error      string              `json:"error,omitempty"`
	Details    []apperr.FieldIssue `json:"details,omitempty"`
	Pagination *Pagination         `json:"pagination,omitempty"`
	Message    string              `json:"message,omitempty"`
}
