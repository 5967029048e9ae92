package smoke

import (
	"encoding/json"
	"net/http"
	"time"
)

// Config holds configuration for a smoke run.
type Config struct {
	BaseURL string        // Base URL of the service
	Secret  string        // HS256 secret shared with the service
	Issuer  string        // iss claim expected by the service
	Subject string        // Actor id the token is issued for
	Roles   []string      // Roles claimed by the token
	Timeout time.Duration // HTTP request timeout
	Verbose bool          // Log every step response
}

// Stats holds run statistics.
type Stats struct {
	Steps     int
	Passed    int
	Failed    int
	ReadOnly  bool
	ContestID string
	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration
}

// envelope mirrors the service response body.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Message string          `json:"message"`
}

// response is one decoded API reply.
type response struct {
	status int
	header http.Header
	body   envelope
}
