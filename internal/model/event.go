package model

import (
	"database/sql"
	"time"
)

// Event log levels.
const (
	EventLevelInfo    = "info"
	EventLevelWarning = "warning"
	EventLevelError   = "error"
)

// Event is an entry in the persistent event log. WARN and ERROR application
// logs are mirrored here for auditing (failed logins, access denials,
// storage failures).
type Event struct {
	ID        int64         `json:"id"`
	Level     string        `json:"level"`
	Category  string        `json:"category"`
	Message   string        `json:"message"`
	UserID    sql.NullInt64 `json:"user_id,omitempty"`
	Metadata  string        `json:"metadata,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
}
