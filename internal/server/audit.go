package server

import (
	"time"
)

// AuditLogEntry records one API call that passed authentication.
type AuditLogEntry struct {
	Timestamp  time.Time         `json:"timestamp"`
	Handler    string            `json:"handler"`
	Method     string            `json:"method"`
	Path       string            `json:"path"`
	StatusCode int               `json:"status_code"`
	ActorID    string            `json:"actor_id,omitempty"`
	ActorRole  string            `json:"actor_role,omitempty"`
	Resources  map[string]string `json:"resources,omitempty"`
	Duration   time.Duration     `json:"duration"`
	Request    string            `json:"request,omitempty"`
	Response   string            `json:"response,omitempty"`
}
