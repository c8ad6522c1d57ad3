package server

import (
	"bytes"
	"context"
	"io"
	"net/http"

	"github.com/gorilla/mux"
)

const maxAuditBody = 4 << 10

// auditLogMiddleware records every mutating call and every failed read.
// Live streams are audited without their body.
func (s *Server) auditLogMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handler := "unknown"
		if route := mux.CurrentRoute(r); route != nil && route.GetName() != "" {
			handler = route.GetName()
		}
		streaming := handler == "subscribe"

		var requestBody []byte
		if r.Body != nil && r.Method != http.MethodGet {
			requestBody, _ = io.ReadAll(io.LimitReader(r.Body, maxAuditBody))
			r.Body = io.NopCloser(io.MultiReader(bytes.NewReader(requestBody), r.Body))
		}

		started := s.clock()
		wrapped := newResponseWriterWrapper(w, !streaming)
		next.ServeHTTP(wrapped, r)

		if r.Method == http.MethodGet && wrapped.GetStatusCode() < http.StatusBadRequest && !streaming {
			return
		}

		actor := actorFrom(r.Context())
		entry := AuditLogEntry{
			Timestamp:  started.UTC(),
			Handler:    handler,
			Method:     r.Method,
			Path:       r.URL.Path,
			StatusCode: wrapped.GetStatusCode(),
			ActorID:    actor.ID,
			ActorRole:  string(actor.Role),
			Resources:  mux.Vars(r),
			Duration:   s.clock().Sub(started),
			Request:    string(requestBody),
			Response:   string(wrapped.GetBody()),
		}
		s.AuditManager.LogEntry(context.WithoutCancel(r.Context()), entry)
	})
}
