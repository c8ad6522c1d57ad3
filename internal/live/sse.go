package live

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

const DefaultHeartbeat = 15 * time.Second

var ErrStreamingUnsupported = errors.New("streaming not supported by response writer")

// WriteFrame writes ev in text/event-stream framing.
func WriteFrame(w io.Writer, ev Event) error {
	_, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Name, ev.Data)
	return err
}

// Stream copies the session's events to w until ctx ends or the session is
// closed, emitting a heartbeat event every interval.
func Stream(ctx context.Context, w http.ResponseWriter, s *Session, interval time.Duration) error {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return ErrStreamingUnsupported
	}
	if interval <= 0 {
		interval = DefaultHeartbeat
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	heartbeat, err := NewEvent(EventHeartbeat, heartbeatPayload)
	if err != nil {
		return err
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		var ev Event
		select {
		case <-ctx.Done():
			return nil
		case <-s.Done():
			return nil
		case <-ticker.C:
			ev = heartbeat
		case ev = <-s.Events():
		}
		if err := WriteFrame(w, ev); err != nil {
			return err
		}
		flusher.Flush()
	}
}
