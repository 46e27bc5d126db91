package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// sseStream writes server-sent events, flushing after each one.
type sseStream struct {
	w       http.ResponseWriter
	flusher http.Flusher
	started time.Time
	events  int
}

func newSSEStream(w http.ResponseWriter) (*sseStream, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, fmt.Errorf("response writer does not support streaming")
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	return &sseStream{w: w, flusher: flusher, started: time.Now()}, nil
}

// send writes one event with a plain-text payload. Multi-line payloads get
// one data line per line, per the SSE framing rules.
func (s *sseStream) send(event, data string) error {
	if _, err := fmt.Fprintf(s.w, "event: %s\n", event); err != nil {
		return err
	}
	for _, line := range strings.Split(data, "\n") {
		if _, err := fmt.Fprintf(s.w, "data: %s\n", line); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprint(s.w, "\n"); err != nil {
		return err
	}
	s.flusher.Flush()
	s.events++
	return nil
}

// sendJSON writes one event with a JSON payload.
func (s *sseStream) sendJSON(event string, payload any) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return s.send(event, string(b))
}

// finish writes the terminal metrics event.
func (s *sseStream) finish(requestID string) {
	s.sendJSON("metrics", map[string]any{
		"duration_ms": time.Since(s.started).Milliseconds(),
		"chunks":      s.events,
		"request_id":  requestID,
	})
}
