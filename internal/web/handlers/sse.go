package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/kozaktomas/photo-framer/internal/constants"
	"github.com/kozaktomas/photo-framer/internal/web/middleware"
	"github.com/kozaktomas/photo-framer/internal/workflow"
)

// setupSSEConnection takes the session from the request context and sets up SSE headers.
// Returns the session, flusher, and true on success. On failure, writes an error response and returns zero values with false.
func setupSSEConnection(w http.ResponseWriter, r *http.Request) (*workflow.Session, http.Flusher, bool) {
	session := middleware.GetSessionFromContext(r.Context())
	if session == nil {
		respondError(w, http.StatusNotFound, "session not found")
		return nil, nil, false
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		respondError(w, http.StatusInternalServerError, "streaming not supported")
		return nil, nil, false
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	return session, flusher, true
}

// streamSessionEvents sends the current snapshot, then streams updates until the session
// closes or the client disconnects. Idle connections get a comment line as heartbeat.
func streamSessionEvents(w http.ResponseWriter, r *http.Request) {
	session, flusher, ok := setupSSEConnection(w, r)
	if !ok {
		return
	}

	eventCh := session.AddListener()
	defer session.RemoveListener(eventCh)

	snap := session.Snapshot()
	sendSSEEvent(w, flusher, workflow.EventState, workflow.Event{
		Type:    workflow.EventState,
		Message: snap.Message,
		Data:    snap,
	})

	heartbeat := time.NewTicker(constants.SSEHeartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-heartbeat.C:
			_, _ = io.WriteString(w, ": ping\n\n")
			flusher.Flush()
		case event, ok := <-eventCh:
			if !ok {
				return
			}
			sendSSEEvent(w, flusher, event.Type, event)
			if event.Type == workflow.EventClosed {
				return
			}
		}
	}
}

func sendSSEEvent(w http.ResponseWriter, flusher http.Flusher, eventType string, data any) {
	jsonData, _ := json.Marshal(data)
	_, _ = io.WriteString(w, "event: "+eventType+"\n")
	_, _ = io.WriteString(w, "data: ")
	_, _ = io.Copy(w, bytes.NewReader(jsonData))
	_, _ = io.WriteString(w, "\n\n")
	flusher.Flush()
}
