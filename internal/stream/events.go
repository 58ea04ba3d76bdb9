package stream

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// DefaultHeartbeat keeps idle SSE connections open through proxies.
const DefaultHeartbeat = 30 * time.Second

// SSEHandler streams broadcast values to browsers as Server-Sent Events,
// one JSON document per event.
type SSEHandler[T any] struct {
	broadcaster *Broadcaster[T]
	event       string
	heartbeat   time.Duration
}

// NewSSEHandler creates a handler that names each message event.
func NewSSEHandler[T any](b *Broadcaster[T], event string) *SSEHandler[T] {
	return &SSEHandler[T]{broadcaster: b, event: event, heartbeat: DefaultHeartbeat}
}

// SetHeartbeat changes the keep-alive comment interval.
func (h *SSEHandler[T]) SetHeartbeat(d time.Duration) {
	if d > 0 {
		h.heartbeat = d
	}
}

func (h *SSEHandler[T]) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(http.StatusOK)

	clientID := uuid.NewString()
	listener := h.broadcaster.Subscribe()
	defer h.broadcaster.Unsubscribe(listener)

	log.Printf("SSE client %s connected (total: %d)", clientID, h.broadcaster.ListenerCount())
	defer log.Printf("SSE client %s disconnected", clientID)

	// Tell the client who it is so it can correlate logs.
	fmt.Fprintf(w, "event: hello\ndata: %q\n\n", clientID)
	flusher.Flush()

	heartbeat := time.NewTicker(h.heartbeat)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-listener.Done():
			return
		case v := <-listener.C:
			data, err := json.Marshal(v)
			if err != nil {
				log.Printf("SSE: marshal error: %v", err)
				continue
			}
			if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", h.event, data); err != nil {
				return
			}
			flusher.Flush()
		case <-heartbeat.C:
			if _, err := fmt.Fprint(w, ":\n\n"); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
