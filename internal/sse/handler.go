package sse

import (
	"encoding/json"
	"fmt"
	"net/http"

	"ticketly/internal/logger"
)

// Handler serves the live update stream. The stream is public: it carries
// only seat counts and catalog change markers, never booking data.
type Handler struct {
	Hub    *Hub
	Logger *logger.Logger
}

func NewHandler(hub *Hub, log *logger.Logger) *Handler {
	return &Handler{Hub: hub, Logger: log}
}

// HandleLive streams inventory and catalog updates to a connected client.
func (h *Handler) HandleLive(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	h.setupSSEHeaders(w)

	// Cancels when the client disconnects
	ctx := r.Context()
	updates := h.Hub.Subscribe(ctx)

	fmt.Fprintf(w, "event: connected\ndata: {\"status\":\"connected\"}\n\n")
	flusher.Flush()

	h.Logger.Info("SSE", fmt.Sprintf("Client connected to live updates (%d connected)", h.Hub.ClientCount()))

	for {
		select {
		case notification, ok := <-updates:
			if !ok {
				return
			}

			jsonData, err := json.Marshal(notification)
			if err != nil {
				h.Logger.Error("SSE", fmt.Sprintf("Failed to serialize notification: %v", err))
				continue
			}

			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", notification.Kind, jsonData)
			flusher.Flush()

		case <-ctx.Done():
			h.Logger.Debug("SSE", "Client disconnected from live updates")
			return
		}
	}
}

func (h *Handler) setupSSEHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream;charset=UTF-8")
	w.Header().Set("Cache-Control", "no-cache, no-store, max-age=0, must-revalidate")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Content-Type-Options", "nosniff")
}
