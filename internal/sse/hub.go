package sse

import (
	"context"
	"sync"

	"ticketly/internal/models"
)

// Hub manages SSE connections and broadcasts inventory and catalog updates
// to every connected client.
type Hub struct {
	clients     []chan models.Notification
	clientMutex sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{}
}

// Subscribe adds a client and returns its channel. The client is removed
// and its channel closed when the context is done.
func (h *Hub) Subscribe(ctx context.Context) chan models.Notification {
	clientChan := make(chan models.Notification, 10)

	h.clientMutex.Lock()
	h.clients = append(h.clients, clientChan)
	h.clientMutex.Unlock()

	go func() {
		<-ctx.Done()
		h.removeClient(clientChan)
	}()

	return clientChan
}

// BroadcastInventoryChanged notifies all clients that an event's seat count
// changed after a confirmed booking.
func (h *Hub) BroadcastInventoryChanged(eventID string, availableSeats int, soldOut bool) {
	h.broadcast(models.Notification{
		Kind:           models.NotificationInventoryChanged,
		EventID:        eventID,
		AvailableSeats: &availableSeats,
		SoldOut:        &soldOut,
	})
}

// BroadcastCatalogChanged notifies all clients that the event catalog
// changed and lists should be refetched.
func (h *Hub) BroadcastCatalogChanged() {
	h.broadcast(models.Notification{
		Kind: models.NotificationCatalogChanged,
	})
}

func (h *Hub) broadcast(n models.Notification) {
	// Sends stay under the read lock so removeClient cannot close a channel
	// mid-broadcast. Sends are non-blocking, so a slow client never stalls
	// the broadcaster.
	h.clientMutex.RLock()
	defer h.clientMutex.RUnlock()

	for _, clientChan := range h.clients {
		select {
		case clientChan <- n:
		default:
		}
	}
}

func (h *Hub) removeClient(clientChan chan models.Notification) {
	h.clientMutex.Lock()
	defer h.clientMutex.Unlock()

	for i, ch := range h.clients {
		if ch == clientChan {
			h.clients = append(h.clients[:i], h.clients[i+1:]...)
			close(clientChan)
			break
		}
	}
}

// ClientCount returns the number of currently connected clients.
func (h *Hub) ClientCount() int {
	h.clientMutex.RLock()
	defer h.clientMutex.RUnlock()
	return len(h.clients)
}
