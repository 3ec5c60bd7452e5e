package models

// Notification kinds pushed over the realtime channel.
const (
	NotificationInventoryChanged = "inventory-changed"
	NotificationCatalogChanged   = "catalog-changed"
)

// Notification is a best-effort broadcast to connected clients. The seat
// fields are pointers so catalog-changed messages serialize without them
// while availableSeats: 0 still appears on inventory-changed.
type Notification struct {
	Kind           string `json:"kind"`
	EventID        string `json:"eventId,omitempty"`
	AvailableSeats *int   `json:"availableSeats,omitempty"`
	SoldOut        *bool  `json:"soldOut,omitempty"`
}
