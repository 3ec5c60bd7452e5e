package api

import (
	"net/http"
	"strconv"

	bookingdb "ticketly/internal/booking/db"
	"ticketly/internal/events"
	eventsdb "ticketly/internal/events/db"
	"ticketly/internal/models"
	usersdb "ticketly/internal/users/db"
	"ticketly/internal/utils"
)

// Handler serves the admin dashboard endpoints. All routes require the
// admin role.
type Handler struct {
	Events   *events.Service
	EventsDB *eventsdb.DB
	Bookings *bookingdb.DB
	Users    *usersdb.DB
}

type stats struct {
	TotalUsers     int `json:"totalUsers"`
	TotalEvents    int `json:"totalEvents"`
	TotalBookings  int `json:"totalBookings"`
	PaidBookings   int `json:"paidBookings"`
	FailedBookings int `json:"failedBookings"`
}

// GetStats returns aggregate counts for the admin dashboard.
func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userCount, err := h.Users.CountUsers(ctx)
	if err != nil {
		utils.WriteJSON(w, http.StatusInternalServerError, utils.ErrorResponse("Could not load stats", err.Error()))
		return
	}

	eventCount, err := h.EventsDB.CountEvents(ctx)
	if err != nil {
		utils.WriteJSON(w, http.StatusInternalServerError, utils.ErrorResponse("Could not load stats", err.Error()))
		return
	}

	paid, err := h.Bookings.CountBookingsByStatus(ctx, models.BookingStatusPaid)
	if err != nil {
		utils.WriteJSON(w, http.StatusInternalServerError, utils.ErrorResponse("Could not load stats", err.Error()))
		return
	}

	failed, err := h.Bookings.CountBookingsByStatus(ctx, models.BookingStatusFailed)
	if err != nil {
		utils.WriteJSON(w, http.StatusInternalServerError, utils.ErrorResponse("Could not load stats", err.Error()))
		return
	}

	pending, err := h.Bookings.CountBookingsByStatus(ctx, models.BookingStatusPending)
	if err != nil {
		utils.WriteJSON(w, http.StatusInternalServerError, utils.ErrorResponse("Could not load stats", err.Error()))
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Stats retrieved", stats{
		TotalUsers:     userCount,
		TotalEvents:    eventCount,
		TotalBookings:  paid + failed + pending,
		PaidBookings:   paid,
		FailedBookings: failed,
	}))
}

// ListEvents returns all events regardless of status, newest first, for
// the admin event table.
func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	opts := eventsdb.ListOptions{
		Status:        "all",
		Page:          parseIntParam(r, "page", 1),
		Limit:         parseIntParam(r, "limit", 10),
		SortByCreated: true,
	}

	list, err := h.Events.List(r.Context(), opts)
	if err != nil {
		utils.WriteJSON(w, http.StatusInternalServerError, utils.ErrorResponse("Could not list events", err.Error()))
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Events retrieved", list))
}

func parseIntParam(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	val, err := strconv.Atoi(raw)
	if err != nil || val < 1 {
		return def
	}
	return val
}
