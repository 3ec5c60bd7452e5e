package api

import (
	"errors"
	"net/http"

	"ticketly/internal/auth"
	"ticketly/internal/booking/db"
	"ticketly/internal/booking/pass"
	"ticketly/internal/models"
	"ticketly/internal/utils"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	Bookings *db.DB
	Passes   *pass.Generator
}

// ListBookings returns the authenticated user's booking history, newest
// first.
func (h *Handler) ListBookings(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	bookings, err := h.Bookings.ListBookingsByUser(r.Context(), userID)
	if err != nil {
		utils.WriteJSON(w, http.StatusInternalServerError, utils.ErrorResponse("Could not list bookings", err.Error()))
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Bookings retrieved", bookings))
}

// GetEntryPass serves the QR entry pass for a paid booking. Only the
// booking's owner may fetch it.
func (h *Handler) GetEntryPass(w http.ResponseWriter, r *http.Request) {
	bookingID := chi.URLParam(r, "bookingId")

	booking, err := h.Bookings.GetBookingByID(r.Context(), bookingID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			utils.WriteJSON(w, http.StatusNotFound, utils.ErrorResponse("Booking not found", err.Error()))
			return
		}
		utils.WriteJSON(w, http.StatusInternalServerError, utils.ErrorResponse("Internal server error", err.Error()))
		return
	}

	if booking.UserID != auth.UserID(r.Context()) {
		utils.WriteJSON(w, http.StatusForbidden, utils.ErrorResponse("Forbidden", "booking belongs to another user"))
		return
	}

	if booking.Status != models.BookingStatusPaid {
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("Booking not paid", "entry passes are issued for paid bookings only"))
		return
	}

	png, err := h.Passes.GenerateEntryPass(booking)
	if err != nil {
		utils.WriteJSON(w, http.StatusInternalServerError, utils.ErrorResponse("Could not generate entry pass", err.Error()))
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	w.Write(png)
}
