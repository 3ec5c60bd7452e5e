package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"ticketly/internal/auth"
	bookingdb "ticketly/internal/booking/db"
	"ticketly/internal/checkout"
	eventsdb "ticketly/internal/events/db"
	"ticketly/internal/utils"
)

type Handler struct {
	Checkout *checkout.Service
}

type reserveRequest struct {
	EventID string `json:"eventId"`
}

type confirmRequest struct {
	SessionID string `json:"sessionId"`
}

// CreateReservation opens a payment session for one seat on behalf of the
// authenticated user.
func (h *Handler) CreateReservation(w http.ResponseWriter, r *http.Request) {
	var req reserveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("Invalid request body", err.Error()))
		return
	}
	if req.EventID == "" {
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("Invalid request body", "eventId is required"))
		return
	}

	userID := auth.UserID(r.Context())
	resp, err := h.Checkout.InitiateReservation(r.Context(), userID, req.EventID)
	if err != nil {
		h.writeCheckoutError(w, err)
		return
	}

	utils.WriteJSON(w, http.StatusCreated, utils.SuccessResponse("Reservation initiated", resp))
}

// ConfirmReservation settles a payment session. It is called both by the
// frontend after the success redirect and by the gateway callback, so it is
// unauthenticated and idempotent.
func (h *Handler) ConfirmReservation(w http.ResponseWriter, r *http.Request) {
	var req confirmRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("Invalid request body", err.Error()))
		return
	}
	if req.SessionID == "" {
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("Invalid request body", "sessionId is required"))
		return
	}

	resp, err := h.Checkout.ConfirmReservation(r.Context(), req.SessionID)
	if err != nil {
		h.writeCheckoutError(w, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Booking confirmed", resp))
}

func (h *Handler) writeCheckoutError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, eventsdb.ErrNotFound):
		utils.WriteJSON(w, http.StatusNotFound, utils.ErrorResponse("Event not found", err.Error()))
	case errors.Is(err, bookingdb.ErrNotFound):
		utils.WriteJSON(w, http.StatusNotFound, utils.ErrorResponse("Booking not found", err.Error()))
	case errors.Is(err, checkout.ErrSoldOut), errors.Is(err, eventsdb.ErrNoSeatsAvailable):
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("Event is sold out", err.Error()))
	case errors.Is(err, checkout.ErrEventNotActive):
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("Event is not active", err.Error()))
	case errors.Is(err, checkout.ErrPaymentNotCompleted):
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("Payment not completed", err.Error()))
	case errors.Is(err, checkout.ErrBookingFailed):
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("Booking failed", err.Error()))
	case errors.Is(err, checkout.ErrUpstream):
		utils.WriteJSON(w, http.StatusBadGateway, utils.ErrorResponse("Payment gateway unavailable", err.Error()))
	default:
		utils.WriteJSON(w, http.StatusInternalServerError, utils.ErrorResponse("Internal server error", err.Error()))
	}
}
