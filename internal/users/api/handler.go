package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"ticketly/internal/auth"
	"ticketly/internal/users"
	"ticketly/internal/users/db"
	"ticketly/internal/utils"
)

type Handler struct {
	Users *users.Service
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	Token string      `json:"token"`
	User  interface{} `json:"user"`
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("Invalid request body", err.Error()))
		return
	}

	user, token, err := h.Users.Register(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		h.writeUserError(w, err)
		return
	}

	utils.WriteJSON(w, http.StatusCreated, utils.SuccessResponse("User registered", authResponse{Token: token, User: user}))
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("Invalid request body", err.Error()))
		return
	}

	user, token, err := h.Users.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.writeUserError(w, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Logged in", authResponse{Token: token, User: user}))
}

// Me returns the authenticated user's profile.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.Users.Get(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		h.writeUserError(w, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("User retrieved", user))
}

func (h *Handler) writeUserError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, users.ErrValidation):
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("Validation failed", err.Error()))
	case errors.Is(err, users.ErrInvalidCredentials):
		utils.WriteJSON(w, http.StatusUnauthorized, utils.ErrorResponse("Invalid credentials", err.Error()))
	case errors.Is(err, db.ErrDuplicateEmail):
		utils.WriteJSON(w, http.StatusConflict, utils.ErrorResponse("Email already registered", err.Error()))
	case errors.Is(err, db.ErrNotFound):
		utils.WriteJSON(w, http.StatusNotFound, utils.ErrorResponse("User not found", err.Error()))
	default:
		utils.WriteJSON(w, http.StatusInternalServerError, utils.ErrorResponse("Internal server error", err.Error()))
	}
}
