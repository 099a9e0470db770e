package handlers

import (
	"encoding/json"
	"net/http"

	"dairy-backend/internal/middleware"
	"dairy-backend/internal/services"
	"dairy-backend/pkg/utils"
)

type TOTPHandler struct {
	totp  *services.TOTPService
	users *services.UserService
}

func NewTOTPHandler(totp *services.TOTPService, users *services.UserService) *TOTPHandler {
	return &TOTPHandler{totp: totp, users: users}
}

// Setup starts 2FA enrollment for the logged-in user.
func (h *TOTPHandler) Setup(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		utils.Error(w, http.StatusUnauthorized, "User ID not found in context")
		return
	}
	user, err := h.users.Get(r.Context(), userID)
	if err != nil {
		utils.Error(w, http.StatusNotFound, "User not found")
		return
	}

	setup, err := h.totp.GenerateSetup(r.Context(), user)
	if err != nil {
		utils.Error(w, http.StatusInternalServerError, err.Error())
		return
	}
	utils.JSON(w, http.StatusOK, setup)
}

// Enable verifies the first code and switches 2FA on.
func (h *TOTPHandler) Enable(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		utils.Error(w, http.StatusUnauthorized, "User ID not found in context")
		return
	}
	var req struct {
		Code string `json:"code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.totp.VerifyAndEnable(r.Context(), userID, req.Code); err != nil {
		writeServiceError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, map[string]string{"message": "Two-factor authentication enabled"})
}
