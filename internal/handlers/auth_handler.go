package handlers

import (
	"encoding/json"
	"net/http"

	"dairy-backend/internal/middleware"
	"dairy-backend/internal/models"
	"dairy-backend/internal/services"
	"dairy-backend/pkg/utils"
)

type AuthHandler struct {
	users *services.UserService
	totp  *services.TOTPService
}

func NewAuthHandler(users *services.UserService, totp *services.TOTPService) *AuthHandler {
	return &AuthHandler{users: users, totp: totp}
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	resp, needsTOTP, err := h.users.Login(r.Context(), &req)
	if err != nil {
		utils.Error(w, http.StatusUnauthorized, err.Error())
		return
	}
	if needsTOTP {
		utils.JSON(w, http.StatusOK, map[string]any{
			"requires_totp": true,
			"temp_token":    resp.Token,
		})
		return
	}
	utils.JSON(w, http.StatusOK, resp)
}

// VerifyTOTP finishes a 2FA login: temp token plus authenticator code.
func (h *AuthHandler) VerifyTOTP(w http.ResponseWriter, r *http.Request) {
	var req struct {
		TempToken string `json:"temp_token"`
		Code      string `json:"code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	resp, err := h.users.CompleteTOTPLogin(r.Context(), req.TempToken, req.Code, h.totp.Verify)
	if err != nil {
		utils.Error(w, http.StatusUnauthorized, err.Error())
		return
	}
	utils.JSON(w, http.StatusOK, resp)
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
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
	utils.JSON(w, http.StatusOK, user)
}

func (h *AuthHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req models.CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	user, err := h.users.Create(r.Context(), &req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	utils.JSON(w, http.StatusCreated, user)
}

func (h *AuthHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.List(r.Context())
	if err != nil {
		utils.Error(w, http.StatusInternalServerError, err.Error())
		return
	}
	utils.JSON(w, http.StatusOK, users)
}
