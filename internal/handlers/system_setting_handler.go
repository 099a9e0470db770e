package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"dairy-backend/internal/middleware"
	"dairy-backend/internal/models"
	"dairy-backend/internal/services"
	"dairy-backend/pkg/utils"
)

type SystemSettingHandler struct {
	service *services.SystemSettingService
}

func NewSystemSettingHandler(service *services.SystemSettingService) *SystemSettingHandler {
	return &SystemSettingHandler{service: service}
}

func (h *SystemSettingHandler) Get(w http.ResponseWriter, r *http.Request) {
	key := mux.Vars(r)["key"]
	setting, err := h.service.Get(r.Context(), key)
	if err != nil {
		utils.Error(w, http.StatusNotFound, "Setting not found")
		return
	}
	utils.JSON(w, http.StatusOK, setting)
}

func (h *SystemSettingHandler) List(w http.ResponseWriter, r *http.Request) {
	settings, err := h.service.List(r.Context())
	if err != nil {
		utils.Error(w, http.StatusInternalServerError, err.Error())
		return
	}
	utils.JSON(w, http.StatusOK, settings)
}

func (h *SystemSettingHandler) Update(w http.ResponseWriter, r *http.Request) {
	key := mux.Vars(r)["key"]

	var req models.UpdateSettingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		utils.Error(w, http.StatusUnauthorized, "User ID not found in context")
		return
	}

	if err := h.service.Update(r.Context(), key, req.SettingValue, userID); err != nil {
		writeServiceError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, map[string]string{"message": "Setting updated successfully"})
}
