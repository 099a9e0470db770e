package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"dairy-backend/internal/middleware"
	"dairy-backend/internal/models"
	"dairy-backend/internal/services"
	"dairy-backend/pkg/utils"
)

type FarmerHandler struct {
	farmers *services.FarmerService
}

func NewFarmerHandler(farmers *services.FarmerService) *FarmerHandler {
	return &FarmerHandler{farmers: farmers}
}

func (h *FarmerHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterFarmerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	farmer, err := h.farmers.Register(r.Context(), &req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	utils.JSON(w, http.StatusCreated, farmer)
}

func (h *FarmerHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid farmer id")
		return
	}
	farmer, err := h.farmers.Get(r.Context(), id)
	if err != nil {
		utils.Error(w, http.StatusNotFound, "Farmer not found")
		return
	}
	utils.JSON(w, http.StatusOK, farmer)
}

func (h *FarmerHandler) List(w http.ResponseWriter, r *http.Request) {
	status := models.FarmerStatus(r.URL.Query().Get("status"))
	farmers, err := h.farmers.List(r.Context(), status)
	if err != nil {
		utils.Error(w, http.StatusInternalServerError, err.Error())
		return
	}
	utils.JSON(w, http.StatusOK, farmers)
}

func (h *FarmerHandler) Approve(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid farmer id")
		return
	}
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		utils.Error(w, http.StatusUnauthorized, "User ID not found in context")
		return
	}

	var req struct {
		Tier models.CreditTier `json:"tier"`
	}
	// Body is optional; missing tier falls back to bronze.
	json.NewDecoder(r.Body).Decode(&req)

	farmer, err := h.farmers.Approve(r.Context(), id, userID, req.Tier)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, farmer)
}

func (h *FarmerHandler) Reject(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid farmer id")
		return
	}
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		utils.Error(w, http.StatusUnauthorized, "User ID not found in context")
		return
	}
	farmer, err := h.farmers.Reject(r.Context(), id, userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, farmer)
}
