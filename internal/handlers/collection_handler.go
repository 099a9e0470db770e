package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"dairy-backend/internal/middleware"
	"dairy-backend/internal/models"
	"dairy-backend/internal/services"
	"dairy-backend/internal/timeutil"
	"dairy-backend/pkg/utils"
)

type CollectionHandler struct {
	collections *services.CollectionService
	approvals   *services.ApprovalService
}

func NewCollectionHandler(collections *services.CollectionService, approvals *services.ApprovalService) *CollectionHandler {
	return &CollectionHandler{collections: collections, approvals: approvals}
}

// Create records a collector's field reading for a farmer delivery.
func (h *CollectionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreateCollectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	collectorID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		utils.Error(w, http.StatusUnauthorized, "User ID not found in context")
		return
	}

	collection, err := h.collections.Record(r.Context(), &req, collectorID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	utils.JSON(w, http.StatusCreated, collection)
}

func (h *CollectionHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid collection id")
		return
	}
	collection, err := h.collections.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, collection)
}

// ApproveForPayment is the office step that makes a reading eligible for
// volume approval and payment.
func (h *CollectionHandler) ApproveForPayment(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid collection id")
		return
	}
	collection, err := h.collections.ApproveForPayment(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, collection)
}

// RecordApproval confirms the volume actually received for a collection and
// computes variance and penalty.
func (h *CollectionHandler) RecordApproval(w http.ResponseWriter, r *http.Request) {
	collectionID, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid collection id")
		return
	}
	staffID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		utils.Error(w, http.StatusUnauthorized, "User ID not found in context")
		return
	}

	var req models.RecordApprovalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.CollectionID = collectionID

	approval, err := h.approvals.RecordApproval(r.Context(), &req, staffID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	utils.JSON(w, http.StatusCreated, approval)
}

func (h *CollectionHandler) GetApproval(w http.ResponseWriter, r *http.Request) {
	collectionID, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid collection id")
		return
	}
	approval, err := h.approvals.GetByCollectionID(r.Context(), collectionID)
	if err != nil {
		utils.Error(w, http.StatusNotFound, "Approval not found")
		return
	}
	utils.JSON(w, http.StatusOK, approval)
}

// GetDailySummary returns a collector's summary for one date (YYYY-MM-DD,
// defaults to today).
func (h *CollectionHandler) GetDailySummary(w http.ResponseWriter, r *http.Request) {
	collectorID, err := strconv.Atoi(mux.Vars(r)["collectorId"])
	if err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid collector id")
		return
	}

	date := timeutil.Now()
	if v := r.URL.Query().Get("date"); v != "" {
		parsed, err := time.ParseInLocation(timeutil.DateLayout, v, timeutil.EAT)
		if err != nil {
			utils.Error(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
			return
		}
		date = parsed
	}

	summary, err := h.approvals.GetDailySummary(r.Context(), collectorID, date)
	if err != nil {
		utils.Error(w, http.StatusNotFound, "Summary not found")
		return
	}
	utils.JSON(w, http.StatusOK, summary)
}
