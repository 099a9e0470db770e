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

type CreditHandler struct {
	credit *services.CreditService
	totp   *services.TOTPService
	users  *services.UserService
}

func NewCreditHandler(credit *services.CreditService, totp *services.TOTPService, users *services.UserService) *CreditHandler {
	return &CreditHandler{credit: credit, totp: totp, users: users}
}

func (h *CreditHandler) CreateRequest(w http.ResponseWriter, r *http.Request) {
	var req models.CreateCreditRequestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	created, err := h.credit.CreateRequest(r.Context(), &req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	utils.JSON(w, http.StatusCreated, created)
}

func (h *CreditHandler) GetRequest(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request id")
		return
	}
	req, err := h.credit.GetRequest(r.Context(), id)
	if err != nil {
		utils.Error(w, http.StatusNotFound, "Credit request not found")
		return
	}
	utils.JSON(w, http.StatusOK, req)
}

func (h *CreditHandler) ListPendingRequests(w http.ResponseWriter, r *http.Request) {
	requests, err := h.credit.ListPendingRequests(r.Context())
	if err != nil {
		utils.Error(w, http.StatusInternalServerError, err.Error())
		return
	}
	utils.JSON(w, http.StatusOK, requests)
}

func (h *CreditHandler) ApproveRequest(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request id")
		return
	}
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		utils.Error(w, http.StatusUnauthorized, "User ID not found in context")
		return
	}
	approved, err := h.credit.Approve(r.Context(), id, &userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, approved)
}

func (h *CreditHandler) RejectRequest(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request id")
		return
	}
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		utils.Error(w, http.StatusUnauthorized, "User ID not found in context")
		return
	}

	var req struct {
		Reason string `json:"reason"`
	}
	json.NewDecoder(r.Body).Decode(&req)

	rejected, err := h.credit.Reject(r.Context(), id, &userID, req.Reason)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, rejected)
}

func (h *CreditHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	farmerID, err := strconv.Atoi(mux.Vars(r)["farmerId"])
	if err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid farmer id")
		return
	}
	profile, err := h.credit.GetProfile(r.Context(), farmerID)
	if err != nil {
		utils.Error(w, http.StatusNotFound, "Credit profile not found")
		return
	}
	utils.JSON(w, http.StatusOK, profile)
}

func (h *CreditHandler) ListProfiles(w http.ResponseWriter, r *http.Request) {
	profiles, err := h.credit.ListProfiles(r.Context())
	if err != nil {
		utils.Error(w, http.StatusInternalServerError, err.Error())
		return
	}
	utils.JSON(w, http.StatusOK, profiles)
}

func (h *CreditHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	farmerID, err := strconv.Atoi(mux.Vars(r)["farmerId"])
	if err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid farmer id")
		return
	}
	txs, err := h.credit.ListTransactions(r.Context(), farmerID)
	if err != nil {
		utils.Error(w, http.StatusInternalServerError, err.Error())
		return
	}
	utils.JSON(w, http.StatusOK, txs)
}

// Repay applies a cash repayment taken at the office.
func (h *CreditHandler) Repay(w http.ResponseWriter, r *http.Request) {
	farmerID, err := strconv.Atoi(mux.Vars(r)["farmerId"])
	if err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid farmer id")
		return
	}
	var req struct {
		Amount float64 `json:"amount"`
		Notes  string  `json:"notes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	tx, err := h.credit.ApplyRepayment(r.Context(), farmerID, req.Amount, "cash", nil, req.Notes)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	utils.JSON(w, http.StatusCreated, tx)
}

func (h *CreditHandler) AuditLedger(w http.ResponseWriter, r *http.Request) {
	farmerID, err := strconv.Atoi(mux.Vars(r)["farmerId"])
	if err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid farmer id")
		return
	}
	if err := h.credit.AuditLedger(r.Context(), farmerID); err != nil {
		writeServiceError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, map[string]string{"status": "consistent"})
}

// SetAutoApprove flips the auto-approve flag. The toggle is sensitive, so an
// enrolled admin must present a fresh TOTP code with the request.
func (h *CreditHandler) SetAutoApprove(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		utils.Error(w, http.StatusUnauthorized, "User ID not found in context")
		return
	}

	var req struct {
		Enabled bool   `json:"enabled"`
		Code    string `json:"code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, err := h.users.Get(r.Context(), userID)
	if err != nil {
		utils.Error(w, http.StatusUnauthorized, "User not found")
		return
	}
	if user.TOTPEnabled && !h.totp.Verify(user, req.Code) {
		utils.Error(w, http.StatusForbidden, "Invalid verification code")
		return
	}

	result, err := h.credit.SetAutoApprove(r.Context(), req.Enabled, userID)
	if err != nil {
		utils.Error(w, http.StatusInternalServerError, err.Error())
		return
	}
	utils.JSON(w, http.StatusOK, result)
}
