package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"dairy-backend/internal/services"
	"dairy-backend/internal/timeutil"
	"dairy-backend/pkg/utils"
)

type ReconciliationHandler struct {
	reconciliation *services.ReconciliationService
}

func NewReconciliationHandler(reconciliation *services.ReconciliationService) *ReconciliationHandler {
	return &ReconciliationHandler{reconciliation: reconciliation}
}

// MarkPaid settles a collector's payable collections, optionally limited to
// a date range (from/to query params, YYYY-MM-DD).
func (h *ReconciliationHandler) MarkPaid(w http.ResponseWriter, r *http.Request) {
	collectorID, err := strconv.Atoi(mux.Vars(r)["collectorId"])
	if err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid collector id")
		return
	}

	var from, to *time.Time
	if v := r.URL.Query().Get("from"); v != "" {
		parsed, err := time.ParseInLocation(timeutil.DateLayout, v, timeutil.EAT)
		if err != nil {
			utils.Error(w, http.StatusBadRequest, "from must be YYYY-MM-DD")
			return
		}
		start := timeutil.DateOf(parsed)
		from = &start
	}
	if v := r.URL.Query().Get("to"); v != "" {
		parsed, err := time.ParseInLocation(timeutil.DateLayout, v, timeutil.EAT)
		if err != nil {
			utils.Error(w, http.StatusBadRequest, "to must be YYYY-MM-DD")
			return
		}
		end := timeutil.DateOf(parsed)
		to = &end
	}

	result, err := h.reconciliation.MarkCollectionsAsPaid(r.Context(), collectorID, from, to)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, result)
}
