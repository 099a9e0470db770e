package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"dairy-backend/internal/services"
	"dairy-backend/internal/timeutil"
	"dairy-backend/pkg/utils"
)

type PaymentHandler struct {
	payments   *services.CollectorPaymentService
	statements *services.StatementService
}

func NewPaymentHandler(payments *services.CollectorPaymentService, statements *services.StatementService) *PaymentHandler {
	return &PaymentHandler{payments: payments, statements: statements}
}

// Generate settles a collector for a period (from/to, YYYY-MM-DD).
func (h *PaymentHandler) Generate(w http.ResponseWriter, r *http.Request) {
	collectorID, err := strconv.Atoi(mux.Vars(r)["collectorId"])
	if err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid collector id")
		return
	}
	var req struct {
		From string `json:"from"`
		To   string `json:"to"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	from, err := time.ParseInLocation(timeutil.DateLayout, req.From, timeutil.EAT)
	if err != nil {
		utils.Error(w, http.StatusBadRequest, "from must be YYYY-MM-DD")
		return
	}
	to, err := time.ParseInLocation(timeutil.DateLayout, req.To, timeutil.EAT)
	if err != nil {
		utils.Error(w, http.StatusBadRequest, "to must be YYYY-MM-DD")
		return
	}

	payment, err := h.payments.GeneratePayment(r.Context(), collectorID, from, to)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	utils.JSON(w, http.StatusCreated, payment)
}

func (h *PaymentHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid payment id")
		return
	}
	payment, err := h.payments.Get(r.Context(), id)
	if err != nil {
		utils.Error(w, http.StatusNotFound, "Payment not found")
		return
	}
	utils.JSON(w, http.StatusOK, payment)
}

func (h *PaymentHandler) ListByCollector(w http.ResponseWriter, r *http.Request) {
	collectorID, err := strconv.Atoi(mux.Vars(r)["collectorId"])
	if err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid collector id")
		return
	}
	payments, err := h.payments.ListByCollector(r.Context(), collectorID)
	if err != nil {
		utils.Error(w, http.StatusInternalServerError, err.Error())
		return
	}
	utils.JSON(w, http.StatusOK, payments)
}

// Statement streams the payment statement PDF.
func (h *PaymentHandler) Statement(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid payment id")
		return
	}
	data, err := h.statements.GeneratePaymentStatement(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="payment_%d.pdf"`, id))
	w.Write(data)
}

// CreditStatement streams a farmer's credit ledger PDF.
func (h *PaymentHandler) CreditStatement(w http.ResponseWriter, r *http.Request) {
	farmerID, err := strconv.Atoi(mux.Vars(r)["farmerId"])
	if err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid farmer id")
		return
	}
	data, err := h.statements.GenerateCreditStatement(r.Context(), farmerID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="credit_statement_%d.pdf"`, farmerID))
	w.Write(data)
}
