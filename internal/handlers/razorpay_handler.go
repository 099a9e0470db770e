package handlers

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"dairy-backend/internal/services"
	"dairy-backend/pkg/utils"
)

type RazorpayHandler struct {
	service *services.RazorpayService
}

func NewRazorpayHandler(service *services.RazorpayService) *RazorpayHandler {
	return &RazorpayHandler{service: service}
}

// CreateOrder opens an online repayment order for a farmer.
func (h *RazorpayHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	farmerID, err := strconv.Atoi(mux.Vars(r)["farmerId"])
	if err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid farmer id")
		return
	}
	var req struct {
		Amount float64 `json:"amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	repayment, keyID, err := h.service.CreateRepaymentOrder(r.Context(), farmerID, req.Amount)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	utils.JSON(w, http.StatusCreated, map[string]any{
		"order_id": repayment.OrderID,
		"amount":   repayment.Amount,
		"key_id":   keyID,
	})
}

// HandleWebhook processes Razorpay webhook deliveries. Always acknowledges
// with 200 once the signature checks out; Razorpay redelivers on anything
// else and capture handling is idempotent anyway.
func (h *RazorpayHandler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "Failed to read body", http.StatusBadRequest)
		return
	}

	signature := r.Header.Get("X-Razorpay-Signature")
	if !h.service.VerifyWebhookSignature(r.Context(), body, signature) {
		log.Printf("[Razorpay] Invalid webhook signature")
		http.Error(w, "Invalid signature", http.StatusUnauthorized)
		return
	}

	var payload struct {
		Event   string `json:"event"`
		Payload struct {
			Payment struct {
				Entity struct {
					ID      string `json:"id"`
					OrderID string `json:"order_id"`
				} `json:"entity"`
			} `json:"payment"`
		} `json:"payload"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	log.Printf("[Razorpay] Received webhook: %s", payload.Event)

	entity := payload.Payload.Payment.Entity
	switch payload.Event {
	case "payment.captured":
		if err := h.service.HandlePaymentCaptured(r.Context(), entity.OrderID, entity.ID); err != nil {
			log.Printf("[Razorpay] Capture handling error: %v", err)
		}
	case "payment.failed":
		if err := h.service.HandlePaymentFailed(r.Context(), entity.OrderID); err != nil {
			log.Printf("[Razorpay] Failure handling error: %v", err)
		}
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}
