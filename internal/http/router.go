package http

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"dairy-backend/internal/handlers"
	"dairy-backend/internal/middleware"
	"dairy-backend/internal/monitoring"
)

func NewRouter(
	authHandler *handlers.AuthHandler,
	farmerHandler *handlers.FarmerHandler,
	collectionHandler *handlers.CollectionHandler,
	reconciliationHandler *handlers.ReconciliationHandler,
	creditHandler *handlers.CreditHandler,
	paymentHandler *handlers.PaymentHandler,
	razorpayHandler *handlers.RazorpayHandler,
	settingHandler *handlers.SystemSettingHandler,
	totpHandler *handlers.TOTPHandler,
	healthHandler *handlers.HealthHandler,
	statsHandler *monitoring.StatsHandler,
	hub *monitoring.Hub,
	authMiddleware *middleware.AuthMiddleware,
) *mux.Router {
	r := mux.NewRouter()

	// Public routes
	r.HandleFunc("/auth/login", authHandler.Login).Methods("POST")
	r.HandleFunc("/auth/verify-totp", authHandler.VerifyTOTP).Methods("POST")
	r.HandleFunc("/health", healthHandler.BasicHealth).Methods("GET")
	r.HandleFunc("/health/ready", healthHandler.ReadinessHealth).Methods("GET")
	r.Handle("/metrics", promhttp.Handler()).Methods("GET")

	// Razorpay calls this; authenticated by webhook signature, not JWT.
	r.HandleFunc("/api/webhooks/razorpay", razorpayHandler.HandleWebhook).Methods("POST")

	// Session
	authAPI := r.PathPrefix("/api/auth").Subrouter()
	authAPI.Use(authMiddleware.Authenticate)
	authAPI.HandleFunc("/me", authHandler.Me).Methods("GET")
	authAPI.HandleFunc("/totp/setup", totpHandler.Setup).Methods("POST")
	authAPI.HandleFunc("/totp/enable", totpHandler.Enable).Methods("POST")

	// Users (admin)
	usersAPI := r.PathPrefix("/api/users").Subrouter()
	usersAPI.Use(authMiddleware.RequireRole("admin"))
	usersAPI.HandleFunc("", authHandler.ListUsers).Methods("GET")
	usersAPI.HandleFunc("", authHandler.CreateUser).Methods("POST")

	// Farmers
	farmersAPI := r.PathPrefix("/api/farmers").Subrouter()
	farmersAPI.Use(authMiddleware.Authenticate)
	farmersAPI.HandleFunc("", farmerHandler.List).Methods("GET")
	farmersAPI.HandleFunc("", farmerHandler.Register).Methods("POST")
	farmersAPI.HandleFunc("/{id}", farmerHandler.Get).Methods("GET")
	farmersAPI.HandleFunc("/{id}/approve", authMiddleware.RequireRole("admin", "staff")(http.HandlerFunc(farmerHandler.Approve)).ServeHTTP).Methods("POST")
	farmersAPI.HandleFunc("/{id}/reject", authMiddleware.RequireRole("admin", "staff")(http.HandlerFunc(farmerHandler.Reject)).ServeHTTP).Methods("POST")

	// Collections and approvals
	collectionsAPI := r.PathPrefix("/api/collections").Subrouter()
	collectionsAPI.Use(authMiddleware.Authenticate)
	collectionsAPI.HandleFunc("", authMiddleware.RequireRole("collector", "admin")(http.HandlerFunc(collectionHandler.Create)).ServeHTTP).Methods("POST")
	collectionsAPI.HandleFunc("/{id}", collectionHandler.Get).Methods("GET")
	collectionsAPI.HandleFunc("/{id}/approve-payment", authMiddleware.RequireRole("admin", "staff")(http.HandlerFunc(collectionHandler.ApproveForPayment)).ServeHTTP).Methods("POST")
	collectionsAPI.HandleFunc("/{id}/approval", collectionHandler.GetApproval).Methods("GET")
	collectionsAPI.HandleFunc("/{id}/approval", authMiddleware.RequireRole("admin", "staff")(http.HandlerFunc(collectionHandler.RecordApproval)).ServeHTTP).Methods("POST")

	// Collectors: summaries, reconciliation, payments
	collectorsAPI := r.PathPrefix("/api/collectors").Subrouter()
	collectorsAPI.Use(authMiddleware.Authenticate)
	collectorsAPI.HandleFunc("/{collectorId}/summary", collectionHandler.GetDailySummary).Methods("GET")
	collectorsAPI.HandleFunc("/{collectorId}/mark-paid", authMiddleware.RequireRole("admin", "staff")(http.HandlerFunc(reconciliationHandler.MarkPaid)).ServeHTTP).Methods("POST")
	collectorsAPI.HandleFunc("/{collectorId}/payments", paymentHandler.ListByCollector).Methods("GET")
	collectorsAPI.HandleFunc("/{collectorId}/payments", authMiddleware.RequireRole("admin", "staff")(http.HandlerFunc(paymentHandler.Generate)).ServeHTTP).Methods("POST")

	paymentsAPI := r.PathPrefix("/api/payments").Subrouter()
	paymentsAPI.Use(authMiddleware.Authenticate)
	paymentsAPI.HandleFunc("/{id}", paymentHandler.Get).Methods("GET")
	paymentsAPI.HandleFunc("/{id}/statement", paymentHandler.Statement).Methods("GET")

	// Credit
	creditAPI := r.PathPrefix("/api/credit").Subrouter()
	creditAPI.Use(authMiddleware.Authenticate)
	creditAPI.HandleFunc("/requests", creditHandler.CreateRequest).Methods("POST")
	creditAPI.HandleFunc("/requests/pending", creditHandler.ListPendingRequests).Methods("GET")
	creditAPI.HandleFunc("/requests/{id}", creditHandler.GetRequest).Methods("GET")
	creditAPI.HandleFunc("/requests/{id}/approve", authMiddleware.RequireRole("admin", "staff")(http.HandlerFunc(creditHandler.ApproveRequest)).ServeHTTP).Methods("POST")
	creditAPI.HandleFunc("/requests/{id}/reject", authMiddleware.RequireRole("admin", "staff")(http.HandlerFunc(creditHandler.RejectRequest)).ServeHTTP).Methods("POST")
	creditAPI.HandleFunc("/profiles", creditHandler.ListProfiles).Methods("GET")
	creditAPI.HandleFunc("/profiles/{farmerId}", creditHandler.GetProfile).Methods("GET")
	creditAPI.HandleFunc("/profiles/{farmerId}/transactions", creditHandler.ListTransactions).Methods("GET")
	creditAPI.HandleFunc("/profiles/{farmerId}/repay", authMiddleware.RequireRole("admin", "staff")(http.HandlerFunc(creditHandler.Repay)).ServeHTTP).Methods("POST")
	creditAPI.HandleFunc("/profiles/{farmerId}/audit", creditHandler.AuditLedger).Methods("GET")
	creditAPI.HandleFunc("/profiles/{farmerId}/statement", paymentHandler.CreditStatement).Methods("GET")
	creditAPI.HandleFunc("/profiles/{farmerId}/repay-online", razorpayHandler.CreateOrder).Methods("POST")
	creditAPI.HandleFunc("/auto-approve", authMiddleware.RequireAdmin(http.HandlerFunc(creditHandler.SetAutoApprove)).ServeHTTP).Methods("PUT")

	// Settings (admin)
	settingsAPI := r.PathPrefix("/api/settings").Subrouter()
	settingsAPI.Use(authMiddleware.RequireRole("admin"))
	settingsAPI.HandleFunc("", settingHandler.List).Methods("GET")
	settingsAPI.HandleFunc("/{key}", settingHandler.Get).Methods("GET")
	settingsAPI.HandleFunc("/{key}", settingHandler.Update).Methods("PUT")

	// Ops dashboard
	monitoringAPI := r.PathPrefix("/api/monitoring").Subrouter()
	monitoringAPI.HandleFunc("/ws", hub.HandleWS).Methods("GET")
	monitoringAPI.Handle("/stats", authMiddleware.RequireAdmin(http.HandlerFunc(statsHandler.Stats))).Methods("GET")

	return r
}
