package http

import (
	"database/sql"
	"net/http"

	"fees-module/http/handlers"
	"fees-module/http/middleware"
	"fees-module/http/response"
)

// Handlers bundles the route handlers wired in main.
type Handlers struct {
	Students      *handlers.StudentHandler
	FeeStructures *handlers.FeeStructureHandler
	Payments      *handlers.PaymentHandler
	Offline       *handlers.OfflineHandler
	Defaulters    *handlers.DefaulterHandler
	Receipts      *handlers.ReceiptHandler
	Webhook       *handlers.WebhookHandler
}

// SetupRoutes configures all HTTP routes and middleware on the mux.
// Token issuance is external; routes only check the bearer token and its
// role claim.
func SetupRoutes(mux *http.ServeMux, h Handlers, auth *middleware.Authenticator, database *sql.DB) {
	cors := middleware.EnableCORS

	// Student Management APIs (admin)
	mux.HandleFunc("POST /api/students", cors(auth.Require(h.Students.Create, middleware.RoleAdmin)))
	mux.HandleFunc("GET /api/students", cors(auth.Require(h.Students.List, middleware.RoleAdmin, middleware.RoleTeacher)))
	mux.HandleFunc("GET /api/students/{studentId}", cors(auth.Require(h.Students.Get)))
	mux.HandleFunc("PATCH /api/students/{studentId}/class", cors(auth.Require(h.Students.ReassignClass, middleware.RoleAdmin)))

	// Fee Structure APIs
	mux.HandleFunc("POST /api/fee-structures", cors(auth.Require(h.FeeStructures.Upsert, middleware.RoleAdmin)))
	mux.HandleFunc("GET /api/fee-structures", cors(auth.Require(h.FeeStructures.List)))
	mux.HandleFunc("GET /api/fee-structures/{className}", cors(auth.Require(h.FeeStructures.Get)))

	// Online Payment APIs
	mux.HandleFunc("GET /api/student-fees/structure/{studentId}", cors(auth.Require(h.Payments.Structure)))
	mux.HandleFunc("POST /api/student-fees/create-order", cors(auth.Require(h.Payments.CreateOrder)))
	mux.HandleFunc("POST /api/student-fees/verify-payment", cors(auth.Require(h.Payments.VerifyPayment)))
	mux.HandleFunc("POST /api/student-fees/record-payment", cors(auth.Require(h.Payments.RecordPayment, middleware.RoleAdmin)))
	mux.HandleFunc("GET /api/student-fees/payments/{studentId}", cors(auth.Require(h.Payments.ListPayments)))
	mux.HandleFunc("GET /api/student-fees/receipt/{kind}/{paymentId}", cors(auth.Require(h.Receipts.Get)))

	// Offline Fee APIs
	mux.HandleFunc("POST /api/offline-fees/add", cors(auth.Require(h.Offline.Add, middleware.RoleAdmin)))
	mux.HandleFunc("GET /api/offline-fees/summary/{studentId}", cors(auth.Require(h.Offline.Summary)))
	mux.HandleFunc("GET /api/offline-fees/all", cors(auth.Require(h.Offline.All, middleware.RoleAdmin)))

	// Admin Reports
	mux.HandleFunc("GET /api/student-fees/admin/class-wise-defaulters", cors(auth.Require(h.Defaulters.ClassWise, middleware.RoleAdmin)))
	mux.HandleFunc("GET /api/student-fees/admin/defaulters-export", cors(auth.Require(h.Defaulters.Export, middleware.RoleAdmin)))

	// Gateway webhook (authenticated by its own signature header)
	mux.HandleFunc("POST /api/student-fees/webhook", h.Webhook.Handle)

	// Liveness
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := database.PingContext(r.Context()); err != nil {
			response.ErrorResponse(w, http.StatusServiceUnavailable, "database unreachable")
			return
		}
		response.SendJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
}
