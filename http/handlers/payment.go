package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"fees-module/http/response"
	svc "fees-module/http/services"
	"fees-module/logger"
	"fees-module/models"
	"fees-module/services"
	"fees-module/utils"
)

// PaymentHandler drives the online fee flow: ledger reads, server-priced
// order creation, signature verification and payment listing.
type PaymentHandler struct {
	fees      *svc.FeesService
	payments  *svc.PaymentService
	store     *svc.PaymentStore
	notifier  *svc.Notifier
	publisher *services.Publisher
}

func NewPaymentHandler(fees *svc.FeesService, payments *svc.PaymentService, store *svc.PaymentStore, notifier *svc.Notifier, publisher *services.Publisher) *PaymentHandler {
	return &PaymentHandler{
		fees:      fees,
		payments:  payments,
		store:     store,
		notifier:  notifier,
		publisher: publisher,
	}
}

// Structure returns the fee structure and ledger position for a student.
func (h *PaymentHandler) Structure(w http.ResponseWriter, r *http.Request) {
	studentID, err := strconv.Atoi(r.PathValue("studentId"))
	if err != nil {
		response.ErrorResponse(w, http.StatusBadRequest, "Invalid student ID")
		return
	}

	summary, err := h.fees.Summary(r.Context(), studentID)
	if err != nil {
		response.Err(w, err)
		return
	}

	response.SuccessResponse(w, http.StatusOK, "", map[string]interface{}{
		"total_fee":      summary.TotalFee,
		"monthly_fee":    summary.MonthlyFee,
		"total_paid":     summary.TotalPaid,
		"due":            summary.Due,
		"months_paid":    summary.PaidMonths,
		"class_name":     summary.ClassName,
		"section":        summary.Section,
		"fee_configured": summary.FeeConfigured,
	})
}

// CreateOrder creates a gateway order for the selected unpaid months. The
// payable amount is computed from the server's ledger; the request
// carries no amount.
func (h *PaymentHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req struct {
		StudentID int      `json:"student_id" validate:"required,gt=0"`
		Months    []string `json:"months" validate:"required,min=1"`
	}

	if err := utils.DecodeJSONRequest(r, &req); err != nil {
		response.ErrorResponse(w, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}
	if err := utils.ValidateStruct(&req); err != nil {
		response.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	months, err := utils.CanonicalMonths(req.Months)
	if err != nil {
		response.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	order, err := h.payments.CreateOrder(r.Context(), req.StudentID, months)
	if err != nil {
		response.Err(w, err)
		return
	}

	h.publishEvent("payment.initiated", req.StudentID, map[string]interface{}{
		"order_id": order.OrderID,
		"amount":   order.Amount,
		"currency": order.Currency,
		"months":   order.Months,
		"status":   models.OrderPending,
	})

	response.SuccessResponse(w, http.StatusOK, "Order created", map[string]interface{}{"order": order})
}

// VerifyPayment validates the gateway callback signature and, on success,
// records the payment from the stored order. Nothing is recorded on a
// signature mismatch.
func (h *PaymentHandler) VerifyPayment(w http.ResponseWriter, r *http.Request) {
	h.verifyAndRecord(w, r)
}

// RecordPayment is the admin backfill path for a verified gateway payment
// whose browser callback never reached the server. It runs the exact same
// signature check and recording transaction as VerifyPayment.
func (h *PaymentHandler) RecordPayment(w http.ResponseWriter, r *http.Request) {
	h.verifyAndRecord(w, r)
}

func (h *PaymentHandler) verifyAndRecord(w http.ResponseWriter, r *http.Request) {
	var req struct {
		OrderID      string `json:"razorpay_order_id" validate:"required"`
		PaymentID    string `json:"razorpay_payment_id" validate:"required"`
		RazorpaySign string `json:"razorpay_signature" validate:"required"`
	}

	if err := utils.DecodeJSONRequest(r, &req); err != nil {
		response.ErrorResponse(w, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}
	if err := utils.ValidateStruct(&req); err != nil {
		response.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	payment, err := h.payments.VerifyAndRecord(r.Context(), req.OrderID, req.PaymentID, req.RazorpaySign)
	if err != nil {
		response.Err(w, err)
		return
	}

	h.publishEvent("payment.verified", payment.StudentID, map[string]interface{}{
		"order_id":   payment.RazorpayOrderID,
		"payment_id": payment.RazorpayPaymentID,
		"amount":     payment.AmountPaid,
		"months":     payment.Months,
		"status":     models.OrderPaid,
	})

	h.notifyAsync(payment.StudentID, models.PaymentRecord{
		Source:    models.SourceOnline,
		ID:        payment.ID,
		StudentID: payment.StudentID,
		Amount:    payment.AmountPaid,
		Months:    payment.Months,
		Reference: payment.RazorpayPaymentID,
		Date:      payment.PaidAt,
	})

	response.SuccessResponse(w, http.StatusOK, "Payment verified successfully", map[string]interface{}{
		"status":     models.OrderPaid,
		"student_id": payment.StudentID,
		"order_id":   payment.RazorpayOrderID,
		"amount":     payment.AmountPaid,
		"months":     payment.Months,
	})
}

// ListPayments returns both payment kinds for a student, newest first.
func (h *PaymentHandler) ListPayments(w http.ResponseWriter, r *http.Request) {
	studentID, err := strconv.Atoi(r.PathValue("studentId"))
	if err != nil {
		response.ErrorResponse(w, http.StatusBadRequest, "Invalid student ID")
		return
	}

	records, err := h.store.ListByStudent(r.Context(), studentID)
	if err != nil {
		response.Err(w, err)
		return
	}

	response.SuccessResponse(w, http.StatusOK, fmt.Sprintf("Retrieved %d payments", len(records)), records)
}

// publishEvent publishes a ledger event, best-effort.
func (h *PaymentHandler) publishEvent(event string, studentID int, fields map[string]interface{}) {
	go func() {
		evt := map[string]interface{}{
			"event":      event,
			"student_id": studentID,
			"ts":         time.Now().UTC().Format(time.RFC3339),
		}
		for k, v := range fields {
			evt[k] = v
		}
		if err := h.publisher.Publish(fmt.Sprintf("student-%d", studentID), evt); err != nil {
			logger.Warn("Failed to publish %s event: %v", event, err)
		}
	}()
}

// notifyAsync loads the student and mails the confirmation off the
// request path.
func (h *PaymentHandler) notifyAsync(studentID int, rec models.PaymentRecord) {
	go func() {
		ctx, cancel := contextWithTimeout()
		defer cancel()
		student, err := h.fees.GetStudent(ctx, studentID)
		if err != nil {
			logger.Error("Error loading student %d for notification: %v", studentID, err)
			return
		}
		h.notifier.SendPaymentConfirmation(student, rec)
	}()
}
