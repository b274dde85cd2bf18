package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"fees-module/http/response"
	svc "fees-module/http/services"
	"fees-module/models"
	"fees-module/services"
	"fees-module/utils"
)

// OfflineHandler covers cashier-recorded payments and the ledger summary
// read.
type OfflineHandler struct {
	fees      *svc.FeesService
	store     *svc.PaymentStore
	notifier  *svc.Notifier
	publisher *services.Publisher
}

func NewOfflineHandler(fees *svc.FeesService, store *svc.PaymentStore, notifier *svc.Notifier, publisher *services.Publisher) *OfflineHandler {
	return &OfflineHandler{fees: fees, store: store, notifier: notifier, publisher: publisher}
}

// Add records an offline payment taken at the counter (admin endpoint).
// The amount is priced from the class fee structure; months already paid
// are rejected.
func (h *OfflineHandler) Add(w http.ResponseWriter, r *http.Request) {
	var req struct {
		StudentID   int      `json:"student_id" validate:"required,gt=0"`
		Months      []string `json:"months" validate:"required,min=1"`
		PaymentMode string   `json:"payment_mode" validate:"required,oneof=CASH CHEQUE UPI CARD"`
		Remark      string   `json:"remark"`
		Cashier     string   `json:"cashier" validate:"required"`
		ReceivedBy  string   `json:"received_by" validate:"required"`
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

	payment, summary, err := h.store.RecordOffline(r.Context(), svc.OfflinePaymentRequest{
		StudentID:   req.StudentID,
		Months:      months,
		PaymentMode: req.PaymentMode,
		Cashier:     req.Cashier,
		Remark:      req.Remark,
		ReceivedBy:  req.ReceivedBy,
	})
	if err != nil {
		response.Err(w, err)
		return
	}

	go func() {
		evt := map[string]interface{}{
			"event":        "payment.offline_recorded",
			"student_id":   payment.StudentID,
			"payment_id":   payment.ID,
			"amount":       payment.Amount,
			"months":       payment.Months,
			"payment_mode": payment.PaymentMode,
			"cashier":      payment.Cashier,
		}
		h.publisher.Publish(fmt.Sprintf("student-%d", payment.StudentID), evt)
	}()

	go func() {
		ctx, cancel := contextWithTimeout()
		defer cancel()
		student, err := h.fees.GetStudent(ctx, payment.StudentID)
		if err != nil {
			return
		}
		h.notifier.SendPaymentConfirmation(student, models.PaymentRecord{
			Source:      models.SourceOffline,
			ID:          payment.ID,
			StudentID:   payment.StudentID,
			Amount:      payment.Amount,
			Months:      payment.Months,
			PaymentMode: payment.PaymentMode,
			ReceivedBy:  payment.ReceivedBy,
			Date:        payment.ReceivedAt,
		})
	}()

	response.SuccessResponse(w, http.StatusCreated, "Offline payment recorded", map[string]interface{}{
		"payment": payment,
		"summary": summary,
	})
}

// Summary returns the full ledger aggregate for a student.
func (h *OfflineHandler) Summary(w http.ResponseWriter, r *http.Request) {
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

	response.SuccessResponse(w, http.StatusOK, "", summary)
}

// All returns every payment of both kinds, newest first (admin report).
func (h *OfflineHandler) All(w http.ResponseWriter, r *http.Request) {
	records, err := h.store.ListAll(r.Context())
	if err != nil {
		response.Err(w, err)
		return
	}

	response.SuccessResponse(w, http.StatusOK, fmt.Sprintf("Retrieved %d payments", len(records)), records)
}
