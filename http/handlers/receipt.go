package handlers

import (
	"log"
	"net/http"
	"os"
	"strconv"

	"fees-module/http/response"
	svc "fees-module/http/services"
	"fees-module/models"
)

// ReceiptHandler serves PDF receipts for recorded payments.
type ReceiptHandler struct {
	fees  *svc.FeesService
	store *svc.PaymentStore
}

func NewReceiptHandler(fees *svc.FeesService, store *svc.PaymentStore) *ReceiptHandler {
	return &ReceiptHandler{fees: fees, store: store}
}

// Get renders and streams the receipt for one payment. kind selects the
// payment table: online or offline.
func (h *ReceiptHandler) Get(w http.ResponseWriter, r *http.Request) {
	kind := r.PathValue("kind")
	paymentID, err := strconv.Atoi(r.PathValue("paymentId"))
	if err != nil {
		response.ErrorResponse(w, http.StatusBadRequest, "Invalid payment ID")
		return
	}

	var rec models.PaymentRecord
	switch kind {
	case models.SourceOnline:
		p, err := h.store.GetOnlinePayment(r.Context(), paymentID)
		if err != nil {
			response.Err(w, err)
			return
		}
		rec = models.PaymentRecord{
			Source:    models.SourceOnline,
			ID:        p.ID,
			StudentID: p.StudentID,
			Amount:    p.AmountPaid,
			Months:    p.Months,
			Reference: p.RazorpayPaymentID,
			Date:      p.PaidAt,
		}
	case models.SourceOffline:
		p, err := h.store.GetOfflinePayment(r.Context(), paymentID)
		if err != nil {
			response.Err(w, err)
			return
		}
		rec = models.PaymentRecord{
			Source:      models.SourceOffline,
			ID:          p.ID,
			StudentID:   p.StudentID,
			Amount:      p.Amount,
			Months:      p.Months,
			PaymentMode: p.PaymentMode,
			ReceivedBy:  p.ReceivedBy,
			Date:        p.ReceivedAt,
		}
	default:
		response.ErrorResponse(w, http.StatusBadRequest, "Payment kind must be online or offline")
		return
	}

	student, err := h.fees.GetStudent(r.Context(), rec.StudentID)
	if err != nil {
		response.Err(w, err)
		return
	}

	path, err := svc.GenerateReceipt(student, rec)
	if err != nil {
		log.Printf("Error generating receipt: %v", err)
		response.ErrorResponse(w, http.StatusInternalServerError, "Error generating receipt")
		return
	}
	defer os.Remove(path)

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", "attachment; filename=receipt.pdf")
	http.ServeFile(w, r, path)
}
