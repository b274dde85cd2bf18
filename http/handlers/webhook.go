package handlers

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"

	"fees-module/http/response"
	svc "fees-module/http/services"
	"fees-module/logger"
	"fees-module/models"
)

// razorpayWebhookPayload is the envelope Razorpay posts to the webhook.
type razorpayWebhookPayload struct {
	ID        string                            `json:"id"`
	Event     string                            `json:"event"`
	CreatedAt int64                             `json:"created_at"`
	Contains  []string                          `json:"contains"`
	Payload   map[string]map[string]interface{} `json:"payload"`
}

// WebhookHandler processes gateway webhooks. payment.captured and
// order.paid drive the same recording transaction as the checkout
// callback; payment.failed marks the pending order FAILED.
type WebhookHandler struct {
	payments *svc.PaymentService
	secret   string
}

func NewWebhookHandler(payments *svc.PaymentService, webhookSecret string) *WebhookHandler {
	return &WebhookHandler{payments: payments, secret: webhookSecret}
}

// verifySignature checks the X-Razorpay-Signature header: HMAC-SHA256 of
// the raw body under the webhook secret, constant-time compare.
func (h *WebhookHandler) verifySignature(body []byte, signature string) bool {
	if h.secret == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(h.secret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

// Handle receives a webhook delivery.
func (h *WebhookHandler) Handle(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		response.ErrorResponse(w, http.StatusBadRequest, "Failed to read request body")
		return
	}
	defer r.Body.Close()

	signature := r.Header.Get("X-Razorpay-Signature")
	if !h.verifySignature(body, signature) {
		logger.Warn("Webhook rejected: bad signature")
		response.ErrorResponse(w, http.StatusUnauthorized, "Invalid webhook signature")
		return
	}

	var payload razorpayWebhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		response.ErrorResponse(w, http.StatusBadRequest, "Invalid payload format")
		return
	}

	logger.Info("Webhook received: %s", payload.Event)

	switch payload.Event {
	case "payment.captured", "order.paid":
		h.handleCaptured(w, r, payload)
	case "payment.failed":
		h.handleFailed(w, r, payload)
	default:
		// Acknowledge everything else so the gateway stops retrying.
		response.SendJSON(w, http.StatusOK, map[string]interface{}{
			"status": "acknowledged",
			"event":  payload.Event,
		})
	}
}

func (h *WebhookHandler) handleCaptured(w http.ResponseWriter, r *http.Request, payload razorpayWebhookPayload) {
	orderID, paymentID := extractPaymentRefs(payload)
	if orderID == "" || paymentID == "" {
		response.ErrorResponse(w, http.StatusBadRequest, "Webhook payload missing order or payment id")
		return
	}

	payment, err := h.payments.RecordFromWebhook(r.Context(), orderID, paymentID)
	if err != nil {
		response.Err(w, err)
		return
	}

	response.SendJSON(w, http.StatusOK, map[string]interface{}{
		"status":     "processed",
		"event":      payload.Event,
		"student_id": payment.StudentID,
		"order_id":   orderID,
	})
}

func (h *WebhookHandler) handleFailed(w http.ResponseWriter, r *http.Request, payload razorpayWebhookPayload) {
	orderID, _ := extractPaymentRefs(payload)
	if orderID != "" {
		h.payments.MarkOrderFailed(r.Context(), orderID)
	}

	response.SendJSON(w, http.StatusOK, map[string]interface{}{
		"status": "processed",
		"event":  payload.Event,
		"order":  models.OrderFailed,
	})
}

// extractPaymentRefs digs the order and payment ids out of the webhook
// entity payload.
func extractPaymentRefs(payload razorpayWebhookPayload) (orderID, paymentID string) {
	if p, ok := payload.Payload["payment"]; ok {
		if entity, ok := p["entity"].(map[string]interface{}); ok {
			orderID, _ = entity["order_id"].(string)
			paymentID, _ = entity["id"].(string)
		}
	}
	if orderID == "" {
		if o, ok := payload.Payload["order"]; ok {
			if entity, ok := o["entity"].(map[string]interface{}); ok {
				orderID, _ = entity["id"].(string)
			}
		}
	}
	return orderID, paymentID
}
