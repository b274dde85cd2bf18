package services

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"time"

	"fees-module/errors"
	"fees-module/logger"
	"fees-module/models"

	"github.com/lib/pq"
	"github.com/razorpay/razorpay-go"
)

// gateway abstracts the one Razorpay call the service makes, so tests can
// run without gateway credentials.
type gateway interface {
	CreateOrder(amountPaise int64, currency, receipt string) (string, error)
}

type razorpayGateway struct {
	client *razorpay.Client
}

func (g *razorpayGateway) CreateOrder(amountPaise int64, currency, receipt string) (string, error) {
	data := map[string]interface{}{
		"amount":   amountPaise,
		"currency": currency,
		"receipt":  receipt,
	}
	resp, err := g.client.Order.Create(data, nil)
	if err != nil {
		return "", fmt.Errorf("error creating razorpay order: %w", err)
	}
	orderID, ok := resp["id"].(string)
	if !ok {
		return "", fmt.Errorf("razorpay order response missing id")
	}
	return orderID, nil
}

// PaymentService runs the online payment flow: server-priced order
// creation, signature verification and recording of verified payments
// into the ledger.
//
// State machine per order:
// PENDING -> PAID on verified callback, PENDING -> FAILED on signature
// mismatch, PENDING -> EXPIRED by the sweep. Terminal states are final.
type PaymentService struct {
	db        *sql.DB
	fees      *FeesService
	store     *PaymentStore
	gw        gateway
	keySecret string
}

func NewPaymentService(database *sql.DB, fees *FeesService, store *PaymentStore, keyID, keySecret string) *PaymentService {
	svc := &PaymentService{
		db:        database,
		fees:      fees,
		store:     store,
		keySecret: keySecret,
	}
	if keyID != "" && keySecret != "" {
		svc.gw = &razorpayGateway{client: razorpay.NewClient(keyID, keySecret)}
	}
	return svc
}

// CreateOrder prices the selected months from the server's own ledger and
// creates a gateway order for exactly that amount. The client never
// supplies an amount. A PENDING order for the same student and months is
// reused in place rather than orphaned.
func (s *PaymentService) CreateOrder(ctx context.Context, studentID int, months []string) (*models.RazorpayOrder, error) {
	if s.gw == nil {
		return nil, errors.E(errors.Internal, "razorpay credentials not configured")
	}

	summary, err := s.fees.Summary(ctx, studentID)
	if err != nil {
		return nil, err
	}
	if !summary.FeeConfigured {
		return nil, errors.NewInvalidParamsError(
			fmt.Sprintf("no fee structure configured for class %s", summary.ClassName))
	}
	if err := rejectPaidMonths(months, summary.PaidMonths); err != nil {
		return nil, err
	}

	amount := summary.MonthlyFee * float64(len(months))
	if amount <= 0 {
		return nil, errors.NewInvalidParamsError("payable amount must be greater than 0")
	}

	receipt := fmt.Sprintf("rcpt_%d_%d", studentID, time.Now().Unix())
	orderID, err := s.gw.CreateOrder(int64(amount*100), "INR", receipt)
	if err != nil {
		return nil, errors.E(errors.Internal, "error creating order", err)
	}

	if err := s.saveOrder(ctx, studentID, orderID, amount, months); err != nil {
		return nil, err
	}

	return &models.RazorpayOrder{
		OrderID:  orderID,
		Amount:   amount,
		Currency: "INR",
		Receipt:  receipt,
		Months:   months,
	}, nil
}

// saveOrder persists the order state the verifier will later record from.
// An existing PENDING order for the same student and months is updated
// with the fresh gateway order id.
func (s *PaymentService) saveOrder(ctx context.Context, studentID int, orderID string, amount float64, months []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.E(errors.Internal, "error starting transaction", err)
	}
	defer tx.Rollback()

	var existingID int
	err = tx.QueryRowContext(ctx,
		`SELECT id FROM fee_orders WHERE student_id = $1 AND status = $2 AND months = $3`,
		studentID, models.OrderPending, pq.Array(months)).Scan(&existingID)
	switch err {
	case nil:
		_, err = tx.ExecContext(ctx,
			`UPDATE fee_orders SET order_id = $1, amount = $2, updated_at = CURRENT_TIMESTAMP WHERE id = $3`,
			orderID, amount, existingID)
		if err != nil {
			return errors.E(errors.Internal, "error updating order", err)
		}
	case sql.ErrNoRows:
		_, err = tx.ExecContext(ctx,
			`INSERT INTO fee_orders (order_id, student_id, amount, months, status) VALUES ($1, $2, $3, $4, $5)`,
			orderID, studentID, amount, pq.Array(months), models.OrderPending)
		if err != nil {
			return errors.E(errors.Internal, "error saving order", err)
		}
	default:
		return errors.E(errors.Internal, "error checking pending orders", err)
	}

	if err := tx.Commit(); err != nil {
		return errors.E(errors.Internal, "error committing transaction", err)
	}
	return nil
}

// GetOrder loads a stored gateway order by its gateway order id.
func (s *PaymentService) GetOrder(ctx context.Context, orderID string) (*models.FeeOrder, error) {
	var order models.FeeOrder
	var months pq.StringArray
	err := s.db.QueryRowContext(ctx,
		`SELECT id, order_id, student_id, amount, months, status, created_at, updated_at
		 FROM fee_orders WHERE order_id = $1`, orderID).Scan(
		&order.ID, &order.OrderID, &order.StudentID, &order.Amount,
		&months, &order.Status, &order.CreatedAt, &order.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFoundError(fmt.Sprintf("payment not found for order %s", orderID))
	}
	if err != nil {
		return nil, errors.E(errors.Internal, "error fetching order", err)
	}
	order.Months = months
	return &order, nil
}

// VerifySignature recomputes the checkout signature (HMAC-SHA256 of
// "orderID|paymentID" under the key secret) and compares in constant
// time.
func (s *PaymentService) VerifySignature(orderID, paymentID, signature string) bool {
	h := hmac.New(sha256.New, []byte(s.keySecret))
	h.Write([]byte(orderID + "|" + paymentID))
	expected := hex.EncodeToString(h.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

// VerifyAndRecord checks the gateway signature against the stored order
// and, on success, records the payment from the order's own amount and
// months. A tampered signature marks the order FAILED and nothing is
// recorded. Replays of an already-PAID order succeed without
// double-counting.
func (s *PaymentService) VerifyAndRecord(ctx context.Context, orderID, paymentID, signature string) (*models.OnlinePayment, error) {
	order, err := s.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if !s.VerifySignature(orderID, paymentID, signature) {
		if order.Status == models.OrderPending {
			s.markOrder(ctx, orderID, models.OrderFailed)
		}
		return nil, errors.NewVerificationError("payment signature verification failed")
	}

	if order.Status == models.OrderPaid {
		logger.Info("Order %s already recorded, treating verify as replay", orderID)
	}

	payment, replay, err := s.store.RecordOnline(ctx, order, paymentID, signature)
	if err != nil {
		return nil, err
	}
	if replay {
		logger.Info("Duplicate gateway payment %s ignored", paymentID)
	}
	return payment, nil
}

// RecordFromWebhook admits a captured payment reported by the gateway
// webhook. The webhook envelope itself was already signature-checked by
// the caller; recording still runs from the stored order state.
func (s *PaymentService) RecordFromWebhook(ctx context.Context, orderID, paymentID string) (*models.OnlinePayment, error) {
	order, err := s.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	payment, replay, err := s.store.RecordOnline(ctx, order, paymentID, "webhook")
	if err != nil {
		return nil, err
	}
	if replay {
		logger.Info("Webhook replay for gateway payment %s ignored", paymentID)
	}
	return payment, nil
}

// MarkOrderFailed transitions a pending order to FAILED (gateway reported
// the payment failed).
func (s *PaymentService) MarkOrderFailed(ctx context.Context, orderID string) {
	s.markOrder(ctx, orderID, models.OrderFailed)
}

func (s *PaymentService) markOrder(ctx context.Context, orderID, status string) {
	_, err := s.db.ExecContext(ctx,
		`UPDATE fee_orders SET status = $1, updated_at = CURRENT_TIMESTAMP WHERE order_id = $2`,
		status, orderID)
	if err != nil {
		logger.Error("Error marking order %s %s: %v", orderID, status, err)
	}
}

// ExpireStaleOrders sweeps PENDING orders older than ttl to EXPIRED and
// returns how many were swept. Run periodically so abandoned checkouts do
// not accumulate as orphans.
func (s *PaymentService) ExpireStaleOrders(ctx context.Context, ttl time.Duration) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE fee_orders SET status = $1, updated_at = CURRENT_TIMESTAMP
		 WHERE status = $2 AND updated_at < $3`,
		models.OrderExpired, models.OrderPending, time.Now().Add(-ttl))
	if err != nil {
		return 0, errors.E(errors.Internal, "error expiring orders", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}
