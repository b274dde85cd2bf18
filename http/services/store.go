package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"fees-module/errors"
	"fees-module/models"

	"github.com/lib/pq"
)

// PaymentStore persists payment records. Payments are append-only: there
// is no update or delete path for a recorded payment. Every write also
// claims the covered months in the paid_months register inside the same
// transaction, so concurrent duplicate submissions fail at the unique
// index instead of both committing.
type PaymentStore struct {
	db   *sql.DB
	fees *FeesService
}

func NewPaymentStore(database *sql.DB, fees *FeesService) *PaymentStore {
	return &PaymentStore{db: database, fees: fees}
}

// OfflinePaymentRequest is the cashier-entered payment input. The amount
// is priced server-side from the class fee structure, never taken from
// the request.
type OfflinePaymentRequest struct {
	StudentID   int
	Months      []string
	PaymentMode string
	Cashier     string
	Remark      string
	ReceivedBy  string
}

// RecordOffline appends an offline payment for the given months and
// returns the updated ledger summary.
func (s *PaymentStore) RecordOffline(ctx context.Context, req OfflinePaymentRequest) (*models.OfflinePayment, *models.LedgerSummary, error) {
	summary, err := s.fees.Summary(ctx, req.StudentID)
	if err != nil {
		return nil, nil, err
	}
	if !summary.FeeConfigured {
		return nil, nil, errors.NewInvalidParamsError(
			fmt.Sprintf("no fee structure configured for class %s", summary.ClassName))
	}
	if err := rejectPaidMonths(req.Months, summary.PaidMonths); err != nil {
		return nil, nil, err
	}

	payment := &models.OfflinePayment{
		StudentID:   req.StudentID,
		Amount:      summary.MonthlyFee * float64(len(req.Months)),
		Months:      req.Months,
		PaymentMode: req.PaymentMode,
		Cashier:     req.Cashier,
		Remark:      req.Remark,
		ReceivedBy:  req.ReceivedBy,
		ReceivedAt:  time.Now(),
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, errors.E(errors.Internal, "error starting transaction", err)
	}
	defer tx.Rollback()

	err = tx.QueryRowContext(ctx,
		`INSERT INTO offline_payments (student_id, amount, months, payment_mode, cashier, remark, received_by, received_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`,
		payment.StudentID, payment.Amount, pq.Array(payment.Months),
		payment.PaymentMode, payment.Cashier, payment.Remark,
		payment.ReceivedBy, payment.ReceivedAt).Scan(&payment.ID)
	if err != nil {
		return nil, nil, errors.E(errors.Internal, "error saving offline payment", err)
	}

	if err := claimMonths(ctx, tx, payment.StudentID, payment.Months, models.SourceOffline, payment.ID); err != nil {
		return nil, nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, errors.E(errors.Internal, "error committing transaction", err)
	}

	updated, err := s.fees.Summary(ctx, req.StudentID)
	if err != nil {
		return nil, nil, err
	}
	return payment, updated, nil
}

// RecordOnline admits a verified gateway payment into the ledger from the
// stored order state and marks the order PAID. Replaying the same gateway
// payment id is a no-op success, so a duplicate callback never
// double-counts.
func (s *PaymentStore) RecordOnline(ctx context.Context, order *models.FeeOrder, paymentID, signature string) (*models.OnlinePayment, bool, error) {
	payment := &models.OnlinePayment{
		StudentID:         order.StudentID,
		AmountPaid:        order.Amount,
		RazorpayOrderID:   order.OrderID,
		RazorpayPaymentID: paymentID,
		RazorpaySignature: signature,
		Status:            "success",
		Months:            order.Months,
		PaidAt:            time.Now(),
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, false, errors.E(errors.Internal, "error starting transaction", err)
	}
	defer tx.Rollback()

	err = tx.QueryRowContext(ctx,
		`INSERT INTO online_payments (student_id, amount_paid, razorpay_order_id, razorpay_payment_id, razorpay_signature, status, months, paid_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`,
		payment.StudentID, payment.AmountPaid, payment.RazorpayOrderID,
		payment.RazorpayPaymentID, payment.RazorpaySignature,
		payment.Status, pq.Array(payment.Months), payment.PaidAt).Scan(&payment.ID)
	if isUniqueViolation(err) {
		// Duplicate callback for an already recorded payment.
		return payment, true, nil
	}
	if err != nil {
		return nil, false, errors.E(errors.Internal, "error saving online payment", err)
	}

	if err := claimMonths(ctx, tx, payment.StudentID, payment.Months, models.SourceOnline, payment.ID); err != nil {
		return nil, false, err
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE fee_orders SET status = $1, updated_at = CURRENT_TIMESTAMP WHERE order_id = $2`,
		models.OrderPaid, order.OrderID)
	if err != nil {
		return nil, false, errors.E(errors.Internal, "error updating order", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, false, errors.E(errors.Internal, "error committing transaction", err)
	}

	return payment, false, nil
}

// ListByStudent returns both payment kinds for a student, newest first.
func (s *PaymentStore) ListByStudent(ctx context.Context, studentID int) ([]models.PaymentRecord, error) {
	if _, err := s.fees.GetStudent(ctx, studentID); err != nil {
		return nil, err
	}
	return s.listPayments(ctx,
		`SELECT 'online', id, student_id, amount_paid, months, razorpay_payment_id, '', '', paid_at
		   FROM online_payments WHERE student_id = $1 AND status = 'success'
		 UNION ALL
		 SELECT 'offline', id, student_id, amount, months, '', payment_mode, received_by, received_at
		   FROM offline_payments WHERE student_id = $1
		 ORDER BY 9 DESC`, studentID)
}

// ListAll returns every payment of both kinds, newest first (admin-wide
// report).
func (s *PaymentStore) ListAll(ctx context.Context) ([]models.PaymentRecord, error) {
	return s.listPayments(ctx,
		`SELECT 'online', id, student_id, amount_paid, months, razorpay_payment_id, '', '', paid_at
		   FROM online_payments WHERE status = 'success'
		 UNION ALL
		 SELECT 'offline', id, student_id, amount, months, '', payment_mode, received_by, received_at
		   FROM offline_payments
		 ORDER BY 9 DESC`)
}

func (s *PaymentStore) listPayments(ctx context.Context, query string, args ...interface{}) ([]models.PaymentRecord, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.E(errors.Internal, "error fetching payments", err)
	}
	defer rows.Close()

	records := []models.PaymentRecord{}
	for rows.Next() {
		var rec models.PaymentRecord
		var months pq.StringArray
		if err := rows.Scan(&rec.Source, &rec.ID, &rec.StudentID, &rec.Amount,
			&months, &rec.Reference, &rec.PaymentMode, &rec.ReceivedBy, &rec.Date); err != nil {
			return nil, errors.E(errors.Internal, "error reading payments", err)
		}
		rec.Months = months
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.E(errors.Internal, "error reading payments", err)
	}
	return records, nil
}

// GetOnlinePayment fetches one online payment by id (receipts).
func (s *PaymentStore) GetOnlinePayment(ctx context.Context, id int) (*models.OnlinePayment, error) {
	var p models.OnlinePayment
	var months pq.StringArray
	err := s.db.QueryRowContext(ctx,
		`SELECT id, student_id, amount_paid, razorpay_order_id, razorpay_payment_id, status, months, paid_at
		 FROM online_payments WHERE id = $1`, id).Scan(
		&p.ID, &p.StudentID, &p.AmountPaid, &p.RazorpayOrderID,
		&p.RazorpayPaymentID, &p.Status, &months, &p.PaidAt)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFoundError("payment not found")
	}
	if err != nil {
		return nil, errors.E(errors.Internal, "error fetching payment", err)
	}
	p.Months = months
	return &p, nil
}

// GetOfflinePayment fetches one offline payment by id (receipts).
func (s *PaymentStore) GetOfflinePayment(ctx context.Context, id int) (*models.OfflinePayment, error) {
	var p models.OfflinePayment
	var months pq.StringArray
	err := s.db.QueryRowContext(ctx,
		`SELECT id, student_id, amount, months, payment_mode, cashier, remark, received_by, received_at
		 FROM offline_payments WHERE id = $1`, id).Scan(
		&p.ID, &p.StudentID, &p.Amount, &months, &p.PaymentMode,
		&p.Cashier, &p.Remark, &p.ReceivedBy, &p.ReceivedAt)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFoundError("payment not found")
	}
	if err != nil {
		return nil, errors.E(errors.Internal, "error fetching payment", err)
	}
	p.Months = months
	return &p, nil
}

// claimMonths inserts the month coverage rows for a payment. A unique
// violation means another payment already covers one of the months.
func claimMonths(ctx context.Context, tx *sql.Tx, studentID int, months []string, source string, paymentRef int) error {
	for _, month := range months {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO paid_months (student_id, month, source, payment_ref) VALUES ($1, $2, $3, $4)`,
			studentID, month, source, paymentRef)
		if isUniqueViolation(err) {
			return errors.NewConflictError(fmt.Sprintf("month %s is already paid", month))
		}
		if err != nil {
			return errors.E(errors.Internal, "error recording paid month", err)
		}
	}
	return nil
}

// rejectPaidMonths is the pre-flight check against the aggregated ledger.
// The paid_months unique index remains the authority under concurrency.
func rejectPaidMonths(requested, paid []string) error {
	paidSet := make(map[string]bool, len(paid))
	for _, m := range paid {
		paidSet[m] = true
	}
	for _, m := range requested {
		if paidSet[m] {
			return errors.NewConflictError(fmt.Sprintf("month %s is already paid", m))
		}
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return false
}
