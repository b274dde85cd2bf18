package services

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fees-module/errors"
	"fees-module/models"
)

type fakeGateway struct {
	orderID     string
	gotAmount   int64
	gotCurrency string
}

func (f *fakeGateway) CreateOrder(amountPaise int64, currency, receipt string) (string, error) {
	f.gotAmount = amountPaise
	f.gotCurrency = currency
	return f.orderID, nil
}

func newPaymentService(t *testing.T, keySecret string) (*PaymentService, sqlmock.Sqlmock, func()) {
	t.Helper()
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	fees := NewFeesService(conn)
	store := NewPaymentStore(conn, fees)
	svc := NewPaymentService(conn, fees, store, "", keySecret)
	return svc, mock, func() { conn.Close() }
}

func signCheckout(secret, orderID, paymentID string) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(h.Sum(nil))
}

func expectGetOrder(mock sqlmock.Sqlmock, orderID string, studentID int, amount float64, months, status string) {
	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("FROM fee_orders WHERE order_id = $1")).
		WithArgs(orderID).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "order_id", "student_id", "amount", "months", "status", "created_at", "updated_at",
		}).AddRow(11, orderID, studentID, amount, months, status, now, now))
}

func TestVerifySignature(t *testing.T) {
	svc, _, done := newPaymentService(t, "secret")
	defer done()

	good := signCheckout("secret", "order_abc", "pay_xyz")
	assert.True(t, svc.VerifySignature("order_abc", "pay_xyz", good))
	assert.False(t, svc.VerifySignature("order_abc", "pay_xyz", good[:len(good)-1]+"0"))
	assert.False(t, svc.VerifySignature("order_abc", "pay_other", good))
}

func TestVerifyAndRecordSuccess(t *testing.T) {
	svc, mock, done := newPaymentService(t, "secret")
	defer done()

	expectGetOrder(mock, "order_abc", 1, 1000, "{Mar}", models.OrderPending)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO online_payments")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(5))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO paid_months")).
		WithArgs(1, "Mar", models.SourceOnline, 5).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE fee_orders SET status")).
		WithArgs(models.OrderPaid, "order_abc").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	sig := signCheckout("secret", "order_abc", "pay_xyz")
	payment, err := svc.VerifyAndRecord(context.Background(), "order_abc", "pay_xyz", sig)
	require.NoError(t, err)
	assert.Equal(t, 1, payment.StudentID)
	assert.Equal(t, 1000.0, payment.AmountPaid)
	assert.Equal(t, []string{"Mar"}, payment.Months)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVerifyAndRecordTamperedSignature(t *testing.T) {
	svc, mock, done := newPaymentService(t, "secret")
	defer done()

	expectGetOrder(mock, "order_abc", 1, 1000, "{Mar}", models.OrderPending)

	// The pending order is marked FAILED; no payment row is written.
	mock.ExpectExec(regexp.QuoteMeta("UPDATE fee_orders SET status")).
		WithArgs(models.OrderFailed, "order_abc").
		WillReturnResult(sqlmock.NewResult(0, 1))

	_, err := svc.VerifyAndRecord(context.Background(), "order_abc", "pay_xyz", "tampered")
	require.Error(t, err)
	assert.Equal(t, errors.Verification, errors.KindOf(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVerifyAndRecordUnknownOrder(t *testing.T) {
	svc, mock, done := newPaymentService(t, "secret")
	defer done()

	mock.ExpectQuery(regexp.QuoteMeta("FROM fee_orders WHERE order_id = $1")).
		WithArgs("order_missing").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := svc.VerifyAndRecord(context.Background(), "order_missing", "pay_xyz", "sig")
	require.Error(t, err)
	assert.Equal(t, errors.NotFound, errors.KindOf(err))
}

func TestCreateOrderPricesFromLedger(t *testing.T) {
	svc, mock, done := newPaymentService(t, "secret")
	defer done()
	gw := &fakeGateway{orderID: "order_new"}
	svc.gw = gw

	expectSummary(mock, 1, "Class 5", 12000.0, 0, 0, nil)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM fee_orders WHERE student_id = $1")).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO fee_orders")).
		WithArgs("order_new", 1, 2000.0, sqlmock.AnyArg(), models.OrderPending).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	order, err := svc.CreateOrder(context.Background(), 1, []string{"Jan", "Feb"})
	require.NoError(t, err)

	// monthlyFee(1000) x 2 months, regardless of anything the client says
	assert.Equal(t, 2000.0, order.Amount)
	assert.Equal(t, int64(200000), gw.gotAmount)
	assert.Equal(t, "INR", gw.gotCurrency)
	assert.Equal(t, []string{"Jan", "Feb"}, order.Months)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateOrderRejectsPaidMonths(t *testing.T) {
	svc, mock, done := newPaymentService(t, "secret")
	defer done()
	svc.gw = &fakeGateway{orderID: "order_new"}

	expectSummary(mock, 1, "Class 5", 12000.0, 0, 1000, []string{"Jan"})

	_, err := svc.CreateOrder(context.Background(), 1, []string{"Jan"})
	require.Error(t, err)
	assert.Equal(t, errors.Conflict, errors.KindOf(err))
}

func TestCreateOrderRejectsUnconfiguredClass(t *testing.T) {
	svc, mock, done := newPaymentService(t, "secret")
	defer done()
	svc.gw = &fakeGateway{orderID: "order_new"}

	expectSummary(mock, 1, "Class 9", nil, 0, 0, nil)

	_, err := svc.CreateOrder(context.Background(), 1, []string{"Jan"})
	require.Error(t, err)
	assert.Equal(t, errors.Invalid, errors.KindOf(err))
}

func TestExpireStaleOrders(t *testing.T) {
	svc, mock, done := newPaymentService(t, "secret")
	defer done()

	mock.ExpectExec(regexp.QuoteMeta("UPDATE fee_orders SET status")).
		WithArgs(models.OrderExpired, models.OrderPending, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := svc.ExpireStaleOrders(context.Background(), time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}
