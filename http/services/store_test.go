package services

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fees-module/errors"
	"fees-module/models"
)

func newStore(t *testing.T) (*PaymentStore, sqlmock.Sqlmock, func()) {
	t.Helper()
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	fees := NewFeesService(conn)
	return NewPaymentStore(conn, fees), mock, func() { conn.Close() }
}

func TestRecordOfflineSuccess(t *testing.T) {
	store, mock, done := newStore(t)
	defer done()

	expectSummary(mock, 1, "Class 5", 12000.0, 0, 0, nil)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO offline_payments")).
		WithArgs(1, 2000.0, sqlmock.AnyArg(), "CASH", "R. Iyer", "", "R. Iyer", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO paid_months")).
		WithArgs(1, "Jan", models.SourceOffline, 7).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO paid_months")).
		WithArgs(1, "Feb", models.SourceOffline, 7).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	expectSummary(mock, 1, "Class 5", 12000.0, 0, 2000, []string{"Jan", "Feb"})

	payment, summary, err := store.RecordOffline(context.Background(), OfflinePaymentRequest{
		StudentID:   1,
		Months:      []string{"Jan", "Feb"},
		PaymentMode: "CASH",
		Cashier:     "R. Iyer",
		ReceivedBy:  "R. Iyer",
	})
	require.NoError(t, err)

	assert.Equal(t, 2000.0, payment.Amount)
	assert.Equal(t, 2000.0, summary.TotalPaid)
	assert.Equal(t, 10000.0, summary.Due)
	assert.Equal(t, []string{"Jan", "Feb"}, summary.PaidMonths)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordOfflineRejectsPaidMonth(t *testing.T) {
	store, mock, done := newStore(t)
	defer done()

	expectSummary(mock, 1, "Class 5", 12000.0, 0, 2000, []string{"Jan", "Feb"})

	_, _, err := store.RecordOffline(context.Background(), OfflinePaymentRequest{
		StudentID:   1,
		Months:      []string{"Jan"},
		PaymentMode: "CASH",
		Cashier:     "R. Iyer",
		ReceivedBy:  "R. Iyer",
	})
	require.Error(t, err)
	assert.Equal(t, errors.Conflict, errors.KindOf(err))
	// Nothing was written.
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordOfflineRejectsUnconfiguredClass(t *testing.T) {
	store, mock, done := newStore(t)
	defer done()

	expectSummary(mock, 1, "Class 9", nil, 0, 0, nil)

	_, _, err := store.RecordOffline(context.Background(), OfflinePaymentRequest{
		StudentID:   1,
		Months:      []string{"Jan"},
		PaymentMode: "CASH",
		Cashier:     "R. Iyer",
		ReceivedBy:  "R. Iyer",
	})
	require.Error(t, err)
	assert.Equal(t, errors.Invalid, errors.KindOf(err))
}

func TestRecordOfflineLosesRaceAtUniqueIndex(t *testing.T) {
	store, mock, done := newStore(t)
	defer done()

	// Pre-check passes because the concurrent writer has not committed yet.
	expectSummary(mock, 1, "Class 5", 12000.0, 0, 0, nil)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO offline_payments")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(8))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO paid_months")).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "paid_months_student_id_month_key"})
	mock.ExpectRollback()

	_, _, err := store.RecordOffline(context.Background(), OfflinePaymentRequest{
		StudentID:   1,
		Months:      []string{"Jan"},
		PaymentMode: "CASH",
		Cashier:     "R. Iyer",
		ReceivedBy:  "R. Iyer",
	})
	require.Error(t, err)
	assert.Equal(t, errors.Conflict, errors.KindOf(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordOnlineSuccess(t *testing.T) {
	store, mock, done := newStore(t)
	defer done()

	order := &models.FeeOrder{
		OrderID:   "order_abc",
		StudentID: 1,
		Amount:    1000,
		Months:    []string{"Mar"},
		Status:    models.OrderPending,
	}

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO online_payments")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(21))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO paid_months")).
		WithArgs(1, "Mar", models.SourceOnline, 21).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE fee_orders SET status")).
		WithArgs(models.OrderPaid, "order_abc").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	payment, replay, err := store.RecordOnline(context.Background(), order, "pay_xyz", "sig")
	require.NoError(t, err)
	assert.False(t, replay)
	assert.Equal(t, 21, payment.ID)
	assert.Equal(t, 1000.0, payment.AmountPaid)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordOnlineDuplicateCallbackIsIdempotent(t *testing.T) {
	store, mock, done := newStore(t)
	defer done()

	order := &models.FeeOrder{
		OrderID:   "order_abc",
		StudentID: 1,
		Amount:    1000,
		Months:    []string{"Mar"},
		Status:    models.OrderPaid,
	}

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO online_payments")).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "online_payments_razorpay_payment_id_key"})
	mock.ExpectRollback()

	_, replay, err := store.RecordOnline(context.Background(), order, "pay_xyz", "sig")
	require.NoError(t, err)
	assert.True(t, replay)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListByStudentOrdersNewestFirst(t *testing.T) {
	store, mock, done := newStore(t)
	defer done()

	mock.ExpectQuery(regexp.QuoteMeta("FROM students WHERE id = $1")).
		WithArgs(1).
		WillReturnRows(studentRows(mock, 1, "Asha Rao", "Class 5", "A"))

	now := time.Now()
	rows := sqlmock.NewRows([]string{"source", "id", "student_id", "amount", "months", "reference", "payment_mode", "received_by", "date"}).
		AddRow("online", 3, 1, 1000.0, "{Mar}", "pay_xyz", "", "", now).
		AddRow("offline", 2, 1, 2000.0, "{Jan,Feb}", "", "CASH", "R. Iyer", now.Add(-time.Hour))
	mock.ExpectQuery("UNION ALL").WillReturnRows(rows)

	records, err := store.ListByStudent(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "online", records[0].Source)
	assert.Equal(t, []string{"Jan", "Feb"}, records[1].Months)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRejectPaidMonths(t *testing.T) {
	assert.NoError(t, rejectPaidMonths([]string{"Mar"}, []string{"Jan", "Feb"}))
	err := rejectPaidMonths([]string{"Jan"}, []string{"Jan", "Feb"})
	require.Error(t, err)
	assert.Equal(t, errors.Conflict, errors.KindOf(err))
}
