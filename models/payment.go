package models

import "time"

// Order status values for gateway orders.
const (
	OrderPending = "PENDING"
	OrderPaid    = "PAID"
	OrderFailed  = "FAILED"
	OrderExpired = "EXPIRED"
)

// Payment source values, as recorded in the paid-month register.
const (
	SourceOnline  = "online"
	SourceOffline = "offline"
)

// FeeOrder is a gateway order created before checkout. The amount and the
// months it covers are fixed server-side at creation time; verification
// records a payment from this state, never from the client's claim.
type FeeOrder struct {
	ID        int       `json:"id"`
	OrderID   string    `json:"order_id"`
	StudentID int       `json:"student_id"`
	Amount    float64   `json:"amount"`
	Months    []string  `json:"months"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// OnlinePayment is a gateway payment admitted into the ledger after
// signature verification. Append-only; there is no update or delete path.
type OnlinePayment struct {
	ID                int       `json:"id"`
	StudentID         int       `json:"student_id"`
	AmountPaid        float64   `json:"amount_paid"`
	RazorpayOrderID   string    `json:"razorpay_order_id"`
	RazorpayPaymentID string    `json:"razorpay_payment_id"`
	RazorpaySignature string    `json:"-"`
	Status            string    `json:"status"`
	Months            []string  `json:"months"`
	PaidAt            time.Time `json:"paid_at"`
}

// OfflinePayment is a payment taken at the school counter and recorded
// directly by a cashier. Append-only.
type OfflinePayment struct {
	ID          int       `json:"id"`
	StudentID   int       `json:"student_id"`
	Amount      float64   `json:"amount"`
	Months      []string  `json:"months"`
	PaymentMode string    `json:"payment_mode"`
	Cashier     string    `json:"cashier"`
	Remark      string    `json:"remark"`
	ReceivedBy  string    `json:"received_by"`
	ReceivedAt  time.Time `json:"received_at"`
}

// PaymentRecord is the unified listing shape for both payment kinds,
// ordered by date descending in listings.
type PaymentRecord struct {
	Source      string    `json:"source"`
	ID          int       `json:"id"`
	StudentID   int       `json:"student_id"`
	Amount      float64   `json:"amount"`
	Months      []string  `json:"months"`
	Reference   string    `json:"reference,omitempty"`
	PaymentMode string    `json:"payment_mode,omitempty"`
	ReceivedBy  string    `json:"received_by,omitempty"`
	Date        time.Time `json:"date"`
}

// RazorpayOrder is the order payload returned to the checkout client.
type RazorpayOrder struct {
	OrderID  string   `json:"order_id"`
	Amount   float64  `json:"amount"`
	Currency string   `json:"currency"`
	Receipt  string   `json:"receipt"`
	Months   []string `json:"months"`
}

// LedgerSummary is the derived per-student fee position. Nothing in it is
// stored; it is recomputed from the payment records on every read.
type LedgerSummary struct {
	StudentID     int      `json:"student_id"`
	ClassName     string   `json:"class_name"`
	Section       string   `json:"section"`
	FeeConfigured bool     `json:"fee_configured"`
	TotalFee      float64  `json:"total_fee"`
	MonthlyFee    float64  `json:"monthly_fee"`
	TotalPaid     float64  `json:"total_paid"`
	OnlinePaid    float64  `json:"online_paid"`
	OfflinePaid   float64  `json:"offline_paid"`
	Due           float64  `json:"due"`
	PaidMonths    []string `json:"paid_months"`
}

// Defaulter is one row of the class-wise defaulter report.
type Defaulter struct {
	StudentID     int     `json:"student_id"`
	Name          string  `json:"name"`
	Section       string  `json:"section"`
	FatherName    string  `json:"father_name"`
	FatherContact string  `json:"father_contact"`
	TotalFee      float64 `json:"total_fee"`
	TotalPaid     float64 `json:"total_paid"`
	Due           float64 `json:"due"`
}
