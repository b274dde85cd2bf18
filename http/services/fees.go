package services

import (
	"context"
	"database/sql"
	"fmt"
	"math"

	"fees-module/errors"
	"fees-module/models"
	"fees-module/utils"
)

// FeesService resolves fee structures and derives ledger summaries.
// Nothing it returns is stored; every read recomputes from the payment
// records.
type FeesService struct {
	db *sql.DB
}

func NewFeesService(database *sql.DB) *FeesService {
	return &FeesService{db: database}
}

// GetStudent fetches a student record by id.
func (s *FeesService) GetStudent(ctx context.Context, studentID int) (*models.Student, error) {
	var st models.Student
	query := `SELECT id, name, class_name, section, father_name, father_contact, email, created_at, updated_at
		FROM students WHERE id = $1`
	err := s.db.QueryRowContext(ctx, query, studentID).Scan(
		&st.ID, &st.Name, &st.ClassName, &st.Section,
		&st.FatherName, &st.FatherContact, &st.Email,
		&st.CreatedAt, &st.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFoundError("student not found")
	}
	if err != nil {
		return nil, errors.E(errors.Internal, "error fetching student", err)
	}
	return &st, nil
}

// ResolveStructure returns the configured annual fee for a class, or a
// NotFound error when no structure is configured.
func (s *FeesService) ResolveStructure(ctx context.Context, className string) (*models.FeeStructure, error) {
	var fs models.FeeStructure
	query := `SELECT id, class_name, amount, created_at, updated_at FROM fee_structures WHERE class_name = $1`
	err := s.db.QueryRowContext(ctx, query, className).Scan(
		&fs.ID, &fs.ClassName, &fs.Amount, &fs.CreatedAt, &fs.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFoundError(fmt.Sprintf("no fee structure configured for class %s", className))
	}
	if err != nil {
		return nil, errors.E(errors.Internal, "error fetching fee structure", err)
	}
	return &fs, nil
}

// Summary computes the derived fee position for a student: total fee from
// the class structure, paid amounts split by origin, the due balance and
// the covered months. An unconfigured class is reported as such instead of
// reading as fully paid.
func (s *FeesService) Summary(ctx context.Context, studentID int) (*models.LedgerSummary, error) {
	student, err := s.GetStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}
	return s.summaryFor(ctx, student)
}

func (s *FeesService) summaryFor(ctx context.Context, student *models.Student) (*models.LedgerSummary, error) {
	summary := &models.LedgerSummary{
		StudentID:  student.ID,
		ClassName:  student.ClassName,
		Section:    student.Section,
		PaidMonths: []string{},
	}

	var totalFee float64
	err := s.db.QueryRowContext(ctx,
		`SELECT amount FROM fee_structures WHERE class_name = $1`,
		student.ClassName).Scan(&totalFee)
	switch err {
	case nil:
		summary.FeeConfigured = true
		summary.TotalFee = totalFee
		summary.MonthlyFee = math.Round(totalFee / 12)
	case sql.ErrNoRows:
		// No structure for the class. due stays 0 but FeeConfigured
		// tells the caller this is not "fully paid".
	default:
		return nil, errors.E(errors.Internal, "error fetching fee structure", err)
	}

	err = s.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(amount_paid), 0) FROM online_payments WHERE student_id = $1 AND status = 'success'`,
		student.ID).Scan(&summary.OnlinePaid)
	if err != nil {
		return nil, errors.E(errors.Internal, "error aggregating online payments", err)
	}

	err = s.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(amount), 0) FROM offline_payments WHERE student_id = $1`,
		student.ID).Scan(&summary.OfflinePaid)
	if err != nil {
		return nil, errors.E(errors.Internal, "error aggregating offline payments", err)
	}

	summary.TotalPaid = summary.OnlinePaid + summary.OfflinePaid
	if summary.FeeConfigured {
		summary.Due = math.Max(summary.TotalFee-summary.TotalPaid, 0)
	}

	months, err := s.paidMonths(ctx, student.ID)
	if err != nil {
		return nil, err
	}
	summary.PaidMonths = months

	return summary, nil
}

// paidMonths reads the canonical month coverage for a student, in
// calendar order.
func (s *FeesService) paidMonths(ctx context.Context, studentID int) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT month FROM paid_months WHERE student_id = $1`, studentID)
	if err != nil {
		return nil, errors.E(errors.Internal, "error fetching paid months", err)
	}
	defer rows.Close()

	months := []string{}
	for rows.Next() {
		var m string
		if err := rows.Scan(&m); err != nil {
			return nil, errors.E(errors.Internal, "error reading paid months", err)
		}
		months = append(months, m)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.E(errors.Internal, "error reading paid months", err)
	}

	return utils.SortMonths(months), nil
}
