package services

import (
	"context"
	"database/sql"
	"math"
	"sort"

	"fees-module/errors"
	"fees-module/models"
)

// DefaulterService builds the admin-wide class-grouped report of students
// whose due balance is positive.
type DefaulterService struct {
	db *sql.DB
}

func NewDefaulterService(database *sql.DB) *DefaulterService {
	return &DefaulterService{db: database}
}

// DefaulterReport groups defaulting students by class name. Classes with
// no fee structure cannot have a due computed and are listed separately
// instead of silently reading as fully paid.
type DefaulterReport struct {
	Defaulters          map[string][]models.Defaulter `json:"defaulters"`
	UnconfiguredClasses []string                      `json:"unconfigured_classes,omitempty"`
}

// ledgerRow is one student's aggregated position as scanned from the
// report query.
type ledgerRow struct {
	StudentID     int
	Name          string
	ClassName     string
	Section       string
	FatherName    string
	FatherContact string
	FeeConfigured bool
	TotalFee      float64
	TotalPaid     float64
}

// ClassWise aggregates every student's ledger in one pass over the
// payment tables and groups those with due > 0 by class.
func (s *DefaulterService) ClassWise(ctx context.Context) (*DefaulterReport, error) {
	query := `
	SELECT s.id, s.name, s.class_name, s.section, s.father_name, s.father_contact,
	       f.amount IS NOT NULL, COALESCE(f.amount, 0),
	       COALESCE(op.total, 0) + COALESCE(fp.total, 0)
	FROM students s
	LEFT JOIN fee_structures f ON f.class_name = s.class_name
	LEFT JOIN (
		SELECT student_id, SUM(amount_paid) AS total
		FROM online_payments WHERE status = 'success' GROUP BY student_id
	) op ON op.student_id = s.id
	LEFT JOIN (
		SELECT student_id, SUM(amount) AS total
		FROM offline_payments GROUP BY student_id
	) fp ON fp.student_id = s.id
	ORDER BY s.class_name, s.name`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, errors.E(errors.Internal, "error building defaulter report", err)
	}
	defer rows.Close()

	var ledgers []ledgerRow
	for rows.Next() {
		var lr ledgerRow
		if err := rows.Scan(&lr.StudentID, &lr.Name, &lr.ClassName, &lr.Section,
			&lr.FatherName, &lr.FatherContact, &lr.FeeConfigured,
			&lr.TotalFee, &lr.TotalPaid); err != nil {
			return nil, errors.E(errors.Internal, "error reading defaulter report", err)
		}
		ledgers = append(ledgers, lr)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.E(errors.Internal, "error reading defaulter report", err)
	}

	return groupDefaulters(ledgers), nil
}

// groupDefaulters applies the due computation to each aggregated ledger
// row and groups the positive balances by class.
func groupDefaulters(ledgers []ledgerRow) *DefaulterReport {
	report := &DefaulterReport{Defaulters: map[string][]models.Defaulter{}}
	unconfigured := map[string]bool{}

	for _, lr := range ledgers {
		if !lr.FeeConfigured {
			unconfigured[lr.ClassName] = true
			continue
		}
		due := math.Max(lr.TotalFee-lr.TotalPaid, 0)
		if due <= 0 {
			continue
		}
		report.Defaulters[lr.ClassName] = append(report.Defaulters[lr.ClassName], models.Defaulter{
			StudentID:     lr.StudentID,
			Name:          lr.Name,
			Section:       lr.Section,
			FatherName:    lr.FatherName,
			FatherContact: lr.FatherContact,
			TotalFee:      lr.TotalFee,
			TotalPaid:     lr.TotalPaid,
			Due:           due,
		})
	}

	for class := range unconfigured {
		report.UnconfiguredClasses = append(report.UnconfiguredClasses, class)
	}
	sort.Strings(report.UnconfiguredClasses)

	return report
}

// Classes returns the class names present in the report, sorted.
func (r *DefaulterReport) Classes() []string {
	classes := make([]string, 0, len(r.Defaulters))
	for class := range r.Defaulters {
		classes = append(classes, class)
	}
	sort.Strings(classes)
	return classes
}
