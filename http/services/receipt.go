package services

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"fees-module/models"

	"github.com/google/uuid"
	"github.com/jung-kurt/gofpdf"
)

// GenerateReceipt renders a PDF fee receipt for a recorded payment and
// returns the file path. The caller owns the file and should remove it
// after serving or mailing it.
func GenerateReceipt(student *models.Student, rec models.PaymentRecord) (string, error) {
	receiptNo := uuid.NewString()

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(40, 10, "Fee Receipt")
	pdf.Ln(12)

	pdf.SetFont("Arial", "", 11)
	pdf.Cell(40, 8, fmt.Sprintf("Receipt No: %s", receiptNo))
	pdf.Ln(8)
	pdf.Cell(40, 8, fmt.Sprintf("Date: %s", rec.Date.Format("02 Jan 2006")))
	pdf.Ln(12)

	pdf.SetFont("Arial", "B", 12)
	pdf.Cell(40, 8, "Student Details")
	pdf.Ln(8)
	pdf.SetFont("Arial", "", 11)
	pdf.Cell(40, 8, fmt.Sprintf("Name: %s", student.Name))
	pdf.Ln(8)
	pdf.Cell(40, 8, fmt.Sprintf("Class: %s   Section: %s", student.ClassName, student.Section))
	pdf.Ln(12)

	pdf.SetFont("Arial", "B", 12)
	pdf.Cell(40, 8, "Payment Details")
	pdf.Ln(8)
	pdf.SetFont("Arial", "", 11)
	pdf.Cell(40, 8, fmt.Sprintf("Amount Paid: Rs. %.2f", rec.Amount))
	pdf.Ln(8)
	pdf.Cell(40, 8, fmt.Sprintf("Months Covered: %s", strings.Join(rec.Months, ", ")))
	pdf.Ln(8)
	mode := rec.PaymentMode
	if rec.Source == models.SourceOnline {
		mode = "ONLINE"
	}
	pdf.Cell(40, 8, fmt.Sprintf("Payment Mode: %s", mode))
	pdf.Ln(8)
	if rec.Reference != "" {
		pdf.Cell(40, 8, fmt.Sprintf("Gateway Reference: %s", rec.Reference))
		pdf.Ln(8)
	}
	if rec.ReceivedBy != "" {
		pdf.Cell(40, 8, fmt.Sprintf("Received By: %s", rec.ReceivedBy))
		pdf.Ln(8)
	}
	pdf.Ln(8)
	pdf.Cell(40, 8, "This is a system generated receipt.")

	fileName := filepath.Join(os.TempDir(),
		fmt.Sprintf("receipt_%d_%d.pdf", student.ID, time.Now().UnixNano()))
	if err := pdf.OutputFileAndClose(fileName); err != nil {
		return "", fmt.Errorf("error generating receipt PDF: %w", err)
	}

	return fileName, nil
}
