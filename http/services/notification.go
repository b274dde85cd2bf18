package services

import (
	"fmt"
	"os"
	"strings"

	"fees-module/logger"
	"fees-module/models"
	"fees-module/services"
)

// Notifier sends fee confirmation emails with the PDF receipt attached.
// All sends are best-effort; a mail failure never fails the payment.
type Notifier struct {
	mailer *services.Mailer
}

func NewNotifier(mailer *services.Mailer) *Notifier {
	return &Notifier{mailer: mailer}
}

// SendPaymentConfirmation emails the student a confirmation with the
// generated receipt attached.
func (n *Notifier) SendPaymentConfirmation(student *models.Student, rec models.PaymentRecord) {
	if n == nil || n.mailer == nil {
		return
	}
	if student.Email == "" {
		logger.Warn("Student %d has no email, skipping payment confirmation", student.ID)
		return
	}

	receiptPath, err := GenerateReceipt(student, rec)
	if err != nil {
		logger.Error("Error generating receipt for student %d: %v", student.ID, err)
		receiptPath = ""
	}

	body := paymentConfirmationBody(student, rec)
	subject := fmt.Sprintf("Fee Payment Received - Rs. %.2f", rec.Amount)

	var attachments []string
	if receiptPath != "" {
		attachments = append(attachments, receiptPath)
		defer os.Remove(receiptPath)
	}

	if err := n.mailer.Send(student.Email, subject, body, attachments...); err != nil {
		logger.Error("Error sending payment confirmation to %s: %v", student.Email, err)
	}
}

func paymentConfirmationBody(student *models.Student, rec models.PaymentRecord) string {
	return fmt.Sprintf(`
<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #333;">
	<div style="max-width: 600px; margin: 0 auto; padding: 20px;">
		<h2 style="color: #4CAF50;">Payment Received</h2>
		<p>Dear %s,</p>
		<p>We have received your fee payment. The receipt is attached.</p>
		<table style="border-collapse: collapse;">
			<tr><td style="padding: 4px 12px;"><b>Amount</b></td><td>Rs. %.2f</td></tr>
			<tr><td style="padding: 4px 12px;"><b>Months</b></td><td>%s</td></tr>
			<tr><td style="padding: 4px 12px;"><b>Date</b></td><td>%s</td></tr>
		</table>
		<p style="margin-top: 20px; font-size: 12px; color: #777;">
			This is an automated message from the school fee office.
		</p>
	</div>
</body>
</html>`,
		student.Name, rec.Amount, strings.Join(rec.Months, ", "), rec.Date.Format("02 Jan 2006"))
}
