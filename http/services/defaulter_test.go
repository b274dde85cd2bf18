package services

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGroupDefaultersSkipsSettledStudents(t *testing.T) {
	ledgers := []ledgerRow{
		{StudentID: 1, Name: "Asha Rao", ClassName: "Class 5", Section: "A", FeeConfigured: true, TotalFee: 12000, TotalPaid: 12000},
		{StudentID: 2, Name: "Vikram Nair", ClassName: "Class 5", Section: "B", FeeConfigured: true, TotalFee: 12000, TotalPaid: 11500},
		{StudentID: 3, Name: "Meena Pillai", ClassName: "Class 6", Section: "A", FeeConfigured: true, TotalFee: 12000, TotalPaid: 11000},
	}

	report := groupDefaulters(ledgers)

	assert.Equal(t, []string{"Class 5", "Class 6"}, report.Classes())
	require.Len(t, report.Defaulters["Class 5"], 1)
	assert.Equal(t, 2, report.Defaulters["Class 5"][0].StudentID)
	assert.Equal(t, 500.0, report.Defaulters["Class 5"][0].Due)
	require.Len(t, report.Defaulters["Class 6"], 1)
	assert.Equal(t, 1000.0, report.Defaulters["Class 6"][0].Due)
}

func TestGroupDefaultersSeparatesUnconfiguredClasses(t *testing.T) {
	ledgers := []ledgerRow{
		{StudentID: 1, Name: "Asha Rao", ClassName: "Class 9", FeeConfigured: false, TotalPaid: 500},
	}

	report := groupDefaulters(ledgers)

	// A student in a class with no fee structure must not silently read
	// as fully paid.
	assert.Empty(t, report.Defaulters)
	assert.Equal(t, []string{"Class 9"}, report.UnconfiguredClasses)
}

func TestClassWise(t *testing.T) {
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer conn.Close()

	rows := sqlmock.NewRows([]string{
		"id", "name", "class_name", "section", "father_name", "father_contact", "configured", "fee", "paid",
	}).
		AddRow(1, "Asha Rao", "Class 5", "A", "K. Rao", "9000000001", true, 12000.0, 12000.0).
		AddRow(2, "Vikram Nair", "Class 5", "B", "S. Nair", "9000000002", true, 12000.0, 9000.0)
	mock.ExpectQuery("FROM students s").WillReturnRows(rows)

	report, err := NewDefaulterService(conn).ClassWise(context.Background())
	require.NoError(t, err)

	require.Len(t, report.Defaulters["Class 5"], 1)
	assert.Equal(t, "Vikram Nair", report.Defaulters["Class 5"][0].Name)
	assert.Equal(t, 3000.0, report.Defaulters["Class 5"][0].Due)
	assert.NoError(t, mock.ExpectationsWereMet())
}
