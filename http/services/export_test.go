package services

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fees-module/models"
)

func TestExportDefaulters(t *testing.T) {
	report := &DefaulterReport{
		Defaulters: map[string][]models.Defaulter{
			"Class 5": {
				{StudentID: 2, Name: "Vikram Nair", Section: "B", TotalFee: 12000, TotalPaid: 9000, Due: 3000},
			},
			"Class 6": {
				{StudentID: 3, Name: "Meena Pillai", Section: "A", TotalFee: 12000, TotalPaid: 11000, Due: 1000},
			},
		},
	}

	f, err := ExportDefaulters(report)
	require.NoError(t, err)
	defer f.Close()

	assert.ElementsMatch(t, []string{"Class 5", "Class 6"}, f.GetSheetList())

	name, err := f.GetCellValue("Class 5", "B2")
	require.NoError(t, err)
	assert.Equal(t, "Vikram Nair", name)

	due, err := f.GetCellValue("Class 5", "H2")
	require.NoError(t, err)
	assert.Equal(t, "3000", due)
}

func TestExportDefaultersEmptyReport(t *testing.T) {
	f, err := ExportDefaulters(&DefaulterReport{Defaulters: map[string][]models.Defaulter{}})
	require.NoError(t, err)
	defer f.Close()

	header, err := f.GetCellValue("Sheet1", "A1")
	require.NoError(t, err)
	assert.Equal(t, "Student ID", header)
}

func TestGenerateReceipt(t *testing.T) {
	student := &models.Student{ID: 1, Name: "Asha Rao", ClassName: "Class 5", Section: "A"}
	rec := models.PaymentRecord{
		Source:    models.SourceOnline,
		ID:        5,
		StudentID: 1,
		Amount:    2000,
		Months:    []string{"Jan", "Feb"},
		Reference: "pay_xyz",
		Date:      time.Now(),
	}

	path, err := GenerateReceipt(student, rec)
	require.NoError(t, err)
	assert.FileExists(t, path)

	t.Cleanup(func() {
		_ = os.Remove(path)
	})
}
