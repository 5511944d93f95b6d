package export

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/xuri/excelize/v2"

	"studiobook/internal/models"
)

// InvoiceFor computes the billing snapshot for a booking at the given hourly
// rate. Total is rate times the booked duration.
func InvoiceFor(b models.Booking, ratePerHour float64) models.InvoiceDetails {
	return models.InvoiceDetails{
		RatePerHour: ratePerHour,
		TotalAmount: ratePerHour * b.DurationHours,
		GeneratedAt: time.Now().UTC(),
	}
}

// InvoiceToExcel writes an invoice document for the booking and returns the
// file path.
func InvoiceToExcel(dir string, b models.Booking, details models.InvoiceDetails) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("error creating export directory: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Invoice"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return "", fmt.Errorf("error creating sheet: %w", err)
	}
	f.SetActiveSheet(index)

	rows := [][]interface{}{
		{"Studio Session Invoice", ""},
		{"", ""},
		{"Invoice date", details.GeneratedAt.Format("2006-01-02")},
		{"Client", b.ClientName},
		{"Phone", b.PhoneNumber},
		{"Session date", b.Date},
		{"Start time", b.StartTime},
		{"Duration (hours)", b.DurationHours},
		{"Session type", b.Type},
		{"", ""},
		{"Rate per hour", details.RatePerHour},
		{"Total amount", details.TotalAmount},
	}
	for i, row := range rows {
		cellA, _ := excelize.CoordinatesToCellName(1, i+1)
		cellB, _ := excelize.CoordinatesToCellName(2, i+1)
		_ = f.SetCellValue(sheetName, cellA, row[0])
		_ = f.SetCellValue(sheetName, cellB, row[1])
	}

	titleStyle, _ := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true, Size: 14}})
	_ = f.SetCellStyle(sheetName, "A1", "A1", titleStyle)
	totalStyle, _ := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	_ = f.SetCellStyle(sheetName, "A12", "B12", totalStyle)
	_ = f.SetColWidth(sheetName, "A", "A", 20)
	_ = f.SetColWidth(sheetName, "B", "B", 30)

	_ = f.DeleteSheet("Sheet1")

	fileName := fmt.Sprintf("invoice_%s_%s.xlsx", b.Date, b.ID)
	filePath := filepath.Join(dir, fileName)
	if err := f.SaveAs(filePath); err != nil {
		return "", fmt.Errorf("error saving file: %w", err)
	}
	return filePath, nil
}
