package export

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/xuri/excelize/v2"

	"studiobook/internal/models"
)

// ScheduleToExcel writes a schedule grid for [from, to]: one column per date,
// sessions listed underneath. Returns the path of the created file.
func ScheduleToExcel(dir, from, to string, daily map[string][]models.Booking) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("error creating export directory: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Schedule"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return "", fmt.Errorf("error creating sheet: %w", err)
	}
	f.SetActiveSheet(index)

	_ = f.SetCellValue(sheetName, "A1", fmt.Sprintf("Period: %s - %s", from, to))

	dates := sortedDates(daily)
	for col, date := range dates {
		headerCell, _ := excelize.CoordinatesToCellName(col+1, 2)
		_ = f.SetCellValue(sheetName, headerCell, date)

		headerStyle, _ := f.NewStyle(&excelize.Style{
			Fill:      excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
			Font:      &excelize.Font{Bold: true},
			Alignment: &excelize.Alignment{Horizontal: "center"},
		})
		_ = f.SetCellStyle(sheetName, headerCell, headerCell, headerStyle)

		for row, b := range daily[date] {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+3)
			_ = f.SetCellValue(sheetName, cell, fmt.Sprintf("%s %s (%.1fh, %s)",
				b.StartTime, b.ClientName, b.DurationHours, b.Status))
		}

		colName, _ := excelize.ColumnNumberToName(col + 1)
		_ = f.SetColWidth(sheetName, colName, colName, 30)
	}

	if len(dates) > 0 {
		lastCol, _ := excelize.ColumnNumberToName(len(dates))
		_ = f.MergeCell(sheetName, "A1", lastCol+"1")
	}
	titleStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	_ = f.SetCellStyle(sheetName, "A1", "A1", titleStyle)

	_ = f.DeleteSheet("Sheet1")

	fileName := fmt.Sprintf("schedule_%s_to_%s.xlsx", from, to)
	filePath := filepath.Join(dir, fileName)
	if err := f.SaveAs(filePath); err != nil {
		return "", fmt.Errorf("error saving file: %w", err)
	}
	return filePath, nil
}

func sortedDates(daily map[string][]models.Booking) []string {
	dates := make([]string, 0, len(daily))
	for date := range daily {
		dates = append(dates, date)
	}
	// Fixed-width dates, plain sort is chronological.
	sort.Strings(dates)
	return dates
}
