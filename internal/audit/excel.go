package audit

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"
)

const historySheet = "Alarm history"

var historyColumns = []string{
	"Time", "Event", "Reason", "Member", "Reminder", "Scheduled date", "Scheduled time",
}

// WriteExcel renders the entries as a spreadsheet.
func WriteExcel(w io.Writer, entries []Entry) error {
	file := excelize.NewFile()
	defer file.Close()

	file.SetSheetName("Sheet1", historySheet)

	if err := writeHeader(file); err != nil {
		return err
	}

	for i, e := range entries {
		row := []interface{}{
			e.At.Format(time.RFC3339),
			e.EventType,
			e.Reason,
			e.OwnerName,
			e.Title,
			e.Date,
			e.Time,
		}
		for col, val := range row {
			cell, err := excelize.CoordinatesToCellName(col+1, i+2)
			if err != nil {
				return err
			}
			if err := file.SetCellValue(historySheet, cell, val); err != nil {
				return fmt.Errorf("write cell %s: %w", cell, err)
			}
		}
	}

	if err := file.Write(w); err != nil {
		return fmt.Errorf("save excel: %w", err)
	}
	return nil
}

func writeHeader(file *excelize.File) error {
	for i, col := range historyColumns {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := file.SetCellValue(historySheet, cell, col); err != nil {
			return err
		}
	}

	style, err := file.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
	})
	if err == nil {
		startCell, _ := excelize.CoordinatesToCellName(1, 1)
		endCell, _ := excelize.CoordinatesToCellName(len(historyColumns), 1)
		_ = file.SetCellStyle(historySheet, startCell, endCell, style)
	}
	return nil
}
