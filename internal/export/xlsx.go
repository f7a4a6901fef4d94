package export

import (
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/ckaraca/tyharvest/internal/pipeline"
)

const sheetName = "Results"

// writeXLSX emits the rows as a single-sheet workbook with a bold header
// row, mirroring the column order of the other formats.
func writeXLSX(w io.Writer, rows []pipeline.Row) error {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return err
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return err
	}

	headers := pipeline.Headers()
	if err := f.SetSheetRow(sheetName, "A1", &headers); err != nil {
		return err
	}
	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	lastCol, err := excelize.CoordinatesToCellName(len(headers), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheetName, "A1", lastCol, headerStyle); err != nil {
		return err
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		values := row.Values()
		if err := f.SetSheetRow(sheetName, cell, &values); err != nil {
			return err
		}
	}

	return f.Write(w)
}
