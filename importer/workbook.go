package importer

import (
	"fmt"

	"github.com/tealeg/xlsx/v3"

	"github.com/asthma-connect/clinic/errors"
)

// ReadWorkbook returns the cell values of the first sheet of a workbook. Date cells keep
// their serial number representation.
func ReadWorkbook(data []byte) ([][]string, error) {
	file, err := xlsx.OpenBinary(data)
	if err != nil {
		return nil, fmt.Errorf("%w: unable to open workbook: %w", errors.BadRequest, err)
	}
	if len(file.Sheets) == 0 {
		return nil, ErrEmptyFile
	}

	sheet := file.Sheets[0]
	defer sheet.Close()

	table := make([][]string, 0, sheet.MaxRow)
	for r := 0; r < sheet.MaxRow; r++ {
		values := make([]string, sheet.MaxCol)
		for c := 0; c < sheet.MaxCol; c++ {
			cell, err := sheet.Cell(r, c)
			if err != nil {
				return nil, fmt.Errorf("unable to read cell (%d, %d): %w", r, c, err)
			}
			values[c] = cell.Value
		}
		table = append(table, values)
	}
	return table, nil
}
