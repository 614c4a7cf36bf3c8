package ingest

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/tracecapel/North-Carolina-Bike-and-Pedestrian-Visualization/internal/errs"
)

// readSpreadsheet loads the first sheet of an xlsx/xls workbook in one
// shot. Returns the data records and the normalized header.
func readSpreadsheet(path string) ([][]string, []string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, nil, errs.Wrapf(err, "open %s", path)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil, fmt.Errorf("%s has no sheets", path)
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, nil, errs.Wrapf(err, "read sheet %q of %s", sheets[0], path)
	}
	if len(rows) == 0 {
		return nil, nil, fmt.Errorf("%s sheet %q is empty", path, sheets[0])
	}

	return rows[1:], normalizeHeader(rows[0]), nil
}
