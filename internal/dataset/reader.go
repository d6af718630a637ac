package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	apperrors "ndxcli/internal/errors"
)

const utf8BOM = "\ufeff"

// rawTable is a header row plus data rows, every row padded to the header
// width.
type rawTable struct {
	Path   string
	Header []string
	Rows   [][]string
}

// columnIndex returns the position of name in the header or -1.
func (t *rawTable) columnIndex(name string) int {
	for i, h := range t.Header {
		if h == name {
			return i
		}
	}
	return -1
}

// readTable reads a CSV or XLSX file chosen by extension. Anything other
// than .xlsx is read as comma-delimited text.
func readTable(path string) (*rawTable, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("input file %s", path), err)
	}
	if info.IsDir() {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("input file %s", path), fmt.Errorf("%s is a directory", path))
	}

	var records [][]string
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		records, err = readXLSX(path)
	default:
		records, err = readCSV(path)
	}
	if err != nil {
		return nil, err
	}

	return newRawTable(path, records)
}

func readCSV(path string) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("input file %s", path), err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	var records [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, apperrors.NewFormatError(fmt.Sprintf("failed to read CSV %s", path), err)
		}
		records = append(records, record)
	}
	return records, nil
}

func readXLSX(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, apperrors.NewNotFoundError(fmt.Sprintf("input file %s", path), err)
		}
		return nil, apperrors.NewFormatError(fmt.Sprintf("failed to open workbook %s", path), err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, apperrors.NewFormatError(fmt.Sprintf("workbook %s has no sheets", path), nil)
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, apperrors.NewFormatError(fmt.Sprintf("failed to read sheet %q of %s", sheets[0], path), err)
	}
	return rows, nil
}

// newRawTable takes the first row as the header. Blank rows are skipped.
func newRawTable(path string, records [][]string) (*rawTable, error) {
	if len(records) == 0 {
		return nil, apperrors.NewFormatError(fmt.Sprintf("%s has no header row", path), nil)
	}

	header := make([]string, len(records[0]))
	for i, h := range records[0] {
		header[i] = normalizeHeader(h)
	}

	table := &rawTable{Path: path, Header: header}
	for _, record := range records[1:] {
		if isBlank(record) {
			continue
		}
		row := make([]string, len(header))
		copy(row, record)
		table.Rows = append(table.Rows, row)
	}
	return table, nil
}

func normalizeHeader(h string) string {
	return strings.TrimSpace(strings.TrimPrefix(h, utf8BOM))
}

func isBlank(record []string) bool {
	for _, cell := range record {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
