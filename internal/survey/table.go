package survey

import (
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	cerrors "github.com/a3tai/survey2pdf/internal/errors"
)

// Table is a parsed survey export: the header row plus every data row.
// Every row has exactly len(Columns) cells, in column order.
type Table struct {
	Columns []string
	Rows    [][]string

	index map[string]int
}

// ReadOptions controls how an input file is parsed
type ReadOptions struct {
	// Sheet selects the XLSX worksheet; empty means the first sheet.
	Sheet string
	// MaxFileSize rejects inputs larger than this many bytes when positive.
	MaxFileSize int64
}

// Len returns the number of data rows
func (t *Table) Len() int {
	return len(t.Rows)
}

// Row returns the row at index i as a column-addressable view
func (t *Table) Row(i int) Row {
	if t.index == nil {
		t.index = make(map[string]int, len(t.Columns))
		for j, c := range t.Columns {
			t.index[c] = j
		}
	}
	return Row{Index: i, cells: t.Rows[i], lookup: t.index}
}

// Row is a single data row addressed by column name
type Row struct {
	Index  int
	cells  []string
	lookup map[string]int
}

// Value returns the cell for column, and false if the column does not exist
func (r Row) Value(column string) (string, bool) {
	i, ok := r.lookup[column]
	if !ok {
		return "", false
	}
	return r.cells[i], true
}

// Has reports whether the row has the named column
func (r Row) Has(column string) bool {
	_, ok := r.lookup[column]
	return ok
}

// ReadTable loads a CSV or XLSX file depending on its extension
func ReadTable(path string, opts ReadOptions) (*Table, error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, cerrors.New(cerrors.ErrorTypeInputNotFound, "input file does not exist").WithPath(path)
	}
	if err != nil {
		return nil, cerrors.Wrap(cerrors.ErrorTypeInputUnreadable, "cannot access input file", err).WithPath(path)
	}
	if info.IsDir() {
		return nil, cerrors.New(cerrors.ErrorTypeInputUnreadable, "input path is a directory").WithPath(path)
	}
	if opts.MaxFileSize > 0 && info.Size() > opts.MaxFileSize {
		return nil, cerrors.New(cerrors.ErrorTypeInputUnreadable,
			fmt.Sprintf("input too large: %d bytes (max: %d bytes)", info.Size(), opts.MaxFileSize)).WithPath(path)
	}

	var records [][]string
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		records, err = readExcelRecords(path, opts.Sheet)
	default:
		records, err = readCSVRecords(path)
	}
	if err != nil {
		return nil, cerrors.Wrap(cerrors.ErrorTypeInputUnreadable, "cannot parse input table", err).WithPath(path)
	}

	table, err := NewTable(records)
	if err != nil {
		return nil, cerrors.Wrap(cerrors.ErrorTypeInputUnreadable, "invalid table", err).WithPath(path)
	}

	log.Printf("[survey] read %s: %d columns, %d rows", filepath.Base(path), len(table.Columns), table.Len())
	return table, nil
}

func readCSVRecords(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer f.Close()

	return ParseCSV(f)
}

// ParseCSV reads comma-separated records, dropping a leading UTF-8 BOM
func ParseCSV(r io.Reader) ([][]string, error) {
	// BOMOverride strips a BOM when present and passes plain UTF-8 through.
	decoded := transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))

	reader := csv.NewReader(decoded)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}
	return records, nil
}

func readExcelRecords(path, sheet string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("workbook has no sheets")
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}
	return rows, nil
}

// NewTable builds a Table from raw records whose first record is the header.
// Short rows are padded with empty cells and duplicate header names are
// renamed Name.1, Name.2, ... in order of appearance, the way Survey123
// exports mangle repeated questions.
func NewTable(records [][]string) (*Table, error) {
	if len(records) == 0 || len(records[0]) == 0 {
		return nil, fmt.Errorf("missing header row")
	}

	columns := dedupeColumns(records[0])
	width := len(columns)

	rows := make([][]string, 0, len(records)-1)
	for i, rec := range records[1:] {
		if len(rec) > width {
			if !isBlankRecord(rec[width:]) {
				return nil, fmt.Errorf("row %d has %d cells but header has %d columns", i, len(rec), width)
			}
			rec = rec[:width]
		}
		row := make([]string, width)
		copy(row, rec)
		rows = append(rows, row)
	}

	return &Table{Columns: columns, Rows: rows}, nil
}

func dedupeColumns(header []string) []string {
	columns := make([]string, len(header))
	used := make(map[string]bool, len(header))
	counts := make(map[string]int)

	for i, name := range header {
		name = strings.TrimSpace(name)
		if name == "" {
			name = "Unnamed: " + strconv.Itoa(i)
		}
		if !used[name] {
			used[name] = true
			columns[i] = name
			continue
		}

		n := counts[name]
		candidate := name
		for {
			n++
			candidate = name + "." + strconv.Itoa(n)
			if !used[candidate] {
				break
			}
		}
		counts[name] = n
		used[candidate] = true
		columns[i] = candidate
	}
	return columns
}

func isBlankRecord(rec []string) bool {
	for _, cell := range rec {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
