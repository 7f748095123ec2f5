package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// timeLayout is the cell format for every persisted timestamp.
const timeLayout = "2006-01-02 15:04:05"

// Table gives whole-table access to one sheet of a workbook file. There is
// no partial write primitive: every mutation is load, modify, overwrite.
// Multiple tables may share a workbook (the cycle count sheets do).
type Table struct {
	path   string
	sheet  string
	header []string
}

func NewTable(path, sheet string, header []string) *Table {
	return &Table{path: path, sheet: sheet, header: header}
}

// Init creates the workbook and/or the sheet with a header-only table when
// either is missing. Existing tables are left untouched.
func (t *Table) Init() error {
	if err := os.MkdirAll(filepath.Dir(t.path), 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	f, err := excelize.OpenFile(t.path)
	created := false
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("open %s: %w", t.path, err)
		}
		f = excelize.NewFile()
		created = true
	}
	defer f.Close()

	idx, err := f.GetSheetIndex(t.sheet)
	if err != nil {
		return fmt.Errorf("sheet %s: %w", t.sheet, err)
	}
	if idx >= 0 {
		return nil
	}

	if _, err := f.NewSheet(t.sheet); err != nil {
		return fmt.Errorf("create sheet %s: %w", t.sheet, err)
	}
	if err := f.SetSheetRow(t.sheet, "A1", toCells(t.header)); err != nil {
		return fmt.Errorf("write header %s: %w", t.sheet, err)
	}
	if created {
		_ = f.DeleteSheet("Sheet1")
	}
	return t.save(f)
}

// Load returns all data rows in file order. The header row is skipped, as
// are rows whose primary-key cell is empty (blank or deleted rows).
func (t *Table) Load() ([][]string, error) {
	f, err := excelize.OpenFile(t.path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", t.path, err)
	}
	defer f.Close()

	rows, err := f.GetRows(t.sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", t.sheet, err)
	}

	var records [][]string
	for i, row := range rows {
		if i == 0 {
			continue
		}
		if cell(row, 0) == "" {
			continue
		}
		records = append(records, row)
	}
	return records, nil
}

// Overwrite replaces the table contents with header + records. Sibling
// sheets in the same workbook are preserved. The workbook is written to a
// temp file and renamed into place so a crash mid-write leaves the previous
// version intact rather than a torn file.
func (t *Table) Overwrite(records [][]string) error {
	f, err := excelize.OpenFile(t.path)
	if err != nil {
		return fmt.Errorf("open %s: %w", t.path, err)
	}
	defer f.Close()

	// A scratch sheet keeps the workbook non-empty while the target sheet
	// is dropped and rebuilt.
	const scratch = "__rewrite__"
	if _, err := f.NewSheet(scratch); err != nil {
		return fmt.Errorf("rewrite sheet %s: %w", t.sheet, err)
	}
	if err := f.DeleteSheet(t.sheet); err != nil {
		return fmt.Errorf("rewrite sheet %s: %w", t.sheet, err)
	}
	if _, err := f.NewSheet(t.sheet); err != nil {
		return fmt.Errorf("rewrite sheet %s: %w", t.sheet, err)
	}
	if err := f.DeleteSheet(scratch); err != nil {
		return fmt.Errorf("rewrite sheet %s: %w", t.sheet, err)
	}

	if err := f.SetSheetRow(t.sheet, "A1", toCells(t.header)); err != nil {
		return fmt.Errorf("write header %s: %w", t.sheet, err)
	}
	for i, rec := range records {
		addr := fmt.Sprintf("A%d", i+2)
		if err := f.SetSheetRow(t.sheet, addr, toCells(rec)); err != nil {
			return fmt.Errorf("write row %d of %s: %w", i+2, t.sheet, err)
		}
	}
	return t.save(f)
}

func (t *Table) save(f *excelize.File) error {
	// The temp name must keep the workbook extension: excelize rejects
	// unknown target formats on SaveAs.
	tmp := t.path + ".tmp.xlsx"
	if err := f.SaveAs(tmp); err != nil {
		return fmt.Errorf("write %s: %w", t.path, err)
	}
	if err := os.Rename(tmp, t.path); err != nil {
		return fmt.Errorf("replace %s: %w", t.path, err)
	}
	return nil
}

func toCells(row []string) *[]interface{} {
	cells := make([]interface{}, len(row))
	for i, v := range row {
		cells[i] = v
	}
	return &cells
}

// cell returns the i-th column, tolerating the short rows excelize produces
// when trailing cells are empty.
func cell(row []string, i int) string {
	if i < len(row) {
		return strings.TrimSpace(row[i])
	}
	return ""
}

func intCell(row []string, i int) (int, error) {
	s := cell(row, i)
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("column %d: %w", i+1, err)
	}
	return n, nil
}

func decimalCell(row []string, i int) (decimal.Decimal, error) {
	s := cell(row, i)
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("column %d: %w", i+1, err)
	}
	return d, nil
}

func timeCell(row []string, i int) (time.Time, error) {
	s := cell(row, i)
	if s == "" {
		return time.Time{}, nil
	}
	ts, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("column %d: %w", i+1, err)
	}
	return ts, nil
}

func boolCell(row []string, i int) bool {
	return strings.EqualFold(cell(row, i), "true")
}
