package grades

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"grades-dashboard-go/models"
)

// ParseXLSX reads the first worksheet of an Excel workbook.
func ParseXLSX(r io.Reader, opts Options) (*Sheet, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open excel file: %w", err)
	}
	defer f.Close()

	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return nil, errors.New("excel file does not contain any sheets")
	}
	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to get rows from sheet %s: %w", sheetName, err)
	}
	return ParseRows(rows, opts)
}

// ParseUpload picks the parser from the uploaded file's extension. Delimited
// text has its separator detected from the header line.
func ParseUpload(filename string, r io.Reader) (*Sheet, error) {
	opts := Options{SkipUnnamed: true}
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx":
		return ParseXLSX(r, opts)
	case ".csv", ".tsv", ".txt", "":
		return Parse(r, opts)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filename)
	}
}

// AssignFreshIDs gives every student a random id not used in existing, for
// students appended to a course that already has records.
func AssignFreshIDs(students []models.Student, existing []models.Student) {
	taken := make(map[string]bool, len(existing)+len(students))
	for _, s := range existing {
		taken[s.ID] = true
	}
	for i := range students {
		id := uuid.NewString()
		for taken[id] {
			id = uuid.NewString()
		}
		taken[id] = true
		students[i].ID = id
	}
}
