package report

import (
	"bytes"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"grades-dashboard-go/models"
)

const gridSheet = "Grades"

// XLSXFilename is the download name of a course grid export.
func XLSXFilename(courseName string) string {
	return "Grades_" + whitespace.ReplaceAllString(courseName, "_") + ".xlsx"
}

// GridRows lays a course out the way the sheets are written: one header row,
// then one row per student with four cells per topic.
func GridRows(course models.Course) [][]string {
	topics := course.TopicNames()
	header := []string{"Name"}
	for _, name := range topics {
		header = append(header, "1ra "+name, "R1", "R2", "Col")
	}

	rows := [][]string{header}
	for _, s := range course.Students {
		row := []string{s.Name}
		for _, t := range s.Topics {
			for _, slot := range models.Slots {
				row = append(row, t.Get(slot).String())
			}
		}
		rows = append(rows, row)
	}
	return rows
}

// WriteCourseXLSX exports the course grid as a workbook that re-imports with
// the same topic names.
func WriteCourseXLSX(w io.Writer, course models.Course) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", gridSheet); err != nil {
		return fmt.Errorf("%w: %v", ErrExportFailure, err)
	}
	for r, row := range GridRows(course) {
		cell, err := excelize.CoordinatesToCellName(1, r+1)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrExportFailure, err)
		}
		values := make([]interface{}, len(row))
		for i, v := range row {
			values[i] = v
		}
		if err := f.SetSheetRow(gridSheet, cell, &values); err != nil {
			return fmt.Errorf("%w: %v", ErrExportFailure, err)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return fmt.Errorf("%w: %v", ErrExportFailure, err)
	}
	if _, err := buf.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}
