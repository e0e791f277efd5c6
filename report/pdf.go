// Package report renders grade documents for download.
package report

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"regexp"
	"time"

	"github.com/jung-kurt/gofpdf"

	"grades-dashboard-go/grades"
	"grades-dashboard-go/models"
)

// ErrExportFailure is returned when a document could not be generated.
var ErrExportFailure = errors.New("failed to generate document")

var whitespace = regexp.MustCompile(`\s`)

var tableHeader = []string{"Topic", "First", "Retry 1", "Retry 2", "Oral", "Final Status"}

// column widths in mm, summing to the printable A4 width
var tableWidths = []float64{55, 20, 20, 20, 20, 35}

// PDFFilename is the download name of a student's report.
func PDFFilename(studentName string) string {
	return "Grades_" + whitespace.ReplaceAllString(studentName, "_") + ".pdf"
}

// WriteStudentPDF renders a student's grade report. The document is built in
// memory; nothing is written to w unless generation succeeded.
func WriteStudentPDF(w io.Writer, courseName string, student models.Student, issued time.Time) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle(tr("Grade report - "+student.Name), false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 20)
	pdf.SetTextColor(67, 56, 202)
	pdf.Cell(0, 10, "GRADE REPORT")
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 12)
	pdf.SetTextColor(50, 50, 50)
	pdf.Cell(0, 7, tr("Student: "+student.Name))
	pdf.Ln(7)
	pdf.Cell(0, 7, tr("Course: "+courseName))
	pdf.Ln(7)
	pdf.Cell(0, 7, "Date: "+issued.Format("02/01/2006"))
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(67, 56, 202)
	pdf.SetTextColor(255, 255, 255)
	for i, h := range tableHeader {
		pdf.CellFormat(tableWidths[i], 8, h, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 9)
	pdf.SetTextColor(30, 30, 30)
	for _, t := range student.Topics {
		row := []string{
			t.Name,
			t.First.String(),
			t.Retry1.String(),
			t.Retry2.String(),
			t.OralExam.String(),
			grades.Classify(t).LongLabel,
		}
		for i, cell := range row {
			align := "C"
			if i == 0 {
				align = "L"
			}
			pdf.CellFormat(tableWidths[i], 7, tr(cell), "1", 0, align, false, 0, "")
		}
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return fmt.Errorf("%w: %v", ErrExportFailure, err)
	}
	if _, err := buf.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}
