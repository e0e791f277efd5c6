package report

import (
	"bytes"
	"testing"
	"time"

	"grades-dashboard-go/grades"
	"grades-dashboard-go/models"
)

func sampleStudent() models.Student {
	return models.Student{ID: "0", Name: "Ana María Pérez", Topics: []models.TopicGrade{
		{Name: "Cinemática", First: models.ParseGrade("5"), Retry1: models.ParseGrade("7"), Retry2: models.EmptyGrade(), OralExam: models.EmptyGrade()},
		{Name: "Dinámica", First: models.ParseGrade("AJ"), Retry1: models.EmptyGrade(), Retry2: models.EmptyGrade(), OralExam: models.EmptyGrade()},
	}}
}

func TestPDFFilename(t *testing.T) {
	if got := PDFFilename("Ana María  Pérez"); got != "Grades_Ana_María__Pérez.pdf" {
		t.Errorf("PDFFilename = %q", got)
	}
}

func TestWriteStudentPDF(t *testing.T) {
	var buf bytes.Buffer
	issued := time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)

	if err := WriteStudentPDF(&buf, "4to Año D Física", sampleStudent(), issued); err != nil {
		t.Fatalf("WriteStudentPDF: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")) {
		t.Fatalf("output is not a PDF: %q", buf.Bytes()[:min(8, buf.Len())])
	}
}

func TestWriteCourseXLSX_ReimportsTopics(t *testing.T) {
	course := models.Course{Name: "4D", Students: []models.Student{
		sampleStudent(),
		{ID: "1", Name: "Beto", Topics: []models.TopicGrade{models.NewTopicGrade("Cinemática"), models.NewTopicGrade("Dinámica")}},
	}}

	var buf bytes.Buffer
	if err := WriteCourseXLSX(&buf, course); err != nil {
		t.Fatalf("WriteCourseXLSX: %v", err)
	}

	sheet, err := grades.ParseXLSX(&buf, grades.Options{SkipUnnamed: true})
	if err != nil {
		t.Fatalf("ParseXLSX: %v", err)
	}
	if len(sheet.Topics) != 2 || sheet.Topics[0] != "Cinemática" || sheet.Topics[1] != "Dinámica" {
		t.Fatalf("topics = %v", sheet.Topics)
	}
	if len(sheet.Students) != 2 {
		t.Fatalf("got %d students", len(sheet.Students))
	}
	ana := sheet.Students[0]
	if ana.Topics[0].Retry1.String() != "7" || ana.Topics[1].First.Kind != models.GradeJustifiedAbsence {
		t.Errorf("ana = %+v", ana.Topics)
	}
}

func TestGridRows_Header(t *testing.T) {
	rows := GridRows(models.Course{Students: []models.Student{sampleStudent()}})
	want := []string{"Name", "1ra Cinemática", "R1", "R2", "Col", "1ra Dinámica", "R1", "R2", "Col"}
	if len(rows[0]) != len(want) {
		t.Fatalf("header = %v", rows[0])
	}
	for i := range want {
		if rows[0][i] != want[i] {
			t.Errorf("header[%d] = %q, want %q", i, rows[0][i], want[i])
		}
	}
	if len(rows[1]) != 9 || rows[1][2] != "7" {
		t.Errorf("row = %v", rows[1])
	}
}
