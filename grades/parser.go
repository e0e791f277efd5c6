package grades

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"grades-dashboard-go/models"
)

// Each topic occupies four columns: first attempt, retry 1, retry 2, oral exam.
const cellsPerTopic = 4

var topicPrefix = regexp.MustCompile(`(?i)^(1ra|p)\b`)

// Options controls how rows become students.
type Options struct {
	// Delimiter separates cells. Zero means detect ';', then tab, then ','
	// from the header line.
	Delimiter rune
	// SkipUnnamed drops rows whose first cell is blank.
	SkipUnnamed bool
}

// Sheet is the result of parsing one grade sheet.
type Sheet struct {
	Headers  []string
	Topics   []string
	Students []models.Student
	Repaired int // rows padded or truncated to the topic layout
	Skipped  int // rows dropped for a missing name
}

// Parse reads delimited text where row 0 holds headers, column 0 the student
// name and every following group of four columns one topic. Malformed rows
// are repaired, never rejected.
func Parse(r io.Reader, opts Options) (*Sheet, error) {
	var lines []string
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read sheet: %w", err)
	}
	if len(lines) == 0 {
		return nil, ErrEmptySheet
	}

	delim := opts.Delimiter
	if delim == 0 {
		delim = DetectDelimiter(lines[0])
	}

	rows := make([][]string, 0, len(lines))
	for _, line := range lines {
		rows = append(rows, splitLine(line, delim))
	}
	return ParseRows(rows, opts)
}

// DetectDelimiter picks the cell separator used by a header line.
func DetectDelimiter(header string) rune {
	switch {
	case strings.ContainsRune(header, ';'):
		return ';'
	case strings.ContainsRune(header, '\t'):
		return '\t'
	default:
		return ','
	}
}

// splitLine honors quoted cells and falls back to a plain split when the
// line is not valid CSV.
func splitLine(line string, delim rune) []string {
	cr := csv.NewReader(strings.NewReader(line))
	cr.Comma = delim
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	record, err := cr.Read()
	if err != nil {
		return strings.Split(line, string(delim))
	}
	return record
}

// ParseRows applies the sheet layout to rows that are already split into
// cells, as read from a spreadsheet.
func ParseRows(rows [][]string, opts Options) (*Sheet, error) {
	var kept [][]string
	for _, row := range rows {
		trimmed := make([]string, len(row))
		blank := true
		for i, cell := range row {
			trimmed[i] = strings.TrimSpace(cell)
			if trimmed[i] != "" {
				blank = false
			}
		}
		if !blank {
			kept = append(kept, trimmed)
		}
	}
	if len(kept) == 0 {
		return nil, ErrEmptySheet
	}

	headers, data := kept[0], kept[1:]
	width := topicCount(len(headers))
	if len(headers) <= 1 && len(data) > 0 {
		width = topicCount(len(data[0]))
	}

	sheet := &Sheet{Headers: headers, Topics: make([]string, width)}
	for k := range sheet.Topics {
		sheet.Topics[k] = TopicName(cellAt(headers, 1+k*cellsPerTopic), k)
	}

	for _, row := range data {
		name := cellAt(row, 0)
		if name == "" && opts.SkipUnnamed {
			sheet.Skipped++
			continue
		}
		if !fitsLayout(row, width) {
			sheet.Repaired++
		}

		student := models.Student{
			ID:     strconv.Itoa(len(sheet.Students)),
			Name:   name,
			Topics: make([]models.TopicGrade, width),
		}
		for k := 0; k < width; k++ {
			i := 1 + k*cellsPerTopic
			student.Topics[k] = models.TopicGrade{
				Name:     sheet.Topics[k],
				First:    models.ParseGrade(cellAt(row, i)),
				Retry1:   models.ParseGrade(cellAt(row, i+1)),
				Retry2:   models.ParseGrade(cellAt(row, i+2)),
				OralExam: models.ParseGrade(cellAt(row, i+3)),
			}
		}
		sheet.Students = append(sheet.Students, student)
	}
	return sheet, nil
}

// TopicName derives a display label from a header cell, stripping a leading
// "1ra" or "P" marker. k is the zero-based topic position.
func TopicName(header string, k int) string {
	name := strings.TrimSpace(topicPrefix.ReplaceAllString(strings.TrimSpace(header), ""))
	if name == "" {
		return fmt.Sprintf("Topic %d", k+1)
	}
	return name
}

func topicCount(columns int) int {
	if columns <= 1 {
		return 0
	}
	return (columns - 1 + cellsPerTopic - 1) / cellsPerTopic
}

// fitsLayout reports whether a row carries exactly width topics. Trailing
// blank cells past the layout do not count as a mismatch.
func fitsLayout(row []string, width int) bool {
	if topicCount(len(row)) < width {
		return false
	}
	for _, cell := range row[min(len(row), 1+width*cellsPerTopic):] {
		if cell != "" {
			return false
		}
	}
	return true
}

func cellAt(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}
