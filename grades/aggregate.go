package grades

import (
	"strings"

	"grades-dashboard-go/models"
)

// TopicSummary lists the students failing one topic.
type TopicSummary struct {
	Topic          string
	FailedStudents []models.Student
}

// FailedCount is the number of failing students.
func (s TopicSummary) FailedCount() int { return len(s.FailedStudents) }

// Aggregate classifies every topic of every student and groups the failures
// by topic position. The first student's topic list defines the positions.
// The result is derived from course and is never stored.
func Aggregate(course models.Course) []TopicSummary {
	names := course.TopicNames()
	out := make([]TopicSummary, len(names))
	for i, name := range names {
		out[i].Topic = name
		for _, s := range course.Students {
			if i >= len(s.Topics) {
				continue
			}
			if Classify(s.Topics[i]).IsFailed {
				out[i].FailedStudents = append(out[i].FailedStudents, s)
			}
		}
	}
	return out
}

// FilterStudents keeps the students whose name contains query, ignoring case.
func FilterStudents(students []models.Student, query string) []models.Student {
	q := strings.ToLower(strings.TrimSpace(query))
	out := make([]models.Student, 0, len(students))
	for _, s := range students {
		if q == "" || strings.Contains(strings.ToLower(s.Name), q) {
			out = append(out, s)
		}
	}
	return out
}
