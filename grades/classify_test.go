package grades

import (
	"testing"

	"grades-dashboard-go/models"
)

func topic(first, r1, r2, oral string) models.TopicGrade {
	return models.TopicGrade{
		Name:     "T",
		First:    models.ParseGrade(first),
		Retry1:   models.ParseGrade(r1),
		Retry2:   models.ParseGrade(r2),
		OralExam: models.ParseGrade(oral),
	}
}

func TestClassify(t *testing.T) {
	cases := []struct {
		name     string
		topic    models.TopicGrade
		label    string
		long     string
		failed   bool
		category models.Category
	}{
		{"oral exam decides", topic("5", "6", "-", "8"), "8", "Passed", false, models.CategoryPassed},
		{"retry2 over retry1", topic("9", "8", "4", "-"), "4", "Failed", true, models.CategoryFailed},
		{"first attempt only", topic("7", "-", "-", "-"), "7", "Passed", false, models.CategoryPassed},
		{"just below pass mark", topic("6.99", "-", "-", "-"), "6.99", "Failed", true, models.CategoryFailed},
		{"no data", topic("-", "-", "-", "-"), "N/D", "No data", false, models.CategoryNoData},
		{"justified absence", topic("AJ", "-", "-", "-"), "AJ", "Justified absence", false, models.CategoryJustifiedAbsence},
		{"insufficient", topic("AI", "-", "-", "-"), "AI", "Insufficient", true, models.CategoryFailed},
		{"one is an AI alias", topic("1", "-", "-", "-"), "AI", "Insufficient", true, models.CategoryFailed},
		{"retry overrides absence", topic("AJ", "8", "-", "-"), "8", "Passed", false, models.CategoryPassed},
		{"unreadable token fails", topic("ausente", "-", "-", "-"), "ausente", "Failed", true, models.CategoryFailed},
		{"decimal comma", topic("7,5", "-", "-", "-"), "7.5", "Passed", false, models.CategoryPassed},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Classify(tc.topic)
			if got.Label != tc.label || got.LongLabel != tc.long || got.IsFailed != tc.failed || got.Category != tc.category {
				t.Errorf("Classify = %+v, want {%s %s %v %s}", got, tc.label, tc.long, tc.failed, tc.category)
			}
		})
	}
}

func TestClassify_IsDeterministic(t *testing.T) {
	tp := topic("5", "AI", "6", "-")
	first := Classify(tp)
	for i := 0; i < 10; i++ {
		if got := Classify(tp); got != first {
			t.Fatalf("Classify changed between calls: %+v vs %+v", got, first)
		}
	}
}

func TestClassify_ZeroValueTopic(t *testing.T) {
	got := Classify(models.TopicGrade{})
	if got.Category != models.CategoryNoData || got.IsFailed {
		t.Errorf("zero topic = %+v, want NoData", got)
	}
}

func TestEffectiveGrade_PicksOralExam(t *testing.T) {
	g := EffectiveGrade(topic("2", "3", "4", "AJ"))
	if g.Kind != models.GradeJustifiedAbsence {
		t.Errorf("EffectiveGrade = %+v, want AJ from oral exam", g)
	}
}
