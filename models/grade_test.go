package models

import (
	"encoding/json"
	"testing"
)

func TestParseGrade_Tokens(t *testing.T) {
	cases := []struct {
		in    string
		kind  GradeKind
		score float64
		str   string
	}{
		{"", GradeEmpty, 0, "-"},
		{"  -  ", GradeEmpty, 0, "-"},
		{"AJ", GradeJustifiedAbsence, 0, "AJ"},
		{"aj", GradeJustifiedAbsence, 0, "AJ"},
		{"AI", GradeInsufficient, 0, "AI"},
		{"8", GradeScore, 8, "8"},
		{"6.99", GradeScore, 6.99, "6.99"},
		{"7,5", GradeScore, 7.5, "7,5"},
		{"abs", GradeUnreadable, 0, "abs"},
		{"NaN", GradeUnreadable, 0, "NaN"},
	}
	for _, tc := range cases {
		g := ParseGrade(tc.in)
		if g.Kind != tc.kind {
			t.Errorf("ParseGrade(%q).Kind = %v, want %v", tc.in, g.Kind, tc.kind)
		}
		if g.Score != tc.score {
			t.Errorf("ParseGrade(%q).Score = %v, want %v", tc.in, g.Score, tc.score)
		}
		if g.String() != tc.str {
			t.Errorf("ParseGrade(%q).String() = %q, want %q", tc.in, g.String(), tc.str)
		}
	}
}

func TestGrade_JSONUsesSnapshotShape(t *testing.T) {
	topic := TopicGrade{
		Name:     "Algebra",
		First:    ParseGrade("5"),
		Retry1:   ParseGrade("AJ"),
		Retry2:   EmptyGrade(),
		OralExam: ScoreGrade(8),
	}

	data, err := json.Marshal(topic)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"name":"Algebra","primera":"5","recuperatorio1":"AJ","recuperatorio2":"-","coloquio":"8"}`
	if string(data) != want {
		t.Errorf("marshal = %s, want %s", data, want)
	}

	var back TopicGrade
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back.OralExam.Kind != GradeScore || back.OralExam.Score != 8 {
		t.Errorf("oral exam = %+v, want score 8", back.OralExam)
	}
	if back.Retry1.Kind != GradeJustifiedAbsence {
		t.Errorf("retry1 = %+v, want AJ", back.Retry1)
	}
}

func TestGrade_UnmarshalAcceptsNumber(t *testing.T) {
	var g Grade
	if err := json.Unmarshal([]byte(`9.5`), &g); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if g.Kind != GradeScore || g.Score != 9.5 {
		t.Errorf("got %+v, want score 9.5", g)
	}
}

func TestTopicGrade_SetRejectsUnknownSlot(t *testing.T) {
	topic := NewTopicGrade("Optics")
	if topic.Set(Slot("nota"), ScoreGrade(9)) {
		t.Fatal("Set accepted an unknown slot")
	}
	if !topic.Set(SlotRetry2, ScoreGrade(9)) {
		t.Fatal("Set rejected a known slot")
	}
	if got := topic.Get(SlotRetry2); got.Score != 9 {
		t.Errorf("Get(retry2) = %+v, want 9", got)
	}
}

func TestCourse_CloneDoesNotAlias(t *testing.T) {
	c := Course{Name: "4D", Students: []Student{{ID: "0", Name: "Ana", Topics: []TopicGrade{NewTopicGrade("A")}}}}
	cp := c.Clone()
	cp.Students[0].Topics[0].First = ScoreGrade(3)
	cp.Students[0].Name = "Bea"

	if c.Students[0].Topics[0].First.Kind != GradeEmpty {
		t.Error("clone shares topic slice with original")
	}
	if c.Students[0].Name != "Ana" {
		t.Error("clone shares student slice with original")
	}
}
