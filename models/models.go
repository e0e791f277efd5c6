package models

// Slot names one of the four grade cells of a topic. The value is the JSON key
// used in the persisted snapshot.
type Slot string

const (
	SlotFirst  Slot = "primera"
	SlotRetry1 Slot = "recuperatorio1"
	SlotRetry2 Slot = "recuperatorio2"
	SlotOral   Slot = "coloquio"
)

// Slots lists the grade slots in sheet column order.
var Slots = []Slot{SlotFirst, SlotRetry1, SlotRetry2, SlotOral}

// Valid reports whether s is one of the four known slots.
func (s Slot) Valid() bool {
	switch s {
	case SlotFirst, SlotRetry1, SlotRetry2, SlotOral:
		return true
	}
	return false
}

// TopicGrade holds one topic's grades for one student
type TopicGrade struct {
	Name     string `json:"name"`           // Topic label from the sheet header
	First    Grade  `json:"primera"`        // First attempt
	Retry1   Grade  `json:"recuperatorio1"` // First retake
	Retry2   Grade  `json:"recuperatorio2"` // Second retake
	OralExam Grade  `json:"coloquio"`       // Final oral exam
}

// NewTopicGrade returns a topic with every slot empty.
func NewTopicGrade(name string) TopicGrade {
	return TopicGrade{Name: name, First: EmptyGrade(), Retry1: EmptyGrade(), Retry2: EmptyGrade(), OralExam: EmptyGrade()}
}

// Get returns the grade stored in slot s.
func (t TopicGrade) Get(s Slot) Grade {
	switch s {
	case SlotRetry1:
		return t.Retry1
	case SlotRetry2:
		return t.Retry2
	case SlotOral:
		return t.OralExam
	default:
		return t.First
	}
}

// Set stores g in slot s. Unknown slots are ignored and reported as false.
func (t *TopicGrade) Set(s Slot, g Grade) bool {
	switch s {
	case SlotFirst:
		t.First = g
	case SlotRetry1:
		t.Retry1 = g
	case SlotRetry2:
		t.Retry2 = g
	case SlotOral:
		t.OralExam = g
	default:
		return false
	}
	return true
}

// Student represents one row of a course sheet
type Student struct {
	ID     string       `json:"id"`     // Unique within the course
	Name   string       `json:"name"`   // Display name, never empty
	Topics []TopicGrade `json:"topics"` // Same length and order for every student of a course
}

// Clone returns a copy that shares no slices with s.
func (s Student) Clone() Student {
	out := s
	out.Topics = append([]TopicGrade(nil), s.Topics...)
	return out
}

// Course represents a course and its students
type Course struct {
	Name     string    `json:"name"`
	Students []Student `json:"students"`
}

// Clone returns a deep copy of c.
func (c Course) Clone() Course {
	out := Course{Name: c.Name, Students: make([]Student, len(c.Students))}
	for i, s := range c.Students {
		out.Students[i] = s.Clone()
	}
	return out
}

// TopicNames returns the topic layout of the course, taken from its first student.
func (c Course) TopicNames() []string {
	if len(c.Students) == 0 {
		return nil
	}
	names := make([]string, len(c.Students[0].Topics))
	for i, t := range c.Students[0].Topics {
		names[i] = t.Name
	}
	return names
}

// FindStudent returns the index of the student with the given id, or -1.
func (c Course) FindStudent(id string) int {
	for i, s := range c.Students {
		if s.ID == id {
			return i
		}
	}
	return -1
}

// CourseSummary is the list view of a course
type CourseSummary struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	StudentCount int    `json:"studentCount"`
}

// Category is the outcome bucket of a topic
type Category string

const (
	CategoryNoData           Category = "NoData"
	CategoryJustifiedAbsence Category = "JustifiedAbsence"
	CategoryPassed           Category = "Passed"
	CategoryFailed           Category = "Failed"
)

// Status is the effective result of a topic
type Status struct {
	Label     string   `json:"label"`     // Short badge text, e.g. "8" or "AJ"
	LongLabel string   `json:"longLabel"` // Text used in reports
	IsFailed  bool     `json:"isFailed"`
	Category  Category `json:"category"`
}
