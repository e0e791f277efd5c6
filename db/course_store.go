package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"grades-dashboard-go/metrics"
	"grades-dashboard-go/models"
)

// CourseStore keeps every course in memory and rewrites the whole snapshot
// through its Backend on each mutation. The in-memory map only changes after
// the write succeeded.
type CourseStore struct {
	backend Backend
	logger  *zap.Logger

	mu      sync.RWMutex
	courses map[string]models.Course
}

// NewCourseStore loads the stored snapshot. A missing snapshot yields an
// empty store; an undecodable one returns ErrCorruptSnapshot.
func NewCourseStore(ctx context.Context, backend Backend, logger *zap.Logger) (*CourseStore, error) {
	s := &CourseStore{backend: backend, logger: logger, courses: map[string]models.Course{}}
	if err := s.Reload(ctx); err != nil {
		return s, err
	}
	return s, nil
}

// Reload replaces the in-memory map with the stored snapshot.
func (s *CourseStore) Reload(ctx context.Context) error {
	data, err := s.backend.Load(ctx)
	if errors.Is(err, ErrNoSnapshot) {
		s.logger.Info("no stored snapshot, starting with an empty course store")
		s.mu.Lock()
		s.courses = map[string]models.Course{}
		s.mu.Unlock()
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load snapshot: %w", err)
	}

	var courses map[string]models.Course
	if err := json.Unmarshal(data, &courses); err != nil {
		return fmt.Errorf("%w: %v", ErrCorruptSnapshot, err)
	}
	if courses == nil {
		courses = map[string]models.Course{}
	}
	for id, c := range courses {
		courses[id] = normalize(c)
	}

	s.mu.Lock()
	s.courses = courses
	s.mu.Unlock()
	s.logger.Info("loaded course snapshot", zap.Int("courses", len(courses)))
	return nil
}

// Get returns a copy of the course.
func (s *CourseStore) Get(id string) (models.Course, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.courses[id]
	if !ok {
		return models.Course{}, false
	}
	return c.Clone(), true
}

// List returns a copy of the whole mapping.
func (s *CourseStore) List() map[string]models.Course {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]models.Course, len(s.courses))
	for id, c := range s.courses {
		out[id] = c.Clone()
	}
	return out
}

// Summaries lists the courses ordered by name.
func (s *CourseStore) Summaries() []models.CourseSummary {
	s.mu.RLock()
	out := make([]models.CourseSummary, 0, len(s.courses))
	for id, c := range s.courses {
		out = append(out, models.CourseSummary{ID: id, Name: c.Name, StudentCount: len(c.Students)})
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Put stores the course under id, replacing any previous record.
func (s *CourseStore) Put(ctx context.Context, id string, course models.Course) error {
	if strings.TrimSpace(id) == "" || strings.TrimSpace(course.Name) == "" {
		return ErrInvalidCourse
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.snapshot()
	next[id] = normalize(course.Clone())
	return s.commit(ctx, next)
}

// Create stores a new course and fails with ErrCourseExists if id is taken.
func (s *CourseStore) Create(ctx context.Context, id string, course models.Course) error {
	if strings.TrimSpace(id) == "" || strings.TrimSpace(course.Name) == "" {
		return ErrInvalidCourse
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.courses[id]; ok {
		return fmt.Errorf("%w: %s", ErrCourseExists, id)
	}
	next := s.snapshot()
	next[id] = normalize(course.Clone())
	return s.commit(ctx, next)
}

// Remove deletes the course.
func (s *CourseStore) Remove(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.courses[id]; !ok {
		return fmt.Errorf("%w: %s", ErrCourseNotFound, id)
	}
	next := s.snapshot()
	delete(next, id)
	return s.commit(ctx, next)
}

// Update applies fn to a copy of the course and persists the result. If fn
// returns an error nothing is written.
func (s *CourseStore) Update(ctx context.Context, id string, fn func(*models.Course) error) (models.Course, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.courses[id]
	if !ok {
		return models.Course{}, fmt.Errorf("%w: %s", ErrCourseNotFound, id)
	}
	updated := cur.Clone()
	if err := fn(&updated); err != nil {
		return models.Course{}, err
	}
	// fn may have spliced in caller-owned slices
	updated = normalize(updated.Clone())

	next := s.snapshot()
	next[id] = updated
	if err := s.commit(ctx, next); err != nil {
		return models.Course{}, err
	}
	return updated.Clone(), nil
}

// ReplaceStudents swaps the whole student list of a course.
func (s *CourseStore) ReplaceStudents(ctx context.Context, id string, students []models.Student) (models.Course, error) {
	return s.Update(ctx, id, func(c *models.Course) error {
		c.Students = students
		return nil
	})
}

// AppendStudents adds students to a course. Their topics are fitted to the
// course's layout, which the first appended student sets when the course is
// empty. Ids must already be unique. The returned count is the number of
// students whose topics had to be remapped.
func (s *CourseStore) AppendStudents(ctx context.Context, id string, students []models.Student) (models.Course, int, error) {
	var refitted int
	course, err := s.Update(ctx, id, func(c *models.Course) error {
		refitted = 0
		layout, fixed := c.TopicNames(), len(c.Students) > 0
		for _, st := range students {
			if c.FindStudent(st.ID) >= 0 {
				return fmt.Errorf("duplicate student id %q", st.ID)
			}
			switch {
			case !fixed:
				layout, fixed = topicNames(st.Topics), true
			case !sameLayout(st.Topics, layout):
				st.Topics = fitLayout(st.Topics, layout)
				refitted++
			}
			c.Students = append(c.Students, st)
		}
		return nil
	})
	if err != nil {
		return models.Course{}, 0, err
	}
	if refitted > 0 {
		s.logger.Info("appended students remapped to the course topics",
			zap.String("course", id), zap.Int("students", refitted))
	}
	return course, refitted, nil
}

// AddStudent appends a student with every grade empty.
func (s *CourseStore) AddStudent(ctx context.Context, id, name string) (models.Student, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.Student{}, ErrInvalidStudent
	}
	var added models.Student
	_, err := s.Update(ctx, id, func(c *models.Course) error {
		added = models.Student{ID: uuid.NewString(), Name: name, Topics: fitLayout(nil, c.TopicNames())}
		c.Students = append(c.Students, added)
		return nil
	})
	return added, err
}

// RemoveStudent deletes one student from a course.
func (s *CourseStore) RemoveStudent(ctx context.Context, id, studentID string) error {
	_, err := s.Update(ctx, id, func(c *models.Course) error {
		i := c.FindStudent(studentID)
		if i < 0 {
			return fmt.Errorf("%w: %s", ErrStudentNotFound, studentID)
		}
		c.Students = append(c.Students[:i], c.Students[i+1:]...)
		return nil
	})
	return err
}

// SetGrade edits one cell of the grade grid.
func (s *CourseStore) SetGrade(ctx context.Context, id, studentID string, topic int, slot models.Slot, g models.Grade) (models.Student, error) {
	if !slot.Valid() {
		return models.Student{}, fmt.Errorf("%w: %q", ErrInvalidSlot, slot)
	}
	var edited models.Student
	_, err := s.Update(ctx, id, func(c *models.Course) error {
		i := c.FindStudent(studentID)
		if i < 0 {
			return fmt.Errorf("%w: %s", ErrStudentNotFound, studentID)
		}
		st := &c.Students[i]
		if topic < 0 || topic >= len(st.Topics) {
			return fmt.Errorf("%w: %d", ErrTopicOutOfRange, topic)
		}
		st.Topics[topic].Set(slot, g)
		edited = st.Clone()
		return nil
	})
	return edited, err
}

// snapshot copies the top-level map. Entries are never mutated in place, so
// sharing them is safe. Callers hold s.mu.
func (s *CourseStore) snapshot() map[string]models.Course {
	next := make(map[string]models.Course, len(s.courses)+1)
	for id, c := range s.courses {
		next[id] = c
	}
	return next
}

// commit persists next and then makes it current. Callers hold s.mu.
func (s *CourseStore) commit(ctx context.Context, next map[string]models.Course) error {
	data, err := json.Marshal(next)
	if err == nil {
		err = s.backend.Save(ctx, data)
	}
	metrics.StoreWrites.WithLabelValues(metrics.Result(err)).Inc()
	if err != nil {
		s.logger.Error("failed to persist course snapshot", zap.Error(err))
		return fmt.Errorf("failed to persist courses: %w", err)
	}
	s.courses = next
	return nil
}

func normalize(c models.Course) models.Course {
	if c.Students == nil {
		c.Students = []models.Student{}
	}
	for i := range c.Students {
		if c.Students[i].Topics == nil {
			c.Students[i].Topics = []models.TopicGrade{}
		}
	}
	return c
}

func topicNames(topics []models.TopicGrade) []string {
	names := make([]string, len(topics))
	for i, t := range topics {
		names[i] = t.Name
	}
	return names
}

func sameLayout(topics []models.TopicGrade, layout []string) bool {
	if len(topics) != len(layout) {
		return false
	}
	for i, t := range topics {
		if t.Name != layout[i] {
			return false
		}
	}
	return true
}

// fitLayout pads or truncates topics to match the course layout.
func fitLayout(topics []models.TopicGrade, layout []string) []models.TopicGrade {
	out := make([]models.TopicGrade, len(layout))
	for i, name := range layout {
		if i < len(topics) {
			out[i] = topics[i]
			out[i].Name = name
			continue
		}
		out[i] = models.NewTopicGrade(name)
	}
	return out
}
