package db

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"grades-dashboard-go/models"
)

func openBolt(t *testing.T, path string) *BoltService {
	t.Helper()
	b, err := OpenBoltService(path, "")
	if err != nil {
		t.Fatalf("OpenBoltService: %v", err)
	}
	t.Cleanup(func() { b.Close() })
	return b
}

func sampleCourse() models.Course {
	return models.Course{
		Name: "4to Año D Física",
		Students: []models.Student{
			{ID: "0", Name: "Ana", Topics: []models.TopicGrade{
				{Name: "Cinemática", First: models.ParseGrade("8"), Retry1: models.ParseGrade("-"), Retry2: models.ParseGrade("-"), OralExam: models.ParseGrade("-")},
			}},
			{ID: "1", Name: "Beto", Topics: []models.TopicGrade{
				{Name: "Cinemática", First: models.ParseGrade("AI"), Retry1: models.ParseGrade("6"), Retry2: models.ParseGrade("-"), OralExam: models.ParseGrade("-")},
			}},
		},
	}
}

// failingBackend loads fine but refuses every write.
type failingBackend struct{}

func (failingBackend) Load(context.Context) ([]byte, error) { return nil, ErrNoSnapshot }
func (failingBackend) Save(context.Context, []byte) error   { return errors.New("disk full") }
func (failingBackend) Close() error                         { return nil }

func TestCourseStore_PutThenGet(t *testing.T) {
	ctx := context.Background()
	store, err := NewCourseStore(ctx, openBolt(t, filepath.Join(t.TempDir(), "grades.db")), zap.NewNop())
	if err != nil {
		t.Fatalf("NewCourseStore: %v", err)
	}

	want := sampleCourse()
	if err := store.Put(ctx, "4d-fisica", want); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, ok := store.Get("4d-fisica")
	if !ok {
		t.Fatal("course not found after Put")
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Get = %+v, want %+v", got, want)
	}
}

func TestCourseStore_ReloadSeesPersistedState(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "grades.db")
	backend := openBolt(t, path)

	store, err := NewCourseStore(ctx, backend, zap.NewNop())
	if err != nil {
		t.Fatalf("NewCourseStore: %v", err)
	}
	if err := store.Put(ctx, "a", sampleCourse()); err != nil {
		t.Fatalf("Put a: %v", err)
	}
	if err := store.Put(ctx, "b", models.Course{Name: "Electrotecnia"}); err != nil {
		t.Fatalf("Put b: %v", err)
	}
	if err := store.Remove(ctx, "a"); err != nil {
		t.Fatalf("Remove: %v", err)
	}

	reloaded, err := NewCourseStore(ctx, backend, zap.NewNop())
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if _, ok := reloaded.Get("a"); ok {
		t.Error("deleted course came back after reload")
	}
	b, ok := reloaded.Get("b")
	if !ok || b.Name != "Electrotecnia" {
		t.Errorf("course b = %+v, %v", b, ok)
	}
	if b.Students == nil {
		t.Error("students should decode as an empty list")
	}
}

func TestCourseStore_RemoveMissing(t *testing.T) {
	ctx := context.Background()
	store, _ := NewCourseStore(ctx, openBolt(t, filepath.Join(t.TempDir(), "g.db")), zap.NewNop())

	if err := store.Remove(ctx, "nope"); !errors.Is(err, ErrCourseNotFound) {
		t.Errorf("err = %v, want ErrCourseNotFound", err)
	}
}

func TestCourseStore_FailedWriteLeavesMemoryUntouched(t *testing.T) {
	ctx := context.Background()
	store, err := NewCourseStore(ctx, failingBackend{}, zap.NewNop())
	if err != nil {
		t.Fatalf("NewCourseStore: %v", err)
	}

	if err := store.Put(ctx, "a", sampleCourse()); err == nil {
		t.Fatal("Put succeeded on a failing backend")
	}
	if _, ok := store.Get("a"); ok {
		t.Error("course visible although the write failed")
	}
}

func TestCourseStore_CorruptSnapshot(t *testing.T) {
	ctx := context.Background()
	backend := openBolt(t, filepath.Join(t.TempDir(), "g.db"))
	if err := backend.Save(ctx, []byte("{not json")); err != nil {
		t.Fatalf("Save: %v", err)
	}

	_, err := NewCourseStore(ctx, backend, zap.NewNop())
	if !errors.Is(err, ErrCorruptSnapshot) {
		t.Fatalf("err = %v, want ErrCorruptSnapshot", err)
	}
}

func TestCourseStore_GetReturnsCopy(t *testing.T) {
	ctx := context.Background()
	store, _ := NewCourseStore(ctx, openBolt(t, filepath.Join(t.TempDir(), "g.db")), zap.NewNop())
	if err := store.Put(ctx, "a", sampleCourse()); err != nil {
		t.Fatalf("Put: %v", err)
	}

	c, _ := store.Get("a")
	c.Students[0].Topics[0].First = models.ScoreGrade(2)

	again, _ := store.Get("a")
	if again.Students[0].Topics[0].First.String() != "8" {
		t.Error("mutating a Get result changed the store")
	}
}

func TestCourseStore_SetGrade(t *testing.T) {
	ctx := context.Background()
	store, _ := NewCourseStore(ctx, openBolt(t, filepath.Join(t.TempDir(), "g.db")), zap.NewNop())
	if err := store.Put(ctx, "a", sampleCourse()); err != nil {
		t.Fatalf("Put: %v", err)
	}

	st, err := store.SetGrade(ctx, "a", "1", 0, models.SlotOral, models.ParseGrade("AJ"))
	if err != nil {
		t.Fatalf("SetGrade: %v", err)
	}
	if st.Topics[0].OralExam.Kind != models.GradeJustifiedAbsence {
		t.Errorf("returned student = %+v", st)
	}

	if _, err := store.SetGrade(ctx, "a", "1", 3, models.SlotOral, models.EmptyGrade()); !errors.Is(err, ErrTopicOutOfRange) {
		t.Errorf("out of range err = %v", err)
	}
	if _, err := store.SetGrade(ctx, "a", "9", 0, models.SlotOral, models.EmptyGrade()); !errors.Is(err, ErrStudentNotFound) {
		t.Errorf("missing student err = %v", err)
	}
	if _, err := store.SetGrade(ctx, "a", "1", 0, models.Slot("nota"), models.EmptyGrade()); !errors.Is(err, ErrInvalidSlot) {
		t.Errorf("bad slot err = %v", err)
	}
}

func TestCourseStore_AddAndAppendFollowLayout(t *testing.T) {
	ctx := context.Background()
	store, _ := NewCourseStore(ctx, openBolt(t, filepath.Join(t.TempDir(), "g.db")), zap.NewNop())
	if err := store.Put(ctx, "a", sampleCourse()); err != nil {
		t.Fatalf("Put: %v", err)
	}

	added, err := store.AddStudent(ctx, "a", "  Caro ")
	if err != nil {
		t.Fatalf("AddStudent: %v", err)
	}
	if added.Name != "Caro" || len(added.Topics) != 1 || added.Topics[0].Name != "Cinemática" {
		t.Errorf("added = %+v", added)
	}

	extra := []models.Student{{ID: "x", Name: "Dani", Topics: []models.TopicGrade{
		models.NewTopicGrade("Otro"), models.NewTopicGrade("Sobra"),
	}}}
	course, refitted, err := store.AppendStudents(ctx, "a", extra)
	if err != nil {
		t.Fatalf("AppendStudents: %v", err)
	}
	if refitted != 1 {
		t.Errorf("refitted = %d, want 1", refitted)
	}
	dani := course.Students[len(course.Students)-1]
	if len(dani.Topics) != 1 || dani.Topics[0].Name != "Cinemática" {
		t.Errorf("appended student topics = %+v", dani.Topics)
	}

	if _, _, err := store.AppendStudents(ctx, "a", []models.Student{{ID: "0", Name: "Dup"}}); err == nil {
		t.Error("AppendStudents accepted a duplicate id")
	}
	if err := store.RemoveStudent(ctx, "a", "x"); err != nil {
		t.Fatalf("RemoveStudent: %v", err)
	}
	if c, _ := store.Get("a"); len(c.Students) != 3 {
		t.Errorf("got %d students after removal, want 3", len(c.Students))
	}
}

func TestCourseStore_AppendToEmptyCourseKeepsGrades(t *testing.T) {
	ctx := context.Background()
	store, _ := NewCourseStore(ctx, openBolt(t, filepath.Join(t.TempDir(), "g.db")), zap.NewNop())
	if err := store.Create(ctx, "c", models.Course{Name: "C"}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	topic := func(first string) []models.TopicGrade {
		tg := models.NewTopicGrade("Cinemática")
		tg.First = models.ParseGrade(first)
		return []models.TopicGrade{tg}
	}
	course, refitted, err := store.AppendStudents(ctx, "c", []models.Student{
		{ID: "a", Name: "Ana", Topics: topic("8")},
		{ID: "b", Name: "Beto", Topics: topic("5")},
		{ID: "d", Name: "Dani", Topics: topic("9")},
	})
	if err != nil {
		t.Fatalf("AppendStudents: %v", err)
	}
	if refitted != 0 {
		t.Errorf("refitted = %d, want 0", refitted)
	}
	for _, st := range course.Students {
		if len(st.Topics) != 1 || st.Topics[0].Name != "Cinemática" || st.Topics[0].First.IsEmpty() {
			t.Errorf("%s topics = %+v", st.Name, st.Topics)
		}
	}
	if got := course.Students[1].Topics[0].First.String(); got != "5" {
		t.Errorf("Beto first attempt = %q, want 5", got)
	}
}

func TestCourseStore_CreateRejectsDuplicate(t *testing.T) {
	ctx := context.Background()
	store, _ := NewCourseStore(ctx, openBolt(t, filepath.Join(t.TempDir(), "g.db")), zap.NewNop())

	if err := store.Create(ctx, "a", models.Course{Name: "A"}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := store.Create(ctx, "a", models.Course{Name: "B"}); !errors.Is(err, ErrCourseExists) {
		t.Errorf("err = %v, want ErrCourseExists", err)
	}
	if err := store.Create(ctx, "b", models.Course{}); !errors.Is(err, ErrInvalidCourse) {
		t.Errorf("err = %v, want ErrInvalidCourse", err)
	}
	if got := store.Summaries(); len(got) != 1 || got[0].Name != "A" {
		t.Errorf("Summaries = %+v", got)
	}
}

func TestRedisService_RoundTrip(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	backend := NewRedisService(client, "test:courses")
	defer backend.Close()

	if _, err := backend.Load(ctx); !errors.Is(err, ErrNoSnapshot) {
		t.Fatalf("Load on empty redis = %v, want ErrNoSnapshot", err)
	}

	store, err := NewCourseStore(ctx, backend, zap.NewNop())
	if err != nil {
		t.Fatalf("NewCourseStore: %v", err)
	}
	if err := store.Put(ctx, "a", sampleCourse()); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if !mr.Exists("test:courses") {
		t.Fatal("snapshot key not written")
	}

	reloaded, err := NewCourseStore(ctx, backend, zap.NewNop())
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	got, ok := reloaded.Get("a")
	if !ok || !reflect.DeepEqual(got, sampleCourse()) {
		t.Errorf("reloaded course = %+v", got)
	}
}
