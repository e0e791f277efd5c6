package handlers

import (
	"bytes"
	"errors"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"grades-dashboard-go/db"
	"grades-dashboard-go/grades"
	"grades-dashboard-go/metrics"
	"grades-dashboard-go/models"
	"grades-dashboard-go/report"
	"grades-dashboard-go/sheets"
)

// APIHandler holds the dependencies for API handlers
type APIHandler struct {
	Store          *db.CourseStore
	Syncer         *sheets.Syncer
	Logger         *zap.Logger
	PasswordHash   []byte
	MaxUploadBytes int64
	Now            func() time.Time
}

// NewAPIHandler creates a new APIHandler
func NewAPIHandler(store *db.CourseStore, syncer *sheets.Syncer, passwordHash []byte, logger *zap.Logger) *APIHandler {
	return &APIHandler{
		Store:          store,
		Syncer:         syncer,
		Logger:         logger,
		PasswordHash:   passwordHash,
		MaxUploadBytes: 5 << 20,
		Now:            time.Now,
	}
}

type topicView struct {
	models.TopicGrade
	Status models.Status `json:"status"`
}

type studentView struct {
	ID         string      `json:"id"`
	Name       string      `json:"name"`
	CourseID   string      `json:"courseId"`
	CourseName string      `json:"courseName"`
	Topics     []topicView `json:"topics"`
}

type studentRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type topicSummaryView struct {
	Topic          string       `json:"topic"`
	FailedCount    int          `json:"failedCount"`
	FailedStudents []studentRef `json:"failedStudents"`
}

// --- Course Handlers ---

// GetAllCourses handles GET /api/courses
func (h *APIHandler) GetAllCourses(c *gin.Context) {
	c.JSON(http.StatusOK, h.Store.Summaries())
}

// GetCourseByID handles GET /api/courses/:courseId
func (h *APIHandler) GetCourseByID(c *gin.Context) {
	course, ok := h.course(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": c.Param("courseId"), "name": course.Name, "topics": course.TopicNames(), "students": course.Students})
}

type createCourseRequest struct {
	ID   string `json:"id"`
	Name string `json:"name" binding:"required"`
}

// AddCourse handles POST /api/courses
func (h *APIHandler) AddCourse(c *gin.Context) {
	var req createCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}
	id := strings.TrimSpace(req.ID)
	if id == "" {
		id = uuid.NewString()
	}

	course := models.Course{Name: strings.TrimSpace(req.Name)}
	if err := h.Store.Create(c.Request.Context(), id, course); err != nil {
		h.fail(c, "create course", err)
		return
	}
	h.Logger.Info("course created", zap.String("course", id), zap.String("name", course.Name))
	c.JSON(http.StatusCreated, models.CourseSummary{ID: id, Name: course.Name})
}

// DeleteCourse handles DELETE /api/courses/:courseId
func (h *APIHandler) DeleteCourse(c *gin.Context) {
	id := c.Param("courseId")
	if err := h.Store.Remove(c.Request.Context(), id); err != nil {
		h.fail(c, "delete course", err)
		return
	}
	h.Logger.Info("course deleted", zap.String("course", id))
	c.Status(http.StatusNoContent)
}

// --- Remote Sheet Handlers ---

// GetSources handles GET /api/sources
func (h *APIHandler) GetSources(c *gin.Context) {
	c.JSON(http.StatusOK, h.Syncer.Catalog().All())
}

// SyncCourse handles POST /api/courses/:courseId/sync
func (h *APIHandler) SyncCourse(c *gin.Context) {
	id := c.Param("courseId")
	course, err := h.Syncer.Sync(c.Request.Context(), id)
	if err != nil {
		h.fail(c, "sync course", err)
		return
	}
	c.JSON(http.StatusOK, models.CourseSummary{ID: id, Name: course.Name, StudentCount: len(course.Students)})
}

// --- Student Handlers ---

// GetStudentsByCourse handles GET /api/courses/:courseId/students
func (h *APIHandler) GetStudentsByCourse(c *gin.Context) {
	course, ok := h.course(c)
	if !ok {
		return
	}
	matches := grades.FilterStudents(course.Students, c.Query("search"))
	out := make([]studentRef, len(matches))
	for i, s := range matches {
		out[i] = studentRef{ID: s.ID, Name: s.Name}
	}
	c.JSON(http.StatusOK, out)
}

// GetStudent handles GET /api/courses/:courseId/students/:studentId
func (h *APIHandler) GetStudent(c *gin.Context) {
	course, student, ok := h.student(c)
	if !ok {
		return
	}
	view := studentView{
		ID:         student.ID,
		Name:       student.Name,
		CourseID:   c.Param("courseId"),
		CourseName: course.Name,
		Topics:     make([]topicView, len(student.Topics)),
	}
	for i, t := range student.Topics {
		view.Topics[i] = topicView{TopicGrade: t, Status: grades.Classify(t)}
	}
	c.JSON(http.StatusOK, view)
}

type addStudentRequest struct {
	Name string `json:"name" binding:"required"`
}

// AddStudent handles POST /api/courses/:courseId/students
func (h *APIHandler) AddStudent(c *gin.Context) {
	var req addStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}
	student, err := h.Store.AddStudent(c.Request.Context(), c.Param("courseId"), req.Name)
	if err != nil {
		h.fail(c, "add student", err)
		return
	}
	c.JSON(http.StatusCreated, student)
}

// DeleteStudent handles DELETE /api/courses/:courseId/students/:studentId
func (h *APIHandler) DeleteStudent(c *gin.Context) {
	if err := h.Store.RemoveStudent(c.Request.Context(), c.Param("courseId"), c.Param("studentId")); err != nil {
		h.fail(c, "delete student", err)
		return
	}
	c.Status(http.StatusNoContent)
}

type setGradeRequest struct {
	Slot  models.Slot `json:"slot" binding:"required"`
	Value string      `json:"value"`
}

// SetGrade handles PUT /api/courses/:courseId/students/:studentId/topics/:topicIndex
func (h *APIHandler) SetGrade(c *gin.Context) {
	topic, err := strconv.Atoi(c.Param("topicIndex"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Topic index must be a number"})
		return
	}
	var req setGradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	student, err := h.Store.SetGrade(c.Request.Context(), c.Param("courseId"), c.Param("studentId"), topic, req.Slot, models.ParseGrade(req.Value))
	if err != nil {
		h.fail(c, "set grade", err)
		return
	}
	t := student.Topics[topic]
	c.JSON(http.StatusOK, topicView{TopicGrade: t, Status: grades.Classify(t)})
}

// --- Summary Handler ---

// GetSummary handles GET /api/courses/:courseId/summary
func (h *APIHandler) GetSummary(c *gin.Context) {
	course, ok := h.course(c)
	if !ok {
		return
	}
	summary := grades.Aggregate(course)
	out := make([]topicSummaryView, len(summary))
	for i, s := range summary {
		out[i] = topicSummaryView{Topic: s.Topic, FailedCount: s.FailedCount(), FailedStudents: make([]studentRef, len(s.FailedStudents))}
		for j, st := range s.FailedStudents {
			out[i].FailedStudents[j] = studentRef{ID: st.ID, Name: st.Name}
		}
	}
	c.JSON(http.StatusOK, out)
}

// --- Import Handler ---

// ImportGrades handles POST /api/courses/:courseId/import
func (h *APIHandler) ImportGrades(c *gin.Context) {
	id := c.Param("courseId")
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.MaxUploadBytes)
	mode := c.DefaultPostForm("mode", "replace")
	if mode != "replace" && mode != "append" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "mode must be 'replace' or 'append'"})
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		h.Logger.Warn("error getting form file", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Error retrieving uploaded file: " + err.Error()})
		return
	}
	defer file.Close()

	h.Logger.Info("received grade upload", zap.String("file", header.Filename), zap.String("course", id), zap.String("mode", mode))

	sheet, err := grades.ParseUpload(header.Filename, file)
	if err != nil {
		metrics.Imports.WithLabelValues(mode, "error").Inc()
		h.fail(c, "parse upload", err)
		return
	}

	ctx := c.Request.Context()
	repaired := sheet.Repaired
	existing, found := h.Store.Get(id)
	switch {
	case !found:
		name := strings.TrimSpace(c.PostForm("name"))
		if name == "" {
			name = "Imported Course " + id
		}
		err = h.Store.Create(ctx, id, models.Course{Name: name, Students: sheet.Students})
	case mode == "append":
		grades.AssignFreshIDs(sheet.Students, existing.Students)
		var refitted int
		_, refitted, err = h.Store.AppendStudents(ctx, id, sheet.Students)
		repaired += refitted
	default:
		_, err = h.Store.ReplaceStudents(ctx, id, sheet.Students)
	}
	metrics.Imports.WithLabelValues(mode, metrics.Result(err)).Inc()
	if err != nil {
		h.fail(c, "import grades", err)
		return
	}

	h.Logger.Info("grades imported",
		zap.String("course", id),
		zap.Int("students", len(sheet.Students)),
		zap.Int("repaired", repaired),
		zap.Int("skipped", sheet.Skipped))
	c.JSON(http.StatusOK, gin.H{
		"message":       "Import successful",
		"importedCount": len(sheet.Students),
		"repairedRows":  repaired,
		"skippedRows":   sheet.Skipped,
		"topics":        sheet.Topics,
		"courseId":      id,
	})
}

// --- Export Handlers ---

// DownloadReport handles GET /api/courses/:courseId/students/:studentId/report.pdf
func (h *APIHandler) DownloadReport(c *gin.Context) {
	course, student, ok := h.student(c)
	if !ok {
		return
	}
	var buf bytes.Buffer
	err := report.WriteStudentPDF(&buf, course.Name, student, h.Now())
	metrics.Reports.WithLabelValues("pdf", metrics.Result(err)).Inc()
	if err != nil {
		h.Logger.Error("pdf generation failed", zap.String("student", student.ID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate the PDF report"})
		return
	}
	attachment(c, report.PDFFilename(student.Name), "application/pdf", buf.Bytes())
}

// ExportCourse handles GET /api/courses/:courseId/export.xlsx
func (h *APIHandler) ExportCourse(c *gin.Context) {
	course, ok := h.course(c)
	if !ok {
		return
	}
	var buf bytes.Buffer
	err := report.WriteCourseXLSX(&buf, course)
	metrics.Reports.WithLabelValues("xlsx", metrics.Result(err)).Inc()
	if err != nil {
		h.Logger.Error("xlsx export failed", zap.String("course", c.Param("courseId")), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to export the course"})
		return
	}
	attachment(c, report.XLSXFilename(course.Name), "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}

// --- Ping Handler ---
func PingHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Pong!"})
}

// --- helpers ---

func (h *APIHandler) course(c *gin.Context) (models.Course, bool) {
	course, ok := h.Store.Get(c.Param("courseId"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Course not found"})
	}
	return course, ok
}

func (h *APIHandler) student(c *gin.Context) (models.Course, models.Student, bool) {
	course, ok := h.course(c)
	if !ok {
		return course, models.Student{}, false
	}
	i := course.FindStudent(c.Param("studentId"))
	if i < 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Student not found"})
		return course, models.Student{}, false
	}
	return course, course.Students[i], true
}

// fail maps a domain error to a status code and a user-facing message.
func (h *APIHandler) fail(c *gin.Context, op string, err error) {
	status, msg := http.StatusInternalServerError, "Internal error"
	switch {
	case errors.Is(err, db.ErrCourseNotFound):
		status, msg = http.StatusNotFound, "Course not found"
	case errors.Is(err, db.ErrStudentNotFound):
		status, msg = http.StatusNotFound, "Student not found"
	case errors.Is(err, db.ErrTopicOutOfRange):
		status, msg = http.StatusNotFound, "Topic not found"
	case errors.Is(err, db.ErrCourseExists):
		status, msg = http.StatusConflict, "A course with that ID already exists"
	case errors.Is(err, db.ErrInvalidSlot):
		status, msg = http.StatusBadRequest, "slot must be one of primera, recuperatorio1, recuperatorio2, coloquio"
	case errors.Is(err, db.ErrInvalidCourse), errors.Is(err, db.ErrInvalidStudent):
		status, msg = http.StatusBadRequest, err.Error()
	case errors.Is(err, grades.ErrEmptySheet), errors.Is(err, grades.ErrUnsupportedFormat):
		status, msg = http.StatusBadRequest, err.Error()
	case errors.Is(err, sheets.ErrUnknownSource):
		status, msg = http.StatusNotFound, "No published sheet is configured for this course"
	case errors.Is(err, sheets.ErrFetchFailure):
		status, msg = http.StatusBadGateway, "Could not connect to Google Sheets. Check that the tab is published to the web as CSV."
	}
	if status >= http.StatusInternalServerError {
		h.Logger.Error(op+" failed", zap.Error(err))
	} else {
		h.Logger.Info(op+" rejected", zap.Int("status", status), zap.Error(err))
	}
	c.JSON(status, gin.H{"error": msg})
}

func attachment(c *gin.Context, filename, contentType string, data []byte) {
	c.Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": filename}))
	c.Data(http.StatusOK, contentType, data)
}
