package db

import "errors"

var (
	// ErrNoSnapshot is returned by a Backend that has nothing stored yet.
	ErrNoSnapshot = errors.New("no snapshot stored")
	// ErrCorruptSnapshot means the stored document could not be decoded.
	ErrCorruptSnapshot = errors.New("stored snapshot is corrupt")

	ErrCourseNotFound  = errors.New("course not found")
	ErrCourseExists    = errors.New("course already exists")
	ErrStudentNotFound = errors.New("student not found")
	ErrTopicOutOfRange = errors.New("topic index out of range")
	ErrInvalidSlot     = errors.New("invalid grade slot")
	ErrInvalidCourse   = errors.New("course ID and name cannot be empty")
	ErrInvalidStudent  = errors.New("student name cannot be empty")
)
