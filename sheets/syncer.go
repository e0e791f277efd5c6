package sheets

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"grades-dashboard-go/db"
	"grades-dashboard-go/grades"
	"grades-dashboard-go/models"
)

// ErrUnknownSource means no published sheet is configured for the course.
var ErrUnknownSource = errors.New("no published sheet configured for course")

// SheetFetcher downloads one source.
type SheetFetcher interface {
	Fetch(ctx context.Context, src Source) (*grades.Sheet, error)
}

// Syncer refreshes stored courses from their published sheets.
type Syncer struct {
	catalog *Catalog
	fetcher SheetFetcher
	store   *db.CourseStore
	logger  *zap.Logger
	group   singleflight.Group
}

func NewSyncer(catalog *Catalog, fetcher SheetFetcher, store *db.CourseStore, logger *zap.Logger) *Syncer {
	return &Syncer{catalog: catalog, fetcher: fetcher, store: store, logger: logger}
}

// Catalog returns the configured sources.
func (s *Syncer) Catalog() *Catalog { return s.catalog }

// Sync downloads the course's sheet and replaces the stored course with it.
// Concurrent calls for the same course share one download. On any failure the
// store is left as it was.
func (s *Syncer) Sync(ctx context.Context, courseID string) (models.Course, error) {
	src, ok := s.catalog.Get(courseID)
	if !ok {
		return models.Course{}, fmt.Errorf("%w: %s", ErrUnknownSource, courseID)
	}

	// Shared by every waiting caller, so not cancelled with the first request.
	// The fetcher still applies its timeout.
	shareCtx := context.WithoutCancel(ctx)
	v, err, shared := s.group.Do(courseID, func() (interface{}, error) {
		sheet, err := s.fetcher.Fetch(shareCtx, src)
		if err != nil {
			s.logger.Warn("sheet fetch failed", zap.String("course", courseID), zap.Error(err))
			return nil, err
		}
		if sheet.Repaired > 0 || sheet.Skipped > 0 {
			s.logger.Info("sheet rows adjusted to the topic layout",
				zap.String("course", courseID),
				zap.Int("repaired", sheet.Repaired),
				zap.Int("skipped", sheet.Skipped))
		}

		course := models.Course{Name: src.Name, Students: sheet.Students}
		if err := s.store.Put(shareCtx, courseID, course); err != nil {
			return nil, err
		}
		s.logger.Info("course synced from sheet",
			zap.String("course", courseID),
			zap.Int("students", len(course.Students)),
			zap.Int("topics", len(sheet.Topics)))
		return course, nil
	})
	if err != nil {
		return models.Course{}, err
	}
	if shared {
		s.logger.Debug("sync shared with an in-flight request", zap.String("course", courseID))
	}
	return v.(models.Course).Clone(), nil
}
