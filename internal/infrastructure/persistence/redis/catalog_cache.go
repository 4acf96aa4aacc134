package redis

import (
	"context"
	"errors"

	"github.com/coursedesk/enrollment-hub/internal/domain/course"
	"github.com/coursedesk/enrollment-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// CACHED COURSE CATALOG
// Read-through decorator over course.Catalog. Cache failures never fail a
// lookup; the request falls through to the underlying source.
// ══════════════════════════════════════════════════════════════════════════════

// CachedCatalog caches course lookups in Redis with a short TTL.
type CachedCatalog struct {
	source course.Catalog
	cache  *Cache
}

// NewCachedCatalog wraps source with a Redis read-through cache.
func NewCachedCatalog(source course.Catalog, cache *Cache) *CachedCatalog {
	return &CachedCatalog{source: source, cache: cache}
}

// courseRecord is the cached wire form of a course.
type courseRecord struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	TeacherName string `json:"teacher_name"`
	Price       string `json:"price"`
	Status      string `json:"status"`
	IsDeleted   bool   `json:"is_deleted"`
}

// FindActive returns the course from cache when present, otherwise loads it
// from the source and caches the result.
func (c *CachedCatalog) FindActive(ctx context.Context, courseID int64) (*course.Course, error) {
	key := CourseKey(courseID)

	var rec courseRecord
	if err := c.cache.Get(ctx, key, &rec); err == nil {
		crs, err := rec.toCourse()
		if err == nil {
			return crs, nil
		}
		// Unreadable entry; drop it and reload.
		_ = c.cache.Delete(ctx, key)
	} else if !errors.Is(err, ErrCacheMiss) {
		// Redis unavailable; serve from the source.
		return c.source.FindActive(ctx, courseID)
	}

	crs, err := c.source.FindActive(ctx, courseID)
	if err != nil {
		return nil, err
	}

	_ = c.cache.Set(ctx, key, fromCourse(crs), TTLCourseCache)
	return crs, nil
}

// Invalidate drops the cached entry for a course.
func (c *CachedCatalog) Invalidate(ctx context.Context, courseID int64) error {
	return c.cache.Delete(ctx, CourseKey(courseID))
}

func fromCourse(crs *course.Course) courseRecord {
	return courseRecord{
		ID:          crs.ID,
		Name:        crs.Name,
		TeacherName: crs.TeacherName,
		Price:       crs.Price.String(),
		Status:      string(crs.Status),
		IsDeleted:   crs.IsDeleted,
	}
}

func (r courseRecord) toCourse() (*course.Course, error) {
	price, err := shared.NewMoney(r.Price)
	if err != nil {
		return nil, err
	}
	return &course.Course{
		ID:          r.ID,
		Name:        r.Name,
		TeacherName: r.TeacherName,
		Price:       price,
		Status:      course.Status(r.Status),
		IsDeleted:   r.IsDeleted,
	}, nil
}
