// Package postgres implements the PostgreSQL persistence layer for the
// enrollment service.
package postgres

import (
	"context"
	"fmt"

	"github.com/coursedesk/enrollment-hub/internal/domain/course"
	"github.com/coursedesk/enrollment-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// COURSE CATALOG IMPLEMENTATION
// Read-only: courses are owned by the course-management collaborator.
// ══════════════════════════════════════════════════════════════════════════════

// CourseRepository implements course.Catalog for PostgreSQL.
type CourseRepository struct {
	conn *Connection
}

// NewCourseRepository creates a new CourseRepository.
func NewCourseRepository(conn *Connection) *CourseRepository {
	return &CourseRepository{conn: conn}
}

// FindActive returns the course, excluding soft-deleted rows.
func (r *CourseRepository) FindActive(ctx context.Context, courseID int64) (*course.Course, error) {
	query := `
		SELECT course_id, course_name, teacher_name, price::text, status, is_deleted
		FROM courses
		WHERE course_id = $1 AND is_deleted = FALSE
	`

	var (
		crs      course.Course
		rawPrice string
		status   string
	)
	err := r.conn.QueryRow(ctx, query, courseID).Scan(
		&crs.ID, &crs.Name, &crs.TeacherName, &rawPrice, &status, &crs.IsDeleted,
	)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrCourseNotFound
		}
		return nil, fmt.Errorf("failed to query course: %w", err)
	}

	crs.Price, err = shared.NewMoney(rawPrice)
	if err != nil {
		return nil, fmt.Errorf("failed to parse stored price: %w", err)
	}
	crs.Status = course.Status(status)

	return &crs, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// TX-SCOPED CATALOG
// ══════════════════════════════════════════════════════════════════════════════

// txCatalog implements course.TxCatalog on a transaction's Querier.
type txCatalog struct {
	q Querier
}

// CurrentPrice returns the course's current price regardless of soft-delete
// state, or zero when the course row is gone. Only used for the legacy
// amount_paid fallback on refunds.
func (c txCatalog) CurrentPrice(ctx context.Context, courseID int64) (shared.Money, error) {
	query := `SELECT COALESCE(price, 0)::text FROM courses WHERE course_id = $1`

	var raw string
	err := c.q.QueryRow(ctx, query, courseID).Scan(&raw)
	if err != nil {
		if IsNoRows(err) {
			return shared.Zero, nil
		}
		return shared.Zero, fmt.Errorf("failed to query course price: %w", err)
	}

	return shared.NewMoney(raw)
}
