// Package postgres implements the PostgreSQL persistence layer for the
// enrollment service.
package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/coursedesk/enrollment-hub/internal/domain/course"
	"github.com/coursedesk/enrollment-hub/internal/domain/enrollment"
	"github.com/coursedesk/enrollment-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// ENROLLMENT REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// EnrollmentRepository implements enrollment.Repository for PostgreSQL.
type EnrollmentRepository struct {
	conn *Connection
}

// NewEnrollmentRepository creates a new EnrollmentRepository.
func NewEnrollmentRepository(conn *Connection) *EnrollmentRepository {
	return &EnrollmentRepository{conn: conn}
}

// GetByID returns the enrollment.
func (r *EnrollmentRepository) GetByID(ctx context.Context, id string) (*enrollment.Enrollment, error) {
	return getEnrollment(ctx, r.conn, id, false)
}

// HasActive reports whether a pending or approved enrollment exists for the pair.
func (r *EnrollmentRepository) HasActive(ctx context.Context, studentID, courseID int64) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM enrollments
			WHERE student_id = $1 AND course_id = $2
			  AND status IN ('pending', 'approved')
		)
	`

	var exists bool
	if err := r.conn.QueryRow(ctx, query, studentID, courseID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check active enrollment: %w", err)
	}
	return exists, nil
}

// List returns enrollments joined with student, course and teacher names,
// newest first. Filters are combined with AND; zero values are skipped.
func (r *EnrollmentRepository) List(ctx context.Context, filter enrollment.ListFilter) ([]*enrollment.Row, error) {
	var sb strings.Builder
	sb.WriteString(`
		SELECT
			e.enrollment_id, e.student_id, e.course_id, e.status,
			e.amount_paid::text, e.enrolled_at,
			COALESCE(s.student_name, ''),
			COALESCE(c.course_name, ''),
			COALESCE(c.teacher_name, ''),
			COALESCE(c.price, 0)::text,
			COALESCE(c.status, 'not_started')
		FROM enrollments e
		LEFT JOIN students s ON e.student_id = s.student_id
		LEFT JOIN courses c ON e.course_id = c.course_id
	`)

	var (
		conditions []string
		args       []interface{}
	)
	if filter.StudentID > 0 {
		args = append(args, filter.StudentID)
		conditions = append(conditions, fmt.Sprintf("e.student_id = $%d", len(args)))
	}
	if filter.StudentName != "" {
		args = append(args, "%"+filter.StudentName+"%")
		conditions = append(conditions, fmt.Sprintf("s.student_name ILIKE $%d", len(args)))
	}
	if filter.CourseName != "" {
		args = append(args, "%"+filter.CourseName+"%")
		conditions = append(conditions, fmt.Sprintf("c.course_name ILIKE $%d", len(args)))
	}

	if len(conditions) > 0 {
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(conditions, " AND "))
	}
	sb.WriteString(" ORDER BY e.enrolled_at DESC")

	rows, err := r.conn.Query(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query enrollments: %w", err)
	}
	defer rows.Close()

	var result []*enrollment.Row
	for rows.Next() {
		var (
			row          enrollment.Row
			status       string
			rawPaid      *string
			courseStatus string
		)
		err := rows.Scan(
			&row.ID, &row.StudentID, &row.CourseID, &status,
			&rawPaid, &row.EnrolledAt,
			&row.StudentName, &row.CourseName, &row.TeacherName,
			&row.CoursePrice, &courseStatus,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan enrollment row: %w", err)
		}

		row.Status = enrollment.Status(status)
		row.CourseStatus = course.Status(courseStatus)
		if rawPaid != nil {
			paid, err := shared.NewMoney(*rawPaid)
			if err != nil {
				return nil, fmt.Errorf("failed to parse stored amount_paid: %w", err)
			}
			row.AmountPaid = &paid
		}

		result = append(result, &row)
	}

	return result, rows.Err()
}

// ─────────────────────────────────────────────────────────────────────────────
// Shared query implementations
// ─────────────────────────────────────────────────────────────────────────────

func getEnrollment(ctx context.Context, q Querier, id string, forUpdate bool) (*enrollment.Enrollment, error) {
	query := `
		SELECT enrollment_id, student_id, course_id, status, amount_paid::text, enrolled_at
		FROM enrollments
		WHERE enrollment_id = $1
	`
	if forUpdate {
		query += " FOR UPDATE"
	}

	var (
		enr     enrollment.Enrollment
		status  string
		rawPaid *string
		at      time.Time
	)
	err := q.QueryRow(ctx, query, id).Scan(&enr.ID, &enr.StudentID, &enr.CourseID, &status, &rawPaid, &at)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrEnrollmentNotFound
		}
		return nil, fmt.Errorf("failed to query enrollment: %w", err)
	}

	enr.Status = enrollment.Status(status)
	enr.EnrolledAt = at
	if rawPaid != nil {
		paid, err := shared.NewMoney(*rawPaid)
		if err != nil {
			return nil, fmt.Errorf("failed to parse stored amount_paid: %w", err)
		}
		enr.AmountPaid = &paid
	}

	return &enr, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// TX-SCOPED REPOSITORY
// ══════════════════════════════════════════════════════════════════════════════

// txEnrollments implements enrollment.TxRepository on a transaction's Querier.
type txEnrollments struct {
	q Querier
}

// Insert creates the enrollment row. The partial unique index on active
// (student, course) pairs turns a racing duplicate into a constraint
// violation, surfaced as ErrDuplicateEnrollment.
func (t txEnrollments) Insert(ctx context.Context, e *enrollment.Enrollment) error {
	query := `
		INSERT INTO enrollments (enrollment_id, student_id, course_id, status, amount_paid, enrolled_at)
		VALUES ($1, $2, $3, $4, $5::numeric, $6)
	`

	var paid *string
	if e.AmountPaid != nil {
		s := e.AmountPaid.String()
		paid = &s
	}

	_, err := t.q.Exec(ctx, query, e.ID, e.StudentID, e.CourseID, string(e.Status), paid, e.EnrolledAt)
	if err != nil {
		if IsUniqueViolation(err) {
			return shared.ErrDuplicateEnrollment
		}
		return fmt.Errorf("failed to insert enrollment: %w", err)
	}
	return nil
}

// GetForUpdate returns the enrollment with its row locked for the unit.
func (t txEnrollments) GetForUpdate(ctx context.Context, id string) (*enrollment.Enrollment, error) {
	return getEnrollment(ctx, t.q, id, true)
}

// UpdateStatus sets the enrollment's review status.
func (t txEnrollments) UpdateStatus(ctx context.Context, id string, status enrollment.Status) error {
	query := `UPDATE enrollments SET status = $2 WHERE enrollment_id = $1`

	tag, err := t.q.Exec(ctx, query, id, string(status))
	if err != nil {
		return fmt.Errorf("failed to update enrollment status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrEnrollmentNotFound
	}
	return nil
}
