// Package http implements the REST API for the enrollment service.
package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/coursedesk/enrollment-hub/internal/application/command"
	"github.com/coursedesk/enrollment-hub/internal/application/query"
	"github.com/coursedesk/enrollment-hub/internal/domain/enrollment"
	"github.com/coursedesk/enrollment-hub/internal/domain/shared"
	"github.com/coursedesk/enrollment-hub/internal/interface/http/handlers"
	"github.com/coursedesk/enrollment-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// HEALTH & STATUS HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleRoot serves the root endpoint with basic API information.
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	info := map[string]interface{}{
		"name":        "CourseDesk Enrollment API",
		"version":     "v1",
		"description": "Course enrollment and prepaid balance service",
		"endpoints": map[string]string{
			"health":      "/health",
			"enrollments": "/api/v1/enrollments",
			"balance":     "/api/v1/balance",
		},
	}

	writeJSON(w, http.StatusOK, info)
}

// handleHealth handles the health check endpoint.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.deps.HealthChecker != nil {
		status := s.deps.HealthChecker.Check(r.Context())
		if !status.Healthy {
			writeJSON(w, http.StatusServiceUnavailable, status)
			return
		}
		writeJSON(w, http.StatusOK, status)
		return
	}

	// Default health response
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "healthy",
		"uptime":  s.Uptime().String(),
		"version": "v1",
	})
}

// handleReady handles the readiness probe endpoint (for Kubernetes).
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.deps.HealthChecker != nil {
		status := s.deps.HealthChecker.Check(r.Context())
		if !status.Ready {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not_ready",
				"reason": status.Message,
			})
			return
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// handleLive handles the liveness probe endpoint (for Kubernetes).
func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "alive"})
}

// ══════════════════════════════════════════════════════════════════════════════
// ENROLLMENT HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// enrollRequest is the body of POST /api/v1/enrollments.
type enrollRequest struct {
	CourseID int64 `json:"course_id"`
}

// enrollmentView is the wire form of an enrollment.
type enrollmentView struct {
	EnrollmentID string  `json:"enrollment_id"`
	StudentID    int64   `json:"student_id"`
	CourseID     int64   `json:"course_id"`
	Status       string  `json:"status"`
	AmountPaid   *string `json:"amount_paid"`
	EnrolledAt   string  `json:"enrolled_at"`
}

// enrollmentRowView is the wire form of a listed enrollment with joined names.
type enrollmentRowView struct {
	enrollmentView
	StudentName  string `json:"student_name"`
	CourseName   string `json:"course_name"`
	TeacherName  string `json:"teacher_name"`
	CoursePrice  string `json:"course_price"`
	CourseStatus string `json:"course_status"`
}

func toEnrollmentView(e *enrollment.Enrollment) enrollmentView {
	v := enrollmentView{
		EnrollmentID: e.ID,
		StudentID:    e.StudentID,
		CourseID:     e.CourseID,
		Status:       string(e.Status),
		EnrolledAt:   e.EnrolledAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
	}
	if e.AmountPaid != nil {
		paid := e.AmountPaid.String()
		v.AmountPaid = &paid
	}
	return v
}

// handleEnroll handles POST /api/v1/enrollments
func (s *Server) handleEnroll(w http.ResponseWriter, r *http.Request) {
	principal, ok := handlers.PrincipalFromContext(r.Context())
	if !ok {
		writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Missing identity")
		return
	}

	var req enrollRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	result, err := s.deps.EnrollHandler.Handle(r.Context(), command.EnrollCommand{
		Principal: principal,
		CourseID:  req.CourseID,
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSONMessage(w, http.StatusCreated, result.Message, map[string]interface{}{
		"enrollment":        toEnrollmentView(result.Enrollment),
		"remaining_balance": result.RemainingBalance.String(),
	})
}

// handleListEnrollments handles GET /api/v1/enrollments
func (s *Server) handleListEnrollments(w http.ResponseWriter, r *http.Request) {
	principal, ok := handlers.PrincipalFromContext(r.Context())
	if !ok {
		writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Missing identity")
		return
	}

	q := query.ListEnrollmentsQuery{
		Principal:   principal,
		StudentID:   getQueryParamInt64(r, "student_id", 0),
		StudentName: getQueryParam(r, "student_name", ""),
		CourseName:  getQueryParam(r, "course_name", ""),
	}

	rows, err := s.deps.ListEnrollmentsHandler.Handle(r.Context(), q)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	views := make([]enrollmentRowView, 0, len(rows))
	for _, row := range rows {
		views = append(views, enrollmentRowView{
			enrollmentView: toEnrollmentView(&row.Enrollment),
			StudentName:    row.StudentName,
			CourseName:     row.CourseName,
			TeacherName:    row.TeacherName,
			CoursePrice:    row.CoursePrice,
			CourseStatus:   string(row.CourseStatus),
		})
	}

	writeJSON(w, http.StatusOK, views)
}

// reviewRequest is the body of POST /api/v1/enrollments/{id}/review.
type reviewRequest struct {
	Status string `json:"status"`
}

// handleReview handles POST /api/v1/enrollments/{id}/review
func (s *Server) handleReview(w http.ResponseWriter, r *http.Request) {
	principal, ok := handlers.PrincipalFromContext(r.Context())
	if !ok {
		writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Missing identity")
		return
	}

	enrollmentID := r.PathValue("id")
	if enrollmentID == "" {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Enrollment ID is required")
		return
	}

	var req reviewRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	result, err := s.deps.ReviewHandler.Handle(r.Context(), command.ReviewCommand{
		Principal:    principal,
		EnrollmentID: enrollmentID,
		NewStatus:    req.Status,
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	data := map[string]interface{}{
		"enrollment_id": enrollmentID,
		"status":        string(result.Status),
		"refund":        result.Refund.String(),
	}
	if result.NewBalance != nil {
		data["new_balance"] = result.NewBalance.String()
	}

	writeJSONMessage(w, http.StatusOK, result.Message, data)
}

// ══════════════════════════════════════════════════════════════════════════════
// BALANCE HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleGetBalance handles GET /api/v1/balance
func (s *Server) handleGetBalance(w http.ResponseWriter, r *http.Request) {
	principal, ok := handlers.PrincipalFromContext(r.Context())
	if !ok {
		writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Missing identity")
		return
	}

	balance, err := s.deps.GetBalanceHandler.Handle(r.Context(), query.GetBalanceQuery{Principal: principal})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"balance": balance.String()})
}

// rechargeRequest is the body of POST /api/v1/balance/recharge. The amount is
// accepted as either a JSON number or a decimal string.
type rechargeRequest struct {
	Amount json.Number `json:"amount"`
}

// handleRecharge handles POST /api/v1/balance/recharge
func (s *Server) handleRecharge(w http.ResponseWriter, r *http.Request) {
	principal, ok := handlers.PrincipalFromContext(r.Context())
	if !ok {
		writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Missing identity")
		return
	}

	var req rechargeRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	result, err := s.deps.RechargeHandler.Handle(r.Context(), command.RechargeCommand{
		Principal: principal,
		Amount:    req.Amount.String(),
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSONMessage(w, http.StatusOK, result.Message, map[string]string{
		"balance": result.NewBalance.String(),
	})
}

// ══════════════════════════════════════════════════════════════════════════════
// REQUEST / ERROR PLUMBING
// ══════════════════════════════════════════════════════════════════════════════

// decodeBody decodes a JSON request body into dest. Writes the error response
// and returns false on failure.
func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request, dest interface{}) bool {
	defer func() {
		_, _ = io.Copy(io.Discard, r.Body)
	}()

	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	if err := dec.Decode(dest); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Request body must be valid JSON")
		return false
	}
	return true
}

// writeDomainError maps domain errors to HTTP status codes.
func (s *Server) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	var domainErr *shared.DomainError
	message := "Request failed"
	if errors.As(err, &domainErr) {
		message = domainErr.Message
	}

	switch {
	case shared.IsNotFound(err):
		writeJSONError(w, http.StatusNotFound, "not_found", message)
	case shared.IsValidation(err):
		writeJSONError(w, http.StatusBadRequest, "invalid_request", message)
	case shared.IsPermission(err):
		writeJSONError(w, http.StatusForbidden, "forbidden", message)
	case shared.IsConflict(err):
		writeJSONError(w, http.StatusConflict, "conflict", message)
	default:
		s.logger.Error("request failed",
			logger.Err(err),
			logger.String("path", r.URL.Path),
			logger.String("request_id", getRequestID(r.Context())),
		)
		writeJSONError(w, http.StatusInternalServerError, "internal_error", "An unexpected error occurred")
	}
}
