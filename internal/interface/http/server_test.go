package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/coursedesk/enrollment-hub/internal/application/command"
	"github.com/coursedesk/enrollment-hub/internal/application/query"
	"github.com/coursedesk/enrollment-hub/internal/domain/account"
	"github.com/coursedesk/enrollment-hub/internal/domain/course"
	"github.com/coursedesk/enrollment-hub/internal/domain/shared"
	"github.com/coursedesk/enrollment-hub/internal/infrastructure/persistence/memory"
	"github.com/coursedesk/enrollment-hub/internal/interface/http/handlers"
)

func newTestServer(t *testing.T, cfg Config) (*Server, *memory.Store) {
	t.Helper()

	store := memory.NewStore()
	store.PutAccount(&account.Account{ID: 7, Name: "Aliya", Balance: shared.MustMoney("100.00")})
	store.PutCourse(&course.Course{
		ID: 3, Name: "Go Basics", TeacherName: "T. Mentor",
		Price: shared.MustMoney("80.00"), Status: course.StatusInProgress,
	})

	uow := memory.NewUnitOfWork(store)
	deps := Dependencies{
		EnrollHandler:          command.NewEnrollHandler(store, store, store.Enrollments(), uow, nil),
		ReviewHandler:          command.NewReviewHandler(uow, nil),
		RechargeHandler:        command.NewRechargeHandler(store, nil),
		ListEnrollmentsHandler: query.NewListEnrollmentsHandler(store.Enrollments()),
		GetBalanceHandler:      query.NewGetBalanceHandler(store),
		HealthChecker:          handlers.NewNoopHealthChecker(),
	}
	return NewServer(cfg, deps), store
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.RateLimitPerMinute = 0
	return cfg
}

func studentHeaders(r *http.Request, studentID string) {
	r.Header.Set(handlers.HeaderUserID, "107")
	r.Header.Set(handlers.HeaderUserRole, "student")
	r.Header.Set(handlers.HeaderLinkedID, studentID)
}

func adminHeaders(r *http.Request) {
	r.Header.Set(handlers.HeaderUserID, "1")
	r.Header.Set(handlers.HeaderUserRole, "admin")
}

func doRequest(srv *Server, r *http.Request) (*httptest.ResponseRecorder, JSONResponse) {
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, r)

	var body JSONResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &body)
	return rec, body
}

func TestServer_HealthIsUnauthenticated(t *testing.T) {
	srv, _ := newTestServer(t, testConfig())

	rec, _ := doRequest(srv, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = doRequest(srv, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestServer_EnrollSuccess(t *testing.T) {
	srv, store := newTestServer(t, testConfig())

	r := httptest.NewRequest(http.MethodPost, "/api/v1/enrollments", strings.NewReader(`{"course_id":3}`))
	studentHeaders(r, "7")

	rec, body := doRequest(srv, r)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.True(t, body.Success)
	assert.Contains(t, body.Message, "debited")

	data, ok := body.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "20.00", data["remaining_balance"])

	enr, ok := data["enrollment"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "pending", enr["status"])
	assert.Equal(t, "80.00", enr["amount_paid"])

	assert.Equal(t, "20.00", store.Account(7).Balance.String())
}

func TestServer_EnrollMissingIdentity(t *testing.T) {
	srv, _ := newTestServer(t, testConfig())

	r := httptest.NewRequest(http.MethodPost, "/api/v1/enrollments", strings.NewReader(`{"course_id":3}`))
	rec, body := doRequest(srv, r)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	require.NotNil(t, body.Error)
	assert.Equal(t, "unauthorized", body.Error.Code)
}

func TestServer_ErrorMapping(t *testing.T) {
	srv, _ := newTestServer(t, testConfig())

	// Unknown course: 404.
	r := httptest.NewRequest(http.MethodPost, "/api/v1/enrollments", strings.NewReader(`{"course_id":99}`))
	studentHeaders(r, "7")
	rec, body := doRequest(srv, r)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	require.NotNil(t, body.Error)
	assert.Equal(t, "not_found", body.Error.Code)

	// Wrong role: 403.
	r = httptest.NewRequest(http.MethodPost, "/api/v1/enrollments", strings.NewReader(`{"course_id":3}`))
	adminHeaders(r)
	rec, body = doRequest(srv, r)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	require.NotNil(t, body.Error)
	assert.Equal(t, "forbidden", body.Error.Code)

	// Duplicate active enrollment: 409.
	r = httptest.NewRequest(http.MethodPost, "/api/v1/enrollments", strings.NewReader(`{"course_id":3}`))
	studentHeaders(r, "7")
	rec, _ = doRequest(srv, r)
	require.Equal(t, http.StatusCreated, rec.Code)

	r = httptest.NewRequest(http.MethodPost, "/api/v1/enrollments", strings.NewReader(`{"course_id":3}`))
	studentHeaders(r, "7")
	rec, body = doRequest(srv, r)
	assert.Equal(t, http.StatusConflict, rec.Code)
	require.NotNil(t, body.Error)
	assert.Equal(t, "conflict", body.Error.Code)

	// Malformed body: 400.
	r = httptest.NewRequest(http.MethodPost, "/api/v1/enrollments", strings.NewReader(`{"course_id":`))
	studentHeaders(r, "7")
	rec, body = doRequest(srv, r)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	require.NotNil(t, body.Error)
	assert.Equal(t, "invalid_request", body.Error.Code)
}

func TestServer_ReviewRejectRefunds(t *testing.T) {
	srv, store := newTestServer(t, testConfig())

	r := httptest.NewRequest(http.MethodPost, "/api/v1/enrollments", strings.NewReader(`{"course_id":3}`))
	studentHeaders(r, "7")
	rec, body := doRequest(srv, r)
	require.Equal(t, http.StatusCreated, rec.Code)

	data := body.Data.(map[string]interface{})
	enr := data["enrollment"].(map[string]interface{})
	id := enr["enrollment_id"].(string)

	r = httptest.NewRequest(http.MethodPost, "/api/v1/enrollments/"+id+"/review", strings.NewReader(`{"status":"rejected"}`))
	adminHeaders(r)
	rec, body = doRequest(srv, r)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	data = body.Data.(map[string]interface{})
	assert.Equal(t, "rejected", data["status"])
	assert.Equal(t, "80.00", data["refund"])
	assert.Equal(t, "100.00", data["new_balance"])
	assert.Equal(t, "100.00", store.Account(7).Balance.String())
}

func TestServer_BalanceAndRecharge(t *testing.T) {
	srv, _ := newTestServer(t, testConfig())

	r := httptest.NewRequest(http.MethodGet, "/api/v1/balance", nil)
	studentHeaders(r, "7")
	rec, body := doRequest(srv, r)
	require.Equal(t, http.StatusOK, rec.Code)
	data := body.Data.(map[string]interface{})
	assert.Equal(t, "100.00", data["balance"])

	// The amount may arrive as a JSON number or a string.
	for _, payload := range []string{`{"amount":25.50}`, `{"amount":"10"}`} {
		r = httptest.NewRequest(http.MethodPost, "/api/v1/balance/recharge", strings.NewReader(payload))
		studentHeaders(r, "7")
		rec, _ = doRequest(srv, r)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	}

	r = httptest.NewRequest(http.MethodGet, "/api/v1/balance", nil)
	studentHeaders(r, "7")
	_, body = doRequest(srv, r)
	data = body.Data.(map[string]interface{})
	assert.Equal(t, "135.50", data["balance"])
}

func TestServer_ListEnrollments(t *testing.T) {
	srv, _ := newTestServer(t, testConfig())

	r := httptest.NewRequest(http.MethodPost, "/api/v1/enrollments", strings.NewReader(`{"course_id":3}`))
	studentHeaders(r, "7")
	rec, _ := doRequest(srv, r)
	require.Equal(t, http.StatusCreated, rec.Code)

	r = httptest.NewRequest(http.MethodGet, "/api/v1/enrollments", nil)
	adminHeaders(r)
	rec, body := doRequest(srv, r)
	require.Equal(t, http.StatusOK, rec.Code)

	rows, ok := body.Data.([]interface{})
	require.True(t, ok)
	require.Len(t, rows, 1)

	row := rows[0].(map[string]interface{})
	assert.Equal(t, "Aliya", row["student_name"])
	assert.Equal(t, "Go Basics", row["course_name"])
	assert.Equal(t, "80.00", row["course_price"])
}

func TestServer_GatewayKeyRequired(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("gateway-secret"), bcrypt.MinCost)
	require.NoError(t, err)

	cfg := testConfig()
	cfg.APIKeyHashes = []string{string(hash)}
	srv, _ := newTestServer(t, cfg)

	// No key: rejected before the principal check runs.
	r := httptest.NewRequest(http.MethodGet, "/api/v1/balance", nil)
	studentHeaders(r, "7")
	rec, _ := doRequest(srv, r)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Wrong key: rejected.
	r = httptest.NewRequest(http.MethodGet, "/api/v1/balance", nil)
	studentHeaders(r, "7")
	r.Header.Set(cfg.APIKeyHeader, "wrong")
	rec, _ = doRequest(srv, r)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Correct key: request goes through.
	r = httptest.NewRequest(http.MethodGet, "/api/v1/balance", nil)
	studentHeaders(r, "7")
	r.Header.Set(cfg.APIKeyHeader, "gateway-secret")
	rec, _ = doRequest(srv, r)
	assert.Equal(t, http.StatusOK, rec.Code)

	// Health stays open.
	rec, _ = doRequest(srv, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
