package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/event-guest-registration/internal/repository"
	"github.com/iliyamo/event-guest-registration/internal/service"
	"github.com/iliyamo/event-guest-registration/internal/ticket"
)

func newTestHandler(t *testing.T) (*RegistrationHandler, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	groups := repository.NewGuestGroupRepo(db)
	dists := repository.NewDistributorRepo(db)
	svc := service.NewRegistrationService(
		db, groups,
		repository.NewTicketClaimRepo(db),
		repository.NewCounterRepo(db),
		dists,
		ticket.NewRules("NI", 1, 1000),
		5,
	)
	return NewRegistrationHandler(svc, groups, dists), mock
}

func postJSON(h echo.HandlerFunc, path, body string) (*httptest.ResponseRecorder, error) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return rec, h(e.NewContext(req, rec))
}

func TestRegisterEndpointValidationIs400(t *testing.T) {
	h, mock := newTestHandler(t)

	rec, err := postJSON(h.Register, "/v1/registrations", `{"primary_guest_name": ""}`)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body["error"], "primary guest name")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRegisterEndpointDuplicateIs409WithHolder(t *testing.T) {
	h, mock := newTestHandler(t)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM distributors`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "start_range", "end_range", "created_at"}))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT count FROM registration_counter WHERE id = ?`)).
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT count FROM registration_counter WHERE id = ? FOR UPDATE`)).
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(regexp.QuoteMeta(`FROM ticket_claims WHERE ticket_code IN (?) FOR UPDATE`)).
		WithArgs("NI0005").
		WillReturnRows(sqlmock.NewRows([]string{"ticket_code", "owner_name", "group_id", "claimed_at"}).
			AddRow("NI0005", "Elena Ruiz", 7, time.Now()))
	mock.ExpectRollback()

	payload := `{
		"primary_guest_name": "Maria Lopez",
		"contact_phone": "15551234567",
		"address_details": "12 Hillside Ave",
		"companions": [{"full_name": "Ana", "age": 7, "category": "GIRL", "ticket_code": "NI0005"}]
	}`
	rec, err := postJSON(h.Register, "/v1/registrations", payload)
	require.NoError(t, err)
	assert.Equal(t, http.StatusConflict, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "NI0005", body["ticket_code"])
	assert.Equal(t, "Elena Ruiz", body["claimed_by"])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCheckInEndpointSecondScanIs409(t *testing.T) {
	h, mock := newTestHandler(t)

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE companions SET status = ?`)).
		WithArgs("CHECKED_IN", "NI0005", "PENDING").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta(`FROM companions WHERE ticket_code = ?`)).
		WithArgs("NI0005").
		WillReturnRows(sqlmock.NewRows([]string{"id", "group_id", "full_name", "age", "category", "ticket_code", "status"}).
			AddRow(101, 42, "Ana Lopez", 7, "GIRL", "NI0005", "CHECKED_IN"))

	rec, err := postJSON(h.CheckIn, "/v1/checkin", `{"ticket_code": "ni0005"}`)
	require.NoError(t, err)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "Ana Lopez")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCheckInEndpointUnknownCodeIs404(t *testing.T) {
	h, mock := newTestHandler(t)

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE companions SET status = ?`)).
		WithArgs("CHECKED_IN", "NI0400", "PENDING").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta(`FROM companions WHERE ticket_code = ?`)).
		WithArgs("NI0400").
		WillReturnRows(sqlmock.NewRows([]string{"id", "group_id", "full_name", "age", "category", "ticket_code", "status"}))

	rec, err := postJSON(h.CheckIn, "/v1/checkin", `{"ticket_code": "NI0400"}`)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}
