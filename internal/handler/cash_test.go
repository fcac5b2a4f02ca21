package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"saborpos/internal/dto"
	"saborpos/internal/middleware"
	"saborpos/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubCashService returns a canned error (or a canned report) so the tests
// can pin down the error → HTTP status mapping without touching storage.
type stubCashService struct {
	err    error
	report *dto.SessionReportResponse
}

func (s *stubCashService) Open(context.Context, service.Actor, dto.OpenSessionRequest) (*dto.SessionReportResponse, error) {
	return s.report, s.err
}

func (s *stubCashService) Close(context.Context, service.Actor, dto.CloseSessionRequest) (*dto.SessionReportResponse, error) {
	return s.report, s.err
}

func (s *stubCashService) Validate(context.Context, service.Actor, uuid.UUID, dto.ValidateSessionRequest) (*dto.SessionReportResponse, error) {
	return s.report, s.err
}

func (s *stubCashService) RecordMovement(context.Context, service.Actor, dto.MovementRequest) error {
	return s.err
}

func (s *stubCashService) Report(context.Context, uuid.UUID) (*dto.SessionReportResponse, error) {
	return s.report, s.err
}

func (s *stubCashService) ActiveSession(context.Context, uuid.UUID) (*dto.SessionReportResponse, error) {
	return s.report, s.err
}

func (s *stubCashService) History(context.Context, uuid.UUID, int, int) ([]dto.SessionSummary, int64, error) {
	return nil, 0, s.err
}

func (s *stubCashService) ListMovements(context.Context, uuid.UUID) ([]dto.MovementResponse, error) {
	return nil, s.err
}

func (s *stubCashService) AuditTrail(context.Context, uuid.UUID) ([]dto.AuditEntryResponse, error) {
	return nil, s.err
}

func testClaims() *middleware.JWTClaims {
	return &middleware.JWTClaims{
		UserID:          uuid.NewString(),
		Username:        "atendente@demo",
		Role:            "attendant",
		EstablishmentID: uuid.NewString(),
	}
}

func newCashRouter(svc service.CashService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(middleware.ClaimsKey, testClaims())
		c.Next()
	})
	h := NewCashHandler(svc)
	r.POST("/v1/cash/open", h.Open)
	r.POST("/v1/cash/close", h.Close)
	r.POST("/v1/cash/:id/validate", h.Validate)
	r.POST("/v1/cash/movement", h.RecordMovement)
	r.GET("/v1/cash/:id/report", h.Report)
	return r
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestErrorStatusMapping(t *testing.T) {
	sessionID := uuid.NewString()
	body := dto.CloseSessionRequest{SessionID: sessionID}

	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"validation error maps to 422", &service.ValidationError{Msg: "contagem obrigatória"}, http.StatusUnprocessableEntity},
		{"state error maps to 409", &service.StateError{Msg: "a sessão não está aberta"}, http.StatusConflict},
		{"conflict error maps to 409", &service.ConflictError{Msg: "caixa já aberto"}, http.StatusConflict},
		{"authorization error maps to 403", &service.AuthorizationError{Msg: "apenas gerentes"}, http.StatusForbidden},
		{"not found maps to 404", service.ErrNotFound, http.StatusNotFound},
		{"unknown error hides behind 500", errors.New("pq: connection refused"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newCashRouter(&stubCashService{err: tt.err})
			w := doJSON(t, r, http.MethodPost, "/v1/cash/close", body)
			assert.Equal(t, tt.wantStatus, w.Code)

			var resp map[string]any
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			if tt.wantStatus == http.StatusInternalServerError {
				assert.Equal(t, "Erro interno do servidor", resp["detail"], "internal detail must not leak")
			} else {
				assert.NotEmpty(t, resp["detail"])
			}
		})
	}
}

func TestOpenReturns201(t *testing.T) {
	report := &dto.SessionReportResponse{
		SessionID: uuid.NewString(),
		Status:    "open",
	}
	r := newCashRouter(&stubCashService{report: report})

	w := doJSON(t, r, http.MethodPost, "/v1/cash/open", dto.OpenSessionRequest{
		OpeningFloat: decimal.RequireFromString("100"),
	})
	assert.Equal(t, http.StatusCreated, w.Code)

	var resp dto.SessionReportResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, report.SessionID, resp.SessionID)
}

func TestCloseRejectsMalformedBody(t *testing.T) {
	r := newCashRouter(&stubCashService{})

	req := httptest.NewRequest(http.MethodPost, "/v1/cash/close", bytes.NewBufferString("{not json"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCloseRejectsMissingSessionID(t *testing.T) {
	r := newCashRouter(&stubCashService{})

	w := doJSON(t, r, http.MethodPost, "/v1/cash/close", map[string]any{"note": "x"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Contains(t, resp, "fields")
}

func TestMovementValidationTags(t *testing.T) {
	r := newCashRouter(&stubCashService{})

	// Bad kind fails the oneof tag before the service is reached.
	w := doJSON(t, r, http.MethodPost, "/v1/cash/movement", map[string]any{
		"session_id": uuid.NewString(),
		"kind":       "transfer",
		"amount":     "10",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	// Valid movement returns 204 with an empty body.
	w = doJSON(t, r, http.MethodPost, "/v1/cash/movement", map[string]any{
		"session_id": uuid.NewString(),
		"kind":       "withdrawal",
		"amount":     "10",
	})
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Body.String())
}

func TestValidateRejectsBadSessionIDParam(t *testing.T) {
	r := newCashRouter(&stubCashService{})

	w := doJSON(t, r, http.MethodPost, "/v1/cash/not-a-uuid/validate", dto.ValidateSessionRequest{
		Counted: &dto.CountedTotals{},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestReportNotFound(t *testing.T) {
	r := newCashRouter(&stubCashService{err: service.ErrNotFound})

	w := doJSON(t, r, http.MethodGet, "/v1/cash/"+uuid.NewString()+"/report", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
