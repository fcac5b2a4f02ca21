//go:build integration

package e2e

// e2e_test.go
// End-to-end integration tests using real Postgres + Redis via testcontainers.
// Run with: go test -tags integration ./tests/e2e/... -v
//
// Covered flows:
//   - attendant lifecycle: open → sales → sangria → close (pending_review) →
//     manager validate (closed)
//   - manager direct close (no review step)
//   - single open session per establishment, including concurrent opens
//   - movements rejected once the session leaves the open state

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"saborpos/internal/config"
	"saborpos/internal/infra"
	"saborpos/internal/model"
	"saborpos/internal/router"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcPostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	tcRedis "github.com/testcontainers/testcontainers-go/modules/redis"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// ── Helpers ──────────────────────────────────────────────────────────────────

func jsonBody(t *testing.T, v any) *bytes.Buffer {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewBuffer(b)
}

func do(t *testing.T, srv *httptest.Server, method, path string, body *bytes.Buffer, token string) *http.Response {
	t.Helper()
	var req *http.Request
	var err error
	if body != nil {
		req, err = http.NewRequest(method, srv.URL+path, body)
	} else {
		req, err = http.NewRequest(method, srv.URL+path, nil)
	}
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	return resp
}

func decodeJSON(t *testing.T, resp *http.Response, dest any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(dest))
}

type sessionReport struct {
	SessionID     string `json:"session_id"`
	Status        string `json:"status"`
	AttendantFlow bool   `json:"attendant_flow"`
	Expected      struct {
		Cash  decimal.Decimal `json:"cash"`
		Pix   decimal.Decimal `json:"pix"`
		Total decimal.Decimal `json:"total"`
	} `json:"expected"`
	Counted    *struct {
		Cash  decimal.Decimal `json:"cash"`
		Total decimal.Decimal `json:"total"`
	} `json:"counted"`
	Difference *decimal.Decimal `json:"difference"`
}

// ── Test Suite Setup ─────────────────────────────────────────────────────────

type testEnv struct {
	server         *httptest.Server
	db             *gorm.DB
	estID          uuid.UUID
	attendantToken string
	managerToken   string
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()

	pgC, err := tcPostgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:15-alpine"),
		tcPostgres.WithDatabase("saborpos_test"),
		tcPostgres.WithUsername("saborpos"),
		tcPostgres.WithPassword("saborpos"),
		tcPostgres.BasicWaitStrategies(),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pgC.Terminate(ctx) })

	pgURL, err := pgC.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	rdC, err := tcRedis.RunContainer(ctx,
		testcontainers.WithImage("redis:7-alpine"),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdC.Terminate(ctx) })

	rdURL, err := rdC.ConnectionString(ctx)
	require.NoError(t, err)

	cfg := &config.Config{
		Port:               8000,
		Env:                "test",
		JWTSecret:          "test-secret-key",
		JWTExpirationHours: 8,
		JWTRefreshHours:    24,
		DatabaseURL:        pgURL,
		RedisURL:           rdURL,
		WorkerPoolSize:     1,
		ReportStoragePath:  t.TempDir(),
	}

	db, err := infra.NewDatabase(cfg.DatabaseURL)
	require.NoError(t, err)

	rdb, err := infra.NewRedis(cfg.RedisURL)
	require.NoError(t, err)

	// Seed one establishment with an attendant and a manager.
	est := &model.Establishment{Name: "Restaurante E2E", Active: true}
	require.NoError(t, db.Create(est).Error)

	hash, err := bcrypt.GenerateFromPassword([]byte("senha123"), bcrypt.MinCost)
	require.NoError(t, err)
	for _, u := range []*model.User{
		{Username: "atendente@e2e.test", Name: "Atendente E2E", PasswordHash: string(hash), Role: "attendant", EstablishmentID: est.ID, Active: true},
		{Username: "gerente@e2e.test", Name: "Gerente E2E", PasswordHash: string(hash), Role: "manager", EstablishmentID: est.ID, Active: true},
	} {
		require.NoError(t, db.Create(u).Error)
	}

	r := router.New(cfg, db, rdb)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	login := func(username string) string {
		resp := do(t, srv, "POST", "/v1/auth/login",
			jsonBody(t, map[string]string{"username": username, "password": "senha123"}), "")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var body struct {
			AccessToken string `json:"access_token"`
		}
		decodeJSON(t, resp, &body)
		require.NotEmpty(t, body.AccessToken)
		return body.AccessToken
	}

	return &testEnv{
		server:         srv,
		db:             db,
		estID:          est.ID,
		attendantToken: login("atendente@e2e.test"),
		managerToken:   login("gerente@e2e.test"),
	}
}

func (env *testEnv) seedOrder(t *testing.T, tender, total string) {
	t.Helper()
	require.NoError(t, env.db.Create(&model.Order{
		EstablishmentID: env.estID,
		Tender:          tender,
		Total:           decimal.RequireFromString(total),
		Status:          model.OrderCompleted,
		Channel:         model.ChannelPOS,
		Accepted:        true,
		CreatedAt:       time.Now().UTC(),
	}).Error)
}

// ── Tests ────────────────────────────────────────────────────────────────────

func TestE2E_Health(t *testing.T) {
	env := setupTestEnv(t)

	resp := do(t, env.server, "GET", "/health", nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body struct {
		OK    bool   `json:"ok"`
		DB    string `json:"db"`
		Redis string `json:"redis"`
	}
	decodeJSON(t, resp, &body)
	assert.True(t, body.OK)
	assert.Equal(t, "ok", body.DB)
	assert.Equal(t, "ok", body.Redis)
}

func TestE2E_AttendantLifecycle(t *testing.T) {
	env := setupTestEnv(t)

	// 1. Open with a 100 float
	openResp := do(t, env.server, "POST", "/v1/cash/open",
		jsonBody(t, map[string]any{"opening_float": "100"}), env.attendantToken)
	require.Equal(t, http.StatusCreated, openResp.StatusCode)
	var opened sessionReport
	decodeJSON(t, openResp, &opened)
	require.Equal(t, "open", opened.Status)

	// 2. Sales land in the ledger during the session window
	env.seedOrder(t, model.TenderCash, "50")
	env.seedOrder(t, model.TenderPix, "30")

	// 3. Sangria of 20
	movResp := do(t, env.server, "POST", "/v1/cash/movement",
		jsonBody(t, map[string]any{
			"session_id":  opened.SessionID,
			"kind":        "withdrawal",
			"amount":      "20",
			"description": "sangria para o cofre",
		}), env.attendantToken)
	require.Equal(t, http.StatusNoContent, movResp.StatusCode)

	// 4. Live report reflects sales and movements
	liveResp := do(t, env.server, "GET", "/v1/cash/active", nil, env.attendantToken)
	require.Equal(t, http.StatusOK, liveResp.StatusCode)
	var live sessionReport
	decodeJSON(t, liveResp, &live)
	assert.True(t, live.Expected.Cash.Equal(decimal.RequireFromString("130")))
	assert.True(t, live.Expected.Total.Equal(decimal.RequireFromString("160")))

	// 5. Attendant close with a short drawer
	closeResp := do(t, env.server, "POST", "/v1/cash/close",
		jsonBody(t, map[string]any{
			"session_id": opened.SessionID,
			"counted":    map[string]string{"cash": "125", "pix": "30", "debit": "0", "credit": "0"},
			"note":       "faltou troco na gaveta",
		}), env.attendantToken)
	require.Equal(t, http.StatusOK, closeResp.StatusCode)
	var closed sessionReport
	decodeJSON(t, closeResp, &closed)
	assert.Equal(t, "pending_review", closed.Status)
	assert.True(t, closed.AttendantFlow)
	require.NotNil(t, closed.Difference)
	assert.True(t, closed.Difference.Equal(decimal.RequireFromString("-5")))

	// 6. Attendant cannot validate their own closure
	forbidden := do(t, env.server, "POST", "/v1/cash/"+opened.SessionID+"/validate",
		jsonBody(t, map[string]any{
			"counted": map[string]string{"cash": "130", "pix": "30", "debit": "0", "credit": "0"},
		}), env.attendantToken)
	assert.Equal(t, http.StatusForbidden, forbidden.StatusCode)
	forbidden.Body.Close()

	// 7. Manager validates with the corrected count
	validateResp := do(t, env.server, "POST", "/v1/cash/"+opened.SessionID+"/validate",
		jsonBody(t, map[string]any{
			"counted": map[string]string{"cash": "130", "pix": "30", "debit": "0", "credit": "0"},
			"note":    "nota de 5 atrás da gaveta",
		}), env.managerToken)
	require.Equal(t, http.StatusOK, validateResp.StatusCode)
	var validated sessionReport
	decodeJSON(t, validateResp, &validated)
	assert.Equal(t, "closed", validated.Status)
	require.NotNil(t, validated.Difference)
	assert.True(t, validated.Difference.IsZero())
	assert.True(t, validated.Expected.Total.Equal(decimal.RequireFromString("160")), "expected stays frozen at close time")
}

func TestE2E_ManagerDirectClose(t *testing.T) {
	env := setupTestEnv(t)

	openResp := do(t, env.server, "POST", "/v1/cash/open",
		jsonBody(t, map[string]any{"opening_float": "200"}), env.managerToken)
	require.Equal(t, http.StatusCreated, openResp.StatusCode)
	var opened sessionReport
	decodeJSON(t, openResp, &opened)

	env.seedOrder(t, model.TenderDebit, "80")

	closeResp := do(t, env.server, "POST", "/v1/cash/close",
		jsonBody(t, map[string]any{"session_id": opened.SessionID}), env.managerToken)
	require.Equal(t, http.StatusOK, closeResp.StatusCode)
	var closed sessionReport
	decodeJSON(t, closeResp, &closed)
	assert.Equal(t, "closed", closed.Status)
	assert.False(t, closed.AttendantFlow)
	assert.Nil(t, closed.Counted)
	require.NotNil(t, closed.Difference)
	assert.True(t, closed.Difference.IsZero())
}

func TestE2E_SingleOpenSessionPerEstablishment(t *testing.T) {
	env := setupTestEnv(t)

	first := do(t, env.server, "POST", "/v1/cash/open",
		jsonBody(t, map[string]any{"opening_float": "100"}), env.attendantToken)
	require.Equal(t, http.StatusCreated, first.StatusCode)
	first.Body.Close()

	second := do(t, env.server, "POST", "/v1/cash/open",
		jsonBody(t, map[string]any{"opening_float": "50"}), env.managerToken)
	assert.Equal(t, http.StatusConflict, second.StatusCode)
	second.Body.Close()
}

func TestE2E_ConcurrentOpensYieldOneSession(t *testing.T) {
	env := setupTestEnv(t)

	// No require inside the goroutines: failures are collected and asserted
	// after wg.Wait, since FailNow only works from the test goroutine.
	const attempts = 8
	statuses := make([]int, attempts)
	errs := make([]error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			req, err := http.NewRequest("POST", env.server.URL+"/v1/cash/open",
				bytes.NewBufferString(`{"opening_float":"100"}`))
			if err != nil {
				errs[i] = err
				return
			}
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("Authorization", "Bearer "+env.attendantToken)
			resp, err := env.server.Client().Do(req)
			if err != nil {
				errs[i] = err
				return
			}
			statuses[i] = resp.StatusCode
			resp.Body.Close()
		}(i)
	}
	wg.Wait()
	for i, err := range errs {
		require.NoError(t, err, "request %d", i)
	}

	created := 0
	for _, code := range statuses {
		switch code {
		case http.StatusCreated:
			created++
		case http.StatusConflict:
		default:
			t.Fatalf("unexpected status %d", code)
		}
	}
	assert.Equal(t, 1, created, "the partial unique index admits exactly one open session")
}

func TestE2E_MovementsRequireOpenSession(t *testing.T) {
	env := setupTestEnv(t)

	openResp := do(t, env.server, "POST", "/v1/cash/open",
		jsonBody(t, map[string]any{"opening_float": "100"}), env.managerToken)
	require.Equal(t, http.StatusCreated, openResp.StatusCode)
	var opened sessionReport
	decodeJSON(t, openResp, &opened)

	closeResp := do(t, env.server, "POST", "/v1/cash/close",
		jsonBody(t, map[string]any{"session_id": opened.SessionID}), env.managerToken)
	require.Equal(t, http.StatusOK, closeResp.StatusCode)
	closeResp.Body.Close()

	movResp := do(t, env.server, "POST", "/v1/cash/movement",
		jsonBody(t, map[string]any{
			"session_id": opened.SessionID,
			"kind":       "deposit",
			"amount":     "10",
		}), env.managerToken)
	assert.Equal(t, http.StatusConflict, movResp.StatusCode)
	movResp.Body.Close()
}
