//go:build integration

package e2e

// End-to-end integration tests against real Postgres + Redis via testcontainers.
// Run with: go test -tags integration ./tests/e2e/... -v
//
// Covered flows:
//   - Full business day: open period → machine entries → close → daily report
//   - Single-open-period and closed-day-stays-closed enforcement
//   - Entries rejected against a closed period
//   - Winner payouts folded into the daily report

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"tillpoint/internal/config"
	"tillpoint/internal/infra"
	"tillpoint/internal/router"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcPostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	tcRedis "github.com/testcontainers/testcontainers-go/modules/redis"
	"golang.org/x/crypto/bcrypt"
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

// ── Test Suite Setup ─────────────────────────────────────────────────────────

type testEnv struct {
	server *httptest.Server
	token  string // admin JWT
	engine *gin.Engine
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()

	pgC, err := tcPostgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:15-alpine"),
		tcPostgres.WithDatabase("tillpoint_test"),
		tcPostgres.WithUsername("tillpoint"),
		tcPostgres.WithPassword("tillpoint"),
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
		ImageStoreURL:      "http://localhost:9999", // unused: no attachments in these flows
		WorkerPoolSize:     1,
		ReportStoragePath:  t.TempDir(),
	}

	// NewDatabase runs migrations against the throwaway container.
	db, err := infra.NewDatabase(cfg.DatabaseURL)
	require.NoError(t, err)

	rdb, err := infra.NewRedis(cfg.RedisURL)
	require.NoError(t, err)

	// Seed admin user
	hash, err := bcrypt.GenerateFromPassword([]byte("tillpoint-e2e"), 12)
	require.NoError(t, err)
	require.NoError(t, db.Exec(`INSERT INTO users (username, name, email, password_hash, role)
		VALUES ('admin@e2e.test', 'Admin E2E', 'admin@e2e.test', ?, 'admin')
		ON CONFLICT (username) DO NOTHING`, string(hash)).Error)

	r := router.New(cfg, db, rdb, infra.NewCircuitBreaker(infra.DefaultCBConfig()))
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	loginResp := do(t, srv, "POST", "/v1/auth/login",
		jsonBody(t, map[string]string{"username": "admin@e2e.test", "password": "tillpoint-e2e"}),
		"",
	)
	require.Equal(t, http.StatusOK, loginResp.StatusCode)
	var loginBody struct {
		AccessToken string `json:"access_token"`
	}
	decodeJSON(t, loginResp, &loginBody)
	require.NotEmpty(t, loginBody.AccessToken)

	return &testEnv{
		server: srv,
		token:  loginBody.AccessToken,
		engine: r,
	}
}

// createBusinessWithMachine provisions one location with one machine and
// returns both ids.
func createBusinessWithMachine(t *testing.T, env *testEnv, name string) (string, string) {
	t.Helper()

	bizResp := do(t, env.server, "POST", "/v1/businesses",
		jsonBody(t, map[string]any{"name": name}), env.token)
	require.Equal(t, http.StatusCreated, bizResp.StatusCode)
	var biz struct {
		ID string `json:"id"`
	}
	decodeJSON(t, bizResp, &biz)

	machineResp := do(t, env.server, "POST", "/v1/businesses/"+biz.ID+"/machines",
		jsonBody(t, map[string]any{"name": "SL-01"}), env.token)
	require.Equal(t, http.StatusCreated, machineResp.StatusCode)
	var machine struct {
		ID string `json:"id"`
	}
	decodeJSON(t, machineResp, &machine)

	return biz.ID, machine.ID
}

func openPeriod(t *testing.T, env *testEnv, businessID, date string) string {
	t.Helper()
	resp := do(t, env.server, "POST", "/v1/periods/open",
		jsonBody(t, map[string]any{
			"business_id":         businessID,
			"business_date":       date,
			"total_cash_in_open":  "1500.00",
			"total_cash_out_open": "300.00",
		}), env.token)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var period struct {
		ID string `json:"id"`
	}
	decodeJSON(t, resp, &period)
	return period.ID
}

// ── Tests ────────────────────────────────────────────────────────────────────

func TestE2E_FullBusinessDay(t *testing.T) {
	env := setupTestEnv(t)
	businessID, machineID := createBusinessWithMachine(t, env, "Arcade Centro")
	periodID := openPeriod(t, env, businessID, "2026-03-14")

	// Active period is visible
	activeResp := do(t, env.server, "GET", "/v1/periods/active?business_id="+businessID, nil, env.token)
	require.Equal(t, http.StatusOK, activeResp.StatusCode)

	// First entry: no variance baseline yet
	firstResp := do(t, env.server, "POST", "/v1/periods/"+periodID+"/entries",
		jsonBody(t, map[string]any{
			"machine_id":      machineID,
			"report_cash_in":  "1000.00",
			"report_cash_out": "200.00",
			"physical_cash":   "500.00",
		}), env.token)
	require.Equal(t, http.StatusCreated, firstResp.StatusCode)
	var first struct {
		Reconciliation struct {
			Outcome string `json:"outcome"`
		} `json:"reconciliation"`
	}
	decodeJSON(t, firstResp, &first)
	assert.Equal(t, "first_entry", first.Reconciliation.Outcome)

	// Second entry: meter moved 400, only 350 counted → shortage of 50
	secondResp := do(t, env.server, "POST", "/v1/periods/"+periodID+"/entries",
		jsonBody(t, map[string]any{
			"machine_id":         machineID,
			"report_cash_in":     "1400.00",
			"report_cash_out":    "250.00",
			"physical_cash":      "350.00",
			"has_previous_entry": true,
		}), env.token)
	require.Equal(t, http.StatusCreated, secondResp.StatusCode)
	var second struct {
		Reconciliation struct {
			Outcome    string `json:"outcome"`
			Difference string `json:"difference"`
		} `json:"reconciliation"`
	}
	decodeJSON(t, secondResp, &second)
	assert.Equal(t, "shortage", second.Reconciliation.Outcome)
	assert.Equal(t, "50", second.Reconciliation.Difference)

	// Close the day
	closeResp := do(t, env.server, "POST", "/v1/periods/"+periodID+"/close",
		jsonBody(t, map[string]any{
			"total_cash_in_close":  "2400.00",
			"total_cash_out_close": "500.00",
		}), env.token)
	require.Equal(t, http.StatusOK, closeResp.StatusCode)
	var closed struct {
		Status string `json:"status"`
		Net    struct {
			FinalNet *string `json:"final_net"`
		} `json:"net"`
	}
	decodeJSON(t, closeResp, &closed)
	assert.Equal(t, "CLOSED", closed.Status)
	require.NotNil(t, closed.Net.FinalNet)
	assert.Equal(t, "700", *closed.Net.FinalNet)

	// Daily report rolls the day up
	reportResp := do(t, env.server, "GET",
		fmt.Sprintf("/v1/reports/daily?business_id=%s&date=2026-03-14", businessID), nil, env.token)
	require.Equal(t, http.StatusOK, reportResp.StatusCode)
	var report struct {
		EntryCount int `json:"entry_count"`
		Variances  []struct {
			Outcome string `json:"outcome"`
		} `json:"variances"`
	}
	decodeJSON(t, reportResp, &report)
	assert.Equal(t, 2, report.EntryCount)
	require.Len(t, report.Variances, 2)
	assert.Equal(t, "shortage", report.Variances[1].Outcome)
}

func TestE2E_SingleOpenPeriodEnforced(t *testing.T) {
	env := setupTestEnv(t)
	businessID, _ := createBusinessWithMachine(t, env, "Arcade Norte")
	periodID := openPeriod(t, env, businessID, "2026-03-14")

	// Second open while one is active → conflict
	resp := do(t, env.server, "POST", "/v1/periods/open",
		jsonBody(t, map[string]any{
			"business_id":         businessID,
			"business_date":       "2026-03-15",
			"total_cash_in_open":  "100.00",
			"total_cash_out_open": "0",
		}), env.token)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()

	// Close the day, then try to reopen the same date
	closeResp := do(t, env.server, "POST", "/v1/periods/"+periodID+"/close",
		jsonBody(t, map[string]any{
			"total_cash_in_close":  "200.00",
			"total_cash_out_close": "0",
		}), env.token)
	require.Equal(t, http.StatusOK, closeResp.StatusCode)
	closeResp.Body.Close()

	reopenResp := do(t, env.server, "POST", "/v1/periods/open",
		jsonBody(t, map[string]any{
			"business_id":         businessID,
			"business_date":       "2026-03-14",
			"total_cash_in_open":  "100.00",
			"total_cash_out_open": "0",
		}), env.token)
	assert.Equal(t, http.StatusUnprocessableEntity, reopenResp.StatusCode)
	reopenResp.Body.Close()
}

func TestE2E_ClosedPeriodRejectsEntries(t *testing.T) {
	env := setupTestEnv(t)
	businessID, machineID := createBusinessWithMachine(t, env, "Arcade Sur")
	periodID := openPeriod(t, env, businessID, "2026-03-14")

	closeResp := do(t, env.server, "POST", "/v1/periods/"+periodID+"/close",
		jsonBody(t, map[string]any{
			"total_cash_in_close":  "1600.00",
			"total_cash_out_close": "300.00",
		}), env.token)
	require.Equal(t, http.StatusOK, closeResp.StatusCode)
	closeResp.Body.Close()

	entryResp := do(t, env.server, "POST", "/v1/periods/"+periodID+"/entries",
		jsonBody(t, map[string]any{
			"machine_id":      machineID,
			"report_cash_in":  "1000.00",
			"report_cash_out": "200.00",
			"physical_cash":   "500.00",
		}), env.token)
	assert.Equal(t, http.StatusConflict, entryResp.StatusCode)
	entryResp.Body.Close()

	// Closing twice is also a conflict
	againResp := do(t, env.server, "POST", "/v1/periods/"+periodID+"/close",
		jsonBody(t, map[string]any{
			"total_cash_in_close":  "1600.00",
			"total_cash_out_close": "300.00",
		}), env.token)
	assert.Equal(t, http.StatusConflict, againResp.StatusCode)
	againResp.Body.Close()
}

func TestE2E_PayoutsInDailyReport(t *testing.T) {
	env := setupTestEnv(t)
	businessID, _ := createBusinessWithMachine(t, env, "Arcade Oeste")
	periodID := openPeriod(t, env, businessID, "2026-03-14")

	payoutResp := do(t, env.server, "POST", "/v1/payouts",
		jsonBody(t, map[string]any{
			"business_id": businessID,
			"period_id":   periodID,
			"winner_name": "J. Castro",
			"amount":      "250.00",
		}), env.token)
	require.Equal(t, http.StatusCreated, payoutResp.StatusCode)
	var payout struct {
		ID string `json:"id"`
	}
	decodeJSON(t, payoutResp, &payout)

	reportResp := do(t, env.server, "GET",
		fmt.Sprintf("/v1/reports/daily?business_id=%s&date=2026-03-14", businessID), nil, env.token)
	require.Equal(t, http.StatusOK, reportResp.StatusCode)
	var report struct {
		TotalPayout string `json:"total_payout"`
	}
	decodeJSON(t, reportResp, &report)
	assert.Equal(t, "250", report.TotalPayout)

	// Voided payouts leave future roll-ups; the cached report keeps serving
	// the old figure until its TTL lapses, so only the void itself is asserted.
	voidResp := do(t, env.server, "DELETE", "/v1/payouts/"+payout.ID, nil, env.token)
	assert.Equal(t, http.StatusNoContent, voidResp.StatusCode)
	voidResp.Body.Close()
}

func TestE2E_AuthRequired(t *testing.T) {
	env := setupTestEnv(t)

	resp := do(t, env.server, "GET", "/v1/businesses", nil, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()

	badLogin := do(t, env.server, "POST", "/v1/auth/login",
		jsonBody(t, map[string]string{"username": "admin@e2e.test", "password": "wrong-password"}),
		"")
	assert.Equal(t, http.StatusUnauthorized, badLogin.StatusCode)
	badLogin.Body.Close()
}
