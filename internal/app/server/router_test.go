package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"payledger/internal/app/server"
	"payledger/internal/domain/auth"
	"payledger/internal/domain/directory"
	"payledger/internal/platform/config"
	"payledger/internal/platform/memstore"
)

const testSecret = "test-secret"

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
	RequestID string `json:"requestId"`
}

type harness struct {
	t       *testing.T
	ts      *httptest.Server
	store   *memstore.Store
	emp     memstore.Employed
	admin   string
	boss    string
	worker  string
	outside string
}

func testConfig() config.Config {
	return config.Config{
		Environment:          "test",
		StoreDriver:          config.StoreDriverMemory,
		JWTSecret:            testSecret,
		TokenTTL:             time.Hour,
		MaxBodyBytes:         1 << 20,
		SourceFetchTimeout:   2 * time.Second,
		SummaryConcurrency:   4,
		NotifyQueueSize:      16,
		ReferralCreditAmount: decimal.NewFromInt(100),
		PayslipCurrency:      "INR",
		MetricsEnabled:       true,
		RateLimitPerMinute:   1000,
	}
}

func newHarness(t *testing.T, cfg config.Config) *harness {
	t.Helper()
	store := memstore.New()
	emp, err := store.SeedEmployed(context.Background(),
		directory.Worker{Name: "Asha", Designation: "Cook"},
		directory.Company{Name: "Acme Kitchens"},
		directory.Contract{GrossSalary: decimal.NewFromInt(30000), DailyWage: decimal.NewFromInt(1000)})
	require.NoError(t, err)
	other, err := store.CreateWorker(context.Background(), directory.Worker{Name: "Ravi"})
	require.NoError(t, err)

	ts := httptest.NewServer(server.NewRouter(server.Deps{
		Config: cfg,
		Log:    zap.NewNop(),
		Stores: server.MemoryStores(store),
	}))
	t.Cleanup(ts.Close)

	return &harness{
		t:       t,
		ts:      ts,
		store:   store,
		emp:     emp,
		admin:   mint(t, auth.Claims{SubjectID: "root", Role: auth.RoleAdmin}),
		boss:    mint(t, auth.Claims{SubjectID: "employer:" + emp.Company.ID, Role: auth.RoleEmployer, CompanyID: emp.Company.ID}),
		worker:  mint(t, auth.Claims{SubjectID: "worker:" + emp.Worker.ID, Role: auth.RoleWorker, WorkerID: emp.Worker.ID}),
		outside: mint(t, auth.Claims{SubjectID: "worker:" + other.ID, Role: auth.RoleWorker, WorkerID: other.ID}),
	}
}

func mint(t *testing.T, claims auth.Claims) string {
	t.Helper()
	token, err := auth.GenerateToken(testSecret, claims, time.Hour)
	require.NoError(t, err)
	return token
}

func (h *harness) do(method, path, token string, body any, headers ...string) *http.Response {
	h.t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(h.t, err)
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, h.ts.URL+path, reader)
	require.NoError(h.t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	resp, err := h.ts.Client().Do(req)
	require.NoError(h.t, err)
	h.t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	var out T
	if len(env.Data) > 0 {
		require.NoError(t, json.Unmarshal(env.Data, &out))
	}
	return out
}

func errorCode(t *testing.T, resp *http.Response) string {
	t.Helper()
	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	require.NotNil(t, env.Error)
	return env.Error.Code
}

type idOnly struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

func TestProbesAndMetrics(t *testing.T) {
	h := newHarness(t, testConfig())

	assert.Equal(t, http.StatusOK, h.do(http.MethodGet, "/healthz", "", nil).StatusCode)
	assert.Equal(t, http.StatusOK, h.do(http.MethodGet, "/readyz", "", nil).StatusCode)

	resp := h.do(http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
	assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
}

func TestAPIRejectsAnonymousCallers(t *testing.T) {
	h := newHarness(t, testConfig())

	resp := h.do(http.MethodGet, "/api/v1/salary/list", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "unauthorized", errorCode(t, resp))

	resp = h.do(http.MethodGet, "/api/v1/salary/list", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAdvanceLiabilityAndPaymentJourney(t *testing.T) {
	h := newHarness(t, testConfig())
	workerID := h.emp.Worker.ID
	companyID := h.emp.Company.ID

	resp := h.do(http.MethodPost, "/api/v1/advance", h.worker, map[string]any{"amount": "5000", "reason": "rent"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	adv := decode[idOnly](t, resp)
	assert.Equal(t, "pending", adv.Status)

	resp = h.do(http.MethodPost, "/api/v1/advance/"+adv.ID+"/approve", h.worker, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = h.do(http.MethodPost, "/api/v1/advance/"+adv.ID+"/approve", h.boss, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "approved", decode[idOnly](t, resp).Status)

	resp = h.do(http.MethodPost, "/api/v1/advance/"+adv.ID+"/approve", h.boss, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = h.do(http.MethodPost, "/api/v1/advance", h.worker, map[string]any{"amount": "25001"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "insufficient_balance", errorCode(t, resp))

	resp = h.do(http.MethodPost, "/api/v1/liability", h.boss, map[string]any{
		"workerId": workerID, "type": "item", "itemName": "Helmet", "amount": "500",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	item := decode[idOnly](t, resp)

	resp = h.do(http.MethodPatch, "/api/v1/liability/"+item.ID+"/status", h.worker, map[string]any{"status": "accepted"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = h.do(http.MethodGet, "/api/v1/employee/"+workerID+"/salary", h.boss, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	salary := decode[struct {
		GrossSalary         decimal.Decimal `json:"grossSalary"`
		TotalAdvancePayment decimal.Decimal `json:"totalAdvancePayment"`
		Balance             decimal.Decimal `json:"balance"`
		Deductions          struct {
			Final decimal.Decimal `json:"final"`
		} `json:"deductions"`
		Transactions []struct {
			Type string `json:"type"`
		} `json:"transactions"`
		Contract struct {
			ID string `json:"id"`
		} `json:"contract"`
	}](t, resp)
	assert.True(t, salary.GrossSalary.Equal(decimal.NewFromInt(30000)))
	assert.True(t, salary.TotalAdvancePayment.Equal(decimal.NewFromInt(5000)))
	assert.True(t, salary.Deductions.Final.Equal(decimal.NewFromInt(500)))
	assert.True(t, salary.Balance.Equal(decimal.NewFromInt(24500)))
	assert.Len(t, salary.Transactions, 2)
	assert.Equal(t, h.emp.Contract.ID, salary.Contract.ID)

	payment := map[string]any{
		"employeeId": workerID, "companyId": companyID, "grossSalary": "30000", "advancePayment": "5000",
		"balance": "24500", "modeOfPayment": "bank_transfer", "totalAmount": "24500",
	}
	resp = h.do(http.MethodPost, "/api/v1/salary/payment", h.boss, payment, "Idempotency-Key", "march-run")
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	run := decode[idOnly](t, resp)
	require.NotEmpty(t, run.ID)

	resp = h.do(http.MethodPost, "/api/v1/salary/payment", h.boss, payment, "Idempotency-Key", "march-run")
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "true", resp.Header.Get("Idempotent-Replay"))
	assert.Equal(t, run.ID, decode[idOnly](t, resp).ID)

	payment["totalAmount"] = "1"
	resp = h.do(http.MethodPost, "/api/v1/salary/payment", h.boss, payment, "Idempotency-Key", "march-run")
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	account, err := h.store.GetAccount(context.Background(), workerID, companyID)
	require.NoError(t, err)
	assert.True(t, account.AvailableBalance.Equal(account.Ceiling))

	resp = h.do(http.MethodGet, "/api/v1/salary/list", h.boss, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	summary := decode[struct {
		TotalSalaryPaid          decimal.Decimal `json:"totalSalaryPaid"`
		TotalUniqueEmployeesPaid int             `json:"totalUniqueEmployeesPaid"`
		TotalEmployeesForCompany int             `json:"totalEmployeesForCompany"`
		EmployeesUnpaid          int             `json:"employeesUnpaid"`
	}](t, resp)
	assert.Equal(t, 1, summary.TotalUniqueEmployeesPaid)
	assert.Equal(t, 1, summary.TotalEmployeesForCompany)
	assert.Equal(t, 0, summary.EmployeesUnpaid)
	assert.True(t, summary.TotalSalaryPaid.Equal(decimal.NewFromInt(24500)))

	resp = h.do(http.MethodGet, "/api/v1/salary/list/"+companyID, h.worker, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestCorrectPaymentIsAdminOnly(t *testing.T) {
	h := newHarness(t, testConfig())
	resp := h.do(http.MethodPost, "/api/v1/salary/payment", h.boss, map[string]any{
		"employeeId": h.emp.Worker.ID, "companyId": h.emp.Company.ID, "modeOfPayment": "cash", "totalAmount": "100",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	run := decode[idOnly](t, resp)

	fix := map[string]any{"modeOfPayment": "upi"}
	resp = h.do(http.MethodPatch, "/api/v1/salary/payment/"+run.ID, h.boss, fix)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = h.do(http.MethodPatch, "/api/v1/salary/payment/"+run.ID, h.admin, fix)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	corrected := decode[struct {
		ModeOfPayment string `json:"modeOfPayment"`
	}](t, resp)
	assert.Equal(t, "upi", corrected.ModeOfPayment)
}

func TestPaymentValidation(t *testing.T) {
	h := newHarness(t, testConfig())

	resp := h.do(http.MethodPost, "/api/v1/salary/payment", h.boss, map[string]any{"companyId": h.emp.Company.ID, "modeOfPayment": "barter"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "validation_error", errorCode(t, resp))

	resp = h.do(http.MethodPost, "/api/v1/salary/payment", h.boss, map[string]any{"employeeId": "x", "surprise": true})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = h.do(http.MethodPost, "/api/v1/salary/payment", h.worker, map[string]any{})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestSalarySlipPDF(t *testing.T) {
	h := newHarness(t, testConfig())

	resp := h.do(http.MethodGet, "/api/v1/salaryslip?period=all", h.worker, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "payslip-"+h.emp.Worker.ID+"-all.pdf")
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(body, []byte("%PDF")))

	resp = h.do(http.MethodGet, "/api/v1/salaryslip?employeeId="+h.emp.Worker.ID, h.outside, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = h.do(http.MethodGet, "/api/v1/salaryslip?employeeId="+h.emp.Worker.ID+"&period=13-2025", h.boss, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestWorkerCannotReadAnotherWorkersLedger(t *testing.T) {
	h := newHarness(t, testConfig())

	for _, path := range []string{
		"/api/v1/employee/" + h.emp.Worker.ID + "/salary",
		"/api/v1/employee/" + h.emp.Worker.ID + "/advance",
		"/api/v1/employee/" + h.emp.Worker.ID + "/liability",
		"/api/v1/employee/" + h.emp.Worker.ID + "/leave",
		"/api/v1/employee/" + h.emp.Worker.ID,
	} {
		resp := h.do(http.MethodGet, path, h.outside, nil)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode, path)
	}
}

func TestTokenIssuance(t *testing.T) {
	h := newHarness(t, testConfig())

	resp := h.do(http.MethodPost, "/api/v1/auth/token", h.boss, map[string]any{"role": "worker", "workerId": h.emp.Worker.ID})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = h.do(http.MethodPost, "/api/v1/auth/token", h.admin, map[string]any{"role": "employer"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = h.do(http.MethodPost, "/api/v1/auth/token", h.admin, map[string]any{"role": "worker", "workerId": "ghost"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = h.do(http.MethodPost, "/api/v1/auth/token", h.admin, map[string]any{"role": "worker", "workerId": h.emp.Worker.ID})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	issued := decode[struct {
		Token     string    `json:"token"`
		ExpiresAt time.Time `json:"expiresAt"`
	}](t, resp)
	require.NotEmpty(t, issued.Token)
	assert.True(t, issued.ExpiresAt.After(time.Now()))

	resp = h.do(http.MethodGet, "/api/v1/employee/"+h.emp.Worker.ID, issued.Token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Asha", decode[struct {
		Name string `json:"name"`
	}](t, resp).Name)
}

func TestContractOfferAndAcceptance(t *testing.T) {
	h := newHarness(t, testConfig())
	newcomer, err := h.store.CreateWorker(context.Background(), directory.Worker{Name: "Meera"})
	require.NoError(t, err)
	newcomerToken := mint(t, auth.Claims{SubjectID: "worker:" + newcomer.ID, Role: auth.RoleWorker, WorkerID: newcomer.ID})

	resp := h.do(http.MethodPost, "/api/v1/contracts", h.boss, map[string]any{"workerId": newcomer.ID, "grossSalary": "0"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = h.do(http.MethodPost, "/api/v1/contracts", h.boss, map[string]any{"workerId": newcomer.ID, "grossSalary": "18000"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	offer := decode[idOnly](t, resp)
	assert.Equal(t, "pending", offer.Status)

	resp = h.do(http.MethodPost, "/api/v1/contracts/"+offer.ID+"/accept", h.worker, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = h.do(http.MethodPost, "/api/v1/contracts/"+offer.ID+"/accept", newcomerToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "accepted", decode[idOnly](t, resp).Status)

	resp = h.do(http.MethodGet, "/api/v1/employee/"+newcomer.ID+"/salary", newcomerToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	salary := decode[struct {
		GrossSalary decimal.Decimal `json:"grossSalary"`
	}](t, resp)
	assert.True(t, salary.GrossSalary.Equal(decimal.NewFromInt(18000)))

	resp = h.do(http.MethodGet, "/api/v1/employee/"+newcomer.ID, h.boss, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestLeaveRequestAndDecision(t *testing.T) {
	h := newHarness(t, testConfig())

	resp := h.do(http.MethodPost, "/api/v1/leave", h.worker, map[string]any{"startDate": "2025-03-12", "endDate": "2025-03-10"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = h.do(http.MethodPost, "/api/v1/leave", h.worker, map[string]any{"startDate": "2025-03-10", "endDate": "2025-03-12", "reason": "family"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	lr := decode[idOnly](t, resp)
	assert.Equal(t, "pending", lr.Status)

	resp = h.do(http.MethodPost, "/api/v1/leave/"+lr.ID+"/approve", h.worker, map[string]any{"leaveType": "Unpaid"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = h.do(http.MethodPost, "/api/v1/leave/"+lr.ID+"/approve", h.boss, map[string]any{"leaveType": "Unpaid"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "approved", decode[idOnly](t, resp).Status)

	resp = h.do(http.MethodGet, "/api/v1/employee/"+h.emp.Worker.ID+"/leave", h.worker, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	page := decode[struct {
		Items []idOnly `json:"items"`
		Total int      `json:"total"`
	}](t, resp)
	assert.Equal(t, 1, page.Total)
	require.Len(t, page.Items, 1)
	assert.Equal(t, lr.ID, page.Items[0].ID)
}

func TestReferralCreditIsOneTime(t *testing.T) {
	h := newHarness(t, testConfig())
	ctx := context.Background()
	referrerID := h.emp.Worker.ID
	referred, err := h.store.CreateWorker(ctx, directory.Worker{Name: "Kiran", ReferrerID: &referrerID})
	require.NoError(t, err)
	token := mint(t, auth.Claims{SubjectID: "worker:" + referred.ID, Role: auth.RoleWorker, WorkerID: referred.ID})

	type outcome struct {
		Credited   bool   `json:"credited"`
		ReferrerID string `json:"referrerId"`
	}
	resp := h.do(http.MethodPost, "/api/v1/referral/credit", token, map[string]any{"action": "registration"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	first := decode[outcome](t, resp)
	assert.True(t, first.Credited)
	assert.Equal(t, referrerID, first.ReferrerID)

	resp = h.do(http.MethodPost, "/api/v1/referral/credit", token, map[string]any{"action": "job_application"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.False(t, decode[outcome](t, resp).Credited)

	referrer, err := h.store.GetWorker(ctx, referrerID)
	require.NoError(t, err)
	assert.True(t, referrer.WalletBalance.Equal(decimal.NewFromInt(100)))

	resp = h.do(http.MethodPost, "/api/v1/referral/credit", token, map[string]any{"action": "login"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestReportsAndAuditTrail(t *testing.T) {
	h := newHarness(t, testConfig())
	resp := h.do(http.MethodPost, "/api/v1/salary/payment", h.boss, map[string]any{
		"employeeId": h.emp.Worker.ID, "companyId": h.emp.Company.ID, "modeOfPayment": "cash", "totalAmount": "900",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = h.do(http.MethodGet, "/api/v1/reports/payroll?month=all", h.boss, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	reg := decode[struct {
		RunCount  int             `json:"runCount"`
		TotalPaid decimal.Decimal `json:"totalPaid"`
	}](t, resp)
	assert.Equal(t, 1, reg.RunCount)
	assert.True(t, reg.TotalPaid.Equal(decimal.NewFromInt(900)))

	resp = h.do(http.MethodGet, "/api/v1/reports/payroll?month=all&format=csv", h.boss, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/csv", resp.Header.Get("Content-Type"))

	resp = h.do(http.MethodGet, "/api/v1/reports/payroll?month=march", h.boss, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = h.do(http.MethodGet, "/api/v1/audit/events?action=payment.record", h.boss, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "1", resp.Header.Get("X-Total-Count"))
	events := decode[struct {
		Items []struct {
			Action    string `json:"action"`
			ActorID   string `json:"actorId"`
			RequestID string `json:"requestId"`
		} `json:"items"`
	}](t, resp)
	require.Len(t, events.Items, 1)
	assert.Equal(t, "employer:"+h.emp.Company.ID, events.Items[0].ActorID)
	assert.NotEmpty(t, events.Items[0].RequestID)

	resp = h.do(http.MethodGet, "/api/v1/audit/events/export", h.admin, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(body)), "\n")
	assert.Len(t, lines, 2)

	resp = h.do(http.MethodGet, "/api/v1/audit/events", h.worker, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestMoneyRoutesAreRateLimited(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimitPerMinute = 1
	h := newHarness(t, cfg)

	resp := h.do(http.MethodPost, "/api/v1/advance", h.worker, map[string]any{"amount": "10"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = h.do(http.MethodPost, "/api/v1/advance", h.worker, map[string]any{"amount": "10"})
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("Retry-After"))

	resp = h.do(http.MethodGet, "/api/v1/employee/"+h.emp.Worker.ID+"/advance", h.worker, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
