package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	eventsmemory "github.com/tokenforge/settlement-ledger/internal/events/memory"
	"github.com/tokenforge/settlement-ledger/internal/ledger"
	"github.com/tokenforge/settlement-ledger/internal/models"
	storagememory "github.com/tokenforge/settlement-ledger/internal/storage/memory"
	transfermemory "github.com/tokenforge/settlement-ledger/internal/transfer/memory"
)

func ident(b byte) models.Identity {
	var id models.Identity
	for i := range id {
		id[i] = b
	}
	return id
}

var (
	programID = ident(0xAA)
	authority = ident(1)
	payer     = ident(2)
)

type testEnv struct {
	server *Server
	bank   *transfermemory.Bank
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store := storagememory.NewMemoryLedgerStore(0)
	bank := transfermemory.NewBank()
	publisher := eventsmemory.NewPublisher()
	l := ledger.New(store, bank, publisher, programID)
	return &testEnv{server: NewServer(l), bank: bank}
}

func (e *testEnv) do(t *testing.T, method, path string, caller *models.Identity, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if caller != nil {
		req.Header.Set(IdentityHeader, caller.String())
	}
	rec := httptest.NewRecorder()
	e.server.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) initialize(t *testing.T) {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/initialize", &authority, `{}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body["error"]
}

func TestHealth(t *testing.T) {
	t.Parallel()
	e := newTestEnv(t)

	rec := e.do(t, http.MethodGet, "/health", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestInitializeEndpoint(t *testing.T) {
	t.Parallel()
	e := newTestEnv(t)

	rec := e.do(t, http.MethodPost, "/initialize", &authority, `{}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, authority.String(), body["authority"])
	assert.NotEmpty(t, body["treasury"])

	rec = e.do(t, http.MethodPost, "/initialize", &authority, `{}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "already_initialized", errorCode(t, rec))
}

func TestInitializeRejectsForeignTreasury(t *testing.T) {
	t.Parallel()
	e := newTestEnv(t)

	attacker := ident(0x66)
	rec := e.do(t, http.MethodPost, "/initialize", &authority,
		`{"treasury":"`+attacker.String()+`"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "invalid_treasury_address", errorCode(t, rec))
}

func TestPayNativeEndpoint(t *testing.T) {
	t.Parallel()
	e := newTestEnv(t)
	e.initialize(t)
	e.bank.Credit(payer, 1000)

	rec := e.do(t, http.MethodPost, "/payments/native", &payer,
		`{"amount":100,"service_type":"premium","session_id":"s1"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "s1", body["session_id"])
	assert.Equal(t, float64(100), body["amount"])

	// Replay is rejected with a distinct code.
	rec = e.do(t, http.MethodPost, "/payments/native", &payer,
		`{"amount":100,"service_type":"premium","session_id":"s1"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "session_already_processed", errorCode(t, rec))
}

func TestPayAmountValidation(t *testing.T) {
	t.Parallel()
	e := newTestEnv(t)
	e.initialize(t)
	e.bank.Credit(payer, 1000)

	cases := []struct {
		name   string
		amount string
	}{
		{"zero", `0`},
		{"negative", `-5`},
		{"fractional", `0.5`},
		{"string fractional", `"12.25"`},
		{"overflow", `99999999999999999999999999`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := e.do(t, http.MethodPost, "/payments/native", &payer,
				`{"amount":`+tc.amount+`,"service_type":"premium","session_id":"sx"}`)
			assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
			assert.Equal(t, "invalid_amount", errorCode(t, rec))
		})
	}

	// String-encoded integer amounts are accepted.
	rec := e.do(t, http.MethodPost, "/payments/native", &payer,
		`{"amount":"100","service_type":"premium","session_id":"sy"}`)
	assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}

func TestPayInsufficientFunds(t *testing.T) {
	t.Parallel()
	e := newTestEnv(t)
	e.initialize(t)

	rec := e.do(t, http.MethodPost, "/payments/native", &payer,
		`{"amount":100,"service_type":"premium","session_id":"s1"}`)
	assert.Equal(t, http.StatusPaymentRequired, rec.Code)
	assert.Equal(t, "transfer_failed", errorCode(t, rec))
}

func TestPayTokenEndpoint(t *testing.T) {
	t.Parallel()
	e := newTestEnv(t)
	e.initialize(t)
	mint := ident(5)
	e.bank.CreditToken(mint, payer, 500)

	rec := e.do(t, http.MethodPost, "/payments/token", &payer,
		`{"amount":200,"service_type":"basic","session_id":"s1","mint":"`+mint.String()+`"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, mint.String(), body["mint"])
}

func TestPauseAndRefundAuthorization(t *testing.T) {
	t.Parallel()
	e := newTestEnv(t)
	e.initialize(t)
	outsider := ident(9)

	rec := e.do(t, http.MethodPut, "/admin/paused", &outsider, `{"paused":true}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "unauthorized", errorCode(t, rec))

	rec = e.do(t, http.MethodPost, "/refunds/native", &outsider,
		`{"amount":100,"session_id":"s1","recipient":"`+payer.String()+`"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = e.do(t, http.MethodPut, "/admin/paused", &authority, `{"paused":true}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = e.do(t, http.MethodPost, "/payments/native", &payer,
		`{"amount":100,"service_type":"premium","session_id":"s1"}`)
	assert.Equal(t, http.StatusLocked, rec.Code)
	assert.Equal(t, "service_paused", errorCode(t, rec))
}

func TestRefundNativeEndpoint(t *testing.T) {
	t.Parallel()
	e := newTestEnv(t)
	e.initialize(t)

	// Fund the treasury through a settlement, then refund part of it.
	e.bank.Credit(payer, 1000)
	rec := e.do(t, http.MethodPost, "/payments/native", &payer,
		`{"amount":300,"service_type":"premium","session_id":"s1"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = e.do(t, http.MethodPost, "/refunds/native", &authority,
		`{"amount":100,"session_id":"s1","recipient":"`+payer.String()+`"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, uint64(800), e.bank.Balance(payer))
}

func TestMissingIdentityHeader(t *testing.T) {
	t.Parallel()
	e := newTestEnv(t)

	rec := e.do(t, http.MethodPost, "/initialize", nil, `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "missing_identity", errorCode(t, rec))

	req := httptest.NewRequest(http.MethodPost, "/initialize", strings.NewReader(`{}`))
	req.Header.Set(IdentityHeader, "not-hex")
	recorder := httptest.NewRecorder()
	e.server.ServeHTTP(recorder, req)
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
	assert.Equal(t, "invalid_identity", errorCode(t, recorder))
}

func TestAccountAndHistoryEndpoints(t *testing.T) {
	t.Parallel()
	e := newTestEnv(t)

	rec := e.do(t, http.MethodGet, "/account", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_initialized", errorCode(t, rec))

	e.initialize(t)
	e.bank.Credit(payer, 1000)
	rec = e.do(t, http.MethodPost, "/payments/native", &payer,
		`{"amount":100,"service_type":"premium","session_id":"s1"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = e.do(t, http.MethodGet, "/account", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = e.do(t, http.MethodGet, "/settlements", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var settlements []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &settlements))
	require.Len(t, settlements, 1)
	assert.Equal(t, "s1", settlements[0]["session_id"])
}
