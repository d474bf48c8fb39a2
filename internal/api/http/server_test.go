package httpapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appAdmin "github.com/midas-vault/midas-vault/internal/application/admin"
	appAudit "github.com/midas-vault/midas-vault/internal/application/audit"
	appAuth "github.com/midas-vault/midas-vault/internal/application/auth"
	appExchange "github.com/midas-vault/midas-vault/internal/application/exchange"
	appProduct "github.com/midas-vault/midas-vault/internal/application/product"
	appReview "github.com/midas-vault/midas-vault/internal/application/review"
	appUser "github.com/midas-vault/midas-vault/internal/application/user"
	"github.com/midas-vault/midas-vault/internal/domain/exchange"
	"github.com/midas-vault/midas-vault/internal/infrastructure/memory"
	"github.com/midas-vault/midas-vault/internal/infrastructure/metrics"
	"github.com/midas-vault/midas-vault/internal/infrastructure/sse"
)

type testAPI struct {
	t       *testing.T
	handler http.Handler
	audit   *appAudit.Service
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	logger := zerolog.Nop()
	store := memory.NewStore()
	hub := sse.NewHub(logger)
	t.Cleanup(hub.Stop)
	reg := metrics.New(true)

	auditSvc := appAudit.NewService(store.Audit(), logger, []byte("audit-signing-key"))
	svc := Services{
		Auth:     appAuth.NewService(store.Users(), []byte("0123456789abcdef0123456789abcdef"), time.Hour, auditSvc, logger),
		Users:    appUser.NewService(store.Users(), auditSvc, logger),
		Products: appProduct.NewService(store.Products(), store, auditSvc, hub, logger),
		Exchange: appExchange.NewService(store, appExchange.Repositories{
			Products:  store.Products(),
			Users:     store.Users(),
			Purchases: store.Purchases(),
			Barters:   store.Barters(),
			TradeIns:  store.TradeIns(),
		}, auditSvc, hub, reg, logger),
		Reviews: appReview.NewService(store.Reviews(), store.Purchases(), store.Barters(), store.TradeIns(), auditSvc, hub, logger),
		Admin:   appAdmin.NewService(store.Stats(), auditSvc, nil, 0, logger),
		Audit:   auditSvc,
	}
	srv := NewServer(svc, Options{
		Hub:            hub,
		Metrics:        reg,
		RateLimitRPS:   1000,
		RateLimitBurst: 1000,
		Logger:         logger,
	})
	return &testAPI{t: t, handler: srv.Router(), audit: auditSvc}
}

type response struct {
	Code    int
	Success bool
	Data    json.RawMessage
	Message string
}

func (a *testAPI) do(method, path, token string, body any) response {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(a.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)

	var env envelope
	res := response{Code: rec.Code}
	if rec.Body.Len() > 0 && json.Unmarshal(rec.Body.Bytes(), &env) == nil {
		res.Success = env.Success
		res.Message = env.Message
		res.Data, _ = json.Marshal(env.Data)
	}
	return res
}

func (a *testAPI) decode(res response, v any) {
	a.t.Helper()
	require.NoError(a.t, json.Unmarshal(res.Data, v))
}

// signUp registers and logs in a user, returning the bearer token.
func (a *testAPI) signUp(name string) string {
	a.t.Helper()
	res := a.do(http.MethodPost, "/v1/auth/register", "", map[string]string{
		"username":  name,
		"email":     name + "@example.com",
		"full_name": name,
		"password":  "Secret123x",
	})
	require.Equal(a.t, http.StatusCreated, res.Code, res.Message)

	res = a.do(http.MethodPost, "/v1/auth/login", "", map[string]string{
		"username": name,
		"password": "Secret123x",
	})
	require.Equal(a.t, http.StatusOK, res.Code, res.Message)
	var login struct {
		Token string `json:"token"`
	}
	a.decode(res, &login)
	require.NotEmpty(a.t, login.Token)
	return login.Token
}

type productBody struct {
	ID           string `json:"id"`
	Verification string `json:"verification_state"`
	Availability string `json:"availability"`
}

// listApproved creates a barter-enabled product and has admin approve it.
func (a *testAPI) listApproved(owner, admin, name string) string {
	a.t.Helper()
	res := a.do(http.MethodPost, "/v1/products", owner, map[string]any{
		"name":             name,
		"description":      "gently used",
		"price":            "120.00",
		"barter_enabled":   true,
		"trade_in_enabled": true,
		"trade_in_value":   "40.00",
	})
	require.Equal(a.t, http.StatusCreated, res.Code, res.Message)
	var p productBody
	a.decode(res, &p)
	assert.Equal(a.t, "pending", p.Verification)

	res = a.do(http.MethodPost, "/v1/admin/verifications/"+p.ID+"/approve", admin, nil)
	require.Equal(a.t, http.StatusOK, res.Code, res.Message)
	a.decode(res, &p)
	assert.Equal(a.t, "approved", p.Verification)
	return p.ID
}

func TestHealthz(t *testing.T) {
	api := newTestAPI(t)
	res := api.do(http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, res.Code)
	assert.True(t, res.Success)
}

func TestEnvelopeAlwaysCarriesMessage(t *testing.T) {
	api := newTestAPI(t)
	token := api.signUp("alice")

	for _, path := range []string{"/healthz", "/v1/products"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		api.handler.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, path)

		var body map[string]json.RawMessage
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		require.Contains(t, body, "message", path)
		assert.JSONEq(t, `"OK"`, string(body["message"]), path)
		assert.JSONEq(t, `true`, string(body["success"]), path)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	api := newTestAPI(t)
	api.do(http.MethodGet, "/healthz", "", nil)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	api.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "midas_http_requests_total")
}

func TestAuthRequired(t *testing.T) {
	api := newTestAPI(t)
	res := api.do(http.MethodGet, "/v1/products", "", nil)
	assert.Equal(t, http.StatusUnauthorized, res.Code)
	assert.False(t, res.Success)

	res = api.do(http.MethodGet, "/v1/auth/me", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, res.Code)
}

func TestLoginWrongPassword(t *testing.T) {
	api := newTestAPI(t)
	api.signUp("dana")
	res := api.do(http.MethodPost, "/v1/auth/login", "", map[string]string{"username": "dana", "password": "Wrong1234"})
	assert.Equal(t, http.StatusUnauthorized, res.Code)
}

func TestRegisterRejectsUnknownFields(t *testing.T) {
	api := newTestAPI(t)
	res := api.do(http.MethodPost, "/v1/auth/register", "", map[string]string{"username": "dana", "nickname": "d"})
	assert.Equal(t, http.StatusBadRequest, res.Code)
}

func TestAdminRoutesNeedAdmin(t *testing.T) {
	api := newTestAPI(t)
	token := api.signUp("erin")

	res := api.do(http.MethodGet, "/v1/admin/stats", token, nil)
	assert.Equal(t, http.StatusForbidden, res.Code)

	res = api.do(http.MethodPost, "/v1/auth/bootstrap", token, nil)
	require.Equal(t, http.StatusOK, res.Code, res.Message)

	res = api.do(http.MethodGet, "/v1/admin/stats", token, nil)
	require.Equal(t, http.StatusOK, res.Code, res.Message)
	var snap struct {
		Users int `json:"users"`
	}
	api.decode(res, &snap)
	assert.Equal(t, 1, snap.Users)

	other := api.signUp("frank")
	res = api.do(http.MethodPost, "/v1/auth/bootstrap", other, nil)
	assert.Equal(t, http.StatusBadRequest, res.Code)
}

func TestBarterLifecycle(t *testing.T) {
	api := newTestAPI(t)
	admin := api.signUp("carol")
	require.Equal(t, http.StatusOK, api.do(http.MethodPost, "/v1/auth/bootstrap", admin, nil).Code)
	alice := api.signUp("alice")
	bob := api.signUp("bob1")

	offered := api.listApproved(alice, admin, "Road bike")
	wanted := api.listApproved(bob, admin, "Tent")

	res := api.do(http.MethodPost, "/v1/barters", alice, map[string]any{
		"requester_product_id": offered,
		"receiver_product_id":  wanted,
		"note":                 "swap?",
	})
	require.Equal(t, http.StatusCreated, res.Code, res.Message)
	var b struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	api.decode(res, &b)
	assert.Equal(t, "pending", b.Status)

	// A second offer over the same pair is refused while the first is open.
	res = api.do(http.MethodPost, "/v1/barters", alice, map[string]any{
		"requester_product_id": offered,
		"receiver_product_id":  wanted,
	})
	assert.Equal(t, http.StatusBadRequest, res.Code)

	// Only the receiver may accept.
	res = api.do(http.MethodPost, "/v1/barters/"+b.ID+"/accept", alice, nil)
	assert.Equal(t, http.StatusForbidden, res.Code)

	res = api.do(http.MethodPost, "/v1/barters/"+b.ID+"/accept", bob, nil)
	require.Equal(t, http.StatusOK, res.Code, res.Message)
	api.decode(res, &b)
	assert.Equal(t, "accepted", b.Status)

	res = api.do(http.MethodPost, "/v1/barters/"+b.ID+"/confirm", alice, nil)
	require.Equal(t, http.StatusOK, res.Code, res.Message)
	api.decode(res, &b)
	assert.Equal(t, "accepted", b.Status)

	res = api.do(http.MethodPost, "/v1/barters/"+b.ID+"/confirm", bob, nil)
	require.Equal(t, http.StatusOK, res.Code, res.Message)
	api.decode(res, &b)
	assert.Equal(t, "completed", b.Status)

	res = api.do(http.MethodGet, "/v1/products/"+offered, alice, nil)
	require.Equal(t, http.StatusOK, res.Code)
	var p productBody
	api.decode(res, &p)
	assert.Equal(t, "bartered", p.Availability)

	res = api.do(http.MethodGet, "/v1/barters?status=completed", bob, nil)
	require.Equal(t, http.StatusOK, res.Code)
	var list struct {
		Barters []json.RawMessage `json:"barters"`
	}
	api.decode(res, &list)
	assert.Len(t, list.Barters, 1)

	res = api.do(http.MethodPost, "/v1/reviews", alice, map[string]any{
		"barter_id": b.ID,
		"rating":    5,
		"comment":   "smooth swap",
	})
	require.Equal(t, http.StatusCreated, res.Code, res.Message)

	// Products with exchange history cannot be deleted.
	res = api.do(http.MethodDelete, "/v1/products/"+offered, alice, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, res.Code)

	api.audit.Wait()
	res = api.do(http.MethodGet, "/v1/admin/audit?entityType=BARTER&limit=10", admin, nil)
	require.Equal(t, http.StatusOK, res.Code, res.Message)
	var page struct {
		Logs []json.RawMessage `json:"logs"`
	}
	api.decode(res, &page)
	assert.NotEmpty(t, page.Logs)
}

func TestPurchaseLifecycle(t *testing.T) {
	api := newTestAPI(t)
	admin := api.signUp("carol")
	require.Equal(t, http.StatusOK, api.do(http.MethodPost, "/v1/auth/bootstrap", admin, nil).Code)
	seller := api.signUp("sally")
	buyer := api.signUp("bruno")
	item := api.listApproved(seller, admin, "Camera")

	res := api.do(http.MethodPost, "/v1/purchases", buyer, map[string]any{"product_id": item})
	require.Equal(t, http.StatusCreated, res.Code, res.Message)
	var pu struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	api.decode(res, &pu)
	assert.Equal(t, "escrow", pu.Status)

	res = api.do(http.MethodPost, "/v1/purchases", buyer, map[string]any{"product_id": item})
	assert.Equal(t, http.StatusBadRequest, res.Code)

	res = api.do(http.MethodPost, "/v1/purchases/"+pu.ID+"/confirm", buyer, nil)
	assert.Equal(t, http.StatusForbidden, res.Code)

	res = api.do(http.MethodPost, "/v1/purchases/"+pu.ID+"/confirm", seller, nil)
	require.Equal(t, http.StatusOK, res.Code, res.Message)
	api.decode(res, &pu)
	assert.Equal(t, "completed", pu.Status)
}

func TestNotFoundAndBadInput(t *testing.T) {
	api := newTestAPI(t)
	token := api.signUp("gina")

	res := api.do(http.MethodGet, "/v1/barters/6f1c0b52-3d6c-4a62-9d57-0d6f7b0f2a11", token, nil)
	assert.Equal(t, http.StatusNotFound, res.Code)

	res = api.do(http.MethodGet, "/v1/barters/not-a-uuid", token, nil)
	assert.Equal(t, http.StatusBadRequest, res.Code)

	req := httptest.NewRequest(http.MethodPost, "/v1/products", bytes.NewBufferString("{"))
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	api.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	res = api.do(http.MethodGet, "/v1/nowhere", token, nil)
	assert.Equal(t, http.StatusNotFound, res.Code)
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"auth", appAuth.ErrInvalidToken, http.StatusUnauthorized},
		{"delete blocked", exchange.ErrDeleteBlocked, http.StatusUnprocessableEntity},
		{"not found", exchange.NotFound("barter"), http.StatusNotFound},
		{"unauthorized", exchange.ErrNotParty, http.StatusForbidden},
		{"validation", exchange.Invalid(errors.New("bad")), http.StatusBadRequest},
		{"precondition", exchange.ErrNotAvailable, http.StatusBadRequest},
		{"state", fmt.Errorf("wrap: %w", exchange.ErrStateConflict), http.StatusBadRequest},
		{"unexpected", errors.New("disk on fire"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, statusFor(tt.err))
		})
	}
}
