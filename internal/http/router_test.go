package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/adiouf/go-consular-backend/internal/config"
	"github.com/adiouf/go-consular-backend/internal/domain"
	"github.com/adiouf/go-consular-backend/internal/http/middleware"
	"github.com/adiouf/go-consular-backend/internal/repo"
	"github.com/adiouf/go-consular-backend/internal/services"
)

// --- test DB helper (pure-Go sqlite, no CGO) ---
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:routerdb_%s?mode=memory&cache=shared", t.Name())), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

func testConfig() config.Config {
	return config.Config{
		APIBasePath:    "/api/v1",
		RateRPS:        100,
		RateBurst:      50,
		CORS:           config.CORSConfig{AllowedOrigins: nil}, // triggers AllowAllOrigins branch
		Security:       config.SecurityConfig{EnableHSTS: false, HSTSMaxAge: 0},
		OTEL:           config.OTELConfig{ServiceName: "test-svc"},
		TicketPrefix:   "CONS",
		IdempotencyTTL: time.Hour,
	}
}

func TestRegisterRoutes_CORSAllowAll_Health_Metrics_Fallbacks(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	RegisterRoutes(r, newTestDB(t), testConfig())

	// /health works
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("GET /health = %d", w.Code)
	}
	// CORS (AllowAllOrigins) → header "*"
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("AllowAllOrigins expected '*', got %q", got)
	}

	// /metrics is wired
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/metrics", nil)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK || len(w.Body.Bytes()) == 0 {
		t.Fatalf("GET /metrics bad: code=%d len=%d", w.Code, w.Body.Len())
	}

	// NoRoute → 404
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/nope", nil)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Fatalf("GET /nope expected 404, got %d", w.Code)
	}

	// NoMethod → 405 (POST /health)
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/health", nil)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("POST /health expected 405, got %d", w.Code)
	}
}

func TestRegisterRoutes_CORSWithOrigins_HeaderEcho(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	cfg := testConfig()
	cfg.CORS = config.CORSConfig{AllowedOrigins: []string{"http://example.com"}}
	RegisterRoutes(r, newTestDB(t), cfg)

	// Any request runs through CORS middleware; header should reflect origin.
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "http://example.com")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("GET /health = %d", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://example.com" {
		t.Fatalf("expected ACAO echo, got %q", got)
	}
}

// End-to-end: submit a visa request, walk it through two transitions, check
// the lookup / history / allowed-transitions endpoints along the way.
func TestRouter_RequestLifecycle(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	RegisterRoutes(r, newTestDB(t), testConfig())

	createBody := map[string]any{
		"service_type": "VISA",
		"fields": map[string]any{
			"personFirstName":    "awa",
			"personLastName":     "ndiaye",
			"dateOfBirth":        "1990-04-12",
			"nationality":        "Senegalese",
			"passportNumber":     "SN1234567",
			"passportExpiry":     "2030-01-01",
			"visaType":           "SHORT_STAY",
			"entryCount":         "SINGLE",
			"durationDays":       30,
			"travelPurpose":      "family visit",
			"destinationAddress": "12 rue de la Paix, Paris",
			"plannedArrival":     "2026-10-01",
		},
		"contact_phone_number": "+221771234567",
	}

	// --- POST /requests ---
	w := doJSON(t, r, http.MethodPost, "/api/v1/requests", createBody, nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("create expected 201, got %d body=%s", w.Code, w.Body.String())
	}
	var created domain.Request
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode created: %v", err)
	}
	if created.Status != domain.StatusNew || created.TicketNumber == "" {
		t.Fatalf("unexpected created request: %+v", created)
	}
	if created.Visa == nil || created.Visa.PersonFirstName != "Awa" {
		t.Fatalf("visa details not persisted/normalized: %+v", created.Visa)
	}

	// --- GET /requests/:id by UUID and by ticket ---
	for _, key := range []string{created.ID, created.TicketNumber} {
		w = doJSON(t, r, http.MethodGet, "/api/v1/requests/"+key, nil, nil)
		if w.Code != http.StatusOK {
			t.Fatalf("get %q expected 200, got %d", key, w.Code)
		}
	}

	// --- GET allowed transitions out of NEW ---
	w = doJSON(t, r, http.MethodGet, "/api/v1/requests/"+created.ID+"/allowed-transitions", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("allowed-transitions expected 200, got %d", w.Code)
	}
	var allowed struct {
		Status  domain.Status    `json:"status"`
		Allowed []map[string]any `json:"allowed"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &allowed); err != nil {
		t.Fatalf("decode allowed: %v", err)
	}
	if allowed.Status != domain.StatusNew || len(allowed.Allowed) != 3 {
		t.Fatalf("unexpected allowed transitions: %+v", allowed)
	}

	// --- transition without actor header → 400 ---
	w = doJSON(t, r, http.MethodPost, "/api/v1/requests/"+created.ID+"/status",
		map[string]any{"status": "IN_REVIEW_DOCS"}, nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("missing actor expected 400, got %d", w.Code)
	}

	actor := map[string]string{"X-Actor-ID": "agent-17"}

	// --- NEW → IN_REVIEW_DOCS ---
	w = doJSON(t, r, http.MethodPost, "/api/v1/requests/"+created.ID+"/status",
		map[string]any{"status": "IN_REVIEW_DOCS"}, actor)
	if w.Code != http.StatusOK {
		t.Fatalf("transition expected 200, got %d body=%s", w.Code, w.Body.String())
	}

	// --- illegal move IN_REVIEW_DOCS → DELIVERED → 422 ---
	w = doJSON(t, r, http.MethodPost, "/api/v1/requests/"+created.ID+"/status",
		map[string]any{"status": "DELIVERED"}, actor)
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("illegal transition expected 422, got %d", w.Code)
	}

	// --- APPROVED_BY_AGENT without observation → 422 ---
	w = doJSON(t, r, http.MethodPost, "/api/v1/requests/"+created.ID+"/status",
		map[string]any{"status": "APPROVED_BY_AGENT"}, actor)
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("missing observation expected 422, got %d", w.Code)
	}

	// --- APPROVED_BY_AGENT with observation → 200 ---
	w = doJSON(t, r, http.MethodPost, "/api/v1/requests/"+created.ID+"/status",
		map[string]any{"status": "APPROVED_BY_AGENT", "observation": "documents verified"}, actor)
	if w.Code != http.StatusOK {
		t.Fatalf("approve expected 200, got %d body=%s", w.Code, w.Body.String())
	}

	// --- GET history: two entries, oldest first ---
	w = doJSON(t, r, http.MethodGet, "/api/v1/requests/"+created.ID+"/history", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("history expected 200, got %d", w.Code)
	}
	var hist struct {
		History []domain.StatusHistoryEntry `json:"history"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &hist); err != nil {
		t.Fatalf("decode history: %v", err)
	}
	if len(hist.History) != 2 {
		t.Fatalf("expected 2 history entries, got %d", len(hist.History))
	}
	if hist.History[0].NewStatus != domain.StatusInReviewDocs || hist.History[1].NewStatus != domain.StatusApprovedByAgent {
		t.Fatalf("history out of order: %+v", hist.History)
	}

	// --- GET list + stats ---
	w = doJSON(t, r, http.MethodGet, "/api/v1/requests?service_type=VISA", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list expected 200, got %d", w.Code)
	}
	var list struct {
		Requests   []domain.Request `json:"requests"`
		Pagination struct {
			Total int64 `json:"total"`
		} `json:"pagination"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if list.Pagination.Total != 1 || len(list.Requests) != 1 {
		t.Fatalf("unexpected listing: %+v", list)
	}

	w = doJSON(t, r, http.MethodGet, "/api/v1/requests/stats", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("stats expected 200, got %d", w.Code)
	}
}

func TestRouter_CreateValidationErrors(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	RegisterRoutes(r, newTestDB(t), testConfig())

	// Unknown service type
	w := doJSON(t, r, http.MethodPost, "/api/v1/requests",
		map[string]any{"service_type": "TEA_CEREMONY", "fields": map[string]any{}}, nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("unknown type expected 400, got %d", w.Code)
	}

	// Missing fields → validation_failed with per-field errors
	w = doJSON(t, r, http.MethodPost, "/api/v1/requests",
		map[string]any{"service_type": "VISA", "fields": map[string]any{}}, nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("invalid submission expected 400, got %d", w.Code)
	}
	var body struct {
		Code   string `json:"code"`
		Errors []struct {
			Field string `json:"field"`
			Code  string `json:"code"`
		} `json:"errors"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	if body.Code != "validation_failed" || len(body.Errors) == 0 {
		t.Fatalf("expected field errors, got %+v", body)
	}
}

func TestRouter_IdempotentCreateReplay(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	RegisterRoutes(r, newTestDB(t), testConfig())

	body := map[string]any{
		"service_type": "CONSULAR_CARD",
		"fields": map[string]any{
			"firstName":   "moussa",
			"lastName":    "fall",
			"dateOfBirth": "1985-07-01",
			"birthPlace":  "Thiès",
			"profession":  "nurse",
			"homeAddress": "Berlin, Germany",
			"arrivalDate": "2020-02-15",
		},
	}
	hdrs := map[string]string{
		"X-User-ID":                     "u1",
		middleware.HeaderIdempotencyKey: "create-cc-1",
	}

	w := doJSON(t, r, http.MethodPost, "/api/v1/requests", body, hdrs)
	if w.Code != http.StatusCreated {
		t.Fatalf("first create expected 201, got %d body=%s", w.Code, w.Body.String())
	}
	var first domain.Request
	if err := json.Unmarshal(w.Body.Bytes(), &first); err != nil {
		t.Fatalf("decode first: %v", err)
	}

	// Same key replays the original instead of creating a duplicate.
	w = doJSON(t, r, http.MethodPost, "/api/v1/requests", body, hdrs)
	if w.Code != http.StatusOK {
		t.Fatalf("replay expected 200, got %d body=%s", w.Code, w.Body.String())
	}
	if w.Header().Get("Idempotency-Replayed") != "true" {
		t.Fatalf("expected replay marker header")
	}
	var second domain.Request
	if err := json.Unmarshal(w.Body.Bytes(), &second); err != nil {
		t.Fatalf("decode second: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("replay returned a different request: %s vs %s", second.ID, first.ID)
	}
}

func Test_limitBody_Middleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	// tiny cap to trigger MaxBytesReader
	r.Use(limitBody(10))
	r.POST("/echo", func(c *gin.Context) {
		_, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.String(http.StatusRequestEntityTooLarge, "too big")
			return
		}
		c.String(http.StatusOK, "ok")
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/echo", bytes.NewBufferString("0123456789AB")) // 12 bytes
	r.ServeHTTP(w, req)
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413 from limitBody, got %d", w.Code)
	}
}

func Test_groupWithPrefix(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	// "/" and "" should mount at root
	root1 := groupWithPrefix(r, "/")
	root1.GET("/one", func(c *gin.Context) { c.String(http.StatusOK, "one") })
	root2 := groupWithPrefix(r, "")
	root2.GET("/two", func(c *gin.Context) { c.String(http.StatusOK, "two") })

	// non-root prefix
	api := groupWithPrefix(r, "/api")
	api.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	for path, want := range map[string]string{"/one": "one", "/two": "two", "/api/ping": "pong"} {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, path, nil)
		r.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK || rec.Body.String() != want {
			t.Fatalf("GET %s got %d %q", path, rec.Code, rec.Body.String())
		}
	}
}

func Test_requestRepoShim_Proxies(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := newTestDB(t)

	shim := requestRepoShim{}
	ctx := context.Background()

	req := &domain.Request{
		ID:             "11111111-2222-4333-8444-555566667777",
		TicketNumber:   "CONS-20260830-AB12CD",
		ServiceType:    domain.ServiceBirthAct,
		Status:         domain.StatusNew,
		Version:        1,
		SubmissionDate: time.Now().UTC(),
	}
	if err := shim.CreateRequest(ctx, db, req); err != nil {
		t.Fatalf("CreateRequest: %v", err)
	}

	got, err := shim.GetRequest(ctx, db, req.ID)
	if err != nil || got.ID != req.ID {
		t.Fatalf("GetRequest: %v %+v", err, got)
	}
	byTicket, err := shim.GetRequestByTicket(ctx, db, req.TicketNumber)
	if err != nil || byTicket.ID != req.ID {
		t.Fatalf("GetRequestByTicket: %v", err)
	}

	n, err := shim.CountRequests(ctx, db, listFilterForStatus(domain.StatusNew))
	if err != nil || n != 1 {
		t.Fatalf("CountRequests: n=%d err=%v", n, err)
	}
	page, err := shim.ListRequestsPage(ctx, db, listFilterForStatus(domain.StatusNew), 0, 10)
	if err != nil || len(page) != 1 {
		t.Fatalf("ListRequestsPage: len=%d err=%v", len(page), err)
	}

	// Transition via shim, then read history back.
	old := got.Status
	got.Status = domain.StatusInReviewDocs
	got.UpdatedAt = time.Now().UTC()
	entry := &domain.StatusHistoryEntry{
		RequestID: got.ID,
		OldStatus: &old,
		NewStatus: domain.StatusInReviewDocs,
		ChangerID: "agent-1",
		ChangedAt: time.Now().UTC(),
	}
	if err := shim.ApplyStatusChange(ctx, db, got, entry); err != nil {
		t.Fatalf("ApplyStatusChange: %v", err)
	}
	hist, err := shim.ListStatusHistory(ctx, db, got.ID)
	if err != nil || len(hist) != 1 {
		t.Fatalf("ListStatusHistory: len=%d err=%v", len(hist), err)
	}
}

// --- helpers ---

func listFilterForStatus(st domain.Status) services.ListFilter {
	return services.ListFilter{Status: &st}
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}
