package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"shopbridge/internal/auth"
	"shopbridge/internal/domain"
	"shopbridge/internal/metrics"
	"shopbridge/internal/payment"
	"shopbridge/internal/repository/memory"
	"shopbridge/internal/service/access"
	"shopbridge/internal/service/catalog"
	"shopbridge/internal/service/checkout"
	"shopbridge/internal/service/order"
	"shopbridge/internal/service/pricing"
	"shopbridge/internal/service/profile"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const adminPrincipal = "admin-1"

type stubProvider struct {
	mu       sync.Mutex
	sessions map[string]*payment.Session
	next     int
}

func (p *stubProvider) OpenSession(_ context.Context, req payment.OpenSessionRequest) (*payment.Session, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.next++
	var total int64
	for _, item := range req.Items {
		total += item.PriceInCents * item.Quantity
	}
	s := &payment.Session{
		ID:          fmt.Sprintf("cs_%d", p.next),
		URL:         fmt.Sprintf("https://pay.example/cs_%d", p.next),
		Status:      domain.SessionStatusOpen,
		Principal:   req.ClientReference,
		AmountTotal: total,
		Currency:    req.Currency,
	}
	p.sessions[s.ID] = s
	clone := *s
	return &clone, nil
}

func (p *stubProvider) GetSession(_ context.Context, _, id string) (*payment.Session, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	s, ok := p.sessions[id]
	if !ok {
		return nil, &payment.Error{StatusCode: http.StatusNotFound, Message: "no such session"}
	}
	clone := *s
	return &clone, nil
}

func (p *stubProvider) complete(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sessions[id].Status = domain.SessionStatusCompleted
}

type testServer struct {
	router   *gin.Engine
	issuer   *auth.Issuer
	provider *stubProvider
	store    *memory.Store
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := memory.NewStore()
	log := zap.NewNop()
	m := metrics.New()
	gate := access.New(store.Roles(), []string{adminPrincipal}, log)
	issuer := auth.NewIssuer("test-secret", time.Hour, "shopbridge")
	provider := &stubProvider{sessions: map[string]*payment.Session{}}

	checkoutSvc := checkout.New(checkout.Deps{
		Settings: store.Settings(),
		Sessions: store.Sessions(),
		Provider: provider,
		Gate:     gate,
		Metrics:  m,
		Logger:   log,
	}, checkout.Config{Currency: "inr", MaxRetries: 1})

	router, err := buildRouter(log, Deps{
		Catalog:  catalog.New(store.Products(), gate, log),
		Pricing:  pricing.New(store.Settings(), gate, log).WithMetrics(m),
		Checkout: checkoutSvc,
		Orders: order.New(order.Deps{
			Orders:   store.Orders(),
			Sessions: checkoutSvc,
			Gate:     gate,
			Metrics:  m,
			Logger:   log,
		}, order.Config{RequireCheckoutSession: true}),
		Profiles: profile.New(store.Users(), gate, issuer, log),
		Roles:    gate,
		Tokens:   issuer,
		Metrics:  m,
	})
	if err != nil {
		t.Fatalf("build router: %v", err)
	}
	return &testServer{router: router, issuer: issuer, provider: provider, store: store}
}

func (s *testServer) token(t *testing.T, principal string) string {
	t.Helper()
	tok, err := s.issuer.Issue(principal, "")
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return tok.AccessToken
}

func (s *testServer) do(t *testing.T, method, path, token string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %s: %v", rec.Body.String(), err)
	}
}

func TestBuildRouter_RequiresDeps(t *testing.T) {
	if _, err := buildRouter(zap.NewNop(), Deps{}); err == nil {
		t.Fatalf("expected error for missing deps")
	}
}

func TestHealthAndReady(t *testing.T) {
	s := newTestServer(t)
	if rec := s.do(t, http.MethodGet, "/healthz", "", nil); rec.Code != http.StatusOK {
		t.Fatalf("healthz: %d", rec.Code)
	}
	rec := s.do(t, http.MethodGet, "/readyz", "", nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "memory") {
		t.Fatalf("readyz: %d %s", rec.Code, rec.Body.String())
	}
	rec = s.do(t, http.MethodGet, "/metrics", "", nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "shopbridge_http_requests_total") {
		t.Fatalf("metrics: %d", rec.Code)
	}
}

func TestMarkupRepricesCatalog(t *testing.T) {
	s := newTestServer(t)
	admin := s.token(t, adminPrincipal)

	rec := s.do(t, http.MethodPost, "/products", admin, map[string]any{
		"name":      "Steel Bottle",
		"platform":  map[string]string{"kind": "amazon"},
		"basePrice": 1000,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("add product: %d %s", rec.Code, rec.Body.String())
	}

	user := s.token(t, "user-1")
	if rec := s.do(t, http.MethodPut, "/settings/markup", user, map[string]int{"markupPercent": 20}); rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for user markup change, got %d", rec.Code)
	}
	if rec := s.do(t, http.MethodPut, "/settings/markup", "", map[string]int{"markupPercent": 20}); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for guest markup change, got %d", rec.Code)
	}
	if rec := s.do(t, http.MethodPut, "/settings/markup", admin, map[string]int{"markupPercent": 101}); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for markup 101, got %d", rec.Code)
	}
	if rec := s.do(t, http.MethodPut, "/settings/markup", admin, map[string]int{"markupPercent": 20}); rec.Code != http.StatusOK {
		t.Fatalf("set markup: %d %s", rec.Code, rec.Body.String())
	}

	rec = s.do(t, http.MethodGet, "/products/1", "", nil)
	var p struct {
		ListedPrice  int64 `json:"listedPrice"`
		ReturnPolicy struct {
			ReturnPeriod string `json:"returnPeriod"`
		} `json:"returnPolicy"`
	}
	decode(t, rec, &p)
	if p.ListedPrice != 1200 || p.ReturnPolicy.ReturnPeriod != "30 days" {
		t.Fatalf("unexpected product %s", rec.Body.String())
	}

	rec = s.do(t, http.MethodGet, "/products/search?q=bottle&platform=amazon", "", nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"total":1`) {
		t.Fatalf("search: %d %s", rec.Code, rec.Body.String())
	}
	if rec := s.do(t, http.MethodGet, "/products/abc", "", nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad id, got %d", rec.Code)
	}
	if rec := s.do(t, http.MethodGet, "/products/99", "", nil); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestCheckoutToOrderFlow(t *testing.T) {
	s := newTestServer(t)
	admin := s.token(t, adminPrincipal)
	user := s.token(t, "user-1")

	if rec := s.do(t, http.MethodPost, "/products", admin, map[string]any{
		"name": "Kurta", "platform": map[string]string{"kind": "meesho"}, "basePrice": 1200,
	}); rec.Code != http.StatusCreated {
		t.Fatalf("add product: %d", rec.Code)
	}

	session := map[string]any{
		"lines":      []map[string]int{{"productId": 1, "quantity": 2}},
		"successUrl": "https://shop.example/ok",
		"cancelUrl":  "https://shop.example/cancel",
	}
	if rec := s.do(t, http.MethodPost, "/checkout/sessions", user, session); rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 before configuration, got %d %s", rec.Code, rec.Body.String())
	}

	rec := s.do(t, http.MethodPut, "/settings/payment", admin, map[string]any{
		"secretKey": "sk_test_abcdef", "allowedCountries": []string{"in"},
	})
	if rec.Code != http.StatusOK || strings.Contains(rec.Body.String(), "sk_test_abcdef") {
		t.Fatalf("configure payment: %d %s", rec.Code, rec.Body.String())
	}
	rec = s.do(t, http.MethodGet, "/settings/payment", "", nil)
	if rec.Code != http.StatusOK || rec.Body.String() != `{"configured":true}` {
		t.Fatalf("guest payment view: %d %s", rec.Code, rec.Body.String())
	}

	rec = s.do(t, http.MethodPost, "/checkout/sessions", user, session)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create session: %d %s", rec.Code, rec.Body.String())
	}
	var cs struct {
		ID          string `json:"id"`
		URL         string `json:"url"`
		AmountTotal int64  `json:"amountTotal"`
	}
	decode(t, rec, &cs)
	if cs.URL == "" || cs.AmountTotal != 2400 {
		t.Fatalf("unexpected session %+v", cs)
	}

	orderBody := map[string]any{
		"customer":          map[string]string{"name": "Asha", "email": "asha@example.com"},
		"products":          []map[string]int64{{"productId": 1, "quantity": 2, "priceAtPurchase": 1200}},
		"total":             2400,
		"checkoutSessionId": cs.ID,
	}
	if rec := s.do(t, http.MethodPost, "/orders", user, orderBody); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unsettled session, got %d %s", rec.Code, rec.Body.String())
	}

	s.provider.complete(cs.ID)
	rec = s.do(t, http.MethodGet, "/checkout/sessions/"+cs.ID, user, nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"status":"completed"`) {
		t.Fatalf("session status: %d %s", rec.Code, rec.Body.String())
	}
	if rec := s.do(t, http.MethodGet, "/checkout/sessions/"+cs.ID, s.token(t, "user-2"), nil); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for foreign session, got %d", rec.Code)
	}

	bad := map[string]any{
		"products":          orderBody["products"],
		"total":             2000,
		"checkoutSessionId": cs.ID,
	}
	if rec := s.do(t, http.MethodPost, "/orders", user, bad); rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for total mismatch, got %d", rec.Code)
	}

	rec = s.do(t, http.MethodPost, "/orders", user, orderBody)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create order: %d %s", rec.Code, rec.Body.String())
	}
	var created domain.Order
	decode(t, rec, &created)
	if created.PaymentStatus != domain.PaymentStatusCompleted || created.OrderStatus != domain.OrderStatusPending {
		t.Fatalf("unexpected order %+v", created)
	}

	rec = s.do(t, http.MethodPost, "/orders", user, orderBody)
	var replay domain.Order
	decode(t, rec, &replay)
	if rec.Code != http.StatusOK || replay.ID != created.ID {
		t.Fatalf("expected replay of order %d, got %d %s", created.ID, rec.Code, rec.Body.String())
	}

	path := fmt.Sprintf("/orders/%d/status", created.ID)
	if rec := s.do(t, http.MethodPut, path, user, map[string]string{"status": "shipped"}); rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for user status change, got %d", rec.Code)
	}
	if rec := s.do(t, http.MethodPut, path, admin, map[string]string{"status": "shipped"}); rec.Code != http.StatusOK {
		t.Fatalf("ship: %d %s", rec.Code, rec.Body.String())
	}
	if rec := s.do(t, http.MethodPut, path, admin, map[string]string{"status": "pending"}); rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 for backwards transition, got %d", rec.Code)
	}
	if rec := s.do(t, http.MethodPut, path, admin, map[string]string{"status": "lost"}); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown status, got %d", rec.Code)
	}
	notes := fmt.Sprintf("/orders/%d/notes", created.ID)
	if rec := s.do(t, http.MethodPut, notes, admin, map[string]string{"notes": "AWB 123"}); rec.Code != http.StatusOK {
		t.Fatalf("notes: %d %s", rec.Code, rec.Body.String())
	}

	rec = s.do(t, http.MethodGet, "/me/orders", user, nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "AWB 123") {
		t.Fatalf("my orders: %d %s", rec.Code, rec.Body.String())
	}
	if rec := s.do(t, http.MethodGet, "/orders", user, nil); rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for user listing all, got %d", rec.Code)
	}
	rec = s.do(t, http.MethodGet, "/orders?page=0&pageSize=10", admin, nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"pageSize":10`) {
		t.Fatalf("all orders: %d %s", rec.Code, rec.Body.String())
	}
	if rec := s.do(t, http.MethodGet, "/orders?pageSize=500", admin, nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for oversized page, got %d", rec.Code)
	}
	if rec := s.do(t, http.MethodGet, fmt.Sprintf("/orders/%d", created.ID), s.token(t, "user-2"), nil); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for foreign order, got %d", rec.Code)
	}
}

func TestCartQuote(t *testing.T) {
	s := newTestServer(t)
	admin := s.token(t, adminPrincipal)
	for _, name := range []string{"A", "B"} {
		if rec := s.do(t, http.MethodPost, "/products", admin, map[string]any{
			"name": name, "platform": map[string]string{"kind": "other", "label": "Myntra"}, "basePrice": 300,
		}); rec.Code != http.StatusCreated {
			t.Fatalf("add product: %d %s", rec.Code, rec.Body.String())
		}
	}
	rec := s.do(t, http.MethodPost, "/cart/quote", "", map[string]any{
		"lines": []map[string]int{{"productId": 1, "quantity": 2}, {"productId": 2, "quantity": 1}, {"productId": 1, "quantity": 1}},
	})
	var q quoteResponse
	decode(t, rec, &q)
	if rec.Code != http.StatusOK || q.Total != 1200 || q.ItemCount != 4 || len(q.Lines) != 2 {
		t.Fatalf("unexpected quote %d %s", rec.Code, rec.Body.String())
	}
	if rec := s.do(t, http.MethodPost, "/cart/quote", "", map[string]any{"lines": []any{}}); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty cart, got %d", rec.Code)
	}
}

func TestAssignRole(t *testing.T) {
	s := newTestServer(t)
	admin := s.token(t, adminPrincipal)
	user := s.token(t, "user-1")

	if rec := s.do(t, http.MethodPost, "/admin/roles", user, map[string]string{"principal": "user-2", "role": "admin"}); rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
	if rec := s.do(t, http.MethodPost, "/admin/roles", admin, map[string]string{"principal": "user-1", "role": "admin"}); rec.Code != http.StatusOK {
		t.Fatalf("assign: %d %s", rec.Code, rec.Body.String())
	}
	rec := s.do(t, http.MethodGet, "/me/role", user, nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"role":"admin"`) {
		t.Fatalf("role: %d %s", rec.Code, rec.Body.String())
	}
	if rec := s.do(t, http.MethodPost, "/admin/roles", admin, map[string]string{"principal": "user-1", "role": "wizard"}); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown role, got %d", rec.Code)
	}
}
