package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/suteetoe/shopstock/internal/model"
	"github.com/suteetoe/shopstock/internal/testdb"
	"github.com/suteetoe/shopstock/pkg/jwtutil"
	"gorm.io/gorm"
)

type testServer struct {
	t   *testing.T
	db  *gorm.DB
	e   *echo.Echo
	jwt *jwtutil.JWTUtil
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	db := testdb.Open(t)
	jwt := jwtutil.NewJWTUtil(&jwtutil.JWTConfig{SigningKey: "test-signing-key", ExpirationHours: 1})
	return &testServer{
		t:   t,
		db:  db,
		e:   New(Deps{ServiceName: "shopstock-test", DB: db, JWT: jwt}),
		jwt: jwt,
	}
}

func (s *testServer) token(acc model.Account) string {
	s.t.Helper()

	token, err := s.jwt.GenerateToken(acc.ID, acc.Username, acc.ShopID, acc.IsStaff)
	if err != nil {
		s.t.Fatalf("generate token: %v", err)
	}
	return token
}

type response struct {
	Code   int
	Header http.Header
	Body   []byte
}

func (r response) decode(t *testing.T, v any) {
	t.Helper()
	if err := json.Unmarshal(r.Body, v); err != nil {
		t.Fatalf("decode %s: %v", r.Body, err)
	}
}

type errorBody struct {
	Error struct {
		Code      string              `json:"code"`
		Message   string              `json:"message"`
		Fields    map[string][]string `json:"fields"`
		Retryable bool                `json:"retryable"`
	} `json:"error"`
}

func (r response) errorBody(t *testing.T) errorBody {
	t.Helper()
	var body errorBody
	r.decode(t, &body)
	return body
}

func (s *testServer) do(method, path, token, body string) response {
	s.t.Helper()

	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return response{Code: rec.Code, Header: rec.Header(), Body: rec.Body.Bytes()}
}

func expectStatus(t *testing.T, r response, want int) {
	t.Helper()
	if r.Code != want {
		t.Fatalf("status = %d, want %d; body %s", r.Code, want, r.Body)
	}
}

func expectError(t *testing.T, r response, status int, code string) errorBody {
	t.Helper()
	expectStatus(t, r, status)
	body := r.errorBody(t)
	if body.Error.Code != code {
		t.Fatalf("code = %q, want %q; body %s", body.Error.Code, code, r.Body)
	}
	return body
}

// seed creates two shops with their owners
func (s *testServer) seed() (alice, bob model.Account, shopA, shopB model.Shop) {
	s.t.Helper()

	alice = testdb.Account(s.t, s.db, "alice", nil, false)
	shopA = testdb.Shop(s.t, s.db, "Alice Groceries", &alice)
	bob = testdb.Account(s.t, s.db, "bob", nil, false)
	shopB = testdb.Shop(s.t, s.db, "Bob Hardware", &bob)
	return alice, bob, shopA, shopB
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)

	r := s.do(http.MethodGet, "/health", "", "")
	expectStatus(t, r, http.StatusOK)
	if r.Header.Get(echo.HeaderXRequestID) == "" {
		t.Fatal("missing X-Request-ID header")
	}

	r = s.do(http.MethodGet, "/metrics", "", "")
	expectStatus(t, r, http.StatusOK)
}

func TestRequestIDIsKept(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(echo.HeaderXRequestID, "req-123")
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)

	if got := rec.Header().Get(echo.HeaderXRequestID); got != "req-123" {
		t.Fatalf("X-Request-ID = %q, want req-123", got)
	}
}

func TestAuthentication(t *testing.T) {
	s := newTestServer(t)
	alice, _, _, _ := s.seed()

	tests := []struct {
		name   string
		header string
	}{
		{"missing", ""},
		{"not bearer", "Token abc"},
		{"bad token", "Bearer not-a-jwt"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/products", nil)
			if tt.header != "" {
				req.Header.Set(echo.HeaderAuthorization, tt.header)
			}
			rec := httptest.NewRecorder()
			s.e.ServeHTTP(rec, req)
			expectError(t, response{Code: rec.Code, Body: rec.Body.Bytes()}, http.StatusUnauthorized, "UNAUTHORIZED")
		})
	}

	other := jwtutil.NewJWTUtil(&jwtutil.JWTConfig{SigningKey: "another-key", ExpirationHours: 1})
	forged, err := other.GenerateToken(alice.ID, alice.Username, alice.ShopID, true)
	if err != nil {
		t.Fatalf("forge: %v", err)
	}
	expectError(t, s.do(http.MethodGet, "/api/products", forged, ""), http.StatusUnauthorized, "UNAUTHORIZED")

	token := s.token(alice)
	if err := s.db.Model(&model.Account{}).Where("id = ?", alice.ID).Update("is_active", false).Error; err != nil {
		t.Fatalf("disable: %v", err)
	}
	body := expectError(t, s.do(http.MethodGet, "/api/products", token, ""), http.StatusUnauthorized, "UNAUTHORIZED")
	if body.Error.Message != "Account is disabled." {
		t.Fatalf("message = %q", body.Error.Message)
	}
}

func TestShopChangeTakesEffectWithoutNewToken(t *testing.T) {
	s := newTestServer(t)
	alice, _, shopA, _ := s.seed()
	carol := testdb.Account(t, s.db, "carol", nil, false)
	token := s.token(carol)

	expectError(t, s.do(http.MethodPost, "/api/categories", token, `{"name":"Fruit"}`), http.StatusForbidden, "FORBIDDEN")

	r := s.do(http.MethodPut, fmt.Sprintf("/api/accounts/%d/shop", carol.ID), s.token(alice), fmt.Sprintf(`{"shop_id":%d}`, shopA.ID))
	expectStatus(t, r, http.StatusOK)

	r = s.do(http.MethodPost, "/api/categories", token, `{"name":"Fruit"}`)
	expectStatus(t, r, http.StatusCreated)
	var category model.Category
	r.decode(t, &category)
	if category.ShopID != shopA.ID {
		t.Fatalf("shop = %d, want %d", category.ShopID, shopA.ID)
	}
}

func TestInventoryLedgerOverHTTP(t *testing.T) {
	s := newTestServer(t)
	alice, bob, _, _ := s.seed()
	token := s.token(alice)

	r := s.do(http.MethodPost, "/api/products", token, `{"name":"Apples","price":"1.25","tax_rate":7,"initial_stock":100}`)
	expectStatus(t, r, http.StatusCreated)
	var product model.Product
	r.decode(t, &product)
	if product.StockQuantity != 100 {
		t.Fatalf("stock = %d, want 100", product.StockQuantity)
	}

	movement := func(kind string, qty int) response {
		return s.do(http.MethodPost, "/api/inventory", token,
			fmt.Sprintf(`{"product_id":%d,"movement_type":%q,"quantity":%d}`, product.ID, kind, qty))
	}

	r = movement("removal", 30)
	expectStatus(t, r, http.StatusCreated)
	var entry model.InventoryEntry
	r.decode(t, &entry)
	if entry.BalanceBefore != 100 || entry.BalanceAfter != 70 {
		t.Fatalf("entry = %+v", entry)
	}
	expectStatus(t, movement("addition", 10), http.StatusCreated)

	r = s.do(http.MethodGet, fmt.Sprintf("/api/products/%d", product.ID), token, "")
	expectStatus(t, r, http.StatusOK)
	r.decode(t, &product)
	if product.StockQuantity != 80 {
		t.Fatalf("stock = %d, want 80", product.StockQuantity)
	}

	var page struct {
		Count   int                    `json:"count"`
		Results []model.InventoryEntry `json:"results"`
	}
	r = s.do(http.MethodGet, fmt.Sprintf("/api/inventory?product_id=%d", product.ID), token, "")
	expectStatus(t, r, http.StatusOK)
	r.decode(t, &page)
	if page.Count != 3 {
		t.Fatalf("entries = %d, want 3", page.Count)
	}

	body := expectError(t, movement("removal", 81), http.StatusBadRequest, "INSUFFICIENT_STOCK")
	if body.Error.Message != "Cannot remove 81 items. Only 80 available in stock." || body.Error.Retryable {
		t.Fatalf("error = %+v", body.Error)
	}
	if len(body.Error.Fields["quantity"]) == 0 {
		t.Fatalf("fields = %v, want quantity", body.Error.Fields)
	}

	expectError(t, movement("theft", 1), http.StatusBadRequest, "INVALID_MOVEMENT_TYPE")
	expectError(t, s.do(http.MethodPost, "/api/inventory", token, `{"product_id":`), http.StatusBadRequest, "VALIDATION_ERROR")

	r = s.do(http.MethodPost, "/api/inventory", s.token(bob),
		fmt.Sprintf(`{"product_id":%d,"movement_type":"removal","quantity":1}`, product.ID))
	expectError(t, r, http.StatusForbidden, "CROSS_TENANT_REFERENCE")

	var report struct {
		StockQuantity    int  `json:"stock_quantity"`
		ReplayedQuantity int  `json:"replayed_quantity"`
		Consistent       bool `json:"consistent"`
	}
	r = s.do(http.MethodGet, fmt.Sprintf("/api/products/%d/ledger/verify", product.ID), token, "")
	expectStatus(t, r, http.StatusOK)
	r.decode(t, &report)
	if !report.Consistent || report.StockQuantity != 80 || report.ReplayedQuantity != 80 {
		t.Fatalf("report = %+v", report)
	}

	expectError(t, s.do(http.MethodGet, fmt.Sprintf("/api/products/%d", product.ID), s.token(bob), ""), http.StatusNotFound, "NOT_FOUND")
}

func TestDeleteProductOverHTTP(t *testing.T) {
	s := newTestServer(t)
	alice, _, _, _ := s.seed()
	token := s.token(alice)

	r := s.do(http.MethodPost, "/api/products", token, `{"name":"Pears","price":"2.00","tax_rate":"0","initial_stock":4}`)
	expectStatus(t, r, http.StatusCreated)
	var product model.Product
	r.decode(t, &product)

	path := fmt.Sprintf("/api/products/%d", product.ID)
	expectError(t, s.do(http.MethodDelete, path, token, ""), http.StatusBadRequest, "HAS_REMAINING_STOCK")

	r = s.do(http.MethodPost, "/api/inventory", token,
		fmt.Sprintf(`{"product_id":%d,"movement_type":"adjustment","quantity":0}`, product.ID))
	expectStatus(t, r, http.StatusCreated)

	expectStatus(t, s.do(http.MethodDelete, path, token, ""), http.StatusOK)
	expectError(t, s.do(http.MethodGet, path, token, ""), http.StatusNotFound, "NOT_FOUND")
	expectError(t, s.do(http.MethodGet, "/api/products/abc", token, ""), http.StatusNotFound, "NOT_FOUND")
}

func TestLowStockThreshold(t *testing.T) {
	s := newTestServer(t)
	alice, _, _, _ := s.seed()
	token := s.token(alice)

	for _, body := range []string{
		`{"name":"Few","price":"1","tax_rate":"0","initial_stock":3}`,
		`{"name":"Many","price":"1","tax_rate":"0","initial_stock":30}`,
	} {
		expectStatus(t, s.do(http.MethodPost, "/api/products", token, body), http.StatusCreated)
	}

	var page struct {
		Count int `json:"count"`
	}
	r := s.do(http.MethodGet, "/api/products/low-stock", token, "")
	expectStatus(t, r, http.StatusOK)
	r.decode(t, &page)
	if page.Count != 1 {
		t.Fatalf("default threshold count = %d, want 1", page.Count)
	}

	r = s.do(http.MethodGet, "/api/products/low-stock?threshold=31", token, "")
	expectStatus(t, r, http.StatusOK)
	r.decode(t, &page)
	if page.Count != 2 {
		t.Fatalf("threshold 31 count = %d, want 2", page.Count)
	}

	for _, q := range []string{"-1", "abc"} {
		body := expectError(t, s.do(http.MethodGet, "/api/products/low-stock?threshold="+q, token, ""), http.StatusBadRequest, "VALIDATION_ERROR")
		if len(body.Error.Fields["threshold"]) == 0 {
			t.Fatalf("threshold %s: fields = %v", q, body.Error.Fields)
		}
	}

	expectError(t, s.do(http.MethodGet, "/api/products?page=x", token, ""), http.StatusBadRequest, "VALIDATION_ERROR")
}

func TestOrdersOverHTTP(t *testing.T) {
	s := newTestServer(t)
	alice, bob, _, shopB := s.seed()
	token := s.token(alice)
	delivery := time.Now().Add(72 * time.Hour).UTC().Format(time.RFC3339)

	r := s.do(http.MethodPost, "/api/orders", token, fmt.Sprintf(`{"total_items":12,"delivery_date":%q,"notes":"crates"}`, delivery))
	expectStatus(t, r, http.StatusCreated)
	var order model.Order
	r.decode(t, &order)
	if order.Status != model.OrderPending {
		t.Fatalf("status = %s, want pending", order.Status)
	}

	tooSoon := time.Now().Add(time.Hour).UTC().Format(time.RFC3339)
	body := expectError(t, s.do(http.MethodPost, "/api/orders", token, fmt.Sprintf(`{"total_items":0,"delivery_date":%q}`, tooSoon)),
		http.StatusBadRequest, "VALIDATION_ERROR")
	if len(body.Error.Fields["total_items"]) == 0 || len(body.Error.Fields["delivery_date"]) == 0 {
		t.Fatalf("fields = %v", body.Error.Fields)
	}

	path := fmt.Sprintf("/api/orders/%d", order.ID)
	expectError(t, s.do(http.MethodPut, path, token, fmt.Sprintf(`{"shop_id":%d}`, shopB.ID)), http.StatusBadRequest, "IMMUTABLE_TENANT")
	expectError(t, s.do(http.MethodPut, path, s.token(bob), `{"total_items":3}`), http.StatusNotFound, "NOT_FOUND")

	r = s.do(http.MethodPut, path, token, `{"total_items":20}`)
	expectStatus(t, r, http.StatusOK)
	r.decode(t, &order)
	if order.TotalItems != 20 {
		t.Fatalf("total_items = %d, want 20", order.TotalItems)
	}

	var all struct {
		Count   int `json:"count"`
		Results []struct {
			CategoryName string `json:"category_name"`
			ShopName     string `json:"shop_name"`
			Status       string `json:"status"`
		} `json:"results"`
	}
	r = s.do(http.MethodGet, "/api/orders/all", token, "")
	expectStatus(t, r, http.StatusOK)
	r.decode(t, &all)
	if all.Count != 1 || all.Results[0].CategoryName != "Uncategorized" || all.Results[0].ShopName != "Alice Groceries" {
		t.Fatalf("all = %+v", all)
	}

	past := time.Now().Add(-time.Second)
	if err := s.db.Model(&model.Order{}).Where("id = ?", order.ID).Update("delivery_date", past).Error; err != nil {
		t.Fatalf("backdate: %v", err)
	}
	expectError(t, s.do(http.MethodPut, path, token, `{"total_items":5}`), http.StatusBadRequest, "ORDER_LOCKED")
	expectError(t, s.do(http.MethodDelete, path, token, ""), http.StatusBadRequest, "ORDER_LOCKED")

	r = s.do(http.MethodPost, "/api/orders", token, fmt.Sprintf(`{"total_items":1,"delivery_date":%q}`, delivery))
	expectStatus(t, r, http.StatusCreated)
	r.decode(t, &order)
	expectStatus(t, s.do(http.MethodDelete, fmt.Sprintf("/api/orders/%d", order.ID), token, ""), http.StatusNoContent)
}

func TestShopsAndAccountsOverHTTP(t *testing.T) {
	s := newTestServer(t)
	alice, bob, shopA, _ := s.seed()
	root := testdb.Account(t, s.db, "root", nil, true)

	r := s.do(http.MethodGet, "/api/accounts/me", s.token(alice), "")
	expectStatus(t, r, http.StatusOK)
	var me map[string]any
	r.decode(t, &me)
	if me["username"] != "alice" {
		t.Fatalf("me = %v", me)
	}
	if _, ok := me["password_hash"]; ok {
		t.Fatal("password hash leaked")
	}

	expectError(t, s.do(http.MethodGet, "/api/accounts", s.token(alice), ""), http.StatusForbidden, "FORBIDDEN")
	expectStatus(t, s.do(http.MethodGet, "/api/accounts", s.token(root), ""), http.StatusOK)

	shopPath := fmt.Sprintf("/api/shops/%d", shopA.ID)
	expectError(t, s.do(http.MethodPut, shopPath, s.token(bob), `{"name":"Mine"}`), http.StatusNotFound, "NOT_FOUND")
	expectStatus(t, s.do(http.MethodPut, shopPath, s.token(alice), `{"name":"Alice Market"}`), http.StatusOK)

	r = s.do(http.MethodPost, "/api/shops", s.token(root), `{"name":"Head Office"}`)
	expectStatus(t, r, http.StatusCreated)

	expectStatus(t, s.do(http.MethodDelete, shopPath, s.token(root), ""), http.StatusNoContent)
	expectError(t, s.do(http.MethodGet, shopPath, s.token(root), ""), http.StatusNotFound, "NOT_FOUND")

	expectStatus(t, s.do(http.MethodDelete, fmt.Sprintf("/api/accounts/%d", bob.ID), s.token(bob), ""), http.StatusNoContent)
}

func TestUnknownRoute(t *testing.T) {
	s := newTestServer(t)
	alice, _, _, _ := s.seed()

	expectError(t, s.do(http.MethodGet, "/api/nothing-here", s.token(alice), ""), http.StatusNotFound, "NOT_FOUND")
	expectError(t, s.do(http.MethodGet, "/nothing-here", "", ""), http.StatusNotFound, "NOT_FOUND")
}
