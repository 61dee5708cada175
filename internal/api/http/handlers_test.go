package httpapi

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"coffee-menu/internal/domain"
	"coffee-menu/internal/metrics"
	"coffee-menu/internal/service"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// memoryRepository keeps items in insertion order and validates ids the way
// the mongo store does.
type memoryRepository struct {
	mu      sync.Mutex
	order   []string
	items   map[string]domain.MenuItem
	err     error
	pingErr error
}

func newMemoryRepository() *memoryRepository {
	return &memoryRepository{items: make(map[string]domain.MenuItem)}
}

func (m *memoryRepository) check(id string) error {
	if _, err := primitive.ObjectIDFromHex(id); err != nil {
		return domain.ErrInvalidID
	}
	return nil
}

func (m *memoryRepository) ListMenuItems(context.Context) ([]domain.MenuItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	out := make([]domain.MenuItem, 0, len(m.order))
	for _, id := range m.order {
		if item, ok := m.items[id]; ok {
			out = append(out, item)
		}
	}
	return out, nil
}

func (m *memoryRepository) GetMenuItem(_ context.Context, id string) (*domain.MenuItem, error) {
	if err := m.check(id); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	item, ok := m.items[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &item, nil
}

func (m *memoryRepository) CreateMenuItem(_ context.Context, item *domain.MenuItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	item.ID = primitive.NewObjectID().Hex()
	m.items[item.ID] = *item
	m.order = append(m.order, item.ID)
	return nil
}

func (m *memoryRepository) UpdateMenuItem(_ context.Context, item *domain.MenuItem) (int64, error) {
	if err := m.check(item.ID); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[item.ID]; !ok {
		return 0, nil
	}
	m.items[item.ID] = *item
	return 1, nil
}

func (m *memoryRepository) DeleteMenuItem(_ context.Context, id string) (int64, error) {
	if err := m.check(id); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[id]; !ok {
		return 0, nil
	}
	delete(m.items, id)
	return 1, nil
}

func (m *memoryRepository) Ping(context.Context) error {
	return m.pingErr
}

func (m *memoryRepository) only(t *testing.T) domain.MenuItem {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	require.Len(t, m.items, 1)
	for _, item := range m.items {
		return item
	}
	return domain.MenuItem{}
}

type testServer struct {
	handler http.Handler
	repo    *memoryRepository
	hook    *test.Hook
}

func newTestServer(t *testing.T, cfg RouterConfig) *testServer {
	t.Helper()
	log, hook := test.NewNullLogger()
	repo := newMemoryRepository()

	menu := service.NewMenuService(repo, nil, service.DefaultQRGenerator{BaseURL: "http://menu.test"}, log)
	views, err := NewViews()
	require.NoError(t, err)

	if cfg.AllowedOrigins == nil {
		cfg.AllowedOrigins = []string{"*"}
	}
	return &testServer{
		handler: NewRouter(NewHandler(menu, views, log), cfg),
		repo:    repo,
		hook:    hook,
	}
}

func (s *testServer) do(req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	s.handler.ServeHTTP(rr, req)
	return rr
}

func (s *testServer) get(path string) *httptest.ResponseRecorder {
	return s.do(httptest.NewRequest(http.MethodGet, path, nil))
}

func (s *testServer) postForm(path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return s.do(req)
}

func TestAddThenListMenu(t *testing.T) {
	srv := newTestServer(t, RouterConfig{})

	rr := srv.postForm("/menu/add", url.Values{
		"name":        {"Latte"},
		"description": {"Milky"},
		"price":       {"3.5"},
		"image":       {"/img/latte.png"},
	})
	assert.Equal(t, http.StatusFound, rr.Code)
	assert.Equal(t, "/", rr.Header().Get("Location"))

	item := srv.repo.only(t)
	assert.Equal(t, 3.5, item.Price)

	rr = srv.get("/")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Type"), "text/html")
	body := rr.Body.String()
	assert.Contains(t, body, "<title>Home</title>")
	assert.Contains(t, body, "Latte")
	assert.Contains(t, body, "3.50")
	assert.Contains(t, body, "/menu/"+item.ID)
}

func TestListEmptyMenu(t *testing.T) {
	srv := newTestServer(t, RouterConfig{})

	rr := srv.get("/")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "The menu is empty.")
}

func TestAddFormPage(t *testing.T) {
	srv := newTestServer(t, RouterConfig{})

	rr := srv.get("/menu/add")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "<title>Add Coffee Menu</title>")
	assert.Contains(t, rr.Body.String(), `action="/menu/add"`)
}

func TestAddIntegerPriceStoredAsFloat(t *testing.T) {
	srv := newTestServer(t, RouterConfig{})

	rr := srv.postForm("/menu/add", url.Values{"name": {"Espresso"}, "price": {"4"}})
	require.Equal(t, http.StatusFound, rr.Code)
	assert.Equal(t, 4.0, srv.repo.only(t).Price)
}

func TestAddJSONBody(t *testing.T) {
	srv := newTestServer(t, RouterConfig{})

	req := httptest.NewRequest(http.MethodPost, "/menu/add",
		strings.NewReader(`{"name":"Cortado","description":"Short","price":2.5}`))
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	rr := srv.do(req)

	require.Equal(t, http.StatusFound, rr.Code)
	item := srv.repo.only(t)
	assert.Equal(t, "Cortado", item.Name)
	assert.Equal(t, 2.5, item.Price)
	assert.Empty(t, item.Image)
}

func TestAddWithoutNumericPriceStoresNaN(t *testing.T) {
	tests := []struct {
		name string
		form url.Values
	}{
		{name: "letters", form: url.Values{"name": {"Mocha"}, "price": {"free"}}},
		{name: "blank", form: url.Values{"name": {"Tea"}, "price": {""}}},
		{name: "missing", form: url.Values{"name": {"Tea"}}},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			srv := newTestServer(t, RouterConfig{})

			rr := srv.postForm("/menu/add", testCase.form)
			assert.Equal(t, http.StatusFound, rr.Code)
			assert.Equal(t, "/", rr.Header().Get("Location"))

			item := srv.repo.only(t)
			assert.Equal(t, testCase.form.Get("name"), item.Name)
			assert.True(t, math.IsNaN(item.Price), "got %v", item.Price)

			rr = srv.get("/")
			assert.Equal(t, http.StatusOK, rr.Code)
			assert.Contains(t, rr.Body.String(), "NaN")
		})
	}
}

func TestEditWithBlankPriceStoresNaN(t *testing.T) {
	srv := newTestServer(t, RouterConfig{})
	srv.postForm("/menu/add", url.Values{"name": {"Latte"}, "price": {"3.5"}})
	item := srv.repo.only(t)

	rr := srv.postForm("/menu/edit/"+item.ID, url.Values{"name": {"Latte"}, "price": {""}})
	assert.Equal(t, http.StatusFound, rr.Code)
	assert.True(t, math.IsNaN(srv.repo.only(t).Price))
}

func TestAddRejectsBadInput(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		contentType string
	}{
		{name: "overflowing price", body: "name=Mocha&price=1e999", contentType: "application/x-www-form-urlencoded"},
		{name: "broken json", body: `{"name":`, contentType: "application/json"},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			srv := newTestServer(t, RouterConfig{})

			req := httptest.NewRequest(http.MethodPost, "/menu/add", strings.NewReader(testCase.body))
			req.Header.Set("Content-Type", testCase.contentType)
			rr := srv.do(req)

			assert.Equal(t, http.StatusBadRequest, rr.Code)
			assert.Empty(t, srv.repo.items)
		})
	}
}

func TestGetMenuItemPage(t *testing.T) {
	srv := newTestServer(t, RouterConfig{})
	srv.postForm("/menu/add", url.Values{
		"name":        {"Mocha"},
		"description": {"Chocolate"},
		"price":       {"5.25"},
		"image":       {"/img/mocha.png"},
	})
	item := srv.repo.only(t)

	rr := srv.get("/menu/" + item.ID)
	assert.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, "<title>Coffee Menu Item</title>")
	assert.Contains(t, body, `<h3 class="name">Mocha</h3>`)
	assert.Contains(t, body, `<p class="description">Chocolate</p>`)
	assert.Contains(t, body, `<p class="price">5.25</p>`)
	assert.Contains(t, body, `src="/img/mocha.png"`)
	assert.Contains(t, body, "/menu/"+item.ID+"/qrcode")
}

func TestEditMenuItem(t *testing.T) {
	srv := newTestServer(t, RouterConfig{})
	srv.postForm("/menu/add", url.Values{
		"name": {"Latte"}, "description": {"Milky"}, "price": {"3.5"}, "image": {"/img/latte.png"},
	})
	item := srv.repo.only(t)

	rr := srv.get("/menu/edit/" + item.ID)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "<title>Edit Coffee Menu</title>")
	assert.Contains(t, rr.Body.String(), `value="Latte"`)

	rr = srv.postForm("/menu/edit/"+item.ID, url.Values{"name": {"Flat White"}, "price": {"4.25"}})
	assert.Equal(t, http.StatusFound, rr.Code)
	assert.Equal(t, "/", rr.Header().Get("Location"))

	updated := srv.repo.only(t)
	assert.Equal(t, domain.MenuItem{ID: item.ID, Name: "Flat White", Price: 4.25}, updated)
}

func TestEditUnknownItemStillRedirects(t *testing.T) {
	srv := newTestServer(t, RouterConfig{})

	rr := srv.postForm("/menu/edit/"+primitive.NewObjectID().Hex(), url.Values{"name": {"Ghost"}, "price": {"1"}})
	assert.Equal(t, http.StatusFound, rr.Code)
	assert.Empty(t, srv.repo.items)
}

func TestDeleteMenuItem(t *testing.T) {
	srv := newTestServer(t, RouterConfig{})
	srv.postForm("/menu/add", url.Values{"name": {"Latte"}, "price": {"3.5"}})
	item := srv.repo.only(t)

	rr := srv.get("/menu/delete/" + item.ID)
	assert.Equal(t, http.StatusFound, rr.Code)
	assert.Equal(t, "/", rr.Header().Get("Location"))

	rr = srv.get("/")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.NotContains(t, rr.Body.String(), "Latte")
	assert.NotContains(t, rr.Body.String(), item.ID)
	assert.Contains(t, rr.Body.String(), "The menu is empty.")

	rr = srv.get("/menu/delete/" + item.ID)
	assert.Equal(t, http.StatusFound, rr.Code, "deleting a missing item is not an error")
}

func TestMalformedIDs(t *testing.T) {
	srv := newTestServer(t, RouterConfig{})

	for _, path := range []string{"/menu/xyz", "/menu/edit/xyz", "/menu/delete/xyz", "/menu/xyz/qrcode"} {
		t.Run(path, func(t *testing.T) {
			rr := srv.get(path)
			assert.Equal(t, http.StatusBadRequest, rr.Code)
		})
	}

	rr := srv.postForm("/menu/edit/xyz", url.Values{"name": {"x"}, "price": {"1"}})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestUnknownItemNotFound(t *testing.T) {
	srv := newTestServer(t, RouterConfig{})
	id := primitive.NewObjectID().Hex()

	for _, path := range []string{"/menu/" + id, "/menu/edit/" + id, "/menu/" + id + "/qrcode"} {
		t.Run(path, func(t *testing.T) {
			rr := srv.get(path)
			assert.Equal(t, http.StatusNotFound, rr.Code)
			assert.Contains(t, rr.Body.String(), "Menu item not found")
		})
	}
}

func TestMenuItemQRCode(t *testing.T) {
	srv := newTestServer(t, RouterConfig{})
	srv.postForm("/menu/add", url.Values{"name": {"Latte"}, "price": {"3.5"}})
	item := srv.repo.only(t)

	rr := srv.get("/menu/" + item.ID + "/qrcode")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "image/png", rr.Header().Get("Content-Type"))
	assert.True(t, strings.HasPrefix(rr.Body.String(), "\x89PNG"))
}

func TestStoreFailureIsInternalError(t *testing.T) {
	srv := newTestServer(t, RouterConfig{})
	srv.repo.err = assert.AnError

	rr := srv.get("/")
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.NotContains(t, rr.Body.String(), assert.AnError.Error())
	require.NotNil(t, srv.hook.LastEntry())
	assert.Equal(t, "request failed", srv.hook.LastEntry().Message)
}

func TestHealthCheck(t *testing.T) {
	srv := newTestServer(t, RouterConfig{})

	rr := srv.get("/health")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &response))
	assert.Equal(t, "healthy", response["status"])
	assert.Equal(t, "coffee-menu", response["service"])
	assert.Equal(t, "ok", response["store"])
	assert.Contains(t, response, "timestamp")
}

func TestHealthCheckStoreUnreachable(t *testing.T) {
	srv := newTestServer(t, RouterConfig{})
	srv.repo.pingErr = assert.AnError

	rr := srv.get("/health")
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &response))
	assert.Equal(t, "unhealthy", response["status"])
	assert.Equal(t, "unreachable", response["store"])
	assert.Equal(t, "store ping failed", srv.hook.LastEntry().Message)
}

func TestRequestIDIsEchoed(t *testing.T) {
	log, hook := test.NewNullLogger()
	srv := newTestServer(t, RouterConfig{Log: log})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "req-123")
	rr := srv.do(req)
	assert.Equal(t, "req-123", rr.Header().Get("X-Request-ID"))

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, "request served", entry.Message)
	assert.Equal(t, "req-123", entry.Data["request_id"])
	assert.Equal(t, "/health", entry.Data["route"])
	assert.Equal(t, http.StatusOK, entry.Data["status"])

	rr = srv.get("/health")
	assert.NotEmpty(t, rr.Header().Get("X-Request-ID"))
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(t, RouterConfig{Metrics: metrics.New()})

	srv.get("/menu/" + primitive.NewObjectID().Hex())

	rr := srv.get("/metrics")
	assert.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, "coffee_menu_http_requests_total")
	assert.Contains(t, body, `path="/menu/{id}"`)
	assert.Contains(t, body, `status="404"`)
}

func TestStaticFilesAndCORS(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "css"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "css", "style.css"), []byte("body{}"), 0o644))

	srv := newTestServer(t, RouterConfig{StaticDir: dir})

	rr := srv.get("/static/css/style.css")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "body{}", rr.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "http://example.com")
	rr = srv.do(req)
	assert.Equal(t, "*", rr.Header().Get("Access-Control-Allow-Origin"))
}
