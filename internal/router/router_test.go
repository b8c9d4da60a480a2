package router

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"inventory/app/inventory"
	"inventory/domain"
	"inventory/infra/blobstore"
	"inventory/infra/postgres"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

var pngBytes = append([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), bytes.Repeat([]byte{0}, 32)...)

type testServer struct {
	app      *fiber.App
	cacheDir string
}

func newTestServer(t *testing.T, health HealthChecker) testServer {
	t.Helper()

	dir := t.TempDir()
	db, err := postgres.Connect(context.Background(), postgres.Options{
		Driver:     "sqlite",
		SQLitePath: filepath.Join(dir, "inventory.db"),
	})
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	repo := postgres.NewRepository(db)
	t.Cleanup(func() { repo.Close() })
	if err := repo.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("schema: %v", err)
	}

	cacheDir := filepath.Join(dir, "cache")
	blobs, err := blobstore.NewLocal(cacheDir)
	if err != nil {
		t.Fatalf("blob store: %v", err)
	}

	if health == nil {
		health = repo
	}
	service := inventory.NewService(repo, blobs, nil, zap.NewNop())
	app := New(Config{}, service, health, zap.NewNop())
	return testServer{app: app, cacheDir: cacheDir}
}

func (s testServer) do(t *testing.T, req *http.Request) *http.Response {
	t.Helper()
	resp, err := s.app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", req.Method, req.URL.Path, err)
	}
	return resp
}

func (s testServer) blobCount(t *testing.T) int {
	t.Helper()
	entries, err := os.ReadDir(s.cacheDir)
	if err != nil {
		t.Fatalf("read cache dir: %v", err)
	}
	return len(entries)
}

func multipartRequest(t *testing.T, method, target string, fields map[string]string, file []byte) *http.Request {
	t.Helper()

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	if file != nil {
		part, err := w.CreateFormFile("photo", "drill.png")
		if err != nil {
			t.Fatalf("create file part: %v", err)
		}
		if _, err := part.Write(file); err != nil {
			t.Fatalf("write file part: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close multipart: %v", err)
	}

	req := httptest.NewRequest(method, target, &body)
	req.Header.Set(fiber.HeaderContentType, w.FormDataContentType())
	return req
}

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return req
}

func formRequest(target string, values url.Values) *http.Request {
	req := httptest.NewRequest(fiber.MethodPost, target, strings.NewReader(values.Encode()))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationForm)
	return req
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	return v
}

func expectStatus(t *testing.T, resp *http.Response, want int) {
	t.Helper()
	if resp.StatusCode != want {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("expected status %d, got %d: %s", want, resp.StatusCode, body)
	}
}

func register(t *testing.T, s testServer, name, description string, photo []byte) domain.InventoryItemDTO {
	t.Helper()
	resp := s.do(t, multipartRequest(t, fiber.MethodPost, "/register",
		map[string]string{"inventory_name": name, "description": description}, photo))
	expectStatus(t, resp, fiber.StatusCreated)
	return decode[domain.InventoryItemDTO](t, resp)
}

func TestRegisterWithoutPhoto(t *testing.T) {
	s := newTestServer(t, nil)

	resp := s.do(t, multipartRequest(t, fiber.MethodPost, "/register",
		map[string]string{"inventory_name": "Drill", "description": "Cordless"}, nil))
	expectStatus(t, resp, fiber.StatusCreated)

	body := decode[map[string]any](t, resp)
	want := map[string]any{"id": float64(1), "inventory_name": "Drill", "description": "Cordless", "photoUrl": nil}
	for k, v := range want {
		if body[k] != v {
			t.Fatalf("field %s: expected %v, got %v (body %v)", k, v, body[k], body)
		}
	}
	if _, leaked := body["photo_filename"]; leaked {
		t.Fatal("raw filename must not be exposed")
	}
}

func TestRegisterRequiresName(t *testing.T) {
	s := newTestServer(t, nil)

	resp := s.do(t, multipartRequest(t, fiber.MethodPost, "/register",
		map[string]string{"inventory_name": "  ", "description": "x"}, pngBytes))
	expectStatus(t, resp, fiber.StatusBadRequest)
	body := decode[map[string]any](t, resp)
	if body["code"] != "inventory.register.validation_failed" {
		t.Fatalf("unexpected error body %v", body)
	}
	if s.blobCount(t) != 0 {
		t.Fatal("rejected registration must not leave a blob")
	}

	list := decode[[]domain.InventoryItemDTO](t, s.do(t, httptest.NewRequest(fiber.MethodGet, "/inventory", nil)))
	if len(list) != 0 {
		t.Fatalf("rejected registration must not create a row, got %v", list)
	}
}

func TestListItems(t *testing.T) {
	s := newTestServer(t, nil)

	resp := s.do(t, httptest.NewRequest(fiber.MethodGet, "/inventory", nil))
	expectStatus(t, resp, fiber.StatusOK)
	if list := decode[[]domain.InventoryItemDTO](t, resp); len(list) != 0 {
		t.Fatalf("expected empty list, got %v", list)
	}

	register(t, s, "Drill", "", nil)
	register(t, s, "Saw", "", pngBytes)

	list := decode[[]domain.InventoryItemDTO](t, s.do(t, httptest.NewRequest(fiber.MethodGet, "/inventory", nil)))
	if len(list) != 2 || list[0].InventoryName != "Drill" || list[1].InventoryName != "Saw" {
		t.Fatalf("unexpected list %+v", list)
	}
	if list[0].PhotoURL != nil || list[1].PhotoURL == nil || *list[1].PhotoURL != "/inventory/2/photo" {
		t.Fatalf("unexpected photo urls %+v", list)
	}
}

func TestPhotoReplaceAndStream(t *testing.T) {
	s := newTestServer(t, nil)
	register(t, s, "Drill", "Cordless", nil)

	resp := s.do(t, httptest.NewRequest(fiber.MethodGet, "/inventory/1/photo", nil))
	expectStatus(t, resp, fiber.StatusNotFound)

	resp = s.do(t, multipartRequest(t, fiber.MethodPut, "/inventory/1/photo", nil, pngBytes))
	expectStatus(t, resp, fiber.StatusOK)
	item := decode[domain.InventoryItemDTO](t, resp)
	if item.PhotoURL == nil || *item.PhotoURL != "/inventory/1/photo" {
		t.Fatalf("expected photo url, got %+v", item)
	}

	resp = s.do(t, httptest.NewRequest(fiber.MethodGet, "/inventory/1/photo", nil))
	expectStatus(t, resp, fiber.StatusOK)
	if ct := resp.Header.Get(fiber.HeaderContentType); ct != "image/png" {
		t.Fatalf("expected image/png, got %q", ct)
	}
	got, _ := io.ReadAll(resp.Body)
	if !bytes.Equal(got, pngBytes) {
		t.Fatalf("streamed bytes differ from upload")
	}

	resp = s.do(t, multipartRequest(t, fiber.MethodPut, "/inventory/1/photo", nil, []byte("plain bytes")))
	expectStatus(t, resp, fiber.StatusOK)
	if s.blobCount(t) != 1 {
		t.Fatalf("expected the previous blob to be removed, %d files in cache", s.blobCount(t))
	}
	resp = s.do(t, httptest.NewRequest(fiber.MethodGet, "/inventory/1/photo", nil))
	expectStatus(t, resp, fiber.StatusOK)
	if ct := resp.Header.Get(fiber.HeaderContentType); ct != "image/jpeg" {
		t.Fatalf("expected image/jpeg fallback, got %q", ct)
	}
}

func TestReplacePhotoErrors(t *testing.T) {
	s := newTestServer(t, nil)
	register(t, s, "Drill", "", nil)

	resp := s.do(t, multipartRequest(t, fiber.MethodPut, "/inventory/1/photo", map[string]string{"note": "x"}, nil))
	expectStatus(t, resp, fiber.StatusBadRequest)

	resp = s.do(t, multipartRequest(t, fiber.MethodPut, "/inventory/9/photo", nil, pngBytes))
	expectStatus(t, resp, fiber.StatusNotFound)

	resp = s.do(t, multipartRequest(t, fiber.MethodPut, "/inventory/abc/photo", nil, pngBytes))
	expectStatus(t, resp, fiber.StatusBadRequest)

	if s.blobCount(t) != 0 {
		t.Fatal("failed uploads must not leave blobs")
	}
}

func TestUpdateItem(t *testing.T) {
	s := newTestServer(t, nil)
	register(t, s, "Drill", "Cordless", nil)

	resp := s.do(t, jsonRequest(fiber.MethodPut, "/inventory/1", `{}`))
	expectStatus(t, resp, fiber.StatusOK)
	if item := decode[domain.InventoryItemDTO](t, resp); item.InventoryName != "Drill" || item.Description != "Cordless" {
		t.Fatalf("empty update changed the item: %+v", item)
	}

	resp = s.do(t, jsonRequest(fiber.MethodPut, "/inventory/1", `{"description":"Corded"}`))
	expectStatus(t, resp, fiber.StatusOK)
	if item := decode[domain.InventoryItemDTO](t, resp); item.InventoryName != "Drill" || item.Description != "Corded" {
		t.Fatalf("unexpected update result: %+v", item)
	}

	resp = s.do(t, jsonRequest(fiber.MethodPut, "/inventory/1", `{"inventory_name":""}`))
	expectStatus(t, resp, fiber.StatusBadRequest)

	resp = s.do(t, jsonRequest(fiber.MethodPut, "/inventory/1", `{"inventory_name":`))
	expectStatus(t, resp, fiber.StatusBadRequest)

	resp = s.do(t, jsonRequest(fiber.MethodPut, "/inventory/5", `{"description":"x"}`))
	expectStatus(t, resp, fiber.StatusNotFound)
}

func TestDeleteItem(t *testing.T) {
	s := newTestServer(t, nil)
	register(t, s, "Drill", "Cordless", pngBytes)

	resp := s.do(t, httptest.NewRequest(fiber.MethodDelete, "/inventory/1", nil))
	expectStatus(t, resp, fiber.StatusOK)
	if item := decode[domain.InventoryItemDTO](t, resp); item.ID != 1 || item.InventoryName != "Drill" {
		t.Fatalf("expected the deleted item, got %+v", item)
	}
	if s.blobCount(t) != 0 {
		t.Fatal("expected the photo removed with the item")
	}

	resp = s.do(t, httptest.NewRequest(fiber.MethodGet, "/inventory/1", nil))
	expectStatus(t, resp, fiber.StatusNotFound)
	if body := decode[map[string]any](t, resp); body["code"] != "inventory.show.not_found" {
		t.Fatalf("unexpected error body %v", body)
	}

	resp = s.do(t, httptest.NewRequest(fiber.MethodDelete, "/inventory/1", nil))
	expectStatus(t, resp, fiber.StatusNotFound)
}

func TestNonNumericIDIsBadRequest(t *testing.T) {
	s := newTestServer(t, nil)

	requests := []*http.Request{
		httptest.NewRequest(fiber.MethodGet, "/inventory/abc", nil),
		jsonRequest(fiber.MethodPut, "/inventory/abc", `{}`),
		httptest.NewRequest(fiber.MethodDelete, "/inventory/abc", nil),
		httptest.NewRequest(fiber.MethodGet, "/inventory/abc/photo", nil),
	}
	for _, req := range requests {
		resp := s.do(t, req)
		expectStatus(t, resp, fiber.StatusBadRequest)
		if body := decode[map[string]any](t, resp); body["code"] != "request.invalid_path_params" {
			t.Fatalf("%s %s: unexpected error body %v", req.Method, req.URL.Path, body)
		}
	}
}

func TestUnsupportedMethodsAreRejected(t *testing.T) {
	s := newTestServer(t, nil)

	cases := []struct {
		method, path, allow string
	}{
		{fiber.MethodGet, "/register", "POST"},
		{fiber.MethodDelete, "/register", "POST"},
		{fiber.MethodPost, "/inventory", "GET"},
		{fiber.MethodPatch, "/inventory/1", "GET, PUT, DELETE"},
		{fiber.MethodPost, "/inventory/1", "GET, PUT, DELETE"},
		{fiber.MethodDelete, "/inventory/1/photo", "GET, PUT"},
		{fiber.MethodGet, "/search", "POST"},
		{fiber.MethodPost, "/health", "GET"},
	}
	for _, tc := range cases {
		resp := s.do(t, httptest.NewRequest(tc.method, tc.path, nil))
		expectStatus(t, resp, fiber.StatusMethodNotAllowed)
		if got := resp.Header.Get(fiber.HeaderAllow); got != tc.allow {
			t.Fatalf("%s %s: expected Allow %q, got %q", tc.method, tc.path, tc.allow, got)
		}
		if body := decode[map[string]any](t, resp); body["code"] != "route.method_not_allowed" {
			t.Fatalf("%s %s: unexpected body %v", tc.method, tc.path, body)
		}
	}
}

func TestUnknownRouteIsNotFound(t *testing.T) {
	s := newTestServer(t, nil)

	resp := s.do(t, httptest.NewRequest(fiber.MethodGet, "/nowhere", nil))
	expectStatus(t, resp, fiber.StatusNotFound)
	if body := decode[map[string]any](t, resp); body["code"] != "route.not_found" {
		t.Fatalf("unexpected body %v", body)
	}
}

func TestSearch(t *testing.T) {
	s := newTestServer(t, nil)
	register(t, s, `<b>Drill</b>`, `"quoted" & more`, pngBytes)
	register(t, s, "Bare", "", nil)

	resp := s.do(t, formRequest("/search", url.Values{"id": {"1"}, "has_photo": {"on"}}))
	expectStatus(t, resp, fiber.StatusOK)
	if ct := resp.Header.Get(fiber.HeaderContentType); !strings.HasPrefix(ct, "text/html") {
		t.Fatalf("expected html, got %q", ct)
	}
	page, _ := io.ReadAll(resp.Body)
	if strings.Contains(string(page), "<b>Drill</b>") || !strings.Contains(string(page), "&lt;b&gt;Drill&lt;/b&gt;") {
		t.Fatalf("fields must be escaped: %s", page)
	}
	if !strings.Contains(string(page), `src="/inventory/1/photo"`) {
		t.Fatalf("expected photo reference: %s", page)
	}

	resp = s.do(t, formRequest("/search", url.Values{"id": {"1"}}))
	expectStatus(t, resp, fiber.StatusOK)
	page, _ = io.ReadAll(resp.Body)
	if strings.Contains(string(page), "<img") {
		t.Fatal("photo must be omitted without has_photo")
	}

	resp = s.do(t, multipartRequest(t, fiber.MethodPost, "/search", map[string]string{"id": "2", "has_photo": ""}, nil))
	expectStatus(t, resp, fiber.StatusOK)
	page, _ = io.ReadAll(resp.Body)
	if strings.Contains(string(page), "<img") {
		t.Fatal("item without photo must render no image")
	}

	resp = s.do(t, formRequest("/search", url.Values{"id": {"abc"}}))
	expectStatus(t, resp, fiber.StatusBadRequest)

	resp = s.do(t, formRequest("/search", url.Values{}))
	expectStatus(t, resp, fiber.StatusBadRequest)

	resp = s.do(t, formRequest("/search", url.Values{"id": {"42"}}))
	expectStatus(t, resp, fiber.StatusNotFound)
}

type downChecker struct{}

func (downChecker) Ping(context.Context) error { return errors.New("connection refused") }

func TestHealth(t *testing.T) {
	s := newTestServer(t, nil)
	resp := s.do(t, httptest.NewRequest(fiber.MethodGet, "/health", nil))
	expectStatus(t, resp, fiber.StatusOK)
	if body := decode[map[string]any](t, resp); body["status"] != "healthy" {
		t.Fatalf("unexpected health body %v", body)
	}

	down := newTestServer(t, downChecker{})
	resp = down.do(t, httptest.NewRequest(fiber.MethodGet, "/health", nil))
	expectStatus(t, resp, fiber.StatusServiceUnavailable)
	if body := decode[map[string]any](t, resp); body["status"] != "unavailable" {
		t.Fatalf("unexpected health body %v", body)
	}
}

func TestBodyLimit(t *testing.T) {
	app := New(Config{BodyLimit: 1024}, inventory.NewService(nil, nil, nil, nil), nil, zap.NewNop())

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	go func() { _ = app.Listener(ln) }()
	t.Cleanup(func() { _ = app.Shutdown() })

	req := multipartRequest(t, fiber.MethodPost, "/register",
		map[string]string{"inventory_name": "Big"}, bytes.Repeat([]byte("x"), 4096))
	req.RequestURI = ""
	req.URL, err = url.Parse("http://" + ln.Addr().String() + "/register")
	if err != nil {
		t.Fatalf("parse url: %v", err)
	}
	req.Host = req.URL.Host

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("POST /register: %v", err)
	}
	expectStatus(t, resp, fiber.StatusRequestEntityTooLarge)
	body := decode[map[string]any](t, resp)
	if body["code"] != "request.too_large" {
		t.Fatalf("unexpected error body %v", body)
	}
	if details, ok := body["details"].(map[string]any); !ok || details["limit"] != float64(1024) {
		t.Fatalf("expected the limit in details, got %v", body["details"])
	}
}

func TestSearchAcceptsAnyIntegerID(t *testing.T) {
	s := newTestServer(t, nil)

	resp := s.do(t, formRequest("/search", url.Values{"id": {"-1"}}))
	expectStatus(t, resp, fiber.StatusNotFound)

	resp = s.do(t, httptest.NewRequest(fiber.MethodGet, "/inventory/-1", nil))
	expectStatus(t, resp, fiber.StatusNotFound)
}

func TestStaticForms(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "search.html"), []byte("<form></form>"), 0o644); err != nil {
		t.Fatalf("write form: %v", err)
	}
	s := testServer{app: New(Config{StaticDir: dir}, inventory.NewService(nil, nil, nil, nil), nil, zap.NewNop())}

	resp := s.do(t, httptest.NewRequest(fiber.MethodGet, "/forms/search.html", nil))
	expectStatus(t, resp, fiber.StatusOK)
	body, _ := io.ReadAll(resp.Body)
	if string(body) != "<form></form>" {
		t.Fatalf("unexpected form body %q", body)
	}
}

type upChecker struct{}

func (upChecker) Ping(context.Context) error { return nil }

func TestHealthCheckersRequireEveryCheck(t *testing.T) {
	if err := (HealthCheckers{upChecker{}, upChecker{}}).Ping(context.Background()); err != nil {
		t.Fatalf("expected healthy, got %v", err)
	}
	if err := (HealthCheckers{upChecker{}, downChecker{}}).Ping(context.Background()); err == nil {
		t.Fatal("one failing check must fail the whole")
	}
	if err := (HealthCheckers{}).Ping(context.Background()); err != nil {
		t.Fatalf("no checks means healthy, got %v", err)
	}
}
