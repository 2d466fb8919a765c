package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/sgprime/sgprime/internal/mailer"
	"github.com/sgprime/sgprime/internal/model"
	"github.com/sgprime/sgprime/internal/server/middleware"
	"github.com/sgprime/sgprime/internal/service"
	"github.com/sgprime/sgprime/internal/store"
	"github.com/sgprime/sgprime/internal/upload"
)

const testAdminPassword = "admin123"

// recordingMailer captures notifications for assertions instead of sending.
type recordingMailer struct {
	mu   sync.Mutex
	sent []mailer.Notification
	done chan struct{}
}

func newRecordingMailer() *recordingMailer {
	return &recordingMailer{done: make(chan struct{}, 16)}
}

func (m *recordingMailer) SendEnquiryNotification(_ context.Context, n mailer.Notification) error {
	m.mu.Lock()
	m.sent = append(m.sent, n)
	m.mu.Unlock()
	m.done <- struct{}{}
	return nil
}

func (m *recordingMailer) notifications() []mailer.Notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]mailer.Notification(nil), m.sent...)
}

type testEnv struct {
	store  *store.Store
	auth   *service.AuthService
	saver  *upload.Saver
	mailer *recordingMailer
	router chi.Router
	admin  *model.Admin
}

// newTestEnv builds an in-memory store, a seeded admin account, and a router
// wired the same way the server wires it.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	s, err := store.Open(store.DriverSQLite, ":memory:")
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	hash, err := service.HashPassword(testAdminPassword)
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	admin := &model.Admin{
		Username:     "admin",
		Email:        "admin@example.com",
		PasswordHash: hash,
		IsActive:     true,
	}
	if err := s.CreateAdmin(context.Background(), admin); err != nil {
		t.Fatalf("CreateAdmin: %v", err)
	}

	auth, err := service.NewAuthService(s, service.AuthConfig{Secret: "test-secret"}, slog.Default())
	if err != nil {
		t.Fatalf("NewAuthService: %v", err)
	}

	saver, err := upload.NewSaver(t.TempDir(), 0)
	if err != nil {
		t.Fatalf("upload.NewSaver: %v", err)
	}

	rec := newRecordingMailer()
	logger := slog.Default()

	authHandler := NewAuthHandler(auth, logger)
	categoryHandler := NewCategoryHandler(s, logger)
	productHandler := NewProductHandler(s, saver, logger)
	enquiryHandler := NewEnquiryHandler(s, rec, logger)

	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		r.Get("/categories", categoryHandler.List)
		r.Get("/categories/{slug}", categoryHandler.GetBySlug)
		r.Get("/products", productHandler.List)
		r.Get("/products/{id}", productHandler.Get)
		r.Post("/enquiry", enquiryHandler.Submit)

		r.Route("/admin", func(r chi.Router) {
			r.Post("/login", authHandler.Login)

			r.Group(func(r chi.Router) {
				r.Use(middleware.Authenticate(auth))
				r.Use(middleware.RequireRole(model.RoleAdmin))

				r.Get("/verify", authHandler.Verify)
				r.Patch("/password", authHandler.ChangePassword)

				r.Post("/categories", categoryHandler.Create)
				r.Put("/categories/{id}", categoryHandler.Update)
				r.Delete("/categories/{id}", categoryHandler.Delete)

				r.Get("/products", productHandler.AdminList)
				r.Post("/products", productHandler.Create)
				r.Put("/products/{id}", productHandler.Update)
				r.Delete("/products/{id}", productHandler.Delete)

				r.Get("/enquiries", enquiryHandler.List)
				r.Get("/enquiries/{id}", enquiryHandler.Get)
				r.Patch("/enquiries/{id}", enquiryHandler.UpdateStatus)
				r.Delete("/enquiries/{id}", enquiryHandler.Delete)
			})
		})
	})

	return &testEnv{store: s, auth: auth, saver: saver, mailer: rec, router: r, admin: admin}
}

// login returns a valid bearer token for the seeded admin.
func (env *testEnv) login(t *testing.T) string {
	t.Helper()

	token, _, err := env.auth.Login(context.Background(), "admin", testAdminPassword)
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	return token
}

// do runs a request through the router and returns the recorder.
func (env *testEnv) do(t *testing.T, method, path, token string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	t.Helper()

	r := httptest.NewRequest(method, path, body)
	if contentType != "" {
		r.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		r.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, r)
	return w
}

// doJSON runs a JSON request through the router.
func (env *testEnv) doJSON(t *testing.T, method, path, token string, payload interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		body = bytes.NewReader(b)
	}
	return env.do(t, method, path, token, body, "application/json")
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Count   *int            `json:"count"`
	Data    json.RawMessage `json:"data"`
}

// decode unmarshals the response envelope, failing the test on invalid JSON.
func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()

	var env envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("invalid JSON response %q: %v", w.Body.String(), err)
	}
	return env
}

// decodeData unmarshals the envelope's data field into v.
func decodeData(t *testing.T, w *httptest.ResponseRecorder, v interface{}) envelope {
	t.Helper()

	env := decode(t, w)
	if env.Data == nil {
		t.Fatalf("response has no data: %s", w.Body.String())
	}
	if err := json.Unmarshal(env.Data, v); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	return env
}

// assertStatus fails the test when the response status differs from want.
func assertStatus(t *testing.T, w *httptest.ResponseRecorder, want int) {
	t.Helper()

	if w.Code != want {
		t.Fatalf("status = %d, want %d (body: %s)", w.Code, want, w.Body.String())
	}
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}

func (env *testEnv) mustCategory(t *testing.T, name, slug string) *model.Category {
	t.Helper()

	cat := &model.Category{Name: name, Slug: slug}
	if err := env.store.CreateCategory(context.Background(), cat); err != nil {
		t.Fatalf("CreateCategory: %v", err)
	}
	return cat
}

func (env *testEnv) mustProduct(t *testing.T, categoryID int64, name string) *model.Product {
	t.Helper()

	p := &model.Product{CategoryID: categoryID, Name: name, Status: model.ProductStatusActive}
	if err := env.store.CreateProduct(context.Background(), p); err != nil {
		t.Fatalf("CreateProduct: %v", err)
	}
	return p
}
