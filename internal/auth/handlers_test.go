package auth_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/FilmPriceGuide/FPG-Gateway/internal/auth"
	"github.com/FilmPriceGuide/FPG-Gateway/internal/middleware"
	"github.com/FilmPriceGuide/FPG-Gateway/internal/utils"
)

// routerFixture mounts the real auth routes over the in-memory store, so
// route-level middleware is part of what gets tested.
type routerFixture struct {
	store    *fakeStore
	sessions *auth.SessionStore
	router   http.Handler
}

func newRouterFixture() *routerFixture {
	store := newFakeStore()
	sessions := auth.NewSessionStore(time.Hour, 24*time.Hour)
	svc := auth.NewService(store, sessions)
	handlers := auth.NewHandlers(svc, false)
	return &routerFixture{
		store:    store,
		sessions: sessions,
		router:   auth.SetupRoutes(handlers, sessions, middleware.NewRateLimiter(1000)),
	}
}

func (f *routerFixture) get(t *testing.T, target, sessionID string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	if sessionID != "" {
		req.AddCookie(&http.Cookie{Name: "session_id", Value: sessionID})
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func TestSetupStatus(t *testing.T) {
	f := newRouterFixture()

	rec := f.get(t, "/setup", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var status map[string]bool
	if err := json.Unmarshal(rec.Body.Bytes(), &status); err != nil {
		t.Fatalf("decode setup status: %v", err)
	}
	if !status["setup_required"] {
		t.Error("empty store should require setup")
	}

	f.store.Create(&auth.User{Username: "alice", Email: "alice@example.com", IsAdmin: true})

	rec = f.get(t, "/setup", "")
	if err := json.Unmarshal(rec.Body.Bytes(), &status); err != nil {
		t.Fatalf("decode setup status: %v", err)
	}
	if status["setup_required"] {
		t.Error("setup should be done once an account exists")
	}
}

func TestAdminUsersRoute(t *testing.T) {
	f := newRouterFixture()
	f.store.Create(&auth.User{Username: "alice", Email: "alice@example.com", PasswordHash: "$2a$10$secret", IsAdmin: true})
	f.store.Create(&auth.User{Username: "bob", Email: "bob@example.com", PasswordHash: "$2a$10$secret"})

	adminSession := f.sessions.Create(utils.SessionData{UserID: 1, Username: "alice", IsAdmin: true})
	userSession := f.sessions.Create(utils.SessionData{UserID: 2, Username: "bob"})

	anonRec := f.get(t, "/admin/users", "")
	userRec := f.get(t, "/admin/users", userSession.SessionID)

	if anonRec.Code != http.StatusUnauthorized || userRec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for anonymous (%d) and non-admin (%d)", anonRec.Code, userRec.Code)
	}
	if anonRec.Body.String() != userRec.Body.String() {
		t.Error("anonymous and non-admin callers must get identical answers")
	}

	adminRec := f.get(t, "/admin/users", adminSession.SessionID)
	if adminRec.Code != http.StatusOK {
		t.Fatalf("expected 200 for admin, got %d", adminRec.Code)
	}

	var users []auth.User
	if err := json.Unmarshal(adminRec.Body.Bytes(), &users); err != nil {
		t.Fatalf("decode user list: %v", err)
	}
	if len(users) != 2 {
		t.Fatalf("expected 2 users, got %d", len(users))
	}
	if strings.Contains(adminRec.Body.String(), "secret") {
		t.Error("password hashes must never serialize")
	}
}
