package session

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/wtwq666/smartdata/internal/model/chat"
	chatservice "github.com/wtwq666/smartdata/internal/service/chat"
)

func newTestRouter(t *testing.T) (http.Handler, *chatservice.Service) {
	t.Helper()

	svc, err := chatservice.NewService(filepath.Join(t.TempDir(), "sessions.db"))
	if err != nil {
		t.Fatalf("NewService err: %v", err)
	}
	t.Cleanup(func() { svc.Close() })

	r := chi.NewRouter()
	r.Route("/api", func(api chi.Router) {
		New(svc).RegisterRoutes(api)
	})
	return r, svc
}

func doJSON(t *testing.T, router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("{}")
	} else {
		reader = strings.NewReader(body)
	}

	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestSessionLifecycle(t *testing.T) {
	router, svc := newTestRouter(t)
	ctx := context.Background()

	rec := doJSON(t, router, http.MethodPost, "/api/sessions", `{"title": "销售分析"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("create: expected 200, got %d", rec.Code)
	}
	var created struct {
		ID    string `json:"id"`
		Title string `json:"title"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode create response: %v", err)
	}
	if created.ID == "" || created.Title != "销售分析" {
		t.Fatalf("unexpected create response: %+v", created)
	}

	if _, err := svc.AppendMessage(ctx, created.ID, chat.RoleUser, "hi", nil); err != nil {
		t.Fatalf("AppendMessage err: %v", err)
	}

	rec = doJSON(t, router, http.MethodGet, "/api/sessions/"+created.ID, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("get: expected 200, got %d", rec.Code)
	}
	var detail struct {
		Messages []chat.Message `json:"messages"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &detail); err != nil {
		t.Fatalf("decode detail: %v", err)
	}
	if len(detail.Messages) != 1 || detail.Messages[0].Content != "hi" {
		t.Fatalf("unexpected detail messages: %+v", detail.Messages)
	}

	rec = doJSON(t, router, http.MethodPut, "/api/sessions/"+created.ID, `{"title": "新标题"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("rename: expected 200, got %d", rec.Code)
	}
	got, err := svc.GetSession(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetSession err: %v", err)
	}
	if got.Title != "新标题" {
		t.Fatalf("rename not applied: %q", got.Title)
	}

	rec = doJSON(t, router, http.MethodDelete, "/api/sessions/"+created.ID, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("delete: expected 200, got %d", rec.Code)
	}

	rec = doJSON(t, router, http.MethodGet, "/api/sessions/"+created.ID, "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("get after delete: expected 404, got %d", rec.Code)
	}

	rec = doJSON(t, router, http.MethodGet, "/api/sessions", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("list: expected 200, got %d", rec.Code)
	}
	var list struct {
		Sessions []chat.Session `json:"sessions"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	for _, s := range list.Sessions {
		if s.ID == created.ID {
			t.Fatal("deleted session still listed")
		}
	}
}

func TestRenameMissingSession(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPut, "/api/sessions/missing", `{"title": "x"}`)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestDeleteMissingSession(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doJSON(t, router, http.MethodDelete, "/api/sessions/missing", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestRenameRequiresTitle(t *testing.T) {
	router, svc := newTestRouter(t)

	session, err := svc.CreateSession(context.Background(), "t")
	if err != nil {
		t.Fatalf("CreateSession err: %v", err)
	}

	rec := doJSON(t, router, http.MethodPut, "/api/sessions/"+session.ID, `{"title": ""}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}
