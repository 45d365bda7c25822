package session

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/llm-server/internal/model/chat"
	chatservice "github.com/zhouzirui/llm-server/internal/service/chat"
)

func setupRouter() (*chi.Mux, *chatservice.Service) {
	sessions := chatservice.NewService()
	r := chi.NewRouter()
	New(sessions).RegisterRoutes(r)
	return r, sessions
}

func doRequest(r http.Handler, method string) (*httptest.ResponseRecorder, chat.SessionSnapshot) {
	req := httptest.NewRequest(method, "/session", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	var snapshot chat.SessionSnapshot
	_ = json.Unmarshal(resp.Body.Bytes(), &snapshot)
	return resp, snapshot
}

func TestSessionStatsEmpty(t *testing.T) {
	r, _ := setupRouter()

	resp, stats := doRequest(r, http.MethodGet)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if stats.Active || stats.MessageCount != 0 {
		t.Fatalf("expected inactive empty session, got %+v", stats)
	}
}

func TestSessionStatsAfterExchange(t *testing.T) {
	r, sessions := setupRouter()
	sessions.Commit("hello", "Hello.")

	_, stats := doRequest(r, http.MethodGet)
	if !stats.Active || stats.MessageCount != 2 {
		t.Fatalf("expected active session with 2 exchanges, got %+v", stats)
	}
	if len(stats.Exchanges) != 2 {
		t.Fatalf("expected 2 exchanges in body, got %+v", stats.Exchanges)
	}
	first, second := stats.Exchanges[0], stats.Exchanges[1]
	if first.ID == "" || first.ID == second.ID {
		t.Fatalf("expected distinct exchange ids, got %q and %q", first.ID, second.ID)
	}
	if first.Role != chat.RoleUser || first.Content != "hello" || second.Content != "Hello." {
		t.Fatalf("unexpected exchanges: %+v", stats.Exchanges)
	}
}

func TestSessionReset(t *testing.T) {
	r, sessions := setupRouter()
	sessions.Commit("hello", "Hello.")

	resp, stats := doRequest(r, http.MethodDelete)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if stats.Active || stats.MessageCount != 0 || len(stats.Exchanges) != 0 {
		t.Fatalf("expected reset session, got %+v", stats)
	}
	if sessions.CurrentContext() != nil {
		t.Fatal("expected no carry-over context after reset")
	}
}
