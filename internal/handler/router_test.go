package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/zhouzirui/llm-server/internal/handler/completion"
	"github.com/zhouzirui/llm-server/internal/model/catalog"
	"github.com/zhouzirui/llm-server/internal/service/backend"
	chatService "github.com/zhouzirui/llm-server/internal/service/chat"
)

type echoBackend struct{}

func (echoBackend) Name() string { return "echo" }

func (echoBackend) Generate(_ context.Context, req backend.Request) (backend.Result, error) {
	return backend.Result{Text: req.Text, Model: "echo-1"}, nil
}

func newTestRouter(basePath string) http.Handler {
	sessions := chatService.NewService()
	echo := completion.New(completion.Family{
		Kind:    "echo",
		Backend: echoBackend{},
		Models:  catalog.NewMemoryStore("local", "echo-1"),
	}, nil, nil)
	return NewRouter(basePath, sessions, echo)
}

func serve(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func TestHealth(t *testing.T) {
	resp := serve(newTestRouter("/llm"), http.MethodGet, "/health", "")
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), `"status":"ok"`) {
		t.Fatalf("unexpected body %s", resp.Body.String())
	}
}

func TestFamilyMountedUnderBasePath(t *testing.T) {
	r := newTestRouter("/llm")

	resp := serve(r, http.MethodPost, "/llm/echo/v1/chat/completions", `{"messages":[{"role":"user","content":"hi"}]}`)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}

	var out struct {
		Model string `json:"model"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Model != "echo-1" {
		t.Fatalf("expected backend model label, got %s", out.Model)
	}

	if resp := serve(r, http.MethodGet, "/echo/v1/models", ""); resp.Code != http.StatusNotFound {
		t.Fatalf("routes must only exist under the base path, got %d", resp.Code)
	}
	if resp := serve(r, http.MethodGet, "/llm/session", ""); resp.Code != http.StatusOK {
		t.Fatalf("expected session stats under base path, got %d", resp.Code)
	}
}

func TestFamilyMountedAtRoot(t *testing.T) {
	r := newTestRouter("")

	if resp := serve(r, http.MethodGet, "/echo/v1/models", ""); resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if resp := serve(r, http.MethodGet, "/unknown/v1/models", ""); resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
}
