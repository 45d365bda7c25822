package session

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	chatService "github.com/zhouzirui/llm-server/internal/service/chat"
	"github.com/zhouzirui/llm-server/pkg/utils"
)

// Handler 会话状态的HTTP处理器
type Handler struct {
	sessions *chatService.Service
}

// New 创建会话处理器
func New(sessions *chatService.Service) *Handler {
	return &Handler{sessions: sessions}
}

// RegisterRoutes 注册会话相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/session", h.handleSnapshot)
	r.Delete("/session", h.handleReset)
}

// handleSnapshot 返回当前会话统计及可延续的对话记录
func (h *Handler) handleSnapshot(w http.ResponseWriter, _ *http.Request) {
	utils.RespondJSON(w, http.StatusOK, h.sessions.Snapshot())
}

// handleReset 清空会话
func (h *Handler) handleReset(w http.ResponseWriter, _ *http.Request) {
	h.sessions.Reset()
	log.Println("[session] reset by operator")
	utils.RespondJSON(w, http.StatusOK, h.sessions.Snapshot())
}
