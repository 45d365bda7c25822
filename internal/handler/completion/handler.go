package completion

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/llm-server/internal/model/catalog"
	"github.com/zhouzirui/llm-server/internal/model/chat"
	"github.com/zhouzirui/llm-server/internal/model/completion"
	"github.com/zhouzirui/llm-server/internal/service/backend"
	chatService "github.com/zhouzirui/llm-server/internal/service/chat"
	"github.com/zhouzirui/llm-server/pkg/utils"
)

// TranslationStatusHeader tells clients of best-effort families whether the
// text was really processed.
const TranslationStatusHeader = "X-Translation-Status"

// Family is one endpoint family: a route prefix bound to a single backend.
type Family struct {
	// Kind names the family; it is the route prefix and the id tag.
	Kind    string
	Backend backend.Backend
	Models  catalog.Store

	// Stateful families read and extend the shared session.
	Stateful bool

	// BestEffort families report passthrough results via TranslationStatusHeader.
	BestEffort bool
}

// Handler serves the OpenAI-compatible endpoints of one family.
type Handler struct {
	family   Family
	sessions *chatService.Service
	console  *Console
	now      func() time.Time
}

// New creates a gateway handler. sessions may be nil for stateless families.
func New(family Family, sessions *chatService.Service, console *Console) *Handler {
	return &Handler{
		family:   family,
		sessions: sessions,
		console:  console,
		now:      time.Now,
	}
}

// Kind returns the family route prefix.
func (h *Handler) Kind() string {
	return h.family.Kind
}

// RegisterRoutes 注册 OpenAI 兼容路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/v1/chat/completions", h.handleChatCompletions)
	r.Get("/v1/models", h.handleListModels)
}

func (h *Handler) handleChatCompletions(w http.ResponseWriter, r *http.Request) {
	var req completion.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondError(w, http.StatusBadRequest, completion.ErrorTypeInvalidRequest, "invalid request body: "+err.Error())
		return
	}

	var flusher http.Flusher
	if req.Stream {
		var ok bool
		if flusher, ok = w.(http.Flusher); !ok {
			utils.RespondError(w, http.StatusInternalServerError, completion.ErrorTypeServer, "streaming unsupported")
			return
		}
	}

	input := chat.UserText(req.Messages)
	systemPrompt, _ := chat.SystemPrompt(req.Messages)
	dictated := chat.DictatedText(input)

	stateful := h.family.Stateful && h.sessions != nil
	prompt := input
	var turn chatService.Turn
	if stateful {
		turn = h.sessions.Begin()
		if prefix, ok := chatService.FormatContextForPrompt(turn.Context); ok {
			prompt = prefix + "\n" + input
		}
	}

	// A request runs to completion even if the client goes away.
	ctx := context.WithoutCancel(r.Context())
	result, err := h.family.Backend.Generate(ctx, backend.Request{
		Text:         prompt,
		SystemPrompt: systemPrompt,
		ModelHint:    req.Model,
	})
	if err != nil {
		log.Printf("[gateway] %s error: %v", h.family.Kind, err)
		utils.RespondError(w, http.StatusInternalServerError, completion.ErrorTypeServer, err.Error())
		return
	}

	if stateful {
		h.sessions.Commit(dictated, result.Text)
		h.console.LogExchange(dictated, result.Text, result.Model, turn)
	} else {
		h.console.LogTranslation(dictated, result.Text, result.Model, result.Passthrough)
	}

	if h.family.BestEffort {
		status := backend.Translated
		if result.Passthrough {
			status = backend.PassthroughOnFailure
		}
		w.Header().Set(TranslationStatusHeader, string(status))
	}

	modelLabel := req.Model
	if modelLabel == "" {
		modelLabel = result.Model
	}

	envelope := completion.Build(
		completion.NewID(h.family.Kind),
		modelLabel,
		result.Text,
		completion.CharCount(input),
		req.Stream,
		h.now(),
	)

	if envelope.Response != nil {
		utils.RespondJSON(w, http.StatusOK, envelope.Response)
		return
	}
	h.writeStream(w, flusher, envelope.Chunks)
}

// writeStream only runs once the backend result is complete, so every
// failure before this point is still a clean JSON error.
func (h *Handler) writeStream(w http.ResponseWriter, flusher http.Flusher, chunks []completion.Chunk) {
	utils.SetupSSEHeaders(w)
	w.WriteHeader(http.StatusOK)

	for _, chunk := range chunks {
		if err := utils.SendSSEChunk(w, flusher, chunk); err != nil {
			log.Printf("[gateway] %s stream aborted: %v", h.family.Kind, err)
			return
		}
	}
	if err := utils.SendSSEData(w, flusher, completion.DoneMarker); err != nil {
		log.Printf("[gateway] %s stream aborted: %v", h.family.Kind, err)
	}
}

func (h *Handler) handleListModels(w http.ResponseWriter, _ *http.Request) {
	utils.RespondJSON(w, http.StatusOK, completion.ModelList{
		Object: "list",
		Data:   h.family.Models.List(),
	})
}
