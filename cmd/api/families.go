package main

import (
	"context"
	"log"
	"net/http"

	"github.com/zhouzirui/llm-server/internal/command"
	"github.com/zhouzirui/llm-server/internal/config"
	"github.com/zhouzirui/llm-server/internal/handler/completion"
	"github.com/zhouzirui/llm-server/internal/model/catalog"
	"github.com/zhouzirui/llm-server/internal/service/backend"
	"github.com/zhouzirui/llm-server/internal/service/chat"
)

// family pairs a mounted handler with what the banner prints about it.
type family struct {
	handler      *completion.Handler
	kind         string
	defaultModel string
	models       []string
}

func buildFamilies(ctx context.Context, cfg *config.Config, sessions *chat.Service, console *completion.Console) []family {
	translator := backend.NewTranslator(backend.TranslateConfig{
		URL:    cfg.Translate.URL,
		Source: cfg.Translate.Source,
		Pivot:  cfg.Translate.Pivot,
	}, &http.Client{Timeout: backend.TranslateTimeout})

	claude := backend.NewClaude(backend.ClaudeConfig{
		Command:      cfg.Claude.Command,
		DefaultModel: cfg.Claude.DefaultModel,
	}, command.NewExecRunner(cfg.Claude.Timeout, backend.ClaudeMaxOutput))

	families := []family{
		{
			handler: completion.New(completion.Family{
				Kind:       "libretranslate",
				Backend:    translator,
				Models:     catalog.NewMemoryStore("local", backend.TranslateModel),
				BestEffort: true,
			}, nil, console),
			kind:         "libretranslate",
			defaultModel: backend.TranslateModel,
			models:       []string{backend.TranslateModel},
		},
		{
			handler: completion.New(completion.Family{
				Kind:     "claude",
				Backend:  claude,
				Models:   claude.Models(),
				Stateful: true,
			}, sessions, console),
			kind:         "claude",
			defaultModel: claude.DefaultModel(),
			models:       backend.ClaudeModels,
		},
	}

	if !cfg.AI.Enabled() {
		log.Println("Ark 凭证未配置，跳过 /ark 端点")
		return families
	}

	chatModel, err := cfg.AI.NewChatModel(ctx)
	if err != nil {
		log.Printf("warning: failed to initialize ark model: %v", err)
		return families
	}
	ark, err := backend.NewArk(ctx, chatModel, cfg.AI.Model)
	if err != nil {
		log.Printf("warning: failed to initialize ark backend: %v", err)
		return families
	}

	return append(families, family{
		handler: completion.New(completion.Family{
			Kind:     "ark",
			Backend:  ark,
			Models:   catalog.NewMemoryStore("volcengine", ark.Model()),
			Stateful: true,
		}, sessions, console),
		kind:         "ark",
		defaultModel: ark.Model(),
		models:       []string{ark.Model()},
	})
}
