package backend

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
)

// Ark generates text with a Volcengine Ark chat model through an eino chain.
type Ark struct {
	model string
	chain compose.Runnable[[]*schema.Message, *schema.Message]
}

// NewArk compiles the chain around chatModel. modelName is reported as the
// result model and cannot be overridden per request.
func NewArk(ctx context.Context, chatModel model.ChatModel, modelName string) (*Ark, error) {
	if chatModel == nil {
		return nil, fmt.Errorf("ark chat model is required")
	}

	chain := compose.NewChain[[]*schema.Message, *schema.Message]()
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile ark chain: %w", err)
	}

	return &Ark{model: modelName, chain: runnable}, nil
}

// Name implements Backend.
func (a *Ark) Name() string {
	return "ark"
}

// Model is the configured Ark model name.
func (a *Ark) Model() string {
	return a.model
}

// Generate sends the optional system prompt and the text as a single user turn.
func (a *Ark) Generate(ctx context.Context, req Request) (Result, error) {
	messages := make([]*schema.Message, 0, 2)
	if req.SystemPrompt != "" {
		messages = append(messages, schema.SystemMessage(req.SystemPrompt))
	}
	messages = append(messages, schema.UserMessage(req.Text))

	response, err := a.chain.Invoke(ctx, messages)
	if err != nil {
		return Result{}, &Error{Backend: a.Name(), Err: fmt.Errorf("failed to run ark chain: %w", err)}
	}
	if response == nil {
		return Result{}, &Error{Backend: a.Name(), Err: fmt.Errorf("ark returned no message")}
	}

	log.Printf("[ark] model=%s generated %d bytes", a.model, len(response.Content))
	return Result{Text: strings.TrimSpace(response.Content), Model: a.model}, nil
}
