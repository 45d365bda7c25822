package backend

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/zhouzirui/llm-server/internal/command"
	"github.com/zhouzirui/llm-server/internal/model/catalog"
)

const (
	// ClaudeTimeout is the wall-clock limit for one CLI invocation.
	ClaudeTimeout = 60 * time.Second

	// ClaudeMaxOutput caps the CLI stdout.
	ClaudeMaxOutput = 10 * 1024 * 1024
)

// ClaudeModels is the allow-list of model names passed to the CLI.
var ClaudeModels = []string{"haiku", "sonnet", "opus"}

// ClaudeOwner is the owned_by label of the Claude model catalog.
const ClaudeOwner = "anthropic"

// ClaudeConfig configures the Claude CLI backend.
type ClaudeConfig struct {
	Command      string
	DefaultModel string
}

// Claude generates text by invoking the Claude CLI in print mode.
type Claude struct {
	cfg    ClaudeConfig
	runner command.Runner
	models catalog.Store
}

// NewClaude returns a Claude backend. A nil runner uses an ExecRunner with
// ClaudeTimeout and ClaudeMaxOutput.
func NewClaude(cfg ClaudeConfig, runner command.Runner) *Claude {
	if cfg.Command == "" {
		cfg.Command = "claude"
	}
	models := catalog.NewMemoryStore(ClaudeOwner, ClaudeModels...)
	if _, ok := models.FindByID(cfg.DefaultModel); !ok {
		cfg.DefaultModel = ClaudeModels[0]
	}
	if runner == nil {
		runner = command.NewExecRunner(ClaudeTimeout, ClaudeMaxOutput)
	}
	return &Claude{cfg: cfg, runner: runner, models: models}
}

// Name implements Backend.
func (c *Claude) Name() string {
	return "claude"
}

// ResolveModel returns hint when it is an allowed model, else the default.
func (c *Claude) ResolveModel(hint string) string {
	if model, ok := c.models.FindByID(hint); ok {
		return model.ID
	}
	return c.cfg.DefaultModel
}

// Models is the catalog the CLI accepts; it backs both model validation
// and the models listing.
func (c *Claude) Models() catalog.Store {
	return c.models
}

// Generate runs the CLI once. Failures are returned as *Error and never retried.
func (c *Claude) Generate(ctx context.Context, req Request) (Result, error) {
	model := c.ResolveModel(req.ModelHint)
	args := buildClaudeArgs(req.Text, req.SystemPrompt, model)

	start := time.Now()
	output, err := c.runner.Run(ctx, c.cfg.Command, args...)
	if err != nil {
		return Result{}, &Error{Backend: c.Name(), Err: err}
	}
	log.Printf("[claude] model=%s completed in %s", model, time.Since(start).Round(time.Millisecond))

	return Result{Text: strings.TrimSpace(output), Model: model}, nil
}

func buildClaudeArgs(prompt, systemPrompt, model string) []string {
	args := []string{"-p", prompt, "--model", model}
	if systemPrompt != "" {
		args = append(args, "--system-prompt", systemPrompt)
	}
	return args
}

// DefaultModel is the model used when the client sends none or an unknown one.
func (c *Claude) DefaultModel() string {
	return c.cfg.DefaultModel
}
