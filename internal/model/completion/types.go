// Package completion holds the OpenAI chat-completion wire shapes produced
// and consumed by the gateway.
package completion

import (
	"encoding/json"

	"github.com/zhouzirui/llm-server/internal/model/catalog"
	"github.com/zhouzirui/llm-server/internal/model/chat"
)

// Request is the subset of the chat-completion request body the gateway reads.
type Request struct {
	Messages []chat.Message `json:"messages"`
	Model    string         `json:"model,omitempty"`
	Stream   bool           `json:"stream,omitempty"`
}

// UnmarshalJSON decodes each field on its own so a wrong-typed field
// degrades to its zero value instead of rejecting the request. Only a body
// that is not a JSON object is an error.
func (r *Request) UnmarshalJSON(data []byte) error {
	*r = Request{}

	var raw struct {
		Messages json.RawMessage `json:"messages"`
		Model    json.RawMessage `json:"model"`
		Stream   json.RawMessage `json:"stream"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	var messages []chat.Message
	if err := json.Unmarshal(raw.Messages, &messages); err == nil {
		r.Messages = messages
	}
	var model string
	if err := json.Unmarshal(raw.Model, &model); err == nil {
		r.Model = model
	}
	var stream bool
	if err := json.Unmarshal(raw.Stream, &stream); err == nil {
		r.Stream = stream
	}
	return nil
}

// AssistantMessage is the message carried by a non-streaming choice.
type AssistantMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Delta is the incremental message of a streaming chunk. Both fields are
// omitted on the terminal chunk; Content is present, possibly empty, on the
// first one.
type Delta struct {
	Role    string  `json:"role,omitempty"`
	Content *string `json:"content,omitempty"`
}

// Choice is one entry of Response.Choices.
type Choice struct {
	Index        int              `json:"index"`
	Message      AssistantMessage `json:"message"`
	FinishReason string           `json:"finish_reason"`
}

// ChunkChoice is one entry of Chunk.Choices. FinishReason is null until the
// terminal chunk.
type ChunkChoice struct {
	Index        int     `json:"index"`
	Delta        Delta   `json:"delta"`
	FinishReason *string `json:"finish_reason"`
}

// Usage reports character counts, not tokens.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Response is the non-streaming `chat.completion` object.
type Response struct {
	ID      string   `json:"id"`
	Object  string   `json:"object"`
	Created int64    `json:"created"`
	Model   string   `json:"model"`
	Choices []Choice `json:"choices"`
	Usage   Usage    `json:"usage"`
}

// Chunk is one `chat.completion.chunk` object of a streamed response.
type Chunk struct {
	ID      string        `json:"id"`
	Object  string        `json:"object"`
	Created int64         `json:"created"`
	Model   string        `json:"model"`
	Choices []ChunkChoice `json:"choices"`
}

// ModelList is the `GET /v1/models` response body.
type ModelList struct {
	Object string          `json:"object"`
	Data   []catalog.Model `json:"data"`
}

// ErrorBody is the error envelope returned on failures.
type ErrorBody struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail describes a failed request.
type ErrorDetail struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

// Error types used in ErrorDetail.Type.
const (
	ErrorTypeServer         = "server_error"
	ErrorTypeInvalidRequest = "invalid_request_error"
)
