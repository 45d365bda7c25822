package completion

import (
	"time"
	"unicode/utf8"

	"github.com/oklog/ulid/v2"
)

const (
	objectCompletion = "chat.completion"
	objectChunk      = "chat.completion.chunk"
	finishStop       = "stop"
)

// DoneMarker terminates a streamed response.
const DoneMarker = "[DONE]"

// NewID returns a completion id of the form chatcmpl-<kind>-<ulid>. ULIDs
// are time ordered and monotonic within the process.
func NewID(kind string) string {
	return "chatcmpl-" + kind + "-" + ulid.Make().String()
}

// Envelope is the formatted result of one request: Response for plain
// requests, Chunks for streamed ones.
type Envelope struct {
	Response *Response
	Chunks   []Chunk
}

// Build formats backend output for either response shape.
func Build(id, model, content string, inputLength int, streaming bool, created time.Time) Envelope {
	if streaming {
		first, last := NewChunks(id, model, content, created)
		return Envelope{Chunks: []Chunk{first, last}}
	}
	resp := NewResponse(id, model, content, inputLength, created)
	return Envelope{Response: &resp}
}

// NewResponse builds a non-streaming completion. Usage counters are
// character counts of the input and output text.
func NewResponse(id, model, content string, inputLength int, created time.Time) Response {
	completionLength := utf8.RuneCountInString(content)
	return Response{
		ID:      id,
		Object:  objectCompletion,
		Created: created.Unix(),
		Model:   model,
		Choices: []Choice{{
			Index:        0,
			Message:      AssistantMessage{Role: "assistant", Content: content},
			FinishReason: finishStop,
		}},
		Usage: Usage{
			PromptTokens:     inputLength,
			CompletionTokens: completionLength,
			TotalTokens:      inputLength + completionLength,
		},
	}
}

// NewChunks builds the two chunks of a streamed completion: the whole
// content as a single delta, then an empty delta with the finish reason.
func NewChunks(id, model, content string, created time.Time) (Chunk, Chunk) {
	finish := finishStop
	base := Chunk{
		ID:      id,
		Object:  objectChunk,
		Created: created.Unix(),
		Model:   model,
	}

	first := base
	first.Choices = []ChunkChoice{{
		Index: 0,
		Delta: Delta{Role: "assistant", Content: &content},
	}}

	last := base
	last.Choices = []ChunkChoice{{
		Index:        0,
		Delta:        Delta{},
		FinishReason: &finish,
	}}

	return first, last
}

// CharCount is the length measure used for usage counters.
func CharCount(s string) int {
	return utf8.RuneCountInString(s)
}
