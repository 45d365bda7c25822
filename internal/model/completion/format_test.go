package completion

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewResponseUsageIsCharacterCount(t *testing.T) {
	created := time.Unix(1700000000, 0)
	input := "szia világ"
	resp := NewResponse("chatcmpl-test", "haiku", "héllo wörld", CharCount(input), created)

	assert.Equal(t, "chat.completion", resp.Object)
	assert.Equal(t, int64(1700000000), resp.Created)
	require.Len(t, resp.Choices, 1)
	assert.Equal(t, "assistant", resp.Choices[0].Message.Role)
	assert.Equal(t, "stop", resp.Choices[0].FinishReason)

	assert.Equal(t, 10, resp.Usage.PromptTokens)
	assert.Equal(t, 11, resp.Usage.CompletionTokens)
	assert.Equal(t, resp.Usage.PromptTokens+resp.Usage.CompletionTokens, resp.Usage.TotalTokens)
}

func TestNewChunksShape(t *testing.T) {
	created := time.Unix(1700000000, 0)
	first, last := NewChunks("chatcmpl-x", "claude", "full text", created)

	firstJSON, err := json.Marshal(first)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"id":"chatcmpl-x","object":"chat.completion.chunk","created":1700000000,"model":"claude",
		"choices":[{"index":0,"delta":{"role":"assistant","content":"full text"},"finish_reason":null}]
	}`, string(firstJSON))

	lastJSON, err := json.Marshal(last)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"id":"chatcmpl-x","object":"chat.completion.chunk","created":1700000000,"model":"claude",
		"choices":[{"index":0,"delta":{},"finish_reason":"stop"}]
	}`, string(lastJSON))
}

func TestBuildSelectsShape(t *testing.T) {
	now := time.Now()

	plain := Build("id", "m", "out", 2, false, now)
	require.NotNil(t, plain.Response)
	assert.Empty(t, plain.Chunks)

	streamed := Build("id", "m", "out", 2, true, now)
	assert.Nil(t, streamed.Response)
	require.Len(t, streamed.Chunks, 2)
	assert.Equal(t, streamed.Chunks[0].ID, streamed.Chunks[1].ID)
	assert.Equal(t, streamed.Chunks[0].Created, streamed.Chunks[1].Created)
}

func TestNewIDPrefixAndOrdering(t *testing.T) {
	a := NewID("claude")
	b := NewID("claude")

	assert.True(t, strings.HasPrefix(a, "chatcmpl-claude-"))
	assert.NotEqual(t, a, b)
	assert.Less(t, a, b)
}

func TestNewChunksEmptyContent(t *testing.T) {
	first, _ := NewChunks("chatcmpl-x", "claude", "", time.Unix(1700000000, 0))

	data, err := json.Marshal(first.Choices[0].Delta)
	require.NoError(t, err)
	assert.JSONEq(t, `{"role":"assistant","content":""}`, string(data))
}

func TestRequestDecodeIsTolerant(t *testing.T) {
	var req Request
	require.NoError(t, json.Unmarshal([]byte(`{
		"messages":[{"role":"user","content":"hello"},{"role":7,"content":"x"},"junk",null],
		"model":["haiku"],
		"stream":"true"
	}`), &req))

	require.Len(t, req.Messages, 4)
	assert.Equal(t, "user", req.Messages[0].Role)
	assert.Equal(t, "", req.Messages[1].Role)
	assert.Equal(t, "", req.Messages[2].Role)
	assert.Equal(t, "", req.Model)
	assert.False(t, req.Stream)
}

func TestRequestDecodeRejectsNonObject(t *testing.T) {
	var req Request
	assert.Error(t, json.Unmarshal([]byte(`["messages"]`), &req))
}
