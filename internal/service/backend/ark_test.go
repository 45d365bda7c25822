package backend

import (
	"context"
	"errors"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeChatModel struct {
	reply string
	err   error
	input []*schema.Message
}

func (f *fakeChatModel) Generate(_ context.Context, input []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	f.input = input
	if f.err != nil {
		return nil, f.err
	}
	return schema.AssistantMessage(f.reply, nil), nil
}

func (f *fakeChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	msg, err := f.Generate(ctx, input, opts...)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{msg}), nil
}

func (f *fakeChatModel) BindTools(_ []*schema.ToolInfo) error {
	return nil
}

func TestArkGenerate(t *testing.T) {
	chatModel := &fakeChatModel{reply: " polished text \n"}
	ark, err := NewArk(context.Background(), chatModel, "doubao-pro")
	require.NoError(t, err)

	result, err := ark.Generate(context.Background(), Request{Text: "raw text", SystemPrompt: "polish", ModelHint: "ignored"})
	require.NoError(t, err)

	assert.Equal(t, "polished text", result.Text)
	assert.Equal(t, "doubao-pro", result.Model)
	require.Len(t, chatModel.input, 2)
	assert.Equal(t, schema.System, chatModel.input[0].Role)
	assert.Equal(t, "polish", chatModel.input[0].Content)
	assert.Equal(t, schema.User, chatModel.input[1].Role)
	assert.Equal(t, "raw text", chatModel.input[1].Content)
}

func TestArkGenerateWithoutSystemPrompt(t *testing.T) {
	chatModel := &fakeChatModel{reply: "ok"}
	ark, err := NewArk(context.Background(), chatModel, "doubao-pro")
	require.NoError(t, err)

	_, err = ark.Generate(context.Background(), Request{Text: "raw"})
	require.NoError(t, err)
	require.Len(t, chatModel.input, 1)
	assert.Equal(t, schema.User, chatModel.input[0].Role)
}

func TestArkFailureIsBackendError(t *testing.T) {
	ark, err := NewArk(context.Background(), &fakeChatModel{err: errors.New("quota exceeded")}, "doubao-pro")
	require.NoError(t, err)

	_, err = ark.Generate(context.Background(), Request{Text: "raw"})
	require.Error(t, err)
	assert.True(t, IsError(err))
	assert.Contains(t, err.Error(), "quota exceeded")
}

func TestNewArkRequiresModel(t *testing.T) {
	_, err := NewArk(context.Background(), nil, "x")
	assert.Error(t, err)
}
