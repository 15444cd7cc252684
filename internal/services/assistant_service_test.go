package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"oustaa/internal/models"
	"oustaa/internal/repositories/memory"
	"oustaa/internal/utils"
	"oustaa/pkg/llm"
	"oustaa/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// fakeLLM records completion requests and echoes the last user message.
type fakeLLM struct {
	mu    sync.Mutex
	calls []llm.CompletionRequest
	err   error
}

func (f *fakeLLM) Name() string { return "fake" }

func (f *fakeLLM) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, req)
	if f.err != nil {
		return nil, f.err
	}
	last := req.Messages[len(req.Messages)-1]
	return &llm.CompletionResponse{Content: "echo: " + last.Content, Model: req.Model}, nil
}

func (f *fakeLLM) lastCall() llm.CompletionRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[len(f.calls)-1]
}

func newAssistant(provider llm.Provider, limit int) (AssistantService, *memory.Store) {
	store := memory.NewStore()
	svc := NewAssistantService(provider, memory.NewConversationRepository(store), AssistantOptions{
		DefaultModel: "gpt-4",
		Models:       []string{"gpt-4", "gpt-4o-mini"},
		HistoryLimit: limit,
		SystemPrompt: "You help OusTaa riders.",
	}, logger.NewNop())
	return svc, store
}

func TestAssistantAsk_KeepsConversation(t *testing.T) {
	provider := &fakeLLM{}
	svc, _ := newAssistant(provider, 20)
	ctx := context.Background()
	user := primitive.NewObjectID()

	first, err := svc.Ask(ctx, user, &AskRequest{Text: "Hello"})
	require.NoError(t, err)
	assert.NotEmpty(t, first.ConversationID)
	assert.Equal(t, "echo: Hello", first.Response)
	assert.Equal(t, "gpt-4", first.Model)

	second, err := svc.Ask(ctx, user, &AskRequest{Text: "Again", Model: "gpt-4o-mini", ConversationID: first.ConversationID})
	require.NoError(t, err)
	assert.Equal(t, first.ConversationID, second.ConversationID)

	call := provider.lastCall()
	assert.Equal(t, "gpt-4o-mini", call.Model)
	require.Len(t, call.Messages, 4)
	assert.Equal(t, llm.RoleSystem, call.Messages[0].Role)
	assert.Equal(t, "echo: Hello", call.Messages[2].Content)
	assert.Equal(t, "Again", call.Messages[3].Content)
}

func TestAssistantAsk_CapsHistory(t *testing.T) {
	provider := &fakeLLM{}
	svc, store := newAssistant(provider, 4)
	ctx := context.Background()
	user := primitive.NewObjectID()

	var conversationID string
	for i := 0; i < 6; i++ {
		resp, err := svc.Ask(ctx, user, &AskRequest{Text: fmt.Sprintf("question %d", i), ConversationID: conversationID})
		require.NoError(t, err)
		conversationID = resp.ConversationID
	}

	stored, err := memory.NewConversationRepository(store).Get(ctx, storageKey(user, conversationID))
	require.NoError(t, err)
	require.Len(t, stored.Messages, 5)
	assert.Equal(t, models.ConversationRoleSystem, stored.Messages[0].Role)
	assert.Equal(t, "question 4", stored.Messages[1].Content)
	assert.Equal(t, "echo: question 5", stored.Messages[4].Content)

	call := provider.lastCall()
	assert.Len(t, call.Messages, 5)
}

func TestAssistantAsk_UnknownModelFallsBack(t *testing.T) {
	provider := &fakeLLM{}
	svc, _ := newAssistant(provider, 20)

	resp, err := svc.Ask(context.Background(), primitive.NewObjectID(), &AskRequest{Text: "hi", Model: "made-up"})
	require.NoError(t, err)
	assert.Equal(t, "gpt-4", resp.Model)
	assert.Equal(t, "gpt-4", provider.lastCall().Model)
}

func TestAssistantAsk_Failures(t *testing.T) {
	ctx := context.Background()
	user := primitive.NewObjectID()

	svc, _ := newAssistant(&fakeLLM{err: errors.New("boom")}, 20)
	_, err := svc.Ask(ctx, user, &AskRequest{Text: "hi"})
	assert.ErrorIs(t, err, utils.UpstreamError("", nil))

	_, err = svc.Ask(ctx, user, &AskRequest{Text: "   "})
	assert.ErrorIs(t, err, utils.ValidationError("", nil))

	disabled, _ := newAssistant(nil, 20)
	_, err = disabled.Ask(ctx, user, &AskRequest{Text: "hi"})
	assert.ErrorIs(t, err, utils.UnavailableError(""))
}

func TestAssistantClearAndModels(t *testing.T) {
	provider := &fakeLLM{}
	svc, store := newAssistant(provider, 20)
	ctx := context.Background()
	user := primitive.NewObjectID()

	resp, err := svc.Ask(ctx, user, &AskRequest{Text: "hi"})
	require.NoError(t, err)

	require.NoError(t, svc.Clear(ctx, user, resp.ConversationID))
	require.NoError(t, svc.Clear(ctx, user, resp.ConversationID))
	_, err = memory.NewConversationRepository(store).Get(ctx, storageKey(user, resp.ConversationID))
	assert.Error(t, err)

	assert.ErrorIs(t, svc.Clear(ctx, user, ""), utils.ValidationError("", nil))

	list := svc.Models()
	assert.Equal(t, "gpt-4", list.Default)
	assert.Equal(t, []string{"gpt-4", "gpt-4o-mini"}, list.Models)
}
