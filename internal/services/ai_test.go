package services

import (
	"context"
	"errors"
	"testing"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fuelops/task-tracker/internal/models"
)

type fakeCompleter struct {
	reply string
	err   error
	req   openai.ChatCompletionRequest
}

func (f *fakeCompleter) CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	f.req = req
	if f.err != nil {
		return openai.ChatCompletionResponse{}, f.err
	}
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{{Message: openai.ChatCompletionMessage{Content: f.reply}}},
	}, nil
}

func TestDraftTasks(t *testing.T) {
	client := &fakeCompleter{reply: "```json\n" + `[
		{"title": "Pompa 3 hortumunu değiştir", "department": "istasyon", "priority": "high", "requires_photo": true},
		{"title": "Kasa farkını raporla", "department": "muhasebe", "priority": "urgent"},
		{"title": "Otopark çizgilerini boya", "department": "otopark"},
		{"title": "  ", "department": "vardiya"}
	]` + "\n```"}
	svc := NewAIServiceWithClient(client, 0)

	drafts, err := svc.DraftTasks(context.Background(), "3 numaralı pompanın hortumu patladı, kasa da tutmuyor")
	require.NoError(t, err)
	require.Len(t, drafts, 2)

	assert.Equal(t, "Pompa 3 hortumunu değiştir", drafts[0].Title)
	assert.Equal(t, models.DepartmentStation, drafts[0].Department)
	assert.Equal(t, models.PriorityHigh, drafts[0].Priority)
	assert.True(t, drafts[0].RequiresPhoto)
	assert.Equal(t, models.PriorityMedium, drafts[1].Priority, "unknown priority falls back to medium")

	require.Len(t, client.req.Messages, 1)
	assert.Contains(t, client.req.Messages[0].Content, "kasa da tutmuyor")
}

func TestDraftTasks_Errors(t *testing.T) {
	ctx := context.Background()

	var unset *AIService
	_, err := unset.DraftTasks(ctx, "metin")
	assert.ErrorIs(t, err, ErrAIServiceNotConfigured)

	_, err = NewAIServiceWithClient(&fakeCompleter{}, 0).DraftTasks(ctx, "  ")
	assert.ErrorIs(t, err, ErrAITextRequired)

	_, err = NewAIServiceWithClient(&fakeCompleter{reply: "[]"}, 0).DraftTasks(ctx, "metin")
	assert.ErrorIs(t, err, ErrAINoTasksGenerated)

	_, err = NewAIServiceWithClient(&fakeCompleter{reply: "bugün görev yok"}, 0).DraftTasks(ctx, "metin")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse AI response")

	_, err = NewAIServiceWithClient(&fakeCompleter{err: errors.New("rate limited")}, 0).DraftTasks(ctx, "metin")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "AI request failed")
}

func TestGenerateDrafts_RequiresManager(t *testing.T) {
	svc := &CatalogService{ai: NewAIServiceWithClient(&fakeCompleter{reply: "[]"}, 0)}
	_, err := svc.GenerateDrafts(context.Background(), &models.User{Role: models.RoleSupervisor}, "metin")
	assert.ErrorIs(t, err, ErrGeneralManagerOnly)

	svc.ai = nil
	_, err = svc.GenerateDrafts(context.Background(), &models.User{Role: models.RoleGeneralManager}, "metin")
	assert.ErrorIs(t, err, ErrAIServiceNotConfigured)
}
