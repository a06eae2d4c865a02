package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/fuelops/task-tracker/internal/constants"
	apierrors "github.com/fuelops/task-tracker/internal/errors"
	"github.com/fuelops/task-tracker/internal/models"
)

var (
	ErrAIServiceNotConfigured = apierrors.Validation("AI service is not configured")
	ErrAINoTasksGenerated     = apierrors.Validation("AI did not generate any tasks")
	ErrAITextRequired         = apierrors.Validation("text is required")
)

// Completer is the slice of the OpenAI client the drafting service uses.
type Completer interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

type AIService struct {
	client  Completer
	timeout time.Duration
}

// TaskDraft is an ad-hoc task suggested from free text. Drafts are never
// saved; the general manager creates the ones they keep.
type TaskDraft struct {
	Title         string            `json:"title"`
	Description   string            `json:"description"`
	Department    models.Department `json:"department"`
	Priority      models.Priority   `json:"priority"`
	RequiresPhoto bool              `json:"requires_photo"`
}

func NewAIService(apiKey string, timeout time.Duration) *AIService {
	return NewAIServiceWithClient(openai.NewClient(apiKey), timeout)
}

func NewAIServiceWithClient(client Completer, timeout time.Duration) *AIService {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &AIService{client: client, timeout: timeout}
}

// DraftTasks asks the model to turn text into ad-hoc task drafts and drops
// drafts without a title or with a department the catalog does not have.
func (s *AIService) DraftTasks(ctx context.Context, text string) ([]TaskDraft, error) {
	if s == nil || s.client == nil {
		return nil, ErrAIServiceNotConfigured
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrAITextRequired
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	prompt := fmt.Sprintf(`Sen bir akaryakıt istasyonu için görev çıkarma asistanısın. Aşağıdaki metinden yapılacak somut görevleri çıkar.

Metin:
%s

Sonucu yalnızca şu JSON dizisi olarak döndür:
[
  {
    "title": "kısa görev başlığı",
    "description": "görevin ayrıntısı",
    "department": "istasyon | muhasebe | vardiya",
    "priority": "low | medium | high",
    "requires_photo": true
  }
]

Kurallar:
- Görev yoksa boş dizi [] döndür
- department yalnızca istasyon, muhasebe veya vardiya olabilir
- Fotoğraf veya belge ile kanıtlanması gereken işlerde requires_photo true olsun
- Açıklama metni ekleme, yalnızca JSON döndür`, text)

	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: openai.GPT4o,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
		Temperature: 0.3,
	})
	if err != nil {
		return nil, apierrors.External("AI request failed", err)
	}
	if len(resp.Choices) == 0 {
		return nil, apierrors.External("AI returned no choices", nil)
	}

	content := stripCodeFence(resp.Choices[0].Message.Content)

	var drafts []TaskDraft
	if err := json.Unmarshal([]byte(content), &drafts); err != nil {
		return nil, apierrors.External("failed to parse AI response", err)
	}

	valid := make([]TaskDraft, 0, len(drafts))
	for _, d := range drafts {
		d.Title = strings.TrimSpace(d.Title)
		if d.Title == "" || !d.Department.ValidForTask() {
			continue
		}
		if !d.Priority.Valid() {
			d.Priority = models.PriorityMedium
		}
		valid = append(valid, d)
		if len(valid) == constants.MaxAIGeneratedTasks {
			break
		}
	}
	if len(valid) == 0 {
		return nil, ErrAINoTasksGenerated
	}
	return valid, nil
}

// stripCodeFence removes a ```json ... ``` wrapper some model replies carry.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
