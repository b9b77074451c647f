package prequal

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"lexconnect/models"

	genai "github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const systemPrompt = `You help people describe a legal problem before they talk to a lawyer.
Never give legal advice. Ask at most one short follow-up question per reply.
Answer with a JSON object: {"category": one of [%s] or "", "urgency": "low"|"normal"|"high",
"summary": one sentence, "city": city if mentioned or "", "reply": your message to the user,
"ready": true when category and urgency are clear}.`

type GeminiClassifier struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

func NewGeminiClassifier(ctx context.Context, apiKey, modelName string) (*GeminiClassifier, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	model := client.GenerativeModel(modelName)
	model.ResponseMIMEType = "application/json"
	model.SetTemperature(0.2)
	model.SystemInstruction = &genai.Content{Parts: []genai.Part{
		genai.Text(fmt.Sprintf(systemPrompt, strings.Join(models.Categories, ", "))),
	}}
	return &GeminiClassifier{client: client, model: model}, nil
}

func (g *GeminiClassifier) Close() error {
	return g.client.Close()
}

func (g *GeminiClassifier) Classify(ctx context.Context, turns []models.PrequalTurn) (*Assessment, error) {
	if len(turns) == 0 {
		return nil, fmt.Errorf("gemini: empty conversation")
	}
	cs := g.model.StartChat()
	for _, t := range turns[:len(turns)-1] {
		role := "user"
		if t.Role == roleAssistant {
			role = "model"
		}
		cs.History = append(cs.History, &genai.Content{Role: role, Parts: []genai.Part{genai.Text(t.Text)}})
	}
	resp, err := cs.SendMessage(ctx, genai.Text(turns[len(turns)-1].Text))
	if err != nil {
		return nil, fmt.Errorf("gemini generate error: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, fmt.Errorf("gemini: empty response")
	}
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	return parseAssessment(sb.String())
}

// parseAssessment decodes the model output and drops values outside the
// known category and urgency sets.
func parseAssessment(raw string) (*Assessment, error) {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimSuffix(strings.TrimPrefix(raw, "```"), "```")
	var a Assessment
	if err := json.Unmarshal([]byte(raw), &a); err != nil {
		return nil, fmt.Errorf("gemini: malformed assessment: %w", err)
	}
	if !models.IsValidCategory(a.Category) {
		a.Category = ""
		a.Ready = false
	}
	if !models.IsValidUrgency(a.Urgency) {
		a.Urgency = models.UrgencyNormal
	}
	if strings.TrimSpace(a.Reply) == "" {
		return nil, fmt.Errorf("gemini: assessment without reply")
	}
	return &a, nil
}
