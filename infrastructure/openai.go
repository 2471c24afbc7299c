package infrastructure

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"ats-pipeline/domain"
)

// OpenAIClient covers both chat-completion extraction and embeddings with
// one client. Any OpenAI-compatible endpoint works via the base URL.
type OpenAIClient struct {
	client         *openai.Client
	chatModel      string
	embeddingModel string
}

func NewOpenAIClient(apiKey, baseURL, chatModel, embeddingModel string) *OpenAIClient {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAIClient{
		client:         openai.NewClientWithConfig(cfg),
		chatModel:      chatModel,
		embeddingModel: embeddingModel,
	}
}

const extractionPrompt = `You are a resume parser. Extract the following fields from the resume text below.

Fields to extract:
- name: full name of the candidate
- gender: if stated, otherwise ""
- phone: phone number
- email: email address
- highest_education: highest degree attained (e.g. bachelor, master, doctorate, associate, none)
- school: school of the highest degree
- major: major of the highest degree
- work_years: total years of work experience as an integer, or null if unclear
- current_position: most recent job title
- current_company: most recent employer
- skills: array of skill tags
- work_history: array of objects with keys company, position, start_date, end_date, description
- project_history: array of objects with keys name, role, start_date, end_date, description
- self_summary: the candidate's own summary/objective section, or ""

All dates must be normalized to "yyyy-MM" format, or the literal string "present" for ongoing entries.
Use "" for missing string fields and [] for missing arrays.

Return ONLY the raw JSON object without any markdown formatting, code blocks, or additional text.

Resume text:
%s`

// ExtractCandidate asks the model for structured fields and returns the raw
// response verbatim for audit storage.
func (c *OpenAIClient) ExtractCandidate(ctx context.Context, text string) (*domain.ExtractedCandidate, string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.chatModel,
		Temperature: 0.1,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: fmt.Sprintf(extractionPrompt, text),
			},
		},
	})
	if err != nil {
		return nil, "", fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, "", fmt.Errorf("no choices in completion response")
	}

	raw := resp.Choices[0].Message.Content
	cleaned := cleanJSONResponse(raw)

	var out domain.ExtractedCandidate
	if err := json.Unmarshal([]byte(cleaned), &out); err != nil {
		return nil, raw, fmt.Errorf("failed to parse extraction JSON: %w", err)
	}
	return &out, raw, nil
}

func (c *OpenAIClient) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := c.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Model: openai.EmbeddingModel(c.embeddingModel),
		Input: []string{text},
	})
	if err != nil {
		return nil, fmt.Errorf("embedding request failed: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("no embedding returned")
	}
	return resp.Data[0].Embedding, nil
}

// cleanJSONResponse strips markdown code fences the model sometimes wraps
// around its output, then trims to the outermost JSON object.
func cleanJSONResponse(content string) string {
	content = strings.TrimSpace(content)

	if strings.HasPrefix(content, "```json") {
		content = strings.TrimPrefix(content, "```json")
	} else if strings.HasPrefix(content, "```") {
		content = strings.TrimPrefix(content, "```")
	}
	if strings.HasSuffix(content, "```") {
		content = strings.TrimSuffix(content, "```")
	}

	content = strings.TrimSpace(content)

	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start != -1 && end != -1 && end > start {
		content = content[start : end+1]
	}

	return strings.TrimSpace(content)
}
