package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/clauselens/clauselens/internal/domain/analysis"
	"github.com/clauselens/clauselens/internal/domain/conversation"
	"github.com/clauselens/clauselens/internal/infra/ai/prompt"
)

const maxTokens = 2048

// Client implements the analysis.Analyzer and conversation.Answerer ports
// directly against OpenAI, for deployments without a dedicated backend.
type Client struct {
	*openai.Client
	Model string
}

func NewClient(apiKey, model string) *Client {
	return &Client{Client: openai.NewClient(apiKey), Model: model}
}

// Analyze implements analysis.Analyzer
func (c *Client) Analyze(ctx context.Context, documentText string) (*analysis.Result, error) {
	raw, err := c.complete(ctx, prompt.AnalysisSystemPrompt(), prompt.AnalysisUserPrompt(documentText))
	if err != nil {
		return nil, err
	}

	var payload struct {
		Risks []struct {
			Level       string `json:"risk_level"`
			Description string `json:"description"`
			ClauseText  string `json:"clause_text"`
			Mitigation  string `json:"mitigation"`
			Type        string `json:"risk_type"`
		} `json:"risks"`
		Report string `json:"report"`
	}
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil, fmt.Errorf("malformed analysis payload: %w", err)
	}

	res := &analysis.Result{Report: payload.Report}
	for _, r := range payload.Risks {
		res.Risks = append(res.Risks, analysis.Risk{
			Level:       analysis.ParseSeverity(r.Level),
			Description: r.Description,
			ClauseText:  r.ClauseText,
			Mitigation:  r.Mitigation,
			Type:        r.Type,
		})
	}
	return res, nil
}

// Ask implements conversation.Answerer. The document id is not sent to the
// provider; it only scopes conversations locally.
func (c *Client) Ask(ctx context.Context, documentID, question, documentText string) (*conversation.Answer, error) {
	raw, err := c.complete(ctx, prompt.QASystemPrompt(), prompt.QAUserPrompt(question, documentText))
	if err != nil {
		return nil, err
	}

	var payload struct {
		Answer    string `json:"answer"`
		Citations []struct {
			Text  string `json:"text"`
			Label string `json:"label"`
		} `json:"citations"`
	}
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil, fmt.Errorf("malformed answer payload: %w", err)
	}

	ans := &conversation.Answer{Text: payload.Answer}
	for _, cit := range payload.Citations {
		ans.Citations = append(ans.Citations, conversation.Citation{
			Text:  cit.Text,
			Label: cit.Label,
		})
	}
	return ans, nil
}

func (c *Client) complete(ctx context.Context, system, user string) (string, error) {
	model := c.Model
	if model == "" {
		model = "gpt-4o-mini"
	}
	req := openai.ChatCompletionRequest{
		Model: model,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
	}
	// For reasoning models (o1/o3/o4/gpt-5*) use MaxCompletionTokens instead of MaxTokens
	if strings.HasPrefix(model, "o1") || strings.HasPrefix(model, "o3") || strings.HasPrefix(model, "o4") || strings.HasPrefix(model, "gpt-5") {
		req.MaxCompletionTokens = maxTokens
	} else {
		req.MaxTokens = maxTokens
	}

	resp, err := c.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("failed to create chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty completion response")
	}
	return resp.Choices[0].Message.Content, nil
}
