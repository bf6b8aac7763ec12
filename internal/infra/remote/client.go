package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/clauselens/clauselens/internal/domain/analysis"
	"github.com/clauselens/clauselens/internal/domain/conversation"
)

// Client talks to the backend analysis/Q&A API. It implements both the
// analysis.Analyzer and conversation.Answerer ports. Non-success responses
// become analysis.ServiceError carrying the backend's JSON detail when one
// is present; the application layer never parses response shapes itself.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

type riskPayload struct {
	Level       string `json:"risk_level"`
	Description string `json:"description"`
	ClauseText  string `json:"clause_text"`
	Mitigation  string `json:"mitigation"`
	Type        string `json:"risk_type"`
}

type analyzePayload struct {
	Risks  []riskPayload `json:"risks"`
	Report string        `json:"report"`
}

// Analyze implements analysis.Analyzer
func (c *Client) Analyze(ctx context.Context, documentText string) (*analysis.Result, error) {
	var payload analyzePayload
	err := c.post(ctx, "/analysis/", map[string]string{
		"document_text": documentText,
	}, &payload)
	if err != nil {
		return nil, err
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

type answerPayload struct {
	Answer    string `json:"answer"`
	Citations []struct {
		Text  string `json:"text"`
		Label string `json:"label"`
	} `json:"citations"`
}

// Ask implements conversation.Answerer
func (c *Client) Ask(ctx context.Context, documentID, question, documentText string) (*conversation.Answer, error) {
	var payload answerPayload
	err := c.post(ctx, "/qa/ask", map[string]string{
		"document_id":   documentID,
		"question":      question,
		"document_text": documentText,
	}, &payload)
	if err != nil {
		return nil, err
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

// Health probes whether the backend is reachable
func (c *Client) Health(ctx context.Context) bool {
	root := strings.TrimSuffix(c.baseURL, "/api")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, root+"/docs", nil)
	if err != nil {
		return false
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode >= 200 && resp.StatusCode < 300
}

func (c *Client) post(ctx context.Context, path string, body any, out any) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("backend unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return serviceError(resp)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// serviceError extracts the optional {"detail": "..."} body
func serviceError(resp *http.Response) error {
	var detail struct {
		Detail string `json:"detail"`
	}
	_ = json.NewDecoder(resp.Body).Decode(&detail)
	return &analysis.ServiceError{Status: resp.StatusCode, Detail: detail.Detail}
}
