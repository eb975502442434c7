package policy

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const chooserSystemPrompt = "You are seated at an online card table. " +
	"Study the view, the recap and the rules, then pick exactly one of the listed candidates. " +
	"Respond ONLY with a single compact JSON object of the form {\"candidate\":\"<id>\"} and nothing else."

// OpenAIChooser asks an OpenAI-compatible chat-completions endpoint to pick
// a candidate. The model must answer {"candidate":"<id>"}; fenced or
// embedded objects are salvaged before giving up.
type OpenAIChooser struct {
	BaseURL string
	APIKey  string
	Model   string
	// Client defaults to http.DefaultClient. Deadlines come from the
	// caller's context, not from here.
	Client *http.Client
}

// NewOpenAIChooser builds a chooser against an explicit endpoint.
func NewOpenAIChooser(baseURL, apiKey, model string) *OpenAIChooser {
	return &OpenAIChooser{BaseURL: baseURL, APIKey: apiKey, Model: model}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Choose implements Chooser.
func (c *OpenAIChooser) Choose(ctx context.Context, req Request) (string, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}
	body, err := json.Marshal(chatRequest{
		Model: c.Model,
		Messages: []chatMessage{
			{Role: "system", Content: chooserSystemPrompt},
			{Role: "user", Content: string(payload)},
		},
		Temperature: 0.2,
	})
	if err != nil {
		return "", fmt.Errorf("marshal chat request: %w", err)
	}

	url := strings.TrimRight(c.BaseURL, "/") + "/chat/completions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.APIKey)
	}

	client := c.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(httpReq)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	var cr chatResponse
	if err := json.Unmarshal(raw, &cr); err != nil {
		return "", fmt.Errorf("status %d: unparseable response %s", resp.StatusCode, snippet(string(raw)))
	}
	if resp.StatusCode != http.StatusOK {
		if cr.Error != nil && cr.Error.Message != "" {
			return "", fmt.Errorf("status %d: %s", resp.StatusCode, cr.Error.Message)
		}
		return "", fmt.Errorf("status %d: %s", resp.StatusCode, snippet(string(raw)))
	}
	if len(cr.Choices) == 0 {
		return "", fmt.Errorf("empty choices in response")
	}
	return parseCandidate(cr.Choices[0].Message.Content)
}

// parseCandidate accepts the strict reply contract, salvaging fenced or
// embedded JSON first.
func parseCandidate(content string) (string, error) {
	var out struct {
		Candidate string `json:"candidate"`
	}
	if err := json.Unmarshal([]byte(content), &out); err != nil {
		cleaned := extractJSONObject(content)
		if cleaned == "" || json.Unmarshal([]byte(cleaned), &out) != nil {
			return "", fmt.Errorf("unparseable chooser reply %s", snippet(content))
		}
	}
	if out.Candidate == "" {
		return "", fmt.Errorf("chooser reply names no candidate: %s", snippet(content))
	}
	return out.Candidate, nil
}

// extractJSONObject pulls the first top-level {...} block from text,
// removing common code fences like ```json ... ```.
func extractJSONObject(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
		if i := strings.IndexByte(s, '\n'); i >= 0 {
			s = s[i+1:]
		}
	}
	if strings.HasSuffix(s, "```") {
		s = strings.TrimSuffix(s, "```")
	}
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return ""
	}
	end := strings.LastIndexByte(s, '}')
	if end <= start {
		return ""
	}
	return strings.TrimSpace(s[start : end+1])
}

func snippet(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > 200 {
		return s[:200] + "..."
	}
	return s
}
