// Package ai wraps the OpenAI-compatible chat-completions API used for the
// three model calls sheepdiary makes: captioning a photo, extracting
// keywords from a photo at upload time, and composing a diary paragraph
// from a day's event drafts.
package ai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/sheeplab/sheepdiary/internal/config"
)

// DiaryDraft is one aggregated event handed to Compose: the event's own
// metadata plus the captions generated for its attached photos.
type DiaryDraft struct {
	EventID   int64    `json:"event_id"`
	StartTime string   `json:"start_time"`
	Place     string   `json:"place"`
	Emotion   string   `json:"emotion"`
	Keywords  []string `json:"keywords"`
	Captions  []string `json:"captions"`
}

// Extraction is the result of analyzing one uploaded photo.
type Extraction struct {
	Caption  string   `json:"caption"`
	Keywords []string `json:"keywords"`
}

// Client is the model-call contract. Implementations must be safe for
// concurrent use; the suggestion worker calls Caption from multiple
// goroutines.
type Client interface {
	// Caption describes one photo in complete sentences. The event's
	// keywords are passed as context to steer the description.
	Caption(ctx context.Context, image []byte, contextKeywords []string) (string, error)

	// ExtractKeywords produces a one-line caption and three concrete
	// keywords for a freshly uploaded photo.
	ExtractKeywords(ctx context.Context, image []byte) (*Extraction, error)

	// Compose writes a single diary paragraph from the day's drafts.
	Compose(ctx context.Context, drafts []DiaryDraft) (string, error)

	// TranslateKeywords renders extracted keywords in the diary's display
	// language, returning one translation per input keyword.
	TranslateKeywords(ctx context.Context, keywords []string) ([]string, error)
}

// httpClient implements Client against any chat-completions endpoint.
type httpClient struct {
	baseURL      string
	apiKey       string
	visionModel  string
	composeModel string
	client       *http.Client
}

// NewClient creates a Client from the AI config section.
func NewClient(cfg config.AIConfig) Client {
	return &httpClient{
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:       cfg.APIKey,
		visionModel:  cfg.VisionModel,
		composeModel: cfg.ComposeModel,
		client:       &http.Client{Timeout: cfg.Timeout},
	}
}

// --- wire types ---

type chatMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

type chatRequest struct {
	Model     string        `json:"model"`
	Messages  []chatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// doChat posts one chat-completions request and returns the first choice's
// content.
func (c *httpClient) doChat(ctx context.Context, model string, messages []chatMessage, maxTokens int) (string, error) {
	payload, err := json.Marshal(chatRequest{Model: model, Messages: messages, MaxTokens: maxTokens})
	if err != nil {
		return "", fmt.Errorf("encoding chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("building chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("calling model: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("model returned status %d: %s", resp.StatusCode, body)
	}

	var result chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decoding chat response: %w", err)
	}
	if len(result.Choices) == 0 {
		return "", fmt.Errorf("model returned no choices")
	}

	content := strings.TrimSpace(result.Choices[0].Message.Content)
	if content == "" {
		return "", fmt.Errorf("model returned empty content")
	}
	return content, nil
}

// imageDataURL encodes raw image bytes as a base64 data URL for vision calls.
func imageDataURL(image []byte) string {
	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(image)
}

// Caption describes one photo in complete sentences.
func (c *httpClient) Caption(ctx context.Context, image []byte, contextKeywords []string) (string, error) {
	messages := []chatMessage{
		{Role: "system", Content: captionSystemPrompt(contextKeywords)},
		{Role: "user", Content: []contentPart{
			{Type: "image_url", ImageURL: &imageURL{URL: imageDataURL(image)}},
		}},
	}

	caption, err := c.doChat(ctx, c.visionModel, messages, 500)
	if err != nil {
		return "", fmt.Errorf("captioning photo: %w", err)
	}
	return caption, nil
}

// ExtractKeywords produces a one-line caption and three concrete keywords
// for a freshly uploaded photo.
func (c *httpClient) ExtractKeywords(ctx context.Context, image []byte) (*Extraction, error) {
	messages := []chatMessage{
		{Role: "user", Content: []contentPart{
			{Type: "text", Text: extractPrompt},
			{Type: "image_url", ImageURL: &imageURL{URL: imageDataURL(image)}},
		}},
	}

	content, err := c.doChat(ctx, c.visionModel, messages, 300)
	if err != nil {
		return nil, fmt.Errorf("extracting keywords: %w", err)
	}

	var extraction Extraction
	if err := json.Unmarshal([]byte(stripCodeFence(content)), &extraction); err != nil {
		return nil, fmt.Errorf("parsing extraction response: %w", err)
	}
	if extraction.Caption == "" || len(extraction.Keywords) == 0 {
		return nil, fmt.Errorf("extraction response missing caption or keywords")
	}
	return &extraction, nil
}

// Compose writes a single diary paragraph from the day's drafts, in the
// caller-supplied order.
func (c *httpClient) Compose(ctx context.Context, drafts []DiaryDraft) (string, error) {
	if len(drafts) == 0 {
		return "", fmt.Errorf("no drafts to compose")
	}

	messages := []chatMessage{
		{Role: "system", Content: composeSystemPrompt},
		{Role: "user", Content: composeUserPrompt(drafts)},
	}

	diary, err := c.doChat(ctx, c.composeModel, messages, 800)
	if err != nil {
		return "", fmt.Errorf("composing diary: %w", err)
	}
	return diary, nil
}

// TranslateKeywords renders keywords in the diary's display language.
func (c *httpClient) TranslateKeywords(ctx context.Context, keywords []string) ([]string, error) {
	if len(keywords) == 0 {
		return nil, nil
	}

	messages := []chatMessage{
		{Role: "user", Content: translatePrompt(keywords)},
	}

	content, err := c.doChat(ctx, c.composeModel, messages, 200)
	if err != nil {
		return nil, fmt.Errorf("translating keywords: %w", err)
	}

	var translated []string
	if err := json.Unmarshal([]byte(extractJSONArray(content)), &translated); err != nil {
		// Fall back to comma/newline splitting when the model ignores the
		// JSON-only instruction.
		return splitLoose(content), nil
	}
	return translated, nil
}

// stripCodeFence removes a surrounding markdown code fence, with or without
// a language tag. Models sometimes wrap JSON output in one despite being
// told not to.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// extractJSONArray returns the first bracketed array in s, or s unchanged.
func extractJSONArray(s string) string {
	s = stripCodeFence(s)
	start := strings.Index(s, "[")
	end := strings.LastIndex(s, "]")
	if start >= 0 && end > start {
		return s[start : end+1]
	}
	return s
}

// splitLoose splits free-form model output on commas and newlines.
func splitLoose(s string) []string {
	var out []string
	for _, part := range strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == '\n'
	}) {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
