package categorize

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Suggestion is one LLM verdict: map the item at Index to an existing
// category by name, or propose a new one when IsNew is set.
type Suggestion struct {
	Index    int    `json:"index"`
	Category string `json:"category"`
	Icon     string `json:"icon"`
	IsNew    bool   `json:"isNew"`
}

// OpenAISuggester asks an OpenAI chat model to categorize items the keyword
// dictionary could not, allowing it to propose new categories with an emoji
// icon.
type OpenAISuggester struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
}

// NewOpenAISuggester creates the suggester. An empty API key leaves it
// constructed but unavailable; an empty model name selects the default.
func NewOpenAISuggester(apiKey, modelName string) *OpenAISuggester {
	if modelName == "" {
		modelName = "gpt-4o-mini"
	}
	return &OpenAISuggester{
		apiKey:  apiKey,
		model:   modelName,
		baseURL: "https://api.openai.com",
		client:  &http.Client{},
	}
}

func (s *OpenAISuggester) Available() bool { return s.apiKey != "" }

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Suggest returns one suggestion per item the model managed to place.
// Suggestion indexes refer to positions in items.
func (s *OpenAISuggester) Suggest(ctx context.Context, items []Item, categories []Category) ([]Suggestion, error) {
	if !s.Available() {
		return nil, errors.New("openai api key not configured")
	}
	if len(items) == 0 {
		return nil, nil
	}

	reqBody := chatRequest{
		Model:       s.model,
		Temperature: 0.3,
		MaxTokens:   800,
		Messages: []chatMessage{
			{Role: "user", Content: buildPrompt(items, categories)},
		},
	}
	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	url := fmt.Sprintf("%s/v1/chat/completions", s.baseURL)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling openai API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("openai API error (status %d): %s", resp.StatusCode, string(body))
	}

	var chatResp chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	if len(chatResp.Choices) == 0 {
		return nil, errors.New("no response from openai")
	}

	return parseSuggestions(chatResp.Choices[0].Message.Content, len(items))
}

func buildPrompt(items []Item, categories []Category) string {
	names := make([]string, 0, len(categories))
	for _, c := range categories {
		names = append(names, strings.TrimSpace(c.Icon+" "+c.Name))
	}
	existing := strings.Join(names, ", ")
	if existing == "" {
		existing = "пока нет"
	}

	var ops strings.Builder
	for i, it := range items {
		fmt.Fprintf(&ops, "%d. %s - %s₽\n", i+1, it.Description, trimFloat(it.Amount))
	}

	return fmt.Sprintf(`Определи категории для операций. Используй существующие категории или предложи новые с иконками.

СУЩЕСТВУЮЩИЕ КАТЕГОРИИ: %s

ОПЕРАЦИИ:
%s
Ответь JSON массивом:
[{"index": 0, "category": "название", "icon": "эмодзи", "isNew": false}]

Правила:
- Если подходит существующая категория - isNew: false, icon из существующей
- Если нужна новая категория - isNew: true, подбери подходящую иконку-эмодзи
- Иконки должны быть простые эмодзи

Только JSON, без объяснений.`, existing, ops.String())
}

func trimFloat(v float64) string {
	s := fmt.Sprintf("%.2f", v)
	s = strings.TrimRight(s, "0")
	return strings.TrimRight(s, ".")
}

// parseSuggestions extracts the JSON array from the model reply, dropping
// suggestions with an empty category or an index outside [0, n).
func parseSuggestions(content string, n int) ([]Suggestion, error) {
	start := strings.Index(content, "[")
	end := strings.LastIndex(content, "]")
	if start == -1 || end < start {
		return nil, errors.New("no JSON array found in response")
	}

	var raw []Suggestion
	if err := json.Unmarshal([]byte(content[start:end+1]), &raw); err != nil {
		return nil, fmt.Errorf("unmarshaling json: %w", err)
	}

	out := make([]Suggestion, 0, len(raw))
	for _, sg := range raw {
		sg.Category = strings.TrimSpace(sg.Category)
		if sg.Category == "" || sg.Index < 0 || sg.Index >= n {
			continue
		}
		out = append(out, sg)
	}
	return out, nil
}
