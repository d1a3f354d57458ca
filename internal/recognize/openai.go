package recognize

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"finbook/internal/parse"
)

// OpenAI recognizes receipts with the OpenAI vision-capable chat models. It
// is the last backend in the chain, used when both OCR and Gemini abstain.
type OpenAI struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
}

// NewOpenAI creates the OpenAI backend. An empty API key leaves it
// constructed but unavailable; an empty model name selects the default.
func NewOpenAI(apiKey, modelName string) *OpenAI {
	if modelName == "" {
		modelName = "gpt-4o"
	}
	return &OpenAI{
		apiKey:  apiKey,
		model:   modelName,
		baseURL: "https://api.openai.com",
		client:  &http.Client{},
	}
}

func (o *OpenAI) Name() string { return "openai" }

func (o *OpenAI) Available() bool { return o.apiKey != "" }

type openaiChatRequest struct {
	Model     string          `json:"model"`
	Messages  []openaiMessage `json:"messages"`
	MaxTokens int             `json:"max_tokens"`
}

type openaiMessage struct {
	Role    string              `json:"role"`
	Content []openaiContentPart `json:"content"`
}

type openaiContentPart struct {
	Type     string          `json:"type"`
	Text     string          `json:"text,omitempty"`
	ImageURL *openaiImageURL `json:"image_url,omitempty"`
}

type openaiImageURL struct {
	URL string `json:"url"`
}

type openaiChatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Recognize sends the image to the chat completions API and parses the
// items JSON from the reply.
func (o *OpenAI) Recognize(ctx context.Context, in Input) (*parse.Result, error) {
	if len(in.Image) == 0 {
		return nil, errors.New("no image input")
	}

	pngData, err := preparePNG(in.Image, in.ContentType)
	if err != nil {
		return nil, err
	}
	dataURL := "data:image/png;base64," + base64.StdEncoding.EncodeToString(pngData)

	reqBody := openaiChatRequest{
		Model:     o.model,
		MaxTokens: 2000,
		Messages: []openaiMessage{{
			Role: "user",
			Content: []openaiContentPart{
				{Type: "text", Text: recognizePrompt},
				{Type: "image_url", ImageURL: &openaiImageURL{URL: dataURL}},
			},
		}},
	}
	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	url := fmt.Sprintf("%s/v1/chat/completions", o.baseURL)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+o.apiKey)

	resp, err := o.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling openai API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("openai API error (status %d): %s", resp.StatusCode, string(body))
	}

	var chatResp openaiChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	if len(chatResp.Choices) == 0 {
		return nil, errors.New("no response from openai")
	}

	res, err := parseItemsReply(chatResp.Choices[0].Message.Content)
	if err != nil {
		return nil, fmt.Errorf("parsing openai reply: %w", err)
	}
	return res, nil
}
