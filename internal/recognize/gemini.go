package recognize

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"finbook/internal/parse"
)

// Gemini recognizes receipts with Google Gemini vision models. The client is
// created per request so that an unconfigured backend costs nothing and a
// transient client failure does not poison the chain.
type Gemini struct {
	apiKey string
	model  string
}

// NewGemini creates the Gemini backend. An empty API key leaves it
// constructed but unavailable; an empty model name selects the default.
func NewGemini(apiKey, modelName string) *Gemini {
	if modelName == "" {
		modelName = "gemini-2.5-pro"
	}
	return &Gemini{apiKey: apiKey, model: modelName}
}

func (g *Gemini) Name() string { return "gemini" }

func (g *Gemini) Available() bool { return g.apiKey != "" }

// Recognize sends the image to Gemini and parses the items JSON it returns.
func (g *Gemini) Recognize(ctx context.Context, in Input) (*parse.Result, error) {
	if len(in.Image) == 0 {
		return nil, errors.New("no image input")
	}

	pngData, err := preparePNG(in.Image, in.ContentType)
	if err != nil {
		return nil, err
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(g.apiKey))
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}
	defer client.Close()

	model := client.GenerativeModel(g.model)
	resp, err := model.GenerateContent(ctx,
		genai.ImageData("png", pngData),
		genai.Text(recognizePrompt),
	)
	if err != nil {
		return nil, fmt.Errorf("generating content: %w", err)
	}
	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, errors.New("no response from gemini")
	}

	var responseText strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			responseText.WriteString(string(text))
		}
	}

	res, err := parseItemsReply(responseText.String())
	if err != nil {
		return nil, fmt.Errorf("parsing gemini reply: %w", err)
	}
	return res, nil
}
