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

// GoogleVision runs Google Cloud Vision text detection over the uploaded
// image and feeds the recognized text through the heuristic parser. It is
// tried before the LLM backends: plain OCR is cheaper and its output is
// deterministic.
type GoogleVision struct {
	apiKey  string
	baseURL string
	client  *http.Client
	parser  *parse.Parser
}

// NewGoogleVision creates the Vision OCR backend. An empty API key leaves
// the backend constructed but unavailable.
func NewGoogleVision(apiKey string) *GoogleVision {
	return &GoogleVision{
		apiKey:  apiKey,
		baseURL: "https://vision.googleapis.com",
		client:  &http.Client{},
		parser:  parse.NewParser(parse.Russian),
	}
}

func (g *GoogleVision) Name() string { return "vision" }

func (g *GoogleVision) Available() bool { return g.apiKey != "" }

type visionRequest struct {
	Requests []visionAnnotateRequest `json:"requests"`
}

type visionAnnotateRequest struct {
	Image    visionImage     `json:"image"`
	Features []visionFeature `json:"features"`
}

type visionImage struct {
	Content string `json:"content"`
}

type visionFeature struct {
	Type       string `json:"type"`
	MaxResults int    `json:"maxResults"`
}

type visionResponse struct {
	Responses []struct {
		FullTextAnnotation struct {
			Text string `json:"text"`
		} `json:"fullTextAnnotation"`
		Error *struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	} `json:"responses"`
}

// Recognize OCRs the image and parses the recognized text.
func (g *GoogleVision) Recognize(ctx context.Context, in Input) (*parse.Result, error) {
	if len(in.Image) == 0 {
		return nil, errors.New("no image input")
	}

	pngData, err := preparePNG(in.Image, in.ContentType)
	if err != nil {
		return nil, err
	}

	reqBody := visionRequest{
		Requests: []visionAnnotateRequest{{
			Image: visionImage{Content: base64.StdEncoding.EncodeToString(pngData)},
			Features: []visionFeature{{
				Type:       "TEXT_DETECTION",
				MaxResults: 50,
			}},
		}},
	}
	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	url := fmt.Sprintf("%s/v1/images:annotate?key=%s", g.baseURL, g.apiKey)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling vision API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("vision API error (status %d): %s", resp.StatusCode, string(body))
	}

	var visionResp visionResponse
	if err := json.NewDecoder(resp.Body).Decode(&visionResp); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	if len(visionResp.Responses) == 0 {
		return nil, errors.New("empty vision response")
	}
	if apiErr := visionResp.Responses[0].Error; apiErr != nil {
		return nil, fmt.Errorf("vision API error %d: %s", apiErr.Code, apiErr.Message)
	}

	text := visionResp.Responses[0].FullTextAnnotation.Text
	if text == "" {
		return nil, errors.New("no text detected in image")
	}

	res := g.parser.Parse(text)
	if len(res.Items) == 0 && res.Total == nil {
		return nil, errors.New("no transactions in recognized text")
	}
	return &res, nil
}
