package recognize

import (
	"context"
	"errors"
	"strings"

	"finbook/internal/parse"
)

// TextParser recognizes typed or dictated input locally, without any remote
// calls. It is the first backend in the chain so that plain text never
// spends a network round trip.
type TextParser struct {
	parser *parse.Parser
}

// NewTextParser creates the local text backend with the default vocabulary.
func NewTextParser() *TextParser {
	return &TextParser{parser: parse.NewParser(parse.Russian)}
}

func (t *TextParser) Name() string { return "text" }

// Available is always true: the backend needs no configuration.
func (t *TextParser) Available() bool { return true }

// Recognize parses the text input. Multi-line text is treated as a pasted
// receipt or banking export first; single-line text as free-form shorthand.
// Whichever interpretation fails, the other is tried before abstaining.
func (t *TextParser) Recognize(_ context.Context, in Input) (*parse.Result, error) {
	text := strings.TrimSpace(in.Text)
	if text == "" {
		return nil, errors.New("no text input")
	}

	if strings.Contains(text, "\n") {
		if res := t.parser.Parse(text); len(res.Items) > 0 || res.Total != nil {
			return &res, nil
		}
		if items := t.parser.ParseInput(text); len(items) > 0 {
			return &parse.Result{Items: items}, nil
		}
		return nil, errors.New("no transactions in text")
	}

	if items := t.parser.ParseInput(text); len(items) > 0 {
		return &parse.Result{Items: items}, nil
	}
	if res := t.parser.Parse(text); len(res.Items) > 0 || res.Total != nil {
		return &res, nil
	}
	return nil, errors.New("no transactions in text")
}
