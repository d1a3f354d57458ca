package recognize

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"finbook/internal/parse"
)

// recognizePrompt is the shared prompt for the vision LLM backends.
const recognizePrompt = `You are analyzing an image of a Russian store receipt or a banking app screenshot. Carefully read all text and extract every purchase or transaction you can see.

Return ONLY valid JSON in this exact format:
{
  "items": [
    {"name": "Продукты Пятёрочка", "amount": 1234.56, "sign": "expense"}
  ],
  "total": 1234.56
}

Important:
- "name" is a short merchant or item description, in the language shown
- "amount" must be a positive number (not a string), without currency symbols
- "sign" is "expense" for purchases and outgoing payments, "income" for refunds and incoming transfers
- "total" is the receipt grand total if one is printed, otherwise null
- Skip dates, times, card numbers, balances and other service lines
- Do not include any text before or after the JSON
- Do not use markdown code blocks`

// replyBoundMax rejects LLM-invented amounts the same way the heuristic
// parser rejects OCR misreads.
const replyBoundMax = 10_000_000

type replyItem struct {
	Name   string  `json:"name"`
	Amount float64 `json:"amount"`
	Sign   string  `json:"sign"`
}

type itemsReply struct {
	Items []replyItem `json:"items"`
	Total *float64    `json:"total"`
}

// parseItemsReply extracts the items JSON from an LLM response, tolerating
// markdown fences and chatter around the object.
func parseItemsReply(text string) (*parse.Result, error) {
	text = strings.TrimSpace(text)
	slog.Debug("parsing model reply", "length", len(text))
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSpace(text)

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end < start {
		return nil, errors.New("no JSON object found in response")
	}

	var reply itemsReply
	if err := json.Unmarshal([]byte(text[start:end+1]), &reply); err != nil {
		return nil, fmt.Errorf("unmarshaling json: %w", err)
	}

	res := parse.Result{Items: []parse.ParsedItem{}}
	for _, it := range reply.Items {
		name := strings.TrimSpace(it.Name)
		if name == "" || it.Amount <= 0 || it.Amount >= replyBoundMax {
			continue
		}
		sign := parse.SignUnknown
		switch strings.ToLower(it.Sign) {
		case "expense":
			sign = parse.SignExpense
		case "income":
			sign = parse.SignIncome
		}
		res.Items = append(res.Items, parse.ParsedItem{
			Description: name,
			Amount:      it.Amount,
			Sign:        sign,
		})
	}
	if reply.Total != nil && *reply.Total > 0 && *reply.Total < replyBoundMax {
		res.Total = reply.Total
	}

	if len(res.Items) == 0 && res.Total == nil {
		return nil, errors.New("no transactions in response")
	}
	return &res, nil
}
