// Package parse recovers structured transactions from noisy OCR output,
// banking-app screenshots and free-form typed or dictated text.
package parse

import (
	"log/slog"
	"math"
	"regexp"
	"strings"
)

// Sign is the inferred direction of a parsed transaction.
type Sign string

const (
	SignExpense Sign = "expense"
	SignIncome  Sign = "income"
	SignUnknown Sign = "unknown"
)

// ParsedItem is one recovered transaction candidate.
type ParsedItem struct {
	Description string  `json:"name"`
	Amount      float64 `json:"amount"`
	Sign        Sign    `json:"sign,omitempty"`
	CategoryID  string  `json:"category_id,omitempty"`
}

// Result is the outcome of parsing one block of text. Total is the last
// grand-total/balance value found, or nil when none was.
type Result struct {
	Items []ParsedItem `json:"items"`
	Total *float64     `json:"total"`
}

// Parser runs the line classifier and the ordered extraction strategies over
// a block of text. It is configured once with a Vocabulary and is safe for
// concurrent use: parsing touches no shared mutable state.
type Parser struct {
	vocab Vocabulary

	signedRE       *regexp.Regexp
	amountTokenRE  *regexp.Regexp
	receiptLineRE  *regexp.Regexp
	bareAmountRE   *regexp.Regexp
	currencyHintRE *regexp.Regexp
	totalRE        *regexp.Regexp
	decimalLookRE  *regexp.Regexp
	timeRE         *regexp.Regexp
	dateRE         *regexp.Regexp
	numericJunkRE  *regexp.Regexp
	opPrefixRE     *regexp.Regexp
	catSuffixRE    *regexp.Regexp
	strayGlyphRE   *regexp.Regexp
	incomeRE       *regexp.Regexp
	rejectRE       *regexp.Regexp
}

// NewParser compiles the extraction patterns for the given vocabulary.
func NewParser(vocab Vocabulary) *Parser {
	glyphs := vocab.CurrencyGlyphs
	num := `\d[\d\s\x{00a0}]*`

	return &Parser{
		vocab: vocab,

		signedRE: regexp.MustCompile(
			`([+\-−–])\s*(` + num + `(?:[.,]\d+)?)\s*[` + glyphs + `]`),
		amountTokenRE: regexp.MustCompile(
			`[+\-−–]?\s*\d[\d\s\x{00a0}.,]*\s*[` + glyphs + `]?`),
		receiptLineRE: regexp.MustCompile(
			`^(.{2,40}?)\s+(\d{1,3}(?:[\s\x{00a0}.,]\d{3})*(?:[.,]\d{1,2})?)\s*[₽рР]?\s*$`),
		bareAmountRE: regexp.MustCompile(
			`(` + num + `[.,]\d{2})\s*[` + glyphs + `]`),
		currencyHintRE: regexp.MustCompile(`\d\s*[` + glyphs + `]`),
		totalRE: regexp.MustCompile(
			`(?i)(?:` + alternation(vocab.TotalKeywords) + `)[:\s]*[₽$€]?\s*(\d[\d\s\x{00a0}.,]*)`),
		decimalLookRE: regexp.MustCompile(`\d{2}[.,]\d{2}`),
		timeRE:        regexp.MustCompile(`^\d{1,2}:\d{2}$`),
		dateRE:        regexp.MustCompile(`^\d{1,2}[./\-]\d{1,2}[./\-]\d{2,4}$`),
		numericJunkRE: regexp.MustCompile(`^[\d\s\x{00a0}.,:;+\-−–]+$`),
		opPrefixRE: regexp.MustCompile(
			`(?i)^(?:` + alternation(vocab.OperationPrefixes) + `)\s+`),
		catSuffixRE: regexp.MustCompile(
			`(?i)\s+(?:` + alternation(vocab.CategorySuffixes) + `)\s*$`),
		strayGlyphRE: regexp.MustCompile(`[«»<>‹›§¤]+`),
		incomeRE: regexp.MustCompile(
			`(?i)(?:` + alternation(vocab.IncomeKeywords) + `)`),
		rejectRE: regexp.MustCompile(
			`(?i)(?:` + alternation(vocab.RejectWords) + `)`),
	}
}

var defaultParser = NewParser(Russian)

// Parse runs the default Russian-vocabulary parser. See Parser.Parse.
func Parse(text string) Result {
	return defaultParser.Parse(text)
}

// Parse splits text into lines, classifies each and applies the extraction
// strategies, returning the deduplicated items and the detected total. It is
// a pure function over its input: empty or unmatchable input yields an empty
// result, never an error.
func (p *Parser) Parse(text string) Result {
	res := Result{Items: []ParsedItem{}}
	if strings.TrimSpace(text) == "" {
		return res
	}
	slog.Debug("parsing recognized text", "prefix", truncate(text, 200))

	var lines []string
	for _, raw := range strings.Split(text, "\n") {
		if l := strings.TrimSpace(raw); l != "" {
			lines = append(lines, l)
		}
	}

	for i, line := range lines {
		// The total detector runs on every line, including ones the
		// classifier rejects: "Итого" is noise for item extraction but is
		// exactly where the total lives. Last match wins.
		if v, ok := p.matchTotal(line); ok {
			res.Total = &v
		}

		if p.isNoise(line) {
			continue
		}

		prev := ""
		if i > 0 {
			prev = lines[i-1]
		}

		item, outcome := p.extractSigned(line, prev)
		switch outcome {
		case outcomeItem:
			res.Items = append(res.Items, item)
			continue
		case outcomeDiscard:
			continue
		}

		if item, ok := p.extractReceiptLine(line); ok {
			res.Items = append(res.Items, item)
			continue
		}

		if item, ok := p.extractBareAmount(lines, i); ok {
			res.Items = append(res.Items, item)
		}
	}

	res.Items = dedupe(res.Items)
	return res
}

// dedupe drops later items that repeat an earlier item's normalized
// description with an amount equal within tolerance. First occurrence wins.
func dedupe(items []ParsedItem) []ParsedItem {
	const tolerance = 0.01
	out := make([]ParsedItem, 0, len(items))
	for _, item := range items {
		key := strings.ToLower(strings.TrimSpace(item.Description))
		dup := false
		for _, seen := range out {
			if strings.ToLower(strings.TrimSpace(seen.Description)) == key &&
				math.Abs(seen.Amount-item.Amount) <= tolerance {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, item)
		}
	}
	return out
}

func alternation(words []string) string {
	quoted := make([]string, len(words))
	for i, w := range words {
		quoted[i] = regexp.QuoteMeta(w)
	}
	return strings.Join(quoted, "|")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
