package parse

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	numericTokenRE = regexp.MustCompile(`^\d+(?:[.,]\d+)?$`)
	pureDigitsRE   = regexp.MustCompile(`^\d+$`)
	numSubstringRE = regexp.MustCompile(`\d+(?:[.,]\d+)?`)
	partSplitRE    = regexp.MustCompile(`[,;]+`)
)

// ParseInput extracts transaction items from free-form text such as typed
// shorthand or a voice transcript. Each item is a description paired with an
// amount; the amount may appear before or after its description ("кофе 300"
// and "300 кофе" are equivalent), and amounts may be written as number words.
func ParseInput(input string) []ParsedItem {
	return defaultParser.ParseInput(input)
}

func (p *Parser) ParseInput(input string) []ParsedItem {
	text := strings.Join(strings.Fields(input), " ")
	text = strings.TrimRight(text, ".,; ")
	if text == "" {
		return nil
	}

	tokens := strings.Fields(text)
	var items []ParsedItem
	var desc []string
	for i := 0; i < len(tokens); i++ {
		clean := trimToken(tokens[i])
		amount, isNum := numericValue(clean)
		if !isNum && !strings.ContainsAny(tokens[i], "0123456789") {
			if v, width, ok := numberWordsAt(tokens, i); ok {
				amount, isNum = float64(v), true
				i += width - 1
			}
		}
		switch {
		case isNum && amount > 0:
			if len(desc) > 0 {
				items = append(items, ParsedItem{
					Description: strings.Join(desc, " "),
					Amount:      amount,
				})
				desc = desc[:0]
				break
			}
			// Amount came first; collect the words after it.
			words, next := p.wordsAfter(tokens, i+1)
			if len(words) > 0 {
				items = append(items, ParsedItem{
					Description: strings.Join(words, " "),
					Amount:      amount,
				})
				i = next - 1
			}
		case clean != "":
			if w := p.wordToken(tokens[i]); w != "" {
				desc = append(desc, w)
			}
		}
	}

	if len(items) == 0 && strings.ContainsAny(text, ",;") {
		items = p.splitParts(text)
	}
	return filterItems(items)
}

// FormatItems renders items as "описание сумма, описание сумма". The output
// parses back into the same items, which lets stored input round-trip through
// an editable text field.
func FormatItems(items []ParsedItem) string {
	parts := make([]string, 0, len(items))
	for _, it := range items {
		parts = append(parts, it.Description+" "+FormatAmount(it.Amount))
	}
	return strings.Join(parts, ", ")
}

// FormatAmount renders an amount without a trailing zero fraction: 300 stays
// "300", 12.5 stays "12.5".
func FormatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// wordsAfter collects description words from tokens[start:] up to the next
// numeric token, returning the words and the index it stopped at.
func (p *Parser) wordsAfter(tokens []string, start int) ([]string, int) {
	var words []string
	j := start
	for j < len(tokens) {
		clean := trimToken(tokens[j])
		if _, isNum := numericValue(clean); isNum {
			break
		}
		if w := p.wordToken(tokens[j]); w != "" {
			words = append(words, w)
		}
		j++
	}
	return words, j
}

// splitParts is the fallback for comma-separated input the token scan could
// not pair, e.g. "такси 250, обед в кафе 600 руб".
func (p *Parser) splitParts(text string) []ParsedItem {
	var items []ParsedItem
	for _, part := range partSplitRE.Split(text, -1) {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		num := numSubstringRE.FindString(part)
		if num == "" {
			continue
		}
		amount, ok := numericValue(num)
		if !ok || amount <= 0 {
			continue
		}
		rest := numSubstringRE.ReplaceAllString(part, " ")
		var words []string
		for _, tok := range strings.Fields(rest) {
			if w := p.wordToken(tok); w != "" {
				words = append(words, w)
			}
		}
		if len(words) == 0 {
			continue
		}
		items = append(items, ParsedItem{
			Description: strings.Join(words, " "),
			Amount:      amount,
		})
	}
	return items
}

// wordToken strips punctuation and currency markers from a token, returning
// "" when nothing meaningful remains.
func (p *Parser) wordToken(tok string) string {
	w := trimToken(tok)
	if w == "" {
		return ""
	}
	lower := strings.ToLower(w)
	for _, cw := range p.vocab.CurrencyWords {
		if lower == cw || lower == cw+"." {
			return ""
		}
	}
	return w
}

func trimToken(tok string) string {
	return strings.Trim(tok, ".,;:₽₴$€ ")
}

func numericValue(s string) (float64, bool) {
	if !numericTokenRE.MatchString(s) {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// filterItems drops malformed candidates: empty or purely numeric
// descriptions and non-positive or implausibly large amounts.
func filterItems(items []ParsedItem) []ParsedItem {
	kept := items[:0]
	for _, it := range items {
		it.Description = strings.TrimSpace(it.Description)
		if it.Description == "" || pureDigitsRE.MatchString(it.Description) {
			continue
		}
		if it.Amount <= 0 || it.Amount >= maxAmount {
			continue
		}
		if it.Sign == "" {
			it.Sign = SignUnknown
		}
		kept = append(kept, it)
	}
	if len(kept) == 0 {
		return nil
	}
	return kept
}
