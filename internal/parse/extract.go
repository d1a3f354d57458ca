package parse

import (
	"strings"
	"unicode/utf8"
)

// lineOutcome is the verdict of a strategy on a candidate line.
type lineOutcome int

const (
	// outcomeNone: the strategy did not match; later strategies may try.
	outcomeNone lineOutcome = iota
	// outcomeItem: an item was extracted from the line.
	outcomeItem
	// outcomeDiscard: the strategy matched but the candidate is invalid;
	// the line is dropped without falling through, so a later strategy
	// cannot double-count the same amount span.
	outcomeDiscard
)

const (
	descriptionMin = 2
	descriptionMax = 50
	// descriptionKeep is the truncation length for emitted descriptions.
	descriptionKeep = 30
	// lookbackDepth bounds the backward scan for a description line.
	lookbackDepth = 3
)

// extractSigned handles the banking-app export style: an explicitly signed
// amount with a currency glyph somewhere in the line, the description in the
// rest of the line or in the line above.
func (p *Parser) extractSigned(line, prev string) (ParsedItem, lineOutcome) {
	m := p.signedRE.FindStringSubmatch(line)
	if m == nil {
		return ParsedItem{}, outcomeNone
	}

	amount, ok := amountValue(m[2])
	if !ok {
		if amount <= 0 {
			// Zero after normalization: the line is junk, drop it outright.
			return ParsedItem{}, outcomeDiscard
		}
		// Out of bounds; let the remaining strategies have a look.
		return ParsedItem{}, outcomeNone
	}

	desc := strings.TrimSpace(p.amountTokenRE.ReplaceAllString(line, " "))
	if utf8.RuneCountInString(desc) < 3 && p.usableNeighbor(prev) {
		desc = strings.TrimSpace(prev)
	}
	desc = p.cleanDescription(desc)

	n := utf8.RuneCountInString(desc)
	if n < descriptionMin || n > descriptionMax {
		return ParsedItem{}, outcomeDiscard
	}

	sign := SignExpense
	if m[1] == "+" || p.incomeRE.MatchString(line) || p.incomeRE.MatchString(prev) {
		sign = SignIncome
	}

	return ParsedItem{
		Description: truncate(desc, descriptionKeep),
		Amount:      amount,
		Sign:        sign,
	}, outcomeItem
}

// extractReceiptLine handles the POS receipt style: a short item name
// followed by an amount (optionally grouped, optionally with a currency
// glyph) anchored to the whole line.
func (p *Parser) extractReceiptLine(line string) (ParsedItem, bool) {
	m := p.receiptLineRE.FindStringSubmatch(line)
	if m == nil {
		return ParsedItem{}, false
	}

	name := strings.TrimSpace(m[1])
	if p.rejectRE.MatchString(strings.ToLower(name)) {
		// Total/discount/cash/change rows belong to the total detector.
		return ParsedItem{}, false
	}

	amount, ok := amountValue(m[2])
	if !ok {
		return ParsedItem{}, false
	}

	n := utf8.RuneCountInString(name)
	if n < descriptionMin || n > descriptionMax {
		return ParsedItem{}, false
	}

	return ParsedItem{
		Description: truncate(name, descriptionKeep),
		Amount:      amount,
		Sign:        SignExpense,
	}, true
}

// extractBareAmount handles a line that is only a decimal amount with a
// currency glyph: the description is borrowed from the nearest plausible
// line above, scanning back at most lookbackDepth lines.
func (p *Parser) extractBareAmount(lines []string, i int) (ParsedItem, bool) {
	line := lines[i]
	m := p.bareAmountRE.FindStringSubmatch(line)
	if m == nil {
		return ParsedItem{}, false
	}

	// Only fires when the line carries no usable inline description.
	inline := strings.TrimSpace(p.amountTokenRE.ReplaceAllString(line, " "))
	if utf8.RuneCountInString(inline) >= 3 {
		return ParsedItem{}, false
	}

	amount, ok := amountValue(m[1])
	if !ok {
		return ParsedItem{}, false
	}

	for j := i - 1; j >= 0 && j >= i-lookbackDepth; j-- {
		prev := strings.TrimSpace(lines[j])
		n := utf8.RuneCountInString(prev)
		if n < 3 || n > 40 {
			continue
		}
		if p.isNoise(prev) || p.decimalLookRE.MatchString(prev) {
			continue
		}
		return ParsedItem{
			Description: truncate(prev, descriptionKeep),
			Amount:      amount,
			Sign:        SignExpense,
		}, true
	}
	return ParsedItem{}, false
}

// matchTotal reports the grand-total/balance value carried by the line, if
// any. It never produces an item.
func (p *Parser) matchTotal(line string) (float64, bool) {
	m := p.totalRE.FindStringSubmatch(line)
	if m == nil {
		return 0, false
	}
	return amountValue(m[1])
}

// usableNeighbor reports whether prev can donate its text as a description:
// it must be non-noise and must not itself carry a currency amount, so two
// adjacent amount lines never chain.
func (p *Parser) usableNeighbor(prev string) bool {
	prev = strings.TrimSpace(prev)
	if prev == "" || p.isNoise(prev) {
		return false
	}
	return !p.currencyHintRE.MatchString(prev)
}

// cleanDescription strips operation-type prefixes, trailing category labels
// and stray OCR glyphs from a recovered description.
func (p *Parser) cleanDescription(desc string) string {
	desc = p.strayGlyphRE.ReplaceAllString(desc, "")
	desc = p.opPrefixRE.ReplaceAllString(desc, "")
	desc = p.catSuffixRE.ReplaceAllString(desc, "")
	desc = strings.Join(strings.Fields(desc), " ")
	return strings.Trim(desc, " -–—:.,")
}
