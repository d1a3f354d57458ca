package parse

import (
	"strings"
	"unicode/utf8"
)

// strayNumberMax is the length under which a digits-and-punctuation-only
// line is treated as a stray number rather than a transaction.
const strayNumberMax = 12

// isNoise reports whether a line is structurally certain not to represent a
// transaction: receipt boilerplate, section headers, dates, times, weekday
// and month labels, and short stray numbers. Anything else is a candidate
// for the extraction strategies.
func (p *Parser) isNoise(line string) bool {
	l := strings.ToLower(strings.TrimSpace(line))
	if l == "" {
		return true
	}

	for _, prefix := range p.vocab.NoisePrefixes {
		if strings.HasPrefix(l, prefix) {
			return true
		}
	}

	first := l
	if idx := strings.IndexAny(l, " \t,:"); idx >= 0 {
		first = l[:idx]
	}
	for _, word := range p.vocab.NoiseWords {
		if first == word {
			return true
		}
	}

	if p.timeRE.MatchString(l) || p.dateRE.MatchString(l) {
		return true
	}

	if p.numericJunkRE.MatchString(l) && utf8.RuneCountInString(l) < strayNumberMax {
		return true
	}

	return false
}
