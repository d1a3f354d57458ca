package parse

import (
	"math"
	"strconv"
	"strings"
	"unicode"
)

// maxAmount rejects amounts that are almost certainly OCR misreads (a stray
// date or card number glued onto a price).
const maxAmount = 10_000_000

// ocrDigits maps letter glyphs that OCR engines commonly confuse with digits
// inside numeric tokens. Applied only to substrings already believed to be
// amounts, never to descriptions.
var ocrDigits = strings.NewReplacer(
	"О", "0", "о", "0", "O", "0", "o", "0",
	"З", "3", "з", "3",
	"Б", "6", "б", "6",
	"S", "5", "s", "5",
	"I", "1", "l", "1", "|", "1",
)

// NormalizeAmount cleans a raw numeric-looking substring into a string safe
// to parse as a float: fixes OCR digit confusions, strips all whitespace
// (including non-breaking spaces used as thousands separators) and unifies
// the decimal mark to a point. It never fails; on garbage input it returns
// the best-effort cleaned string.
func NormalizeAmount(raw string) string {
	s := ocrDigits.Replace(raw)
	s = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
	if strings.Contains(s, ",") {
		if strings.Contains(s, ".") {
			// Both present: commas are grouping separators.
			s = strings.ReplaceAll(s, ",", "")
		} else {
			s = strings.ReplaceAll(s, ",", ".")
		}
	}
	return s
}

// amountValue normalizes raw and parses it, reporting whether the value is a
// usable amount: finite, positive and under the sanity bound.
func amountValue(raw string) (float64, bool) {
	v, err := strconv.ParseFloat(NormalizeAmount(raw), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	if v <= 0 || v >= maxAmount {
		return v, false
	}
	return v, true
}
