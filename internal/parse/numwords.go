package parse

import (
	"regexp"
	"strconv"
	"strings"
)

// numberWords maps spoken Russian numerals to their values. Voice input
// often transcribes amounts as words ("сто двадцать") rather than digits.
var numberWords = map[string]int{
	"ноль": 0, "один": 1, "одна": 1, "два": 2, "две": 2, "три": 3,
	"четыре": 4, "пять": 5, "шесть": 6, "семь": 7, "восемь": 8,
	"девять": 9, "десять": 10,
	"одиннадцать": 11, "двенадцать": 12, "тринадцать": 13,
	"четырнадцать": 14, "пятнадцать": 15, "шестнадцать": 16,
	"семнадцать": 17, "восемнадцать": 18, "девятнадцать": 19,
	"двадцать": 20, "тридцать": 30, "сорок": 40, "пятьдесят": 50,
	"шестьдесят": 60, "семьдесят": 70, "восемьдесят": 80, "девяносто": 90,
	"сто": 100, "двести": 200, "триста": 300, "четыреста": 400,
	"пятьсот": 500, "шестьсот": 600, "семьсот": 700, "восемьсот": 800,
	"девятьсот": 900,
	"тысяча": 1000, "тысячи": 1000, "тысяч": 1000,
}

var digitRunRE = regexp.MustCompile(`\d+`)

// ParseNumberWords converts a spoken number phrase to an integer. A digit
// substring anywhere in the text takes priority over word forms. The second
// return value is false when no number could be recovered.
func ParseNumberWords(text string) (int, bool) {
	lower := strings.ToLower(text)
	if m := digitRunRE.FindString(lower); m != "" {
		v, err := strconv.Atoi(m)
		if err != nil {
			return 0, false
		}
		return v, true
	}

	total, current := 0, 0
	found := false
	for _, word := range strings.Fields(lower) {
		v, ok := numberWords[cyrillicOnly(word)]
		if !ok {
			continue
		}
		found = true
		if v >= 1000 {
			if current == 0 {
				current = 1
			}
			total += current * v
			current = 0
		} else {
			current += v
		}
	}
	total += current
	if !found || total <= 0 {
		return 0, false
	}
	return total, true
}

// numberWordsAt consumes the longest run of number words starting at
// tokens[i], returning the combined value and the run width.
func numberWordsAt(tokens []string, i int) (value, width int, ok bool) {
	total, current := 0, 0
	j := i
	for j < len(tokens) {
		v, isWord := numberWords[cyrillicOnly(strings.ToLower(tokens[j]))]
		if !isWord {
			break
		}
		if v >= 1000 {
			if current == 0 {
				current = 1
			}
			total += current * v
			current = 0
		} else {
			current += v
		}
		j++
	}
	total += current
	if j == i || total <= 0 {
		return 0, 0, false
	}
	return total, j - i, true
}

func cyrillicOnly(s string) string {
	return strings.Map(func(r rune) rune {
		if (r >= 'а' && r <= 'я') || r == 'ё' {
			return r
		}
		return -1
	}, s)
}
