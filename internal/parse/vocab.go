package parse

// Vocabulary holds the locale-specific word lists the parsing pipeline is
// parameterized by. Receipt layouts and banking-app exports differ only in
// vocabulary, not in structure, so a single pipeline configured with a
// Vocabulary replaces per-format parser variants.
type Vocabulary struct {
	// NoisePrefixes rejects service lines by lowercase prefix: section
	// headers, receipt boilerplate, balance/filter labels.
	NoisePrefixes []string

	// NoiseWords rejects a line when its first token equals one of these
	// exactly (relative-day words, month names, weekday abbreviations).
	// Prefix matching would misfire here ("март" vs "мартини").
	NoiseWords []string

	// CurrencyGlyphs is a regexp character-class body matching currency
	// symbols and single-letter currency abbreviations.
	CurrencyGlyphs string

	// CurrencyWords are standalone currency tokens stripped from free-text
	// input ("руб", "рублей", "р").
	CurrencyWords []string

	// OperationPrefixes are operation-type words stripped from the front of
	// a description ("Покупка Магнит" -> "Магнит").
	OperationPrefixes []string

	// CategorySuffixes are banking-app category labels stripped from the
	// end of a description ("Перекрёсток Супермаркеты" -> "Перекрёсток").
	CategorySuffixes []string

	// IncomeKeywords mark a line (or its predecessor) as income-like.
	IncomeKeywords []string

	// TotalKeywords introduce a grand-total/balance value.
	TotalKeywords []string

	// RejectWords disqualify a receipt-line description from becoming an
	// item: totals, discounts, cash/card/change lines, VAT.
	RejectWords []string
}

// Russian is the vocabulary for Russian receipts and banking apps, the
// primary locale of the application. English totals vocabulary is included
// because POS terminals frequently print it.
var Russian = Vocabulary{
	NoisePrefixes: []string{
		"дата", "время", "чек", "кассир", "терминал", "адрес", "телефон",
		"спасибо", "благодар", "итого", "баланс", "доступно", "остаток",
		"счёт", "счет", "карта *", "операци", "фильтр", "расход", "доход",
	},
	NoiseWords: []string{
		"вчера", "сегодня", "завтра",
		"января", "февраля", "марта", "апреля", "мая", "июня", "июля",
		"августа", "сентября", "октября", "ноября", "декабря",
		"январь", "февраль", "март", "апрель", "май", "июнь", "июль",
		"август", "сентябрь", "октябрь", "ноябрь", "декабрь",
		"пн", "вт", "ср", "чт", "пт", "сб", "вс",
		"понедельник", "вторник", "среда", "четверг", "пятница",
		"суббота", "воскресенье",
	},
	CurrencyGlyphs: `₽₴$€рР`,
	CurrencyWords:  []string{"руб", "рубль", "рубля", "рублей", "р"},
	OperationPrefixes: []string{
		"покупка", "перевод", "оплата", "платёж", "платеж", "списание",
		"пополнение", "возврат",
	},
	CategorySuffixes: []string{
		"переводы", "пополнения", "фастфуд", "фаст фуд", "супермаркеты",
		"рестораны", "транспорт", "развлечения", "маркетплейсы",
	},
	IncomeKeywords: []string{
		"возврат", "пополнение", "зачисление", "поступление", "входящ",
		"кэшбэк", "refund", "top-up", "incoming",
	},
	TotalKeywords: []string{
		"итого", "всего", "к оплате", "grand total", "total", "due",
		"balance", "баланс",
	},
	RejectWords: []string{
		"итого", "всего", "сумма", "к оплате", "скидка", "нал", "карт",
		"сдача", "ндс", "total", "subtotal", "cash", "card", "change", "vat",
	},
}
