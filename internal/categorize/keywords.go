// Package categorize assigns categories to parsed transactions. A keyword
// dictionary handles the common merchants and purchase words offline; an
// optional LLM pass can fill in whatever the dictionary missed.
package categorize

import "strings"

// Category is the candidate set entry the categorizer matches against.
type Category struct {
	ID   string
	Name string
	Icon string
	Type string
}

// Item is one transaction candidate to categorize.
type Item struct {
	Description string
	Amount      float64
}

type keywordEntry struct {
	category string
	keywords []string
}

// keywordTable maps purchase words and merchant names to category names.
// It is an ordered slice, not a map: the first matching entry wins, so
// repeated runs over the same input categorize identically.
var keywordTable = []keywordEntry{
	{"Продукты", []string{
		"продукты", "магазин", "супермаркет", "пятерочка", "пятёрочка",
		"магнит", "перекресток", "перекрёсток", "ашан", "лента", "дикси",
		"молоко", "хлеб", "мясо", "овощи", "фрукты", "еда",
	}},
	{"Транспорт", []string{
		"бензин", "топливо", "заправка", "азс", "лукойл", "газпром",
		"роснефть", "такси", "uber", "яндекс", "метро", "автобус",
		"парковка", "мойка", "шиномонтаж", "сто", "ремонт авто",
	}},
	{"Кафе и рестораны", []string{
		"кофе", "coffee", "кафе", "ресторан", "бар", "пицца", "суши",
		"бургер", "макдональдс", "kfc", "бургер кинг", "старбакс",
		"starbucks", "обед", "ужин", "завтрак", "ланч", "доставка еды",
	}},
	{"Развлечения", []string{
		"кино", "театр", "концерт", "музей", "развлечения", "игры",
		"steam", "playstation", "xbox", "netflix", "spotify", "подписка",
		"билет",
	}},
	{"Здоровье", []string{
		"аптека", "лекарства", "врач", "клиника", "больница", "анализы",
		"стоматолог", "медицина", "витамины", "таблетки",
	}},
	{"Покупки", []string{
		"одежда", "обувь", "zara", "uniqlo", "nike", "adidas",
		"wildberries", "ozon", "aliexpress", "amazon", "техника",
		"электроника", "телефон", "ноутбук", "часы", "очки", "аксессуары",
		"подарок", "цветы",
	}},
	{"Связь", []string{
		"мобильный", "интернет", "связь", "мтс", "билайн", "мегафон",
		"теле2", "ростелеком", "wifi",
	}},
	{"ЖКХ", []string{
		"квартплата", "жкх", "электричество", "свет", "вода", "газ",
		"отопление", "коммуналка",
	}},
	{"Образование", []string{
		"курсы", "обучение", "книги", "учеба", "учёба", "школа",
		"университет", "репетитор",
	}},
	{"Офис", []string{
		"офис", "канцелярия", "бумага", "принтер", "картридж",
	}},
	{"Реклама", []string{
		"реклама", "маркетинг", "продвижение", "таргет", "яндекс директ",
		"google ads",
	}},
	{"Сотрудники", []string{
		"зарплата", "премия", "бонус", "сотрудник",
	}},
	{"Налоги", []string{
		"налог", "ндс", "усн", "патент", "взносы", "пфр", "фсс",
	}},
	{"Зарплата", []string{
		"зарплата", "аванс", "оклад", "премия",
	}},
	{"Фриланс", []string{
		"фриланс", "заказ", "проект", "клиент",
	}},
	{"Продажи", []string{
		"продажа", "выручка", "доход", "оплата",
	}},
	{"Инвестиции", []string{
		"дивиденды", "проценты", "вклад", "инвестиции", "акции",
	}},
}

// ByKeywords returns the ID of the first candidate category hit by a
// keyword found in the description, or "" when nothing matches. A keyword
// hit only counts when a category with the entry's name is actually in the
// candidate set, so the caller controls which categories are eligible.
func ByKeywords(description string, categories []Category) string {
	desc := strings.ToLower(description)
	for _, entry := range keywordTable {
		for _, kw := range entry.keywords {
			if !strings.Contains(desc, kw) {
				continue
			}
			for _, c := range categories {
				if strings.EqualFold(c.Name, entry.category) {
					return c.ID
				}
			}
		}
	}
	return ""
}
