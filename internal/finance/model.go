// Package finance holds the transaction ledger: categories, transactions,
// attachments, statistics and the HTTP surface over them.
package finance

import "time"

// TransactionType is the direction of a transaction.
type TransactionType string

const (
	TypeIncome  TransactionType = "income"
	TypeExpense TransactionType = "expense"
)

// Valid reports whether t is one of the known directions.
func (t TransactionType) Valid() bool {
	return t == TypeIncome || t == TypeExpense
}

// AccountType separates personal and business bookkeeping. Categories may
// additionally use AccountBoth to be visible in either account.
type AccountType string

const (
	AccountPersonal AccountType = "personal"
	AccountBusiness AccountType = "business"
	AccountBoth     AccountType = "both"
)

// Valid reports whether a can be set on a transaction. AccountBoth is only
// meaningful on categories.
func (a AccountType) Valid() bool {
	return a == AccountPersonal || a == AccountBusiness
}

// Category is a transaction category with its display attributes.
type Category struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Icon        string          `json:"icon"`
	Color       string          `json:"color"`
	Type        TransactionType `json:"type"`
	AccountType AccountType     `json:"account_type"`
}

// Covers reports whether the category is usable in the given account.
func (c *Category) Covers(account AccountType) bool {
	return c.AccountType == AccountBoth || c.AccountType == account
}

// Attachment is a stored receipt image or photo linked to a transaction.
type Attachment struct {
	ID          string `json:"id"`
	Type        string `json:"type"` // "image" or "receipt"
	URL         string `json:"url"`
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	OCRText     string `json:"ocr_text,omitempty"`
}

// Transaction is one ledger entry.
type Transaction struct {
	ID          string          `json:"id"`
	Amount      float64         `json:"amount"`
	Description string          `json:"description"`
	CategoryID  string          `json:"category_id"`
	Type        TransactionType `json:"type"`
	AccountType AccountType     `json:"account_type"`
	Date        time.Time       `json:"date"`
	Attachments []Attachment    `json:"attachments,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// CategoryTotal is one per-category line of the statistics.
type CategoryTotal struct {
	CategoryID string  `json:"category_id"`
	Total      float64 `json:"total"`
}

// Stats summarizes a filtered slice of the ledger.
type Stats struct {
	TotalIncome  float64         `json:"total_income"`
	TotalExpense float64         `json:"total_expense"`
	Balance      float64         `json:"balance"`
	ByCategory   []CategoryTotal `json:"by_category"`
}

// DefaultCategories is the category set a fresh database is seeded with.
func DefaultCategories() []*Category {
	return []*Category{
		{ID: "1", Name: "Зарплата", Icon: "💼", Color: "#22c55e", Type: TypeIncome, AccountType: AccountBoth},
		{ID: "2", Name: "Фриланс", Icon: "💻", Color: "#10b981", Type: TypeIncome, AccountType: AccountBoth},
		{ID: "3", Name: "Инвестиции", Icon: "📈", Color: "#14b8a6", Type: TypeIncome, AccountType: AccountBoth},
		{ID: "4", Name: "Подарки", Icon: "🎁", Color: "#06b6d4", Type: TypeIncome, AccountType: AccountPersonal},
		{ID: "5", Name: "Другое", Icon: "✨", Color: "#0ea5e9", Type: TypeIncome, AccountType: AccountBoth},
		{ID: "b1", Name: "Продажи", Icon: "🛍️", Color: "#22c55e", Type: TypeIncome, AccountType: AccountBusiness},
		{ID: "b2", Name: "Услуги", Icon: "🔧", Color: "#10b981", Type: TypeIncome, AccountType: AccountBusiness},
		{ID: "b3", Name: "Консалтинг", Icon: "📊", Color: "#14b8a6", Type: TypeIncome, AccountType: AccountBusiness},
		{ID: "6", Name: "Продукты", Icon: "🛒", Color: "#f97316", Type: TypeExpense, AccountType: AccountPersonal},
		{ID: "7", Name: "Транспорт", Icon: "🚗", Color: "#ef4444", Type: TypeExpense, AccountType: AccountBoth},
		{ID: "8", Name: "Развлечения", Icon: "🎬", Color: "#ec4899", Type: TypeExpense, AccountType: AccountPersonal},
		{ID: "9", Name: "Здоровье", Icon: "💊", Color: "#f43f5e", Type: TypeExpense, AccountType: AccountPersonal},
		{ID: "10", Name: "Одежда", Icon: "👕", Color: "#d946ef", Type: TypeExpense, AccountType: AccountPersonal},
		{ID: "11", Name: "Кафе и рестораны", Icon: "🍽️", Color: "#a855f7", Type: TypeExpense, AccountType: AccountPersonal},
		{ID: "12", Name: "Коммунальные услуги", Icon: "🏠", Color: "#8b5cf6", Type: TypeExpense, AccountType: AccountPersonal},
		{ID: "13", Name: "Связь", Icon: "📱", Color: "#6366f1", Type: TypeExpense, AccountType: AccountBoth},
		{ID: "14", Name: "Образование", Icon: "📚", Color: "#3b82f6", Type: TypeExpense, AccountType: AccountBoth},
		{ID: "15", Name: "Другое", Icon: "📦", Color: "#64748b", Type: TypeExpense, AccountType: AccountBoth},
		{ID: "b4", Name: "Аренда офиса", Icon: "🏢", Color: "#f97316", Type: TypeExpense, AccountType: AccountBusiness},
		{ID: "b5", Name: "Зарплата сотрудникам", Icon: "👥", Color: "#ef4444", Type: TypeExpense, AccountType: AccountBusiness},
		{ID: "b6", Name: "Реклама", Icon: "📢", Color: "#ec4899", Type: TypeExpense, AccountType: AccountBusiness},
		{ID: "b7", Name: "Оборудование", Icon: "🖥️", Color: "#a855f7", Type: TypeExpense, AccountType: AccountBusiness},
		{ID: "b8", Name: "Налоги", Icon: "📋", Color: "#6366f1", Type: TypeExpense, AccountType: AccountBusiness},
		{ID: "b9", Name: "Логистика", Icon: "📦", Color: "#8b5cf6", Type: TypeExpense, AccountType: AccountBusiness},
	}
}
