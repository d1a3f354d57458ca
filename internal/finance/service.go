package finance

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"finbook/internal/categorize"
	"finbook/internal/parse"
	"finbook/internal/recognize"
)

// Recognizer extracts transaction candidates from text or image input.
type Recognizer interface {
	Recognize(ctx context.Context, in recognize.Input) (*recognize.Result, error)
}

// Suggester proposes categories for items the keyword dictionary missed.
type Suggester interface {
	Available() bool
	Suggest(ctx context.Context, items []categorize.Item, categories []categorize.Category) ([]categorize.Suggestion, error)
}

// IDGenerator generates unique IDs for ledger records
type IDGenerator interface {
	Generate() string
}

// TimeSource provides the current time
type TimeSource interface {
	Now() time.Time
}

type uuidGenerator struct{}

func (g *uuidGenerator) Generate() string {
	return uuid.NewString()
}

type defaultTimeSource struct{}

func (t *defaultTimeSource) Now() time.Time {
	return time.Now()
}

// Service handles ledger operations
type Service struct {
	db          DB
	storage     Storage
	recognizer  Recognizer
	suggester   Suggester
	idGenerator IDGenerator
	timeSource  TimeSource
}

// NewService creates a new Service with default ID generator and time source
func NewService(db DB, storage Storage, recognizer Recognizer, suggester Suggester) *Service {
	return &Service{
		db:          db,
		storage:     storage,
		recognizer:  recognizer,
		suggester:   suggester,
		idGenerator: &uuidGenerator{},
		timeSource:  &defaultTimeSource{},
	}
}

// NewServiceWithDeps creates a new Service with custom dependencies for testing
func NewServiceWithDeps(db DB, storage Storage, recognizer Recognizer, suggester Suggester, idGen IDGenerator, timeSrc TimeSource) *Service {
	return &Service{
		db:          db,
		storage:     storage,
		recognizer:  recognizer,
		suggester:   suggester,
		idGenerator: idGen,
		timeSource:  timeSrc,
	}
}

// SeedDefaultCategories populates an empty database with the default
// category set. An already-populated database is left untouched.
func (s *Service) SeedDefaultCategories() error {
	existing, err := s.db.ListCategories()
	if err != nil {
		return fmt.Errorf("listing categories: %w", err)
	}
	if len(existing) > 0 {
		return nil
	}
	for _, c := range DefaultCategories() {
		if err := s.db.SaveCategory(c); err != nil {
			return fmt.Errorf("seeding category %q: %w", c.Name, err)
		}
	}
	return nil
}

// Recognize runs the recognition chain over the input and categorizes the
// resulting items with the keyword dictionary.
func (s *Service) Recognize(ctx context.Context, in recognize.Input) (*recognize.Result, error) {
	res, err := s.recognizer.Recognize(ctx, in)
	if err != nil {
		return nil, err
	}
	if err := s.categorizeItems(res.Items); err != nil {
		slog.Warn("keyword categorization failed", "error", err)
	}
	return res, nil
}

// ParseText parses free-form text into items, categorizes them and returns
// the canonical serialization alongside. Editing UIs store the canonical
// form so it can be re-parsed later.
func (s *Service) ParseText(text string) ([]parse.ParsedItem, string, error) {
	items := parse.ParseInput(text)
	if err := s.categorizeItems(items); err != nil {
		return nil, "", err
	}
	return items, parse.FormatItems(items), nil
}

func (s *Service) categorizeItems(items []parse.ParsedItem) error {
	if len(items) == 0 {
		return nil
	}
	categories, err := s.db.ListCategories()
	if err != nil {
		return fmt.Errorf("listing categories: %w", err)
	}
	candidates := toCandidates(categories)
	for i := range items {
		if items[i].CategoryID == "" {
			items[i].CategoryID = categorize.ByKeywords(items[i].Description, candidates)
		}
	}
	return nil
}

func toCandidates(categories []*Category) []categorize.Category {
	out := make([]categorize.Category, 0, len(categories))
	for _, c := range categories {
		out = append(out, categorize.Category{
			ID:   c.ID,
			Name: c.Name,
			Icon: c.Icon,
			Type: string(c.Type),
		})
	}
	return out
}

// SuggestCategories runs the LLM pass over items still lacking a category.
// Suggested categories that do not exist yet are created with the given
// type and account. Items the model could not place keep an empty category.
func (s *Service) SuggestCategories(ctx context.Context, items []parse.ParsedItem, txType TransactionType, account AccountType) ([]parse.ParsedItem, error) {
	if s.suggester == nil || !s.suggester.Available() {
		return items, nil
	}

	var pending []int
	var pendingItems []categorize.Item
	for i, it := range items {
		if it.CategoryID == "" {
			pending = append(pending, i)
			pendingItems = append(pendingItems, categorize.Item{
				Description: it.Description,
				Amount:      it.Amount,
			})
		}
	}
	if len(pending) == 0 {
		return items, nil
	}

	categories, err := s.db.ListCategories()
	if err != nil {
		return nil, fmt.Errorf("listing categories: %w", err)
	}
	var eligible []*Category
	for _, c := range categories {
		if c.Type == txType && c.Covers(account) {
			eligible = append(eligible, c)
		}
	}

	suggestions, err := s.suggester.Suggest(ctx, pendingItems, toCandidates(eligible))
	if err != nil {
		// Keyword-only results are still useful; the LLM pass is best effort.
		slog.Warn("category suggestion failed", "error", err)
		return items, nil
	}

	for _, sg := range suggestions {
		if sg.Index < 0 || sg.Index >= len(pending) {
			continue
		}
		cat := findCategoryByName(eligible, sg.Category)
		if cat == nil && sg.IsNew {
			cat = &Category{
				ID:          s.idGenerator.Generate(),
				Name:        sg.Category,
				Icon:        sg.Icon,
				Color:       "#6366f1",
				Type:        txType,
				AccountType: account,
			}
			if cat.Icon == "" {
				cat.Icon = "📁"
			}
			if err := s.db.SaveCategory(cat); err != nil {
				return nil, fmt.Errorf("creating suggested category %q: %w", cat.Name, err)
			}
			eligible = append(eligible, cat)
		}
		if cat != nil {
			items[pending[sg.Index]].CategoryID = cat.ID
		}
	}
	return items, nil
}

// findCategoryByName tolerates partial matches in either direction: the
// model often answers "Кафе" for "Кафе и рестораны" and vice versa.
func findCategoryByName(categories []*Category, name string) *Category {
	lower := strings.ToLower(name)
	for _, c := range categories {
		cname := strings.ToLower(c.Name)
		if cname == lower || strings.Contains(cname, lower) || strings.Contains(lower, cname) {
			return c
		}
	}
	return nil
}

func (s *Service) validateTransaction(t *Transaction) error {
	if t.Amount <= 0 {
		return fmt.Errorf("amount must be positive")
	}
	if !t.Type.Valid() {
		return fmt.Errorf("invalid transaction type: %q", t.Type)
	}
	if !t.AccountType.Valid() {
		return fmt.Errorf("invalid account type: %q", t.AccountType)
	}
	if t.CategoryID != "" {
		if _, err := s.db.GetCategory(t.CategoryID); err != nil {
			return fmt.Errorf("looking up category: %w", err)
		}
	}
	return nil
}

// AddTransaction validates and stores a new transaction.
func (s *Service) AddTransaction(t *Transaction) (*Transaction, error) {
	if err := s.validateTransaction(t); err != nil {
		return nil, err
	}
	now := s.timeSource.Now()
	t.ID = s.idGenerator.Generate()
	if t.Date.IsZero() {
		t.Date = now
	}
	t.CreatedAt = now
	t.UpdatedAt = now
	if err := s.db.SaveTransaction(t); err != nil {
		return nil, fmt.Errorf("saving transaction: %w", err)
	}
	return t, nil
}

// AddTransactions stores a batch, as produced by a recognized receipt. All
// entries are validated before any is saved.
func (s *Service) AddTransactions(ts []*Transaction) ([]*Transaction, error) {
	if len(ts) == 0 {
		return nil, fmt.Errorf("at least one transaction is required")
	}
	for i, t := range ts {
		if err := s.validateTransaction(t); err != nil {
			return nil, fmt.Errorf("transaction %d: %w", i, err)
		}
	}
	now := s.timeSource.Now()
	for _, t := range ts {
		t.ID = s.idGenerator.Generate()
		if t.Date.IsZero() {
			t.Date = now
		}
		t.CreatedAt = now
		t.UpdatedAt = now
		if err := s.db.SaveTransaction(t); err != nil {
			return nil, fmt.Errorf("saving transaction: %w", err)
		}
	}
	return ts, nil
}

// UpdateTransaction replaces the mutable fields of an existing transaction.
func (s *Service) UpdateTransaction(id string, updates *Transaction) (*Transaction, error) {
	existing, err := s.db.GetTransaction(id)
	if err != nil {
		return nil, fmt.Errorf("getting transaction: %w", err)
	}
	if err := s.validateTransaction(updates); err != nil {
		return nil, err
	}

	existing.Amount = updates.Amount
	existing.Description = updates.Description
	existing.CategoryID = updates.CategoryID
	existing.Type = updates.Type
	existing.AccountType = updates.AccountType
	if !updates.Date.IsZero() {
		existing.Date = updates.Date
	}
	if updates.Attachments != nil {
		existing.Attachments = updates.Attachments
	}
	existing.UpdatedAt = s.timeSource.Now()

	if err := s.db.SaveTransaction(existing); err != nil {
		return nil, fmt.Errorf("saving transaction: %w", err)
	}
	return existing, nil
}

// GetTransaction retrieves a transaction by ID.
func (s *Service) GetTransaction(id string) (*Transaction, error) {
	t, err := s.db.GetTransaction(id)
	if err != nil {
		return nil, fmt.Errorf("getting transaction: %w", err)
	}
	return t, nil
}

// DeleteTransaction removes a transaction and its attachment files.
func (s *Service) DeleteTransaction(id string) error {
	t, err := s.db.GetTransaction(id)
	if err != nil {
		return fmt.Errorf("getting transaction for deletion: %w", err)
	}
	for _, a := range t.Attachments {
		if a.Filename == "" {
			continue
		}
		if err := s.storage.Delete(a.Filename); err != nil {
			slog.Warn("failed to delete attachment file", "filename", a.Filename, "error", err)
		}
	}
	if err := s.db.DeleteTransaction(id); err != nil {
		return fmt.Errorf("deleting transaction: %w", err)
	}
	return nil
}

// ListTransactions returns transactions filtered by account and date range,
// newest first. Zero-value filters are ignored.
func (s *Service) ListTransactions(account AccountType, from, to *time.Time) ([]*Transaction, error) {
	all, err := s.db.ListTransactions()
	if err != nil {
		return nil, fmt.Errorf("listing transactions: %w", err)
	}
	filtered := filterTransactions(all, account, from, to)
	sort.Slice(filtered, func(i, j int) bool {
		if !filtered[i].Date.Equal(filtered[j].Date) {
			return filtered[i].Date.After(filtered[j].Date)
		}
		return filtered[i].CreatedAt.After(filtered[j].CreatedAt)
	})
	return filtered, nil
}

func filterTransactions(all []*Transaction, account AccountType, from, to *time.Time) []*Transaction {
	out := make([]*Transaction, 0, len(all))
	for _, t := range all {
		if account != "" && t.AccountType != account {
			continue
		}
		if from != nil && t.Date.Before(*from) {
			continue
		}
		if to != nil && t.Date.After(*to) {
			continue
		}
		out = append(out, t)
	}
	return out
}

// Stats computes income, expense and per-category totals over the filtered
// transactions.
func (s *Service) Stats(account AccountType, from, to *time.Time) (*Stats, error) {
	all, err := s.db.ListTransactions()
	if err != nil {
		return nil, fmt.Errorf("listing transactions: %w", err)
	}
	filtered := filterTransactions(all, account, from, to)

	stats := &Stats{ByCategory: []CategoryTotal{}}
	byCategory := make(map[string]int)
	for _, t := range filtered {
		switch t.Type {
		case TypeIncome:
			stats.TotalIncome += t.Amount
		case TypeExpense:
			stats.TotalExpense += t.Amount
		}
		if idx, ok := byCategory[t.CategoryID]; ok {
			stats.ByCategory[idx].Total += t.Amount
		} else {
			byCategory[t.CategoryID] = len(stats.ByCategory)
			stats.ByCategory = append(stats.ByCategory, CategoryTotal{
				CategoryID: t.CategoryID,
				Total:      t.Amount,
			})
		}
	}
	stats.Balance = stats.TotalIncome - stats.TotalExpense
	return stats, nil
}

// CreateCategory validates and stores a new category.
func (s *Service) CreateCategory(c *Category) (*Category, error) {
	if strings.TrimSpace(c.Name) == "" {
		return nil, fmt.Errorf("category name is required")
	}
	if !c.Type.Valid() {
		return nil, fmt.Errorf("invalid category type: %q", c.Type)
	}
	if c.AccountType != AccountBoth && !c.AccountType.Valid() {
		return nil, fmt.Errorf("invalid account type: %q", c.AccountType)
	}
	c.ID = s.idGenerator.Generate()
	if c.Icon == "" {
		c.Icon = "📁"
	}
	if err := s.db.SaveCategory(c); err != nil {
		return nil, fmt.Errorf("saving category: %w", err)
	}
	return c, nil
}

// UpdateCategory replaces the fields of an existing category.
func (s *Service) UpdateCategory(id string, updates *Category) (*Category, error) {
	existing, err := s.db.GetCategory(id)
	if err != nil {
		return nil, fmt.Errorf("getting category: %w", err)
	}
	if strings.TrimSpace(updates.Name) != "" {
		existing.Name = updates.Name
	}
	if updates.Icon != "" {
		existing.Icon = updates.Icon
	}
	if updates.Color != "" {
		existing.Color = updates.Color
	}
	if updates.Type.Valid() {
		existing.Type = updates.Type
	}
	if updates.AccountType == AccountBoth || updates.AccountType.Valid() {
		existing.AccountType = updates.AccountType
	}
	if err := s.db.SaveCategory(existing); err != nil {
		return nil, fmt.Errorf("saving category: %w", err)
	}
	return existing, nil
}

// ListCategories returns categories, optionally filtered by type and the
// account they are visible in.
func (s *Service) ListCategories(txType TransactionType, account AccountType) ([]*Category, error) {
	all, err := s.db.ListCategories()
	if err != nil {
		return nil, fmt.Errorf("listing categories: %w", err)
	}
	out := make([]*Category, 0, len(all))
	for _, c := range all {
		if txType != "" && c.Type != txType {
			continue
		}
		if account != "" && !c.Covers(account) {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

// DeleteCategory removes a category together with its transactions. The
// transactions go with the category so that stats never reference a
// dangling category ID.
func (s *Service) DeleteCategory(id string) error {
	if _, err := s.db.GetCategory(id); err != nil {
		return fmt.Errorf("getting category for deletion: %w", err)
	}
	transactions, err := s.db.ListTransactions()
	if err != nil {
		return fmt.Errorf("listing transactions: %w", err)
	}
	for _, t := range transactions {
		if t.CategoryID != id {
			continue
		}
		if err := s.DeleteTransaction(t.ID); err != nil {
			return fmt.Errorf("cascading to transaction %s: %w", t.ID, err)
		}
	}
	if err := s.db.DeleteCategory(id); err != nil {
		return fmt.Errorf("deleting category: %w", err)
	}
	return nil
}

var (
	filenameJunk   = regexp.MustCompile(`[^\p{L}\p{N}\s\-_]`)
	filenameSpaces = regexp.MustCompile(`\s+`)
)

// sanitizeFilename cleans up phone-generated filenames before storing.
func sanitizeFilename(filename string) string {
	ext := filepath.Ext(filename)
	base := strings.TrimSuffix(filename, ext)
	base = filenameJunk.ReplaceAllString(base, "")
	base = filenameSpaces.ReplaceAllString(base, " ")
	base = strings.TrimSpace(base)
	if r := []rune(base); len(r) > 50 {
		base = string(r[:50])
	}
	if base == "" {
		base = "attachment"
	}
	return base + ext
}

// SaveAttachment stores an uploaded file and its metadata. The OCR text, if
// the client ran recognition locally, is kept with the attachment.
func (s *Service) SaveAttachment(filename string, data []byte, ocrText string) (*Attachment, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("attachment data is empty")
	}
	id := s.idGenerator.Generate()

	stored, err := s.storage.Save(fmt.Sprintf("%s_%s", id, sanitizeFilename(filename)), data)
	if err != nil {
		return nil, fmt.Errorf("saving file: %w", err)
	}

	kind := "image"
	if ocrText != "" {
		kind = "receipt"
	}
	a := &Attachment{
		ID:          id,
		Type:        kind,
		URL:         "/api/attachments/" + id,
		Filename:    stored,
		ContentType: http.DetectContentType(data),
		OCRText:     ocrText,
	}
	if err := s.db.SaveAttachment(a); err != nil {
		s.storage.Delete(stored)
		return nil, fmt.Errorf("saving attachment metadata: %w", err)
	}
	return a, nil
}

// GetAttachmentFile retrieves an attachment's bytes and metadata.
func (s *Service) GetAttachmentFile(id string) ([]byte, *Attachment, error) {
	a, err := s.db.GetAttachment(id)
	if err != nil {
		return nil, nil, fmt.Errorf("getting attachment: %w", err)
	}
	data, err := s.storage.Get(a.Filename)
	if err != nil {
		return nil, nil, fmt.Errorf("getting attachment file: %w", err)
	}
	return data, a, nil
}
