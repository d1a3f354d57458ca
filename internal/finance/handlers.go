package finance

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"finbook/internal/parse"
	"finbook/internal/recognize"
)

// maxUploadSize handles high-resolution phone photos.
const maxUploadSize = int64(50 << 20) // 50MB

// corsError writes an error response with CORS headers set
func corsError(w http.ResponseWriter, message string, code int) {
	setCORSHeaders(w)
	http.Error(w, message, code)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

func jsonError(w http.ResponseWriter, message string, code int) {
	setCORSHeaders(w)
	writeJSON(w, code, map[string]string{"error": message})
}

// parseDate accepts both date-only and RFC 3339 timestamps.
func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}

func dateRange(r *http.Request) (from, to *time.Time, err error) {
	if v := r.URL.Query().Get("from"); v != "" {
		t, perr := parseDate(v)
		if perr != nil {
			return nil, nil, perr
		}
		from = &t
	}
	if v := r.URL.Query().Get("to"); v != "" {
		t, perr := parseDate(v)
		if perr != nil {
			return nil, nil, perr
		}
		to = &t
	}
	return from, to, nil
}

// handleIndex serves the HTML interface
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	setCORSHeaders(w)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(indexHTML)
}

type recognizeRequest struct {
	Text        string `json:"text"`
	Image       string `json:"image"`
	ContentType string `json:"content_type"`
}

// decodeImage accepts plain base64 and data URLs. A data URL's media type
// wins over the content_type field.
func decodeImage(req *recognizeRequest) ([]byte, string, error) {
	raw := strings.TrimSpace(req.Image)
	if raw == "" {
		return nil, "", nil
	}
	contentType := req.ContentType
	if strings.HasPrefix(raw, "data:") {
		header, rest, ok := strings.Cut(raw, ",")
		if !ok {
			return nil, "", errors.New("malformed data URL")
		}
		header = strings.TrimPrefix(header, "data:")
		if mediaType, _, found := strings.Cut(header, ";"); found && mediaType != "" {
			contentType = mediaType
		}
		raw = rest
	}
	data, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return nil, "", err
	}
	return data, contentType, nil
}

// handleRecognize runs the recognition chain over text or image input
func (s *Server) handleRecognize(w http.ResponseWriter, r *http.Request) {
	var req recognizeRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxUploadSize)).Decode(&req); err != nil {
		jsonError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	image, contentType, err := decodeImage(&req)
	if err != nil {
		jsonError(w, "Invalid image encoding", http.StatusBadRequest)
		return
	}
	if req.Text == "" && len(image) == 0 {
		jsonError(w, "Either text or image is required", http.StatusBadRequest)
		return
	}

	result, err := s.service.Recognize(r.Context(), recognize.Input{
		Text:        req.Text,
		Image:       image,
		ContentType: contentType,
	})
	if err != nil {
		if errors.Is(err, recognize.ErrNoResult) {
			jsonError(w, err.Error(), http.StatusUnprocessableEntity)
			return
		}
		slog.Error("Error recognizing input", "error", err)
		corsError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	setCORSHeaders(w)
	writeJSON(w, http.StatusOK, result)
}

type parseRequest struct {
	Text string `json:"text"`
}

type parseResponse struct {
	Items []parse.ParsedItem `json:"items"`
	Input string             `json:"input"`
}

// handleParse parses free-form text without touching any remote backend
func (s *Server) handleParse(w http.ResponseWriter, r *http.Request) {
	var req parseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	items, canonical, err := s.service.ParseText(req.Text)
	if err != nil {
		slog.Error("Error parsing text", "error", err)
		corsError(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if items == nil {
		items = []parse.ParsedItem{}
	}

	setCORSHeaders(w)
	writeJSON(w, http.StatusOK, parseResponse{Items: items, Input: canonical})
}

type categorizeRequest struct {
	Items   []parse.ParsedItem `json:"items"`
	Type    TransactionType    `json:"type"`
	Account AccountType        `json:"account"`
}

// handleCategorize runs the LLM categorization pass over supplied items
func (s *Server) handleCategorize(w http.ResponseWriter, r *http.Request) {
	var req categorizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if len(req.Items) == 0 {
		jsonError(w, "At least one item is required", http.StatusBadRequest)
		return
	}
	if !req.Type.Valid() {
		req.Type = TypeExpense
	}
	if !req.Account.Valid() {
		req.Account = AccountPersonal
	}

	items, err := s.service.SuggestCategories(r.Context(), req.Items, req.Type, req.Account)
	if err != nil {
		slog.Error("Error suggesting categories", "error", err)
		corsError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	setCORSHeaders(w)
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

// handleListTransactions returns transactions filtered by query parameters
func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	from, to, err := dateRange(r)
	if err != nil {
		jsonError(w, "Invalid date filter", http.StatusBadRequest)
		return
	}
	account := AccountType(r.URL.Query().Get("account"))

	transactions, err := s.service.ListTransactions(account, from, to)
	if err != nil {
		slog.Error("Error listing transactions", "error", err)
		corsError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	setCORSHeaders(w)
	writeJSON(w, http.StatusOK, transactions)
}

// handleCreateTransaction stores a single transaction
func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var t Transaction
	if err := json.NewDecoder(r.Body).Decode(&t); err != nil {
		jsonError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	created, err := s.service.AddTransaction(&t)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	setCORSHeaders(w)
	writeJSON(w, http.StatusCreated, created)
}

type batchRequest struct {
	Transactions []*Transaction `json:"transactions"`
}

// handleBatchTransactions stores several transactions at once, as produced
// by committing a recognized receipt
func (s *Server) handleBatchTransactions(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	created, err := s.service.AddTransactions(req.Transactions)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	setCORSHeaders(w)
	writeJSON(w, http.StatusCreated, created)
}

// handleUpdateTransaction replaces the mutable fields of a transaction
func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	var t Transaction
	if err := json.NewDecoder(r.Body).Decode(&t); err != nil {
		jsonError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	updated, err := s.service.UpdateTransaction(r.PathValue("id"), &t)
	if err != nil {
		if strings.Contains(err.Error(), "not found") {
			jsonError(w, "Transaction not found", http.StatusNotFound)
			return
		}
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	setCORSHeaders(w)
	writeJSON(w, http.StatusOK, updated)
}

// handleDeleteTransaction removes a transaction
func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	if err := s.service.DeleteTransaction(r.PathValue("id")); err != nil {
		if strings.Contains(err.Error(), "not found") {
			jsonError(w, "Transaction not found", http.StatusNotFound)
			return
		}
		slog.Error("Error deleting transaction", "error", err)
		corsError(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	setCORSHeaders(w)
	w.WriteHeader(http.StatusNoContent)
}

// handleListCategories returns categories filtered by type and account
func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := s.service.ListCategories(
		TransactionType(r.URL.Query().Get("type")),
		AccountType(r.URL.Query().Get("account")),
	)
	if err != nil {
		slog.Error("Error listing categories", "error", err)
		corsError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	setCORSHeaders(w)
	writeJSON(w, http.StatusOK, categories)
}

// handleCreateCategory stores a new category
func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var c Category
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		jsonError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	created, err := s.service.CreateCategory(&c)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	setCORSHeaders(w)
	writeJSON(w, http.StatusCreated, created)
}

// handleUpdateCategory replaces the fields of a category
func (s *Server) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	var c Category
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		jsonError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	updated, err := s.service.UpdateCategory(r.PathValue("id"), &c)
	if err != nil {
		if strings.Contains(err.Error(), "not found") {
			jsonError(w, "Category not found", http.StatusNotFound)
			return
		}
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	setCORSHeaders(w)
	writeJSON(w, http.StatusOK, updated)
}

// handleDeleteCategory removes a category and its transactions
func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	if err := s.service.DeleteCategory(r.PathValue("id")); err != nil {
		if strings.Contains(err.Error(), "not found") {
			jsonError(w, "Category not found", http.StatusNotFound)
			return
		}
		slog.Error("Error deleting category", "error", err)
		corsError(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	setCORSHeaders(w)
	w.WriteHeader(http.StatusNoContent)
}

// handleStats returns totals over the filtered transactions
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	from, to, err := dateRange(r)
	if err != nil {
		jsonError(w, "Invalid date filter", http.StatusBadRequest)
		return
	}
	account := AccountType(r.URL.Query().Get("account"))
	if account == "" {
		account = AccountPersonal
	}

	stats, err := s.service.Stats(account, from, to)
	if err != nil {
		slog.Error("Error computing stats", "error", err)
		corsError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	setCORSHeaders(w)
	writeJSON(w, http.StatusOK, stats)
}

// handleUploadAttachment stores an uploaded file
func (s *Server) handleUploadAttachment(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		jsonError(w, "Error parsing form", http.StatusBadRequest)
		return
	}

	f, header, err := r.FormFile("file")
	if err != nil {
		jsonError(w, "No file provided", http.StatusBadRequest)
		return
	}
	defer f.Close()

	if header.Size > maxUploadSize {
		jsonError(w, "File is too large. Maximum size is 50MB.", http.StatusBadRequest)
		return
	}

	data, err := io.ReadAll(f)
	if err != nil {
		slog.Error("Error reading file data", "error", err, "filename", header.Filename)
		jsonError(w, "Error reading file", http.StatusInternalServerError)
		return
	}

	attachment, err := s.service.SaveAttachment(header.Filename, data, r.FormValue("ocr_text"))
	if err != nil {
		slog.Error("Error saving attachment", "error", err)
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	setCORSHeaders(w)
	writeJSON(w, http.StatusCreated, attachment)
}

// handleGetAttachment serves a stored attachment
func (s *Server) handleGetAttachment(w http.ResponseWriter, r *http.Request) {
	data, attachment, err := s.service.GetAttachmentFile(r.PathValue("id"))
	if err != nil {
		if strings.Contains(err.Error(), "not found") {
			jsonError(w, "Attachment not found", http.StatusNotFound)
			return
		}
		slog.Error("Error getting attachment", "error", err)
		corsError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	setCORSHeaders(w)
	w.Header().Set("Content-Type", attachment.ContentType)
	w.Write(data)
}
