package finance

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/onsi/gomega/ghttp"

	"finbook/internal/parse"
	"finbook/internal/recognize"
)

var _ = Describe("Server", func() {
	var (
		db          *mockDB
		recognizer  *mockRecognizer
		service     *Service
		server      *Server
		auth        BasicAuth
		ghttpServer *ghttp.Server
	)

	setupServer := func() {
		if ghttpServer != nil {
			ghttpServer.Close()
		}
		server = NewServerWithMux(service, auth, http.NewServeMux())
		ghttpServer = ghttp.NewServer()
		ghttpServer.AppendHandlers(server.ServeHTTP)
	}

	postJSON := func(path string, payload any) *http.Response {
		body, err := json.Marshal(payload)
		Expect(err).NotTo(HaveOccurred())
		resp, err := http.Post(ghttpServer.URL()+path, "application/json", bytes.NewReader(body))
		Expect(err).NotTo(HaveOccurred())
		return resp
	}

	do := func(method, path string, payload any) *http.Response {
		var body io.Reader
		if payload != nil {
			data, err := json.Marshal(payload)
			Expect(err).NotTo(HaveOccurred())
			body = bytes.NewReader(data)
		}
		req, err := http.NewRequest(method, ghttpServer.URL()+path, body)
		Expect(err).NotTo(HaveOccurred())
		resp, err := http.DefaultClient.Do(req)
		Expect(err).NotTo(HaveOccurred())
		return resp
	}

	BeforeEach(func() {
		db = newMockDB()
		recognizer = &mockRecognizer{}
		clock := &fixedTimeSource{now: time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)}
		service = NewServiceWithDeps(db, newMockStorage(), recognizer, &mockSuggester{}, &seqIDGenerator{}, clock)
		auth = BasicAuth{}
		setupServer()
	})

	AfterEach(func() {
		if ghttpServer != nil {
			ghttpServer.Close()
		}
	})

	Describe("handleIndex", func() {
		It("should serve the HTML interface", func() {
			resp, err := http.Get(ghttpServer.URL() + "/")
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			body, err := io.ReadAll(resp.Body)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(body)).To(ContainSubstring("Finbook"))
		})
	})

	Describe("basic auth", func() {
		BeforeEach(func() {
			auth = BasicAuth{Username: "user", Password: "secret"}
			setupServer()
		})

		It("should reject requests without credentials", func() {
			resp, err := http.Get(ghttpServer.URL() + "/api/transactions")
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusUnauthorized))
			resp.Body.Close()
		})

		It("should accept correct credentials", func() {
			req, err := http.NewRequest("GET", ghttpServer.URL()+"/api/transactions", nil)
			Expect(err).NotTo(HaveOccurred())
			req.SetBasicAuth("user", "secret")
			resp, err := http.DefaultClient.Do(req)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			resp.Body.Close()
		})

		It("should reject wrong credentials", func() {
			req, err := http.NewRequest("GET", ghttpServer.URL()+"/api/transactions", nil)
			Expect(err).NotTo(HaveOccurred())
			req.SetBasicAuth("user", "wrong")
			resp, err := http.DefaultClient.Do(req)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusUnauthorized))
			resp.Body.Close()
		})
	})

	Describe("handleParse", func() {
		It("should return parsed items and the canonical input", func() {
			resp := postJSON("/api/parse", map[string]string{"text": "кофе 300, бензин 1500"})
			defer resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			var parsed struct {
				Items []parse.ParsedItem `json:"items"`
				Input string             `json:"input"`
			}
			Expect(json.NewDecoder(resp.Body).Decode(&parsed)).To(Succeed())
			Expect(parsed.Items).To(HaveLen(2))
			Expect(parsed.Input).To(Equal("кофе 300, бензин 1500"))
		})

		It("should return an empty items array for unparseable text", func() {
			resp := postJSON("/api/parse", map[string]string{"text": "ничего тут нет"})
			defer resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			body, err := io.ReadAll(resp.Body)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(body)).To(ContainSubstring(`"items":[]`))
		})
	})

	Describe("handleRecognize", func() {
		It("should return the recognition result", func() {
			recognizer.result = &recognize.Result{
				Result: parse.Result{Items: []parse.ParsedItem{
					{Description: "Кофе", Amount: 300, Sign: parse.SignExpense},
				}},
				Backend: "text",
			}

			resp := postJSON("/api/recognize", map[string]string{"text": "кофе 300"})
			defer resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			var result struct {
				Items   []parse.ParsedItem `json:"items"`
				Backend string             `json:"backend"`
			}
			Expect(json.NewDecoder(resp.Body).Decode(&result)).To(Succeed())
			Expect(result.Backend).To(Equal("text"))
			Expect(result.Items).To(HaveLen(1))
		})

		It("should answer 422 when every backend abstained", func() {
			recognizer.err = recognize.ErrNoResult

			resp := postJSON("/api/recognize", map[string]string{"text": "мусор"})
			defer resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusUnprocessableEntity))

			body, err := io.ReadAll(resp.Body)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(body)).To(ContainSubstring("error"))
		})

		It("should require text or image", func() {
			resp := postJSON("/api/recognize", map[string]string{})
			defer resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
		})

		It("should reject a malformed image encoding", func() {
			resp := postJSON("/api/recognize", map[string]string{"image": "not base64!!"})
			defer resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
		})
	})

	Describe("handleCreateTransaction", func() {
		It("should create a transaction", func() {
			resp := postJSON("/api/transactions", map[string]any{
				"amount":       500,
				"description":  "Магазин",
				"type":         "expense",
				"account_type": "personal",
			})
			defer resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusCreated))

			var created Transaction
			Expect(json.NewDecoder(resp.Body).Decode(&created)).To(Succeed())
			Expect(created.ID).NotTo(BeEmpty())
			Expect(db.transactions).To(HaveLen(1))
		})

		It("should reject an invalid transaction", func() {
			resp := postJSON("/api/transactions", map[string]any{
				"amount": -1,
				"type":   "expense",
			})
			defer resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
		})
	})

	Describe("handleBatchTransactions", func() {
		It("should create all transactions", func() {
			resp := postJSON("/api/transactions/batch", map[string]any{
				"transactions": []map[string]any{
					{"amount": 100, "description": "кофе", "type": "expense", "account_type": "personal"},
					{"amount": 200, "description": "обед", "type": "expense", "account_type": "personal"},
				},
			})
			defer resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusCreated))
			Expect(db.transactions).To(HaveLen(2))
		})

		It("should reject the whole batch when one entry is invalid", func() {
			resp := postJSON("/api/transactions/batch", map[string]any{
				"transactions": []map[string]any{
					{"amount": 100, "description": "ок", "type": "expense", "account_type": "personal"},
					{"amount": 0, "description": "плохо", "type": "expense", "account_type": "personal"},
				},
			})
			defer resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
			Expect(db.transactions).To(BeEmpty())
		})
	})

	Describe("handleUpdateTransaction", func() {
		It("should answer 404 for an unknown ID", func() {
			resp := do("PUT", "/api/transactions/ghost", map[string]any{
				"amount": 1, "type": "expense", "account_type": "personal",
			})
			defer resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusNotFound))
		})
	})

	Describe("handleDeleteTransaction", func() {
		It("should answer 204 on success", func() {
			db.transactions["t1"] = &Transaction{ID: "t1", Amount: 1, Type: TypeExpense, AccountType: AccountPersonal}

			resp := do("DELETE", "/api/transactions/t1", nil)
			defer resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusNoContent))
		})

		It("should answer 404 for an unknown ID", func() {
			resp := do("DELETE", "/api/transactions/ghost", nil)
			defer resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusNotFound))
		})
	})

	Describe("handleListTransactions", func() {
		It("should reject a malformed date filter", func() {
			resp, err := http.Get(ghttpServer.URL() + "/api/transactions?from=вчера")
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
			resp.Body.Close()
		})

		It("should return transactions as JSON", func() {
			db.transactions["t1"] = &Transaction{ID: "t1", Amount: 1, Type: TypeExpense, AccountType: AccountPersonal}

			resp, err := http.Get(ghttpServer.URL() + "/api/transactions")
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()
			Expect(resp.Header.Get("Content-Type")).To(Equal("application/json"))

			var list []*Transaction
			Expect(json.NewDecoder(resp.Body).Decode(&list)).To(Succeed())
			Expect(list).To(HaveLen(1))
		})
	})

	Describe("categories", func() {
		It("should create a category", func() {
			resp := postJSON("/api/categories", map[string]any{
				"name": "Питомцы", "type": "expense", "account_type": "personal",
			})
			defer resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusCreated))
			Expect(db.categories).To(HaveLen(1))
		})

		It("should reject a nameless category", func() {
			resp := postJSON("/api/categories", map[string]any{
				"type": "expense", "account_type": "personal",
			})
			defer resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
		})

		It("should filter the listing by account", func() {
			db.categories["c1"] = &Category{ID: "c1", Name: "Личное", Type: TypeExpense, AccountType: AccountPersonal}
			db.categories["c2"] = &Category{ID: "c2", Name: "Бизнес", Type: TypeExpense, AccountType: AccountBusiness}

			resp, err := http.Get(ghttpServer.URL() + "/api/categories?account=business")
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()

			var list []*Category
			Expect(json.NewDecoder(resp.Body).Decode(&list)).To(Succeed())
			Expect(list).To(HaveLen(1))
			Expect(list[0].Name).To(Equal("Бизнес"))
		})

		It("should cascade deletion to the category's transactions", func() {
			db.categories["c1"] = &Category{ID: "c1", Name: "Продукты", Type: TypeExpense, AccountType: AccountPersonal}
			db.transactions["t1"] = &Transaction{ID: "t1", Amount: 1, Type: TypeExpense, AccountType: AccountPersonal, CategoryID: "c1"}

			resp := do("DELETE", "/api/categories/c1", nil)
			defer resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusNoContent))
			Expect(db.transactions).To(BeEmpty())
		})
	})

	Describe("handleStats", func() {
		BeforeEach(func() {
			db.transactions["t1"] = &Transaction{ID: "t1", Amount: 500, Type: TypeExpense, AccountType: AccountPersonal}
			db.transactions["t2"] = &Transaction{ID: "t2", Amount: 900, Type: TypeExpense, AccountType: AccountBusiness}
		})

		It("should default to the personal account", func() {
			resp, err := http.Get(ghttpServer.URL() + "/api/stats")
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()

			var stats Stats
			Expect(json.NewDecoder(resp.Body).Decode(&stats)).To(Succeed())
			Expect(stats.TotalExpense).To(Equal(500.0))
		})

		It("should honor the account parameter", func() {
			resp, err := http.Get(ghttpServer.URL() + "/api/stats?account=business")
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()

			var stats Stats
			Expect(json.NewDecoder(resp.Body).Decode(&stats)).To(Succeed())
			Expect(stats.TotalExpense).To(Equal(900.0))
		})
	})

	Describe("attachments", func() {
		uploadFile := func(filename, ocrText string, data []byte) *http.Response {
			var buf bytes.Buffer
			writer := multipart.NewWriter(&buf)
			part, err := writer.CreateFormFile("file", filename)
			Expect(err).NotTo(HaveOccurred())
			_, err = part.Write(data)
			Expect(err).NotTo(HaveOccurred())
			if ocrText != "" {
				Expect(writer.WriteField("ocr_text", ocrText)).To(Succeed())
			}
			Expect(writer.Close()).To(Succeed())

			resp, err := http.Post(ghttpServer.URL()+"/api/attachments", writer.FormDataContentType(), &buf)
			Expect(err).NotTo(HaveOccurred())
			return resp
		}

		It("should upload a file and serve it back", func() {
			data := []byte("\x89PNG\r\n\x1a\nfakedata")
			resp := uploadFile("чек.png", "Молоко 89.90", data)
			defer resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusCreated))

			var a Attachment
			Expect(json.NewDecoder(resp.Body).Decode(&a)).To(Succeed())
			Expect(a.Type).To(Equal("receipt"))

			ghttpServer.AppendHandlers(server.ServeHTTP)
			got, err := http.Get(ghttpServer.URL() + a.URL)
			Expect(err).NotTo(HaveOccurred())
			defer got.Body.Close()
			Expect(got.StatusCode).To(Equal(http.StatusOK))
			body, err := io.ReadAll(got.Body)
			Expect(err).NotTo(HaveOccurred())
			Expect(body).To(Equal(data))
		})

		It("should answer 404 for an unknown attachment", func() {
			resp, err := http.Get(ghttpServer.URL() + "/api/attachments/ghost")
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusNotFound))
			resp.Body.Close()
		})
	})
})
