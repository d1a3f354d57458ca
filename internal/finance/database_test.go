package finance

import (
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("BoltDB", func() {
	var db *BoltDB

	BeforeEach(func() {
		dbPath := filepath.Join(GinkgoT().TempDir(), "test.db")
		var err error
		db, err = NewBoltDB(dbPath)
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		Expect(db.Close()).To(Succeed())
	})

	Describe("transactions", func() {
		var tr *Transaction

		BeforeEach(func() {
			tr = &Transaction{
				ID:          "t1",
				Amount:      1234.56,
				Description: "Пятерочка",
				CategoryID:  "1",
				Type:        TypeExpense,
				AccountType: AccountPersonal,
				Date:        time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
				Attachments: []Attachment{{ID: "a1", Type: "receipt", URL: "/api/attachments/a1"}},
			}
		})

		It("should round-trip a transaction", func() {
			Expect(db.SaveTransaction(tr)).To(Succeed())

			got, err := db.GetTransaction("t1")
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Amount).To(Equal(1234.56))
			Expect(got.Description).To(Equal("Пятерочка"))
			Expect(got.Attachments).To(HaveLen(1))
		})

		It("should fail for a missing transaction", func() {
			_, err := db.GetTransaction("ghost")
			Expect(err).To(MatchError(ContainSubstring("not found")))
		})

		It("should list all transactions", func() {
			Expect(db.SaveTransaction(tr)).To(Succeed())
			tr2 := *tr
			tr2.ID = "t2"
			Expect(db.SaveTransaction(&tr2)).To(Succeed())

			list, err := db.ListTransactions()
			Expect(err).NotTo(HaveOccurred())
			Expect(list).To(HaveLen(2))
		})

		It("should return an empty slice when there are none", func() {
			list, err := db.ListTransactions()
			Expect(err).NotTo(HaveOccurred())
			Expect(list).To(BeEmpty())
			Expect(list).NotTo(BeNil())
		})

		It("should delete a transaction", func() {
			Expect(db.SaveTransaction(tr)).To(Succeed())
			Expect(db.DeleteTransaction("t1")).To(Succeed())

			_, err := db.GetTransaction("t1")
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("categories", func() {
		It("should round-trip a category", func() {
			c := &Category{
				ID:          "c1",
				Name:        "Продукты",
				Icon:        "🛒",
				Color:       "#10b981",
				Type:        TypeExpense,
				AccountType: AccountBoth,
			}
			Expect(db.SaveCategory(c)).To(Succeed())

			got, err := db.GetCategory("c1")
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Name).To(Equal("Продукты"))
			Expect(got.AccountType).To(Equal(AccountBoth))
		})

		It("should fail for a missing category", func() {
			_, err := db.GetCategory("ghost")
			Expect(err).To(MatchError(ContainSubstring("not found")))
		})

		It("should delete a category", func() {
			Expect(db.SaveCategory(&Category{ID: "c1", Name: "Продукты"})).To(Succeed())
			Expect(db.DeleteCategory("c1")).To(Succeed())

			_, err := db.GetCategory("c1")
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("attachments", func() {
		It("should round-trip attachment metadata", func() {
			a := &Attachment{
				ID:          "a1",
				Type:        "receipt",
				URL:         "/api/attachments/a1",
				Filename:    "a1_чек.jpg",
				ContentType: "image/jpeg",
				OCRText:     "Молоко 89.90",
			}
			Expect(db.SaveAttachment(a)).To(Succeed())

			got, err := db.GetAttachment("a1")
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Filename).To(Equal("a1_чек.jpg"))
			Expect(got.OCRText).To(Equal("Молоко 89.90"))
		})

		It("should fail for missing metadata", func() {
			_, err := db.GetAttachment("ghost")
			Expect(err).To(MatchError(ContainSubstring("not found")))
		})
	})
})
