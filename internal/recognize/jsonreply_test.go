package recognize

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"finbook/internal/parse"
)

var _ = Describe("parseItemsReply", func() {
	var (
		text   string
		result *parse.Result
		err    error
	)

	JustBeforeEach(func() {
		result, err = parseItemsReply(text)
	})

	When("parsing a clean reply", func() {
		BeforeEach(func() {
			text = `{"items":[{"name":"Кофе","amount":300,"sign":"expense"},{"name":"Возврат","amount":150,"sign":"income"}],"total":450}`
		})

		It("should not return an error", func() {
			Expect(err).NotTo(HaveOccurred())
		})

		It("should keep both items with their signs", func() {
			Expect(result.Items).To(HaveLen(2))
			Expect(result.Items[0].Sign).To(Equal(parse.SignExpense))
			Expect(result.Items[1].Sign).To(Equal(parse.SignIncome))
		})

		It("should keep the total", func() {
			Expect(*result.Total).To(Equal(450.0))
		})
	})

	When("the reply is wrapped in markdown fences", func() {
		BeforeEach(func() {
			text = "```json\n{\"items\":[{\"name\":\"Такси\",\"amount\":250}],\"total\":null}\n```"
		})

		It("should strip the fences", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Items).To(HaveLen(1))
		})

		It("should default an unstated sign to unknown", func() {
			Expect(result.Items[0].Sign).To(Equal(parse.SignUnknown))
		})
	})

	When("the JSON is surrounded by chatter", func() {
		BeforeEach(func() {
			text = `Here is what I found: {"items":[{"name":"Обед","amount":650}]} Hope this helps!`
		})

		It("should extract the embedded object", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Items).To(HaveLen(1))
			Expect(result.Items[0].Description).To(Equal("Обед"))
		})
	})

	When("items are malformed", func() {
		BeforeEach(func() {
			text = `{"items":[{"name":"","amount":100},{"name":"Норм","amount":-5},{"name":"Гигант","amount":99999999999}],"total":null}`
		})

		It("should drop them all and abstain", func() {
			Expect(err).To(HaveOccurred())
		})
	})

	When("there is no JSON at all", func() {
		BeforeEach(func() {
			text = "sorry, cannot help"
		})

		It("should return an error", func() {
			Expect(err).To(HaveOccurred())
			Expect(result).To(BeNil())
		})
	})
})
