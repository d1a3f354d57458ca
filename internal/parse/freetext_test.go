package parse

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("ParseInput", func() {
	var (
		input string
		items []ParsedItem
	)

	JustBeforeEach(func() {
		items = ParseInput(input)
	})

	When("descriptions precede amounts", func() {
		BeforeEach(func() {
			input = "кофе 300 бензин 1500"
		})

		It("should pair each description with the following amount", func() {
			Expect(items).To(HaveLen(2))
			Expect(items[0].Description).To(Equal("кофе"))
			Expect(items[0].Amount).To(Equal(300.0))
			Expect(items[1].Description).To(Equal("бензин"))
			Expect(items[1].Amount).To(Equal(1500.0))
		})

		It("should leave the sign undetermined", func() {
			Expect(items[0].Sign).To(Equal(SignUnknown))
		})
	})

	When("items are comma separated", func() {
		BeforeEach(func() {
			input = "Кофе 300, бензин 1500"
		})

		It("should extract both items", func() {
			Expect(items).To(HaveLen(2))
			Expect(items[0].Description).To(Equal("Кофе"))
			Expect(items[1].Description).To(Equal("бензин"))
		})
	})

	When("the amount comes before the description", func() {
		BeforeEach(func() {
			input = "300 кофе"
		})

		It("should still pair them", func() {
			Expect(items).To(HaveLen(1))
			Expect(items[0].Description).To(Equal("кофе"))
			Expect(items[0].Amount).To(Equal(300.0))
		})
	})

	When("a multi-word description spans several tokens", func() {
		BeforeEach(func() {
			input = "обед в кафе 650"
		})

		It("should keep all the words", func() {
			Expect(items).To(HaveLen(1))
			Expect(items[0].Description).To(Equal("обед в кафе"))
			Expect(items[0].Amount).To(Equal(650.0))
		})
	})

	When("the amount is dictated as number words", func() {
		BeforeEach(func() {
			input = "такси двести пятьдесят"
		})

		It("should convert the word run to a value", func() {
			Expect(items).To(HaveLen(1))
			Expect(items[0].Description).To(Equal("такси"))
			Expect(items[0].Amount).To(Equal(250.0))
		})
	})

	When("a currency word follows the amount", func() {
		BeforeEach(func() {
			input = "обед 450 рублей такси 250"
		})

		It("should not leak the currency word into the next description", func() {
			Expect(items).To(HaveLen(2))
			Expect(items[1].Description).To(Equal("такси"))
		})
	})

	When("the amount is glued to a currency word", func() {
		BeforeEach(func() {
			input = "кофе 300руб, чай 150руб"
		})

		It("should fall back to comma splitting", func() {
			Expect(items).To(HaveLen(2))
			Expect(items[0].Description).To(Equal("кофе"))
			Expect(items[0].Amount).To(Equal(300.0))
			Expect(items[1].Description).To(Equal("чай"))
			Expect(items[1].Amount).To(Equal(150.0))
		})
	})

	When("the amount is zero", func() {
		BeforeEach(func() {
			input = "сок 0"
		})

		It("should drop the item", func() {
			Expect(items).To(BeEmpty())
		})
	})

	When("the input has no amounts at all", func() {
		BeforeEach(func() {
			input = "просто какой-то текст"
		})

		It("should return nothing", func() {
			Expect(items).To(BeEmpty())
		})
	})

	When("the input is empty", func() {
		BeforeEach(func() {
			input = "   "
		})

		It("should return nothing", func() {
			Expect(items).To(BeEmpty())
		})
	})
})

var _ = Describe("FormatItems", func() {
	It("should render items as description-amount pairs", func() {
		s := FormatItems([]ParsedItem{
			{Description: "кофе", Amount: 300},
			{Description: "бензин", Amount: 1500.5},
		})
		Expect(s).To(Equal("кофе 300, бензин 1500.5"))
	})

	It("should round-trip through ParseInput", func() {
		orig := []ParsedItem{
			{Description: "кофе", Amount: 300, Sign: SignUnknown},
			{Description: "обед в кафе", Amount: 650.5, Sign: SignUnknown},
		}
		parsed := ParseInput(FormatItems(orig))
		Expect(parsed).To(Equal(orig))
	})
})
