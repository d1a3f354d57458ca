package parse

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("NormalizeAmount", func() {
	It("should repair OCR digit confusions", func() {
		Expect(NormalizeAmount("1O0")).To(Equal("100"))
		Expect(NormalizeAmount("З50")).To(Equal("350"))
		Expect(NormalizeAmount("12l")).To(Equal("121"))
	})

	It("should strip grouping whitespace", func() {
		Expect(NormalizeAmount("1 234 567")).To(Equal("1234567"))
		Expect(NormalizeAmount("1 234")).To(Equal("1234"))
	})

	It("should unify the decimal comma to a point", func() {
		Expect(NormalizeAmount("89,90")).To(Equal("89.90"))
	})

	It("should drop grouping commas when a decimal point is present", func() {
		Expect(NormalizeAmount("1,234.56")).To(Equal("1234.56"))
	})
})

var _ = Describe("amountValue", func() {
	It("should accept plausible amounts", func() {
		v, ok := amountValue("1 234,56")
		Expect(ok).To(BeTrue())
		Expect(v).To(Equal(1234.56))
	})

	It("should reject zero", func() {
		_, ok := amountValue("0")
		Expect(ok).To(BeFalse())
	})

	It("should reject amounts at or above the sanity bound", func() {
		_, ok := amountValue("10 000 000")
		Expect(ok).To(BeFalse())
	})

	It("should reject garbage", func() {
		_, ok := amountValue("..")
		Expect(ok).To(BeFalse())
	})
})
