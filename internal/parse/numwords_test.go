package parse

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("ParseNumberWords", func() {
	It("should convert simple numerals", func() {
		v, ok := ParseNumberWords("пять")
		Expect(ok).To(BeTrue())
		Expect(v).To(Equal(5))
	})

	It("should combine hundreds and tens", func() {
		v, ok := ParseNumberWords("сто двадцать")
		Expect(ok).To(BeTrue())
		Expect(v).To(Equal(120))
	})

	It("should multiply into thousands", func() {
		v, ok := ParseNumberWords("две тысячи пятьсот")
		Expect(ok).To(BeTrue())
		Expect(v).To(Equal(2500))
	})

	It("should treat a bare thousand as one thousand", func() {
		v, ok := ParseNumberWords("тысяча")
		Expect(ok).To(BeTrue())
		Expect(v).To(Equal(1000))
	})

	It("should prefer digits over word forms", func() {
		v, ok := ParseNumberWords("сто 45 рублей")
		Expect(ok).To(BeTrue())
		Expect(v).To(Equal(45))
	})

	It("should ignore surrounding non-number words", func() {
		v, ok := ParseNumberWords("примерно триста рублей")
		Expect(ok).To(BeTrue())
		Expect(v).To(Equal(300))
	})

	It("should report failure when no number is present", func() {
		_, ok := ParseNumberWords("привет мир")
		Expect(ok).To(BeFalse())
	})
})
