package recognize

import (
	"context"
	"net/http"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/onsi/gomega/ghttp"

	"finbook/internal/parse"
)

// tinyPNG is a 1x1 PNG, small enough to inline and valid enough to survive
// the format normalization step.
var tinyPNG = []byte{
	0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a,
	0x00, 0x00, 0x00, 0x0d, 0x49, 0x48, 0x44, 0x52,
	0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01,
	0x08, 0x06, 0x00, 0x00, 0x00, 0x1f, 0x15, 0xc4,
	0x89, 0x00, 0x00, 0x00, 0x0d, 0x49, 0x44, 0x41,
	0x54, 0x78, 0x9c, 0x62, 0x00, 0x01, 0x00, 0x00,
	0x05, 0x00, 0x01, 0x0d, 0x0a, 0x2d, 0xb4, 0x00,
	0x00, 0x00, 0x00, 0x49, 0x45, 0x4e, 0x44, 0xae,
	0x42, 0x60, 0x82,
}

var _ = Describe("GoogleVision", func() {
	var (
		server  *ghttp.Server
		backend *GoogleVision
		input   Input
		result  *parse.Result
		err     error
	)

	BeforeEach(func() {
		server = ghttp.NewServer()
		backend = NewGoogleVision("test-key")
		backend.baseURL = server.URL()
		input = Input{Image: tinyPNG, ContentType: "image/png"}
	})

	AfterEach(func() {
		server.Close()
	})

	JustBeforeEach(func() {
		result, err = backend.Recognize(context.Background(), input)
	})

	When("the API returns recognized text", func() {
		BeforeEach(func() {
			server.AppendHandlers(ghttp.CombineHandlers(
				ghttp.VerifyRequest("POST", "/v1/images:annotate", "key=test-key"),
				ghttp.RespondWithJSONEncoded(http.StatusOK, map[string]any{
					"responses": []map[string]any{
						{"fullTextAnnotation": map[string]any{
							"text": "Молоко 89.90\nХлеб 45.50\nИтого: 135.40",
						}},
					},
				}),
			))
		})

		It("should parse the text into items", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Items).To(HaveLen(2))
			Expect(result.Items[0].Description).To(Equal("Молоко"))
			Expect(*result.Total).To(Equal(135.40))
		})
	})

	When("the API returns an error status", func() {
		BeforeEach(func() {
			server.AppendHandlers(ghttp.RespondWith(http.StatusForbidden, "denied"))
		})

		It("should abstain", func() {
			Expect(err).To(HaveOccurred())
			Expect(result).To(BeNil())
		})
	})

	When("the API reports an in-band error", func() {
		BeforeEach(func() {
			server.AppendHandlers(ghttp.RespondWithJSONEncoded(http.StatusOK, map[string]any{
				"responses": []map[string]any{
					{"error": map[string]any{"code": 7, "message": "key invalid"}},
				},
			}))
		})

		It("should abstain", func() {
			Expect(err).To(MatchError(ContainSubstring("key invalid")))
		})
	})

	When("no text is detected", func() {
		BeforeEach(func() {
			server.AppendHandlers(ghttp.RespondWithJSONEncoded(http.StatusOK, map[string]any{
				"responses": []map[string]any{{}},
			}))
		})

		It("should abstain", func() {
			Expect(err).To(HaveOccurred())
		})
	})

	When("no image is supplied", func() {
		BeforeEach(func() {
			input = Input{Text: "кофе 300"}
		})

		It("should abstain without calling the API", func() {
			Expect(err).To(HaveOccurred())
			Expect(server.ReceivedRequests()).To(BeEmpty())
		})
	})

	When("the API key is missing", func() {
		BeforeEach(func() {
			input = Input{Text: "кофе 300"}
		})

		It("should report itself unavailable", func() {
			Expect(NewGoogleVision("").Available()).To(BeFalse())
		})
	})
})

var _ = Describe("OpenAI", func() {
	var (
		server  *ghttp.Server
		backend *OpenAI
		result  *parse.Result
		err     error
	)

	BeforeEach(func() {
		server = ghttp.NewServer()
		backend = NewOpenAI("test-key", "")
		backend.baseURL = server.URL()
	})

	AfterEach(func() {
		server.Close()
	})

	JustBeforeEach(func() {
		result, err = backend.Recognize(context.Background(),
			Input{Image: tinyPNG, ContentType: "image/png"})
	})

	When("the model returns items JSON", func() {
		BeforeEach(func() {
			server.AppendHandlers(ghttp.CombineHandlers(
				ghttp.VerifyRequest("POST", "/v1/chat/completions"),
				ghttp.VerifyHeaderKV("Authorization", "Bearer test-key"),
				ghttp.RespondWithJSONEncoded(http.StatusOK, map[string]any{
					"choices": []map[string]any{
						{"message": map[string]any{
							"content": "```json\n{\"items\":[{\"name\":\"Пятёрочка\",\"amount\":1234.56,\"sign\":\"expense\"}],\"total\":1234.56}\n```",
						}},
					},
				}),
			))
		})

		It("should parse the reply", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Items).To(HaveLen(1))
			Expect(result.Items[0].Description).To(Equal("Пятёрочка"))
			Expect(result.Items[0].Amount).To(Equal(1234.56))
		})
	})

	When("the model returns chatter without JSON", func() {
		BeforeEach(func() {
			server.AppendHandlers(ghttp.RespondWithJSONEncoded(http.StatusOK, map[string]any{
				"choices": []map[string]any{
					{"message": map[string]any{"content": "I could not read the image."}},
				},
			}))
		})

		It("should abstain", func() {
			Expect(err).To(HaveOccurred())
		})
	})
})
