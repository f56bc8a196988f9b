package session_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/xenonsim/internal/session"
)

var _ = DescribeTable("FormatPercent",
	func(fraction float64, want string) {
		Expect(session.FormatPercent(fraction)).To(Equal(want))
	},
	Entry("full power", 1.0, "100%"),
	Entry("shutdown", 0.0, "0%"),
	Entry("rounds to the nearest percent", 0.556, "56%"),
	Entry("setback", 0.3, "30%"),
)

var _ = Describe("ParseDuration", func() {
	It("accepts positive decimals", func() {
		Expect(session.ParseDuration("1.5")).To(Equal(1.5))
	})

	DescribeTable("rejects bad input",
		func(input string) {
			_, err := session.ParseDuration(input)
			Expect(err).To(MatchError(session.ErrValidation))
		},
		Entry("empty", ""),
		Entry("blank", "   "),
		Entry("text", "two"),
		Entry("zero", "0"),
		Entry("negative", "-5"),
		Entry("infinite", "Inf"),
	)
})
