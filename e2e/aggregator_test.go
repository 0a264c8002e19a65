package e2e_test

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/solganik/procstat"
)

var _ = Describe("an aggregator pseudo-file", func() {
	BeforeEach(func() {
		_, err := ctx.CreateSimple(ctx.Root(), []procstat.SimpleDescriptor{
			{
				Name: "agg_a",
				Read: func(_ interface{}, _ uint64, buf []byte) (int, error) {
					return copy(buf, "1\n"), nil
				},
			},
		})
		Expect(err).NotTo(HaveOccurred())

		_, err = ctx.CreateAggregator(ctx.Root(), "dump")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		_ = ctx.RemoveByName(ctx.Root(), "agg_a")
		_ = ctx.RemoveByName(ctx.Root(), "dump")
	})

	It("is not listed in its parent directory", func() {
		entries, err := os.ReadDir(mountDir)
		Expect(err).NotTo(HaveOccurred())
		names := make([]string, len(entries))
		for i, e := range entries {
			names[i] = e.Name()
		}
		Expect(names).NotTo(ContainElement("dump"))
	})

	It("streams every readable descendant when read sequentially", func() {
		f, err := os.Open(filepath.Join(mountDir, "dump"))
		Expect(err).NotTo(HaveOccurred())
		defer f.Close()

		data, err := io.ReadAll(f)
		Expect(err).NotTo(HaveOccurred())
		Expect(strings.TrimSpace(string(data))).To(ContainSubstring("agg_a:1"))
	})
})
