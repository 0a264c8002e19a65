package e2e_test

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/solganik/procstat"
)

var _ = Describe("a counter value-file", func() {
	var requests uint64

	BeforeEach(func() {
		requests = 0
		_, err := ctx.CreateSimple(ctx.Root(), []procstat.SimpleDescriptor{
			{
				Name: "requests_total",
				Read: func(_ interface{}, _ uint64, buf []byte) (int, error) {
					return copy(buf, strconv.FormatUint(requests, 10)+"\n"), nil
				},
			},
		})
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		Expect(ctx.RemoveByName(ctx.Root(), "requests_total")).To(Succeed())
	})

	It("is readable through the mountpoint", func() {
		data, err := os.ReadFile(filepath.Join(mountDir, "requests_total"))
		Expect(err).NotTo(HaveOccurred())
		Expect(strings.TrimSpace(string(data))).To(Equal("0"))
	})
})

var _ = Describe("a u64 series directory", func() {
	var series *procstat.U64Series

	BeforeEach(func() {
		var err error
		_, series, err = ctx.CreateU64Series(ctx.Root(), "latency")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		Expect(ctx.RemoveByName(ctx.Root(), "latency")).To(Succeed())
	})

	It("exposes sum/count/min/max as readable files", func() {
		procstat.AddU64Point(series, 10)
		procstat.AddU64Point(series, 30)

		for name, want := range map[string]string{
			"sum":   "40",
			"count": "2",
			"min":   "10",
			"max":   "30",
		} {
			data, err := os.ReadFile(filepath.Join(mountDir, "latency", name))
			Expect(err).NotTo(HaveOccurred())
			Expect(strings.TrimSpace(string(data))).To(Equal(want), "field %s", name)
		}
	})

	It("resets its moments when 1 is written to reset", func() {
		procstat.AddU64Point(series, 5)
		Expect(os.WriteFile(filepath.Join(mountDir, "latency", "reset"), []byte("1"), 0644)).To(Succeed())
		procstat.AddU64Point(series, 9)

		data, err := os.ReadFile(filepath.Join(mountDir, "latency", "count"))
		Expect(err).NotTo(HaveOccurred())
		Expect(strings.TrimSpace(string(data))).To(Equal("1"))
	})
})

var _ = Describe("removing an item", func() {
	It("makes the path disappear from the mount", func() {
		_, err := ctx.CreateDirectory(ctx.Root(), "transient")
		Expect(err).NotTo(HaveOccurred())

		path := filepath.Join(mountDir, "transient")
		_, err = os.Stat(path)
		Expect(err).NotTo(HaveOccurred())

		Expect(ctx.RemoveByName(ctx.Root(), "transient")).To(Succeed())

		_, err = os.Stat(path)
		Expect(os.IsNotExist(err)).To(BeTrue())
	})
})
