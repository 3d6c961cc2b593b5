package cmd

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/cachesim/config"
	"github.com/sarchlab/cachesim/logging"
)

var _ = Describe("Report", func() {
	var (
		file string
		out  *bytes.Buffer
	)

	BeforeEach(func() {
		name := filepath.Join(GinkgoT().TempDir(), "looping")
		Expect(runSimulation(context.Background(), config.Default(),
			runOptions{preset: "looping", record: name},
			logging.Discard(), new(bytes.Buffer))).To(Succeed())

		file = name + ".sqlite3"
		out = new(bytes.Buffer)
	})

	dataLines := func() []string {
		lines := strings.Split(strings.TrimSpace(out.String()), "\n")
		Expect(len(lines)).To(BeNumerically(">=", 3))

		return lines[1 : len(lines)-2]
	}

	It("should print the misses", func() {
		err := report(context.Background(), file,
			reportOptions{table: "steps", where: "IsHit = 0"}, out)

		Expect(err).NotTo(HaveOccurred())
		Expect(out.String()).To(HavePrefix("RunID"))
		Expect(out.String()).To(ContainSubstring("1 of 1 rows"))

		rows := dataLines()
		Expect(rows).To(HaveLen(1))
		Expect(strings.Fields(rows[0])).To(ContainElement("256"))
	})

	It("should page through the steps", func() {
		err := report(context.Background(), file,
			reportOptions{table: "steps", order: "Step desc", limit: 2, offset: 1},
			out)

		Expect(err).NotTo(HaveOccurred())
		Expect(out.String()).To(ContainSubstring("2 of 9 rows"))

		rows := dataLines()
		Expect(rows).To(HaveLen(2))
		Expect(strings.Fields(rows[0])[1]).To(Equal("8"))
		Expect(strings.Fields(rows[1])[1]).To(Equal("7"))
	})

	It("should only print the requested run", func() {
		err := report(context.Background(), file,
			reportOptions{table: "runs", runID: "someone-else"}, out)

		Expect(err).NotTo(HaveOccurred())
		Expect(out.String()).To(ContainSubstring("0 of 0 rows"))
	})

	It("should print the run properties through the command", func() {
		rootCmd.SetOut(out)
		rootCmd.SetArgs([]string{"report", file, "--table", "runs",
			"--where", "Property = 'preset'"})
		defer rootCmd.SetOut(nil)

		Expect(rootCmd.Execute()).To(Succeed())
		Expect(out.String()).To(ContainSubstring("looping"))
		Expect(out.String()).To(ContainSubstring("1 of 1 rows"))
	})

	DescribeTable("bad requests",
		func(opts reportOptions, reason string) {
			err := report(context.Background(), file, opts, out)

			Expect(err).To(MatchError(ContainSubstring(reason)))
		},
		Entry("unknown table", reportOptions{table: "caches"}, "unknown table"),
		Entry("unknown order column",
			reportOptions{table: "steps", order: "Step, Cost"},
			"unknown column"),
		Entry("bad order direction",
			reportOptions{table: "steps", order: "Step sideways"},
			"invalid order direction"),
	)

	It("should not create a missing recording", func() {
		missing := filepath.Join(GinkgoT().TempDir(), "none.sqlite3")

		err := report(context.Background(), missing,
			reportOptions{table: "steps"}, out)

		Expect(err).To(HaveOccurred())
		Expect(missing).NotTo(BeAnExistingFile())
	})
})
