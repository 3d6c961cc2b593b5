package trace_test

import (
	"bytes"
	"context"
	"database/sql"
	"log/slog"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/cachesim/datarecording"
	"github.com/sarchlab/cachesim/mem/trace"
	"github.com/sarchlab/cachesim/sim/timing"
	"github.com/sarchlab/cachesim/simulation"
)

const program = "0x000\n0x400\nvar a = 1 / 0\nvar b = 2\n0x000\nvar s = 'hi'"

var _ = Describe("Tracers", func() {
	var sim *simulation.Simulator

	BeforeEach(func() {
		sim = simulation.MakeBuilder().
			WithScheduler(timing.NewManualScheduler()).
			Build()
	})

	It("should log every step", func() {
		buf := new(bytes.Buffer)
		logger := slog.New(slog.NewTextHandler(buf,
			&slog.HandlerOptions{Level: slog.LevelDebug}))
		sim.AcceptHook(trace.NewLogTracer(logger))

		sim.LoadTrace(program)
		sim.RunAll()

		out := buf.String()
		Expect(out).To(ContainSubstring("step=1"))
		Expect(out).To(ContainSubstring("miss=Compulsory"))
		Expect(out).To(ContainSubstring("level=WARN msg=step step=3"))
		Expect(out).To(ContainSubstring("division by zero"))
		Expect(out).To(ContainSubstring("type=ALU"))
		Expect(out).To(ContainSubstring("text=hi"))
		Expect(out).To(ContainSubstring("to=finished"))
	})

	It("should write steps and evictions to the database", func() {
		db, err := sql.Open("sqlite3",
			filepath.Join(GinkgoT().TempDir(), "trace.sqlite3"))
		Expect(err).NotTo(HaveOccurred())
		defer db.Close()

		recorder := datarecording.NewWithDB(db)
		sim.AcceptHook(trace.NewDBTracer(recorder, "run1"))

		sim.LoadTrace(program)
		sim.RunAll()
		sim.Reset()

		var count int
		Expect(db.QueryRow("SELECT COUNT(*) FROM cache_steps WHERE RunID = 'run1'").
			Scan(&count)).To(Succeed())
		Expect(count).To(Equal(6))

		var (
			address  int64
			missType string
			servedBy string
		)
		Expect(db.QueryRow(
			"SELECT Address, MissType, ServedBy FROM cache_steps WHERE Step = 5",
		).Scan(&address, &missType, &servedBy)).To(Succeed())
		Expect(address).To(BeZero())
		Expect(missType).To(Equal("Conflict"))
		Expect(servedBy).To(Equal("L2"))

		Expect(db.QueryRow(
			"SELECT Address FROM cache_steps WHERE Step = 3",
		).Scan(&address)).To(Succeed())
		Expect(address).To(Equal(int64(-1)))

		var level string
		Expect(db.QueryRow(
			"SELECT Level FROM cache_evictions WHERE Step = 2",
		).Scan(&level)).To(Succeed())
		Expect(level).To(Equal("L1"))

		reader := datarecording.OpenDB(db)
		Expect(reader.Register(trace.StepTable, trace.StepRow{})).To(Succeed())

		page, err := reader.Select(context.Background(), trace.StepTable,
			datarecording.Selection{
				Where:   "AccessType = ?",
				Args:    []any{"ALU"},
				OrderBy: "Step DESC",
			})
		Expect(err).NotTo(HaveOccurred())
		Expect(page.Total).To(Equal(2))
		Expect(page.Rows[0].(*trace.StepRow).Text).To(Equal("hi"))
		Expect(page.Rows[1].(*trace.StepRow).Data).To(Equal(int64(2)))
	})

	It("should count steps by where they were served", func() {
		counter := trace.NewStepCounter()
		sim.AcceptHook(counter)

		sim.LoadTrace(program)
		sim.RunAll()

		Expect(counter.Names()).To(Equal([]string{
			"Memory", "INVALID", "CPU", "L2",
		}))
		Expect(counter.Count("Memory")).To(Equal(uint64(2)))
		Expect(counter.Count("L2")).To(Equal(uint64(1)))
		Expect(counter.TotalEnergy()).To(BeNumerically(">", 0))

		sim.Reset()
		Expect(counter.Names()).To(BeEmpty())
	})
})
