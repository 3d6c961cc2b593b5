package datarecording

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/xid"
)

const timeFormat = "2006-01-02 15:04:05.000000000"

// RunInfoTable is the table that describes each recorded run.
const RunInfoTable = "run_info"

// RunInfo is one property of a recorded run.
type RunInfo struct {
	RunID    string
	Property string
	Value    string
}

// RunRecorder writes when and how a simulation run was started.
type RunRecorder struct {
	runID    string
	recorder DataRecorder
	entries  []RunInfo
}

// NewRunRecorder creates a run recorder with a fresh run ID and makes sure
// the run_info table exists.
func NewRunRecorder(recorder DataRecorder) *RunRecorder {
	r := &RunRecorder{
		runID:    xid.New().String(),
		recorder: recorder,
	}

	recorder.CreateTable(RunInfoTable, RunInfo{})

	return r
}

// RunID returns the identifier stored with every row of this run.
func (r *RunRecorder) RunID() string {
	return r.runID
}

// Start remembers the start time, the command line, and extra properties
// such as the cache configuration.
func (r *RunRecorder) Start(properties map[string]string) {
	r.add("Start Time", time.Now().Format(timeFormat))
	r.add("Command", strings.Join(os.Args, " "))

	if ex, err := os.Executable(); err == nil {
		r.add("Working Directory", filepath.Dir(ex))
	}

	for k, v := range properties {
		r.add(k, v)
	}
}

// End writes everything along with the end time.
func (r *RunRecorder) End() {
	r.add("End Time", time.Now().Format(timeFormat))

	for _, entry := range r.entries {
		r.recorder.InsertData(RunInfoTable, entry)
	}

	r.entries = nil

	r.recorder.Flush()
}

func (r *RunRecorder) add(property, value string) {
	r.entries = append(r.entries, RunInfo{
		RunID:    r.runID,
		Property: property,
		Value:    value,
	})
}
