// Package monitoring turns a simulator into a web server so that it can be
// driven and inspected from a browser.
package monitoring

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"runtime/pprof"
	"strconv"
	"strings"
	"time"

	"github.com/google/pprof/profile"
	"github.com/gorilla/mux"
	"github.com/shirou/gopsutil/process"
	"github.com/syifan/goseth"

	"github.com/sarchlab/cachesim/activity"
	"github.com/sarchlab/cachesim/mem/cache"
	"github.com/sarchlab/cachesim/mem/hierarchy"
	"github.com/sarchlab/cachesim/monitoring/web"
	"github.com/sarchlab/cachesim/sim/hooking"
	"github.com/sarchlab/cachesim/simulation"
	"github.com/sarchlab/cachesim/workload"
)

// Monitor serves the control and inspection API of one simulator.
type Monitor struct {
	sim        *simulation.Simulator
	activities *activity.Store
	logger     *slog.Logger
	portNumber int
	progress   *ProgressBar
}

// NewMonitor creates a Monitor for sim and registers its progress hook.
func NewMonitor(sim *simulation.Simulator) *Monitor {
	m := &Monitor{
		sim:      sim,
		logger:   slog.New(slog.DiscardHandler),
		progress: NewProgressBar("Program"),
	}

	sim.AcceptHook(m)

	return m
}

// WithPortNumber sets the port number of the monitor.
func (m *Monitor) WithPortNumber(portNumber int) *Monitor {
	if portNumber != 0 && portNumber < 1000 {
		m.logger.Warn("port number not allowed, using a random port instead",
			"port", portNumber)

		portNumber = 0
	}

	m.portNumber = portNumber

	return m
}

// WithActivityStore enables the /api/history endpoints.
func (m *Monitor) WithActivityStore(store *activity.Store) *Monitor {
	m.activities = store
	return m
}

// WithLogger sets the logger of the monitor.
func (m *Monitor) WithLogger(logger *slog.Logger) *Monitor {
	m.logger = logger
	return m
}

// Func keeps the progress bar in step with the simulator.
func (m *Monitor) Func(ctx hooking.HookCtx) {
	switch ctx.Pos {
	case simulation.HookPosStep:
		m.progress.IncrementFinished(1)
	case simulation.HookPosReset:
		m.progress.Restart()
	}
}

// Handler returns the router with all the routes of the monitor.
func (m *Monitor) Handler() http.Handler {
	r := mux.NewRouter()

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/config", m.getConfig).Methods(http.MethodGet)
	api.HandleFunc("/configure", m.configure).Methods(http.MethodPost)
	api.HandleFunc("/trace", m.loadTrace).Methods(http.MethodPost)
	api.HandleFunc("/presets", m.listPresets).Methods(http.MethodGet)
	api.HandleFunc("/presets/{name}", m.applyPreset).Methods(http.MethodPost)
	api.HandleFunc("/step", m.step).Methods(http.MethodPost)
	api.HandleFunc("/play", m.play).Methods(http.MethodPost)
	api.HandleFunc("/pause", m.pause).Methods(http.MethodPost)
	api.HandleFunc("/reset", m.reset).Methods(http.MethodPost)
	api.HandleFunc("/run", m.run).Methods(http.MethodPost)
	api.HandleFunc("/jump/{n}", m.jump).Methods(http.MethodPost)
	api.HandleFunc("/status", m.status).Methods(http.MethodGet)
	api.HandleFunc("/logs", m.logs).Methods(http.MethodGet)
	api.HandleFunc("/stats", m.stats).Methods(http.MethodGet)
	api.HandleFunc("/view", m.view).Methods(http.MethodGet)
	api.HandleFunc("/cache/{level}", m.cacheLevel).Methods(http.MethodGet)
	api.HandleFunc("/cache/{level}/lookup/{address}", m.lookup).
		Methods(http.MethodGet)
	api.HandleFunc("/component/{name}", m.listComponentDetails)
	api.HandleFunc("/field/{json}", m.listFieldValue)
	api.HandleFunc("/progress", m.listProgressBars)
	api.HandleFunc("/resource", m.listResources)
	api.HandleFunc("/profile", m.collectProfile)
	api.HandleFunc("/history", m.listHistory).Methods(http.MethodGet)
	api.HandleFunc("/history", m.addHistory).Methods(http.MethodPost)

	r.PathPrefix("/").Handler(http.FileServer(web.GetAssets()))

	return r
}

// StartServer starts serving in the background and returns the URL of the
// monitor.
func (m *Monitor) StartServer() (string, error) {
	actualPort := ":0"
	if m.portNumber > 1000 {
		actualPort = ":" + strconv.Itoa(m.portNumber)
	}

	listener, err := net.Listen("tcp", actualPort)
	if err != nil {
		return "", err
	}

	url := fmt.Sprintf("http://localhost:%d",
		listener.Addr().(*net.TCPAddr).Port)

	m.logger.Info("monitoring simulation", "url", url)

	server := &http.Server{
		Handler:           m.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		err := server.Serve(listener)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			m.logger.Error("monitor server stopped", "error", err)
		}
	}()

	return url, nil
}

type errorRsp struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

func (m *Monitor) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	err := json.NewEncoder(w).Encode(v)
	if err != nil {
		m.logger.Warn("failed to write response", "error", err)
	}
}

func (m *Monitor) writeError(w http.ResponseWriter, status int, err error) {
	rsp := errorRsp{Error: err.Error()}

	var configErr *cache.ConfigError
	if errors.As(err, &configErr) {
		rsp.Field = configErr.Field
	}

	m.writeJSON(w, status, rsp)
}

func (m *Monitor) logActivity(r *http.Request, action, details string) {
	if m.activities == nil {
		return
	}

	_, err := m.activities.Log(r.Context(), action, details)
	if err != nil {
		m.logger.Warn("failed to log activity",
			"action", action, "error", err)
	}
}

func (m *Monitor) getConfig(w http.ResponseWriter, _ *http.Request) {
	c := m.sim.Config()

	m.writeJSON(w, http.StatusOK, struct {
		hierarchy.Config
		L2 cache.Config `json:"l2"`
	}{
		Config: c,
		L2:     c.L2Config(),
	})
}

type configureReq struct {
	cache.Config
	Seed *int64 `json:"seed,omitempty"`
}

func (m *Monitor) configure(w http.ResponseWriter, r *http.Request) {
	req := configureReq{Config: cache.DefaultConfig()}

	err := json.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		m.writeError(w, http.StatusBadRequest, err)
		return
	}

	c := m.sim.Config()
	c.L1 = req.Config
	c.L2 = nil

	if req.Seed != nil {
		c.Seed = *req.Seed
	}

	err = m.sim.Configure(c)
	if err != nil {
		m.writeError(w, http.StatusBadRequest, err)
		return
	}

	m.logActivity(r, "configure", fmt.Sprintf("%d B, %d B blocks, %d-way, %s",
		c.L1.SizeBytes, c.L1.BlockSizeBytes, c.L1.Associativity, c.L1.Policy))

	m.getConfig(w, r)
}

type traceReq struct {
	Trace string `json:"trace"`
}

type parseErrorRsp struct {
	Line   int    `json:"line"`
	Text   string `json:"text"`
	Reason string `json:"reason"`
}

type traceRsp struct {
	Instructions int             `json:"instructions"`
	Errors       []parseErrorRsp `json:"errors"`
}

func toParseErrorRsp(errs []*workload.ParseError) []parseErrorRsp {
	rsp := make([]parseErrorRsp, 0, len(errs))
	for _, e := range errs {
		rsp = append(rsp, parseErrorRsp{
			Line:   e.Line,
			Text:   e.Text,
			Reason: e.Reason,
		})
	}

	return rsp
}

func (m *Monitor) loadTrace(w http.ResponseWriter, r *http.Request) {
	req := traceReq{}

	err := json.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		m.writeError(w, http.StatusBadRequest, err)
		return
	}

	errs := m.sim.LoadTrace(req.Trace)
	m.progress.SetTotal(uint64(len(m.sim.Program())))

	m.logActivity(r, "load_trace",
		fmt.Sprintf("%d lines, %d errors",
			strings.Count(req.Trace, "\n")+1, len(errs)))

	m.writeJSON(w, http.StatusOK, traceRsp{
		Instructions: len(m.sim.Program()),
		Errors:       toParseErrorRsp(errs),
	})
}

type presetRsp struct {
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Trace       string        `json:"trace"`
	Config      *cache.Config `json:"config,omitempty"`
}

func (m *Monitor) listPresets(w http.ResponseWriter, _ *http.Request) {
	names := workload.PresetNames()
	rsp := make([]presetRsp, 0, len(names))

	for _, name := range names {
		e, err := workload.Preset(name)
		if err != nil {
			continue
		}

		rsp = append(rsp, presetRsp{
			Name:        e.Name,
			Description: e.Description,
			Trace:       e.Trace,
			Config:      e.Config,
		})
	}

	m.writeJSON(w, http.StatusOK, rsp)
}

func (m *Monitor) applyPreset(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	e, err := workload.Preset(name)
	if err != nil {
		m.writeError(w, http.StatusNotFound, err)
		return
	}

	if e.Config != nil {
		c := m.sim.Config()
		c.L1 = *e.Config
		c.L2 = nil

		err = m.sim.Configure(c)
		if err != nil {
			m.writeError(w, http.StatusBadRequest, err)
			return
		}
	}

	errs := m.sim.LoadTrace(e.Trace)
	m.progress.SetTotal(uint64(len(m.sim.Program())))

	m.logActivity(r, "preset", name)

	m.writeJSON(w, http.StatusOK, traceRsp{
		Instructions: len(m.sim.Program()),
		Errors:       toParseErrorRsp(errs),
	})
}

type stepRsp struct {
	Stepped bool                     `json:"stepped"`
	Entry   *simulation.HistoryEntry `json:"entry,omitempty"`
	Status  simulation.Status        `json:"status"`
}

func (m *Monitor) step(w http.ResponseWriter, _ *http.Request) {
	entry, ok := m.sim.Step()

	rsp := stepRsp{Stepped: ok, Status: m.sim.Status()}
	if ok {
		rsp.Entry = &entry
	}

	m.writeJSON(w, http.StatusOK, rsp)
}

func (m *Monitor) play(w http.ResponseWriter, r *http.Request) {
	interval := simulation.DefaultInterval

	if s := r.URL.Query().Get("interval"); s != "" {
		ms, err := strconv.Atoi(s)
		if err != nil {
			m.writeError(w, http.StatusBadRequest,
				fmt.Errorf("invalid interval %q", s))
			return
		}

		interval = time.Duration(ms) * time.Millisecond
	}

	if !m.sim.Play(interval) {
		m.writeError(w, http.StatusConflict,
			errors.New("nothing left to play"))
		return
	}

	m.status(w, r)
}

func (m *Monitor) pause(w http.ResponseWriter, r *http.Request) {
	m.sim.Pause()
	m.status(w, r)
}

func (m *Monitor) reset(w http.ResponseWriter, r *http.Request) {
	m.sim.Reset()
	m.logActivity(r, "reset", "")
	m.status(w, r)
}

func (m *Monitor) run(w http.ResponseWriter, r *http.Request) {
	n := m.sim.RunAll()
	m.logActivity(r, "run_all", fmt.Sprintf("%d steps", n))

	m.writeJSON(w, http.StatusOK, struct {
		Steps  int               `json:"steps"`
		Status simulation.Status `json:"status"`
	}{
		Steps:  n,
		Status: m.sim.Status(),
	})
}

func (m *Monitor) jump(w http.ResponseWriter, r *http.Request) {
	s := mux.Vars(r)["n"]

	n, err := strconv.Atoi(s)
	if err != nil {
		m.writeError(w, http.StatusBadRequest,
			fmt.Errorf("invalid step %q", s))
		return
	}

	view, err := m.sim.JumpToStep(n)
	if err != nil {
		m.writeError(w, http.StatusBadRequest, err)
		return
	}

	m.writeJSON(w, http.StatusOK, view)
}

type statusRsp struct {
	Status       simulation.Status `json:"status"`
	Step         int               `json:"step"`
	View         int               `json:"view"`
	History      int               `json:"history"`
	Instructions int               `json:"instructions"`
	ParseErrors  []parseErrorRsp   `json:"parseErrors"`
}

func (m *Monitor) status(w http.ResponseWriter, _ *http.Request) {
	m.writeJSON(w, http.StatusOK, statusRsp{
		Status:       m.sim.Status(),
		Step:         m.sim.StepIndex(),
		View:         m.sim.ViewIndex(),
		History:      m.sim.HistoryLen(),
		Instructions: len(m.sim.Program()),
		ParseErrors:  toParseErrorRsp(m.sim.ParseErrors()),
	})
}

func (m *Monitor) logs(w http.ResponseWriter, _ *http.Request) {
	m.writeJSON(w, http.StatusOK, m.sim.Logs())
}

func (m *Monitor) stats(w http.ResponseWriter, _ *http.Request) {
	m.writeJSON(w, http.StatusOK, m.sim.Stats())
}

func (m *Monitor) view(w http.ResponseWriter, _ *http.Request) {
	m.writeJSON(w, http.StatusOK, m.sim.CurrentView())
}

func (m *Monitor) cacheLevel(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["level"]
	view := m.sim.CurrentView()

	for i, g := range view.Grids {
		if !strings.EqualFold(g.Level, name) {
			continue
		}

		m.writeJSON(w, http.StatusOK, struct {
			Step  int         `json:"step"`
			Grid  cache.Grid  `json:"grid"`
			Stats cache.Stats `json:"stats"`
		}{
			Step:  view.Step,
			Grid:  g,
			Stats: view.Stats[i],
		})

		return
	}

	m.writeError(w, http.StatusNotFound,
		fmt.Errorf("level %q not found", name))
}

type lookupRsp struct {
	Address      uint64 `json:"address"`
	BlockAddress uint64 `json:"blockAddress"`
	SetIndex     int    `json:"setIndex"`
	Tag          uint64 `json:"tag"`
	Cached       bool   `json:"cached"`
}

// lookup decodes an address against a live level and tells whether its
// block is cached right now.
func (m *Monitor) lookup(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	addr, err := strconv.ParseUint(vars["address"], 0, 64)
	if err != nil {
		m.writeError(w, http.StatusBadRequest,
			fmt.Errorf("invalid address %q", vars["address"]))
		return
	}

	var (
		rsp   lookupRsp
		found bool
	)

	m.sim.Inspect(func(h *hierarchy.Hierarchy) {
		for _, l := range h.Levels() {
			if !strings.EqualFold(l.Name(), vars["level"]) {
				continue
			}

			found = true
			rsp.Address = addr
			rsp.BlockAddress, rsp.SetIndex, rsp.Tag = l.Decode(addr)
			rsp.Cached = l.Contains(addr)
		}
	})

	if !found {
		m.writeError(w, http.StatusNotFound,
			fmt.Errorf("level %q not found", vars["level"]))
		return
	}

	m.writeJSON(w, http.StatusOK, rsp)
}

var errComponentNotFound = errors.New("component not found")

// serializeLevel dumps the internals of a live level with goseth.
func (m *Monitor) serializeLevel(name string, entry []string) ([]byte, error) {
	buf := bytes.NewBuffer(nil)

	var err error

	m.sim.Inspect(func(h *hierarchy.Hierarchy) {
		level := h.Level(name)
		if level == nil {
			err = errComponentNotFound
			return
		}

		serializer := goseth.NewSerializer()
		serializer.SetRoot(level)
		serializer.SetMaxDepth(1)

		if len(entry) > 0 {
			err = serializer.SetEntryPoint(entry)
			if err != nil {
				return
			}
		}

		err = serializer.Serialize(buf)
	})

	return buf.Bytes(), err
}

func (m *Monitor) writeSerialized(w http.ResponseWriter, b []byte, err error) {
	switch {
	case errors.Is(err, errComponentNotFound):
		m.writeError(w, http.StatusNotFound, err)
	case err != nil:
		m.writeError(w, http.StatusBadRequest, err)
	default:
		w.Header().Set("Content-Type", "application/json")

		_, err = w.Write(b)
		if err != nil {
			m.logger.Warn("failed to write response", "error", err)
		}
	}
}

func (m *Monitor) listComponentDetails(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	b, err := m.serializeLevel(name, nil)
	m.writeSerialized(w, b, err)
}

type fieldReq struct {
	CompName  string `json:"comp_name,omitempty"`
	FieldName string `json:"field_name,omitempty"`
}

func (m *Monitor) listFieldValue(w http.ResponseWriter, r *http.Request) {
	jsonString := mux.Vars(r)["json"]
	req := fieldReq{}

	err := json.Unmarshal([]byte(jsonString), &req)
	if err != nil {
		m.writeError(w, http.StatusBadRequest, err)
		return
	}

	b, err := m.serializeLevel(req.CompName, strings.Split(req.FieldName, "."))
	m.writeSerialized(w, b, err)
}

func (m *Monitor) listProgressBars(w http.ResponseWriter, _ *http.Request) {
	m.progress.SetTotal(uint64(len(m.sim.Program())))
	m.writeJSON(w, http.StatusOK, []progressRsp{m.progress.snapshot()})
}

type resourceRsp struct {
	CPUPercent float64 `json:"cpu_percent"`
	MemorySize uint64  `json:"memory_size"`
}

func (m *Monitor) listResources(w http.ResponseWriter, _ *http.Request) {
	pid := os.Getpid()

	process, err := process.NewProcess(int32(pid))
	if err != nil {
		m.writeError(w, http.StatusInternalServerError, err)
		return
	}

	cpuPercent, err := process.CPUPercent()
	if err != nil {
		m.writeError(w, http.StatusInternalServerError, err)
		return
	}

	memorySize, err := process.MemoryInfo()
	if err != nil {
		m.writeError(w, http.StatusInternalServerError, err)
		return
	}

	m.writeJSON(w, http.StatusOK, resourceRsp{
		CPUPercent: cpuPercent,
		MemorySize: memorySize.RSS,
	})
}

func (m *Monitor) collectProfile(w http.ResponseWriter, _ *http.Request) {
	buf := bytes.NewBuffer(nil)

	err := pprof.StartCPUProfile(buf)
	if err != nil {
		m.writeError(w, http.StatusConflict, err)
		return
	}

	time.Sleep(time.Second)

	pprof.StopCPUProfile()

	prof, err := profile.ParseData(buf.Bytes())
	if err != nil {
		m.writeError(w, http.StatusInternalServerError, err)
		return
	}

	m.writeJSON(w, http.StatusOK, prof)
}

var errNoActivityStore = errors.New("activity history is disabled")

func (m *Monitor) listHistory(w http.ResponseWriter, r *http.Request) {
	if m.activities == nil {
		m.writeError(w, http.StatusNotFound, errNoActivityStore)
		return
	}

	limit := activity.DefaultLimit

	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			m.writeError(w, http.StatusBadRequest,
				fmt.Errorf("invalid limit %q", s))
			return
		}

		limit = n
	}

	records, err := m.activities.Recent(r.Context(), limit)
	if err != nil {
		m.writeError(w, http.StatusInternalServerError, err)
		return
	}

	m.writeJSON(w, http.StatusOK, records)
}

type historyReq struct {
	Action  string `json:"action"`
	Details string `json:"details"`
}

func (m *Monitor) addHistory(w http.ResponseWriter, r *http.Request) {
	if m.activities == nil {
		m.writeError(w, http.StatusNotFound, errNoActivityStore)
		return
	}

	req := historyReq{}

	err := json.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		m.writeError(w, http.StatusBadRequest, err)
		return
	}

	record, err := m.activities.Log(r.Context(), req.Action, req.Details)
	if errors.Is(err, activity.ErrEmptyAction) {
		m.writeError(w, http.StatusBadRequest, err)
		return
	}

	if err != nil {
		m.writeError(w, http.StatusInternalServerError, err)
		return
	}

	m.writeJSON(w, http.StatusCreated, record)
}
