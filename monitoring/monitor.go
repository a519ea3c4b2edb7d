// Package monitoring exposes a live HTTP dashboard over a running set of
// HARQ entities.
package monitoring

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"runtime/pprof"
	"strconv"
	"sync"
	"time"

	// Enable pprof's default handlers under /debug/pprof/.
	_ "net/http/pprof"

	"github.com/google/pprof/profile"
	"github.com/gorilla/mux"
	"github.com/pkg/browser"
	"github.com/rs/xid"
	"github.com/shirou/gopsutil/process"
	"github.com/syifan/goseth"

	"github.com/basestation/harqcore/harq"
)

// Monitor turns a set of HarqEntity instances into an inspectable web
// server, the way the teacher's Monitor exposes a running simulation.
type Monitor struct {
	portNumber int
	openOnRun  bool

	mu       sync.Mutex
	entities map[string]*harq.HarqEntity
	order    []string

	progressBarsLock sync.Mutex
	progressBars     []*ProgressBar
}

// NewMonitor creates a Monitor with no entities registered.
func NewMonitor() *Monitor {
	return &Monitor{entities: make(map[string]*harq.HarqEntity)}
}

// WithPortNumber sets the dashboard's listen port. Ports below 1000 are
// rejected in favor of a random port, matching the teacher's guard
// against binding privileged ports by accident.
func (m *Monitor) WithPortNumber(port int) *Monitor {
	if port < 1000 {
		fmt.Fprintf(os.Stderr,
			"Port number %d is reserved, using a random port instead.\n", port)
		port = 0
	}

	m.portNumber = port

	return m
}

// WithBrowserOpen makes StartServer open the dashboard URL automatically.
func (m *Monitor) WithBrowserOpen() *Monitor {
	m.openOnRun = true

	return m
}

// RegisterEntity registers a HarqEntity to be served under /api/entity/{id}.
func (m *Monitor) RegisterEntity(e *harq.HarqEntity) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entities[e.ID()] = e
	m.order = append(m.order, e.ID())
}

// CreateProgressBar starts tracking progress toward total units of work
// (e.g. TTIs to run) under name, and returns a handle the caller updates.
func (m *Monitor) CreateProgressBar(name string, total uint64) *ProgressBar {
	bar := &ProgressBar{
		ID:        xid.New().String(),
		Name:      name,
		StartTime: time.Now(),
		Total:     total,
	}

	m.progressBarsLock.Lock()
	defer m.progressBarsLock.Unlock()

	m.progressBars = append(m.progressBars, bar)

	return bar
}

// CompleteProgressBar removes a bar from the dashboard's progress list.
func (m *Monitor) CompleteProgressBar(pb *ProgressBar) {
	m.progressBarsLock.Lock()
	defer m.progressBarsLock.Unlock()

	remaining := make([]*ProgressBar, 0, len(m.progressBars))
	for _, b := range m.progressBars {
		if b != pb {
			remaining = append(remaining, b)
		}
	}

	m.progressBars = remaining
}

func (m *Monitor) listProgressBars(w http.ResponseWriter, _ *http.Request) {
	m.progressBarsLock.Lock()
	body, err := json.Marshal(m.progressBars)
	m.progressBarsLock.Unlock()

	dieOnErr(err)

	_, err = w.Write(body)
	dieOnErr(err)
}

// StartServer starts the dashboard HTTP server in the background and
// returns once it is listening.
func (m *Monitor) StartServer() {
	r := mux.NewRouter()
	r.HandleFunc("/api/entities", m.listEntities)
	r.HandleFunc("/api/entity/{id}", m.describeEntity)
	r.HandleFunc("/api/resource", m.listResources)
	r.HandleFunc("/api/profile", m.collectProfile)
	r.HandleFunc("/api/progress", m.listProgressBars)
	http.Handle("/", r)

	actualPort := ":0"
	if m.portNumber >= 1000 {
		actualPort = ":" + strconv.Itoa(m.portNumber)
	}

	listener, err := net.Listen("tcp", actualPort)
	dieOnErr(err)

	addr := fmt.Sprintf("http://localhost:%d", listener.Addr().(*net.TCPAddr).Port)
	fmt.Fprintf(os.Stderr, "Monitoring HARQ station at %s\n", addr)

	if m.openOnRun {
		if err := browser.OpenURL(addr); err != nil {
			fmt.Fprintf(os.Stderr, "could not open browser: %v\n", err)
		}
	}

	go func() {
		err := http.Serve(listener, nil)
		dieOnErr(err)
	}()
}

func (m *Monitor) listEntities(w http.ResponseWriter, _ *http.Request) {
	m.mu.Lock()
	ids := make([]string, len(m.order))
	copy(ids, m.order)
	m.mu.Unlock()

	bytes, err := json.Marshal(ids)
	dieOnErr(err)

	_, err = w.Write(bytes)
	dieOnErr(err)
}

func (m *Monitor) describeEntity(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	m.mu.Lock()
	entity, ok := m.entities[id]
	m.mu.Unlock()

	if !ok {
		w.WriteHeader(http.StatusNotFound)
		_, err := w.Write([]byte("entity not found"))
		dieOnErr(err)

		return
	}

	serializer := goseth.NewSerializer()
	serializer.SetRoot(entity)
	serializer.SetMaxDepth(2)

	err := serializer.Serialize(w)
	dieOnErr(err)
}

type resourceRsp struct {
	CPUPercent float64 `json:"cpu_percent"`
	MemorySize uint64  `json:"memory_size"`
}

func (m *Monitor) listResources(w http.ResponseWriter, _ *http.Request) {
	pid := os.Getpid()
	proc, err := process.NewProcess(int32(pid))
	dieOnErr(err)

	cpuPercent, err := proc.CPUPercent()
	dieOnErr(err)

	memInfo, err := proc.MemoryInfo()
	dieOnErr(err)

	rsp := resourceRsp{CPUPercent: cpuPercent, MemorySize: memInfo.RSS}

	body, err := json.Marshal(rsp)
	dieOnErr(err)

	_, err = w.Write(body)
	dieOnErr(err)
}

func (m *Monitor) collectProfile(w http.ResponseWriter, _ *http.Request) {
	buf := bytes.NewBuffer(nil)

	err := pprof.StartCPUProfile(buf)
	dieOnErr(err)

	time.Sleep(200 * time.Millisecond)

	pprof.StopCPUProfile()

	prof, err := profile.ParseData(buf.Bytes())
	dieOnErr(err)

	body, err := json.Marshal(prof)
	dieOnErr(err)

	_, err = w.Write(body)
	dieOnErr(err)
}

func dieOnErr(err error) {
	if err != nil {
		log.Panic(err)
	}
}
