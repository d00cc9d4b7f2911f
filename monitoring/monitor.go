// Package monitoring turns a running engine into a small HTTP server for
// external inspection and control: lifecycle state, pausing, stepping,
// the live object table, process resources, and CPU profiles.
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
	"time"

	// Enable profiling
	_ "net/http/pprof"

	"github.com/google/pprof/profile"
	"github.com/gorilla/mux"
	"github.com/pkg/browser"
	"github.com/shirou/gopsutil/process"
	"github.com/syifan/goseth"

	"github.com/keelengine/keel/core"
)

// A Monitor allows external monitoring and controlling of a running
// engine. Object-detail endpoints serialize live state; pause the engine
// first when inspecting objects mid-run.
type Monitor struct {
	scheduler *core.Scheduler
	store     *core.Store
	registry  *core.Registry

	portNumber  int
	openBrowser bool
}

// NewMonitor creates a new Monitor.
func NewMonitor() *Monitor {
	return &Monitor{}
}

// WithPortNumber sets the port number of the monitor.
func (m *Monitor) WithPortNumber(portNumber int) *Monitor {
	if portNumber < 1000 {
		fmt.Fprintf(os.Stderr,
			"Port number %d is assigned to the monitoring server, "+
				"which is not allowed. Using a random port instead.\n",
			portNumber)
		portNumber = 0
	}

	m.portNumber = portNumber

	return m
}

// WithBrowser makes StartServer open the monitor in the default browser.
func (m *Monitor) WithBrowser() *Monitor {
	m.openBrowser = true
	return m
}

// RegisterScheduler registers the scheduler that drives the engine.
func (m *Monitor) RegisterScheduler(s *core.Scheduler) {
	m.scheduler = s
}

// RegisterStore registers the object store to inspect.
func (m *Monitor) RegisterStore(s *core.Store) {
	m.store = s
}

// RegisterRegistry registers the type registry to list.
func (m *Monitor) RegisterRegistry(r *core.Registry) {
	m.registry = r
}

// StartServer starts the monitor as a web server, on a random port
// unless one was set.
func (m *Monitor) StartServer() {
	r := mux.NewRouter()

	r.HandleFunc("/api/state", m.state)
	r.HandleFunc("/api/pause", m.pauseEngine)
	r.HandleFunc("/api/continue", m.continueEngine)
	r.HandleFunc("/api/step", m.stepEngine)
	r.HandleFunc("/api/stop", m.stopEngine)
	r.HandleFunc("/api/types", m.listTypes)
	r.HandleFunc("/api/objects", m.listObjects)
	r.HandleFunc("/api/object/{index}/{generation}", m.objectDetails)
	r.HandleFunc("/api/resources", m.listResources)
	r.HandleFunc("/api/profile", m.collectProfile)
	http.Handle("/", r)

	actualPort := ":0"
	if m.portNumber > 1000 {
		actualPort = ":" + strconv.Itoa(m.portNumber)
	}

	listener, err := net.Listen("tcp", actualPort)
	dieOnErr(err)

	url := fmt.Sprintf("http://localhost:%d",
		listener.Addr().(*net.TCPAddr).Port)
	fmt.Fprintf(os.Stderr, "Monitoring engine with %s\n", url)

	go func() {
		err = http.Serve(listener, nil)
		dieOnErr(err)
	}()

	if m.openBrowser {
		_ = browser.OpenURL(url)
	}
}

type stateRsp struct {
	State  string `json:"state"`
	Frame  uint64 `json:"frame"`
	Paused bool   `json:"paused"`
}

func (m *Monitor) state(w http.ResponseWriter, _ *http.Request) {
	rsp := stateRsp{
		State:  m.scheduler.State().String(),
		Frame:  m.scheduler.FrameCount(),
		Paused: m.scheduler.Paused(),
	}

	bytes, err := json.Marshal(rsp)
	dieOnErr(err)

	_, err = w.Write(bytes)
	dieOnErr(err)
}

func (m *Monitor) pauseEngine(w http.ResponseWriter, _ *http.Request) {
	m.scheduler.Pause()
	_, err := w.Write(nil)
	dieOnErr(err)
}

func (m *Monitor) continueEngine(w http.ResponseWriter, _ *http.Request) {
	m.scheduler.Continue()
	_, err := w.Write(nil)
	dieOnErr(err)
}

// stepEngine drives one frame while the engine is paused.
func (m *Monitor) stepEngine(w http.ResponseWriter, _ *http.Request) {
	if !m.scheduler.Paused() {
		w.WriteHeader(http.StatusConflict)
		_, err := w.Write([]byte("engine is not paused"))
		dieOnErr(err)
		return
	}

	err := m.scheduler.StepWhilePaused()
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprintf(w, "%s", err)
		return
	}

	w.WriteHeader(http.StatusOK)
}

func (m *Monitor) stopEngine(w http.ResponseWriter, _ *http.Request) {
	m.scheduler.Stop()
	_, err := w.Write(nil)
	dieOnErr(err)
}

func (m *Monitor) listTypes(w http.ResponseWriter, _ *http.Request) {
	fmt.Fprint(w, "[")
	for i, id := range m.registry.Types() {
		if i > 0 {
			fmt.Fprint(w, ",")
		}

		fmt.Fprintf(w, "%q", string(id))
	}
	fmt.Fprint(w, "]")
}

type objectRsp struct {
	Index      uint32 `json:"index"`
	Generation uint32 `json:"generation"`
	Type       string `json:"type"`
}

func (m *Monitor) listObjects(w http.ResponseWriter, _ *http.Request) {
	objects := make([]objectRsp, 0)
	for _, c := range []core.Capability{
		core.CapUpdatable,
		core.CapEventListener,
		core.CapRenderable,
		core.CapAudible,
	} {
		for h := range m.store.EachWithCapability(c) {
			typeID, err := m.store.TypeOf(h)
			if err != nil {
				continue
			}

			rsp := objectRsp{
				Index:      h.Index,
				Generation: h.Generation,
				Type:       string(typeID),
			}

			duplicate := false
			for _, seen := range objects {
				if seen.Index == rsp.Index {
					duplicate = true
					break
				}
			}
			if !duplicate {
				objects = append(objects, rsp)
			}
		}
	}

	bytes, err := json.Marshal(objects)
	dieOnErr(err)

	_, err = w.Write(bytes)
	dieOnErr(err)
}

func (m *Monitor) objectDetails(w http.ResponseWriter, r *http.Request) {
	h, ok := m.parseHandleOr404(w, r)
	if !ok {
		return
	}

	instance, err := m.store.Get(h)
	if err != nil {
		w.WriteHeader(http.StatusNotFound)
		_, err := w.Write([]byte("Object not found"))
		dieOnErr(err)
		return
	}

	serializer := goseth.NewSerializer()
	serializer.SetRoot(instance)
	serializer.SetMaxDepth(1)
	err = serializer.Serialize(w)

	dieOnErr(err)
}

func (m *Monitor) parseHandleOr404(
	w http.ResponseWriter,
	r *http.Request,
) (core.Handle, bool) {
	vars := mux.Vars(r)

	index, err1 := strconv.ParseUint(vars["index"], 10, 32)
	generation, err2 := strconv.ParseUint(vars["generation"], 10, 32)
	if err1 != nil || err2 != nil {
		w.WriteHeader(http.StatusBadRequest)
		_, err := w.Write([]byte("Malformed handle"))
		dieOnErr(err)
		return core.NilHandle, false
	}

	return core.Handle{
		Index:      uint32(index),
		Generation: uint32(generation),
	}, true
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

	memorySize, err := proc.MemoryInfo()
	dieOnErr(err)

	rsp := resourceRsp{
		CPUPercent: cpuPercent,
		MemorySize: memorySize.RSS,
	}

	bytes, err := json.Marshal(rsp)
	dieOnErr(err)

	_, err = w.Write(bytes)
	dieOnErr(err)
}

func (m *Monitor) collectProfile(w http.ResponseWriter, _ *http.Request) {
	buf := bytes.NewBuffer(nil)

	err := pprof.StartCPUProfile(buf)
	dieOnErr(err)

	time.Sleep(time.Second)

	pprof.StopCPUProfile()

	prof, err := profile.ParseData(buf.Bytes())
	dieOnErr(err)

	bytes, err := json.Marshal(prof)
	dieOnErr(err)

	_, err = w.Write(bytes)
	dieOnErr(err)
}

func dieOnErr(err error) {
	if err != nil {
		log.Panic(err)
	}
}
