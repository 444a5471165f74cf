package daemon

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/golang/glog"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	utilruntime "k8s.io/apimachinery/pkg/util/runtime"
	utilwait "k8s.io/apimachinery/pkg/util/wait"
)

// ReadyTracker reports ready once the platform is configured and telemetry has run
type ReadyTracker struct {
	mutex     sync.Mutex
	bringup   *Bringup
	telemetry *Telemetry
}

// NewReadyTracker ...
func NewReadyTracker(bringup *Bringup) *ReadyTracker {
	return &ReadyTracker{bringup: bringup}
}

// SetTelemetry makes readiness also wait for the first telemetry refresh
func (rt *ReadyTracker) SetTelemetry(t *Telemetry) {
	rt.mutex.Lock()
	rt.telemetry = t
	rt.mutex.Unlock()
}

// Ready returns whether the daemon is ready and, when it is not, why
func (rt *ReadyTracker) Ready() (bool, string) {
	rt.mutex.Lock()
	bringup, telemetry := rt.bringup, rt.telemetry
	rt.mutex.Unlock()

	if bringup == nil {
		return false, "No platform"
	}
	state, err := bringup.State()
	switch state {
	case Pending, Running:
		return false, "Base configuration pending"
	case Failed:
		return false, fmt.Sprintf("Base configuration failed: %v", err)
	}

	if telemetry != nil && !telemetry.Refreshed() {
		return false, "Telemetry has not yet been collected"
	}
	return true, ""
}

type readyHandler struct {
	tracker *ReadyTracker
}

func (h readyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if isReady, msg := h.tracker.Ready(); !isReady {
		w.WriteHeader(http.StatusServiceUnavailable)
		fmt.Fprintf(w, "503: %s\n", msg)
	} else {
		w.WriteHeader(http.StatusOK)
	}
}

// ReadyHandler serves 200 when the tracker is ready and 503 with the reason otherwise
func ReadyHandler(tracker *ReadyTracker) http.Handler {
	return readyHandler{tracker: tracker}
}

// StartReadyServer ...
func StartReadyServer(bindAddress string, tracker *ReadyTracker) {
	glog.Info("Starting Ready Server")
	mux := http.NewServeMux()
	mux.Handle("/ready", ReadyHandler(tracker))
	go utilwait.Until(func() {
		err := http.ListenAndServe(bindAddress, mux)
		if err != nil {
			utilruntime.HandleError(fmt.Errorf("starting ready server failed: %v", err))
		}
	}, 5*time.Second, utilwait.NeverStop)
}

// StartMetricsServer ...
func StartMetricsServer(bindAddress string) {
	glog.Info("Starting Metrics Server")
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	go utilwait.Until(func() {
		err := http.ListenAndServe(bindAddress, mux)
		if err != nil {
			utilruntime.HandleError(fmt.Errorf("starting metrics server failed: %v", err))
		}
	}, 5*time.Second, utilwait.NeverStop)
}
