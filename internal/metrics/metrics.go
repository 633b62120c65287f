package metrics

import (
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/kstaniek/go-cansock/internal/logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Prometheus counters
var (
	RxFrames = promauto.NewCounter(prometheus.CounterOpts{
		Name: "socketcan_rx_frames_total",
		Help: "Total CAN frames read from the raw socket.",
	})
	TxFrames = promauto.NewCounter(prometheus.CounterOpts{
		Name: "socketcan_tx_frames_total",
		Help: "Total CAN frames written to the raw socket.",
	})
	ErrorFrames = promauto.NewCounter(prometheus.CounterOpts{
		Name: "socketcan_error_frames_total",
		Help: "Total error frames (CAN_ERR_FLAG set) received.",
	})
	PollWakeups = promauto.NewCounter(prometheus.CounterOpts{
		Name: "socketcan_poll_wakeups_total",
		Help: "Poll calls that reported the socket readable.",
	})
	PollTimeouts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "socketcan_poll_timeouts_total",
		Help: "Poll calls that expired without events.",
	})
	BuildInfo = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "build_info",
		Help: "Build metadata (value is always 1).",
	}, []string{"version", "commit", "date"})
	Errors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "errors_total",
		Help: "Error counters by subsystem.",
	}, []string{"where"})
	MalformedFrames = promauto.NewCounter(prometheus.CounterOpts{
		Name: "malformed_frames_total",
		Help: "Total rejected reads with an unexpected size or layout.",
	})
	readinessMu sync.RWMutex
	readinessFn func() bool
)

// Error label constants (stable label values to bound cardinality)
const (
	ErrSocketRead  = "socket_read"
	ErrSocketWrite = "socket_write"
	ErrPoll        = "poll"
	ErrTxOverflow  = "tx_overflow"
	ErrOption      = "option"
	ErrCapture     = "capture"
)

// StartHTTP serves Prometheus metrics at /metrics and readiness at /ready.
func StartHTTP(addr string) *http.Server {
	srv := &http.Server{
		Addr:    addr,
		Handler: Handler(),
	}
	go func() {
		logging.L().Info("metrics_listen", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.L().Error("metrics_http_error", "error", err)
		}
	}()
	return srv
}

// Handler returns the mux served by StartHTTP.
func Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		if IsReady() {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ready\n"))
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("not ready\n"))
	})
	return mux
}

// Local mirrored counters for easy logging (avoid Prometheus scraping in-process)
var (
	localRx           uint64
	localTx           uint64
	localErrFrames    uint64
	localPollWakeups  uint64
	localPollTimeouts uint64
	localErrors       uint64
	localMalformed    uint64
)

// Snapshot is a cheap copy of local counters.
type Snapshot struct {
	Rx           uint64
	Tx           uint64
	ErrorFrames  uint64
	PollWakeups  uint64
	PollTimeouts uint64
	Errors       uint64 // sum across error labels
	Malformed    uint64
}

func Snap() Snapshot {
	return Snapshot{
		Rx:           atomic.LoadUint64(&localRx),
		Tx:           atomic.LoadUint64(&localTx),
		ErrorFrames:  atomic.LoadUint64(&localErrFrames),
		PollWakeups:  atomic.LoadUint64(&localPollWakeups),
		PollTimeouts: atomic.LoadUint64(&localPollTimeouts),
		Errors:       atomic.LoadUint64(&localErrors),
		Malformed:    atomic.LoadUint64(&localMalformed),
	}
}

// IncRx increments receive counters.
func IncRx() {
	RxFrames.Inc()
	atomic.AddUint64(&localRx, 1)
}

// IncTx increments transmit counters.
func IncTx() {
	TxFrames.Inc()
	atomic.AddUint64(&localTx, 1)
}

func IncErrorFrame() {
	ErrorFrames.Inc()
	atomic.AddUint64(&localErrFrames, 1)
}

func IncPollWakeup() {
	PollWakeups.Inc()
	atomic.AddUint64(&localPollWakeups, 1)
}

func IncPollTimeout() {
	PollTimeouts.Inc()
	atomic.AddUint64(&localPollTimeouts, 1)
}

func IncError(label string) {
	Errors.WithLabelValues(label).Inc()
	atomic.AddUint64(&localErrors, 1)
}

func IncMalformed() {
	MalformedFrames.Inc()
	atomic.AddUint64(&localMalformed, 1)
}

// InitBuildInfo sets the build info gauge (should be called once at startup).
func InitBuildInfo(version, commit, date string) {
	BuildInfo.WithLabelValues(version, commit, date).Set(1)
	// Pre-register error label series so they are exported before the first error.
	for _, lbl := range []string{
		ErrSocketRead, ErrSocketWrite, ErrPoll, ErrTxOverflow, ErrOption, ErrCapture,
	} {
		Errors.WithLabelValues(lbl).Add(0)
	}
}

// SetReadinessFunc registers a function used by /ready and IsReady.
func SetReadinessFunc(fn func() bool) { readinessMu.Lock(); readinessFn = fn; readinessMu.Unlock() }

// IsReady invokes the registered readiness function if present.
func IsReady() bool {
	readinessMu.RLock()
	fn := readinessFn
	readinessMu.RUnlock()
	if fn == nil { // if not set yet, treat as ready so metrics endpoint doesn't flap
		return true
	}
	return fn()
}
