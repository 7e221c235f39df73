package errors

import (
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"

	"github.com/PancyStudios/PancyModGo/pkg/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var panicsRecovered = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "pancymod_panics_recovered_total",
	Help: "Number of panics recovered by the anti-crash handler",
}, []string{"source"})

// ErrorHandler counts recovered panics so one failing goroutine never takes the bot down.
type ErrorHandler struct {
	panicCount atomic.Int64
}

var (
	handler *ErrorHandler
	once    sync.Once
)

// Init initializes the global error handler
func Init() *ErrorHandler {
	once.Do(func() {
		handler = &ErrorHandler{}
	})
	return handler
}

// Get returns the global error handler instance
func Get() *ErrorHandler {
	return Init()
}

// PanicCount returns how many panics were recovered since start.
func (h *ErrorHandler) PanicCount() int64 {
	return h.panicCount.Load()
}

// HandlePanic logs a recovered panic value with its stack.
func (h *ErrorHandler) HandlePanic(source string, recovered interface{}) {
	count := h.panicCount.Add(1)
	panicsRecovered.WithLabelValues(source).Inc()

	logger.Error(fmt.Sprintf("Panic recuperado (%d): %v", count, recovered), "AntiCrash")
	logger.Debug(string(debug.Stack()), "AntiCrash")
}

// RecoverMiddleware returns a recovery function for use in deferred calls
func RecoverMiddleware() func() {
	return RecoverAs("goroutine")
}

// RecoverAs is RecoverMiddleware with a label for the metrics source.
func RecoverAs(source string) func() {
	return func() {
		if r := recover(); r != nil {
			Get().HandlePanic(source, r)
		}
	}
}
