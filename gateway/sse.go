package gateway

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/lesstokens/logger"
)

const eventError = "error"

// eventWriter writes server-sent events to a gin response.
type eventWriter struct {
	w   gin.ResponseWriter
	log *logger.Logger
}

func newEventWriter(w gin.ResponseWriter, log *logger.Logger) *eventWriter {
	return &eventWriter{w: w, log: log}
}

// start writes the SSE headers and lifts the server write deadline, which
// would otherwise cut long completions short.
func (e *eventWriter) start() {
	rc := http.NewResponseController(e.w)
	if err := rc.SetWriteDeadline(time.Time{}); err != nil {
		e.log.Debug("could not clear write deadline", logger.Fields(logger.FieldError, err.Error()))
	}

	h := e.w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	e.w.WriteHeader(http.StatusOK)
	e.w.Flush()
}

// send writes one event as JSON data. An empty event name sends a plain
// message. It returns false once the client is gone.
func (e *eventWriter) send(event string, v any) bool {
	data, err := json.Marshal(v)
	if err != nil {
		e.log.Error("could not encode event", logger.Fields(logger.FieldError, err.Error()))
		return false
	}
	if event != "" {
		if _, err := fmt.Fprintf(e.w, "event: %s\n", event); err != nil {
			return false
		}
	}
	if _, err := fmt.Fprintf(e.w, "data: %s\n\n", data); err != nil {
		return false
	}
	e.w.Flush()
	return true
}
