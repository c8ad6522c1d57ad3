package server

import (
	"bytes"
	"net/http"
)

type responseWriterWrapper struct {
	http.ResponseWriter
	statusCode int
	capture    bool
	buffer     bytes.Buffer
}

// newResponseWriterWrapper records the status code, and the body when capture
// is set. Streams are wrapped without capture.
func newResponseWriterWrapper(w http.ResponseWriter, capture bool) *responseWriterWrapper {
	return &responseWriterWrapper{
		ResponseWriter: w,
		statusCode:     http.StatusOK,
		capture:        capture,
	}
}

func (w *responseWriterWrapper) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *responseWriterWrapper) Write(b []byte) (int, error) {
	if w.capture {
		w.buffer.Write(b)
	}
	return w.ResponseWriter.Write(b)
}

func (w *responseWriterWrapper) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (w *responseWriterWrapper) GetStatusCode() int {
	return w.statusCode
}

func (w *responseWriterWrapper) GetBody() []byte {
	return w.buffer.Bytes()
}
