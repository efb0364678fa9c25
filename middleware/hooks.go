package middleware

import "net/http"

// hookWriter runs before once, immediately before the first byte of the
// response (status line included) leaves the handler.
type hookWriter struct {
	http.ResponseWriter
	before func()
	fired  bool
}

func (h *hookWriter) fire() {
	if h.fired {
		return
	}
	h.fired = true
	if h.before != nil {
		h.before()
	}
}

func (h *hookWriter) WriteHeader(code int) {
	h.fire()
	h.ResponseWriter.WriteHeader(code)
}

func (h *hookWriter) Write(b []byte) (int, error) {
	h.fire()
	return h.ResponseWriter.Write(b)
}

func (h *hookWriter) Flush() {
	h.fire()
	if f, ok := h.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (h *hookWriter) Unwrap() http.ResponseWriter {
	return h.ResponseWriter
}
