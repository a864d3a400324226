package upstream

import (
	"io"
	"net/http"
)

// Reply is the narrow boundary type for an upstream HTTP response. The body
// is left undecoded: the proxy decides whether to relay it as a stream or
// buffer it based on the inbound caller's Accept header.
type Reply struct {
	Status int
	Header http.Header
	Body   io.ReadCloser
}

// ContentType returns the upstream content type, or the empty string.
func (r *Reply) ContentType() string {
	return r.Header.Get("Content-Type")
}

// Buffer drains and closes the body, returning it as bytes.
func (r *Reply) Buffer() ([]byte, error) {
	if r.Body == nil {
		return nil, nil
	}
	defer r.Body.Close()
	return io.ReadAll(r.Body)
}

// Result is the structured outcome of an optional upstream operation.
// A false OK with a message is a normal, expected condition (for example an
// unconfigured erase endpoint), not an error.
type Result struct {
	OK      bool   `json:"ok"`
	Message string `json:"message,omitempty"`
}
