// pkg/wire/response.go
package wire

import "net/http"

// Response is what the engine serializes back to the rendered content.
type Response struct {
	Status      int
	ContentType string
	Header      http.Header
	Body        []byte
}

func NewResponse(status int, contentType string, body []byte) *Response {
	return &Response{
		Status:      status,
		ContentType: contentType,
		Header:      http.Header{},
		Body:        body,
	}
}

// Text is a plain-text response.
func Text(status int, s string) *Response {
	return NewResponse(status, "text/plain; charset=utf-8", []byte(s))
}

// StatusText returns the reason phrase for the response status.
func (r *Response) StatusText() string {
	if t := http.StatusText(r.Status); t != "" {
		return t
	}
	return "Unknown"
}

// Headers merges the content type into a copy of Header.
func (r *Response) Headers() http.Header {
	h := http.Header{}
	for k, v := range r.Header {
		h[k] = append([]string(nil), v...)
	}
	if r.ContentType != "" {
		h.Set("Content-Type", r.ContentType)
	}
	return h
}
