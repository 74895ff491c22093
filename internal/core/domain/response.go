package domain

import "net/http"

// Response is a fully materialized HTTP response produced by an
// interceptor or a route handler.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// NewResponse creates a response with an empty header set.
func NewResponse(status int, body []byte) *Response {
	return &Response{
		Status: status,
		Header: make(http.Header),
		Body:   body,
	}
}

// HTMLResponse creates a text/html response.
func HTMLResponse(status int, body string) *Response {
	resp := NewResponse(status, []byte(body))
	resp.Header.Set("Content-Type", "text/html; charset=utf-8")
	return resp
}

// WriteTo writes the response to w. Header values already present on w are
// kept unless the response overrides them.
func (r *Response) WriteTo(w http.ResponseWriter) error {
	for k, values := range r.Header {
		w.Header().Del(k)
		for _, v := range values {
			w.Header().Add(k, v)
		}
	}
	status := r.Status
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	if len(r.Body) == 0 {
		return nil
	}
	_, err := w.Write(r.Body)
	return err
}
