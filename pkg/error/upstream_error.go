package error

import "net/http"

// UpstreamError marks failures coming from the LLM inference server or
// another external dependency the request cannot proceed without.
type UpstreamError string

func (err UpstreamError) Error() string {
	return string(err)
}

func (err UpstreamError) ErrCode() string {
	return "UPSTREAM_ERROR"
}

func (err UpstreamError) StatusCode() int {
	return http.StatusBadGateway
}
