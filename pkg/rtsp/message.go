package rtsp

import (
	"fmt"
	"sort"
	"strings"
)

// Request represents an RTSP request
type Request struct {
	Command Command
	Method  string
	URI     string
	Version string
	Headers map[string]string
	Body    []byte
	CSeq    string
}

// Response represents an RTSP response
type Response struct {
	Version    string
	StatusCode int
	StatusText string
	Headers    map[string]string
	Body       []byte
	CSeq       string
}

// NewRequest creates a new RTSP request
func NewRequest(method, uri string) *Request {
	cmd, _ := ParseCommand(method)
	return &Request{
		Command: cmd,
		Method:  method,
		URI:     uri,
		Version: RTSPVersion,
		Headers: make(map[string]string),
	}
}

// NewResponse creates a new RTSP response
func NewResponse(statusCode int) *Response {
	return &Response{
		Version:    RTSPVersion,
		StatusCode: statusCode,
		StatusText: getStatusText(statusCode),
		Headers:    make(map[string]string),
	}
}

// SetHeader sets a header value
func (r *Request) SetHeader(key, value string) {
	r.Headers[key] = value
}

// GetHeader gets a header value, matching the name case-insensitively
func (r *Request) GetHeader(key string) string {
	return lookupHeader(r.Headers, key)
}

// SetCSeq sets the CSeq header and field
func (r *Request) SetCSeq(cseq string) {
	r.CSeq = cseq
	r.Headers[HeaderCSeq] = cseq
}

// SetHeader sets a header value
func (r *Response) SetHeader(key, value string) {
	r.Headers[key] = value
}

// GetHeader gets a header value, matching the name case-insensitively
func (r *Response) GetHeader(key string) string {
	return lookupHeader(r.Headers, key)
}

// SetCSeq sets the CSeq header and field
func (r *Response) SetCSeq(cseq string) {
	r.CSeq = cseq
	r.Headers[HeaderCSeq] = cseq
}

// String returns the string representation of the request
func (r *Request) String() string {
	var sb strings.Builder

	// Request line
	sb.WriteString(fmt.Sprintf("%s %s %s\r\n", r.Method, r.URI, r.Version))
	writeHeaders(&sb, r.Headers, r.Body)

	return sb.String()
}

// String returns the string representation of the response
func (r *Response) String() string {
	var sb strings.Builder

	// Status line
	sb.WriteString(fmt.Sprintf("%s %d %s\r\n", r.Version, r.StatusCode, r.StatusText))
	writeHeaders(&sb, r.Headers, r.Body)

	return sb.String()
}

// Bytes returns the byte representation of the request
func (r *Request) Bytes() []byte {
	return []byte(r.String())
}

// Bytes returns the byte representation of the response
func (r *Response) Bytes() []byte {
	return []byte(r.String())
}

// writeHeaders writes CSeq first and the remaining headers in name order,
// then the empty line and body.
func writeHeaders(sb *strings.Builder, headers map[string]string, body []byte) {
	if cseq, ok := headers[HeaderCSeq]; ok {
		sb.WriteString(fmt.Sprintf("%s: %s\r\n", HeaderCSeq, cseq))
	}

	keys := make([]string, 0, len(headers))
	for key := range headers {
		if key != HeaderCSeq {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	for _, key := range keys {
		sb.WriteString(fmt.Sprintf("%s: %s\r\n", key, headers[key]))
	}

	// Empty line
	sb.WriteString("\r\n")

	if len(body) > 0 {
		sb.Write(body)
	}
}

func lookupHeader(headers map[string]string, key string) string {
	if value, ok := headers[key]; ok {
		return value
	}
	for k, value := range headers {
		if strings.EqualFold(k, key) {
			return value
		}
	}
	return ""
}

// getStatusText returns the standard status text for a status code
func getStatusText(statusCode int) string {
	switch statusCode {
	case StatusOK:
		return "OK"
	case StatusBadRequest:
		return "Bad Request"
	case StatusSessionNotFound:
		return "Session Not Found"
	case StatusInternalServerError:
		return "Internal Server Error"
	case StatusNotImplemented:
		return "Not Implemented"
	default:
		return "Unknown"
	}
}
