package rtsp

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// MessageReader handles RTSP message parsing
type MessageReader struct {
	reader *bufio.Reader
}

// NewMessageReader creates a new RTSP message reader
func NewMessageReader(r io.Reader) *MessageReader {
	return &MessageReader{
		reader: bufio.NewReader(r),
	}
}

// ReadRequest reads one request: the lines up to the first empty line plus
// an optional Content-Length body.
//
// A request without a recognizable command is returned together with
// ErrMalformedRequest so the caller can still echo its CSeq. A closed
// connection is reported as ErrPeerClosed.
func (mr *MessageReader) ReadRequest() (*Request, error) {
	line, err := mr.readStartLine()
	if err != nil {
		return nil, readError("failed to read request line", err)
	}

	request := &Request{
		Version: RTSPVersion,
		Headers: make(map[string]string),
	}

	if err := mr.readHeaders(request.Headers); err != nil {
		return nil, readError("failed to read headers", err)
	}
	request.CSeq = request.GetHeader(HeaderCSeq)

	body, bodyErr := mr.readBody(request.GetHeader(HeaderContentLength))
	if bodyErr != nil && !errors.Is(bodyErr, ErrMalformedRequest) {
		return nil, bodyErr
	}
	request.Body = body

	tokens := strings.Fields(line)
	cmd, idx := ParseCommand(line)
	if cmd == CommandUnknown {
		if len(tokens) > 0 {
			request.Method = tokens[0]
		}
		return request, fmt.Errorf("%w: no command in %q", ErrMalformedRequest, line)
	}

	request.Command = cmd
	request.Method = tokens[idx]
	if idx+1 < len(tokens) {
		request.URI = tokens[idx+1]
	}
	if idx+2 < len(tokens) {
		request.Version = tokens[idx+2]
	}

	return request, bodyErr
}

// ReadResponse reads and parses an RTSP response
func (mr *MessageReader) ReadResponse() (*Response, error) {
	// Read status line
	line, err := mr.readStartLine()
	if err != nil {
		return nil, readError("failed to read status line", err)
	}

	parts := strings.SplitN(line, " ", 3)
	if len(parts) < 2 {
		return nil, fmt.Errorf("invalid status line: %s", line)
	}

	statusCode, err := strconv.Atoi(parts[1])
	if err != nil {
		return nil, fmt.Errorf("invalid status code: %s", parts[1])
	}

	statusText := ""
	if len(parts) == 3 {
		statusText = parts[2]
	}

	response := &Response{
		Version:    parts[0],
		StatusCode: statusCode,
		StatusText: statusText,
		Headers:    make(map[string]string),
	}

	// Read headers
	if err := mr.readHeaders(response.Headers); err != nil {
		return nil, readError("failed to read headers", err)
	}
	response.CSeq = response.GetHeader(HeaderCSeq)

	body, err := mr.readBody(response.GetHeader(HeaderContentLength))
	if err != nil {
		return nil, err
	}
	response.Body = body

	return response, nil
}

// readStartLine skips blank lines between messages and returns the first non-empty line
func (mr *MessageReader) readStartLine() (string, error) {
	for {
		line, err := mr.readLine()
		if err != nil {
			return "", err
		}
		if strings.TrimSpace(line) != "" {
			return line, nil
		}
	}
}

// readLine reads a line from the reader (removes \r\n)
func (mr *MessageReader) readLine() (string, error) {
	line, err := mr.reader.ReadString('\n')
	if err != nil {
		return "", err
	}

	// Remove \r\n
	line = strings.TrimRight(line, "\r\n")
	return line, nil
}

// readHeaders reads headers until an empty line
func (mr *MessageReader) readHeaders(headers map[string]string) error {
	for {
		line, err := mr.readLine()
		if err != nil {
			return err
		}

		// Empty line means end of headers
		if line == "" {
			break
		}

		// Parse header
		colonIndex := strings.Index(line, ":")
		if colonIndex == -1 {
			continue // Skip invalid header lines
		}

		key := strings.TrimSpace(line[:colonIndex])
		value := strings.TrimSpace(line[colonIndex+1:])
		headers[key] = value
	}

	return nil
}

// readBody reads Content-Length bytes. An unparsable length is malformed and
// leaves the body unread.
func (mr *MessageReader) readBody(contentLength string) ([]byte, error) {
	if contentLength == "" {
		return nil, nil
	}

	length, err := strconv.Atoi(contentLength)
	if err != nil || length < 0 {
		return nil, fmt.Errorf("%w: invalid content length %q", ErrMalformedRequest, contentLength)
	}
	if length == 0 {
		return nil, nil
	}
	if length > MaxBodySize {
		return nil, fmt.Errorf("%w: %d bytes (max %d)", ErrBodyTooLarge, length, MaxBodySize)
	}

	body := make([]byte, length)
	if _, err := io.ReadFull(mr.reader, body); err != nil {
		return nil, readError("failed to read body", err)
	}
	return body, nil
}

// readError maps end-of-stream conditions to ErrPeerClosed
func readError(msg string, err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%w: %s: %v", ErrPeerClosed, msg, err)
	}
	return fmt.Errorf("%s: %w", msg, err)
}
