package rtsp

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestParseCommand(t *testing.T) {
	cases := []struct {
		line  string
		cmd   Command
		index int
	}{
		{"OPTIONS rtsp://127.0.0.1/stream RTSP/1.0", CommandOptions, 0},
		{"DESCRIBE rtsp://127.0.0.1/stream RTSP/1.0", CommandDescribe, 0},
		{"SETUP rtsp://127.0.0.1/stream/streamid=0 RTSP/1.0", CommandSetup, 0},
		{"PLAY rtsp://127.0.0.1/stream RTSP/1.0", CommandPlay, 0},
		{"TEARDOWN rtsp://127.0.0.1/stream RTSP/1.0", CommandTeardown, 0},
		{"PLAY", CommandPlay, 0},
		{"  TEARDOWN  ", CommandTeardown, 0},
		{"x PLAY rtsp://host/ RTSP/1.0", CommandPlay, 1},
		{"GET_PARAMETER rtsp://127.0.0.1/stream RTSP/1.0", CommandUnknown, -1},
		{"play rtsp://127.0.0.1/stream RTSP/1.0", CommandUnknown, -1},
		{"GET rtsp://host/PLAY RTSP/1.0", CommandUnknown, -1},
		{"", CommandUnknown, -1},
	}

	for _, c := range cases {
		cmd, index := ParseCommand(c.line)
		if cmd != c.cmd || index != c.index {
			t.Errorf("ParseCommand(%q) = %s,%d want %s,%d", c.line, cmd, index, c.cmd, c.index)
		}
	}
}

func TestReadRequest(t *testing.T) {
	data := "\r\nSETUP rtsp://127.0.0.1:554/stream RTSP/1.0\r\n" +
		"CSeq: 3\r\n" +
		"Transport: RTP/AVP;unicast;client_port=6000-6001\r\n" +
		"\r\n"

	request, err := NewMessageReader(strings.NewReader(data)).ReadRequest()
	if err != nil {
		t.Fatalf("expected no error but got: %v", err)
	}

	if request.Command != CommandSetup || request.Method != MethodSetup {
		t.Errorf("Expected SETUP, got %s (%s)", request.Command, request.Method)
	}
	if request.URI != "rtsp://127.0.0.1:554/stream" {
		t.Errorf("Unexpected URI %q", request.URI)
	}
	if request.Version != RTSPVersion {
		t.Errorf("Unexpected version %q", request.Version)
	}
	if request.CSeq != "3" {
		t.Errorf("Expected CSeq 3, got %q", request.CSeq)
	}
	if got := request.GetHeader("transport"); got != "RTP/AVP;unicast;client_port=6000-6001" {
		t.Errorf("Unexpected Transport header %q", got)
	}
}

func TestReadRequestBody(t *testing.T) {
	data := "DESCRIBE rtsp://host/stream RTSP/1.0\r\nCSeq: 9\r\nContent-Length: 5\r\n\r\nhelloOPTIONS * RTSP/1.0\r\nCSeq: 10\r\n\r\n"
	reader := NewMessageReader(strings.NewReader(data))

	first, err := reader.ReadRequest()
	if err != nil {
		t.Fatalf("expected no error but got: %v", err)
	}
	if string(first.Body) != "hello" {
		t.Errorf("Expected body hello, got %q", first.Body)
	}

	second, err := reader.ReadRequest()
	if err != nil {
		t.Fatalf("expected no error but got: %v", err)
	}
	if second.Command != CommandOptions || second.CSeq != "10" {
		t.Errorf("Unexpected second request %s cseq=%s", second.Command, second.CSeq)
	}
}

func TestReadRequestMalformedKeepsCSeq(t *testing.T) {
	data := "GET_PARAMETER rtsp://host/stream RTSP/1.0\r\nCSeq: 77\r\nX-Note: PLAY now\r\n\r\n"

	request, err := NewMessageReader(strings.NewReader(data)).ReadRequest()
	if !errors.Is(err, ErrMalformedRequest) {
		t.Fatalf("Expected ErrMalformedRequest, got %v", err)
	}
	if request == nil || request.CSeq != "77" {
		t.Fatalf("Expected request with CSeq 77, got %+v", request)
	}
	if request.Command != CommandUnknown {
		t.Errorf("Expected unknown command, got %s", request.Command)
	}
}

func TestReadRequestInvalidContentLength(t *testing.T) {
	data := "PLAY rtsp://host/stream RTSP/1.0\r\nCSeq: 4\r\nContent-Length: abc\r\n\r\n"

	request, err := NewMessageReader(strings.NewReader(data)).ReadRequest()
	if !errors.Is(err, ErrMalformedRequest) {
		t.Fatalf("Expected ErrMalformedRequest, got %v", err)
	}
	if request.CSeq != "4" {
		t.Errorf("Expected CSeq 4, got %q", request.CSeq)
	}
}

func TestReadRequestBodyTooLarge(t *testing.T) {
	data := "PLAY rtsp://host/stream RTSP/1.0\r\nContent-Length: 999999\r\n\r\n"

	_, err := NewMessageReader(strings.NewReader(data)).ReadRequest()
	if !errors.Is(err, ErrBodyTooLarge) {
		t.Errorf("Expected ErrBodyTooLarge, got %v", err)
	}
}

func TestReadRequestPeerClosed(t *testing.T) {
	cases := []string{
		"",
		"\r\n\r\n",
		"OPTIONS * RTSP/1.0\r\nCSeq: 1\r\n",
		"DESCRIBE * RTSP/1.0\r\nContent-Length: 10\r\n\r\nabc",
	}

	for _, data := range cases {
		_, err := NewMessageReader(strings.NewReader(data)).ReadRequest()
		if !errors.Is(err, ErrPeerClosed) {
			t.Errorf("data %q: expected ErrPeerClosed, got %v", data, err)
		}
	}
}

func TestWriteReadResponse(t *testing.T) {
	response := NewResponse(StatusOK)
	response.SetCSeq("abc-1")
	response.SetHeader(HeaderSession, "0123456789ABCDEF")
	response.Body = []byte("v=0\r\n")

	var buf bytes.Buffer
	if err := NewMessageWriter(&buf).WriteResponse(response); err != nil {
		t.Fatalf("Failed to write response: %v", err)
	}
	if !strings.HasPrefix(buf.String(), "RTSP/1.0 200 OK\r\nCSeq: abc-1\r\n") {
		t.Errorf("Unexpected response start: %q", buf.String())
	}

	parsed, err := NewMessageReader(&buf).ReadResponse()
	if err != nil {
		t.Fatalf("Failed to read response: %v", err)
	}
	if parsed.StatusCode != StatusOK || parsed.StatusText != "OK" {
		t.Errorf("Unexpected status %d %s", parsed.StatusCode, parsed.StatusText)
	}
	if parsed.CSeq != "abc-1" {
		t.Errorf("Expected CSeq abc-1, got %q", parsed.CSeq)
	}
	if parsed.GetHeader(HeaderContentLength) != "5" || string(parsed.Body) != "v=0\r\n" {
		t.Errorf("Unexpected body %q (Content-Length %s)", parsed.Body, parsed.GetHeader(HeaderContentLength))
	}
}
