package rtsp

import (
	"bufio"
	"io"
	"strconv"
)

// MessageWriter handles RTSP message writing
type MessageWriter struct {
	writer *bufio.Writer
}

// NewMessageWriter creates a new RTSP message writer
func NewMessageWriter(w io.Writer) *MessageWriter {
	return &MessageWriter{
		writer: bufio.NewWriter(w),
	}
}

// WriteRequest writes an RTSP request
func (mw *MessageWriter) WriteRequest(req *Request) error {
	if len(req.Body) > 0 {
		req.SetHeader(HeaderContentLength, strconv.Itoa(len(req.Body)))
	}
	return mw.write(req.Bytes())
}

// WriteResponse writes an RTSP response. Content-Length always matches the body.
func (mw *MessageWriter) WriteResponse(resp *Response) error {
	if len(resp.Body) > 0 {
		resp.SetHeader(HeaderContentLength, strconv.Itoa(len(resp.Body)))
	}
	return mw.write(resp.Bytes())
}

func (mw *MessageWriter) write(data []byte) error {
	if _, err := mw.writer.Write(data); err != nil {
		return err
	}
	return mw.writer.Flush()
}
