package rtsp

import "errors"

var (
	// ErrMalformedRequest is returned for a request with no recognizable command.
	// The connection stays usable.
	ErrMalformedRequest = errors.New("rtsp: malformed request")

	// ErrPeerClosed is returned when the peer closed the connection.
	ErrPeerClosed = errors.New("rtsp: peer closed connection")

	// ErrBodyTooLarge is returned for a Content-Length above MaxBodySize.
	ErrBodyTooLarge = errors.New("rtsp: body too large")
)
