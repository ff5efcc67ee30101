package rtsp

// RTSP Methods
const (
	MethodOptions  = "OPTIONS"
	MethodDescribe = "DESCRIBE"
	MethodSetup    = "SETUP"
	MethodPlay     = "PLAY"
	MethodTeardown = "TEARDOWN"
)

// RTSP Status Codes
const (
	StatusOK                  = 200
	StatusBadRequest          = 400
	StatusSessionNotFound     = 454
	StatusInternalServerError = 500
	StatusNotImplemented      = 501
)

// RTSP Headers
const (
	HeaderContentBase   = "Content-Base"
	HeaderContentLength = "Content-Length"
	HeaderContentType   = "Content-Type"
	HeaderCSeq          = "CSeq"
	HeaderPublic        = "Public"
	HeaderRTPInfo       = "RTP-Info"
	HeaderSession       = "Session"
	HeaderServer        = "Server"
	HeaderTransport     = "Transport"
)

// Transport Protocols
const (
	TransportRTPUDP  = "RTP/AVP"
	TransportUnicast = "unicast"
)

// RTSP Version
const RTSPVersion = "RTSP/1.0"

// Default Values
const (
	DefaultRTSPPort   = 554
	DefaultMediaPort  = 5004
	DefaultTimeout    = 60 // seconds, advertised in the Session header
	DefaultCSeq       = "1"
	DefaultServerName = "camcast"
	MaxBodySize       = 64 * 1024
)

// PublicMethods is advertised in OPTIONS responses
const PublicMethods = "DESCRIBE, SETUP, TEARDOWN, PLAY, PAUSE, OPTIONS"
