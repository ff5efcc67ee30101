package rtsp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"strings"
	"sync"

	"camcast/pkg/rtp"

	"github.com/google/uuid"
)

// MediaStreamer is the shared media job driven by PLAY and TEARDOWN
type MediaStreamer interface {
	Start(dest *net.UDPAddr) (bool, error)
	Stop() error
	IsRunning() bool
}

// SessionConfig carries the per-session settings derived from the server config
type SessionConfig struct {
	RTSPPort    int
	MediaPort   int
	ServerName  string
	SessionName string
	PayloadType uint8
}

// Session is the control state machine for one connection
type Session struct {
	sessionId       string
	conn            net.Conn
	reader          *MessageReader
	writer          *MessageWriter
	state           SessionState
	config          SessionConfig
	streamer        MediaStreamer
	clientPorts     []int // RTP and RTCP ports
	destination     *net.UDPAddr
	externalChannel chan<- interface{}
	parent          context.Context
	ctx             context.Context
	cancel          context.CancelFunc
	done            chan struct{}
	stopOnce        sync.Once
}

// SessionState represents the current state of an RTSP session
type SessionState int

const (
	StateInit SessionState = iota
	StateReady
)

// String returns the string representation of the session state
func (s SessionState) String() string {
	switch s {
	case StateInit:
		return "Init"
	case StateReady:
		return "Ready"
	default:
		return "Unknown"
	}
}

// NewSession creates a new RTSP session. parent bounds how long the session
// waits to deliver SessionTerminated once it finishes.
func NewSession(parent context.Context, conn net.Conn, streamer MediaStreamer, config SessionConfig, externalChannel chan<- interface{}) *Session {
	ctx, cancel := context.WithCancel(parent)

	return &Session{
		sessionId:       newSessionToken(),
		conn:            conn,
		reader:          NewMessageReader(conn),
		writer:          NewMessageWriter(conn),
		state:           StateInit,
		config:          config,
		streamer:        streamer,
		externalChannel: externalChannel,
		parent:          parent,
		ctx:             ctx,
		cancel:          cancel,
		done:            make(chan struct{}),
	}
}

// newSessionToken returns 16 hex characters
func newSessionToken() string {
	id := uuid.New()
	return strings.ToUpper(fmt.Sprintf("%x", id[:8]))
}

// Id returns the session token
func (s *Session) Id() string {
	return s.sessionId
}

// Done is closed once the session has finished handling its connection
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Start starts the session handling
func (s *Session) Start() {
	slog.Info("RTSP session started", "sessionId", s.sessionId, "remoteAddr", s.conn.RemoteAddr())

	go s.handleRequests()
}

// Stop closes the connection, unblocking any pending read. It does not wait.
func (s *Session) Stop() {
	s.stopOnce.Do(func() {
		slog.Info("RTSP session stopping", "sessionId", s.sessionId)

		// Cancel context
		s.cancel()

		// Close connection
		if err := s.conn.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			slog.Debug("Error closing RTSP connection", "sessionId", s.sessionId, "err", err)
		}
	})
}

// handleRequests reads requests until TEARDOWN, peer close, a socket error or Stop
func (s *Session) handleRequests() {
	var sessionErr error
	defer func() {
		s.Stop()
		s.emitTerminated(SessionTerminated{
			SessionId:  s.sessionId,
			RemoteAddr: s.conn.RemoteAddr().String(),
			Err:        sessionErr,
		})
		close(s.done)
	}()

	for {
		request, err := s.reader.ReadRequest()
		if err != nil {
			switch {
			case errors.Is(err, ErrMalformedRequest):
				slog.Warn("Malformed RTSP request", "sessionId", s.sessionId, "err", err)
				cseq := DefaultCSeq
				if request != nil && request.CSeq != "" {
					cseq = request.CSeq
				}
				if err := s.sendErrorResponse(cseq, StatusBadRequest); err != nil {
					sessionErr = fmt.Errorf("failed to write response: %w", err)
					slog.Error("Failed to send RTSP response", "sessionId", s.sessionId, "err", err)
					return
				}
				continue
			case errors.Is(err, ErrPeerClosed):
				slog.Info("RTSP peer disconnected", "sessionId", s.sessionId, "remoteAddr", s.conn.RemoteAddr())
				return
			case s.ctx.Err() != nil:
				return
			default:
				sessionErr = err
				slog.Error("Failed to read RTSP request", "sessionId", s.sessionId, "err", err)
				return
			}
		}

		slog.Debug("RTSP request received", "sessionId", s.sessionId, "method", request.Method, "uri", request.URI, "cseq", request.CSeq)

		closeAfter, err := s.handleRequest(request)
		if err != nil {
			if s.ctx.Err() == nil {
				sessionErr = err
				slog.Error("Failed to handle RTSP request", "sessionId", s.sessionId, "method", request.Method, "err", err)
			}
			return
		}
		if closeAfter {
			return
		}
	}
}

// handleRequest dispatches a parsed request. It reports whether the connection should close.
func (s *Session) handleRequest(req *Request) (bool, error) {
	switch req.Command {
	case CommandOptions:
		return false, s.handleOptions(req)
	case CommandDescribe:
		return false, s.handleDescribe(req)
	case CommandSetup:
		return false, s.handleSetup(req)
	case CommandPlay:
		return false, s.handlePlay(req)
	case CommandTeardown:
		return true, s.handleTeardown(req)
	default:
		return false, s.sendErrorResponse(cseqOf(req), StatusBadRequest)
	}
}

// handleOptions handles OPTIONS request
func (s *Session) handleOptions(req *Request) error {
	response := s.newResponse(req, StatusOK)
	response.SetHeader(HeaderPublic, PublicMethods)

	return s.writer.WriteResponse(response)
}

// handleDescribe handles DESCRIBE request
func (s *Session) handleDescribe(req *Request) error {
	sdp, err := BuildSDP(SDPConfig{
		Host:        hostIP(s.conn.LocalAddr()).String(),
		Port:        s.config.RTSPPort,
		SessionName: s.config.SessionName,
		PayloadType: s.config.PayloadType,
		Encoding:    "JPEG",
		ClockRate:   rtp.ClockRate,
	})
	if err != nil {
		slog.Error("Failed to build SDP", "sessionId", s.sessionId, "err", err)
		return s.sendErrorResponse(cseqOf(req), StatusInternalServerError)
	}

	response := s.newResponse(req, StatusOK)
	response.SetHeader(HeaderContentType, "application/sdp")
	if req.URI != "" {
		response.SetHeader(HeaderContentBase, strings.TrimSuffix(req.URI, "/")+"/")
	}
	response.Body = sdp

	return s.writer.WriteResponse(response)
}

// handleSetup handles SETUP request
func (s *Session) handleSetup(req *Request) error {
	s.clientPorts = parseClientPorts(req.GetHeader(HeaderTransport))
	s.destination = s.mediaDestination()
	s.state = StateReady

	slog.Info("RTSP session set up", "sessionId", s.sessionId, "destination", s.destination)

	response := s.newResponse(req, StatusOK)
	response.SetHeader(HeaderTransport, s.buildTransportResponse())
	response.SetHeader(HeaderSession, fmt.Sprintf("%s;timeout=%d", s.sessionId, DefaultTimeout))

	return s.writer.WriteResponse(response)
}

// handlePlay handles PLAY request. A source failure is logged but PLAY is still
// acknowledged: the response reports acceptance, not stream health.
func (s *Session) handlePlay(req *Request) error {
	dest := s.destination
	if dest == nil {
		dest = s.mediaDestination()
	}

	started, err := s.streamer.Start(dest)
	switch {
	case err != nil:
		slog.Warn("PLAY could not start stream", "sessionId", s.sessionId, "destination", dest, "err", err)
	case started:
		slog.Info("PLAY started stream", "sessionId", s.sessionId, "destination", dest)
	default:
		slog.Info("PLAY received, stream already active", "sessionId", s.sessionId)
	}
	s.emit(PlayRequested{SessionId: s.sessionId, Destination: dest.String(), Started: started, Err: err})

	response := s.newResponse(req, StatusOK)
	response.SetHeader(HeaderSession, s.sessionId)
	if started && req.URI != "" {
		response.SetHeader(HeaderRTPInfo, fmt.Sprintf("url=%s;seq=0;rtptime=0", req.URI))
	}

	return s.writer.WriteResponse(response)
}

// handleTeardown handles TEARDOWN request. The connection closes after the response.
func (s *Session) handleTeardown(req *Request) error {
	err := s.streamer.Stop()
	if err != nil {
		slog.Warn("TEARDOWN: stream still finishing", "sessionId", s.sessionId, "err", err)
	}
	s.emit(TeardownRequested{SessionId: s.sessionId, Err: err})

	response := s.newResponse(req, StatusOK)
	response.SetHeader(HeaderSession, s.sessionId)

	s.state = StateInit

	return s.writer.WriteResponse(response)
}

// sendErrorResponse sends an error response
func (s *Session) sendErrorResponse(cseq string, statusCode int) error {
	response := NewResponse(statusCode)
	response.SetCSeq(cseq)
	response.SetHeader(HeaderServer, s.config.ServerName)

	return s.writer.WriteResponse(response)
}

// newResponse creates a response echoing the request CSeq
func (s *Session) newResponse(req *Request, statusCode int) *Response {
	response := NewResponse(statusCode)
	response.SetCSeq(cseqOf(req))
	response.SetHeader(HeaderServer, s.config.ServerName)
	return response
}

// mediaDestination is the peer's address at the client RTP port, or the
// configured media port when the client did not name one.
func (s *Session) mediaDestination() *net.UDPAddr {
	port := s.config.MediaPort
	if len(s.clientPorts) > 0 {
		port = s.clientPorts[0]
	}
	return &net.UDPAddr{IP: hostIP(s.conn.RemoteAddr()), Port: port}
}

// buildTransportResponse builds the Transport response header
func (s *Session) buildTransportResponse() string {
	rtpPort := s.destination.Port
	rtcpPort := rtpPort + 1
	if len(s.clientPorts) >= 2 {
		rtcpPort = s.clientPorts[1]
	}
	return fmt.Sprintf("%s;%s;client_port=%d-%d", TransportRTPUDP, TransportUnicast, rtpPort, rtcpPort)
}

// emit delivers an informational event without blocking the request loop
func (s *Session) emit(event interface{}) {
	if s.externalChannel == nil {
		return
	}
	select {
	case s.externalChannel <- event:
	default:
		slog.Warn("Dropping RTSP event, channel full", "sessionId", s.sessionId, "eventType", fmt.Sprintf("%T", event))
	}
}

// emitTerminated waits for room on the channel so the registry always hears
// about the session ending. It gives up only once the parent is done.
func (s *Session) emitTerminated(event SessionTerminated) {
	if s.externalChannel == nil {
		return
	}
	select {
	case s.externalChannel <- event:
	case <-s.parent.Done():
		slog.Debug("Server stopped, SessionTerminated not delivered", "sessionId", s.sessionId)
	}
}

// cseqOf returns the request CSeq verbatim, or DefaultCSeq when absent
func cseqOf(req *Request) string {
	if req == nil || req.CSeq == "" {
		return DefaultCSeq
	}
	return req.CSeq
}

// parseClientPorts parses client_port=a[-b] from a Transport header
func parseClientPorts(transport string) []int {
	var ports []int
	for _, part := range strings.Split(transport, ";") {
		part = strings.TrimSpace(part)
		if !strings.HasPrefix(part, "client_port=") {
			continue
		}
		for _, portStr := range strings.Split(strings.TrimPrefix(part, "client_port="), "-") {
			port, err := strconv.Atoi(strings.TrimSpace(portStr))
			if err != nil || port <= 0 || port > 65535 {
				return nil
			}
			ports = append(ports, port)
		}
		break
	}
	return ports
}

// hostIP extracts the IP of an address, falling back to loopback
func hostIP(addr net.Addr) net.IP {
	switch a := addr.(type) {
	case *net.TCPAddr:
		if ip4 := a.IP.To4(); ip4 != nil {
			return ip4
		}
		if a.IP != nil {
			return a.IP
		}
	case nil:
	default:
		if host, _, err := net.SplitHostPort(a.String()); err == nil {
			if ip := net.ParseIP(host); ip != nil {
				return ip
			}
		}
	}
	return net.IPv4(127, 0, 0, 1)
}
