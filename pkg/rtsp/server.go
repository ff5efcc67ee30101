package rtsp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"camcast/pkg/rtp"
	"camcast/pkg/stream"
)

const (
	DefaultShutdownTimeout = 5 * time.Second
	acceptRetryDelay       = 100 * time.Millisecond
)

// ServerConfig represents RTSP server configuration
type ServerConfig struct {
	Port            int
	MediaPort       int
	ServerName      string
	SessionName     string
	PayloadType     uint8
	ShutdownTimeout time.Duration
}

// DefaultServerConfig returns the default server configuration
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Port:            DefaultRTSPPort,
		MediaPort:       DefaultMediaPort,
		ServerName:      DefaultServerName,
		SessionName:     "RTSP Stream",
		PayloadType:     rtp.PayloadTypeJPEG,
		ShutdownTimeout: DefaultShutdownTimeout,
	}
}

// Server accepts control connections and owns shutdown of all sessions and
// the shared media streamer. Every accepted connection gets its own session
// goroutine; no connection limit is enforced.
type Server struct {
	config     ServerConfig
	streamer   MediaStreamer
	registry   *SessionRegistry
	channel    chan interface{}
	listener   net.Listener
	ctx        context.Context
	cancel     context.CancelFunc
	acceptDone chan struct{}
	eventDone  chan struct{}
	stopOnce   sync.Once
}

// NewServer creates a new RTSP server. Events from sessions and the streamer
// arrive on channel; a buffered one is created when channel is nil.
func NewServer(config ServerConfig, streamer MediaStreamer, channel chan interface{}) *Server {
	ctx, cancel := context.WithCancel(context.Background())

	if channel == nil {
		channel = make(chan interface{}, 100)
	}
	if config.ShutdownTimeout <= 0 {
		config.ShutdownTimeout = DefaultShutdownTimeout
	}
	if config.ServerName == "" {
		config.ServerName = DefaultServerName
	}

	return &Server{
		config:     config,
		streamer:   streamer,
		registry:   NewSessionRegistry(),
		channel:    channel,
		ctx:        ctx,
		cancel:     cancel,
		acceptDone: make(chan struct{}),
		eventDone:  make(chan struct{}),
	}
}

// Start binds the listening port and starts accepting connections.
// Failing to bind is the only fatal server error.
func (s *Server) Start() error {
	ln, err := s.createListener()
	if err != nil {
		return err
	}
	s.listener = ln

	slog.Info("RTSP server listening", "addr", ln.Addr())

	// Start event loop
	go s.eventLoop()

	// Start accepting connections
	go s.acceptConnections(ln)

	return nil
}

// Addr returns the bound listening address, or nil before Start
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// SessionCount returns the number of live sessions
func (s *Server) SessionCount() int {
	return s.registry.Len()
}

// Stop stops accepting, stops every session and the streamer, and waits up to
// the shutdown timeout for each. Timeouts are logged, not returned.
func (s *Server) Stop() {
	s.stopOnce.Do(s.stop)
}

func (s *Server) stop() {
	slog.Info("RTSP Server stopping...")

	// Cancel context
	s.cancel()

	if s.listener == nil {
		slog.Info("RTSP Server was never started")
		return
	}

	// Close listener
	if err := s.listener.Close(); err != nil {
		slog.Error("Error closing RTSP listener", "err", err)
	} else {
		slog.Info("RTSP Listener closed")
	}
	s.waitFor(s.acceptDone, "accept loop")

	// Close all sessions
	sessions := s.registry.All()
	slog.Info("Closing all RTSP sessions", "sessionCount", len(sessions))
	for _, session := range sessions {
		session.Stop()
	}

	if err := s.streamer.Stop(); err != nil {
		slog.Warn("Media streamer did not stop in time", "err", err)
	}

	deadline := time.After(s.config.ShutdownTimeout)
	expired := false
	for _, session := range sessions {
		if !expired {
			select {
			case <-session.Done():
				continue
			case <-deadline:
				expired = true
			}
		}
		select {
		case <-session.Done():
		default:
			slog.Warn("RTSP session did not exit in time", "sessionId", session.sessionId)
		}
	}

	s.waitFor(s.eventDone, "event loop")
	s.drainEvents()

	// Sessions that finished after cancel may not have delivered SessionTerminated
	for _, session := range sessions {
		select {
		case <-session.Done():
			s.registry.Remove(session.sessionId)
		default:
		}
	}

	slog.Info("RTSP Server stopped successfully")
}

// waitFor waits for done up to the shutdown timeout
func (s *Server) waitFor(done <-chan struct{}, name string) {
	select {
	case <-done:
	case <-time.After(s.config.ShutdownTimeout):
		slog.Warn("RTSP server component did not exit in time", "component", name, "timeout", s.config.ShutdownTimeout)
	}
}

// eventLoop processes events
func (s *Server) eventLoop() {
	defer close(s.eventDone)

	for {
		select {
		case event := <-s.channel:
			s.handleEvent(event)
		case <-s.ctx.Done():
			slog.Info("RTSP Event loop stopping...")
			return
		}
	}
}

// drainEvents handles events still queued after the event loop exited
func (s *Server) drainEvents() {
	for {
		select {
		case event := <-s.channel:
			s.handleEvent(event)
		default:
			return
		}
	}
}

// handleEvent handles different types of events
func (s *Server) handleEvent(event interface{}) {
	switch e := event.(type) {
	case SessionTerminated:
		s.handleSessionTerminated(e)
	case PlayRequested:
		slog.Debug("PLAY handled", "sessionId", e.SessionId, "destination", e.Destination, "started", e.Started, "err", e.Err)
	case TeardownRequested:
		slog.Debug("TEARDOWN handled", "sessionId", e.SessionId, "err", e.Err)
	case stream.Terminated:
		s.handleStreamTerminated(e)
	default:
		slog.Warn("Unknown RTSP event type", "eventType", fmt.Sprintf("%T", e))
	}
}

// handleSessionTerminated handles session termination
func (s *Server) handleSessionTerminated(event SessionTerminated) {
	if !s.registry.Remove(event.SessionId) {
		slog.Warn("Session not found for termination", "sessionId", event.SessionId)
		return
	}

	if event.Err != nil {
		slog.Warn("RTSP session terminated with error", "sessionId", event.SessionId, "remoteAddr", event.RemoteAddr, "err", event.Err)
		return
	}
	slog.Info("RTSP session terminated", "sessionId", event.SessionId, "remoteAddr", event.RemoteAddr)
}

// handleStreamTerminated logs the end of a streaming job. The streamer is
// already idle, so a later PLAY can retry.
func (s *Server) handleStreamTerminated(event stream.Terminated) {
	if event.Err != nil {
		slog.Warn("Media stream ended with error", "reason", event.Reason, "err", event.Err, "frames", event.Frames, "datagrams", event.Datagrams)
		return
	}
	slog.Info("Media stream ended", "reason", event.Reason, "frames", event.Frames, "datagrams", event.Datagrams)
}

// createListener creates a TCP listener
func (s *Server) createListener() (net.Listener, error) {
	addr := fmt.Sprintf(":%d", s.config.Port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		slog.Error("Error starting RTSP server", "err", err)
		return nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	return ln, nil
}

// acceptConnections accepts incoming connections
func (s *Server) acceptConnections(ln net.Listener) {
	defer close(s.acceptDone)

	for {
		conn, err := ln.Accept()
		if err != nil {
			// Check if listener was closed
			if s.ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				slog.Info("RTSP accept loop stopped (listener closed)")
				return
			}

			slog.Error("RTSP accept failed", "err", err)
			select {
			case <-time.After(acceptRetryDelay):
				continue
			case <-s.ctx.Done():
				return
			}
		}

		// Create new session
		session := NewSession(s.ctx, conn, s.streamer, s.sessionConfig(ln), s.channel)
		s.registry.Add(session)

		// Start session handling
		session.Start()

		slog.Info("New RTSP session created", "sessionId", session.sessionId, "remoteAddr", conn.RemoteAddr())
	}
}

func (s *Server) sessionConfig(ln net.Listener) SessionConfig {
	port := s.config.Port
	if addr, ok := ln.Addr().(*net.TCPAddr); ok {
		port = addr.Port
	}

	return SessionConfig{
		RTSPPort:    port,
		MediaPort:   s.config.MediaPort,
		ServerName:  s.config.ServerName,
		SessionName: s.config.SessionName,
		PayloadType: s.config.PayloadType,
	}
}
