package camcast

import (
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"camcast/pkg/media"
	"camcast/pkg/rtsp"
	"camcast/pkg/stream"
)

// Server wires the frame source, the shared streamer and the RTSP control server
type Server struct {
	config   *Config
	streamer *stream.Streamer
	rtsp     *rtsp.Server
	channel  chan interface{}
	started  bool
	done     chan struct{}
	exited   chan struct{}
	stopOnce sync.Once
}

func NewServer(config *Config) (*Server, error) {
	source, err := media.NewSource(config.MediaSourceConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to create source: %w", err)
	}

	// Sessions and the streamer report to the RTSP server's event loop
	channel := make(chan interface{}, 100)

	streamer, err := stream.New(config.StreamConfig(), source, media.NewJPEGEncoder(config.Encoder.Quality), channel)
	if err != nil {
		return nil, fmt.Errorf("failed to create streamer: %w", err)
	}

	return &Server{
		config:   config,
		streamer: streamer,
		rtsp:     rtsp.NewServer(config.ServerConfig(), streamer, channel),
		channel:  channel,
		done:     make(chan struct{}),
		exited:   make(chan struct{}),
	}, nil
}

func (s *Server) Start() error {
	slog.Info("Start Server", "source", s.config.Source.Type, "rtspPort", s.config.RTSP.Port)
	if err := s.rtsp.Start(); err != nil {
		return err
	}

	s.started = true
	go s.statusLoop()
	return nil
}

// Addr returns the RTSP listening address
func (s *Server) Addr() net.Addr {
	return s.rtsp.Addr()
}

func (s *Server) Stop() {
	s.stopOnce.Do(s.stop)
}

func (s *Server) stop() {
	slog.Info("Stopping camcast server...")

	// 1. RTSP server, which also stops the streamer
	s.rtsp.Stop()

	// 2. status loop
	close(s.done)
	if s.started {
		<-s.exited
	}

	stats := s.streamer.Stats()
	slog.Info("camcast server stopped", "jobs", stats.Jobs, "frames", stats.Frames, "datagrams", stats.Datagrams)
}

// statusLoop logs a periodic summary until Stop
func (s *Server) statusLoop() {
	defer close(s.exited)

	if s.config.Logging.StatsInterval <= 0 {
		<-s.done
		return
	}

	ticker := time.NewTicker(s.config.Logging.StatsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.logStatus()
		case <-s.done:
			slog.Debug("Status loop stopping...")
			return
		}
	}
}

func (s *Server) logStatus() {
	stats := s.streamer.Stats()
	slog.Info("Status",
		"sessions", s.rtsp.SessionCount(),
		"stream", s.streamer.State(),
		"jobs", stats.Jobs,
		"frames", stats.Frames,
		"datagrams", stats.Datagrams)
}
