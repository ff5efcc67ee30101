package stream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"camcast/pkg/media"
	"camcast/pkg/rtp"
)

// Default streamer settings
const (
	DefaultPace        = time.Millisecond
	DefaultStopTimeout = 5 * time.Second
)

// ErrStopTimeout is returned by Stop when the run loop did not exit in time.
// The job keeps finishing in the background; this is a warning, not a failure.
var ErrStopTimeout = errors.New("stream: stop timed out, job still finishing")

// State represents the streamer lifecycle
type State int32

const (
	StateIdle State = iota
	StateRunning
	StateStopping
)

// String returns the string representation of the state
func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateRunning:
		return "Running"
	case StateStopping:
		return "Stopping"
	default:
		return "Unknown"
	}
}

// Config configures the streamer
type Config struct {
	MaxDatagramSize int
	PayloadType     uint8
	Pace            time.Duration // Delay after each datagram
	StopTimeout     time.Duration
	SSRC            uint32 // 0 picks a random SSRC per job
}

// DefaultConfig returns the default streamer configuration
func DefaultConfig() Config {
	return Config{
		MaxDatagramSize: rtp.DefaultMaxDatagramSize,
		PayloadType:     rtp.PayloadTypeJPEG,
		Pace:            DefaultPace,
		StopTimeout:     DefaultStopTimeout,
	}
}

// Stats is a snapshot of totals across all jobs
type Stats struct {
	Jobs      uint64
	Frames    uint64
	Datagrams uint64
}

// job is one streaming lifecycle. seq and the counters are owned by the run goroutine.
type job struct {
	payloads  *media.Payloads
	transport *rtp.Transport
	ssrc      uint32
	seq       uint16
	start     time.Time
	frames    uint64
	datagrams uint64
	stop      chan struct{}
	done      chan struct{}
}

func (j *job) stopped() bool {
	select {
	case <-j.stop:
		return true
	default:
		return false
	}
}

// Streamer owns the single shared streaming job. At most one job runs at a time;
// all transitions go through mu. state is stored atomically so readers never
// wait behind a Start that is opening the source.
type Streamer struct {
	config  Config
	framer  *rtp.Framer
	source  media.Source
	encoder media.Encoder
	events  chan<- interface{}

	mu    sync.Mutex
	state atomic.Int32 // State; written under mu
	job   *job

	jobs      atomic.Uint64
	frames    atomic.Uint64
	datagrams atomic.Uint64
}

// New creates a streamer. Terminated events are delivered on events when it is not nil.
func New(config Config, source media.Source, encoder media.Encoder, events chan<- interface{}) (*Streamer, error) {
	framer, err := rtp.NewFramer(config.PayloadType, config.MaxDatagramSize)
	if err != nil {
		return nil, err
	}
	if source == nil || encoder == nil {
		return nil, errors.New("stream: source and encoder are required")
	}
	if config.StopTimeout <= 0 {
		config.StopTimeout = DefaultStopTimeout
	}

	return &Streamer{
		config:  config,
		framer:  framer,
		source:  source,
		encoder: encoder,
		events:  events,
	}, nil
}

// Start begins streaming to dest. It returns false without error when a job
// is already running or still stopping. A source that fails to open leaves
// the streamer idle and is reported as media.ErrSourceUnavailable.
func (s *Streamer) Start(dest *net.UDPAddr) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if state := s.State(); state != StateIdle {
		slog.Debug("RTP stream already active", "state", state)
		return false, nil
	}

	reader, err := s.source.Open()
	if err != nil {
		if !errors.Is(err, media.ErrSourceUnavailable) {
			err = fmt.Errorf("%w: %v", media.ErrSourceUnavailable, err)
		}
		return false, fmt.Errorf("failed to open source %s: %w", s.source.Name(), err)
	}

	transport, err := rtp.NewTransport(dest)
	if err != nil {
		reader.Close()
		return false, err
	}

	ssrc := s.config.SSRC
	if ssrc == 0 {
		ssrc = rand.Uint32()
	}

	j := &job{
		payloads:  media.NewPayloads(reader, s.encoder),
		transport: transport,
		ssrc:      ssrc,
		start:     time.Now(),
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}
	s.job = j
	s.setState(StateRunning)
	s.jobs.Add(1)

	slog.Info("RTP stream started", "source", s.source.Name(), "destination", dest, "ssrc", ssrc,
		"payloadType", s.framer.PayloadType(), "maxPayload", s.framer.MaxPayloadSize())
	go s.run(j)

	return true, nil
}

// Stop signals the running job to exit and waits up to the stop timeout.
// Calling Stop while idle is a no-op.
func (s *Streamer) Stop() error {
	s.mu.Lock()
	j := s.job
	switch s.State() {
	case StateIdle:
		s.mu.Unlock()
		return nil
	case StateRunning:
		s.setState(StateStopping)
		close(j.stop)
	}
	s.mu.Unlock()

	timer := time.NewTimer(s.config.StopTimeout)
	defer timer.Stop()

	select {
	case <-j.done:
		return nil
	case <-timer.C:
		slog.Warn("RTP stream did not stop in time, still finishing", "timeout", s.config.StopTimeout, "ssrc", j.ssrc)
		return ErrStopTimeout
	}
}

// IsRunning reports whether a job is actively streaming
func (s *Streamer) IsRunning() bool {
	return s.State() == StateRunning
}

// State returns the current lifecycle state without blocking
func (s *Streamer) State() State {
	return State(s.state.Load())
}

// setState must be called with mu held
func (s *Streamer) setState(state State) {
	s.state.Store(int32(state))
}

// Stats returns totals across all jobs
func (s *Streamer) Stats() Stats {
	return Stats{
		Jobs:      s.jobs.Load(),
		Frames:    s.frames.Load(),
		Datagrams: s.datagrams.Load(),
	}
}

// run streams until stopped or a terminal condition occurs
func (s *Streamer) run(j *job) {
	reason, err := s.loop(j)

	closeWithLog(j.payloads)
	closeWithLog(j.transport)

	s.mu.Lock()
	if s.job == j {
		s.job = nil
		s.setState(StateIdle)
	}
	s.mu.Unlock()

	event := Terminated{
		Reason:    reason,
		Err:       err,
		SSRC:      j.ssrc,
		Frames:    j.frames,
		Datagrams: j.datagrams,
		NextSeq:   j.seq,
	}
	if err != nil {
		slog.Error("RTP stream terminated", "reason", reason, "err", err, "frames", j.frames, "datagrams", j.datagrams)
	} else {
		slog.Info("RTP stream terminated", "reason", reason, "frames", j.frames, "datagrams", j.datagrams)
	}
	s.emit(event)

	close(j.done)
}

func (s *Streamer) loop(j *job) (Reason, error) {
	var pace *time.Timer
	if s.config.Pace > 0 {
		pace = time.NewTimer(s.config.Pace)
		pace.Stop()
		defer pace.Stop()
	}

	for {
		if j.stopped() {
			return ReasonStopped, nil
		}

		payload, err := j.payloads.Next()
		if err == io.EOF {
			return ReasonSourceExhausted, nil
		}
		if err != nil {
			return ReasonSourceError, err
		}

		timestamp := Timestamp(time.Since(j.start))
		packets := s.framer.Frame(payload, j.seq, timestamp, j.ssrc)
		datagrams, err := rtp.Marshal(packets)
		if err != nil {
			return ReasonSendError, fmt.Errorf("%w: %v", rtp.ErrTransport, err)
		}
		if len(packets) > 0 && slog.Default().Enabled(context.Background(), slog.LevelDebug) {
			slog.Debug("RTP frame", "first", rtp.Describe(packets[0]), "datagrams", len(packets))
		}

		for _, data := range datagrams {
			if j.stopped() {
				return ReasonStopped, nil
			}

			if err := j.transport.Send(data); err != nil {
				return ReasonSendError, err
			}

			j.seq++
			j.datagrams++
			s.datagrams.Add(1)

			if pace != nil {
				pace.Reset(s.config.Pace)
				select {
				case <-pace.C:
				case <-j.stop:
					return ReasonStopped, nil
				}
			}
		}

		j.frames++
		s.frames.Add(1)
	}
}

func (s *Streamer) emit(event interface{}) {
	if s.events == nil {
		return
	}
	select {
	case s.events <- event:
	default:
		slog.Warn("Dropping stream event, channel full", "eventType", fmt.Sprintf("%T", event))
	}
}

// Timestamp converts elapsed time into 90 kHz media clock units
func Timestamp(elapsed time.Duration) uint32 {
	return uint32(elapsed.Microseconds() * rtp.ClockRate / 1_000_000)
}

func closeWithLog(c io.Closer) {
	if err := c.Close(); err != nil {
		slog.Error("Error closing resource", "err", err)
	}
}
