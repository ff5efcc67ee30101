// Package media provides the frame sources and encoders the streamer pulls from.
//
// A Source is opened once per streaming job. The returned FrameReader yields
// raw frames until it reports io.EOF; an Encoder turns each frame into the
// byte payload that goes on the wire. Payloads ties the two together.
package media

import (
	"errors"
	"fmt"
	"image"
	"time"
)

// Source identifiers accepted by NewSource
const (
	SourcePattern = "pattern"
	SourceDir     = "dir"
)

// ErrSourceUnavailable is returned when a frame source cannot be opened.
var ErrSourceUnavailable = errors.New("media: source unavailable")

// ErrUnknownSource is returned for an unrecognized source identifier.
var ErrUnknownSource = errors.New("media: unknown source type")

// Source produces raw frames. Each Open starts an independent read.
type Source interface {
	Open() (FrameReader, error)
	Name() string
}

// FrameReader reads raw frames from an opened source.
type FrameReader interface {
	// Next blocks until the next frame is available.
	// It returns io.EOF once the source is exhausted.
	Next() (image.Image, error)
	Close() error
}

// Encoder compresses a raw frame into a byte payload.
type Encoder interface {
	Encode(frame image.Image) ([]byte, error)
}

// SourceConfig selects and configures a frame source
type SourceConfig struct {
	Type   string
	Path   string
	FPS    int
	Width  int
	Height int
	Limit  int
	Loop   bool
}

// NewSource creates the source named by cfg.Type
func NewSource(cfg SourceConfig) (Source, error) {
	switch cfg.Type {
	case SourcePattern, "":
		return NewPatternSource(PatternConfig{
			Width:  cfg.Width,
			Height: cfg.Height,
			FPS:    cfg.FPS,
			Limit:  cfg.Limit,
		}), nil
	case SourceDir:
		return NewDirSource(DirConfig{
			Path: cfg.Path,
			FPS:  cfg.FPS,
			Loop: cfg.Loop,
		}), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownSource, cfg.Type)
	}
}

// frameInterval converts a frame rate to a pacing interval. Zero disables pacing.
func frameInterval(fps int) time.Duration {
	if fps <= 0 {
		return 0
	}
	return time.Second / time.Duration(fps)
}
