package media

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
)

// DefaultJPEGQuality is the encoder quality used when none is configured
const DefaultJPEGQuality = 80

// JPEGEncoder compresses frames as baseline JPEG
type JPEGEncoder struct {
	Quality int // 1-100
}

// NewJPEGEncoder creates an encoder, clamping quality into 1-100
func NewJPEGEncoder(quality int) *JPEGEncoder {
	if quality <= 0 {
		quality = DefaultJPEGQuality
	}
	if quality > 100 {
		quality = 100
	}
	return &JPEGEncoder{Quality: quality}
}

// Encode returns the JPEG bytes of frame
func (e *JPEGEncoder) Encode(frame image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, frame, &jpeg.Options{Quality: e.Quality}); err != nil {
		return nil, fmt.Errorf("failed to encode JPEG: %w", err)
	}
	return buf.Bytes(), nil
}

// Payloads yields encoded frames from an opened source
type Payloads struct {
	reader  FrameReader
	encoder Encoder
	frames  uint64
}

// NewPayloads pairs a reader with an encoder
func NewPayloads(reader FrameReader, encoder Encoder) *Payloads {
	return &Payloads{
		reader:  reader,
		encoder: encoder,
	}
}

// Next reads and encodes the next frame. It returns io.EOF when the source is exhausted.
func (p *Payloads) Next() ([]byte, error) {
	frame, err := p.reader.Next()
	if err != nil {
		return nil, err
	}

	payload, err := p.encoder.Encode(frame)
	if err != nil {
		return nil, fmt.Errorf("frame %d: %w", p.frames, err)
	}
	p.frames++
	return payload, nil
}

// Frames returns the number of frames encoded so far
func (p *Payloads) Frames() uint64 {
	return p.frames
}

// Close closes the underlying reader
func (p *Payloads) Close() error {
	return p.reader.Close()
}
