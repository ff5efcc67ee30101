package rtp

import (
	"errors"
	"fmt"

	"github.com/pion/rtp"
)

// Constants for RTP
const (
	HeaderSize             = 12   // Fixed RTP header size (no CSRC, no extension)
	DefaultMaxDatagramSize = 1400 // Leaves room for IP/UDP headers under a 1500 MTU
	Version                = 2
)

// PayloadTypeJPEG is the static JPEG payload type (RFC 3551)
const PayloadTypeJPEG = 26

// ClockRate is the video timestamp rate advertised in the session description.
const ClockRate = 90000

// ErrConfiguration marks invalid framing parameters.
var ErrConfiguration = errors.New("rtp: invalid configuration")

// ConfigError describes a framing parameter that can never produce a valid datagram.
type ConfigError struct {
	MaxDatagramSize int
	HeaderSize      int
}

func (e *ConfigError) Error() string {
	if e.HeaderSize < HeaderSize {
		return fmt.Sprintf("rtp: header size %d is below the fixed %d byte RTP header", e.HeaderSize, HeaderSize)
	}
	return fmt.Sprintf("rtp: max datagram size %d leaves no room for payload after %d byte header",
		e.MaxDatagramSize, e.HeaderSize)
}

func (e *ConfigError) Is(target error) bool {
	return target == ErrConfiguration
}

// Fragment splits payload into datagrams of at most maxDatagramSize bytes.
//
// Every datagram carries the same timestamp and ssrc. Sequence numbers start
// at startSeq and wrap modulo 2^16. An empty payload yields no datagrams.
func Fragment(payload []byte, startSeq uint16, timestamp, ssrc uint32, payloadType uint8, maxDatagramSize, headerSize int) ([]*rtp.Packet, error) {
	chunkSize := maxDatagramSize - headerSize
	if headerSize < HeaderSize || chunkSize <= 0 {
		return nil, &ConfigError{MaxDatagramSize: maxDatagramSize, HeaderSize: headerSize}
	}
	if len(payload) == 0 {
		return nil, nil
	}

	count := (len(payload) + chunkSize - 1) / chunkSize
	packets := make([]*rtp.Packet, 0, count)
	seq := startSeq
	for offset := 0; offset < len(payload); offset += chunkSize {
		end := offset + chunkSize
		if end > len(payload) {
			end = len(payload)
		}

		packets = append(packets, &rtp.Packet{
			Header: rtp.Header{
				Version:        Version,
				PayloadType:    payloadType,
				SequenceNumber: seq,
				Timestamp:      timestamp,
				SSRC:           ssrc,
			},
			Payload: payload[offset:end],
		})
		seq++
	}

	return packets, nil
}

// Framer turns encoded frames into bounded-size RTP datagrams.
// It holds no per-stream state; the caller owns the sequence counter.
type Framer struct {
	payloadType     uint8
	maxDatagramSize int
}

// NewFramer creates a framer, rejecting sizes that cannot carry any payload
func NewFramer(payloadType uint8, maxDatagramSize int) (*Framer, error) {
	if maxDatagramSize <= HeaderSize {
		return nil, &ConfigError{MaxDatagramSize: maxDatagramSize, HeaderSize: HeaderSize}
	}
	if payloadType > 127 {
		return nil, fmt.Errorf("%w: payload type %d exceeds 7 bits", ErrConfiguration, payloadType)
	}

	return &Framer{
		payloadType:     payloadType,
		maxDatagramSize: maxDatagramSize,
	}, nil
}

// Frame splits one encoded frame. Sizes were validated by NewFramer, so it cannot fail.
func (f *Framer) Frame(payload []byte, startSeq uint16, timestamp, ssrc uint32) []*rtp.Packet {
	packets, _ := Fragment(payload, startSeq, timestamp, ssrc, f.payloadType, f.maxDatagramSize, HeaderSize)
	return packets
}

// MaxPayloadSize returns the payload bytes carried by a full datagram
func (f *Framer) MaxPayloadSize() int {
	return f.maxDatagramSize - HeaderSize
}

// PayloadType returns the configured payload type
func (f *Framer) PayloadType() uint8 {
	return f.payloadType
}

// Marshal serializes datagrams in order
func Marshal(packets []*rtp.Packet) ([][]byte, error) {
	out := make([][]byte, 0, len(packets))
	for _, p := range packets {
		data, err := p.Marshal()
		if err != nil {
			return nil, fmt.Errorf("failed to marshal RTP packet seq=%d: %w", p.SequenceNumber, err)
		}
		out = append(out, data)
	}
	return out, nil
}

// Describe returns a short representation of a datagram for debug logs.
func Describe(p *rtp.Packet) string {
	return fmt.Sprintf("RTP{V:%d PT:%d Seq:%d TS:%d SSRC:%d PayloadLen:%d}",
		p.Version,
		p.PayloadType,
		p.SequenceNumber,
		p.Timestamp,
		p.SSRC,
		len(p.Payload))
}
