package rtsp

import (
	"fmt"
	"net"
	"strconv"

	"github.com/pion/sdp/v3"
)

// SDPConfig describes the single media stream offered by DESCRIBE
type SDPConfig struct {
	Host        string // Address advertised in the origin and control URL
	Port        int    // RTSP port for the control URL
	SessionName string
	PayloadType uint8
	Encoding    string // e.g. "JPEG"
	ClockRate   uint32
}

// ControlURL returns the aggregate control URL of the stream
func (c SDPConfig) ControlURL() string {
	return fmt.Sprintf("rtsp://%s/stream", net.JoinHostPort(c.Host, strconv.Itoa(c.Port)))
}

func (c SDPConfig) addressType() string {
	if ip := net.ParseIP(c.Host); ip != nil && ip.To4() == nil {
		return "IP6"
	}
	return "IP4"
}

// BuildSDP renders the session description returned by DESCRIBE
func BuildSDP(config SDPConfig) ([]byte, error) {
	session := &sdp.SessionDescription{
		Version: 0,
		Origin: sdp.Origin{
			Username:       "-",
			SessionID:      0,
			SessionVersion: 0,
			NetworkType:    "IN",
			AddressType:    config.addressType(),
			UnicastAddress: config.Host,
		},
		SessionName: sdp.SessionName(config.SessionName),
		TimeDescriptions: []sdp.TimeDescription{
			{Timing: sdp.Timing{StartTime: 0, StopTime: 0}},
		},
	}
	session.WithValueAttribute("control", config.ControlURL())

	video := &sdp.MediaDescription{
		MediaName: sdp.MediaName{
			Media:  "video",
			Port:   sdp.RangedPort{Value: 0},
			Protos: []string{"RTP", "AVP"},
		},
	}
	video.WithCodec(config.PayloadType, config.Encoding, config.ClockRate, 0, "")
	video.WithValueAttribute("control", "streamid=0")
	session.WithMedia(video)

	body, err := session.Marshal()
	if err != nil {
		return nil, fmt.Errorf("failed to marshal SDP: %w", err)
	}
	return body, nil
}
