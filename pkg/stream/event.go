package stream

// Reason describes why a streaming job ended
type Reason int

const (
	ReasonStopped Reason = iota
	ReasonSourceExhausted
	ReasonSourceError
	ReasonSendError
)

// String returns the string representation of the reason
func (r Reason) String() string {
	switch r {
	case ReasonStopped:
		return "Stopped"
	case ReasonSourceExhausted:
		return "SourceExhausted"
	case ReasonSourceError:
		return "SourceError"
	case ReasonSendError:
		return "SendError"
	default:
		return "Unknown"
	}
}

// Terminated is emitted once per job after its run loop has exited
type Terminated struct {
	Reason    Reason
	Err       error
	SSRC      uint32
	Frames    uint64
	Datagrams uint64
	NextSeq   uint16
}
