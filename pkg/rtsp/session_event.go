package rtsp

// SessionTerminated is emitted once when a session's connection ends
type SessionTerminated struct {
	SessionId  string
	RemoteAddr string
	Err        error // nil for TEARDOWN, peer close and supervisor stop
}

// PlayRequested is emitted for every PLAY, whether or not it started a job
type PlayRequested struct {
	SessionId   string
	Destination string
	Started     bool
	Err         error
}

// TeardownRequested is emitted for every TEARDOWN
type TeardownRequested struct {
	SessionId string
	Err       error
}
