// Package capture writes raw, fully-reconstructed packet frames to disk for
// offline protocol debugging, grounded on the original client's
// PacketDebugger (original_source/fc_client/packet_debugger.py).
package capture

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
)

// Direction distinguishes packets read from the server from packets sent
// to it; each direction gets its own file counter, matching the original
// tool's inbound_N / outbound_N naming.
type Direction int

const (
	Inbound Direction = iota
	Outbound
)

func (d Direction) String() string {
	if d == Outbound {
		return "outbound"
	}
	return "inbound"
}

// Recorder captures raw packet frames under a session-scoped directory.
// SessionID disambiguates concurrent or repeated capture runs pointed at a
// shared parent directory; the original tool refused to capture into a
// directory that already existed for the same reason, but a random
// per-session subdirectory is less surprising for a long-lived agent that
// may reconnect many times.
type Recorder struct {
	mu        sync.Mutex
	dir       string
	SessionID uuid.UUID

	inboundCount  int
	outboundCount int
}

// NewRecorder creates a fresh session subdirectory under parentDir and
// returns a Recorder rooted there.
func NewRecorder(parentDir string) (*Recorder, error) {
	sessionID := uuid.New()
	dir := filepath.Join(parentDir, sessionID.String())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating capture directory %s: %w", dir, err)
	}
	return &Recorder{dir: dir, SessionID: sessionID}, nil
}

// Dir returns the session's capture directory.
func (r *Recorder) Dir() string { return r.dir }

// Write records one raw frame, including its header, under a name of the
// form DIRECTION_N.packet where N is an auto-incrementing per-direction
// counter starting at 1.
func (r *Recorder) Write(direction Direction, raw []byte) error {
	r.mu.Lock()
	var n int
	if direction == Outbound {
		r.outboundCount++
		n = r.outboundCount
	} else {
		r.inboundCount++
		n = r.inboundCount
	}
	r.mu.Unlock()

	name := fmt.Sprintf("%s_%d.packet", direction, n)
	path := filepath.Join(r.dir, name)
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("writing captured packet %s: %w", path, err)
	}
	return nil
}

// InboundSink returns a func(raw []byte) suitable for wiring directly into
// transport.FrameReader.OnRawFrame; write errors are swallowed to a no-op,
// since a capture failure must never interrupt the connection it is
// observing.
func (r *Recorder) InboundSink() func(raw []byte) {
	return func(raw []byte) {
		_ = r.Write(Inbound, raw)
	}
}
