// Package freecivagent implements the connection driver (C7): it owns a
// FreeCiv server connection end to end — dialing, the join handshake, the
// long-running read/dispatch loop, and teardown — grounded on the
// teacher's Tox struct (options, mutex-guarded state, context-based
// shutdown).
package freecivagent

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/unixfreak0037/freeciv-agent/capture"
	fclog "github.com/unixfreak0037/freeciv-agent/log"
	"github.com/unixfreak0037/freeciv-agent/transport"
	"github.com/unixfreak0037/freeciv-agent/wire"
)

// Options configures an Agent.
type Options struct {
	Host        string
	Port        int
	Username    string
	JoinTimeout time.Duration
	Log         *logrus.Logger

	// Recorder, if non-nil, receives every raw inbound frame for offline
	// debugging (spec.md §6 capture mode).
	Recorder *capture.Recorder
}

// DefaultOptions returns Options with JoinTimeout defaulted to 10 seconds
// (spec.md §4.7) and a standard logrus logger.
func DefaultOptions() *Options {
	return &Options{
		JoinTimeout: 10 * time.Second,
		Log:         logrus.StandardLogger(),
	}
}

func (o *Options) addr() string {
	return net.JoinHostPort(o.Host, fmt.Sprintf("%d", o.Port))
}

// ConnectionState bundles everything the read loop owns for the life of
// one connection: the socket, the frame reader (which tracks header mode),
// the dispatcher, the schema registry, and the delta cache. It belongs to
// an Agent rather than existing as a package-level singleton (spec.md §9
// DESIGN NOTES) so independent Agents, and repeated test setups, never
// share state.
type ConnectionState struct {
	conn       net.Conn
	reader     *transport.FrameReader
	dispatcher *transport.Dispatcher
	registry   *wire.Registry
	cache      *wire.Cache

	joinMu     sync.Mutex
	joinResult chan joinOutcome
}

type joinOutcome struct {
	accepted bool
	message  string
	err      error
}

// Agent is the connection driver. It is not safe for concurrent Connect
// calls, but Disconnect may be called from any goroutine while Run is in
// progress on another — the same split the teacher's Tox.Kill/ctx.cancel
// pair gives its read loop.
type Agent struct {
	options *Options
	log     *logrus.Logger

	mu    sync.Mutex
	state *ConnectionState

	ctx    context.Context
	cancel context.CancelFunc
}

// New returns an Agent configured by options. A nil options uses
// DefaultOptions.
func New(options *Options) *Agent {
	if options == nil {
		options = DefaultOptions()
	}
	if options.Log == nil {
		options.Log = logrus.StandardLogger()
	}
	return &Agent{options: options, log: options.Log}
}

// Connect dials the configured server and prepares the frame reader,
// dispatcher, registry, and cache. It does not perform the join handshake;
// call Join afterward.
func (a *Agent) Connect(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.state != nil {
		return ErrAlreadyConnected
	}

	conn, err := transport.Dial(ctx, a.options.addr())
	if err != nil {
		return err
	}

	reader := transport.NewFrameReader(conn)
	if a.options.Recorder != nil {
		reader.OnRawFrame = a.options.Recorder.InboundSink()
	}

	state := &ConnectionState{
		conn:       conn,
		reader:     reader,
		dispatcher: transport.NewDispatcher(a.log),
		registry:   wire.NewRegistry(),
		cache:      wire.NewCache(),
	}
	a.state = state
	a.ctx, a.cancel = context.WithCancel(context.Background())

	a.registerBuiltinHandlers(state)
	return nil
}

// Registry returns the active connection's schema registry, so callers can
// RegisterSchema or LoadSchemaFile before traffic starts flowing. It
// returns nil if not connected.
func (a *Agent) Registry() *wire.Registry {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.state == nil {
		return nil
	}
	return a.state.registry
}

// Cache returns the active connection's delta cache, so a packet handler
// can decode delta packets without the driver needing to know each
// handler's schema ahead of time. It returns nil if not connected.
func (a *Agent) Cache() *wire.Cache {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.state == nil {
		return nil
	}
	return a.state.cache
}

// RegisterHandler installs handler for packetType on the active
// connection's dispatcher.
func (a *Agent) RegisterHandler(packetType int, handler transport.PacketHandler) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.state == nil {
		return ErrNotConnected
	}
	a.state.dispatcher.RegisterHandler(packetType, handler)
	return nil
}

// Run drives the read/dispatch loop (C5 ∘ C6) until ctx is canceled, the
// connection's own shutdown is triggered via Disconnect, or a read fails.
// It returns nil on a clean shutdown and the underlying error otherwise.
func (a *Agent) Run(ctx context.Context) error {
	a.mu.Lock()
	state := a.state
	driverCtx := a.ctx
	a.mu.Unlock()
	if state == nil {
		return ErrNotConnected
	}

	stop := make(chan struct{})
	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			state.conn.Close()
		case <-driverCtx.Done():
			state.conn.Close()
		case <-stop:
		}
		close(done)
	}()

	var loopErr error
	for {
		packet, err := state.reader.ReadPacket()
		if err != nil {
			select {
			case <-ctx.Done():
				loopErr = nil
			case <-driverCtx.Done():
				loopErr = nil
			default:
				loopErr = err
			}
			break
		}
		if dispatchErr := state.dispatcher.Dispatch(packet); dispatchErr != nil {
			fclog.New(a.log, "freecivagent", "Run").
				WithError(dispatchErr, "handler_error", "dispatch").
				WithField("packet_type", packet.PacketType).
				Error("handler failed; cache already reflects the decoded frame")
		}
	}

	close(stop)
	<-done
	return loopErr
}

// Disconnect tears down the active connection: it signals the read loop to
// stop, closes the socket, and clears the delta cache so no entry from this
// connection is observable after a later reconnect (spec.md §8 property 7).
func (a *Agent) Disconnect() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.state == nil {
		return ErrNotConnected
	}
	a.cancel()
	err := a.state.conn.Close()
	a.state.cache.ClearAll()
	a.state = nil
	return err
}
