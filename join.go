package freecivagent

import (
	"context"
	"fmt"
	"time"

	"github.com/unixfreak0037/freeciv-agent/capture"
	fclog "github.com/unixfreak0037/freeciv-agent/log"
	"github.com/unixfreak0037/freeciv-agent/transport"
	"github.com/unixfreak0037/freeciv-agent/wire"
)

// Client identity sent in the join request. These match the values the
// reference client advertises (original_source/fc_client/protocol.py);
// changing MajorVersion/MinorVersion/PatchVersion/Capability to something
// a target server doesn't recognize will simply get the join rejected.
const (
	MajorVersion = 3
	MinorVersion = 3
	PatchVersion = 90
	VersionLabel = "-dev"
	Capability   = "+Freeciv.Devel-3.4-2025.Nov.29"
)

// registerBuiltinHandlers wires up the negotiation-phase packets every
// connection needs regardless of what the caller is doing with the game
// itself: the two processing-bracket packets (ignored) and the join-reply,
// which resolves Join's pending result and flips the header mode.
func (a *Agent) registerBuiltinHandlers(state *ConnectionState) {
	state.dispatcher.RegisterHandler(wire.PacketProcessingStarted, func(packetType int, body []byte) error {
		return nil
	})
	state.dispatcher.RegisterHandler(wire.PacketProcessingFinished, func(packetType int, body []byte) error {
		return nil
	})
	state.dispatcher.RegisterHandler(wire.PacketServerJoinReply, func(packetType int, body []byte) error {
		return a.handleJoinReply(state, body)
	})
}

func (a *Agent) handleJoinReply(state *ConnectionState, body []byte) error {
	schema, err := state.registry.Lookup(wire.PacketServerJoinReply)
	if err != nil {
		return err
	}
	record, err := wire.DecodeNonDelta(schema, body)
	if err != nil {
		return err
	}

	youCanJoin, _ := record.Get("you_can_join")
	message, _ := record.Get("message")

	state.reader.SetHeaderMode(transport.Full)

	state.joinMu.Lock()
	ch := state.joinResult
	state.joinMu.Unlock()
	if ch != nil {
		ch <- joinOutcome{accepted: youCanJoin.Bool, message: message.String}
	}
	return nil
}

// Join sends PACKET_SERVER_JOIN_REQ for username and blocks until a
// join-reply is decoded, the configured join timeout elapses
// (ErrJoinTimeout), or ctx is canceled. It drives the same FrameReader
// Run will later loop on, so Join must complete (or fail) before the
// caller starts Run — the two must never read from the connection at the
// same time (spec.md §5 "single task owns the transport").
func (a *Agent) Join(ctx context.Context, username string) error {
	a.mu.Lock()
	state := a.state
	a.mu.Unlock()
	if state == nil {
		return ErrNotConnected
	}

	schema, err := state.registry.Lookup(wire.PacketServerJoinReq)
	if err != nil {
		return err
	}
	record := wire.NewRecord()
	record.Set("username", wire.Value{Kind: wire.KindString, String: username})
	record.Set("capability", wire.Value{Kind: wire.KindString, String: Capability})
	record.Set("version_label", wire.Value{Kind: wire.KindString, String: VersionLabel})
	record.Set("major_version", wire.Value{Kind: wire.KindU32, U32: MajorVersion})
	record.Set("minor_version", wire.Value{Kind: wire.KindU32, U32: MinorVersion})
	record.Set("patch_version", wire.Value{Kind: wire.KindU32, U32: PatchVersion})

	body, err := wire.EncodeNonDelta(schema, record)
	if err != nil {
		return fmt.Errorf("encoding join request: %w", err)
	}
	frame, err := transport.EncodeFrame(transport.Negotiation, wire.PacketServerJoinReq, body)
	if err != nil {
		return fmt.Errorf("framing join request: %w", err)
	}

	ch := make(chan joinOutcome, 1)
	state.joinMu.Lock()
	state.joinResult = ch
	state.joinMu.Unlock()
	defer func() {
		state.joinMu.Lock()
		state.joinResult = nil
		state.joinMu.Unlock()
	}()

	timeout := a.options.JoinTimeout
	if timeout <= 0 {
		timeout = DefaultOptions().JoinTimeout
	}
	joinCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := transport.WriteWithDeadline(state.conn, frame, timeout); err != nil {
		return fmt.Errorf("sending join request: %w", err)
	}
	if a.options.Recorder != nil {
		_ = a.options.Recorder.Write(capture.Outbound, frame)
	}
	fclog.New(a.log, "freecivagent", "Join").WithField("username", username).Debug("sent join request")

	// ReadPacket blocks on the raw connection and has no context awareness
	// of its own; a read deadline is what actually bounds it once the
	// write above succeeds.
	if deadline, ok := joinCtx.Deadline(); ok {
		_ = state.conn.SetReadDeadline(deadline)
	}
	defer state.conn.SetReadDeadline(time.Time{})

	readErrCh := make(chan error, 1)
	go a.pumpUntilJoinReply(state, ch, readErrCh, joinCtx)

	select {
	case outcome := <-ch:
		if outcome.err != nil {
			return outcome.err
		}
		if !outcome.accepted {
			return fmt.Errorf("%w: %s", ErrJoinRejected, outcome.message)
		}
		return nil
	case err := <-readErrCh:
		if joinCtx.Err() != nil {
			return ErrJoinTimeout
		}
		return err
	case <-joinCtx.Done():
		return ErrJoinTimeout
	}
}

// pumpUntilJoinReply reads and dispatches packets until the join-reply
// handler delivers an outcome on ch, joinCtx is done, or a read fails. It
// mirrors the original client's "skip everything until JOIN_REPLY, but
// specifically skip PROCESSING_STARTED" loop, generalized to dispatch
// every packet type instead of special-casing one.
func (a *Agent) pumpUntilJoinReply(state *ConnectionState, ch chan joinOutcome, errCh chan error, joinCtx context.Context) {
	for {
		select {
		case <-joinCtx.Done():
			return
		default:
		}

		packet, err := state.reader.ReadPacket()
		if err != nil {
			select {
			case errCh <- err:
			default:
			}
			return
		}
		if dispatchErr := state.dispatcher.Dispatch(packet); dispatchErr != nil {
			fclog.New(a.log, "freecivagent", "pumpUntilJoinReply").
				WithError(dispatchErr, "handler_error", "dispatch").
				WithField("packet_type", packet.PacketType).
				Error("handler failed during join")
		}
		if packet.PacketType == wire.PacketServerJoinReply {
			return
		}
	}
}
