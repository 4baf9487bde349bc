package freecivagent

import (
	"context"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unixfreak0037/freeciv-agent/transport"
	"github.com/unixfreak0037/freeciv-agent/wire"
)

// fakeServer accepts exactly one connection and hands it to handle on a
// background goroutine, returning the address to dial.
func fakeServer(t *testing.T, handle func(conn net.Conn)) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		handle(conn)
	}()
	return ln.Addr().String()
}

// readJoinRequest reads and decodes the client's join-request frame off
// conn, which must be in Negotiation header mode.
func readJoinRequest(t *testing.T, conn net.Conn) *wire.Record {
	t.Helper()
	reader := transport.NewFrameReader(conn)
	packet, err := reader.ReadPacket()
	require.NoError(t, err)
	require.Equal(t, wire.PacketServerJoinReq, packet.PacketType)

	registry := wire.NewRegistry()
	schema, err := registry.Lookup(wire.PacketServerJoinReq)
	require.NoError(t, err)
	record, err := wire.DecodeNonDelta(schema, packet.Body)
	require.NoError(t, err)
	return record
}

// writeJoinReply encodes and writes a join-reply frame to conn.
func writeJoinReply(t *testing.T, conn net.Conn, accepted bool, message string) {
	t.Helper()
	registry := wire.NewRegistry()
	schema, err := registry.Lookup(wire.PacketServerJoinReply)
	require.NoError(t, err)

	record := wire.NewRecord()
	record.Set("you_can_join", wire.Value{Kind: wire.KindBool, Bool: accepted})
	record.Set("message", wire.Value{Kind: wire.KindString, String: message})
	record.Set("capability", wire.Value{Kind: wire.KindString, String: Capability})
	record.Set("challenge_file", wire.Value{Kind: wire.KindString, String: ""})

	body, err := wire.EncodeNonDelta(schema, record)
	require.NoError(t, err)
	frame, err := transport.EncodeFrame(transport.Negotiation, wire.PacketServerJoinReply, body)
	require.NoError(t, err)

	_, err = conn.Write(frame)
	require.NoError(t, err)
}

func TestAgent_ConnectJoinAcceptedSwitchesHeaderMode(t *testing.T) {
	addr := fakeServer(t, func(conn net.Conn) {
		defer conn.Close()
		record := readJoinRequest(t, conn)
		username, _ := record.Get("username")
		assert.Equal(t, "explorer", username.String)
		writeJoinReply(t, conn, true, "welcome")
	})

	host, port := splitAddr(t, addr)
	options := DefaultOptions()
	options.Host = host
	options.Port = port
	agent := New(options)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	require.NoError(t, agent.Connect(ctx))
	defer agent.Disconnect()

	err := agent.Join(ctx, "explorer")
	assert.NoError(t, err)

	assert.Equal(t, transport.Full, agent.state.reader.HeaderMode())
}

func TestAgent_JoinRejectedSurfacesMessage(t *testing.T) {
	addr := fakeServer(t, func(conn net.Conn) {
		defer conn.Close()
		readJoinRequest(t, conn)
		writeJoinReply(t, conn, false, "server full")
	})

	host, port := splitAddr(t, addr)
	options := DefaultOptions()
	options.Host = host
	options.Port = port
	agent := New(options)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	require.NoError(t, agent.Connect(ctx))
	defer agent.Disconnect()

	err := agent.Join(ctx, "explorer")
	assert.ErrorIs(t, err, ErrJoinRejected)
	assert.Contains(t, err.Error(), "server full")
}

func TestAgent_JoinTimesOutWhenServerNeverReplies(t *testing.T) {
	addr := fakeServer(t, func(conn net.Conn) {
		defer conn.Close()
		readJoinRequest(t, conn)
		// Deliberately never reply.
		<-time.After(2 * time.Second)
	})

	host, port := splitAddr(t, addr)
	options := DefaultOptions()
	options.Host = host
	options.Port = port
	options.JoinTimeout = 50 * time.Millisecond
	agent := New(options)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	require.NoError(t, agent.Connect(ctx))
	defer agent.Disconnect()

	err := agent.Join(ctx, "explorer")
	assert.ErrorIs(t, err, ErrJoinTimeout)
}

func TestAgent_JoinBeforeConnectReturnsErrNotConnected(t *testing.T) {
	agent := New(DefaultOptions())
	err := agent.Join(context.Background(), "explorer")
	assert.ErrorIs(t, err, ErrNotConnected)
}

func TestAgent_ConnectTwiceReturnsErrAlreadyConnected(t *testing.T) {
	addr := fakeServer(t, func(conn net.Conn) {
		conn.Close()
	})
	host, port := splitAddr(t, addr)
	options := DefaultOptions()
	options.Host = host
	options.Port = port
	agent := New(options)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, agent.Connect(ctx))
	defer agent.Disconnect()

	err := agent.Connect(ctx)
	assert.ErrorIs(t, err, ErrAlreadyConnected)
}

// spec.md §8 property 7: no cache entry survives a disconnect.
func TestAgent_DisconnectClearsCache(t *testing.T) {
	addr := fakeServer(t, func(conn net.Conn) {
		defer conn.Close()
		readJoinRequest(t, conn)
		writeJoinReply(t, conn, true, "welcome")
	})
	host, port := splitAddr(t, addr)
	options := DefaultOptions()
	options.Host = host
	options.Port = port
	agent := New(options)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, agent.Connect(ctx))
	require.NoError(t, agent.Join(ctx, "explorer"))

	cache := agent.Cache()
	record := wire.NewRecord()
	record.Set("message", wire.Value{Kind: wire.KindString, String: "Hi"})
	cache.Put(wire.PacketChatMsg, []wire.Value{{Kind: wire.KindU32, U32: 1}}, record)

	_, ok := cache.Get(wire.PacketChatMsg, []wire.Value{{Kind: wire.KindU32, U32: 1}})
	require.True(t, ok)

	require.NoError(t, agent.Disconnect())
	_, ok = cache.Get(wire.PacketChatMsg, []wire.Value{{Kind: wire.KindU32, U32: 1}})
	assert.False(t, ok, "cache must be cleared on disconnect")

	assert.Nil(t, agent.Cache())
}

func TestAgent_RunExitsCleanlyOnContextCancel(t *testing.T) {
	serverDone := make(chan struct{})
	addr := fakeServer(t, func(conn net.Conn) {
		defer conn.Close()
		readJoinRequest(t, conn)
		writeJoinReply(t, conn, true, "welcome")
		<-serverDone
	})
	host, port := splitAddr(t, addr)
	options := DefaultOptions()
	options.Host = host
	options.Port = port
	agent := New(options)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, agent.Connect(ctx))
	require.NoError(t, agent.Join(ctx, "explorer"))

	runCtx, runCancel := context.WithCancel(context.Background())
	runErrCh := make(chan error, 1)
	go func() { runErrCh <- agent.Run(runCtx) }()

	runCancel()
	select {
	case err := <-runErrCh:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after context cancellation")
	}
	close(serverDone)
	agent.Disconnect()
}

func splitAddr(t *testing.T, addr string) (string, int) {
	t.Helper()
	host, portStr, err := net.SplitHostPort(addr)
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)
	return host, port
}
