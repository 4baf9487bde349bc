package transport

import (
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	fclog "github.com/unixfreak0037/freeciv-agent/log"
)

// Dispatcher routes decoded packets to per-type handlers (C6), grounded on
// the teacher's handlers-map-plus-RegisterHandler pattern. Unlike the
// teacher, which spawns a goroutine per inbound packet, Dispatch runs the
// handler synchronously on the calling task: spec.md §5 requires that
// nothing but the single read task ever touch the delta cache, and a
// handler reads and writes state that task owns.
type Dispatcher struct {
	mu       sync.RWMutex
	handlers map[int]PacketHandler
	log      *logrus.Logger
}

// NewDispatcher returns an empty Dispatcher. log may be nil, in which case
// logrus.StandardLogger() is used.
func NewDispatcher(log *logrus.Logger) *Dispatcher {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Dispatcher{handlers: make(map[int]PacketHandler), log: log}
}

// RegisterHandler installs handler for packetType, replacing any handler
// previously registered for it.
func (d *Dispatcher) RegisterHandler(packetType int, handler PacketHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[packetType] = handler
}

// Unregister removes any handler registered for packetType.
func (d *Dispatcher) Unregister(packetType int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.handlers, packetType)
}

// Dispatch invokes the handler registered for packet.PacketType, if any.
// An unregistered packet type is logged at debug level and dropped rather
// than treated as an error (spec.md §7): the codec must tolerate packet
// types the caller never asked to learn about, since the server may send
// ruleset or variant packets a minimal client has no handler for.
//
// A handler panic is recovered and converted into an error so that one
// malfunctioning handler cannot take down the read loop that called
// Dispatch.
func (d *Dispatcher) Dispatch(packet Packet) error {
	d.mu.RLock()
	handler, ok := d.handlers[packet.PacketType]
	d.mu.RUnlock()

	if !ok {
		fclog.New(d.log, "transport", "Dispatch").
			WithField("packet_type", packet.PacketType).
			WithFields(fclog.BodyPreview(packet.Body)).
			Debug("dropping packet with no registered handler")
		return nil
	}

	return d.invoke(packet, handler)
}

func (d *Dispatcher) invoke(packet Packet, handler PacketHandler) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler for packet type %d panicked: %v", packet.PacketType, r)
		}
	}()
	return handler(packet.PacketType, packet.Body)
}
