// Package transport implements the FreeCiv wire framing layer: a reader
// that turns a TCP byte stream into (packet_type, body) pairs, and a
// dispatcher that invokes a registered handler for each one.
//
// Example:
//
//	reader := transport.NewFrameReader(conn)
//	for {
//	    packet, err := reader.ReadPacket()
//	    if err != nil {
//	        break
//	    }
//	    dispatcher.Dispatch(packet)
//	}
package transport

// Packet is one fully reconstructed application-level unit handed from the
// frame reader (C5) to the dispatcher (C6): a packet type number and its
// body, with framing and any compression envelope already stripped away.
type Packet struct {
	PacketType int
	Body       []byte
}
