// Package peer owns one TCP connection to a remote BitTorrent peer: the
// handshake, the mandatory first bitfield, and framed message I/O with
// caller-supplied deadlines.
package peer

import (
	"net"
	"time"

	"gtorrent/internal/torrent"
	"gtorrent/internal/torrent/wire"
)

const (
	connectTimeout  = 3 * time.Second
	bitfieldTimeout = 5 * time.Second
)

// Session is exclusively owned by the worker that created it; no two
// goroutines ever read or write the same Session concurrently.
type Session struct {
	conn     net.Conn
	peer     torrent.Peer
	Bitfield wire.Bitfield
}

// Connect dials peer, performs the handshake, and reads the mandatory
// first message, which must be a bitfield. Any failure here means the
// peer is simply unusable; callers treat it as non-fatal.
func Connect(p torrent.Peer, infoHash, selfPeerID [20]byte) (*Session, error) {
	conn, err := net.DialTimeout("tcp", p.String(), connectTimeout)
	if err != nil {
		return nil, &torrent.ConnectError{Peer: p, Err: err}
	}

	if _, err := wire.PerformHandshake(conn, infoHash, selfPeerID); err != nil {
		conn.Close()
		return nil, err
	}

	conn.SetReadDeadline(time.Now().Add(bitfieldTimeout))
	msg, err := wire.ReadMessage(conn)
	conn.SetReadDeadline(time.Time{})
	if err != nil {
		conn.Close()
		return nil, &torrent.ProtocolError{Reason: "no bitfield received: " + err.Error()}
	}
	if msg.ID != wire.MsgBitfield {
		conn.Close()
		return nil, &torrent.ProtocolError{Reason: "expected bitfield as first message"}
	}

	bf := make(wire.Bitfield, len(msg.Payload))
	copy(bf, msg.Payload)

	return &Session{conn: conn, peer: p, Bitfield: bf}, nil
}

// Close releases the underlying connection.
func (s *Session) Close() error { return s.conn.Close() }

// Peer returns the remote endpoint this session is connected to.
func (s *Session) Peer() torrent.Peer { return s.peer }

// Send writes msg to the peer with no deadline; the caller is
// responsible for bounding the overall piece download loop.
func (s *Session) Send(msg *wire.Message) error {
	_, err := s.conn.Write(msg.Serialize())
	return err
}

// Recv reads the next message, failing with a ChokeTimeoutError if none
// arrives within timeout.
func (s *Session) Recv(timeout time.Duration) (*wire.Message, error) {
	s.conn.SetReadDeadline(time.Now().Add(timeout))
	defer s.conn.SetReadDeadline(time.Time{})

	msg, err := wire.ReadMessage(s.conn)
	if err != nil {
		if ne, ok := err.(net.Error); ok && ne.Timeout() {
			return nil, &torrent.ChokeTimeoutError{Peer: s.peer}
		}
		return nil, err
	}
	return msg, nil
}
