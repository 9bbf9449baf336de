package wire

import (
	"fmt"
	"io"
	"net"

	"gtorrent/internal/torrent"
)

// ProtocolIdentifier is the BEP-3 pstr sent in every handshake.
const ProtocolIdentifier = "BitTorrent protocol"

// Handshake is the fixed 49+len(pstr) byte preamble exchanged before any
// framed message flows on the connection.
type Handshake struct {
	Pstr     string
	Reserved [8]byte
	InfoHash [20]byte
	PeerID   [20]byte
}

// NewHandshake builds the handshake we send; Reserved is always zero.
func NewHandshake(infoHash, peerID [20]byte) *Handshake {
	return &Handshake{
		Pstr:     ProtocolIdentifier,
		InfoHash: infoHash,
		PeerID:   peerID,
	}
}

// Serialize encodes the handshake for the wire.
func (h *Handshake) Serialize() []byte {
	buf := make([]byte, 49+len(h.Pstr))
	buf[0] = byte(len(h.Pstr))
	copy(buf[1:], h.Pstr)
	copy(buf[1+len(h.Pstr):], h.Reserved[:])
	copy(buf[1+len(h.Pstr)+8:], h.InfoHash[:])
	copy(buf[1+len(h.Pstr)+8+20:], h.PeerID[:])
	return buf
}

// ReadHandshake reads and parses a handshake from r.
func ReadHandshake(r io.Reader) (*Handshake, error) {
	var lenBuf [1]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return nil, err
	}
	pstrlen := int(lenBuf[0])
	if pstrlen == 0 {
		return nil, &torrent.ProtocolError{Reason: "pstrlen cannot be 0"}
	}

	rest := make([]byte, 48+pstrlen)
	if _, err := io.ReadFull(r, rest); err != nil {
		return nil, err
	}

	h := &Handshake{Pstr: string(rest[:pstrlen])}
	copy(h.Reserved[:], rest[pstrlen:pstrlen+8])
	copy(h.InfoHash[:], rest[pstrlen+8:pstrlen+8+20])
	copy(h.PeerID[:], rest[pstrlen+8+20:])
	return h, nil
}

// PerformHandshake sends our handshake, reads the peer's, and verifies
// the protocol identifier and info_hash. It does not verify the peer_id.
func PerformHandshake(conn net.Conn, infoHash, selfPeerID [20]byte) (*Handshake, error) {
	if _, err := conn.Write(NewHandshake(infoHash, selfPeerID).Serialize()); err != nil {
		return nil, fmt.Errorf("send handshake: %w", err)
	}

	res, err := ReadHandshake(conn)
	if err != nil {
		return nil, fmt.Errorf("read handshake: %w", err)
	}
	if res.Pstr != ProtocolIdentifier {
		return nil, &torrent.ProtocolError{Reason: fmt.Sprintf("unexpected pstr %q", res.Pstr)}
	}
	if res.InfoHash != infoHash {
		return nil, &torrent.ProtocolError{Reason: "info_hash mismatch"}
	}
	return res, nil
}
