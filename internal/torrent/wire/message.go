package wire

import (
	"encoding/binary"
	"io"

	"gtorrent/internal/torrent"
)

// MessageID identifies the type of a framed peer message. Wire ids run
// 0–9; MsgKeepAlive is a sentinel outside that range, used for the
// zero-length frame, which carries no id byte.
type MessageID uint8

const (
	MsgChoke         MessageID = 0
	MsgUnchoke       MessageID = 1
	MsgInterested    MessageID = 2
	MsgNotInterested MessageID = 3
	MsgHave          MessageID = 4
	MsgBitfield      MessageID = 5
	MsgRequest       MessageID = 6
	MsgPiece         MessageID = 7
	MsgCancel        MessageID = 8
	MsgPort          MessageID = 9   // BEP-5 DHT port; decoded, never acted on
	MsgKeepAlive     MessageID = 255 // sentinel; not a wire ID
)

// maxFrameLength bounds allocation for a single incoming frame. 17 KiB
// comfortably covers the 16 KiB MaxBlockSize plus the piece message's
// 9-byte id+index+begin header, with slack for other message kinds.
const maxFrameLength = 17 * 1024

// Message is a single decoded peer-wire frame.
type Message struct {
	ID      MessageID
	Payload []byte
}

// Serialize encodes m as a length-prefixed frame. KeepAlive encodes as
// the 4-byte zero-length frame and nothing else.
func (m *Message) Serialize() []byte {
	if m.ID == MsgKeepAlive {
		return make([]byte, 4)
	}
	length := uint32(1 + len(m.Payload))
	buf := make([]byte, 4+length)
	binary.BigEndian.PutUint32(buf[0:4], length)
	buf[4] = byte(m.ID)
	copy(buf[5:], m.Payload)
	return buf
}

// ReadMessage reads and decodes one frame from r. A zero-length frame
// decodes to KeepAlive. Frames declaring a length beyond maxFrameLength
// are rejected as a ProtocolError before any payload allocation happens.
func ReadMessage(r io.Reader) (*Message, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return nil, err
	}
	length := binary.BigEndian.Uint32(lenBuf[:])
	if length == 0 {
		return &Message{ID: MsgKeepAlive}, nil
	}
	if length > maxFrameLength {
		return nil, &torrent.ProtocolError{Reason: "frame length exceeds ceiling"}
	}

	payload := make([]byte, length)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, err
	}

	id := MessageID(payload[0])
	if id > MsgPort {
		return nil, &torrent.ProtocolError{Reason: "unknown message id"}
	}
	return &Message{ID: id, Payload: payload[1:]}, nil
}

// FormatRequest builds the payload for a request (or cancel) message.
func FormatRequest(index, begin, length uint32) []byte {
	buf := make([]byte, 12)
	binary.BigEndian.PutUint32(buf[0:4], index)
	binary.BigEndian.PutUint32(buf[4:8], begin)
	binary.BigEndian.PutUint32(buf[8:12], length)
	return buf
}

// FormatHave builds the payload for a have message.
func FormatHave(index uint32) []byte {
	buf := make([]byte, 4)
	binary.BigEndian.PutUint32(buf, index)
	return buf
}

// ParsePiece extracts index, begin, and block data from a piece
// message's payload.
func ParsePiece(payload []byte) (index, begin uint32, data []byte, err error) {
	if len(payload) < 8 {
		return 0, 0, nil, &torrent.ProtocolError{Reason: "piece payload too short"}
	}
	index = binary.BigEndian.Uint32(payload[0:4])
	begin = binary.BigEndian.Uint32(payload[4:8])
	data = payload[8:]
	return index, begin, data, nil
}

// ParseHave extracts the piece index from a have message's payload.
func ParseHave(payload []byte) (uint32, error) {
	if len(payload) != 4 {
		return 0, &torrent.ProtocolError{Reason: "have payload invalid length"}
	}
	return binary.BigEndian.Uint32(payload), nil
}
