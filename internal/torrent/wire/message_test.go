package wire

import (
	"bytes"
	"testing"
)

func TestMessageRoundTrip(t *testing.T) {
	cases := []*Message{
		{ID: MsgChoke},
		{ID: MsgUnchoke},
		{ID: MsgInterested},
		{ID: MsgHave, Payload: FormatHave(7)},
		{ID: MsgBitfield, Payload: []byte{0xff, 0x00}},
		{ID: MsgRequest, Payload: FormatRequest(1, 2, 16384)},
		{ID: MsgPiece, Payload: append(FormatRequest(1, 2, 0)[:8], []byte("hello")...)},
		{ID: MsgCancel, Payload: FormatRequest(1, 2, 16384)},
	}

	for _, want := range cases {
		encoded := want.Serialize()
		got, err := ReadMessage(bytes.NewReader(encoded))
		if err != nil {
			t.Fatalf("ReadMessage(%v): %v", want, err)
		}
		if got.ID != want.ID || !bytes.Equal(got.Payload, want.Payload) {
			t.Fatalf("round-trip mismatch: got %+v, want %+v", got, want)
		}
	}
}

func TestKeepAliveRoundTrip(t *testing.T) {
	msg := &Message{ID: MsgKeepAlive}
	got, err := ReadMessage(bytes.NewReader(msg.Serialize()))
	if err != nil {
		t.Fatal(err)
	}
	if got.ID != MsgKeepAlive {
		t.Fatalf("got %v, want keep-alive", got.ID)
	}
}

func TestReadMessageRejectsOversizedFrame(t *testing.T) {
	var lenBuf [4]byte
	lenBuf[0] = 0xff // declares a huge length
	if _, err := ReadMessage(bytes.NewReader(lenBuf[:])); err == nil {
		t.Fatal("expected error for oversized frame declaration")
	}
}

func TestReadMessageRejectsUnknownID(t *testing.T) {
	msg := &Message{ID: MessageID(200)}
	buf := msg.Serialize()
	if _, err := ReadMessage(bytes.NewReader(buf)); err == nil {
		t.Fatal("expected error for unknown message id")
	}
}

func TestParsePieceTooShort(t *testing.T) {
	if _, _, _, err := ParsePiece([]byte{1, 2, 3}); err == nil {
		t.Fatal("expected error for short piece payload")
	}
}

func TestHandshakeRoundTrip(t *testing.T) {
	var infoHash, peerID [20]byte
	copy(infoHash[:], "aaaaaaaaaaaaaaaaaaaa")
	copy(peerID[:], "bbbbbbbbbbbbbbbbbbbb")

	h := NewHandshake(infoHash, peerID)
	got, err := ReadHandshake(bytes.NewReader(h.Serialize()))
	if err != nil {
		t.Fatal(err)
	}
	if got.Pstr != ProtocolIdentifier || got.InfoHash != infoHash || got.PeerID != peerID {
		t.Fatalf("handshake round-trip mismatch: %+v", got)
	}
}
