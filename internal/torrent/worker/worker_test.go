package worker

import (
	"crypto/sha1"
	"encoding/binary"
	"net"
	"testing"
	"time"

	"gtorrent/internal/torrent"
	"gtorrent/internal/torrent/queue"
	"gtorrent/internal/torrent/sink"
	"gtorrent/internal/torrent/wire"
)

var testInfoHash = [20]byte{1, 2, 3, 4}
var testPeerID = [20]byte{5, 6, 7, 8}

// fakePeer listens on localhost and plays a scripted role as a remote
// peer: handshake, bitfield, then unchoke and serve whatever piece
// content is provided, one block response per request message.
func fakePeer(t *testing.T, content map[int][]byte, afterPiece func()) torrent.Peer {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()

		hs, err := wire.ReadHandshake(conn)
		if err != nil {
			return
		}
		reply := wire.NewHandshake(hs.InfoHash, testPeerID)
		conn.Write(reply.Serialize())

		bf := wire.NewBitfield(len(content) + 1)
		for idx := range content {
			bf.Set(idx)
		}
		conn.Write((&wire.Message{ID: wire.MsgBitfield, Payload: []byte(bf)}).Serialize())

		conn.Write((&wire.Message{ID: wire.MsgUnchoke}).Serialize())

		for {
			msg, err := wire.ReadMessage(conn)
			if err != nil {
				return
			}
			switch msg.ID {
			case wire.MsgRequest:
				index := binary.BigEndian.Uint32(msg.Payload[0:4])
				begin := binary.BigEndian.Uint32(msg.Payload[4:8])
				length := binary.BigEndian.Uint32(msg.Payload[8:12])
				pieceData := content[int(index)]
				block := pieceData[begin : begin+length]
				payload := append(wire.FormatRequest(index, begin, 0)[:8:8], block...)
				conn.Write((&wire.Message{ID: wire.MsgPiece, Payload: payload}).Serialize())
			case wire.MsgHave:
				if afterPiece != nil {
					afterPiece()
				}
			}
		}
	}()

	addr := ln.Addr().(*net.TCPAddr)
	go func() {
		<-time.After(2 * time.Second)
		ln.Close()
	}()
	return torrent.Peer{IP: "127.0.0.1", Port: uint16(addr.Port)}
}

func TestWorkerDownloadsSinglePiece(t *testing.T) {
	data := make([]byte, 100)
	for i := range data {
		data[i] = byte(i)
	}
	hash := sha1.Sum(data)

	p := fakePeer(t, map[int][]byte{0: data}, nil)
	q := queue.New(1)
	out := sink.NewSink(1)
	q.Send(torrent.PieceJob{Index: 0, ExpectedHash: hash, Length: int64(len(data))})
	q.Close()

	done := make(chan error, 1)
	go func() { done <- Run(p, testInfoHash, testPeerID, q, out) }()

	select {
	case result := <-resultChan(out):
		if result.Index != 0 || string(result.Bytes) != string(data) {
			t.Fatalf("unexpected result: %+v", result)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for piece result")
	}
	<-done
}

func TestWorkerRequeuesOnHashMismatch(t *testing.T) {
	data := make([]byte, 50)
	for i := range data {
		data[i] = byte(i + 1)
	}
	var wrongHash [20]byte // does not match sha1(data)

	p := fakePeer(t, map[int][]byte{0: data}, nil)
	q := queue.New(1)
	out := sink.NewSink(1)
	q.Send(torrent.PieceJob{Index: 0, ExpectedHash: wrongHash, Length: int64(len(data))})

	err := Run(p, testInfoHash, testPeerID, q, out)
	if err == nil {
		t.Fatal("expected IntegrityError")
	}
	if _, ok := err.(*torrent.IntegrityError); !ok {
		t.Fatalf("expected *torrent.IntegrityError, got %T: %v", err, err)
	}

	job, ok := q.Recv()
	if !ok || job.Index != 0 {
		t.Fatal("expected requeued job for index 0")
	}
}

// Peer-missing-a-piece and multi-worker recovery scenarios are covered
// end-to-end in internal/torrent/download, where the queue's close
// timing is driven by a real coordinator rather than synthesized.

// resultChan adapts Sink's blocking Recv into a channel usable in select.
func resultChan(s *sink.Sink) <-chan torrent.PieceResult {
	ch := make(chan torrent.PieceResult, 1)
	go func() { ch <- s.Recv() }()
	return ch
}
